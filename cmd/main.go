package main

import (
	"context"
	"log"

	"github.com/autospare/auth-service/config"
	"github.com/autospare/auth-service/db"
	"github.com/autospare/auth-service/internal/auth/domain"
	"github.com/autospare/auth-service/internal/auth/handler"
	"github.com/autospare/auth-service/internal/auth/ratelimit"
	repo "github.com/autospare/auth-service/internal/auth/repository/postgres"
	"github.com/autospare/auth-service/internal/auth/service"
	"github.com/autospare/auth-service/internal/auth/sms"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dbPool, err := db.NewPostgresPool(ctx, cfg.DBURL)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer dbPool.Close()

	redisClient, err := db.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer redisClient.Close()

	userRepo := repo.NewUserRepository(dbPool)
	sessionRepo := repo.NewSessionRepository(dbPool)
	twoFactorRepo := repo.NewTwoFactorRepository(dbPool)
	resetRepo := repo.NewPasswordResetRepository(dbPool)

	var sender domain.SMSSender = sms.NewLogSender()
	if cfg.TwilioAccountSID != "" && cfg.TwilioAuthToken != "" {
		sender = sms.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber)
	} else {
		log.Printf("no Twilio credentials configured, SMS messages will be logged")
	}

	limiter := ratelimit.New(redisClient)
	tokenService := service.NewTokenService(cfg.AccessTokenSecret, cfg.RefreshTokenSecret,
		cfg.AccessExpiryMin, cfg.RefreshExpiryMin)
	twoFactorService := service.NewTwoFactorService(twoFactorRepo, sender, cfg)
	userService := service.NewUserService(userRepo, sessionRepo, resetRepo, twoFactorService,
		tokenService, limiter, cfg)

	sweeper := service.NewSweeper(sessionRepo, twoFactorRepo, resetRepo, userRepo, cfg)
	go sweeper.Run(ctx)

	authHandler := handler.NewAuthHandler(userService)

	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())
	handler.RegisterRoutes(app, authHandler)

	log.Fatal(app.Listen(":" + cfg.Port))
}
