package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	DefaultPort                  = "8080"
	DefaultRedisURL              = "redis://localhost:6379/0"
	DefaultAccessTokenExpiryMin  = 15
	DefaultRefreshTokenExpiryMin = 10080
	DefaultMaxActiveSessions     = 5
	DefaultLoginMaxAttempts      = 5
	DefaultLockoutMinutes        = 15
	DefaultLoginRateLimit        = 5
	DefaultLoginRateWindowSec    = 60
	DefaultTwoFactorExpiryMin    = 10
	DefaultTwoFactorMaxAttempts  = 3
	DefaultTrustedDeviceDays     = 180
	DefaultResetTokenExpiryMin   = 60
	DefaultBcryptCost            = 12
	DefaultSweepIntervalMin      = 60
	DefaultAttemptRetentionDays  = 90
)

type Config struct {
	Env                  string
	Port                 string
	DBURL                string
	RedisURL             string
	AccessTokenSecret    string
	RefreshTokenSecret   string
	AccessExpiryMin      int
	RefreshExpiryMin     int
	MaxActiveSessions    int
	LoginMaxAttempts     int
	LockoutMinutes       int
	LoginRateLimit       int
	LoginRateWindowSec   int
	TwoFactorExpiryMin   int
	TwoFactorMaxAttempts int
	TwoFactorDevCode     string
	TwoFactorStrictSend  bool
	TrustedDeviceDays    int
	ResetTokenExpiryMin  int
	BcryptCost           int
	TwilioAccountSID     string
	TwilioAuthToken      string
	TwilioFromNumber     string
	SweepIntervalMin     int
	AttemptRetentionDays int
}

// Load reads config/.env.dev or config/.env.prod (selected by ENV) and then
// the process environment; environment variables always win over file values.
func Load() *Config {
	env := getEnv("ENV", "development")

	envFile := "config/.env.dev"
	if env == "production" {
		envFile = "config/.env.prod"
	}

	// godotenv never overrides variables that are already set.
	if err := godotenv.Load(envFile); err != nil {
		log.Printf("no %s file found, using environment only", envFile)
	}

	return &Config{
		Env:                  env,
		Port:                 getEnv("PORT", DefaultPort),
		DBURL:                mustGetEnv("DB_URL"),
		RedisURL:             getEnv("REDIS_URL", DefaultRedisURL),
		AccessTokenSecret:    mustGetEnv("ACCESS_TOKEN_SECRET"),
		RefreshTokenSecret:   mustGetEnv("REFRESH_TOKEN_SECRET"),
		AccessExpiryMin:      getEnvAsInt("ACCESS_TOKEN_EXPIRY", DefaultAccessTokenExpiryMin),
		RefreshExpiryMin:     getEnvAsInt("REFRESH_TOKEN_EXPIRY", DefaultRefreshTokenExpiryMin),
		MaxActiveSessions:    getEnvAsInt("MAX_ACTIVE_SESSIONS", DefaultMaxActiveSessions),
		LoginMaxAttempts:     getEnvAsInt("LOGIN_MAX_ATTEMPTS", DefaultLoginMaxAttempts),
		LockoutMinutes:       getEnvAsInt("LOCKOUT_MINUTES", DefaultLockoutMinutes),
		LoginRateLimit:       getEnvAsInt("LOGIN_RATE_LIMIT", DefaultLoginRateLimit),
		LoginRateWindowSec:   getEnvAsInt("LOGIN_RATE_WINDOW_SECONDS", DefaultLoginRateWindowSec),
		TwoFactorExpiryMin:   getEnvAsInt("TWO_FACTOR_EXPIRY", DefaultTwoFactorExpiryMin),
		TwoFactorMaxAttempts: getEnvAsInt("TWO_FACTOR_MAX_ATTEMPTS", DefaultTwoFactorMaxAttempts),
		TwoFactorDevCode:     getEnv("DEV_2FA_CODE", ""),
		TwoFactorStrictSend:  getEnvAsBool("TWO_FACTOR_STRICT_SEND", false),
		TrustedDeviceDays:    getEnvAsInt("TRUST_DEVICE_DAYS", DefaultTrustedDeviceDays),
		ResetTokenExpiryMin:  getEnvAsInt("RESET_TOKEN_EXPIRY", DefaultResetTokenExpiryMin),
		BcryptCost:           getEnvAsInt("BCRYPT_COST", DefaultBcryptCost),
		TwilioAccountSID:     getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:      getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioFromNumber:     getEnv("TWILIO_FROM_NUMBER", ""),
		SweepIntervalMin:     getEnvAsInt("SWEEP_INTERVAL_MINUTES", DefaultSweepIntervalMin),
		AttemptRetentionDays: getEnvAsInt("ATTEMPT_RETENTION_DAYS", DefaultAttemptRetentionDays),
	}
}

func getEnv(key string, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func mustGetEnv(key string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	log.Fatalf("Missing required config: %s", key)
	return ""
}

func getEnvAsInt(key string, defaultVal int) int {
	valStr := os.Getenv(key)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		log.Printf("Invalid value for %s, using default %d", key, defaultVal)
		return defaultVal
	}
	return val
}

func getEnvAsBool(key string, defaultVal bool) bool {
	valStr := os.Getenv(key)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.ParseBool(valStr)
	if err != nil {
		log.Printf("Invalid value for %s, using default %t", key, defaultVal)
		return defaultVal
	}
	return val
}
