package service

import (
	"context"
	"log"
	"time"

	"github.com/autospare/auth-service/config"
	"github.com/autospare/auth-service/internal/auth/domain"
)

// Sweeper deletes rows that have aged out: expired sessions, expired codes,
// expired reset tokens and old audit entries. It is storage hygiene only;
// every read path already checks expiry itself.
type Sweeper struct {
	sessions  domain.SessionRepository
	codes     domain.TwoFactorRepository
	resets    domain.PasswordResetRepository
	users     domain.UserRepository
	interval  time.Duration
	retention time.Duration
}

func NewSweeper(
	sessions domain.SessionRepository,
	codes domain.TwoFactorRepository,
	resets domain.PasswordResetRepository,
	users domain.UserRepository,
	cfg *config.Config,
) *Sweeper {
	return &Sweeper{
		sessions:  sessions,
		codes:     codes,
		resets:    resets,
		users:     users,
		interval:  time.Duration(cfg.SweepIntervalMin) * time.Minute,
		retention: time.Duration(cfg.AttemptRetentionDays) * 24 * time.Hour,
	}
}

// Run sweeps once immediately, then on every tick until the context ends.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.Sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

func (s *Sweeper) Sweep(ctx context.Context) {
	if n, err := s.sessions.DeleteExpired(ctx); err != nil {
		log.Printf("warn: sweep expired sessions: %v", err)
	} else if n > 0 {
		log.Printf("cleanup: removed %d expired sessions", n)
	}

	if n, err := s.codes.DeleteExpired(ctx); err != nil {
		log.Printf("warn: sweep expired 2fa codes: %v", err)
	} else if n > 0 {
		log.Printf("cleanup: removed %d expired 2fa codes", n)
	}

	if n, err := s.resets.DeleteExpired(ctx); err != nil {
		log.Printf("warn: sweep expired reset tokens: %v", err)
	} else if n > 0 {
		log.Printf("cleanup: removed %d expired reset tokens", n)
	}

	if n, err := s.users.DeleteOldLoginAttempts(ctx, s.retention); err != nil {
		log.Printf("warn: sweep old login attempts: %v", err)
	} else if n > 0 {
		log.Printf("cleanup: removed %d old login attempts", n)
	}
}
