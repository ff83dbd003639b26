package sms

import (
	"context"
	"log"
)

// LogSender prints messages instead of delivering them. Used in development
// when no Twilio credentials are configured.
type LogSender struct{}

func NewLogSender() *LogSender {
	return &LogSender{}
}

func (s *LogSender) Send(_ context.Context, phone, message string) error {
	log.Printf("[DEV SMS] to %s: %s", phone, message)

	return nil
}
