package dto

import "time"

type TrustedDeviceOutput struct {
	ID           string     `json:"id"`
	IPAddress    string     `json:"ip_address"`
	UserAgent    string     `json:"user_agent"`
	LastUsedAt   time.Time  `json:"last_used"`
	TrustedUntil *time.Time `json:"trusted_until"`
}
