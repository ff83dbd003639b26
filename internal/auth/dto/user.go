package dto

import "time"

type UserOutput struct {
	ID              string     `json:"id"`
	Email           string     `json:"email"`
	Phone           string     `json:"phone"`
	FullName        string     `json:"full_name"`
	IsPhoneVerified bool       `json:"is_phone_verified"`
	IsAdmin         bool       `json:"is_admin"`
	CreatedAt       time.Time  `json:"created_at"`
	LastLoginAt     *time.Time `json:"last_login_at,omitempty"`
}
