package dto

type LoginInput struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	TrustDevice bool   `json:"trust_device"`
	Fingerprint string `json:"-"`
	IPAddress   string `json:"-"`
	UserAgent   string `json:"-"`
}

// LoginResult is a tagged outcome: either Tokens is set (authenticated) or
// Requires2FA is true and UserID identifies the pending account.
type LoginResult struct {
	Tokens      *TokenResponse
	Requires2FA bool
	UserID      string
}
