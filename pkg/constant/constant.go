package constant

const (
	DefaultTokenType = "bearer"

	AccessTokenType  = "access"
	RefreshTokenType = "refresh"

	LoginRateKeyPrefix     = "ratelimit:login:"
	TwoFactorRateKeyPrefix = "ratelimit:2fa:"

	// failure_reason values recorded on login_attempts rows
	ReasonUnknownEmail    = "unknown_email"
	ReasonInvalidPassword = "invalid_password"
	ReasonAccountLocked   = "account_locked"
	ReasonAccountInactive = "account_inactive"
)
