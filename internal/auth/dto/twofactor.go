package dto

type VerifyTwoFactorInput struct {
	UserID      string `json:"user_id"`
	Code        string `json:"code"`
	TrustDevice bool   `json:"trust_device"`
	Fingerprint string `json:"-"`
	IPAddress   string `json:"-"`
	UserAgent   string `json:"-"`
}
