package dto

type ResetRequestInput struct {
	Email string `json:"email"`
}

type ResetConfirmInput struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}
