package dto

type UpdatePhoneInput struct {
	Phone string `json:"phone"`
}
