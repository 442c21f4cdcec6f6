package users

import "time"

const (
	RoleSeeker      = "SEEKER"
	RoleFacilitator = "FACILITATOR"
)

type User struct {
	ID           string
	Email        string
	PasswordHash []byte
	Role         string
	Verified     bool
	OTP          string
	OTPIssuedAt  time.Time
	CreatedAt    time.Time
}
