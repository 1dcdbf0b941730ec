package types

import "time"

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleStudent  Role = "student"
	RoleLecturer Role = "lecturer"
)

type User struct {
	ID                string    `json:"_id"`
	Email             string    `json:"email"`
	FullName          string    `json:"fullName"`
	Role              Role      `json:"role"`
	DeviceID          string    `json:"deviceId,omitempty"`
	BiometricID       int       `json:"biometricId"`
	BiometricEnrolled bool      `json:"biometricEnrolled"`
	CreatedAt         time.Time `json:"createdAt"`

	// Pin is forwarded to the lock controller on registration and never
	// serialized back to API clients.
	Pin string `json:"-"`
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Pincode  string `json:"pincode"`
	FullName string `json:"fullName"`
}

type RegisterResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
