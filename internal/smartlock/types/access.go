package types

import "time"

// LockState is the authoritative position of the physical lock.
type LockState string

const (
	LockStateLocked   LockState = "locked"
	LockStateUnlocked LockState = "unlocked"
)

func (s LockState) Valid() bool {
	return s == LockStateLocked || s == LockStateUnlocked
}

// AccessMethod is how the person at the door identified themselves.
type AccessMethod string

const (
	AccessMethodPin       AccessMethod = "pin"
	AccessMethodBiometric AccessMethod = "biometric"
	AccessMethodMobile    AccessMethod = "mobile"
)

func (m AccessMethod) Valid() bool {
	switch m {
	case AccessMethodPin, AccessMethodBiometric, AccessMethodMobile:
		return true
	}
	return false
}

// AccessLogUser is the slice of a user record that is attached to access log
// listings.
type AccessLogUser struct {
	ID       string `json:"_id"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

type AccessLog struct {
	ID           string         `json:"_id"`
	User         *AccessLogUser `json:"user,omitempty"`
	AccessMethod AccessMethod   `json:"accessMethod,omitempty"`
	Success      bool           `json:"success"`
	Action       string         `json:"action,omitempty"`
	Notes        string         `json:"notes,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
}

type DoorControlRequest struct {
	Action string `json:"action"`
}

type DoorControlResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Delivered bool   `json:"delivered"`
}

type EnrollRequest struct {
	UserID string `json:"userId"`
}

type EnrollResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
