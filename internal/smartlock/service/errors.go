package service

import "errors"

var (
	ErrInvalidUserID    = errors.New("user id is required")
	ErrInvalidAction    = errors.New("action must be lock or unlock")
	ErrInvalidEmail     = errors.New("email is required")
	ErrInvalidFullName  = errors.New("full name is required")
	ErrInvalidPin       = errors.New("pincode must be 4 to 8 digits")
	ErrInvalidBattery   = errors.New("battery level must be between 0 and 100")
	ErrInvalidLockState = errors.New("lock state must be locked or unlocked")
	ErrEmptyUpdate      = errors.New("no fields to update")
	ErrMalformedMessage = errors.New("malformed socket message")

	// ErrStorage wraps collaborator failures that happen after the in-memory
	// lock state has already moved.
	ErrStorage = errors.New("storage error")

	// ErrEnrollmentFailed means the controller acknowledged the scan with
	// success=false.
	ErrEnrollmentFailed = errors.New("enrollment failed")
)

var (
	ErrInvalidNotificationID = errors.New("notification id is required")
	ErrMissingRead           = errors.New("read is required")
)
