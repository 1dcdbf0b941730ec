package types

import "time"

type NotificationType string

const (
	NotificationSecurity NotificationType = "security"
	NotificationSystem   NotificationType = "system"
	NotificationInfo     NotificationType = "info"
)

func (t NotificationType) Valid() bool {
	switch t {
	case NotificationSecurity, NotificationSystem, NotificationInfo:
		return true
	}
	return false
}

type Notification struct {
	ID        string           `json:"_id"`
	UserID    string           `json:"user,omitempty"`
	Type      NotificationType `json:"type"`
	Message   string           `json:"message"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// NotificationUpdateRequest is the body of PUT /notifications/update. Read is
// a pointer so a missing field can be told apart from false.
type NotificationUpdateRequest struct {
	NotificationID string `json:"notificationId"`
	Read           *bool  `json:"read"`
}

type DiagnosticsResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Device  Device `json:"device"`
}
