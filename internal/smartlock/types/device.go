package types

import "time"

type Device struct {
	DeviceID     string    `json:"deviceId"`
	LockState    LockState `json:"lockState"`
	BatteryLevel int       `json:"batteryLevel"`
	WifiStatus   bool      `json:"wifiStatus"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// DeviceUpdate carries the optional fields of PUT /device. Nil means "leave
// unchanged".
type DeviceUpdate struct {
	LockState    *LockState `json:"lockState,omitempty"`
	BatteryLevel *int       `json:"batteryLevel,omitempty"`
	WifiStatus   *bool      `json:"wifiStatus,omitempty"`
}

func (u DeviceUpdate) Empty() bool {
	return u.LockState == nil && u.BatteryLevel == nil && u.WifiStatus == nil
}

type DashboardSummary struct {
	Device        Device      `json:"device"`
	RecentLogs    []AccessLog `json:"recentLogs"`
	UserCount     int         `json:"userCount"`
	TotalAccesses int         `json:"totalAccesses"`
	SuccessRate   int         `json:"successRate"`
}
