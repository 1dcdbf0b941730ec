package mqtt

import "fmt"

// Topics builds the topic tree under Prefix:
//
//	<prefix>/<deviceId>/lock_state   retained
//	<prefix>/<deviceId>/access       events
//	<prefix>/hardware/presence       retained
//	<prefix>/server/status           retained, also the last will
type Topics struct {
	Prefix string
}

func (t Topics) LockState(deviceID string) string {
	return fmt.Sprintf("%s/%s/lock_state", t.Prefix, deviceID)
}

func (t Topics) Access(deviceID string) string {
	return fmt.Sprintf("%s/%s/access", t.Prefix, deviceID)
}

func (t Topics) Presence() string {
	return t.Prefix + "/hardware/presence"
}

func (t Topics) ServerStatus() string {
	return t.Prefix + "/server/status"
}
