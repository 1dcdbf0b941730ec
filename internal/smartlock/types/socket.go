package types

import (
	"encoding/json"
	"strconv"
)

// Inbound socket actions.
const (
	ActionCheckHardwareStatus = "checkHardwareStatus"
	ActionEnrollAck           = "enrollAck"
	ActionUnlocked            = "unlocked"
	ActionLocked              = "locked"
	ActionFailed              = "failed"
)

// Outbound socket actions and plain-text commands. The lock firmware matches
// these byte for byte.
const (
	ActionHardwareStatus = "hardwareStatus"

	CommandLock   = "lock"
	CommandUnlock = "unlock"
	CommandVerify = "verify"
)

// InboundMessage is the union of every JSON frame a client may send.
type InboundMessage struct {
	Action        string       `json:"action"`
	FingerprintID *int         `json:"fingerprintId,omitempty"`
	Success       bool         `json:"success,omitempty"`
	Source        AccessMethod `json:"source,omitempty"`
	ID            *int         `json:"id,omitempty"`
}

type HardwareStatus struct {
	Action         string `json:"action"`
	HardwareActive bool   `json:"hardwareActive"`
}

func HardwareStatusFrame(active bool) []byte {
	b, _ := json.Marshal(HardwareStatus{Action: ActionHardwareStatus, HardwareActive: active})
	return b
}

// ScanFrame asks the controller to start a fingerprint scan for slot.
func ScanFrame(slot int) []byte {
	return []byte("scan:" + strconv.Itoa(slot))
}

// AddUserFrame registers a new credential on the controller.
func AddUserFrame(slot int, pin string) []byte {
	return []byte("addUser:" + strconv.Itoa(slot) + ":" + pin)
}

// CommandFrame maps a lock state to the plain-text hardware command that
// produces it.
func CommandFrame(state LockState) []byte {
	if state == LockStateUnlocked {
		return []byte(CommandUnlock)
	}
	return []byte(CommandLock)
}

// NotificationFrame is the plain-text dashboard notification for state.
func NotificationFrame(state LockState) []byte {
	return []byte(state)
}
