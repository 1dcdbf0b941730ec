package service

import "github.com/BrandonDHaskell/smartlock/internal/smartlock/types"

// Origin says who asked for a lock transition.
type Origin string

const (
	OriginREST     Origin = "rest"
	OriginHardware Origin = "hardware"
)

// Observer is told about applied lock transitions and recorded access events.
// Implementations must not block; they run on the socket reader or the HTTP
// handler that caused the change.
type Observer interface {
	LockStateChanged(deviceID string, state types.LockState, origin Origin)
	AccessRecorded(method types.AccessMethod, success bool)
}

type observers []Observer

func (o observers) lockStateChanged(deviceID string, state types.LockState, origin Origin) {
	for _, obs := range o {
		obs.LockStateChanged(deviceID, state, origin)
	}
}

func (o observers) accessRecorded(method types.AccessMethod, success bool) {
	for _, obs := range o {
		obs.AccessRecorded(method, success)
	}
}
