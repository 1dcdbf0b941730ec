package hub

import "errors"

var (
	// ErrNoRecipient is returned when no live session of the requested class
	// is registered.
	ErrNoRecipient = errors.New("hub: no live session for client class")

	// ErrUnknownSession is returned by SendTo for an id that is not registered.
	ErrUnknownSession = errors.New("hub: unknown session")

	// ErrSessionClosed is returned when sending on a session that has been
	// released.
	ErrSessionClosed = errors.New("hub: session closed")

	// ErrSlowConsumer is returned by a Conn whose outbound queue is full. The
	// router evicts sessions that report it.
	ErrSlowConsumer = errors.New("hub: outbound queue full")

	// ErrDuplicateSlot is returned when an enrollment is already pending for
	// the slot.
	ErrDuplicateSlot = errors.New("hub: enrollment already pending for slot")

	// ErrUnknownSlot is returned when an acknowledgement arrives for a slot
	// nobody is waiting on.
	ErrUnknownSlot = errors.New("hub: no pending enrollment for slot")

	// ErrTimeout is returned when the device does not acknowledge in time.
	ErrTimeout = errors.New("hub: timed out waiting for acknowledgement")
)
