package service_test

import (
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/BrandonDHaskell/smartlock/internal/smartlock/hub"
	"github.com/BrandonDHaskell/smartlock/internal/smartlock/service"
	"github.com/BrandonDHaskell/smartlock/internal/smartlock/store/memory"
	"github.com/BrandonDHaskell/smartlock/internal/smartlock/types"
)

const (
	testDeviceID    = "lock-1"
	mobilePrincipal = "mobile-gateway"
)

// fakeConn records every frame it is handed.
type fakeConn struct {
	mu     sync.Mutex
	frames []string
	closed bool
}

func (c *fakeConn) Send(frame []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return hub.ErrSessionClosed
	}
	c.frames = append(c.frames, string(frame))
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) Frames() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.frames))
	copy(out, c.frames)
	return out
}

// waitForFrames polls until conn has received n frames.
func waitForFrames(t *testing.T, conn *fakeConn, n int) []string {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if f := conn.Frames(); len(f) >= n {
			return f
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected %d frames, got %v", n, conn.Frames())
	return nil
}

type recordingObserver struct {
	mu          sync.Mutex
	transitions []types.LockState
	accesses    []bool
}

func (o *recordingObserver) LockStateChanged(_ string, state types.LockState, _ service.Origin) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.transitions = append(o.transitions, state)
}

func (o *recordingObserver) AccessRecorded(_ types.AccessMethod, success bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.accesses = append(o.accesses, success)
}

// harness wires the core against in-memory stores.
type harness struct {
	registry   *hub.Registry
	router     *hub.Router
	correlator *hub.Correlator
	devices    *memory.DeviceStore
	users      *memory.UserStore
	events     *memory.AccessEventStore
	observer   *recordingObserver
	lock       *service.LockSynchronizer
	dispatcher *service.Dispatcher
}

func newHarness(t *testing.T, seedDevice bool) *harness {
	t.Helper()
	logger := zerolog.Nop()

	h := &harness{
		registry:   hub.NewRegistry(logger),
		correlator: hub.NewCorrelator(),
		users:      memory.NewUserStore(),
		events:     memory.NewAccessEventStore(),
		observer:   &recordingObserver{},
	}
	if seedDevice {
		h.devices = memory.NewDeviceStore(testDeviceID)
	} else {
		h.devices = memory.NewDeviceStore()
	}
	h.router = hub.NewRouter(h.registry, logger)

	recorder := service.NewAccessRecorder(h.events, testDeviceID, logger, h.observer)
	h.lock = service.NewLockSynchronizer(
		service.SynchronizerConfig{DeviceID: testDeviceID, MobilePrincipalID: mobilePrincipal},
		h.devices, h.users, recorder, h.router, logger, h.observer,
	)
	h.dispatcher = service.NewDispatcher(h.registry, h.router, h.correlator, h.lock, logger)
	return h
}

func (h *harness) connect(class hub.ClientClass) (string, *fakeConn) {
	c := &fakeConn{}
	return h.registry.Register(c, class), c
}

func intPtr(v int) *int { return &v }

var timeZero time.Time
