package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/BrandonDHaskell/smartlock/internal/metrics"
	"github.com/BrandonDHaskell/smartlock/internal/smartlock/hub"
	"github.com/BrandonDHaskell/smartlock/internal/smartlock/service"
)

// SocketConfig tunes the websocket transport.
type SocketConfig struct {
	// Path is where sockets are accepted in addition to /ws. Defaults to the
	// server root, which is what the controller firmware dials.
	Path string

	PingInterval    time.Duration
	PongTimeout     time.Duration
	MaxMessageBytes int64
	SendQueue       int

	// RejectUnknownClients refuses sockets whose clientType is not a known
	// value instead of admitting them as hardware.
	RejectUnknownClients bool
}

func (c SocketConfig) withDefaults() SocketConfig {
	if c.Path == "" {
		c.Path = "/"
	}
	if c.PingInterval <= 0 {
		c.PingInterval = 30 * time.Second
	}
	if c.PongTimeout <= 0 {
		c.PongTimeout = 60 * time.Second
	}
	if c.MaxMessageBytes <= 0 {
		c.MaxMessageBytes = maxRequestBody
	}
	if c.SendQueue <= 0 {
		c.SendQueue = 32
	}
	return c
}

type Dependencies struct {
	Logger zerolog.Logger
	Addr   string

	Users      *service.UserService
	Enrollment *service.EnrollmentService
	Door       *service.DoorService
	Devices    *service.DeviceService
	Dashboard  *service.DashboardService

	// Notifications is optional; its routes are not mounted without it.
	Notifications *service.NotificationService

	Registry   *hub.Registry
	Dispatcher *service.Dispatcher

	// Metrics is optional; /metrics is not mounted without it.
	Metrics *metrics.Metrics

	// Tokens guards the mutating dashboard routes. Nil leaves them open.
	Tokens TokenVerifier

	Socket SocketConfig
}

type Server struct {
	httpServer *http.Server
	logger     zerolog.Logger
	mux        *http.ServeMux

	users      *service.UserService
	enrollment *service.EnrollmentService
	door       *service.DoorService
	devices    *service.DeviceService
	dashboard  *service.DashboardService
	notes      *service.NotificationService

	registry   *hub.Registry
	dispatcher *service.Dispatcher
	metrics    *metrics.Metrics

	socket   SocketConfig
	upgrader websocket.Upgrader

	// ctx scopes socket message handling; cancelled by Shutdown.
	ctx    context.Context
	cancel context.CancelFunc
}

func NewServer(d Dependencies) *Server {
	mux := http.NewServeMux()
	ctx, cancel := context.WithCancel(context.Background())

	s := &Server{
		logger:     d.Logger.With().Str("component", "http").Logger(),
		mux:        mux,
		users:      d.Users,
		enrollment: d.Enrollment,
		door:       d.Door,
		devices:    d.Devices,
		dashboard:  d.Dashboard,
		notes:      d.Notifications,
		registry:   d.Registry,
		dispatcher: d.Dispatcher,
		metrics:    d.Metrics,
		socket:     d.Socket.withDefaults(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The lock controller does not send an Origin header and the
			// dashboard is served from another host.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		ctx:    ctx,
		cancel: cancel,
	}

	auth := func(h http.HandlerFunc) http.HandlerFunc { return requireAuth(d.Tokens, h) }

	mux.HandleFunc("PUT /enroll", auth(s.handleEnroll))
	mux.HandleFunc("PUT /door-control", auth(s.handleDoorControl))

	mux.HandleFunc("POST /user/register", s.handleRegister)
	mux.HandleFunc("GET /user", s.handleListUsers)
	mux.HandleFunc("DELETE /user/{userId}", auth(s.handleDeleteUser))

	mux.HandleFunc("GET /device", s.handleGetDevice)
	mux.HandleFunc("PUT /device", auth(s.handleUpdateDevice))
	mux.HandleFunc("POST /device/diagnostics", auth(s.handleDiagnostics))

	mux.HandleFunc("GET /access-logs/fetch", s.handleAccessLogs)
	mux.HandleFunc("GET /dashboard/summary", s.handleDashboardSummary)

	if s.notes != nil {
		mux.HandleFunc("GET /notifications/fetch", s.handleNotifications)
		mux.HandleFunc("PUT /notifications/update", auth(s.handleNotificationUpdate))
	}

	mux.HandleFunc("GET /ws", s.handleSocket)
	if p := s.socket.Path; p != "/ws" {
		pattern := "GET " + p
		if p == "/" {
			pattern = "GET /{$}"
		}
		mux.HandleFunc(pattern, s.handleSocketOnly)
	}
	mux.HandleFunc("GET /healthz", s.handleHealth)
	if d.Metrics != nil {
		mux.Handle("GET /metrics", d.Metrics.Handler())
	}

	handler := loggingMiddleware(s.logger, mux)

	s.httpServer = &http.Server{
		Addr:              d.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown stops accepting requests and closes every socket session.
// Hijacked websocket connections are not tracked by http.Server, so they are
// released through the registry.
func (s *Server) Shutdown(ctx context.Context) error {
	s.cancel()
	err := s.httpServer.Shutdown(ctx)
	s.registry.CloseAll()
	return err
}
