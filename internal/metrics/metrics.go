package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/BrandonDHaskell/smartlock/internal/smartlock/hub"
	"github.com/BrandonDHaskell/smartlock/internal/smartlock/service"
	"github.com/BrandonDHaskell/smartlock/internal/smartlock/types"
)

const namespace = "smartlock"

// Sources are sampled on every scrape.
type Sources struct {
	Registry   *hub.Registry
	Correlator *hub.Correlator
	Lock       *service.LockSynchronizer
}

// Metrics owns a private Prometheus registry. It satisfies service.Observer.
type Metrics struct {
	reg         *prometheus.Registry
	transitions *prometheus.CounterVec
	accesses    *prometheus.CounterVec
	rejected    prometheus.Counter
}

func New(src Sources) *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lock_transitions_total",
			Help:      "Lock state transitions applied, by resulting state and origin.",
		}, []string{"state", "origin"}),
		accesses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "access_events_total",
			Help:      "Access events recorded, by method and outcome.",
		}, []string{"method", "success"}),
		rejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "socket_rejected_total",
			Help:      "Socket connections refused because of an unknown client type.",
		}),
	}

	m.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.transitions,
		m.accesses,
		m.rejected,
	)

	if src.Registry != nil {
		for _, class := range []hub.ClientClass{hub.ClassHardware, hub.ClassWeb} {
			class := class
			m.reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Namespace:   namespace,
				Name:        "sessions",
				Help:        "Live socket sessions by client class.",
				ConstLabels: prometheus.Labels{"class": string(class)},
			}, func() float64 { return float64(src.Registry.Count(class)) }))
		}
	}
	if src.Correlator != nil {
		m.reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pending_enrollments",
			Help:      "Enrollments waiting for a controller acknowledgement.",
		}, func() float64 { return float64(src.Correlator.Pending()) }))
	}
	if src.Lock != nil {
		m.TrackLock(src.Lock)
	}
	return m
}

func (m *Metrics) LockStateChanged(_ string, state types.LockState, origin service.Origin) {
	m.transitions.WithLabelValues(string(state), string(origin)).Inc()
}

func (m *Metrics) AccessRecorded(method types.AccessMethod, success bool) {
	label := string(method)
	if label == "" {
		label = "unknown"
	}
	m.accesses.WithLabelValues(label, strconv.FormatBool(success)).Inc()
}

// TrackLock exports the lock position as a gauge. The synchronizer usually
// takes Metrics as an observer, so it is attached after construction.
func (m *Metrics) TrackLock(lock *service.LockSynchronizer) {
	m.reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "lock_unlocked",
		Help:      "1 while the door is unlocked.",
	}, func() float64 {
		if lock.State() == types.LockStateUnlocked {
			return 1
		}
		return 0
	}))
}

// SocketRejected counts a refused socket upgrade.
func (m *Metrics) SocketRejected() { m.rejected.Inc() }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}
