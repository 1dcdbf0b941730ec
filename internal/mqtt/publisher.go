package mqtt

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"github.com/BrandonDHaskell/smartlock/internal/smartlock/service"
	"github.com/BrandonDHaskell/smartlock/internal/smartlock/types"
)

// pahoClient is the subset of pahomqtt.Client the publisher uses.
type pahoClient interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) pahomqtt.Token
	IsConnected() bool
	Disconnect(quiesce uint)
}

type message struct {
	topic    string
	payload  []byte
	retained bool
}

// Publisher mirrors lock state, hardware presence and access events onto
// MQTT. Observer callbacks only enqueue; a single goroutine publishes in
// order. When the queue is full the newest message is dropped.
type Publisher struct {
	client pahoClient
	cfg    Config
	topics Topics
	logger zerolog.Logger

	mu     sync.RWMutex
	closed bool
	queue  chan message
	done   chan struct{}
}

// Connect dials the broker and starts the publish loop.
func Connect(cfg Config, logger zerolog.Logger) (*Publisher, error) {
	if cfg.QoS > maxQoS {
		return nil, ErrInvalidQoS
	}
	client := pahomqtt.NewClient(buildClientOptions(cfg))
	tok := client.Connect()
	if !tok.WaitTimeout(defaultConnectTimeout) {
		return nil, fmt.Errorf("%w: timeout after %v", ErrConnectionFailed, defaultConnectTimeout)
	}
	if err := tok.Error(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	p := newPublisher(client, cfg, logger)
	p.enqueue(p.topics.ServerStatus(), []byte(statusPayload("online", cfg.ClientID)), true)
	return p, nil
}

func newPublisher(client pahoClient, cfg Config, logger zerolog.Logger) *Publisher {
	p := &Publisher{
		client: client,
		cfg:    cfg,
		topics: Topics{Prefix: cfg.TopicPrefix},
		logger: logger.With().Str("component", "mqtt").Logger(),
		queue:  make(chan message, defaultQueueSize),
		done:   make(chan struct{}),
	}
	go p.loop()
	return p
}

func (p *Publisher) loop() {
	defer close(p.done)
	for m := range p.queue {
		if err := p.publish(m); err != nil {
			p.logger.Warn().Err(err).Str("topic", m.topic).Msg("publish failed")
		}
	}
}

func (p *Publisher) publish(m message) error {
	if m.topic == "" {
		return ErrInvalidTopic
	}
	if !p.client.IsConnected() {
		return ErrNotConnected
	}
	tok := p.client.Publish(m.topic, p.cfg.QoS, m.retained, m.payload)
	if !tok.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrPublishFailed, defaultPublishTimeout)
	}
	if err := tok.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}
	return nil
}

func (p *Publisher) enqueue(topic string, payload []byte, retained bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return
	}
	select {
	case p.queue <- message{topic: topic, payload: payload, retained: retained}:
	default:
		p.logger.Warn().Str("topic", topic).Msg("publish queue full, dropping message")
	}
}

func (p *Publisher) publishJSON(topic string, v any, retained bool) {
	b, err := json.Marshal(v)
	if err != nil {
		p.logger.Error().Err(err).Str("topic", topic).Msg("marshal payload")
		return
	}
	p.enqueue(topic, b, retained)
}

type lockStatePayload struct {
	DeviceID  string          `json:"deviceId"`
	LockState types.LockState `json:"lockState"`
	Origin    service.Origin  `json:"origin"`
	At        time.Time       `json:"at"`
}

func (p *Publisher) LockStateChanged(deviceID string, state types.LockState, origin service.Origin) {
	p.publishJSON(p.topics.LockState(deviceID), lockStatePayload{
		DeviceID:  deviceID,
		LockState: state,
		Origin:    origin,
		At:        time.Now().UTC(),
	}, true)
}

type accessPayload struct {
	AccessMethod types.AccessMethod `json:"accessMethod,omitempty"`
	Success      bool               `json:"success"`
	At           time.Time          `json:"at"`
}

func (p *Publisher) AccessRecorded(method types.AccessMethod, success bool) {
	p.publishJSON(p.topics.Access(p.cfg.DeviceID), accessPayload{
		AccessMethod: method,
		Success:      success,
		At:           time.Now().UTC(),
	}, false)
}

// PresenceChanged matches hub.Registry.OnPresenceChange.
func (p *Publisher) PresenceChanged(present bool) {
	p.publishJSON(p.topics.Presence(), types.HardwareStatus{
		Action:         types.ActionHardwareStatus,
		HardwareActive: present,
	}, true)
}

// Close publishes a graceful offline status, drains the queue and
// disconnects.
func (p *Publisher) Close() {
	p.enqueue(p.topics.ServerStatus(), []byte(statusPayload("offline", p.cfg.ClientID)), true)

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	<-p.done
	p.client.Disconnect(defaultDisconnectQuiesce)
}
