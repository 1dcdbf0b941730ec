package mqtt

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BrandonDHaskell/smartlock/internal/smartlock/service"
	"github.com/BrandonDHaskell/smartlock/internal/smartlock/types"
)

type fakeToken struct{ err error }

func (t fakeToken) Wait() bool                     { return true }
func (t fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t fakeToken) Error() error                   { return t.err }

func (t fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type published struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

type fakeClient struct {
	mu           sync.Mutex
	connected    bool
	failWith     error
	msgs         []published
	disconnected bool
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) pahomqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, published{topic, qos, retained, payload.([]byte)})
	return fakeToken{err: c.failWith}
}

func (c *fakeClient) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *fakeClient) Disconnect(uint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disconnected = true
}

func (c *fakeClient) Published() []published {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]published, len(c.msgs))
	copy(out, c.msgs)
	return out
}

func testConfig() Config {
	return Config{ClientID: "test", TopicPrefix: "smartlock", DeviceID: "lock-1", QoS: 1}
}

func TestTopics(t *testing.T) {
	tp := Topics{Prefix: "campus"}
	assert.Equal(t, "campus/lock-1/lock_state", tp.LockState("lock-1"))
	assert.Equal(t, "campus/lock-1/access", tp.Access("lock-1"))
	assert.Equal(t, "campus/hardware/presence", tp.Presence())
	assert.Equal(t, "campus/server/status", tp.ServerStatus())
}

func TestPublisher_PublishesInOrder(t *testing.T) {
	client := &fakeClient{connected: true}
	p := newPublisher(client, testConfig(), zerolog.Nop())

	p.PresenceChanged(true)
	p.LockStateChanged("lock-1", types.LockStateUnlocked, service.OriginHardware)
	p.AccessRecorded(types.AccessMethodBiometric, true)
	p.Close()

	msgs := client.Published()
	require.Len(t, msgs, 4)

	assert.Equal(t, "smartlock/hardware/presence", msgs[0].topic)
	assert.True(t, msgs[0].retained)
	assert.JSONEq(t, `{"action":"hardwareStatus","hardwareActive":true}`, string(msgs[0].payload))

	assert.Equal(t, "smartlock/lock-1/lock_state", msgs[1].topic)
	assert.True(t, msgs[1].retained)
	var state lockStatePayload
	require.NoError(t, json.Unmarshal(msgs[1].payload, &state))
	assert.Equal(t, types.LockStateUnlocked, state.LockState)
	assert.Equal(t, service.OriginHardware, state.Origin)

	assert.Equal(t, "smartlock/lock-1/access", msgs[2].topic)
	assert.False(t, msgs[2].retained)
	assert.Equal(t, byte(1), msgs[2].qos)

	assert.Equal(t, "smartlock/server/status", msgs[3].topic)
	assert.Contains(t, string(msgs[3].payload), `"offline"`)
	assert.True(t, client.disconnected)
}

func TestPublisher_DisconnectedBrokerDropsQuietly(t *testing.T) {
	client := &fakeClient{connected: false}
	p := newPublisher(client, testConfig(), zerolog.Nop())

	p.LockStateChanged("lock-1", types.LockStateLocked, service.OriginREST)
	p.Close()

	assert.Empty(t, client.Published())
}

func TestPublisher_PublishErrorsAreWrapped(t *testing.T) {
	client := &fakeClient{connected: true, failWith: errors.New("broker said no")}
	p := newPublisher(client, testConfig(), zerolog.Nop())
	defer p.Close()

	err := p.publish(message{topic: "x", payload: []byte("y")})
	assert.ErrorIs(t, err, ErrPublishFailed)

	err = p.publish(message{payload: []byte("y")})
	assert.ErrorIs(t, err, ErrInvalidTopic)
}

func TestPublisher_CloseIsIdempotent(t *testing.T) {
	client := &fakeClient{connected: true}
	p := newPublisher(client, testConfig(), zerolog.Nop())
	p.Close()
	p.Close()
	p.LockStateChanged("lock-1", types.LockStateLocked, service.OriginREST)
	assert.Len(t, client.Published(), 1)
}
