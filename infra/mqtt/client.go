package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/meditrack/lifeline/core/connection"
	"github.com/meditrack/lifeline/core/model"
	"github.com/meditrack/lifeline/infra/logger"
)

// pahoClient is the subset of the Paho API the transport needs. Narrowed for
// test doubles.
type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
	Unsubscribe(topics ...string) paho.Token
}

var newPahoClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// Transport implements connection.Transport over Eclipse Paho. Rooms map to
// topics under cfg.TopicPrefix; joining subscribes, leaving unsubscribes.
// Reconnection is bounded: cfg.MaxRetries attempts with doubling backoff
// capped at cfg.MaxBackoffMS.
type Transport struct {
	cfg Config
	log logger.Logger

	mu       sync.Mutex
	cli      pahoClient
	listener connection.Listener
}

// New creates a Transport. Connect must be called before room commands.
func New(cfg Config) (*Transport, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("mqtt config: %w", err)
	}
	return &Transport{cfg: cfg, log: logger.New("mqtt_transport")}, nil
}

// SetListener implements connection.Transport.
func (t *Transport) SetListener(l connection.Listener) {
	t.mu.Lock()
	t.listener = l
	t.mu.Unlock()
}

// Connect implements connection.Transport. The identity travels as handshake
// metadata: client id and username carry the subject id and role.
func (t *Transport) Connect(ctx context.Context, identity model.Identity) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	opts := paho.NewClientOptions().
		AddBroker(t.cfg.Broker).
		SetClientID(fmt.Sprintf("%s-%s", t.cfg.ClientPrefix, identity.UserID)).
		SetConnectTimeout(time.Duration(t.cfg.ConnectTimeoutS) * time.Second).
		SetAutoReconnect(false)

	username := t.cfg.Username
	if username == "" {
		username = identity.UserID + ":" + identity.UserRole
	}
	opts.SetUsername(username)
	if t.cfg.Password != "" {
		opts.SetPassword(t.cfg.Password)
	}
	if t.cfg.UseTLS {
		tlsCfg, err := t.cfg.LoadTLSConfig()
		if err != nil {
			return err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		t.log.Warnf("connection lost: %v", err)
		t.notify(func(l connection.Listener) { l.OnDisconnected(err) })
		go t.reconnect()
	}

	cli := newPahoClient(opts)
	if token := cli.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("connect %s: %w", t.cfg.Broker, token.Error())
	}
	t.mu.Lock()
	t.cli = cli
	t.mu.Unlock()

	t.log.Infof("connected to %s as %s", t.cfg.Broker, identity.UserID)
	t.notify(func(l connection.Listener) { l.OnConnected(false) })
	return nil
}

// reconnect retries the broker a bounded number of times with doubling
// backoff. Exhausting the attempts leaves the transport disconnected; room
// interest survives in the registry for a later manual Connect.
func (t *Transport) reconnect() {
	t.mu.Lock()
	cli := t.cli
	t.mu.Unlock()
	if cli == nil {
		return
	}

	backoff := time.Duration(t.cfg.BackoffMS) * time.Millisecond
	maxBackoff := time.Duration(t.cfg.MaxBackoffMS) * time.Millisecond
	for attempt := 1; attempt <= t.cfg.MaxRetries; attempt++ {
		if !t.owns(cli) {
			t.log.Debugf("reconnect abandoned, transport was torn down")
			return
		}
		t.notify(func(l connection.Listener) { l.OnReconnectAttempt(attempt) })
		if token := cli.Connect(); token.Wait() && token.Error() == nil {
			if !t.owns(cli) {
				cli.Disconnect(0)
				return
			}
			t.log.Infof("reconnected after %d attempt(s)", attempt)
			t.notify(func(l connection.Listener) { l.OnConnected(true) })
			return
		}
		time.Sleep(backoff)
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
	t.log.Errorf("giving up after %d reconnect attempts", t.cfg.MaxRetries)
}

// owns reports whether cli is still the transport's active client. A
// Disconnect during the reconnect loop replaces it with nil.
func (t *Transport) owns(cli pahoClient) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cli == cli
}

// Disconnect implements connection.Transport.
func (t *Transport) Disconnect() {
	t.mu.Lock()
	cli := t.cli
	t.cli = nil
	t.mu.Unlock()
	if cli != nil && cli.IsConnected() {
		cli.Disconnect(250)
	}
}

// IsConnected implements connection.Transport.
func (t *Transport) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cli != nil && t.cli.IsConnected()
}

// JoinRoom subscribes to the room's topic.
func (t *Transport) JoinRoom(room string) error {
	t.mu.Lock()
	cli := t.cli
	t.mu.Unlock()
	if cli == nil {
		return connection.ErrNotConnected
	}
	topic := t.topic(room)
	if token := cli.Subscribe(topic, t.cfg.QoS, t.onMessage); token.Wait() && token.Error() != nil {
		return fmt.Errorf("join %s: %w", room, token.Error())
	}
	t.log.Debugf("joined %s", room)
	return nil
}

// LeaveRoom unsubscribes from the room's topic.
func (t *Transport) LeaveRoom(room string) error {
	t.mu.Lock()
	cli := t.cli
	t.mu.Unlock()
	if cli == nil {
		return connection.ErrNotConnected
	}
	if token := cli.Unsubscribe(t.topic(room)); token.Wait() && token.Error() != nil {
		return fmt.Errorf("leave %s: %w", room, token.Error())
	}
	t.log.Debugf("left %s", room)
	return nil
}

func (t *Transport) topic(room string) string {
	return t.cfg.TopicPrefix + "/" + room
}

// envelope is the wire shape of one inbound message.
type envelope struct {
	Event string             `json:"event"`
	Data  model.EventPayload `json:"data"`
}

func (t *Transport) onMessage(_ paho.Client, msg paho.Message) {
	var env envelope
	if err := json.Unmarshal(msg.Payload(), &env); err != nil {
		t.log.Errorf("decode message on %s: %v", msg.Topic(), err)
		return
	}
	kind := model.ParseEventKind(env.Event)
	if kind == model.EventUnknown {
		t.log.Warnf("unknown event %q on %s", env.Event, msg.Topic())
		return
	}
	t.notify(func(l connection.Listener) {
		l.OnEvent(model.Event{Kind: kind, Payload: env.Data, ReceivedAt: time.Now()})
	})
}

func (t *Transport) notify(fn func(connection.Listener)) {
	t.mu.Lock()
	l := t.listener
	t.mu.Unlock()
	if l != nil {
		fn(l)
	}
}
