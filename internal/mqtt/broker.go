package mqtt

import (
	"context"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"homelink/internal/config"
	"homelink/internal/constants"
	"homelink/internal/errors"
)

// QoS levels used on the fleet: state publishes are at-least-once, the
// firehose subscription is at-most-once.
const (
	qosPublish   = 1
	qosSubscribe = 0
)

// disconnectQuiesce is how long Disconnect waits for in-flight work.
const disconnectQuiesce = 250 * time.Millisecond

// connectTimeout bounds the initial broker dial.
const connectTimeout = 30 * time.Second

// MessageHandler receives every message from the fleet subscription.
type MessageHandler func(topic string, payload []byte)

// Broker is the broker session surface the plugin needs. The real one
// wraps the paho client; tests use a fake.
type Broker interface {
	// Connect dials the broker, installs the subscription, and
	// announces this node (retained onboard=1). It returns once the
	// session is up; reconnects after that are automatic.
	Connect(ctx context.Context, onMessage MessageHandler) error

	// Publish sends one payload under this node's topic space.
	Publish(key string, retain bool, payload string) error

	// IsConnected reports whether the session is currently up.
	IsConnected() bool

	// Disconnect retracts the onboard flag and closes the session.
	Disconnect()
}

// pahoBroker is the production Broker.
type pahoBroker struct {
	cfg    config.MQTTConfig
	node   string
	logger zerolog.Logger
	client paho.Client
}

// NewBroker creates the paho-backed Broker for one node identity.
func NewBroker(cfg config.MQTTConfig, node string, logger zerolog.Logger) Broker {
	return &pahoBroker{
		cfg:    cfg,
		node:   node,
		logger: logger.With().Str("component", "mqtt").Logger(),
	}
}

// Connect implements Broker.
func (b *pahoBroker) Connect(ctx context.Context, onMessage MessageHandler) error {
	onboardTopic := BuildTopic(b.cfg.TopicPrefix, b.node, constants.KeyOnboard)
	fleetFilter := b.cfg.TopicPrefix + "/#"

	opts := paho.NewClientOptions().
		AddBroker(fmt.Sprintf("tcp://%s:%d", b.cfg.Broker, b.cfg.Port)).
		SetClientID(b.node).
		SetKeepAlive(b.cfg.KeepAlive).
		SetAutoReconnect(true).
		SetMaxReconnectInterval(b.cfg.ReconnectDelay).
		SetBinaryWill(onboardTopic, []byte("0"), qosPublish, true)
	if b.cfg.Username != "" {
		opts.SetUsername(b.cfg.Username)
		opts.SetPassword(b.cfg.Password)
	}

	// OnConnect also fires on reconnect; the subscription and the
	// retained onboard flag must survive a session reset.
	opts.SetOnConnectHandler(func(c paho.Client) {
		b.logger.Info().Str("broker", b.cfg.Broker).Msg("connected")
		if tok := c.Subscribe(fleetFilter, qosSubscribe, func(_ paho.Client, m paho.Message) {
			onMessage(m.Topic(), m.Payload())
		}); tok.Wait() && tok.Error() != nil {
			b.logger.Warn().Err(tok.Error()).Str("filter", fleetFilter).Msg("subscribe failed")
		}
		if tok := c.Publish(onboardTopic, qosPublish, true, "1"); tok.Wait() && tok.Error() != nil {
			b.logger.Warn().Err(tok.Error()).Msg("onboard announce failed")
		}
	})
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		b.logger.Warn().Err(err).Msg("connection lost, reconnecting")
	})

	b.client = paho.NewClient(opts)

	tok := b.client.Connect()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(connectTimeout):
		return fmt.Errorf("%w: connect timeout to %s", errors.ErrNotConnected, b.cfg.Broker)
	case <-tok.Done():
	}
	if err := tok.Error(); err != nil {
		return errors.Wrapf(err, "failed to connect to %s", b.cfg.Broker)
	}
	return nil
}

// Publish implements Broker.
func (b *pahoBroker) Publish(key string, retain bool, payload string) error {
	if b.client == nil || !b.client.IsConnected() {
		return fmt.Errorf("%w: publish %s", errors.ErrNotConnected, key)
	}
	topic := BuildTopic(b.cfg.TopicPrefix, b.node, key)
	tok := b.client.Publish(topic, qosPublish, retain, payload)
	if tok.Wait() && tok.Error() != nil {
		return errors.Wrapf(tok.Error(), "failed to publish %s", topic)
	}
	return nil
}

// IsConnected implements Broker.
func (b *pahoBroker) IsConnected() bool {
	return b.client != nil && b.client.IsConnected()
}

// Disconnect implements Broker. The last will only fires on an
// ungraceful drop, so a clean shutdown retracts the onboard flag
// itself.
func (b *pahoBroker) Disconnect() {
	if b.client == nil {
		return
	}
	if b.client.IsConnected() {
		onboardTopic := BuildTopic(b.cfg.TopicPrefix, b.node, constants.KeyOnboard)
		b.client.Publish(onboardTopic, qosPublish, true, "0").Wait()
	}
	b.client.Disconnect(uint(disconnectQuiesce.Milliseconds())) //nolint:gosec // small constant
	b.logger.Info().Msg("disconnected")
}
