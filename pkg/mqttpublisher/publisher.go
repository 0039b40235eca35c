package mqttpublisher

import (
	"context"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"github.com/illmade-knight/go-mqtt-relay/pkg/relay"
)

// ErrInvalidArgument marks publish calls that are wrong at the call site
// rather than failed in transport. It never wraps relay.ErrPublishFailed.
var ErrInvalidArgument = errors.New("invalid publish argument")

const (
	// publishQoS 0: at most once, the gateway fires and forgets.
	publishQoS byte = 0
	// retainMessages: the broker keeps the last value per topic, so late
	// subscribers see current state. An empty payload clears it.
	retainMessages = true
	// disconnectQuiesce is the grace period in milliseconds handed to paho
	// so an in-flight QoS 0 write can drain before the socket closes.
	disconnectQuiesce = 250
)

// Publisher delivers each message over a fresh broker connection: connect,
// send one retained QoS 0 message, disconnect. Holding no connection between
// requests keeps the gateway stateless and means a broker restart never
// leaves it with a dead session.
type Publisher struct {
	cfg    Config
	logger zerolog.Logger

	// newClient builds the paho client, swapped out in unit tests.
	newClient func(*mqtt.ClientOptions) mqtt.Client
}

var _ relay.Publisher = (*Publisher)(nil)

// New validates cfg and returns a Publisher. No connection is made until
// the first Publish.
func New(cfg Config, logger zerolog.Logger) (*Publisher, error) {
	if cfg.Host == "" || cfg.Port == "" {
		return nil, errors.New("broker host and port are required")
	}
	if cfg.ConnectTimeout <= 0 || cfg.PublishTimeout <= 0 {
		return nil, errors.New("connect and publish timeouts must be positive")
	}
	return &Publisher{
		cfg:       cfg,
		logger:    logger.With().Str("component", "MqttPublisher").Logger(),
		newClient: mqtt.NewClient,
	}, nil
}

// Publish implements relay.Publisher. Any transport failure, whether
// dialing, authentication, or a refused or timed-out send, comes back
// wrapping relay.ErrPublishFailed with the cause preserved in the chain.
// The paho token API carries no context, so ctx is not used for
// cancellation; the configured timeouts bound the call instead.
func (p *Publisher) Publish(_ context.Context, topic string, payload []byte) error {
	if topic == "" {
		return fmt.Errorf("%w: empty topic", ErrInvalidArgument)
	}

	client := p.newClient(p.clientOptions())
	p.logger.Debug().
		Str("broker", p.cfg.BrokerURL()).
		Str("topic", topic).
		Msg("Connecting to broker for one-shot publish.")

	connectToken := client.Connect()
	if !connectToken.WaitTimeout(p.cfg.ConnectTimeout) {
		client.Disconnect(0)
		return fmt.Errorf("%w: connect timeout after %s", relay.ErrPublishFailed, p.cfg.ConnectTimeout)
	}
	if err := connectToken.Error(); err != nil {
		return fmt.Errorf("%w: connect: %w", relay.ErrPublishFailed, err)
	}
	defer client.Disconnect(disconnectQuiesce)

	publishToken := client.Publish(topic, publishQoS, retainMessages, payload)
	if !publishToken.WaitTimeout(p.cfg.PublishTimeout) {
		return fmt.Errorf("%w: publish timeout after %s", relay.ErrPublishFailed, p.cfg.PublishTimeout)
	}
	if err := publishToken.Error(); err != nil {
		return fmt.Errorf("%w: publish: %w", relay.ErrPublishFailed, err)
	}

	p.logger.Debug().
		Str("topic", topic).
		Int("payload_bytes", len(payload)).
		Msg("Message published, closing connection.")
	return nil
}

// clientOptions assembles fresh paho options for a single connection.
// Reconnect and retry stay off: the gateway reports failure to the HTTP
// caller instead of retrying in the background.
func (p *Publisher) clientOptions() *mqtt.ClientOptions {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(p.cfg.BrokerURL())

	uniqueSuffix := time.Now().UnixNano() % 1000000
	opts.SetClientID(fmt.Sprintf("%s-%d", p.cfg.ClientID, uniqueSuffix))

	opts.SetConnectTimeout(p.cfg.ConnectTimeout)
	opts.SetAutoReconnect(false)
	opts.SetConnectRetry(false)

	if p.cfg.Username != "" && p.cfg.Password != "" {
		opts.SetUsername(p.cfg.Username)
		opts.SetPassword(p.cfg.Password)
	}
	return opts
}
