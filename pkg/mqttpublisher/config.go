// mqttpublisher/config.go
package mqttpublisher

import (
	"net"
	"time"
)

// Config holds the broker settings for the one-shot publisher.
type Config struct {
	// Host and Port locate the MQTT broker. The publisher dials
	// tcp://Host:Port once per publish.
	Host string `env:"MQTT_HOST" envDefault:"127.0.0.1"`
	Port string `env:"MQTT_PORT" envDefault:"1883"`
	// ClientID is the base client identifier presented to the broker. A
	// short unique suffix is appended per connection so concurrent
	// publishes do not evict each other's sessions.
	ClientID string `env:"MQTT_CLIENT_ID" envDefault:"mqtt-relay"`
	// Username and Password are optional credentials, sent only when both
	// are non-empty.
	Username string `env:"MQTT_USER"`
	Password string `env:"MQTT_PASS"`
	// ConnectTimeout bounds the wait for the broker connection.
	ConnectTimeout time.Duration `env:"MQTT_CONNECT_TIMEOUT" envDefault:"10s"`
	// PublishTimeout bounds the wait for the publish acknowledgement.
	PublishTimeout time.Duration `env:"MQTT_PUBLISH_TIMEOUT" envDefault:"10s"`
}

// BrokerURL assembles the broker address in the form paho expects.
func (c Config) BrokerURL() string {
	return "tcp://" + net.JoinHostPort(c.Host, c.Port)
}
