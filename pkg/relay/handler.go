package relay

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/illmade-knight/go-mqtt-relay/pkg/metrics"
)

// Config holds the request policy for the relay handler. Values are read
// once at startup and never mutated, so one Handler serves concurrent
// requests without locking.
type Config struct {
	// TopicWhitelist lists the exact topics clients may publish to, as they
	// look after sanitizing and before the prefix is applied. Empty disables
	// the check.
	TopicWhitelist []string `env:"TOPIC_WHITELIST" envSeparator:","`
	// TopicPrefix is prepended to every validated topic before publishing.
	TopicPrefix string `env:"TOPIC_PREFIX"`
	// MaxMessageLen bounds the sanitized message length in bytes.
	MaxMessageLen int `env:"MAX_MESSAGE_LEN" envDefault:"100"`
}

// Response bodies are fixed strings; client input never reaches the body.
const (
	bodyOK             = "OK"
	bodyInvalidRequest = "Invalid request"
	bodyInvalidTopic   = "ERROR: Invalid topic"
	bodyInvalidLength  = "ERROR: Invalid message length"
	bodyMQFailed       = "ERROR: MQ failed"

	htmlEnvelope = "<html><head><title>MqResponse</title></head><body>%s</body></html>"
)

// Handler translates one HTTP GET request into one publish on the bus. It
// parses /<topic>/<message> out of the escaped URL path, sanitizes and
// validates both parts, publishes, and only then answers the client. Every
// response carries the same minimal HTML envelope.
type Handler struct {
	whitelist []string
	prefix    string
	maxLen    int
	publisher Publisher
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

// NewHandler validates its inputs and assembles a Handler.
func NewHandler(cfg Config, publisher Publisher, m *metrics.Metrics, logger zerolog.Logger) (*Handler, error) {
	if publisher == nil {
		return nil, errors.New("publisher cannot be nil")
	}
	if m == nil {
		return nil, errors.New("metrics cannot be nil")
	}
	if cfg.MaxMessageLen <= 0 {
		return nil, fmt.Errorf("max message length must be positive, got %d", cfg.MaxMessageLen)
	}
	return &Handler{
		whitelist: cfg.TopicWhitelist,
		prefix:    cfg.TopicPrefix,
		maxLen:    cfg.MaxMessageLen,
		publisher: publisher,
		metrics:   m,
		logger:    logger.With().Str("component", "RelayHandler").Logger(),
	}, nil
}

// ServeHTTP implements http.Handler. The status contract is fixed: 200 for
// a delivered message, 403 for a path that does not parse, 404 for a topic
// off the whitelist, 406 for an overlong message, 500 when the bus publish
// fails. Failed requests publish nothing.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFor(r)
	w.Header().Set("X-Request-ID", requestID)
	logger := h.logger.With().Str("request_id", requestID).Logger()

	logger.Debug().Str("path", r.URL.EscapedPath()).Msg("Handling relay request.")

	rawTopic, rawMessage, err := ParsePath(r.URL.EscapedPath())
	if err != nil {
		var malformed *MalformedPathError
		if errors.As(err, &malformed) {
			logger.Debug().Int("segments", malformed.Parts).Msg("Rejecting malformed request path.")
		}
		h.respond(w, logger, http.StatusForbidden, bodyInvalidRequest)
		return
	}

	topic := Sanitize(rawTopic, TopicExtraAllowed)
	message := Sanitize(rawMessage, MessageExtraAllowed)
	logger.Debug().Str("topic", topic).Str("message", message).Msg("Sanitized request values.")

	if err := Validate(topic, message, h.whitelist, h.maxLen); err != nil {
		if errors.Is(err, ErrTopicNotAllowed) {
			logger.Debug().Str("topic", topic).Msg("Topic is not on the whitelist.")
			h.respond(w, logger, http.StatusNotFound, bodyInvalidTopic)
			return
		}
		logger.Debug().Int("length", len(message)).Int("max", h.maxLen).Msg("Message exceeds maximum length.")
		h.respond(w, logger, http.StatusNotAcceptable, bodyInvalidLength)
		return
	}

	fullTopic := h.prefix + topic

	start := time.Now()
	err = h.publisher.Publish(r.Context(), fullTopic, []byte(message))
	h.metrics.PublishDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		h.metrics.PublishFailures.Inc()
		if errors.Is(err, ErrPublishFailed) {
			logger.Error().Err(err).Str("topic", fullTopic).Msg("Failed to publish message to broker.")
		} else {
			logger.Error().Err(err).Str("topic", fullTopic).Msg("Publisher returned a non-transport error.")
		}
		h.respond(w, logger, http.StatusInternalServerError, bodyMQFailed)
		return
	}

	logger.Debug().Str("topic", fullTopic).Int("payload_bytes", len(message)).Msg("Message published.")
	h.respond(w, logger, http.StatusOK, bodyOK)
}

// respond writes the HTML envelope around one of the fixed bodies and
// records the status in the request counter.
func (h *Handler) respond(w http.ResponseWriter, logger zerolog.Logger, status int, body string) {
	h.metrics.HTTPRequests.WithLabelValues(strconv.Itoa(status)).Inc()
	logger.Debug().Int("status", status).Str("response", body).Msg("Sending HTTP response.")
	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(status)
	_, _ = fmt.Fprintf(w, htmlEnvelope, body)
}

// requestIDFor reuses the caller's X-Request-ID when present so one ID can
// follow a request across services, and mints one otherwise.
func requestIDFor(r *http.Request) string {
	if id := r.Header.Get("X-Request-ID"); id != "" {
		return id
	}
	return uuid.NewString()
}
