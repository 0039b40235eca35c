package relay

import (
	"context"
	"errors"
)

// ErrPublishFailed is the transport failure sentinel. A Publisher wraps
// every connect, auth, or send failure in an error chain containing it, so
// callers can test with errors.Is without knowing the transport.
var ErrPublishFailed = errors.New("publish failed")

// Publisher delivers one message to the bus. The handler holds the HTTP
// response until the call returns, so implementations must block until the
// message is handed off or the attempt has definitively failed.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload []byte) error
}
