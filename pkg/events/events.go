package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/telecrm/helpdesk-sso/pkg/logger"
)

// Subjects for verification lifecycle events.
const (
	SubjectVerificationRequested = "verification.requested"
	SubjectVerificationApproved  = "verification.approved"
	SubjectVerificationRevoked   = "verification.revoked"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Close() error
}

type Event struct {
	Subject   string      `json:"subject"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

type NATSEventBus struct {
	conn *nats.Conn
}

func NewNATSEventBus(url string) (*NATSEventBus, error) {
	conn, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(5),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return &NATSEventBus{conn: conn}, nil
}

func (b *NATSEventBus) Publish(ctx context.Context, subject string, data interface{}) error {
	event := Event{
		Subject:   subject,
		Timestamp: time.Now(),
		Data:      data,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if err := b.conn.Publish(subject, payload); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}

	logger.InfoContext(ctx, "Event published", "subject", subject)
	return nil
}

func (b *NATSEventBus) Close() error {
	b.conn.Close()
	return nil
}

// Noop is used when no event bus is configured.
type Noop struct{}

func (Noop) Publish(context.Context, string, interface{}) error { return nil }
func (Noop) Close() error                                       { return nil }
