package bus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// NATS carries lap events between processes sharing a NATS server.
type NATS struct {
	conn    *nats.Conn
	subject string
	logger  *zap.Logger
}

// NewNATS creates a bus on the lap subject
func NewNATS(conn *nats.Conn, logger *zap.Logger) *NATS {
	return &NATS{conn: conn, subject: LapSubject, logger: logger}
}

// Publish sends the event as JSON.
func (b *NATS) Publish(ctx context.Context, event LapEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal lap event: %w", err)
	}
	if err := b.conn.Publish(b.subject, data); err != nil {
		return fmt.Errorf("publish lap event: %w", err)
	}
	return nil
}

// Subscribe decodes events from the subject and passes them to handler.
func (b *NATS) Subscribe(handler Handler) (func(), error) {
	sub, err := b.conn.Subscribe(b.subject, func(msg *nats.Msg) {
		var event LapEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			b.logger.Warn("Failed to unmarshal lap event", zap.Error(err))
			return
		}
		handler(event)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", b.subject, err)
	}

	return func() {
		if err := sub.Unsubscribe(); err != nil {
			b.logger.Debug("Failed to unsubscribe", zap.String("subject", b.subject), zap.Error(err))
		}
	}, nil
}
