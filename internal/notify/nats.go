// Package notify publishes impact events when an assessment finds breaking changes.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"

	"merovingian/internal/contract"
)

// NATSNotifier publishes impact events as JSON to a NATS subject.
type NATSNotifier struct {
	conn    *nats.Conn
	js      nats.JetStreamContext
	subject string
}

var _ contract.Notifier = (*NATSNotifier)(nil)

// NewNATSNotifier connects to url. With jetStream set, events are published
// through JetStream and each publish waits for the stream's acknowledgement;
// the subject must then be bound to a stream.
func NewNATSNotifier(url, subject string, jetStream bool, opts ...nats.Option) (*NATSNotifier, error) {
	if subject == "" {
		return nil, errors.New("nats notifier requires a subject")
	}

	opts = append([]nats.Option{nats.Name("merovingian")}, opts...)
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connecting to nats: %w", err)
	}

	n := &NATSNotifier{conn: nc, subject: subject}
	if jetStream {
		js, err := nc.JetStream()
		if err != nil {
			nc.Close()
			return nil, fmt.Errorf("opening jetstream context: %w", err)
		}
		n.js = js
	}
	return n, nil
}

// NotifyImpact encodes event as JSON and publishes it. Core NATS publishes
// are flushed before returning so the event has reached the server.
func (n *NATSNotifier) NotifyImpact(ctx context.Context, event contract.ImpactEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding impact event: %w", err)
	}

	if n.js != nil {
		if _, err := n.js.Publish(n.subject, data, nats.Context(ctx)); err != nil {
			return fmt.Errorf("publishing impact event: %w", err)
		}
		return nil
	}

	if err := n.conn.Publish(n.subject, data); err != nil {
		return fmt.Errorf("publishing impact event: %w", err)
	}
	if err := n.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("flushing impact event: %w", err)
	}
	return nil
}

// Close drains the connection, falling back to a hard close.
func (n *NATSNotifier) Close() error {
	if n == nil || n.conn == nil {
		return nil
	}
	if err := n.conn.Drain(); err != nil {
		n.conn.Close()
	}
	return nil
}
