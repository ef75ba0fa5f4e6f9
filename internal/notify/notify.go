package notify

import (
	"context"
	"fmt"

	"merovingian/internal/config"
	"merovingian/internal/contract"
)

// NopNotifier drops every event.
type NopNotifier struct{}

func (NopNotifier) NotifyImpact(context.Context, contract.ImpactEvent) error { return nil }

func (NopNotifier) Close() error { return nil }

// Notifier is a contract.Notifier that holds a connection to release.
type Notifier interface {
	contract.Notifier
	Close() error
}

// NewNotifierFromConfig creates a Notifier based on the notify config type.
func NewNotifierFromConfig(cfg config.NotifyConfig) (Notifier, error) {
	switch cfg.Type {
	case "", "none":
		return NopNotifier{}, nil
	case "nats":
		if cfg.NATSURL == "" {
			return nil, fmt.Errorf("nats notifier requires nats_url to be set")
		}
		n, err := NewNATSNotifier(cfg.NATSURL, cfg.Subject, cfg.JetStream)
		if err != nil {
			return nil, err
		}
		return n, nil
	default:
		return nil, fmt.Errorf("unknown notify type: %s", cfg.Type)
	}
}
