package testutil

import (
	"context"
	"sync"

	"merovingian/internal/contract"
)

// RecordingNotifier keeps every published event in memory.
type RecordingNotifier struct {
	mu     sync.Mutex
	events []contract.ImpactEvent
	err    error
	closed bool
}

func NewRecordingNotifier() *RecordingNotifier {
	return &RecordingNotifier{}
}

// Fail makes every subsequent publish return err.
func (n *RecordingNotifier) Fail(err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.err = err
}

func (n *RecordingNotifier) NotifyImpact(_ context.Context, ev contract.ImpactEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.events = append(n.events, ev)
	return nil
}

// Events returns a copy of the recorded events.
func (n *RecordingNotifier) Events() []contract.ImpactEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]contract.ImpactEvent(nil), n.events...)
}

// Close marks the notifier closed. Events are still recorded afterwards.
func (n *RecordingNotifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.closed = true
	return nil
}

func (n *RecordingNotifier) Closed() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.closed
}

var _ contract.Notifier = (*RecordingNotifier)(nil)
