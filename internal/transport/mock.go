package transport

import (
	"context"
	"sync"
)

// RecordingSender captures sent messages for verification in tests. An
// optional FailFor set makes deliveries to specific addresses fail.
type RecordingSender struct {
	mu      sync.Mutex
	Sent    []Message
	FailFor map[string]error
}

// Send records the message, or returns the configured error for the
// recipient address.
func (r *RecordingSender) Send(_ context.Context, msg Message) error {
	if err, ok := r.FailFor[msg.To]; ok {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Sent = append(r.Sent, msg)
	return nil
}

// SentTo returns every message delivered to an address.
func (r *RecordingSender) SentTo(address string) []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Message
	for _, msg := range r.Sent {
		if msg.To == address {
			out = append(out, msg)
		}
	}
	return out
}
