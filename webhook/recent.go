package webhook

import (
	"sync"
	"time"
)

// Received is one raw delivery kept for debugging.
type Received struct {
	Timestamp time.Time      `json:"timestamp"`
	Payload   map[string]any `json:"payload"`
}

// Recent keeps the last N raw webhook payloads in a ring buffer so the API
// can show what the provider actually sent without unbounded growth.
type Recent struct {
	mu      sync.Mutex
	entries []Received
	next    int
	size    int
}

// NewRecent creates a buffer holding at most capacity payloads.
func NewRecent(capacity int) *Recent {
	if capacity <= 0 {
		capacity = 20
	}
	return &Recent{entries: make([]Received, capacity)}
}

// Add records a delivery, evicting the oldest when full.
func (r *Recent) Add(payload map[string]any, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries[r.next] = Received{Timestamp: at, Payload: payload}
	r.next = (r.next + 1) % len(r.entries)
	if r.size < len(r.entries) {
		r.size++
	}
}

// List returns the retained payloads, newest first.
func (r *Recent) List() []Received {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Received, 0, r.size)
	for i := 1; i <= r.size; i++ {
		idx := (r.next - i + len(r.entries)) % len(r.entries)
		out = append(out, r.entries[idx])
	}
	return out
}
