package emit

import (
	"sync"
	"time"
)

// Ledger records the modification time of every asset at the moment it was
// last copied.
type Ledger struct {
	mu   sync.Mutex
	seen map[string]time.Time
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{seen: make(map[string]time.Time)}
}

// Fresh reports whether input was copied while it had exactly mtime.
func (l *Ledger) Fresh(input string, mtime time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	last, ok := l.seen[input]
	return ok && last.Equal(mtime)
}

// Record stores mtime for input.
func (l *Ledger) Record(input string, mtime time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seen[input] = mtime
}

// Len returns the number of tracked inputs.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.seen)
}
