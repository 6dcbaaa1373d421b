package audit

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rl1809/stockkeeper/internal/core/domain"
)

// MemorySink is an append-only in-process audit log. Append assigns the
// entry ID (and a timestamp if the caller left it zero), so every call
// produces a fresh independent entry.
type MemorySink struct {
	mu      sync.Mutex
	entries []domain.AuditEntry
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) Append(entry domain.AuditEntry) {
	entry.ID = uuid.New().String()
	if entry.At.IsZero() {
		entry.At = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
}

// Entries returns a copy; history cannot be mutated through the result.
func (s *MemorySink) Entries() []domain.AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.AuditEntry, len(s.entries))
	copy(out, s.entries)
	return out
}
