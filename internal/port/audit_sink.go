package port

import "github.com/rl1809/stockkeeper/internal/core/domain"

// AuditSink records operation history. Append-only: implementations
// never reorder or drop entries, and Entries returns a copy.
type AuditSink interface {
	Append(entry domain.AuditEntry)
	Entries() []domain.AuditEntry
}
