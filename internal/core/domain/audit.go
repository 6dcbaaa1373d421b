package domain

import "time"

// AuditEntry is one line of operation history. Entries are values:
// once appended to a sink they are never mutated.
type AuditEntry struct {
	ID      string
	At      time.Time
	Message string
}
