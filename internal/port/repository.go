package port

import (
	"context"

	"github.com/rl1809/stockkeeper/internal/core/domain"
)

// Repository persists the full inventory state. Implementations: file
// snapshot and MySQL.
type Repository interface {
	// SaveAll replaces the persisted state with the given records
	SaveAll(ctx context.Context, records []domain.Record) error

	// LoadAll returns every persisted record; empty slice when nothing
	// has been persisted yet
	LoadAll(ctx context.Context) ([]domain.Record, error)
}
