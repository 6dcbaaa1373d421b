package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rl1809/stockkeeper/internal/core/domain"
)

// MySQLAdapter persists inventory records in a `records` table:
//
//	CREATE TABLE records (
//	    id         VARCHAR(255) PRIMARY KEY,
//	    quantity   INT NOT NULL,
//	    metadata   TEXT NOT NULL,
//	    created_at DATETIME NOT NULL,
//	    updated_at DATETIME NOT NULL
//	);
type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

// SaveAll replaces the table contents with the given records in one
// transaction. The quantity >= 0 guard is repeated in the statement so a
// bad caller cannot persist a negative quantity.
func (m *MySQLAdapter) SaveAll(ctx context.Context, records []domain.Record) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM records`); err != nil {
		return fmt.Errorf("clear records: %w", err)
	}

	for _, rec := range records {
		if rec.Quantity < 0 {
			return fmt.Errorf("record %q: %w", rec.ID, domain.ErrNegativeQuantity)
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO records (id, quantity, metadata, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?)`,
			rec.ID, rec.Quantity, rec.Metadata, rec.CreatedAt, rec.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert record %q: %w", rec.ID, err)
		}
	}

	return tx.Commit()
}

// LoadAll returns every persisted record. Rows that violate the domain
// invariants are rejected rather than repaired.
func (m *MySQLAdapter) LoadAll(ctx context.Context) ([]domain.Record, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, quantity, metadata, created_at, updated_at
		FROM records ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	records := []domain.Record{}
	for rows.Next() {
		var rec domain.Record
		if err := rows.Scan(&rec.ID, &rec.Quantity, &rec.Metadata, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		if rec.Quantity < 0 {
			return nil, fmt.Errorf("record %q: %w", rec.ID, domain.ErrNegativeQuantity)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}

	return records, nil
}
