package storage

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/rl1809/stockkeeper/internal/core/domain"
)

func getMySQL(t *testing.T) *sql.DB {
	t.Helper()

	dsn := os.Getenv("MYSQL_DSN")
	if dsn == "" {
		dsn = "root:root@tcp(localhost:3306)/stockkeeper?parseTime=true"
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		t.Skipf("MySQL not available: %v", err)
	}
	if err := db.Ping(); err != nil {
		t.Skipf("MySQL not available: %v", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS records (
			id         VARCHAR(255) PRIMARY KEY,
			quantity   INT NOT NULL,
			metadata   TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`); err != nil {
		t.Fatalf("create table: %v", err)
	}

	t.Cleanup(func() {
		db.Exec(`DELETE FROM records`)
		db.Close()
	})
	return db
}

func TestMySQLAdapter_RoundTrip(t *testing.T) {
	db := getMySQL(t)
	adapter := NewMySQLAdapter(db)
	ctx := context.Background()

	now := time.Now().Truncate(time.Second)
	in := []domain.Record{
		{ID: "apple", Quantity: 10, CreatedAt: now, UpdatedAt: now},
		{ID: "banana", Quantity: 0, Metadata: "ripe", CreatedAt: now, UpdatedAt: now},
	}

	if err := adapter.SaveAll(ctx, in); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	out, err := adapter.LoadAll(ctx)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 records, got %d", len(out))
	}
	if out[0].ID != "apple" || out[0].Quantity != 10 {
		t.Errorf("unexpected first record: %+v", out[0])
	}
	if out[1].ID != "banana" || out[1].Metadata != "ripe" {
		t.Errorf("unexpected second record: %+v", out[1])
	}
}

func TestMySQLAdapter_SaveReplacesPrevious(t *testing.T) {
	db := getMySQL(t)
	adapter := NewMySQLAdapter(db)
	ctx := context.Background()

	now := time.Now()
	adapter.SaveAll(ctx, []domain.Record{
		{ID: "apple", Quantity: 1, CreatedAt: now, UpdatedAt: now},
		{ID: "pear", Quantity: 2, CreatedAt: now, UpdatedAt: now},
	})
	adapter.SaveAll(ctx, []domain.Record{
		{ID: "apple", Quantity: 5, CreatedAt: now, UpdatedAt: now},
	})

	out, err := adapter.LoadAll(ctx)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(out) != 1 || out[0].ID != "apple" || out[0].Quantity != 5 {
		t.Errorf("expected only apple=5, got %+v", out)
	}
}

func TestMySQLAdapter_RejectsNegativeQuantity(t *testing.T) {
	db := getMySQL(t)
	adapter := NewMySQLAdapter(db)
	ctx := context.Background()

	err := adapter.SaveAll(ctx, []domain.Record{{ID: "apple", Quantity: -1}})
	if err == nil {
		t.Fatal("expected negative quantity to be rejected")
	}
}
