package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rl1809/stockkeeper/internal/core/domain"
)

func tempSnapshot(t *testing.T) *FileAdapter {
	t.Helper()
	return NewFileAdapter(filepath.Join(t.TempDir(), "inventory.snap"))
}

func TestFileAdapter_RoundTrip(t *testing.T) {
	adapter := tempSnapshot(t)
	ctx := context.Background()

	in := []domain.Record{
		{ID: "apple", Quantity: 10},
		{ID: "banana", Quantity: 0, Metadata: "ripe"},
		{ID: "weird item", Quantity: 3, Metadata: "tab\there\nand newline \\ backslash"},
	}

	if err := adapter.SaveAll(ctx, in); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	out, err := adapter.LoadAll(ctx)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("expected %d records, got %d", len(in), len(out))
	}

	byID := make(map[string]domain.Record)
	for _, rec := range out {
		byID[rec.ID] = rec
	}
	for _, want := range in {
		got, ok := byID[want.ID]
		if !ok {
			t.Errorf("record %q missing after round trip", want.ID)
			continue
		}
		if got.Quantity != want.Quantity || got.Metadata != want.Metadata {
			t.Errorf("record %q changed: got %+v, want %+v", want.ID, got, want)
		}
	}
}

func TestFileAdapter_LargeMetadataRoundTrip(t *testing.T) {
	adapter := tempSnapshot(t)
	ctx := context.Background()

	// Well past any line-scanner token limit.
	meta := strings.Repeat("batch 2024-05-01; ", 8*1024)
	in := []domain.Record{{ID: "apple", Quantity: 1, Metadata: meta}}

	if err := adapter.SaveAll(ctx, in); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	out, err := adapter.LoadAll(ctx)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 record, got %d", len(out))
	}
	if out[0].Metadata != meta {
		t.Error("large metadata changed across the round trip")
	}
}

func TestFileAdapter_MissingFileIsFreshStart(t *testing.T) {
	adapter := tempSnapshot(t)

	out, err := adapter.LoadAll(context.Background())
	if err != nil {
		t.Fatalf("expected fresh start, got: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("expected no records, got %d", len(out))
	}
}

func TestFileAdapter_SaveReplacesPrevious(t *testing.T) {
	adapter := tempSnapshot(t)
	ctx := context.Background()

	adapter.SaveAll(ctx, []domain.Record{{ID: "apple", Quantity: 1}, {ID: "pear", Quantity: 2}})
	adapter.SaveAll(ctx, []domain.Record{{ID: "apple", Quantity: 5}})

	out, err := adapter.LoadAll(ctx)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(out) != 1 || out[0].ID != "apple" || out[0].Quantity != 5 {
		t.Errorf("expected only apple=5, got %+v", out)
	}
}

func TestFileAdapter_MalformedInput(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"missing header", ""},
		{"wrong version", "v2\napple\t1\n"},
		{"not a snapshot", "{\"apple\": 1}\n"},
		{"too many fields", "v1\napple\t1\tx\ty\n"},
		{"one field", "v1\napple\n"},
		{"non-integer quantity", "v1\napple\tten\n"},
		{"negative quantity", "v1\napple\t-1\n"},
		{"blank id", "v1\n\t1\n"},
		{"duplicate id", "v1\napple\t1\napple\t2\n"},
		{"unknown escape", "v1\nap\\qple\t1\n"},
		{"dangling escape", "v1\napple\\\t1\tnote\\\n"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "inventory.snap")
			if err := os.WriteFile(path, []byte(tc.content), 0o644); err != nil {
				t.Fatalf("write fixture: %v", err)
			}

			_, err := NewFileAdapter(path).LoadAll(context.Background())
			if !errors.Is(err, ErrMalformedSnapshot) {
				t.Errorf("expected ErrMalformedSnapshot, got: %v", err)
			}
		})
	}
}

func TestFileAdapter_EmptySnapshot(t *testing.T) {
	adapter := tempSnapshot(t)
	ctx := context.Background()

	if err := adapter.SaveAll(ctx, nil); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	out, err := adapter.LoadAll(ctx)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("expected no records, got %d", len(out))
	}
}

func TestFileAdapter_SkipsBlankLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inventory.snap")
	content := "v1\napple\t1\n\npear\t2\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	out, err := NewFileAdapter(path).LoadAll(context.Background())
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(out) != 2 {
		t.Errorf("expected 2 records, got %d", len(out))
	}
}

func TestFileAdapter_NoTempFileLeftBehind(t *testing.T) {
	dir := t.TempDir()
	adapter := NewFileAdapter(filepath.Join(dir, "inventory.snap"))

	if err := adapter.SaveAll(context.Background(), []domain.Record{{ID: "apple", Quantity: 1}}); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "inventory.snap" {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("expected only the snapshot, got %v", names)
	}
}
