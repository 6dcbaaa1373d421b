package storage

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rl1809/stockkeeper/internal/core/domain"
)

// ErrMalformedSnapshot marks snapshot content that does not parse.
// Snapshot files are only ever parsed, never evaluated.
var ErrMalformedSnapshot = errors.New("malformed snapshot")

const snapshotVersion = "v1"

// FileAdapter persists the inventory as a plain text snapshot, one
// record per line:
//
//	v1
//	<id>\t<quantity>\t<metadata>
//
// The metadata field is optional. Tabs, newlines and backslashes inside
// fields are escaped so the line structure stays unambiguous.
type FileAdapter struct {
	path string
}

func NewFileAdapter(path string) *FileAdapter {
	return &FileAdapter{path: path}
}

// SaveAll writes the snapshot atomically: temp file in the same
// directory, fsync, rename over the target.
func (f *FileAdapter) SaveAll(ctx context.Context, records []domain.Record) error {
	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create snapshot temp file: %w", err)
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	w := bufio.NewWriter(tmp)
	if _, err := fmt.Fprintln(w, snapshotVersion); err != nil {
		return fmt.Errorf("write snapshot header: %w", err)
	}
	for _, rec := range records {
		line := escapeField(rec.ID) + "\t" + strconv.Itoa(rec.Quantity)
		if rec.Metadata != "" {
			line += "\t" + escapeField(rec.Metadata)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return fmt.Errorf("write snapshot record %q: %w", rec.ID, err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}

	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

// LoadAll parses the snapshot defensively. A missing file is a fresh
// start, not an error. The file is read whole rather than through a
// line scanner: metadata is free-form and unbounded, and a scanner's
// token limit would refuse records that SaveAll wrote.
func (f *FileAdapter) LoadAll(ctx context.Context) ([]domain.Record, error) {
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return []domain.Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: missing version header", ErrMalformedSnapshot)
	}

	lines := strings.Split(string(data), "\n")
	if lines[0] != snapshotVersion {
		return nil, fmt.Errorf("%w: unsupported version %q", ErrMalformedSnapshot, lines[0])
	}

	records := []domain.Record{}
	seen := make(map[string]bool)
	for i, line := range lines[1:] {
		if line == "" {
			continue
		}
		lineNo := i + 2

		rec, err := parseRecord(line)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedSnapshot, lineNo, err)
		}
		if seen[rec.ID] {
			return nil, fmt.Errorf("%w: line %d: duplicate id %q", ErrMalformedSnapshot, lineNo, rec.ID)
		}
		seen[rec.ID] = true
		records = append(records, rec)
	}

	return records, nil
}

func parseRecord(line string) (domain.Record, error) {
	fields := strings.Split(line, "\t")
	if len(fields) != 2 && len(fields) != 3 {
		return domain.Record{}, fmt.Errorf("expected 2 or 3 fields, got %d", len(fields))
	}

	id, err := unescapeField(fields[0])
	if err != nil {
		return domain.Record{}, fmt.Errorf("id: %v", err)
	}
	if strings.TrimSpace(id) == "" {
		return domain.Record{}, errors.New("blank id")
	}

	qty, err := strconv.Atoi(fields[1])
	if err != nil {
		return domain.Record{}, fmt.Errorf("quantity %q is not an integer", fields[1])
	}
	if qty < 0 {
		return domain.Record{}, fmt.Errorf("negative quantity %d", qty)
	}

	rec := domain.Record{ID: id, Quantity: qty}
	if len(fields) == 3 {
		meta, err := unescapeField(fields[2])
		if err != nil {
			return domain.Record{}, fmt.Errorf("metadata: %v", err)
		}
		rec.Metadata = meta
	}
	return rec, nil
}

func escapeField(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '\t':
			b.WriteString(`\t`)
		case '\n':
			b.WriteString(`\n`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func unescapeField(s string) (string, error) {
	var b strings.Builder
	escaped := false
	for _, r := range s {
		if !escaped {
			if r == '\\' {
				escaped = true
			} else {
				b.WriteRune(r)
			}
			continue
		}
		switch r {
		case '\\':
			b.WriteRune('\\')
		case 't':
			b.WriteRune('\t')
		case 'n':
			b.WriteRune('\n')
		default:
			return "", fmt.Errorf("unknown escape \\%c", r)
		}
		escaped = false
	}
	if escaped {
		return "", errors.New("dangling escape")
	}
	return b.String(), nil
}
