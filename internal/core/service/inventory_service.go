package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/rl1809/stockkeeper/internal/core/domain"
	"github.com/rl1809/stockkeeper/internal/port"
)

// InventoryService owns the in-memory inventory state. All mutation goes
// through its methods; the state map is never handed out. A nil cache
// disables the quantity mirror.
type InventoryService struct {
	mu      sync.Mutex
	records map[string]domain.Record

	repo  port.Repository
	cache port.CacheRepository
	audit port.AuditSink

	now func() time.Time
}

func NewInventoryService(repo port.Repository, cache port.CacheRepository, audit port.AuditSink) *InventoryService {
	return &InventoryService{
		records: make(map[string]domain.Record),
		repo:    repo,
		cache:   cache,
		audit:   audit,
		now:     time.Now,
	}
}

// Add inserts a new record or increments an existing one.
func (s *InventoryService) Add(ctx context.Context, id string, qty int) (domain.Record, error) {
	id, err := validateID(id)
	if err != nil {
		return domain.Record{}, err
	}
	if qty < 0 {
		return domain.Record{}, fmt.Errorf("add %q: %w", id, domain.ErrNegativeQuantity)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	rec, ok := s.records[id]
	if !ok {
		rec = domain.Record{ID: id, CreatedAt: now}
	}
	rec.Quantity += qty
	rec.UpdatedAt = now
	s.records[id] = rec

	s.mirror(ctx, id, rec.Quantity)
	s.record(fmt.Sprintf("added %d of %s", qty, id))

	log.WithFields(log.Fields{"item": id, "qty": qty, "total": rec.Quantity}).Debug("item added")
	return rec, nil
}

// Remove decrements an existing record. The quantity never goes below
// zero; removing the exact remaining quantity leaves the record at zero
// so its metadata and timestamps survive. Removal quantities must be
// positive: a zero removal is not a mutation and is rejected.
func (s *InventoryService) Remove(ctx context.Context, id string, qty int) (domain.Record, error) {
	id, err := validateID(id)
	if err != nil {
		return domain.Record{}, err
	}
	if qty <= 0 {
		return domain.Record{}, fmt.Errorf("remove %q: %w", id, domain.ErrNonPositiveQuantity)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return domain.Record{}, fmt.Errorf("remove %q: %w", id, domain.ErrNotFound)
	}
	if rec.Quantity < qty {
		return domain.Record{}, fmt.Errorf("remove %d of %q (have %d): %w", qty, id, rec.Quantity, domain.ErrInsufficientStock)
	}

	rec.Quantity -= qty
	rec.UpdatedAt = s.now()
	s.records[id] = rec

	s.mirrorAdjust(ctx, id, -qty, rec.Quantity)
	s.record(fmt.Sprintf("removed %d of %s", qty, id))

	log.WithFields(log.Fields{"item": id, "qty": qty, "total": rec.Quantity}).Debug("item removed")
	return rec, nil
}

// Get returns the record for id.
func (s *InventoryService) Get(ctx context.Context, id string) (domain.Record, error) {
	id, err := validateID(id)
	if err != nil {
		return domain.Record{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return domain.Record{}, fmt.Errorf("get %q: %w", id, domain.ErrNotFound)
	}
	return rec, nil
}

// Annotate attaches or replaces the free-form metadata of an existing record.
func (s *InventoryService) Annotate(ctx context.Context, id, note string) (domain.Record, error) {
	id, err := validateID(id)
	if err != nil {
		return domain.Record{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return domain.Record{}, fmt.Errorf("annotate %q: %w", id, domain.ErrNotFound)
	}

	rec.Metadata = note
	rec.UpdatedAt = s.now()
	s.records[id] = rec

	s.record(fmt.Sprintf("annotated %s", id))

	log.WithFields(log.Fields{"item": id}).Debug("item annotated")
	return rec, nil
}

// Items returns every record sorted by ID.
func (s *InventoryService) Items(ctx context.Context) []domain.Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Record, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// LowStock returns the IDs of items with quantity strictly below threshold.
func (s *InventoryService) LowStock(ctx context.Context, threshold int) ([]string, error) {
	if threshold < 0 {
		return nil, fmt.Errorf("low stock threshold %d: %w", threshold, domain.ErrNegativeQuantity)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var out []string
	for id, rec := range s.records {
		if rec.Quantity < threshold {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out, nil
}

// Load replaces the in-memory state with the repository contents.
// Repository adapters already reject malformed records, but the state is
// validated again here so no backend can smuggle in a broken record.
func (s *InventoryService) Load(ctx context.Context) error {
	records, err := s.repo.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("load inventory: %w", err)
	}

	loaded := make(map[string]domain.Record, len(records))
	now := s.now()
	for _, rec := range records {
		id, err := validateID(rec.ID)
		if err != nil {
			return fmt.Errorf("load inventory: record %q: %w", rec.ID, err)
		}
		if rec.Quantity < 0 {
			return fmt.Errorf("load inventory: record %q: %w", id, domain.ErrNegativeQuantity)
		}
		if _, dup := loaded[id]; dup {
			return fmt.Errorf("load inventory: duplicate record %q", id)
		}
		rec.ID = id
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = now
		}
		if rec.UpdatedAt.IsZero() {
			rec.UpdatedAt = now
		}
		loaded[id] = rec
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Prune mirror keys for items the new state no longer carries.
	for id := range s.records {
		if _, ok := loaded[id]; !ok {
			s.mirrorDelete(ctx, id)
		}
	}

	s.records = loaded
	for id, rec := range loaded {
		s.mirror(ctx, id, rec.Quantity)
	}

	log.WithFields(log.Fields{"items": len(loaded)}).Info("inventory loaded")
	return nil
}

// Flush persists the current state to the repository.
func (s *InventoryService) Flush(ctx context.Context) error {
	records := s.Items(ctx)
	if err := s.repo.SaveAll(ctx, records); err != nil {
		return fmt.Errorf("flush inventory: %w", err)
	}

	log.WithFields(log.Fields{"items": len(records)}).Info("inventory flushed")
	return nil
}

// AuditTrail returns the operation history recorded so far.
func (s *InventoryService) AuditTrail() []domain.AuditEntry {
	return s.audit.Entries()
}

// mirror pushes a quantity to the cache. Mirror failures are logged,
// never propagated: the in-memory store is authoritative.
// Callers hold s.mu.
func (s *InventoryService) mirror(ctx context.Context, id string, qty int) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetQuantity(ctx, id, qty); err != nil {
		log.WithFields(log.Fields{"item": id}).Warnf("quantity mirror update failed: %v", err)
	}
}

// mirrorAdjust applies a delta to the mirrored quantity. When the
// mirror refuses (key missing or drifted below the delta), the
// authoritative total is reasserted instead. Callers hold s.mu.
func (s *InventoryService) mirrorAdjust(ctx context.Context, id string, delta, total int) {
	if s.cache == nil {
		return
	}
	ok, err := s.cache.AdjustQuantity(ctx, id, delta)
	if err != nil {
		log.WithFields(log.Fields{"item": id}).Warnf("quantity mirror adjust failed: %v", err)
		return
	}
	if !ok {
		log.WithFields(log.Fields{"item": id}).Warn("quantity mirror out of sync, reasserting")
		s.mirror(ctx, id, total)
	}
}

// mirrorDelete drops an item from the cache. Callers hold s.mu.
func (s *InventoryService) mirrorDelete(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteQuantity(ctx, id); err != nil {
		log.WithFields(log.Fields{"item": id}).Warnf("quantity mirror delete failed: %v", err)
	}
}

func (s *InventoryService) record(msg string) {
	s.audit.Append(domain.AuditEntry{At: s.now(), Message: msg})
}

func validateID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", domain.ErrEmptyItemID
	}
	return id, nil
}
