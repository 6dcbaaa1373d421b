// Command demo walks the inventory service through a typical session
// against a throwaway snapshot: valid and rejected mutations, the low
// stock report, a persistence round trip, and the audit trail.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/rl1809/stockkeeper/internal/adapter/audit"
	"github.com/rl1809/stockkeeper/internal/adapter/storage"
	"github.com/rl1809/stockkeeper/internal/core/domain"
	"github.com/rl1809/stockkeeper/internal/core/service"
)

func main() {
	ctx := context.Background()

	dir, err := os.MkdirTemp("", "stockkeeper-demo-*")
	if err != nil {
		log.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(dir)

	repo := storage.NewFileAdapter(filepath.Join(dir, "inventory.snap"))
	sink := audit.NewMemorySink()
	svc := service.NewInventoryService(repo, nil, sink)

	if _, err := svc.Add(ctx, "apple", 10); err != nil {
		log.Fatalf("add apple: %v", err)
	}

	if _, err := svc.Add(ctx, "banana", -2); errors.Is(err, domain.ErrNegativeQuantity) {
		log.Infof("rejected negative quantity for banana")
	}

	if _, err := svc.Remove(ctx, "apple", 3); err != nil {
		log.Fatalf("remove apple: %v", err)
	}
	if _, err := svc.Remove(ctx, "orange", 1); errors.Is(err, domain.ErrNotFound) {
		log.Infof("tried to remove non-existent item: orange")
	}

	apple, err := svc.Get(ctx, "apple")
	if err != nil {
		log.Fatalf("get apple: %v", err)
	}
	fmt.Println("Apple stock:", apple.Quantity)

	low, err := svc.LowStock(ctx, 5)
	if err != nil {
		log.Fatalf("low stock: %v", err)
	}
	fmt.Println("Low items:", low)

	if err := svc.Flush(ctx); err != nil {
		log.Fatalf("flush: %v", err)
	}
	if err := svc.Load(ctx); err != nil {
		log.Fatalf("load: %v", err)
	}

	fmt.Println("Items Report")
	for _, rec := range svc.Items(ctx) {
		fmt.Printf("%s -> %d\n", rec.ID, rec.Quantity)
	}

	fmt.Println("\nAudit trail:")
	for _, e := range svc.AuditTrail() {
		fmt.Printf("%s: %s\n", e.At.Format(time.RFC3339), e.Message)
	}
}
