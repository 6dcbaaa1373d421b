package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/rl1809/stockkeeper/internal/adapter/audit"
	"github.com/rl1809/stockkeeper/internal/adapter/storage"
	"github.com/rl1809/stockkeeper/internal/config"
	"github.com/rl1809/stockkeeper/internal/core/domain"
	"github.com/rl1809/stockkeeper/internal/core/service"
	"github.com/rl1809/stockkeeper/internal/port"
)

const usage = `usage: stockkeeper [-config path] <command> [args]

commands:
  add <id> <qty>        add quantity of an item
  remove <id> <qty>     remove quantity of an existing item
  get <id>              show one item
  annotate <id> <note>  attach a note to an existing item
  report                list all items sorted by id
  low [threshold]       list items below the threshold
`

// Exit codes in the style of HTTP status mapping: bad input, missing
// item, everything else.
const (
	exitFailure    = 1
	exitValidation = 2
	exitNotFound   = 3
)

func main() {
	configPath := flag.String("config", "stockkeeper.yaml", "path to config file")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(exitValidation)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Errorf("failed to load config: %v", err)
		os.Exit(exitFailure)
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Errorf("invalid log level %q: %v", cfg.LogLevel, err)
		os.Exit(exitFailure)
	}
	log.SetLevel(level)

	os.Exit(run(cfg, args[0], args[1:]))
}

func run(cfg config.Config, command string, args []string) int {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	repo, closeRepo, err := openRepository(ctx, cfg)
	if err != nil {
		log.Errorf("failed to open %s backend: %v", cfg.Backend, err)
		return exitFailure
	}
	defer closeRepo()

	cache, closeCache, err := openMirror(ctx, cfg)
	if err != nil {
		// The mirror is an optimization; a dead Redis must not block
		// inventory operations.
		log.Warnf("quantity mirror disabled: %v", err)
		cache = nil
	}
	if closeCache != nil {
		defer closeCache()
	}

	sink := audit.NewMemorySink()
	svc := service.NewInventoryService(repo, cache, sink)

	if err := svc.Load(ctx); err != nil {
		log.Errorf("failed to load inventory: %v", err)
		return exitCode(err)
	}

	mutated, err := dispatch(ctx, svc, cfg, command, args)
	if err != nil {
		log.Errorf("%s failed: %v", command, err)
		return exitCode(err)
	}

	if mutated {
		if err := svc.Flush(ctx); err != nil {
			log.Errorf("failed to persist inventory: %v", err)
			return exitFailure
		}
	}

	printAuditTrail(svc.AuditTrail())
	return 0
}

// dispatch runs one command and reports whether it mutated the store.
func dispatch(ctx context.Context, svc *service.InventoryService, cfg config.Config, command string, args []string) (bool, error) {
	switch command {
	case "add":
		id, qty, err := parseItemArgs(args)
		if err != nil {
			return false, err
		}
		rec, err := svc.Add(ctx, id, qty)
		if err != nil {
			return false, err
		}
		fmt.Printf("%s -> %d\n", rec.ID, rec.Quantity)
		return true, nil

	case "remove":
		id, qty, err := parseItemArgs(args)
		if err != nil {
			return false, err
		}
		rec, err := svc.Remove(ctx, id, qty)
		if err != nil {
			return false, err
		}
		fmt.Printf("%s -> %d\n", rec.ID, rec.Quantity)
		return true, nil

	case "get":
		if len(args) != 1 {
			return false, fmt.Errorf("get takes exactly one argument: %w", errUsage)
		}
		rec, err := svc.Get(ctx, args[0])
		if err != nil {
			return false, err
		}
		printRecord(rec)
		return false, nil

	case "annotate":
		if len(args) != 2 {
			return false, fmt.Errorf("annotate takes an id and a note: %w", errUsage)
		}
		rec, err := svc.Annotate(ctx, args[0], args[1])
		if err != nil {
			return false, err
		}
		printRecord(rec)
		return true, nil

	case "report":
		fmt.Println("Items Report")
		for _, rec := range svc.Items(ctx) {
			fmt.Printf("%s -> %d\n", rec.ID, rec.Quantity)
		}
		return false, nil

	case "low":
		if len(args) > 1 {
			return false, fmt.Errorf("low takes at most one threshold: %w", errUsage)
		}
		threshold := cfg.LowStockThreshold
		if len(args) == 1 {
			t, err := strconv.Atoi(args[0])
			if err != nil {
				return false, fmt.Errorf("threshold %q is not an integer: %w", args[0], errUsage)
			}
			threshold = t
		}
		low, err := svc.LowStock(ctx, threshold)
		if err != nil {
			return false, err
		}
		for _, id := range low {
			fmt.Println(id)
		}
		return false, nil

	default:
		return false, fmt.Errorf("unknown command %q: %w", command, errUsage)
	}
}

var errUsage = errors.New("bad usage")

func parseItemArgs(args []string) (string, int, error) {
	if len(args) != 2 {
		return "", 0, fmt.Errorf("expected <id> <qty>: %w", errUsage)
	}
	qty, err := strconv.Atoi(args[1])
	if err != nil {
		return "", 0, fmt.Errorf("quantity %q is not an integer: %w", args[1], errUsage)
	}
	return args[0], qty, nil
}

func openRepository(ctx context.Context, cfg config.Config) (port.Repository, func(), error) {
	switch cfg.Backend {
	case config.BackendMySQL:
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open mysql: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("ping mysql: %w", err)
		}
		return storage.NewMySQLAdapter(db), func() { db.Close() }, nil

	default:
		return storage.NewFileAdapter(cfg.Snapshot), func() {}, nil
	}
}

func openMirror(ctx context.Context, cfg config.Config) (port.CacheRepository, func(), error) {
	if cfg.RedisAddr == "" {
		return nil, nil, nil
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, nil, fmt.Errorf("ping redis: %w", err)
	}
	return storage.NewRedisAdapter(rdb), func() { rdb.Close() }, nil
}

func printRecord(rec domain.Record) {
	fmt.Printf("%s -> %d\n", rec.ID, rec.Quantity)
	if rec.Metadata != "" {
		fmt.Printf("  note: %s\n", rec.Metadata)
	}
}

func printAuditTrail(entries []domain.AuditEntry) {
	if len(entries) == 0 {
		return
	}
	fmt.Println("\nAudit trail:")
	for _, e := range entries {
		fmt.Printf("%s: %s\n", e.At.Format(time.RFC3339), e.Message)
	}
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, domain.ErrEmptyItemID),
		errors.Is(err, domain.ErrNegativeQuantity),
		errors.Is(err, domain.ErrNonPositiveQuantity),
		errors.Is(err, domain.ErrInsufficientStock),
		errors.Is(err, errUsage):
		return exitValidation
	case errors.Is(err, domain.ErrNotFound):
		return exitNotFound
	default:
		return exitFailure
	}
}
