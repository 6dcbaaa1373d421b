package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Backend selects where Flush/Load persist the inventory.
const (
	BackendFile  = "file"
	BackendMySQL = "mysql"
)

// Config is stockkeeper's on-disk configuration, loaded from a YAML file.
type Config struct {
	// Snapshot is the file backend's snapshot path.
	Snapshot string `yaml:"snapshot"`
	// Backend is "file" or "mysql".
	Backend string `yaml:"backend"`
	// MySQLDSN is required when Backend is "mysql".
	MySQLDSN string `yaml:"mysql_dsn"`
	// RedisAddr enables the quantity mirror when non-empty.
	RedisAddr string `yaml:"redis_addr"`
	// LowStockThreshold is the default for the `low` report.
	LowStockThreshold int `yaml:"low_stock_threshold"`
	// LogLevel is a logrus level name ("debug", "info", ...).
	LogLevel string `yaml:"log_level"`
}

func Default() Config {
	return Config{
		Snapshot:          "inventory.snap",
		Backend:           BackendFile,
		LowStockThreshold: 5,
		LogLevel:          "info",
	}
}

// Load reads the config file at path. A missing file yields the
// defaults, not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Backend {
	case BackendFile:
		if c.Snapshot == "" {
			return errors.New("file backend requires a snapshot path")
		}
	case BackendMySQL:
		if c.MySQLDSN == "" {
			return errors.New("mysql backend requires mysql_dsn")
		}
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}

	if c.LowStockThreshold < 0 {
		return fmt.Errorf("low_stock_threshold %d must be non-negative", c.LowStockThreshold)
	}
	return nil
}
