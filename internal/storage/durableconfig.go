package storage

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// DurableConfig configures the optional badger-backed incremental
// mutation log (DurableLog, see durable.go). It is loaded from
// CHRONON_DURABLE_-prefixed environment variables.
type DurableConfig struct {
	// Enabled turns on write-behind durability. When false, GraphStorage
	// runs purely in memory and snapshotting is the only persistence
	// mechanism.
	Enabled bool

	// DataDir is the directory badger stores its log in. Required when
	// Enabled is true.
	DataDir string

	// SyncWrites forces an fsync after every append, trading latency
	// for durability.
	SyncWrites bool

	// FlushInterval is loaded and checked by Validate (it must not be
	// negative) but DurableLog does not read it: every Append commits its
	// record in its own badger transaction, without batching.
	FlushInterval time.Duration
}

// DefaultDurableConfig returns durability turned off, matching the
// default of running entirely in memory until a snapshot is taken.
func DefaultDurableConfig() DurableConfig {
	return DurableConfig{
		Enabled:       false,
		SyncWrites:    false,
		FlushInterval: 100 * time.Millisecond,
	}
}

// DurableConfigFromEnv loads a DurableConfig from the process
// environment, falling back to DefaultDurableConfig for anything unset.
func DurableConfigFromEnv() DurableConfig {
	cfg := DefaultDurableConfig()
	cfg.Enabled = getEnvBool("CHRONON_DURABLE_ENABLED", cfg.Enabled)
	cfg.DataDir = getEnvString("CHRONON_DURABLE_DATA_DIR", cfg.DataDir)
	cfg.SyncWrites = getEnvBool("CHRONON_DURABLE_SYNC_WRITES", cfg.SyncWrites)
	cfg.FlushInterval = getEnvDuration("CHRONON_DURABLE_FLUSH_INTERVAL", cfg.FlushInterval)
	return cfg
}

// Validate reports configuration errors that would prevent DurableLog
// from opening.
func (c DurableConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.DataDir == "" {
		return fmt.Errorf("chronon: CHRONON_DURABLE_DATA_DIR is required when durability is enabled")
	}
	if c.FlushInterval < 0 {
		return fmt.Errorf("chronon: flush interval must not be negative, got %s", c.FlushInterval)
	}
	return nil
}

func getEnvString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
