package core

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. GE_INSPECTOR_STORE_PATH.
const EnvPrefix = "GE_INSPECTOR"

// Config holds the runtime settings of a single invocation.
type Config struct {
	StorePath  string        // JSON snapshot of all items
	LockPath   string        // cooldown marker, only existence and mtime matter
	TempPath   string        // staging file used by the persist protocol
	BackupPath string        // copy of the previous snapshot during a replace
	Cooldown   time.Duration // minimum age of the store before a remote refresh

	Retries     int           // extra attempts on an empty or failed response
	Timeout     time.Duration // per request
	UserAgent   string
	WikiBase    string
	ItemDBBase  string
	EnrichBatch int // catalogue pages fetched concurrently during a membership crawl

	FuzzFactor float64 // default pre-filter tolerance
}

// DefaultConfig returns the built-in settings without consulting the environment.
func DefaultConfig() Config {
	return Config{
		StorePath:   StorePath(),
		LockPath:    LockPath(),
		TempPath:    TempStorePath(),
		BackupPath:  BackupStorePath(),
		Cooldown:    DefaultUpdateCooldown,
		Retries:     DefaultRetries,
		Timeout:     DefaultTimeout,
		UserAgent:   UserAgent,
		WikiBase:    WikiBaseURL,
		ItemDBBase:  ItemDBBaseURL,
		EnrichBatch: DefaultEnrichBatch,
		FuzzFactor:  DefaultFuzzFactor,
	}
}

// LoadConfig reads an optional .env file and GE_INSPECTOR_* environment
// variables on top of the defaults.
func LoadConfig() (Config, error) {
	// Missing .env is the normal case
	_ = godotenv.Load()

	def := DefaultConfig()

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	v.SetDefault("store_path", def.StorePath)
	v.SetDefault("lock_path", def.LockPath)
	v.SetDefault("temp_path", def.TempPath)
	v.SetDefault("backup_path", def.BackupPath)
	v.SetDefault("cooldown", def.Cooldown)
	v.SetDefault("retries", def.Retries)
	v.SetDefault("timeout", def.Timeout)
	v.SetDefault("user_agent", def.UserAgent)
	v.SetDefault("wiki_base", def.WikiBase)
	v.SetDefault("itemdb_base", def.ItemDBBase)
	v.SetDefault("enrich_batch", def.EnrichBatch)
	v.SetDefault("fuzz", def.FuzzFactor)

	cfg := Config{
		StorePath:   v.GetString("store_path"),
		LockPath:    v.GetString("lock_path"),
		TempPath:    v.GetString("temp_path"),
		BackupPath:  v.GetString("backup_path"),
		Cooldown:    v.GetDuration("cooldown"),
		Retries:     v.GetInt("retries"),
		Timeout:     v.GetDuration("timeout"),
		UserAgent:   v.GetString("user_agent"),
		WikiBase:    v.GetString("wiki_base"),
		ItemDBBase:  v.GetString("itemdb_base"),
		EnrichBatch: v.GetInt("enrich_batch"),
		FuzzFactor:  v.GetFloat64("fuzz"),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings that would make the store or the crawler misbehave.
func (c Config) Validate() error {
	if c.StorePath == "" {
		return fmt.Errorf("store path must not be empty")
	}
	if c.TempPath == "" || c.BackupPath == "" {
		return fmt.Errorf("temp and backup paths must not be empty")
	}
	if c.TempPath == c.StorePath || c.BackupPath == c.StorePath {
		return fmt.Errorf("temp and backup paths must differ from the store path")
	}
	if c.Retries < 0 {
		return fmt.Errorf("retries must be >= 0, got %d", c.Retries)
	}
	if c.EnrichBatch < 1 {
		return fmt.Errorf("enrich batch must be >= 1, got %d", c.EnrichBatch)
	}
	if c.FuzzFactor < 0 {
		return fmt.Errorf("fuzz factor must be >= 0, got %v", c.FuzzFactor)
	}
	return nil
}
