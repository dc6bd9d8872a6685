// Package config loads application configuration from an optional
// worklog.yaml and WORKLOG_* environment variables using Viper.
package config

import (
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the resolved application configuration.
type Config struct {
	// DataDir is the directory holding the local JSON store.
	DataDir string `mapstructure:"data_dir"`
	// RemoteDB is the path of the shared sqlite database used for sync.
	RemoteDB string `mapstructure:"remote_db"`
	// ExportPrefix prefixes export filenames (e.g. "orange-mri").
	ExportPrefix string `mapstructure:"export_prefix"`

	// DropDir is the directory the import daemon watches for export files.
	DropDir string `mapstructure:"drop_dir"`
	// ReconcileInterval is how often the daemon re-runs reconciliation
	// (e.g. "5m"). Zero disables periodic reconciliation.
	ReconcileInterval string `mapstructure:"reconcile_interval"`

	// DashboardAddr is the listen address of the dashboard server.
	DashboardAddr string `mapstructure:"dashboard_addr"`

	// LogFile, when set, routes daemon logs to a rotating file instead
	// of stderr.
	LogFile string `mapstructure:"log_file"`
}

// Load reads worklog.yaml from dir (missing file is fine) and overlays
// WORKLOG_* environment variables. Relative data paths resolve under dir.
func Load(dir string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("worklog")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	v.SetEnvPrefix("WORKLOG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("data_dir", "data")
	v.SetDefault("remote_db", filepath.Join("data", "worklog.db"))
	v.SetDefault("export_prefix", "orange-mri")
	v.SetDefault("drop_dir", "")
	v.SetDefault("reconcile_interval", "5m")
	v.SetDefault("dashboard_addr", ":8844")
	v.SetDefault("log_file", "")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.DataDir == "" {
		return nil, errors.New("config: data_dir must be set")
	}
	if !filepath.IsAbs(cfg.DataDir) {
		cfg.DataDir = filepath.Join(dir, cfg.DataDir)
	}
	if cfg.RemoteDB != "" && !filepath.IsAbs(cfg.RemoteDB) {
		cfg.RemoteDB = filepath.Join(dir, cfg.RemoteDB)
	}
	if cfg.DropDir != "" && !filepath.IsAbs(cfg.DropDir) {
		cfg.DropDir = filepath.Join(dir, cfg.DropDir)
	}

	return &cfg, nil
}

// ReconcileEvery parses ReconcileInterval. Returns 5m if unset or invalid,
// zero only when explicitly disabled with "0".
func (c *Config) ReconcileEvery() time.Duration {
	if c.ReconcileInterval == "0" {
		return 0
	}
	d, err := time.ParseDuration(c.ReconcileInterval)
	if err != nil || d < 0 {
		return 5 * time.Minute
	}
	return d
}
