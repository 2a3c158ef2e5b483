// Package config loads arbor's runtime configuration.
//
// Configuration layers, lowest to highest precedence: built-in defaults,
// the workspace file .arbor/arbor.toml (see workspace.go), and ARBOR_*
// environment variables. Command flags sit above all of these and are
// applied by the commands themselves.
package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Backend names accepted by Config.Backend.
const (
	BackendSQLite = "sqlite"
	BackendLibSQL = "libsql"
	BackendMemory = "memory"
)

// Config is the resolved runtime configuration.
type Config struct {
	// Backend selects the store: sqlite, libsql, or memory.
	Backend string

	// DatabasePath is the sqlite database file.
	DatabasePath string

	// URL and AuthToken configure the libsql backend.
	URL       string
	AuthToken string

	// SaveMode is "debounced" or "immediate".
	SaveMode string

	// Debounce is the quiet period before a debounced save fires.
	Debounce time.Duration

	// Port is the HTTP server port.
	Port int

	// AdminTokens are the tokens granted the admin capability. Empty means
	// local single-user mode: everyone is admin.
	AdminTokens []string

	// LogFile, when set, receives rotated server logs in addition to
	// stderr.
	LogFile string

	// WorkspaceDir is the directory holding .arbor, or "" when no
	// workspace was found.
	WorkspaceDir string
}

// Load resolves configuration starting from dir (usually the working
// directory). Missing workspace is not an error: defaults plus environment
// apply, with the database placed next to dir.
func Load(dir string) (*Config, error) {
	v := viper.New()
	v.SetDefault("backend", BackendSQLite)
	v.SetDefault("database", "arbor.db")
	v.SetDefault("url", "")
	v.SetDefault("auth_token", "")
	v.SetDefault("save_mode", "debounced")
	v.SetDefault("debounce_ms", 500)
	v.SetDefault("port", 8080)
	v.SetDefault("admin_tokens", []string{})
	v.SetDefault("log_file", "")

	wsDir, ws, err := FindWorkspace(dir)
	if err != nil {
		return nil, err
	}
	if ws != nil {
		applyWorkspace(v, ws)
	}

	v.SetEnvPrefix("ARBOR")
	v.AutomaticEnv()

	cfg := &Config{
		Backend:      v.GetString("backend"),
		DatabasePath: v.GetString("database"),
		URL:          v.GetString("url"),
		AuthToken:    v.GetString("auth_token"),
		SaveMode:     v.GetString("save_mode"),
		Debounce:     time.Duration(v.GetInt("debounce_ms")) * time.Millisecond,
		Port:         v.GetInt("port"),
		AdminTokens:  v.GetStringSlice("admin_tokens"),
		LogFile:      v.GetString("log_file"),
		WorkspaceDir: wsDir,
	}

	// Relative database paths resolve against the workspace .arbor dir
	// when one exists, otherwise against the starting directory.
	if cfg.DatabasePath != "" && !filepath.IsAbs(cfg.DatabasePath) {
		base := dir
		if wsDir != "" {
			base = filepath.Join(wsDir, WorkspaceDirName)
		}
		cfg.DatabasePath = filepath.Join(base, cfg.DatabasePath)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the process cannot start with. These are
// the only fatal errors in the system; everything downstream recovers
// locally.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendSQLite:
		if c.DatabasePath == "" {
			return fmt.Errorf("sqlite backend requires a database path")
		}
	case BackendLibSQL:
		if c.URL == "" {
			return fmt.Errorf("libsql backend requires a database url")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown backend %q (want sqlite, libsql, or memory)", c.Backend)
	}

	if c.SaveMode != "debounced" && c.SaveMode != "immediate" {
		return fmt.Errorf("unknown save_mode %q (want debounced or immediate)", c.SaveMode)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	return nil
}

// applyWorkspace lifts workspace file values over the defaults.
func applyWorkspace(v *viper.Viper, ws *Workspace) {
	if ws.Backend != "" {
		v.SetDefault("backend", ws.Backend)
	}
	if ws.Database != "" {
		v.SetDefault("database", ws.Database)
	}
	if ws.URL != "" {
		v.SetDefault("url", ws.URL)
	}
	if ws.AuthToken != "" {
		v.SetDefault("auth_token", ws.AuthToken)
	}
	if ws.SaveMode != "" {
		v.SetDefault("save_mode", ws.SaveMode)
	}
	if ws.DebounceMs > 0 {
		v.SetDefault("debounce_ms", ws.DebounceMs)
	}
	if ws.Port > 0 {
		v.SetDefault("port", ws.Port)
	}
	if len(ws.AdminTokens) > 0 {
		v.SetDefault("admin_tokens", ws.AdminTokens)
	}
	if ws.LogFile != "" {
		v.SetDefault("log_file", ws.LogFile)
	}
}
