package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// writeWorkspace creates a .arbor/arbor.toml under dir.
func writeWorkspace(t *testing.T, dir, content string) {
	t.Helper()

	marker := filepath.Join(dir, WorkspaceDirName)
	if err := os.MkdirAll(marker, 0755); err != nil {
		t.Fatalf("Failed to create workspace dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(marker, workspaceFileName), []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write workspace file: %v", err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Failed to load: %v", err)
	}

	if cfg.Backend != BackendSQLite {
		t.Errorf("Backend = %q, want sqlite", cfg.Backend)
	}
	if cfg.SaveMode != "debounced" {
		t.Errorf("SaveMode = %q, want debounced", cfg.SaveMode)
	}
	if cfg.Debounce != 500*time.Millisecond {
		t.Errorf("Debounce = %v, want 500ms", cfg.Debounce)
	}
	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.WorkspaceDir != "" {
		t.Errorf("WorkspaceDir = %q without a workspace", cfg.WorkspaceDir)
	}
	// No workspace: the database lands next to the starting directory.
	if got := filepath.Dir(cfg.DatabasePath); got != dir {
		t.Errorf("DatabasePath dir = %q, want %q", got, dir)
	}
}

func TestLoad_WorkspaceFile(t *testing.T) {
	dir := t.TempDir()
	writeWorkspace(t, dir, `
backend = "sqlite"
database = "family.db"
save_mode = "immediate"
debounce_ms = 100
port = 9090
admin_tokens = ["alpha", "beta"]
`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Failed to load: %v", err)
	}

	if cfg.SaveMode != "immediate" {
		t.Errorf("SaveMode = %q, want immediate", cfg.SaveMode)
	}
	if cfg.Debounce != 100*time.Millisecond {
		t.Errorf("Debounce = %v, want 100ms", cfg.Debounce)
	}
	if cfg.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Port)
	}
	if len(cfg.AdminTokens) != 2 {
		t.Errorf("AdminTokens = %v", cfg.AdminTokens)
	}
	want := filepath.Join(dir, WorkspaceDirName, "family.db")
	if cfg.DatabasePath != want {
		t.Errorf("DatabasePath = %q, want %q", cfg.DatabasePath, want)
	}
	if cfg.WorkspaceDir != dir {
		t.Errorf("WorkspaceDir = %q, want %q", cfg.WorkspaceDir, dir)
	}
}

func TestLoad_WorkspaceFoundFromSubdir(t *testing.T) {
	dir := t.TempDir()
	writeWorkspace(t, dir, `port = 7070`)

	sub := filepath.Join(dir, "a", "b")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatalf("Failed to create subdir: %v", err)
	}

	cfg, err := Load(sub)
	if err != nil {
		t.Fatalf("Failed to load: %v", err)
	}
	if cfg.Port != 7070 {
		t.Errorf("Port = %d, workspace not discovered from subdir", cfg.Port)
	}
	if cfg.WorkspaceDir != dir {
		t.Errorf("WorkspaceDir = %q, want %q", cfg.WorkspaceDir, dir)
	}
}

func TestLoad_EnvOverridesWorkspace(t *testing.T) {
	dir := t.TempDir()
	writeWorkspace(t, dir, `port = 7070`)

	t.Setenv("ARBOR_PORT", "6060")
	t.Setenv("ARBOR_SAVE_MODE", "immediate")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Failed to load: %v", err)
	}
	if cfg.Port != 6060 {
		t.Errorf("Port = %d, env override lost", cfg.Port)
	}
	if cfg.SaveMode != "immediate" {
		t.Errorf("SaveMode = %q, env override lost", cfg.SaveMode)
	}
}

func TestLoad_MalformedWorkspaceFile(t *testing.T) {
	dir := t.TempDir()
	writeWorkspace(t, dir, `port = [not toml`)

	if _, err := Load(dir); err == nil {
		t.Fatalf("Expected error for malformed workspace file")
	}
}

func TestLoad_BareWorkspaceDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, WorkspaceDirName), 0755); err != nil {
		t.Fatalf("Failed to create marker: %v", err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Failed to load with bare marker dir: %v", err)
	}
	if cfg.WorkspaceDir != dir {
		t.Errorf("WorkspaceDir = %q, want %q", cfg.WorkspaceDir, dir)
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := Config{
		Backend:      BackendSQLite,
		DatabasePath: "/tmp/a.db",
		SaveMode:     "debounced",
		Port:         8080,
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"memory needs no path", func(c *Config) { c.Backend = BackendMemory; c.DatabasePath = "" }, ""},
		{"sqlite without path", func(c *Config) { c.DatabasePath = "" }, "requires a database path"},
		{"libsql without url", func(c *Config) { c.Backend = BackendLibSQL }, "requires a database url"},
		{"unknown backend", func(c *Config) { c.Backend = "redis" }, "unknown backend"},
		{"unknown save mode", func(c *Config) { c.SaveMode = "eventually" }, "unknown save_mode"},
		{"bad port", func(c *Config) { c.Port = -1 }, "invalid port"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Expected error, got none")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Error %q does not contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestInitWorkspace(t *testing.T) {
	dir := t.TempDir()

	ws := &Workspace{Backend: BackendSQLite, Database: "arbor.db"}
	if err := InitWorkspace(dir, ws); err != nil {
		t.Fatalf("Failed to init workspace: %v", err)
	}

	wsDir, got, err := FindWorkspace(dir)
	if err != nil {
		t.Fatalf("Failed to find initialized workspace: %v", err)
	}
	if wsDir != dir {
		t.Errorf("Workspace dir = %q, want %q", wsDir, dir)
	}
	if got.Backend != BackendSQLite || got.Database != "arbor.db" {
		t.Errorf("Workspace = %+v", got)
	}

	// A second init must refuse to clobber the file.
	if err := InitWorkspace(dir, ws); err == nil {
		t.Fatalf("Expected error re-initializing workspace")
	}
}

func TestFindWorkspace_None(t *testing.T) {
	wsDir, ws, err := FindWorkspace(t.TempDir())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if wsDir != "" || ws != nil {
		t.Fatalf("Found a workspace in an empty directory: %q %+v", wsDir, ws)
	}
}
