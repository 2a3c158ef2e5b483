package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// WorkspaceDirName is the marker directory holding workspace state.
const WorkspaceDirName = ".arbor"

// workspaceFileName is the workspace config file inside WorkspaceDirName.
const workspaceFileName = "arbor.toml"

// Workspace is the decoded .arbor/arbor.toml file. All fields are
// optional; zero values defer to defaults and environment.
type Workspace struct {
	Backend     string   `toml:"backend"`
	Database    string   `toml:"database"`
	URL         string   `toml:"url"`
	AuthToken   string   `toml:"auth_token"`
	SaveMode    string   `toml:"save_mode"`
	DebounceMs  int      `toml:"debounce_ms"`
	Port        int      `toml:"port"`
	AdminTokens []string `toml:"admin_tokens"`
	LogFile     string   `toml:"log_file"`
}

// FindWorkspace walks up from dir looking for a .arbor directory. It
// returns the directory containing .arbor and the decoded workspace file,
// or ("", nil, nil) when no workspace exists anywhere up the chain.
func FindWorkspace(dir string) (string, *Workspace, error) {
	cur, err := filepath.Abs(dir)
	if err != nil {
		return "", nil, fmt.Errorf("failed to resolve %s: %w", dir, err)
	}

	for {
		marker := filepath.Join(cur, WorkspaceDirName)
		if info, err := os.Stat(marker); err == nil && info.IsDir() {
			ws, err := readWorkspaceFile(filepath.Join(marker, workspaceFileName))
			if err != nil {
				return "", nil, err
			}
			return cur, ws, nil
		}

		parent := filepath.Dir(cur)
		if parent == cur {
			return "", nil, nil
		}
		cur = parent
	}
}

// readWorkspaceFile decodes the workspace file. A missing file is fine (a
// bare .arbor directory marks a workspace with all-default settings); a
// malformed one is a configuration error and therefore fatal.
func readWorkspaceFile(path string) (*Workspace, error) {
	var ws Workspace
	if _, err := toml.DecodeFile(path, &ws); err != nil {
		if os.IsNotExist(err) {
			return &ws, nil
		}
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &ws, nil
}

// InitWorkspace creates the .arbor directory and a starter arbor.toml in
// dir. It refuses to overwrite an existing workspace file.
func InitWorkspace(dir string, ws *Workspace) error {
	marker := filepath.Join(dir, WorkspaceDirName)
	if err := os.MkdirAll(marker, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", marker, err)
	}

	path := filepath.Join(marker, workspaceFileName)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("workspace already initialized: %s exists", path)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(ws); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
