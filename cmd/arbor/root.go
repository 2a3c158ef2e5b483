package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/arborhq/arbor/internal/auth"
	"github.com/arborhq/arbor/internal/config"
	"github.com/arborhq/arbor/internal/editor"
	"github.com/arborhq/arbor/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "arbor",
	Short: "Family tree editor with a local database and a web view",
	Long: `Arbor keeps a family tree in a local database and lets you edit it
from the command line or from a browser.

Start with 'arbor init' in a new directory, then 'arbor show' to see the
seeded sample tree. 'arbor serve' exposes the tree over HTTP/WebSocket for
browser-based editing.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// adminToken is the session token passed to mutating operations. When the
// workspace configures no admin tokens everyone is admin and the flag is
// unnecessary.
var adminToken string

func init() {
	rootCmd.PersistentFlags().StringVar(&adminToken, "token", os.Getenv("ARBOR_TOKEN"), "admin token for mutating commands")

	rootCmd.AddGroup(
		&cobra.Group{ID: "tree", Title: "Tree commands:"},
		&cobra.Group{ID: "data", Title: "Data commands:"},
		&cobra.Group{ID: "server", Title: "Server commands:"},
	)
}

// workingDir returns the current directory with a wrapped error.
func workingDir() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	return wd, nil
}

// loadConfig resolves configuration from the working directory.
func loadConfig() (*config.Config, error) {
	wd, err := workingDir()
	if err != nil {
		return nil, err
	}
	return config.Load(wd)
}

// checkerFor builds the admin checker for the configured tokens.
func checkerFor(cfg *config.Config) auth.Checker {
	if len(cfg.AdminTokens) == 0 {
		return auth.AllowAll{}
	}
	return auth.NewStaticChecker(cfg.AdminTokens...)
}

// openEditor opens the configured store and loads the tree into an editor.
// One-shot commands persist immediately regardless of the configured save
// mode; only the long-running server benefits from debouncing. The caller
// must Close both returns.
func openEditor(ctx context.Context, cfg *config.Config) (*editor.Editor, store.Store, error) {
	st, err := store.Open(store.Options{
		Backend:   cfg.Backend,
		Path:      cfg.DatabasePath,
		URL:       cfg.URL,
		AuthToken: cfg.AuthToken,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open store: %w", err)
	}

	ed := editor.New(st, checkerFor(cfg), &editor.Config{SaveMode: editor.SaveImmediate})
	if err := ed.Load(ctx); err != nil {
		_ = st.Close()
		return nil, nil, fmt.Errorf("failed to load tree: %w", err)
	}
	return ed, st, nil
}
