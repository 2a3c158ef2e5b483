package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arborhq/arbor/internal/config"
)

var initBackend string

var initCmd = &cobra.Command{
	Use:     "init",
	GroupID: "data",
	Short:   "Initialize an arbor workspace in the current directory",
	Long: `Create the .arbor directory and a starter arbor.toml.

The workspace marks the directory tree commands operate on; configuration
in arbor.toml applies to every arbor command run underneath it. The
database itself is created lazily, seeded with a small sample tree on
first use.

Example:
  arbor init
  arbor init --backend memory`,
	RunE: func(cmd *cobra.Command, args []string) error {
		wd, err := workingDir()
		if err != nil {
			return err
		}

		ws := &config.Workspace{
			Backend:  initBackend,
			Database: "arbor.db",
		}
		if err := config.InitWorkspace(wd, ws); err != nil {
			return err
		}

		fmt.Printf("Initialized arbor workspace in %s/%s\n", wd, config.WorkspaceDirName)
		return nil
	},
}

func init() {
	initCmd.Flags().StringVar(&initBackend, "backend", config.BackendSQLite, "store backend (sqlite, libsql, memory)")
	rootCmd.AddCommand(initCmd)
}
