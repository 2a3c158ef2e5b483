package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/arborhq/arbor/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:     "watch <file>",
	GroupID: "server",
	Short:   "Watch a snapshot file and import it on change",
	Long: `Watch a snapshot file and replace the stored tree every time the file
changes. Useful alongside 'arbor serve': edit the YAML in your editor
and connected browsers update live.

The file is imported once at startup, then on every write. Rapid bursts
of writes are coalesced.

Example:
  arbor watch family.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ed, st, err := openEditor(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer st.Close()
		defer ed.Close()

		wcfg := watch.DefaultConfig()
		wcfg.Token = adminToken
		w, err := watch.New(ed, args[0], wcfg)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return w.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
