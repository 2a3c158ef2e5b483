package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/arborhq/arbor/internal/editor"
	"github.com/arborhq/arbor/internal/server"
	"github.com/arborhq/arbor/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:     "serve",
	GroupID: "server",
	Short:   "Serve the tree over HTTP and WebSocket",
	Long: `Run the arbor server. The browser UI and the JSON API share one port;
connected WebSocket clients receive a push on every change.

Edits are debounced before hitting the database unless save_mode is set
to "immediate" in arbor.toml.

Example:
  arbor serve
  arbor serve --port 9090`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if servePort != 0 {
			cfg.Port = servePort
		}

		logOut := io.Writer(os.Stderr)
		if cfg.LogFile != "" {
			logOut = io.MultiWriter(os.Stderr, &lumberjack.Logger{
				Filename:   cfg.LogFile,
				MaxSize:    10, // megabytes
				MaxBackups: 3,
				MaxAge:     28, // days
			})
		}
		logger := log.New(logOut, "[arbor] ", log.LstdFlags)

		st, err := store.Open(store.Options{
			Backend:   cfg.Backend,
			Path:      cfg.DatabasePath,
			URL:       cfg.URL,
			AuthToken: cfg.AuthToken,
		})
		if err != nil {
			return fmt.Errorf("failed to open store: %w", err)
		}
		defer st.Close()

		ed := editor.New(st, checkerFor(cfg), &editor.Config{
			SaveMode:         cfg.SaveMode,
			DebounceInterval: cfg.Debounce,
			Logger:           log.New(logOut, "[editor] ", log.LstdFlags),
		})
		if err := ed.Load(cmd.Context()); err != nil {
			return fmt.Errorf("failed to load tree: %w", err)
		}

		srv := server.New(ed, &server.Config{
			Port:   cfg.Port,
			Logger: logger,
		})
		if err := srv.Start(); err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		logger.Printf("Listening on %s", srv.GetAddr())

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh

		logger.Println("Shutting down")
		if err := ed.Flush(cmd.Context()); err != nil {
			logger.Printf("Flush failed: %v", err)
		}
		ed.Close()
		return srv.Stop()
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "override the configured port")
	rootCmd.AddCommand(serveCmd)
}
