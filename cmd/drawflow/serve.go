package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/recera/drawflow/app/demo"
	"github.com/recera/drawflow/app/widgets"
	"github.com/recera/drawflow/internal/config"
	"github.com/recera/drawflow/pkg/live"
	"github.com/recera/drawflow/pkg/server"
	"github.com/recera/drawflow/pkg/store"
)

func newServeCommand() *cobra.Command {
	var port int
	var host string
	var graphName string
	var watch bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the editor server",
		Long: `Starts the HTTP server. Each browser tab gets a live session on the
graph; edits are saved when a drag ends. With --watch, changes to the
stored documents made outside the editor are pushed to open sessions.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("port") {
				cfg.Server.Port = port
			}
			if flags.Changed("host") {
				cfg.Server.Host = host
			}
			if flags.Changed("graph") {
				cfg.Server.Graph = graphName
			}
			if flags.Changed("watch") {
				cfg.Store.Watch = watch
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger, err := newLogger(cmd.ErrOrStderr(), cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg, logger)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8080, "Port to listen on")
	cmd.Flags().StringVarP(&host, "host", "H", "localhost", "Host to bind to")
	cmd.Flags().StringVarP(&graphName, "graph", "g", "default", "Graph opened at /")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Reload sessions when stored documents change")
	addStoreFlags(cmd)

	return cmd
}

// runServe serves until ctx is cancelled, then shuts down gracefully
func runServe(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	st, release, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer release()

	liveServer := live.NewServer(live.Options{
		Store:    st,
		Registry: widgets.New(),
		Canvas:   cfg.CanvasOptions(),
		Default:  demo.Graph(),
		Logger:   logger,
	})
	go liveServer.Run(ctx)

	if cfg.Store.Watch {
		if err := watchStore(ctx, st, liveServer, logger); err != nil {
			return err
		}
	}

	app := server.New(server.Options{
		Live:         liveServer,
		DefaultGraph: cfg.Server.Graph,
		Logger:       logger,
	})

	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           app,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- httpServer.ListenAndServe()
	}()
	logger.Info("drawflow listening", "url", fmt.Sprintf("http://%s/", cfg.Addr()), "store", cfg.Store.Driver)

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// watchStore reloads sessions when a stored document changes on disk.
// Only the file store can be watched.
func watchStore(ctx context.Context, st store.Store, liveServer *live.Server, logger *slog.Logger) error {
	fs, ok := st.(*store.FileStore)
	if !ok {
		logger.Warn("watch is only supported by the file store")
		return nil
	}
	logger.Info("watching for changes", "dir", fs.Dir())
	return fs.Watch(ctx, func(name string) {
		if err := liveServer.Reload(ctx, name); err != nil {
			logger.Warn("reload failed", "graph", name, "error", err)
			return
		}
		logger.Debug("graph reloaded", "graph", name)
	})
}
