package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/recera/drawflow/internal/config"
	"github.com/recera/drawflow/pkg/graph"
	"github.com/recera/drawflow/pkg/store"
)

// loadConfig reads the --config file and applies the store flags shared
// by every command
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Lookup("store") != nil && flags.Changed("store") {
		cfg.Store.Driver, _ = flags.GetString("store")
	}
	if flags.Lookup("dir") != nil && flags.Changed("dir") {
		cfg.Store.Dir, _ = flags.GetString("dir")
	}
	if flags.Lookup("dsn") != nil && flags.Changed("dsn") {
		cfg.Store.DSN, _ = flags.GetString("dsn")
	}
	return cfg, cfg.Validate()
}

func addStoreFlags(cmd *cobra.Command) {
	cmd.Flags().String("store", "", "Store driver: file, postgres or memory")
	cmd.Flags().String("dir", "", "Directory of the file store")
	cmd.Flags().String("dsn", "", "PostgreSQL connection string")
}

func newLogger(w io.Writer, cfg *config.Config) (*slog.Logger, error) {
	level, err := cfg.Level()
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), nil
}

// openStore builds the configured store. The returned func releases it.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.Store, func(), error) {
	switch cfg.Store.Driver {
	case "file":
		fs, err := store.NewFileStore(cfg.Store.Dir, logger)
		if err != nil {
			return nil, nil, err
		}
		return fs, func() {}, nil
	case "postgres":
		pg, err := store.OpenPG(ctx, cfg.Store.DSN)
		if err != nil {
			return nil, nil, err
		}
		return pg, pg.Close, nil
	case "memory":
		return store.NewMemory(), func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}

// readGraph loads a graph from a JSON file, or by name from the store
func readGraph(cmd *cobra.Command, file string, args []string) (*graph.Drawflow, string, error) {
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, "", err
		}
		g, err := graph.Parse(data)
		if err != nil {
			return nil, "", fmt.Errorf("parse %s: %w", file, err)
		}
		return g, file, nil
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, "", err
	}
	name := cfg.Server.Graph
	if len(args) > 0 {
		name = args[0]
	}

	logger, err := newLogger(cmd.ErrOrStderr(), cfg)
	if err != nil {
		return nil, "", err
	}
	s, release, err := openStore(cmd.Context(), cfg, logger)
	if err != nil {
		return nil, "", err
	}
	defer release()

	g, err := s.Load(cmd.Context(), name)
	if err != nil {
		return nil, "", err
	}
	return g, name, nil
}
