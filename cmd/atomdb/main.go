// Command atomdb runs the embedded table store behind an interactive shell,
// a TCP line protocol, or both.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/leengari/atomdb/internal/config"
	"github.com/leengari/atomdb/internal/discovery"
	dberrors "github.com/leengari/atomdb/internal/domain/errors"
	"github.com/leengari/atomdb/internal/domain/schema"
	"github.com/leengari/atomdb/internal/engine"
	"github.com/leengari/atomdb/internal/logging"
	"github.com/leengari/atomdb/internal/metrics"
	"github.com/leengari/atomdb/internal/network"
	"github.com/leengari/atomdb/internal/repl"
	"github.com/leengari/atomdb/internal/seed"
	"github.com/leengari/atomdb/internal/session"
	"github.com/leengari/atomdb/internal/storage"
)

var version = "dev"

func main() {
	err := mainImpl(os.Args[1:])
	switch {
	case err == nil, errors.Is(err, context.Canceled):
	case errors.Is(err, flag.ErrHelp):
		os.Exit(2)
	default:
		fmt.Fprintf(os.Stderr, "atomdb: %v\n", err)
		os.Exit(1)
	}
}

type cliFlags struct {
	config      string
	mode        string
	addr        string
	snapshot    string
	format      string
	compression string
	logLevel    string
	metricsAddr string
	advertise   bool
	seed        bool
}

func newFlagSet(f *cliFlags) *flag.FlagSet {
	fs := flag.NewFlagSet("atomdb", flag.ContinueOnError)
	fs.StringVar(&f.config, "config", "", "Path to a YAML config file")
	fs.StringVar(&f.mode, "mode", config.ModeCLI, "Run mode (cli, server, both)")
	fs.StringVar(&f.addr, "addr", "0.0.0.0:6969", "TCP address to listen on in server mode")
	fs.StringVar(&f.snapshot, "snapshot", "database.bin", "Snapshot file")
	fs.StringVar(&f.format, "format", storage.FormatBinary, "Snapshot format (binary, json)")
	fs.StringVar(&f.compression, "compression", storage.CompressionNone, "Snapshot compression (none, zstd)")
	fs.StringVar(&f.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	fs.StringVar(&f.metricsAddr, "metrics-addr", "", "Address for the Prometheus endpoint, empty to disable")
	fs.BoolVar(&f.advertise, "advertise", false, "Announce the TCP server over mDNS")
	fs.BoolVar(&f.seed, "seed", true, "Create demo data when no snapshot exists")
	return fs
}

// applyFlags copies the flags that were set explicitly onto cfg
func applyFlags(cfg *config.Config, fs *flag.FlagSet, f *cliFlags) {
	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "mode":
			cfg.Mode = f.mode
		case "addr":
			cfg.Server.Addr = f.addr
		case "snapshot":
			cfg.Storage.Path = f.snapshot
		case "format":
			cfg.Storage.Format = f.format
		case "compression":
			cfg.Storage.Compression = f.compression
		case "log-level":
			cfg.Log.Level = f.logLevel
		case "metrics-addr":
			cfg.Metrics.Addr = f.metricsAddr
		case "advertise":
			cfg.Server.Advertise = f.advertise
		case "seed":
			cfg.SeedDemo = f.seed
		}
	})
}

func loadConfig(args []string) (*config.Config, error) {
	var f cliFlags
	fs := newFlagSet(&f)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unknown arguments: %v", fs.Args())
	}

	cfg, err := config.Load(f.config)
	if err != nil {
		return nil, err
	}
	applyFlags(cfg, fs, &f)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openDatabase loads the snapshot. A missing file starts an empty
// database and reports fresh. Any other failure is returned so a damaged
// snapshot is never overwritten.
func openDatabase(store *storage.Manager, logger *slog.Logger) (db *schema.Database, fresh bool, err error) {
	db, err = store.Load()
	if err == nil {
		logger.Info("snapshot loaded", "path", store.Path(), "tables", len(db.Tables))
		return db, false, nil
	}

	var missing *dberrors.MissingFileError
	if !errors.As(err, &missing) {
		return nil, false, err
	}
	logger.Info("no snapshot found, starting empty", "path", store.Path())
	return schema.NewDatabase(), true, nil
}

func mainImpl(args []string) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}

	level, _ := logging.ParseLevel(cfg.Log.Level)
	logger, closeFn := logging.SetupLogger(logging.Options{Level: level, SeqURL: cfg.Log.SeqURL})
	defer closeFn()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	codec, err := storage.NewCodec(cfg.Storage.Format, cfg.Storage.Compression)
	if err != nil {
		return err
	}
	store := storage.NewManager(cfg.Storage.Path, codec, logger)

	db, fresh, err := openDatabase(store, logger)
	if err != nil {
		logger.Error("failed to load database", "path", cfg.Storage.Path, "code", dberrors.Code(err), "error", err)
		return err
	}

	reg := prometheus.NewRegistry()
	eng := engine.New(db, store,
		engine.WithLogger(logger),
		engine.WithObservers(engine.NewLoggingObserver(logger), metrics.New(reg)),
	)

	if fresh && cfg.SeedDemo {
		if err := eng.Update(seed.Demo); err != nil {
			return fmt.Errorf("seeding demo data: %w", err)
		}
		logger.Info("created demo data", "table", seed.UsersTable)
	}

	// Save database on shutdown
	defer func() {
		logger.Info("shutting down, saving database")
		if err := eng.Save(); err != nil {
			logger.Error("shutdown save failed", "error", err)
		}
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	if cfg.ServesTCP() {
		srv, err := network.Listen(cfg.Server.Addr, eng, logger)
		if err != nil {
			return err
		}
		g.Go(func() error { return srv.Serve(gctx) })

		if cfg.Server.Advertise {
			host, _ := os.Hostname()
			adv := discovery.NewAdvertiser(discovery.Config{
				Instance: host,
				Addr:     srv.Addr().String(),
				Version:  version,
				Format:   codec.Name(),
				Session:  uuid.NewString(),
			}, logger)
			if err := adv.Start(); err != nil {
				logger.Warn("mdns advertisement failed", "error", err)
			} else {
				defer adv.Stop()
			}
		}
	}

	if cfg.Metrics.Addr != "" {
		g.Go(func() error { return metrics.Serve(gctx, cfg.Metrics.Addr, reg) })
		logger.Info("serving metrics", "addr", cfg.Metrics.Addr)
	}

	if cfg.RunsShell() {
		sess := session.New(uuid.NewString(), eng, logger)
		g.Go(func() error {
			// Quitting the shell stops every other front end.
			defer cancel()
			done := make(chan error, 1)
			go func() { done <- repl.Start(sess, repl.Options{HistoryFile: cfg.HistoryFile}) }()
			select {
			case err := <-done:
				return err
			case <-gctx.Done():
				return nil
			}
		})
	}

	logger.Info("atomdb ready", "mode", cfg.Mode, "snapshot", cfg.Storage.Path, "format", codec.Name())
	return g.Wait()
}
