package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/yndnr/minikv-go/internal/core/command"
	"github.com/yndnr/minikv-go/internal/infra/buildinfo"
	"github.com/yndnr/minikv-go/internal/infra/confloader"
	"github.com/yndnr/minikv-go/internal/infra/shutdown"
	"github.com/yndnr/minikv-go/internal/infra/tlsroots"
	"github.com/yndnr/minikv-go/internal/server/config"
	"github.com/yndnr/minikv-go/internal/server/httpserver"
	"github.com/yndnr/minikv-go/internal/server/textserver"
	"github.com/yndnr/minikv-go/internal/storage/memory"
	"github.com/yndnr/minikv-go/internal/storage/snapshot"
	"github.com/yndnr/minikv-go/internal/telemetry/logger"
	"github.com/yndnr/minikv-go/internal/telemetry/metric"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configFile  = flag.String("config", "", "Path to configuration file")
		showVersion = flag.Bool("version", false, "Show version information")
		tcpAddr     = flag.String("tcp", "", "Text protocol listen address (overrides server.tcp.addr)")
		httpAddr    = flag.String("http", "", "HTTP listen address (overrides server.http.addr)")
		logLevel    = flag.String("log-level", "", "Log level (overrides log.level)")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("minikv-server %s\n", buildinfo.String())
		return nil
	}

	overrides := flagOverrides(*tcpAddr, *httpAddr, *logLevel)
	cfg, err := loadConfig(*configFile, overrides)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.Install(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	info := buildinfo.Get()
	log.Info("starting minikv-server",
		"version", info.Version,
		"commit", info.Commit,
		"config", *configFile)
	log.Debug("effective configuration", "config", config.Sanitize(cfg))

	reg := metric.NewRegistry()

	store := memory.New(
		memory.WithShardCount(cfg.Storage.ShardCount),
		memory.WithLogger(log),
	)
	reg.MustRegister(metric.NewStoreCollector(func() metric.StoreStats {
		st := store.Stats()
		return metric.StoreStats{Keys: st.Keys, LazyExpired: st.LazyExpired, SweptExpired: st.SweptExpired}
	}))

	persister, err := openPersister(cfg.Storage, log, reg)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	restore(store, persister, log)

	stopSweeper := store.StartSweeper(cfg.Storage.SweepInterval)

	dispatcher := command.NewDispatcher(store,
		command.WithSaver(persister),
		command.WithObserver(reg),
		command.WithLogger(log),
	)

	h := shutdown.NewHandler(shutdownTimeout, log)

	// Hooks run in reverse registration order.
	h.OnShutdown("persister", func(context.Context) error {
		return persister.Close()
	})
	h.OnShutdown("sweeper", func(context.Context) error {
		stopSweeper()
		return nil
	})
	if cfg.Storage.SaveOnShutdown {
		h.OnShutdown("save", func(ctx context.Context) error {
			n, err := dispatcher.Save(ctx)
			if err != nil {
				return err
			}
			log.Info("snapshot saved on shutdown", "keys", n)
			return nil
		})
	}

	if cfg.Server.TCP.Enabled {
		tcp := textserver.New(textserver.Config{
			Addr:         cfg.Server.TCP.Addr,
			ReadTimeout:  cfg.Server.TCP.ReadTimeout,
			WriteTimeout: cfg.Server.TCP.WriteTimeout,
			IdleTimeout:  cfg.Server.TCP.IdleTimeout,
			RateLimit:    cfg.Server.TCP.RateLimit,
			MaxLineBytes: cfg.Server.TCP.MaxLineBytes,
			Greeting:     cfg.Server.TCP.Greeting,
		}, dispatcher,
			textserver.WithLogger(log),
			textserver.WithConnectionGauge(reg.TCPConnections),
		)
		if err := tcp.Start(context.Background()); err != nil {
			return startFailed(h, fmt.Errorf("start tcp server: %w", err))
		}
		h.OnShutdown("tcp", tcp.Shutdown)
	}

	if cfg.Server.Local.Enabled {
		local := textserver.New(textserver.Config{
			Network:      "unix",
			Addr:         cfg.Server.Local.Socket,
			ReadTimeout:  cfg.Server.TCP.ReadTimeout,
			WriteTimeout: cfg.Server.TCP.WriteTimeout,
			IdleTimeout:  cfg.Server.TCP.IdleTimeout,
			MaxLineBytes: cfg.Server.TCP.MaxLineBytes,
			Greeting:     cfg.Server.TCP.Greeting,
		}, dispatcher,
			textserver.WithLogger(log.With("listener", "local")),
			textserver.WithConnectionGauge(reg.TCPConnections),
		)
		if err := local.Start(context.Background()); err != nil {
			return startFailed(h, fmt.Errorf("start local socket: %w", err))
		}
		h.OnShutdown("local", local.Shutdown)
	}

	if cfg.Server.HTTP.Enabled {
		router := httpserver.NewRouter(httpserver.RouterConfig{
			Store:      store,
			Dispatcher: dispatcher,
			Metrics:    reg,
			Logger:     log,
			Version:    info.Version,
			WebSocket:  cfg.Server.HTTP.WebSocket,
		})
		httpCfg := httpserver.Config{Addr: cfg.Server.HTTP.Addr}
		if cfg.Server.HTTP.TLSCertFile != "" {
			certs, err := tlsroots.NewCertReloader(cfg.Server.HTTP.TLSCertFile, cfg.Server.HTTP.TLSKeyFile,
				tlsroots.WithLogger(log))
			if err != nil {
				return startFailed(h, err)
			}
			if err := certs.Watch(); err != nil {
				log.Warn("certificate reload disabled", "error", err)
			}
			h.OnShutdown("certificates", func(context.Context) error { return certs.Stop() })
			httpCfg.TLS = certs.ServerConfig()
		}
		srv := httpserver.New(httpCfg, router, log)
		if err := srv.Start(); err != nil {
			return startFailed(h, fmt.Errorf("start http server: %w", err))
		}
		h.OnShutdown("http", srv.Shutdown)
	}

	if *configFile != "" {
		w, err := watchLogLevel(*configFile, overrides, log)
		if err != nil {
			log.Warn("config watcher disabled", "error", err)
		} else {
			h.OnShutdown("watcher", func(context.Context) error { return w.Stop() })
		}
	}

	log.Info("server started, press Ctrl+C to stop")
	if err := h.Wait(); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}

	log.Info("server stopped gracefully")
	return nil
}

// flagOverrides maps non-empty flags onto their config keys.
func flagOverrides(tcpAddr, httpAddr, logLevel string) map[string]any {
	m := make(map[string]any)
	if tcpAddr != "" {
		m["server.tcp.addr"] = tcpAddr
	}
	if httpAddr != "" {
		m["server.http.addr"] = httpAddr
	}
	if logLevel != "" {
		m["log.level"] = logLevel
	}
	return m
}

// loadConfig loads configuration from defaults, file, environment and
// flag overrides, then validates it.
func loadConfig(configFile string, overrides map[string]any) (*config.ServerConfig, error) {
	cfg := &config.ServerConfig{}

	loader := confloader.NewLoader(
		confloader.WithDefaults(config.DefaultMap()),
		confloader.WithConfigFile(configFile),
		confloader.WithOverrides(overrides),
	)
	if err := loader.Load(cfg); err != nil {
		return nil, err
	}

	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// openPersister builds the snapshot backend named by cfg.Backend.
func openPersister(cfg config.StorageSection, log *slog.Logger, reg *metric.Registry) (snapshot.Persister, error) {
	switch cfg.Backend {
	case config.BackendFile:
		cipher, err := snapshot.NewCipher([]byte(cfg.EncryptionKey), cfg.EncryptionAlgorithm)
		if err != nil {
			return nil, err
		}
		return snapshot.NewFilePersister(snapshot.FileConfig{
			Path:   cfg.SnapshotPath,
			Cipher: cipher,
			Logger: log,
		})

	case config.BackendBadger:
		p, err := snapshot.NewBadgerPersister(snapshot.BadgerConfig{
			Dir:    cfg.BadgerDir,
			Logger: log,
		})
		if err != nil {
			return nil, err
		}
		reg.MustRegister(p.Collectors()...)
		return p, nil

	default:
		log.Warn("persistence disabled; SAVE will fail")
		return snapshot.NopPersister{}, nil
	}
}

// restore loads the last snapshot into store. A failed load is logged
// and the server starts empty.
func restore(store *memory.Store, p snapshot.Persister, log *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	start := time.Now()
	entries, err := p.Load(ctx)
	if err != nil {
		log.Error("snapshot load failed, starting empty", "error", err)
		return
	}
	n := store.Restore(entries)
	log.Info("snapshot restored",
		"keys", n,
		"skipped_expired", len(entries)-n,
		"elapsed", time.Since(start))
}

// watchLogLevel reloads the config file on change and applies its log
// level. Other settings need a restart.
func watchLogLevel(path string, overrides map[string]any, log *slog.Logger) (*confloader.Watcher, error) {
	w, err := confloader.NewWatcher(confloader.WithWatcherLogger(log))
	if err != nil {
		return nil, err
	}
	if err := w.Watch(path); err != nil {
		_ = w.Stop()
		return nil, err
	}

	w.OnChange(func(string) {
		cfg, err := loadConfig(path, overrides)
		if err != nil {
			log.Warn("ignoring invalid configuration change", "error", err)
			return
		}
		if cfg.Log.Level == logger.GetLevel() {
			return
		}
		if err := logger.SetLevel(cfg.Log.Level); err != nil {
			log.Warn("log level not applied", "level", cfg.Log.Level, "error", err)
			return
		}
		log.Info("log level changed", "level", cfg.Log.Level)
	})
	w.StartAsync()
	return w, nil
}

// startFailed runs the hooks registered so far and returns err.
func startFailed(h *shutdown.Handler, err error) error {
	if herr := h.Run(); herr != nil {
		return errors.Join(err, herr)
	}
	return err
}
