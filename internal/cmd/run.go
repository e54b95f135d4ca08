package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/navihq/navi/internal/appdir"
	"github.com/navihq/navi/internal/config"
	"github.com/navihq/navi/internal/conn"
	"github.com/navihq/navi/internal/coordinator"
	"github.com/navihq/navi/internal/logging"
	"github.com/navihq/navi/internal/session"
)

// runClient wires the store, connection, and coordinator together and runs
// until interrupted.
func runClient(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dataDir := cfg.Storage.DataDir
	if dataDir == "" {
		var err error
		dataDir, err = appdir.SessionsDir()
		if err != nil {
			return err
		}
	}
	store, err := session.NewFileStore(dataDir)
	if err != nil {
		return err
	}

	mgr := conn.New(conn.Options{
		URL:             cfg.Agent.URL,
		MaxRetries:      cfg.Reconnect.MaxRetries,
		InitialInterval: cfg.Reconnect.InitialInterval,
		MaxInterval:     cfg.Reconnect.MaxInterval,
		MaxElapsed:      cfg.Reconnect.MaxElapsed,
	})

	coord := coordinator.New(cfg, mgr, store, logNotifier{})
	mgr.OnEvent(coord.HandleEvent)
	mgr.OnConnect(coord.HandleConnected)
	mgr.OnConnectivityLost(coord.HandleConnectivityLost)

	if err := coord.Hydrate(); err != nil {
		return err
	}
	if removed, err := coord.CleanupArchived(); err != nil {
		logging.Session().Warn("archived session cleanup failed", "error", err)
	} else if removed > 0 {
		logging.Session().Info("archived sessions removed", "count", removed)
	}

	configPath := flagConfig
	if configPath == "" {
		configPath, err = appdir.ConfigPath()
		if err != nil {
			return err
		}
	}
	watcher, err := config.NewWatcher(configPath, logging.Settings(), func(next *config.Config) {
		coord.SetConfig(next)
	})
	if err != nil {
		logging.Settings().Warn("config watcher unavailable", "error", err)
	} else {
		if err := watcher.Start(); err != nil {
			logging.Settings().Warn("config watcher failed to start", "error", err)
		}
		defer watcher.Close()
	}

	if err := mgr.Start(ctx); err != nil {
		return err
	}
	defer mgr.Close()

	<-ctx.Done()
	return nil
}

// logNotifier surfaces coordinator notifications in the log. A UI frontend
// replaces this with its own notifier.
type logNotifier struct{}

func (logNotifier) Notify(n coordinator.Notification) {
	logging.Coordinator().Info("notification",
		"kind", string(n.Kind),
		"session_id", n.SessionID,
		"request_id", n.RequestID,
		"message", n.Message)
}
