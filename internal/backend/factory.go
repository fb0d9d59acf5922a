// Package backend assembles the storage and messaging stack from config.
package backend

import (
	"fmt"

	"pennywise/internal/amqp"
	"pennywise/internal/config"
	"pennywise/internal/log"
	"pennywise/internal/store"
)

// Result bundles the assembled backend pieces. Events is nil when AMQP is
// not configured; callers treat it as optional.
type Result struct {
	Store   store.Store
	Events  *amqp.Client
	Cleanup func() error
}

// Build creates the store selected by DATA_BACKEND plus the optional AMQP
// client. An unreachable broker is logged and skipped, never fatal.
func Build(cfg *config.Config, logger *log.Logger) (*Result, error) {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentBackend)

	var st store.Store
	switch cfg.DataBackend {
	case "memory":
		st = store.NewMemoryStore()
		logger.Info("Initialized memory backend")
	case "sqlite":
		sqliteStore, err := store.NewSQLiteStore(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
		}
		st = sqliteStore
		logger.Info("Initialized SQLite backend", "db_path", cfg.SQLiteDBPath)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", cfg.DataBackend)
	}

	var events *amqp.Client
	if cfg.AMQPConfigured() {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without events", "error", err)
		} else {
			events = client
			logger.Info("Initialized AMQP client",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue)
		}
	}

	cleanup := func() error {
		var firstErr error
		if events != nil {
			if err := events.Close(); err != nil {
				firstErr = err
			}
		}
		if err := st.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		return firstErr
	}

	return &Result{Store: st, Events: events, Cleanup: cleanup}, nil
}
