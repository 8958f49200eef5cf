package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"budgettracker/internal/amqp"
	"budgettracker/internal/session"
	gsheet "budgettracker/internal/sheets/google"
	"budgettracker/internal/sheets/memory"
	"budgettracker/internal/storage"
)

// notifierBuffer bounds the session events waiting for the broker.
const notifierBuffer = 64

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend. On error everything
// opened so far is closed again.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	res := &BackendResult{}
	var cleanups []CleanupFunc
	res.Cleanup = func() error {
		var errs []error
		for i := len(cleanups) - 1; i >= 0; i-- {
			if err := cleanups[i](); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}

	switch config.SessionBackend {
	case SQLiteSession:
		repo, err := storage.NewSessionRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite session storage: %w", err)
		}
		res.Persister = repo
		res.Ready = repo.Ping
		cleanups = append(cleanups, repo.Close)
		f.logger.Info("Initialized SQLite session storage", "db_path", config.SQLiteDBPath)
	case MemorySession:
		res.Persister = session.NewMemoryPersister("", "")
		res.Ready = func(context.Context) error { return nil }
		f.logger.Warn("Using in-memory session storage, sessions will not survive a restart")
	}

	if config.AMQPURL != "" {
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without session events", "error", err)
		} else {
			res.Events = amqp.NewNotifier(client, config.AMQPRoutingKey, notifierBuffer)
			cleanups = append(cleanups, client.Close)
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"routing_key", config.AMQPRoutingKey)
		}
	}

	switch config.ExportBackend {
	case SheetsExport:
		cli, err := gsheet.New(ctx, gsheet.Config{
			SpreadsheetID:   config.GoogleSpreadsheetID,
			ReportSheet:     config.GoogleReportSheetName,
			CredentialsJSON: config.GoogleServiceAccountJSON,
			CredentialsFile: config.GoogleServiceAccountFile,
		})
		if err != nil {
			_ = res.Cleanup()
			return nil, fmt.Errorf("failed to initialize Google Sheets exporter: %w", err)
		}
		res.Exporter = cli
		f.logger.Info("Initialized Google Sheets report export", "spreadsheet_id", config.GoogleSpreadsheetID)
	case MemoryExport:
		res.Exporter = memory.New()
		f.logger.Info("Initialized in-memory report export")
	case NoExport:
		f.logger.Info("Report export disabled")
	}

	return res, nil
}
