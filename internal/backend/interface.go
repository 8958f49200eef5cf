package backend

import (
	"context"

	"budgettracker/internal/amqp"
	"budgettracker/internal/session"
	"budgettracker/internal/sheets"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult holds the infrastructure the front end runs on.
type BackendResult struct {
	// Persister stores the session durably.
	Persister session.Persister

	// Exporter writes reports out; nil when export is disabled.
	Exporter sheets.ReportExporter

	// Events publishes session changes; nil without AMQP.
	Events *amqp.Notifier

	// Ready reports whether the session storage is usable.
	Ready func(ctx context.Context) error

	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend creates a backend instance based on the provided config
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	SessionBackend SessionBackendType
	SQLiteDBPath   string

	// AMQP is optional; an empty URL disables session events.
	AMQPURL        string
	AMQPExchange   string
	AMQPRoutingKey string

	ExportBackend            ExportBackendType
	GoogleSpreadsheetID      string
	GoogleReportSheetName    string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
}

// SessionBackendType selects where the session is persisted.
type SessionBackendType string

const (
	SQLiteSession SessionBackendType = "sqlite"
	MemorySession SessionBackendType = "memory"
)

// String implements fmt.Stringer
func (bt SessionBackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt SessionBackendType) IsValid() bool {
	switch bt {
	case SQLiteSession, MemorySession:
		return true
	default:
		return false
	}
}

// ExportBackendType selects where reports are exported.
type ExportBackendType string

const (
	NoExport     ExportBackendType = "none"
	MemoryExport ExportBackendType = "memory"
	SheetsExport ExportBackendType = "sheets"
)

func (bt ExportBackendType) String() string {
	return string(bt)
}

func (bt ExportBackendType) IsValid() bool {
	switch bt {
	case NoExport, MemoryExport, SheetsExport:
		return true
	default:
		return false
	}
}
