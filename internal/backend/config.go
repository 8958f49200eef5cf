package backend

import (
	"fmt"

	"budgettracker/internal/config"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	sessionType := SessionBackendType(appConfig.SessionBackend)
	if !sessionType.IsValid() {
		return Config{}, fmt.Errorf("invalid session backend in config: %s", appConfig.SessionBackend)
	}
	exportType := ExportBackendType(appConfig.ExportBackend)
	if exportType == "" {
		exportType = NoExport
	}
	if !exportType.IsValid() {
		return Config{}, fmt.Errorf("invalid export backend in config: %s", appConfig.ExportBackend)
	}

	return Config{
		SessionBackend: sessionType,
		SQLiteDBPath:   appConfig.SQLiteDBPath,

		AMQPURL:        appConfig.AMQPURL,
		AMQPExchange:   appConfig.AMQPExchange,
		AMQPRoutingKey: appConfig.AMQPRoutingKey,

		ExportBackend:            exportType,
		GoogleSpreadsheetID:      appConfig.GoogleSpreadsheetID,
		GoogleReportSheetName:    appConfig.GoogleReportSheetName,
		GoogleServiceAccountJSON: appConfig.GoogleServiceAccountJSON,
		GoogleServiceAccountFile: appConfig.GoogleServiceAccountFile,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.SessionBackend.IsValid() {
		return fmt.Errorf("invalid session backend: %s", c.SessionBackend)
	}
	if !c.ExportBackend.IsValid() {
		return fmt.Errorf("invalid export backend: %s", c.ExportBackend)
	}

	if c.SessionBackend == SQLiteSession && c.SQLiteDBPath == "" {
		return fmt.Errorf("SQLite database path is required for sqlite session backend")
	}

	if c.ExportBackend == SheetsExport && c.GoogleSpreadsheetID == "" {
		return fmt.Errorf("Google Spreadsheet ID is required for sheets export")
	}

	return nil
}
