package processor

import "github.com/ergosense/datafuse/internal/errors"

const (
	// Configuration Errors
	ErrInvalidConfig      = errors.ErrorCode("processor_invalid_config")
	ErrMissingEngine      = errors.ErrorCode("processor_missing_engine")
	ErrFieldNotConfigured = errors.ErrorCode("processor_field_not_configured")

	// Analysis Errors
	ErrInvalidWindow = errors.ErrorCode("processor_invalid_window")
	ErrNoSources     = errors.ErrorCode("processor_no_sources")

	// Output Errors
	ErrReportWrite = errors.ErrorCode("processor_report_write_failed")
)
