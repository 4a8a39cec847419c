package errors

// Common error codes
const (
	// System errors
	ErrInternal        ErrorCode = "internal_error"
	ErrInvalidArgument ErrorCode = "invalid_argument"
	ErrNotImplemented  ErrorCode = "not_implemented"
	ErrUnavailable     ErrorCode = "service_unavailable"

	// Configuration errors
	ErrInvalidConfig ErrorCode = "invalid_configuration"
	ErrMissingConfig ErrorCode = "missing_configuration"
	ErrBindFlags     ErrorCode = "bind_flags_failed"
	ErrReadConfig    ErrorCode = "read_config_failed"

	// Logging errors
	ErrInvalidLogLevel ErrorCode = "invalid_log_level"

	// Initialization errors
	ErrInitFailed     ErrorCode = "initialization_failed"
	ErrShutdownFailed ErrorCode = "shutdown_failed"

	// Validation errors
	ErrValidation    ErrorCode = "validation_failed"
	ErrMissingSource ErrorCode = "missing_source"
	ErrMissingType   ErrorCode = "missing_type"

	// Persistence errors
	ErrPersistence     ErrorCode = "persistence_failed"
	ErrExportFailed    ErrorCode = "export_failed"
	ErrImportFailed    ErrorCode = "import_failed"
	ErrStorageInit     ErrorCode = "storage_init_failed"
	ErrStorageAccess   ErrorCode = "storage_access_failed"
	ErrStorageClose    ErrorCode = "storage_close_failed"

	// Operation errors
	ErrOperationFailed  ErrorCode = "operation_failed"
	ErrTimeout          ErrorCode = "operation_timeout"
	ErrInvalidOperation ErrorCode = "invalid_operation"
)

// Common error messages
var errorMessages = map[ErrorCode]string{
	ErrInternal:         "Internal error occurred",
	ErrInvalidArgument:  "Invalid argument provided",
	ErrNotImplemented:   "Operation not implemented",
	ErrUnavailable:      "Service unavailable",
	ErrInvalidConfig:    "Invalid configuration",
	ErrMissingConfig:    "Missing configuration",
	ErrBindFlags:        "Failed to bind flags",
	ErrReadConfig:       "Failed to read configuration",
	ErrInvalidLogLevel:  "Invalid log level",
	ErrInitFailed:       "Initialization failed",
	ErrShutdownFailed:   "Shutdown failed",
	ErrValidation:       "Validation failed",
	ErrMissingSource:    "Data point source must not be empty",
	ErrMissingType:      "Data point type must not be empty",
	ErrPersistence:      "Persistence operation failed",
	ErrExportFailed:     "Failed to export data points",
	ErrImportFailed:     "Failed to import data points",
	ErrStorageInit:      "Failed to initialize storage",
	ErrStorageAccess:    "Failed to access storage",
	ErrStorageClose:     "Failed to close storage",
	ErrOperationFailed:  "Operation failed",
	ErrTimeout:          "Operation timed out",
	ErrInvalidOperation: "Invalid operation",
}

// GetErrorMessage returns the message for a given error code
func GetErrorMessage(code ErrorCode) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}

	return string(code)
}
