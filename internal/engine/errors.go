package engine

import "github.com/ergosense/datafuse/internal/errors"

const (
	// Configuration Errors
	ErrInvalidConfig = errors.ErrorCode("engine_invalid_config")
	ErrInvalidDBPath = errors.ErrorCode("engine_invalid_db_path")

	// Ingestion Errors
	ErrMissingSource = errors.ErrorCode("engine_missing_source")
	ErrMissingType   = errors.ErrorCode("engine_missing_type")

	// Export/Import Errors
	ErrExportFailed    = errors.ErrorCode("engine_export_failed")
	ErrImportFailed    = errors.ErrorCode("engine_import_failed")
	ErrMalformedRecord = errors.ErrorCode("engine_malformed_record")

	// Archive Errors
	ErrArchiveDisabled   = errors.ErrorCode("engine_archive_disabled")
	ErrStorageInit       = errors.ErrorCode("engine_storage_init_failed")
	ErrStorageAccess     = errors.ErrorCode("engine_storage_access_failed")
	ErrStorageClose      = errors.ErrorCode("engine_storage_close_failed")
	ErrSchemaInitFailed  = errors.ErrorCode("engine_schema_init_failed")
	ErrSchemaMismatch    = errors.ErrorCode("engine_schema_version_mismatch")
	ErrTransactionFailed = errors.ErrorCode("engine_transaction_failed")

	// Operation Errors
	ErrOperationTimeout = errors.ErrorCode("engine_operation_timeout")
	ErrServiceShutdown  = errors.ErrorCode("engine_service_shutdown_failed")
)
