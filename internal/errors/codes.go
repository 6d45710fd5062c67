package errors

// Common error codes
const (
	// System errors
	ErrInternal        ErrorCode = "internal_error"
	ErrInvalidArgument ErrorCode = "invalid_argument"
	ErrTimeout         ErrorCode = "operation_timeout"

	// Configuration errors
	ErrInvalidConfig ErrorCode = "invalid_configuration"
	ErrMissingConfig ErrorCode = "missing_configuration"
	ErrReadConfig    ErrorCode = "read_config_failed"

	// Store errors
	ErrConnection         ErrorCode = "connection_failed"
	ErrIntegrityViolation ErrorCode = "integrity_violation"
	ErrNotFound           ErrorCode = "resource_not_found"
	ErrQueryFailed        ErrorCode = "query_failed"

	// Batch errors
	ErrPartialBatch ErrorCode = "partial_batch_failure"
)

var errorMessages = map[ErrorCode]string{
	ErrInternal:           "Internal error occurred",
	ErrInvalidArgument:    "Invalid argument provided",
	ErrTimeout:            "Operation timed out",
	ErrInvalidConfig:      "Invalid configuration",
	ErrMissingConfig:      "Missing configuration",
	ErrReadConfig:         "Failed to read configuration",
	ErrConnection:         "Store unreachable",
	ErrIntegrityViolation: "Record already exists",
	ErrNotFound:           "Resource not found",
	ErrQueryFailed:        "Query failed",
	ErrPartialBatch:       "One or more items in the batch failed",
}

// GetErrorMessage returns the message for a given error code
func GetErrorMessage(code ErrorCode) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}

	return string(code)
}
