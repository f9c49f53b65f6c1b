// Package errors provides structured error handling for Argus.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: IO and cache errors
//   - 3XX: Extraction and OCR errors
//   - 4XX: Validation errors
//   - 5XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryIO indicates file, disk and cache errors.
	CategoryIO Category = "IO"
	// CategoryExtraction indicates content extraction and OCR errors.
	CategoryExtraction Category = "EXTRACTION"
	// CategoryValidation indicates input validation errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates unrecoverable error, must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates operation failed but can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
	// SeverityInfo indicates informational only.
	SeverityInfo Severity = "INFO"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"
	ErrCodeConfigWrite    = "ERR_103_CONFIG_WRITE"

	// IO errors (200-299)
	ErrCodeFileNotFound   = "ERR_201_FILE_NOT_FOUND"
	ErrCodeFilePermission = "ERR_202_FILE_PERMISSION"
	ErrCodeCacheLoad      = "ERR_203_CACHE_LOAD"
	ErrCodeCacheSave      = "ERR_204_CACHE_SAVE"
	ErrCodeCacheVersion   = "ERR_205_CACHE_VERSION"
	ErrCodeHistoryStore   = "ERR_206_HISTORY_STORE"
	ErrCodeOpenFailed     = "ERR_207_OPEN_FAILED"

	// Extraction errors (300-399)
	ErrCodeExtractionFailed = "ERR_301_EXTRACTION_FAILED"
	ErrCodeOCRUnavailable   = "ERR_302_OCR_UNAVAILABLE"
	ErrCodeOCRFailed        = "ERR_303_OCR_FAILED"

	// Validation errors (400-499)
	ErrCodeInvalidInput   = "ERR_401_INVALID_INPUT"
	ErrCodePatternEmpty   = "ERR_402_PATTERN_EMPTY"
	ErrCodeInvalidPattern = "ERR_403_INVALID_PATTERN"
	ErrCodeInvalidFormat  = "ERR_404_INVALID_FORMAT"
	ErrCodeInvalidLimit   = "ERR_405_INVALID_LIMIT"
	ErrCodeInvalidPath    = "ERR_406_INVALID_PATH"

	// Internal errors (500-599)
	ErrCodeInternal     = "ERR_501_INTERNAL"
	ErrCodeSearchFailed = "ERR_502_SEARCH_FAILED"
	ErrCodeServeFailed  = "ERR_503_SERVE_FAILED"
	ErrCodeCheckFailed  = "ERR_504_CHECK_FAILED"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	// "101" from "ERR_101_CONFIG_NOT_FOUND"
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryIO
	case '3':
		return CategoryExtraction
	case '4':
		return CategoryValidation
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeInvalidPattern, ErrCodeInvalidPath, ErrCodePatternEmpty, ErrCodeConfigInvalid:
		return SeverityFatal
	case ErrCodeCacheLoad, ErrCodeCacheSave, ErrCodeCacheVersion, ErrCodeHistoryStore, ErrCodeOCRUnavailable:
		return SeverityWarning
	}
	return SeverityError
}
