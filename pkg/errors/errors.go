// Package errors provides structured error handling for altsheet
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/memtensor/altsheet/pkg/types"
)

// ErrorCode represents specific error codes
type ErrorCode string

const (
	// Validation errors
	ErrCodeValidation      ErrorCode = "VALIDATION_ERROR"
	ErrCodeInvalidInput    ErrorCode = "INVALID_INPUT"
	ErrCodeInvalidDocument ErrorCode = "INVALID_DOCUMENT"
	ErrCodeInvalidFilename ErrorCode = "INVALID_FILENAME"

	// Authentication errors
	ErrCodeAuth ErrorCode = "AUTH_ERROR"

	// Remote service errors
	ErrCodeDriveAPI  ErrorCode = "DRIVE_API_ERROR"
	ErrCodeSheetsAPI ErrorCode = "SHEETS_API_ERROR"
	ErrCodeTimeout   ErrorCode = "TIMEOUT"

	// Configuration errors
	ErrCodeConfigError    ErrorCode = "CONFIG_ERROR"
	ErrCodeConfigNotFound ErrorCode = "CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  ErrorCode = "CONFIG_INVALID"

	// File system errors
	ErrCodeFileError    ErrorCode = "FILE_ERROR"
	ErrCodeFileNotFound ErrorCode = "FILE_NOT_FOUND"

	// System errors
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// AltSheetError represents a structured error in altsheet
type AltSheetError struct {
	Type    types.ErrorType        `json:"type"`
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"-"`
}

// Error implements the error interface
func (e *AltSheetError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s (caused by: %v)", e.Code, e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *AltSheetError) Unwrap() error {
	return e.Cause
}

// WithDetail adds a detail to the error
func (e *AltSheetError) WithDetail(key string, value interface{}) *AltSheetError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// NewAltSheetError creates a new altsheet error
func NewAltSheetError(errType types.ErrorType, code ErrorCode, message string) *AltSheetError {
	return &AltSheetError{
		Type:    errType,
		Code:    code,
		Message: message,
	}
}

// NewAltSheetErrorWithCause creates a new altsheet error with a cause
func NewAltSheetErrorWithCause(errType types.ErrorType, code ErrorCode, message string, cause error) *AltSheetError {
	return &AltSheetError{
		Type:    errType,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Validation error constructors
func NewValidationError(message string) *AltSheetError {
	return NewAltSheetError(types.ErrorTypeValidation, ErrCodeValidation, message)
}

func NewInvalidInputError(message string) *AltSheetError {
	return NewAltSheetError(types.ErrorTypeValidation, ErrCodeInvalidInput, message)
}

// NewInvalidDocumentError reports an XML document that cannot be interpreted
func NewInvalidDocumentError(document string, cause error) *AltSheetError {
	return NewAltSheetErrorWithCause(types.ErrorTypeValidation, ErrCodeInvalidDocument,
		fmt.Sprintf("invalid document: %s", document), cause).WithDetail("document", document)
}

// NewInvalidFilenameError reports an image file that breaks the <stem>_<N>.<ext> convention
func NewInvalidFilenameError(filename, expected string) *AltSheetError {
	return NewAltSheetError(types.ErrorTypeValidation, ErrCodeInvalidFilename,
		fmt.Sprintf("invalid filename %s, expected: %s", filename, expected)).
		WithDetail("filename", filename).WithDetail("expected_format", expected)
}

// Authentication error constructors
func NewAuthError(message string, cause error) *AltSheetError {
	return NewAltSheetErrorWithCause(types.ErrorTypeUnauthorized, ErrCodeAuth, message, cause)
}

// Remote service error constructors
func NewDriveAPIError(operation string, cause error) *AltSheetError {
	return NewAltSheetErrorWithCause(types.ErrorTypeExternal, ErrCodeDriveAPI,
		fmt.Sprintf("drive %s failed", operation), cause).WithDetail("operation", operation)
}

func NewSheetsAPIError(operation string, cause error) *AltSheetError {
	return NewAltSheetErrorWithCause(types.ErrorTypeExternal, ErrCodeSheetsAPI,
		fmt.Sprintf("sheets %s failed", operation), cause).WithDetail("operation", operation)
}

func NewTimeoutError(operation string) *AltSheetError {
	return NewAltSheetError(types.ErrorTypeExternal, ErrCodeTimeout,
		fmt.Sprintf("%s operation timed out", operation)).WithDetail("operation", operation)
}

// Configuration error constructors
func NewConfigError(message string) *AltSheetError {
	return NewAltSheetError(types.ErrorTypeValidation, ErrCodeConfigError, message)
}

func NewConfigNotFoundError(configPath string) *AltSheetError {
	return NewAltSheetError(types.ErrorTypeNotFound, ErrCodeConfigNotFound,
		fmt.Sprintf("configuration file not found: %s", configPath)).WithDetail("config_path", configPath)
}

func NewConfigInvalidError(message string, cause error) *AltSheetError {
	return NewAltSheetErrorWithCause(types.ErrorTypeValidation, ErrCodeConfigInvalid, message, cause)
}

// File system error constructors
func NewFileError(message string, cause error) *AltSheetError {
	return NewAltSheetErrorWithCause(types.ErrorTypeInternal, ErrCodeFileError, message, cause)
}

func NewFileNotFoundError(filePath string) *AltSheetError {
	return NewAltSheetError(types.ErrorTypeNotFound, ErrCodeFileNotFound,
		fmt.Sprintf("file not found: %s", filePath)).WithDetail("file_path", filePath)
}

// IsAltSheetError checks if an error is, or wraps, an AltSheetError
func IsAltSheetError(err error) bool {
	return GetAltSheetError(err) != nil
}

// GetAltSheetError extracts the first AltSheetError in err's chain
func GetAltSheetError(err error) *AltSheetError {
	var target *AltSheetError
	if stderrors.As(err, &target) {
		return target
	}
	return nil
}

// IsCode reports whether err carries the given code anywhere in its chain
func IsCode(err error, code ErrorCode) bool {
	for err != nil {
		var target *AltSheetError
		if !stderrors.As(err, &target) {
			return false
		}
		if target.Code == code {
			return true
		}
		err = target.Cause
	}
	return false
}

// ErrorList represents a list of errors
type ErrorList struct {
	Errors []error `json:"errors"`
}

// Error implements the error interface
func (el *ErrorList) Error() string {
	var messages []string
	for _, err := range el.Errors {
		messages = append(messages, err.Error())
	}
	return strings.Join(messages, "; ")
}

// Unwrap exposes the collected errors to errors.Is and errors.As
func (el *ErrorList) Unwrap() []error {
	return el.Errors
}

// Add adds an error to the list, ignoring nil
func (el *ErrorList) Add(err error) {
	if err == nil {
		return
	}
	el.Errors = append(el.Errors, err)
}

// HasErrors returns true if there are errors
func (el *ErrorList) HasErrors() bool {
	return len(el.Errors) > 0
}

// ToError returns the ErrorList as an error if it has errors, otherwise nil
func (el *ErrorList) ToError() error {
	if el.HasErrors() {
		return el
	}
	return nil
}

// NewErrorList creates a new error list
func NewErrorList() *ErrorList {
	return &ErrorList{
		Errors: make([]error, 0),
	}
}
