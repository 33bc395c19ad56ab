package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memtensor/altsheet/pkg/types"
)

func TestAltSheetError(t *testing.T) {
	t.Run("NewAltSheetError", func(t *testing.T) {
		err := NewAltSheetError(types.ErrorTypeValidation, ErrCodeValidation, "test error")

		assert.Equal(t, types.ErrorTypeValidation, err.Type)
		assert.Equal(t, ErrCodeValidation, err.Code)
		assert.Equal(t, "test error", err.Message)
		assert.Nil(t, err.Cause)
		assert.Empty(t, err.Details)
	})

	t.Run("Error", func(t *testing.T) {
		err := NewAltSheetError(types.ErrorTypeValidation, ErrCodeValidation, "test error")
		assert.Equal(t, "[VALIDATION_ERROR] validation: test error", err.Error())

		cause := errors.New("underlying error")
		errWithCause := NewAltSheetErrorWithCause(types.ErrorTypeInternal, ErrCodeInternal, "wrapped error", cause)
		assert.Equal(t, "[INTERNAL_ERROR] internal: wrapped error (caused by: underlying error)", errWithCause.Error())
	})

	t.Run("Unwrap", func(t *testing.T) {
		cause := errors.New("underlying error")
		err := NewAltSheetErrorWithCause(types.ErrorTypeInternal, ErrCodeInternal, "wrapped error", cause)
		assert.Equal(t, cause, err.Unwrap())
		assert.True(t, errors.Is(err, cause))

		assert.Nil(t, NewValidationError("x").Unwrap())
	})

	t.Run("WithDetail", func(t *testing.T) {
		err := NewValidationError("bad")
		result := err.WithDetail("field", "xml_dir")
		assert.Same(t, err, result)
		assert.Equal(t, "xml_dir", err.Details["field"])
	})
}

func TestDomainConstructors(t *testing.T) {
	t.Run("NewInvalidDocumentError", func(t *testing.T) {
		cause := errors.New("XML syntax error on line 3")
		err := NewInvalidDocumentError("chapter1.xml", cause)
		assert.Equal(t, ErrCodeInvalidDocument, err.Code)
		assert.Equal(t, types.ErrorTypeValidation, err.Type)
		assert.Equal(t, "chapter1.xml", err.Details["document"])
		assert.ErrorIs(t, err, cause)
	})

	t.Run("NewInvalidFilenameError", func(t *testing.T) {
		err := NewInvalidFilenameError("chapter1.jpg", "<stem>_<N>.<ext>")
		assert.Equal(t, ErrCodeInvalidFilename, err.Code)
		assert.Contains(t, err.Message, "chapter1.jpg")
		assert.Equal(t, "<stem>_<N>.<ext>", err.Details["expected_format"])
	})

	t.Run("Remote service errors", func(t *testing.T) {
		cause := errors.New("HTTP 403")
		drive := NewDriveAPIError("create folder", cause)
		assert.Equal(t, ErrCodeDriveAPI, drive.Code)
		assert.Equal(t, types.ErrorTypeExternal, drive.Type)
		assert.Equal(t, "create folder", drive.Details["operation"])

		sheets := NewSheetsAPIError("update values", cause)
		assert.Equal(t, ErrCodeSheetsAPI, sheets.Code)
		assert.Contains(t, sheets.Error(), "HTTP 403")

		timeout := NewTimeoutError("upload")
		assert.Equal(t, ErrCodeTimeout, timeout.Code)
	})

	t.Run("Config and file errors", func(t *testing.T) {
		assert.Equal(t, ErrCodeConfigNotFound, NewConfigNotFoundError("/x.yaml").Code)
		assert.Equal(t, types.ErrorTypeNotFound, NewFileNotFoundError("/x").Type)
		assert.Equal(t, ErrCodeFileError, NewFileError("read", nil).Code)
		assert.Equal(t, ErrCodeAuth, NewAuthError("no token", nil).Code)
	})
}

func TestErrorChains(t *testing.T) {
	t.Run("GetAltSheetError through fmt wrapping", func(t *testing.T) {
		base := NewInvalidFilenameError("a.jpg", "<stem>_<N>.<ext>")
		wrapped := fmt.Errorf("matching images: %w", base)

		assert.True(t, IsAltSheetError(wrapped))
		assert.Same(t, base, GetAltSheetError(wrapped))
		assert.False(t, IsAltSheetError(errors.New("plain")))
		assert.Nil(t, GetAltSheetError(nil))
	})

	t.Run("IsCode walks nested causes", func(t *testing.T) {
		inner := NewTimeoutError("upload")
		outer := NewDriveAPIError("upload", inner)

		assert.True(t, IsCode(outer, ErrCodeDriveAPI))
		assert.True(t, IsCode(outer, ErrCodeTimeout))
		assert.False(t, IsCode(outer, ErrCodeSheetsAPI))
		assert.False(t, IsCode(errors.New("plain"), ErrCodeTimeout))
	})
}

func TestErrorList(t *testing.T) {
	el := NewErrorList()
	assert.False(t, el.HasErrors())
	assert.NoError(t, el.ToError())

	el.Add(nil)
	assert.False(t, el.HasErrors())

	first := NewValidationError("first")
	el.Add(first)
	el.Add(errors.New("second"))

	require.True(t, el.HasErrors())
	err := el.ToError()
	require.Error(t, err)
	assert.Equal(t, "[VALIDATION_ERROR] validation: first; second", err.Error())
	assert.ErrorIs(t, err, first)
}
