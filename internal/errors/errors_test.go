package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSemantiqError_Unwrap_PreservesOriginalError(t *testing.T) {
	// Given: an original error
	originalErr := errors.New("original error")

	// When: wrapping with SemantiqError
	wrapped := New(ErrCodeFileNotFound, "file not found: test.txt", originalErr)

	// Then: unwrapping returns original error
	require.NotNil(t, wrapped)
	assert.Equal(t, originalErr, errors.Unwrap(wrapped))
	assert.True(t, errors.Is(wrapped, originalErr))
}

func TestSemantiqError_Error_ReturnsFormattedMessage(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		message  string
		expected string
	}{
		{
			name:     "not found error",
			code:     ErrCodeFileNotFound,
			message:  "file not found",
			expected: "[ERR_101_FILE_NOT_FOUND] file not found",
		},
		{
			name:     "storage error",
			code:     ErrCodeStorageQuery,
			message:  "query failed",
			expected: "[ERR_402_STORAGE_QUERY] query failed",
		},
		{
			name:     "lock error",
			code:     ErrCodeLockPoisoned,
			message:  "writer lock poisoned",
			expected: "[ERR_501_LOCK_POISONED] writer lock poisoned",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, tt.message, nil)
			assert.Equal(t, tt.expected, err.Error())
		})
	}
}

func TestSemantiqError_Is_MatchesByCode(t *testing.T) {
	err1 := New(ErrCodeFileNotFound, "file A not found", nil)
	err2 := New(ErrCodeFileNotFound, "file B not found", nil)

	assert.True(t, errors.Is(err1, err2))
}

func TestSemantiqError_Is_DoesNotMatchDifferentCodes(t *testing.T) {
	err1 := New(ErrCodeFileNotFound, "file not found", nil)
	err2 := New(ErrCodeSymbolNotFound, "symbol not found", nil)

	assert.False(t, errors.Is(err1, err2))
}

func TestSemantiqError_WithDetails_AddsContext(t *testing.T) {
	err := New(ErrCodeFileNotFound, "file not found", nil)

	err = err.WithDetail("path", "/foo/bar.go")
	err = err.WithDetail("size", "1024")

	assert.Equal(t, "/foo/bar.go", err.Details["path"])
	assert.Equal(t, "1024", err.Details["size"])
}

func TestSemantiqError_WithSuggestion_AddsSuggestion(t *testing.T) {
	err := New(ErrCodeLockUnavailable, "database is locked", nil)

	err = err.WithSuggestion("wait and retry")

	assert.Equal(t, "wait and retry", err.Suggestion)
}

func TestSemantiqError_CategoryFromCode(t *testing.T) {
	tests := []struct {
		code         string
		wantCategory Category
	}{
		{ErrCodeFileNotFound, CategoryNotFound},
		{ErrCodeSymbolNotFound, CategoryNotFound},
		{ErrCodeFilePermission, CategoryIoFailure},
		{ErrCodeDiskFull, CategoryIoFailure},
		{ErrCodeTreeSitterError, CategoryParseFailure},
		{ErrCodeUnsupportedLang, CategoryParseFailure},
		{ErrCodeStorageQuery, CategoryStorageFailure},
		{ErrCodeSchemaMismatch, CategoryStorageFailure},
		{ErrCodeLockPoisoned, CategoryLockPoisoned},
		{ErrCodeLockUnavailable, CategoryLockPoisoned},
		{ErrCodeEmbeddingFailed, CategoryEmbeddingFailure},
		{ErrCodeDimensionMismatch, CategoryEmbeddingFailure},
		{ErrCodeCorruptMetadata, CategoryCorruptedMetadata},
		{ErrCodeVersionMismatch, CategoryCorruptedMetadata},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := New(tt.code, "test message", nil)
			assert.Equal(t, tt.wantCategory, err.Category)
		})
	}
}

func TestSemantiqError_SeverityFromCode(t *testing.T) {
	tests := []struct {
		code         string
		wantSeverity Severity
	}{
		{ErrCodeCorruptMetadata, SeverityFatal},
		{ErrCodeDiskFull, SeverityFatal},
		{ErrCodeLockPoisoned, SeverityFatal},
		{ErrCodeFileNotFound, SeverityError},
		{ErrCodeLockUnavailable, SeverityWarning}, // retryable, so warning
		{ErrCodeParseTimeout, SeverityWarning},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := New(tt.code, "test message", nil)
			assert.Equal(t, tt.wantSeverity, err.Severity)
		})
	}
}

func TestSemantiqError_RetryableFromCode(t *testing.T) {
	tests := []struct {
		code          string
		wantRetryable bool
	}{
		{ErrCodeLockUnavailable, true},
		{ErrCodeParseTimeout, true},
		{ErrCodeWatchFailed, true},
		{ErrCodeFileNotFound, false},
		{ErrCodeLockPoisoned, false},
		{ErrCodeCorruptMetadata, false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := New(tt.code, "test message", nil)
			assert.Equal(t, tt.wantRetryable, err.Retryable)
		})
	}
}

func TestWrap_CreatesSemantiqErrorFromError(t *testing.T) {
	originalErr := errors.New("something went wrong")

	wrapped := Wrap(ErrCodeStorageQuery, originalErr)

	require.NotNil(t, wrapped)
	assert.Equal(t, ErrCodeStorageQuery, wrapped.Code)
	assert.Equal(t, "something went wrong", wrapped.Message)
	assert.Equal(t, originalErr, wrapped.Cause)
}

func TestNotFoundError_CreatesNotFoundCategoryError(t *testing.T) {
	err := NotFoundError("symbol 'Foo' not found", nil)

	assert.Equal(t, CategoryNotFound, err.Category)
}

func TestIOError_CreatesIoFailureCategoryError(t *testing.T) {
	err := IOError("cannot read file", nil)

	assert.Equal(t, CategoryIoFailure, err.Category)
}

func TestParseError_CreatesParseFailureCategoryError(t *testing.T) {
	err := ParseError("tree-sitter parse failed", nil)

	assert.Equal(t, CategoryParseFailure, err.Category)
}

func TestStorageError_CreatesStorageFailureCategoryError(t *testing.T) {
	err := StorageError("sqlite query failed", nil)

	assert.Equal(t, CategoryStorageFailure, err.Category)
}

func TestLockError_CreatesRetryableError(t *testing.T) {
	err := LockError("database is locked", nil)

	assert.Equal(t, CategoryLockPoisoned, err.Category)
	assert.True(t, err.Retryable)
}

func TestEmbeddingError_CreatesEmbeddingFailureCategoryError(t *testing.T) {
	err := EmbeddingError("embedding model unavailable", nil)

	assert.Equal(t, CategoryEmbeddingFailure, err.Category)
}

func TestCorruptedMetadataError_CreatesCorruptedMetadataCategoryError(t *testing.T) {
	err := CorruptedMetadataError("schema version mismatch", nil)

	assert.Equal(t, CategoryCorruptedMetadata, err.Category)
}

func TestIsRetryable_ChecksRetryableFlag(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "retryable SemantiqError",
			err:      New(ErrCodeLockUnavailable, "locked", nil),
			expected: true,
		},
		{
			name:     "non-retryable SemantiqError",
			err:      New(ErrCodeFileNotFound, "not found", nil),
			expected: false,
		},
		{
			name:     "wrapped retryable error",
			err:      Wrap(ErrCodeLockUnavailable, errors.New("wrapped")),
			expected: true,
		},
		{
			name:     "standard error",
			err:      errors.New("standard error"),
			expected: false,
		},
		{
			name:     "nil error",
			err:      nil,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsRetryable(tt.err))
		})
	}
}

func TestIsFatal_ChecksFatalSeverity(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "fatal error",
			err:      New(ErrCodeCorruptMetadata, "metadata corrupt", nil),
			expected: true,
		},
		{
			name:     "disk full error",
			err:      New(ErrCodeDiskFull, "no space left", nil),
			expected: true,
		},
		{
			name:     "non-fatal error",
			err:      New(ErrCodeFileNotFound, "not found", nil),
			expected: false,
		},
		{
			name:     "standard error",
			err:      errors.New("standard error"),
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsFatal(tt.err))
		})
	}
}
