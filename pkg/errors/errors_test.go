package errors

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSatsendError_Error tests message rendering with details and cause.
func TestSatsendError_Error(t *testing.T) {
	t.Parallel()

	plain := &SatsendError{Code: "X", Message: "something broke"}
	assert.Equal(t, "something broke", plain.Error())

	withCause := &SatsendError{Code: "X", Message: "something broke", Cause: stderrors.New("io fail")}
	assert.Equal(t, "something broke: io fail", withCause.Error())
}

// TestSatsendError_DetailsSorted tests that details render in key order.
func TestSatsendError_DetailsSorted(t *testing.T) {
	t.Parallel()

	err := &SatsendError{
		Code:    "X",
		Message: "bad request",
		Details: map[string]string{"zeta": "2", "alpha": "1"},
	}
	assert.Equal(t, "bad request (alpha: 1) (zeta: 2)", err.Error())
}

// TestWrap tests context wrapping while preserving code and exit code.
func TestWrap(t *testing.T) {
	t.Parallel()

	wrapped := Wrap(ErrWalletNotFound, "loading wallet %q", "main")
	require.Error(t, wrapped)
	assert.Contains(t, wrapped.Error(), `loading wallet "main"`)

	// Identity survives the wrap
	assert.True(t, Is(wrapped, ErrWalletNotFound))
	assert.Equal(t, "WALLET_NOT_FOUND", Code(wrapped))
	assert.Equal(t, ExitNotFound, ExitCode(wrapped))

	// Wrapping a plain error yields a general structured error
	plain := Wrap(stderrors.New("boom"), "during sync")
	assert.Equal(t, "GENERAL_ERROR", Code(plain))

	assert.NoError(t, Wrap(nil, "ignored"))
}

// TestWithDetails tests attaching key-value context to sentinels.
func TestWithDetails(t *testing.T) {
	t.Parallel()

	err := WithDetails(ErrTxRejected, map[string]string{"status": "400"})
	assert.True(t, Is(err, ErrTxRejected))
	assert.Contains(t, err.Error(), "status: 400")

	assert.NoError(t, WithDetails(nil, nil))
}

// TestWithSuggestion tests attaching a user-facing suggestion.
func TestWithSuggestion(t *testing.T) {
	t.Parallel()

	err := WithSuggestion(ErrInvalidAmount, "amounts are decimal BTC, like 0.001")

	var se *SatsendError
	require.True(t, As(err, &se))
	assert.Equal(t, "amounts are decimal BTC, like 0.001", se.Suggestion)
	assert.True(t, Is(err, ErrInvalidAmount))
}

// TestExitCode tests exit-code mapping for nil, structured, and plain errors.
func TestExitCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ExitSuccess, ExitCode(nil))
	assert.Equal(t, ExitInput, ExitCode(ErrInvalidAddress))
	assert.Equal(t, ExitAuth, ExitCode(ErrDecryptionFailed))
	assert.Equal(t, ExitPermission, ExitCode(ErrInsufficientFunds))
	assert.Equal(t, ExitGeneral, ExitCode(stderrors.New("plain")))
}

// TestIs_MatchesByCode tests that two errors with the same code compare equal.
func TestIs_MatchesByCode(t *testing.T) {
	t.Parallel()

	clone := &SatsendError{Code: "INVALID_AMOUNT", Message: "different text"}
	assert.True(t, Is(clone, ErrInvalidAmount))
	assert.False(t, Is(ErrInvalidAmount, ErrInvalidAddress))
}

// TestNew tests constructing a fresh structured error.
func TestNew(t *testing.T) {
	t.Parallel()

	err := New("CUSTOM_CODE", "custom message")
	assert.Equal(t, "CUSTOM_CODE", err.Code)
	assert.Equal(t, "custom message", err.Message)
	assert.Equal(t, ExitGeneral, err.ExitCode)
}
