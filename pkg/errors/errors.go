// Package errors provides structured error handling for satsend.
// It defines sentinel errors, exit codes, and helpers for adding
// context, details, and suggestions to errors.
//
//nolint:revive // Package name intentionally shadows stdlib for domain-specific error handling
package errors

import (
	"errors"
	"fmt"
	"sort"
)

// Exit codes.
const (
	ExitSuccess    = 0 // Successful execution
	ExitGeneral    = 1 // General/unknown error
	ExitInput      = 2 // Invalid input
	ExitAuth       = 3 // Authentication failed
	ExitNotFound   = 4 // Resource not found
	ExitPermission = 5 // Permission denied or insufficient funds
)

// SatsendError is the structured error type for satsend.
type SatsendError struct {
	Code       string            // Machine-readable error code
	Message    string            // Human-readable message
	Details    map[string]string // Additional context
	Suggestion string            // Actionable suggestion for user
	Cause      error             // Underlying error
	ExitCode   int               // Exit code for CLI
}

func (e *SatsendError) Error() string {
	msg := e.Message

	// Include details in error message (sorted for deterministic output)
	if len(e.Details) > 0 {
		keys := make([]string, 0, len(e.Details))
		for k := range e.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			msg = fmt.Sprintf("%s (%s: %s)", msg, k, e.Details[k])
		}
	}

	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *SatsendError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is for SatsendError.
func (e *SatsendError) Is(target error) bool {
	var t *SatsendError
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// Sentinel errors.
var (
	ErrGeneral = &SatsendError{
		Code:     "GENERAL_ERROR",
		Message:  "an error occurred",
		ExitCode: ExitGeneral,
	}

	ErrInvalidInput = &SatsendError{
		Code:     "INVALID_INPUT",
		Message:  "invalid input",
		ExitCode: ExitInput,
	}

	ErrAuthentication = &SatsendError{
		Code:     "AUTHENTICATION_FAILED",
		Message:  "authentication failed",
		ExitCode: ExitAuth,
	}

	ErrNotFound = &SatsendError{
		Code:     "NOT_FOUND",
		Message:  "resource not found",
		ExitCode: ExitNotFound,
	}

	ErrInsufficientFunds = &SatsendError{
		Code:     "INSUFFICIENT_FUNDS",
		Message:  "insufficient funds for transaction",
		ExitCode: ExitPermission,
	}

	// Wallet-specific errors.
	ErrWalletNotFound = &SatsendError{
		Code:     "WALLET_NOT_FOUND",
		Message:  "wallet not found",
		ExitCode: ExitNotFound,
	}

	ErrWalletExists = &SatsendError{
		Code:     "WALLET_EXISTS",
		Message:  "wallet already exists",
		ExitCode: ExitInput,
	}

	ErrInvalidMnemonic = &SatsendError{
		Code:     "INVALID_MNEMONIC",
		Message:  "invalid mnemonic phrase",
		ExitCode: ExitInput,
	}

	ErrDecryptionFailed = &SatsendError{
		Code:     "DECRYPTION_FAILED",
		Message:  "decryption failed - wrong password or corrupted file",
		ExitCode: ExitAuth,
	}

	ErrSecondPasswordRequired = &SatsendError{
		Code:     "SECOND_PASSWORD_REQUIRED",
		Message:  "wallet is double-encrypted and requires the second password",
		ExitCode: ExitAuth,
	}

	// Account-specific errors.
	ErrAccountNotFound = &SatsendError{
		Code:     "ACCOUNT_NOT_FOUND",
		Message:  "account not found",
		ExitCode: ExitNotFound,
	}

	ErrAccountArchived = &SatsendError{
		Code:     "ACCOUNT_ARCHIVED",
		Message:  "account is archived",
		ExitCode: ExitInput,
	}

	ErrAccountNotArchived = &SatsendError{
		Code:     "ACCOUNT_NOT_ARCHIVED",
		Message:  "account is not archived",
		ExitCode: ExitInput,
	}

	ErrAccountIsDefault = &SatsendError{
		Code:     "ACCOUNT_IS_DEFAULT",
		Message:  "the default account cannot be archived",
		ExitCode: ExitInput,
	}

	ErrImportedAccount = &SatsendError{
		Code:     "IMPORTED_ACCOUNT",
		Message:  "operation not supported for imported accounts",
		ExitCode: ExitInput,
	}

	// Chain-specific errors.
	ErrInvalidAddress = &SatsendError{
		Code:     "INVALID_ADDRESS",
		Message:  "invalid address format",
		ExitCode: ExitInput,
	}

	ErrNetworkError = &SatsendError{
		Code:     "NETWORK_ERROR",
		Message:  "network communication failed",
		ExitCode: ExitGeneral,
	}

	ErrTxRejected = &SatsendError{
		Code:     "TX_REJECTED",
		Message:  "transaction rejected by network",
		ExitCode: ExitGeneral,
	}

	ErrExecutionFailed = &SatsendError{
		Code:     "EXECUTION_FAILED",
		Message:  "transaction execution failed",
		ExitCode: ExitGeneral,
	}

	ErrSigningFailed = &SatsendError{
		Code:     "SIGNING_FAILED",
		Message:  "transaction signing failed",
		ExitCode: ExitGeneral,
	}

	// ErrUTXOInconsistency indicates the balance source and the unspent-output
	// source disagree: a positive balance with no unspent outputs. This is an
	// internal consistency failure, distinct from ordinary insufficient funds.
	ErrUTXOInconsistency = &SatsendError{
		Code:     "UTXO_INCONSISTENCY",
		Message:  "no unspent outputs found for non-zero balance",
		ExitCode: ExitGeneral,
	}

	ErrPendingOrdersLimit = &SatsendError{
		Code:     "PENDING_ORDERS_LIMIT_REACHED",
		Message:  "pending orders limit reached",
		ExitCode: ExitPermission,
	}

	ErrNoUTXOs = &SatsendError{
		Code:     "NO_UTXOS",
		Message:  "no UTXOs available",
		ExitCode: ExitInput,
	}

	// Transaction-specific errors.
	ErrAmountRequired = &SatsendError{
		Code:     "AMOUNT_REQUIRED",
		Message:  "amount is required",
		ExitCode: ExitInput,
	}

	ErrInvalidAmount = &SatsendError{
		Code:     "INVALID_AMOUNT",
		Message:  "invalid amount format",
		ExitCode: ExitInput,
	}

	ErrInvalidFeeLevel = &SatsendError{
		Code:     "INVALID_FEE_LEVEL",
		Message:  "invalid fee level",
		ExitCode: ExitInput,
	}

	// Config-specific errors.
	ErrConfigNotFound = &SatsendError{
		Code:     "CONFIG_NOT_FOUND",
		Message:  "configuration file not found",
		ExitCode: ExitNotFound,
	}

	ErrConfigInvalid = &SatsendError{
		Code:     "CONFIG_INVALID",
		Message:  "configuration file is invalid",
		ExitCode: ExitInput,
	}

	ErrUnknownConfigKey = &SatsendError{
		Code:     "UNKNOWN_CONFIG_KEY",
		Message:  "unknown config key",
		ExitCode: ExitInput,
	}
)

// New creates a new SatsendError with the given code and message.
func New(code, message string) *SatsendError {
	return &SatsendError{
		Code:     code,
		Message:  message,
		ExitCode: ExitGeneral,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}

	msg := fmt.Sprintf(format, args...)

	var se *SatsendError
	if errors.As(err, &se) {
		return &SatsendError{
			Code:       se.Code,
			Message:    fmt.Sprintf("%s: %s", msg, se.Message),
			Details:    se.Details,
			Suggestion: se.Suggestion,
			Cause:      err,
			ExitCode:   se.ExitCode,
		}
	}

	return &SatsendError{
		Code:     "GENERAL_ERROR",
		Message:  msg,
		Cause:    err,
		ExitCode: ExitGeneral,
	}
}

// WithDetails adds details to an error.
func WithDetails(err error, details map[string]string) error {
	if err == nil {
		return nil
	}

	var se *SatsendError
	if errors.As(err, &se) {
		return &SatsendError{
			Code:       se.Code,
			Message:    se.Message,
			Details:    details,
			Suggestion: se.Suggestion,
			Cause:      se.Cause,
			ExitCode:   se.ExitCode,
		}
	}

	return &SatsendError{
		Code:     "GENERAL_ERROR",
		Message:  err.Error(),
		Details:  details,
		Cause:    err,
		ExitCode: ExitGeneral,
	}
}

// WithSuggestion adds a suggestion to an error.
func WithSuggestion(err error, suggestion string) error {
	if err == nil {
		return nil
	}

	var se *SatsendError
	if errors.As(err, &se) {
		return &SatsendError{
			Code:       se.Code,
			Message:    se.Message,
			Details:    se.Details,
			Suggestion: suggestion,
			Cause:      se.Cause,
			ExitCode:   se.ExitCode,
		}
	}

	return &SatsendError{
		Code:       "GENERAL_ERROR",
		Message:    err.Error(),
		Suggestion: suggestion,
		Cause:      err,
		ExitCode:   ExitGeneral,
	}
}

// ExitCode returns the appropriate exit code for an error.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var se *SatsendError
	if errors.As(err, &se) {
		return se.ExitCode
	}

	return ExitGeneral
}

// Code returns the error code for an error.
func Code(err error) string {
	var se *SatsendError
	if errors.As(err, &se) {
		return se.Code
	}
	return "GENERAL_ERROR"
}

// Is wraps errors.Is for convenience.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience.
func As(err error, target any) bool {
	return errors.As(err, target)
}
