package errors

import (
	"errors"
	"fmt"
)

// Common error types for categorization and handling

var (
	// ErrConfiguration indicates missing or invalid trigger/provider settings.
	// It is fatal at startup.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrProvider indicates a generation call to the language model failed
	ErrProvider = errors.New("llm provider call failed")

	// ErrSessionNotFound indicates there is no walkthrough for the conversation key
	ErrSessionNotFound = errors.New("conversation session not found")

	// ErrSessionExpired indicates the walkthrough sat idle past its timeout
	ErrSessionExpired = errors.New("conversation session expired")

	// ErrPartialLoad indicates a document source could not be read
	ErrPartialLoad = errors.New("document source could not be loaded")

	// ErrNotFound indicates a requested resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates invalid user input
	ErrInvalidInput = errors.New("invalid input")

	// ErrRateLimited indicates the caller exceeded its request budget
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrServiceUnavailable indicates a required service is unavailable
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrDatabaseOperation indicates a database operation failed
	ErrDatabaseOperation = errors.New("database operation failed")
)

// WrapError wraps an error with context message and stack
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// WrapErrorf wraps an error with formatted context message
func WrapErrorf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// Join combines a sentinel with the underlying cause so both match errors.Is.
func Join(sentinel, cause error) error {
	if cause == nil {
		return sentinel
	}
	return fmt.Errorf("%w: %w", sentinel, cause)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// IsNotFound checks if error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrSessionNotFound)
}

// IsInvalidInput checks if error is an invalid input error
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsServiceUnavailable checks if error is a service unavailable error
func IsServiceUnavailable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable)
}

// IsConfiguration checks if error is a configuration error
func IsConfiguration(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// IsSessionExpired checks if error is an expired walkthrough
func IsSessionExpired(err error) bool {
	return errors.Is(err, ErrSessionExpired)
}

// IsProvider checks if error came from a generation call
func IsProvider(err error) bool {
	return errors.Is(err, ErrProvider)
}
