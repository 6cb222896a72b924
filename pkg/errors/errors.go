// Package errors provides custom error types for the rulesync system.
// These errors enable programmatic error checking at the validation
// boundary, where every fatal condition must be detected before any
// filesystem mutation happens.
package errors

import (
	"errors"
	"fmt"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Common sentinel errors for the rulesync system.
var (
	// ErrNotInitialized indicates the manifest is absent and init must run first.
	ErrNotInitialized = errors.New("not initialized")

	// ErrUnknownConsumer indicates a consumer id absent from the registry.
	ErrUnknownConsumer = errors.New("unknown consumer")

	// ErrUnsupportedKey indicates a set operation on a non-allow-listed key.
	ErrUnsupportedKey = errors.New("unsupported key")

	// ErrNotFound indicates that a requested resource was not found.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates that a resource already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates that provided input was invalid.
	ErrInvalidInput = errors.New("invalid input")
)

// NotFoundError represents an error when a resource is not found.
type NotFoundError struct {
	Resource string
	ID       string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.ID)
}

// Is implements errors.Is support.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// AlreadyExistsError represents an attempt to create a resource that exists.
type AlreadyExistsError struct {
	Resource string
	ID       string
}

// Error implements the error interface.
func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s %q already exists", e.Resource, e.ID)
}

// Is implements errors.Is support.
func (e *AlreadyExistsError) Is(target error) bool {
	return target == ErrAlreadyExists
}

// NewAlreadyExistsError creates a new AlreadyExistsError.
func NewAlreadyExistsError(resource, id string) *AlreadyExistsError {
	return &AlreadyExistsError{Resource: resource, ID: id}
}

// UnknownConsumerError names a consumer id that is not in the registry.
type UnknownConsumerError struct {
	Consumer string
	Known    []string
}

// Error implements the error interface.
func (e *UnknownConsumerError) Error() string {
	if len(e.Known) > 0 {
		return fmt.Sprintf("unknown consumer %q (known: %v)", e.Consumer, e.Known)
	}
	return fmt.Sprintf("unknown consumer %q", e.Consumer)
}

// Is implements errors.Is support.
func (e *UnknownConsumerError) Is(target error) bool {
	return target == ErrUnknownConsumer
}

// NewUnknownConsumerError creates a new UnknownConsumerError.
func NewUnknownConsumerError(consumer string, known []string) *UnknownConsumerError {
	return &UnknownConsumerError{Consumer: consumer, Known: known}
}

// UnsupportedKeyError names a manifest key outside the settable allow-list.
type UnsupportedKeyError struct {
	Key       string
	Supported []string
}

// Error implements the error interface.
func (e *UnsupportedKeyError) Error() string {
	if len(e.Supported) > 0 {
		return fmt.Sprintf("unsupported key %q (supported: %v)", e.Key, e.Supported)
	}
	return fmt.Sprintf("unsupported key %q", e.Key)
}

// Is implements errors.Is support.
func (e *UnsupportedKeyError) Is(target error) bool {
	return target == ErrUnsupportedKey
}

// NewUnsupportedKeyError creates a new UnsupportedKeyError.
func NewUnsupportedKeyError(key string, supported []string) *UnsupportedKeyError {
	return &UnsupportedKeyError{Key: key, Supported: supported}
}

// SyncError represents a failure while generating output for one consumer.
// One consumer failing must not block the others, so orchestrators collect
// SyncErrors instead of aborting mid-phase.
type SyncError struct {
	Consumer string
	Err      error
}

// Error implements the error interface.
func (e *SyncError) Error() string {
	return fmt.Sprintf("sync error for consumer %s: %v", e.Consumer, e.Err)
}

// Unwrap implements errors.Unwrap.
func (e *SyncError) Unwrap() error {
	return e.Err
}

// NewSyncError creates a new SyncError.
func NewSyncError(consumer string, err error) *SyncError {
	return &SyncError{Consumer: consumer, Err: err}
}

// Helper functions for error checking.

// IsNotInitialized checks if an error indicates a missing manifest.
func IsNotInitialized(err error) bool {
	return errors.Is(err, ErrNotInitialized)
}

// IsUnknownConsumer checks if an error names an unregistered consumer.
func IsUnknownConsumer(err error) bool {
	return errors.Is(err, ErrUnknownConsumer)
}

// IsUnsupportedKey checks if an error names a non-settable manifest key.
func IsUnsupportedKey(err error) bool {
	return errors.Is(err, ErrUnsupportedKey)
}

// IsNotFound checks if an error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if an error is an already exists error.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}
