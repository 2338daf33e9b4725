package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeContent represents source content retrieval errors
	ErrorTypeContent ErrorType = "content"
	// ErrorTypeInference represents AI inference errors (topics, embeddings, scoring)
	ErrorTypeInference ErrorType = "inference"
	// ErrorTypeStore represents similarity store errors
	ErrorTypeStore ErrorType = "store"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
)

// BaseError is the base error type with common fields
type BaseError struct {
	Type      ErrorType
	Message   string
	Timestamp time.Time
	Err       error // Wrapped error
}

// Error implements the error interface
func (e *BaseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error for error unwrapping
func (e *BaseError) Unwrap() error {
	return e.Err
}

// NewBaseError creates a new base error
func NewBaseError(errType ErrorType, message string, err error) *BaseError {
	return &BaseError{
		Type:      errType,
		Message:   message,
		Timestamp: time.Now(),
		Err:       err,
	}
}

// Content Errors

// ErrContentNotFound is returned when a subject does not resolve to a source page
type ErrContentNotFound struct {
	*BaseError
	Subject string
}

func NewContentNotFound(subject string) *ErrContentNotFound {
	return &ErrContentNotFound{
		BaseError: NewBaseError(ErrorTypeContent, fmt.Sprintf("no source page for subject: %s", subject), nil),
		Subject:   subject,
	}
}

// ErrSubjectAmbiguous is returned when a subject resolves to a disambiguation page
type ErrSubjectAmbiguous struct {
	*BaseError
	Subject string
}

func NewSubjectAmbiguous(subject string) *ErrSubjectAmbiguous {
	return &ErrSubjectAmbiguous{
		BaseError: NewBaseError(ErrorTypeContent, fmt.Sprintf("subject is ambiguous: %s", subject), nil),
		Subject:   subject,
	}
}

// ErrContentFetchFailed is returned when the source API cannot be reached or
// returns an unusable response
type ErrContentFetchFailed struct {
	*BaseError
	Subject string
}

func NewContentFetchFailed(subject string, err error) *ErrContentFetchFailed {
	return &ErrContentFetchFailed{
		BaseError: NewBaseError(ErrorTypeContent, fmt.Sprintf("failed to fetch content for: %s", subject), err),
		Subject:   subject,
	}
}

// Inference Errors

// ErrNoTopics is returned when topic extraction yields no usable breakdown sentences
type ErrNoTopics struct {
	*BaseError
	PageName string
}

func NewNoTopics(pageName string) *ErrNoTopics {
	return &ErrNoTopics{
		BaseError: NewBaseError(ErrorTypeInference, fmt.Sprintf("no usable topics for page: %s", pageName), nil),
		PageName:  pageName,
	}
}

// ErrEmbeddingFailed is returned when an embedding batch fails or comes back malformed
type ErrEmbeddingFailed struct {
	*BaseError
	Batch int
}

func NewEmbeddingFailed(batch int, err error) *ErrEmbeddingFailed {
	return &ErrEmbeddingFailed{
		BaseError: NewBaseError(ErrorTypeInference, fmt.Sprintf("embedding batch %d failed", batch), err),
		Batch:     batch,
	}
}

// ErrScoringFailed is returned when relation scoring fails or returns unparseable output
type ErrScoringFailed struct {
	*BaseError
	PageName string
}

func NewScoringFailed(pageName string, err error) *ErrScoringFailed {
	return &ErrScoringFailed{
		BaseError: NewBaseError(ErrorTypeInference, fmt.Sprintf("relation scoring failed for page: %s", pageName), err),
		PageName:  pageName,
	}
}

// ErrAudioSynthesisFailed is returned when narration synthesis fails
type ErrAudioSynthesisFailed struct {
	*BaseError
	PageName string
}

func NewAudioSynthesisFailed(pageName string, err error) *ErrAudioSynthesisFailed {
	return &ErrAudioSynthesisFailed{
		BaseError: NewBaseError(ErrorTypeInference, fmt.Sprintf("audio synthesis failed for page: %s", pageName), err),
		PageName:  pageName,
	}
}

// Store Errors

// ErrPersistenceFailed is returned when a transactional write is rolled back
type ErrPersistenceFailed struct {
	*BaseError
	ViewID string
}

func NewPersistenceFailed(viewID string, err error) *ErrPersistenceFailed {
	return &ErrPersistenceFailed{
		BaseError: NewBaseError(ErrorTypeStore, fmt.Sprintf("failed to persist view %s, transaction rolled back", viewID), err),
		ViewID:    viewID,
	}
}

// ErrStoreConnectionFailed is returned when the database cannot be reached
type ErrStoreConnectionFailed struct {
	*BaseError
	DSN string
}

func NewStoreConnectionFailed(dsn string, err error) *ErrStoreConnectionFailed {
	return &ErrStoreConnectionFailed{
		BaseError: NewBaseError(ErrorTypeStore, "failed to connect to store", err),
		DSN:       dsn,
	}
}

// Config Errors

// ErrConfigMissingRequired is returned when a required config value is missing
type ErrConfigMissingRequired struct {
	*BaseError
	Field string
}

func NewConfigMissingRequired(field string) *ErrConfigMissingRequired {
	return &ErrConfigMissingRequired{
		BaseError: NewBaseError(ErrorTypeConfig, fmt.Sprintf("missing required config: %s", field), nil),
		Field:     field,
	}
}

// Helper functions

// Category returns the error's subsystem type
func (e *BaseError) Category() ErrorType {
	return e.Type
}

type categorized interface {
	Category() ErrorType
}

// IsErrorType checks if an error belongs to a specific subsystem
func IsErrorType(err error, errType ErrorType) bool {
	var c categorized
	if errors.As(err, &c) {
		return c.Category() == errType
	}
	return false
}

// IsNotFound reports whether the error marks an expected absence of a subject.
// Both missing and disambiguation pages are terminal but expected outcomes.
func IsNotFound(err error) bool {
	var notFound *ErrContentNotFound
	var ambiguous *ErrSubjectAmbiguous
	return errors.As(err, &notFound) || errors.As(err, &ambiguous)
}
