package internal

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConfigured is returned when no model API key is available
	ErrNotConfigured = errors.New("Gemini API key is not configured")
	// ErrBusy is returned when a query is already in flight
	ErrBusy = errors.New("a query is already in progress")
	// ErrChatDisabled is returned when no dataset is loaded for the active mode
	ErrChatDisabled = errors.New("chat is disabled until data is loaded")
	// ErrQuotaExceeded is returned by a store when a value exceeds its quota
	ErrQuotaExceeded = errors.New("storage quota exceeded")
)

// ConfigError represents a missing or invalid configuration value
type ConfigError struct {
	Key string
	Err error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error [%s]: %v", e.Key, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// DataLoadError represents a failure loading a dataset
type DataLoadError struct {
	Mode ConnectionMode
	URL  string
	Err  error
}

func (e *DataLoadError) Error() string {
	return e.Err.Error()
}

func (e *DataLoadError) Unwrap() error {
	return e.Err
}

// ModelErrorKind classifies model call failures
type ModelErrorKind string

const (
	ModelErrCredential ModelErrorKind = "credential"
	ModelErrQuota      ModelErrorKind = "quota"
	ModelErrTransport  ModelErrorKind = "transport"
)

// ModelError represents a failed call to the model API
type ModelError struct {
	Kind ModelErrorKind
	Err  error
}

func (e *ModelError) Error() string {
	switch e.Kind {
	case ModelErrCredential:
		return "The Gemini API key is invalid or missing. Please check your configuration"
	case ModelErrQuota:
		return "API request failed due to permission or quota issues. Please check your Gemini API account"
	default:
		return fmt.Sprintf("Error analyzing data with Gemini: %v", e.Err)
	}
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// StorageError represents errors accessing the session store
type StorageError struct {
	Path string
	Op   string // "open", "get", "set", "remove"
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// ParseError represents errors decoding persisted or received data
type ParseError struct {
	Source string // "session", "chart", "table", "suggestions"
	Key    string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error [%s] %s: %v", e.Source, e.Key, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ExportError represents errors during export
type ExportError struct {
	Format string
	Path   string
	Err    error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export error [%s] %s: %v", e.Format, e.Path, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}
