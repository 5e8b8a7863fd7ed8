// Package errors provides the error taxonomy shared by the downloader packages.
//
// Every typed error unwraps to a sentinel so callers can branch with errors.Is
// without caring about the concrete type. Errors raised while talking to NCBI
// (rate limiting, rejected ids, error markers in the payload) additionally
// match ErrDownload.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for common cases
var (
	// ErrDownload indicates a failed retrieval from the remote service
	ErrDownload = errors.New("download failed")
	// ErrTooManyRequests indicates the remote service rate-limited the request
	ErrTooManyRequests = errors.New("too many requests")
	// ErrInvalidID indicates the remote service rejected the identifier(s)
	ErrInvalidID = errors.New("invalid id")
	// ErrBadPattern indicates a known error marker inside a successful response
	ErrBadPattern = errors.New("error pattern in response")
	// ErrInvalidRange indicates a malformed identifier range expression
	ErrInvalidRange = errors.New("invalid range")
	// ErrValidation indicates downloaded content failed extended validation
	ErrValidation = errors.New("validation failed")
	// ErrConfig indicates an invalid configuration combination
	ErrConfig = errors.New("invalid configuration")
	// ErrUnsupported indicates an unsupported operation or format
	ErrUnsupported = errors.New("unsupported")
	// ErrInvalidInput indicates input that could not be parsed
	ErrInvalidInput = errors.New("invalid input")
)

// DownloadError represents a transport-level failure talking to NCBI.
type DownloadError struct {
	IDs string // Identifier(s) being downloaded
	Err error  // Underlying transport error
}

func (e *DownloadError) Error() string {
	if e.IDs != "" {
		return fmt.Sprintf("failed to download %s from NCBI: %v", e.IDs, e.Err)
	}
	return fmt.Sprintf("failed to download from NCBI: %v", e.Err)
}

func (e *DownloadError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrDownload
}

// Is reports whether target is ErrDownload.
func (e *DownloadError) Is(target error) bool {
	return target == ErrDownload
}

// TooManyRequestsError is returned for HTTP 429 responses. RetryAfter is the
// server-supplied delay, zero when the header was absent or unparseable.
type TooManyRequestsError struct {
	IDs        string
	RetryAfter time.Duration
}

func (e *TooManyRequestsError) Error() string {
	return fmt.Sprintf("blocked at NCBI Entrez API for too many requests (retry after %s)", e.RetryAfter)
}

func (e *TooManyRequestsError) Unwrap() error {
	return ErrTooManyRequests
}

func (e *TooManyRequestsError) Is(target error) bool {
	return target == ErrDownload
}

// InvalidIDError is returned when NCBI answers with a non-200, non-429 status.
type InvalidIDError struct {
	IDs        string // Identifier(s) the request was made for
	StatusCode int    // HTTP status code
	Message    string // Error text extracted from the response body, if any
}

func (e *InvalidIDError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("download of %s failed with return code %d: %s", e.IDs, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("download of %s failed with return code %d", e.IDs, e.StatusCode)
}

func (e *InvalidIDError) Unwrap() error {
	return ErrInvalidID
}

func (e *InvalidIDError) Is(target error) bool {
	return target == ErrDownload
}

// BadPatternError is returned when a response body contains a known NCBI
// error marker, regardless of the HTTP status.
type BadPatternError struct {
	IDs     string
	Pattern string
}

func (e *BadPatternError) Error() string {
	return fmt.Sprintf("failed to download record(s) with id(s) %s from NCBI: %s", e.IDs, e.Pattern)
}

func (e *BadPatternError) Unwrap() error {
	return ErrBadPattern
}

func (e *BadPatternError) Is(target error) bool {
	return target == ErrDownload
}

// InvalidRangeError represents a malformed identifier range expression.
type InvalidRangeError struct {
	Input  string
	Reason string
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid range %q: %s", e.Input, e.Reason)
}

func (e *InvalidRangeError) Unwrap() error {
	return ErrInvalidRange
}

// ValidationError represents downloaded content failing extended validation.
type ValidationError struct {
	IDs     string // Identifier(s) whose content was validated
	Level   string // Validation level that failed
	Message string // Human-readable error message
	Err     error  // Underlying error, if any
}

func (e *ValidationError) Error() string {
	if e.IDs != "" {
		return fmt.Sprintf("validation (%s) failed for %s: %s", e.Level, e.IDs, e.Message)
	}
	return fmt.Sprintf("validation (%s) failed: %s", e.Level, e.Message)
}

func (e *ValidationError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrValidation
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation || target == ErrDownload
}

// ConfigError represents an invalid configuration value or combination.
type ConfigError struct {
	Field   string // Option name
	Value   string // Offending value
	Message string
}

func (e *ConfigError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Message)
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ConfigError) Unwrap() error {
	return ErrConfig
}

// IOError represents an I/O operation error with context
type IOError struct {
	Operation string // Operation being performed (e.g., "read", "write", "open")
	Path      string // File/resource path involved
	Err       error  // Underlying error
}

func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to %s %s: %v", e.Operation, e.Path, e.Err)
	}
	return fmt.Sprintf("failed to %s: %v", e.Operation, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// ParseError represents a sequence file that could not be parsed
type ParseError struct {
	Format  string // Format being parsed (e.g., "genbank", "fasta")
	Line    int    // 1-based line number, 0 if unknown
	Message string // Error details
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("failed to parse %s at line %d: %s", e.Format, e.Line, e.Message)
	}
	return fmt.Sprintf("failed to parse %s: %s", e.Format, e.Message)
}

func (e *ParseError) Unwrap() error {
	return ErrInvalidInput
}

// UnsupportedError represents an unsupported feature or format
type UnsupportedError struct {
	Feature string // Feature or format that is unsupported
	Reason  string // Why it's not supported
}

func (e *UnsupportedError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("unsupported %s: %s", e.Feature, e.Reason)
	}
	return fmt.Sprintf("unsupported %s", e.Feature)
}

func (e *UnsupportedError) Unwrap() error {
	return ErrUnsupported
}

// Helper functions for creating common errors

// NewDownload creates a DownloadError
func NewDownload(ids string, err error) *DownloadError {
	return &DownloadError{IDs: ids, Err: err}
}

// NewInvalidRange creates an InvalidRangeError
func NewInvalidRange(input, reason string) *InvalidRangeError {
	return &InvalidRangeError{Input: input, Reason: reason}
}

// NewConfig creates a ConfigError
func NewConfig(field, value, message string) *ConfigError {
	return &ConfigError{Field: field, Value: value, Message: message}
}

// NewIO creates an IOError
func NewIO(operation, path string, err error) *IOError {
	return &IOError{Operation: operation, Path: path, Err: err}
}

// NewParse creates a ParseError
func NewParse(format string, line int, message string) *ParseError {
	return &ParseError{Format: format, Line: line, Message: message}
}

// NewUnsupported creates an UnsupportedError
func NewUnsupported(feature, reason string) *UnsupportedError {
	return &UnsupportedError{Feature: feature, Reason: reason}
}

// Wrap adds context to an error. If err is nil, returns nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf adds formatted context to an error. If err is nil, returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// Is wraps errors.Is for convenience
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
