// Package errors provides severity-aware error types.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Severity indicates error impact level.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
	SeverityFatal
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// PipelineError is a structured error with context.
type PipelineError struct {
	Code        string   `json:"code"`
	Message     string   `json:"message"`
	Severity    Severity `json:"severity"`
	Column      string   `json:"column,omitempty"`
	RowCount    int      `json:"row_count,omitempty"`
	Recoverable bool     `json:"recoverable"`
	Err         error    `json:"-"`
}

func (e *PipelineError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("[%s] %s: %s (column: %s, rows: %d)", e.Severity, e.Code, e.Message, e.Column, e.RowCount)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Severity, e.Code, e.Message)
}

func (e *PipelineError) Unwrap() error { return e.Err }

// Error codes
const (
	ErrCodeDataLoadFailed     = "DATA_LOAD_FAILED"
	ErrCodeMissingColumn      = "MISSING_COLUMN"
	ErrCodeSchemaMismatch     = "SCHEMA_MISMATCH"
	ErrCodeArtifactLoadFailed = "ARTIFACT_LOAD_FAILED"
	ErrCodePolicyViolation    = "POLICY_VIOLATION"
)

// NewDataLoadError creates an error for unreadable or malformed raw input.
// Fatal to the batch run: no partial output is produced past this point.
func NewDataLoadError(message, column string, rowCount int, cause error) *PipelineError {
	return &PipelineError{
		Code:        ErrCodeDataLoadFailed,
		Message:     message,
		Severity:    SeverityFatal,
		Column:      column,
		RowCount:    rowCount,
		Recoverable: false,
		Err:         cause,
	}
}

// NewMissingColumnError creates an error for a required column absent from the header.
func NewMissingColumnError(column string) *PipelineError {
	return &PipelineError{
		Code:        ErrCodeMissingColumn,
		Message:     fmt.Sprintf("required column not found in input: %s", column),
		Severity:    SeverityFatal,
		Column:      column,
		Recoverable: false,
	}
}

// NewSchemaMismatchError creates an error for inference input that does not match
// the frozen feature schema. Fatal to the single call only.
func NewSchemaMismatchError(message string) *PipelineError {
	return &PipelineError{
		Code:        ErrCodeSchemaMismatch,
		Message:     message,
		Severity:    SeverityError,
		Recoverable: true,
	}
}

// NewArtifactLoadError creates an error for a missing or corrupt trained artifact.
// Fatal at startup: the inference service must not come up without its artifacts.
func NewArtifactLoadError(artifact string, cause error) *PipelineError {
	return &PipelineError{
		Code:        ErrCodeArtifactLoadFailed,
		Message:     fmt.Sprintf("failed to load trained artifact: %s", artifact),
		Severity:    SeverityFatal,
		Recoverable: false,
		Err:         cause,
	}
}

// NewPolicyError creates an error for a row-filter policy that cannot be
// listed, read, compiled, or evaluated. Fatal to the run: filters never
// fail open.
func NewPolicyError(message string, cause error) *PipelineError {
	return &PipelineError{
		Code:        ErrCodePolicyViolation,
		Message:     message,
		Severity:    SeverityFatal,
		Recoverable: false,
		Err:         cause,
	}
}

// IsCode reports whether err is, or wraps, a PipelineError carrying the
// given code.
func IsCode(err error, code string) bool {
	var pe *PipelineError
	return stderrors.As(err, &pe) && pe.Code == code
}
