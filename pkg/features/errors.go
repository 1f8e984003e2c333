package features

import "errors"

// PipelineError represents a recoverable or fatal reconciliation error
type PipelineError struct {
	Code    string `json:"code"`
	Path    string `json:"path"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

func (e *PipelineError) Error() string {
	msg := e.Message
	if e.Path != "" {
		msg = e.Path + ": " + msg
	}
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// Error codes
const (
	ErrCodeMalformedReport         = "MALFORMED_REPORT"
	ErrCodeMissingCompanionFile    = "MISSING_COMPANION_FILE"
	ErrCodeAlignmentLengthMismatch = "ALIGNMENT_LENGTH_MISMATCH"
	ErrCodeAlignmentMismatch       = "ALIGNMENT_MISMATCH"
	ErrCodeMissingValue            = "MISSING_VALUE"
	ErrCodeConfiguration           = "CONFIGURATION"
)

// NewPipelineError creates a new pipeline error
func NewPipelineError(code, path, message string, cause error) *PipelineError {
	return &PipelineError{
		Code:    code,
		Path:    path,
		Message: message,
		Cause:   cause,
	}
}

// IsCode reports whether any error in err's chain is a PipelineError with code
func IsCode(err error, code string) bool {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Code == code
	}
	return false
}
