package flowerr

import (
	"fmt"
)

const (
	CodeInvalidConfig = "INVALID_CONFIG"
	CodeInvalidInput  = "INVALID_INPUT"
	CodeInternalError = "INTERNAL_ERROR"
)

var (
	// ErrInvalidConfig is returned when an option holds a value outside its closed set or range.
	ErrInvalidConfig = New(CodeInvalidConfig, "invalid configuration: some or all options are invalid")

	// ErrInvalidInput is returned when the event log cannot be read or is malformed.
	ErrInvalidInput = New(CodeInvalidInput, "invalid input: the event log is malformed")

	// ErrInternalError is returned when an invariant of the pipeline is broken.
	ErrInternalError = New(CodeInternalError, "internal error occurred")
)

type Extras map[string]interface{}

type FlowError struct {
	ErrorCode string
	Message   string
	Extras    *Extras
}

func New(errorCode string, message string) *FlowError {
	return &FlowError{
		ErrorCode: errorCode,
		Message:   message,
	}
}

func (e FlowError) Msg(format string, parts ...interface{}) *FlowError {
	e.Message = fmt.Sprintf(format, parts...)
	return &e
}

func (e FlowError) WithExtras(extras Extras) *FlowError {
	e.Extras = &extras
	return &e
}

func NewInvalidViolations(violations interface{}) *FlowError {
	// copy ErrInvalidConfig as e
	e := *ErrInvalidConfig
	e.Extras = &Extras{
		"violations": violations,
	}
	return &e
}

func (e *FlowError) Error() string {
	return fmt.Sprintf("%s: %s", e.ErrorCode, e.Message)
}

// Is matches any FlowError carrying the same code, so copies made by Msg or
// WithExtras still satisfy errors.Is against the package sentinels.
func (e *FlowError) Is(target error) bool {
	t, ok := target.(*FlowError)
	if !ok {
		return false
	}
	return t.ErrorCode == e.ErrorCode
}
