package errors

import (
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorCode represents a structured error code
type ErrorCode string

const (
	// Configuration errors
	ErrCodeConfigLoad    ErrorCode = "CONFIG_LOAD"
	ErrCodeConfigParse   ErrorCode = "CONFIG_PARSE"
	ErrCodeConfigInvalid ErrorCode = "CONFIG_INVALID"

	// Session errors
	ErrCodeSessionDial   ErrorCode = "SESSION_DIAL"
	ErrCodeSessionClosed ErrorCode = "SESSION_CLOSED"

	// Handle errors
	ErrCodeHandleReleased ErrorCode = "HANDLE_RELEASED"

	// Generic errors
	ErrCodeInternal     ErrorCode = "INTERNAL"
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
)

// Error is a failure detected locally, before or instead of a remote call.
// Errors returned by the remote service never take this form.
type Error struct {
	Code       ErrorCode
	Message    string
	Underlying error
	Context    map[string]any
	// Remediation holds hints shown to CLI users below the error line.
	Remediation []string
}

// New creates a new structured error
func New(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap wraps err with a code. Wrap(nil, ...) is nil.
func Wrap(err error, code ErrorCode, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Underlying: err}
}

// WithContext adds a key-value pair rendered by Error.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// WithRemediation appends hints for the operator.
func (e *Error) WithRemediation(tips ...string) *Error {
	e.Remediation = append(e.Remediation, tips...)
	return e
}

// Error renders "[CODE] message {k: v, ...}: underlying" with context keys sorted.
func (e *Error) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %s", e.Code, e.Message)

	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		sb.WriteString(" {")
		for i, k := range keys {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "%s: %v", k, e.Context[k])
		}
		sb.WriteString("}")
	}

	if e.Underlying != nil {
		fmt.Fprintf(&sb, ": %v", e.Underlying)
	}
	return sb.String()
}

// Unwrap returns the underlying error for errors.Is/As
func (e *Error) Unwrap() error {
	return e.Underlying
}

// As finds the first structured error in err's chain.
func As(err error) (*Error, bool) {
	var target *Error
	if err == nil || !stderrors.As(err, &target) {
		return nil, false
	}
	return target, true
}

// IsCode checks if an error has a specific error code
func IsCode(err error, code ErrorCode) bool {
	rfErr, ok := As(err)
	return ok && rfErr.Code == code
}

// GetCode extracts the error code, ErrCodeInternal for foreign errors.
func GetCode(err error) ErrorCode {
	if err == nil {
		return ""
	}
	rfErr, ok := As(err)
	if !ok {
		return ErrCodeInternal
	}
	return rfErr.Code
}

// Remediation collects hints from every structured error in err's chain,
// outermost first, without duplicates.
func Remediation(err error) []string {
	var (
		tips []string
		seen = make(map[string]struct{})
	)
	for err != nil {
		if rfErr, ok := err.(*Error); ok {
			for _, tip := range rfErr.Remediation {
				if _, dup := seen[tip]; dup {
					continue
				}
				seen[tip] = struct{}{}
				tips = append(tips, tip)
			}
		}
		err = stderrors.Unwrap(err)
	}
	return tips
}
