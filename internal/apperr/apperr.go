// Package apperr defines the failure kinds newsctl reports to operators.
//
// Every failure carries a kind (matched with errors.Is), a human-readable
// detail and, where one exists, the command that fixes it.
package apperr

import (
	"errors"
	"strings"
)

// Failure kinds.
var (
	ErrPrivilege         = errors.New("insufficient privileges")
	ErrNotInstalled      = errors.New("service not installed")
	ErrNotRunning        = errors.New("service not running")
	ErrDependencyInstall = errors.New("dependency installation failed")
	ErrMissingConfig     = errors.New("required configuration missing")
	ErrConfigFile        = errors.New("configuration file not found")
	ErrRuntimeMissing    = errors.New("language runtime not found")
	ErrStepFailed        = errors.New("step failed")
	ErrInvalidSelection  = errors.New("invalid selection")
	ErrDeclined          = errors.New("aborted by operator")
)

// Error is a classified failure.
type Error struct {
	Kind   error
	Detail string
	Remedy string
	Err    error

	// Silent marks errors whose explanation was already shown to the
	// operator; the entry point only sets the exit status for them.
	Silent bool
}

func (e *Error) Error() string {
	var sb strings.Builder
	if e.Detail != "" {
		sb.WriteString(e.Detail)
	} else if e.Kind != nil {
		sb.WriteString(e.Kind.Error())
	}
	if e.Err != nil {
		if sb.Len() > 0 {
			sb.WriteString(": ")
		}
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the kind of e.
func (e *Error) Is(target error) bool {
	return e.Kind != nil && target == e.Kind
}

// New returns a failure of the given kind.
func New(kind error, detail, remedy string) *Error {
	return &Error{Kind: kind, Detail: detail, Remedy: remedy}
}

// Wrap returns a failure of the given kind caused by err.
func Wrap(kind error, err error, detail, remedy string) *Error {
	return &Error{Kind: kind, Detail: detail, Remedy: remedy, Err: err}
}

// Quiet returns err marked as already reported.
func Quiet(err error) error {
	var e *Error
	if errors.As(err, &e) {
		e.Silent = true
		return e
	}
	return &Error{Err: err, Silent: true}
}

// RemedyOf returns the remediation attached to err, if any.
func RemedyOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Remedy
	}
	return ""
}

// IsSilent reports whether err was already explained to the operator.
func IsSilent(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Silent
}

// ExitCode maps err to the process exit status. Every failure exits 1.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return 1
}
