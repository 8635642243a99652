// Package rerr defines the error kinds surfaced by rapids commands.
package rerr

import (
	"errors"
	"fmt"
)

// Kind is a stable error category.
type Kind string

const (
	NotInstalled     Kind = "NOT_INSTALLED"
	ConfigCorrupt    Kind = "CONFIG_CORRUPT"
	NotFound         Kind = "NOT_FOUND"
	UnknownTemplate  Kind = "UNKNOWN_TEMPLATE"
	NotMigrated      Kind = "NOT_MIGRATED"
	PathInaccessible Kind = "PATH_INACCESSIBLE"
	ValidationFailed Kind = "VALIDATION_FAILED"
	Unsupported      Kind = "UNSUPPORTED"
	Canceled         Kind = "CANCELED"
)

// Error carries a Kind plus an optional cause and structured details.
type Error struct {
	Kind    Kind
	Msg     string
	Err     error
	Details map[string]string
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, msg string) error {
	return &Error{Kind: kind, Msg: msg}
}

func Newf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, msg string, err error) error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// WithDetails attaches key/value context, e.g. the offending path or field.
func WithDetails(kind Kind, msg string, details map[string]string) error {
	var copied map[string]string
	if len(details) > 0 {
		copied = make(map[string]string, len(details))
		for k, v := range details {
			copied[k] = v
		}
	}
	return &Error{Kind: kind, Msg: msg, Details: copied}
}

// KindOf returns the Kind of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
	var re *Error
	if errors.As(err, &re) {
		return re.Kind
	}
	return ""
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// ExitCode maps an error to the process exit status.
func ExitCode(err error) int {
	switch KindOf(err) {
	case "":
		if err == nil {
			return 0
		}
		return 1
	case ValidationFailed, UnknownTemplate:
		return 2
	case NotInstalled, NotMigrated:
		return 3
	case Canceled:
		return 130
	default:
		return 1
	}
}
