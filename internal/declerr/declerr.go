// Package declerr defines the error taxonomy shared by every component of
// the declaration pipeline, so that callers can branch on the kind of
// failure rather than parsing error strings.
package declerr

import "fmt"

// Kind distinguishes the handful of ways an operation can fail.
type Kind int

const (
	// KindInternal covers database/IO/unexpected failures.
	KindInternal Kind = iota
	// KindNotFound means the referenced entity does not exist.
	KindNotFound
	// KindForbidden means the caller lacks the role for the taxpayer.
	KindForbidden
	// KindConflict covers duplicate checksums, invalid transitions, and
	// structural catalog defects (unknown event type, missing logical field).
	KindConflict
	// KindUnprocessable means a precondition for the operation failed.
	KindUnprocessable
	// KindParse means a parser rejected a source payload.
	KindParse
	// KindRuleError is a per-rule evaluation failure; callers collect these
	// rather than aborting the whole engine run.
	KindRuleError
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindConflict:
		return "conflict"
	case KindUnprocessable:
		return "unprocessable"
	case KindParse:
		return "parse"
	case KindRuleError:
		return "rule_error"
	default:
		return "internal"
	}
}

// Error is the concrete error type returned across the module's public
// operations. Op names the operation that failed (e.g. "ingest",
// "transition"); Err, when present, is the underlying cause.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is a *Error with the same Kind, so that
// errors.Is(err, declerr.NotFound("", "")) style checks are unnecessary;
// callers should instead use errors.As and inspect Kind directly, or the
// Is* helpers below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func newErr(k Kind, op, msg string, err error) *Error {
	return &Error{Kind: k, Op: op, Msg: msg, Err: err}
}

// NotFound builds a KindNotFound error.
func NotFound(op, msg string) *Error { return newErr(KindNotFound, op, msg, nil) }

// Forbidden builds a KindForbidden error.
func Forbidden(op, msg string) *Error { return newErr(KindForbidden, op, msg, nil) }

// Conflict builds a KindConflict error.
func Conflict(op, msg string) *Error { return newErr(KindConflict, op, msg, nil) }

// Unprocessable builds a KindUnprocessable error.
func Unprocessable(op, msg string) *Error { return newErr(KindUnprocessable, op, msg, nil) }

// Parse builds a KindParse error, optionally wrapping a cause.
func Parse(op, msg string, err error) *Error { return newErr(KindParse, op, msg, err) }

// RuleError builds a KindRuleError error, optionally wrapping a cause.
func RuleError(op, msg string, err error) *Error { return newErr(KindRuleError, op, msg, err) }

// Internal builds a KindInternal error wrapping err.
func Internal(op, msg string, err error) *Error { return newErr(KindInternal, op, msg, err) }

// Is reports whether err is a *Error of the given kind.
func Is(err error, k Kind) bool {
	var e *Error
	if ok := As(err, &e); ok {
		return e.Kind == k
	}
	return false
}

// As is a small local wrapper so callers in this module don't need to
// import both "errors" and "declerr" for the common case.
func As(err error, target **Error) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
