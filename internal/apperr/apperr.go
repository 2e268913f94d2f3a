package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a ledger error so the API layer can pick a status code
// without string matching.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindNotFound
	KindInsufficientStock
	KindOverpayment
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindInsufficientStock:
		return "insufficient_stock"
	case KindOverpayment:
		return "overpayment"
	case KindConflict:
		return "conflict"
	default:
		return "unknown"
	}
}

// Error is the ledger error type. Wrap lower-level errors with %w as usual;
// KindOf walks the chain to find the first classified error.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match on kind sentinels created with New.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind && (t.Msg == "" || t.Msg == e.Msg)
}

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

func Validationf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

func NotFoundf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

func InsufficientStockf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindInsufficientStock, Msg: fmt.Sprintf(format, args...)}
}

func Overpaymentf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindOverpayment, Msg: fmt.Sprintf(format, args...)}
}

func Conflictf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindConflict, Msg: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of the first *Error in the chain, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind reports whether the chain contains an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
