package database

import (
	"errors"
	"fmt"
)

// Kind classifies a database error.
type Kind int

const (
	KindConfiguration Kind = iota + 1
	KindConnection
	KindQuery
	KindTransaction
	KindSchema
	KindFormat
	KindUnsupported
)

// Sentinels matched by errors.Is against *Error values of the same kind.
var (
	ErrConfiguration = errors.New("configuration error")
	ErrConnection    = errors.New("connection error")
	ErrQuery         = errors.New("query error")
	ErrTransaction   = errors.New("transaction error")
	ErrSchema        = errors.New("schema error")
	ErrFormat        = errors.New("format error")
	ErrUnsupported   = errors.New("unsupported operation")
)

func (k Kind) sentinel() error {
	switch k {
	case KindConfiguration:
		return ErrConfiguration
	case KindConnection:
		return ErrConnection
	case KindQuery:
		return ErrQuery
	case KindTransaction:
		return ErrTransaction
	case KindSchema:
		return ErrSchema
	case KindFormat:
		return ErrFormat
	case KindUnsupported:
		return ErrUnsupported
	}
	return nil
}

func (k Kind) String() string {
	if s := k.sentinel(); s != nil {
		return s.Error()
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is returned by every operation of this package.
// SQL and Code are set for query errors when available.
type Error struct {
	Kind Kind
	Op   string
	SQL  string
	Code int
	Err  error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Code != 0 {
		msg += fmt.Sprintf(" (%d)", e.Code)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.SQL != "" {
		msg += "\nSQL=" + e.SQL
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

// NewError wraps err with kind and operation name.
func NewError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Errorf builds an *Error from a format string.
func Errorf(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf reports the kind of err, or 0 when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
