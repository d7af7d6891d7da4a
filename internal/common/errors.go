// Package common defines the error kinds shared by every layer of the vault
// and small helpers for handling secret byte buffers. Callers should match
// kinds with errors.Is against the sentinels below, or with KindOf.
package common

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so callers can branch without inspecting text.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindInvalidArgument
	KindAuthenticationFailure
	KindNotFound
	KindDerivation
	KindStorage
	KindTransactionAborted
)

var (
	// ErrInvalidArgument reports malformed input: salt, IV or key lengths,
	// empty passwords, non-matching confirmations.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrAuthenticationFailure covers both a wrong master password and an
	// AEAD tag mismatch. The two are reported identically on purpose.
	ErrAuthenticationFailure = errors.New("authentication failure")

	// ErrNotFound is returned when no row exists for the requested id.
	ErrNotFound = errors.New("not found")

	// ErrDerivation reports a key-derivation resource failure.
	ErrDerivation = errors.New("key derivation failed")

	// ErrStorage reports a persistence-layer failure.
	ErrStorage = errors.New("storage error")

	// ErrTransactionAborted is returned after a rolled back re-key transaction.
	ErrTransactionAborted = errors.New("transaction aborted")
)

func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "invalid_argument"
	case KindAuthenticationFailure:
		return "authentication_failure"
	case KindNotFound:
		return "not_found"
	case KindDerivation:
		return "derivation_error"
	case KindStorage:
		return "storage_error"
	case KindTransactionAborted:
		return "transaction_aborted"
	default:
		return "unknown"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindInvalidArgument:
		return ErrInvalidArgument
	case KindAuthenticationFailure:
		return ErrAuthenticationFailure
	case KindNotFound:
		return ErrNotFound
	case KindDerivation:
		return ErrDerivation
	case KindStorage:
		return ErrStorage
	case KindTransactionAborted:
		return ErrTransactionAborted
	default:
		return nil
	}
}

// Error carries a Kind, the operation that failed and the underlying cause.
// errors.Is matches both the kind's sentinel and anything in the cause chain.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

// E builds an *Error. A nil cause is replaced by the kind's sentinel.
func E(kind Kind, op string, err error) error {
	if err == nil {
		err = kind.sentinel()
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

func (e *Error) Error() string {
	s := e.Kind.sentinel()
	switch {
	case e.Err == nil || e.Err == s:
		return fmt.Sprintf("%s: %v", e.Op, s)
	case s == nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: %v: %v", e.Op, s, e.Err)
	}
}

func (e *Error) Unwrap() []error {
	s := e.Kind.sentinel()
	if s == nil || e.Err == s {
		return []error{e.Err}
	}
	return []error{s, e.Err}
}

// KindOf returns the kind of the outermost *Error in err's chain. Bare
// sentinels are recognised too, so repository errors classify correctly.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	for _, k := range []Kind{
		KindInvalidArgument,
		KindAuthenticationFailure,
		KindNotFound,
		KindDerivation,
		KindStorage,
		KindTransactionAborted,
	} {
		if errors.Is(err, k.sentinel()) {
			return k
		}
	}
	return KindUnknown
}
