package service

import "errors"

// Kind classifies service failures for transport mapping and retry
// decisions.
type Kind int

const (
	// KindValidation: caller mistake or declined payment; not retryable.
	KindValidation Kind = iota + 1
	// KindNotFound: the referenced entity does not exist.
	KindNotFound
	// KindRetryable: the operation is not done yet (payment still
	// processing); safe to retry as-is.
	KindRetryable
	// KindUnavailable: an external dependency failed; retry later.
	KindUnavailable
	// KindConflict: settlement conflict requiring operator attention
	// (stock exhausted after payment capture).
	KindConflict
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func validationErr(msg string) *Error  { return &Error{Kind: KindValidation, Message: msg} }
func notFoundErr(msg string) *Error    { return &Error{Kind: KindNotFound, Message: msg} }
func retryableErr(msg string) *Error   { return &Error{Kind: KindRetryable, Message: msg} }
func unavailableErr(msg string, err error) *Error {
	return &Error{Kind: KindUnavailable, Message: msg, Err: err}
}
func conflictErr(msg string, err error) *Error {
	return &Error{Kind: KindConflict, Message: msg, Err: err}
}

// KindOf extracts the service error kind, or 0 for unclassified errors.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return 0
}

// IsRetryable reports whether the caller should retry the same call,
// either because the provider is still working or was unreachable.
func IsRetryable(err error) bool {
	k := KindOf(err)
	return k == KindRetryable || k == KindUnavailable
}
