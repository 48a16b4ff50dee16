// Package pgperror defines the closed error taxonomy shared by the packet
// codec and the message/signature/key pipelines built on top of it.
//
// Grounded on the teacher's sentinel-error style (signkey.go's
// DecryptKeyErr / UnsupportedPacketErr, checked with errors.Is by callers),
// widened to the closed Kind enum spec section 7 names so a caller can
// switch on an error's Kind field (or KindOf) instead of comparing against
// package-level vars one by one.
package pgperror

import (
	"errors"
	"fmt"
)

// Kind is one of the closed set of error categories this system reports.
type Kind int

const (
	_ Kind = iota
	MalformedHeader
	TruncatedMPI
	UnknownTag
	UnknownPartial
	BadPadding
	QuickCheckFailed
	MDCMismatch
	ChecksumMismatch
	WrongPassphrase
	BadSignature
	KeyRevoked
	NoSigningKey
	NoEncryptingKey
	UnsupportedAlgorithm
	MalformedKey
	ContainerShapeViolation
)

var names = map[Kind]string{
	MalformedHeader:         "MalformedHeader",
	TruncatedMPI:            "TruncatedMPI",
	UnknownTag:              "UnknownTag",
	UnknownPartial:          "UnknownPartial",
	BadPadding:              "BadPadding",
	QuickCheckFailed:        "QuickCheckFailed",
	MDCMismatch:             "MDCMismatch",
	ChecksumMismatch:        "ChecksumMismatch",
	WrongPassphrase:         "WrongPassphrase",
	BadSignature:            "BadSignature",
	KeyRevoked:              "KeyRevoked",
	NoSigningKey:            "NoSigningKey",
	NoEncryptingKey:         "NoEncryptingKey",
	UnsupportedAlgorithm:    "UnsupportedAlgorithm",
	MalformedKey:            "MalformedKey",
	ContainerShapeViolation: "ContainerShapeViolation",
}

func (k Kind) String() string {
	if s, ok := names[k]; ok {
		return s
	}
	return "UnknownErrorKind"
}

// Error wraps a Kind with free-form context and, optionally, an underlying
// cause. It implements the standard error interface plus Unwrap so callers
// can use errors.Is/errors.As against either an *Error of the same Kind
// (see Is) or the wrapped cause.
type Error struct {
	Kind    Kind
	Context string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Context, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Context)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error with the same Kind, so that
// errors.Is(err, pgperror.New(pgperror.BadSignature, "")) matches any
// BadSignature error regardless of context.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// New constructs an *Error with no wrapped cause.
func New(kind Kind, context string) *Error {
	return &Error{Kind: kind, Context: context}
}

// Wrap constructs an *Error wrapping an underlying cause.
func Wrap(kind Kind, context string, err error) *Error {
	return &Error{Kind: kind, Context: context, Err: err}
}

// KindOf extracts the Kind of err if it is (or wraps) a *pgperror.Error,
// reporting ok=false otherwise.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}
