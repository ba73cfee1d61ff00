package generator

import (
	"context"
	"errors"
	"strings"
)

// Failure kinds. Every error returned by Agent.Generate matches exactly one of
// them via errors.Is.
var (
	ErrConfiguration   = errors.New("generation credential not configured")
	ErrSafetyRejection = errors.New("request blocked by safety filters")
	ErrEmptyResponse   = errors.New("model returned an empty response")
	ErrTransient       = errors.New("generation failed")
	ErrMalformedResult = errors.New("model returned a malformed structured result")
)

// Error tags an underlying provider error with its failure kind.
type Error struct {
	Kind error
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.Error()
	}
	return e.Kind.Error() + ": " + e.Err.Error()
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newError(kind, err error) error {
	return &Error{Kind: kind, Err: err}
}

// Classify maps an arbitrary provider error onto the failure taxonomy.
// Errors that already carry a kind are returned unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var tagged *Error
	if errors.As(err, &tagged) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return newError(ErrTransient, err)
	}
	if strings.Contains(strings.ToUpper(err.Error()), "SAFETY") {
		return newError(ErrSafetyRejection, err)
	}
	return newError(ErrTransient, err)
}

// Kind returns the failure kind of err, defaulting to ErrTransient.
func Kind(err error) error {
	for _, k := range []error{ErrConfiguration, ErrSafetyRejection, ErrEmptyResponse, ErrMalformedResult, ErrTransient} {
		if errors.Is(err, k) {
			return k
		}
	}
	return ErrTransient
}

// Messages shown to the consultant.
const (
	MsgConfiguration = "API Key tidak ditemukan. Mohon atur variabel lingkungan API_KEY."
	MsgSafety        = "Permintaan Anda diblokir karena alasan keamanan. Coba ubah input Anda."
	MsgTryAgain      = "Gagal mendapatkan saran dari AI. Silakan coba lagi nanti."
)

// UserMessage converts a generation failure into the localized message shown
// on screen. Empty and malformed responses read like any transient failure.
func UserMessage(err error) string {
	switch Kind(err) {
	case ErrConfiguration:
		return MsgConfiguration
	case ErrSafetyRejection:
		return MsgSafety
	default:
		return MsgTryAgain
	}
}
