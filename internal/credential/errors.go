package credential

import "errors"

// Reason names why a credential was rejected.
type Reason string

const (
	ReasonMalformed        Reason = "malformed"
	ReasonSignatureInvalid Reason = "signature_invalid"
	ReasonExpired          Reason = "expired"
	ReasonWrongKind        Reason = "wrong_kind"
)

// VerificationError is returned by Codec.Verify. Compare with errors.Is against
// ErrMalformed, ErrSignatureInvalid, ErrExpired or ErrWrongKind.
type VerificationError struct {
	Reason Reason
	Err    error
}

func (e *VerificationError) Error() string {
	if e.Err != nil {
		return "credential " + string(e.Reason) + ": " + e.Err.Error()
	}
	return "credential " + string(e.Reason)
}

func (e *VerificationError) Unwrap() error {
	return e.Err
}

func (e *VerificationError) Is(target error) bool {
	var t *VerificationError
	if !errors.As(target, &t) {
		return false
	}
	return t.Reason == e.Reason
}

var (
	ErrMalformed        = &VerificationError{Reason: ReasonMalformed}
	ErrSignatureInvalid = &VerificationError{Reason: ReasonSignatureInvalid}
	ErrExpired          = &VerificationError{Reason: ReasonExpired}
	ErrWrongKind        = &VerificationError{Reason: ReasonWrongKind}
)

// ReasonOf extracts the rejection reason from err, or "unknown".
func ReasonOf(err error) Reason {
	var vErr *VerificationError
	if errors.As(err, &vErr) {
		return vErr.Reason
	}
	return "unknown"
}

func fail(reason Reason, err error) error {
	return &VerificationError{Reason: reason, Err: err}
}
