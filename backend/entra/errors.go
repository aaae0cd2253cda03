package entra

import (
	"errors"
)

// Verification failure reasons. Every error returned by Verifier.Verify
// matches exactly one of these with errors.Is.
var (
	// ErrMissingOrMalformedToken is returned when the token is empty or cannot be decoded
	ErrMissingOrMalformedToken = errors.New("missing or malformed token")

	// ErrUnknownSigningKey is returned when the token's kid cannot be resolved to a key
	ErrUnknownSigningKey = errors.New("unknown signing key")

	// ErrSignatureInvalid is returned when the signature or signing algorithm is rejected
	ErrSignatureInvalid = errors.New("signature invalid")

	// ErrExpired is returned when the token is outside its validity window
	ErrExpired = errors.New("token expired")

	// ErrIssuerMismatch is returned when iss is not the tenant-scoped issuer
	ErrIssuerMismatch = errors.New("issuer mismatch")

	// ErrAudienceMismatch is returned when aud does not contain the client ID
	ErrAudienceMismatch = errors.New("audience mismatch")

	// ErrUpstreamKeyFetch is returned when the JWKS endpoint could not be reached
	ErrUpstreamKeyFetch = errors.New("upstream key fetch failed")
)

// Key resolver errors.
var (
	// ErrSigningKeyNotFound is returned when a kid is absent from the key set
	// or a fetch for it was refused by the outbound rate limit
	ErrSigningKeyNotFound = errors.New("signing key not found")

	// ErrKeyFetchFailed is returned when the JWKS document could not be retrieved
	ErrKeyFetchFailed = errors.New("failed to fetch JWKS")
)

var reasons = []error{
	ErrMissingOrMalformedToken,
	ErrUnknownSigningKey,
	ErrSignatureInvalid,
	ErrExpired,
	ErrIssuerMismatch,
	ErrAudienceMismatch,
	ErrUpstreamKeyFetch,
}

// VerificationError carries the failure reason and the underlying cause.
// The cause is for server-side logs only.
type VerificationError struct {
	Reason error
	Err    error
}

// Error implements the error interface
func (e *VerificationError) Error() string {
	if e.Err != nil {
		return e.Reason.Error() + ": " + e.Err.Error()
	}
	return e.Reason.Error()
}

// Unwrap exposes both the reason and the cause to errors.Is and errors.As
func (e *VerificationError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Reason}
	}
	return []error{e.Reason, e.Err}
}

func fail(reason, cause error) error {
	return &VerificationError{Reason: reason, Err: cause}
}

// Reason returns the failure reason carried by err, or nil when err is not
// a verification failure.
func Reason(err error) error {
	var verr *VerificationError
	if errors.As(err, &verr) {
		return verr.Reason
	}
	for _, r := range reasons {
		if errors.Is(err, r) {
			return r
		}
	}
	return nil
}

// IsUpstream reports whether err is an infrastructure failure rather than a
// problem with the presented credential.
func IsUpstream(err error) bool {
	return errors.Is(err, ErrUpstreamKeyFetch)
}
