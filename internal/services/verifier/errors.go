package verifier

import "errors"

var (
	// ErrSecretNotConfigured means neither a signing secret nor a static token
	// is configured. It is a server fault, not a client one.
	ErrSecretNotConfigured = errors.New("webhook secret not configured")

	// Rejections
	ErrInvalidToken       = errors.New("invalid webhook token")
	ErrMissingSignature   = errors.New("missing webhook signature")
	ErrMalformedSignature = errors.New("malformed webhook signature")
	ErrStaleSignature     = errors.New("webhook signature outside replay window")
	ErrSignatureMismatch  = errors.New("webhook signature mismatch")
)
