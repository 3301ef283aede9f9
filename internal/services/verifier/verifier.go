// Package verifier authenticates inbound provider notifications.
//
// Two checks are supported and may be combined: a static token passed as a
// query parameter, and an HMAC-SHA256 signature header, optionally bound to
// a timestamp. Every configured check must pass.
package verifier

import (
	"crypto/subtle"
	"fmt"
	"time"

	"payhook/internal/config"
)

const defaultReplayWindow = 300 * time.Second

// Request is the part of an inbound HTTP request the verifier looks at.
type Request struct {
	Body      []byte
	Signature string
	RequestID string
	Query     map[string]string
}

// Result is returned for accepted requests.
type Result struct {
	RequestID string
}

type Verifier struct {
	secret        []byte
	token         string
	tokenParam    string
	allowUnsigned bool
	replayWindow  time.Duration
	now           func() time.Time
}

func New(cfg config.WebhookConfig) *Verifier {
	window := cfg.ReplayWindow
	if window <= 0 {
		window = defaultReplayWindow
	}
	tokenParam := cfg.TokenParam
	if tokenParam == "" {
		tokenParam = "token"
	}
	return &Verifier{
		secret:        []byte(cfg.Secret),
		token:         cfg.Token,
		tokenParam:    tokenParam,
		allowUnsigned: cfg.AllowUnsigned,
		replayWindow:  window,
		now:           time.Now,
	}
}

// Verify returns the accepted request id, or an error. ErrSecretNotConfigured
// signals a configuration problem; every other error is a rejection.
func (v *Verifier) Verify(req Request) (Result, error) {
	if len(v.secret) == 0 && v.token == "" {
		return Result{}, ErrSecretNotConfigured
	}

	if v.token != "" {
		got := req.Query[v.tokenParam]
		if subtle.ConstantTimeCompare([]byte(got), []byte(v.token)) != 1 {
			return Result{}, ErrInvalidToken
		}
	}

	if len(v.secret) > 0 {
		if err := v.verifySignature(req); err != nil {
			return Result{}, err
		}
	}

	return Result{RequestID: req.RequestID}, nil
}

func (v *Verifier) verifySignature(req Request) error {
	if req.Signature == "" {
		if v.allowUnsigned {
			return nil
		}
		return ErrMissingSignature
	}

	sig, err := parseSignature(req.Signature)
	if err != nil {
		return err
	}

	if sig.timestamp == "" {
		if sig.matches(v.secret, req.Body) {
			return nil
		}
		return ErrSignatureMismatch
	}

	signedAt, err := sig.signedAt()
	if err != nil {
		return err
	}
	skew := v.now().Sub(signedAt)
	if skew < 0 {
		skew = -skew
	}
	if skew > v.replayWindow {
		return fmt.Errorf("%w: skew %s", ErrStaleSignature, skew.Truncate(time.Second))
	}

	messages := [][]byte{[]byte(sig.timestamp + "." + string(req.Body))}
	if dataID := req.Query["data.id"]; dataID != "" {
		manifest := fmt.Sprintf("id:%s;request-id:%s;ts:%s;", dataID, req.RequestID, sig.timestamp)
		messages = append(messages, []byte(manifest))
	}
	if sig.matches(v.secret, messages...) {
		return nil
	}
	return ErrSignatureMismatch
}
