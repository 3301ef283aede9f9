package verifier

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	timestampKeys = map[string]bool{"ts": true, "t": true, "timestamp": true}
	digestKeys    = map[string]bool{"v1": true, "sha256": true, "signature": true, "s": true}
)

// signature is a parsed signature header.
type signature struct {
	timestamp string
	digests   []string
}

// parseSignature accepts "sha256=<hex>", a bare hex digest, or a list of
// key=value pairs separated by ',' or ';' carrying a timestamp and one or
// more digests.
func parseSignature(header string) (signature, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return signature{}, ErrMissingSignature
	}

	if isHex(header) {
		return signature{digests: []string{strings.ToLower(header)}}, nil
	}

	var sig signature
	for _, part := range strings.FieldsFunc(header, func(r rune) bool { return r == ',' || r == ';' }) {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)
		switch {
		case timestampKeys[key]:
			sig.timestamp = value
		case digestKeys[key] && isHex(value):
			sig.digests = append(sig.digests, strings.ToLower(value))
		}
	}

	if len(sig.digests) == 0 {
		return signature{}, fmt.Errorf("%w: no digest found", ErrMalformedSignature)
	}
	return sig, nil
}

// signedAt converts the signature timestamp to a time. Values above 1e12
// are taken as milliseconds.
func (s signature) signedAt() (time.Time, error) {
	v, err := strconv.ParseInt(s.timestamp, 10, 64)
	if err != nil || v <= 0 {
		return time.Time{}, fmt.Errorf("%w: bad timestamp %q", ErrMalformedSignature, s.timestamp)
	}
	if v > 1e12 {
		return time.UnixMilli(v), nil
	}
	return time.Unix(v, 0), nil
}

// matches reports whether any digest equals the HMAC-SHA256 of any message.
func (s signature) matches(secret []byte, messages ...[]byte) bool {
	for _, msg := range messages {
		mac := hmac.New(sha256.New, secret)
		mac.Write(msg)
		expected := mac.Sum(nil)
		for _, d := range s.digests {
			got, err := hex.DecodeString(d)
			if err != nil {
				continue
			}
			if hmac.Equal(got, expected) {
				return true
			}
		}
	}
	return false
}

// Sign returns the hex HMAC-SHA256 of msg. Used by tests and operators to
// craft signed requests.
func Sign(secret string, msg []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(msg)
	return hex.EncodeToString(mac.Sum(nil))
}

func isHex(s string) bool {
	if len(s) == 0 || len(s)%2 != 0 {
		return false
	}
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}
