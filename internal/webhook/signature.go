// Package webhook authenticates and decodes scheduling-provider callbacks.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

// SignatureHeader carries "t=<unix seconds>,v1=<hex hmac>".
const SignatureHeader = "Calendly-Webhook-Signature"

// ParseSignatureHeader extracts the first t= and v1= values. ok is false when
// either one is missing or empty.
func ParseSignatureHeader(header string) (t, v1 string, ok bool) {
	for _, part := range strings.Split(header, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch key {
		case "t":
			if t == "" {
				t = value
			}
		case "v1":
			if v1 == "" {
				v1 = value
			}
		}
	}
	return t, v1, t != "" && v1 != ""
}

// Sign returns the lowercase hex HMAC-SHA256 of "<t>.<rawBody>".
func Sign(secret []byte, t string, rawBody []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(t))
	mac.Write([]byte{'.'})
	mac.Write(rawBody)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks the signature header against the exact bytes received.
// The timestamp is not checked for freshness.
func Verify(rawBody []byte, header string, secret []byte) bool {
	t, v1, ok := ParseSignatureHeader(header)
	if !ok {
		return false
	}
	expected := Sign(secret, t, rawBody)
	return hmac.Equal([]byte(expected), []byte(v1))
}

// Verifier is Verify with an optional freshness bound on t. A zero
// Tolerance disables the bound.
type Verifier struct {
	Secret    []byte
	Tolerance time.Duration
	Now       func() time.Time
}

func (v Verifier) Verify(rawBody []byte, header string) bool {
	if !Verify(rawBody, header, v.Secret) {
		return false
	}
	if v.Tolerance <= 0 {
		return true
	}

	t, _, _ := ParseSignatureHeader(header)
	sec, err := strconv.ParseInt(t, 10, 64)
	if err != nil {
		return false
	}
	now := time.Now
	if v.Now != nil {
		now = v.Now
	}
	skew := now().Sub(time.Unix(sec, 0))
	if skew < 0 {
		skew = -skew
	}
	return skew <= v.Tolerance
}
