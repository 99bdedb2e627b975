package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

// VerifySignature checks a webhook signature: base64 HMAC-SHA256 over the
// exact raw bytes received, compared in constant time. Fails closed on a
// missing secret or header. Verifying anything but the raw body (e.g. a
// re-serialized parse) would be a correctness bug, so callers must pass the
// bytes straight off the wire.
func VerifySignature(secret string, rawBody []byte, signatureHeader string) bool {
	if secret == "" || signatureHeader == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(rawBody)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signatureHeader))
}
