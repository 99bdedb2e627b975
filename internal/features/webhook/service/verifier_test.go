package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
)

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	secret := "shpss_test_secret"
	body := []byte(`{"id":123,"line_items":[]}`)

	t.Run("valid signature", func(t *testing.T) {
		assert.True(t, VerifySignature(secret, body, sign(secret, body)))
	})

	t.Run("tampered body", func(t *testing.T) {
		header := sign(secret, body)
		tampered := []byte(`{"id":124,"line_items":[]}`)
		assert.False(t, VerifySignature(secret, tampered, header))
	})

	t.Run("wrong secret", func(t *testing.T) {
		assert.False(t, VerifySignature(secret, body, sign("other_secret", body)))
	})

	t.Run("missing header", func(t *testing.T) {
		assert.False(t, VerifySignature(secret, body, ""))
	})

	t.Run("missing secret fails closed", func(t *testing.T) {
		assert.False(t, VerifySignature("", body, sign("", body)))
	})
}
