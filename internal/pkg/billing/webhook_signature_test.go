package billing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func signBody(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyWebhookSignature(t *testing.T) {
	body := []byte(`{"id":"evt_1","type":"topup.purchased"}`)
	secret := "whsec_test"
	sig := signBody(body, secret)

	assert.True(t, VerifyWebhookSignature(body, sig, secret))
	assert.True(t, VerifyWebhookSignature(body, strings.ToUpper(sig), secret))
	assert.True(t, VerifyWebhookSignature(body, "  "+sig+"  ", secret))
}

func TestVerifyWebhookSignatureRejects(t *testing.T) {
	body := []byte(`{"id":"evt_1"}`)
	secret := "whsec_test"

	tests := []struct {
		name   string
		body   []byte
		sig    string
		secret string
	}{
		{"wrong secret", body, signBody(body, "other"), secret},
		{"tampered body", []byte(`{"id":"evt_2"}`), signBody(body, secret), secret},
		{"empty signature", body, "", secret},
		{"empty secret", body, signBody(body, secret), ""},
		{"not hex", body, "zz-not-hex", secret},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, VerifyWebhookSignature(tt.body, tt.sig, tt.secret))
		})
	}
}
