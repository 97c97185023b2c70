package billing

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"github.com/ManuelReschke/ExamFox/internal/pkg/env"
)

const (
	// AsaasTokenHeader carries the shared token configured on the Asaas webhook.
	AsaasTokenHeader = "asaas-access-token"
	// SignatureHeader carries a hex HMAC-SHA256 of the raw body.
	SignatureHeader = "X-Webhook-Signature"
)

// Verifier decides whether a raw notification came from the payment processor.
type Verifier interface {
	Verify(payload []byte, signatureHeader string) bool
	// Header names the request header the signature is read from.
	Header() string
}

// TokenVerifier compares a shared secret token in constant time.
type TokenVerifier struct {
	Token string
}

func (v TokenVerifier) Verify(_ []byte, signatureHeader string) bool {
	got := strings.TrimSpace(signatureHeader)
	want := strings.TrimSpace(v.Token)
	if got == "" || want == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

func (v TokenVerifier) Header() string {
	return AsaasTokenHeader
}

// HMACVerifier checks a hex HMAC-SHA256 signature of the payload.
type HMACVerifier struct {
	Secret string
}

func (v HMACVerifier) Verify(payload []byte, signatureHeader string) bool {
	sig := strings.TrimSpace(signatureHeader)
	secret := strings.TrimSpace(v.Secret)
	if sig == "" || secret == "" {
		return false
	}
	sig = strings.TrimPrefix(strings.ToLower(sig), "sha256=")

	decodedSig, err := hex.DecodeString(sig)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hmac.Equal(mac.Sum(nil), decodedSig)
}

func (v HMACVerifier) Header() string {
	return SignatureHeader
}

// SignPayload returns the hex HMAC-SHA256 signature HMACVerifier accepts.
func SignPayload(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(strings.TrimSpace(secret)))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifierFromEnv prefers HMAC signatures when WEBHOOK_HMAC_SECRET is set and
// falls back to the Asaas shared token. With neither configured every
// notification is rejected.
func VerifierFromEnv() Verifier {
	if secret := strings.TrimSpace(env.GetEnv("WEBHOOK_HMAC_SECRET", "")); secret != "" {
		return HMACVerifier{Secret: secret}
	}
	return TokenVerifier{Token: env.GetEnv("ASAAS_WEBHOOK_TOKEN", "")}
}
