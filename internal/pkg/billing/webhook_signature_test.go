package billing

import (
	"testing"

	"github.com/ManuelReschke/ExamFox/internal/pkg/env"
)

func TestTokenVerifier(t *testing.T) {
	v := TokenVerifier{Token: "whsec_abc"}

	if !v.Verify(nil, "whsec_abc") {
		t.Fatalf("expected matching token to validate")
	}
	if !v.Verify(nil, "  whsec_abc ") {
		t.Fatalf("expected surrounding whitespace to be ignored")
	}
	if v.Verify(nil, "whsec_abd") {
		t.Fatalf("expected wrong token to fail")
	}
	if v.Verify(nil, "") {
		t.Fatalf("expected missing header to fail")
	}
	if (TokenVerifier{}).Verify(nil, "") {
		t.Fatalf("expected unconfigured verifier to reject everything")
	}
	if v.Header() != AsaasTokenHeader {
		t.Fatalf("unexpected header %q", v.Header())
	}
}

func TestHMACVerifier(t *testing.T) {
	payload := []byte(`{"event":"PAYMENT_CONFIRMED"}`)
	secret := "top-secret"
	v := HMACVerifier{Secret: secret}

	sig := SignPayload(payload, secret)
	if !v.Verify(payload, sig) {
		t.Fatalf("expected signature to validate")
	}
	if !v.Verify(payload, "sha256="+sig) {
		t.Fatalf("expected prefixed signature to validate")
	}
	if v.Verify([]byte(`{"event":"PAYMENT_OVERDUE"}`), sig) {
		t.Fatalf("expected signature over a different body to fail")
	}
	if v.Verify(payload, "deadbeef") {
		t.Fatalf("expected invalid signature to fail")
	}
	if v.Verify(payload, "not-hex") {
		t.Fatalf("expected non-hex signature to fail")
	}
	if (HMACVerifier{}).Verify(payload, sig) {
		t.Fatalf("expected missing secret to fail")
	}
}

func TestVerifierFromEnv(t *testing.T) {
	env.Env = map[string]string{"ASAAS_WEBHOOK_TOKEN": "tok"}
	t.Cleanup(func() { env.Env = nil })

	if _, ok := VerifierFromEnv().(TokenVerifier); !ok {
		t.Fatalf("expected token verifier without hmac secret")
	}

	env.Env["WEBHOOK_HMAC_SECRET"] = "secret"
	v, ok := VerifierFromEnv().(HMACVerifier)
	if !ok {
		t.Fatalf("expected hmac verifier when secret is configured")
	}
	if v.Header() != SignatureHeader {
		t.Fatalf("unexpected header %q", v.Header())
	}
}
