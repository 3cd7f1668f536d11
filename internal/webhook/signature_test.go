package webhook

import (
	"testing"
	"time"
)

func signedHeader(secret []byte, t string, body []byte) string {
	return "t=" + t + ",v1=" + Sign(secret, t, body)
}

func TestVerify_ValidSignature(t *testing.T) {
	secret := []byte("whsec_test")
	body := []byte(`{"event":"invitee.created","payload":{"uri":"x"}}`)

	if !Verify(body, signedHeader(secret, "1714575600", body), secret) {
		t.Fatalf("expected valid signature")
	}
}

func TestSign_KnownVector(t *testing.T) {
	// printf '1700000000.{}' | openssl dgst -sha256 -hmac secret
	const want = "b8569b78799ff9e3cbff0fc2d63a33a2b57f3282abd07c37ae5e8e7d79a5f163"
	if got := Sign([]byte("secret"), "1700000000", []byte("{}")); got != want {
		t.Fatalf("Sign = %q, want %q", got, want)
	}
	if !Verify([]byte("{}"), "t=1700000000,v1="+want, []byte("secret")) {
		t.Fatalf("expected known vector to verify")
	}
}

func TestVerify_SingleByteMutations(t *testing.T) {
	secret := []byte("whsec_test")
	body := []byte(`{"event":"invitee.canceled"}`)
	ts := "1714575600"
	sig := Sign(secret, ts, body)

	mutate := func(b []byte, i int) []byte {
		out := append([]byte(nil), b...)
		out[i] ^= 0x01
		return out
	}

	t.Run("body", func(t *testing.T) {
		for i := range body {
			if Verify(mutate(body, i), "t="+ts+",v1="+sig, secret) {
				t.Fatalf("mutated body byte %d verified", i)
			}
		}
	})
	t.Run("timestamp", func(t *testing.T) {
		for i := range ts {
			if Verify(body, "t="+string(mutate([]byte(ts), i))+",v1="+sig, secret) {
				t.Fatalf("mutated timestamp byte %d verified", i)
			}
		}
	})
	t.Run("signature", func(t *testing.T) {
		for i := range sig {
			if Verify(body, "t="+ts+",v1="+string(mutate([]byte(sig), i)), secret) {
				t.Fatalf("mutated signature byte %d verified", i)
			}
		}
	})
	t.Run("secret", func(t *testing.T) {
		if Verify(body, "t="+ts+",v1="+sig, []byte("whsec_other")) {
			t.Fatalf("verified with wrong secret")
		}
	})
}

func TestVerify_MissingFields(t *testing.T) {
	secret := []byte("s")
	body := []byte("{}")
	sig := Sign(secret, "1", body)

	for _, header := range []string{
		"",
		"v1=" + sig,
		"t=1",
		"t=,v1=" + sig,
		"t=1,v1=",
		"garbage",
	} {
		if Verify(body, header, secret) {
			t.Fatalf("header %q verified", header)
		}
	}
}

func TestVerify_ReserializedBodyFails(t *testing.T) {
	secret := []byte("s")
	raw := []byte(`{"event": "invitee.created",  "payload": {}}`)
	compact := []byte(`{"event":"invitee.created","payload":{}}`)

	if Verify(compact, signedHeader(secret, "1", raw), secret) {
		t.Fatalf("re-serialized body must not verify")
	}
}

func TestParseSignatureHeader(t *testing.T) {
	ts, v1, ok := ParseSignatureHeader(" t=123 , v1=abc, v0=zzz ,v1=def")
	if !ok || ts != "123" || v1 != "abc" {
		t.Fatalf("got t=%q v1=%q ok=%v", ts, v1, ok)
	}
}

func TestVerifier_Tolerance(t *testing.T) {
	secret := []byte("s")
	body := []byte("{}")
	now := time.Unix(1_714_575_600, 0)
	header := signedHeader(secret, "1714575000", body)

	t.Run("disabled by default", func(t *testing.T) {
		v := Verifier{Secret: secret, Now: func() time.Time { return now }}
		if !v.Verify(body, header) {
			t.Fatalf("expected old timestamp to verify with tolerance disabled")
		}
	})
	t.Run("stale rejected", func(t *testing.T) {
		v := Verifier{Secret: secret, Tolerance: 5 * time.Minute, Now: func() time.Time { return now }}
		if v.Verify(body, header) {
			t.Fatalf("expected stale timestamp to be rejected")
		}
	})
	t.Run("fresh accepted", func(t *testing.T) {
		v := Verifier{Secret: secret, Tolerance: 15 * time.Minute, Now: func() time.Time { return now }}
		if !v.Verify(body, header) {
			t.Fatalf("expected fresh timestamp to verify")
		}
	})
	t.Run("non numeric timestamp with tolerance", func(t *testing.T) {
		v := Verifier{Secret: secret, Tolerance: time.Hour, Now: func() time.Time { return now }}
		if v.Verify(body, signedHeader(secret, "abc", body)) {
			t.Fatalf("expected non numeric timestamp to be rejected")
		}
	})
}
