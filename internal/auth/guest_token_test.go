package auth

import (
	"encoding/hex"
	"testing"
	"time"

	"github.com/insighta/complaints-service/internal/domain"
)

func TestGenerateGuestTokenHashRoundTrip(t *testing.T) {
	raw, hash, err := GenerateGuestToken()
	if err != nil {
		t.Fatalf("GenerateGuestToken() error = %v", err)
	}
	if raw == "" || hash == "" {
		t.Fatalf("GenerateGuestToken() returned empty values")
	}
	if raw == hash {
		t.Fatalf("raw token must differ from its stored hash")
	}
	if decoded, err := hex.DecodeString(raw); err != nil || len(decoded) != guestTokenBytes {
		t.Fatalf("raw token = %q, want hex of %d bytes", raw, guestTokenBytes)
	}
	if HashGuestToken(raw) != hash {
		t.Fatalf("hashing the raw token does not reproduce the stored hash")
	}
}

func TestGenerateGuestTokenUnique(t *testing.T) {
	first, _, err := GenerateGuestToken()
	if err != nil {
		t.Fatalf("GenerateGuestToken() error = %v", err)
	}
	second, _, err := GenerateGuestToken()
	if err != nil {
		t.Fatalf("GenerateGuestToken() error = %v", err)
	}
	if first == second {
		t.Fatalf("two generated tokens collided")
	}
}

func TestAccessTokenExpiry(t *testing.T) {
	now := time.Now()
	token := &domain.TicketAccessToken{ExpiresAt: now.Add(30 * 24 * time.Hour)}
	if token.Expired(now) {
		t.Fatalf("token expired before its horizon")
	}
	if !token.Expired(token.ExpiresAt) {
		t.Fatalf("token still valid at its expiry instant")
	}
	if !token.Expired(token.ExpiresAt.Add(time.Second)) {
		t.Fatalf("token still valid past expiry")
	}
}
