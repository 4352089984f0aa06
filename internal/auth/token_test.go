package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/telepoint/emi-portal/internal/core"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestManager_RoundTrip(t *testing.T) {
	m := NewManager(testSecret, "emi-portal", time.Hour)
	want := core.Principal{UserID: "u-7", Role: core.RoleRetailer, RetailerID: "r-1"}

	token, err := m.Issue(want)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	got, err := m.Validate(token)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if got != want {
		t.Errorf("Validate() = %+v, want %+v", got, want)
	}
}

func TestManager_Rejects(t *testing.T) {
	m := NewManager(testSecret, "emi-portal", time.Hour)
	good, err := m.Issue(core.Principal{UserID: "u-1", Role: core.RoleAdmin})
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	expired := NewManager(testSecret, "emi-portal", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, _ := expired.Issue(core.Principal{UserID: "u-1", Role: core.RoleAdmin})

	otherIssuer, _ := NewManager(testSecret, "someone-else", time.Hour).Issue(core.Principal{UserID: "u-1"})
	otherSecret, _ := NewManager(strings.Repeat("x", 32), "emi-portal", time.Hour).Issue(core.Principal{UserID: "u-1"})

	none := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: "u-1", Role: "super_admin"})
	unsigned, _ := none.SignedString(jwt.UnsafeAllowNoneSignatureType)

	goodParts := strings.Split(good, ".")
	forgedParts := strings.Split(otherSecret, ".")
	tampered := goodParts[0] + "." + goodParts[1] + "." + forgedParts[2]

	tests := map[string]string{
		"garbage":      "not-a-token",
		"tampered":     tampered,
		"expired":      old,
		"wrong issuer": otherIssuer,
		"wrong secret": otherSecret,
		"alg none":     unsigned,
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := m.Validate(token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("Validate() error = %v, want ErrInvalidToken", err)
			}
		})
	}
}
