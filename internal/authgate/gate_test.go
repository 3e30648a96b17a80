package authgate

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dvloznov/wealth-ledger/internal/domain"
)

func TestGate_RoundTrip(t *testing.T) {
	gate := New([]byte("test-secret"))

	token, err := gate.IssueToken("user-42", time.Minute)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	req := httptest.NewRequest("GET", "/api/transactions", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	userID, err := gate.Authenticate(req)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if userID != "user-42" {
		t.Errorf("userID = %q, want user-42", userID)
	}
}

func TestGate_Rejections(t *testing.T) {
	gate := New([]byte("test-secret"))

	expired, err := gate.IssueToken("user-42", -time.Minute)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	foreign, err := New([]byte("other-secret")).IssueToken("user-42", time.Minute)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	tests := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"not a bearer token", "Basic dXNlcjpwYXNz"},
		{"garbage token", "Bearer not.a.token"},
		{"expired token", "Bearer " + expired},
		{"wrong signing key", "Bearer " + foreign},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/transactions", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			_, err := gate.Authenticate(req)
			if !errors.Is(err, domain.ErrUnauthorized) {
				t.Errorf("Authenticate = %v, want ErrUnauthorized", err)
			}
		})
	}
}
