package testutil

import (
	"testing"
	"time"

	"github.com/bissquit/meetup-hub/internal/identity/jwt"
)

// TestJWTSecret signs tokens in tests.
const TestJWTSecret = "test-secret-key"

// TestJWTIssuer is the issuer tests configure.
const TestJWTIssuer = "meetup-hub-test"

// IssueToken signs an hour-long access token for userID.
func IssueToken(t *testing.T, userID string) string {
	t.Helper()

	token, err := jwt.NewAuthenticator(jwt.Config{
		SecretKey: TestJWTSecret,
		Issuer:    TestJWTIssuer,
	}).IssueAccessToken(userID, time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token
}
