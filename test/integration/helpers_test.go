package integration

import (
	"crypto/rand"
	"encoding/hex"
	"testing"

	"github.com/wrale/arcade-auth/pkg/client"
)

const testPassword = "integration-pass"

// newPlayer registers a fresh account and returns its logged-in session.
func newPlayer(t *testing.T, s *TestSuite) *client.Session {
	t.Helper()

	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		t.Fatalf("Failed to generate username: %v", err)
	}
	username := "it_" + hex.EncodeToString(buf)

	if err := s.Client.Register(s.Ctx, username, testPassword); err != nil {
		t.Fatalf("Registration failed: %v", err)
	}
	sess, err := s.Client.Login(s.Ctx, username, testPassword)
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	return sess
}

func startSuite(t *testing.T) *TestSuite {
	t.Helper()
	suite := NewSuite(t)
	if err := suite.WaitForServices(); err != nil {
		t.Fatalf("Failed waiting for services: %v", err)
	}
	return suite
}
