package auth

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"golang.org/x/oauth2"
)

const secretsJSON = `{"installed":{"client_id":"id.apps.googleusercontent.com","client_secret":"s3cret","auth_uri":"https://accounts.google.com/o/oauth2/auth","token_uri":"https://oauth2.googleapis.com/token","redirect_uris":["http://localhost"]}}`

func TestPinRedirect(t *testing.T) {
	log, _ := test.NewNullLogger()
	cases := map[string]string{
		"http://localhost":               "http://localhost:6789",
		"http://127.0.0.1:8080/cb":       "http://127.0.0.1:6789/cb",
		"urn:ietf:wg:oauth:2.0:oob":      "http://localhost:6789/oauth2callback",
		"https://example.com/oauth2/cb":  "https://example.com/oauth2/cb",
		"http://localhost:6789/callback": "http://localhost:6789/callback",
	}
	for in, want := range cases {
		if got := pinRedirect(in, log); got != want {
			t.Errorf("pinRedirect(%q): expected %q, got %q", in, want, got)
		}
	}
}

func TestConfigReadsSecrets(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ClientSecretsFile), []byte(secretsJSON), 0600); err != nil {
		t.Fatal(err)
	}
	log, _ := test.NewNullLogger()

	cfg, err := New(dir, log).Config(SheetsScopes)
	if err != nil {
		t.Fatalf("Config failed: %v", err)
	}
	if cfg.ClientID != "id.apps.googleusercontent.com" {
		t.Errorf("Unexpected client id %s", cfg.ClientID)
	}
	if cfg.RedirectURL != "http://localhost:6789" {
		t.Errorf("Expected pinned redirect, got %s", cfg.RedirectURL)
	}
}

func TestConfigMissingSecrets(t *testing.T) {
	if _, err := New(t.TempDir(), nil).Config(SheetsScopes); err == nil {
		t.Fatal("Expected error for missing credentials.json")
	}
}

func TestTokenRoundTripAndReset(t *testing.T) {
	dir := t.TempDir()
	a := New(dir, nil)
	tok := &oauth2.Token{AccessToken: "at", RefreshToken: "rt", Expiry: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)}

	if err := saveToken(a.TokenPath(), tok); err != nil {
		t.Fatalf("saveToken failed: %v", err)
	}
	got, err := tokenFromFile(a.TokenPath())
	if err != nil {
		t.Fatalf("tokenFromFile failed: %v", err)
	}
	if got.AccessToken != "at" || got.RefreshToken != "rt" || !got.Expiry.Equal(tok.Expiry) {
		t.Errorf("Unexpected token %+v", got)
	}

	if err := a.Reset(); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if _, err := os.Stat(a.TokenPath()); !os.IsNotExist(err) {
		t.Errorf("Expected token file removed, stat err=%v", err)
	}
	if err := a.Reset(); err != nil {
		t.Errorf("Reset on missing token should succeed, got %v", err)
	}
}
