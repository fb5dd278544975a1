package api

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/geo-martino/musify/internal/shared"
	"golang.org/x/oauth2"
)

func TestStaticAuthorizer(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the fixed token", func(t *testing.T) {
		auth := StaticAuthorizer("tok")

		token, err := auth.Credential(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if token != "tok" {
			t.Errorf("unexpected token %q", token)
		}

		refreshed, err := auth.Refresh(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if refreshed != "tok" {
			t.Errorf("unexpected token %q", refreshed)
		}
	})

	t.Run("empty token is an auth error", func(t *testing.T) {
		auth := StaticAuthorizer("")
		if _, err := auth.Credential(ctx); !errors.Is(err, shared.ErrAuth) {
			t.Fatalf("expected ErrAuth, got %v", err)
		}
	})
}

func TestNewOAuth(t *testing.T) {
	t.Run("requires client credentials", func(t *testing.T) {
		_, err := NewOAuth(shared.SpotifyConfig{ClientID: "id"})
		if !errors.Is(err, shared.ErrMissingCredentials) {
			t.Fatalf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("starts unauthenticated without a persisted token", func(t *testing.T) {
		auth, err := NewOAuth(shared.SpotifyConfig{
			ClientID:     "id",
			ClientSecret: "secret",
			TokenPath:    filepath.Join(t.TempDir(), "token.json"),
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if auth.Authenticated() {
			t.Error("expected no token to be loaded")
		}

		_, err = auth.Credential(context.Background())
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("loads a persisted token", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "token.json")
		token := &oauth2.Token{
			AccessToken:  "access",
			RefreshToken: "refresh",
			Expiry:       time.Now().Add(time.Hour),
		}
		data, err := json.Marshal(token)
		if err != nil {
			t.Fatalf("failed to marshal token: %v", err)
		}
		if err := os.WriteFile(path, data, 0600); err != nil {
			t.Fatalf("failed to write token: %v", err)
		}

		auth, err := NewOAuth(shared.SpotifyConfig{
			ClientID:     "id",
			ClientSecret: "secret",
			TokenPath:    path,
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !auth.Authenticated() {
			t.Fatal("expected the persisted token to be loaded")
		}

		credential, err := auth.Credential(context.Background())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if credential != "access" {
			t.Errorf("unexpected credential %q", credential)
		}
	})

	t.Run("refresh without a refresh token fails", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "token.json")
		data, err := json.Marshal(&oauth2.Token{AccessToken: "access", Expiry: time.Now().Add(time.Hour)})
		if err != nil {
			t.Fatalf("failed to marshal token: %v", err)
		}
		if err := os.WriteFile(path, data, 0600); err != nil {
			t.Fatalf("failed to write token: %v", err)
		}

		auth, err := NewOAuth(shared.SpotifyConfig{
			ClientID:     "id",
			ClientSecret: "secret",
			TokenPath:    path,
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		_, err = auth.Refresh(context.Background())
		if !errors.Is(err, shared.ErrNoRefreshToken) {
			t.Errorf("expected ErrNoRefreshToken, got %v", err)
		}
	})

	t.Run("builds the authorization URL", func(t *testing.T) {
		auth, err := NewOAuth(shared.SpotifyConfig{ClientID: "id", ClientSecret: "secret"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		authURL := auth.AuthURL("state123")
		if authURL == "" {
			t.Fatal("expected a non-empty URL")
		}
		for _, want := range []string{spotifyAuthURL, "state123", "client_id=id"} {
			if !strings.Contains(authURL, want) {
				t.Errorf("expected URL to contain %q: %s", want, authURL)
			}
		}
	})
}
