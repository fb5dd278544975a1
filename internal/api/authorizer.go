package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/geo-martino/musify/internal/shared"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
)

// Authorizer produces credentials for outgoing gateway requests.
//
// Credential returns a valid bearer token, refreshing transparently when
// the current one has expired. Refresh forces a refresh. Both fail with an
// error wrapping [shared.ErrAuth] when no valid credential can be produced
// without user interaction.
type Authorizer interface {
	Credential(ctx context.Context) (string, error)
	Refresh(ctx context.Context) (string, error)
}

// StaticAuthorizer returns a fixed token. Useful for tests and short-lived
// tokens supplied out of band.
type StaticAuthorizer string

func (s StaticAuthorizer) Credential(context.Context) (string, error) {
	if s == "" {
		return "", fmt.Errorf("%w: empty token", shared.ErrAuth)
	}
	return string(s), nil
}

func (s StaticAuthorizer) Refresh(ctx context.Context) (string, error) {
	return s.Credential(ctx)
}

// OAuth is an Authorizer backed by the OAuth2 authorization code flow.
//
// Tokens are persisted to a file so the refresh token survives restarts.
// Login runs the interactive flow; Credential and Refresh only ever work
// with the stored token and fail rather than prompt.
type OAuth struct {
	config    *oauth2.Config
	tokenPath string

	mu     sync.Mutex
	token  *oauth2.Token
	source oauth2.TokenSource
}

// NewOAuth creates an OAuth authorizer from Spotify credentials, loading a
// previously persisted token when one exists.
func NewOAuth(creds shared.SpotifyConfig) (*OAuth, error) {
	if creds.ClientID == "" || creds.ClientSecret == "" {
		return nil, fmt.Errorf("%w: client_id and client_secret are required", shared.ErrMissingCredentials)
	}

	redirectURI := creds.RedirectURI
	if redirectURI == "" {
		redirectURI = "http://localhost:8080/callback"
	}

	config := &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		RedirectURL:  redirectURI,
		Scopes: []string{
			"user-read-private",
			"playlist-read-private",
			"playlist-read-collaborative",
			"playlist-modify-private",
			"playlist-modify-public",
			"user-library-read",
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	a := &OAuth{config: config, tokenPath: creds.TokenPath}
	if token, err := a.loadToken(); err == nil {
		a.setToken(token)
	}
	return a, nil
}

// Credential returns a valid access token, refreshing via the token source
// when the current one has expired.
func (a *OAuth) Credential(ctx context.Context) (string, error) {
	a.mu.Lock()
	source := a.source
	a.mu.Unlock()

	if source == nil {
		return "", fmt.Errorf("%w: %w: run auth login first", shared.ErrAuth, shared.ErrNotAuthenticated)
	}

	token, err := source.Token()
	if err != nil {
		return "", fmt.Errorf("%w: %w: %v", shared.ErrAuth, shared.ErrRefreshFailed, err)
	}

	a.persist(token)
	return token.AccessToken, nil
}

// Refresh forces a token refresh regardless of the current token's expiry.
func (a *OAuth) Refresh(ctx context.Context) (string, error) {
	a.mu.Lock()
	token := a.token
	a.mu.Unlock()

	if token == nil {
		return "", fmt.Errorf("%w: %w", shared.ErrAuth, shared.ErrNotAuthenticated)
	}
	if token.RefreshToken == "" {
		return "", fmt.Errorf("%w: %w", shared.ErrAuth, shared.ErrNoRefreshToken)
	}

	stale := *token
	stale.Expiry = time.Now().Add(-time.Minute)
	refreshed, err := a.config.TokenSource(ctx, &stale).Token()
	if err != nil {
		return "", fmt.Errorf("%w: %w: %v", shared.ErrAuth, shared.ErrRefreshFailed, err)
	}

	a.setToken(refreshed)
	a.persist(refreshed)
	return refreshed.AccessToken, nil
}

// AuthURL returns the authorization URL for user login with the given state.
func (a *OAuth) AuthURL(state string) string {
	return a.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Login runs the interactive authorization code flow: it opens the user's
// browser and captures the callback on a loopback listener at the
// configured redirect URI, then exchanges and persists the token.
func (a *OAuth) Login(ctx context.Context) error {
	redirect, err := url.Parse(a.config.RedirectURL)
	if err != nil {
		return fmt.Errorf("%w: invalid redirect_uri: %v", shared.ErrInvalidConfig, err)
	}

	state := shared.GenerateID()
	type callback struct {
		code string
		err  error
	}
	results := make(chan callback, 1)

	mux := http.NewServeMux()
	path := redirect.Path
	if path == "" {
		path = "/"
	}
	mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("state") != state {
			results <- callback{err: fmt.Errorf("%w: state mismatch", shared.ErrAuth)}
			http.Error(w, "Invalid state parameter", http.StatusBadRequest)
			return
		}
		code := r.URL.Query().Get("code")
		if code == "" {
			results <- callback{err: fmt.Errorf("%w: %s", shared.ErrAuth, r.URL.Query().Get("error"))}
			http.Error(w, "Authorization failed", http.StatusBadRequest)
			return
		}
		fmt.Fprintln(w, "Authorized. You can close this tab.")
		results <- callback{code: code}
	})

	listener, err := net.Listen("tcp", redirect.Host)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", redirect.Host, err)
	}
	server := &http.Server{Handler: mux}
	go server.Serve(listener)
	defer server.Close()

	if err := shared.OpenBrowser(a.AuthURL(state)); err != nil {
		return err
	}

	var cb callback
	select {
	case <-ctx.Done():
		return ctx.Err()
	case cb = <-results:
	}
	if cb.err != nil {
		return cb.err
	}

	token, err := a.config.Exchange(ctx, cb.code)
	if err != nil {
		return fmt.Errorf("%w: failed to exchange auth code: %v", shared.ErrAuth, err)
	}

	a.setToken(token)
	a.persist(token)
	return nil
}

// Authenticated reports whether a token is loaded.
func (a *OAuth) Authenticated() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.token != nil
}

func (a *OAuth) setToken(token *oauth2.Token) {
	a.mu.Lock()
	a.token = token
	a.source = a.config.TokenSource(context.Background(), token)
	a.mu.Unlock()
}

func (a *OAuth) loadToken() (*oauth2.Token, error) {
	if a.tokenPath == "" {
		return nil, shared.ErrNotAuthenticated
	}
	data, err := os.ReadFile(a.tokenPath)
	if err != nil {
		return nil, err
	}
	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, err
	}
	return &token, nil
}

func (a *OAuth) persist(token *oauth2.Token) {
	if a.tokenPath == "" || token == nil {
		return
	}

	a.mu.Lock()
	a.token = token
	a.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(a.tokenPath), 0700); err != nil {
		return
	}
	data, err := json.Marshal(token)
	if err != nil {
		return
	}
	_ = os.WriteFile(a.tokenPath, data, 0600)
}
