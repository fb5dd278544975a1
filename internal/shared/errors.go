package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")

	// Authentication errors
	ErrAuth             = fmt.Errorf("authorization failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTokenExpired     = fmt.Errorf("access token expired")
	ErrRefreshFailed    = fmt.Errorf("token refresh failed")
	ErrNoRefreshToken   = fmt.Errorf("no refresh token available")

	// Gateway errors
	ErrNetwork     = fmt.Errorf("network request failed")
	ErrRateLimited = fmt.Errorf("rate limit retries exhausted")
	ErrAPIRequest  = fmt.Errorf("API request failed")

	// Matcher terminal states. ErrNoMatch means the matcher ran to
	// completion and no tier accepted a candidate; it is distinct from a
	// gateway failure aborting the match.
	ErrNoMatch          = fmt.Errorf("no matching catalog item found")
	ErrPlaylistNotFound = fmt.Errorf("playlist not found")
	ErrTrackNotFound    = fmt.Errorf("track not found")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
