package api

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Request describes one remote catalog call: method, endpoint path relative
// to the gateway base URL, query parameters, and an optional body.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   []byte
}

// Mutating reports whether the request can change remote state.
func (r Request) Mutating() bool {
	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	}
	return true
}

// Fingerprint returns the canonical cache key for the request.
//
// The key is a pure function of method, path, query parameters, and body:
// query keys and repeated values are sorted so two logically identical
// requests fingerprint identically regardless of insertion order. The
// "METHOD path" prefix is load-bearing: resource invalidation matches on
// it after mutating requests.
func (r Request) Fingerprint() string {
	var b strings.Builder
	b.WriteString(r.Method)
	b.WriteString(" ")
	b.WriteString(r.Path)

	if len(r.Query) > 0 {
		keys := make([]string, 0, len(r.Query))
		for key := range r.Query {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		b.WriteString("?")
		for i, key := range keys {
			values := append([]string(nil), r.Query[key]...)
			sort.Strings(values)
			for j, value := range values {
				if i > 0 || j > 0 {
					b.WriteString("&")
				}
				b.WriteString(url.QueryEscape(key))
				b.WriteString("=")
				b.WriteString(url.QueryEscape(value))
			}
		}
	}

	if len(r.Body) > 0 {
		sum := sha256.Sum256(r.Body)
		b.WriteString("#")
		b.WriteString(hex.EncodeToString(sum[:]))
	}

	return b.String()
}

// FingerprintPath extracts the "METHOD path" prefix of a fingerprint,
// dropping query and body components.
func FingerprintPath(fingerprint string) string {
	if i := strings.IndexAny(fingerprint, "?#"); i >= 0 {
		return fingerprint[:i]
	}
	return fingerprint
}

// Response is a parsed gateway response with HTTP status metadata.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte

	// Cached is true when the response was served from the response cache
	// without a network call.
	Cached bool
}

// JSON unmarshals the response body into v.
func (r *Response) JSON(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Throttled reports whether the response indicates the caller must slow down.
func (r *Response) Throttled() bool {
	return r.StatusCode == http.StatusTooManyRequests
}

// RetryAfter returns the server-provided retry-after duration, or zero when
// the header is absent or unparseable.
func (r *Response) RetryAfter() time.Duration {
	if r.Headers == nil {
		return 0
	}
	seconds, err := strconv.Atoi(r.Headers.Get("Retry-After"))
	if err != nil || seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
