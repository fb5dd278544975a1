// Package api implements the shared remote gateway: every catalog call
// goes through [Handler.Do], which composes the response cache, the rate
// limiter, and an authorization provider into one request contract.
package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/geo-martino/musify/internal/cache"
	"github.com/geo-martino/musify/internal/shared"
)

// Shape identifies one cacheable request shape by method and path prefix,
// with the TTL to apply to stored responses. A zero TTL keeps entries
// until explicitly invalidated.
type Shape struct {
	Method string
	Prefix string
	TTL    time.Duration
}

// Handler executes requests against one remote source.
//
// The rate limiter and the response cache are shared across every
// concurrent caller of the same source; the handler itself holds no other
// mutable state and is safe for concurrent use.
type Handler struct {
	baseURL string
	client  *http.Client
	auth    Authorizer
	limiter *Limiter
	store   cache.Store
	shapes  []Shape

	timeout         time.Duration
	networkRetries  int
	throttleRetries int

	logger *log.Logger
}

// HandlerOpts contains configuration for creating a Handler.
type HandlerOpts struct {
	BaseURL string
	Client  *http.Client
	Auth    Authorizer
	Limiter *Limiter
	Store   cache.Store
	Shapes  []Shape

	Timeout         time.Duration
	NetworkRetries  int
	ThrottleRetries int

	Logger *log.Logger
}

// NewHandler creates a Handler with the provided options, applying defaults
// for anything unset.
func NewHandler(opts HandlerOpts) *Handler {
	if opts.Client == nil {
		opts.Client = http.DefaultClient
	}
	if opts.Limiter == nil {
		opts.Limiter = NewLimiter(0, 0, 0)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.NetworkRetries <= 0 {
		opts.NetworkRetries = 3
	}
	if opts.ThrottleRetries <= 0 {
		opts.ThrottleRetries = 10
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	return &Handler{
		baseURL:         strings.TrimRight(opts.BaseURL, "/"),
		client:          opts.Client,
		auth:            opts.Auth,
		limiter:         opts.Limiter,
		store:           opts.Store,
		shapes:          opts.Shapes,
		timeout:         opts.Timeout,
		networkRetries:  opts.NetworkRetries,
		throttleRetries: opts.ThrottleRetries,
		logger:          opts.Logger,
	}
}

// Limiter exposes the shared rate limiter, for callers that need to
// inspect backoff state.
func (h *Handler) Limiter() *Limiter {
	return h.limiter
}

// Do executes one logical request.
//
// Cacheable requests are served from the response cache when possible.
// Otherwise the request is authorized, paced by the rate limiter, sent,
// and retried on throttling or transient transport failure within the
// configured budgets. A successful mutating request invalidates cached
// reads of the same resource.
func (h *Handler) Do(ctx context.Context, req Request) (*Response, error) {
	fingerprint := req.Fingerprint()
	logger := h.logger.With("request_id", shared.GenerateID(), "request", FingerprintPath(fingerprint))

	shape, cacheable := h.cacheableShape(req)
	if cacheable && h.store != nil {
		if payload, ok := h.store.Get(ctx, fingerprint); ok {
			logger.Debug("cache hit")
			return &Response{StatusCode: http.StatusOK, Body: payload, Cached: true}, nil
		}
	}

	token := ""
	if h.auth != nil {
		var err error
		token, err = h.auth.Credential(ctx)
		if err != nil {
			return nil, err
		}
	}

	networkBudget := h.networkRetries
	throttleBudget := h.throttleRetries
	refreshed := false

	for {
		if err := h.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		resp, err := h.send(ctx, req, token)
		if err != nil {
			if ctx.Err() != nil {
				// The request may have reached the server and been
				// throttled there; the response is lost, so record a
				// pessimistic throttle rather than drop the signal.
				h.limiter.Bump()
				return nil, ctx.Err()
			}
			networkBudget--
			if networkBudget < 0 {
				return nil, fmt.Errorf("%w: %v", shared.ErrNetwork, err)
			}
			logger.Warnf("transport failure, %d retries left: %v", networkBudget, err)
			continue
		}

		h.limiter.Observe(resp.Throttled(), resp.RetryAfter())

		if resp.Throttled() {
			throttleBudget--
			if throttleBudget < 0 {
				return nil, fmt.Errorf("%w: gave up after %d attempts", shared.ErrRateLimited, h.throttleRetries)
			}
			logger.Warnf("throttled, waiting %s before retry", h.limiter.CurrentWait())
			continue
		}

		if resp.StatusCode == http.StatusUnauthorized && h.auth != nil && !refreshed {
			refreshed = true
			token, err = h.auth.Refresh(ctx)
			if err != nil {
				return nil, err
			}
			logger.Debug("credential refreshed after 401")
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return resp, fmt.Errorf("%w: status %d", shared.ErrAPIRequest, resp.StatusCode)
		}

		if cacheable && h.store != nil {
			if err := h.store.Put(ctx, fingerprint, resp.Body, shape.TTL); err != nil {
				logger.Warnf("failed to cache response: %v", err)
			}
		}
		if req.Mutating() && h.store != nil {
			h.invalidateResource(ctx, req.Path, logger)
		}

		return resp, nil
	}
}

// send performs one network attempt with a bounded timeout. Cancellation
// after the request went out is handled by the caller, which bumps the
// limiter so backoff signal is never silently dropped.
func (h *Handler) send(ctx context.Context, req Request, token string) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	target := h.baseURL + req.Path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return &Response{StatusCode: resp.StatusCode, Headers: resp.Header, Body: payload}, nil
}

func (h *Handler) cacheableShape(req Request) (Shape, bool) {
	if req.Mutating() {
		return Shape{}, false
	}
	for _, shape := range h.shapes {
		if shape.Method == req.Method && strings.HasPrefix(req.Path, shape.Prefix) {
			return shape, true
		}
	}
	return Shape{}, false
}

// invalidateResource drops cached reads overlapping the mutated resource
// path: both reads of the path itself (and below) and reads of any
// ancestor resource, so adding to /playlists/{id}/tracks also drops a
// cached /playlists/{id}. Overlap is decided on whole path segments, so
// /playlists/1 never matches /playlists/10.
func (h *Handler) invalidateResource(ctx context.Context, path string, logger *log.Logger) {
	subsumes := func(ancestor, descendant string) bool {
		return ancestor == descendant || strings.HasPrefix(descendant, ancestor+"/")
	}
	pred := func(fingerprint string) bool {
		if !strings.HasPrefix(fingerprint, http.MethodGet+" ") {
			return false
		}
		cached := strings.TrimPrefix(FingerprintPath(fingerprint), http.MethodGet+" ")
		return subsumes(path, cached) || subsumes(cached, path)
	}
	if err := h.store.Invalidate(ctx, pred); err != nil {
		logger.Warnf("failed to invalidate cached reads for %s: %v", path, err)
	}
}
