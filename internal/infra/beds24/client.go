// Package beds24 is the channel manager client for the Beds24 API v2.
package beds24

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"stayhub/internal/pkg/clock"
	"stayhub/internal/pkg/config"
	"stayhub/internal/pkg/errs"
	"stayhub/internal/usecase/shared"

	"golang.org/x/time/rate"
)

const (
	// Tokens are cached this long before the server-side expiry.
	tokenSafetyMargin = 120 * time.Second
	maxErrorBody      = 512
)

var ErrNoRefreshToken = errs.MarkNew("beds24 refresh token is not configured", errs.ErrPermanentIntegration)

type Client struct {
	baseURL      string
	refreshToken string
	httpClient   *http.Client
	rateLimiter  *rate.Limiter
	cache        shared.Cache
	clock        clock.Clock
	logger       *slog.Logger

	mu     sync.Mutex
	token  string
	expiry time.Time
}

var _ shared.ChannelManager = (*Client)(nil)

func NewClient(cfg config.Beds24Config, cache shared.Cache, clk clock.Clock, logger *slog.Logger) *Client {
	limit := rate.Inf
	if cfg.RatePerSec > 0 {
		limit = rate.Limit(cfg.RatePerSec)
	}
	burst := cfg.RateBurst
	if burst < 1 {
		burst = 1
	}
	return &Client{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		refreshToken: cfg.RefreshToken,
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		rateLimiter:  rate.NewLimiter(limit, burst),
		cache:        cache,
		clock:        clk,
		logger:       logger.With(slog.String("component", "beds24")),
	}
}

type cachedToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type tokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expiresIn"`
}

// accessToken returns a valid access token, trying memory, then the shared
// cache, then the refresh token exchange.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	if c.token != "" && now.Before(c.expiry) {
		return c.token, nil
	}

	var cached cachedToken
	hit, err := c.cache.Get(ctx, shared.ChannelTokenKey, &cached)
	if err != nil {
		c.logger.Warn("token cache read failed", slog.String("error", err.Error()))
	} else if hit && cached.Token != "" && now.Before(cached.ExpiresAt) {
		c.token, c.expiry = cached.Token, cached.ExpiresAt
		return c.token, nil
	}

	if c.refreshToken == "" {
		return "", ErrNoRefreshToken
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/authentication/token", nil)
	if err != nil {
		return "", errs.Mark(errs.Wrap(err, "failed to build token request"), errs.ErrPermanentIntegration)
	}
	req.Header.Set("accept", "application/json")
	req.Header.Set("refreshToken", c.refreshToken)

	var tr tokenResponse
	if err := c.send(ctx, req, &tr); err != nil {
		return "", errs.Wrap(err, "failed to authenticate with beds24")
	}
	if tr.Token == "" {
		return "", errs.MarkNew("beds24 returned an empty access token", errs.ErrTransientIntegration)
	}

	ttl := time.Duration(tr.ExpiresIn)*time.Second - tokenSafetyMargin
	if ttl <= 0 {
		ttl = time.Duration(tr.ExpiresIn) * time.Second / 2
	}
	c.token, c.expiry = tr.Token, now.Add(ttl)

	if err := c.cache.Set(ctx, shared.ChannelTokenKey, cachedToken{Token: c.token, ExpiresAt: c.expiry}, ttl); err != nil {
		c.logger.Warn("token cache write failed", slog.String("error", err.Error()))
	}
	return c.token, nil
}

// dropToken forgets a token the API rejected.
func (c *Client) dropToken(ctx context.Context) {
	c.mu.Lock()
	c.token, c.expiry = "", time.Time{}
	c.mu.Unlock()
	if err := c.cache.Delete(ctx, shared.ChannelTokenKey); err != nil {
		c.logger.Warn("token cache delete failed", slog.String("error", err.Error()))
	}
}

// call performs an authenticated API request and decodes the JSON response into out.
func (c *Client) call(ctx context.Context, method, path string, query url.Values, body, out any) error {
	token, err := c.accessToken(ctx)
	if err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return errs.Mark(errs.Wrap(err, "failed to encode request"), errs.ErrPermanentIntegration)
		}
		reader = bytes.NewReader(raw)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return errs.Mark(errs.Wrap(err, "failed to build request"), errs.ErrPermanentIntegration)
	}
	req.Header.Set("accept", "application/json")
	req.Header.Set("token", token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	err = c.send(ctx, req, out)
	var se *statusError
	if errors.As(err, &se) && se.code == http.StatusUnauthorized {
		c.dropToken(ctx)
	}
	return err
}

func (c *Client) send(ctx context.Context, req *http.Request, out any) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return errs.Mark(errs.Wrap(err, "rate limit wait"), errs.ErrTransientIntegration)
	}

	start := c.clock.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errs.Mark(errs.Wrapf(err, "%s %s", req.Method, req.URL.Path), errs.ErrTransientIntegration)
	}
	defer resp.Body.Close()

	c.logger.Debug("beds24 request",
		slog.String("method", req.Method),
		slog.String("path", req.URL.Path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", c.clock.Now().Sub(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return classifyStatus(req, resp.StatusCode, snippet)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errs.Mark(errs.Wrapf(err, "failed to decode %s response", req.URL.Path), errs.ErrTransientIntegration)
	}
	return nil
}

type statusError struct {
	code int
	msg  string
}

func (e *statusError) Error() string { return e.msg }

// classifyStatus treats throttling, auth expiry and server errors as retryable.
func classifyStatus(req *http.Request, code int, body []byte) error {
	se := &statusError{
		code: code,
		msg:  fmt.Sprintf("beds24 %s %s returned %d: %s", req.Method, req.URL.Path, code, strings.TrimSpace(string(body))),
	}
	switch {
	case code >= 500, code == http.StatusTooManyRequests, code == http.StatusUnauthorized, code == http.StatusRequestTimeout:
		return errs.Mark(se, errs.ErrTransientIntegration)
	default:
		return errs.Mark(se, errs.ErrPermanentIntegration)
	}
}
