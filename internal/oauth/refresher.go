// Package oauth refreshes Google OAuth access tokens for pooled accounts.
//
// Grounded on lodos2005-antimatter's internal/auth/token_manager.go
// (RefreshToken): a resty client posting to Google's token endpoint,
// detecting invalid_grant in the response body to signal permanent
// revocation rather than a transient failure.
package oauth

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	googleTokenURL   = "https://oauth2.googleapis.com/token"
	defaultClientID  = "681255809395-oo8ft2oprdrnp9e3aqf6avddgvv0l4zt.apps.googleusercontent.com"
	defaultSecret    = "" // supplied by config/environment in a real deployment
	refreshSkew      = 5 * time.Minute
)

// Result is a freshly minted access token.
type Result struct {
	AccessToken string
	ExpiresAt   time.Time
}

// RevokedError is returned when Google reports invalid_grant: the refresh
// token itself has been revoked and the account must be disabled.
type RevokedError struct {
	Body string
}

func (e *RevokedError) Error() string { return "oauth: refresh token revoked (invalid_grant)" }

// Refresher serializes concurrent refresh attempts per account so that only
// one network round trip is in flight at a time; other callers observing an
// expired token await the in-flight result instead of duplicating the call
// (§5 ordering guarantee).
type Refresher struct {
	client       *resty.Client
	clientID     string
	clientSecret string
	tokenURL     string

	mu       sync.Mutex
	inflight map[string]*call
}

type call struct {
	done   chan struct{}
	result Result
	err    error
}

// NewRefresher constructs a Refresher. Empty clientID/clientSecret fall back
// to the gateway's built-in OAuth client, matching public CLI OAuth clients
// that ship a client secret which is not actually secret.
func NewRefresher(clientID, clientSecret string) *Refresher {
	if clientID == "" {
		clientID = defaultClientID
	}
	if clientSecret == "" {
		clientSecret = defaultSecret
	}
	return &Refresher{
		client:       resty.New().SetTimeout(30 * time.Second),
		clientID:     clientID,
		clientSecret: clientSecret,
		tokenURL:     googleTokenURL,
		inflight:     make(map[string]*call),
	}
}

// NeedsRefresh reports whether a token expiring at expiresAt should be
// refreshed now, applying a safety skew ahead of actual expiry.
func NeedsRefresh(expiresAt time.Time) bool {
	return time.Now().After(expiresAt.Add(-refreshSkew))
}

// Refresh exchanges refreshToken for a new access token, deduplicating
// concurrent callers for the same accountID.
func (r *Refresher) Refresh(ctx context.Context, accountID, refreshToken string) (Result, error) {
	r.mu.Lock()
	if c, ok := r.inflight[accountID]; ok {
		r.mu.Unlock()
		<-c.done
		return c.result, c.err
	}
	c := &call{done: make(chan struct{})}
	r.inflight[accountID] = c
	r.mu.Unlock()

	c.result, c.err = r.doRefresh(ctx, refreshToken)

	r.mu.Lock()
	delete(r.inflight, accountID)
	r.mu.Unlock()
	close(c.done)

	return c.result, c.err
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

func (r *Refresher) doRefresh(ctx context.Context, refreshToken string) (Result, error) {
	var out tokenResponse
	resp, err := r.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"client_id":     r.clientID,
			"client_secret": r.clientSecret,
			"refresh_token": refreshToken,
			"grant_type":    "refresh_token",
		}).
		SetResult(&out).
		Post(r.tokenURL)
	if err != nil {
		return Result{}, fmt.Errorf("oauth: token refresh request failed: %w", err)
	}
	if !resp.IsSuccess() {
		if strings.Contains(resp.String(), "invalid_grant") {
			return Result{}, &RevokedError{Body: resp.String()}
		}
		return Result{}, fmt.Errorf("oauth: token refresh rejected: status=%d body=%s", resp.StatusCode(), resp.String())
	}
	return Result{
		AccessToken: out.AccessToken,
		ExpiresAt:   time.Now().Add(time.Duration(out.ExpiresIn) * time.Second),
	}, nil
}
