package amazon

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// DefaultTokenURL is the LWA refresh-token grant endpoint.
const DefaultTokenURL = "https://api.amazon.com/auth/o2/token"

// expirySkew refreshes tokens slightly before the provider expiry.
const expirySkew = 60 * time.Second

// TokenSource holds one bearer token in memory and refreshes it via the
// refresh-token grant when absent or within 60 seconds of expiry. The token
// is never persisted.
//
// No concurrency guard: the pipeline is single-threaded, and a duplicate
// refresh is harmless on the provider side.
type TokenSource struct {
	clientID     string
	clientSecret string
	refreshToken string
	tokenURL     string
	httpClient   *http.Client
	logger       zerolog.Logger
	now          func() time.Time

	token  string
	expiry time.Time
}

// NewTokenSource creates a token source for one set of LWA credentials.
func NewTokenSource(clientID, clientSecret, refreshToken string, logger zerolog.Logger) *TokenSource {
	return &TokenSource{
		clientID:     clientID,
		clientSecret: clientSecret,
		refreshToken: refreshToken,
		tokenURL:     DefaultTokenURL,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		logger:       logger,
		now:          time.Now,
	}
}

// WithTokenURL overrides the token endpoint (tests inject a fake server).
func (ts *TokenSource) WithTokenURL(u string) *TokenSource {
	ts.tokenURL = u
	return ts
}

// WithClock overrides the clock (tests inject a fake one).
func (ts *TokenSource) WithClock(now func() time.Time) *TokenSource {
	ts.now = now
	return ts
}

// Token returns the cached access token, refreshing it when expired or absent.
func (ts *TokenSource) Token(ctx context.Context) (string, error) {
	if ts.token != "" && ts.now().Before(ts.expiry) {
		return ts.token, nil
	}

	values := url.Values{}
	values.Set("grant_type", "refresh_token")
	values.Set("refresh_token", ts.refreshToken)
	values.Set("client_id", ts.clientID)
	values.Set("client_secret", ts.clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ts.tokenURL, strings.NewReader(values.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := ts.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call token endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return "", &AuthError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var tokenResponse struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResponse); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}

	ts.token = tokenResponse.AccessToken
	ts.expiry = ts.now().Add(time.Duration(tokenResponse.ExpiresIn)*time.Second - expirySkew)

	ts.logger.Debug().
		Time("expiry", ts.expiry).
		Msg("Refreshed access token")

	return ts.token, nil
}
