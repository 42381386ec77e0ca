package amazon

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"merchant-analytics-layer/internal/infrastructure/metrics"
	"merchant-analytics-layer/internal/infrastructure/retry"
	"merchant-analytics-layer/internal/ports"
)

// DefaultAdsBaseURL is the Amazon Ads API endpoint (EU).
const DefaultAdsBaseURL = "https://advertising-api-eu.amazon.com"

// ReportSpec parameterizes the report request so every caller shares one
// pipeline instead of re-deriving endpoint and column choices.
type ReportSpec struct {
	Name         string
	ReportTypeID string
	AdProduct    string
	GroupBy      []string
	Columns      []string
	Format       string
}

// SPCampaignsReport is the daily sponsored-products campaign report.
func SPCampaignsReport() ReportSpec {
	return ReportSpec{
		Name:         "sp-campaigns-daily",
		ReportTypeID: "spCampaigns",
		AdProduct:    "SPONSORED_PRODUCTS",
		GroupBy:      []string{"campaign"},
		Columns: []string{
			"campaignId", "campaignName", "impressions", "clicks", "cost",
			"sales14d", "unitsSoldClicks14d", "purchases14d",
			"acosClicks14d", "roasClicks14d",
		},
		Format: "GZIP_JSON",
	}
}

// PollConfig bounds the status-poll loop.
type PollConfig struct {
	// MaxChecks is the iteration budget; 429 responses do not consume it.
	MaxChecks int
	// Interval is slept before every status check.
	Interval time.Duration
	// RateLimitSleep is the extended sleep after a 429.
	RateLimitSleep time.Duration
}

// DefaultPollConfig matches the provider's documented report latency.
func DefaultPollConfig() PollConfig {
	return PollConfig{
		MaxChecks:      24,
		Interval:       5 * time.Second,
		RateLimitSleep: 10 * time.Second,
	}
}

// AdsClient implements the create/poll/download triad against the Amazon
// Ads reporting API.
type AdsClient struct {
	baseURL    string
	profileID  string
	spec       ReportSpec
	tokens     ports.TokenProvider
	httpClient *http.Client
	poll       PollConfig
	logger     zerolog.Logger
	sleep      func(ctx context.Context, d time.Duration) error
}

// NewAdsClient creates a client scoped to one profile and report spec.
func NewAdsClient(tokens ports.TokenProvider, profileID string, spec ReportSpec, logger zerolog.Logger) *AdsClient {
	return &AdsClient{
		baseURL:    DefaultAdsBaseURL,
		profileID:  profileID,
		spec:       spec,
		tokens:     tokens,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		poll:       DefaultPollConfig(),
		logger:     logger,
		sleep:      retry.Sleep,
	}
}

// WithBaseURL overrides the API endpoint (tests inject a fake server).
func (c *AdsClient) WithBaseURL(u string) *AdsClient {
	c.baseURL = u
	return c
}

// WithPollConfig overrides the poll loop bounds.
func (c *AdsClient) WithPollConfig(cfg PollConfig) *AdsClient {
	c.poll = cfg
	return c
}

// WithSleeper overrides the sleep function (tests record sleeps instead).
func (c *AdsClient) WithSleeper(sleep func(ctx context.Context, d time.Duration) error) *AdsClient {
	c.sleep = sleep
	return c
}

func (c *AdsClient) authHeaders(ctx context.Context, req *http.Request) error {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Amazon-Advertising-API-ClientId", c.profileClientID())
	req.Header.Set("Amazon-Advertising-API-Scope", c.profileID)
	return nil
}

// profileClientID: the Ads API wants the LWA client id header; the token
// source owns it, so expose it through the provider when available.
func (c *AdsClient) profileClientID() string {
	if ts, ok := c.tokens.(*TokenSource); ok {
		return ts.clientID
	}
	return ""
}

// CreateReport requests an async report covering a single day.
func (c *AdsClient) CreateReport(ctx context.Context, date string) (string, error) {
	body := map[string]any{
		"name":      fmt.Sprintf("%s %s", c.spec.Name, date),
		"startDate": date,
		"endDate":   date,
		"configuration": map[string]any{
			"adProduct":    c.spec.AdProduct,
			"groupBy":      c.spec.GroupBy,
			"columns":      c.spec.Columns,
			"reportTypeId": c.spec.ReportTypeID,
			"timeUnit":     "DAILY",
			"format":       c.spec.Format,
		},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal report request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/reporting/reports", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create report request: %w", err)
	}
	req.Header.Set("Content-Type", "application/vnd.createasyncreportrequest.v3+json")
	if err := c.authHeaders(ctx, req); err != nil {
		return "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call create report: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(resp.Body)
		return "", &ReportCreationError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var created struct {
		ReportID string `json:"reportId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", fmt.Errorf("failed to decode create report response: %w", err)
	}

	c.logger.Debug().Str("reportId", created.ReportID).Str("date", date).Msg("Created async report")
	return created.ReportID, nil
}

// PollReport polls the report status until completion, failure, or the
// iteration budget runs out. A 429 sleeps the extended interval and retries
// the same iteration without consuming it.
func (c *AdsClient) PollReport(ctx context.Context, reportID string) (string, error) {
	for check := 0; check < c.poll.MaxChecks; check++ {
		if err := c.sleep(ctx, c.poll.Interval); err != nil {
			return "", err
		}

		status, downloadURL, reason, err := c.reportStatus(ctx, reportID)
		if err != nil {
			var rl *RateLimitError
			if errors.As(err, &rl) {
				metrics.RateLimited.WithLabelValues("amazon-ads").Inc()
				check-- // retry the same iteration
				if err := c.sleep(ctx, c.poll.RateLimitSleep); err != nil {
					return "", err
				}
				continue
			}
			return "", err
		}

		switch status {
		case "PENDING", "PROCESSING", "IN_PROGRESS":
			continue
		case "COMPLETED", "SUCCESS", "DONE":
			return downloadURL, nil
		default:
			return "", &ReportFailedError{ReportID: reportID, Status: status, Reason: reason}
		}
	}
	return "", &ReportTimeoutError{ReportID: reportID, Attempts: c.poll.MaxChecks}
}

func (c *AdsClient) reportStatus(ctx context.Context, reportID string) (status, url, reason string, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/reporting/reports/"+reportID, nil)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to create status request: %w", err)
	}
	if err := c.authHeaders(ctx, req); err != nil {
		return "", "", "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to call report status: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", "", "", &RateLimitError{Endpoint: "reporting/reports"}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return "", "", "", fmt.Errorf("report status returned %d: %s", resp.StatusCode, string(body))
	}

	var st struct {
		Status        string `json:"status"`
		URL           string `json:"url"`
		FailureReason string `json:"failureReason"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return "", "", "", fmt.Errorf("failed to decode report status: %w", err)
	}
	return st.Status, st.URL, st.FailureReason, nil
}

// DownloadReport fetches the pre-signed URL (unauthenticated) and
// gunzip-parses the JSON row array.
func (c *AdsClient) DownloadReport(ctx context.Context, url string) ([]map[string]any, error) {
	return downloadRows(ctx, c.httpClient, url, true)
}

// downloadRows is shared by the Ads and SP-API document paths.
func downloadRows(ctx context.Context, client *http.Client, url string, gzipped bool) ([]map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &DownloadError{URL: url, Err: err}
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &DownloadError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return nil, &DownloadError{URL: url, Err: fmt.Errorf("status %d: %s", resp.StatusCode, string(body))}
	}

	var reader io.Reader = resp.Body
	if gzipped {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, &DownloadError{URL: url, Err: err}
		}
		defer gz.Close()
		reader = gz
	}

	var rows []map[string]any
	if err := json.NewDecoder(reader).Decode(&rows); err != nil {
		return nil, &DownloadError{URL: url, Err: err}
	}
	return rows, nil
}
