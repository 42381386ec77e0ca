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

// DefaultSPAPIEndpoint is the SP-API endpoint (EU).
const DefaultSPAPIEndpoint = "https://sellingpartnerapi-eu.amazon.com"

const reportsPath = "/reports/2021-06-30"

// SPAPIClient implements the SP-API reports triad for the daily sales &
// traffic report. Every call goes through a capped-exponential retry on 429,
// including status polls.
type SPAPIClient struct {
	endpoint      string
	marketplaceID string
	tokens        ports.TokenProvider
	httpClient    *http.Client
	rateLimited   retry.Policy
	poll          PollConfig
	logger        zerolog.Logger
	sleep         func(ctx context.Context, d time.Duration) error
}

// NewSPAPIClient creates a client scoped to one marketplace.
func NewSPAPIClient(tokens ports.TokenProvider, endpoint, marketplaceID string, logger zerolog.Logger) *SPAPIClient {
	if endpoint == "" {
		endpoint = DefaultSPAPIEndpoint
	}
	return &SPAPIClient{
		endpoint:      endpoint,
		marketplaceID: marketplaceID,
		tokens:        tokens,
		httpClient:    &http.Client{Timeout: 60 * time.Second},
		rateLimited: retry.Policy{
			MaxAttempts: 6,
			Backoff:     retry.Exponential(2*time.Second, 32*time.Second),
			Retryable: func(err error) bool {
				var rl *RateLimitError
				return errors.As(err, &rl)
			},
		},
		poll: PollConfig{
			MaxChecks:      30,
			Interval:       10 * time.Second,
			RateLimitSleep: 20 * time.Second,
		},
		logger: logger,
		sleep:  retry.Sleep,
	}
}

// WithPollConfig overrides the poll loop bounds.
func (c *SPAPIClient) WithPollConfig(cfg PollConfig) *SPAPIClient {
	c.poll = cfg
	return c
}

// WithRetryPolicy overrides the 429 retry policy.
func (c *SPAPIClient) WithRetryPolicy(p retry.Policy) *SPAPIClient {
	c.rateLimited = p
	return c
}

// WithSleeper overrides the sleep function used between polls.
func (c *SPAPIClient) WithSleeper(sleep func(ctx context.Context, d time.Duration) error) *SPAPIClient {
	c.sleep = sleep
	return c
}

// do performs one SP-API call under the 429 retry policy and decodes the
// JSON response into out.
func (c *SPAPIClient) do(ctx context.Context, method, path string, body []byte, out any) error {
	return c.rateLimited.Do(ctx, func() error {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, reader)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return err
		}
		req.Header.Set("x-amz-access-token", token)
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("failed to call %s: %w", path, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests {
			metrics.RateLimited.WithLabelValues("amazon-sp-api").Inc()
			c.logger.Warn().Str("path", path).Msg("SP-API rate limited, backing off")
			return &RateLimitError{Endpoint: path}
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			respBody, _ := io.ReadAll(resp.Body)
			return fmt.Errorf("%s returned %d: %s", path, resp.StatusCode, string(respBody))
		}
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode %s response: %w", path, err)
		}
		return nil
	})
}

// CreateReport requests the sales & traffic report for one calendar date.
func (c *SPAPIClient) CreateReport(ctx context.Context, date string) (string, error) {
	body, err := json.Marshal(map[string]any{
		"reportType":     "GET_SALES_AND_TRAFFIC_REPORT",
		"marketplaceIds": []string{c.marketplaceID},
		"dataStartTime":  date + "T00:00:00Z",
		"dataEndTime":    date + "T23:59:59Z",
		"reportOptions": map[string]string{
			"asinGranularity": "CHILD",
			"dateGranularity": "DAY",
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal report request: %w", err)
	}

	var created struct {
		ReportID string `json:"reportId"`
	}
	if err := c.do(ctx, http.MethodPost, reportsPath+"/reports", body, &created); err != nil {
		return "", &ReportCreationError{Body: err.Error()}
	}

	c.logger.Debug().Str("reportId", created.ReportID).Str("date", date).Msg("Created sales & traffic report")
	return created.ReportID, nil
}

// PollReport polls processing status until DONE, returning the report
// document id. CANCELLED and FATAL are terminal failures; exhausting the
// iteration budget is a timeout.
func (c *SPAPIClient) PollReport(ctx context.Context, reportID string) (string, error) {
	for check := 0; check < c.poll.MaxChecks; check++ {
		if err := c.sleep(ctx, c.poll.Interval); err != nil {
			return "", err
		}

		var st struct {
			ProcessingStatus string `json:"processingStatus"`
			ReportDocumentID string `json:"reportDocumentId"`
		}
		if err := c.do(ctx, http.MethodGet, reportsPath+"/reports/"+reportID, nil, &st); err != nil {
			return "", err
		}

		switch st.ProcessingStatus {
		case "IN_QUEUE", "IN_PROGRESS":
			continue
		case "DONE":
			return st.ReportDocumentID, nil
		default:
			return "", &ReportFailedError{ReportID: reportID, Status: st.ProcessingStatus}
		}
	}
	return "", &ReportTimeoutError{ReportID: reportID, Attempts: c.poll.MaxChecks}
}

// DownloadDocument resolves the document id to a pre-signed URL, downloads
// the payload, decompressing when the provider marks it gzip.
func (c *SPAPIClient) DownloadDocument(ctx context.Context, documentID string) ([]map[string]any, error) {
	var doc struct {
		URL                  string `json:"url"`
		CompressionAlgorithm string `json:"compressionAlgorithm"`
	}
	if err := c.do(ctx, http.MethodGet, reportsPath+"/documents/"+documentID, nil, &doc); err != nil {
		return nil, err
	}

	raw, err := downloadDocumentBody(ctx, c.httpClient, doc.URL, doc.CompressionAlgorithm == "GZIP")
	if err != nil {
		return nil, err
	}

	// The sales & traffic report wraps rows in salesAndTrafficByAsin.
	var payload struct {
		SalesAndTrafficByAsin []map[string]any `json:"salesAndTrafficByAsin"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, &DownloadError{URL: doc.URL, Err: err}
	}
	return payload.SalesAndTrafficByAsin, nil
}

func downloadDocumentBody(ctx context.Context, client *http.Client, url string, gzipped bool) ([]byte, error) {
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
	raw, err := io.ReadAll(reader)
	if err != nil {
		return nil, &DownloadError{URL: url, Err: err}
	}
	return raw, nil
}
