package posthog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cast"

	"merchant-analytics-layer/internal/domain"
	"merchant-analytics-layer/internal/ports"
)

// Client pulls first-party visit events for order attribution. Responses
// are paginated {results[], next} JSON.
type Client struct {
	host       string
	projectID  string
	apiKey     string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient creates a PostHog client from decrypted credentials.
func NewClient(creds domain.PostHogCredentials, logger zerolog.Logger) ports.TrafficClient {
	host := creds.Host
	if host == "" {
		host = "https://eu.posthog.com"
	}
	return &Client{
		host:       host,
		projectID:  creds.ProjectID,
		apiKey:     creds.APIKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
}

type event struct {
	Properties map[string]any `json:"properties"`
	Timestamp  string         `json:"timestamp"`
}

// Attribution returns the UTM values of the most recent pageview for the
// email on or before the given date, or nil when no visit is known.
func (c *Client) Attribution(ctx context.Context, email string, date string) (*domain.Attribution, error) {
	events, err := c.events(ctx, email, date)
	if err != nil {
		return nil, err
	}

	for _, ev := range events {
		source := cast.ToString(ev.Properties["utm_source"])
		medium := cast.ToString(ev.Properties["utm_medium"])
		campaign := cast.ToString(ev.Properties["utm_campaign"])
		if source == "" && medium == "" && campaign == "" {
			continue
		}
		return &domain.Attribution{
			UTMSource:   source,
			UTMMedium:   medium,
			UTMCampaign: campaign,
			ResolvedBy:  domain.AttributionSourceVisit,
		}, nil
	}
	return nil, nil
}

// events walks the paginated event list until exhausted. The provider
// returns newest-first, so the first UTM-carrying event wins.
func (c *Client) events(ctx context.Context, email string, date string) ([]event, error) {
	endpoint := fmt.Sprintf("%s/api/projects/%s/events/?%s", c.host, c.projectID, url.Values{
		"distinct_id": {email},
		"event":       {"$pageview"},
		"before":      {date + "T23:59:59Z"},
	}.Encode())

	var all []event
	for endpoint != "" {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create events request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to call events endpoint: %w", err)
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return nil, fmt.Errorf("events endpoint returned %d: %s", resp.StatusCode, string(body))
		}

		var page struct {
			Results []event `json:"results"`
			Next    string  `json:"next"`
		}
		err = json.NewDecoder(resp.Body).Decode(&page)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to decode events response: %w", err)
		}

		all = append(all, page.Results...)
		endpoint = page.Next
	}
	return all, nil
}
