package amazon

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticTokens struct{ token string }

func (s staticTokens) Token(ctx context.Context) (string, error) { return s.token, nil }

// recordingSleeper collects requested sleeps without actually waiting.
type recordingSleeper struct{ slept []time.Duration }

func (r *recordingSleeper) sleep(ctx context.Context, d time.Duration) error {
	r.slept = append(r.slept, d)
	return ctx.Err()
}

func pollClient(t *testing.T, handler http.Handler) (*AdsClient, *recordingSleeper, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	rec := &recordingSleeper{}
	c := NewAdsClient(staticTokens{"tok"}, "profile-1", SPCampaignsReport(), zerolog.Nop()).
		WithBaseURL(srv.URL).
		WithPollConfig(PollConfig{MaxChecks: 5, Interval: 5 * time.Second, RateLimitSleep: 10 * time.Second}).
		WithSleeper(rec.sleep)
	return c, rec, srv
}

func TestPollReturnsURLAfterProcessingSequence(t *testing.T) {
	statuses := []string{"PROCESSING", "PROCESSING", "COMPLETED"}
	calls := 0
	c, rec, _ := pollClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		st := statuses[calls]
		calls++
		json.NewEncoder(w).Encode(map[string]string{"status": st, "url": "https://signed/report.gz"})
	}))

	url, err := c.PollReport(context.Background(), "r-1")
	require.NoError(t, err)
	assert.Equal(t, "https://signed/report.gz", url)
	assert.Equal(t, 3, calls, "N PROCESSING responses + 1 COMPLETED = N+1 status calls")
	assert.Len(t, rec.slept, 3, "one sleep before each status check")
}

func TestPollTimesOutAtIterationBound(t *testing.T) {
	calls := 0
	c, _, _ := pollClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		json.NewEncoder(w).Encode(map[string]string{"status": "PROCESSING"})
	}))

	_, err := c.PollReport(context.Background(), "r-1")
	require.Error(t, err)

	var timeout *ReportTimeoutError
	require.ErrorAs(t, err, &timeout)
	assert.Equal(t, 5, timeout.Attempts)
	assert.Equal(t, 5, calls, "no further calls after the bound")
}

func TestPoll429DoesNotConsumeIteration(t *testing.T) {
	// 4 consecutive 429s, then PROCESSING until the bound: without the
	// non-consuming rule the loop would end early; with it there are
	// exactly MaxChecks status results.
	calls := 0
	c, rec, _ := pollClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls <= 4 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"status": "PROCESSING"})
	}))

	_, err := c.PollReport(context.Background(), "r-1")
	var timeout *ReportTimeoutError
	require.ErrorAs(t, err, &timeout)

	assert.Equal(t, 9, calls, "4 rate-limited calls + 5 counted checks")

	extended := 0
	for _, d := range rec.slept {
		if d == 10*time.Second {
			extended++
		}
	}
	assert.Equal(t, 4, extended, "extended sleep after every 429")
}

func TestPollProviderFailureSurfacesReason(t *testing.T) {
	c, _, _ := pollClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "FAILURE", "failureReason": "no data"})
	}))

	_, err := c.PollReport(context.Background(), "r-1")
	var failed *ReportFailedError
	require.ErrorAs(t, err, &failed)
	assert.Equal(t, "FAILURE", failed.Status)
	assert.Equal(t, "no data", failed.Reason)
}

func TestCreateReportNon2xxReturnsCreationError(t *testing.T) {
	c, _, _ := pollClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"detail":"bad columns"}`))
	}))

	_, err := c.CreateReport(context.Background(), "2025-01-01")
	var creation *ReportCreationError
	require.ErrorAs(t, err, &creation)
	assert.Contains(t, creation.Body, "bad columns")
}

func TestDownloadReportGunzipsRows(t *testing.T) {
	rows := []map[string]any{{"campaignId": "c1", "clicks": 7}}
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	require.NoError(t, json.NewEncoder(gz).Encode(rows))
	require.NoError(t, gz.Close())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(buf.Bytes())
	}))
	defer srv.Close()

	c := NewAdsClient(staticTokens{"tok"}, "profile-1", SPCampaignsReport(), zerolog.Nop())
	got, err := c.DownloadReport(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "c1", got[0]["campaignId"])
}

func TestDownloadReportMalformedPayloadIsDownloadError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "not gzip at all")
	}))
	defer srv.Close()

	c := NewAdsClient(staticTokens{"tok"}, "profile-1", SPCampaignsReport(), zerolog.Nop())
	_, err := c.DownloadReport(context.Background(), srv.URL)

	var dl *DownloadError
	require.ErrorAs(t, err, &dl)
}
