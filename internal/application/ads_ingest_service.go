package application

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"merchant-analytics-layer/internal/domain"
	"merchant-analytics-layer/internal/infrastructure/amazon"
	"merchant-analytics-layer/internal/infrastructure/metrics"
	"merchant-analytics-layer/internal/ports"
)

// AdsIngestService runs the per-date Amazon Ads report pipeline:
// create report, poll to completion, download, normalize, upsert.
type AdsIngestService struct {
	ads        ports.AdsReportClient
	metricRepo ports.MetricRepository
	logger     zerolog.Logger
}

// NewAdsIngestService creates a new ads ingest service
func NewAdsIngestService(
	ads ports.AdsReportClient,
	metricRepo ports.MetricRepository,
	logger zerolog.Logger,
) *AdsIngestService {
	return &AdsIngestService{
		ads:        ads,
		metricRepo: metricRepo,
		logger:     logger,
	}
}

// ExistingDates returns the dates already ingested for the org, for the
// driver's skip-existing logic.
func (s *AdsIngestService) ExistingDates(ctx context.Context, orgID uint) ([]string, error) {
	return s.metricRepo.DistinctCampaignDates(ctx, orgID, domain.MetricSourceAPI)
}

// IngestDate processes one calendar date end to end. Row-level upsert
// failures are logged and counted but do not abort the date.
func (s *AdsIngestService) IngestDate(ctx context.Context, orgID uint, date string) (int, error) {
	reportID, err := s.ads.CreateReport(ctx, date)
	if err != nil {
		return 0, fmt.Errorf("date %s: %w", date, err)
	}

	metrics.ReportPolls.WithLabelValues("amazon-ads").Inc()
	url, err := s.ads.PollReport(ctx, reportID)
	if err != nil {
		return 0, fmt.Errorf("date %s: %w", date, err)
	}

	rows, err := s.ads.DownloadReport(ctx, url)
	if err != nil {
		return 0, fmt.Errorf("date %s: %w", date, err)
	}

	stored := 0
	for _, raw := range rows {
		row := amazon.NormalizeCampaignRow(orgID, date, raw)
		if err := s.metricRepo.UpsertCampaignMetric(ctx, row); err != nil {
			metrics.IngestErrors.WithLabelValues("amazon-ads").Inc()
			s.logger.Error().Err(err).
				Str("date", date).
				Str("campaignId", row.CampaignID).
				Msg("Failed to upsert campaign metric")
			continue
		}
		metrics.RowsUpserted.WithLabelValues("campaign_metric").Inc()
		stored++
	}

	s.logger.Info().
		Str("date", date).
		Int("rows", stored).
		Int("total", len(rows)).
		Msg("Ingested campaign metrics")
	return stored, nil
}
