package application

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"merchant-analytics-layer/internal/domain"
	"merchant-analytics-layer/internal/infrastructure/amazon"
	"merchant-analytics-layer/internal/infrastructure/metrics"
	"merchant-analytics-layer/internal/ports"
)

// pendingReportMaxAge bounds how long a persisted report job is worth
// resuming; the provider expires documents well before this anyway.
const pendingReportMaxAge = 24 * time.Hour

// SalesTrafficIngestService runs the per-date SP-API sales & traffic
// pipeline. Unlike the Ads flow, report jobs are persisted so an
// interrupted run can resume polling after a restart.
type SalesTrafficIngestService struct {
	client      ports.SalesTrafficClient
	metricRepo  ports.MetricRepository
	pendingRepo ports.PendingReportRepository
	logger      zerolog.Logger
}

// NewSalesTrafficIngestService creates a new sales & traffic ingest service
func NewSalesTrafficIngestService(
	client ports.SalesTrafficClient,
	metricRepo ports.MetricRepository,
	pendingRepo ports.PendingReportRepository,
	logger zerolog.Logger,
) *SalesTrafficIngestService {
	return &SalesTrafficIngestService{
		client:      client,
		metricRepo:  metricRepo,
		pendingRepo: pendingRepo,
		logger:      logger,
	}
}

// ExistingDates returns the dates already ingested for the org.
func (s *SalesTrafficIngestService) ExistingDates(ctx context.Context, orgID uint) ([]string, error) {
	return s.metricRepo.DistinctSalesTrafficDates(ctx, orgID)
}

// CleanupStale removes pending report rows older than 24 hours; called at
// driver startup.
func (s *SalesTrafficIngestService) CleanupStale(ctx context.Context) error {
	return s.pendingRepo.DeleteOlderThan(ctx, time.Now().Add(-pendingReportMaxAge))
}

// ResumePending finishes report jobs persisted by interrupted runs before
// any new dates are requested. Returns how many dates were recovered.
func (s *SalesTrafficIngestService) ResumePending(ctx context.Context, orgID uint) (int, error) {
	pending, err := s.pendingRepo.ListPending(ctx, orgID)
	if err != nil {
		return 0, err
	}

	recovered := 0
	for _, job := range pending {
		if _, err := s.finishReport(ctx, orgID, job.Date, job.ReportID); err != nil {
			s.logger.Error().Err(err).
				Str("date", job.Date).
				Str("reportId", job.ReportID).
				Msg("Failed to resume pending report")
			if markErr := s.pendingRepo.MarkStatus(ctx, job.ID, domain.ReportStatusFailed); markErr != nil {
				s.logger.Error().Err(markErr).Msg("Failed to mark pending report failed")
			}
			continue
		}
		if err := s.pendingRepo.MarkStatus(ctx, job.ID, domain.ReportStatusCompleted); err != nil {
			s.logger.Error().Err(err).Msg("Failed to mark pending report completed")
		}
		recovered++
	}
	return recovered, nil
}

// IngestDate processes one calendar date end to end, persisting the report
// job between creation and completion.
func (s *SalesTrafficIngestService) IngestDate(ctx context.Context, orgID uint, date string) (int, error) {
	reportID, err := s.client.CreateReport(ctx, date)
	if err != nil {
		return 0, fmt.Errorf("date %s: %w", date, err)
	}

	job := &domain.PendingReport{OrgID: orgID, ReportID: reportID, Date: date}
	if err := s.pendingRepo.Save(ctx, job); err != nil {
		// Persisting the job is best-effort; the pipeline itself continues.
		s.logger.Warn().Err(err).Str("reportId", reportID).Msg("Failed to persist pending report")
	}

	stored, err := s.finishReport(ctx, orgID, date, reportID)
	status := domain.ReportStatusCompleted
	if err != nil {
		status = domain.ReportStatusFailed
	}
	if job.ID != 0 {
		if markErr := s.pendingRepo.MarkStatus(ctx, job.ID, status); markErr != nil {
			s.logger.Error().Err(markErr).Msg("Failed to update pending report status")
		}
	}
	return stored, err
}

func (s *SalesTrafficIngestService) finishReport(ctx context.Context, orgID uint, date, reportID string) (int, error) {
	metrics.ReportPolls.WithLabelValues("amazon-sp-api").Inc()
	documentID, err := s.client.PollReport(ctx, reportID)
	if err != nil {
		return 0, fmt.Errorf("date %s: %w", date, err)
	}

	rows, err := s.client.DownloadDocument(ctx, documentID)
	if err != nil {
		return 0, fmt.Errorf("date %s: %w", date, err)
	}

	stored := 0
	for _, raw := range rows {
		row := amazon.NormalizeSalesTrafficRow(orgID, date, raw)
		if err := s.metricRepo.UpsertSalesTrafficMetric(ctx, row); err != nil {
			metrics.IngestErrors.WithLabelValues("sales-traffic").Inc()
			s.logger.Error().Err(err).
				Str("date", date).
				Str("asin", row.ASIN).
				Msg("Failed to upsert sales traffic metric")
			continue
		}
		metrics.RowsUpserted.WithLabelValues("sales_traffic_metric").Inc()
		stored++
	}

	s.logger.Info().
		Str("date", date).
		Int("rows", stored).
		Int("total", len(rows)).
		Msg("Ingested sales & traffic metrics")
	return stored, nil
}
