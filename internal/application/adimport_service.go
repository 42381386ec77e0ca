package application

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"merchant-analytics-layer/internal/domain"
	"merchant-analytics-layer/internal/infrastructure/importer"
	"merchant-analytics-layer/internal/infrastructure/metrics"
	"merchant-analytics-layer/internal/ports"
)

const importBatchSize = 50

// ImportResult summarizes one file import. SkippedNoDate counts rows whose
// date cell was empty or unparseable; Errors counts rows that failed to
// store. Neither aborts the import.
type ImportResult struct {
	Imported      int `json:"imported"`
	SkippedNoDate int `json:"skipped_no_date"`
	Errors        int `json:"errors"`
}

func (r ImportResult) String() string {
	return fmt.Sprintf("%d imported, %d skipped (no date), %d errors", r.Imported, r.SkippedNoDate, r.Errors)
}

// AdImportService ingests manually exported advertising spreadsheets
// (.csv or .xlsx). Ad-group and search-term rows are aggregated up to
// campaign level keyed by campaign NAME, since manual exports carry no
// campaign id. This conflates campaigns sharing a name across periods; the
// source column keeps the rows apart from API-ingested metrics.
type AdImportService struct {
	metricRepo ports.MetricRepository
	logger     zerolog.Logger
}

// NewAdImportService creates a new ad import service
func NewAdImportService(metricRepo ports.MetricRepository, logger zerolog.Logger) *AdImportService {
	return &AdImportService{metricRepo: metricRepo, logger: logger}
}

// Header aliases seen across Amazon Ads console exports.
var importColumns = map[string][]string{
	"date":        {"Date", "Start Date", "Day"},
	"campaign":    {"Campaign Name", "Campaign", "Campaigns"},
	"impressions": {"Impressions"},
	"clicks":      {"Clicks"},
	"spend":       {"Spend", "Cost", "Spend(GBP)", "Spend(USD)"},
	"sales":       {"14 Day Total Sales", "Sales", "Total Sales", "7 Day Total Sales"},
	"units":       {"14 Day Total Units", "Units", "Total Units"},
	"orders":      {"14 Day Total Orders", "Orders", "Total Orders"},
}

func resolveColumn(t *importer.Table, key string) int {
	for _, name := range importColumns[key] {
		if idx := t.ColumnIndex(name); idx >= 0 {
			return idx
		}
	}
	return -1
}

// ImportFile parses the file at path and upserts campaign-level rows for
// the org, in batches.
func (s *AdImportService) ImportFile(ctx context.Context, orgID uint, path string) (*ImportResult, error) {
	table, err := importer.Open(path)
	if err != nil {
		return nil, err
	}
	return s.importTable(ctx, orgID, table)
}

func (s *AdImportService) importTable(ctx context.Context, orgID uint, table *importer.Table) (*ImportResult, error) {
	dateIdx := resolveColumn(table, "date")
	campaignIdx := resolveColumn(table, "campaign")
	if dateIdx < 0 || campaignIdx < 0 {
		return nil, fmt.Errorf("import file is missing a date or campaign column (header: %v)", table.Header)
	}
	impressionsIdx := resolveColumn(table, "impressions")
	clicksIdx := resolveColumn(table, "clicks")
	spendIdx := resolveColumn(table, "spend")
	salesIdx := resolveColumn(table, "sales")
	unitsIdx := resolveColumn(table, "units")
	ordersIdx := resolveColumn(table, "orders")

	result := &ImportResult{}

	// Aggregate up to (date, campaign name) before storing.
	type key struct{ date, campaign string }
	aggregated := make(map[key]*domain.CampaignMetric)
	var order []key

	for _, row := range table.Rows {
		date, ok := importer.ParseDate(importer.Cell(row, dateIdx))
		if !ok {
			result.SkippedNoDate++
			continue
		}
		campaign := importer.Cell(row, campaignIdx)
		if campaign == "" {
			result.SkippedNoDate++
			continue
		}

		k := key{date: date, campaign: campaign}
		metric, exists := aggregated[k]
		if !exists {
			metric = &domain.CampaignMetric{
				OrgID:        orgID,
				Date:         date,
				CampaignID:   campaign,
				CampaignName: campaign,
				Source:       domain.MetricSourceCSV,
			}
			aggregated[k] = metric
			order = append(order, k)
		}
		metric.Impressions += importer.ParseNumber(importer.Cell(row, impressionsIdx)).IntPart()
		metric.Clicks += importer.ParseNumber(importer.Cell(row, clicksIdx)).IntPart()
		metric.Spend = metric.Spend.Add(importer.ParseNumber(importer.Cell(row, spendIdx)))
		metric.Sales = metric.Sales.Add(importer.ParseNumber(importer.Cell(row, salesIdx)))
		metric.Units += importer.ParseNumber(importer.Cell(row, unitsIdx)).IntPart()
		metric.Orders += importer.ParseNumber(importer.Cell(row, ordersIdx)).IntPart()
	}

	for i := 0; i < len(order); i += importBatchSize {
		end := min(i+importBatchSize, len(order))
		for _, k := range order[i:end] {
			metric := aggregated[k]
			deriveImportRatios(metric)
			if err := s.metricRepo.UpsertCampaignMetric(ctx, metric); err != nil {
				metrics.IngestErrors.WithLabelValues("ad-import").Inc()
				s.logger.Error().Err(err).
					Str("date", metric.Date).
					Str("campaign", metric.CampaignName).
					Msg("Failed to store imported campaign row")
				result.Errors++
				continue
			}
			metrics.RowsUpserted.WithLabelValues("campaign_metric").Inc()
			result.Imported++
		}
	}

	s.logger.Info().
		Int("imported", result.Imported).
		Int("skippedNoDate", result.SkippedNoDate).
		Int("errors", result.Errors).
		Msg("Imported ad spreadsheet")
	return result, nil
}

// deriveImportRatios computes ACOS/ROAS from the aggregated totals. Manual
// exports carry per-row ratios that do not survive aggregation, so they are
// recomputed; when sales or spend is zero the ratio stays null.
func deriveImportRatios(m *domain.CampaignMetric) {
	if !m.Sales.IsZero() {
		m.Acos = decimal.NewNullDecimal(m.Spend.Div(m.Sales))
	}
	if !m.Spend.IsZero() {
		m.Roas = decimal.NewNullDecimal(m.Sales.Div(m.Spend))
	}
}
