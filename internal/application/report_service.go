package application

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"merchant-analytics-layer/internal/domain"
	"merchant-analytics-layer/internal/infrastructure/cache"
	"merchant-analytics-layer/internal/ports"
)

// CampaignReport aggregates campaign metric rows over a date range. Sums
// include zero-valued rows; the ACOS/ROAS averages exclude null values,
// where a count metric of zero participates but an absent ratio does not.
type CampaignReport struct {
	Start string `json:"start"`
	End   string `json:"end"`

	Impressions int64           `json:"impressions"`
	Clicks      int64           `json:"clicks"`
	Spend       decimal.Decimal `json:"spend"`
	Sales       decimal.Decimal `json:"sales"`
	Units       int64           `json:"units"`
	Orders      int64           `json:"orders"`

	AvgAcos decimal.NullDecimal `json:"avg_acos"`
	AvgRoas decimal.NullDecimal `json:"avg_roas"`

	Rows []*domain.CampaignMetric `json:"rows"`
}

// SalesTrafficReport aggregates per-ASIN sales & traffic rows.
type SalesTrafficReport struct {
	Start string `json:"start"`
	End   string `json:"end"`

	Sessions            int64           `json:"sessions"`
	PageViews           int64           `json:"page_views"`
	UnitsOrdered        int64           `json:"units_ordered"`
	OrderedProductSales decimal.Decimal `json:"ordered_product_sales"`

	Rows []*domain.SalesTrafficMetric `json:"rows"`
}

// OrdersReport summarizes Shopify orders over a date range.
type OrdersReport struct {
	Start string `json:"start"`
	End   string `json:"end"`

	OrderCount      int             `json:"order_count"`
	Revenue         decimal.Decimal `json:"revenue"`
	RepeatOrders    int             `json:"repeat_orders"`
	AttributedCount int             `json:"attributed_count"`

	BySource map[string]int `json:"by_source"`

	Rows []*domain.Order `json:"rows"`
}

// OrderLister is the slice of order persistence the report service needs.
type OrderLister interface {
	List(ctx context.Context, orgID uint, start, end string) ([]*domain.Order, error)
}

// ReportService serves dashboard aggregates, read-through cached.
type ReportService struct {
	metricRepo ports.MetricRepository
	orderRepo  OrderLister
	cache      *cache.ReportCache
	logger     zerolog.Logger
}

// NewReportService creates a new report service
func NewReportService(
	metricRepo ports.MetricRepository,
	orderRepo OrderLister,
	reportCache *cache.ReportCache,
	logger zerolog.Logger,
) *ReportService {
	return &ReportService{
		metricRepo: metricRepo,
		orderRepo:  orderRepo,
		cache:      reportCache,
		logger:     logger,
	}
}

func reportKey(kind string, orgID uint, start, end string) string {
	return fmt.Sprintf("report:%s:%d:%s:%s", kind, orgID, start, end)
}

// CampaignReport aggregates campaign metrics for the org over [start, end].
func (s *ReportService) CampaignReport(ctx context.Context, orgID uint, start, end string) (*CampaignReport, error) {
	report := &CampaignReport{}
	err := s.cache.GetOrCompute(ctx, reportKey("campaigns", orgID, start, end), report, func() (any, error) {
		rows, err := s.metricRepo.CampaignMetricsByRange(ctx, orgID, start, end)
		if err != nil {
			return nil, err
		}
		return buildCampaignReport(start, end, rows), nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

func buildCampaignReport(start, end string, rows []*domain.CampaignMetric) *CampaignReport {
	report := &CampaignReport{Start: start, End: end, Rows: rows}

	acosSum, roasSum := decimal.Zero, decimal.Zero
	acosCount, roasCount := 0, 0
	for _, row := range rows {
		report.Impressions += row.Impressions
		report.Clicks += row.Clicks
		report.Spend = report.Spend.Add(row.Spend)
		report.Sales = report.Sales.Add(row.Sales)
		report.Units += row.Units
		report.Orders += row.Orders

		if row.Acos.Valid {
			acosSum = acosSum.Add(row.Acos.Decimal)
			acosCount++
		}
		if row.Roas.Valid {
			roasSum = roasSum.Add(row.Roas.Decimal)
			roasCount++
		}
	}
	if acosCount > 0 {
		report.AvgAcos = decimal.NewNullDecimal(acosSum.Div(decimal.NewFromInt(int64(acosCount))))
	}
	if roasCount > 0 {
		report.AvgRoas = decimal.NewNullDecimal(roasSum.Div(decimal.NewFromInt(int64(roasCount))))
	}
	return report
}

// SalesTrafficReport aggregates per-ASIN metrics for the org over [start, end].
func (s *ReportService) SalesTrafficReport(ctx context.Context, orgID uint, start, end string) (*SalesTrafficReport, error) {
	report := &SalesTrafficReport{}
	err := s.cache.GetOrCompute(ctx, reportKey("sales-traffic", orgID, start, end), report, func() (any, error) {
		rows, err := s.metricRepo.SalesTrafficByRange(ctx, orgID, start, end)
		if err != nil {
			return nil, err
		}
		out := &SalesTrafficReport{Start: start, End: end, Rows: rows}
		for _, row := range rows {
			out.Sessions += row.Sessions
			out.PageViews += row.PageViews
			out.UnitsOrdered += row.UnitsOrdered
			out.OrderedProductSales = out.OrderedProductSales.Add(row.OrderedProductSales)
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// OrdersReport summarizes orders for the org over [start, end].
func (s *ReportService) OrdersReport(ctx context.Context, orgID uint, start, end string) (*OrdersReport, error) {
	report := &OrdersReport{}
	err := s.cache.GetOrCompute(ctx, reportKey("orders", orgID, start, end), report, func() (any, error) {
		rows, err := s.orderRepo.List(ctx, orgID, start, end)
		if err != nil {
			return nil, err
		}
		out := &OrdersReport{Start: start, End: end, Rows: rows, BySource: map[string]int{}}
		out.OrderCount = len(rows)
		for _, row := range rows {
			out.Revenue = out.Revenue.Add(row.Total)
			if row.RepeatCustomer {
				out.RepeatOrders++
			}
			if row.HasAttribution {
				out.AttributedCount++
				out.BySource[row.UTMSource]++
			}
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}
