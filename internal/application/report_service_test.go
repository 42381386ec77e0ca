package application

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"merchant-analytics-layer/internal/domain"
	"merchant-analytics-layer/internal/infrastructure/cache"
)

func nullDec(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func newTestReportService(metricRepo *fakeMetricRepo, orderRepo *fakeOrderRepo) *ReportService {
	// Empty address disables the cache; reports compute directly.
	reportCache := cache.NewReportCache("", time.Minute, zerolog.Nop())
	return NewReportService(metricRepo, orderRepo, reportCache, zerolog.Nop())
}

func TestCampaignReportSumsIncludeZeroRows(t *testing.T) {
	repo := &fakeMetricRepo{campaignRows: []*domain.CampaignMetric{
		{Date: "2025-04-01", Impressions: 1000, Clicks: 40, Spend: decimal.RequireFromString("10.00"), Sales: decimal.RequireFromString("50.00"), Acos: nullDec("0.2"), Roas: nullDec("5")},
		{Date: "2025-04-02", Impressions: 0, Clicks: 0, Spend: decimal.Zero, Sales: decimal.Zero},
		{Date: "2025-04-03", Impressions: 500, Clicks: 10, Spend: decimal.RequireFromString("4.00"), Sales: decimal.RequireFromString("10.00"), Acos: nullDec("0.4"), Roas: nullDec("2.5")},
	}}

	report, err := newTestReportService(repo, &fakeOrderRepo{}).CampaignReport(context.Background(), 1, "2025-04-01", "2025-04-03")
	require.NoError(t, err)

	assert.EqualValues(t, 1500, report.Impressions)
	assert.EqualValues(t, 50, report.Clicks)
	assert.Equal(t, "14", report.Spend.String())
	assert.Equal(t, "60", report.Sales.String())

	// Null ratios are excluded from the averages, zero counts are not:
	// avg ACOS over two valid rows, not three.
	require.True(t, report.AvgAcos.Valid)
	assert.Equal(t, "0.3", report.AvgAcos.Decimal.String())
	require.True(t, report.AvgRoas.Valid)
	assert.Equal(t, "3.75", report.AvgRoas.Decimal.String())
}

func TestCampaignReportWithNoValidRatiosStaysNull(t *testing.T) {
	repo := &fakeMetricRepo{campaignRows: []*domain.CampaignMetric{
		{Date: "2025-04-01", Impressions: 10},
	}}

	report, err := newTestReportService(repo, &fakeOrderRepo{}).CampaignReport(context.Background(), 1, "2025-04-01", "2025-04-01")
	require.NoError(t, err)
	assert.False(t, report.AvgAcos.Valid)
	assert.False(t, report.AvgRoas.Valid)
}

func TestSalesTrafficReportAggregates(t *testing.T) {
	repo := &fakeMetricRepo{salesTrafficRows: []*domain.SalesTrafficMetric{
		{ASIN: "B001", Sessions: 100, PageViews: 180, UnitsOrdered: 5, OrderedProductSales: decimal.RequireFromString("99.95")},
		{ASIN: "B002", Sessions: 20, PageViews: 25, UnitsOrdered: 1, OrderedProductSales: decimal.RequireFromString("19.99")},
	}}

	report, err := newTestReportService(repo, &fakeOrderRepo{}).SalesTrafficReport(context.Background(), 1, "2025-04-01", "2025-04-01")
	require.NoError(t, err)
	assert.EqualValues(t, 120, report.Sessions)
	assert.EqualValues(t, 205, report.PageViews)
	assert.EqualValues(t, 6, report.UnitsOrdered)
	assert.Equal(t, "119.94", report.OrderedProductSales.String())
}

func TestOrdersReportCountsAttributionBySource(t *testing.T) {
	repo := &fakeOrderRepo{orders: []*domain.Order{
		{ShopifyOrderID: 1, Total: decimal.RequireFromString("10.00"), HasAttribution: true, UTMSource: "google", RepeatCustomer: true},
		{ShopifyOrderID: 2, Total: decimal.RequireFromString("20.00"), HasAttribution: true, UTMSource: "google"},
		{ShopifyOrderID: 3, Total: decimal.RequireFromString("5.00")},
	}}

	report, err := newTestReportService(&fakeMetricRepo{}, repo).OrdersReport(context.Background(), 1, "2025-04-01", "2025-04-30")
	require.NoError(t, err)
	assert.Equal(t, 3, report.OrderCount)
	assert.Equal(t, "35", report.Revenue.String())
	assert.Equal(t, 1, report.RepeatOrders)
	assert.Equal(t, 2, report.AttributedCount)
	assert.Equal(t, map[string]int{"google": 2}, report.BySource)
}
