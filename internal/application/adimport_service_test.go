package application

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"merchant-analytics-layer/internal/domain"
)

func writeImportFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "export.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestImportAggregatesAdGroupRowsToCampaign(t *testing.T) {
	path := writeImportFile(t, `Date,Campaign Name,Ad Group,Impressions,Clicks,Spend,14 Day Total Sales
01/04/2025,Brand - UK,Exact,500,20,"£10.00","£50.00"
01/04/2025,Brand - UK,Broad,300,10,"£5.50","£25.00"
02/04/2025,Brand - UK,Exact,100,5,"£2.00","£8.00"
`)

	repo := &fakeMetricRepo{}
	svc := NewAdImportService(repo, zerolog.Nop())

	result, err := svc.ImportFile(context.Background(), 1, path)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Imported)
	assert.Equal(t, 0, result.SkippedNoDate)
	assert.Equal(t, 0, result.Errors)

	require.Len(t, repo.campaignRows, 2)
	first := repo.campaignRows[0]
	assert.Equal(t, "2025-04-01", first.Date)
	assert.Equal(t, "Brand - UK", first.CampaignID)
	assert.Equal(t, domain.MetricSourceCSV, first.Source)
	assert.EqualValues(t, 800, first.Impressions)
	assert.EqualValues(t, 30, first.Clicks)
	assert.Equal(t, "15.5", first.Spend.String())
	assert.Equal(t, "75", first.Sales.String())

	// ACOS recomputed from the aggregated totals: 15.50 / 75.00.
	require.True(t, first.Acos.Valid)
	assert.Equal(t, "0.2066666666666667", first.Acos.Decimal.StringFixed(16))
}

func TestImportSkipsAndCountsRowsWithoutDates(t *testing.T) {
	path := writeImportFile(t, `Date,Campaign,Impressions,Clicks,Spend,Sales
,Brand,100,5,1.00,2.00
not-a-date,Brand,100,5,1.00,2.00
2025-04-01,Brand,100,5,1.00,2.00
`)

	repo := &fakeMetricRepo{}
	svc := NewAdImportService(repo, zerolog.Nop())

	result, err := svc.ImportFile(context.Background(), 1, path)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, 2, result.SkippedNoDate)
}

func TestImportCountsStorageErrorsWithoutAborting(t *testing.T) {
	path := writeImportFile(t, `Date,Campaign,Impressions,Clicks,Spend,Sales
2025-04-01,Good,100,5,1.00,2.00
2025-04-01,Bad,100,5,1.00,2.00
2025-04-02,Good,100,5,1.00,2.00
`)

	repo := &fakeMetricRepo{failCampaignIDs: map[string]bool{"Bad": true}}
	svc := NewAdImportService(repo, zerolog.Nop())

	result, err := svc.ImportFile(context.Background(), 1, path)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Imported)
	assert.Equal(t, 1, result.Errors)
}

func TestImportRejectsFileWithoutRequiredColumns(t *testing.T) {
	path := writeImportFile(t, "Foo,Bar\n1,2\n")

	svc := NewAdImportService(&fakeMetricRepo{}, zerolog.Nop())
	_, err := svc.ImportFile(context.Background(), 1, path)
	assert.Error(t, err)
}

func TestImportHandlesQuotedFieldsWithEmbeddedCommas(t *testing.T) {
	path := writeImportFile(t, `Date,Campaign Name,Impressions,Clicks,Spend,Sales
01/04/2025,"Brand, UK & IE",100,5,"1,234.56","2,000.00"
`)

	repo := &fakeMetricRepo{}
	svc := NewAdImportService(repo, zerolog.Nop())

	result, err := svc.ImportFile(context.Background(), 1, path)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
	require.Len(t, repo.campaignRows, 1)
	assert.Equal(t, "Brand, UK & IE", repo.campaignRows[0].CampaignName)
	assert.Equal(t, "1234.56", repo.campaignRows[0].Spend.String())
}
