package amazon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCampaignRowDefaults(t *testing.T) {
	// clicks and acosClicks14d absent: count-like defaults to 0, derived
	// metric stays null.
	row := map[string]any{
		"campaignId":   "123",
		"campaignName": "Brand - Exact",
		"impressions":  float64(1500),
		"cost":         12.34,
	}

	m := NormalizeCampaignRow(1, "2025-04-01", row)

	assert.Equal(t, "123", m.CampaignID)
	assert.EqualValues(t, 1500, m.Impressions)
	assert.EqualValues(t, 0, m.Clicks)
	assert.False(t, m.Acos.Valid, "absent derived metric must be null")
	assert.False(t, m.Roas.Valid)
	assert.Equal(t, "12.34", m.Spend.String())
	assert.Equal(t, "2025-04-01", m.Date)
	assert.Equal(t, "api", m.Source)
}

func TestNormalizeCampaignRowPresentDerivedMetric(t *testing.T) {
	row := map[string]any{
		"campaignId":    "123",
		"clicks":        float64(10),
		"acosClicks14d": 0.253,
	}

	m := NormalizeCampaignRow(1, "2025-04-01", row)
	require.True(t, m.Acos.Valid)
	assert.Equal(t, "0.253", m.Acos.Decimal.String())
	assert.EqualValues(t, 10, m.Clicks)
}

func TestNormalizeSalesTrafficRow(t *testing.T) {
	row := map[string]any{
		"childAsin": "B0TEST1234",
		"salesByAsin": map[string]any{
			"unitsOrdered":        float64(4),
			"totalOrderItems":     float64(3),
			"orderedProductSales": map[string]any{"amount": 99.96, "currencyCode": "GBP"},
		},
		"trafficByAsin": map[string]any{
			"sessions":              float64(120),
			"pageViews":             float64(180),
			"buyBoxPercentage":      92.5,
			"unitSessionPercentage": 3.33,
		},
	}

	m := NormalizeSalesTrafficRow(2, "2025-04-01", row)

	assert.Equal(t, "B0TEST1234", m.ASIN)
	assert.EqualValues(t, 120, m.Sessions)
	assert.EqualValues(t, 4, m.UnitsOrdered)
	assert.Equal(t, "99.96", m.OrderedProductSales.String())
	require.True(t, m.BuyBoxPercentage.Valid)
	assert.Equal(t, "92.5", m.BuyBoxPercentage.Decimal.String())
}

func TestNormalizeSalesTrafficRowMissingTraffic(t *testing.T) {
	row := map[string]any{
		"childAsin":   "B0TEST1234",
		"salesByAsin": map[string]any{"unitsOrdered": float64(1)},
	}

	m := NormalizeSalesTrafficRow(2, "2025-04-01", row)
	assert.EqualValues(t, 0, m.Sessions)
	assert.False(t, m.BuyBoxPercentage.Valid)
	assert.False(t, m.UnitSessionPct.Valid)
}
