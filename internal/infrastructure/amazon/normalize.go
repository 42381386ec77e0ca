package amazon

import (
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"

	"merchant-analytics-layer/internal/domain"
)

// Row normalization maps external field names onto internal columns 1:1.
// Count-like metrics default to 0 when absent (they participate in sums);
// derived metrics default to null (excluded from averages). No validation
// beyond type coercion: malformed upstream values are stored as-is.

// NormalizeCampaignRow maps one Ads report row to a CampaignMetric.
func NormalizeCampaignRow(orgID uint, date string, row map[string]any) *domain.CampaignMetric {
	return &domain.CampaignMetric{
		OrgID:        orgID,
		Date:         date,
		Source:       domain.MetricSourceAPI,
		CampaignID:   cast.ToString(row["campaignId"]),
		CampaignName: cast.ToString(row["campaignName"]),
		Impressions:  cast.ToInt64(row["impressions"]),
		Clicks:       cast.ToInt64(row["clicks"]),
		Spend:        toDecimal(row["cost"]),
		Sales:        toDecimal(row["sales14d"]),
		Units:        cast.ToInt64(row["unitsSoldClicks14d"]),
		Orders:       cast.ToInt64(row["purchases14d"]),
		Acos:         toNullDecimal(row["acosClicks14d"]),
		Roas:         toNullDecimal(row["roasClicks14d"]),
	}
}

// NormalizeSalesTrafficRow maps one SP-API salesAndTrafficByAsin row to a
// SalesTrafficMetric. The provider nests sales and traffic sub-objects.
func NormalizeSalesTrafficRow(orgID uint, date string, row map[string]any) *domain.SalesTrafficMetric {
	sales := cast.ToStringMap(row["salesByAsin"])
	traffic := cast.ToStringMap(row["trafficByAsin"])

	return &domain.SalesTrafficMetric{
		OrgID:               orgID,
		Date:                date,
		ASIN:                cast.ToString(row["childAsin"]),
		Sessions:            cast.ToInt64(traffic["sessions"]),
		PageViews:           cast.ToInt64(traffic["pageViews"]),
		UnitsOrdered:        cast.ToInt64(sales["unitsOrdered"]),
		TotalOrderItems:     cast.ToInt64(sales["totalOrderItems"]),
		OrderedProductSales: toDecimal(cast.ToStringMap(sales["orderedProductSales"])["amount"]),
		BuyBoxPercentage:    toNullDecimal(traffic["buyBoxPercentage"]),
		UnitSessionPct:      toNullDecimal(traffic["unitSessionPercentage"]),
	}
}

func toDecimal(v any) decimal.Decimal {
	if v == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(cast.ToString(v))
	if err != nil {
		return decimal.NewFromFloat(cast.ToFloat64(v))
	}
	return d
}

func toNullDecimal(v any) decimal.NullDecimal {
	if v == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(toDecimal(v))
}
