package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Metric sources. CSV-imported rows carry the campaign NAME as their
// campaign ID (manual exports have no real id), so the source column keeps
// them from colliding with API-sourced rows for the same day.
const (
	MetricSourceAPI = "api"
	MetricSourceCSV = "csv"
)

// CampaignMetric is one row of advertising performance per
// (org, date, campaign, source). Dates are ISO strings (YYYY-MM-DD)
// throughout the pipeline.
//
// Count-like metrics are zero when the provider omits them; derived metrics
// (ACOS, ROAS) stay null so downstream averages can exclude them.
type CampaignMetric struct {
	ID           uint   `json:"id" gorm:"primaryKey"`
	OrgID        uint   `json:"org_id" gorm:"uniqueIndex:idx_campaign_metric_key;not null"`
	Date         string `json:"date" gorm:"uniqueIndex:idx_campaign_metric_key;size:10;not null"`
	CampaignID   string `json:"campaign_id" gorm:"uniqueIndex:idx_campaign_metric_key;size:128;not null"`
	Source       string `json:"source" gorm:"uniqueIndex:idx_campaign_metric_key;size:16;not null;default:api"`
	CampaignName string `json:"campaign_name" gorm:"size:255"`

	Impressions int64               `json:"impressions"`
	Clicks      int64               `json:"clicks"`
	Spend       decimal.Decimal     `json:"spend" gorm:"type:numeric(14,4)"`
	Sales       decimal.Decimal     `json:"sales" gorm:"type:numeric(14,4)"`
	Units       int64               `json:"units"`
	Orders      int64               `json:"orders"`
	Acos        decimal.NullDecimal `json:"acos" gorm:"type:numeric(10,4)"`
	Roas        decimal.NullDecimal `json:"roas" gorm:"type:numeric(10,4)"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SalesTrafficMetric is one row of Amazon sales & traffic data per
// (org, date, ASIN).
type SalesTrafficMetric struct {
	ID    uint   `json:"id" gorm:"primaryKey"`
	OrgID uint   `json:"org_id" gorm:"uniqueIndex:idx_sales_traffic_key;not null"`
	Date  string `json:"date" gorm:"uniqueIndex:idx_sales_traffic_key;size:10;not null"`
	ASIN  string `json:"asin" gorm:"uniqueIndex:idx_sales_traffic_key;size:32;not null"`

	Sessions            int64               `json:"sessions"`
	PageViews           int64               `json:"page_views"`
	UnitsOrdered        int64               `json:"units_ordered"`
	TotalOrderItems     int64               `json:"total_order_items"`
	OrderedProductSales decimal.Decimal     `json:"ordered_product_sales" gorm:"type:numeric(14,4)"`
	BuyBoxPercentage    decimal.NullDecimal `json:"buy_box_percentage" gorm:"type:numeric(10,4)"`
	UnitSessionPct      decimal.NullDecimal `json:"unit_session_percentage" gorm:"type:numeric(10,4)"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Pending report statuses.
const (
	ReportStatusPending   = "pending"
	ReportStatusCompleted = "completed"
	ReportStatusFailed    = "failed"
)

// PendingReport bridges a provider-side async report across process
// restarts. Only the SP-API flow persists these; Ads reports are
// poll-and-discard. Rows older than 24 hours are cleaned up at startup.
type PendingReport struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	OrgID     uint      `json:"org_id" gorm:"index;not null"`
	ReportID  string    `json:"report_id" gorm:"size:128;not null"`
	Date      string    `json:"date" gorm:"size:10;not null"`
	Status    string    `json:"status" gorm:"size:16;not null;default:pending"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
