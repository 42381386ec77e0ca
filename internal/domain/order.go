package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Attribution sources, in resolution priority order.
const (
	AttributionSourceVisit    = "visit"    // first-party visit tracking
	AttributionSourceDiscount = "discount" // discount-code lookup
	AttributionSourceReferral = "referral" // referring-site heuristic
)

// Attribution is the marketing source/medium/campaign resolved for an order.
type Attribution struct {
	UTMSource   string `json:"utm_source"`
	UTMMedium   string `json:"utm_medium"`
	UTMCampaign string `json:"utm_campaign"`
	ResolvedBy  string `json:"resolved_by"`
}

// IsZero reports whether no attribution was resolved.
func (a Attribution) IsZero() bool {
	return a.UTMSource == "" && a.UTMMedium == "" && a.UTMCampaign == ""
}

// Customer is Shopify-sourced, resolved by (org, email).
type Customer struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	OrgID     uint   `json:"org_id" gorm:"uniqueIndex:idx_customer_org_email;not null"`
	Email     string `json:"email" gorm:"uniqueIndex:idx_customer_org_email;size:255;not null"`
	FirstName string `json:"first_name" gorm:"size:128"`
	LastName  string `json:"last_name" gorm:"size:128"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Order is one row per (org, Shopify order id). RepeatCustomer and
// HasAttribution are computed once at ingestion time and not re-derived.
//
// The UTM columns are protected in the upsert policy: re-ingesting an order
// never overwrites them, so manual operator edits survive backfills.
type Order struct {
	ID             uint   `json:"id" gorm:"primaryKey"`
	OrgID          uint   `json:"org_id" gorm:"uniqueIndex:idx_order_org_shopify_id;not null"`
	ShopifyOrderID int64  `json:"shopify_order_id" gorm:"uniqueIndex:idx_order_org_shopify_id;not null"`
	OrderNumber    string `json:"order_number" gorm:"size:32"`
	Date           string `json:"date" gorm:"size:10;index;not null"`

	Email      string `json:"email" gorm:"size:255;index"`
	CustomerID *uint  `json:"customer_id" gorm:"index"`

	Total           decimal.Decimal `json:"total" gorm:"type:numeric(14,4)"`
	Currency        string          `json:"currency" gorm:"size:8"`
	FinancialStatus string          `json:"financial_status" gorm:"size:32"`
	DiscountCode    string          `json:"discount_code" gorm:"size:128"`

	UTMSource   string `json:"utm_source" gorm:"size:128"`
	UTMMedium   string `json:"utm_medium" gorm:"size:128"`
	UTMCampaign string `json:"utm_campaign" gorm:"size:255"`

	RepeatCustomer bool `json:"repeat_customer"`
	HasAttribution bool `json:"has_attribution"`

	LineItems []OrderLineItem `json:"line_items" gorm:"constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OrderLineItem is one purchased item on an order.
type OrderLineItem struct {
	ID       uint            `json:"id" gorm:"primaryKey"`
	OrderID  uint            `json:"order_id" gorm:"index;not null"`
	SKU      string          `json:"sku" gorm:"size:128;index"`
	Title    string          `json:"title" gorm:"size:255"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price" gorm:"type:numeric(12,4)"`
}
