package repository

import (
	"gorm.io/gorm/clause"
)

// UpsertPolicy declares, once per entity, which columns form the conflict
// key, which columns are insert-only (never overwritten on conflict), and
// which columns exist at all. Everything not key, not protected, and not
// bookkeeping is overwritten on conflict.
type UpsertPolicy struct {
	Key       []string
	Protected []string
	Columns   []string
}

// never updated regardless of policy
var bookkeepingColumns = map[string]bool{
	"id":         true,
	"created_at": true,
}

// Updates returns the columns overwritten on conflict.
func (p UpsertPolicy) Updates() []string {
	skip := make(map[string]bool, len(p.Key)+len(p.Protected))
	for _, c := range p.Key {
		skip[c] = true
	}
	for _, c := range p.Protected {
		skip[c] = true
	}

	var out []string
	for _, c := range p.Columns {
		if skip[c] || bookkeepingColumns[c] {
			continue
		}
		out = append(out, c)
	}
	return out
}

// OnConflict builds the gorm conflict clause for this policy.
func (p UpsertPolicy) OnConflict() clause.OnConflict {
	cols := make([]clause.Column, len(p.Key))
	for i, c := range p.Key {
		cols[i] = clause.Column{Name: c}
	}
	return clause.OnConflict{
		Columns:   cols,
		DoUpdates: clause.AssignmentColumns(p.Updates()),
	}
}

// Upsert policies, declared beside the entities they protect.
var (
	campaignMetricPolicy = UpsertPolicy{
		Key: []string{"org_id", "date", "campaign_id", "source"},
		Columns: []string{
			"id", "org_id", "date", "campaign_id", "source", "campaign_name",
			"impressions", "clicks", "spend", "sales", "units", "orders",
			"acos", "roas", "created_at", "updated_at",
		},
	}

	salesTrafficPolicy = UpsertPolicy{
		Key: []string{"org_id", "date", "asin"},
		Columns: []string{
			"id", "org_id", "date", "asin", "sessions", "page_views",
			"units_ordered", "total_order_items", "ordered_product_sales",
			"buy_box_percentage", "unit_session_pct", "created_at", "updated_at",
		},
	}

	// Attribution columns are operator-editable; re-ingestion keeps them.
	orderPolicy = UpsertPolicy{
		Key:       []string{"org_id", "shopify_order_id"},
		Protected: []string{"utm_source", "utm_medium", "utm_campaign", "has_attribution"},
		Columns: []string{
			"id", "org_id", "shopify_order_id", "order_number", "date",
			"email", "customer_id", "total", "currency", "financial_status",
			"discount_code", "utm_source", "utm_medium", "utm_campaign",
			"repeat_customer", "has_attribution", "created_at", "updated_at",
		},
	}

	customerPolicy = UpsertPolicy{
		Key: []string{"org_id", "email"},
		Columns: []string{
			"id", "org_id", "email", "first_name", "last_name",
			"created_at", "updated_at",
		},
	}
)
