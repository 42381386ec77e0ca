package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderPolicyProtectsAttributionColumns(t *testing.T) {
	updates := orderPolicy.Updates()

	assert.NotContains(t, updates, "utm_source")
	assert.NotContains(t, updates, "utm_medium")
	assert.NotContains(t, updates, "utm_campaign")
	assert.NotContains(t, updates, "has_attribution")

	// Everything else is overwritten on re-ingestion.
	assert.Contains(t, updates, "total")
	assert.Contains(t, updates, "financial_status")
	assert.Contains(t, updates, "repeat_customer")
}

func TestPoliciesNeverUpdateKeyOrBookkeepingColumns(t *testing.T) {
	for _, p := range []UpsertPolicy{campaignMetricPolicy, salesTrafficPolicy, orderPolicy, customerPolicy} {
		updates := p.Updates()
		assert.NotContains(t, updates, "id")
		assert.NotContains(t, updates, "created_at")
		for _, k := range p.Key {
			assert.NotContains(t, updates, k)
		}
	}
}

func TestCampaignMetricPolicyOverwritesAllMetrics(t *testing.T) {
	updates := campaignMetricPolicy.Updates()
	for _, col := range []string{"impressions", "clicks", "spend", "sales", "units", "acos", "roas", "campaign_name"} {
		assert.Contains(t, updates, col)
	}
}

func TestOnConflictClauseShape(t *testing.T) {
	oc := salesTrafficPolicy.OnConflict()
	assert.Len(t, oc.Columns, 3)
	assert.Equal(t, "org_id", oc.Columns[0].Name)
	assert.NotEmpty(t, oc.DoUpdates)
}
