package application

import (
	"context"
	"fmt"
	"time"

	goshopify "github.com/bold-commerce/go-shopify/v4"

	"merchant-analytics-layer/internal/domain"
)

// In-memory fakes for the repository and client ports.

type fakeMetricRepo struct {
	campaignRows     []*domain.CampaignMetric
	salesTrafficRows []*domain.SalesTrafficMetric
	campaignDates    []string
	failCampaignIDs  map[string]bool
}

func (f *fakeMetricRepo) UpsertCampaignMetric(_ context.Context, row *domain.CampaignMetric) error {
	if f.failCampaignIDs[row.CampaignID] {
		return fmt.Errorf("constraint violation on campaign %s", row.CampaignID)
	}
	f.campaignRows = append(f.campaignRows, row)
	return nil
}

func (f *fakeMetricRepo) UpsertSalesTrafficMetric(_ context.Context, row *domain.SalesTrafficMetric) error {
	f.salesTrafficRows = append(f.salesTrafficRows, row)
	return nil
}

func (f *fakeMetricRepo) DistinctCampaignDates(context.Context, uint, string) ([]string, error) {
	return f.campaignDates, nil
}

func (f *fakeMetricRepo) DistinctSalesTrafficDates(context.Context, uint) ([]string, error) {
	return nil, nil
}

func (f *fakeMetricRepo) CampaignMetricsByRange(context.Context, uint, string, string) ([]*domain.CampaignMetric, error) {
	return f.campaignRows, nil
}

func (f *fakeMetricRepo) SalesTrafficByRange(context.Context, uint, string, string) ([]*domain.SalesTrafficMetric, error) {
	return f.salesTrafficRows, nil
}

type fakeOrderRepo struct {
	orders      []*domain.Order
	priorOrders map[string]bool // email -> has prior order
}

func (f *fakeOrderRepo) Upsert(_ context.Context, order *domain.Order) error {
	f.orders = append(f.orders, order)
	return nil
}

func (f *fakeOrderRepo) GetByShopifyID(_ context.Context, orgID uint, id int64) (*domain.Order, error) {
	for _, o := range f.orders {
		if o.OrgID == orgID && o.ShopifyOrderID == id {
			return o, nil
		}
	}
	return nil, nil
}

func (f *fakeOrderRepo) List(context.Context, uint, string, string) ([]*domain.Order, error) {
	return f.orders, nil
}

func (f *fakeOrderRepo) ExistingShopifyIDs(_ context.Context, orgID uint, ids []int64) (map[int64]bool, error) {
	existing := map[int64]bool{}
	for _, o := range f.orders {
		existing[o.ShopifyOrderID] = true
	}
	out := map[int64]bool{}
	for _, id := range ids {
		if existing[id] {
			out[id] = true
		}
	}
	return out, nil
}

func (f *fakeOrderRepo) HasPriorOrder(_ context.Context, _ uint, email string, _ string) (bool, error) {
	return f.priorOrders[email], nil
}

type fakeCustomerRepo struct {
	customers map[string]*domain.Customer
	nextID    uint
}

func (f *fakeCustomerRepo) UpsertByEmail(_ context.Context, c *domain.Customer) (*domain.Customer, error) {
	if f.customers == nil {
		f.customers = map[string]*domain.Customer{}
	}
	if existing, ok := f.customers[c.Email]; ok {
		existing.FirstName = c.FirstName
		existing.LastName = c.LastName
		return existing, nil
	}
	f.nextID++
	c.ID = f.nextID
	f.customers[c.Email] = c
	return c, nil
}

func (f *fakeCustomerRepo) List(context.Context, uint) ([]*domain.Customer, error) {
	out := make([]*domain.Customer, 0, len(f.customers))
	for _, c := range f.customers {
		out = append(out, c)
	}
	return out, nil
}

type fakeAdsClient struct {
	rows      []map[string]any
	createErr error
}

func (f *fakeAdsClient) CreateReport(context.Context, string) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	return "report-1", nil
}

func (f *fakeAdsClient) PollReport(context.Context, string) (string, error) {
	return "https://reports.example/report-1.gz", nil
}

func (f *fakeAdsClient) DownloadReport(context.Context, string) ([]map[string]any, error) {
	return f.rows, nil
}

type fakeShopifyClient struct {
	orders []goshopify.Order
}

func (f *fakeShopifyClient) GetOrders(context.Context, any) ([]goshopify.Order, error) {
	return f.orders, nil
}

func (f *fakeShopifyClient) Probe(context.Context) error { return nil }

type fakeTrafficClient struct {
	byEmail map[string]*domain.Attribution
	err     error
}

func (f *fakeTrafficClient) Attribution(_ context.Context, email string, _ string) (*domain.Attribution, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byEmail[email], nil
}

type fakePendingRepo struct {
	saved   []*domain.PendingReport
	pending []*domain.PendingReport
	marked  map[uint]string
	cutoff  time.Time
}

func (f *fakePendingRepo) Save(_ context.Context, r *domain.PendingReport) error {
	f.saved = append(f.saved, r)
	return nil
}

func (f *fakePendingRepo) ListPending(context.Context, uint) ([]*domain.PendingReport, error) {
	return f.pending, nil
}

func (f *fakePendingRepo) MarkStatus(_ context.Context, id uint, status string) error {
	if f.marked == nil {
		f.marked = map[uint]string{}
	}
	f.marked[id] = status
	return nil
}

func (f *fakePendingRepo) DeleteOlderThan(_ context.Context, cutoff time.Time) error {
	f.cutoff = cutoff
	return nil
}
