package application

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	goshopify "github.com/bold-commerce/go-shopify/v4"
	"github.com/rs/zerolog"

	"merchant-analytics-layer/internal/domain"
	"merchant-analytics-layer/internal/infrastructure/metrics"
	"merchant-analytics-layer/internal/ports"
)

// OrderIngestService pulls Shopify orders for a date and upserts them with
// customer resolution and attribution. RepeatCustomer and HasAttribution
// are computed here, once, at ingestion time.
type OrderIngestService struct {
	shopify      ports.ShopifyClient
	traffic      ports.TrafficClient
	orderRepo    ports.OrderRepository
	customerRepo ports.CustomerRepository
	logger       zerolog.Logger
}

// NewOrderIngestService creates a new order ingest service
func NewOrderIngestService(
	shopify ports.ShopifyClient,
	traffic ports.TrafficClient,
	orderRepo ports.OrderRepository,
	customerRepo ports.CustomerRepository,
	logger zerolog.Logger,
) *OrderIngestService {
	return &OrderIngestService{
		shopify:      shopify,
		traffic:      traffic,
		orderRepo:    orderRepo,
		customerRepo: customerRepo,
		logger:       logger,
	}
}

// Probe verifies the Shopify credentials before any work item is attempted.
func (s *OrderIngestService) Probe(ctx context.Context) error {
	return s.shopify.Probe(ctx)
}

// IngestDate pulls all orders created on one calendar date. A single
// order's failure is logged and counted without aborting the date.
func (s *OrderIngestService) IngestDate(ctx context.Context, orgID uint, date string) (int, error) {
	dayStart, err := time.Parse("2006-01-02", date)
	if err != nil {
		return 0, fmt.Errorf("invalid date %q: %w", date, err)
	}
	orders, err := s.shopify.GetOrders(ctx, goshopify.OrderListOptions{
		Status: "any",
		ListOptions: goshopify.ListOptions{
			CreatedAtMin: dayStart,
			CreatedAtMax: dayStart.Add(24*time.Hour - time.Second),
		},
	})
	if err != nil {
		return 0, fmt.Errorf("date %s: %w", date, err)
	}

	ids := make([]int64, 0, len(orders))
	for i := range orders {
		ids = append(ids, int64(orders[i].Id))
	}
	existing, err := s.orderRepo.ExistingShopifyIDs(ctx, orgID, ids)
	if err != nil {
		return 0, fmt.Errorf("date %s: %w", date, err)
	}

	stored := 0
	for i := range orders {
		if existing[int64(orders[i].Id)] {
			continue
		}
		if err := s.ingestOrder(ctx, orgID, date, &orders[i]); err != nil {
			metrics.IngestErrors.WithLabelValues("shopify-orders").Inc()
			s.logger.Error().Err(err).
				Str("date", date).
				Uint64("orderId", orders[i].Id).
				Msg("Failed to ingest order")
			continue
		}
		metrics.RowsUpserted.WithLabelValues("order").Inc()
		stored++
	}

	s.logger.Info().
		Str("date", date).
		Int("orders", stored).
		Int("total", len(orders)).
		Msg("Ingested Shopify orders")
	return stored, nil
}

func (s *OrderIngestService) ingestOrder(ctx context.Context, orgID uint, date string, src *goshopify.Order) error {
	order := &domain.Order{
		OrgID:           orgID,
		ShopifyOrderID:  int64(src.Id),
		OrderNumber:     fmt.Sprintf("%d", src.OrderNumber),
		Date:            date,
		Email:           strings.ToLower(strings.TrimSpace(src.Email)),
		Currency:        src.Currency,
		FinancialStatus: string(src.FinancialStatus),
	}
	if src.TotalPrice != nil {
		order.Total = *src.TotalPrice
	}
	if len(src.DiscountCodes) > 0 {
		order.DiscountCode = src.DiscountCodes[0].Code
	}
	for _, li := range src.LineItems {
		item := domain.OrderLineItem{
			SKU:      li.SKU,
			Title:    li.Title,
			Quantity: li.Quantity,
		}
		if li.Price != nil {
			item.Price = *li.Price
		}
		order.LineItems = append(order.LineItems, item)
	}

	if order.Email != "" {
		record := &domain.Customer{OrgID: orgID, Email: order.Email}
		if src.Customer != nil {
			record.FirstName = src.Customer.FirstName
			record.LastName = src.Customer.LastName
		}
		customer, err := s.customerRepo.UpsertByEmail(ctx, record)
		if err != nil {
			return err
		}
		order.CustomerID = &customer.ID

		repeat, err := s.orderRepo.HasPriorOrder(ctx, orgID, order.Email, date)
		if err != nil {
			return err
		}
		order.RepeatCustomer = repeat
	}

	attr := s.resolveAttribution(ctx, order, src)
	order.UTMSource = attr.UTMSource
	order.UTMMedium = attr.UTMMedium
	order.UTMCampaign = attr.UTMCampaign
	order.HasAttribution = !attr.IsZero()

	return s.orderRepo.Upsert(ctx, order)
}

// resolveAttribution applies the priority chain: first-party visit
// tracking, then discount-code lookup, then the referring-site heuristic.
func (s *OrderIngestService) resolveAttribution(ctx context.Context, order *domain.Order, src *goshopify.Order) domain.Attribution {
	if s.traffic != nil && order.Email != "" {
		visit, err := s.traffic.Attribution(ctx, order.Email, order.Date)
		if err != nil {
			s.logger.Warn().Err(err).Str("email", order.Email).Msg("Visit attribution lookup failed")
		} else if visit != nil && !visit.IsZero() {
			return *visit
		}
	}

	if order.DiscountCode != "" {
		return domain.Attribution{
			UTMSource:   "discount",
			UTMMedium:   "code",
			UTMCampaign: order.DiscountCode,
			ResolvedBy:  domain.AttributionSourceDiscount,
		}
	}

	if source := referralSource(src.ReferringSite); source != "" {
		return domain.Attribution{
			UTMSource:  source,
			UTMMedium:  "referral",
			ResolvedBy: domain.AttributionSourceReferral,
		}
	}
	return domain.Attribution{}
}

var referralSources = map[string]string{
	"google":    "google",
	"facebook":  "facebook",
	"instagram": "instagram",
	"bing":      "bing",
	"tiktok":    "tiktok",
	"pinterest": "pinterest",
}

func referralSource(referringSite string) string {
	if referringSite == "" {
		return ""
	}
	u, err := url.Parse(referringSite)
	if err != nil || u.Host == "" {
		return ""
	}
	host := strings.ToLower(u.Host)
	for needle, source := range referralSources {
		if strings.Contains(host, needle) {
			return source
		}
	}
	return ""
}
