package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is one row per (org, SKU). Physical, cost, and per-channel pricing
// attributes are editable through the dashboard; channel profit and margin
// are computed on read, never stored.
type Product struct {
	ID    uint   `json:"id" gorm:"primaryKey"`
	OrgID uint   `json:"org_id" gorm:"uniqueIndex:idx_product_org_sku;not null"`
	SKU   string `json:"sku" gorm:"uniqueIndex:idx_product_org_sku;size:128;not null"`

	Title  string `json:"title" gorm:"size:255"`
	ASIN   string `json:"asin" gorm:"size:32;index"`
	Active bool   `json:"active" gorm:"default:true"`

	CostPrice    decimal.Decimal `json:"cost_price" gorm:"type:numeric(12,4)"`
	ShippingCost decimal.Decimal `json:"shipping_cost" gorm:"type:numeric(12,4)"`
	WeightGrams  int             `json:"weight_grams"`

	AmazonPrice  decimal.Decimal `json:"amazon_price" gorm:"type:numeric(12,4)"`
	ShopifyPrice decimal.Decimal `json:"shopify_price" gorm:"type:numeric(12,4)"`
	AmazonFeePct decimal.Decimal `json:"amazon_fee_pct" gorm:"type:numeric(6,4)"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ChannelProfit is a computed per-channel view of a product's economics.
type ChannelProfit struct {
	Channel string              `json:"channel"`
	Price   decimal.Decimal     `json:"price"`
	Profit  decimal.Decimal     `json:"profit"`
	Margin  decimal.NullDecimal `json:"margin"` // null when price is zero
}

// ChannelProfits computes profit and margin for each sales channel.
func (p *Product) ChannelProfits() []ChannelProfit {
	landed := p.CostPrice.Add(p.ShippingCost)

	amazonFees := p.AmazonPrice.Mul(p.AmazonFeePct)
	out := []ChannelProfit{
		channelProfit("amazon", p.AmazonPrice, landed.Add(amazonFees)),
		channelProfit("shopify", p.ShopifyPrice, landed),
	}
	return out
}

func channelProfit(channel string, price, cost decimal.Decimal) ChannelProfit {
	cp := ChannelProfit{Channel: channel, Price: price, Profit: price.Sub(cost)}
	if !price.IsZero() {
		cp.Margin = decimal.NewNullDecimal(cp.Profit.Div(price))
	}
	return cp
}
