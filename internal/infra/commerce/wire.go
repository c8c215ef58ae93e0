package commerce

import (
	"bytes"
	"strconv"
	"time"

	"storefront/internal/domain/entity"

	"github.com/shopspring/decimal"
)

const wooDateLayout = "2006-01-02T15:04:05"

type orderLineRequest struct {
	ProductID   int64 `json:"product_id"`
	VariationID int64 `json:"variation_id,omitempty"`
	Quantity    int   `json:"quantity"`
}

type createOrderRequest struct {
	PaymentMethod      entity.PaymentMethod  `json:"payment_method"`
	PaymentMethodTitle string                `json:"payment_method_title,omitempty"`
	SetPaid            bool                  `json:"set_paid"`
	Billing            entity.Address        `json:"billing"`
	Shipping           entity.Address        `json:"shipping"`
	LineItems          []orderLineRequest    `json:"line_items"`
	CouponLines        []entity.CouponLine   `json:"coupon_lines"`
	ShippingLines      []entity.ShippingLine `json:"shipping_lines,omitempty"`
	CustomerNote       string                `json:"customer_note,omitempty"`
	CustomerID         int64                 `json:"customer_id"`
}

func newCreateOrderRequest(draft *entity.OrderDraft) createOrderRequest {
	lines := make([]orderLineRequest, 0, len(draft.LineItems))
	for _, item := range draft.LineItems {
		lines = append(lines, orderLineRequest{
			ProductID:   item.ProductID,
			VariationID: item.VariationID,
			Quantity:    item.Quantity,
		})
	}

	coupons := draft.CouponLines
	if coupons == nil {
		coupons = []entity.CouponLine{}
	}

	return createOrderRequest{
		PaymentMethod:      draft.PaymentMethod,
		PaymentMethodTitle: draft.PaymentMethodTitle,
		SetPaid:            draft.SetPaid,
		Billing:            draft.Billing,
		Shipping:           draft.Shipping,
		LineItems:          lines,
		CouponLines:        coupons,
		ShippingLines:      draft.ShippingLines,
		CustomerNote:       draft.CustomerNote,
		CustomerID:         draft.CustomerID,
	}
}

type updateOrderRequest struct {
	Status entity.OrderStatus `json:"status"`
}

type orderNoteRequest struct {
	Note string `json:"note"`
}

// wooDecimal accepts numbers, numeric strings and empty strings for money fields.
type wooDecimal decimal.Decimal

func (d *wooDecimal) UnmarshalJSON(data []byte) error {
	trimmed := bytes.Trim(data, `"`)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		*d = wooDecimal(decimal.Zero)

		return nil
	}

	parsed, err := decimal.NewFromString(string(trimmed))
	if err != nil {
		return err
	}
	*d = wooDecimal(parsed)

	return nil
}

func (d wooDecimal) value() decimal.Decimal {
	return decimal.Decimal(d)
}

// flexInt accepts numbers and numeric strings; WooCommerce emits both for ordering fields.
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	if len(data) == 0 || string(data) == "null" {
		*f = 0

		return nil
	}

	n, err := strconv.Atoi(string(data))
	if err != nil {
		return err
	}
	*f = flexInt(n)

	return nil
}

type gatewayResponse struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Enabled     bool    `json:"enabled"`
	Order       flexInt `json:"order"`
}

func (g gatewayResponse) toEntity() entity.PaymentGateway {
	return entity.PaymentGateway{
		ID:          g.ID,
		Title:       g.Title,
		Description: g.Description,
		Enabled:     g.Enabled,
		Order:       int(g.Order),
	}
}

type shippingZoneResponse struct {
	ID    int64   `json:"id"`
	Name  string  `json:"name"`
	Order flexInt `json:"order"`
}

type settingValue struct {
	Value string `json:"value"`
}

type shippingMethodResponse struct {
	InstanceID int64  `json:"instance_id"`
	MethodID   string `json:"method_id"`
	Title      string `json:"title"`
	Enabled    bool   `json:"enabled"`
	Settings   struct {
		Cost *settingValue `json:"cost"`
	} `json:"settings"`
}

func (m shippingMethodResponse) toEntity() entity.ShippingMethod {
	cost := decimal.Zero
	if m.Settings.Cost != nil {
		if parsed, err := decimal.NewFromString(m.Settings.Cost.Value); err == nil {
			cost = parsed
		}
	}

	return entity.ShippingMethod{
		InstanceID: m.InstanceID,
		MethodID:   m.MethodID,
		Title:      m.Title,
		Enabled:    m.Enabled,
		Cost:       cost,
	}
}

type couponResponse struct {
	Code           string     `json:"code"`
	Amount         wooDecimal `json:"amount"`
	DiscountType   string     `json:"discount_type"`
	Description    string     `json:"description"`
	DateExpiresGMT *string    `json:"date_expires_gmt"`
	MinimumAmount  wooDecimal `json:"minimum_amount"`
	MaximumAmount  wooDecimal `json:"maximum_amount"`
	UsageLimit     *int       `json:"usage_limit"`
	UsageCount     int        `json:"usage_count"`
}

func (c couponResponse) toEntity() *entity.CouponInfo {
	info := &entity.CouponInfo{
		Code:          entity.NormalizeCouponCode(c.Code),
		DiscountType:  entity.DiscountType(c.DiscountType),
		Amount:        c.Amount.value(),
		Description:   c.Description,
		MinimumAmount: c.MinimumAmount.value(),
		MaximumAmount: c.MaximumAmount.value(),
		UsageCount:    c.UsageCount,
	}
	if c.UsageLimit != nil {
		info.UsageLimit = *c.UsageLimit
	}
	if c.DateExpiresGMT != nil && *c.DateExpiresGMT != "" {
		if expires, err := time.ParseInLocation(wooDateLayout, *c.DateExpiresGMT, time.UTC); err == nil {
			info.ExpiresAt = &expires
		}
	}

	return info
}

type applyCouponsRequest struct {
	CartToken  entity.CartToken   `json:"cart_token"`
	CustomerID int64              `json:"customer_id"`
	LineItems  []orderLineRequest `json:"line_items"`
	Coupons    []string           `json:"coupons"`
}

type appliedCouponResponse struct {
	Code          string     `json:"code"`
	DiscountType  string     `json:"discount_type"`
	Amount        wooDecimal `json:"amount"`
	DiscountTotal wooDecimal `json:"discount_total"`
	DiscountTax   wooDecimal `json:"discount_tax"`
}

func (c appliedCouponResponse) toEntity() entity.AppliedCoupon {
	return entity.AppliedCoupon{
		Code:          entity.NormalizeCouponCode(c.Code),
		DiscountType:  entity.DiscountType(c.DiscountType),
		Amount:        c.Amount.value(),
		DiscountTotal: c.DiscountTotal.value(),
		DiscountTax:   c.DiscountTax.value(),
	}
}

type applyCouponsResponse struct {
	Coupons  []appliedCouponResponse `json:"coupons"`
	TaxTotal wooDecimal              `json:"tax_total"`
}

type paymentIntentRequest struct {
	OrderID int64 `json:"order_id"`
}

type confirmPaymentRequest struct {
	OrderID       int64                `json:"order_id"`
	PaymentMethod entity.PaymentMethod `json:"payment_method"`
	TransactionID string               `json:"transaction_id"`
}
