package commerce

import (
	"context"
	"net/http"
	"net/url"

	"storefront/internal/domain/entity"
	domainerrors "storefront/internal/domain/errors"
	"storefront/internal/domain/service"
)

// ValidateCoupon looks a coupon up by code. An unknown code is a ValidationError.
func (c *client) ValidateCoupon(ctx context.Context, code string) (*entity.CouponInfo, error) {
	normalized := entity.NormalizeCouponCode(code)

	var raw []couponResponse
	query := url.Values{"code": []string{normalized}}
	if err := c.do(ctx, http.MethodGet, wcPathPrefix+"/coupons", query, nil, &raw); err != nil {
		return nil, err
	}

	for _, coupon := range raw {
		if entity.NormalizeCouponCode(coupon.Code) == normalized {
			return coupon.toEntity(), nil
		}
	}

	return nil, domainerrors.ErrValidation.
		WithMessage("Coupon \"" + normalized + "\" does not exist").
		WithDetails("woocommerce_rest_coupon_invalid")
}

// ApplyCoupons asks the backend to compute the discounts of codes against the cart.
func (c *client) ApplyCoupons(ctx context.Context, cart *service.CouponCartContext) (*service.CouponComputation, error) {
	lines := make([]orderLineRequest, 0, len(cart.LineItems))
	for _, item := range cart.LineItems {
		lines = append(lines, orderLineRequest{
			ProductID:   item.ProductID,
			VariationID: item.VariationID,
			Quantity:    item.Quantity,
		})
	}

	codes := cart.Codes
	if codes == nil {
		codes = []string{}
	}

	req := applyCouponsRequest{
		CartToken:  cart.CartToken,
		CustomerID: cart.CustomerID,
		LineItems:  lines,
		Coupons:    codes,
	}

	var resp applyCouponsResponse
	if err := c.do(ctx, http.MethodPost, storefrontPathPrefix+"/cart/coupons", nil, req, &resp); err != nil {
		return nil, err
	}

	coupons := make([]entity.AppliedCoupon, 0, len(resp.Coupons))
	for _, coupon := range resp.Coupons {
		coupons = append(coupons, coupon.toEntity())
	}

	return &service.CouponComputation{
		Coupons:  coupons,
		TaxTotal: resp.TaxTotal.value(),
	}, nil
}
