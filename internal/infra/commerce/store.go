package commerce

import (
	"context"
	"net/http"
	"net/url"
	"sort"
	"strconv"

	"storefront/internal/domain/entity"
)

const (
	cacheKeyGateways      = "payment_gateways"
	cacheKeyShippingZones = "shipping_zones"
	cacheKeyCountries     = "countries"
)

// GetPaymentGateways lists payment gateways configured on the backend, ordered as in the admin.
func (c *client) GetPaymentGateways(ctx context.Context) ([]entity.PaymentGateway, error) {
	return shared(c, cacheKeyGateways, func() ([]entity.PaymentGateway, error) {
		var raw []gatewayResponse
		if err := c.do(ctx, http.MethodGet, wcPathPrefix+"/payment_gateways", nil, nil, &raw); err != nil {
			return nil, err
		}

		gateways := make([]entity.PaymentGateway, 0, len(raw))
		for _, g := range raw {
			gateways = append(gateways, g.toEntity())
		}
		sort.SliceStable(gateways, func(i, j int) bool { return gateways[i].Order < gateways[j].Order })

		return gateways, nil
	})
}

// GetShippingZones lists shipping zones.
func (c *client) GetShippingZones(ctx context.Context) ([]entity.ShippingZone, error) {
	return shared(c, cacheKeyShippingZones, func() ([]entity.ShippingZone, error) {
		var raw []shippingZoneResponse
		if err := c.do(ctx, http.MethodGet, wcPathPrefix+"/shipping/zones", nil, nil, &raw); err != nil {
			return nil, err
		}

		zones := make([]entity.ShippingZone, 0, len(raw))
		for _, z := range raw {
			zones = append(zones, entity.ShippingZone{ID: z.ID, Name: z.Name, Order: int(z.Order)})
		}

		return zones, nil
	})
}

// GetShippingMethods lists the methods of a shipping zone.
func (c *client) GetShippingMethods(ctx context.Context, zoneID int64) ([]entity.ShippingMethod, error) {
	zone := strconv.FormatInt(zoneID, 10)

	return shared(c, "shipping_methods:"+zone, func() ([]entity.ShippingMethod, error) {
		var raw []shippingMethodResponse
		path := wcPathPrefix + "/shipping/zones/" + url.PathEscape(zone) + "/methods"
		if err := c.do(ctx, http.MethodGet, path, nil, nil, &raw); err != nil {
			return nil, err
		}

		methods := make([]entity.ShippingMethod, 0, len(raw))
		for _, m := range raw {
			methods = append(methods, m.toEntity())
		}

		return methods, nil
	})
}

// GetCountries lists countries and their states.
func (c *client) GetCountries(ctx context.Context) ([]entity.Country, error) {
	return shared(c, cacheKeyCountries, func() ([]entity.Country, error) {
		var countries []entity.Country
		if err := c.do(ctx, http.MethodGet, wcPathPrefix+"/data/countries", nil, nil, &countries); err != nil {
			return nil, err
		}
		if countries == nil {
			countries = []entity.Country{}
		}

		return countries, nil
	})
}
