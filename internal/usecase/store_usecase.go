package usecase

import (
	"context"

	"storefront/internal/domain/entity"
)

// StoreDataUsecase serves the backend data needed to populate the checkout form.
type StoreDataUsecase interface {
	// Countries lists countries and their states.
	Countries(ctx context.Context) ([]entity.Country, error)

	// PaymentGateways lists the enabled payment gateways in display order.
	PaymentGateways(ctx context.Context) ([]entity.PaymentGateway, error)

	// ShippingOptions lists every zone with its enabled methods.
	ShippingOptions(ctx context.Context) ([]entity.ShippingOption, error)

	// FindShippingMethod resolves a method ID to the selection the backend charges.
	// An unknown method is a ValidationError.
	FindShippingMethod(ctx context.Context, methodID string) (*entity.ShippingSelection, error)
}
