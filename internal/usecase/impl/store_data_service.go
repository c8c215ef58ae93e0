package impl

import (
	"context"
	"log/slog"
	"strconv"

	"storefront/internal/domain/entity"
	domainerrors "storefront/internal/domain/errors"
	"storefront/internal/domain/service"
	"storefront/internal/usecase"

	"golang.org/x/sync/errgroup"
)

// maxZoneFetches bounds concurrent shipping method lookups.
const maxZoneFetches = 4

type storeDataService struct {
	gateway service.CommerceGateway
	logger  *slog.Logger
}

// NewStoreDataService creates the service that feeds the checkout form with backend data.
func NewStoreDataService(gateway service.CommerceGateway, logger *slog.Logger) usecase.StoreDataUsecase {
	return &storeDataService{
		gateway: gateway,
		logger:  logger.With(slog.String("component", "store_data")),
	}
}

func (s *storeDataService) Countries(ctx context.Context) ([]entity.Country, error) {
	return s.gateway.GetCountries(ctx)
}

func (s *storeDataService) PaymentGateways(ctx context.Context) ([]entity.PaymentGateway, error) {
	gateways, err := s.gateway.GetPaymentGateways(ctx)
	if err != nil {
		return nil, err
	}

	enabled := make([]entity.PaymentGateway, 0, len(gateways))
	for _, gateway := range gateways {
		if gateway.Enabled {
			enabled = append(enabled, gateway)
		}
	}

	return enabled, nil
}

// ShippingOptions fetches the zones, then the methods of every zone concurrently.
func (s *storeDataService) ShippingOptions(ctx context.Context) ([]entity.ShippingOption, error) {
	zones, err := s.gateway.GetShippingZones(ctx)
	if err != nil {
		return nil, err
	}

	options := make([]entity.ShippingOption, len(zones))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxZoneFetches)

	for i, zone := range zones {
		g.Go(func() error {
			methods, err := s.gateway.GetShippingMethods(gctx, zone.ID)
			if err != nil {
				return err
			}

			enabled := make([]entity.ShippingMethod, 0, len(methods))
			for _, method := range methods {
				if method.Enabled {
					enabled = append(enabled, method)
				}
			}
			options[i] = entity.ShippingOption{Zone: zone, Methods: enabled}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return options, nil
}

// FindShippingMethod accepts either a method ID ("flat_rate") or a rate ID
// ("flat_rate:3") and returns the first enabled match.
func (s *storeDataService) FindShippingMethod(ctx context.Context, methodID string) (*entity.ShippingSelection, error) {
	options, err := s.ShippingOptions(ctx)
	if err != nil {
		return nil, err
	}

	for _, option := range options {
		for _, method := range option.Methods {
			rateID := method.MethodID + ":" + strconv.FormatInt(method.InstanceID, 10)
			if method.MethodID == methodID || rateID == methodID {
				return &entity.ShippingSelection{
					MethodID: method.MethodID,
					Title:    method.Title,
					Total:    method.Cost,
				}, nil
			}
		}
	}

	s.logger.Debug("Unknown shipping method", slog.String("method_id", methodID))

	return nil, domainerrors.ErrValidation.WithMessage("The selected shipping method is not available").WithDetails(methodID)
}
