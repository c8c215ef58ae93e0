package payment

import (
	"context"
	"log/slog"

	"storefront/config"
	"storefront/internal/domain/entity"
	domainerrors "storefront/internal/domain/errors"
	"storefront/internal/domain/service"

	"go.uber.org/fx"
)

// AdapterParams holds dependencies for the payment adapters, injected by Fx
type AdapterParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

// AdapterResult publishes every adapter into the payment_adapters group
type AdapterResult struct {
	fx.Out

	Adapter service.PaymentAdapter `group:"payment_adapters"`
}

// NewStripeAdapter provides the card adapter
func NewStripeAdapter(params AdapterParams) AdapterResult {
	cfg := params.Config.Stripe
	if cfg == nil || cfg.SecretKey == "" {
		params.Logger.Warn("Stripe not configured, card payments disabled")

		return AdapterResult{Adapter: disabledAdapter{flow: entity.PaymentFlowCard, name: "Card payments"}}
	}

	return AdapterResult{Adapter: NewCardAdapter(cfg.SecretKey, cfg.ReturnURL, params.Logger)}
}

// NewPayPalAdapter provides the redirect adapter
func NewPayPalAdapter(params AdapterParams) (AdapterResult, error) {
	cfg := params.Config.PayPal
	if cfg == nil || cfg.ClientID == "" || cfg.Secret == "" {
		params.Logger.Warn("PayPal not configured, redirect payments disabled")

		return AdapterResult{Adapter: disabledAdapter{flow: entity.PaymentFlowRedirect, name: "PayPal"}}, nil
	}

	adapter, err := NewRedirectAdapter(cfg.ClientID, cfg.Secret, cfg.APIBase, RedirectOptions{
		ReturnURL: cfg.ReturnURL,
		CancelURL: cfg.CancelURL,
		BrandName: cfg.BrandName,
	}, params.Logger)
	if err != nil {
		return AdapterResult{}, err
	}

	return AdapterResult{Adapter: adapter}, nil
}

// disabledAdapter stands in for a gateway without credentials.
type disabledAdapter struct {
	flow entity.PaymentFlow
	name string
}

func (d disabledAdapter) Flow() entity.PaymentFlow {
	return d.flow
}

func (d disabledAdapter) Begin(context.Context, *entity.PaymentRequest) (entity.PaymentOutcome, error) {
	return entity.PaymentOutcome{}, domainerrors.ErrServer.WithMessage(d.name + " is not available right now")
}

// Module provides the payment adapters FX module
//
//nolint:gochecknoglobals
var Module = fx.Options(
	fx.Provide(
		NewStripeAdapter,
		NewPayPalAdapter,
	),
)
