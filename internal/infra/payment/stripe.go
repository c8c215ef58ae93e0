// Package payment contains the payment confirmation adapters for the supported gateways.
package payment

import (
	"context"
	"log/slog"
	"strings"

	"storefront/internal/domain/entity"
	domainerrors "storefront/internal/domain/errors"
	"storefront/internal/domain/service"
	"storefront/internal/errors"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
)

const (
	verificationReason = "Please complete the verification to finish your payment"
	declinedReason     = "Your card was declined"
)

// cardNetwork is the subset of the Stripe API used by the card adapter.
type cardNetwork interface {
	UpdatePaymentMethod(ctx context.Context, id string, params *stripe.PaymentMethodParams) error
	ConfirmIntent(ctx context.Context, id string, params *stripe.PaymentIntentConfirmParams) (*stripe.PaymentIntent, error)
	GetIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error)
}

type stripeNetwork struct {
	api *client.API
}

func (n *stripeNetwork) UpdatePaymentMethod(ctx context.Context, id string, params *stripe.PaymentMethodParams) error {
	params.Context = ctx
	_, err := n.api.PaymentMethods.Update(id, params)

	return err
}

func (n *stripeNetwork) ConfirmIntent(ctx context.Context, id string, params *stripe.PaymentIntentConfirmParams) (*stripe.PaymentIntent, error) {
	params.Context = ctx

	return n.api.PaymentIntents.Confirm(id, params)
}

func (n *stripeNetwork) GetIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	return n.api.PaymentIntents.Get(id, params)
}

// cardAdapter confirms Stripe payment intents created by the backend for an order.
type cardAdapter struct {
	network   cardNetwork
	returnURL string
	logger    *slog.Logger
}

// NewCardAdapter creates the Stripe card adapter.
func NewCardAdapter(secretKey, returnURL string, logger *slog.Logger) service.PaymentAdapter {
	api := &client.API{}
	api.Init(secretKey, nil)

	return newCardAdapter(&stripeNetwork{api: api}, returnURL, logger)
}

func newCardAdapter(network cardNetwork, returnURL string, logger *slog.Logger) *cardAdapter {
	return &cardAdapter{
		network:   network,
		returnURL: returnURL,
		logger:    logger.With(slog.String("gateway", "stripe")),
	}
}

func (a *cardAdapter) Flow() entity.PaymentFlow {
	return entity.PaymentFlowCard
}

// Begin confirms the intent with the shopper's card, or re-reads it when no new card is given
// (the shopper is back from 3-D Secure).
func (a *cardAdapter) Begin(ctx context.Context, req *entity.PaymentRequest) (entity.PaymentOutcome, error) {
	if req.Handle == nil || req.Handle.ClientSecret == "" {
		return entity.PaymentOutcome{}, domainerrors.ErrInvalidTransition.WithDetails("card payment has no client secret")
	}

	intentID := intentIDFromClientSecret(req.Handle.ClientSecret)
	methodID := req.Input.PaymentMethodID

	var (
		intent *stripe.PaymentIntent
		err    error
	)
	if methodID == "" {
		intent, err = a.network.GetIntent(ctx, intentID)
	} else {
		intent, err = a.confirm(ctx, intentID, methodID, req.Billing)
	}
	if err != nil {
		return a.classify(req.OrderID, err)
	}

	outcome := outcomeFromIntent(intent)
	a.logger.Info("Card payment attempted",
		slog.Int64("order_id", req.OrderID),
		slog.String("intent_id", intentID),
		slog.String("intent_status", string(intent.Status)),
		slog.String("outcome", string(outcome.Kind)),
	)

	return outcome, nil
}

func (a *cardAdapter) confirm(ctx context.Context, intentID, methodID string, billing entity.Address) (*stripe.PaymentIntent, error) {
	if details := billingDetails(billing); details != nil {
		if err := a.network.UpdatePaymentMethod(ctx, methodID, &stripe.PaymentMethodParams{BillingDetails: details}); err != nil {
			return nil, err
		}
	}

	params := &stripe.PaymentIntentConfirmParams{
		PaymentMethod: stripe.String(methodID),
	}
	if a.returnURL != "" {
		params.ReturnURL = stripe.String(a.returnURL)
	}

	return a.network.ConfirmIntent(ctx, intentID, params)
}

// classify turns SDK errors into outcomes. Card errors are declines, not failures to reach the gateway.
func (a *cardAdapter) classify(orderID int64, err error) (entity.PaymentOutcome, error) {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		if stripeErr.Type == stripe.ErrorTypeCard {
			reason := stripeErr.Msg
			if reason == "" {
				reason = declinedReason
			}
			a.logger.Info("Card declined",
				slog.Int64("order_id", orderID),
				slog.String("code", string(stripeErr.Code)),
				slog.String("decline_code", string(stripeErr.DeclineCode)),
			)

			return entity.Failed(reason), nil
		}

		a.logger.Error("Stripe rejected the request",
			slog.Int64("order_id", orderID),
			slog.String("type", string(stripeErr.Type)),
			slog.Int("status", stripeErr.HTTPStatusCode),
			slog.String("message", stripeErr.Msg),
		)

		return entity.PaymentOutcome{}, domainerrors.ErrServer.WithDetails("stripe: " + stripeErr.Msg)
	}

	a.logger.Warn("Stripe unreachable", slog.Int64("order_id", orderID), slog.Any("error", err))

	return entity.PaymentOutcome{}, domainerrors.ErrNetwork.WithDetails("stripe: " + err.Error())
}

func outcomeFromIntent(intent *stripe.PaymentIntent) entity.PaymentOutcome {
	switch intent.Status {
	case stripe.PaymentIntentStatusSucceeded, stripe.PaymentIntentStatusRequiresCapture:
		return entity.Succeeded(intent.ID)
	case stripe.PaymentIntentStatusProcessing:
		return entity.PaymentOutcome{Kind: entity.OutcomeProcessing, Reason: "Your payment is processing"}
	case stripe.PaymentIntentStatusRequiresAction:
		outcome := entity.PaymentOutcome{Kind: entity.OutcomeRequiresAction, Reason: verificationReason}
		if next := intent.NextAction; next != nil && next.RedirectToURL != nil {
			outcome.RedirectURL = next.RedirectToURL.URL
		}

		return outcome
	case stripe.PaymentIntentStatusCanceled:
		return entity.PaymentOutcome{Kind: entity.OutcomeCancelled, Reason: "Payment was cancelled"}
	default:
		reason := declinedReason
		if intent.LastPaymentError != nil && intent.LastPaymentError.Msg != "" {
			reason = intent.LastPaymentError.Msg
		}

		return entity.Failed(reason)
	}
}

// billingDetails copies only populated address fields; Stripe rejects empty strings for some of them.
func billingDetails(addr entity.Address) *stripe.PaymentMethodBillingDetailsParams {
	details := &stripe.PaymentMethodBillingDetailsParams{
		Name:  optional(addr.FirstName + " " + addr.LastName),
		Email: optional(addr.Email),
		Phone: optional(addr.Phone),
	}

	address := &stripe.AddressParams{
		Line1:      optional(addr.Address1),
		Line2:      optional(addr.Address2),
		City:       optional(addr.City),
		State:      optional(addr.State),
		PostalCode: optional(addr.Postcode),
		Country:    optional(strings.ToUpper(addr.Country)),
	}
	if anySet(address.Line1, address.Line2, address.City, address.State, address.PostalCode, address.Country) {
		details.Address = address
	}

	if details.Address == nil && !anySet(details.Name, details.Email, details.Phone) {
		return nil
	}

	return details
}

func optional(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}

	return stripe.String(value)
}

func anySet(values ...*string) bool {
	for _, v := range values {
		if v != nil {
			return true
		}
	}

	return false
}

// intentIDFromClientSecret derives "pi_123" from "pi_123_secret_abc".
func intentIDFromClientSecret(secret string) string {
	if id, _, ok := strings.Cut(secret, "_secret_"); ok {
		return id
	}

	return secret
}
