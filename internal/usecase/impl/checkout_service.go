package impl

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"storefront/internal/domain/entity"
	domainerrors "storefront/internal/domain/errors"
	"storefront/internal/domain/service"
	"storefront/internal/errors"
	"storefront/internal/usecase"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// CheckoutDeps are the collaborators of one session's checkout orchestrator.
type CheckoutDeps struct {
	SessionID string
	Cart      usecase.CartUsecase
	Coupons   usecase.CouponUsecase
	StoreData usecase.StoreDataUsecase
	Gateway   service.CommerceGateway
	Adapters  map[entity.PaymentFlow]service.PaymentAdapter
	Publisher service.EventPublisher
	Validate  *validator.Validate
	Logger    *slog.Logger

	FallbackCountry string
	Currency        string
	OfflineNote     string
}

// attempt is the working set of one checkout attempt. Only the goroutine holding the
// in-flight flag touches it.
type attempt struct {
	identity entity.Identity
	form     entity.CheckoutForm
	items    []entity.CartItem
	coupons  []entity.AppliedCoupon
	shipping *entity.ShippingSelection
	order    *entity.CheckoutOrder
	handle   *entity.PaymentHandle
	input    entity.PaymentInput
	redirect string
	message  string
	err      error
}

// stepResult is what a step asks the driver to do next. An error with a non-failed
// next state is recoverable: the attempt stays in next and the error goes to the caller.
type stepResult struct {
	next entity.CheckoutState
	err  error
}

type stepFunc func(ctx context.Context, a *attempt) stepResult

type checkoutService struct {
	deps     CheckoutDeps
	logger   *slog.Logger
	steps    map[entity.CheckoutState]stepFunc
	inFlight atomic.Bool

	mu        sync.RWMutex
	state     entity.CheckoutState
	current   *attempt
	snapshot  entity.CheckoutStatus
	lastForm  *entity.CheckoutForm
	onSuccess []func(entity.CheckoutStatus)
	onError   []func(entity.CheckoutStatus, error)
}

// NewCheckoutService creates the checkout orchestrator of one browser session.
func NewCheckoutService(deps CheckoutDeps) usecase.CheckoutUsecase {
	if deps.Validate == nil {
		deps.Validate = NewFormValidator()
	}

	s := &checkoutService{
		deps:     deps,
		logger:   deps.Logger.With(slog.String("component", "checkout"), slog.String("session_id", deps.SessionID)),
		state:    entity.CheckoutIdle,
		snapshot: entity.CheckoutStatus{State: entity.CheckoutIdle},
	}
	s.steps = map[entity.CheckoutState]stepFunc{
		entity.CheckoutValidating:        s.validate,
		entity.CheckoutCreatingOrder:     s.createOrder,
		entity.CheckoutAwaitingPayment:   s.collectPayment,
		entity.CheckoutConfirmingPayment: s.confirmPayment,
	}

	return s
}

func (s *checkoutService) Submit(ctx context.Context, identity entity.Identity, form *entity.CheckoutForm) (*entity.CheckoutStatus, error) {
	if form == nil {
		return nil, domainerrors.ErrValidation.WithMessage("Please fill in the checkout form")
	}
	if !s.inFlight.CompareAndSwap(false, true) {
		return nil, domainerrors.ErrCheckoutInProgress
	}
	defer s.inFlight.Store(false)

	if s.currentState() == entity.CheckoutAwaitingPayment {
		status := s.Status()

		return &status, domainerrors.ErrCheckoutInProgress.WithDetails("an order is waiting for payment")
	}

	a := &attempt{identity: identity, form: *form}

	s.mu.Lock()
	s.current = a
	kept := *form
	s.lastForm = &kept
	s.mu.Unlock()

	s.transition(entity.CheckoutValidating, a)
	err := s.run(ctx, a)
	status := s.Status()

	return &status, err
}

func (s *checkoutService) ConfirmPayment(ctx context.Context, input entity.PaymentInput) (*entity.CheckoutStatus, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		return nil, domainerrors.ErrCheckoutInProgress
	}
	defer s.inFlight.Store(false)

	s.mu.RLock()
	a, state := s.current, s.state
	s.mu.RUnlock()

	if a == nil || state != entity.CheckoutAwaitingPayment {
		status := s.Status()

		return &status, domainerrors.ErrInvalidTransition
	}

	a.input = input
	err := s.run(ctx, a)
	status := s.Status()

	return &status, err
}

// Cancel is only valid while waiting for payment. The backend order is not touched.
func (s *checkoutService) Cancel(_ context.Context) (*entity.CheckoutStatus, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		return nil, domainerrors.ErrCheckoutInProgress
	}
	defer s.inFlight.Store(false)

	s.mu.RLock()
	a, state := s.current, s.state
	s.mu.RUnlock()

	if a == nil || state != entity.CheckoutAwaitingPayment {
		status := s.Status()

		return &status, domainerrors.ErrInvalidTransition
	}

	a.message = "Payment was cancelled"
	s.transition(entity.CheckoutCancelled, a)
	s.logger.Info("Checkout cancelled", slog.Int64("order_id", a.order.ID))
	status := s.Status()

	return &status, nil
}

func (s *checkoutService) Reconcile(ctx context.Context) (*entity.CheckoutOrder, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		return nil, domainerrors.ErrCheckoutInProgress
	}
	defer s.inFlight.Store(false)

	s.mu.RLock()
	a, state := s.current, s.state
	s.mu.RUnlock()

	if a == nil || a.order == nil {
		return nil, domainerrors.ErrInvalidTransition.WithMessage("There is no order to look up")
	}

	order, err := s.deps.Gateway.GetOrder(ctx, a.order.ID)
	if err != nil {
		return nil, err
	}

	if state == entity.CheckoutAwaitingPayment && order.Status.IsPaid() {
		s.logger.Info("Backend reports order paid, completing checkout",
			slog.Int64("order_id", order.ID),
			slog.String("status", string(order.Status)),
		)
		a.order = order
		a.err = nil
		s.transition(entity.CheckoutCompleted, a)
		s.complete(ctx, a)
	}

	return order, nil
}

func (s *checkoutService) Status() entity.CheckoutStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status := s.snapshot
	if status.Handle != nil {
		handle := *status.Handle
		status.Handle = &handle
	}

	return status
}

func (s *checkoutService) Form() *entity.CheckoutForm {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.lastForm == nil {
		return nil
	}
	form := *s.lastForm

	return &form
}

func (s *checkoutService) OnSuccess(listener func(status entity.CheckoutStatus)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.onSuccess = append(s.onSuccess, listener)
}

func (s *checkoutService) OnError(listener func(status entity.CheckoutStatus, err error)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.onError = append(s.onError, listener)
}

// run drives the attempt step by step until it waits for the shopper or settles.
func (s *checkoutService) run(ctx context.Context, a *attempt) error {
	for {
		step, ok := s.steps[s.currentState()]
		if !ok {
			return nil
		}

		result := step(ctx, a)
		a.err = result.err
		s.transition(result.next, a)

		if result.err != nil && result.next != entity.CheckoutFailed {
			return result.err
		}

		switch result.next {
		case entity.CheckoutFailed:
			s.fail(ctx, a)

			return result.err
		case entity.CheckoutCompleted:
			s.complete(ctx, a)

			return nil
		case entity.CheckoutAwaitingPayment, entity.CheckoutCancelled:
			return nil
		}
	}
}

// validate runs every local check before any network call, then resolves the
// shipping selection against the backend.
func (s *checkoutService) validate(ctx context.Context, a *attempt) stepResult {
	if err := validateForm(s.deps.Validate, &a.form); err != nil {
		return stepResult{next: entity.CheckoutFailed, err: err}
	}

	a.items = s.deps.Cart.GetItems(a.identity)
	if len(a.items) == 0 {
		return stepResult{next: entity.CheckoutFailed, err: domainerrors.ErrEmptyCart}
	}
	a.coupons = s.deps.Coupons.Applied(a.identity)

	selection := a.form.ShippingMethod
	if selection == nil {
		selection = s.deps.Cart.GetShipping(a.identity)
	}
	if selection != nil {
		resolved, err := s.deps.StoreData.FindShippingMethod(ctx, selection.MethodID)
		if err != nil {
			return stepResult{next: entity.CheckoutFailed, err: err}
		}
		a.shipping = resolved
	}

	return stepResult{next: entity.CheckoutCreatingOrder}
}

func (s *checkoutService) createOrder(ctx context.Context, a *attempt) stepResult {
	order, err := s.deps.Gateway.CreateOrder(ctx, s.buildDraft(a))
	if err != nil {
		return stepResult{next: entity.CheckoutFailed, err: err}
	}
	a.order = order

	s.logger.Info("Order created",
		slog.Int64("order_id", order.ID),
		slog.String("payment_method", string(a.form.PaymentMethod)),
	)

	switch a.form.PaymentMethod.Flow() {
	case entity.PaymentFlowCard:
		intent, err := s.deps.Gateway.CreatePaymentIntent(ctx, order.ID)
		if err != nil {
			return stepResult{next: entity.CheckoutFailed, err: err}
		}
		a.handle = &entity.PaymentHandle{ClientSecret: intent.ClientSecret}
		a.message = "Enter your card details to pay"

		return stepResult{next: entity.CheckoutAwaitingPayment}
	case entity.PaymentFlowRedirect:
		a.handle = &entity.PaymentHandle{}
		a.message = "Continue to the payment provider"

		return stepResult{next: entity.CheckoutAwaitingPayment}
	default:
		updated, err := s.deps.Gateway.UpdateOrderStatus(ctx, order.ID, entity.OrderStatusOnHold, s.deps.OfflineNote)
		if err != nil {
			return stepResult{next: entity.CheckoutFailed, err: err}
		}
		if updated != nil {
			a.order = updated
		}

		return stepResult{next: entity.CheckoutCompleted}
	}
}

// collectPayment hands the shopper's input to the gateway adapter. Declines and
// verification requests keep the order waiting so the same order can be paid.
func (s *checkoutService) collectPayment(ctx context.Context, a *attempt) stepResult {
	adapter, ok := s.deps.Adapters[a.form.PaymentMethod.Flow()]
	if !ok {
		return stepResult{
			next: entity.CheckoutAwaitingPayment,
			err:  domainerrors.ErrServer.WithMessage("This payment method is not available right now"),
		}
	}

	outcome, err := adapter.Begin(ctx, s.paymentRequest(a))
	if err != nil {
		return stepResult{next: entity.CheckoutAwaitingPayment, err: err}
	}

	if outcome.ApprovalHandle != "" {
		a.handle.ApprovalHandle = outcome.ApprovalHandle
	}
	a.redirect = outcome.RedirectURL
	a.message = outcome.Reason

	switch outcome.Kind {
	case entity.OutcomeSucceeded:
		a.handle.GatewayTransactionID = outcome.GatewayTransactionID

		return stepResult{next: entity.CheckoutConfirmingPayment}
	case entity.OutcomeProcessing:
		a.message = "Your payment is processing"

		return stepResult{next: entity.CheckoutAwaitingPayment}
	case entity.OutcomeRequiresAction:
		err := domainerrors.ErrPaymentRequiresAction
		if outcome.Reason != "" {
			err = err.WithMessage(outcome.Reason)
		}

		return stepResult{next: entity.CheckoutAwaitingPayment, err: err}
	case entity.OutcomeCancelled:
		a.message = "Payment was cancelled"

		return stepResult{next: entity.CheckoutCancelled}
	default:
		err := domainerrors.ErrPaymentDeclined
		if outcome.Reason != "" {
			err = err.WithMessage(outcome.Reason)
		}

		return stepResult{next: entity.CheckoutAwaitingPayment, err: err}
	}
}

// confirmPayment completes the attempt only when the backend acknowledges the payment.
// The payment is never retried from here.
func (s *checkoutService) confirmPayment(ctx context.Context, a *attempt) stepResult {
	txnID := a.handle.GatewayTransactionID

	confirmation, err := s.deps.Gateway.ConfirmPayment(ctx, a.order.ID, a.form.PaymentMethod, txnID)
	if err != nil || confirmation == nil || !confirmation.Success || !confirmation.OrderStatus.IsPaid() {
		attrs := []any{slog.Int64("order_id", a.order.ID), slog.String("transaction_id", txnID)}
		if err != nil {
			attrs = append(attrs, slog.Any("error", err))
		}
		s.logger.Error("Payment succeeded but the order was not confirmed", attrs...)

		return stepResult{
			next: entity.CheckoutFailed,
			err:  domainerrors.ErrOrderConfirmationMismatch.WithDetails("transaction " + txnID),
		}
	}

	a.order.Status = confirmation.OrderStatus
	if confirmation.OrderNumber != "" {
		a.order.Number = confirmation.OrderNumber
	}
	a.message = confirmation.Message

	return stepResult{next: entity.CheckoutCompleted}
}

func (s *checkoutService) buildDraft(a *attempt) *entity.OrderDraft {
	billing := a.form.Billing
	billing.Country = normalizeCountry(billing.Country, s.deps.FallbackCountry)

	shipping := billing
	if a.form.ShipToDifferent {
		shipping = a.form.Shipping
		shipping.Country = normalizeCountry(shipping.Country, s.deps.FallbackCountry)
	}

	couponLines := make([]entity.CouponLine, 0, len(a.coupons))
	for _, coupon := range a.coupons {
		couponLines = append(couponLines, entity.CouponLine{Code: coupon.Code})
	}

	draft := &entity.OrderDraft{
		PaymentMethod:      a.form.PaymentMethod,
		PaymentMethodTitle: a.form.PaymentMethodTitle,
		Billing:            billing,
		Shipping:           shipping,
		LineItems:          lineItemsFrom(a.items),
		CouponLines:        couponLines,
		CustomerNote:       a.form.CustomerNote,
		CustomerID:         a.identity.UserID,
	}
	if a.shipping != nil {
		draft.ShippingLines = []entity.ShippingLine{{
			MethodID:    a.shipping.MethodID,
			MethodTitle: a.shipping.Title,
			Total:       a.shipping.Total,
		}}
	}

	return draft
}

func (s *checkoutService) paymentRequest(a *attempt) *entity.PaymentRequest {
	handle := *a.handle
	billing := a.form.Billing
	billing.Country = normalizeCountry(billing.Country, s.deps.FallbackCountry)

	return &entity.PaymentRequest{
		OrderID:  a.order.ID,
		Amount:   a.order.Total,
		Currency: s.currency(a),
		Billing:  billing,
		Handle:   &handle,
		Input:    a.input,
	}
}

// fail records the failure and marks the order failed on the backend, unless the
// payment went through and only its confirmation is missing.
func (s *checkoutService) fail(ctx context.Context, a *attempt) {
	if domainerrors.IsKind(a.err, domainerrors.KindValidation) || domainerrors.IsKind(a.err, domainerrors.KindEmptyCart) {
		s.logger.Debug("Checkout rejected", slog.Any("error", a.err))
	} else {
		s.logger.Warn("Checkout failed", slog.Any("error", a.err))
	}

	if a.order != nil && !domainerrors.IsKind(a.err, domainerrors.KindConfirmMismatch) {
		background := context.WithoutCancel(ctx)
		if _, err := s.deps.Gateway.UpdateOrderStatus(background, a.order.ID, entity.OrderStatusFailed, domainerrors.UserMessage(a.err)); err != nil {
			s.logger.Warn("Failed to mark order as failed",
				slog.Int64("order_id", a.order.ID),
				slog.Any("error", err),
			)
		}
	}

	if a.order != nil {
		s.publish(ctx, a, entity.CheckoutFailed)
	}

	status := s.Status()

	s.mu.RLock()
	listeners := append([]func(entity.CheckoutStatus, error){}, s.onError...)
	s.mu.RUnlock()
	for _, listener := range listeners {
		listener(status, a.err)
	}
}

// complete clears the cart and its coupons, then announces the order.
func (s *checkoutService) complete(ctx context.Context, a *attempt) {
	s.deps.Cart.Clear(a.identity)
	s.deps.Coupons.Reset(a.identity)

	s.logger.Info("Checkout completed",
		slog.Int64("order_id", a.order.ID),
		slog.String("status", string(a.order.Status)),
	)
	s.publish(ctx, a, entity.CheckoutCompleted)

	status := s.Status()

	s.mu.RLock()
	listeners := append([]func(entity.CheckoutStatus){}, s.onSuccess...)
	s.mu.RUnlock()
	for _, listener := range listeners {
		listener(status)
	}
}

func (s *checkoutService) publish(ctx context.Context, a *attempt, state entity.CheckoutState) {
	if s.deps.Publisher == nil {
		return
	}

	event := &service.OrderEvent{
		SessionID:     s.deps.SessionID,
		Identity:      a.identity.Namespace(),
		OrderID:       a.order.ID,
		OrderNumber:   a.order.Number,
		State:         state,
		PaymentMethod: a.form.PaymentMethod,
		Total:         a.order.Total,
		Currency:      s.currency(a),
		OccurredAt:    time.Now().UTC(),
	}
	if a.handle != nil {
		event.TransactionID = a.handle.GatewayTransactionID
	}
	var appErr domainerrors.AppError
	if a.err != nil && errors.As(a.err, &appErr) {
		event.ErrorCode = appErr.ErrorCode()
	}

	if err := s.deps.Publisher.PublishOrderEvent(context.WithoutCancel(ctx), event); err != nil {
		s.logger.Warn("Failed to publish order event",
			slog.Int64("order_id", a.order.ID),
			slog.Any("error", err),
		)
	}
}

func (s *checkoutService) currency(a *attempt) string {
	if a.order != nil && a.order.Currency != "" {
		return a.order.Currency
	}

	return s.deps.Currency
}

func (s *checkoutService) currentState() entity.CheckoutState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.state
}

// transition moves to next and refreshes the status snapshot from the attempt.
func (s *checkoutService) transition(next entity.CheckoutState, a *attempt) {
	status := entity.CheckoutStatus{
		State:         next,
		PaymentMethod: a.form.PaymentMethod,
		Amount:        decimal.Zero,
		Currency:      s.currency(a),
		Message:       a.message,
		RedirectURL:   a.redirect,
	}
	if a.order != nil {
		status.OrderID = a.order.ID
		status.OrderNumber = a.order.Number
		status.Amount = a.order.Total
	}
	if a.handle != nil && next == entity.CheckoutAwaitingPayment {
		handle := *a.handle
		status.Handle = &handle
	}
	if a.err != nil {
		var appErr domainerrors.AppError
		if errors.As(a.err, &appErr) {
			status.ErrorCode = appErr.ErrorCode()
		}
		status.Message = domainerrors.UserMessage(a.err)
	}

	s.mu.Lock()
	prev := s.state
	s.state = next
	s.snapshot = status
	s.mu.Unlock()

	if prev != next {
		s.logger.Debug("Checkout state changed",
			slog.String("from", string(prev)),
			slog.String("to", string(next)),
		)
	}
}
