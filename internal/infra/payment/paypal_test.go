package payment

import (
	"context"
	"net/http"
	"testing"

	"storefront/internal/domain/entity"
	domainerrors "storefront/internal/domain/errors"

	"github.com/plutov/paypal/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var _ paypalOrders = (*paypal.Client)(nil)

type mockPayPalOrders struct {
	mock.Mock
}

func (m *mockPayPalOrders) CreateOrder(ctx context.Context, intent string, units []paypal.PurchaseUnitRequest, source *paypal.PaymentSource, appContext *paypal.ApplicationContext) (*paypal.Order, error) {
	args := m.Called(ctx, intent, units, source, appContext)
	order, _ := args.Get(0).(*paypal.Order)

	return order, args.Error(1)
}

func (m *mockPayPalOrders) GetOrder(ctx context.Context, orderID string) (*paypal.Order, error) {
	args := m.Called(ctx, orderID)
	order, _ := args.Get(0).(*paypal.Order)

	return order, args.Error(1)
}

func (m *mockPayPalOrders) CaptureOrder(ctx context.Context, orderID string, req paypal.CaptureOrderRequest) (*paypal.CaptureOrderResponse, error) {
	args := m.Called(ctx, orderID, req)
	resp, _ := args.Get(0).(*paypal.CaptureOrderResponse)

	return resp, args.Error(1)
}

func redirectRequest() *entity.PaymentRequest {
	return &entity.PaymentRequest{
		OrderID:  502,
		Amount:   decimal.RequireFromString("45.5"),
		Currency: "USD",
	}
}

func TestRedirectAdapter_FirstCallRequiresApproval(t *testing.T) {
	orders := &mockPayPalOrders{}
	orders.On("CreateOrder", mock.Anything, paypal.OrderIntentCapture,
		mock.MatchedBy(func(units []paypal.PurchaseUnitRequest) bool {
			return len(units) == 1 && units[0].ReferenceID == "502" &&
				units[0].Amount.Value == "45.50" && units[0].Amount.Currency == "USD"
		}),
		(*paypal.PaymentSource)(nil),
		mock.MatchedBy(func(ac *paypal.ApplicationContext) bool {
			return ac.ReturnURL == "https://shop.example/paypal/return"
		}),
	).Return(&paypal.Order{
		ID: "PP-1",
		Links: []paypal.Link{
			{Rel: "self", Href: "https://api.paypal.com/v2/checkout/orders/PP-1"},
			{Rel: "approve", Href: "https://www.paypal.com/checkoutnow?token=PP-1"},
		},
	}, nil).Once()

	adapter := newRedirectAdapter(orders, RedirectOptions{ReturnURL: "https://shop.example/paypal/return"}, discardLogger())

	outcome, err := adapter.Begin(context.Background(), redirectRequest())
	require.NoError(t, err)
	assert.Equal(t, entity.OutcomeRequiresAction, outcome.Kind)
	assert.Equal(t, "PP-1", outcome.ApprovalHandle)
	assert.Equal(t, "https://www.paypal.com/checkoutnow?token=PP-1", outcome.RedirectURL)
	orders.AssertExpectations(t)
}

func TestRedirectAdapter_ExistingApprovalIsResumed(t *testing.T) {
	orders := &mockPayPalOrders{}
	orders.On("GetOrder", mock.Anything, "PP-1").Return(&paypal.Order{
		ID:    "PP-1",
		Links: []paypal.Link{{Rel: "payer-action", Href: "https://www.paypal.com/approve/PP-1"}},
	}, nil).Once()

	adapter := newRedirectAdapter(orders, RedirectOptions{}, discardLogger())

	req := redirectRequest()
	req.Handle = &entity.PaymentHandle{ApprovalHandle: "PP-1"}

	outcome, err := adapter.Begin(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, entity.OutcomeRequiresAction, outcome.Kind)
	assert.Equal(t, "https://www.paypal.com/approve/PP-1", outcome.RedirectURL)
	orders.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRedirectAdapter_ApprovedReturnCaptures(t *testing.T) {
	orders := &mockPayPalOrders{}
	orders.On("CaptureOrder", mock.Anything, "PP-1", paypal.CaptureOrderRequest{}).Return(&paypal.CaptureOrderResponse{
		ID:     "PP-1",
		Status: "COMPLETED",
		PurchaseUnits: []paypal.CapturedPurchaseUnit{{
			Payments: &paypal.CapturedPayments{
				Captures: []paypal.CaptureAmount{{ID: "CAP-9"}},
			},
		}},
	}, nil).Once()

	adapter := newRedirectAdapter(orders, RedirectOptions{}, discardLogger())

	req := redirectRequest()
	req.Handle = &entity.PaymentHandle{ApprovalHandle: "PP-1"}
	req.Input = entity.PaymentInput{ApprovalID: "PP-1", PayerID: "PAYER"}

	outcome, err := adapter.Begin(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, entity.OutcomeSucceeded, outcome.Kind)
	assert.Equal(t, "CAP-9", outcome.GatewayTransactionID)
}

func TestRedirectAdapter_ForeignApprovalIsRejected(t *testing.T) {
	orders := &mockPayPalOrders{}
	adapter := newRedirectAdapter(orders, RedirectOptions{}, discardLogger())

	req := redirectRequest()
	req.Handle = &entity.PaymentHandle{ApprovalHandle: "PP-1"}
	req.Input = entity.PaymentInput{ApprovalID: "PP-OTHER"}

	outcome, err := adapter.Begin(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, entity.OutcomeFailed, outcome.Kind)
	orders.AssertNotCalled(t, "CaptureOrder", mock.Anything, mock.Anything, mock.Anything)
}

func TestRedirectAdapter_CancelledReturnIsNotAnError(t *testing.T) {
	adapter := newRedirectAdapter(&mockPayPalOrders{}, RedirectOptions{}, discardLogger())

	req := redirectRequest()
	req.Input = entity.PaymentInput{Cancelled: true}

	outcome, err := adapter.Begin(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, entity.OutcomeCancelled, outcome.Kind)
}

func TestRedirectAdapter_DeclinedCapture(t *testing.T) {
	orders := &mockPayPalOrders{}
	orders.On("CaptureOrder", mock.Anything, "PP-1", mock.Anything).Return(nil, &paypal.ErrorResponse{
		Response: &http.Response{StatusCode: http.StatusUnprocessableEntity},
		Name:     "UNPROCESSABLE_ENTITY",
		Message:  "The requested action could not be performed.",
		Details:  []paypal.ErrorResponseDetail{{Issue: "INSTRUMENT_DECLINED", Description: "The instrument presented was declined."}},
	})

	adapter := newRedirectAdapter(orders, RedirectOptions{}, discardLogger())

	req := redirectRequest()
	req.Input = entity.PaymentInput{ApprovalID: "PP-1"}

	outcome, err := adapter.Begin(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, entity.OutcomeFailed, outcome.Kind)
	assert.Equal(t, "The instrument presented was declined.", outcome.Reason)
}

func TestRedirectAdapter_ServerErrorSurfaces(t *testing.T) {
	orders := &mockPayPalOrders{}
	orders.On("CreateOrder", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, &paypal.ErrorResponse{
		Response: &http.Response{StatusCode: http.StatusInternalServerError},
		Message:  "internal",
	})

	adapter := newRedirectAdapter(orders, RedirectOptions{}, discardLogger())

	_, err := adapter.Begin(context.Background(), redirectRequest())
	assert.Equal(t, domainerrors.KindServer, domainerrors.KindOf(err))
}
