// Package service provides testify mocks of the domain service contracts.
package service

import (
	"context"

	"storefront/internal/domain/entity"
	domainservice "storefront/internal/domain/service"

	"github.com/stretchr/testify/mock"
)

// MockCommerceGateway is a mock of service.CommerceGateway.
type MockCommerceGateway struct {
	mock.Mock
}

// NewMockCommerceGateway creates a mock whose expectations are asserted at test cleanup.
func NewMockCommerceGateway(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockCommerceGateway {
	m := &MockCommerceGateway{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *MockCommerceGateway) CreateOrder(ctx context.Context, draft *entity.OrderDraft) (*entity.CheckoutOrder, error) {
	args := m.Called(ctx, draft)

	return orderArg(args, 0), args.Error(1)
}

func (m *MockCommerceGateway) UpdateOrderStatus(ctx context.Context, orderID int64, status entity.OrderStatus, note string) (*entity.CheckoutOrder, error) {
	args := m.Called(ctx, orderID, status, note)

	return orderArg(args, 0), args.Error(1)
}

func (m *MockCommerceGateway) GetOrder(ctx context.Context, orderID int64) (*entity.CheckoutOrder, error) {
	args := m.Called(ctx, orderID)

	return orderArg(args, 0), args.Error(1)
}

func (m *MockCommerceGateway) GetPaymentGateways(ctx context.Context) ([]entity.PaymentGateway, error) {
	args := m.Called(ctx)
	gateways, _ := args.Get(0).([]entity.PaymentGateway)

	return gateways, args.Error(1)
}

func (m *MockCommerceGateway) GetShippingZones(ctx context.Context) ([]entity.ShippingZone, error) {
	args := m.Called(ctx)
	zones, _ := args.Get(0).([]entity.ShippingZone)

	return zones, args.Error(1)
}

func (m *MockCommerceGateway) GetShippingMethods(ctx context.Context, zoneID int64) ([]entity.ShippingMethod, error) {
	args := m.Called(ctx, zoneID)
	methods, _ := args.Get(0).([]entity.ShippingMethod)

	return methods, args.Error(1)
}

func (m *MockCommerceGateway) GetCountries(ctx context.Context) ([]entity.Country, error) {
	args := m.Called(ctx)
	countries, _ := args.Get(0).([]entity.Country)

	return countries, args.Error(1)
}

func (m *MockCommerceGateway) ValidateCoupon(ctx context.Context, code string) (*entity.CouponInfo, error) {
	args := m.Called(ctx, code)
	info, _ := args.Get(0).(*entity.CouponInfo)

	return info, args.Error(1)
}

func (m *MockCommerceGateway) ApplyCoupons(ctx context.Context, cart *domainservice.CouponCartContext) (*domainservice.CouponComputation, error) {
	args := m.Called(ctx, cart)
	computed, _ := args.Get(0).(*domainservice.CouponComputation)

	return computed, args.Error(1)
}

func (m *MockCommerceGateway) CreatePaymentIntent(ctx context.Context, orderID int64) (*entity.PaymentIntent, error) {
	args := m.Called(ctx, orderID)
	intent, _ := args.Get(0).(*entity.PaymentIntent)

	return intent, args.Error(1)
}

func (m *MockCommerceGateway) ConfirmPayment(ctx context.Context, orderID int64, method entity.PaymentMethod, transactionID string) (*entity.PaymentConfirmation, error) {
	args := m.Called(ctx, orderID, method, transactionID)
	confirmation, _ := args.Get(0).(*entity.PaymentConfirmation)

	return confirmation, args.Error(1)
}

func orderArg(args mock.Arguments, index int) *entity.CheckoutOrder {
	order, _ := args.Get(index).(*entity.CheckoutOrder)

	return order
}
