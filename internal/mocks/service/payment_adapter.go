package service

import (
	"context"

	"storefront/internal/domain/entity"

	"github.com/stretchr/testify/mock"
)

// MockPaymentAdapter is a mock of service.PaymentAdapter.
type MockPaymentAdapter struct {
	mock.Mock

	flow entity.PaymentFlow
}

// NewMockPaymentAdapter creates a mock adapter for flow.
func NewMockPaymentAdapter(t interface {
	mock.TestingT
	Cleanup(func())
}, flow entity.PaymentFlow) *MockPaymentAdapter {
	m := &MockPaymentAdapter{flow: flow}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *MockPaymentAdapter) Flow() entity.PaymentFlow {
	return m.flow
}

func (m *MockPaymentAdapter) Begin(ctx context.Context, req *entity.PaymentRequest) (entity.PaymentOutcome, error) {
	args := m.Called(ctx, req)
	outcome, _ := args.Get(0).(entity.PaymentOutcome)

	return outcome, args.Error(1)
}
