package commerce

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"storefront/config"
	"storefront/internal/domain/entity"
	domainerrors "storefront/internal/domain/errors"
	"storefront/internal/domain/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler, mutate func(*config.CommerceConfig)) service.CommerceGateway {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := &config.Config{
		Commerce: &config.CommerceConfig{
			BaseURL:        server.URL,
			ConsumerKey:    "ck_test",
			ConsumerSecret: "cs_test",
			Timeout:        2 * time.Second,
		},
	}
	if mutate != nil {
		mutate(cfg.Commerce)
	}

	gateway, err := New(Params{Config: cfg, Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	require.NoError(t, err)

	return gateway
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func TestNew_RequiresBaseURL(t *testing.T) {
	_, err := New(Params{Config: &config.Config{Commerce: &config.CommerceConfig{}}, Logger: slog.Default()})
	assert.Error(t, err)
}

func TestCreateOrder_SendsDraftWithBasicAuth(t *testing.T) {
	var (
		mu       sync.Mutex
		received map[string]any
	)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()

		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/wp-json/wc/v3/orders", r.URL.Path)

		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "ck_test", user)
		assert.Equal(t, "cs_test", pass)

		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		writeJSON(w, http.StatusCreated, `{"id":501,"number":"501","status":"pending","currency":"INR","total":"19.00","payment_method":"stripe",
			"line_items":[{"product_id":7,"quantity":2,"name":"Mug","total":"19.00"}]}`)
	})
	gateway := newTestClient(t, handler, nil)

	order, err := gateway.CreateOrder(context.Background(), &entity.OrderDraft{
		PaymentMethod: entity.PaymentMethodStripe,
		Billing:       entity.Address{FirstName: "Asha", Country: "IN"},
		LineItems:     []entity.OrderLineItem{{ProductID: 7, Quantity: 2, Total: decimal.NewFromInt(19)}},
		CouponLines:   []entity.CouponLine{{Code: "save10"}},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(501), order.ID)
	assert.Equal(t, entity.OrderStatusPending, order.Status)
	assert.True(t, decimal.RequireFromString("19").Equal(order.Total))
	require.Len(t, order.LineItems, 1)

	mu.Lock()
	defer mu.Unlock()

	billing := received["billing"].(map[string]any)
	assert.Equal(t, "IN", billing["country"])
	line := received["line_items"].([]any)[0].(map[string]any)
	assert.Equal(t, float64(7), line["product_id"])
	assert.NotContains(t, line, "total")
	assert.Equal(t, []any{map[string]any{"code": "save10"}}, received["coupon_lines"])
}

func TestDo_ClassifiesFailures(t *testing.T) {
	tests := []struct {
		name        string
		handler     http.HandlerFunc
		wantKind    domainerrors.Kind
		wantMessage string
	}{
		{
			name: "client error carries backend message",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, http.StatusBadRequest, `{"code":"rest_invalid_param","message":"Invalid parameter(s): billing"}`)
			},
			wantKind:    domainerrors.KindValidation,
			wantMessage: "Invalid parameter(s): billing",
		},
		{
			name: "client error without body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			},
			wantKind:    domainerrors.KindValidation,
			wantMessage: "Not Found",
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, http.StatusInternalServerError, `{"code":"internal"}`)
			},
			wantKind: domainerrors.KindServer,
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, http.StatusOK, `{"id":`)
			},
			wantKind: domainerrors.KindServer,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gateway := newTestClient(t, tt.handler, nil)

			_, err := gateway.GetOrder(context.Background(), 501)
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, domainerrors.KindOf(err))
			if tt.wantMessage != "" {
				assert.Equal(t, tt.wantMessage, domainerrors.UserMessage(err))
			}
		})
	}
}

func TestDo_TimeoutIsNetworkError(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	gateway := newTestClient(t, handler, func(cfg *config.CommerceConfig) {
		cfg.Timeout = 50 * time.Millisecond
	})

	_, err := gateway.GetOrder(context.Background(), 1)
	require.Error(t, err)
	assert.Equal(t, domainerrors.KindNetwork, domainerrors.KindOf(err))
	assert.True(t, domainerrors.ErrNetwork.Retryable())
}

func TestDo_UnreachableBackendIsNetworkError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	baseURL := server.URL
	server.Close()

	cfg := &config.Config{Commerce: &config.CommerceConfig{BaseURL: baseURL, Timeout: time.Second}}
	gateway, err := New(Params{Config: cfg, Logger: slog.Default()})
	require.NoError(t, err)

	_, err = gateway.GetOrder(context.Background(), 1)
	assert.Equal(t, domainerrors.KindNetwork, domainerrors.KindOf(err))
}

func TestBreaker_OpensOnServerErrorsOnly(t *testing.T) {
	var hits atomic.Int32
	status := atomic.Int32{}
	status.Store(http.StatusBadRequest)

	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		writeJSON(w, int(status.Load()), `{"message":"nope"}`)
	})
	gateway := newTestClient(t, handler, func(cfg *config.CommerceConfig) {
		cfg.Breaker = config.BreakerConfig{ConsecutiveFailures: 2, Timeout: time.Minute}
	})
	ctx := context.Background()

	for range 5 {
		_, err := gateway.GetOrder(ctx, 1)
		assert.Equal(t, domainerrors.KindValidation, domainerrors.KindOf(err))
	}
	assert.Equal(t, int32(5), hits.Load())

	status.Store(http.StatusBadGateway)
	for range 2 {
		_, err := gateway.GetOrder(ctx, 1)
		assert.Equal(t, domainerrors.KindServer, domainerrors.KindOf(err))
	}

	_, err := gateway.GetOrder(ctx, 1)
	assert.Equal(t, domainerrors.KindNetwork, domainerrors.KindOf(err))
	assert.Equal(t, int32(7), hits.Load())
}

func TestUpdateOrderStatus_SetsStatusAndNote(t *testing.T) {
	var (
		mu    sync.Mutex
		calls []string
	)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()

		calls = append(calls, r.Method+" "+r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		switch r.URL.Path {
		case "/wp-json/wc/v3/orders/501":
			assert.Equal(t, "on-hold", body["status"])
			writeJSON(w, http.StatusOK, `{"id":501,"status":"on-hold","total":"19.00"}`)
		case "/wp-json/wc/v3/orders/501/notes":
			assert.Equal(t, "Awaiting offline payment", body["note"])
			writeJSON(w, http.StatusCreated, `{"id":1}`)
		}
	})
	gateway := newTestClient(t, handler, nil)

	order, err := gateway.UpdateOrderStatus(context.Background(), 501, entity.OrderStatusOnHold, "Awaiting offline payment")
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusOnHold, order.Status)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"PUT /wp-json/wc/v3/orders/501", "POST /wp-json/wc/v3/orders/501/notes"}, calls)
}

func TestStaticLookups_AreCached(t *testing.T) {
	var hits atomic.Int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "/wp-json/wc/v3/data/countries", r.URL.Path)
		writeJSON(w, http.StatusOK, `[{"code":"IN","name":"India","states":[{"code":"KA","name":"Karnataka"}]}]`)
	})
	gateway := newTestClient(t, handler, func(cfg *config.CommerceConfig) {
		cfg.StaticCacheTTL = time.Minute
	})

	for range 3 {
		countries, err := gateway.GetCountries(context.Background())
		require.NoError(t, err)
		require.Len(t, countries, 1)
		assert.Equal(t, "KA", countries[0].States[0].Code)
	}
	assert.Equal(t, int32(1), hits.Load())
}

func TestGetPaymentGateways_SortsByOrder(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `[
			{"id":"cod","title":"Cash on delivery","enabled":true,"order":"3"},
			{"id":"stripe","title":"Card","enabled":true,"order":1},
			{"id":"bacs","title":"Bank transfer","enabled":false,"order":""}]`)
	})
	gateway := newTestClient(t, handler, nil)

	gateways, err := gateway.GetPaymentGateways(context.Background())
	require.NoError(t, err)
	require.Len(t, gateways, 3)
	assert.Equal(t, []string{"bacs", "stripe", "cod"}, []string{gateways[0].ID, gateways[1].ID, gateways[2].ID})
}

func TestGetShippingMethods_ParsesCost(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/wp-json/wc/v3/shipping/zones/3/methods", r.URL.Path)
		writeJSON(w, http.StatusOK, `[
			{"instance_id":1,"method_id":"flat_rate","title":"Flat rate","enabled":true,"settings":{"cost":{"value":"50.00"}}},
			{"instance_id":2,"method_id":"free_shipping","title":"Free","enabled":true,"settings":{}}]`)
	})
	gateway := newTestClient(t, handler, nil)

	methods, err := gateway.GetShippingMethods(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, methods, 2)
	assert.True(t, decimal.NewFromInt(50).Equal(methods[0].Cost))
	assert.True(t, methods[1].Cost.IsZero())
}

func TestValidateCoupon(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/wp-json/wc/v3/coupons", r.URL.Path)
		if r.URL.Query().Get("code") == "save10" {
			writeJSON(w, http.StatusOK, `[{"code":"save10","amount":"10.00","discount_type":"percent",
				"date_expires_gmt":"2030-01-01T00:00:00","minimum_amount":"","maximum_amount":"0.00","usage_limit":100,"usage_count":4}]`)

			return
		}
		writeJSON(w, http.StatusOK, `[]`)
	})
	gateway := newTestClient(t, handler, nil)

	info, err := gateway.ValidateCoupon(context.Background(), " SAVE10 ")
	require.NoError(t, err)
	assert.Equal(t, "save10", info.Code)
	assert.Equal(t, entity.DiscountPercent, info.DiscountType)
	assert.True(t, decimal.NewFromInt(10).Equal(info.Amount))
	assert.True(t, info.MinimumAmount.IsZero())
	assert.Equal(t, 100, info.UsageLimit)
	require.NotNil(t, info.ExpiresAt)
	assert.Equal(t, 2030, info.ExpiresAt.Year())

	_, err = gateway.ValidateCoupon(context.Background(), "nope")
	assert.Equal(t, domainerrors.KindValidation, domainerrors.KindOf(err))
}

func TestApplyCoupons(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/wp-json/storefront/v1/cart/coupons", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "guest-1-abc", body["cart_token"])
		assert.Equal(t, []any{"five"}, body["coupons"])

		writeJSON(w, http.StatusOK, `{"coupons":[{"code":"FIVE","discount_type":"fixed_cart","amount":"5","discount_total":"5.00","discount_tax":"0"}],"tax_total":"1.20"}`)
	})
	gateway := newTestClient(t, handler, nil)

	result, err := gateway.ApplyCoupons(context.Background(), &service.CouponCartContext{
		CartToken: "guest-1-abc",
		LineItems: []entity.OrderLineItem{{ProductID: 7, Quantity: 2}},
		Codes:     []string{"five"},
	})
	require.NoError(t, err)
	require.Len(t, result.Coupons, 1)
	assert.Equal(t, "five", result.Coupons[0].Code)
	assert.True(t, decimal.NewFromInt(5).Equal(result.Coupons[0].DiscountTotal))
	assert.True(t, decimal.RequireFromString("1.2").Equal(result.TaxTotal))
}

func TestPaymentEndpoints(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/wp-json/storefront/v1/payment-intent":
			writeJSON(w, http.StatusOK, `{"clientSecret":"pi_123_secret_abc","intentId":"pi_123"}`)
		case "/wp-json/storefront/v1/confirm-payment":
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "pi_123", body["transaction_id"])
			writeJSON(w, http.StatusOK, `{"success":true,"order_status":"processing","order_number":"501"}`)
		}
	})
	gateway := newTestClient(t, handler, nil)
	ctx := context.Background()

	intent, err := gateway.CreatePaymentIntent(ctx, 501)
	require.NoError(t, err)
	assert.Equal(t, "pi_123_secret_abc", intent.ClientSecret)

	confirmation, err := gateway.ConfirmPayment(ctx, 501, entity.PaymentMethodStripe, "pi_123")
	require.NoError(t, err)
	assert.True(t, confirmation.Success)
	assert.True(t, confirmation.OrderStatus.IsPaid())
}
