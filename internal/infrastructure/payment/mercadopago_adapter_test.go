package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shop/backend/internal/domain/payment"
	"github.com/shop/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAccessToken = "TEST-access-token-1234"

func newTestAdapter(t *testing.T, handler http.HandlerFunc) *MercadoPagoAdapter {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	adapter, err := NewMercadoPagoAdapter(&MercadoPagoConfig{
		AccessToken: testAccessToken,
		BaseURL:     server.URL,
		Timeout:     5 * time.Second,
	})
	require.NoError(t, err)
	return adapter
}

func TestNewMercadoPagoAdapter_Validation(t *testing.T) {
	_, err := NewMercadoPagoAdapter(&MercadoPagoConfig{BaseURL: "https://api.example.com"})
	assert.ErrorIs(t, err, ErrMercadoPagoMissingToken)

	_, err = NewMercadoPagoAdapter(&MercadoPagoConfig{AccessToken: "token"})
	assert.ErrorIs(t, err, ErrMercadoPagoMissingBaseURL)
}

func TestMercadoPagoAdapter_CreatePreference(t *testing.T) {
	ctx := context.Background()

	t.Run("sends authenticated request and parses response", func(t *testing.T) {
		var gotAuth, gotPath string
		var gotBody mpPreferenceRequest

		adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			gotPath = r.URL.Path
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(mpPreferenceResponse{
				ID:               "pref-123",
				InitPoint:        "https://mp.example.com/init/pref-123",
				SandboxInitPoint: "https://sandbox.mp.example.com/init/pref-123",
			})
		})

		pref, err := adapter.CreatePreference(ctx, payment.PreferenceRequest{
			ExternalReference: "order-1",
			Items: []payment.PreferenceItem{
				{Title: "Mate Imperial", SKU: "MATE-001", Quantity: 2, UnitPrice: decimal.RequireFromString("1500.50")},
			},
			PayerEmail:      "maria@example.com",
			PayerFirstName:  "María",
			PayerLastName:   "García",
			SuccessURL:      "https://shop.example.com/checkout/success",
			NotificationURL: "https://api.shop.example.com/api/v1/payments/webhook",
			AutoReturn:      true,
		})
		require.NoError(t, err)

		assert.Equal(t, "Bearer "+testAccessToken, gotAuth)
		assert.Equal(t, "/checkout/preferences", gotPath)
		assert.Equal(t, "order-1", gotBody.ExternalReference)
		require.Len(t, gotBody.Items, 1)
		assert.Equal(t, "MATE-001", gotBody.Items[0].ID)
		assert.InDelta(t, 1500.50, gotBody.Items[0].UnitPrice, 0.0001)
		assert.Equal(t, "approved", gotBody.AutoReturn)
		require.NotNil(t, gotBody.BackURLs)
		assert.Equal(t, "https://shop.example.com/checkout/success", gotBody.BackURLs.Success)
		require.NotNil(t, gotBody.Payer)
		assert.Equal(t, "maria@example.com", gotBody.Payer.Email)
		assert.Equal(t, "María", gotBody.Payer.Name)
		assert.Equal(t, "García", gotBody.Payer.Surname)

		assert.Equal(t, "pref-123", pref.ID)
		assert.Equal(t, "https://mp.example.com/init/pref-123", pref.InitPoint)
		assert.Equal(t, "https://sandbox.mp.example.com/init/pref-123", pref.SandboxPoint)
	})

	t.Run("suppressed auto return is omitted from the payload", func(t *testing.T) {
		adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
			var body map[string]interface{}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			_, present := body["auto_return"]
			assert.False(t, present)
			json.NewEncoder(w).Encode(mpPreferenceResponse{ID: "pref-1"})
		})

		_, err := adapter.CreatePreference(ctx, payment.PreferenceRequest{
			ExternalReference: "order-1",
			Items:             []payment.PreferenceItem{{Title: "X", Quantity: 1, UnitPrice: decimal.New(1, 0)}},
		})
		require.NoError(t, err)
	})
}

func TestMercadoPagoAdapter_GetPayment(t *testing.T) {
	ctx := context.Background()

	t.Run("normalizes provider status", func(t *testing.T) {
		statuses := map[string]payment.PaymentStatus{
			"approved":     payment.PaymentStatusApproved,
			"pending":      payment.PaymentStatusPending,
			"in_process":   payment.PaymentStatusPending,
			"authorized":   payment.PaymentStatusPending,
			"rejected":     payment.PaymentStatusRejected,
			"cancelled":    payment.PaymentStatusCancelled,
			"refunded":     payment.PaymentStatusRefunded,
			"charged_back": payment.PaymentStatusRefunded,
			"mystery":      payment.PaymentStatusUnknown,
		}

		for raw, want := range statuses {
			raw, want := raw, want
			t.Run(raw, func(t *testing.T) {
				adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
					assert.Equal(t, "/v1/payments/42", r.URL.Path)
					json.NewEncoder(w).Encode(mpPayment{
						ID:                42,
						Status:            raw,
						ExternalReference: "order-1",
						TransactionAmount: 3800.00,
					})
				})

				p, err := adapter.GetPayment(ctx, "42")
				require.NoError(t, err)

				assert.Equal(t, "42", p.ID)
				assert.Equal(t, want, p.Status)
				assert.Equal(t, "order-1", p.ExternalReference)
				assert.True(t, p.Amount.Equal(decimal.RequireFromString("3800")))
			})
		}
	})

	t.Run("provider error maps to gateway error without leaking the body", func(t *testing.T) {
		adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"message":"invalid token ` + testAccessToken + `"}`))
		})

		_, err := adapter.GetPayment(ctx, "42")
		require.Error(t, err)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "GATEWAY_ERROR", domainErr.Code)
		assert.NotContains(t, err.Error(), testAccessToken)
		assert.NotContains(t, err.Error(), "invalid token")
	})

	t.Run("unreachable provider maps to gateway error", func(t *testing.T) {
		adapter, err := NewMercadoPagoAdapter(&MercadoPagoConfig{
			AccessToken: testAccessToken,
			BaseURL:     "http://127.0.0.1:1",
			Timeout:     time.Second,
		})
		require.NoError(t, err)

		_, err = adapter.GetPayment(ctx, "42")
		assert.ErrorIs(t, err, shared.ErrGateway)
	})
}

func TestMercadoPagoAdapter_GetMerchantOrder(t *testing.T) {
	ctx := context.Background()

	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/merchant_orders/555", r.URL.Path)
		json.NewEncoder(w).Encode(mpMerchantOrder{
			ID:                555,
			ExternalReference: "order-7",
			Payments: []mpMerchantOrderPayment{
				{ID: 1, Status: "rejected", TransactionAmount: 100},
				{ID: 2, Status: "approved", TransactionAmount: 100},
			},
		})
	})

	mo, err := adapter.GetMerchantOrder(ctx, "555")
	require.NoError(t, err)

	assert.Equal(t, "555", mo.ID)
	assert.Equal(t, "order-7", mo.ExternalReference)
	require.Len(t, mo.Payments, 2)
	assert.Equal(t, payment.PaymentStatusRejected, mo.Payments[0].Status)
	assert.Equal(t, payment.PaymentStatusApproved, mo.Payments[1].Status)
	// Nested payments inherit the order's reference
	assert.Equal(t, "order-7", mo.Payments[0].ExternalReference)
	assert.Equal(t, "order-7", mo.Payments[1].ExternalReference)
}

func TestMercadoPagoAdapter_SearchPaymentsByPreference(t *testing.T) {
	ctx := context.Background()

	t.Run("queries by preference ID", func(t *testing.T) {
		adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/payments/search", r.URL.Path)
			assert.Equal(t, "pref-9", r.URL.Query().Get("preference_id"))
			json.NewEncoder(w).Encode(mpPaymentSearchResponse{
				Results: []mpPayment{
					{ID: 10, Status: "approved", ExternalReference: "order-3", TransactionAmount: 250.5},
				},
			})
		})

		payments, err := adapter.SearchPaymentsByPreference(ctx, "pref-9")
		require.NoError(t, err)

		require.Len(t, payments, 1)
		assert.Equal(t, "10", payments[0].ID)
		assert.Equal(t, payment.PaymentStatusApproved, payments[0].Status)
		assert.Equal(t, "order-3", payments[0].ExternalReference)
	})

	t.Run("empty result set", func(t *testing.T) {
		adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(mpPaymentSearchResponse{})
		})

		payments, err := adapter.SearchPaymentsByPreference(ctx, "pref-9")
		require.NoError(t, err)
		assert.Empty(t, payments)
	})
}
