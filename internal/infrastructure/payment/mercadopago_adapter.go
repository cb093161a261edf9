package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shop/backend/internal/domain/payment"
	"github.com/shop/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

const (
	mpPreferencesPath   = "/checkout/preferences"
	mpPaymentPath       = "/v1/payments/%s"
	mpPaymentSearchPath = "/v1/payments/search"
	mpMerchantOrderPath = "/merchant_orders/%s"
)

// MercadoPagoAdapter implements the payment Gateway port against the
// MercadoPago REST API. Provider statuses are normalized at this boundary;
// nothing above it sees raw MercadoPago payloads.
type MercadoPagoAdapter struct {
	config     *MercadoPagoConfig
	httpClient *http.Client
}

// NewMercadoPagoAdapter creates a new MercadoPago adapter
func NewMercadoPagoAdapter(config *MercadoPagoConfig) (*MercadoPagoAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &MercadoPagoAdapter{
		config: config,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// CreatePreference creates a hosted checkout preference
func (a *MercadoPagoAdapter) CreatePreference(ctx context.Context, req payment.PreferenceRequest) (*payment.Preference, error) {
	body := mpPreferenceRequest{
		Items:             make([]mpPreferenceItem, 0, len(req.Items)),
		ExternalReference: req.ExternalReference,
		NotificationURL:   req.NotificationURL,
		BackURLs: &mpBackURLs{
			Success: req.SuccessURL,
			Failure: req.FailureURL,
			Pending: req.PendingURL,
		},
	}
	for _, item := range req.Items {
		body.Items = append(body.Items, mpPreferenceItem{
			ID:        item.SKU,
			Title:     item.Title,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice.InexactFloat64(),
		})
	}
	if req.AutoReturn {
		body.AutoReturn = "approved"
	}
	if req.PayerEmail != "" {
		body.Payer = &mpPayer{
			Email:   req.PayerEmail,
			Name:    req.PayerFirstName,
			Surname: req.PayerLastName,
		}
	}

	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("mercadopago: failed to marshal request: %w", err)
	}

	respBody, err := a.doRequest(ctx, http.MethodPost, mpPreferencesPath, bodyBytes)
	if err != nil {
		return nil, err
	}

	var resp mpPreferenceResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("mercadopago: failed to parse response: %w", err)
	}

	return &payment.Preference{
		ID:           resp.ID,
		InitPoint:    resp.InitPoint,
		SandboxPoint: resp.SandboxInitPoint,
	}, nil
}

// GetPayment fetches a single payment by provider ID
func (a *MercadoPagoAdapter) GetPayment(ctx context.Context, id string) (*payment.Payment, error) {
	respBody, err := a.doRequest(ctx, http.MethodGet, fmt.Sprintf(mpPaymentPath, url.PathEscape(id)), nil)
	if err != nil {
		return nil, err
	}

	var resp mpPayment
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("mercadopago: failed to parse response: %w", err)
	}

	p := toDomainPayment(resp)
	return &p, nil
}

// GetMerchantOrder fetches a merchant order with its payment attempts
func (a *MercadoPagoAdapter) GetMerchantOrder(ctx context.Context, id string) (*payment.MerchantOrder, error) {
	respBody, err := a.doRequest(ctx, http.MethodGet, fmt.Sprintf(mpMerchantOrderPath, url.PathEscape(id)), nil)
	if err != nil {
		return nil, err
	}

	var resp mpMerchantOrder
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("mercadopago: failed to parse response: %w", err)
	}

	mo := &payment.MerchantOrder{
		ID:                strconv.FormatInt(resp.ID, 10),
		ExternalReference: resp.ExternalReference,
		Payments:          make([]payment.Payment, 0, len(resp.Payments)),
	}
	for _, p := range resp.Payments {
		// Payments nested in a merchant order omit the reference; they
		// inherit the order's.
		mo.Payments = append(mo.Payments, payment.Payment{
			ID:                strconv.FormatInt(p.ID, 10),
			Status:            normalizeStatus(p.Status),
			ExternalReference: resp.ExternalReference,
			Amount:            decimal.NewFromFloat(p.TransactionAmount),
		})
	}
	return mo, nil
}

// SearchPaymentsByPreference lists payments made against a preference
func (a *MercadoPagoAdapter) SearchPaymentsByPreference(ctx context.Context, preferenceID string) ([]payment.Payment, error) {
	path := mpPaymentSearchPath + "?preference_id=" + url.QueryEscape(preferenceID)
	respBody, err := a.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var resp mpPaymentSearchResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("mercadopago: failed to parse response: %w", err)
	}

	payments := make([]payment.Payment, 0, len(resp.Results))
	for _, p := range resp.Results {
		payments = append(payments, toDomainPayment(p))
	}
	return payments, nil
}

// doRequest performs an authenticated API call. Provider failures surface as
// GATEWAY_ERROR with only the HTTP status attached; response bodies may echo
// request data and are not propagated.
func (a *MercadoPagoAdapter) doRequest(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.config.BaseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("mercadopago: failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+a.config.AccessToken)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, shared.ErrGateway
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, shared.ErrGateway
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, shared.NewDomainError("GATEWAY_ERROR",
			fmt.Sprintf("Payment provider returned status %d", resp.StatusCode))
	}

	return respBody, nil
}

func toDomainPayment(p mpPayment) payment.Payment {
	return payment.Payment{
		ID:                strconv.FormatInt(p.ID, 10),
		Status:            normalizeStatus(p.Status),
		ExternalReference: p.ExternalReference,
		Amount:            decimal.NewFromFloat(p.TransactionAmount),
	}
}

// normalizeStatus maps MercadoPago payment statuses to the closed domain set
func normalizeStatus(status string) payment.PaymentStatus {
	switch status {
	case "approved":
		return payment.PaymentStatusApproved
	case "pending", "in_process", "authorized":
		return payment.PaymentStatusPending
	case "rejected":
		return payment.PaymentStatusRejected
	case "cancelled":
		return payment.PaymentStatusCancelled
	case "refunded", "charged_back":
		return payment.PaymentStatusRefunded
	default:
		return payment.PaymentStatusUnknown
	}
}

var _ payment.Gateway = (*MercadoPagoAdapter)(nil)
