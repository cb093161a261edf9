package payment

import (
	"context"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/shop/backend/internal/domain/identity"
	"github.com/shop/backend/internal/domain/order"
	"github.com/shop/backend/internal/domain/payment"
	"github.com/shop/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PreferenceService creates hosted-checkout preferences for pending orders
type PreferenceService struct {
	gateway     payment.Gateway
	orderRepo   order.Repository
	userRepo    identity.UserRepository
	frontendURL string
	backendURL  string
	logger      *zap.Logger
}

// PreferenceServiceConfig holds configuration for the preference service
type PreferenceServiceConfig struct {
	Gateway     payment.Gateway
	OrderRepo   order.Repository
	UserRepo    identity.UserRepository
	FrontendURL string
	BackendURL  string
	Logger      *zap.Logger
}

// NewPreferenceService creates a new PreferenceService
func NewPreferenceService(config PreferenceServiceConfig) *PreferenceService {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &PreferenceService{
		gateway:     config.Gateway,
		orderRepo:   config.OrderRepo,
		userRepo:    config.UserRepo,
		frontendURL: strings.TrimRight(config.FrontendURL, "/"),
		backendURL:  strings.TrimRight(config.BackendURL, "/"),
		logger:      logger,
	}
}

// Create builds a hosted checkout for one of the buyer's pending orders. The
// order's ID becomes the external reference the provider echoes back on every
// notification; prices are taken from the order's frozen lines, never from
// the live catalog.
func (s *PreferenceService) Create(ctx context.Context, userID, orderID uuid.UUID) (*PreferenceResponse, error) {
	o, err := s.orderRepo.FindByIDForUser(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}

	buyer, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if o.Status != order.StatusPending {
		return nil, shared.NewDomainError("INVALID_STATE", "Payment preference can only be created for pending orders")
	}
	if len(o.Lines) == 0 {
		return nil, shared.NewDomainError("INVALID_STATE", "Order has no lines")
	}

	items := make([]payment.PreferenceItem, 0, len(o.Lines)+1)
	for i := range o.Lines {
		l := &o.Lines[i]
		items = append(items, payment.PreferenceItem{
			Title:     l.ProductName,
			SKU:       l.SKU,
			Quantity:  l.Quantity,
			UnitPrice: l.PriceAtPurchase,
		})
	}
	if o.ShippingCost.GreaterThan(decimal.Zero) {
		items = append(items, payment.PreferenceItem{
			Title:     "Shipping",
			Quantity:  1,
			UnitPrice: o.ShippingCost,
		})
	}

	externalReference := o.ID.String()
	req := payment.PreferenceRequest{
		ExternalReference: externalReference,
		Items:             items,
		PayerEmail:        buyer.Email,
		PayerFirstName:    buyer.FirstName,
		PayerLastName:     buyer.LastName,
		SuccessURL:        s.frontendURL + "/checkout/success",
		FailureURL:        s.frontendURL + "/checkout/failure",
		PendingURL:        s.frontendURL + "/checkout/pending",
		NotificationURL:   s.backendURL + "/api/v1/payments/webhook",
		AutoReturn:        !isLocalURL(s.frontendURL),
	}

	pref, err := s.gateway.CreatePreference(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := o.AttachPreference(pref.ID, externalReference); err != nil {
		return nil, err
	}
	if err := s.orderRepo.Save(ctx, o); err != nil {
		return nil, err
	}

	s.logger.Info("Payment preference created",
		zap.String("order_id", o.ID.String()))

	return &PreferenceResponse{
		PreferenceID: pref.ID,
		InitPoint:    pref.InitPoint,
		SandboxPoint: pref.SandboxPoint,
	}, nil
}

// isLocalURL reports whether the URL points at a development host. Providers
// refuse automatic return redirects to non-public hosts.
func isLocalURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	host := u.Hostname()
	return host == "localhost" || host == "127.0.0.1" || host == "::1"
}
