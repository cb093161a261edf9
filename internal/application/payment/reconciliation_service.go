package payment

import (
	"context"
	"errors"

	"github.com/google/uuid"
	orderapp "github.com/shop/backend/internal/application/order"
	"github.com/shop/backend/internal/domain/order"
	"github.com/shop/backend/internal/domain/payment"
	"github.com/shop/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// resolver turns a provider notification's resource ID into the correlation
// key and normalized payment outcome needed to settle an order.
type resolver func(ctx context.Context, resourceID string) (externalRef, paymentID string, status payment.PaymentStatus, err error)

// ReconciliationService applies payment outcomes to orders. Webhook
// notifications and manual sync both funnel into the same apply path, so the
// locking and idempotency rules cannot drift between the two.
type ReconciliationService struct {
	gateway   payment.Gateway
	orderRepo order.Repository
	txScope   orderapp.TransactionScope
	resolvers map[payment.EventKind]resolver
	logger    *zap.Logger
}

// ReconciliationServiceConfig holds configuration for the reconciliation service
type ReconciliationServiceConfig struct {
	Gateway   payment.Gateway
	OrderRepo order.Repository
	TxScope   orderapp.TransactionScope
	Logger    *zap.Logger
}

// NewReconciliationService creates a new ReconciliationService
func NewReconciliationService(config ReconciliationServiceConfig) *ReconciliationService {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &ReconciliationService{
		gateway:   config.Gateway,
		orderRepo: config.OrderRepo,
		txScope:   config.TxScope,
		logger:    logger,
	}
	s.resolvers = map[payment.EventKind]resolver{
		payment.EventKindMerchantOrder: s.resolveMerchantOrder,
		payment.EventKindPayment:       s.resolvePayment,
	}
	return s
}

// HandleEvent processes one inbound provider notification. Unknown kinds and
// notifications for orders this shop never issued are dropped without error;
// the webhook endpoint acknowledges regardless so the provider stops
// retrying.
func (s *ReconciliationService) HandleEvent(ctx context.Context, evt payment.Event) error {
	resolve, ok := s.resolvers[evt.Kind]
	if !ok || evt.ResourceID == "" {
		s.logger.Debug("Ignoring unrecognized payment notification")
		return nil
	}

	externalRef, paymentID, status, err := resolve(ctx, evt.ResourceID)
	if err != nil {
		return err
	}

	_, err = s.apply(ctx, externalRef, paymentID, status)
	return err
}

// SyncPayment manually reconciles one of the buyer's orders against the
// provider, covering notifications that never arrived. It reuses the same
// apply path as the webhook so repeated syncs stay idempotent.
func (s *ReconciliationService) SyncPayment(ctx context.Context, userID, orderID uuid.UUID) (*SyncPaymentResponse, error) {
	o, err := s.orderRepo.FindByIDForUser(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if o.PreferenceID == "" {
		return nil, shared.NewDomainError("INVALID_STATE", "No payment preference has been created for this order")
	}

	payments, err := s.gateway.SearchPaymentsByPreference(ctx, o.PreferenceID)
	if err != nil {
		return nil, err
	}

	resp := &SyncPaymentResponse{
		OrderID:     o.ID.String(),
		OrderStatus: string(o.Status),
	}
	if len(payments) == 0 {
		return resp, nil
	}

	chosen := pickSettlingPayment(payments)
	applied, err := s.apply(ctx, o.ExternalReference, chosen.ID, chosen.Status)
	if err != nil {
		return nil, err
	}

	if applied {
		resp.OrderStatus = string(order.StatusPaid)
		resp.Applied = true
	}
	return resp, nil
}

// apply settles a payment outcome on the order identified by externalRef. The
// order row is locked by the correlation key so concurrent notifications for
// the same order serialize. Only an approved outcome on a still-pending order
// changes the status; other recognized outcomes record their payment id
// without moving the order. Returns whether the order was settled.
func (s *ReconciliationService) apply(ctx context.Context, externalRef, paymentID string, status payment.PaymentStatus) (bool, error) {
	if externalRef == "" {
		return false, nil
	}

	applied := false
	err := s.txScope.Execute(ctx, func(repos orderapp.TransactionalRepositories) error {
		o, err := repos.OrderRepo().FindByExternalReferenceForUpdate(ctx, externalRef)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				// Not an order of ours; the provider shares the notification
				// channel across applications.
				s.logger.Debug("Dropping notification for unknown order",
					zap.String("external_reference", externalRef))
				return nil
			}
			return err
		}

		if !status.IsApproved() {
			// Rejected, cancelled and still-pending attempts do not move the
			// order, but their id is kept for support lookups.
			if o.RecordPaymentAttempt(paymentID) {
				if err := repos.OrderRepo().Save(ctx, o); err != nil {
					return err
				}
				s.logger.Info("Recorded unsettled payment attempt",
					zap.String("order_id", o.ID.String()))
			}
			return nil
		}
		if !o.MarkPaid(paymentID) {
			s.logger.Info("Duplicate payment notification ignored",
				zap.String("order_id", o.ID.String()))
			return nil
		}

		if err := repos.OrderRepo().Save(ctx, o); err != nil {
			return err
		}
		applied = true
		s.logger.Info("Order marked as paid",
			zap.String("order_id", o.ID.String()))
		return nil
	})
	return applied, err
}

func (s *ReconciliationService) resolveMerchantOrder(ctx context.Context, resourceID string) (string, string, payment.PaymentStatus, error) {
	mo, err := s.gateway.GetMerchantOrder(ctx, resourceID)
	if err != nil {
		return "", "", payment.PaymentStatusUnknown, err
	}
	if len(mo.Payments) == 0 {
		return mo.ExternalReference, "", payment.PaymentStatusUnknown, nil
	}

	chosen := pickSettlingPayment(mo.Payments)
	return mo.ExternalReference, chosen.ID, chosen.Status, nil
}

func (s *ReconciliationService) resolvePayment(ctx context.Context, resourceID string) (string, string, payment.PaymentStatus, error) {
	p, err := s.gateway.GetPayment(ctx, resourceID)
	if err != nil {
		return "", "", payment.PaymentStatusUnknown, err
	}
	return p.ExternalReference, p.ID, p.Status, nil
}

// pickSettlingPayment prefers an approved attempt over whatever came first.
// A preference can accumulate several attempts; one approval settles it.
func pickSettlingPayment(payments []payment.Payment) payment.Payment {
	for _, p := range payments {
		if p.Status.IsApproved() {
			return p
		}
	}
	return payments[0]
}
