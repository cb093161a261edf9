package payment

import (
	"context"

	"github.com/shopspring/decimal"
)

// PaymentStatus is the provider-agnostic status of a single payment attempt.
// Adapters normalize whatever the provider reports into this closed set.
type PaymentStatus string

const (
	PaymentStatusApproved  PaymentStatus = "approved"
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusRejected  PaymentStatus = "rejected"
	PaymentStatusCancelled PaymentStatus = "cancelled"
	PaymentStatusRefunded  PaymentStatus = "refunded"
	PaymentStatusUnknown   PaymentStatus = "unknown"
)

// IsApproved reports whether this status settles the order as paid. Every
// other status leaves the order untouched.
func (s PaymentStatus) IsApproved() bool {
	return s == PaymentStatusApproved
}

// PreferenceItem is one line of a hosted-checkout preference, priced with the
// order's frozen amounts.
type PreferenceItem struct {
	Title     string
	SKU       string
	Quantity  int
	UnitPrice decimal.Decimal
}

// PreferenceRequest describes the hosted checkout to create for an order.
// ExternalReference is the correlation key the provider echoes back on every
// notification; it is the only token used to locate the order afterwards.
type PreferenceRequest struct {
	ExternalReference string
	Items             []PreferenceItem
	PayerEmail        string
	PayerFirstName    string
	PayerLastName     string
	SuccessURL        string
	FailureURL        string
	PendingURL        string
	NotificationURL   string
	// AutoReturn redirects the buyer back to SuccessURL automatically after
	// an approved payment. Providers reject it for non-public return URLs,
	// so it is suppressed for local development hosts.
	AutoReturn bool
}

// Preference is the created hosted checkout
type Preference struct {
	ID           string
	InitPoint    string
	SandboxPoint string
}

// Payment is a provider payment normalized for reconciliation
type Payment struct {
	ID                string
	Status            PaymentStatus
	ExternalReference string
	Amount            decimal.Decimal
}

// MerchantOrder groups the payment attempts made against one preference
type MerchantOrder struct {
	ID                string
	ExternalReference string
	Payments          []Payment
}

// Gateway is the outbound port to the payment provider. Implementations
// translate provider payloads into the normalized types above and never leak
// provider-specific status strings past this boundary.
type Gateway interface {
	// CreatePreference creates a hosted checkout for an order
	CreatePreference(ctx context.Context, req PreferenceRequest) (*Preference, error)

	// GetPayment fetches a single payment by provider ID
	GetPayment(ctx context.Context, id string) (*Payment, error)

	// GetMerchantOrder fetches a merchant order by provider ID
	GetMerchantOrder(ctx context.Context, id string) (*MerchantOrder, error)

	// SearchPaymentsByPreference lists the payments made against a
	// preference, used by manual reconciliation when no notification arrived
	SearchPaymentsByPreference(ctx context.Context, preferenceID string) ([]Payment, error)
}
