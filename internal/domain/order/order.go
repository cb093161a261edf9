package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shop/backend/internal/domain/shared"
	"github.com/shop/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Status represents the lifecycle state of an order
type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// IsValid returns true if the status is a known lifecycle state
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// Order represents a buyer's order. It is the aggregate root for checkout,
// cancellation and payment reconciliation. Monetary amounts and the shipping
// address are frozen at creation time and never re-read from the catalog or
// the buyer's profile.
type Order struct {
	shared.BaseAggregateRoot
	UserID            uuid.UUID
	Status            Status
	Total             decimal.Decimal
	ShippingCost      decimal.Decimal
	ShippingAddress   valueobject.ShippingAddress
	PaymentMethod     string
	PaymentID         string
	PreferenceID      string
	ExternalReference string
	TrackingNumber    string
	Lines             []Line
}

// NewOrder creates a pending order header with a zero total. The total is
// settled once the lines are priced under inventory locks.
func NewOrder(userID uuid.UUID, address valueobject.ShippingAddress, paymentMethod string) (*Order, error) {
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "User ID cannot be empty")
	}
	if address.IsEmpty() {
		return nil, shared.NewDomainError("INVALID_ADDRESS", "Shipping address is required")
	}

	return &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		UserID:            userID,
		Status:            StatusPending,
		Total:             decimal.Zero,
		ShippingCost:      decimal.Zero,
		ShippingAddress:   address,
		PaymentMethod:     paymentMethod,
	}, nil
}

// CanTransitionTo returns true if the order may move to the target status
func (o *Order) CanTransitionTo(target Status) bool {
	switch o.Status {
	case StatusPending:
		return target == StatusPaid || target == StatusCancelled
	case StatusPaid:
		return target == StatusShipped
	case StatusShipped:
		return target == StatusDelivered
	default:
		return false
	}
}

// MarkPaid applies an approved payment. It reports whether the order actually
// changed: an order that already left the pending state is returned unchanged
// so repeated payment notifications stay idempotent.
func (o *Order) MarkPaid(paymentID string) bool {
	if o.Status != StatusPending {
		return false
	}
	o.Status = StatusPaid
	o.PaymentID = paymentID
	o.UpdatedAt = time.Now()
	o.IncrementVersion()
	return true
}

// RecordPaymentAttempt stores the external id of a payment attempt that did
// not settle the order, keeping a trail for support lookups. The status is
// untouched; an approved attempt goes through MarkPaid instead. Reports
// whether anything changed.
func (o *Order) RecordPaymentAttempt(paymentID string) bool {
	if o.Status != StatusPending || paymentID == "" || o.PaymentID == paymentID {
		return false
	}
	o.PaymentID = paymentID
	o.UpdatedAt = time.Now()
	return true
}

// Cancel cancels a pending order. Orders that have been paid or shipped
// cannot be cancelled.
func (o *Order) Cancel() error {
	if !o.CanTransitionTo(StatusCancelled) {
		return shared.ErrInvalidState
	}
	o.Status = StatusCancelled
	o.UpdatedAt = time.Now()
	o.IncrementVersion()
	return nil
}

// Ship marks a paid order as shipped with its tracking number
func (o *Order) Ship(trackingNumber string) error {
	if !o.CanTransitionTo(StatusShipped) {
		return shared.ErrInvalidState
	}
	o.Status = StatusShipped
	o.TrackingNumber = trackingNumber
	o.UpdatedAt = time.Now()
	o.IncrementVersion()
	return nil
}

// Deliver marks a shipped order as delivered
func (o *Order) Deliver() error {
	if !o.CanTransitionTo(StatusDelivered) {
		return shared.ErrInvalidState
	}
	o.Status = StatusDelivered
	o.UpdatedAt = time.Now()
	o.IncrementVersion()
	return nil
}

// AttachPreference records the hosted checkout created for this order. The
// external reference is the correlation key handed to the payment provider
// and the only token used to find this order again when notifications
// arrive; the preference ID allows polling the provider when none do.
func (o *Order) AttachPreference(preferenceID, externalReference string) error {
	if externalReference == "" {
		return shared.NewDomainError("INVALID_REFERENCE", "External reference cannot be empty")
	}
	o.PreferenceID = preferenceID
	o.ExternalReference = externalReference
	o.UpdatedAt = time.Now()
	return nil
}

// SettleTotal records the order total computed from its priced lines plus
// shipping
func (o *Order) SettleTotal() {
	total := o.ShippingCost
	for i := range o.Lines {
		total = total.Add(o.Lines[i].Subtotal())
	}
	o.Total = total
	o.UpdatedAt = time.Now()
}

// Line is one purchased variant on an order. PriceAtPurchase is the unit
// price frozen while the variant row was locked; later catalog price changes
// never affect it.
type Line struct {
	shared.BaseEntity
	OrderID         uuid.UUID
	VariantID       uuid.UUID
	SKU             string
	ProductName     string
	Quantity        int
	PriceAtPurchase decimal.Decimal
}

// NewLine creates an order line with the frozen unit price
func NewLine(orderID, variantID uuid.UUID, sku, productName string, quantity int, priceAtPurchase decimal.Decimal) (*Line, error) {
	if orderID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ORDER", "Order ID cannot be empty")
	}
	if variantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_VARIANT", "Variant ID cannot be empty")
	}
	if quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if priceAtPurchase.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Price cannot be negative")
	}

	return &Line{
		BaseEntity:      shared.NewBaseEntity(),
		OrderID:         orderID,
		VariantID:       variantID,
		SKU:             sku,
		ProductName:     productName,
		Quantity:        quantity,
		PriceAtPurchase: priceAtPurchase,
	}, nil
}

// Subtotal returns quantity times the frozen unit price
func (l *Line) Subtotal() decimal.Decimal {
	return l.PriceAtPurchase.Mul(decimal.NewFromInt(int64(l.Quantity)))
}
