package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shop/backend/internal/domain/order"
	"github.com/shopspring/decimal"
)

// CreateOrderRequest represents a checkout request
type CreateOrderRequest struct {
	Items           []CreateOrderItemInput `json:"items" binding:"required,min=1,dive"`
	ShippingAddress ShippingAddressInput   `json:"shipping_address" binding:"required"`
	PaymentMethod   string                 `json:"payment_method" binding:"omitempty,max=50"`
}

// CreateOrderItemInput is one requested variant and quantity
type CreateOrderItemInput struct {
	VariantID uuid.UUID `json:"variant_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,min=1"`
}

// ShippingAddressInput is the address snapshot submitted at checkout
type ShippingAddressInput struct {
	Street     string `json:"street" binding:"required,max=255"`
	Number     string `json:"number" binding:"required,max=20"`
	City       string `json:"city" binding:"required,max=100"`
	State      string `json:"state" binding:"omitempty,max=100"`
	PostalCode string `json:"postal_code" binding:"required,max=20"`
	Country    string `json:"country" binding:"required,max=100"`
	Notes      string `json:"notes" binding:"omitempty,max=255"`
}

// OrderLineResponse represents one order line
type OrderLineResponse struct {
	ID              uuid.UUID       `json:"id"`
	VariantID       uuid.UUID       `json:"variant_id"`
	SKU             string          `json:"sku"`
	ProductName     string          `json:"product_name"`
	Quantity        int             `json:"quantity"`
	PriceAtPurchase decimal.Decimal `json:"price_at_purchase"`
	Subtotal        decimal.Decimal `json:"subtotal"`
}

// OrderResponse represents a full order
type OrderResponse struct {
	ID                uuid.UUID           `json:"id"`
	Status            string              `json:"status"`
	Total             decimal.Decimal     `json:"total"`
	ShippingCost      decimal.Decimal     `json:"shipping_cost"`
	ShippingAddress   string              `json:"shipping_address"`
	PaymentMethod     string              `json:"payment_method,omitempty"`
	ExternalReference string              `json:"external_reference,omitempty"`
	TrackingNumber    string              `json:"tracking_number,omitempty"`
	Lines             []OrderLineResponse `json:"lines"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
}

// OrderListItemResponse is the compact shape used in list views
type OrderListItemResponse struct {
	ID        uuid.UUID       `json:"id"`
	Status    string          `json:"status"`
	Total     decimal.Decimal `json:"total"`
	LineCount int             `json:"line_count"`
	CreatedAt time.Time       `json:"created_at"`
}

// ToOrderResponse converts a domain order to a response DTO
func ToOrderResponse(o *order.Order) OrderResponse {
	lines := make([]OrderLineResponse, 0, len(o.Lines))
	for i := range o.Lines {
		l := &o.Lines[i]
		lines = append(lines, OrderLineResponse{
			ID:              l.ID,
			VariantID:       l.VariantID,
			SKU:             l.SKU,
			ProductName:     l.ProductName,
			Quantity:        l.Quantity,
			PriceAtPurchase: l.PriceAtPurchase,
			Subtotal:        l.Subtotal(),
		})
	}

	return OrderResponse{
		ID:                o.ID,
		Status:            string(o.Status),
		Total:             o.Total,
		ShippingCost:      o.ShippingCost,
		ShippingAddress:   o.ShippingAddress.FullAddress(),
		PaymentMethod:     o.PaymentMethod,
		ExternalReference: o.ExternalReference,
		TrackingNumber:    o.TrackingNumber,
		Lines:             lines,
		CreatedAt:         o.CreatedAt,
		UpdatedAt:         o.UpdatedAt,
	}
}

// ToOrderListItemResponse converts a domain order to the compact list shape
func ToOrderListItemResponse(o *order.Order) OrderListItemResponse {
	return OrderListItemResponse{
		ID:        o.ID,
		Status:    string(o.Status),
		Total:     o.Total,
		LineCount: len(o.Lines),
		CreatedAt: o.CreatedAt,
	}
}
