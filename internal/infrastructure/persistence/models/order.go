package models

import (
	"github.com/google/uuid"
	"github.com/shop/backend/internal/domain/order"
	"github.com/shop/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// OrderModel is the persistence model for the Order aggregate root. The
// shipping address is stored as a JSON snapshot; the external reference
// carries a unique index because it is the sole correlation key for payment
// notifications. It stays NULL until a payment preference is attached, so
// orders that never reach the provider do not collide on the index.
type OrderModel struct {
	AggregateModel
	UserID            uuid.UUID                   `gorm:"type:uuid;not null;index"`
	Status            string                      `gorm:"type:varchar(20);not null;index"`
	Total             decimal.Decimal             `gorm:"type:decimal(12,2);not null;default:0"`
	ShippingCost      decimal.Decimal             `gorm:"type:decimal(12,2);not null;default:0"`
	ShippingAddress   valueobject.ShippingAddress `gorm:"type:jsonb"`
	PaymentMethod     string                      `gorm:"type:varchar(50)"`
	PaymentID         string                      `gorm:"type:varchar(100)"`
	PreferenceID      string                      `gorm:"type:varchar(100);index"`
	ExternalReference *string                     `gorm:"type:varchar(100);uniqueIndex"`
	TrackingNumber    string                      `gorm:"type:varchar(100)"`
	Lines             []OrderLineModel            `gorm:"foreignKey:OrderID"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the persistence model to a domain Order aggregate.
func (m *OrderModel) ToDomain() *order.Order {
	lines := make([]order.Line, 0, len(m.Lines))
	for i := range m.Lines {
		lines = append(lines, *m.Lines[i].ToDomain())
	}

	externalReference := ""
	if m.ExternalReference != nil {
		externalReference = *m.ExternalReference
	}

	return &order.Order{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		UserID:            m.UserID,
		Status:            order.Status(m.Status),
		Total:             m.Total,
		ShippingCost:      m.ShippingCost,
		ShippingAddress:   m.ShippingAddress,
		PaymentMethod:     m.PaymentMethod,
		PaymentID:         m.PaymentID,
		PreferenceID:      m.PreferenceID,
		ExternalReference: externalReference,
		TrackingNumber:    m.TrackingNumber,
		Lines:             lines,
	}
}

// FromDomain populates the persistence model from a domain Order aggregate.
// Lines are mapped separately so checkout controls its own write ordering.
func (m *OrderModel) FromDomain(o *order.Order) {
	m.FromDomainAggregateRoot(o.BaseAggregateRoot)
	m.UserID = o.UserID
	m.Status = string(o.Status)
	m.Total = o.Total
	m.ShippingCost = o.ShippingCost
	m.ShippingAddress = o.ShippingAddress
	m.PaymentMethod = o.PaymentMethod
	m.PaymentID = o.PaymentID
	m.PreferenceID = o.PreferenceID
	if o.ExternalReference != "" {
		ref := o.ExternalReference
		m.ExternalReference = &ref
	} else {
		m.ExternalReference = nil
	}
	m.TrackingNumber = o.TrackingNumber
}

// OrderLineModel is the persistence model for one order line. The price
// column holds the unit price frozen at purchase time.
type OrderLineModel struct {
	BaseModel
	OrderID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	VariantID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	SKU             string          `gorm:"type:varchar(100);not null"`
	ProductName     string          `gorm:"type:varchar(255);not null"`
	Quantity        int             `gorm:"not null"`
	PriceAtPurchase decimal.Decimal `gorm:"type:decimal(12,2);not null"`
}

// TableName returns the table name for GORM
func (OrderLineModel) TableName() string {
	return "order_lines"
}

// ToDomain converts the persistence model to a domain Line entity.
func (m *OrderLineModel) ToDomain() *order.Line {
	return &order.Line{
		BaseEntity:      m.BaseModel.ToDomain(),
		OrderID:         m.OrderID,
		VariantID:       m.VariantID,
		SKU:             m.SKU,
		ProductName:     m.ProductName,
		Quantity:        m.Quantity,
		PriceAtPurchase: m.PriceAtPurchase,
	}
}

// FromDomain populates the persistence model from a domain Line entity.
func (m *OrderLineModel) FromDomain(l *order.Line) {
	m.FromDomainBaseEntity(l.BaseEntity)
	m.OrderID = l.OrderID
	m.VariantID = l.VariantID
	m.SKU = l.SKU
	m.ProductName = l.ProductName
	m.Quantity = l.Quantity
	m.PriceAtPurchase = l.PriceAtPurchase
}
