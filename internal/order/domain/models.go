// Package domain holds the order record that payment reconciliation mutates.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
	paymentdomain "github.com/smallbiznis/paygate/internal/payment/domain"
)

// OrderStatus is the order lifecycle status, distinct from the payment status.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusRefunded   OrderStatus = "refunded"
)

// Address is stored inline on the order as the shipping destination.
type Address struct {
	Line1      string `gorm:"type:text" json:"line1"`
	Line2      string `gorm:"type:text" json:"line2,omitempty"`
	City       string `gorm:"type:text" json:"city"`
	State      string `gorm:"type:text" json:"state,omitempty"`
	PostalCode string `gorm:"type:text" json:"postal_code,omitempty"`
	Country    string `gorm:"type:text" json:"country"`
}

// Payment is the payment sub-document of an order.
type Payment struct {
	Provider        string                      `gorm:"type:text" json:"provider,omitempty"`
	Method          string                      `gorm:"type:text" json:"method,omitempty"`
	Status          paymentdomain.PaymentStatus `gorm:"type:text;not null;default:pending" json:"status"`
	TransactionID   string                      `gorm:"type:text;index" json:"transactionId,omitempty"`
	ReferenceNumber string                      `gorm:"type:text;index" json:"referenceNumber,omitempty"`
}

type Order struct {
	ID              string          `gorm:"primaryKey;type:text" json:"id"`
	CustomerID      string          `gorm:"type:text;not null" json:"customer_id"`
	Status          OrderStatus     `gorm:"type:text;not null;default:pending" json:"status"`
	Currency        string          `gorm:"type:text;not null" json:"currency"`
	Subtotal        decimal.Decimal `gorm:"type:numeric;not null" json:"subtotal"`
	ShippingFee     decimal.Decimal `gorm:"type:numeric;not null" json:"shipping_fee"`
	Total           decimal.Decimal `gorm:"type:numeric;not null" json:"total"`
	ShippingAddress Address         `gorm:"embedded;embeddedPrefix:shipping_" json:"shipping_address"`
	Payment         Payment         `gorm:"embedded;embeddedPrefix:payment_" json:"payment"`
	PaidAt          *time.Time      `json:"paid_at"`
	Items           []OrderItem     `gorm:"foreignKey:OrderID" json:"items"`
	CreatedAt       time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"not null" json:"updated_at"`
}

func (Order) TableName() string { return "orders" }

type OrderItem struct {
	ID        string          `gorm:"primaryKey;type:text" json:"id"`
	OrderID   string          `gorm:"type:text;not null;index" json:"order_id"`
	ProductID string          `gorm:"type:text;not null" json:"product_id"`
	Name      string          `gorm:"type:text;not null" json:"name"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:numeric;not null" json:"unit_price"`
	Total     decimal.Decimal `gorm:"type:numeric;not null" json:"total"`
}

func (OrderItem) TableName() string { return "order_items" }
