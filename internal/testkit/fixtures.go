package testkit

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	customerdomain "github.com/smallbiznis/paygate/internal/customer/domain"
	orderdomain "github.com/smallbiznis/paygate/internal/order/domain"
	"gorm.io/gorm"
)

const CustomerID = "CUS-1001"

// SeedCustomer inserts the default test customer.
func SeedCustomer(t testing.TB, db *gorm.DB) *customerdomain.Customer {
	t.Helper()
	customer := &customerdomain.Customer{
		ID:        CustomerID,
		FirstName: "Mona",
		LastName:  "Hassan",
		Email:     "mona@example.com",
		Phone:     "+201000000000",
		CreatedAt: time.Now().UTC(),
	}
	if err := db.Create(customer).Error; err != nil {
		t.Fatalf("seed customer: %v", err)
	}
	return customer
}

// SeedOrder inserts an order for the default customer with one line item.
// The customer must already exist.
func SeedOrder(t testing.TB, db *gorm.DB, id string, payment orderdomain.Payment) *orderdomain.Order {
	t.Helper()
	now := time.Now().UTC()
	order := &orderdomain.Order{
		ID:          id,
		CustomerID:  CustomerID,
		Status:      orderdomain.OrderStatusPending,
		Currency:    "EGP",
		Subtotal:    decimal.RequireFromString("115.50"),
		ShippingFee: decimal.RequireFromString("10.00"),
		Total:       decimal.RequireFromString("125.50"),
		ShippingAddress: orderdomain.Address{
			Line1:   "12 Tahrir St",
			City:    "Cairo",
			Country: "EG",
		},
		Payment: payment,
		Items: []orderdomain.OrderItem{{
			ID:        id + "-1",
			ProductID: "SKU-MUG",
			Name:      "Mug",
			Quantity:  1,
			UnitPrice: decimal.RequireFromString("115.50"),
			Total:     decimal.RequireFromString("115.50"),
		}},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}
	return order
}
