package seed

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	customerdomain "github.com/smallbiznis/paygate/internal/customer/domain"
	orderdomain "github.com/smallbiznis/paygate/internal/order/domain"
	paymentdomain "github.com/smallbiznis/paygate/internal/payment/domain"
	"gorm.io/gorm"
)

const (
	DemoCustomerID = "CUS-1001"
	DemoOrderID    = "ORD-1001"
)

// EnsureDemoData seeds one customer and one unpaid order for local checkout runs.
// Existing rows are left untouched.
func EnsureDemoData(ctx context.Context, db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()

		var customer customerdomain.Customer
		err := tx.Where("id = ?", DemoCustomerID).First(&customer).Error
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			customer = customerdomain.Customer{
				ID:         DemoCustomerID,
				FirstName:  "Mona",
				LastName:   "Hassan",
				Email:      "mona.hassan@example.com",
				Phone:      "+201001234567",
				Line1:      "12 Tahrir St",
				City:       "Cairo",
				PostalCode: "11511",
				Country:    "EG",
				CreatedAt:  now,
			}
			if err := tx.Create(&customer).Error; err != nil {
				return err
			}
		}

		var order orderdomain.Order
		err = tx.Where("id = ?", DemoOrderID).First(&order).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		order = orderdomain.Order{
			ID:          DemoOrderID,
			CustomerID:  DemoCustomerID,
			Status:      orderdomain.OrderStatusPending,
			Currency:    "EGP",
			Subtotal:    decimal.RequireFromString("450.00"),
			ShippingFee: decimal.RequireFromString("35.00"),
			Total:       decimal.RequireFromString("485.00"),
			ShippingAddress: orderdomain.Address{
				Line1:      "12 Tahrir St",
				City:       "Cairo",
				PostalCode: "11511",
				Country:    "EG",
			},
			Payment: orderdomain.Payment{Status: paymentdomain.PaymentStatusPending},
			Items: []orderdomain.OrderItem{
				{
					ID:        DemoOrderID + "-1",
					ProductID: "SKU-MUG",
					Name:      "Ceramic mug",
					Quantity:  2,
					UnitPrice: decimal.RequireFromString("125.00"),
					Total:     decimal.RequireFromString("250.00"),
				},
				{
					ID:        DemoOrderID + "-2",
					ProductID: "SKU-TEE",
					Name:      "Cotton t-shirt",
					Quantity:  1,
					UnitPrice: decimal.RequireFromString("200.00"),
					Total:     decimal.RequireFromString("200.00"),
				},
			},
			CreatedAt: now,
			UpdatedAt: now,
		}
		return tx.Create(&order).Error
	})
}
