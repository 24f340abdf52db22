package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	orderdomain "github.com/smallbiznis/paygate/internal/order/domain"
	paymentdomain "github.com/smallbiznis/paygate/internal/payment/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() orderdomain.Repository {
	return &repo{}
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id string) (*orderdomain.Order, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil
	}

	var order orderdomain.Order
	err := db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

func (r *repo) FindByPaymentKeys(ctx context.Context, db *gorm.DB, keys orderdomain.PaymentKeys) ([]*orderdomain.Order, error) {
	var (
		clauses []string
		args    []any
	)
	for _, key := range []string{keys.TransactionID, keys.ReferenceNumber} {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		clauses = append(clauses, "payment_transaction_id = ?", "payment_reference_number = ?")
		args = append(args, key, key)
	}
	if orderID := strings.TrimSpace(keys.OrderID); orderID != "" {
		clauses = append(clauses, "id = ?")
		args = append(args, orderID)
	}
	if len(clauses) == 0 {
		return nil, nil
	}

	var orders []*orderdomain.Order
	err := db.WithContext(ctx).
		Where(strings.Join(clauses, " OR "), args...).
		Order("updated_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repo) SetPayment(ctx context.Context, db *gorm.DB, id string, payment orderdomain.Payment, updatedAt time.Time) error {
	result := db.WithContext(ctx).
		Model(&orderdomain.Order{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"payment_provider":         payment.Provider,
			"payment_method":           payment.Method,
			"payment_status":           payment.Status,
			"payment_transaction_id":   payment.TransactionID,
			"payment_reference_number": payment.ReferenceNumber,
			"updated_at":               updatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return paymentdomain.ErrOrderNotFound
	}
	return nil
}

func (r *repo) CompareAndSwapPayment(
	ctx context.Context,
	db *gorm.DB,
	id string,
	expected paymentdomain.PaymentStatus,
	update orderdomain.PaymentUpdate,
) (bool, error) {
	fields := map[string]any{
		"payment_status": update.PaymentStatus,
		"status":         update.OrderStatus,
		"updated_at":     update.UpdatedAt,
	}
	if update.PaidAt != nil {
		fields["paid_at"] = gorm.Expr("COALESCE(paid_at, ?)", *update.PaidAt)
	}
	if ref := strings.TrimSpace(update.ReferenceNumber); ref != "" {
		fields["payment_reference_number"] = gorm.Expr("COALESCE(NULLIF(payment_reference_number, ''), ?)", ref)
	}

	result := db.WithContext(ctx).
		Model(&orderdomain.Order{}).
		Where("id = ? AND payment_status = ?", id, expected).
		Updates(fields)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
