package repository

import (
	"context"
	"errors"
	"strings"

	customerdomain "github.com/smallbiznis/paygate/internal/customer/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() customerdomain.Repository {
	return &repo{}
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id string) (*customerdomain.Customer, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil
	}

	var customer customerdomain.Customer
	if err := db.WithContext(ctx).Where("id = ?", id).First(&customer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &customer, nil
}
