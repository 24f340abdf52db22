package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Customer struct {
	ID         string    `gorm:"primaryKey;type:text" json:"id"`
	FirstName  string    `gorm:"type:text;not null" json:"first_name"`
	LastName   string    `gorm:"type:text" json:"last_name"`
	Email      string    `gorm:"type:text;not null" json:"email"`
	Phone      string    `gorm:"type:text" json:"phone"`
	Line1      string    `gorm:"column:address_line1;type:text" json:"address_line1"`
	Line2      string    `gorm:"column:address_line2;type:text" json:"address_line2"`
	City       string    `gorm:"column:address_city;type:text" json:"address_city"`
	State      string    `gorm:"column:address_state;type:text" json:"address_state"`
	PostalCode string    `gorm:"column:address_postal_code;type:text" json:"address_postal_code"`
	Country    string    `gorm:"column:address_country;type:text" json:"address_country"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
}

func (Customer) TableName() string { return "customers" }

type Repository interface {
	FindByID(ctx context.Context, db *gorm.DB, id string) (*Customer, error)
}
