package domain

import (
	"time"

	"github.com/google/uuid"
)

// Category classifies a product in the canteen catalog
type Category string

const (
	CategoryFood  Category = "food"
	CategoryDrink Category = "drink"
	CategorySnack Category = "snack"
	CategoryOther Category = "other"
)

// ValidCategory reports whether c is one of the known categories
func ValidCategory(c Category) bool {
	switch c {
	case CategoryFood, CategoryDrink, CategorySnack, CategoryOther:
		return true
	}
	return false
}

// Product represents a product in the canteen catalog. Prices are integer
// rupiah; stock is never negative.
type Product struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Price       int64     `json:"price" db:"price"`
	Stock       int       `json:"stock" db:"stock"`
	Category    Category  `json:"category" db:"category"`
	ImageURL    string    `json:"image_url" db:"image_url"`
	SellerID    uuid.UUID `json:"seller_id" db:"seller_id"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}
