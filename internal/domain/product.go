package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Category string

const (
	CategoryVegetables Category = "vegetables"
	CategoryFruits     Category = "fruits"
	CategoryGrains     Category = "grains"
	CategoryDairy      Category = "dairy"
	CategoryMeat       Category = "meat"
)

var Categories = []Category{
	CategoryVegetables, CategoryFruits, CategoryGrains, CategoryDairy, CategoryMeat,
}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

type Product struct {
	ID            string          `json:"id"`
	ProducerID    string          `json:"farmer_id"`
	Name          string          `json:"name"`
	Description   *string         `json:"description,omitempty"`
	Price         decimal.Decimal `json:"price"`
	Unit          string          `json:"unit"`
	Category      Category        `json:"category"`
	ImageURL      *string         `json:"image_url,omitempty"`
	StockQuantity int             `json:"stock_quantity"`
	IsAvailable   bool            `json:"is_available"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Purchasable reports whether the product may be bought. Stock is not
// decremented on order placement, so this is advisory.
func (p *Product) Purchasable() bool {
	return p != nil && p.IsAvailable && p.StockQuantity > 0
}

// ProductInput is the producer-editable part of a product.
type ProductInput struct {
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	Unit          string          `json:"unit"`
	Category      Category        `json:"category"`
	StockQuantity int             `json:"stock_quantity"`
	ImageURL      string          `json:"image_url"`
}
