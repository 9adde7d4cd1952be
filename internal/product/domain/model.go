package domain

import (
	"time"

	"gorm.io/datatypes"
)

type ProductType string

const (
	ProductTypePlan  ProductType = "plan"
	ProductTypeAddon ProductType = "addon"
)

func (t ProductType) Valid() bool {
	return t == ProductTypePlan || t == ProductTypeAddon
}

// Product is a sellable catalog entry: a listing plan or an addon.
// Prices are integer cents.
type Product struct {
	ID          int64                       `json:"id" gorm:"primaryKey"`
	Code        string                      `json:"code" gorm:"type:text;not null;uniqueIndex:ux_products_type_code,priority:2"`
	Name        string                      `json:"name" gorm:"type:text;not null"`
	Description string                      `json:"description" gorm:"type:text"`
	Type        ProductType                 `json:"type" gorm:"type:text;not null;uniqueIndex:ux_products_type_code,priority:1"`
	PriceCents  int64                       `json:"price_cents" gorm:"not null;default:0"`
	Active      bool                        `json:"active" gorm:"not null"`
	SortOrder   int                         `json:"sort_order" gorm:"not null;default:0"`
	Features    datatypes.JSONSlice[string] `json:"features,omitempty" gorm:"type:jsonb"`
	CreatedAt   time.Time                   `json:"created_at" gorm:"not null"`
	UpdatedAt   time.Time                   `json:"updated_at" gorm:"not null"`
}

func (Product) TableName() string { return "products" }
