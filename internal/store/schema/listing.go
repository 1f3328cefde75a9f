package schema

import (
	"time"

	"github.com/shopspring/decimal"
)

// Listing represents the listings table - at most one active listing per ticket
type Listing struct {
	// TokenID references the listed ticket
	TokenID uint64 `gorm:"column:token_id;primaryKey;autoIncrement:false;type:bigint"`
	// SellerAddress is the address that listed the ticket
	SellerAddress string `gorm:"column:seller_address;not null;type:text;index:idx_listings_seller_address"`
	// Price is the asking price in the smallest unit
	Price decimal.Decimal `gorm:"column:price;not null;type:numeric(78,0)"`
	// CreatedAt is the timestamp when the listing was projected
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the Listing model
func (Listing) TableName() string {
	return "listings"
}
