package schema

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/feral-file/flightstake-indexer/internal/domain"
)

// Ticket represents the tickets table - the projected state of each minted ticket
type Ticket struct {
	// TokenID is the ledger token identifier and primary key
	TokenID uint64 `gorm:"column:token_id;primaryKey;autoIncrement:false;type:bigint"`
	// OwnerAddress is the current owner, set by registry transfers
	OwnerAddress string `gorm:"column:owner_address;not null;type:text;index:idx_tickets_owner_address"`
	// Status is one of IDLE, STAKED, COLLATERALIZED, LISTED
	Status domain.TicketStatus `gorm:"column:status;not null;type:text"`
	// Price is the oracle price in the smallest unit, up to 78 digits
	Price decimal.Decimal `gorm:"column:price;not null;default:0;type:numeric(78,0)"`
	// CreatedAt is the timestamp when the ticket was first projected
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	// UpdatedAt is the timestamp when the ticket was last updated
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the Ticket model
func (Ticket) TableName() string {
	return "tickets"
}
