package schema

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"github.com/feral-file/flightstake-indexer/internal/domain"
)

// Transaction represents the transactions table - append-only history of ticket activity
type Transaction struct {
	// ID is the internal database primary key
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	// Hash is the ledger transaction hash
	Hash string `gorm:"column:hash;not null;type:text;uniqueIndex:idx_transactions_hash_type"`
	// Type is the kind of activity (MINT, TRANSFER, STAKE, ...)
	Type domain.TransactionType `gorm:"column:type;not null;type:text;uniqueIndex:idx_transactions_hash_type"`
	// UserAddress is the address the activity is attributed to
	UserAddress string `gorm:"column:user_address;not null;type:text"`
	// TokenID references the ticket
	TokenID uint64 `gorm:"column:token_id;not null;type:bigint"`
	// Amount is the value scaled to display units, nil when the event carries none
	Amount *decimal.Decimal `gorm:"column:amount;type:numeric"`
	// Timestamp is the block timestamp of the event
	Timestamp time.Time `gorm:"column:timestamp;not null;type:timestamptz"`
	// Raw contains the decoded event arguments as JSON
	Raw datatypes.JSON `gorm:"column:raw;type:jsonb"`
	// CreatedAt is the timestamp when this record was indexed
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the Transaction model
func (Transaction) TableName() string {
	return "transactions"
}
