package domain

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// Source identifies one of the independent on-ledger event sources
type Source string

const (
	SourceRegistry    Source = "registry"
	SourceStaking     Source = "staking"
	SourceLending     Source = "lending"
	SourceMarketplace Source = "marketplace"
	SourceOracle      Source = "oracle"
)

// AllSources lists every tracked source in a stable order
var AllSources = []Source{
	SourceRegistry,
	SourceStaking,
	SourceLending,
	SourceMarketplace,
	SourceOracle,
}

// Valid checks if the source is one of the tracked sources
func (s Source) Valid() bool {
	switch s {
	case SourceRegistry, SourceStaking, SourceLending, SourceMarketplace, SourceOracle:
		return true
	default:
		return false
	}
}

// EventName is the name of a ledger event as declared in the source ABI
type EventName string

const (
	EventTransfer            EventName = "Transfer"
	EventTokenStaked         EventName = "TokenStaked"
	EventTokenUnstaked       EventName = "TokenUnstaked"
	EventCollateralDeposited EventName = "CollateralDeposited"
	EventCollateralWithdrawn EventName = "CollateralWithdrawn"
	EventItemListed          EventName = "ItemListed"
	EventItemCanceled        EventName = "ItemCanceled"
	EventItemSold            EventName = "ItemSold"
	EventPriceUpdated        EventName = "PriceUpdated"
)

// Event is a decoded ledger log tagged with its source
type Event struct {
	Source      Source                 `json:"source"`
	Name        EventName              `json:"name"`
	Contract    string                 `json:"contract"`
	TxHash      string                 `json:"tx_hash"`
	BlockNumber uint64                 `json:"block_number"`
	LogIndex    uint                   `json:"log_index"`
	Timestamp   time.Time              `json:"timestamp"`
	Args        map[string]interface{} `json:"args"`
}

// Cursor returns the position of the event in its source's history
func (e *Event) Cursor() Cursor {
	return Cursor{
		Source:      e.Source,
		BlockNumber: e.BlockNumber,
		LogIndex:    e.LogIndex,
	}
}

// ArgsJSON renders the decoded arguments with addresses and integers as strings
func (e *Event) ArgsJSON() ([]byte, error) {
	out := make(map[string]string, len(e.Args))
	for k, v := range e.Args {
		switch val := v.(type) {
		case common.Address:
			out[k] = val.Hex()
		case *big.Int:
			out[k] = val.String()
		case fmt.Stringer:
			out[k] = val.String()
		default:
			out[k] = fmt.Sprintf("%v", val)
		}
	}
	return json.Marshal(out)
}

// Cursor is a remembered position in a source's event history
type Cursor struct {
	Source      Source `json:"source"`
	BlockNumber uint64 `json:"block_number"`
	LogIndex    uint   `json:"log_index"`
}

// After reports whether c is strictly later than other
func (c Cursor) After(other Cursor) bool {
	if c.BlockNumber != other.BlockNumber {
		return c.BlockNumber > other.BlockNumber
	}
	return c.LogIndex > other.LogIndex
}

// String encodes the position as "block:logIndex"
func (c Cursor) String() string {
	return fmt.Sprintf("%d:%d", c.BlockNumber, c.LogIndex)
}

// ParseCursor decodes a "block:logIndex" position for a source
func ParseCursor(source Source, value string) (Cursor, error) {
	blockPart, logPart, ok := strings.Cut(value, ":")
	if !ok {
		return Cursor{}, fmt.Errorf("invalid cursor value %q", value)
	}
	blockNumber, err := strconv.ParseUint(blockPart, 10, 64)
	if err != nil {
		return Cursor{}, fmt.Errorf("invalid cursor block %q: %w", blockPart, err)
	}
	logIndex, err := strconv.ParseUint(logPart, 10, 32)
	if err != nil {
		return Cursor{}, fmt.Errorf("invalid cursor log index %q: %w", logPart, err)
	}
	return Cursor{Source: source, BlockNumber: blockNumber, LogIndex: uint(logIndex)}, nil
}

// TicketStatus is the lifecycle status of a ticket
type TicketStatus string

const (
	TicketStatusIdle           TicketStatus = "IDLE"
	TicketStatusStaked         TicketStatus = "STAKED"
	TicketStatusCollateralized TicketStatus = "COLLATERALIZED"
	TicketStatusListed         TicketStatus = "LISTED"
)

// TransactionType is the kind of an entry in the transaction history
type TransactionType string

const (
	TransactionTypeMint     TransactionType = "MINT"
	TransactionTypeTransfer TransactionType = "TRANSFER"
	TransactionTypeStake    TransactionType = "STAKE"
	TransactionTypeUnstake  TransactionType = "UNSTAKE"
	TransactionTypeDeposit  TransactionType = "DEPOSIT"
	TransactionTypeWithdraw TransactionType = "WITHDRAW"
	TransactionTypeList     TransactionType = "LIST"
	TransactionTypeCancel   TransactionType = "CANCEL"
	TransactionTypeSale     TransactionType = "SALE"
)

// Ticket is the projected state of a tokenized ticket
type Ticket struct {
	TokenID      uint64          `json:"token_id"`
	OwnerAddress string          `json:"owner_address"`
	Status       TicketStatus    `json:"status"`
	Price        decimal.Decimal `json:"price"` // smallest unit
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// User is an address seen by any event
type User struct {
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
}

// Listing is an active marketplace listing for a ticket
type Listing struct {
	TokenID       uint64          `json:"token_id"`
	SellerAddress string          `json:"seller_address"`
	Price         decimal.Decimal `json:"price"` // smallest unit
	CreatedAt     time.Time       `json:"created_at"`
}

// ListingWithTicket is a listing joined with the ticket it sells
type ListingWithTicket struct {
	Listing
	Ticket Ticket `json:"ticket"`
}

// Transaction is an entry of the append-only transaction history
type Transaction struct {
	ID          uint64           `json:"id"`
	Hash        string           `json:"hash"`
	Type        TransactionType  `json:"type"`
	UserAddress string           `json:"user_address"`
	TokenID     uint64           `json:"token_id"`
	Amount      *decimal.Decimal `json:"amount,omitempty"` // display units
	Timestamp   time.Time        `json:"timestamp"`
	Raw         json.RawMessage  `json:"raw,omitempty"`
}

// TicketState is the slice of the projection a single event may read
type TicketState struct {
	Ticket  *Ticket
	Listing *Listing
}

// Delta is the set of writes produced by projecting one event
type Delta struct {
	TokenID       uint64       `json:"token_id"`
	Ticket        *Ticket      `json:"ticket,omitempty"`
	Users         []string     `json:"users,omitempty"`
	CreateListing *Listing     `json:"create_listing,omitempty"`
	DeleteListing bool         `json:"delete_listing,omitempty"`
	Transaction   *Transaction `json:"transaction,omitempty"`
}

// SourceState is the connection state of a source subscription
type SourceState string

const (
	SourceStateDisconnected SourceState = "disconnected"
	SourceStateConnecting   SourceState = "connecting"
	SourceStateSubscribed   SourceState = "subscribed"
)

// SourceStatus reports a connection state transition
type SourceStatus struct {
	Source    Source      `json:"source"`
	State     SourceState `json:"state"`
	Error     string      `json:"error,omitempty"`
	ChangedAt time.Time   `json:"changed_at"`
}

// NormalizeAddress returns the checksum form of a hex account address
func NormalizeAddress(address string) (string, error) {
	if !common.IsHexAddress(address) {
		return "", fmt.Errorf("%w: %s", ErrInvalidAddress, address)
	}
	return common.HexToAddress(address).Hex(), nil
}
