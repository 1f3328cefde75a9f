package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/feral-file/flightstake-indexer/db"
	"github.com/feral-file/flightstake-indexer/internal/domain"
	"github.com/feral-file/flightstake-indexer/internal/logger"
	"github.com/feral-file/flightstake-indexer/internal/store/schema"
)

type pgStore struct {
	db *gorm.DB
}

// NewPGStore creates a new PostgreSQL store instance
func NewPGStore(db *gorm.DB) Store {
	return &pgStore{db: db}
}

// Migrate creates the projection tables if they do not exist
func Migrate(ctx context.Context, gdb *gorm.DB) error {
	if err := gdb.WithContext(ctx).Exec(db.InitSQL).Error; err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// ConfigureConnectionPool configures the connection pool settings for a GORM database connection.
// It accesses the underlying *sql.DB and sets the pool configuration.
// If any of the pool settings are 0 or empty, reasonable defaults are used:
//   - MaxOpenConns: 20 (if 0)
//   - MaxIdleConns: 5 (if 0)
//   - ConnMaxLifetime: 5 minutes (if 0)
//   - ConnMaxIdleTime: 10 minutes (if 0)
func ConfigureConnectionPool(db *gorm.DB, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime =
		NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime)

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	return nil
}

// NormalizeConnectionPoolSettings applies defaults and clamps pool settings into safe values.
func NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) (int, int, time.Duration, time.Duration) {
	if maxOpenConns == 0 {
		maxOpenConns = 20
	}
	if maxIdleConns == 0 {
		maxIdleConns = 5
	}
	if connMaxLifetime == 0 {
		connMaxLifetime = 5 * time.Minute
	}
	if connMaxIdleTime == 0 {
		connMaxIdleTime = 10 * time.Minute
	}

	// Ensure MaxIdleConns doesn't exceed MaxOpenConns
	if maxIdleConns > maxOpenConns {
		maxIdleConns = maxOpenConns
	}

	return maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime
}

// ApplyProjection runs the whole read-project-write cycle of one event in a transaction
func (s *pgStore) ApplyProjection(ctx context.Context, tokenID uint64, cursor *domain.Cursor, project ProjectFunc) (*ApplyResult, error) {
	result := &ApplyResult{}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Use SELECT ... FOR UPDATE so concurrent events for the same ticket serialize
		state, err := loadTicketState(tx, tokenID)
		if err != nil {
			return err
		}

		delta, err := project(state)
		if err != nil {
			return err
		}
		result.Delta = delta

		if delta != nil {
			inserted, err := applyDelta(tx, delta)
			if err != nil {
				return err
			}
			result.TransactionInserted = inserted
		}

		if cursor != nil {
			if err := saveCursor(tx, *cursor); err != nil {
				return fmt.Errorf("failed to save cursor: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// loadTicketState reads the ticket row under lock together with its listing
func loadTicketState(tx *gorm.DB, tokenID uint64) (domain.TicketState, error) {
	var state domain.TicketState

	var ticket schema.Ticket
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("token_id = ?", tokenID).
		First(&ticket).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return state, fmt.Errorf("failed to lock ticket: %w", err)
	}
	if err == nil {
		t := toDomainTicket(ticket)
		state.Ticket = &t
	}

	var listing schema.Listing
	err = tx.Where("token_id = ?", tokenID).First(&listing).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return state, fmt.Errorf("failed to get listing: %w", err)
	}
	if err == nil {
		l := toDomainListing(listing)
		state.Listing = &l
	}

	return state, nil
}

// applyDelta writes a delta in foreign-key order and reports whether the transaction row was new
func applyDelta(tx *gorm.DB, delta *domain.Delta) (bool, error) {
	// 1. Users referenced by the delta
	if users := uniqueAddresses(delta.Users); len(users) > 0 {
		rows := make([]schema.User, 0, len(users))
		for _, address := range users {
			rows = append(rows, schema.User{Address: address})
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "address"}},
			DoNothing: true,
		}).Create(&rows).Error; err != nil {
			return false, fmt.Errorf("failed to ensure users: %w", err)
		}
	}

	// 2. Ticket
	if delta.Ticket != nil {
		row := schema.Ticket{
			TokenID:      delta.Ticket.TokenID,
			OwnerAddress: delta.Ticket.OwnerAddress,
			Status:       delta.Ticket.Status,
			Price:        delta.Ticket.Price,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "token_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"owner_address", "status", "price", "updated_at"}),
		}).Create(&row).Error; err != nil {
			return false, fmt.Errorf("failed to upsert ticket: %w", err)
		}
	}

	// 3. Listing
	if delta.DeleteListing {
		if err := tx.Where("token_id = ?", delta.TokenID).Delete(&schema.Listing{}).Error; err != nil {
			return false, fmt.Errorf("failed to delete listing: %w", err)
		}
	}
	if delta.CreateListing != nil {
		row := schema.Listing{
			TokenID:       delta.CreateListing.TokenID,
			SellerAddress: delta.CreateListing.SellerAddress,
			Price:         delta.CreateListing.Price,
		}
		if err := tx.Create(&row).Error; err != nil {
			return false, fmt.Errorf("failed to create listing: %w", err)
		}
	}

	// 4. Transaction history, at most one row per (hash, type)
	if delta.Transaction == nil {
		return false, nil
	}
	row := schema.Transaction{
		Hash:        delta.Transaction.Hash,
		Type:        delta.Transaction.Type,
		UserAddress: delta.Transaction.UserAddress,
		TokenID:     delta.Transaction.TokenID,
		Amount:      delta.Transaction.Amount,
		Timestamp:   delta.Transaction.Timestamp,
	}
	if len(delta.Transaction.Raw) > 0 {
		row.Raw = datatypes.JSON(delta.Transaction.Raw)
	}
	res := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "hash"}, {Name: "type"}},
		DoNothing: true,
	}).Create(&row)
	if res.Error != nil {
		return false, fmt.Errorf("failed to append transaction: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		logger.Debug("Transaction already recorded",
			zap.String("hash", row.Hash),
			zap.String("type", string(row.Type)))
		return false, nil
	}

	return true, nil
}

// GetUser returns the user or nil if the address was never referenced
func (s *pgStore) GetUser(ctx context.Context, address string) (*domain.User, error) {
	var user schema.User
	err := s.db.WithContext(ctx).Where("address = ?", address).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &domain.User{Address: user.Address, CreatedAt: user.CreatedAt}, nil
}

// GetTicket returns the ticket or nil if it was never minted
func (s *pgStore) GetTicket(ctx context.Context, tokenID uint64) (*domain.Ticket, error) {
	var ticket schema.Ticket
	err := s.db.WithContext(ctx).Where("token_id = ?", tokenID).First(&ticket).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get ticket: %w", err)
	}

	t := toDomainTicket(ticket)
	return &t, nil
}

// GetListing returns the active listing of a ticket or nil
func (s *pgStore) GetListing(ctx context.Context, tokenID uint64) (*domain.Listing, error) {
	var listing schema.Listing
	err := s.db.WithContext(ctx).Where("token_id = ?", tokenID).First(&listing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}

	l := toDomainListing(listing)
	return &l, nil
}

// GetTicketsByOwner returns the tickets owned by an address
func (s *pgStore) GetTicketsByOwner(ctx context.Context, owner string) ([]domain.Ticket, error) {
	var rows []schema.Ticket
	err := s.db.WithContext(ctx).
		Where("owner_address = ?", owner).
		Order("token_id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get tickets by owner: %w", err)
	}

	tickets := make([]domain.Ticket, 0, len(rows))
	for _, r := range rows {
		tickets = append(tickets, toDomainTicket(r))
	}
	return tickets, nil
}

// GetListingsBySeller returns the active listings of a seller
func (s *pgStore) GetListingsBySeller(ctx context.Context, seller string) ([]domain.Listing, error) {
	var rows []schema.Listing
	err := s.db.WithContext(ctx).
		Where("seller_address = ?", seller).
		Order("token_id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get listings by seller: %w", err)
	}

	listings := make([]domain.Listing, 0, len(rows))
	for _, r := range rows {
		listings = append(listings, toDomainListing(r))
	}
	return listings, nil
}

// GetRecentTransactions returns up to limit transactions of a user, newest first
func (s *pgStore) GetRecentTransactions(ctx context.Context, address string, limit int) ([]domain.Transaction, error) {
	var rows []schema.Transaction
	err := s.db.WithContext(ctx).
		Where("user_address = ?", address).
		Order("timestamp DESC, id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get recent transactions: %w", err)
	}

	return toDomainTransactions(rows), nil
}

// GetTransactionsByToken returns the full history of a ticket, oldest first
func (s *pgStore) GetTransactionsByToken(ctx context.Context, tokenID uint64) ([]domain.Transaction, error) {
	var rows []schema.Transaction
	err := s.db.WithContext(ctx).
		Where("token_id = ?", tokenID).
		Order("timestamp ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions by token: %w", err)
	}

	return toDomainTransactions(rows), nil
}

// GetActiveListings returns every active listing joined with its ticket
func (s *pgStore) GetActiveListings(ctx context.Context) ([]domain.ListingWithTicket, error) {
	var listings []schema.Listing
	if err := s.db.WithContext(ctx).
		Order("created_at DESC, token_id ASC").
		Find(&listings).Error; err != nil {
		return nil, fmt.Errorf("failed to get active listings: %w", err)
	}
	if len(listings) == 0 {
		return []domain.ListingWithTicket{}, nil
	}

	tokenIDs := make([]uint64, 0, len(listings))
	for _, l := range listings {
		tokenIDs = append(tokenIDs, l.TokenID)
	}

	var tickets []schema.Ticket
	if err := s.db.WithContext(ctx).
		Where("token_id IN ?", tokenIDs).
		Find(&tickets).Error; err != nil {
		return nil, fmt.Errorf("failed to get listed tickets: %w", err)
	}
	ticketByID := make(map[uint64]schema.Ticket, len(tickets))
	for _, t := range tickets {
		ticketByID[t.TokenID] = t
	}

	out := make([]domain.ListingWithTicket, 0, len(listings))
	for _, l := range listings {
		out = append(out, domain.ListingWithTicket{
			Listing: toDomainListing(l),
			Ticket:  toDomainTicket(ticketByID[l.TokenID]),
		})
	}
	return out, nil
}

func toDomainTicket(t schema.Ticket) domain.Ticket {
	return domain.Ticket{
		TokenID:      t.TokenID,
		OwnerAddress: t.OwnerAddress,
		Status:       t.Status,
		Price:        t.Price,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}

func toDomainListing(l schema.Listing) domain.Listing {
	return domain.Listing{
		TokenID:       l.TokenID,
		SellerAddress: l.SellerAddress,
		Price:         l.Price,
		CreatedAt:     l.CreatedAt,
	}
}

func toDomainTransactions(rows []schema.Transaction) []domain.Transaction {
	txs := make([]domain.Transaction, 0, len(rows))
	for _, r := range rows {
		txs = append(txs, domain.Transaction{
			ID:          r.ID,
			Hash:        r.Hash,
			Type:        r.Type,
			UserAddress: r.UserAddress,
			TokenID:     r.TokenID,
			Amount:      r.Amount,
			Timestamp:   r.Timestamp,
			Raw:         []byte(r.Raw),
		})
	}
	return txs
}
