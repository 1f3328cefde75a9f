package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/feral-file/flightstake-indexer/internal/domain"
	"github.com/feral-file/flightstake-indexer/internal/store/schema"
)

// CursorStore defines the interface for storing and retrieving per-source event cursors
type CursorStore interface {
	// GetCursor retrieves the last processed position of a source, nil if none
	GetCursor(ctx context.Context, source domain.Source) (*domain.Cursor, error)
	// SetCursor stores the last processed position of a source
	SetCursor(ctx context.Context, cursor domain.Cursor) error
}

func cursorKey(source domain.Source) string {
	return fmt.Sprintf("cursor:%s", source)
}

// GetCursor retrieves the last processed position of a source
func (s *pgStore) GetCursor(ctx context.Context, source domain.Source) (*domain.Cursor, error) {
	var kv schema.KeyValueStore
	err := s.db.WithContext(ctx).Where("key = ?", cursorKey(source)).First(&kv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get cursor: %w", err)
	}

	cursor, err := domain.ParseCursor(source, kv.Value)
	if err != nil {
		return nil, fmt.Errorf("failed to parse cursor: %w", err)
	}

	return &cursor, nil
}

// SetCursor stores the last processed position of a source
func (s *pgStore) SetCursor(ctx context.Context, cursor domain.Cursor) error {
	if err := saveCursor(s.db.WithContext(ctx), cursor); err != nil {
		return fmt.Errorf("failed to set cursor: %w", err)
	}
	return nil
}

// saveCursor upserts the cursor row using the given (possibly transactional) handle
func saveCursor(tx *gorm.DB, cursor domain.Cursor) error {
	kv := schema.KeyValueStore{
		Key:   cursorKey(cursor.Source),
		Value: cursor.String(),
	}

	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&kv).Error
}
