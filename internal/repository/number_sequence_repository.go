package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/neemfurnitech/procurement-api/internal/domain"
	"gorm.io/gorm"
)

// NumberSequenceRepository handles database operations for the per-year
// purchase order number sequences.
type NumberSequenceRepository struct {
	db *gorm.DB
}

// NewNumberSequenceRepository creates a new NumberSequenceRepository
func NewNumberSequenceRepository(db *gorm.DB) *NumberSequenceRepository {
	return &NumberSequenceRepository{db: db}
}

// GetNextNumber atomically increments and returns the sequence for a year.
// The increment runs as a single UPDATE inside a transaction, which takes a
// row lock until commit, so concurrent callers always receive distinct values.
// If no sequence exists for the year, one is created starting at 1. Two
// concurrent first calls for a new year can both miss the UPDATE and race on
// the INSERT; the loser hits the unique index on year and retries the
// increment once instead of surfacing the constraint error.
func (r *NumberSequenceRepository) GetNextNumber(ctx context.Context, year int) (int, error) {
	for attempt := 0; ; attempt++ {
		next, err := r.nextNumber(ctx, year)
		if err == nil {
			return next, nil
		}
		if attempt == 0 && isDuplicateKeyError(err) {
			continue
		}
		return 0, err
	}
}

func (r *NumberSequenceRepository) nextNumber(ctx context.Context, year int) (int, error) {
	var nextSeq int

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&domain.NumberSequence{}).
			Where("year = ?", year).
			Updates(map[string]interface{}{
				"last_sequence": gorm.Expr("last_sequence + 1"),
				"updated_at":    time.Now(),
			})
		if result.Error != nil {
			return fmt.Errorf("failed to increment number sequence: %w", result.Error)
		}

		if result.RowsAffected == 0 {
			seq := domain.NumberSequence{
				Year:         year,
				LastSequence: 1,
				CreatedAt:    time.Now(),
				UpdatedAt:    time.Now(),
			}
			if err := tx.Create(&seq).Error; err != nil {
				return fmt.Errorf("failed to create number sequence: %w", err)
			}
			nextSeq = 1
			return nil
		}

		var seq domain.NumberSequence
		if err := tx.Where("year = ?", year).First(&seq).Error; err != nil {
			return fmt.Errorf("failed to read number sequence: %w", err)
		}
		nextSeq = seq.LastSequence
		return nil
	})

	if err != nil {
		return 0, err
	}

	return nextSeq, nil
}

// isDuplicateKeyError recognizes unique constraint violations from the
// postgres and sqlite drivers.
func isDuplicateKeyError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}

// GetCurrentSequence retrieves the current sequence value without incrementing.
// Returns 0 if no sequence exists for the year.
func (r *NumberSequenceRepository) GetCurrentSequence(ctx context.Context, year int) (int, error) {
	var seq domain.NumberSequence
	result := r.db.WithContext(ctx).
		Where("year = ?", year).
		First(&seq)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if result.Error != nil {
		return 0, fmt.Errorf("failed to get number sequence: %w", result.Error)
	}

	return seq.LastSequence, nil
}

// SetSequence raises the sequence for a year to at least the given value.
// Used by data imports so the next generated number skips existing orders.
// The value is the LAST USED sequence number (next number will be value+1).
func (r *NumberSequenceRepository) SetSequence(ctx context.Context, year int, value int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&domain.NumberSequence{}).
			Where("year = ? AND last_sequence < ?", year, value).
			Updates(map[string]interface{}{
				"last_sequence": value,
				"updated_at":    time.Now(),
			})
		if result.Error != nil {
			return fmt.Errorf("failed to update number sequence: %w", result.Error)
		}
		if result.RowsAffected > 0 {
			return nil
		}

		var seq domain.NumberSequence
		err := tx.Where("year = ?", year).First(&seq).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			seq = domain.NumberSequence{
				Year:         year,
				LastSequence: value,
				CreatedAt:    time.Now(),
				UpdatedAt:    time.Now(),
			}
			if err := tx.Create(&seq).Error; err != nil {
				return fmt.Errorf("failed to create number sequence: %w", err)
			}
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to get number sequence: %w", err)
		}

		// Existing sequence already at or past the requested value.
		return nil
	})
}

// ListSequences returns all sequences (useful for debugging/admin)
func (r *NumberSequenceRepository) ListSequences(ctx context.Context) ([]domain.NumberSequence, error) {
	var sequences []domain.NumberSequence
	err := r.db.WithContext(ctx).
		Order("year DESC").
		Find(&sequences).Error
	return sequences, err
}
