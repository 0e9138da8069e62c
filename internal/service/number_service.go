package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/neemfurnitech/procurement-api/internal/repository"
	"go.uber.org/zap"
)

// NumberService handles generation of unique, formatted document numbers.
//
// Purchase order format: PO-{YEAR}-{SEQUENCE}, e.g. "PO-2026-000123".
// The sequence is per calendar year and backed by a database counter, so
// numbers never repeat even when two orders are created at the same instant.
type NumberService struct {
	repo   *repository.NumberSequenceRepository
	logger *zap.Logger
}

// NewNumberService creates a new NumberService
func NewNumberService(
	repo *repository.NumberSequenceRepository,
	logger *zap.Logger,
) *NumberService {
	return &NumberService{
		repo:   repo,
		logger: logger,
	}
}

var poNumberPattern = regexp.MustCompile(`^PO-\d{4}-\d{6}$`)

// GeneratePONumber generates a unique purchase order number.
// Called once at order creation; the number never changes afterwards.
func (s *NumberService) GeneratePONumber(ctx context.Context) (string, error) {
	year := time.Now().Year()

	nextSeq, err := s.repo.GetNextNumber(ctx, year)
	if err != nil {
		s.logger.Error("failed to get next sequence number",
			zap.Int("year", year),
			zap.Error(err))
		return "", fmt.Errorf("failed to generate purchase order number: %w", err)
	}

	number := fmt.Sprintf("PO-%d-%06d", year, nextSeq)

	s.logger.Info("generated purchase order number",
		zap.String("number", number),
		zap.Int("year", year),
		zap.Int("sequence", nextSeq))

	return number, nil
}

// GenerateInvoiceNumber derives an invoice number from a purchase order
// number. Format: INV-{PO sequence}-{suffix}, where the suffix comes from a
// fresh UUID so retries after partial failures never collide.
func (s *NumberService) GenerateInvoiceNumber(poNumber string) string {
	segments := strings.Split(poNumber, "-")
	seq := segments[len(segments)-1]
	suffix := strings.ToUpper(uuid.New().String()[:8])
	return fmt.Sprintf("INV-%s-%s", seq, suffix)
}

// ValidatePONumber checks if a purchase order number follows the expected
// PO-YYYY-NNNNNN format.
func (s *NumberService) ValidatePONumber(number string) bool {
	return poNumberPattern.MatchString(number)
}

// GetCurrentSequence returns the current sequence value for a year without
// incrementing it. Returns 0 if no sequence exists.
func (s *NumberService) GetCurrentSequence(ctx context.Context, year int) (int, error) {
	return s.repo.GetCurrentSequence(ctx, year)
}

// InitializeSequence sets the sequence to a specific value. Used by data
// imports so generated numbers skip existing orders. The value should be the
// LAST USED sequence number.
func (s *NumberService) InitializeSequence(ctx context.Context, year int, value int) error {
	return s.repo.SetSequence(ctx, year, value)
}
