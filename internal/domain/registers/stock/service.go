package stock

import (
	"context"
	"fmt"

	"tradedesk/internal/core/apperror"
	"tradedesk/internal/core/id"
	"tradedesk/internal/core/tx"
	"tradedesk/pkg/logger"
)

// Service provides business operations for the stock register.
// Record, Reverse and Replace join the caller's transaction (document
// submission); Enter opens its own.
type Service struct {
	repo      Repository
	adjuster  StockAdjuster
	txManager tx.Manager
}

// NewService creates a new stock register service. adjuster and txManager may be nil.
func NewService(repo Repository, adjuster StockAdjuster, txManager tx.Manager) *Service {
	if txManager == nil {
		txManager = tx.Immediate
	}
	return &Service{
		repo:      repo,
		adjuster:  adjuster,
		txManager: txManager,
	}
}

// Record stores movements produced by a document.
func (s *Service) Record(ctx context.Context, movements []Movement) error {
	if len(movements) == 0 {
		return nil
	}

	for i, m := range movements {
		if problem := m.check(); problem != "" {
			return apperror.NewValidation(fmt.Sprintf("movement %d: %s", i, problem))
		}
	}

	if err := s.repo.CreateMovements(ctx, movements); err != nil {
		return fmt.Errorf("create movements: %w", err)
	}
	if err := s.applyToProducts(ctx, movements, 1); err != nil {
		return err
	}

	logger.Info(ctx, "recorded stock movements",
		"count", len(movements),
		"recorder_id", movements[0].RecorderID,
	)
	return nil
}

// Reverse removes every movement of a document and undoes its stock effect.
func (s *Service) Reverse(ctx context.Context, recorderID id.ID) error {
	removed, err := s.repo.DeleteMovementsByRecorder(ctx, recorderID)
	if err != nil {
		return fmt.Errorf("delete movements: %w", err)
	}
	if len(removed) == 0 {
		return nil
	}
	if err := s.applyToProducts(ctx, removed, -1); err != nil {
		return err
	}

	logger.Info(ctx, "reversed stock movements",
		"count", len(removed),
		"recorder_id", recorderID,
	)
	return nil
}

// Replace swaps the movements of a resubmitted document.
func (s *Service) Replace(ctx context.Context, recorderID id.ID, movements []Movement) error {
	if err := s.Reverse(ctx, recorderID); err != nil {
		return err
	}
	return s.Record(ctx, movements)
}

// Enter records a hand-made stock entry and moves the product's on-hand
// quantity by it.
func (s *Service) Enter(ctx context.Context, entry Entry) (Movement, error) {
	if err := entry.Validate().Err(); err != nil {
		return Movement{}, err
	}

	m := entry.Movement()
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.Record(ctx, []Movement{m})
	})
	if err != nil {
		return Movement{}, err
	}

	logger.Info(ctx, "stock entry recorded",
		"product_id", m.ProductID,
		"type", entry.Type,
		"quantity", m.Quantity,
	)
	return m, nil
}

// Balance returns the on-hand quantity of a product.
func (s *Service) Balance(ctx context.Context, productID id.ID) (Balance, error) {
	return s.repo.GetBalance(ctx, productID)
}

// History returns movement history for a product.
func (s *Service) History(ctx context.Context, productID id.ID, filter MovementFilter) ([]Movement, error) {
	if filter.Limit <= 0 {
		filter.Limit = 100
	}
	return s.repo.GetMovementHistory(ctx, productID, filter)
}

// MovementsOf returns the movements recorded for a document.
func (s *Service) MovementsOf(ctx context.Context, recorderID id.ID) ([]Movement, error) {
	return s.repo.GetMovementsByRecorder(ctx, recorderID)
}

func (s *Service) applyToProducts(ctx context.Context, movements []Movement, sign int) error {
	if s.adjuster == nil {
		return nil
	}
	order, net := netByProduct(movements)
	for _, productID := range order {
		delta := net[productID] * sign
		if delta == 0 {
			continue
		}
		if err := s.adjuster.AdjustStock(ctx, productID, delta); err != nil {
			return fmt.Errorf("adjust stock of %s: %w", productID, err)
		}
	}
	return nil
}
