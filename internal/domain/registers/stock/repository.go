package stock

import (
	"context"
	"time"

	"tradedesk/internal/core/id"
)

// Repository defines operations for the stock register.
type Repository interface {
	// CreateMovements batch inserts movements.
	CreateMovements(ctx context.Context, movements []Movement) error

	// DeleteMovementsByRecorder removes and returns all movements of a document.
	DeleteMovementsByRecorder(ctx context.Context, recorderID id.ID) ([]Movement, error)

	// GetMovementsByRecorder retrieves all movements of a document.
	GetMovementsByRecorder(ctx context.Context, recorderID id.ID) ([]Movement, error)

	// GetBalance sums the register for a product.
	GetBalance(ctx context.Context, productID id.ID) (Balance, error)

	// GetMovementHistory returns movements of a product, newest first.
	GetMovementHistory(ctx context.Context, productID id.ID, filter MovementFilter) ([]Movement, error)
}

// MovementFilter for filtering movement history.
type MovementFilter struct {
	RecordType *RecordType
	FromDate   *time.Time
	ToDate     *time.Time
	Limit      int
	Offset     int
}

// StockAdjuster keeps the denormalized product stock quantity in step with the register.
type StockAdjuster interface {
	AdjustStock(ctx context.Context, productID id.ID, delta int) error
}
