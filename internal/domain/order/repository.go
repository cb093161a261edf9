package order

import (
	"context"

	"github.com/google/uuid"
	"github.com/shop/backend/internal/domain/shared"
)

// Repository defines the interface for order persistence.
//
// Write methods are split so checkout can stage its writes the way the
// transaction demands: the header first (placeholder total), the lines in one
// batch insert, and the settled total last.
type Repository interface {
	// FindByID finds an order by ID with its lines loaded
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)

	// FindByIDForUser finds an order by ID scoped to its owner
	FindByIDForUser(ctx context.Context, userID, id uuid.UUID) (*Order, error)

	// FindAllForUser lists a buyer's orders, newest first
	FindAllForUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]Order, error)

	// CountForUser counts a buyer's orders
	CountForUser(ctx context.Context, userID uuid.UUID) (int64, error)

	// FindByExternalReferenceForUpdate finds an order by its payment
	// correlation key under an exclusive row lock, blocking until any
	// concurrent holder releases it. Reconciliation serializes on this lock
	// so notifications for the same order apply one at a time.
	FindByExternalReferenceForUpdate(ctx context.Context, ref string) (*Order, error)

	// Create inserts the order header only
	Create(ctx context.Context, order *Order) error

	// CreateLines inserts all lines in a single batch
	CreateLines(ctx context.Context, lines []Line) error

	// Save persists header changes (status, total, payment fields)
	Save(ctx context.Context, order *Order) error
}
