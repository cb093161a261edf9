package order

import (
	"context"

	"github.com/shop/backend/internal/domain/catalog"
	"github.com/shop/backend/internal/domain/order"
)

// TransactionScope provides transactional access to the repositories checkout
// writes through. All repository operations inside Execute share one database
// transaction and commit or roll back atomically; the inventory row locks
// taken during checkout live exactly as long as that transaction.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the order and variant
// repositories scoped to the current transaction.
type TransactionalRepositories interface {
	// OrderRepo returns the order repository scoped to the current transaction
	OrderRepo() order.Repository
	// VariantRepo returns the variant repository scoped to the current transaction
	VariantRepo() catalog.VariantRepository
}

// NoOpTransactionScope is a transaction scope that doesn't actually use
// transactions. This is useful for testing.
type NoOpTransactionScope struct {
	orderRepo   order.Repository
	variantRepo catalog.VariantRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(orderRepo order.Repository, variantRepo catalog.VariantRepository) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		orderRepo:   orderRepo,
		variantRepo: variantRepo,
	}
}

// Execute runs the function without a real transaction (for testing).
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// OrderRepo returns the order repository.
func (s *NoOpTransactionScope) OrderRepo() order.Repository {
	return s.orderRepo
}

// VariantRepo returns the variant repository.
func (s *NoOpTransactionScope) VariantRepo() catalog.VariantRepository {
	return s.variantRepo
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
