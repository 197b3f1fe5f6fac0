package supply

import (
	"context"

	"github.com/stockpile/backend/internal/domain/history"
	"github.com/stockpile/backend/internal/domain/supply"
)

// TransactionScope provides transactional access to the repositories the
// supply workflows touch. Consume, restock and archive are read-modify-write
// sequences; running them inside one scope is what makes them safe against
// lost updates and duplicate history rows.
type TransactionScope interface {
	// Execute runs fn within a database transaction. If fn returns an error
	// the transaction is rolled back, otherwise it is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides repositories bound to one transaction
type TransactionalRepositories interface {
	// SupplyRepo returns the supply repository scoped to the transaction
	SupplyRepo() supply.Repository
	// ReviewRepo returns the review repository scoped to the transaction
	ReviewRepo() supply.ReviewRepository
	// HistoryRepo returns the history repository scoped to the transaction
	HistoryRepo() history.Repository
}

// NoOpTransactionScope runs functions without a real transaction. Used in
// tests where repositories are in-memory fakes.
type NoOpTransactionScope struct {
	supplyRepo  supply.Repository
	reviewRepo  supply.ReviewRepository
	historyRepo history.Repository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope over the given repositories
func NewNoOpTransactionScope(
	supplyRepo supply.Repository,
	reviewRepo supply.ReviewRepository,
	historyRepo history.Repository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		supplyRepo:  supplyRepo,
		reviewRepo:  reviewRepo,
		historyRepo: historyRepo,
	}
}

// Execute runs the function directly, without transaction semantics
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// SupplyRepo returns the supply repository
func (s *NoOpTransactionScope) SupplyRepo() supply.Repository {
	return s.supplyRepo
}

// ReviewRepo returns the review repository
func (s *NoOpTransactionScope) ReviewRepo() supply.ReviewRepository {
	return s.reviewRepo
}

// HistoryRepo returns the history repository
func (s *NoOpTransactionScope) HistoryRepo() history.Repository {
	return s.historyRepo
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
