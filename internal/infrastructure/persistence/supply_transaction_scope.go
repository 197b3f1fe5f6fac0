package persistence

import (
	"context"

	"gorm.io/gorm"

	appsupply "github.com/stockpile/backend/internal/application/supply"
	"github.com/stockpile/backend/internal/domain/history"
	"github.com/stockpile/backend/internal/domain/supply"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// It provides atomic execution of multiple repository operations.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appsupply.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := &gormTransactionalRepositories{tx: tx}
		return fn(repos)
	})
}

// gormTransactionalRepositories provides access to all repositories within a transaction
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// SupplyRepo returns the supply repository scoped to the current transaction
func (r *gormTransactionalRepositories) SupplyRepo() supply.Repository {
	return NewGormSupplyRepository(r.tx)
}

// ReviewRepo returns the review repository scoped to the current transaction
func (r *gormTransactionalRepositories) ReviewRepo() supply.ReviewRepository {
	return NewGormReviewRepository(r.tx)
}

// HistoryRepo returns the history repository scoped to the current transaction
func (r *gormTransactionalRepositories) HistoryRepo() history.Repository {
	return NewGormHistoryRepository(r.tx)
}

// Ensure GormTransactionScope implements TransactionScope
var _ appsupply.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ appsupply.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
