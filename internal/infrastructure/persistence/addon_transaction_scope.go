package persistence

import (
	"context"

	appaddon "github.com/boxibox/backend/internal/application/addon"
	"github.com/boxibox/backend/internal/domain/addon"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// It provides atomic execution of multiple repository operations.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appaddon.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// gormTransactionalRepositories provides access to all repositories within a transaction.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// AddonRepo returns the recurring add-on repository scoped to the current transaction.
func (r *gormTransactionalRepositories) AddonRepo() addon.RecurringAddonRepository {
	return NewGormRecurringAddonRepository(r.tx)
}

// BillingRecordRepo returns the billing ledger repository scoped to the current transaction.
func (r *gormTransactionalRepositories) BillingRecordRepo() addon.BillingRecordRepository {
	return NewGormBillingRecordRepository(r.tx)
}

// Savepoint runs fn under a SAVEPOINT of the current transaction; GORM nests
// Transaction calls that way.
func (r *gormTransactionalRepositories) Savepoint(ctx context.Context, fn func(repos appaddon.TransactionalRepositories) error) error {
	return r.tx.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// Ensure GormTransactionScope implements TransactionScope
var _ appaddon.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ appaddon.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
