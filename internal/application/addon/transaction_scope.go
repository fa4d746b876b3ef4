package addon

import (
	"context"

	"github.com/boxibox/backend/internal/domain/addon"
)

// TransactionScope provides transactional access to add-on repositories.
// All repository operations inside Execute commit or roll back together.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to add-on repositories within a transaction.
type TransactionalRepositories interface {
	// AddonRepo returns the recurring add-on repository scoped to the current transaction
	AddonRepo() addon.RecurringAddonRepository
	// BillingRecordRepo returns the billing ledger repository scoped to the current transaction
	BillingRecordRepo() addon.BillingRecordRepository
	// Savepoint runs fn in a nested transaction. An error rolls back only the
	// writes made by fn; the enclosing transaction stays usable.
	Savepoint(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// NoOpTransactionScope is a transaction scope that doesn't actually use transactions.
// This is useful for testing or when transaction support is not required.
type NoOpTransactionScope struct {
	addonRepo   addon.RecurringAddonRepository
	billingRepo addon.BillingRecordRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(addonRepo addon.RecurringAddonRepository, billingRepo addon.BillingRecordRepository) *NoOpTransactionScope {
	return &NoOpTransactionScope{addonRepo: addonRepo, billingRepo: billingRepo}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// AddonRepo returns the recurring add-on repository.
func (s *NoOpTransactionScope) AddonRepo() addon.RecurringAddonRepository {
	return s.addonRepo
}

// BillingRecordRepo returns the billing ledger repository.
func (s *NoOpTransactionScope) BillingRecordRepo() addon.BillingRecordRepository {
	return s.billingRepo
}

// Savepoint runs fn directly.
func (s *NoOpTransactionScope) Savepoint(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
