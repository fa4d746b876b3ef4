package addon

import (
	"context"
	"time"

	"github.com/boxibox/backend/internal/domain/addon"
	"github.com/boxibox/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockRecurringAddonRepository is a mock implementation of RecurringAddonRepository
type MockRecurringAddonRepository struct {
	mock.Mock
}

func addonsOrNil(args mock.Arguments) ([]*addon.RecurringAddon, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*addon.RecurringAddon), args.Error(1)
}

func (m *MockRecurringAddonRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*addon.RecurringAddon, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*addon.RecurringAddon), args.Error(1)
}

func (m *MockRecurringAddonRepository) FindByContract(ctx context.Context, tenantID, contractID uuid.UUID) ([]*addon.RecurringAddon, error) {
	return addonsOrNil(m.Called(ctx, tenantID, contractID))
}

func (m *MockRecurringAddonRepository) ExistsActiveForProduct(ctx context.Context, tenantID, contractID, productID uuid.UUID) (bool, error) {
	args := m.Called(ctx, tenantID, contractID, productID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRecurringAddonRepository) FindDueForBilling(ctx context.Context, tenantID uuid.UUID, asOf time.Time) ([]*addon.RecurringAddon, error) {
	return addonsOrNil(m.Called(ctx, tenantID, asOf))
}

func (m *MockRecurringAddonRepository) LockDueForContract(ctx context.Context, tenantID, contractID uuid.UUID, asOf time.Time) ([]*addon.RecurringAddon, error) {
	return addonsOrNil(m.Called(ctx, tenantID, contractID, asOf))
}

func (m *MockRecurringAddonRepository) FindContractsWithDue(ctx context.Context, tenantID uuid.UUID, asOf time.Time) ([]uuid.UUID, error) {
	args := m.Called(ctx, tenantID, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockRecurringAddonRepository) FindExpired(ctx context.Context, tenantID uuid.UUID, asOf time.Time) ([]*addon.RecurringAddon, error) {
	return addonsOrNil(m.Called(ctx, tenantID, asOf))
}

func (m *MockRecurringAddonRepository) FindActiveByTenant(ctx context.Context, tenantID uuid.UUID) ([]*addon.RecurringAddon, error) {
	return addonsOrNil(m.Called(ctx, tenantID))
}

func (m *MockRecurringAddonRepository) Create(ctx context.Context, a *addon.RecurringAddon) error {
	return m.Called(ctx, a).Error(0)
}

func (m *MockRecurringAddonRepository) Update(ctx context.Context, a *addon.RecurringAddon) error {
	return m.Called(ctx, a).Error(0)
}

func (m *MockRecurringAddonRepository) CountByStatus(ctx context.Context, tenantID uuid.UUID) (map[addon.AddonStatus]int64, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[addon.AddonStatus]int64), args.Error(1)
}

func (m *MockRecurringAddonRepository) PopularProducts(ctx context.Context, tenantID uuid.UUID, limit int) ([]addon.PopularAddon, error) {
	args := m.Called(ctx, tenantID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]addon.PopularAddon), args.Error(1)
}

// MockBillingRecordRepository is a mock implementation of BillingRecordRepository
type MockBillingRecordRepository struct {
	mock.Mock
}

func (m *MockBillingRecordRepository) Create(ctx context.Context, r *addon.BillingRecord) error {
	return m.Called(ctx, r).Error(0)
}

func (m *MockBillingRecordRepository) ExistsForCycle(ctx context.Context, addonID uuid.UUID, cycleStart time.Time) (bool, error) {
	args := m.Called(ctx, addonID, cycleStart)
	return args.Bool(0), args.Error(1)
}

func (m *MockBillingRecordRepository) FindByContract(ctx context.Context, tenantID, contractID uuid.UUID) ([]addon.BillingRecord, error) {
	args := m.Called(ctx, tenantID, contractID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]addon.BillingRecord), args.Error(1)
}

// MockProductRepository is a mock implementation of ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*addon.Product, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*addon.Product), args.Error(1)
}

// MockContractRepository is a mock implementation of ContractRepository
type MockContractRepository struct {
	mock.Mock
}

func (m *MockContractRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*addon.Contract, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*addon.Contract), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	return m.Called(ctx, events).Error(0)
}
