package addon

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/boxibox/backend/internal/domain/addon"
	"github.com/boxibox/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	defaultPopularLimit = 10
	maxPopularLimit     = 100
)

// AddonService manages the lifecycle and billing of recurring add-ons
type AddonService struct {
	addonRepo    addon.RecurringAddonRepository
	productRepo  addon.ProductRepository
	contractRepo addon.ContractRepository
	billingRepo  addon.BillingRecordRepository
	txScope      TransactionScope
	eventBus     shared.EventPublisher
	clock        shared.Clock
	logger       *zap.Logger
}

// NewAddonService creates a new AddonService
func NewAddonService(
	addonRepo addon.RecurringAddonRepository,
	productRepo addon.ProductRepository,
	contractRepo addon.ContractRepository,
	billingRepo addon.BillingRecordRepository,
	txScope TransactionScope,
	clock shared.Clock,
	logger *zap.Logger,
) *AddonService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AddonService{
		addonRepo:    addonRepo,
		productRepo:  productRepo,
		contractRepo: contractRepo,
		billingRepo:  billingRepo,
		txScope:      txScope,
		clock:        clock,
		logger:       logger,
	}
}

// SetEventPublisher sets the publisher used for add-on domain events
func (s *AddonService) SetEventPublisher(p shared.EventPublisher) {
	s.eventBus = p
}

func (s *AddonService) publish(ctx context.Context, addons ...*addon.RecurringAddon) {
	var events []shared.DomainEvent
	for _, a := range addons {
		events = append(events, a.PendingEvents()...)
		a.ClearEvents()
	}
	if s.eventBus == nil || len(events) == 0 {
		return
	}
	if err := s.eventBus.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish add-on events",
			zap.Int("count", len(events)),
			zap.Error(err),
		)
	}
}

func (s *AddonService) loadContract(ctx context.Context, tenantID, contractID uuid.UUID) (*addon.Contract, error) {
	contract, err := s.contractRepo.FindByIDForTenant(ctx, tenantID, contractID)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, shared.NewNotFoundError("Contract")
		}
		return nil, err
	}
	return contract, nil
}

func (s *AddonService) loadAddon(ctx context.Context, tenantID, addonID uuid.UUID) (*addon.RecurringAddon, error) {
	a, err := s.addonRepo.FindByIDForTenant(ctx, tenantID, addonID)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, shared.NewNotFoundError("Add-on")
		}
		return nil, err
	}
	return a, nil
}

// Attach attaches a recurring product to a contract
func (s *AddonService) Attach(ctx context.Context, tenantID, contractID uuid.UUID, req AttachAddonRequest) (*AddonResponse, error) {
	contract, err := s.loadContract(ctx, tenantID, contractID)
	if err != nil {
		return nil, err
	}
	product, err := s.productRepo.FindByIDForTenant(ctx, tenantID, req.ProductID)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, shared.NewNotFoundError("Product")
		}
		return nil, err
	}

	a, err := addon.NewRecurringAddon(contract, product, addon.AttachOptions{
		Quantity:      req.Quantity,
		UnitPrice:     req.UnitPrice,
		TaxRate:       req.TaxRate,
		BillingPeriod: addon.BillingPeriod(req.BillingPeriod),
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		Notes:         req.Notes,
	}, s.clock.Now())
	if err != nil {
		return nil, err
	}

	exists, err := s.addonRepo.ExistsActiveForProduct(ctx, tenantID, contractID, product.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, duplicateAddonError(product.Name)
	}

	if err := s.addonRepo.Create(ctx, a); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil, duplicateAddonError(product.Name)
		}
		return nil, err
	}

	s.logger.Info("Attached recurring add-on",
		zap.String("tenant_id", tenantID.String()),
		zap.String("contract_id", contractID.String()),
		zap.String("addon_id", a.ID.String()),
		zap.String("product_id", product.ID.String()),
	)
	s.publish(ctx, a)

	resp := ToAddonResponse(a)
	return &resp, nil
}

func duplicateAddonError(productName string) error {
	return shared.NewValidationError("DUPLICATE_ADDON", fmt.Sprintf("Contract already has an active %s add-on", productName))
}

// GetByID returns one add-on
func (s *AddonService) GetByID(ctx context.Context, tenantID, addonID uuid.UUID) (*AddonResponse, error) {
	a, err := s.loadAddon(ctx, tenantID, addonID)
	if err != nil {
		return nil, err
	}
	resp := ToAddonResponse(a)
	return &resp, nil
}

// ListByContract returns every add-on of a contract, terminal ones included
func (s *AddonService) ListByContract(ctx context.Context, tenantID, contractID uuid.UUID) ([]AddonResponse, error) {
	if _, err := s.loadContract(ctx, tenantID, contractID); err != nil {
		return nil, err
	}
	addons, err := s.addonRepo.FindByContract(ctx, tenantID, contractID)
	if err != nil {
		return nil, err
	}
	return ToAddonResponses(addons), nil
}

func (s *AddonService) mutate(ctx context.Context, tenantID, addonID uuid.UUID, fn func(a *addon.RecurringAddon, now time.Time) error) (*AddonResponse, error) {
	a, err := s.loadAddon(ctx, tenantID, addonID)
	if err != nil {
		return nil, err
	}
	if err := fn(a, s.clock.Now()); err != nil {
		return nil, err
	}
	if err := s.addonRepo.Update(ctx, a); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil, duplicateAddonError(a.ProductName)
		}
		return nil, err
	}
	s.publish(ctx, a)
	resp := ToAddonResponse(a)
	return &resp, nil
}

// Pause excludes an active add-on from billing
func (s *AddonService) Pause(ctx context.Context, tenantID, addonID uuid.UUID) (*AddonResponse, error) {
	return s.mutate(ctx, tenantID, addonID, func(a *addon.RecurringAddon, now time.Time) error {
		return a.Pause(now)
	})
}

// Resume re-includes a paused add-on in billing
func (s *AddonService) Resume(ctx context.Context, tenantID, addonID uuid.UUID) (*AddonResponse, error) {
	return s.mutate(ctx, tenantID, addonID, func(a *addon.RecurringAddon, now time.Time) error {
		if err := a.Resume(now); err != nil {
			return err
		}
		// Another add-on of the product may have been attached while this one was paused
		exists, err := s.addonRepo.ExistsActiveForProduct(ctx, a.TenantID, a.ContractID, a.ProductID)
		if err != nil {
			return err
		}
		if exists {
			return duplicateAddonError(a.ProductName)
		}
		return nil
	})
}

// Cancel terminates an add-on
func (s *AddonService) Cancel(ctx context.Context, tenantID, addonID uuid.UUID, reason string) (*AddonResponse, error) {
	return s.mutate(ctx, tenantID, addonID, func(a *addon.RecurringAddon, now time.Time) error {
		return a.Cancel(reason, now)
	})
}

// bulk applies fn to the add-ons of the contract chosen by pick, in one transaction
func (s *AddonService) bulk(
	ctx context.Context,
	tenantID, contractID uuid.UUID,
	pick func(addons []*addon.RecurringAddon) (chosen []*addon.RecurringAddon, skipped int),
	fn func(a *addon.RecurringAddon, now time.Time) error,
) (*BulkResult, error) {
	if _, err := s.loadContract(ctx, tenantID, contractID); err != nil {
		return nil, err
	}

	var (
		changed []*addon.RecurringAddon
		skipped int
	)
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		addons, err := repos.AddonRepo().FindByContract(ctx, tenantID, contractID)
		if err != nil {
			return err
		}
		chosen, n := pick(addons)
		skipped = n
		now := s.clock.Now()
		for _, a := range chosen {
			if err := fn(a, now); err != nil {
				return err
			}
			if err := repos.AddonRepo().Update(ctx, a); err != nil {
				if errors.Is(err, shared.ErrAlreadyExists) {
					return duplicateAddonError(a.ProductName)
				}
				return err
			}
			changed = append(changed, a)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, changed...)
	return &BulkResult{ContractID: contractID, Count: len(changed), Skipped: skipped}, nil
}

func withStatus(pred func(st addon.AddonStatus) bool) func([]*addon.RecurringAddon) ([]*addon.RecurringAddon, int) {
	return func(addons []*addon.RecurringAddon) ([]*addon.RecurringAddon, int) {
		return lo.Filter(addons, func(a *addon.RecurringAddon, _ int) bool { return pred(a.Status) }), 0
	}
}

// resumable keeps at most one active add-on per product: a paused add-on is
// skipped when its product is already active on the contract or was resumed
// earlier in the same batch
func resumable(addons []*addon.RecurringAddon) ([]*addon.RecurringAddon, int) {
	taken := lo.SliceToMap(
		lo.Filter(addons, func(a *addon.RecurringAddon, _ int) bool { return a.Status == addon.AddonStatusActive }),
		func(a *addon.RecurringAddon) (uuid.UUID, struct{}) { return a.ProductID, struct{}{} },
	)
	var (
		chosen  []*addon.RecurringAddon
		skipped int
	)
	for _, a := range addons {
		if a.Status != addon.AddonStatusPaused {
			continue
		}
		if _, ok := taken[a.ProductID]; ok {
			skipped++
			continue
		}
		taken[a.ProductID] = struct{}{}
		chosen = append(chosen, a)
	}
	return chosen, skipped
}

// PauseAll pauses every active add-on of a contract
func (s *AddonService) PauseAll(ctx context.Context, tenantID, contractID uuid.UUID) (*BulkResult, error) {
	return s.bulk(ctx, tenantID, contractID,
		withStatus(func(st addon.AddonStatus) bool { return st == addon.AddonStatusActive }),
		func(a *addon.RecurringAddon, now time.Time) error { return a.Pause(now) },
	)
}

// ResumeAll resumes the contract's paused add-ons. Paused add-ons whose
// product already has an active add-on stay paused and are counted as skipped.
func (s *AddonService) ResumeAll(ctx context.Context, tenantID, contractID uuid.UUID) (*BulkResult, error) {
	return s.bulk(ctx, tenantID, contractID, resumable,
		func(a *addon.RecurringAddon, now time.Time) error { return a.Resume(now) },
	)
}

// CancelAll cancels every active or paused add-on of a contract
func (s *AddonService) CancelAll(ctx context.Context, tenantID, contractID uuid.UUID, reason string) (*BulkResult, error) {
	return s.bulk(ctx, tenantID, contractID,
		withStatus(func(st addon.AddonStatus) bool { return !st.IsTerminal() }),
		func(a *addon.RecurringAddon, now time.Time) error { return a.Cancel(reason, now) },
	)
}

// MonthlyRecurring returns the contract's active add-on revenue, excl. tax
func (s *AddonService) MonthlyRecurring(ctx context.Context, tenantID, contractID uuid.UUID) (*MonthlyRecurringResponse, error) {
	contract, err := s.loadContract(ctx, tenantID, contractID)
	if err != nil {
		return nil, err
	}
	addons, err := s.addonRepo.FindByContract(ctx, tenantID, contractID)
	if err != nil {
		return nil, err
	}
	billable := addon.BillableContract{Contract: *contract, Addons: addons}
	activeCount := lo.CountBy(addons, func(a *addon.RecurringAddon) bool {
		return a.Status == addon.AddonStatusActive
	})
	return &MonthlyRecurringResponse{
		ContractID:  contractID,
		Amount:      billable.MonthlyRecurring(),
		ActiveCount: activeCount,
	}, nil
}

// DueForBilling lists active add-ons with a cycle due on or before asOf.
// Calling it any number of times without emitting returns the same set.
func (s *AddonService) DueForBilling(ctx context.Context, tenantID uuid.UUID, asOf time.Time) ([]AddonResponse, error) {
	addons, err := s.addonRepo.FindDueForBilling(ctx, tenantID, shared.DateOf(asOf))
	if err != nil {
		return nil, err
	}
	return ToAddonResponses(addons), nil
}

// EmitInvoiceItems emits one line item per due add-on of the contract and
// advances each billed add-on by one period. The selection is locked for the
// transaction, and each add-on's ledger insert and date advance commit
// together; an add-on that fails is logged and left untouched.
func (s *AddonService) EmitInvoiceItems(ctx context.Context, tenantID, contractID uuid.UUID, asOf time.Time) (*EmissionResult, error) {
	if _, err := s.loadContract(ctx, tenantID, contractID); err != nil {
		return nil, err
	}
	asOf = shared.DateOf(asOf)
	result := &EmissionResult{ContractID: contractID, AsOf: asOf, Items: []addon.LineItem{}}

	var billed []*addon.RecurringAddon
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		due, err := repos.AddonRepo().LockDueForContract(ctx, tenantID, contractID, asOf)
		if err != nil {
			return fmt.Errorf("lock due add-ons: %w", err)
		}

		for _, a := range due {
			var item addon.LineItem
			err := repos.Savepoint(ctx, func(sp TransactionalRepositories) error {
				now := s.clock.Now()
				var err error
				item, err = a.Bill(asOf, now)
				if err != nil {
					return err
				}
				if err := sp.BillingRecordRepo().Create(ctx, addon.NewBillingRecord(tenantID, item, now)); err != nil {
					return fmt.Errorf("record billing cycle: %w", err)
				}
				return sp.AddonRepo().Update(ctx, a)
			})
			if err != nil {
				s.logger.Error("Failed to emit add-on line item",
					zap.String("tenant_id", tenantID.String()),
					zap.String("contract_id", contractID.String()),
					zap.String("addon_id", a.ID.String()),
					zap.Error(err),
				)
				a.ClearEvents()
				result.Skipped++
				continue
			}
			result.Items = append(result.Items, item)
			billed = append(billed, a)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.Emitted = len(result.Items)
	s.publish(ctx, billed...)
	return result, nil
}

// BillingSweep emits the due cycles of every contract of the tenant. A
// contract that fails is logged and counted; the sweep carries on.
func (s *AddonService) BillingSweep(ctx context.Context, tenantID uuid.UUID, asOf time.Time) (*BillingSweepResult, error) {
	asOf = shared.DateOf(asOf)
	result := &BillingSweepResult{TenantID: tenantID, AsOf: asOf, Results: []EmissionResult{}}

	contracts, err := s.addonRepo.FindContractsWithDue(ctx, tenantID, asOf)
	if err != nil {
		s.logger.Error("Failed to find contracts with due add-ons",
			zap.String("tenant_id", tenantID.String()),
			zap.Error(err),
		)
		return nil, err
	}
	result.Contracts = len(contracts)

	for _, contractID := range contracts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		emission, err := s.EmitInvoiceItems(ctx, tenantID, contractID, asOf)
		if err != nil {
			s.logger.Error("Failed to bill contract add-ons",
				zap.String("tenant_id", tenantID.String()),
				zap.String("contract_id", contractID.String()),
				zap.Error(err),
			)
			result.FailedContracts++
			continue
		}
		result.Emitted += emission.Emitted
		result.Skipped += emission.Skipped
		if emission.Emitted > 0 || emission.Skipped > 0 {
			result.Results = append(result.Results, *emission)
		}
	}

	result.ProcessedAt = s.clock.Now()
	s.logger.Info("Completed add-on billing sweep",
		zap.String("tenant_id", tenantID.String()),
		zap.String("as_of", asOf.Format(time.DateOnly)),
		zap.Int("contracts", result.Contracts),
		zap.Int("emitted", result.Emitted),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed_contracts", result.FailedContracts),
	)
	return result, nil
}

// ExpirySweep moves active add-ons past their end date into expired. Already
// expired add-ons are not selected, so re-running is harmless.
func (s *AddonService) ExpirySweep(ctx context.Context, tenantID uuid.UUID, asOf time.Time) (*ExpirySweepResult, error) {
	asOf = shared.DateOf(asOf)
	result := &ExpirySweepResult{TenantID: tenantID, AsOf: asOf}

	expired, err := s.addonRepo.FindExpired(ctx, tenantID, asOf)
	if err != nil {
		s.logger.Error("Failed to find expired add-ons",
			zap.String("tenant_id", tenantID.String()),
			zap.Error(err),
		)
		return nil, err
	}
	result.Total = len(expired)

	for _, a := range expired {
		if err := a.Expire(asOf, s.clock.Now()); err != nil {
			s.logger.Error("Failed to expire add-on",
				zap.String("tenant_id", tenantID.String()),
				zap.String("addon_id", a.ID.String()),
				zap.Error(err),
			)
			result.Failed++
			continue
		}
		if err := s.addonRepo.Update(ctx, a); err != nil {
			s.logger.Error("Failed to persist expired add-on",
				zap.String("tenant_id", tenantID.String()),
				zap.String("addon_id", a.ID.String()),
				zap.Error(err),
			)
			a.ClearEvents()
			result.Failed++
			continue
		}
		result.Expired++
		s.publish(ctx, a)
	}

	result.ProcessedAt = s.clock.Now()
	if result.Total > 0 {
		s.logger.Info("Completed add-on expiry sweep",
			zap.String("tenant_id", tenantID.String()),
			zap.Int("total", result.Total),
			zap.Int("expired", result.Expired),
			zap.Int("failed", result.Failed),
		)
	}
	return result, nil
}

// Statistics summarizes the tenant's add-ons for reporting
func (s *AddonService) Statistics(ctx context.Context, tenantID uuid.UUID) (*AddonStatistics, error) {
	counts, err := s.addonRepo.CountByStatus(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	active, err := s.addonRepo.FindActiveByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	mrr := lo.Reduce(active, func(sum decimal.Decimal, a *addon.RecurringAddon, _ int) decimal.Decimal {
		return sum.Add(a.MonthlyAmount())
	}, decimal.Zero)
	products := lo.Uniq(lo.Map(active, func(a *addon.RecurringAddon, _ int) uuid.UUID { return a.ProductID }))

	stats := &AddonStatistics{
		Active:                  counts[addon.AddonStatusActive],
		Paused:                  counts[addon.AddonStatusPaused],
		Cancelled:               counts[addon.AddonStatusCancelled],
		Expired:                 counts[addon.AddonStatusExpired],
		MonthlyRecurringRevenue: mrr,
		UniqueProducts:          len(products),
	}
	stats.Total = stats.Active + stats.Paused + stats.Cancelled + stats.Expired
	return stats, nil
}

// PopularAddons ranks products by active usage; limit defaults to 10
func (s *AddonService) PopularAddons(ctx context.Context, tenantID uuid.UUID, limit int) ([]addon.PopularAddon, error) {
	if limit <= 0 {
		limit = defaultPopularLimit
	}
	if limit > maxPopularLimit {
		limit = maxPopularLimit
	}
	return s.addonRepo.PopularProducts(ctx, tenantID, limit)
}

// BillingHistory lists the cycles emitted for a contract
func (s *AddonService) BillingHistory(ctx context.Context, tenantID, contractID uuid.UUID) ([]addon.BillingRecord, error) {
	if _, err := s.loadContract(ctx, tenantID, contractID); err != nil {
		return nil, err
	}
	return s.billingRepo.FindByContract(ctx, tenantID, contractID)
}
