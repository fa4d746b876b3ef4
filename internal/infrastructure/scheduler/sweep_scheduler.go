package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	appaddon "github.com/boxibox/backend/internal/application/addon"
	"github.com/boxibox/backend/internal/domain/addon"
	"github.com/boxibox/backend/internal/domain/shared"
	"github.com/boxibox/backend/internal/infrastructure/lock"
	"github.com/boxibox/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/sourcegraph/conc/pool"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ErrInvalidConfig is returned by Validate and Start for a bad configuration
var ErrInvalidConfig = errors.New("invalid scheduler configuration")

// SweepRunner runs the per-tenant add-on sweeps
type SweepRunner interface {
	ExpirySweep(ctx context.Context, tenantID uuid.UUID, asOf time.Time) (*appaddon.ExpirySweepResult, error)
	BillingSweep(ctx context.Context, tenantID uuid.UUID, asOf time.Time) (*appaddon.BillingSweepResult, error)
}

// SweepSchedulerConfig holds configuration for the add-on sweep scheduler
type SweepSchedulerConfig struct {
	// Enabled indicates if the cron entry is registered on Start
	Enabled bool
	// Schedule is a standard 5-field cron expression
	Schedule string
	// MaxConcurrentTenants bounds how many tenants are swept at once
	MaxConcurrentTenants int
	// LockTTL is how long a tenant sweep lease is held at most
	LockTTL time.Duration
	// SweepTimeout bounds one tenant's expiry and billing sweep
	SweepTimeout time.Duration
	// Location is the timezone of the cron schedule and of "today"
	Location *time.Location
}

// DefaultSweepSchedulerConfig returns default configuration: daily at 3:00 UTC
func DefaultSweepSchedulerConfig() SweepSchedulerConfig {
	return SweepSchedulerConfig{
		Enabled:              true,
		Schedule:             "0 3 * * *",
		MaxConcurrentTenants: 4,
		LockTTL:              30 * time.Minute,
		SweepTimeout:         10 * time.Minute,
		Location:             time.UTC,
	}
}

// Validate checks the configuration
func (c SweepSchedulerConfig) Validate() error {
	if _, err := cron.ParseStandard(c.Schedule); err != nil {
		return fmt.Errorf("%w: schedule %q: %v", ErrInvalidConfig, c.Schedule, err)
	}
	if c.MaxConcurrentTenants < 1 {
		return fmt.Errorf("%w: max concurrent tenants must be at least 1", ErrInvalidConfig)
	}
	if c.LockTTL <= 0 || c.SweepTimeout <= 0 {
		return fmt.Errorf("%w: lock ttl and sweep timeout must be positive", ErrInvalidConfig)
	}
	return nil
}

// TenantSweepResult is the outcome of one tenant's sweeps
type TenantSweepResult struct {
	TenantID uuid.UUID                    `json:"tenant_id"`
	Locked   bool                         `json:"locked"`
	Expiry   *appaddon.ExpirySweepResult  `json:"expiry,omitempty"`
	Billing  *appaddon.BillingSweepResult `json:"billing,omitempty"`
	Error    string                       `json:"error,omitempty"`
}

// SweepReport summarizes one run over every tenant
type SweepReport struct {
	AsOf       time.Time           `json:"as_of"`
	StartedAt  time.Time           `json:"started_at"`
	FinishedAt time.Time           `json:"finished_at"`
	Tenants    int                 `json:"tenants"`
	Locked     int                 `json:"locked"`
	Failed     int                 `json:"failed"`
	Expired    int                 `json:"expired"`
	Emitted    int                 `json:"emitted"`
	Results    []TenantSweepResult `json:"results"`
}

// SweepScheduler runs the expiry and billing sweeps for every tenant on a
// cron schedule. Each tenant is swept under a lease so two instances, or an
// overlapping manual run, never sweep the same tenant at once.
type SweepScheduler struct {
	config  SweepSchedulerConfig
	runner  SweepRunner
	tenants addon.TenantLister
	locker  lock.Locker
	clock   shared.Clock
	logger  *zap.Logger

	mu         sync.Mutex
	cron       *cron.Cron
	entryID    cron.EntryID
	cancel     context.CancelFunc
	lastReport *SweepReport
}

// NewSweepScheduler creates a new sweep scheduler
func NewSweepScheduler(
	config SweepSchedulerConfig,
	runner SweepRunner,
	tenants addon.TenantLister,
	locker lock.Locker,
	clock shared.Clock,
	logger *zap.Logger,
) *SweepScheduler {
	if config.Location == nil {
		config.Location = time.UTC
	}
	if locker == nil {
		locker = lock.NewLocalLocker()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SweepScheduler{
		config:  config,
		runner:  runner,
		tenants: tenants,
		locker:  locker,
		clock:   clock,
		logger:  logger.Named("sweep_scheduler"),
	}
}

// Start registers the cron entry and starts the cron runner
func (s *SweepScheduler) Start(ctx context.Context) error {
	if !s.config.Enabled {
		s.logger.Info("Add-on sweep scheduler disabled")
		return nil
	}
	if err := s.config.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	cronLog := cronLogger{s.logger.Sugar()}
	c := cron.New(
		cron.WithLocation(s.config.Location),
		cron.WithLogger(cronLog),
		cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
	)
	id, err := c.AddFunc(s.config.Schedule, func() {
		if _, err := s.RunOnce(ctx, s.Today()); err != nil {
			s.logger.Error("Scheduled add-on sweep failed", zap.Error(err))
		}
	})
	if err != nil {
		cancel()
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	c.Start()

	s.cron, s.entryID, s.cancel = c, id, cancel
	s.logger.Info("Add-on sweep scheduler started",
		zap.String("schedule", s.config.Schedule),
		zap.String("timezone", s.config.Location.String()),
		zap.Time("next_run_at", c.Entry(id).Next),
	)
	return nil
}

// Stop stops the cron runner and waits for a running sweep to finish or ctx
// to expire
func (s *SweepScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	c, cancel := s.cron, s.cancel
	s.cron, s.cancel = nil, nil
	s.mu.Unlock()

	if c == nil {
		return nil
	}
	done := c.Stop()
	select {
	case <-done.Done():
		cancel()
		s.logger.Info("Add-on sweep scheduler stopped")
		return nil
	case <-ctx.Done():
		cancel()
		s.logger.Warn("Add-on sweep scheduler stop timed out")
		return ctx.Err()
	}
}

// Today is the current calendar date in the scheduler's timezone
func (s *SweepScheduler) Today() time.Time {
	y, m, d := s.clock.Now().In(s.config.Location).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// RunOnce sweeps every tenant owning add-ons for asOf. Expired add-ons are
// settled before billing so they are not billed again. A tenant failure is
// logged and reported; the other tenants carry on.
func (s *SweepScheduler) RunOnce(ctx context.Context, asOf time.Time) (*SweepReport, error) {
	ctx, span := telemetry.StartSpan(ctx, "addon.sweep",
		attribute.String(telemetry.AttrAsOf, shared.DateOf(asOf).Format(time.DateOnly)),
	)
	defer span.End()

	tenantIDs, err := s.tenants.ListTenantsWithAddons(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("list tenants: %w", err)
	}

	report := &SweepReport{
		AsOf:      shared.DateOf(asOf),
		StartedAt: s.clock.Now(),
		Tenants:   len(tenantIDs),
	}
	s.logger.Info("Starting add-on sweep",
		zap.String("as_of", report.AsOf.Format(time.DateOnly)),
		zap.Int("tenants", len(tenantIDs)),
	)

	p := pool.NewWithResults[TenantSweepResult]().WithMaxGoroutines(max(1, s.config.MaxConcurrentTenants))
	for _, tenantID := range tenantIDs {
		p.Go(func() TenantSweepResult {
			return s.sweepTenant(ctx, tenantID, report.AsOf)
		})
	}
	report.Results = p.Wait()
	sort.Slice(report.Results, func(i, j int) bool {
		return report.Results[i].TenantID.String() < report.Results[j].TenantID.String()
	})

	for _, r := range report.Results {
		switch {
		case r.Locked:
			report.Locked++
		case r.Error != "":
			report.Failed++
		}
		if r.Expiry != nil {
			report.Expired += r.Expiry.Expired
		}
		if r.Billing != nil {
			report.Emitted += r.Billing.Emitted
		}
	}
	report.FinishedAt = s.clock.Now()
	span.SetAttributes(
		attribute.Int("tenants", report.Tenants),
		attribute.Int("failed", report.Failed),
		attribute.Int("emitted", report.Emitted),
	)

	s.mu.Lock()
	s.lastReport = report
	s.mu.Unlock()

	s.logger.Info("Completed add-on sweep",
		zap.String("as_of", report.AsOf.Format(time.DateOnly)),
		zap.Int("tenants", report.Tenants),
		zap.Int("locked", report.Locked),
		zap.Int("failed", report.Failed),
		zap.Int("expired", report.Expired),
		zap.Int("emitted", report.Emitted),
	)
	return report, nil
}

func (s *SweepScheduler) sweepTenant(ctx context.Context, tenantID uuid.UUID, asOf time.Time) (result TenantSweepResult) {
	ctx, span := telemetry.StartSpan(ctx, "addon.sweep_tenant",
		attribute.String(telemetry.AttrTenantID, tenantID.String()),
	)
	defer func() {
		span.SetAttributes(attribute.Bool("locked", result.Locked))
		if result.Error != "" {
			telemetry.RecordError(span, errors.New(result.Error))
		}
		span.End()
	}()

	result = TenantSweepResult{TenantID: tenantID}
	log := s.logger.With(zap.String("tenant_id", tenantID.String()))

	lease, err := s.locker.TryAcquire(ctx, "addon-sweep:"+tenantID.String(), s.config.LockTTL)
	if err != nil {
		log.Error("Failed to acquire sweep lock", zap.Error(err))
		result.Error = err.Error()
		return result
	}
	if lease == nil {
		log.Info("Sweep already running elsewhere, skipping tenant")
		result.Locked = true
		return result
	}
	defer func() {
		if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
			log.Warn("Failed to release sweep lock", zap.Error(err))
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, s.config.SweepTimeout)
	defer cancel()

	result.Expiry, err = s.runner.ExpirySweep(ctx, tenantID, asOf)
	if err != nil {
		log.Error("Add-on expiry sweep failed", zap.Error(err))
		result.Error = err.Error()
		return result
	}
	result.Billing, err = s.runner.BillingSweep(ctx, tenantID, asOf)
	if err != nil {
		log.Error("Add-on billing sweep failed", zap.Error(err))
		result.Error = err.Error()
	}
	return result
}

// Status returns the current state of the scheduler
func (s *SweepScheduler) Status() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := map[string]any{
		"enabled":     s.config.Enabled,
		"is_running":  s.cron != nil,
		"schedule":    s.config.Schedule,
		"timezone":    s.config.Location.String(),
		"last_report": s.lastReport,
	}
	if s.cron != nil {
		status["next_run_at"] = s.cron.Entry(s.entryID).Next
	}
	return status
}

// LastReport returns the report of the most recent run, or nil
func (s *SweepScheduler) LastReport() *SweepReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastReport
}

// cronLogger adapts zap to cron.Logger
type cronLogger struct {
	l *zap.SugaredLogger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debugw(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Errorw(msg, append(keysAndValues, "error", err)...)
}
