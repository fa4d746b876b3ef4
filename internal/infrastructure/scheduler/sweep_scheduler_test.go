package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	appaddon "github.com/boxibox/backend/internal/application/addon"
	"github.com/boxibox/backend/internal/domain/shared"
	"github.com/boxibox/backend/internal/infrastructure/lock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type MockSweepRunner struct {
	mock.Mock
}

func (m *MockSweepRunner) ExpirySweep(ctx context.Context, tenantID uuid.UUID, asOf time.Time) (*appaddon.ExpirySweepResult, error) {
	args := m.Called(ctx, tenantID, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appaddon.ExpirySweepResult), args.Error(1)
}

func (m *MockSweepRunner) BillingSweep(ctx context.Context, tenantID uuid.UUID, asOf time.Time) (*appaddon.BillingSweepResult, error) {
	args := m.Called(ctx, tenantID, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appaddon.BillingSweepResult), args.Error(1)
}

type staticTenants struct {
	ids []uuid.UUID
	err error
}

func (s staticTenants) ListTenantsWithAddons(context.Context) ([]uuid.UUID, error) {
	return s.ids, s.err
}

func testConfig() SweepSchedulerConfig {
	cfg := DefaultSweepSchedulerConfig()
	cfg.MaxConcurrentTenants = 2
	return cfg
}

func TestSweepSchedulerConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultSweepSchedulerConfig().Validate())

	bad := DefaultSweepSchedulerConfig()
	bad.Schedule = "every day"
	assert.ErrorIs(t, bad.Validate(), ErrInvalidConfig)

	bad = DefaultSweepSchedulerConfig()
	bad.MaxConcurrentTenants = 0
	assert.ErrorIs(t, bad.Validate(), ErrInvalidConfig)

	bad = DefaultSweepSchedulerConfig()
	bad.LockTTL = 0
	assert.ErrorIs(t, bad.Validate(), ErrInvalidConfig)
}

func TestSweepScheduler_Today(t *testing.T) {
	clock := shared.NewFixedClock(time.Date(2024, 3, 15, 23, 30, 0, 0, time.UTC))

	cfg := testConfig()
	s := NewSweepScheduler(cfg, nil, staticTenants{}, nil, clock, nil)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), s.Today())

	paris, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)
	cfg.Location = paris
	s = NewSweepScheduler(cfg, nil, staticTenants{}, nil, clock, nil)
	assert.Equal(t, time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC), s.Today())
}

func TestSweepScheduler_RunOnce(t *testing.T) {
	ctx := context.Background()
	asOf := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	clock := shared.NewFixedClock(asOf.Add(3 * time.Hour))

	t.Run("expires then bills every tenant", func(t *testing.T) {
		a, b := uuid.New(), uuid.New()
		runner := new(MockSweepRunner)
		var order []string
		var mu sync.Mutex
		record := func(step string) func(mock.Arguments) {
			return func(args mock.Arguments) {
				mu.Lock()
				defer mu.Unlock()
				order = append(order, args.Get(1).(uuid.UUID).String()+":"+step)
			}
		}
		for _, id := range []uuid.UUID{a, b} {
			runner.On("ExpirySweep", mock.Anything, id, asOf).Run(record("expiry")).
				Return(&appaddon.ExpirySweepResult{TenantID: id, Expired: 1}, nil).Once()
			runner.On("BillingSweep", mock.Anything, id, asOf).Run(record("billing")).
				Return(&appaddon.BillingSweepResult{TenantID: id, Emitted: 3}, nil).Once()
		}

		s := NewSweepScheduler(testConfig(), runner, staticTenants{ids: []uuid.UUID{a, b}}, lock.NewLocalLocker(), clock, zap.NewNop())
		report, err := s.RunOnce(ctx, asOf)
		require.NoError(t, err)

		assert.Equal(t, 2, report.Tenants)
		assert.Equal(t, 2, report.Expired)
		assert.Equal(t, 6, report.Emitted)
		assert.Equal(t, 0, report.Failed)
		assert.Len(t, report.Results, 2)
		assert.Same(t, report, s.LastReport())
		runner.AssertExpectations(t)

		for _, id := range []uuid.UUID{a, b} {
			expiry := indexOf(order, id.String()+":expiry")
			billing := indexOf(order, id.String()+":billing")
			assert.Less(t, expiry, billing)
		}
	})

	t.Run("tenant failure does not stop the others", func(t *testing.T) {
		bad, good := uuid.New(), uuid.New()
		runner := new(MockSweepRunner)
		runner.On("ExpirySweep", mock.Anything, bad, asOf).Return(nil, errors.New("db down"))
		runner.On("ExpirySweep", mock.Anything, good, asOf).Return(&appaddon.ExpirySweepResult{}, nil)
		runner.On("BillingSweep", mock.Anything, good, asOf).Return(&appaddon.BillingSweepResult{Emitted: 2}, nil)

		core, logs := observer.New(zap.ErrorLevel)
		s := NewSweepScheduler(testConfig(), runner, staticTenants{ids: []uuid.UUID{bad, good}}, nil, clock, zap.New(core))
		report, err := s.RunOnce(ctx, asOf)
		require.NoError(t, err)

		assert.Equal(t, 1, report.Failed)
		assert.Equal(t, 2, report.Emitted)
		runner.AssertNotCalled(t, "BillingSweep", mock.Anything, bad, asOf)
		require.Equal(t, 1, logs.FilterMessage("Add-on expiry sweep failed").Len())
		assert.Equal(t, bad.String(), logs.FilterMessage("Add-on expiry sweep failed").All()[0].ContextMap()["tenant_id"])
	})

	t.Run("locked tenant is skipped", func(t *testing.T) {
		busy := uuid.New()
		locker := lock.NewLocalLocker()
		lease, err := locker.TryAcquire(ctx, "addon-sweep:"+busy.String(), time.Hour)
		require.NoError(t, err)
		require.NotNil(t, lease)

		runner := new(MockSweepRunner)
		s := NewSweepScheduler(testConfig(), runner, staticTenants{ids: []uuid.UUID{busy}}, locker, clock, nil)
		report, err := s.RunOnce(ctx, asOf)
		require.NoError(t, err)

		assert.Equal(t, 1, report.Locked)
		assert.True(t, report.Results[0].Locked)
		runner.AssertNotCalled(t, "ExpirySweep", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("lease is released after the sweep", func(t *testing.T) {
		id := uuid.New()
		locker := lock.NewLocalLocker()
		runner := new(MockSweepRunner)
		runner.On("ExpirySweep", mock.Anything, id, asOf).Return(&appaddon.ExpirySweepResult{}, nil)
		runner.On("BillingSweep", mock.Anything, id, asOf).Return(&appaddon.BillingSweepResult{}, nil)

		s := NewSweepScheduler(testConfig(), runner, staticTenants{ids: []uuid.UUID{id}}, locker, clock, nil)
		_, err := s.RunOnce(ctx, asOf)
		require.NoError(t, err)

		lease, err := locker.TryAcquire(ctx, "addon-sweep:"+id.String(), time.Minute)
		require.NoError(t, err)
		assert.NotNil(t, lease)
	})

	t.Run("tenant listing failure aborts the run", func(t *testing.T) {
		s := NewSweepScheduler(testConfig(), new(MockSweepRunner), staticTenants{err: errors.New("db down")}, nil, clock, nil)
		_, err := s.RunOnce(ctx, asOf)
		assert.Error(t, err)
		assert.Nil(t, s.LastReport())
	})

	t.Run("bounds concurrent tenants", func(t *testing.T) {
		ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New(), uuid.New(), uuid.New()}
		var inflight, peak atomic.Int32
		runner := new(MockSweepRunner)
		runner.On("ExpirySweep", mock.Anything, mock.Anything, asOf).Run(func(mock.Arguments) {
			n := inflight.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(20 * time.Millisecond)
			inflight.Add(-1)
		}).Return(&appaddon.ExpirySweepResult{}, nil)
		runner.On("BillingSweep", mock.Anything, mock.Anything, asOf).Return(&appaddon.BillingSweepResult{}, nil)

		s := NewSweepScheduler(testConfig(), runner, staticTenants{ids: ids}, nil, clock, nil)
		report, err := s.RunOnce(ctx, asOf)
		require.NoError(t, err)
		assert.Len(t, report.Results, len(ids))
		assert.LessOrEqual(t, peak.Load(), int32(2))
	})
}

func TestSweepScheduler_StartStop(t *testing.T) {
	clock := shared.NewFixedClock(time.Date(2024, 3, 15, 1, 0, 0, 0, time.UTC))

	t.Run("disabled scheduler does not start", func(t *testing.T) {
		cfg := testConfig()
		cfg.Enabled = false
		s := NewSweepScheduler(cfg, nil, staticTenants{}, nil, clock, nil)
		require.NoError(t, s.Start(context.Background()))
		assert.Equal(t, false, s.Status()["is_running"])
	})

	t.Run("invalid schedule is rejected", func(t *testing.T) {
		cfg := testConfig()
		cfg.Schedule = "61 * * * *"
		s := NewSweepScheduler(cfg, nil, staticTenants{}, nil, clock, nil)
		assert.ErrorIs(t, s.Start(context.Background()), ErrInvalidConfig)
	})

	t.Run("starts and stops", func(t *testing.T) {
		s := NewSweepScheduler(testConfig(), new(MockSweepRunner), staticTenants{}, nil, clock, nil)
		require.NoError(t, s.Start(context.Background()))
		status := s.Status()
		assert.Equal(t, true, status["is_running"])
		assert.Contains(t, status, "next_run_at")

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		require.NoError(t, s.Stop(ctx))
		assert.Equal(t, false, s.Status()["is_running"])
		assert.NoError(t, s.Stop(ctx))
	})
}

func indexOf(items []string, want string) int {
	for i, item := range items {
		if item == want {
			return i
		}
	}
	return -1
}

func TestSweepScheduler_RunOnceSpans(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})

	asOf := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	ok, bad := uuid.New(), uuid.New()
	runner := new(MockSweepRunner)
	runner.On("ExpirySweep", mock.Anything, ok, asOf).Return(&appaddon.ExpirySweepResult{TenantID: ok}, nil)
	runner.On("BillingSweep", mock.Anything, ok, asOf).Return(&appaddon.BillingSweepResult{TenantID: ok, Emitted: 1}, nil)
	runner.On("ExpirySweep", mock.Anything, bad, asOf).Return(nil, errors.New("db down"))

	s := NewSweepScheduler(testConfig(), runner, staticTenants{ids: []uuid.UUID{ok, bad}}, nil, shared.NewFixedClock(asOf), zap.NewNop())
	_, err := s.RunOnce(context.Background(), asOf)
	require.NoError(t, err)

	byName := map[string][]sdktrace.ReadOnlySpan{}
	for _, span := range rec.Ended() {
		byName[span.Name()] = append(byName[span.Name()], span)
	}
	require.Len(t, byName["addon.sweep"], 1)
	require.Len(t, byName["addon.sweep_tenant"], 2)

	root := byName["addon.sweep"][0]
	failed := 0
	for _, span := range byName["addon.sweep_tenant"] {
		assert.Equal(t, root.SpanContext().SpanID(), span.Parent().SpanID())
		if span.Status().Code == codes.Error {
			failed++
			assert.Contains(t, span.Attributes(), attribute.String("tenant_id", bad.String()))
		}
	}
	assert.Equal(t, 1, failed)
}
