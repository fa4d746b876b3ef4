package event

import (
	"context"

	"github.com/boxibox/backend/internal/domain/addon"
	"github.com/boxibox/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// AddonAuditHandler writes one structured log entry per add-on lifecycle or
// billing event
type AddonAuditHandler struct {
	logger *zap.Logger
}

// NewAddonAuditHandler creates a new AddonAuditHandler
func NewAddonAuditHandler(logger *zap.Logger) *AddonAuditHandler {
	return &AddonAuditHandler{logger: logger.Named("addon_audit")}
}

// EventTypes implements shared.EventHandler
func (h *AddonAuditHandler) EventTypes() []string {
	return []string{
		addon.EventTypeAddonAttached,
		addon.EventTypeAddonPaused,
		addon.EventTypeAddonResumed,
		addon.EventTypeAddonCancelled,
		addon.EventTypeAddonExpired,
		addon.EventTypeAddonBilled,
	}
}

// Handle implements shared.EventHandler
func (h *AddonAuditHandler) Handle(_ context.Context, e shared.DomainEvent) error {
	fields := []zap.Field{
		zap.String("event_type", e.EventType()),
		zap.String("tenant_id", e.TenantID().String()),
		zap.String("addon_id", e.AggregateID().String()),
		zap.Time("occurred_at", e.OccurredAt()),
	}

	switch ev := e.(type) {
	case *addon.AddonStatusChangedEvent:
		fields = append(fields,
			zap.String("contract_id", ev.ContractID.String()),
			zap.String("status", ev.Status.String()),
		)
		if ev.Reason != "" {
			fields = append(fields, zap.String("reason", ev.Reason))
		}
	case *addon.AddonBilledEvent:
		fields = append(fields,
			zap.String("contract_id", ev.ContractID.String()),
			zap.String("period_start", ev.PeriodStart.Format("2006-01-02")),
			zap.String("total", ev.Total.StringFixed(2)),
			zap.String("next_billing_date", ev.NextBillingDate.Format("2006-01-02")),
		)
	}

	h.logger.Info("Add-on event", fields...)
	return nil
}

var _ shared.EventHandler = (*AddonAuditHandler)(nil)
