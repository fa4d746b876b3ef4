package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	appaddon "github.com/boxibox/backend/internal/application/addon"
	"github.com/boxibox/backend/internal/domain/addon"
	"github.com/boxibox/backend/internal/domain/shared"
	"github.com/boxibox/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// AddonUseCases is the recurring add-on application service used by AddonHandler
type AddonUseCases interface {
	Attach(ctx context.Context, tenantID, contractID uuid.UUID, req appaddon.AttachAddonRequest) (*appaddon.AddonResponse, error)
	GetByID(ctx context.Context, tenantID, addonID uuid.UUID) (*appaddon.AddonResponse, error)
	ListByContract(ctx context.Context, tenantID, contractID uuid.UUID) ([]appaddon.AddonResponse, error)
	Pause(ctx context.Context, tenantID, addonID uuid.UUID) (*appaddon.AddonResponse, error)
	Resume(ctx context.Context, tenantID, addonID uuid.UUID) (*appaddon.AddonResponse, error)
	Cancel(ctx context.Context, tenantID, addonID uuid.UUID, reason string) (*appaddon.AddonResponse, error)
	PauseAll(ctx context.Context, tenantID, contractID uuid.UUID) (*appaddon.BulkResult, error)
	ResumeAll(ctx context.Context, tenantID, contractID uuid.UUID) (*appaddon.BulkResult, error)
	CancelAll(ctx context.Context, tenantID, contractID uuid.UUID, reason string) (*appaddon.BulkResult, error)
	MonthlyRecurring(ctx context.Context, tenantID, contractID uuid.UUID) (*appaddon.MonthlyRecurringResponse, error)
	DueForBilling(ctx context.Context, tenantID uuid.UUID, asOf time.Time) ([]appaddon.AddonResponse, error)
	EmitInvoiceItems(ctx context.Context, tenantID, contractID uuid.UUID, asOf time.Time) (*appaddon.EmissionResult, error)
	BillingSweep(ctx context.Context, tenantID uuid.UUID, asOf time.Time) (*appaddon.BillingSweepResult, error)
	ExpirySweep(ctx context.Context, tenantID uuid.UUID, asOf time.Time) (*appaddon.ExpirySweepResult, error)
	Statistics(ctx context.Context, tenantID uuid.UUID) (*appaddon.AddonStatistics, error)
	PopularAddons(ctx context.Context, tenantID uuid.UUID, limit int) ([]addon.PopularAddon, error)
	BillingHistory(ctx context.Context, tenantID, contractID uuid.UUID) ([]addon.BillingRecord, error)
}

// AddonHandler serves the recurring add-on lifecycle and billing endpoints
type AddonHandler struct {
	BaseHandler
	addons AddonUseCases
	clock  shared.Clock
}

// NewAddonHandler creates a new AddonHandler
func NewAddonHandler(addons AddonUseCases, clock shared.Clock) *AddonHandler {
	return &AddonHandler{addons: addons, clock: clock}
}

// BillingRecordResponse is one emitted billing cycle
type BillingRecordResponse struct {
	ID         uuid.UUID      `json:"id"`
	AddonID    uuid.UUID      `json:"addon_id"`
	ContractID uuid.UUID      `json:"contract_id"`
	CycleStart time.Time      `json:"cycle_start"`
	CycleEnd   time.Time      `json:"cycle_end"`
	Item       addon.LineItem `json:"item"`
	EmittedAt  time.Time      `json:"emitted_at"`
}

// BillingHistoryResponse lists a contract's emitted cycles
type BillingHistoryResponse struct {
	ContractID uuid.UUID               `json:"contract_id"`
	Records    []BillingRecordResponse `json:"records"`
	Total      decimal.Decimal         `json:"total"`
}

// contractAndTenant reads the tenant and the :id contract of a request
func (h *AddonHandler) contractAndTenant(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	contractID, ok := h.pathID(c, "id")
	return tenantID, contractID, ok
}

// bodyAsOf reads an optional {"as_of": "YYYY-MM-DD"} body
func (h *AddonHandler) bodyAsOf(c *gin.Context) (time.Time, bool) {
	var req dto.AsOfRequest
	if !h.BindJSON(c, &req) {
		return time.Time{}, false
	}
	return h.asOf(c, req.AsOf, h.clock)
}

// Attach attaches a recurring product to a contract
// POST /api/v1/contracts/:id/addons
func (h *AddonHandler) Attach(c *gin.Context) {
	tenantID, contractID, ok := h.contractAndTenant(c)
	if !ok {
		return
	}
	var req appaddon.AttachAddonRequest
	if !h.BindJSON(c, &req) {
		return
	}

	resp, err := h.addons.Attach(c.Request.Context(), tenantID, contractID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// ListByContract lists a contract's add-ons
// GET /api/v1/contracts/:id/addons
func (h *AddonHandler) ListByContract(c *gin.Context) {
	tenantID, contractID, ok := h.contractAndTenant(c)
	if !ok {
		return
	}

	resp, err := h.addons.ListByContract(c.Request.Context(), tenantID, contractID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// MonthlyRecurring sums a contract's active add-ons
// GET /api/v1/contracts/:id/monthly-recurring
func (h *AddonHandler) MonthlyRecurring(c *gin.Context) {
	tenantID, contractID, ok := h.contractAndTenant(c)
	if !ok {
		return
	}

	resp, err := h.addons.MonthlyRecurring(c.Request.Context(), tenantID, contractID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// PauseAll pauses every active add-on of a contract
// POST /api/v1/contracts/:id/addons/pause-all
func (h *AddonHandler) PauseAll(c *gin.Context) {
	tenantID, contractID, ok := h.contractAndTenant(c)
	if !ok {
		return
	}

	resp, err := h.addons.PauseAll(c.Request.Context(), tenantID, contractID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ResumeAll resumes every paused add-on of a contract
// POST /api/v1/contracts/:id/addons/resume-all
func (h *AddonHandler) ResumeAll(c *gin.Context) {
	tenantID, contractID, ok := h.contractAndTenant(c)
	if !ok {
		return
	}

	resp, err := h.addons.ResumeAll(c.Request.Context(), tenantID, contractID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// CancelAll cancels every active or paused add-on of a contract
// POST /api/v1/contracts/:id/addons/cancel-all
func (h *AddonHandler) CancelAll(c *gin.Context) {
	tenantID, contractID, ok := h.contractAndTenant(c)
	if !ok {
		return
	}
	var req appaddon.CancelAddonRequest
	if !h.BindJSON(c, &req) {
		return
	}

	resp, err := h.addons.CancelAll(c.Request.Context(), tenantID, contractID, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// EmitInvoiceItems emits the due add-on cycles of a contract
// POST /api/v1/contracts/:id/invoice-items
func (h *AddonHandler) EmitInvoiceItems(c *gin.Context) {
	tenantID, contractID, ok := h.contractAndTenant(c)
	if !ok {
		return
	}
	asOf, ok := h.bodyAsOf(c)
	if !ok {
		return
	}

	resp, err := h.addons.EmitInvoiceItems(c.Request.Context(), tenantID, contractID, asOf)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// BillingRecords lists the cycles already emitted for a contract
// GET /api/v1/contracts/:id/billing-records
func (h *AddonHandler) BillingRecords(c *gin.Context) {
	tenantID, contractID, ok := h.contractAndTenant(c)
	if !ok {
		return
	}

	records, err := h.addons.BillingHistory(c.Request.Context(), tenantID, contractID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, BillingHistoryResponse{
		ContractID: contractID,
		Records: lo.Map(records, func(r addon.BillingRecord, _ int) BillingRecordResponse {
			return BillingRecordResponse{
				ID:         r.ID,
				AddonID:    r.AddonID,
				ContractID: r.ContractID,
				CycleStart: r.CycleStart,
				CycleEnd:   r.CycleEnd,
				Item:       r.Item,
				EmittedAt:  r.EmittedAt,
			}
		}),
		Total: lo.Reduce(records, func(sum decimal.Decimal, r addon.BillingRecord, _ int) decimal.Decimal {
			return sum.Add(r.Item.Total)
		}, decimal.Zero),
	})
}

// Get returns one add-on
// GET /api/v1/addons/:id
func (h *AddonHandler) Get(c *gin.Context) {
	h.single(c, h.addons.GetByID)
}

// Pause pauses an active add-on
// POST /api/v1/addons/:id/pause
func (h *AddonHandler) Pause(c *gin.Context) {
	h.single(c, h.addons.Pause)
}

// Resume resumes a paused add-on
// POST /api/v1/addons/:id/resume
func (h *AddonHandler) Resume(c *gin.Context) {
	h.single(c, h.addons.Resume)
}

// Cancel cancels an add-on with an optional reason
// POST /api/v1/addons/:id/cancel
func (h *AddonHandler) Cancel(c *gin.Context) {
	var req appaddon.CancelAddonRequest
	if !h.BindJSON(c, &req) {
		return
	}
	h.single(c, func(ctx context.Context, tenantID, addonID uuid.UUID) (*appaddon.AddonResponse, error) {
		return h.addons.Cancel(ctx, tenantID, addonID, req.Reason)
	})
}

func (h *AddonHandler) single(c *gin.Context, fn func(ctx context.Context, tenantID, addonID uuid.UUID) (*appaddon.AddonResponse, error)) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	addonID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	resp, err := fn(c.Request.Context(), tenantID, addonID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Due lists the add-ons due for billing
// GET /api/v1/addons/due?as_of=YYYY-MM-DD
func (h *AddonHandler) Due(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	asOf, ok := h.asOf(c, c.Query("as_of"), h.clock)
	if !ok {
		return
	}

	resp, err := h.addons.DueForBilling(c.Request.Context(), tenantID, asOf)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Statistics summarizes the tenant's add-ons
// GET /api/v1/addons/statistics
func (h *AddonHandler) Statistics(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}

	resp, err := h.addons.Statistics(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Popular ranks products by active add-on usage
// GET /api/v1/addons/popular?limit=10
func (h *AddonHandler) Popular(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	limit := 10
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 100 {
			h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidInput, "limit must be between 1 and 100")
			return
		}
		limit = n
	}

	resp, err := h.addons.PopularAddons(c.Request.Context(), tenantID, limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ExpirySweep expires the tenant's add-ons past their end date
// POST /api/v1/addons/sweeps/expiry
func (h *AddonHandler) ExpirySweep(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	asOf, ok := h.bodyAsOf(c)
	if !ok {
		return
	}

	resp, err := h.addons.ExpirySweep(c.Request.Context(), tenantID, asOf)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// BillingSweep emits the tenant's due add-on cycles
// POST /api/v1/addons/sweeps/billing
func (h *AddonHandler) BillingSweep(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	asOf, ok := h.bodyAsOf(c)
	if !ok {
		return
	}

	resp, err := h.addons.BillingSweep(c.Request.Context(), tenantID, asOf)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
