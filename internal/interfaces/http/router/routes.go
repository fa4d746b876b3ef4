package router

import "github.com/boxibox/backend/internal/interfaces/http/handler"

// PricingRoutes exposes quotes, proration and promotion redemption
func PricingRoutes(h *handler.PricingHandler) []*DomainGroup {
	pricing := NewDomainGroup("pricing", "/pricing")
	pricing.POST("/prorate", h.Prorate)
	units := pricing.Group("units", "/units/:id")
	units.POST("/quote", h.Quote)
	units.POST("/total-cost", h.TotalCost)
	units.POST("/booking-total", h.BookingTotal)

	promotions := NewDomainGroup("promotions", "/promotions")
	promotions.POST("/:code/redeem", h.RedeemPromotion)

	return []*DomainGroup{pricing, promotions}
}

// AddonRoutes exposes the recurring add-on lifecycle, billing and reports
func AddonRoutes(h *handler.AddonHandler) []*DomainGroup {
	contracts := NewDomainGroup("contracts", "/contracts/:id")
	contracts.POST("/addons", h.Attach)
	contracts.GET("/addons", h.ListByContract)
	contracts.POST("/addons/pause-all", h.PauseAll)
	contracts.POST("/addons/resume-all", h.ResumeAll)
	contracts.POST("/addons/cancel-all", h.CancelAll)
	contracts.GET("/monthly-recurring", h.MonthlyRecurring)
	contracts.POST("/invoice-items", h.EmitInvoiceItems)
	contracts.GET("/billing-records", h.BillingRecords)

	addons := NewDomainGroup("addons", "/addons")
	addons.GET("/due", h.Due)
	addons.GET("/statistics", h.Statistics)
	addons.GET("/popular", h.Popular)
	addons.POST("/sweeps/expiry", h.ExpirySweep)
	addons.POST("/sweeps/billing", h.BillingSweep)
	addons.GET("/:id", h.Get)
	addons.POST("/:id/pause", h.Pause)
	addons.POST("/:id/resume", h.Resume)
	addons.POST("/:id/cancel", h.Cancel)

	return []*DomainGroup{contracts, addons}
}

// SystemRoutes exposes system information
func SystemRoutes(h *handler.SystemHandler) *DomainGroup {
	system := NewDomainGroup("system", "/system")
	system.GET("/info", h.GetSystemInfo)
	system.GET("/ping", h.Ping)
	return system
}
