package pricing

import (
	"context"
	"fmt"
	"math"

	"github.com/boxibox/backend/internal/domain/pricing"
	"github.com/boxibox/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// QuoteService prices rental units for quotes and bookings
type QuoteService struct {
	unitRepo     pricing.RentalUnitRepository
	promoRepo    pricing.PromotionRepository
	settingsRepo pricing.BookingSettingsRepository
	calculator   *pricing.PriceCalculator
	proration    pricing.ProrationCalculator
	clock        shared.Clock
	logger       *zap.Logger
}

// NewQuoteService creates a new QuoteService
func NewQuoteService(
	unitRepo pricing.RentalUnitRepository,
	promoRepo pricing.PromotionRepository,
	settingsRepo pricing.BookingSettingsRepository,
	calculator *pricing.PriceCalculator,
	clock shared.Clock,
	logger *zap.Logger,
) *QuoteService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QuoteService{
		unitRepo:     unitRepo,
		promoRepo:    promoRepo,
		settingsRepo: settingsRepo,
		calculator:   calculator,
		clock:        clock,
		logger:       logger,
	}
}

func (s *QuoteService) loadUnit(ctx context.Context, tenantID, unitID uuid.UUID) (*pricing.RentalUnit, error) {
	unit, err := s.unitRepo.FindByIDForTenant(ctx, tenantID, unitID)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, shared.NewNotFoundError("Rental unit")
		}
		return nil, err
	}
	return unit, nil
}

// QuotePrice returns the monthly price breakdown of a unit
func (s *QuoteService) QuotePrice(ctx context.Context, tenantID, unitID uuid.UUID, req QuoteRequest) (*QuoteResponse, error) {
	unit, err := s.loadUnit(ctx, tenantID, unitID)
	if err != nil {
		return nil, err
	}
	price, err := s.calculator.Price(ctx, unit, req.PromotionCode, req.AsOf)
	if err != nil {
		return nil, err
	}
	return &QuoteResponse{UnitID: unit.ID, UnitCode: unit.Code, Price: price}, nil
}

// QuoteTotalCost returns the cost of renting a unit for a number of months
func (s *QuoteService) QuoteTotalCost(ctx context.Context, tenantID, unitID uuid.UUID, req TotalCostRequest) (*TotalCostResponse, error) {
	unit, err := s.loadUnit(ctx, tenantID, unitID)
	if err != nil {
		return nil, err
	}
	cost, err := s.calculator.TotalCost(ctx, unit, req.RentalMonths, req.PromotionCode, req.AsOf)
	if err != nil {
		return nil, err
	}
	return &TotalCostResponse{UnitID: unit.ID, UnitCode: unit.Code, Cost: cost}, nil
}

// QuoteBooking returns the first payment of a booking, using the deposit
// policy of the unit's site
func (s *QuoteService) QuoteBooking(ctx context.Context, tenantID, unitID uuid.UUID, req BookingTotalRequest) (*BookingTotalResponse, error) {
	unit, err := s.loadUnit(ctx, tenantID, unitID)
	if err != nil {
		return nil, err
	}
	settings, err := s.settingsRepo.FindForSite(ctx, tenantID, unit.SiteID)
	if err != nil {
		return nil, fmt.Errorf("load booking settings: %w", err)
	}

	quote, err := s.calculator.BookingTotal(ctx, pricing.BookingRequest{
		Unit:             unit,
		StartDate:        req.StartDate,
		DurationMonths:   req.DurationMonths,
		PromotionCode:    req.PromotionCode,
		Settings:         settings,
		IncludeInsurance: req.IncludeInsurance,
		InsuranceMonthly: req.InsuranceMonthly,
	})
	if err != nil {
		return nil, err
	}
	return &BookingTotalResponse{UnitID: unit.ID, UnitCode: unit.Code, Quote: quote}, nil
}

// Prorate charges a monthly price over an inclusive date range
func (s *QuoteService) Prorate(_ context.Context, req ProrateRequest) (*ProrateResponse, error) {
	start, end := shared.DateOf(req.StartDate), shared.DateOf(req.EndDate)
	amount, err := s.proration.Prorate(req.MonthlyPrice, start, end)
	if err != nil {
		return nil, err
	}
	return &ProrateResponse{
		MonthlyPrice: req.MonthlyPrice,
		StartDate:    start,
		EndDate:      end,
		Days:         int(math.Round(end.Sub(start).Hours()/24)) + 1,
		Amount:       amount.Round(2),
	}, nil
}

// RedeemPromotion consumes one use of a promotion code
func (s *QuoteService) RedeemPromotion(ctx context.Context, tenantID uuid.UUID, code string) (*PromotionResponse, error) {
	promo, err := s.promoRepo.FindByCode(ctx, tenantID, pricing.NormalizeCode(code))
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, shared.NewNotFoundError("Promotion code")
		}
		return nil, err
	}
	if err := promo.Redeem(s.clock.Now()); err != nil {
		return nil, err
	}
	if err := s.promoRepo.IncrementUses(ctx, tenantID, promo.ID); err != nil {
		return nil, err
	}

	s.logger.Info("Redeemed promotion code",
		zap.String("tenant_id", tenantID.String()),
		zap.String("code", promo.Code),
		zap.Int("uses_count", promo.UsesCount),
	)
	resp := ToPromotionResponse(promo)
	return &resp, nil
}
