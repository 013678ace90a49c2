package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/oelbekkali/retail-core/internal/core/domain"
	"github.com/oelbekkali/retail-core/internal/port"
)

type PromoService struct {
	promos port.PromoRepository
	logger *zap.Logger
}

func NewPromoService(promos port.PromoRepository, logger *zap.Logger) *PromoService {
	return &PromoService{promos: promos, logger: logger}
}

type PromoInput struct {
	Code     string `json:"code"`
	MaxUsage int    `json:"max_usage"`
}

func (s *PromoService) CreatePromo(ctx context.Context, in PromoInput) (*domain.PromoCode, error) {
	now := time.Now()
	promo := domain.PromoCode{
		ID:        uuid.NewString(),
		Code:      strings.ToUpper(strings.TrimSpace(in.Code)),
		MaxUsage:  in.MaxUsage,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := promo.Validate(); err != nil {
		return nil, err
	}

	if err := s.promos.CreatePromo(ctx, promo); err != nil {
		return nil, err
	}
	s.logger.Info("promo created", zap.String("code", promo.Code), zap.Int("max_usage", promo.MaxUsage))
	return &promo, nil
}

func (s *PromoService) UpdatePromo(ctx context.Context, id string, in PromoInput) (*domain.PromoCode, error) {
	promo, err := s.promos.GetPromo(ctx, id)
	if err != nil {
		return nil, err
	}

	promo.Code = strings.ToUpper(strings.TrimSpace(in.Code))
	promo.MaxUsage = in.MaxUsage
	if err := promo.Validate(); err != nil {
		return nil, err
	}

	if err := s.promos.UpdatePromo(ctx, *promo); err != nil {
		return nil, err
	}
	return s.promos.GetPromo(ctx, id)
}

func (s *PromoService) DeletePromo(ctx context.Context, id string) error {
	return s.promos.DeletePromo(ctx, id)
}

func (s *PromoService) GetPromo(ctx context.Context, id string) (*domain.PromoCode, error) {
	return s.promos.GetPromo(ctx, id)
}

func (s *PromoService) ListPromos(ctx context.Context) ([]domain.PromoCode, error) {
	return s.promos.ListPromos(ctx)
}

// Validate reports whether a code is currently redeemable without consuming a
// use.
func (s *PromoService) Validate(ctx context.Context, code string) (*domain.PromoCode, error) {
	promo, err := s.promos.GetPromoByCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return nil, err
	}
	if promo.Exhausted() {
		return nil, domain.ErrPromoExhausted
	}
	return promo, nil
}

// ApplyAndIncrement consumes one use of the code, atomically against
// concurrent redemptions.
func (s *PromoService) ApplyAndIncrement(ctx context.Context, code string) (*domain.PromoCode, error) {
	promo, err := s.promos.ApplyAndIncrement(ctx, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return nil, err
	}
	s.logger.Info("promo applied",
		zap.String("code", promo.Code),
		zap.Int("remaining_uses", promo.RemainingUses()))
	return promo, nil
}
