package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/oelbekkali/retail-core/internal/core/domain"
	"github.com/oelbekkali/retail-core/internal/port"
)

type CustomerService struct {
	customers port.CustomerRepository
	logger    *zap.Logger
}

func NewCustomerService(customers port.CustomerRepository, logger *zap.Logger) *CustomerService {
	return &CustomerService{customers: customers, logger: logger}
}

type CustomerInput struct {
	Username string `json:"username"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`

	// Tier, when set on update, is an administrative override of the
	// derived loyalty tier.
	Tier domain.LoyaltyTier `json:"loyalty_tier"`
}

func (s *CustomerService) CreateCustomer(ctx context.Context, in CustomerInput) (*domain.Customer, error) {
	tier := in.Tier
	if tier == "" {
		tier = domain.TierBasic
	}

	now := time.Now()
	customer := domain.Customer{
		ID:         uuid.NewString(),
		Username:   in.Username,
		Phone:      in.Phone,
		Address:    in.Address,
		Tier:       tier,
		TotalSpent: decimal.Zero,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := customer.Validate(); err != nil {
		return nil, err
	}

	if err := s.customers.CreateCustomer(ctx, customer); err != nil {
		return nil, err
	}
	s.logger.Info("customer created", zap.String("customer_id", customer.ID), zap.String("username", customer.Username))
	return &customer, nil
}

func (s *CustomerService) UpdateCustomer(ctx context.Context, id string, in CustomerInput) (*domain.Customer, error) {
	customer, err := s.customers.GetCustomer(ctx, id)
	if err != nil {
		return nil, err
	}

	customer.Username = in.Username
	customer.Phone = in.Phone
	customer.Address = in.Address
	if in.Tier != "" && in.Tier != customer.Tier {
		s.logger.Info("loyalty tier overridden",
			zap.String("customer_id", id),
			zap.String("from", string(customer.Tier)),
			zap.String("to", string(in.Tier)))
		customer.Tier = in.Tier
	}
	if err := customer.Validate(); err != nil {
		return nil, err
	}

	if err := s.customers.UpdateCustomer(ctx, *customer); err != nil {
		return nil, err
	}
	return s.customers.GetCustomer(ctx, id)
}

func (s *CustomerService) GetCustomer(ctx context.Context, id string) (*domain.Customer, error) {
	return s.customers.GetCustomer(ctx, id)
}

func (s *CustomerService) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	return s.customers.ListCustomers(ctx)
}
