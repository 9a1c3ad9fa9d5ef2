package service

import (
	"context"
	"fmt"
	"strings"

	"ductclean/internal/domain"
	"ductclean/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// CustomerService manages the customer records the lifecycle hangs off.
type CustomerService struct {
	repo   domain.Repository
	logger *zerolog.Logger
}

func NewCustomerService(repo domain.Repository, logger *zerolog.Logger) *CustomerService {
	return &CustomerService{repo: repo, logger: logger}
}

// CreateCustomerInput carries the registration fields.
type CreateCustomerInput struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	City     string `json:"city"`
	State    string `json:"state"`
	ZipCode  string `json:"zip_code"`
}

func (s *CustomerService) CreateCustomer(ctx context.Context, input CreateCustomerInput) (*models.Customer, error) {
	email := strings.TrimSpace(strings.ToLower(input.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: valid email is required", ErrValidation)
	}
	if strings.TrimSpace(input.FullName) == "" {
		return nil, fmt.Errorf("%w: full_name is required", ErrValidation)
	}

	customer := &models.Customer{
		ID:       uuid.NewString(),
		Email:    email,
		FullName: strings.TrimSpace(input.FullName),
		Phone:    input.Phone,
		Address:  input.Address,
		City:     input.City,
		State:    input.State,
		ZipCode:  input.ZipCode,
	}
	if err := s.repo.CreateCustomer(ctx, customer); err != nil {
		return nil, err
	}
	return customer, nil
}

// UpdateCustomerInput holds the mutable profile fields. Nil pointers
// leave the current value untouched.
type UpdateCustomerInput struct {
	FullName *string `json:"full_name"`
	Phone    *string `json:"phone"`
	Address  *string `json:"address"`
	City     *string `json:"city"`
	State    *string `json:"state"`
	ZipCode  *string `json:"zip_code"`
}

func (s *CustomerService) UpdateCustomer(ctx context.Context, id string, version int64, input UpdateCustomerInput) (*models.Customer, error) {
	customer, err := s.repo.GetCustomer(ctx, id)
	if err != nil {
		return nil, err
	}
	if version != 0 {
		customer.Version = version
	}

	if input.FullName != nil {
		if strings.TrimSpace(*input.FullName) == "" {
			return nil, fmt.Errorf("%w: full_name cannot be empty", ErrValidation)
		}
		customer.FullName = strings.TrimSpace(*input.FullName)
	}
	if input.Phone != nil {
		customer.Phone = *input.Phone
	}
	if input.Address != nil {
		customer.Address = *input.Address
	}
	if input.City != nil {
		customer.City = *input.City
	}
	if input.State != nil {
		customer.State = *input.State
	}
	if input.ZipCode != nil {
		customer.ZipCode = *input.ZipCode
	}

	if err := s.repo.UpdateCustomer(ctx, customer); err != nil {
		return nil, err
	}
	return s.repo.GetCustomer(ctx, id)
}

func (s *CustomerService) GetCustomer(ctx context.Context, id string) (*models.Customer, error) {
	return s.repo.GetCustomer(ctx, id)
}

func (s *CustomerService) GetCustomerByEmail(ctx context.Context, email string) (*models.Customer, error) {
	return s.repo.GetCustomerByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
}

func (s *CustomerService) ListCustomers(ctx context.Context) ([]*models.Customer, error) {
	return s.repo.ListCustomers(ctx)
}
