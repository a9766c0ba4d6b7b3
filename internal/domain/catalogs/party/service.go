package party

import (
	"context"
	"fmt"
	"time"

	"tradedesk/internal/core/apperror"
	"tradedesk/internal/core/id"
	"tradedesk/internal/core/numerator"
	"tradedesk/internal/core/tx"
	"tradedesk/internal/domain"
)

// Service provides business logic for the party catalog.
type Service struct {
	*domain.CatalogService[*Party]
	numerator numerator.Generator
}

// NewService creates a new party service.
func NewService(repo Repository, txManager tx.Manager, gen numerator.Generator) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Party]{
		Repo:       repo,
		TxManager:  txManager,
		EntityName: "party",
	})

	svc := &Service{
		CatalogService: base,
		numerator:      gen,
	}
	base.Hooks().OnBeforeCreate(svc.prepareForCreate)

	return svc
}

func (s *Service) prepareForCreate(ctx context.Context, p *Party) error {
	if p.Code != "" || s.numerator == nil {
		return nil
	}
	cfg := numerator.DefaultConfig(numerator.PrefixParty)
	cfg.IncludeYear = false
	cfg.ResetPeriod = numerator.ResetNever

	code, err := s.numerator.GetNextNumber(ctx, cfg, nil, time.Now())
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}
	p.Code = code
	return nil
}

// RequireSupplier returns the party if it exists and may supply goods.
// Otherwise the error is a validation error on field.
func (s *Service) RequireSupplier(ctx context.Context, field string, partyID id.ID) (*Party, error) {
	p, err := s.require(ctx, field, partyID)
	if err != nil {
		return nil, err
	}
	if !p.IsSupplier() {
		return nil, apperror.NewFieldValidation(field, fmt.Sprintf("%s is not a supplier", p.Name))
	}
	return p, nil
}

// RequireCustomer returns the party if it exists and may buy goods.
func (s *Service) RequireCustomer(ctx context.Context, field string, partyID id.ID) (*Party, error) {
	p, err := s.require(ctx, field, partyID)
	if err != nil {
		return nil, err
	}
	if !p.IsCustomer() {
		return nil, apperror.NewFieldValidation(field, fmt.Sprintf("%s is not a customer", p.Name))
	}
	return p, nil
}

func (s *Service) require(ctx context.Context, field string, partyID id.ID) (*Party, error) {
	p, err := s.GetByID(ctx, partyID)
	switch {
	case apperror.IsNotFound(err):
		return nil, apperror.NewFieldValidation(field, "party does not exist").WithDetail("id", partyID.String())
	case err != nil:
		return nil, err
	case p.DeletionMark:
		return nil, apperror.NewFieldValidation(field, "party is marked for deletion").WithDetail("id", partyID.String())
	}
	return p, nil
}
