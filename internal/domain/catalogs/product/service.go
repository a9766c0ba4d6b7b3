package product

import (
	"context"
	"fmt"
	"time"

	"tradedesk/internal/core/apperror"
	"tradedesk/internal/core/id"
	"tradedesk/internal/core/numerator"
	"tradedesk/internal/core/tx"
	"tradedesk/internal/domain"
	"tradedesk/internal/domain/ledger"
)

// Service provides business logic for the product catalog.
type Service struct {
	*domain.CatalogService[*Product]
	repo      Repository
	numerator numerator.Generator
}

// NewService creates a new product service.
func NewService(repo Repository, txManager tx.Manager, gen numerator.Generator) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Product]{
		Repo:       repo,
		TxManager:  txManager,
		EntityName: "product",
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
		numerator:      gen,
	}
	base.Hooks().OnBeforeCreate(svc.prepareForCreate)

	return svc
}

// prepareForCreate generates a code when none was supplied.
func (s *Service) prepareForCreate(ctx context.Context, p *Product) error {
	if p.Code != "" || s.numerator == nil {
		return nil
	}
	cfg := numerator.DefaultConfig(numerator.PrefixProduct)
	cfg.IncludeYear = false
	cfg.ResetPeriod = numerator.ResetNever

	code, err := s.numerator.GetNextNumber(ctx, cfg, nil, time.Now())
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}
	p.Code = code
	return nil
}

// FindLowStock retrieves products at or below their reorder threshold.
func (s *Service) FindLowStock(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Product], error) {
	filter.Normalize()
	return s.repo.FindLowStock(ctx, filter)
}

// AdjustStock changes the on-hand quantity of a product.
func (s *Service) AdjustStock(ctx context.Context, productID id.ID, delta int) error {
	if delta == 0 {
		return nil
	}
	return s.repo.AdjustStock(ctx, productID, delta)
}

// LoadCatalog builds the in-memory price list a ledger resolves products
// against. Purchases are priced at buying price, sales at selling price.
// Only the products asked for are read; no ids gives an empty catalog.
func (s *Service) LoadCatalog(ctx context.Context, kind ledger.Kind, productIDs ...id.ID) (ledger.StaticCatalog, error) {
	if !kind.Valid() {
		return nil, apperror.NewValidation(fmt.Sprintf("unknown ledger kind %q", kind))
	}
	if len(productIDs) == 0 {
		return ledger.StaticCatalog{}, nil
	}

	products, err := s.repo.GetMany(ctx, productIDs)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return catalogOf(kind, products), nil
}

// PriceList returns every active product priced for kind, ordered by name.
func (s *Service) PriceList(ctx context.Context, kind ledger.Kind) ([]ledger.CatalogEntry, error) {
	if !kind.Valid() {
		return nil, apperror.NewFieldValidation("kind", fmt.Sprintf("unknown ledger kind %q", kind))
	}
	products, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("load price list: %w", err)
	}
	entries := make([]ledger.CatalogEntry, 0, len(products))
	for _, p := range products {
		entries = append(entries, p.CatalogEntry(kind))
	}
	return entries, nil
}

func catalogOf(kind ledger.Kind, products []*Product) ledger.StaticCatalog {
	entries := make([]ledger.CatalogEntry, 0, len(products))
	for _, p := range products {
		entries = append(entries, p.CatalogEntry(kind))
	}
	return ledger.NewStaticCatalog(entries...)
}

// CatalogEntry projects the product for a ledger of the given kind.
func (p *Product) CatalogEntry(kind ledger.Kind) ledger.CatalogEntry {
	price := p.SellingPrice
	if kind == ledger.KindPurchase {
		price = p.BuyingPrice
	}
	return ledger.CatalogEntry{ProductID: p.ID, Name: p.Name, Price: price}
}
