package invoice

import (
	"context"
	"fmt"
	"time"

	"tradedesk/internal/core/apperror"
	"tradedesk/internal/core/entity"
	"tradedesk/internal/core/id"
	"tradedesk/internal/core/numerator"
	"tradedesk/internal/core/tx"
	"tradedesk/internal/domain"
	"tradedesk/internal/domain/audit"
	"tradedesk/internal/domain/documents"
	"tradedesk/internal/domain/documents/sale"
	"tradedesk/pkg/logger"
)

const (
	entityName = "invoice"

	// DefaultTermDays is the time a customer has to pay.
	DefaultTermDays = 30

	// NumeratorStrategy for invoices. Customer-facing, so numbers are gapless.
	NumeratorStrategy = numerator.StrategyStrict
)

// SaleReader loads the sale an invoice is generated for.
type SaleReader interface {
	GetByID(ctx context.Context, saleID id.ID) (*sale.Sale, error)
}

// Config wires the invoice service. Audit is optional.
type Config struct {
	Repo      Repository
	Sales     SaleReader
	Numerator numerator.Generator
	TxManager tx.Manager
	Audit     audit.Trail

	// TermDays from issue to due date, DefaultTermDays when zero
	TermDays int
}

// Service provides business operations for invoices.
type Service struct {
	repo      Repository
	sales     SaleReader
	numerator numerator.Generator
	txManager tx.Manager
	audit     audit.Trail
	termDays  int
}

var _ sale.Invoicer = (*Service)(nil)

// NewService creates a new invoice service.
func NewService(cfg Config) *Service {
	txm := cfg.TxManager
	if txm == nil {
		txm = tx.Immediate
	}
	term := cfg.TermDays
	if term <= 0 {
		term = DefaultTermDays
	}
	return &Service{
		repo:      cfg.Repo,
		sales:     cfg.Sales,
		numerator: cfg.Numerator,
		txManager: txm,
		audit:     cfg.Audit,
		termDays:  term,
	}
}

// Generate creates a draft invoice for a sale that has none.
func (s *Service) Generate(ctx context.Context, saleID id.ID) (*Invoice, error) {
	doc, err := s.sales.GetByID(ctx, saleID)
	if err != nil {
		return nil, err
	}
	if err := doc.CanModify(); err != nil {
		return nil, err
	}

	var inv *Invoice
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.existing(ctx, saleID)
		if err != nil {
			return err
		}
		if existing != nil {
			return apperror.NewConflict("sale already has an invoice").
				WithDetail("invoiceId", existing.ID.String()).
				WithDetail("number", existing.Number)
		}
		inv, err = s.create(ctx, doc, StatusDraft)
		return err
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// IssueForSale creates a sent invoice for a delivered sale unless it already
// has one. It joins the caller's transaction.
func (s *Service) IssueForSale(ctx context.Context, doc *sale.Sale) error {
	existing, err := s.existing(ctx, doc.ID)
	if err != nil || existing != nil {
		return err
	}
	_, err = s.create(ctx, doc, StatusSent)
	return err
}

// SettleForSale marks the invoice of a fully paid sale paid. A sale without an
// invoice, or with a cancelled one, is left alone.
func (s *Service) SettleForSale(ctx context.Context, saleID id.ID) error {
	inv, err := s.existing(ctx, saleID)
	if err != nil || inv == nil || !inv.Status.Open() {
		return err
	}
	return s.save(ctx, inv, StatusPaid)
}

// MarkSent records that the invoice went out to the customer.
func (s *Service) MarkSent(ctx context.Context, invoiceID id.ID) (*Invoice, error) {
	return s.move(ctx, invoiceID, StatusSent)
}

// MarkPaid records that the invoice was settled.
func (s *Service) MarkPaid(ctx context.Context, invoiceID id.ID) (*Invoice, error) {
	return s.move(ctx, invoiceID, StatusPaid)
}

// Cancel voids an unpaid invoice.
func (s *Service) Cancel(ctx context.Context, invoiceID id.ID) (*Invoice, error) {
	return s.move(ctx, invoiceID, StatusCancelled)
}

// GetByID retrieves an invoice.
func (s *Service) GetByID(ctx context.Context, invoiceID id.ID) (*Invoice, error) {
	inv, err := s.repo.GetByID(ctx, invoiceID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound(entityName, invoiceID.String())
		}
		return nil, err
	}
	return inv, nil
}

// GetBySale retrieves the invoice of a sale.
func (s *Service) GetBySale(ctx context.Context, saleID id.ID) (*Invoice, error) {
	inv, err := s.repo.GetBySale(ctx, saleID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound(entityName, "sale "+saleID.String())
		}
		return nil, err
	}
	return inv, nil
}

// List retrieves invoices with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Invoice], error) {
	filter.Normalize()
	if filter.Status != "" && !Status(filter.Status).Valid() {
		return domain.ListResult[*Invoice]{}, apperror.NewFieldValidation("status", "invalid status").
			WithDetail("value", filter.Status)
	}
	return s.repo.List(ctx, filter)
}

func (s *Service) existing(ctx context.Context, saleID id.ID) (*Invoice, error) {
	inv, err := s.repo.GetBySale(ctx, saleID)
	switch {
	case apperror.IsNotFound(err):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("find invoice of sale %s: %w", saleID, err)
	}
	return inv, nil
}

func (s *Service) create(ctx context.Context, doc *sale.Sale, status Status) (*Invoice, error) {
	issued := documents.Today()
	number, err := s.numerator.GetNextNumber(ctx, numerator.SequentialConfig(numerator.PrefixInvoice),
		&numerator.Options{Strategy: NumeratorStrategy}, issued)
	if err != nil {
		return nil, fmt.Errorf("generate invoice number: %w", err)
	}

	inv := &Invoice{
		Document:     entity.NewDocument(),
		SaleID:       doc.ID,
		SaleNumber:   doc.Number,
		CustomerID:   doc.CustomerID,
		CustomerName: doc.CustomerName,
		DueDate:      issued.AddDate(0, 0, s.termDays),
		Status:       status,
		Total:        doc.Total,
	}
	inv.Number = number
	inv.Date = issued
	audit.EnrichCreated(ctx, &inv.BaseDocument)

	if err := s.repo.Create(ctx, inv); err != nil {
		return nil, fmt.Errorf("create invoice: %w", err)
	}
	s.logChange(ctx, inv, audit.ActionInvoice)
	logger.Info(ctx, "invoice issued",
		"id", inv.ID,
		"number", inv.Number,
		"sale_id", doc.ID,
		"status", inv.Status)
	return inv, nil
}

func (s *Service) move(ctx context.Context, invoiceID id.ID, next Status) (*Invoice, error) {
	var inv *Invoice
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		if inv, err = s.GetByID(ctx, invoiceID); err != nil {
			return err
		}
		return s.save(ctx, inv, next)
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

func (s *Service) save(ctx context.Context, inv *Invoice, next Status) error {
	from := inv.Status
	if err := inv.transition(next); err != nil {
		return err
	}
	if from == next {
		return nil
	}
	audit.EnrichUpdated(ctx, &inv.BaseDocument)
	if err := s.repo.Update(ctx, inv); err != nil {
		return fmt.Errorf("update invoice: %w", err)
	}
	inv.Touch()

	s.logChange(ctx, inv, audit.Action(next))
	logger.Info(ctx, "invoice status changed", "id", inv.ID, "from", from, "to", next)
	return nil
}

func (s *Service) logChange(ctx context.Context, inv *Invoice, action audit.Action) {
	if s.audit == nil {
		return
	}
	changes := map[string]any{
		"number":  inv.Number,
		"sale":    inv.SaleID,
		"status":  inv.Status,
		"dueDate": inv.DueDate.Format(time.DateOnly),
		"total":   inv.Total,
	}
	if err := s.audit.LogChange(ctx, entityName, inv.ID, action, changes); err != nil {
		logger.Warn(ctx, "audit log failed", "id", inv.ID, "action", action, "error", err)
	}
}
