package sale

import (
	"context"
	"fmt"
	"time"

	"tradedesk/internal/core/apperror"
	appctx "tradedesk/internal/core/context"
	"tradedesk/internal/core/id"
	"tradedesk/internal/core/numerator"
	"tradedesk/internal/core/tx"
	"tradedesk/internal/domain"
	"tradedesk/internal/domain/audit"
	"tradedesk/internal/domain/documents"
	"tradedesk/internal/domain/ledger"
	"tradedesk/pkg/logger"
)

// CatalogLoader builds the price list a draft resolves products against.
type CatalogLoader interface {
	LoadCatalog(ctx context.Context, kind ledger.Kind, productIDs ...id.ID) (ledger.StaticCatalog, error)
}

// Invoicer issues and settles the invoice of a sale.
type Invoicer interface {
	// IssueForSale creates a sent invoice for the sale unless it has one.
	IssueForSale(ctx context.Context, doc *Sale) error
	// SettleForSale marks the sale's invoice paid. A sale without one is left alone.
	SettleForSale(ctx context.Context, saleID id.ID) error
}

// ServiceConfig wires the sale service. Stock, Invoices, Audit and Observer are optional.
type ServiceConfig struct {
	Repo      Repository
	Payments  documents.PaymentStore
	Invoices  Invoicer
	Catalog   CatalogLoader
	Parties   documents.PartyResolver
	Stock     documents.StockRecorder
	Numerator numerator.Generator
	TxManager tx.Manager
	Audit     audit.Trail
	Observer  documents.SubmissionObserver
	Defaults  ledger.Settings
}

// Service provides business operations for sale documents.
type Service struct {
	repo      Repository
	payments  documents.PaymentStore
	invoices  Invoicer
	catalog   CatalogLoader
	parties   documents.PartyResolver
	stock     documents.StockRecorder
	numerator numerator.Generator
	txManager tx.Manager
	audit     audit.Trail
	observer  documents.SubmissionObserver
	defaults  ledger.Settings
	hooks     *domain.HookRegistry[*Sale]
}

// NewService creates a new sale service.
func NewService(cfg ServiceConfig) *Service {
	txm := cfg.TxManager
	if txm == nil {
		txm = tx.Immediate
	}
	return &Service{
		repo:      cfg.Repo,
		payments:  cfg.Payments,
		invoices:  cfg.Invoices,
		catalog:   cfg.Catalog,
		parties:   cfg.Parties,
		stock:     cfg.Stock,
		numerator: cfg.Numerator,
		txManager: txm,
		audit:     cfg.Audit,
		observer:  cfg.Observer,
		defaults:  cfg.Defaults,
		hooks:     domain.NewHookRegistry[*Sale](),
	}
}

// Hooks returns the hook registry for registering callbacks.
func (s *Service) Hooks() *domain.HookRegistry[*Sale] {
	return s.hooks
}

// NewDraft opens an empty draft priced at the selling prices of the products given.
func (s *Service) NewDraft(ctx context.Context, productIDs ...id.ID) (*Draft, error) {
	cat, err := s.catalog.LoadCatalog(ctx, ledger.KindSale, productIDs...)
	if err != nil {
		return nil, err
	}
	return NewDraft(cat, s.defaults)
}

// Open loads a stored sale as a draft.
func (s *Service) Open(ctx context.Context, docID id.ID, extraProductIDs ...id.ID) (*Draft, error) {
	doc, err := s.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}

	ids := append([]id.ID{}, extraProductIDs...)
	for _, l := range doc.Lines {
		ids = append(ids, l.ProductID)
	}
	cat, err := s.catalog.LoadCatalog(ctx, ledger.KindSale, ids...)
	if err != nil {
		return nil, err
	}
	return OpenDraft(doc, cat)
}

// Submit validates a new draft and stores it as a sales order.
func (s *Service) Submit(ctx context.Context, d *Draft) (*Sale, error) {
	if !d.IsNew() {
		return nil, apperror.NewConflict("draft edits a stored sale; use resubmit")
	}
	return s.submit(ctx, d, audit.ActionSubmit)
}

// Resubmit stores the edits of a reopened sale with optimistic locking.
func (s *Service) Resubmit(ctx context.Context, d *Draft) (*Sale, error) {
	if d.IsNew() {
		return nil, apperror.NewConflict("draft has not been submitted yet")
	}
	return s.submit(ctx, d, audit.ActionResubmit)
}

func (s *Service) submit(ctx context.Context, d *Draft, action audit.Action) (doc *Sale, err error) {
	start := time.Now()
	defer func() {
		if s.observer != nil {
			s.observer.ObserveSubmission(ledger.KindSale, documents.Outcome(err), time.Since(start))
		}
	}()

	if d.Closed() {
		return nil, documents.DraftClosed(ledger.KindSale)
	}

	errs := d.Validate()
	customerName := ""
	if !id.IsNil(d.Header.CustomerID) && s.parties != nil {
		customer, cerr := s.parties.RequireCustomer(ctx, "customerId", d.Header.CustomerID)
		switch {
		case apperror.IsValidation(cerr):
			appErr, _ := apperror.AsAppError(cerr)
			errs = append(errs, appErr)
		case cerr != nil:
			return nil, documents.SubmissionFailure(ledger.KindSale, cerr)
		default:
			customerName = customer.Name
		}
	}
	if verr := errs.Err(); verr != nil {
		return nil, verr
	}

	doc = d.build()
	doc.CustomerName = customerName

	before, after := domain.BeforeCreate, domain.AfterCreate
	if d.IsNew() {
		audit.EnrichCreated(ctx, &doc.BaseDocument)
	} else {
		before, after = domain.BeforeUpdate, domain.AfterUpdate
		audit.EnrichUpdated(ctx, &doc.BaseDocument)
	}
	if err := s.hooks.Run(ctx, before, doc); err != nil {
		return nil, err
	}

	if doc.Number == "" {
		cfg := numerator.DefaultConfig(numerator.PrefixSale)
		number, err := s.numerator.GetNextNumber(ctx, cfg, &numerator.Options{Strategy: NumeratorStrategy}, doc.Date)
		if err != nil {
			return nil, documents.SubmissionFailure(ledger.KindSale, fmt.Errorf("generate number: %w", err))
		}
		doc.Number = number
		d.number = number
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if d.IsNew() {
			if err := s.repo.Create(ctx, doc); err != nil {
				return fmt.Errorf("create document: %w", err)
			}
		} else {
			if err := s.repo.Update(ctx, doc); err != nil {
				return fmt.Errorf("update document: %w", err)
			}
			doc.Touch()
		}

		if err := s.repo.SaveLines(ctx, doc.ID, doc.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}

		if s.stock != nil {
			if err := s.stock.Replace(ctx, doc.ID, doc.Movements()); err != nil {
				return fmt.Errorf("record stock: %w", err)
			}
		}
		if doc.Status == StatusDelivered && s.invoices != nil {
			if err := s.invoices.IssueForSale(ctx, doc); err != nil {
				return fmt.Errorf("issue invoice: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, documents.SubmissionFailure(ledger.KindSale, err)
	}

	d.closed = true

	if err := s.hooks.Run(ctx, after, doc); err != nil {
		logger.Warn(ctx, "after-submit hook failed", "id", doc.ID, "error", err)
	}
	s.logAudit(ctx, doc, action)

	logger.Info(ctx, "sale submitted",
		"id", doc.ID,
		"number", doc.Number,
		"status", doc.Status,
		"total", doc.Total.StringFixed(2))

	return doc, nil
}

func (s *Service) logAudit(ctx context.Context, doc *Sale, action audit.Action) {
	if s.audit == nil {
		return
	}
	changes := map[string]any{
		"number":   doc.Number,
		"status":   doc.Status,
		"customer": doc.CustomerID,
		"lines":    doc.Lines,
		"subtotal": doc.Subtotal,
		"tax":      doc.Tax,
		"shipping": doc.ShippingFee,
		"discount": doc.Discount,
		"total":    doc.Total,
	}
	s.logChange(ctx, doc.ID, action, changes)
}

// logChange writes the audit row once the change has committed. A failure is
// logged and leaves the change in place.
func (s *Service) logChange(ctx context.Context, docID id.ID, action audit.Action, changes map[string]any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.LogChange(ctx, entityName, docID, action, changes); err != nil {
		logger.Warn(ctx, "audit log failed", "id", docID, "action", action, "error", err)
	}
}

// GetByID retrieves a sale with lines.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*Sale, error) {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound(entityName, docID.String())
		}
		return nil, err
	}

	lines, err := s.repo.GetLines(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	doc.Lines = lines

	return doc, nil
}

// List retrieves sales with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Sale], error) {
	filter.Normalize()
	return s.repo.List(ctx, filter)
}

// Delete soft-deletes a sale and returns its goods to stock.
func (s *Service) Delete(ctx context.Context, docID id.ID) error {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return apperror.NewNotFound(entityName, docID.String())
		}
		return err
	}
	if doc.DeletionMark {
		return nil
	}

	if err := s.hooks.Run(ctx, domain.BeforeDelete, doc); err != nil {
		return err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Delete(ctx, docID); err != nil {
			return err
		}
		if s.stock != nil {
			return s.stock.Reverse(ctx, docID)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := s.hooks.Run(ctx, domain.AfterDelete, doc); err != nil {
		logger.Warn(ctx, "after-delete hook failed", "id", docID, "error", err)
	}
	s.logAudit(ctx, doc, audit.ActionDelete)
	return nil
}

// AddPayment records a payment from the customer. Settling the full balance
// marks the sale's invoice paid.
func (s *Service) AddPayment(ctx context.Context, docID id.ID, in documents.PaymentInput) (*Sale, *documents.Payment, error) {
	if s.payments == nil {
		return nil, nil, apperror.NewInternal(fmt.Errorf("sale payments are not configured"))
	}
	if err := in.Validate().Err(); err != nil {
		return nil, nil, err
	}

	var (
		doc     *Sale
		payment *documents.Payment
	)
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		if doc, err = s.GetByID(ctx, docID); err != nil {
			return err
		}
		if err := doc.CanModify(); err != nil {
			return err
		}
		if e := documents.CheckPaymentFits(doc.Total, doc.PaidAmount, in.Amount); e != nil {
			return apperror.ValidationErrors{e}.Err()
		}

		payment = documents.NewPayment(ledger.KindSale, doc.ID, in)
		payment.CreatedBy = appctx.GetClientID(ctx)
		audit.EnrichUpdated(ctx, &doc.BaseDocument)
		doc.PaidAmount = doc.PaidAmount.Add(in.Amount)
		doc.PaymentStatus = documents.StatusForPaid(doc.Total, doc.PaidAmount)

		if err := s.repo.Update(ctx, doc); err != nil {
			return fmt.Errorf("update document: %w", err)
		}
		doc.Touch()
		if err := s.payments.CreatePayment(ctx, payment); err != nil {
			return fmt.Errorf("create payment: %w", err)
		}
		if doc.PaymentStatus == documents.PaymentPaid && s.invoices != nil {
			if err := s.invoices.SettleForSale(ctx, doc.ID); err != nil {
				return fmt.Errorf("settle invoice: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.logChange(ctx, doc.ID, audit.ActionPayment, map[string]any{
		"payment":       payment.ID,
		"amount":        payment.Amount,
		"method":        payment.Method,
		"paidAmount":    doc.PaidAmount,
		"paymentStatus": doc.PaymentStatus,
	})
	logger.Info(ctx, "sale payment recorded",
		"id", doc.ID,
		"amount", payment.Amount.StringFixed(2),
		"payment_status", doc.PaymentStatus)
	return doc, payment, nil
}

// Payments lists the payments received on a sale, oldest first.
func (s *Service) Payments(ctx context.Context, docID id.ID) ([]*documents.Payment, error) {
	if s.payments == nil {
		return nil, apperror.NewInternal(fmt.Errorf("sale payments are not configured"))
	}
	if _, err := s.repo.GetByID(ctx, docID); err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound(entityName, docID.String())
		}
		return nil, err
	}
	return s.payments.ListPayments(ctx, ledger.KindSale, docID)
}

// Deliver marks a sale delivered, takes its goods out of stock and issues
// its invoice unless one exists.
func (s *Service) Deliver(ctx context.Context, docID id.ID, date *time.Time) (*Sale, error) {
	var doc *Sale
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		if doc, err = s.GetByID(ctx, docID); err != nil {
			return err
		}
		if err := doc.deliver(date); err != nil {
			return err
		}
		audit.EnrichUpdated(ctx, &doc.BaseDocument)

		if err := s.repo.Update(ctx, doc); err != nil {
			return fmt.Errorf("update document: %w", err)
		}
		doc.Touch()
		if s.stock != nil {
			if err := s.stock.Replace(ctx, doc.ID, doc.Movements()); err != nil {
				return fmt.Errorf("record stock: %w", err)
			}
		}
		if s.invoices != nil {
			if err := s.invoices.IssueForSale(ctx, doc); err != nil {
				return fmt.Errorf("issue invoice: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logChange(ctx, doc.ID, audit.ActionDeliver, map[string]any{
		"actualDeliveryDate": doc.ActualDeliveryDate,
	})
	logger.Info(ctx, "sale delivered", "id", doc.ID, "number", doc.Number)
	return doc, nil
}
