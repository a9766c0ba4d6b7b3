package purchase

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

// ServiceConfig wires the purchase service. Stock, Audit and Observer are optional.
type ServiceConfig struct {
	Repo      Repository
	Payments  documents.PaymentStore
	Catalog   CatalogLoader
	Parties   documents.PartyResolver
	Stock     documents.StockRecorder
	Numerator numerator.Generator
	TxManager tx.Manager
	Audit     audit.Trail
	Observer  documents.SubmissionObserver

	// Defaults is the tax rate and shipping fee a new draft starts with
	Defaults ledger.Settings
}

// Service provides business operations for purchase documents.
type Service struct {
	repo      Repository
	payments  documents.PaymentStore
	catalog   CatalogLoader
	parties   documents.PartyResolver
	stock     documents.StockRecorder
	numerator numerator.Generator
	txManager tx.Manager
	audit     audit.Trail
	observer  documents.SubmissionObserver
	defaults  ledger.Settings
	hooks     *domain.HookRegistry[*Purchase]
}

// NewService creates a new purchase service.
func NewService(cfg ServiceConfig) *Service {
	txm := cfg.TxManager
	if txm == nil {
		txm = tx.Immediate
	}
	return &Service{
		repo:      cfg.Repo,
		payments:  cfg.Payments,
		catalog:   cfg.Catalog,
		parties:   cfg.Parties,
		stock:     cfg.Stock,
		numerator: cfg.Numerator,
		txManager: txm,
		audit:     cfg.Audit,
		observer:  cfg.Observer,
		defaults:  cfg.Defaults,
		hooks:     domain.NewHookRegistry[*Purchase](),
	}
}

// Hooks returns the hook registry for registering callbacks.
func (s *Service) Hooks() *domain.HookRegistry[*Purchase] {
	return s.hooks
}

// NewDraft opens an empty draft priced from the products given.
func (s *Service) NewDraft(ctx context.Context, productIDs ...id.ID) (*Draft, error) {
	cat, err := s.catalog.LoadCatalog(ctx, ledger.KindPurchase, productIDs...)
	if err != nil {
		return nil, err
	}
	return NewDraft(cat, s.defaults)
}

// Open loads a stored purchase as a draft. extraProductIDs are products the
// caller intends to add besides those already on the document.
func (s *Service) Open(ctx context.Context, docID id.ID, extraProductIDs ...id.ID) (*Draft, error) {
	doc, err := s.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}

	ids := append([]id.ID{}, extraProductIDs...)
	for _, l := range doc.Lines {
		ids = append(ids, l.ProductID)
	}
	cat, err := s.catalog.LoadCatalog(ctx, ledger.KindPurchase, ids...)
	if err != nil {
		return nil, err
	}
	return OpenDraft(doc, cat)
}

// Submit validates a new draft and stores it as a purchase order.
// On failure the draft is left as it was so the caller can retry.
func (s *Service) Submit(ctx context.Context, d *Draft) (*Purchase, error) {
	if !d.IsNew() {
		return nil, apperror.NewConflict("draft edits a stored purchase; use resubmit")
	}
	return s.submit(ctx, d, audit.ActionSubmit)
}

// Resubmit stores the edits of a reopened purchase with optimistic locking.
func (s *Service) Resubmit(ctx context.Context, d *Draft) (*Purchase, error) {
	if d.IsNew() {
		return nil, apperror.NewConflict("draft has not been submitted yet")
	}
	return s.submit(ctx, d, audit.ActionResubmit)
}

func (s *Service) submit(ctx context.Context, d *Draft, action audit.Action) (doc *Purchase, err error) {
	start := time.Now()
	defer func() {
		if s.observer != nil {
			s.observer.ObserveSubmission(ledger.KindPurchase, documents.Outcome(err), time.Since(start))
		}
	}()

	if d.Closed() {
		return nil, documents.DraftClosed(ledger.KindPurchase)
	}

	errs := d.Validate()
	supplierName := ""
	if !id.IsNil(d.Header.SupplierID) && s.parties != nil {
		supplier, perr := s.parties.RequireSupplier(ctx, "supplierId", d.Header.SupplierID)
		switch {
		case apperror.IsValidation(perr):
			appErr, _ := apperror.AsAppError(perr)
			errs = append(errs, appErr)
		case perr != nil:
			return nil, documents.SubmissionFailure(ledger.KindPurchase, perr)
		default:
			supplierName = supplier.Name
		}
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	doc = d.build()
	doc.SupplierName = supplierName

	event := domain.BeforeCreate
	if !d.IsNew() {
		event = domain.BeforeUpdate
		audit.EnrichUpdated(ctx, &doc.BaseDocument)
	} else {
		audit.EnrichCreated(ctx, &doc.BaseDocument)
	}
	if err := s.hooks.Run(ctx, event, doc); err != nil {
		return nil, err
	}

	if doc.Number == "" {
		cfg := numerator.DefaultConfig(numerator.PrefixPurchase)
		number, err := s.numerator.GetNextNumber(ctx, cfg, &numerator.Options{Strategy: NumeratorStrategy}, doc.Date)
		if err != nil {
			return nil, documents.SubmissionFailure(ledger.KindPurchase, fmt.Errorf("generate number: %w", err))
		}
		doc.Number = number
		// A retried submission reuses the reserved number.
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
		return nil
	})
	if err != nil {
		return nil, documents.SubmissionFailure(ledger.KindPurchase, err)
	}

	d.closed = true

	after := domain.AfterCreate
	if action == audit.ActionResubmit {
		after = domain.AfterUpdate
	}
	if err := s.hooks.Run(ctx, after, doc); err != nil {
		logger.Warn(ctx, "after-submit hook failed", "id", doc.ID, "error", err)
	}
	s.logAudit(ctx, doc, action)

	logger.Info(ctx, "purchase submitted",
		"id", doc.ID,
		"number", doc.Number,
		"status", doc.Status,
		"total", doc.Total.StringFixed(2))

	return doc, nil
}

func (s *Service) logAudit(ctx context.Context, doc *Purchase, action audit.Action) {
	if s.audit == nil {
		return
	}
	changes := map[string]any{
		"number":   doc.Number,
		"status":   doc.Status,
		"supplier": doc.SupplierID,
		"lines":    doc.Lines,
		"subtotal": doc.Subtotal,
		"tax":      doc.Tax,
		"shipping": doc.ShippingFee,
		"total":    doc.Total,
	}
	s.logChange(ctx, doc.ID, action, changes)
}

// logChange writes the audit row after the change has committed. A failure is
// logged and does not undo the change.
func (s *Service) logChange(ctx context.Context, docID id.ID, action audit.Action, changes map[string]any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.LogChange(ctx, entityName, docID, action, changes); err != nil {
		logger.Warn(ctx, "audit log failed", "id", docID, "action", action, "error", err)
	}
}

// GetByID retrieves a purchase with lines.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*Purchase, error) {
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

// List retrieves purchases with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Purchase], error) {
	filter.Normalize()
	return s.repo.List(ctx, filter)
}

// Delete soft-deletes a purchase and takes its goods back out of stock.
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

// AddPayment records a payment to the supplier and updates the payment
// status. The amount may not exceed the balance due.
func (s *Service) AddPayment(ctx context.Context, docID id.ID, in documents.PaymentInput) (*Purchase, *documents.Payment, error) {
	if s.payments == nil {
		return nil, nil, apperror.NewInternal(fmt.Errorf("purchase payments are not configured"))
	}
	if err := in.Validate().Err(); err != nil {
		return nil, nil, err
	}

	var (
		doc     *Purchase
		payment *documents.Payment
	)
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.GetByID(ctx, docID)
		if err != nil {
			return err
		}
		if err := doc.CanModify(); err != nil {
			return err
		}
		if e := documents.CheckPaymentFits(doc.Total, doc.PaidAmount, in.Amount); e != nil {
			return apperror.ValidationErrors{e}.Err()
		}

		payment = documents.NewPayment(ledger.KindPurchase, doc.ID, in)
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
	logger.Info(ctx, "purchase payment recorded",
		"id", doc.ID,
		"amount", payment.Amount.StringFixed(2),
		"payment_status", doc.PaymentStatus)
	return doc, payment, nil
}

// Payments lists the payments made on a purchase, oldest first.
func (s *Service) Payments(ctx context.Context, docID id.ID) ([]*documents.Payment, error) {
	if s.payments == nil {
		return nil, apperror.NewInternal(fmt.Errorf("purchase payments are not configured"))
	}
	if _, err := s.repo.GetByID(ctx, docID); err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound(entityName, docID.String())
		}
		return nil, err
	}
	return s.payments.ListPayments(ctx, ledger.KindPurchase, docID)
}

// Receive marks a purchase received and brings the received quantities into
// stock.
func (s *Service) Receive(ctx context.Context, docID id.ID, in ReceiveInput) (*Purchase, error) {
	var doc *Purchase
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.GetByID(ctx, docID)
		if err != nil {
			return err
		}
		if err := doc.receive(in); err != nil {
			return err
		}
		audit.EnrichUpdated(ctx, &doc.BaseDocument)

		if err := s.repo.Update(ctx, doc); err != nil {
			return fmt.Errorf("update document: %w", err)
		}
		doc.Touch()
		if err := s.repo.SaveLines(ctx, doc.ID, doc.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}
		if s.stock != nil {
			if err := s.stock.Replace(ctx, doc.ID, doc.Movements()); err != nil {
				return fmt.Errorf("record stock: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	received := make(map[string]int, len(doc.Lines))
	for _, l := range doc.Lines {
		received[l.LineID.String()] = l.ReceivedQuantity
	}
	s.logChange(ctx, doc.ID, audit.ActionReceive, map[string]any{
		"actualDeliveryDate": doc.ActualDeliveryDate,
		"received":           received,
	})
	logger.Info(ctx, "purchase received", "id", doc.ID, "number", doc.Number)
	return doc, nil
}
