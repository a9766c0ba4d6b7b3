package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"tradedesk/internal/core/apperror"
	"tradedesk/internal/core/id"
	"tradedesk/internal/domain"
	"tradedesk/internal/domain/documents"
	"tradedesk/internal/domain/documents/invoice"
	"tradedesk/internal/domain/documents/sale"
	"tradedesk/internal/infrastructure/http/v1/dto"
)

// SaleService is the sale document service the handler drives.
type SaleService interface {
	NewDraft(ctx context.Context, productIDs ...id.ID) (*sale.Draft, error)
	Open(ctx context.Context, docID id.ID, extraProductIDs ...id.ID) (*sale.Draft, error)
	Submit(ctx context.Context, d *sale.Draft) (*sale.Sale, error)
	Resubmit(ctx context.Context, d *sale.Draft) (*sale.Sale, error)
	GetByID(ctx context.Context, docID id.ID) (*sale.Sale, error)
	List(ctx context.Context, filter sale.ListFilter) (domain.ListResult[*sale.Sale], error)
	Delete(ctx context.Context, docID id.ID) error

	AddPayment(ctx context.Context, docID id.ID, in documents.PaymentInput) (*sale.Sale, *documents.Payment, error)
	Payments(ctx context.Context, docID id.ID) ([]*documents.Payment, error)
	Deliver(ctx context.Context, docID id.ID, date *time.Time) (*sale.Sale, error)
}

// SaleInvoicer generates the invoice of a sale on request.
type SaleInvoicer interface {
	Generate(ctx context.Context, saleID id.ID) (*invoice.Invoice, error)
}

// SaleHandler serves sales orders.
type SaleHandler struct {
	*BaseHandler
	service  SaleService
	invoices SaleInvoicer
}

// NewSaleHandler creates the sale handler. invoices may be nil, which
// leaves POST /:id/invoice unregistered.
func NewSaleHandler(base *BaseHandler, service SaleService, invoices SaleInvoicer) *SaleHandler {
	return &SaleHandler{BaseHandler: base, service: service, invoices: invoices}
}

// Quote handles POST /documents/sales/quote.
// The draft is priced and validated but never stored.
func (h *SaleHandler) Quote(c *gin.Context) {
	var req dto.SaleRequest
	if !h.BindJSON(c, &req) {
		return
	}

	d, err := h.service.NewDraft(c.Request.Context(), req.ProductIDs()...)
	if err != nil {
		h.Error(c, err)
		return
	}
	errs := req.ApplyTo(d)
	errs = append(errs, d.Validate()...)

	h.OK(c, dto.NewQuoteResponse(d.Ledger(), errs))
}

// Create handles POST /documents/sales.
func (h *SaleHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.SaleRequest
	if !h.BindJSON(c, &req) {
		return
	}

	d, err := h.service.NewDraft(ctx, req.ProductIDs()...)
	if err != nil {
		h.Error(c, err)
		return
	}
	if errs := req.ApplyTo(d); len(errs) > 0 {
		h.Error(c, errs.Err())
		return
	}

	doc, err := h.service.Submit(ctx, d)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, dto.FromSale(doc))
}

// Update handles PUT /documents/sales/:id.
// The stored sale is reopened, edited and resubmitted.
func (h *SaleHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	docID, ok := h.ParamID(c)
	if !ok {
		return
	}

	var req dto.SaleRequest
	if !h.BindJSON(c, &req) {
		return
	}
	if req.Version < 1 {
		h.Error(c, apperror.NewFieldValidation("version", "version is required"))
		return
	}

	d, err := h.service.Open(ctx, docID, req.ProductIDs()...)
	if err != nil {
		h.Error(c, err)
		return
	}
	if d.Version() != req.Version {
		h.Error(c, apperror.NewConcurrentModification("sale", docID.String()).
			WithDetail("currentVersion", d.Version()))
		return
	}
	if errs := req.ApplyTo(d); len(errs) > 0 {
		h.Error(c, errs.Err())
		return
	}

	doc, err := h.service.Resubmit(ctx, d)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromSale(doc))
}

// Get handles GET /documents/sales/:id.
func (h *SaleHandler) Get(c *gin.Context) {
	docID, ok := h.ParamID(c)
	if !ok {
		return
	}

	doc, err := h.service.GetByID(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromSale(doc))
}

// List handles GET /documents/sales.
func (h *SaleHandler) List(c *gin.Context) {
	var q dto.SaleListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	filter, err := q.Filter()
	if err != nil {
		h.Error(c, err)
		return
	}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.NewListResponse(result, dto.FromSale))
}

// Delete handles DELETE /documents/sales/:id.
func (h *SaleHandler) Delete(c *gin.Context) {
	docID, ok := h.ParamID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), docID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// AddPayment handles POST /documents/sales/:id/payments.
func (h *SaleHandler) AddPayment(c *gin.Context) {
	docID, ok := h.ParamID(c)
	if !ok {
		return
	}

	var req dto.PaymentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	doc, payment, err := h.service.AddPayment(c.Request.Context(), docID, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, dto.PaymentResponse{Payment: payment, Document: dto.FromSale(doc)})
}

// Payments handles GET /documents/sales/:id/payments.
func (h *SaleHandler) Payments(c *gin.Context) {
	docID, ok := h.ParamID(c)
	if !ok {
		return
	}

	payments, err := h.service.Payments(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{"items": payments})
}

// Deliver handles POST /documents/sales/:id/deliver.
func (h *SaleHandler) Deliver(c *gin.Context) {
	docID, ok := h.ParamID(c)
	if !ok {
		return
	}

	var req dto.DeliverRequest
	if c.Request.ContentLength != 0 && !h.BindJSON(c, &req) {
		return
	}

	doc, err := h.service.Deliver(c.Request.Context(), docID, req.Date.Ptr())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromSale(doc))
}

// GenerateInvoice handles POST /documents/sales/:id/invoice.
func (h *SaleHandler) GenerateInvoice(c *gin.Context) {
	docID, ok := h.ParamID(c)
	if !ok {
		return
	}

	inv, err := h.invoices.Generate(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, dto.FromInvoice(inv))
}
