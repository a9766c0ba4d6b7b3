package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"tradedesk/internal/core/apperror"
	"tradedesk/internal/core/id"
	"tradedesk/internal/domain"
	"tradedesk/internal/domain/documents"
	"tradedesk/internal/domain/documents/purchase"
	"tradedesk/internal/infrastructure/http/v1/dto"
)

// PurchaseService is the purchase document service the handler drives.
type PurchaseService interface {
	NewDraft(ctx context.Context, productIDs ...id.ID) (*purchase.Draft, error)
	Open(ctx context.Context, docID id.ID, extraProductIDs ...id.ID) (*purchase.Draft, error)
	Submit(ctx context.Context, d *purchase.Draft) (*purchase.Purchase, error)
	Resubmit(ctx context.Context, d *purchase.Draft) (*purchase.Purchase, error)
	GetByID(ctx context.Context, docID id.ID) (*purchase.Purchase, error)
	List(ctx context.Context, filter purchase.ListFilter) (domain.ListResult[*purchase.Purchase], error)
	Delete(ctx context.Context, docID id.ID) error

	AddPayment(ctx context.Context, docID id.ID, in documents.PaymentInput) (*purchase.Purchase, *documents.Payment, error)
	Payments(ctx context.Context, docID id.ID) ([]*documents.Payment, error)
	Receive(ctx context.Context, docID id.ID, in purchase.ReceiveInput) (*purchase.Purchase, error)
}

// PurchaseHandler serves purchase orders.
type PurchaseHandler struct {
	*BaseHandler
	service PurchaseService
}

// NewPurchaseHandler creates the purchase handler.
func NewPurchaseHandler(base *BaseHandler, service PurchaseService) *PurchaseHandler {
	return &PurchaseHandler{BaseHandler: base, service: service}
}

// Quote handles POST /documents/purchases/quote.
// The draft is priced and validated but never stored.
func (h *PurchaseHandler) Quote(c *gin.Context) {
	var req dto.PurchaseRequest
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

// Create handles POST /documents/purchases.
func (h *PurchaseHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.PurchaseRequest
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

	h.Created(c, dto.FromPurchase(doc))
}

// Update handles PUT /documents/purchases/:id.
// The stored purchase is reopened, edited and resubmitted.
func (h *PurchaseHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	docID, ok := h.ParamID(c)
	if !ok {
		return
	}

	var req dto.PurchaseRequest
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
		h.Error(c, apperror.NewConcurrentModification("purchase", docID.String()).
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

	h.OK(c, dto.FromPurchase(doc))
}

// Get handles GET /documents/purchases/:id.
func (h *PurchaseHandler) Get(c *gin.Context) {
	docID, ok := h.ParamID(c)
	if !ok {
		return
	}

	doc, err := h.service.GetByID(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromPurchase(doc))
}

// List handles GET /documents/purchases.
func (h *PurchaseHandler) List(c *gin.Context) {
	var q dto.PurchaseListQuery
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

	h.OK(c, dto.NewListResponse(result, dto.FromPurchase))
}

// Delete handles DELETE /documents/purchases/:id.
func (h *PurchaseHandler) Delete(c *gin.Context) {
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

// AddPayment handles POST /documents/purchases/:id/payments.
func (h *PurchaseHandler) AddPayment(c *gin.Context) {
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

	h.Created(c, dto.PaymentResponse{Payment: payment, Document: dto.FromPurchase(doc)})
}

// Payments handles GET /documents/purchases/:id/payments.
func (h *PurchaseHandler) Payments(c *gin.Context) {
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

// Receive handles POST /documents/purchases/:id/receive.
func (h *PurchaseHandler) Receive(c *gin.Context) {
	docID, ok := h.ParamID(c)
	if !ok {
		return
	}

	var req dto.ReceiveRequest
	if c.Request.ContentLength != 0 && !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	doc, err := h.service.Receive(c.Request.Context(), docID, in)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromPurchase(doc))
}
