package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"tradedesk/internal/core/id"
	"tradedesk/internal/domain"
	"tradedesk/internal/domain/documents/invoice"
	"tradedesk/internal/infrastructure/http/v1/dto"
)

// InvoiceService is the invoice service the handler drives.
type InvoiceService interface {
	SaleInvoicer
	GetByID(ctx context.Context, invoiceID id.ID) (*invoice.Invoice, error)
	List(ctx context.Context, filter invoice.ListFilter) (domain.ListResult[*invoice.Invoice], error)
	MarkSent(ctx context.Context, invoiceID id.ID) (*invoice.Invoice, error)
	MarkPaid(ctx context.Context, invoiceID id.ID) (*invoice.Invoice, error)
	Cancel(ctx context.Context, invoiceID id.ID) (*invoice.Invoice, error)
}

// InvoiceHandler serves invoices.
type InvoiceHandler struct {
	*BaseHandler
	service InvoiceService
}

// NewInvoiceHandler creates the invoice handler.
func NewInvoiceHandler(base *BaseHandler, service InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{BaseHandler: base, service: service}
}

// List handles GET /documents/invoices.
func (h *InvoiceHandler) List(c *gin.Context) {
	var q dto.InvoiceListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	filter, err := q.Filter(time.Now())
	if err != nil {
		h.Error(c, err)
		return
	}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.NewListResponse(result, dto.FromInvoice))
}

// Get handles GET /documents/invoices/:id.
func (h *InvoiceHandler) Get(c *gin.Context) {
	invoiceID, ok := h.ParamID(c)
	if !ok {
		return
	}

	inv, err := h.service.GetByID(c.Request.Context(), invoiceID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromInvoice(inv))
}

// MarkSent handles POST /documents/invoices/:id/mark-sent.
func (h *InvoiceHandler) MarkSent(c *gin.Context) {
	h.transition(c, h.service.MarkSent)
}

// MarkPaid handles POST /documents/invoices/:id/mark-paid.
func (h *InvoiceHandler) MarkPaid(c *gin.Context) {
	h.transition(c, h.service.MarkPaid)
}

// Cancel handles POST /documents/invoices/:id/cancel.
func (h *InvoiceHandler) Cancel(c *gin.Context) {
	h.transition(c, h.service.Cancel)
}

func (h *InvoiceHandler) transition(c *gin.Context, fn func(context.Context, id.ID) (*invoice.Invoice, error)) {
	invoiceID, ok := h.ParamID(c)
	if !ok {
		return
	}

	inv, err := fn(c.Request.Context(), invoiceID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromInvoice(inv))
}
