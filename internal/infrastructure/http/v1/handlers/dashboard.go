package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"tradedesk/internal/domain/ledger"
	"tradedesk/internal/domain/reports"
)

// ReportService is the dashboard report service.
type ReportService interface {
	Summary(ctx context.Context, kind ledger.Kind, days int) (*reports.Summary, error)
	OpenBalances(ctx context.Context, kind ledger.Kind, limit int) ([]reports.OpenBalance, error)
}

type summaryQuery struct {
	Days int `form:"days" binding:"omitempty,min=1"`
}

type openBalanceQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1"`
}

// DashboardHandler serves the dashboard summaries.
type DashboardHandler struct {
	*BaseHandler
	service ReportService
}

// NewDashboardHandler creates the dashboard handler.
func NewDashboardHandler(base *BaseHandler, service ReportService) *DashboardHandler {
	return &DashboardHandler{BaseHandler: base, service: service}
}

// SalesSummary handles GET /dashboard/sales-summary.
func (h *DashboardHandler) SalesSummary(c *gin.Context) {
	h.summary(c, ledger.KindSale)
}

// PurchasesSummary handles GET /dashboard/purchases-summary.
func (h *DashboardHandler) PurchasesSummary(c *gin.Context) {
	h.summary(c, ledger.KindPurchase)
}

// SupplierPayments handles GET /dashboard/supplier-payments.
func (h *DashboardHandler) SupplierPayments(c *gin.Context) {
	h.openBalances(c, ledger.KindPurchase)
}

// CustomerPayments handles GET /dashboard/customer-payments.
func (h *DashboardHandler) CustomerPayments(c *gin.Context) {
	h.openBalances(c, ledger.KindSale)
}

func (h *DashboardHandler) summary(c *gin.Context, kind ledger.Kind) {
	var q summaryQuery
	if !h.BindQuery(c, &q) {
		return
	}

	summary, err := h.service.Summary(c.Request.Context(), kind, q.Days)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, summary)
}

func (h *DashboardHandler) openBalances(c *gin.Context, kind ledger.Kind) {
	var q openBalanceQuery
	if !h.BindQuery(c, &q) {
		return
	}

	rows, err := h.service.OpenBalances(c.Request.Context(), kind, q.Limit)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{"items": rows})
}
