package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"tradedesk/internal/core/apperror"
	"tradedesk/internal/core/id"
	"tradedesk/internal/domain/registers/stock"
	"tradedesk/internal/infrastructure/http/v1/dto"
)

// StockService exposes the stock register.
type StockService interface {
	Enter(ctx context.Context, entry stock.Entry) (stock.Movement, error)
	Balance(ctx context.Context, productID id.ID) (stock.Balance, error)
	History(ctx context.Context, productID id.ID, filter stock.MovementFilter) ([]stock.Movement, error)
}

// StockHandler serves stock balances and movement history.
type StockHandler struct {
	*BaseHandler
	service StockService
}

// NewStockHandler creates the stock handler.
func NewStockHandler(base *BaseHandler, service StockService) *StockHandler {
	return &StockHandler{BaseHandler: base, service: service}
}

// Balance handles GET /registers/stock/:productId/balance.
func (h *StockHandler) Balance(c *gin.Context) {
	productID, ok := h.ParamIDNamed(c, "productId")
	if !ok {
		return
	}

	balance, err := h.service.Balance(c.Request.Context(), productID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, balance)
}

// Enter handles POST /registers/stock/entries.
func (h *StockHandler) Enter(c *gin.Context) {
	var req dto.StockEntryRequest
	if !h.BindJSON(c, &req) {
		return
	}
	entry, err := req.ToEntry()
	if err != nil {
		h.Error(c, err)
		return
	}

	movement, err := h.service.Enter(c.Request.Context(), entry)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, movement)
}

type movementQuery struct {
	RecordType string `form:"recordType" binding:"omitempty,oneof=receipt expense adjustment"`
	DateFrom   string `form:"dateFrom"`
	DateTo     string `form:"dateTo"`
	Limit      int    `form:"limit" binding:"omitempty,min=1,max=500"`
	Offset     int    `form:"offset" binding:"omitempty,min=0"`
}

// History handles GET /registers/stock/:productId/movements.
func (h *StockHandler) History(c *gin.Context) {
	productID, ok := h.ParamIDNamed(c, "productId")
	if !ok {
		return
	}

	var q movementQuery
	if !h.BindQuery(c, &q) {
		return
	}

	filter := stock.MovementFilter{Limit: q.Limit, Offset: q.Offset}
	if q.RecordType != "" {
		rt := stock.RecordType(q.RecordType)
		filter.RecordType = &rt
	}
	var errs apperror.ValidationErrors
	filter.FromDate = parseQueryDate(&errs, "dateFrom", q.DateFrom)
	filter.ToDate = parseQueryDate(&errs, "dateTo", q.DateTo)
	if err := errs.Err(); err != nil {
		h.Error(c, err)
		return
	}

	movements, err := h.service.History(c.Request.Context(), productID, filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"items": movements})
}

func parseQueryDate(errs *apperror.ValidationErrors, field, raw string) *time.Time {
	if raw == "" {
		return nil
	}
	t, err := dto.ParseDate(raw)
	if err != nil {
		*errs = append(*errs, apperror.NewFieldValidation(field, err.Error()))
		return nil
	}
	return &t
}
