package handlers

import (
	"github.com/gin-gonic/gin"

	"tradedesk/internal/domain/catalogs/product"
	"tradedesk/internal/domain/ledger"
	"tradedesk/internal/infrastructure/http/v1/dto"
)

// ProductHTTPHandler serves the product catalog.
type ProductHTTPHandler struct {
	*CatalogHandler[*product.Product, dto.CreateProductRequest, dto.UpdateProductRequest]
	service *product.Service
}

// NewProductHandler creates the product handler.
func NewProductHandler(base *BaseHandler, service *product.Service) *ProductHTTPHandler {
	config := CatalogHandlerConfig[*product.Product, dto.CreateProductRequest, dto.UpdateProductRequest]{
		Service: service,
		MapCreateDTO: func(req dto.CreateProductRequest) *product.Product {
			return req.ToEntity()
		},
		MapUpdateDTO: func(req dto.UpdateProductRequest, existing *product.Product) *product.Product {
			req.ApplyTo(existing)
			return existing
		},
		MapToDTO: func(entity *product.Product) any {
			return dto.FromProduct(entity)
		},
	}

	return &ProductHTTPHandler{
		CatalogHandler: NewCatalogHandler(base, config),
		service:        service,
	}
}

// LowStock handles GET /catalog/products/low-stock.
func (h *ProductHTTPHandler) LowStock(c *gin.Context) {
	var q dto.ListQuery
	if !h.BindQuery(c, &q) {
		return
	}

	result, err := h.service.FindLowStock(c.Request.Context(), q.Filter())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.NewListResponse(result, dto.FromProduct))
}

type priceListQuery struct {
	Kind string `form:"kind" binding:"required,oneof=purchase sale"`
}

// PriceList handles GET /catalog/products/price-list?kind=purchase|sale.
func (h *ProductHTTPHandler) PriceList(c *gin.Context) {
	var q priceListQuery
	if !h.BindQuery(c, &q) {
		return
	}

	entries, err := h.service.PriceList(c.Request.Context(), ledger.Kind(q.Kind))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"kind": q.Kind, "items": entries})
}
