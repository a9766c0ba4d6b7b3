package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradedesk/internal/core/apperror"
	"tradedesk/internal/core/entity"
	"tradedesk/internal/core/id"
	"tradedesk/internal/domain"
	"tradedesk/internal/domain/documents"
	"tradedesk/internal/domain/documents/invoice"
	"tradedesk/internal/domain/documents/sale"
	"tradedesk/internal/domain/ledger"
)

type fakeSaleService struct {
	catalog   ledger.StaticCatalog
	settings  ledger.Settings
	stored    map[id.ID]*sale.Sale
	payments  []*documents.Payment
	submitted int
}

func newFakeSaleService(entries ...ledger.CatalogEntry) *fakeSaleService {
	return &fakeSaleService{
		catalog:  ledger.NewStaticCatalog(entries...),
		settings: ledger.Settings{TaxRate: decimal.RequireFromString("0.20"), ShippingFee: decimal.NewFromInt(15)},
		stored:   map[id.ID]*sale.Sale{},
	}
}

func (f *fakeSaleService) NewDraft(_ context.Context, _ ...id.ID) (*sale.Draft, error) {
	return sale.NewDraft(f.catalog, f.settings)
}

func (f *fakeSaleService) Open(_ context.Context, docID id.ID, _ ...id.ID) (*sale.Draft, error) {
	s, ok := f.stored[docID]
	if !ok {
		return nil, apperror.NewNotFound("sale", docID.String())
	}
	return sale.OpenDraft(s, f.catalog)
}

func (f *fakeSaleService) Submit(_ context.Context, d *sale.Draft) (*sale.Sale, error) {
	return f.store(d)
}

func (f *fakeSaleService) Resubmit(_ context.Context, d *sale.Draft) (*sale.Sale, error) {
	return f.store(d)
}

func (f *fakeSaleService) store(d *sale.Draft) (*sale.Sale, error) {
	if err := d.Validate().Err(); err != nil {
		return nil, err
	}
	f.submitted++

	s := &sale.Sale{Document: entity.NewDocument()}
	s.ID = d.DocumentID()
	s.Version = d.Version() + 1
	s.Number = "SO-000001"
	s.Date = d.Header.Date
	s.CustomerID = d.Header.CustomerID
	s.Status = d.Header.Status
	if prev, ok := f.stored[s.ID]; ok {
		s.PaidAmount = prev.PaidAmount
	}

	l := d.Ledger()
	totals := l.ComputeTotals()
	s.TaxRate = l.TaxRate()
	s.Subtotal = totals.Subtotal
	s.Tax = totals.Tax
	s.ShippingFee = totals.Shipping
	s.Discount = totals.Discount
	s.Total = totals.Total
	s.PaymentStatus = documents.StatusForPaid(s.Total, s.PaidAmount)
	for i, it := range l.Items() {
		s.Lines = append(s.Lines, sale.Line{
			LineID:      it.ID,
			LineNo:      i + 1,
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Amount:      it.LineTotal,
		})
	}
	f.stored[s.ID] = s
	return s, nil
}

func (f *fakeSaleService) GetByID(_ context.Context, docID id.ID) (*sale.Sale, error) {
	s, ok := f.stored[docID]
	if !ok {
		return nil, apperror.NewNotFound("sale", docID.String())
	}
	return s, nil
}

func (f *fakeSaleService) List(_ context.Context, _ sale.ListFilter) (domain.ListResult[*sale.Sale], error) {
	items := make([]*sale.Sale, 0, len(f.stored))
	for _, s := range f.stored {
		items = append(items, s)
	}
	return domain.ListResult[*sale.Sale]{Items: items, TotalCount: int64(len(items))}, nil
}

func (f *fakeSaleService) Delete(_ context.Context, docID id.ID) error {
	if _, ok := f.stored[docID]; !ok {
		return apperror.NewNotFound("sale", docID.String())
	}
	delete(f.stored, docID)
	return nil
}

func (f *fakeSaleService) AddPayment(_ context.Context, docID id.ID, in documents.PaymentInput) (*sale.Sale, *documents.Payment, error) {
	s, ok := f.stored[docID]
	if !ok {
		return nil, nil, apperror.NewNotFound("sale", docID.String())
	}
	if err := in.Validate().Err(); err != nil {
		return nil, nil, err
	}
	if appErr := documents.CheckPaymentFits(s.Total, s.PaidAmount, in.Amount); appErr != nil {
		return nil, nil, apperror.ValidationErrors{appErr}.Err()
	}
	p := documents.NewPayment(ledger.KindSale, docID, in)
	s.PaidAmount = s.PaidAmount.Add(in.Amount)
	s.PaymentStatus = documents.StatusForPaid(s.Total, s.PaidAmount)
	f.payments = append(f.payments, p)
	return s, p, nil
}

func (f *fakeSaleService) Payments(_ context.Context, docID id.ID) ([]*documents.Payment, error) {
	if _, ok := f.stored[docID]; !ok {
		return nil, apperror.NewNotFound("sale", docID.String())
	}
	return f.payments, nil
}

func (f *fakeSaleService) Deliver(_ context.Context, docID id.ID, date *time.Time) (*sale.Sale, error) {
	s, ok := f.stored[docID]
	if !ok {
		return nil, apperror.NewNotFound("sale", docID.String())
	}
	if s.Status == sale.StatusDelivered {
		return nil, apperror.NewBusinessRule(apperror.CodeBusinessRule, "sale is already delivered")
	}
	day := documents.Today()
	if date != nil {
		day = *date
	}
	s.Status = sale.StatusDelivered
	s.ActualDeliveryDate = &day
	return s, nil
}

type fakeInvoicer struct {
	generated []id.ID
}

func (f *fakeInvoicer) Generate(_ context.Context, saleID id.ID) (*invoice.Invoice, error) {
	for _, prev := range f.generated {
		if prev == saleID {
			return nil, apperror.NewConflict("invoice already exists for this sale")
		}
	}
	f.generated = append(f.generated, saleID)
	inv := &invoice.Invoice{Document: entity.NewDocument(), SaleID: saleID, Status: invoice.StatusDraft}
	inv.Number = "INV-00001"
	inv.DueDate = documents.Today().AddDate(0, 0, invoice.DefaultTermDays)
	return inv, nil
}

var (
	headphones = ledger.CatalogEntry{ProductID: id.New(), Name: "Headphones", Price: decimal.RequireFromString("149.99")}
	cable      = ledger.CatalogEntry{ProductID: id.New(), Name: "Cable", Price: decimal.RequireFromString("49.99")}
)

func saleRouter(svc SaleService) http.Handler {
	return saleRouterWithInvoices(svc, &fakeInvoicer{})
}

func saleRouterWithInvoices(svc SaleService, invoices SaleInvoicer) http.Handler {
	r := newTestRouter()
	h := NewSaleHandler(NewBaseHandler(), svc, invoices)
	g := r.Group("/sales")
	g.POST("/quote", h.Quote)
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	g.GET("/:id/payments", h.Payments)
	g.POST("/:id/payments", h.AddPayment)
	g.POST("/:id/deliver", h.Deliver)
	g.POST("/:id/invoice", h.GenerateInvoice)
	return r
}

func sampleSale(customerID id.ID) map[string]any {
	return map[string]any{
		"customerId": customerID.String(),
		"lines": []map[string]any{
			{"productId": headphones.ProductID.String(), "quantity": 1},
			{"productId": cable.ProductID.String(), "quantity": 2, "unitPrice": "49.99"},
		},
		"shippingFee": "15",
		"discount":    "10",
		"taxRate":     "0.20",
	}
}

func TestSaleHandler_Quote(t *testing.T) {
	svc := newFakeSaleService(headphones, cable)
	rec := doJSON(saleRouter(svc), http.MethodPost, "/sales/quote", sampleSale(id.New()))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, true, body["valid"])
	assert.Equal(t, map[string]any{
		"subtotal": "249.97",
		"tax":      "49.99",
		"shipping": "15.00",
		"discount": "10.00",
		"total":    "304.96",
	}, body["totals"])
	assert.Len(t, body["items"], 2)
	assert.Zero(t, svc.submitted)
}

func TestSaleHandler_QuoteReportsErrorsWithoutFailing(t *testing.T) {
	svc := newFakeSaleService(headphones)
	req := map[string]any{
		"lines": []map[string]any{
			{"productId": headphones.ProductID.String(), "quantity": 0},
		},
	}

	rec := doJSON(saleRouter(svc), http.MethodPost, "/sales/quote", req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, false, body["valid"])
	assert.NotEmpty(t, body["errors"])
}

func TestSaleHandler_Create(t *testing.T) {
	svc := newFakeSaleService(headphones, cable)
	rec := doJSON(saleRouter(svc), http.MethodPost, "/sales", sampleSale(id.New()))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, "SO-000001", body["number"])
	assert.Equal(t, "304.96", body["total"])
	assert.Equal(t, false, body["isOverdue"])
	assert.Equal(t, 1, svc.submitted)
}

func TestSaleHandler_CreateReportsLineErrors(t *testing.T) {
	svc := newFakeSaleService(headphones)
	req := map[string]any{
		"customerId": id.New().String(),
		"lines": []map[string]any{
			{"productId": headphones.ProductID.String(), "quantity": 1},
			{"productId": id.New().String(), "quantity": 1},
			{"productId": headphones.ProductID.String(), "quantity": -1, "unitPrice": "5"},
		},
	}

	rec := doJSON(saleRouter(svc), http.MethodPost, "/sales", req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, apperror.CodeValidation, body["code"])
	fields := errorFields(t, body)
	assert.Contains(t, fields, "lines[1].productId")
	assert.Contains(t, fields, "lines[2].quantity")
	assert.Zero(t, svc.submitted)
}

func TestSaleHandler_CreateRejectsDiscountAboveTotal(t *testing.T) {
	svc := newFakeSaleService(cable)
	req := map[string]any{
		"customerId": id.New().String(),
		"lines":      []map[string]any{{"productId": cable.ProductID.String(), "quantity": 1}},
		"discount":   "1000",
	}

	rec := doJSON(saleRouter(svc), http.MethodPost, "/sales", req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, errorFields(t, decode(t, rec)), ledger.FieldDiscount)
}

func TestSaleHandler_CreateRejectsMalformedBody(t *testing.T) {
	rec := doJSON(saleRouter(newFakeSaleService()), http.MethodPost, "/sales", `{"lines": 5`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSaleHandler_Update(t *testing.T) {
	svc := newFakeSaleService(headphones, cable)
	r := saleRouter(svc)

	created := decode(t, doJSON(r, http.MethodPost, "/sales", sampleSale(id.New())))
	docID := created["id"].(string)
	lines := created["lines"].([]any)
	keep := lines[0].(map[string]any)

	update := map[string]any{
		"version": 1,
		"lines": []map[string]any{
			{"id": keep["lineId"], "productId": keep["productId"], "quantity": 3},
		},
	}
	rec := doJSON(r, http.MethodPut, "/sales/"+docID, update)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, float64(2), body["version"])
	require.Len(t, body["lines"], 1)
	assert.Equal(t, keep["lineId"], body["lines"].([]any)[0].(map[string]any)["lineId"])
	// 3 × 149.99 = 449.97, tax 89.99, shipping 15, discount 10
	assert.Equal(t, "544.96", body["total"])
}

func TestSaleHandler_UpdateStaleVersion(t *testing.T) {
	svc := newFakeSaleService(headphones, cable)
	r := saleRouter(svc)

	created := decode(t, doJSON(r, http.MethodPost, "/sales", sampleSale(id.New())))
	update := sampleSale(id.New())
	update["version"] = 7

	rec := doJSON(r, http.MethodPut, "/sales/"+created["id"].(string), update)

	require.Equal(t, http.StatusConflict, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, apperror.CodeConcurrentModification, body["code"])
	assert.Equal(t, float64(1), body["details"].(map[string]any)["currentVersion"])
}

func TestSaleHandler_UpdateRequiresVersion(t *testing.T) {
	svc := newFakeSaleService(headphones, cable)
	r := saleRouter(svc)
	created := decode(t, doJSON(r, http.MethodPost, "/sales", sampleSale(id.New())))

	rec := doJSON(r, http.MethodPut, "/sales/"+created["id"].(string), sampleSale(id.New()))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSaleHandler_GetAndDelete(t *testing.T) {
	svc := newFakeSaleService(headphones, cable)
	r := saleRouter(svc)
	created := decode(t, doJSON(r, http.MethodPost, "/sales", sampleSale(id.New())))
	path := "/sales/" + created["id"].(string)

	assert.Equal(t, http.StatusOK, doJSON(r, http.MethodGet, path, nil).Code)
	assert.Equal(t, http.StatusNoContent, doJSON(r, http.MethodDelete, path, nil).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(r, http.MethodGet, path, nil).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(r, http.MethodGet, "/sales/not-an-id", nil).Code)
}

func TestSaleHandler_List(t *testing.T) {
	svc := newFakeSaleService(headphones, cable)
	r := saleRouter(svc)
	doJSON(r, http.MethodPost, "/sales", sampleSale(id.New()))

	rec := doJSON(r, http.MethodGet, "/sales?limit=10", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, float64(1), body["totalCount"])
	assert.Len(t, body["items"], 1)

	rec = doJSON(r, http.MethodGet, "/sales?dateFrom=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSaleHandler_AddPayment(t *testing.T) {
	svc := newFakeSaleService(headphones, cable)
	r := saleRouter(svc)
	created := decode(t, doJSON(r, http.MethodPost, "/sales", sampleSale(id.New())))
	path := "/sales/" + created["id"].(string) + "/payments"
	assert.Equal(t, "unpaid", created["paymentStatus"])
	assert.Equal(t, "304.96", created["balanceDue"])

	rec := doJSON(r, http.MethodPost, path, map[string]any{"amount": "100", "method": "cash", "date": "2026-03-05"})

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decode(t, rec)
	doc := body["document"].(map[string]any)
	assert.Equal(t, "partial", doc["paymentStatus"])
	assert.Equal(t, "100", doc["paidAmount"])
	assert.Equal(t, "204.96", doc["balanceDue"])
	payment := body["payment"].(map[string]any)
	assert.Equal(t, "cash", payment["method"])

	rec = doJSON(r, http.MethodPost, path, map[string]any{"amount": "204.97", "method": "cash"})
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.Equal(t, []string{"amount"}, errorFields(t, decode(t, rec)))

	rec = doJSON(r, http.MethodPost, path, map[string]any{"amount": "-5"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	fields := errorFields(t, decode(t, rec))
	assert.Contains(t, fields, "amount")
	assert.Contains(t, fields, "method")

	rec = doJSON(r, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["items"], 1)
}

func TestSaleHandler_Deliver(t *testing.T) {
	svc := newFakeSaleService(headphones, cable)
	r := saleRouter(svc)
	created := decode(t, doJSON(r, http.MethodPost, "/sales", sampleSale(id.New())))
	path := "/sales/" + created["id"].(string) + "/deliver"

	rec := doJSON(r, http.MethodPost, path, map[string]any{"date": "2026-03-07"})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, "delivered", body["status"])
	assert.Contains(t, body["actualDeliveryDate"], "2026-03-07")

	rec = doJSON(r, http.MethodPost, path, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = doJSON(r, http.MethodPost, "/sales/"+id.New().String()+"/deliver", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSaleHandler_GenerateInvoice(t *testing.T) {
	svc := newFakeSaleService(headphones, cable)
	invoices := &fakeInvoicer{}
	r := saleRouterWithInvoices(svc, invoices)
	created := decode(t, doJSON(r, http.MethodPost, "/sales", sampleSale(id.New())))
	path := "/sales/" + created["id"].(string) + "/invoice"

	rec := doJSON(r, http.MethodPost, path, nil)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, "INV-00001", body["number"])
	assert.Equal(t, "draft", body["status"])
	assert.Equal(t, false, body["isOverdue"])

	assert.Equal(t, http.StatusConflict, doJSON(r, http.MethodPost, path, nil).Code)
	assert.Len(t, invoices.generated, 1)
}
