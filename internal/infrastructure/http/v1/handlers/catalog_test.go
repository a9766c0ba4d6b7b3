package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradedesk/internal/core/apperror"
	"tradedesk/internal/core/id"
	"tradedesk/internal/domain"
	"tradedesk/internal/domain/catalogs/party"
	"tradedesk/internal/infrastructure/http/v1/dto"
)

type memoryParties struct {
	items map[id.ID]*party.Party
}

func (m *memoryParties) List(context.Context, domain.ListFilter) (domain.ListResult[*party.Party], error) {
	out := make([]*party.Party, 0, len(m.items))
	for _, p := range m.items {
		out = append(out, p)
	}
	return domain.ListResult[*party.Party]{Items: out, TotalCount: int64(len(out))}, nil
}

func (m *memoryParties) GetByID(_ context.Context, partyID id.ID) (*party.Party, error) {
	p, ok := m.items[partyID]
	if !ok {
		return nil, apperror.NewNotFound("party", partyID.String())
	}
	cp := *p
	return &cp, nil
}

func (m *memoryParties) Create(ctx context.Context, p *party.Party) error {
	if err := p.Validate(ctx); err != nil {
		return err
	}
	m.items[p.ID] = p
	return nil
}

func (m *memoryParties) Update(_ context.Context, p *party.Party) error {
	stored, ok := m.items[p.ID]
	if !ok {
		return apperror.NewNotFound("party", p.ID.String())
	}
	if stored.Version != p.Version {
		return apperror.NewConcurrentModification("party", p.ID.String())
	}
	p.Version++
	m.items[p.ID] = p
	return nil
}

func (m *memoryParties) Delete(_ context.Context, partyID id.ID) error {
	if _, ok := m.items[partyID]; !ok {
		return apperror.NewNotFound("party", partyID.String())
	}
	delete(m.items, partyID)
	return nil
}

func partyRouter(svc CatalogService[*party.Party]) http.Handler {
	h := NewCatalogHandler(NewBaseHandler(), CatalogHandlerConfig[*party.Party, dto.CreatePartyRequest, dto.UpdatePartyRequest]{
		Service:      svc,
		MapCreateDTO: func(req dto.CreatePartyRequest) *party.Party { return req.ToEntity() },
		MapUpdateDTO: func(req dto.UpdatePartyRequest, existing *party.Party) *party.Party {
			req.ApplyTo(existing)
			return existing
		},
		MapToDTO: func(p *party.Party) any { return dto.FromParty(p) },
	})

	r := newTestRouter()
	r.GET("/parties", h.List)
	r.POST("/parties", h.Create)
	r.GET("/parties/:id", h.Get)
	r.PUT("/parties/:id", h.Update)
	r.DELETE("/parties/:id", h.Delete)
	return r
}

func TestCatalogHandler_CRUD(t *testing.T) {
	svc := &memoryParties{items: map[id.ID]*party.Party{}}
	r := partyRouter(svc)

	rec := doJSON(r, http.MethodPost, "/parties", map[string]any{
		"code": "SUP-1", "name": "Acme Supplies", "role": "supplier",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode(t, rec)
	assert.Equal(t, true, created["isSupplier"])
	assert.Equal(t, false, created["isCustomer"])
	path := "/parties/" + created["id"].(string)

	rec = doJSON(r, http.MethodPut, path, map[string]any{
		"code": "SUP-1", "name": "Acme Supplies", "role": "both", "version": 1,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode(t, rec)
	assert.Equal(t, true, updated["isCustomer"])
	assert.Equal(t, float64(2), updated["version"])

	rec = doJSON(r, http.MethodPut, path, map[string]any{
		"code": "SUP-1", "name": "Stale", "role": "both", "version": 1,
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	list := decode(t, doJSON(r, http.MethodGet, "/parties", nil))
	assert.Equal(t, float64(1), list["totalCount"])

	assert.Equal(t, http.StatusNoContent, doJSON(r, http.MethodDelete, path, nil).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(r, http.MethodGet, path, nil).Code)
}

func TestCatalogHandler_CreateRejectsUnknownRole(t *testing.T) {
	r := partyRouter(&memoryParties{items: map[id.ID]*party.Party{}})

	rec := doJSON(r, http.MethodPost, "/parties", map[string]any{"name": "Acme", "role": "vendor"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, apperror.CodeValidation, decode(t, rec)["code"])
}
