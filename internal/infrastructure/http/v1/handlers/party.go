package handlers

import (
	"tradedesk/internal/domain/catalogs/party"
	"tradedesk/internal/infrastructure/http/v1/dto"
)

// PartyHTTPHandler serves suppliers and customers.
type PartyHTTPHandler = CatalogHandler[
	*party.Party,
	dto.CreatePartyRequest,
	dto.UpdatePartyRequest,
]

// NewPartyHandler creates the party handler.
func NewPartyHandler(base *BaseHandler, service *party.Service) *PartyHTTPHandler {
	config := CatalogHandlerConfig[*party.Party, dto.CreatePartyRequest, dto.UpdatePartyRequest]{
		Service: service,
		MapCreateDTO: func(req dto.CreatePartyRequest) *party.Party {
			return req.ToEntity()
		},
		MapUpdateDTO: func(req dto.UpdatePartyRequest, existing *party.Party) *party.Party {
			req.ApplyTo(existing)
			return existing
		},
		MapToDTO: func(entity *party.Party) any {
			return dto.FromParty(entity)
		},
	}

	return NewCatalogHandler(base, config)
}
