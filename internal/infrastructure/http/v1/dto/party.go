package dto

import (
	"tradedesk/internal/domain/catalogs/party"
)

// CreatePartyRequest is the request body for creating a supplier or customer.
type CreatePartyRequest struct {
	Code         string     `json:"code"`
	Name         string     `json:"name" binding:"required"`
	Role         party.Role `json:"role" binding:"required,oneof=supplier customer both"`
	Country      *string    `json:"country"`
	ContactName  *string    `json:"contactName"`
	Email        *string    `json:"email"`
	Phone        *string    `json:"phone"`
	Address      *string    `json:"address"`
	PaymentTerms *string    `json:"paymentTerms"`
	Notes        *string    `json:"notes"`
}

// ToEntity converts DTO to domain entity.
func (r *CreatePartyRequest) ToEntity() *party.Party {
	p := party.NewParty(r.Code, r.Name, r.Role)
	p.Country = r.Country
	p.ContactName = r.ContactName
	p.Email = r.Email
	p.Phone = r.Phone
	p.Address = r.Address
	p.PaymentTerms = r.PaymentTerms
	p.Notes = r.Notes
	return p
}

// UpdatePartyRequest is the request body for updating a party.
type UpdatePartyRequest struct {
	CreatePartyRequest
	Code    string `json:"code" binding:"required"`
	Version int    `json:"version" binding:"required,min=1"`
}

// ApplyTo applies update DTO to existing entity.
func (r *UpdatePartyRequest) ApplyTo(p *party.Party) {
	p.Code = r.Code
	p.Name = r.Name
	p.Role = r.Role
	p.Country = r.Country
	p.ContactName = r.ContactName
	p.Email = r.Email
	p.Phone = r.Phone
	p.Address = r.Address
	p.PaymentTerms = r.PaymentTerms
	p.Notes = r.Notes
	p.Version = r.Version
}

// PartyResponse is a party as returned by the API.
type PartyResponse struct {
	*party.Party
	IsSupplier bool `json:"isSupplier"`
	IsCustomer bool `json:"isCustomer"`
}

// FromParty converts entity to response DTO.
func FromParty(p *party.Party) PartyResponse {
	return PartyResponse{Party: p, IsSupplier: p.IsSupplier(), IsCustomer: p.IsCustomer()}
}
