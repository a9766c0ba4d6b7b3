package catalog_repo

import (
	"tradedesk/internal/domain/catalogs/party"
	"tradedesk/internal/infrastructure/storage/postgres"
)

const partyTable = "cat_parties"

// PartyRepo implements party.Repository for suppliers and customers.
type PartyRepo struct {
	*BaseCatalogRepo[*party.Party]
}

var _ party.Repository = (*PartyRepo)(nil)

// NewPartyRepo creates a new party repository.
func NewPartyRepo(txManager *postgres.TxManager) *PartyRepo {
	return &PartyRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txManager,
			partyTable,
			"party",
			postgres.ExtractDBColumns[party.Party](),
			func() *party.Party { return &party.Party{} },
		),
	}
}
