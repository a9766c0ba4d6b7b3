// Package audit provides audit field enrichment and the audit trail contract
// used by document services.
package audit

import (
	"context"

	appctx "tradedesk/internal/core/context"
	"tradedesk/internal/core/entity"
	"tradedesk/internal/core/id"
)

// Action is the audited operation.
type Action string

const (
	ActionSubmit   Action = "submit"
	ActionResubmit Action = "resubmit"
	ActionDelete   Action = "delete"
	ActionPayment  Action = "payment"
	ActionReceive  Action = "receive"
	ActionDeliver  Action = "deliver"
	ActionInvoice  Action = "invoice"
)

// Trail records document changes. Implemented by the Postgres audit service.
type Trail interface {
	LogChange(ctx context.Context, entityType string, entityID id.ID, action Action, changes map[string]any) error
}

// EnrichCreated sets CreatedBy and UpdatedBy from the calling client.
// No-op when the request carried no client id.
func EnrichCreated(ctx context.Context, doc *entity.BaseDocument) {
	client := appctx.GetClientID(ctx)
	if client == "" || doc == nil {
		return
	}
	doc.CreatedBy = client
	doc.UpdatedBy = client
}

// EnrichUpdated sets only UpdatedBy.
func EnrichUpdated(ctx context.Context, doc *entity.BaseDocument) {
	client := appctx.GetClientID(ctx)
	if client == "" || doc == nil {
		return
	}
	doc.UpdatedBy = client
}
