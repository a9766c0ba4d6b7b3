package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"tradedesk/internal/core/apperror"
)

func TestMapError(t *testing.T) {
	unique := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "doc_purchases_number_key"})
	mapped := MapError(unique, "purchase")
	appErr, ok := apperror.AsAppError(mapped)
	if assert.True(t, ok) {
		assert.Equal(t, apperror.CodeDuplicate, appErr.Code)
	}
	assert.ErrorIs(t, mapped, unique)

	fk := &pgconn.PgError{Code: "23503", ConstraintName: "doc_sale_lines_product_id_fkey"}
	appErr, ok = apperror.AsAppError(MapError(fk, "sale"))
	if assert.True(t, ok) {
		assert.Equal(t, apperror.CodeConflict, appErr.Code)
	}

	assert.True(t, apperror.IsValidation(MapError(&pgconn.PgError{Code: "23514"}, "product")))

	plain := errors.New("connection refused")
	assert.Same(t, plain, MapError(plain, "product"))
}
