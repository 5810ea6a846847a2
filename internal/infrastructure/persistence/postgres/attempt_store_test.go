package postgres

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/lectura-hub/progress-engine/internal/domain/shared"
)

func pgError(code string) error {
	return fmt.Errorf("exec: %w", &pgconn.PgError{Code: code})
}

func TestPgErrorHelpers(t *testing.T) {
	assert.True(t, IsUniqueViolation(pgError("23505")))
	assert.True(t, IsCheckViolation(pgError("23514")))
	assert.True(t, IsNotNullViolation(pgError("23502")))
	assert.True(t, IsNoRows(fmt.Errorf("scan: %w", pgx.ErrNoRows)))

	plain := fmt.Errorf("connection refused")
	assert.False(t, IsUniqueViolation(plain))
	assert.False(t, IsCheckViolation(plain))
	assert.False(t, IsNotNullViolation(plain))
	assert.False(t, IsNoRows(plain))
}

func TestInsertErrorClassification(t *testing.T) {
	// Constraint violations are the caller's fault, not a store outage.
	for _, code := range []string{"23505", "23514", "23502"} {
		err := insertError(pgError(code))
		assert.True(t, shared.IsValidation(err), code)
		assert.False(t, shared.IsStoreUnavailable(err), code)
	}

	// Everything else stays retryable.
	err := insertError(fmt.Errorf("connection refused"))
	assert.True(t, shared.IsStoreUnavailable(err))
	assert.False(t, shared.IsValidation(err))
}
