package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestContainsPatternEscapesWildcards(t *testing.T) {
	assert.Equal(t, "%adm%", ContainsPattern("adm"))
	assert.Equal(t, `%50\%\_off%`, ContainsPattern("50%_off"))
}

func TestUniqueViolation(t *testing.T) {
	err := fmt.Errorf("insert role: %w", &pgconn.PgError{Code: "23505", ConstraintName: "roles_name_key"})
	constraint, ok := UniqueViolation(err)
	assert.True(t, ok)
	assert.Equal(t, "roles_name_key", constraint)

	_, ok = UniqueViolation(&pgconn.PgError{Code: "23503"})
	assert.False(t, ok)
	_, ok = UniqueViolation(errors.New("plain"))
	assert.False(t, ok)
}
