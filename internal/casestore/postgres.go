// Package casestore resolves case ids to the context the pipeline works on.
// Case records and documents are owned by external stores; nothing here
// writes to them.
package casestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"renovation-scope/internal/models"
)

var ErrCaseNotFound = errors.New("service case not found")

// invalidTextRepresentation is raised when the id is not a valid key, e.g.
// a malformed UUID.
const invalidTextRepresentation = "22P02"

// CaseStore reads service cases.
type CaseStore interface {
	GetCase(ctx context.Context, id string) (models.ServiceCase, error)
}

// PostgresStore reads cases from the case store table.
type PostgresStore struct {
	db    *sql.DB
	query string
}

// NewPostgresStore reads from table, which must be a validated identifier.
func NewPostgresStore(db *sql.DB, table string) *PostgresStore {
	return &PostgresStore{
		db: db,
		query: fmt.Sprintf(
			`SELECT id, category, property_address, unit_descriptor, description FROM %s WHERE id = $1`,
			table,
		),
	}
}

func (s *PostgresStore) GetCase(ctx context.Context, id string) (models.ServiceCase, error) {
	var (
		sc                                   models.ServiceCase
		category, address, unit, description sql.NullString
	)
	err := s.db.QueryRowContext(ctx, s.query, id).Scan(&sc.ID, &category, &address, &unit, &description)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.ServiceCase{}, ErrCaseNotFound
		}
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == invalidTextRepresentation {
			return models.ServiceCase{}, ErrCaseNotFound
		}
		return models.ServiceCase{}, fmt.Errorf("query service case: %w", err)
	}

	sc.Category = category.String
	sc.PropertyAddress = address.String
	sc.UnitDescriptor = unit.String
	sc.Description = description.String
	return sc, nil
}
