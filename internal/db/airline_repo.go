package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"airline/internal/types"
)

// AirlineRepository provides data access for the airlines table.
type AirlineRepository struct {
	db DBTX
}

// NewAirlineRepository creates a new AirlineRepository backed by the given
// database connection (pool or transaction).
func NewAirlineRepository(db DBTX) *AirlineRepository {
	return &AirlineRepository{db: db}
}

// airlineColumns defines the standard set of columns selected for airline
// queries. Used consistently across all query methods to avoid column drift.
const airlineColumns = `a.id, a.name, a.plane_count, a.created_at, a.updated_at`

// scanAirline scans a single airline row into a types.Airline struct.
// The columns must match the order defined in airlineColumns.
func scanAirline(row pgx.Row) (*types.Airline, error) {
	var a types.Airline
	err := row.Scan(
		&a.ID,
		&a.Name,
		&a.PlaneCount,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// GetByName retrieves an airline by name, case-insensitively. Returns
// ErrCodeNotFoundAirline when no airline matches.
func (r *AirlineRepository) GetByName(ctx context.Context, name string) (*types.Airline, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+airlineColumns+`
		 FROM airlines a
		 WHERE LOWER(a.name) = LOWER($1)`,
		name,
	)

	a, err := scanAirline(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.NewAppError(types.ErrCodeNotFoundAirline,
				fmt.Sprintf("Cannot find airline with name: %s", name), nil)
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to retrieve airline", err)
	}
	return a, nil
}

// GetByID retrieves an airline by its ID. Returns ErrCodeNotFoundAirline when
// no airline matches.
func (r *AirlineRepository) GetByID(ctx context.Context, id string) (*types.Airline, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+airlineColumns+`
		 FROM airlines a
		 WHERE a.id = $1`,
		id,
	)

	a, err := scanAirline(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.NewAppError(types.ErrCodeNotFoundAirline, "airline not found", nil)
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to retrieve airline", err)
	}
	return a, nil
}

// Create inserts a new airline record. The caller must set the ID (prefixed
// UUID, e.g. "al_...") before calling.
func (r *AirlineRepository) Create(ctx context.Context, a *types.Airline) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO airlines (id, name, plane_count, created_at, updated_at)
		 VALUES ($1, $2, $3, NOW(), NOW())`,
		a.ID, a.Name, a.PlaneCount,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to create airline", err)
	}
	return nil
}

// LockByID acquires a row-level lock on the airline (SELECT ... FOR UPDATE).
// The airline row is the serialization point for flight lifecycle mutations:
// taking this lock before any write guarantees that concurrent additions,
// departures, and deletions against the same fleet execute one at a time.
//
// Must be called inside a transaction; the lock is released on commit or
// rollback. Returns ErrCodeNotFoundAirline when the airline does not exist.
func (r *AirlineRepository) LockByID(ctx context.Context, id string) error {
	var locked string
	err := r.db.QueryRow(ctx,
		`SELECT id FROM airlines WHERE id = $1 FOR UPDATE`,
		id,
	).Scan(&locked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return types.NewAppError(types.ErrCodeNotFoundAirline, "airline not found", nil)
		}
		return types.NewAppError(types.ErrCodeInternalDB, "failed to lock airline", err)
	}
	return nil
}
