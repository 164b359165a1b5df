package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"airline/internal/types"
)

// PlaneRepository provides data access for the planes table.
type PlaneRepository struct {
	db DBTX
}

// NewPlaneRepository creates a new PlaneRepository backed by the given
// database connection (pool or transaction).
func NewPlaneRepository(db DBTX) *PlaneRepository {
	return &PlaneRepository{db: db}
}

// planeColumns defines the standard set of columns selected for plane queries.
const planeColumns = `p.id, p.model, p.capacity, p.registration_code, p.airline_id, p.created_at`

// scanPlane scans a single plane row into a types.Plane struct. The airline_id
// column is nullable; an unassigned plane has an empty AirlineID.
func scanPlane(row pgx.Row) (*types.Plane, error) {
	var p types.Plane
	var airlineID *string
	err := row.Scan(
		&p.ID,
		&p.Model,
		&p.Capacity,
		&p.RegistrationCode,
		&airlineID,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if airlineID != nil {
		p.AirlineID = *airlineID
	}
	return &p, nil
}

// Create inserts a new plane record. The caller must set the ID (prefixed
// UUID, e.g. "pl_...") before calling. An empty AirlineID is stored as NULL.
func (r *PlaneRepository) Create(ctx context.Context, p *types.Plane) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO planes (id, model, capacity, registration_code, airline_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, NOW())`,
		p.ID, p.Model, p.Capacity, p.RegistrationCode, nilIfEmpty(p.AirlineID),
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to create plane", err)
	}
	return nil
}

// GetByRegistrationCode retrieves a plane by its unique registration code.
// Returns ErrCodeNotFoundPlane with the legacy message format when no plane
// matches.
func (r *PlaneRepository) GetByRegistrationCode(ctx context.Context, code string) (*types.Plane, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+planeColumns+`
		 FROM planes p
		 WHERE p.registration_code = $1`,
		code,
	)

	p, err := scanPlane(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.NewAppError(types.ErrCodeNotFoundPlane,
				fmt.Sprintf("Cannot find plane with registration code: %s", code), nil)
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to retrieve plane", err)
	}
	return p, nil
}

// GetByID retrieves a plane by its ID. Returns ErrCodeNotFoundPlane when no
// plane matches.
func (r *PlaneRepository) GetByID(ctx context.Context, id string) (*types.Plane, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+planeColumns+`
		 FROM planes p
		 WHERE p.id = $1`,
		id,
	)

	p, err := scanPlane(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.NewAppError(types.ErrCodeNotFoundPlane, "plane not found", nil)
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to retrieve plane", err)
	}
	return p, nil
}

// ListByAirline retrieves all planes assigned to an airline, ordered by
// registration code for stable output.
func (r *PlaneRepository) ListByAirline(ctx context.Context, airlineID string) ([]*types.Plane, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+planeColumns+`
		 FROM planes p
		 WHERE p.airline_id = $1
		 ORDER BY p.registration_code`,
		airlineID,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to list planes", err)
	}
	defer rows.Close()

	var results []*types.Plane
	for rows.Next() {
		p, scanErr := scanPlane(rows)
		if scanErr != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan plane row", scanErr)
		}
		results = append(results, p)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "error iterating plane rows", err)
	}

	return results, nil
}

// nilIfEmpty converts an empty string to nil for nullable text columns.
func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
