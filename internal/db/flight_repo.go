package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"airline/internal/types"
)

// FlightRepository provides data access for the flights and flight_statuses
// tables. Flights are always returned hydrated with their plane; status
// events are loaded in a second query ordered by occurrence.
type FlightRepository struct {
	db DBTX
}

// NewFlightRepository creates a new FlightRepository backed by the given
// database connection (pool or transaction).
func NewFlightRepository(db DBTX) *FlightRepository {
	return &FlightRepository{db: db}
}

// flightColumns defines the columns selected for flight queries, joined with
// the operating plane. The scan order in scanFlight must match.
const flightColumns = `f.id, f.origin, f.destination, f.etd, f.eta,
	f.depart_date, f.has_departed, f.created_at, f.updated_at,
	p.id, p.model, p.capacity, p.registration_code, p.airline_id, p.created_at`

// scanFlight scans a single joined flight+plane row into a types.Flight.
// Status events are not part of the join and must be hydrated separately.
func scanFlight(row pgx.Row) (*types.Flight, error) {
	var f types.Flight
	var p types.Plane
	var planeAirlineID *string

	err := row.Scan(
		&f.ID,
		&f.Origin,
		&f.Destination,
		&f.ETD,
		&f.ETA,
		&f.DepartDate,
		&f.HasDeparted,
		&f.CreatedAt,
		&f.UpdatedAt,
		&p.ID,
		&p.Model,
		&p.Capacity,
		&p.RegistrationCode,
		&planeAirlineID,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if planeAirlineID != nil {
		p.AirlineID = *planeAirlineID
	}
	f.Plane = &p
	f.Statuses = []types.StatusEvent{}

	return &f, nil
}

// notFoundFlight builds the typed not-found error with the legacy message
// format used across all flight lookups.
func notFoundFlight(id string) *types.AppError {
	return types.NewAppError(types.ErrCodeNotFoundFlight,
		fmt.Sprintf("Cannot find flight with ID: %s", id), nil)
}

// Create inserts a new flight record. The caller must set the ID (prefixed
// UUID, e.g. "fl_..."), the timestamps, and attach the operating plane before
// calling. Timestamps are bound rather than taken from the database clock so
// the flight returned from creation matches what a later read hydrates. The
// initial status event is appended separately via AppendStatus so both writes
// share the caller's transaction.
func (r *FlightRepository) Create(ctx context.Context, f *types.Flight) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO flights (id, origin, destination, etd, eta, depart_date, has_departed, plane_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		f.ID, f.Origin, f.Destination, f.ETD, f.ETA, f.DepartDate, f.HasDeparted, f.Plane.ID, f.CreatedAt, f.UpdatedAt,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to create flight", err)
	}
	return nil
}

// GetByID retrieves a flight by its ID, hydrated with its plane and full
// status history. Returns ErrCodeNotFoundFlight when no flight matches.
func (r *FlightRepository) GetByID(ctx context.Context, id string) (*types.Flight, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+flightColumns+`
		 FROM flights f
		 JOIN planes p ON p.id = f.plane_id
		 WHERE f.id = $1`,
		id,
	)

	f, err := scanFlight(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFoundFlight(id)
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to retrieve flight", err)
	}

	statuses, err := r.listStatuses(ctx, []string{f.ID})
	if err != nil {
		return nil, err
	}
	f.Statuses = statuses[f.ID]
	if f.Statuses == nil {
		f.Statuses = []types.StatusEvent{}
	}

	return f, nil
}

// Update writes the mutable schedule fields (origin, destination, etd, eta)
// and the plane assignment. Lifecycle columns (has_departed, depart_date) are
// intentionally excluded; they change only through MarkDeparted.
func (r *FlightRepository) Update(ctx context.Context, f *types.Flight) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE flights SET
			origin = $1,
			destination = $2,
			etd = $3,
			eta = $4,
			plane_id = $5,
			updated_at = NOW()
		 WHERE id = $6`,
		f.Origin, f.Destination, f.ETD, f.ETA, f.Plane.ID, f.ID,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to update flight", err)
	}
	if tag.RowsAffected() == 0 {
		return notFoundFlight(f.ID)
	}
	return nil
}

// MarkDeparted flips the flight to departed and stamps the departure time.
// The WHERE clause excludes already-departed rows, so the transition happens
// at most once even under concurrent callers; a zero row count on a flight
// that exists means it had already departed.
func (r *FlightRepository) MarkDeparted(ctx context.Context, id string, departDate time.Time) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE flights SET
			has_departed = TRUE,
			depart_date = $1,
			updated_at = NOW()
		 WHERE id = $2 AND has_departed = FALSE`,
		departDate, id,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to mark flight departed", err)
	}
	if tag.RowsAffected() == 0 {
		return types.NewAppError(types.ErrCodeConflictFlightDeparted,
			fmt.Sprintf("Flight with ID: %s has already departed", id), nil)
	}
	return nil
}

// Delete removes a flight. Status events cascade at the database level.
// Returns ErrCodeNotFoundFlight when no row was deleted.
func (r *FlightRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM flights WHERE id = $1`,
		id,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to delete flight", err)
	}
	if tag.RowsAffected() == 0 {
		return notFoundFlight(id)
	}
	return nil
}

// AppendStatus inserts an immutable status event for a flight. The caller
// must set the ID (prefixed UUID, e.g. "se_...") and timestamp.
func (r *FlightRepository) AppendStatus(ctx context.Context, ev *types.StatusEvent) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO flight_statuses (id, flight_id, status, status_date)
		 VALUES ($1, $2, $3, $4)`,
		ev.ID, ev.FlightID, ev.Status, ev.StatusDate,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to append flight status", err)
	}
	return nil
}

// ListByAirline retrieves flights operated by an airline's planes, filtered
// by lifecycle state. The pending and departed listings are both served by
// this query; membership is derived from has_departed, never stored as a
// separate set. Results are hydrated with plane and status history and
// ordered by creation time.
func (r *FlightRepository) ListByAirline(ctx context.Context, airlineID string, departed bool) ([]*types.Flight, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+flightColumns+`
		 FROM flights f
		 JOIN planes p ON p.id = f.plane_id
		 WHERE p.airline_id = $1 AND f.has_departed = $2
		 ORDER BY f.created_at, f.id`,
		airlineID, departed,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to list flights", err)
	}
	defer rows.Close()

	var results []*types.Flight
	var ids []string
	for rows.Next() {
		f, scanErr := scanFlight(rows)
		if scanErr != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan flight row", scanErr)
		}
		results = append(results, f)
		ids = append(ids, f.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "error iterating flight rows", err)
	}

	if len(results) == 0 {
		return []*types.Flight{}, nil
	}

	// Hydrate status histories for the whole page in one query.
	statuses, err := r.listStatuses(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, f := range results {
		if evs, ok := statuses[f.ID]; ok {
			f.Statuses = evs
		}
	}

	return results, nil
}

// listStatuses fetches status events for a set of flights in a single query,
// grouped by flight ID and ordered by occurrence within each flight.
func (r *FlightRepository) listStatuses(ctx context.Context, flightIDs []string) (map[string][]types.StatusEvent, error) {
	rows, err := r.db.Query(ctx,
		`SELECT s.id, s.flight_id, s.status, s.status_date
		 FROM flight_statuses s
		 WHERE s.flight_id = ANY($1)
		 ORDER BY s.status_date, s.id`,
		flightIDs,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to list flight statuses", err)
	}
	defer rows.Close()

	result := make(map[string][]types.StatusEvent, len(flightIDs))
	for rows.Next() {
		var ev types.StatusEvent
		if err := rows.Scan(&ev.ID, &ev.FlightID, &ev.Status, &ev.StatusDate); err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan status row", err)
		}
		result[ev.FlightID] = append(result[ev.FlightID], ev)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "error iterating status rows", err)
	}

	return result, nil
}
