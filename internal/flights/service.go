// Package flights implements the flight lifecycle service: fleet and flight
// queries, flight creation and patching, and the one-way PENDING → DEPARTED
// transition with its append-only status log.
//
// Listings of pending and departed flights are derived from the has_departed
// flag rather than maintained as separate sets, so a flight is in exactly one
// listing at any time by construction. Mutations that affect listing
// membership (add, depart, delete) run inside a transaction holding a lock on
// the owning airline row, serializing concurrent lifecycle changes per fleet.
package flights

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"airline/internal/types"
)

// scheduleMessage is the legacy validation message shared by every schedule
// violation on create and update.
const scheduleMessage = "Estimated date of departure (etd) must be before the estimated date of arrival (eta) and both must be future dates"

// AirlineRepo is the airline data access needed by the service.
type AirlineRepo interface {
	GetByName(ctx context.Context, name string) (*types.Airline, error)
	LockByID(ctx context.Context, id string) error
}

// PlaneRepo is the plane data access needed by the service.
type PlaneRepo interface {
	GetByRegistrationCode(ctx context.Context, code string) (*types.Plane, error)
	ListByAirline(ctx context.Context, airlineID string) ([]*types.Plane, error)
}

// FlightRepo is the flight data access needed by the service.
type FlightRepo interface {
	Create(ctx context.Context, f *types.Flight) error
	GetByID(ctx context.Context, id string) (*types.Flight, error)
	Update(ctx context.Context, f *types.Flight) error
	MarkDeparted(ctx context.Context, id string, departDate time.Time) error
	Delete(ctx context.Context, id string) error
	AppendStatus(ctx context.Context, ev *types.StatusEvent) error
	ListByAirline(ctx context.Context, airlineID string, departed bool) ([]*types.Flight, error)
}

// TxRepos bundles the repositories handed to a transactional callback. All
// repos in one TxRepos share the same transaction.
type TxRepos struct {
	Airlines AirlineRepo
	Planes   PlaneRepo
	Flights  FlightRepo
}

// TxManager provides transactional execution across repositories. The
// callback receives transaction-scoped repositories; the transaction commits
// when the callback returns nil and rolls back otherwise.
type TxManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, repos TxRepos) error) error
}

// DepartureNotifier announces a departure to external consumers. Delivery is
// best-effort; errors are logged by the service and never reach API callers.
type DepartureNotifier interface {
	FlightDeparted(ctx context.Context, f *types.Flight) error
}

// CreateFlightInput carries the fields for a new flight. The transport layer
// is responsible for presence and format validation; the service enforces
// domain rules (schedule coherence, plane and airline resolution).
type CreateFlightInput struct {
	Origin                string
	Destination           string
	ETD                   time.Time
	ETA                   time.Time
	PlaneRegistrationCode string
}

// UpdateFlightInput is a partial patch; nil fields are left untouched.
type UpdateFlightInput struct {
	Origin                *string
	Destination           *string
	ETD                   *time.Time
	ETA                   *time.Time
	PlaneRegistrationCode *string
}

// AirlineInfo is the airline summary with its assigned fleet.
type AirlineInfo struct {
	Airline *types.Airline `json:"airline"`
	Planes  []*types.Plane `json:"planes"`
}

// Service implements the flight lifecycle operations for the single
// configured airline.
type Service struct {
	airlineName string
	repos       TxRepos
	tx          TxManager
	notifier    DepartureNotifier
	clock       types.Clock
	logger      *slog.Logger
}

// NewService creates a flight lifecycle Service. The repos argument holds
// pool-backed repositories used for reads; tx supplies transaction-scoped
// repositories for multi-write mutations. notifier may be a no-op
// implementation when departure webhooks are disabled.
func NewService(airlineName string, repos TxRepos, tx TxManager, notifier DepartureNotifier, clock types.Clock, logger *slog.Logger) *Service {
	return &Service{
		airlineName: airlineName,
		repos:       repos,
		tx:          tx,
		notifier:    notifier,
		clock:       clock,
		logger:      logger,
	}
}

// GetAirline resolves the configured airline, case-insensitively, together
// with its fleet.
func (s *Service) GetAirline(ctx context.Context) (*AirlineInfo, error) {
	airline, err := s.repos.Airlines.GetByName(ctx, s.airlineName)
	if err != nil {
		return nil, err
	}

	planes, err := s.repos.Planes.ListByAirline(ctx, airline.ID)
	if err != nil {
		return nil, err
	}
	if planes == nil {
		planes = []*types.Plane{}
	}

	return &AirlineInfo{Airline: airline, Planes: planes}, nil
}

// AddFlight validates and persists a new flight in PENDING state.
//
// Validation order (first failure wins, nothing persisted on failure):
//  1. schedule coherence: eta strictly after etd
//  2. plane resolution by registration code
//  3. airline resolution through the plane
//
// On success the flight is created with has_departed=false and a single
// PENDING status event stamped with the current time, atomically with the
// owning airline row locked.
func (s *Service) AddFlight(ctx context.Context, in CreateFlightInput) (*types.Flight, error) {
	now := s.clock.Now()

	flight := &types.Flight{
		ID:          "fl_" + uuid.New().String(),
		Origin:      strings.TrimSpace(in.Origin),
		Destination: strings.TrimSpace(in.Destination),
		ETD:         in.ETD,
		ETA:         in.ETA,
		HasDeparted: false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if !flight.CorrectSchedule() {
		return nil, types.NewAppError(types.ErrCodeValidationInvalidSchedule, scheduleMessage, nil)
	}

	plane, err := s.repos.Planes.GetByRegistrationCode(ctx, in.PlaneRegistrationCode)
	if err != nil {
		return nil, err
	}
	if plane.AirlineID == "" {
		return nil, types.NewAppError(types.ErrCodeNotFoundAirline,
			fmt.Sprintf("Cannot find airline for plane with registration code: %s", in.PlaneRegistrationCode), nil)
	}
	flight.Plane = plane

	pending := types.StatusEvent{
		ID:         "se_" + uuid.New().String(),
		FlightID:   flight.ID,
		Status:     types.StatusPending,
		StatusDate: now,
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context, repos TxRepos) error {
		if lockErr := repos.Airlines.LockByID(txCtx, plane.AirlineID); lockErr != nil {
			return lockErr
		}
		if createErr := repos.Flights.Create(txCtx, flight); createErr != nil {
			return createErr
		}
		return repos.Flights.AppendStatus(txCtx, &pending)
	})
	if err != nil {
		return nil, err
	}

	flight.Statuses = []types.StatusEvent{pending}

	s.logger.Info("flight created",
		slog.String("flight_id", flight.ID),
		slog.String("plane", plane.RegistrationCode),
		slog.String("origin", flight.Origin),
		slog.String("destination", flight.Destination),
	)

	return flight, nil
}

// FindFlightByID retrieves a flight hydrated with its plane and status
// history.
func (s *Service) FindFlightByID(ctx context.Context, id string) (*types.Flight, error) {
	return s.repos.Flights.GetByID(ctx, id)
}

// UpdateFlightByID applies a partial patch to a pending flight, field by
// field in a fixed order, short-circuiting on the first violation:
//
//   - origin/destination: blank after trimming is rejected
//   - etd: must be strictly in the future
//   - eta: assigned first, then the schedule is re-checked against the
//     current etd and eta must not be in the past
//   - plane: resolved by registration code (blank code is a no-op) and must
//     belong to an airline
//
// Lifecycle state (has_departed, depart_date, statuses) is never touched.
// Departed flights accept patches like any other; the schedule fields carry
// no further meaning after departure but remain editable.
func (s *Service) UpdateFlightByID(ctx context.Context, id string, in UpdateFlightInput) error {
	flight, err := s.repos.Flights.GetByID(ctx, id)
	if err != nil {
		return err
	}

	now := s.clock.Now()

	if in.Origin != nil {
		v := strings.TrimSpace(*in.Origin)
		if v == "" {
			return types.NewAppError(types.ErrCodeValidationBlankField, "origin cannot be blank", nil)
		}
		flight.Origin = v
	}

	if in.Destination != nil {
		v := strings.TrimSpace(*in.Destination)
		if v == "" {
			return types.NewAppError(types.ErrCodeValidationBlankField, "destination cannot be blank", nil)
		}
		flight.Destination = v
	}

	if in.ETD != nil {
		if !in.ETD.After(now) {
			return types.NewAppError(types.ErrCodeValidationInvalidSchedule, scheduleMessage, nil)
		}
		flight.ETD = *in.ETD
	}

	if in.ETA != nil {
		flight.ETA = *in.ETA
		if in.ETA.Before(now) || !flight.CorrectSchedule() {
			return types.NewAppError(types.ErrCodeValidationInvalidSchedule, scheduleMessage, nil)
		}
	}

	if in.PlaneRegistrationCode != nil && strings.TrimSpace(*in.PlaneRegistrationCode) != "" {
		plane, planeErr := s.repos.Planes.GetByRegistrationCode(ctx, *in.PlaneRegistrationCode)
		if planeErr != nil {
			return planeErr
		}
		if plane.AirlineID == "" {
			return types.NewAppError(types.ErrCodeNotFoundAirline,
				fmt.Sprintf("Cannot find airline for plane with registration code: %s", *in.PlaneRegistrationCode), nil)
		}
		flight.Plane = plane
	}

	return s.repos.Flights.Update(ctx, flight)
}

// DeleteFlightByID removes a flight and its status events. The owning
// airline row is locked for the duration of the delete so the removal
// serializes with concurrent lifecycle mutations against the same fleet.
func (s *Service) DeleteFlightByID(ctx context.Context, id string) error {
	flight, err := s.repos.Flights.GetByID(ctx, id)
	if err != nil {
		return err
	}

	return s.tx.RunInTx(ctx, func(txCtx context.Context, repos TxRepos) error {
		if airlineID := flight.AirlineID(); airlineID != "" {
			if lockErr := repos.Airlines.LockByID(txCtx, airlineID); lockErr != nil {
				return lockErr
			}
		}
		return repos.Flights.Delete(txCtx, id)
	})
}

// DepartFlight performs the one-way PENDING → DEPARTED transition: exactly
// once, irreversible, with depart_date and the DEPARTED status event sharing
// a single timestamp. A second depart attempt is a conflict. The departure
// webhook fires best-effort after the transaction commits.
func (s *Service) DepartFlight(ctx context.Context, id string) error {
	flight, err := s.repos.Flights.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if flight.HasDeparted {
		return types.NewAppError(types.ErrCodeConflictFlightDeparted,
			fmt.Sprintf("Flight with ID: %s has already departed", id), nil)
	}

	now := s.clock.Now()
	departed := types.StatusEvent{
		ID:         "se_" + uuid.New().String(),
		FlightID:   flight.ID,
		Status:     types.StatusDeparted,
		StatusDate: now,
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context, repos TxRepos) error {
		if airlineID := flight.AirlineID(); airlineID != "" {
			if lockErr := repos.Airlines.LockByID(txCtx, airlineID); lockErr != nil {
				return lockErr
			}
		}
		// MarkDeparted re-checks has_departed inside the lock, so a racing
		// depart that committed first turns this into a conflict.
		if markErr := repos.Flights.MarkDeparted(txCtx, flight.ID, now); markErr != nil {
			return markErr
		}
		return repos.Flights.AppendStatus(txCtx, &departed)
	})
	if err != nil {
		return err
	}

	flight.HasDeparted = true
	flight.DepartDate = &now
	flight.Statuses = append(flight.Statuses, departed)

	s.logger.Info("flight departed",
		slog.String("flight_id", flight.ID),
		slog.Time("depart_date", now),
	)

	if s.notifier != nil {
		if notifyErr := s.notifier.FlightDeparted(ctx, flight); notifyErr != nil {
			s.logger.Warn("departure notification failed",
				slog.String("flight_id", flight.ID),
				slog.String("error", notifyErr.Error()),
			)
		}
	}

	return nil
}

// GetPendingFlights lists the configured airline's flights that have not yet
// departed. An empty fleet yields an empty slice, not an error.
func (s *Service) GetPendingFlights(ctx context.Context) ([]*types.Flight, error) {
	return s.listFlights(ctx, false)
}

// GetDepartedFlights lists the configured airline's flights that have
// departed.
func (s *Service) GetDepartedFlights(ctx context.Context) ([]*types.Flight, error) {
	return s.listFlights(ctx, true)
}

func (s *Service) listFlights(ctx context.Context, departed bool) ([]*types.Flight, error) {
	airline, err := s.repos.Airlines.GetByName(ctx, s.airlineName)
	if err != nil {
		return nil, err
	}

	flights, err := s.repos.Flights.ListByAirline(ctx, airline.ID, departed)
	if err != nil {
		return nil, err
	}
	if flights == nil {
		flights = []*types.Flight{}
	}
	return flights, nil
}

// GetFlightStatus reports whether a flight has departed and, if so, when.
// DepartDate is null for pending flights regardless of stored state.
func (s *Service) GetFlightStatus(ctx context.Context, id string) (*types.FlightStatusInfo, error) {
	flight, err := s.repos.Flights.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !flight.HasDeparted {
		return &types.FlightStatusInfo{HasDeparted: false, DepartDate: nil}, nil
	}
	return &types.FlightStatusInfo{HasDeparted: true, DepartDate: flight.DepartDate}, nil
}
