// Package handlers contains the HTTP handler implementations for the airline API.
package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"airline/internal/core"
	"airline/internal/flights"
	"airline/internal/types"
)

// --- Service Interfaces ---
//
// Handlers depend on locally defined abstractions rather than concrete
// service types so they can be tested with mocks.

// FlightService defines the flight lifecycle operations used by this handler.
// Mirrors the concrete flights.Service methods.
type FlightService interface {
	GetAirline(ctx context.Context) (*flights.AirlineInfo, error)
	AddFlight(ctx context.Context, in flights.CreateFlightInput) (*types.Flight, error)
	FindFlightByID(ctx context.Context, id string) (*types.Flight, error)
	UpdateFlightByID(ctx context.Context, id string, in flights.UpdateFlightInput) error
	DeleteFlightByID(ctx context.Context, id string) error
	DepartFlight(ctx context.Context, id string) error
	GetPendingFlights(ctx context.Context) ([]*types.Flight, error)
	GetDepartedFlights(ctx context.Context) ([]*types.Flight, error)
	GetFlightStatus(ctx context.Context, id string) (*types.FlightStatusInfo, error)
}

// --- Request Models ---

// CreateFlightRequest is the request body for POST /v1/flights.
type CreateFlightRequest struct {
	Origin                string    `json:"origin" validate:"required,route_point"`
	Destination           string    `json:"destination" validate:"required,route_point"`
	Etd                   time.Time `json:"etd" validate:"required,future"`
	Eta                   time.Time `json:"eta" validate:"required,future"`
	PlaneRegistrationCode string    `json:"plane_registration_code" validate:"required,registration_code"`
}

// UpdateFlightRequest is the request body for PATCH /v1/flights/{id}.
// All fields are optional; absent fields are left untouched. Temporal and
// blank-field rules are enforced by the service against the stored flight.
type UpdateFlightRequest struct {
	Origin                *string    `json:"origin,omitempty" validate:"omitempty,route_point"`
	Destination           *string    `json:"destination,omitempty" validate:"omitempty,route_point"`
	Etd                   *time.Time `json:"etd,omitempty"`
	Eta                   *time.Time `json:"eta,omitempty"`
	PlaneRegistrationCode *string    `json:"plane_registration_code,omitempty" validate:"omitempty,registration_code"`
}

// --- Handler ---

// FlightHandler exposes the airline summary and flight lifecycle endpoints.
type FlightHandler struct {
	service   FlightService
	validator *core.Validator
	logger    *slog.Logger

	// adminOnly guards mutating routes. Injected so route registration does
	// not depend on the server's middleware wiring.
	adminOnly func(http.Handler) http.Handler
}

// NewFlightHandler creates a FlightHandler with the provided dependencies.
func NewFlightHandler(service FlightService, v *core.Validator, l *slog.Logger, adminOnly func(http.Handler) http.Handler) *FlightHandler {
	if l == nil {
		l = slog.Default()
	}
	return &FlightHandler{
		service:   service,
		validator: v,
		logger:    l,
		adminOnly: adminOnly,
	}
}

// RegisterRoutes mounts airline and flight routes on the provided chi.Router.
func (h *FlightHandler) RegisterRoutes(r chi.Router) {
	r.Get("/airline", h.GetAirline)

	r.Route("/flights", func(r chi.Router) {
		r.Get("/pending", h.GetPending)
		r.Get("/departed", h.GetDeparted)

		r.Group(func(r chi.Router) {
			if h.adminOnly != nil {
				r.Use(h.adminOnly)
			}
			r.Post("/", h.Create)
		})

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.Get)
			r.Get("/status", h.GetStatus)

			r.Group(func(r chi.Router) {
				if h.adminOnly != nil {
					r.Use(h.adminOnly)
				}
				r.Patch("/", h.Update)
				r.Delete("/", h.Delete)
				r.Post("/depart", h.Depart)
			})
		})
	})
}

// --- Handler Methods ---

// GetAirline handles GET /v1/airline. Returns the configured airline together
// with its assigned fleet.
func (h *FlightHandler) GetAirline(w http.ResponseWriter, r *http.Request) {
	info, err := h.service.GetAirline(r.Context())
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: info})
}

// Create handles POST /v1/flights. The new flight starts PENDING with its
// first status event already recorded.
func (h *FlightHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateFlightRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return
	}

	flight, err := h.service.AddFlight(r.Context(), flights.CreateFlightInput{
		Origin:                req.Origin,
		Destination:           req.Destination,
		ETD:                   req.Etd,
		ETA:                   req.Eta,
		PlaneRegistrationCode: req.PlaneRegistrationCode,
	})
	if err != nil {
		core.Error(w, r, err)
		return
	}

	core.JSON(w, r, http.StatusCreated, core.APIResponse{Data: flight})
}

// Get handles GET /v1/flights/{id}.
func (h *FlightHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		core.Error(w, r, types.NewAppError(
			types.ErrCodeValidationMissingField,
			"Flight ID is required",
			nil,
		))
		return
	}

	flight, err := h.service.FindFlightByID(r.Context(), id)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: flight})
}

// Update handles PATCH /v1/flights/{id}.
func (h *FlightHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		core.Error(w, r, types.NewAppError(
			types.ErrCodeValidationMissingField,
			"Flight ID is required",
			nil,
		))
		return
	}

	var req UpdateFlightRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return
	}

	err := h.service.UpdateFlightByID(r.Context(), id, flights.UpdateFlightInput{
		Origin:                req.Origin,
		Destination:           req.Destination,
		ETD:                   req.Etd,
		ETA:                   req.Eta,
		PlaneRegistrationCode: req.PlaneRegistrationCode,
	})
	if err != nil {
		core.Error(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Delete handles DELETE /v1/flights/{id}. Status history is removed with the
// flight.
func (h *FlightHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		core.Error(w, r, types.NewAppError(
			types.ErrCodeValidationMissingField,
			"Flight ID is required",
			nil,
		))
		return
	}

	if err := h.service.DeleteFlightByID(r.Context(), id); err != nil {
		core.Error(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Depart handles POST /v1/flights/{id}/depart. Departing an already departed
// flight yields a 409 conflict.
func (h *FlightHandler) Depart(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		core.Error(w, r, types.NewAppError(
			types.ErrCodeValidationMissingField,
			"Flight ID is required",
			nil,
		))
		return
	}

	if err := h.service.DepartFlight(r.Context(), id); err != nil {
		core.Error(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetStatus handles GET /v1/flights/{id}/status.
func (h *FlightHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		core.Error(w, r, types.NewAppError(
			types.ErrCodeValidationMissingField,
			"Flight ID is required",
			nil,
		))
		return
	}

	status, err := h.service.GetFlightStatus(r.Context(), id)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: status})
}

// GetPending handles GET /v1/flights/pending.
func (h *FlightHandler) GetPending(w http.ResponseWriter, r *http.Request) {
	h.listFlights(w, r, h.service.GetPendingFlights)
}

// GetDeparted handles GET /v1/flights/departed.
func (h *FlightHandler) GetDeparted(w http.ResponseWriter, r *http.Request) {
	h.listFlights(w, r, h.service.GetDepartedFlights)
}

func (h *FlightHandler) listFlights(w http.ResponseWriter, r *http.Request, list func(context.Context) ([]*types.Flight, error)) {
	result, err := list(r.Context())
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: result})
}
