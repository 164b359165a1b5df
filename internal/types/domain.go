package types

import "time"

// Airline is the single configured carrier the service operates for.
// PlaneCount is declared at provisioning time and is informational only;
// it is not reconciled against the actual plane tally.
type Airline struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	PlaneCount int       `json:"plane_count"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Plane is a fleet aircraft. RegistrationCode is unique and human-readable
// (format [A-Z0-9]+-[A-Z0-9]+). A plane belongs to exactly one airline.
type Plane struct {
	ID               string    `json:"id"`
	Model            string    `json:"model"`
	Capacity         int       `json:"capacity"`
	RegistrationCode string    `json:"registration_code"`
	AirlineID        string    `json:"-"`
	CreatedAt        time.Time `json:"created_at"`
}

// StatusEvent is an immutable, timestamped record of a lifecycle transition,
// appended to a flight's ordered status log.
type StatusEvent struct {
	ID         string       `json:"id"`
	FlightID   string       `json:"-"`
	Status     FlightStatus `json:"status"`
	StatusDate time.Time    `json:"status_date"`
}

// Flight is a scheduled journey operated by one plane. Its airline is derived
// transitively through the plane; a flight carries no direct airline
// reference. HasDeparted is the single source of truth for lifecycle state:
// the pending and departed listings are computed from it, never stored
// separately.
type Flight struct {
	ID          string        `json:"id"`
	Origin      string        `json:"origin"`
	Destination string        `json:"destination"`
	ETD         time.Time     `json:"etd"`
	ETA         time.Time     `json:"eta"`
	DepartDate  *time.Time    `json:"depart_date,omitempty"`
	HasDeparted bool          `json:"has_departed"`
	Statuses    []StatusEvent `json:"statuses"`
	Plane       *Plane        `json:"plane,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// CorrectSchedule reports whether the flight's ETA is strictly after its ETD.
func (f *Flight) CorrectSchedule() bool {
	return f.ETA.After(f.ETD)
}

// AirlineID returns the airline the flight belongs to, derived through its
// plane. Empty when the flight has no plane or the plane is unassigned.
func (f *Flight) AirlineID() string {
	if f.Plane == nil {
		return ""
	}
	return f.Plane.AirlineID
}

// User is an API account. PasswordHash is a bcrypt hash and is never
// serialized.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         UserRole  `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// FlightStatusInfo is the answer to a flight status query: whether the flight
// has departed and, if so, when. DepartDate is null until departure.
type FlightStatusInfo struct {
	HasDeparted bool       `json:"has_departed"`
	DepartDate  *time.Time `json:"depart_date"`
}

// Clock abstracts time.Now for testable temporal logic.
type Clock interface {
	Now() time.Time
}

// RealClock is the production Clock backed by time.Now.
type RealClock struct{}

// Now returns the current UTC time.
func (RealClock) Now() time.Time { return time.Now().UTC() }
