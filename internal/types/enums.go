package types

import "fmt"

// FlightStatus is the lifecycle state recorded in a flight's status log.
// A flight starts PENDING and transitions to DEPARTED exactly once; there
// is no transition back.
type FlightStatus string

const (
	StatusPending  FlightStatus = "PENDING"
	StatusDeparted FlightStatus = "DEPARTED"
)

// Valid reports whether the value is a known flight status.
func (s FlightStatus) Valid() bool {
	return s == StatusPending || s == StatusDeparted
}

// UserRole determines which operations an authenticated user may invoke.
// ADMIN gates every flight mutation; USER grants read access only.
type UserRole string

const (
	RoleUser  UserRole = "USER"
	RoleAdmin UserRole = "ADMIN"
)

// ParseRole converts a raw string into a UserRole, rejecting unknown values.
func ParseRole(s string) (UserRole, error) {
	switch UserRole(s) {
	case RoleUser:
		return RoleUser, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// HasAtLeast reports whether the role grants the privileges of required.
// The hierarchy is ADMIN > USER.
func (r UserRole) HasAtLeast(required UserRole) bool {
	if r == RoleAdmin {
		return true
	}
	return r == required
}
