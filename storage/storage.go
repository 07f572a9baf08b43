// Package storage persists saved routes, their legs, and the
// intercity terminal directory.
package storage

import (
	"errors"
)

var ErrNotFound = errors.New("not found")

type Storage interface {
	// Retrieves a single saved route with its legs, in leg order.
	Route(id string) (*RouteRecord, error)

	// Retrieves all of a user's saved routes, legs in order.
	RoutesByUser(userID string) ([]*RouteRecord, error)

	// Writes a route and its legs. An existing route with the same
	// ID is replaced wholesale.
	WriteRoute(route *RouteRecord) error

	DeleteRoute(id string) error

	// Persists a resolved regional station ID onto a stored
	// leg. Safe to race: the value is an idempotent re-derivation
	// of the same key.
	UpdateLegStationID(legID string, stationID string) error

	// The synchronized intercity terminal directory.
	Terminals() ([]TerminalRecord, error)

	// Replaces the stored terminal directory.
	WriteTerminals(terminals []TerminalRecord) error
}

// A saved route: an ordered sequence of legs plus display fields.
type RouteRecord struct {
	ID        string
	UserID    string
	Name      string
	Source    string // trip-search source the route came from, e.g. "inter_local"
	RouteType string // "commute" or "return", used for dashboard ordering
	TotalTime int    // minutes, carried from the trip search
	Legs      []LegRecord
}

type LegRecord struct {
	ID                string
	RouteID           string
	Seq               int
	Type              string // bus | subway | walk | train
	SubType           string // "" | intercity_bus | express_bus
	LineNames         []string
	StartStation      string
	EndStation        string
	StartStationID    string // city stop code or regional mobile number
	GyeonggiStationID string // resolved regional station ID, back-filled lazily
	SectionTime       int    // minutes
}

type TerminalRecord struct {
	ID   string
	Name string
	City string
}
