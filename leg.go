package transit

import (
	"goyo.dev/transit/storage"
)

// LegKind is the explicit classification of a route leg. Legacy
// records saved before explicit tagging are classified once, when
// loaded, by NormalizeRoute; nothing downstream guesses.
type LegKind int

const (
	LegWalk LegKind = iota
	LegTrain
	LegCityBus
	LegCitySubway
	LegIntercityBus
	LegExpressBus
)

func (k LegKind) String() string {
	switch k {
	case LegWalk:
		return "walk"
	case LegTrain:
		return "train"
	case LegCityBus:
		return "bus"
	case LegCitySubway:
		return "subway"
	case LegIntercityBus:
		return "intercity_bus"
	case LegExpressBus:
		return "express_bus"
	}
	return "unknown"
}

// Transit reports whether the leg involves boarding a city vehicle
// with a realtime feed.
func (k LegKind) Transit() bool {
	return k == LegCityBus || k == LegCitySubway
}

// Intercity reports whether the leg is served by static timetables
// instead of realtime feeds.
func (k LegKind) Intercity() bool {
	return k == LegIntercityBus || k == LegExpressBus
}

// One vehicle-boarding (or walking) segment of a saved trip.
// Immutable for the duration of an ETA computation.
type RouteLeg struct {
	ID                string
	Kind              LegKind
	LineNames         []string
	StartStation      string
	EndStation        string
	StartStationID    string
	GyeonggiStationID string
	SectionTime       int // minutes
}

// A saved route, normalized into the tagged leg model.
type Route struct {
	ID         string
	UserID     string
	Name       string
	RouteType  string // "commute" or "return"
	TravelTime int    // minutes
	Legs       []RouteLeg
}

// NormalizeRoute converts a stored record into the tagged model. This
// is where the legacy classification heuristic lives: records saved
// before explicit sub-typing carry no tag, and an untagged bus leg
// from an "inter_local" trip search with no city stop code can only
// have been an intercity leg.
func NormalizeRoute(rec *storage.RouteRecord) Route {
	route := Route{
		ID:         rec.ID,
		UserID:     rec.UserID,
		Name:       rec.Name,
		RouteType:  rec.RouteType,
		TravelTime: rec.TotalTime,
	}
	for _, leg := range rec.Legs {
		route.Legs = append(route.Legs, normalizeLeg(leg, rec.Source))
	}
	return route
}

func normalizeLeg(rec storage.LegRecord, routeSource string) RouteLeg {
	leg := RouteLeg{
		ID:                rec.ID,
		LineNames:         append([]string{}, rec.LineNames...),
		StartStation:      rec.StartStation,
		EndStation:        rec.EndStation,
		StartStationID:    rec.StartStationID,
		GyeonggiStationID: rec.GyeonggiStationID,
		SectionTime:       rec.SectionTime,
	}

	switch rec.SubType {
	case "intercity_bus":
		leg.Kind = LegIntercityBus
		return leg
	case "express_bus":
		leg.Kind = LegExpressBus
		return leg
	}

	switch rec.Type {
	case "subway":
		leg.Kind = LegCitySubway
	case "train":
		leg.Kind = LegTrain
	case "bus":
		// Legacy fallback, see NormalizeRoute.
		if routeSource == "inter_local" && rec.StartStationID == "" {
			leg.Kind = LegIntercityBus
		} else {
			leg.Kind = LegCityBus
		}
	default:
		leg.Kind = LegWalk
	}
	return leg
}
