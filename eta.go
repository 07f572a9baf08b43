// Package transit computes "when does my next vehicle leave, and
// when do I arrive" for saved commute routes, from a mix of realtime
// arrival feeds and intercity timetables.
package transit

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"time"

	"goyo.dev/transit/intercity"
	"goyo.dev/transit/realtime"
	"goyo.dev/transit/storage"
	"goyo.dev/transit/subway"
)

const (
	// Average headways, used as the wait-time fallback whenever no
	// live signal is available. The dashboard always shows an ETA,
	// even with every upstream source down.
	DefaultBusHeadway    = 600 // seconds
	DefaultSubwayHeadway = 300 // seconds

	// Fixed nightly window in which city transit doesn't run and
	// no upstream queries are made.
	DefaultOffHoursStart = 1 // local hour, inclusive
	DefaultOffHoursEnd   = 5 // local hour, exclusive

	// Upcoming intercity departures shown per leg.
	scheduleCount = 3

	NoRealtimeMessage = "실시간 정보 없음"
	NoScheduleMessage = "배차 정보 없음"
)

var ErrNoLegs = errors.New("route has no legs")

type CityBusSource interface {
	StopArrivals(ctx context.Context, stopCode string) ([]realtime.Arrival, error)
}

type RegionalBusSource interface {
	ResolveStation(ctx context.Context, mobileNo, stationName string) (string, error)
	StationArrivals(ctx context.Context, stationID string) ([]realtime.Arrival, error)
}

type SubwaySource interface {
	StationArrivals(ctx context.Context, stationName string) ([]realtime.Arrival, error)
}

type ScheduleSource interface {
	UpcomingDepartures(ctx context.Context, startName, endName string, count int, express bool) ([]intercity.Departure, error)
}

// Calculator orchestrates leg classification, the arrival aggregator
// and the timetable service into per-route ETAs.
type Calculator struct {
	CityBus   CityBusSource
	Regional  RegionalBusSource
	Subway    SubwaySource
	Schedules ScheduleSource
	Network   *subway.Network
	Store     storage.Storage

	BusHeadway    int
	SubwayHeadway int
	OffHoursStart int
	OffHoursEnd   int
	Location      *time.Location
	TimeNow       func() time.Time
	Logger        *slog.Logger
}

func NewCalculator(
	store storage.Storage,
	network *subway.Network,
	cityBus CityBusSource,
	regional RegionalBusSource,
	subwayFeed SubwaySource,
	schedules ScheduleSource,
	location *time.Location,
) *Calculator {
	return &Calculator{
		CityBus:   cityBus,
		Regional:  regional,
		Subway:    subwayFeed,
		Schedules: schedules,
		Network:   network,
		Store:     store,

		BusHeadway:    DefaultBusHeadway,
		SubwayHeadway: DefaultSubwayHeadway,
		OffHoursStart: DefaultOffHoursStart,
		OffHoursEnd:   DefaultOffHoursEnd,
		Location:      location,
		TimeNow:       time.Now,
		Logger:        slog.Default(),
	}
}

// OffHours reports whether local time t falls in the nightly window.
func (c *Calculator) OffHours(t time.Time) bool {
	hour := t.In(c.Location).Hour()
	if c.OffHoursStart <= c.OffHoursEnd {
		return hour >= c.OffHoursStart && hour < c.OffHoursEnd
	}
	return hour >= c.OffHoursStart || hour < c.OffHoursEnd
}

// Pre-fetched leg results, keyed by leg identity. The single-route
// and dashboard paths both assemble ETAs from one of these; only how
// it gets populated differs.
type legResults struct {
	city      map[string][]ArrivalInfo
	schedules map[string][]intercity.Departure
}

// ETA computes the estimated arrival for one route. During off-hours
// it short-circuits without a single upstream call. Otherwise city
// legs and intercity legs are queried in parallel, and the result is
// rebuilt in the route's own leg order no matter which queries
// succeeded.
func (c *Calculator) ETA(ctx context.Context, route Route) (*ETAResult, error) {
	if len(route.Legs) == 0 {
		return nil, ErrNoLegs
	}

	now := c.TimeNow().In(c.Location)
	if c.OffHours(now) {
		return c.offHoursResult(route), nil
	}

	results, err := c.fetchSharedResults(ctx, []Route{route})
	if err != nil {
		return nil, err
	}

	return c.assemble(route, now, results), nil
}

// Rebuilds legArrivals in the route's leg order and derives the
// headline wait time from the first transit leg.
func (c *Calculator) assemble(route Route, now time.Time, results *legResults) *ETAResult {
	result := &ETAResult{
		RouteID:     route.ID,
		Name:        route.Name,
		RouteType:   route.RouteType,
		TravelTime:  route.TravelTime,
		LegArrivals: []ArrivalInfo{},
	}

	// Is there any live city reading at all, and what's the
	// earliest? The headline wait for a city first-leg uses the
	// earliest reading across the whole route.
	anyLive := false
	earliest := 0
	for _, leg := range route.Legs {
		if !leg.Kind.Transit() {
			continue
		}
		for _, arr := range results.city[cityLegKey(leg)] {
			if !anyLive || arr.ArrivalTime < earliest {
				earliest = arr.ArrivalTime
			}
			anyLive = true
		}
	}

	waitTime := 0
	isEstimate := true
	firstTransitSeen := false

	for _, leg := range route.Legs {
		switch {
		case leg.Kind.Intercity():
			departures := results.schedules[scheduleKey(leg)]
			if len(departures) > 0 {
				for _, dep := range departures {
					result.LegArrivals = append(result.LegArrivals, ArrivalInfo{
						StationName:    leg.StartStation,
						LineName:       legLineName(leg),
						ArrivalTime:    dep.WaitMinutes * 60,
						ArrivalMessage: dep.DepartureTime + " 출발",
						VehicleType:    dep.Grade,
						IsSchedule:     true,
					})
				}
			} else {
				result.LegArrivals = append(result.LegArrivals, ArrivalInfo{
					StationName:    leg.StartStation,
					LineName:       legLineName(leg),
					ArrivalTime:    c.BusHeadway,
					ArrivalMessage: NoScheduleMessage,
					IsSchedule:     true,
					IsEstimate:     true,
				})
			}

			if !firstTransitSeen {
				firstTransitSeen = true
				if len(departures) > 0 {
					waitTime = departures[0].WaitMinutes * 60
					isEstimate = false
				} else {
					waitTime = c.BusHeadway
					isEstimate = true
				}
			}

		case leg.Kind.Transit():
			arrivals := results.city[cityLegKey(leg)]
			if len(arrivals) > 0 {
				result.LegArrivals = append(result.LegArrivals, arrivals...)
			} else {
				// One placeholder per configured line: the
				// board is never silently shorter than the
				// leg's line list.
				for _, line := range leg.LineNames {
					result.LegArrivals = append(result.LegArrivals, ArrivalInfo{
						StationName:    leg.StartStation,
						LineName:       line,
						ArrivalTime:    c.headwayFor(leg.Kind),
						ArrivalMessage: NoRealtimeMessage,
						IsEstimate:     true,
					})
				}
			}

			if !firstTransitSeen {
				firstTransitSeen = true
				if anyLive {
					waitTime = earliest
					isEstimate = false
				} else {
					waitTime = c.headwayFor(leg.Kind)
					isEstimate = true
				}
			}
		}
	}

	result.WaitTime = waitTime
	result.IsEstimate = isEstimate
	result.EstimatedArrival = now.
		Add(time.Duration(waitTime) * time.Second).
		Add(time.Duration(route.TravelTime) * time.Minute).
		Format(time.RFC3339)

	return result
}

func (c *Calculator) offHoursResult(route Route) *ETAResult {
	return &ETAResult{
		RouteID:          route.ID,
		Name:             route.Name,
		RouteType:        route.RouteType,
		EstimatedArrival: "",
		WaitTime:         0,
		TravelTime:       route.TravelTime,
		IsEstimate:       true,
		LegArrivals:      []ArrivalInfo{},
	}
}

func (c *Calculator) headwayFor(kind LegKind) int {
	if kind == LegCitySubway {
		return c.SubwayHeadway
	}
	return c.BusHeadway
}

// Persisting resolved station IDs is fire-and-forget: errors are
// logged and never surfaced, and racing duplicates write the same
// value.
func (c *Calculator) persistResolutions(resolutions []ResolvedStation) {
	for _, res := range resolutions {
		res := res
		go func() {
			if err := c.Store.UpdateLegStationID(res.LegID, res.StationID); err != nil {
				c.Logger.Warn("persisting station resolution failed",
					"leg", res.LegID, "station", res.StationID, "error", err)
			}
		}()
	}
}

// Identity of a city leg's upstream query. Two legs with the same key
// are answered by the same feed data.
func cityLegKey(leg RouteLeg) string {
	lines := make([]string, len(leg.LineNames))
	for i, name := range leg.LineNames {
		lines[i] = strings.ToLower(name)
	}
	sort.Strings(lines)
	return strings.Join([]string{
		leg.Kind.String(),
		subway.Normalize(leg.StartStation),
		leg.StartStationID,
		subway.Normalize(leg.EndStation),
		strings.Join(lines, "+"),
	}, "|")
}

func scheduleKey(leg RouteLeg) string {
	express := ""
	if leg.Kind == LegExpressBus {
		express = "|express"
	}
	return leg.StartStation + "|" + leg.EndStation + express
}

func legLineName(leg RouteLeg) string {
	if len(leg.LineNames) > 0 {
		return leg.LineNames[0]
	}
	if leg.Kind == LegExpressBus {
		return "고속버스"
	}
	return "시외버스"
}
