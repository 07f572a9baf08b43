package transit

import (
	"context"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"goyo.dev/transit/realtime"
	"goyo.dev/transit/subway"
)

// Arrivals for a single leg. A nil Arrivals slice means no live data
// matched the leg; the calculator turns that into headway
// placeholders.
type LegArrivals struct {
	Leg      RouteLeg
	Arrivals []ArrivalInfo
}

// A freshly resolved regional station ID, to be persisted onto the
// stored leg by the caller.
type ResolvedStation struct {
	LegID     string
	StationID string
}

// The aggregator's output: per-leg results parallel to the input
// slice, plus any station resolutions that happened along the way.
type ArrivalSet struct {
	PerLeg   []LegArrivals
	Resolved []ResolvedStation
}

// TransitArrivals fetches live arrivals for every city transit leg in
// legs. Walk, train and intercity legs are ignored (their PerLeg
// entry stays nil). Subway stations shared by several legs are
// fetched once; all legs are then processed in parallel, each leg's
// failure isolated to itself.
func (c *Calculator) TransitArrivals(ctx context.Context, legs []RouteLeg) (*ArrivalSet, error) {
	set := &ArrivalSet{PerLeg: make([]LegArrivals, len(legs))}
	for i, leg := range legs {
		set.PerLeg[i].Leg = leg
	}

	// Pre-fetch the raw, undirected arrival list once per unique
	// subway station. Legs touching the same station in different
	// directions share one upstream call.
	stations := map[string]bool{}
	for _, leg := range legs {
		if leg.Kind == LegCitySubway {
			stations[subway.Normalize(leg.StartStation)] = true
		}
	}

	var mutex sync.Mutex
	rawByStation := map[string][]realtime.Arrival{}

	g, gctx := errgroup.WithContext(ctx)
	for station := range stations {
		station := station
		g.Go(func() error {
			arrivals, err := c.Subway.StationArrivals(gctx, station)
			if err != nil {
				c.Logger.Warn("subway prefetch failed", "station", station, "error", err)
				return nil
			}
			mutex.Lock()
			rawByStation[station] = arrivals
			mutex.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	g, gctx = errgroup.WithContext(ctx)
	for i := range legs {
		i := i
		leg := legs[i]
		if !leg.Kind.Transit() {
			continue
		}
		g.Go(func() error {
			var arrivals []realtime.Arrival
			var resolved *ResolvedStation

			switch leg.Kind {
			case LegCityBus:
				var err error
				arrivals, resolved, err = c.busLegArrivals(gctx, leg)
				if err != nil {
					c.Logger.Warn("bus leg failed", "leg", leg.ID, "error", err)
					return nil
				}
			case LegCitySubway:
				arrivals = c.filterSubway(leg, rawByStation[subway.Normalize(leg.StartStation)])
			}

			infos := matchSortCap(leg, arrivals)

			mutex.Lock()
			set.PerLeg[i].Arrivals = infos
			if resolved != nil {
				set.Resolved = append(set.Resolved, *resolved)
			}
			mutex.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return set, nil
}

// City bus legs query the city feed when the stop code is in city
// format. If the city feed answers but none of its lines are the
// leg's, the stop was actually regional and we fall through. Regional
// stops need their mobile number resolved to an internal station ID
// first; a fresh resolution is reported back for persistence.
func (c *Calculator) busLegArrivals(ctx context.Context, leg RouteLeg) ([]realtime.Arrival, *ResolvedStation, error) {
	if leg.StartStationID == "" && leg.GyeonggiStationID == "" {
		return nil, nil, nil
	}

	if realtime.IsCityStopCode(leg.StartStationID) {
		arrivals, err := c.CityBus.StopArrivals(ctx, leg.StartStationID)
		if err != nil {
			return nil, nil, err
		}
		if len(arrivals) > 0 {
			if anyLineMatch(arrivals, leg.LineNames) {
				return arrivals, nil, nil
			}
			// Results, but not our lines: fall through to the
			// regional source.
		} else {
			return nil, nil, nil
		}
	}

	stationID := leg.GyeonggiStationID
	var resolved *ResolvedStation
	if stationID == "" {
		mobileNo := strings.ReplaceAll(leg.StartStationID, "-", "")
		var err error
		stationID, err = c.Regional.ResolveStation(ctx, mobileNo, leg.StartStation)
		if err != nil {
			return nil, nil, err
		}
		if stationID == "" {
			return nil, nil, nil
		}
		resolved = &ResolvedStation{LegID: leg.ID, StationID: stationID}
	}

	arrivals, err := c.Regional.StationArrivals(ctx, stationID)
	if err != nil {
		return nil, resolved, err
	}
	return arrivals, resolved, nil
}

// Keeps only trains actually bound for the leg's destination.
func (c *Calculator) filterSubway(leg RouteLeg, raw []realtime.Arrival) []realtime.Arrival {
	filtered := []realtime.Arrival{}
	for _, arr := range raw {
		if c.trainFitsLeg(leg, arr) {
			filtered = append(filtered, arr)
		}
	}
	return filtered
}

// Trains whose terminal is in the station tables are checked by
// reachability; an unconfirmable train is dropped, an empty board
// beats one showing trains going the wrong way. Short-turn and
// express services terminate at stations the tables don't list, so
// for an unknown terminal the leg's position-derived direction label
// is compared against the train's reported one instead. When not even
// a label can be derived, filtering is suppressed and the train kept.
func (c *Calculator) trainFitsLeg(leg RouteLeg, arr realtime.Arrival) bool {
	if c.Network.KnownStation(arr.LineName, arr.Destination) {
		return c.Network.WillTrainReach(arr.LineName, leg.StartStation, leg.EndStation, arr.Destination, arr.Direction)
	}
	label := c.Network.Direction(arr.LineName, leg.StartStation, leg.EndStation)
	if label == "" {
		return true
	}
	return label == arr.Direction
}

func anyLineMatch(arrivals []realtime.Arrival, lineNames []string) bool {
	for _, arr := range arrivals {
		for _, name := range lineNames {
			if strings.EqualFold(arr.LineName, name) {
				return true
			}
		}
	}
	return false
}

// Post-filter to the leg's configured lines (case-insensitive exact
// match), sort ascending by arrival time with zero/unknown first, and
// cap at 2 entries per distinct line. An empty result after filtering
// yields nil: unrelated lines are never shown.
func matchSortCap(leg RouteLeg, arrivals []realtime.Arrival) []ArrivalInfo {
	lines := map[string]bool{}
	for _, name := range leg.LineNames {
		lines[strings.ToLower(name)] = true
	}

	matched := []realtime.Arrival{}
	for _, arr := range arrivals {
		if len(lines) > 0 && !lines[strings.ToLower(arr.LineName)] {
			continue
		}
		matched = append(matched, arr)
	}
	if len(matched) == 0 {
		return nil
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Seconds < matched[j].Seconds
	})

	perLine := map[string]int{}
	infos := []ArrivalInfo{}
	for _, arr := range matched {
		key := strings.ToLower(arr.LineName)
		if perLine[key] >= 2 {
			continue
		}
		perLine[key]++

		station := arr.StationName
		if station == "" {
			station = leg.StartStation
		}
		infos = append(infos, ArrivalInfo{
			StationName:    station,
			LineName:       arr.LineName,
			Direction:      arr.Direction,
			ArrivalTime:    arr.Seconds,
			ArrivalMessage: arr.Message,
			RemainingStops: arr.RemainingStops,
			VehicleType:    arr.VehicleType,
			IsLastTrain:    arr.IsLastTrain,
			Destination:    arr.Destination,
		})
	}

	return infos
}
