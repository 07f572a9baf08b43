package transit

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"goyo.dev/transit/intercity"
)

// Dashboard is every saved route's ETA for one user, in display
// order.
type Dashboard struct {
	Routes      []*ETAResult `json:"routes"`
	LastUpdated string       `json:"lastUpdated"`
}

// Before this local hour the user is presumably heading out, so
// commute routes sort first. After it, return routes do.
const displayPivotHour = 13

// DashboardETAs computes ETAs for all of a user's routes in one
// pass. Legs shared between routes (same stop, same lines) are
// queried upstream exactly once; every route is then assembled from
// the shared results.
func (c *Calculator) DashboardETAs(ctx context.Context, userID string) (*Dashboard, error) {
	records, err := c.Store.RoutesByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("loading routes for %s: %w", userID, err)
	}

	routes := make([]Route, 0, len(records))
	for _, rec := range records {
		routes = append(routes, NormalizeRoute(rec))
	}

	now := c.TimeNow().In(c.Location)
	dashboard := &Dashboard{
		Routes:      []*ETAResult{},
		LastUpdated: now.Format(time.RFC3339),
	}

	if c.OffHours(now) {
		for _, route := range routes {
			dashboard.Routes = append(dashboard.Routes, c.offHoursResult(route))
		}
		sortForDisplay(dashboard.Routes, now)
		return dashboard, nil
	}

	results, err := c.fetchSharedResults(ctx, routes)
	if err != nil {
		return nil, err
	}

	for _, route := range routes {
		dashboard.Routes = append(dashboard.Routes, c.assemble(route, now, results))
	}
	sortForDisplay(dashboard.Routes, now)

	return dashboard, nil
}

// One upstream query per distinct leg identity across all routes: the
// union of city transit legs goes through the aggregator in a single
// batch, intercity pairs are fetched individually in parallel.
func (c *Calculator) fetchSharedResults(ctx context.Context, routes []Route) (*legResults, error) {
	results := &legResults{
		city:      map[string][]ArrivalInfo{},
		schedules: map[string][]intercity.Departure{},
	}

	cityLegs := []RouteLeg{}
	citySeen := map[string]bool{}
	scheduleLegs := []RouteLeg{}
	scheduleSeen := map[string]bool{}
	for _, route := range routes {
		for _, leg := range route.Legs {
			switch {
			case leg.Kind.Transit():
				if key := cityLegKey(leg); !citySeen[key] {
					citySeen[key] = true
					cityLegs = append(cityLegs, leg)
				}
			case leg.Kind.Intercity():
				if key := scheduleKey(leg); !scheduleSeen[key] {
					scheduleSeen[key] = true
					scheduleLegs = append(scheduleLegs, leg)
				}
			}
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		set, err := c.TransitArrivals(gctx, cityLegs)
		if err != nil {
			return fmt.Errorf("fetching transit arrivals: %w", err)
		}
		for _, la := range set.PerLeg {
			if la.Arrivals != nil {
				results.city[cityLegKey(la.Leg)] = la.Arrivals
			}
		}
		c.persistResolutions(set.Resolved)
		return nil
	})

	for _, leg := range scheduleLegs {
		leg := leg
		g.Go(func() error {
			departures, err := c.Schedules.UpcomingDepartures(
				gctx, leg.StartStation, leg.EndStation,
				scheduleCount, leg.Kind == LegExpressBus,
			)
			if err != nil {
				c.Logger.Warn("intercity schedule failed",
					"start", leg.StartStation, "end", leg.EndStation, "error", err)
				return nil
			}
			results.schedules[scheduleKey(leg)] = departures
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Stable sort by route type relevance for the current time of day.
// Within a type, stored order is preserved.
func sortForDisplay(etas []*ETAResult, now time.Time) {
	first := "commute"
	if now.Hour() >= displayPivotHour {
		first = "return"
	}
	sort.SliceStable(etas, func(i, j int) bool {
		return etas[i].RouteType == first && etas[j].RouteType != first
	})
}
