package transit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goyo.dev/transit/realtime"
	"goyo.dev/transit/storage"
)

func cityBusRouteRecord(id, userID, routeType string) *storage.RouteRecord {
	return &storage.RouteRecord{
		ID:        id,
		UserID:    userID,
		Name:      "버스 " + routeType,
		Source:    "local",
		RouteType: routeType,
		TotalTime: 45,
		Legs: []storage.LegRecord{
			{
				ID:             id + "-bus",
				Seq:            0,
				Type:           "bus",
				LineNames:      []string{"7016"},
				StartStation:   "한강진역",
				EndStation:     "서울역버스환승센터",
				StartStationID: "03-010",
				SectionTime:    40,
			},
		},
	}
}

func TestDashboardETAs(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.WriteRoute(cityBusRouteRecord("r1", "u1", "commute")))
	require.NoError(t, f.store.WriteRoute(cityBusRouteRecord("r2", "u1", "return")))

	f.cityBus.byStop["03-010"] = []realtime.Arrival{
		{StationName: "한강진역", LineName: "7016", Seconds: 158},
	}

	dashboard, err := f.calc.DashboardETAs(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, dashboard.Routes, 2)
	assert.Equal(t, "2026-09-01T08:30:00+09:00", dashboard.LastUpdated)

	for _, eta := range dashboard.Routes {
		assert.Equal(t, 158, eta.WaitTime)
		assert.False(t, eta.IsEstimate)
	}
}

func TestDashboardSharedLegsFetchedOnce(t *testing.T) {
	f := newFixture(t)

	// Three routes, all boarding the same stop on the same line.
	require.NoError(t, f.store.WriteRoute(cityBusRouteRecord("r1", "u1", "commute")))
	require.NoError(t, f.store.WriteRoute(cityBusRouteRecord("r2", "u1", "commute")))
	require.NoError(t, f.store.WriteRoute(cityBusRouteRecord("r3", "u1", "return")))

	f.cityBus.byStop["03-010"] = []realtime.Arrival{
		{StationName: "한강진역", LineName: "7016", Seconds: 158},
	}

	dashboard, err := f.calc.DashboardETAs(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, dashboard.Routes, 3)

	assert.Equal(t, 1, f.cityBus.calls)
	for _, eta := range dashboard.Routes {
		require.Len(t, eta.LegArrivals, 1)
		assert.Equal(t, 158, eta.LegArrivals[0].ArrivalTime)
	}
}

func TestDashboardSharedIntercityPairFetchedOnce(t *testing.T) {
	f := newFixture(t)

	record := func(id string) *storage.RouteRecord {
		return &storage.RouteRecord{
			ID:        id,
			UserID:    "u1",
			Name:      "고향길",
			Source:    "inter_local",
			RouteType: "return",
			TotalTime: 200,
			Legs: []storage.LegRecord{
				{
					ID:           id + "-intercity",
					Seq:          0,
					Type:         "bus",
					SubType:      "intercity_bus",
					StartStation: "동서울터미널",
					EndStation:   "안동터미널",
					SectionTime:  170,
				},
			},
		}
	}
	require.NoError(t, f.store.WriteRoute(record("r1")))
	require.NoError(t, f.store.WriteRoute(record("r2")))

	_, err := f.calc.DashboardETAs(context.Background(), "u1")
	require.NoError(t, err)

	assert.Equal(t, 1, f.schedules.calls)
}

func TestDashboardDisplayOrder(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.WriteRoute(cityBusRouteRecord("r1", "u1", "return")))
	require.NoError(t, f.store.WriteRoute(cityBusRouteRecord("r2", "u1", "commute")))

	// Morning: commute routes first.
	dashboard, err := f.calc.DashboardETAs(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, dashboard.Routes, 2)
	assert.Equal(t, "commute", dashboard.Routes[0].RouteType)

	// Afternoon: return routes first.
	f.calc.TimeNow = func() time.Time {
		return time.Date(2026, 9, 1, 18, 0, 0, 0, f.calc.Location)
	}
	dashboard, err = f.calc.DashboardETAs(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "return", dashboard.Routes[0].RouteType)
}

func TestDashboardOffHours(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.WriteRoute(cityBusRouteRecord("r1", "u1", "commute")))

	f.calc.TimeNow = func() time.Time {
		return time.Date(2026, 9, 1, 3, 0, 0, 0, f.calc.Location)
	}

	dashboard, err := f.calc.DashboardETAs(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, dashboard.Routes, 1)

	assert.Equal(t, "", dashboard.Routes[0].EstimatedArrival)
	assert.NotEmpty(t, dashboard.LastUpdated)
	assert.Equal(t, 0, f.cityBus.calls)
}

func TestDashboardUnknownUser(t *testing.T) {
	f := newFixture(t)

	dashboard, err := f.calc.DashboardETAs(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, dashboard.Routes)
}
