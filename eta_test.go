package transit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goyo.dev/transit/intercity"
	"goyo.dev/transit/realtime"
)

func TestOffHoursWindow(t *testing.T) {
	f := newFixture(t)

	at := func(hour, min int) time.Time {
		return time.Date(2026, 9, 1, hour, min, 0, 0, f.calc.Location)
	}

	assert.False(t, f.calc.OffHours(at(0, 59)))
	assert.True(t, f.calc.OffHours(at(1, 0)))
	assert.True(t, f.calc.OffHours(at(3, 30)))
	assert.True(t, f.calc.OffHours(at(4, 59)))
	assert.False(t, f.calc.OffHours(at(5, 0)))
	assert.False(t, f.calc.OffHours(at(14, 0)))
}

func TestETAOffHoursShortCircuits(t *testing.T) {
	f := newFixture(t)
	f.calc.TimeNow = func() time.Time {
		return time.Date(2026, 9, 1, 2, 30, 0, 0, f.calc.Location)
	}

	route := Route{
		ID:         "r1",
		Name:       "출근길",
		RouteType:  "commute",
		TravelTime: 45,
		Legs: []RouteLeg{
			{ID: "l1", Kind: LegCityBus, LineNames: []string{"7016"}, StartStation: "한강진역", StartStationID: "03-010"},
		},
	}

	result, err := f.calc.ETA(context.Background(), route)
	require.NoError(t, err)

	assert.Equal(t, "", result.EstimatedArrival)
	assert.Equal(t, 0, result.WaitTime)
	assert.True(t, result.IsEstimate)
	assert.Empty(t, result.LegArrivals)

	// Nothing upstream is touched at night.
	assert.Equal(t, 0, f.cityBus.calls)
	assert.Equal(t, 0, f.subway.calls)
	assert.Equal(t, 0, f.schedules.calls)
}

func TestETANoLegs(t *testing.T) {
	f := newFixture(t)

	_, err := f.calc.ETA(context.Background(), Route{ID: "r1"})
	assert.ErrorIs(t, err, ErrNoLegs)
}

func TestETAWithLiveData(t *testing.T) {
	f := newFixture(t)
	f.cityBus.byStop["03-010"] = []realtime.Arrival{
		{StationName: "한강진역", LineName: "7016", Seconds: 158, Message: "2분38초후[3번째 전]"},
	}
	f.subway.byStation["강남"] = []realtime.Arrival{
		{StationName: "강남", LineName: "2호선", Direction: "외선", Seconds: 180, Destination: "성수"},
	}

	route := Route{
		ID:         "r1",
		Name:       "출근길",
		RouteType:  "commute",
		TravelTime: 45,
		Legs: []RouteLeg{
			{ID: "l0", Kind: LegWalk, StartStation: "집", EndStation: "정류장"},
			{ID: "l1", Kind: LegCityBus, LineNames: []string{"7016"}, StartStation: "한강진역", StartStationID: "03-010"},
			{ID: "l2", Kind: LegCitySubway, LineNames: []string{"2호선"}, StartStation: "강남", EndStation: "잠실새내"},
		},
	}

	result, err := f.calc.ETA(context.Background(), route)
	require.NoError(t, err)

	assert.Equal(t, 158, result.WaitTime)
	assert.False(t, result.IsEstimate)

	// 08:30:00 + 158s wait + 45m travel.
	assert.Equal(t, "2026-09-01T09:17:38+09:00", result.EstimatedArrival)

	// Walk legs emit nothing; transit legs appear in route order.
	require.Len(t, result.LegArrivals, 2)
	assert.Equal(t, "7016", result.LegArrivals[0].LineName)
	assert.False(t, result.LegArrivals[0].IsEstimate)
	assert.Equal(t, "2호선", result.LegArrivals[1].LineName)
}

func TestETAFirstLegWaitUsesEarliestLiveReading(t *testing.T) {
	f := newFixture(t)

	// The first transit leg (subway) has no data, but a later leg
	// does: the route is clearly runnable, so the headline wait is
	// real, taken from the earliest reading anywhere on the route.
	f.cityBus.byStop["03-010"] = []realtime.Arrival{
		{StationName: "한강진역", LineName: "7016", Seconds: 300},
	}

	route := Route{
		ID:         "r1",
		TravelTime: 40,
		Legs: []RouteLeg{
			{ID: "l1", Kind: LegCitySubway, LineNames: []string{"2호선"}, StartStation: "강남", EndStation: "잠실새내"},
			{ID: "l2", Kind: LegCityBus, LineNames: []string{"7016"}, StartStation: "한강진역", StartStationID: "03-010"},
		},
	}

	result, err := f.calc.ETA(context.Background(), route)
	require.NoError(t, err)

	assert.Equal(t, 300, result.WaitTime)
	assert.False(t, result.IsEstimate)

	// The silent subway leg still shows a placeholder row.
	require.Len(t, result.LegArrivals, 2)
	assert.Equal(t, NoRealtimeMessage, result.LegArrivals[0].ArrivalMessage)
	assert.True(t, result.LegArrivals[0].IsEstimate)
	assert.Equal(t, f.calc.SubwayHeadway, result.LegArrivals[0].ArrivalTime)
}

func TestETAAllFeedsSilent(t *testing.T) {
	f := newFixture(t)

	route := Route{
		ID:         "r1",
		TravelTime: 30,
		Legs: []RouteLeg{
			{ID: "l1", Kind: LegCitySubway, LineNames: []string{"2호선"}, StartStation: "강남", EndStation: "잠실새내"},
			{ID: "l2", Kind: LegCityBus, LineNames: []string{"7016", "421"}, StartStation: "한강진역", StartStationID: "03-010"},
		},
	}

	result, err := f.calc.ETA(context.Background(), route)
	require.NoError(t, err)

	// Headway fallback for the first transit leg's mode.
	assert.Equal(t, DefaultSubwayHeadway, result.WaitTime)
	assert.True(t, result.IsEstimate)

	// One placeholder per configured line.
	require.Len(t, result.LegArrivals, 3)
	assert.Equal(t, "2호선", result.LegArrivals[0].LineName)
	assert.Equal(t, DefaultSubwayHeadway, result.LegArrivals[0].ArrivalTime)
	assert.Equal(t, "7016", result.LegArrivals[1].LineName)
	assert.Equal(t, DefaultBusHeadway, result.LegArrivals[1].ArrivalTime)
	assert.Equal(t, "421", result.LegArrivals[2].LineName)
}

func TestETAIntercitySchedule(t *testing.T) {
	f := newFixture(t)
	f.schedules.byPair["동서울터미널|안동터미널"] = []intercity.Departure{
		{DepartureTime: "09:00", ArrivalTime: "11:50", WaitMinutes: 30, Grade: "우등", Charge: 28000},
		{DepartureTime: "10:00", ArrivalTime: "12:50", WaitMinutes: 90, Grade: "일반", Charge: 21000},
	}

	route := Route{
		ID:         "r1",
		TravelTime: 200,
		Legs: []RouteLeg{
			{ID: "l1", Kind: LegIntercityBus, StartStation: "동서울터미널", EndStation: "안동터미널"},
		},
	}

	result, err := f.calc.ETA(context.Background(), route)
	require.NoError(t, err)

	// The first departure's wait headlines, in seconds.
	assert.Equal(t, 1800, result.WaitTime)
	assert.False(t, result.IsEstimate)

	require.Len(t, result.LegArrivals, 2)
	assert.Equal(t, ArrivalInfo{
		StationName:    "동서울터미널",
		LineName:       "시외버스",
		ArrivalTime:    1800,
		ArrivalMessage: "09:00 출발",
		VehicleType:    "우등",
		IsSchedule:     true,
	}, result.LegArrivals[0])
	assert.Equal(t, "10:00 출발", result.LegArrivals[1].ArrivalMessage)
}

func TestETAIntercityScheduleEmpty(t *testing.T) {
	f := newFixture(t)

	route := Route{
		ID:         "r1",
		TravelTime: 200,
		Legs: []RouteLeg{
			{ID: "l1", Kind: LegIntercityBus, StartStation: "동서울터미널", EndStation: "안동터미널"},
		},
	}

	result, err := f.calc.ETA(context.Background(), route)
	require.NoError(t, err)

	assert.Equal(t, DefaultBusHeadway, result.WaitTime)
	assert.True(t, result.IsEstimate)

	require.Len(t, result.LegArrivals, 1)
	assert.Equal(t, NoScheduleMessage, result.LegArrivals[0].ArrivalMessage)
	assert.True(t, result.LegArrivals[0].IsSchedule)
	assert.True(t, result.LegArrivals[0].IsEstimate)
}

func TestETAExpressLegQueriesExpressTimetable(t *testing.T) {
	f := newFixture(t)
	f.schedules.byPair["서울고속버스터미널|부산종합버스터미널|express"] = []intercity.Departure{
		{DepartureTime: "09:10", WaitMinutes: 40, Grade: "프리미엄", Charge: 44000},
	}

	route := Route{
		ID:         "r1",
		TravelTime: 260,
		Legs: []RouteLeg{
			{ID: "l1", Kind: LegExpressBus, StartStation: "서울고속버스터미널", EndStation: "부산종합버스터미널"},
		},
	}

	result, err := f.calc.ETA(context.Background(), route)
	require.NoError(t, err)

	assert.Equal(t, 40*60, result.WaitTime)
	require.Len(t, result.LegArrivals, 1)
	assert.Equal(t, "고속버스", result.LegArrivals[0].LineName)
	assert.Equal(t, "프리미엄", result.LegArrivals[0].VehicleType)
}

func TestETAWalkOnlyRoute(t *testing.T) {
	f := newFixture(t)

	route := Route{
		ID:         "r1",
		TravelTime: 15,
		Legs: []RouteLeg{
			{ID: "l1", Kind: LegWalk, StartStation: "집", EndStation: "회사"},
		},
	}

	result, err := f.calc.ETA(context.Background(), route)
	require.NoError(t, err)

	assert.Equal(t, 0, result.WaitTime)
	assert.Empty(t, result.LegArrivals)
	assert.Equal(t, "2026-09-01T08:45:00+09:00", result.EstimatedArrival)
}
