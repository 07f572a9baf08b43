package transit

// Fakes for the upstream sources, shared by the calculator and
// dashboard tests.

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"goyo.dev/transit/intercity"
	"goyo.dev/transit/realtime"
	"goyo.dev/transit/storage"
	"goyo.dev/transit/subway"
)

type fakeCityBus struct {
	mutex   sync.Mutex
	byStop  map[string][]realtime.Arrival
	failure error
	calls   int
}

func (f *fakeCityBus) StopArrivals(ctx context.Context, stopCode string) ([]realtime.Arrival, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.calls++
	if f.failure != nil {
		return nil, f.failure
	}
	return f.byStop[stopCode], nil
}

type fakeRegional struct {
	mutex        sync.Mutex
	resolutions  map[string]string
	byStation    map[string][]realtime.Arrival
	resolveCalls int
	arrivalCalls int
}

func (f *fakeRegional) ResolveStation(ctx context.Context, mobileNo, stationName string) (string, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.resolveCalls++
	return f.resolutions[mobileNo], nil
}

func (f *fakeRegional) StationArrivals(ctx context.Context, stationID string) ([]realtime.Arrival, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.arrivalCalls++
	return f.byStation[stationID], nil
}

type fakeSubway struct {
	mutex     sync.Mutex
	byStation map[string][]realtime.Arrival
	calls     int
}

func (f *fakeSubway) StationArrivals(ctx context.Context, stationName string) ([]realtime.Arrival, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.calls++
	return f.byStation[subway.Normalize(stationName)], nil
}

type fakeSchedules struct {
	mutex  sync.Mutex
	byPair map[string][]intercity.Departure
	calls  int
}

func (f *fakeSchedules) UpcomingDepartures(ctx context.Context, startName, endName string, count int, express bool) ([]intercity.Departure, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.calls++
	key := startName + "|" + endName
	if express {
		key += "|express"
	}
	departures := f.byPair[key]
	if len(departures) > count {
		departures = departures[:count]
	}
	return departures, nil
}

type calculatorFixture struct {
	calc      *Calculator
	store     storage.Storage
	cityBus   *fakeCityBus
	regional  *fakeRegional
	subway    *fakeSubway
	schedules *fakeSchedules
}

func newFixture(t *testing.T) *calculatorFixture {
	network, err := subway.Load()
	require.NoError(t, err)

	location, err := time.LoadLocation("Asia/Seoul")
	require.NoError(t, err)

	f := &calculatorFixture{
		store:     storage.NewMemoryStorage(),
		cityBus:   &fakeCityBus{byStop: map[string][]realtime.Arrival{}},
		regional:  &fakeRegional{resolutions: map[string]string{}, byStation: map[string][]realtime.Arrival{}},
		subway:    &fakeSubway{byStation: map[string][]realtime.Arrival{}},
		schedules: &fakeSchedules{byPair: map[string][]intercity.Departure{}},
	}
	f.calc = NewCalculator(
		f.store, network,
		f.cityBus, f.regional, f.subway, f.schedules,
		location,
	)
	// 08:30 on a weekday, well clear of the off-hours window.
	f.calc.TimeNow = func() time.Time {
		return time.Date(2026, 9, 1, 8, 30, 0, 0, location)
	}
	return f
}

func regionalBusRouteRecord(id, userID string) *storage.RouteRecord {
	return &storage.RouteRecord{
		ID:        id,
		UserID:    userID,
		Name:      "광역버스 출근",
		Source:    "local",
		RouteType: "commute",
		TotalTime: 55,
		Legs: []storage.LegRecord{
			{
				ID:             id + "-bus",
				Seq:            0,
				Type:           "bus",
				LineNames:      []string{"M4101"},
				StartStation:   "수지구청역",
				EndStation:     "강남역",
				StartStationID: "47105",
				SectionTime:    50,
			},
		},
	}
}
