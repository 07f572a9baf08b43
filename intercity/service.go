package intercity

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/bluele/gcache"

	"goyo.dev/transit/storage"
)

const (
	scheduleCacheSize = 256
	scheduleCacheTTL  = 6 * time.Hour
)

// Suffix words commonly dropped or added when users name a terminal.
// Ordered longest-first so the most specific suffix wins.
var terminalSuffixes = []string{
	"고속버스터미널",
	"시외버스터미널",
	"종합버스터미널",
	"버스터미널",
	"터미널",
}

// One upcoming departure, ready for display.
type Departure struct {
	DepartureTime string // HH:mm local
	ArrivalTime   string // HH:mm local, "" when the feed omits it
	WaitMinutes   int
	Grade         string
	Charge        int
}

// Service answers "when does the next bus leave" for terminal pairs.
// The terminal directory is synchronized from the feed on first use
// and persisted through storage; day timetables are cached per
// (pair, date), so the cache rolls over naturally at midnight.
type Service struct {
	Directory DirectoryFeed
	Timetable TimetableFeed
	Store     storage.Storage
	CityCodes []string
	Location  *time.Location
	TimeNow   func() time.Time
	Logger    *slog.Logger

	mutex     sync.Mutex
	terminals []Terminal
	synced    bool
	matches   map[string]string // query name -> terminal ID, "" = known miss

	schedules gcache.Cache
}

func NewService(directory DirectoryFeed, timetable TimetableFeed, store storage.Storage, location *time.Location) *Service {
	return &Service{
		Directory: directory,
		Timetable: timetable,
		Store:     store,
		CityCodes: DefaultCityCodes,
		Location:  location,
		TimeNow:   time.Now,
		Logger:    slog.Default(),
		matches:   map[string]string{},
		schedules: gcache.New(scheduleCacheSize).LRU().Build(),
	}
}

// Loads the terminal directory: from storage if previously synced,
// otherwise from the directory feed (and persisted for next time).
func (s *Service) ensureDirectory(ctx context.Context) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.synced {
		return nil
	}

	stored, err := s.Store.Terminals()
	if err != nil {
		return fmt.Errorf("reading stored terminals: %w", err)
	}
	if len(stored) > 0 {
		for _, t := range stored {
			s.terminals = append(s.terminals, Terminal{ID: t.ID, Name: t.Name, City: t.City})
		}
		s.synced = true
		return nil
	}

	// First use: pull the directory from the feed. A city failing
	// to list costs coverage, not correctness.
	records := []storage.TerminalRecord{}
	for _, cityCode := range s.CityCodes {
		terminals, err := s.Directory.Terminals(ctx, cityCode)
		if err != nil {
			s.Logger.Warn("terminal directory sync failed for city",
				"cityCode", cityCode, "error", err)
			continue
		}
		for _, t := range terminals {
			s.terminals = append(s.terminals, t)
			records = append(records, storage.TerminalRecord{ID: t.ID, Name: t.Name, City: t.City})
		}
	}
	if len(s.terminals) == 0 {
		return fmt.Errorf("terminal directory sync produced no terminals")
	}

	if err := s.Store.WriteTerminals(records); err != nil {
		s.Logger.Warn("persisting terminal directory failed", "error", err)
	}
	s.synced = true
	return nil
}

// FindTerminal resolves a human terminal name to a terminal ID, or ""
// when no tier of the match cascade succeeds. Results, including
// misses, are memoized for the process lifetime.
func (s *Service) FindTerminal(ctx context.Context, name string) (string, error) {
	if err := s.ensureDirectory(ctx); err != nil {
		return "", err
	}

	query := strings.ReplaceAll(strings.TrimSpace(name), " ", "")
	if query == "" {
		return "", nil
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if id, found := s.matches[query]; found {
		return id, nil
	}

	id := s.match(query)
	s.matches[query] = id
	return id, nil
}

// The match cascade: exact, directory-contains-query,
// query-contains-directory, then both again with terminal suffix
// words stripped. First tier with a hit wins.
func (s *Service) match(query string) string {
	type tier func(dir, q string) bool
	tiers := []tier{
		func(dir, q string) bool { return dir == q },
		func(dir, q string) bool { return strings.Contains(dir, q) },
		func(dir, q string) bool { return strings.Contains(q, dir) },
		func(dir, q string) bool { return stripSuffix(dir) == stripSuffix(q) },
		func(dir, q string) bool {
			ds, qs := stripSuffix(dir), stripSuffix(q)
			return strings.Contains(ds, qs) || strings.Contains(qs, ds)
		},
	}

	for _, match := range tiers {
		for _, t := range s.terminals {
			dir := strings.ReplaceAll(t.Name, " ", "")
			if match(dir, query) {
				return t.ID
			}
		}
	}
	return ""
}

func stripSuffix(name string) string {
	for _, suffix := range terminalSuffixes {
		if trimmed := strings.TrimSuffix(name, suffix); trimmed != name && trimmed != "" {
			return trimmed
		}
	}
	return name
}

// UpcomingDepartures resolves both terminal names and returns the
// next count departures strictly after the current local time, in
// schedule order. Fails closed to an empty list when either name
// cannot be resolved.
func (s *Service) UpcomingDepartures(ctx context.Context, startName, endName string, count int, express bool) ([]Departure, error) {
	depID, err := s.FindTerminal(ctx, startName)
	if err != nil {
		return nil, err
	}
	arrID, err := s.FindTerminal(ctx, endName)
	if err != nil {
		return nil, err
	}
	if depID == "" || arrID == "" {
		s.Logger.Info("terminal not found",
			"start", startName, "end", endName,
			"startResolved", depID != "", "endResolved", arrID != "")
		return []Departure{}, nil
	}

	now := s.TimeNow().In(s.Location)
	runs, err := s.dayRuns(ctx, depID, arrID, now.Format("20060102"), express)
	if err != nil {
		s.Logger.Warn("timetable fetch failed",
			"dep", depID, "arr", arrID, "error", err)
		return []Departure{}, nil
	}

	departures := []Departure{}
	for _, run := range runs {
		if !run.Departure.After(now) {
			continue
		}
		dep := Departure{
			DepartureTime: run.Departure.In(s.Location).Format("15:04"),
			WaitMinutes:   int(run.Departure.Sub(now).Minutes()),
			Grade:         run.Grade,
			Charge:        run.Charge,
		}
		if !run.Arrival.IsZero() {
			dep.ArrivalTime = run.Arrival.In(s.Location).Format("15:04")
		}
		departures = append(departures, dep)
		if len(departures) == count {
			break
		}
	}

	return departures, nil
}

// The full day's timetable for a terminal pair, cache-served. The
// local calendar date is part of the key; stale-date entries age out
// via TTL and LRU eviction.
func (s *Service) dayRuns(ctx context.Context, depID, arrID, date string, express bool) ([]ScheduledRun, error) {
	key := fmt.Sprintf("%s|%s|%s|%t", depID, arrID, date, express)

	if cached, err := s.schedules.Get(key); err == nil {
		return cached.([]ScheduledRun), nil
	}

	runs, err := s.Timetable.Runs(ctx, depID, arrID, date, express)
	if err != nil {
		return nil, err
	}

	_ = s.schedules.SetWithExpire(key, runs, scheduleCacheTTL)
	return runs, nil
}
