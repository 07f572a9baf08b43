package storage

import (
	"sort"
	"sync"
)

// In memory implementation of Storage. Used in tests and for running
// without a database.

type MemoryStorage struct {
	mutex     sync.Mutex
	routes    map[string]*RouteRecord
	terminals []TerminalRecord
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		routes: map[string]*RouteRecord{},
	}
}

func (s *MemoryStorage) Route(id string) (*RouteRecord, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	route, found := s.routes[id]
	if !found {
		return nil, ErrNotFound
	}
	copied := *route
	copied.Legs = append([]LegRecord{}, route.Legs...)
	return &copied, nil
}

func (s *MemoryStorage) RoutesByUser(userID string) ([]*RouteRecord, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	routes := []*RouteRecord{}
	for _, route := range s.routes {
		if route.UserID != userID {
			continue
		}
		copied := *route
		copied.Legs = append([]LegRecord{}, route.Legs...)
		routes = append(routes, &copied)
	}
	sort.Slice(routes, func(i, j int) bool {
		return routes[i].ID < routes[j].ID
	})
	return routes, nil
}

func (s *MemoryStorage) WriteRoute(route *RouteRecord) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	copied := *route
	copied.Legs = append([]LegRecord{}, route.Legs...)
	sort.Slice(copied.Legs, func(i, j int) bool {
		return copied.Legs[i].Seq < copied.Legs[j].Seq
	})
	for i := range copied.Legs {
		copied.Legs[i].RouteID = copied.ID
	}
	s.routes[route.ID] = &copied
	return nil
}

func (s *MemoryStorage) DeleteRoute(id string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, found := s.routes[id]; !found {
		return ErrNotFound
	}
	delete(s.routes, id)
	return nil
}

func (s *MemoryStorage) UpdateLegStationID(legID string, stationID string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for _, route := range s.routes {
		for i := range route.Legs {
			if route.Legs[i].ID == legID {
				route.Legs[i].GyeonggiStationID = stationID
				return nil
			}
		}
	}
	return ErrNotFound
}

func (s *MemoryStorage) Terminals() ([]TerminalRecord, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return append([]TerminalRecord{}, s.terminals...), nil
}

func (s *MemoryStorage) WriteTerminals(terminals []TerminalRecord) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.terminals = append([]TerminalRecord{}, terminals...)
	return nil
}
