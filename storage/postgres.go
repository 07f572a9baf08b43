package storage

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

type PSQLStorage struct {
	db *sql.DB
}

func NewPSQLStorage(connStr string, clearDB bool) (*PSQLStorage, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if clearDB {
		_, err = db.Exec(`DROP TABLE IF EXISTS route, leg, terminal`)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("dropping tables: %w", err)
		}
	}

	_, err = db.Exec(`
CREATE TABLE IF NOT EXISTS route (
    id TEXT NOT NULL,
    user_id TEXT NOT NULL,
    name TEXT NOT NULL,
    source TEXT NOT NULL,
    route_type TEXT NOT NULL,
    total_time INTEGER NOT NULL,
PRIMARY KEY (id)
);

CREATE TABLE IF NOT EXISTS leg (
    id TEXT NOT NULL,
    route_id TEXT NOT NULL,
    seq INTEGER NOT NULL,
    type TEXT NOT NULL,
    sub_type TEXT NOT NULL,
    line_names TEXT NOT NULL,
    start_station TEXT NOT NULL,
    end_station TEXT NOT NULL,
    start_station_id TEXT NOT NULL,
    gyeonggi_station_id TEXT NOT NULL,
    section_time INTEGER NOT NULL,
PRIMARY KEY (id)
);

CREATE INDEX IF NOT EXISTS leg_route ON leg (route_id);

CREATE TABLE IF NOT EXISTS terminal (
    id TEXT NOT NULL,
    name TEXT NOT NULL,
    city TEXT NOT NULL,
PRIMARY KEY (id)
);`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating tables: %w", err)
	}

	return &PSQLStorage{db: db}, nil
}

func (s *PSQLStorage) Close() error {
	return s.db.Close()
}

func (s *PSQLStorage) Route(id string) (*RouteRecord, error) {
	routes, err := s.queryRoutes("WHERE id = $1", id)
	if err != nil {
		return nil, err
	}
	if len(routes) == 0 {
		return nil, ErrNotFound
	}
	return routes[0], nil
}

func (s *PSQLStorage) RoutesByUser(userID string) ([]*RouteRecord, error) {
	return s.queryRoutes("WHERE user_id = $1 ORDER BY id", userID)
}

func (s *PSQLStorage) queryRoutes(where string, param string) ([]*RouteRecord, error) {
	rows, err := s.db.Query(`
SELECT id, user_id, name, source, route_type, total_time
FROM route `+where, param)
	if err != nil {
		return nil, fmt.Errorf("querying routes: %w", err)
	}
	defer rows.Close()

	routes := []*RouteRecord{}
	for rows.Next() {
		route := &RouteRecord{}
		err = rows.Scan(
			&route.ID, &route.UserID, &route.Name,
			&route.Source, &route.RouteType, &route.TotalTime,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning route: %w", err)
		}
		routes = append(routes, route)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading routes: %w", err)
	}

	for _, route := range routes {
		legs, err := s.queryLegs(route.ID)
		if err != nil {
			return nil, err
		}
		route.Legs = legs
	}

	return routes, nil
}

func (s *PSQLStorage) queryLegs(routeID string) ([]LegRecord, error) {
	rows, err := s.db.Query(`
SELECT
    id, route_id, seq, type, sub_type, line_names,
    start_station, end_station, start_station_id,
    gyeonggi_station_id, section_time
FROM leg
WHERE route_id = $1
ORDER BY seq`, routeID)
	if err != nil {
		return nil, fmt.Errorf("querying legs: %w", err)
	}
	defer rows.Close()

	legs := []LegRecord{}
	for rows.Next() {
		leg := LegRecord{}
		var lineNames string
		err = rows.Scan(
			&leg.ID, &leg.RouteID, &leg.Seq, &leg.Type, &leg.SubType,
			&lineNames, &leg.StartStation, &leg.EndStation,
			&leg.StartStationID, &leg.GyeonggiStationID, &leg.SectionTime,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning leg: %w", err)
		}
		leg.LineNames = splitLineNames(lineNames)
		legs = append(legs, leg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading legs: %w", err)
	}

	return legs, nil
}

func (s *PSQLStorage) WriteRoute(route *RouteRecord) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
INSERT INTO route (id, user_id, name, source, route_type, total_time)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (id) DO UPDATE SET
    user_id = EXCLUDED.user_id,
    name = EXCLUDED.name,
    source = EXCLUDED.source,
    route_type = EXCLUDED.route_type,
    total_time = EXCLUDED.total_time`,
		route.ID, route.UserID, route.Name,
		route.Source, route.RouteType, route.TotalTime,
	)
	if err != nil {
		return fmt.Errorf("writing route: %w", err)
	}

	_, err = tx.Exec(`DELETE FROM leg WHERE route_id = $1`, route.ID)
	if err != nil {
		return fmt.Errorf("clearing legs: %w", err)
	}

	for _, leg := range route.Legs {
		_, err = tx.Exec(`
INSERT INTO leg (
    id, route_id, seq, type, sub_type, line_names,
    start_station, end_station, start_station_id,
    gyeonggi_station_id, section_time
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			leg.ID, route.ID, leg.Seq, leg.Type, leg.SubType,
			joinLineNames(leg.LineNames), leg.StartStation, leg.EndStation,
			leg.StartStationID, leg.GyeonggiStationID, leg.SectionTime,
		)
		if err != nil {
			return fmt.Errorf("writing leg '%s': %w", leg.ID, err)
		}
	}

	return tx.Commit()
}

func (s *PSQLStorage) DeleteRoute(id string) error {
	res, err := s.db.Exec(`DELETE FROM route WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting route: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking deletion: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	_, err = s.db.Exec(`DELETE FROM leg WHERE route_id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting legs: %w", err)
	}
	return nil
}

func (s *PSQLStorage) UpdateLegStationID(legID string, stationID string) error {
	res, err := s.db.Exec(
		`UPDATE leg SET gyeonggi_station_id = $1 WHERE id = $2`,
		stationID, legID,
	)
	if err != nil {
		return fmt.Errorf("updating leg: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PSQLStorage) Terminals() ([]TerminalRecord, error) {
	rows, err := s.db.Query(`SELECT id, name, city FROM terminal ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying terminals: %w", err)
	}
	defer rows.Close()

	terminals := []TerminalRecord{}
	for rows.Next() {
		t := TerminalRecord{}
		if err := rows.Scan(&t.ID, &t.Name, &t.City); err != nil {
			return nil, fmt.Errorf("scanning terminal: %w", err)
		}
		terminals = append(terminals, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading terminals: %w", err)
	}
	return terminals, nil
}

func (s *PSQLStorage) WriteTerminals(terminals []TerminalRecord) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM terminal`); err != nil {
		return fmt.Errorf("clearing terminals: %w", err)
	}
	for _, t := range terminals {
		_, err := tx.Exec(
			`INSERT INTO terminal (id, name, city) VALUES ($1, $2, $3)`,
			t.ID, t.Name, t.City,
		)
		if err != nil {
			return fmt.Errorf("writing terminal '%s': %w", t.ID, err)
		}
	}

	return tx.Commit()
}
