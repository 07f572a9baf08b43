package subway

import (
	"bytes"
	"embed"
	"io"
	"sort"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"
	"github.com/spkg/bom"
)

// The static station-order tables shipped with the package. One row
// per line in lines.csv, one row per station in stations.csv (branch
// stations carry the branch name), and one row per branch in
// branches.csv naming the main-line station the branch hangs off.
//
//go:embed data/lines.csv data/stations.csv data/branches.csv
var tableFS embed.FS

type lineCSV struct {
	ID            string `csv:"line_id"`
	Name          string `csv:"line_name"`
	Circular      int8   `csv:"circular"`
	ForwardLabel  string `csv:"forward_label"`
	BackwardLabel string `csv:"backward_label"`
}

type stationCSV struct {
	LineID  string `csv:"line_id"`
	Branch  string `csv:"branch"`
	Seq     int    `csv:"seq"`
	Station string `csv:"station"`
}

type branchCSV struct {
	LineID        string `csv:"line_id"`
	Branch        string `csv:"branch"`
	AttachStation string `csv:"attach_station"`
}

func unmarshalTable(name string, out interface{}) error {
	buf, err := tableFS.ReadFile(name)
	if err != nil {
		return errors.Wrapf(err, "reading %s", name)
	}

	// The BOM reader strips unicode BOMs, which tend to sneak into
	// hand-maintained CSV files.
	gocsv.SetCSVReader(func(in io.Reader) gocsv.CSVReader {
		return gocsv.LazyCSVReader(bom.NewReader(in))
	})

	if err := gocsv.Unmarshal(bytes.NewReader(buf), out); err != nil {
		return errors.Wrapf(err, "unmarshaling %s", name)
	}

	return nil
}

// Parses the embedded station tables into per-line definitions.
func loadTables() ([]*lineDef, error) {
	lines := []*lineCSV{}
	if err := unmarshalTable("data/lines.csv", &lines); err != nil {
		return nil, err
	}

	stations := []*stationCSV{}
	if err := unmarshalTable("data/stations.csv", &stations); err != nil {
		return nil, err
	}

	branches := []*branchCSV{}
	if err := unmarshalTable("data/branches.csv", &branches); err != nil {
		return nil, err
	}

	defByID := map[string]*lineDef{}
	defs := []*lineDef{}
	for _, l := range lines {
		if l.ID == "" {
			return nil, errors.New("empty line_id in lines.csv")
		}
		if _, dup := defByID[l.ID]; dup {
			return nil, errors.Errorf("repeated line_id '%s'", l.ID)
		}
		def := &lineDef{
			ID:            l.ID,
			Name:          l.Name,
			Circular:      l.Circular != 0,
			ForwardLabel:  l.ForwardLabel,
			BackwardLabel: l.BackwardLabel,
			branches:      map[string]*branchDef{},
		}
		defByID[l.ID] = def
		defs = append(defs, def)
	}

	for _, b := range branches {
		def, found := defByID[b.LineID]
		if !found {
			return nil, errors.Errorf("branch '%s' references unknown line_id '%s'", b.Branch, b.LineID)
		}
		def.branches[b.Branch] = &branchDef{
			Name:   b.Branch,
			Attach: Normalize(b.AttachStation),
		}
	}

	sort.SliceStable(stations, func(i, j int) bool {
		return stations[i].Seq < stations[j].Seq
	})
	for _, st := range stations {
		def, found := defByID[st.LineID]
		if !found {
			return nil, errors.Errorf("station '%s' references unknown line_id '%s'", st.Station, st.LineID)
		}
		name := Normalize(st.Station)
		if name == "" {
			return nil, errors.Errorf("empty station name on line '%s'", st.LineID)
		}
		if st.Branch == "" {
			def.Main = append(def.Main, name)
			continue
		}
		br, found := def.branches[st.Branch]
		if !found {
			return nil, errors.Errorf("station '%s' references unknown branch '%s'", st.Station, st.Branch)
		}
		br.Stations = append(br.Stations, name)
	}

	for _, def := range defs {
		if len(def.Main) < 2 {
			return nil, errors.Errorf("line '%s' has fewer than 2 stations", def.ID)
		}
		for _, br := range def.branches {
			if !contains(def.Main, br.Attach) {
				return nil, errors.Errorf(
					"branch '%s' attaches to '%s', which is not on line '%s'",
					br.Name, br.Attach, def.ID,
				)
			}
		}
	}

	return defs, nil
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
