// Package subway answers direction and reachability questions about
// the subway network, based on static per-line station-order tables.
//
// The network is a pure derived structure: build it once at startup
// and share it freely, it is never mutated after construction.
package subway

import (
	"strings"
)

type lineDef struct {
	ID            string
	Name          string
	Circular      bool
	ForwardLabel  string
	BackwardLabel string
	Main          []string
	branches      map[string]*branchDef
}

type branchDef struct {
	Name     string
	Attach   string
	Stations []string
}

// A single line's adjacency graph plus the ordered station lists it
// was built from. Station names are normalized before use as keys.
type Line struct {
	ID            string
	Name          string
	Circular      bool
	ForwardLabel  string
	BackwardLabel string

	main      []string
	mainIndex map[string]int
	branches  map[string]*branchDef
	branchOf  map[string]string // station -> branch name
	adj       map[string][]string
}

// Network holds all configured lines.
type Network struct {
	lines map[string]*Line
}

// Load builds the Network from the embedded station tables.
func Load() (*Network, error) {
	defs, err := loadTables()
	if err != nil {
		return nil, err
	}

	n := &Network{lines: map[string]*Line{}}
	for _, def := range defs {
		l := buildLine(def)
		// Feeds identify lines by numeric code, saved routes by
		// display name. Both resolve.
		n.lines[def.ID] = l
		n.lines[def.Name] = l
	}

	return n, nil
}

// Normalize strips a trailing "역" suffix and surrounding whitespace,
// so lookups are insensitive to how callers spell station names.
func Normalize(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, " ", "")
	// The realtime feed drops the suffix too ("서울역" is listed
	// as "서울"). Very short names keep it so nothing normalizes
	// down to a single rune.
	if len([]rune(name)) > 2 {
		name = strings.TrimSuffix(name, "역")
	}
	return name
}

// Builds the undirected adjacency graph for one line: consecutive
// main-line stations are connected, circular lines get an edge from
// last back to first, and each branch is chained off its attach
// station.
func buildLine(def *lineDef) *Line {
	l := &Line{
		ID:            def.ID,
		Name:          def.Name,
		Circular:      def.Circular,
		ForwardLabel:  def.ForwardLabel,
		BackwardLabel: def.BackwardLabel,
		main:          def.Main,
		mainIndex:     map[string]int{},
		branches:      def.branches,
		branchOf:      map[string]string{},
		adj:           map[string][]string{},
	}

	connect := func(a, b string) {
		l.adj[a] = append(l.adj[a], b)
		l.adj[b] = append(l.adj[b], a)
	}

	for i, name := range def.Main {
		l.mainIndex[name] = i
		if i > 0 {
			connect(def.Main[i-1], name)
		}
	}
	if def.Circular && len(def.Main) > 2 {
		connect(def.Main[len(def.Main)-1], def.Main[0])
	}

	for _, br := range def.branches {
		prev := br.Attach
		for _, name := range br.Stations {
			connect(prev, name)
			l.branchOf[name] = br.Name
			prev = name
		}
	}

	return l
}

// KnownStation reports whether the line's graph contains the station.
func (n *Network) KnownStation(lineID, station string) bool {
	l, found := n.lines[lineID]
	if !found {
		return false
	}
	_, found = l.adj[Normalize(station)]
	return found
}

// WillTrainReach reports whether a train at start, identified by its
// reported terminal station, passes through dest on its way. The
// direction label is only consulted for circular lines, where both
// rotational directions reach every station and the reported label
// decides which way the train is actually going.
//
// Any undeterminable case (unknown line, station, or terminal)
// returns false: a missing train beats one shown in the wrong
// direction.
func (n *Network) WillTrainReach(lineID, start, dest, terminal, direction string) bool {
	l, found := n.lines[lineID]
	if !found {
		return false
	}

	start = Normalize(start)
	dest = Normalize(dest)
	terminal = Normalize(terminal)
	for _, s := range []string{start, dest, terminal} {
		if _, known := l.adj[s]; !known {
			return false
		}
	}

	// A train terminating at the rider's destination reaches it by
	// definition, as long as any path from start exists.
	if dest == terminal {
		return l.bfsPath(start, terminal) != nil
	}

	var path []string
	if l.Circular {
		path = l.directedWalk(start, terminal, direction)
	} else {
		path = l.bfsPath(start, terminal)
	}
	if path == nil {
		return false
	}

	for _, s := range path[1:] {
		if s == dest {
			return true
		}
	}
	return false
}

// Direction determines which of the line's two direction labels
// applies to travel from start to end, based on station positions
// alone. Used when no terminal is available for reachability
// checking. Returns "" when either station is unknown, in which case
// callers must suppress direction filtering rather than guess.
func (n *Network) Direction(lineID, start, end string) string {
	l, found := n.lines[lineID]
	if !found {
		return ""
	}

	si, ok := l.loopIndex(Normalize(start))
	if !ok {
		return ""
	}
	ei, ok := l.loopIndex(Normalize(end))
	if !ok {
		return ""
	}
	if si == ei {
		return ""
	}

	if l.Circular {
		// Whichever rotational direction is shorter.
		m := len(l.main)
		forward := (ei - si + m) % m
		backward := (si - ei + m) % m
		if forward <= backward {
			return l.ForwardLabel
		}
		return l.BackwardLabel
	}

	if ei > si {
		return l.ForwardLabel
	}
	return l.BackwardLabel
}

// Main-line position of a station. Branch stations map to the index
// of their branch's attach station.
func (l *Line) loopIndex(station string) (int, bool) {
	if i, found := l.mainIndex[station]; found {
		return i, true
	}
	if br, found := l.branchOf[station]; found {
		i, found := l.mainIndex[l.branches[br].Attach]
		return i, found
	}
	return 0, false
}

// Unweighted BFS from a to b. Returns the station sequence walked,
// inclusive of both endpoints, or nil if no path exists.
func (l *Line) bfsPath(a, b string) []string {
	if a == b {
		return []string{a}
	}

	parent := map[string]string{a: a}
	queue := []string{a}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range l.adj[cur] {
			if _, seen := parent[next]; seen {
				continue
			}
			parent[next] = cur
			if next == b {
				path := []string{b}
				for s := b; s != a; s = parent[s] {
					path = append(path, parent[s])
				}
				// Reverse into a->b order.
				for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
					path[i], path[j] = path[j], path[i]
				}
				return path
			}
			queue = append(queue, next)
		}
	}

	return nil
}

// Ordered station sequence a train actually traverses on a circular
// line, walking from start toward terminal in the reported rotational
// direction. BFS is no use here: on a loop every station is reachable
// both ways, so the walk has to follow the reported direction
// explicitly. Branch endpoints are spliced through their attach
// station.
func (l *Line) directedWalk(start, terminal, direction string) []string {
	step := 0
	switch direction {
	case l.ForwardLabel:
		step = 1
	case l.BackwardLabel:
		step = -1
	default:
		// Unknown rotational direction: no signal.
		return nil
	}

	path := []string{start}

	// A start on a branch first rides the branch in to its attach
	// station.
	loopStart := start
	if br, found := l.branchOf[start]; found {
		b := l.branches[br]
		pos := -1
		for i, s := range b.Stations {
			if s == start {
				pos = i
				break
			}
		}
		for i := pos - 1; i >= 0; i-- {
			path = append(path, b.Stations[i])
		}
		path = append(path, b.Attach)
		loopStart = b.Attach
	}

	// A terminal on a branch is reached via its attach station,
	// then out along the branch.
	loopEnd := terminal
	var tail []string
	if br, found := l.branchOf[terminal]; found {
		b := l.branches[br]
		for _, s := range b.Stations {
			tail = append(tail, s)
			if s == terminal {
				break
			}
		}
		loopEnd = b.Attach
	}

	si, ok := l.mainIndex[loopStart]
	if !ok {
		return nil
	}
	ei, ok := l.mainIndex[loopEnd]
	if !ok {
		return nil
	}

	m := len(l.main)
	for i := si; i != ei; i = ((i+step)%m + m) % m {
		next := l.main[((i+step)%m+m)%m]
		path = append(path, next)
	}

	return append(path, tail...)
}
