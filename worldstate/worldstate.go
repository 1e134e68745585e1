// Package worldstate holds the rich, read-only view of the environment
// that fact extractors and the judge consult each step. It is deliberately
// free of behavior: the environment driver owns mutation, this package
// only describes the shape agents see.
package worldstate

// Position is a grid coordinate.
type Position struct {
	X, Y int
}

// ObjectView is the read-only projection of a live environment object.
type ObjectView struct {
	Pos    Position
	Symbol rune
	Flags  []string
}

// ActionView describes the last action an agent took, generalized to the
// (movement, speed) tuple form used by speed-aware presets; Speed is
// empty for plain single-token actions.
type ActionView struct {
	Movement string
	Speed    string
}

// View is the per-step snapshot handed to fact extractors and the judge.
// Grid is indexed [y][x] consistent with the text-map loading convention
// (one row per line).
type View struct {
	Grid        [][]rune
	Positions   map[string]Position // agent name -> position
	Inventories map[string][]string // agent name -> ordered inventory
	Objects     map[string]ObjectView
	LastActions map[string]ActionView
	Iteration   int
}

// CellAt returns the grid cell at (x, y); ok is false if out of bounds.
func (v View) CellAt(x, y int) (rune, bool) {
	if y < 0 || y >= len(v.Grid) {
		return 0, false
	}
	row := v.Grid[y]
	if x < 0 || x >= len(row) {
		return 0, false
	}
	return row[x], true
}

// AgentPosition returns an agent's position, or the zero Position if
// unknown.
func (v View) AgentPosition(agent string) (Position, bool) {
	p, ok := v.Positions[agent]
	return p, ok
}

// HasItem reports whether an agent's inventory contains item.
func (v View) HasItem(agent, item string) bool {
	for _, it := range v.Inventories[agent] {
		if it == item {
			return true
		}
	}
	return false
}
