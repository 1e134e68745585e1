package reinforcement

import (
	"hash/fnv"
	"sort"
	"strconv"
	"strings"
)

// StateKey is an opaque, hashable, comparable summary of a world
// snapshot: the grid layout hash (computed once at load time and cached
// by the caller), every agent's position, every object's position, each
// agent's sorted inventory, and a coarse iteration bucket (iter/5). Being
// a plain comparable struct, it works directly as a Go map key, which is
// the structured-key approach the design notes prefer over a hash string.
type StateKey struct {
	GridHash    uint64
	Positions   string // sorted "agent:x,y;..." tuple
	Objects     string // sorted "name:x,y;..." tuple
	Inventories string // sorted "agent:item,item;..." tuple
	IterBucket  int
}

// PositionXY is the minimal (x, y) pair StateKey needs from a caller;
// kept local to avoid a dependency from reinforcement onto worldstate.
type PositionXY struct {
	X, Y int
}

// NewStateKey builds a StateKey deterministically: all three maps are
// sorted by key before serializing, so insertion order never leaks into
// the key.
func NewStateKey(
	gridHash uint64,
	positions map[string]PositionXY,
	objects map[string]PositionXY,
	inventories map[string][]string,
	iteration int,
) StateKey {
	return StateKey{
		GridHash:    gridHash,
		Positions:   serializePositions(positions),
		Objects:     serializePositions(objects),
		Inventories: serializeInventories(inventories),
		IterBucket:  iteration / 5,
	}
}

func serializePositions(m map[string]PositionXY) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		p := m[k]
		b.WriteString(k)
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(p.X))
		b.WriteByte(',')
		b.WriteString(strconv.Itoa(p.Y))
		b.WriteByte(';')
	}
	return b.String()
}

func serializeInventories(m map[string][]string) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		items := append([]string(nil), m[k]...)
		sort.Strings(items)
		b.WriteString(k)
		b.WriteByte(':')
		b.WriteString(strings.Join(items, ","))
		b.WriteByte(';')
	}
	return b.String()
}

// HashGrid computes a stable hash of a text grid layout, to be computed
// once at load time and reused across every StateKey in the run (hashing
// the grid layout once beats re-hashing it every step).
func HashGrid(rows []string) uint64 {
	h := fnv.New64a()
	for _, row := range rows {
		_, _ = h.Write([]byte(row))
		_, _ = h.Write([]byte{'\n'})
	}
	return h.Sum64()
}
