package env

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"pinocchio/agent"
	"pinocchio/reinforcement"
	"pinocchio/worldstate"
)

// Movements is the fixed four-directional action universe most presets
// use; a movement may be suffixed with ":speed" (e.g. "up:fast") for
// presets that judge a speed-aware norm.
var Movements = []string{"up", "down", "left", "right"}

// ObjectDef is a pickup: reaching its position, with Condition satisfied
// against the visiting agent's inventory, grants Reward, raises Flags for
// the visiting agent plus GlobalFlags for every agent (the broadcast step
// of §4.5), applies InvAdd/InvRem to the agent's inventory, and deletes
// the object unless Permanent.
type ObjectDef struct {
	Pos         worldstate.Position
	Symbol      rune
	Flags       []string
	GlobalFlags []string
	Reward      float64
	Permanent   bool
	InvAdd      []string
	InvRem      []string
	// Condition entries are matched against the visiting agent's
	// inventory; a "not-X" entry requires X to be absent.
	Condition []string
}

// PresetBuilder configures an Environment's grid, agents, and objects.
// resetAgent is false on a timeout-triggered reload: Build only needs to
// rebuild the objects map (and anything else object-related); the driver
// itself repositions every registered agent back to its starting
// position and resets its inventory after Build returns, so agents and
// their learned Q-tables are never recreated.
type PresetBuilder interface {
	Build(e *Environment, resetAgent bool) error
}

// Environment drives the episodic grid world: sequential per-agent
// stepping with shared-state visibility, a global-flag broadcast before
// judgment, and timeout-triggered preset reloads.
type Environment struct {
	Width, Height int
	Grid          [][]CellType
	GridHash      uint64

	Objects   map[string]ObjectDef
	Agents    []*agent.NormativeAgent
	Positions map[string]worldstate.Position
	starts    map[string]worldstate.Position // agent name -> episode-reset start position

	lastActions map[string]worldstate.ActionView

	Stochasticity float64
	Steps         int
	Timeout       int
	Iterations    int

	builder    PresetBuilder
	presetName string

	Historic []RunRecord

	rng *rand.Rand
}

// New returns an Environment with a default 10% random-action
// substitution rate and no preset loaded.
func New(seed int64) *Environment {
	return &Environment{
		Objects:       make(map[string]ObjectDef),
		Positions:     make(map[string]worldstate.Position),
		starts:        make(map[string]worldstate.Position),
		lastActions:   make(map[string]worldstate.ActionView),
		Stochasticity: 0.1,
		rng:           rand.New(rand.NewSource(seed)),
	}
}

// LoadPreset installs builder, names it, and runs it once with
// resetAgent=true.
func (e *Environment) LoadPreset(name string, builder PresetBuilder) error {
	e.presetName = name
	e.builder = builder
	return builder.Build(e, true)
}

// reloadPreset rebuilds the preset's objects (resetAgent=false), then
// repositions every agent to its episode-start position and clears its
// inventory. This mirrors environment.py's loadAdam, which re-runs
// setPos on every reload outside the reset_agent guard: objects and
// inventories are rebuilt each episode, but agents and their learned
// Q-tables persist across the whole run.
func (e *Environment) reloadPreset() error {
	if e.builder == nil {
		return nil
	}
	if err := e.builder.Build(e, false); err != nil {
		return err
	}
	for _, a := range e.Agents {
		if start, ok := e.starts[a.Name]; ok {
			e.Positions[a.Name] = start
		}
		a.ResetInventory()
	}
	return nil
}

// SetGrid installs a loaded grid and its precomputed hash.
func (e *Environment) SetGrid(grid [][]CellType, hash uint64) {
	e.Grid = grid
	e.GridHash = hash
	if len(grid) > 0 {
		e.Height = len(grid)
		e.Width = len(grid[0])
	}
}

// AddAgent registers an agent at its episode-start position; every
// timeout-triggered reload repositions the agent back here.
func (e *Environment) AddAgent(a *agent.NormativeAgent, pos worldstate.Position) {
	e.Agents = append(e.Agents, a)
	e.Positions[a.Name] = pos
	e.starts[a.Name] = pos
}

// view builds the read-only snapshot agents consult this step.
func (e *Environment) view() worldstate.View {
	gridRunes := make([][]rune, len(e.Grid))
	for y, row := range e.Grid {
		runes := make([]rune, len(row))
		for x, c := range row {
			runes[x] = symbolFor(c)
		}
		gridRunes[y] = runes
	}

	positions := make(map[string]worldstate.Position, len(e.Positions))
	for k, v := range e.Positions {
		positions[k] = v
	}

	inventories := make(map[string][]string, len(e.Agents))
	for _, a := range e.Agents {
		inventories[a.Name] = a.Inventory()
	}

	objects := make(map[string]worldstate.ObjectView, len(e.Objects))
	for name, obj := range e.Objects {
		objects[name] = worldstate.ObjectView{Pos: obj.Pos, Symbol: obj.Symbol, Flags: obj.Flags}
	}

	lastActions := make(map[string]worldstate.ActionView, len(e.lastActions))
	for k, v := range e.lastActions {
		lastActions[k] = v
	}

	return worldstate.View{
		Grid:        gridRunes,
		Positions:   positions,
		Inventories: inventories,
		Objects:     objects,
		LastActions: lastActions,
		Iteration:   e.Iterations,
	}
}

func symbolFor(c CellType) rune {
	switch c {
	case Wall:
		return wallSymbol
	case Road:
		return roadSymbol
	default:
		return plainSymbol
	}
}

// stateKey builds the StateKey for the current snapshot.
func (e *Environment) stateKey() reinforcement.StateKey {
	positions := make(map[string]reinforcement.PositionXY, len(e.Positions))
	for k, v := range e.Positions {
		positions[k] = reinforcement.PositionXY{X: v.X, Y: v.Y}
	}
	objects := make(map[string]reinforcement.PositionXY, len(e.Objects))
	for k, v := range e.Objects {
		objects[k] = reinforcement.PositionXY{X: v.Pos.X, Y: v.Pos.Y}
	}
	inventories := make(map[string][]string, len(e.Agents))
	for _, a := range e.Agents {
		inventories[a.Name] = a.Inventory()
	}
	return reinforcement.NewStateKey(e.GridHash, positions, objects, inventories, e.Iterations)
}

// Step runs one sequential pass over every agent: act, observe
// consequences, broadcast global flags, then judge each agent against
// its own post-action state before updating its Q-tables. Q-tables are
// updated only for agents whose QAgent has Learning set; the bootstrap
// action is taken from SelectBestAction at the next state (its first
// element in Optimal mode, otherwise a random element). It returns the
// last agent's per-signal log, matching the historic record's per-step
// entry.
func (e *Environment) Step(ctx context.Context) (map[string]float64, error) {
	n := len(e.Agents)
	states := make([]reinforcement.StateKey, n)
	actions := make([]string, n)
	signals := make([]map[string]float64, n)
	flags := make([][]string, n)
	globalFlags := make([][]string, n)
	nextStates := make([]reinforcement.StateKey, n)
	nextViews := make([]worldstate.View, n)

	for i, a := range e.Agents {
		states[i] = e.stateKey()
		action := a.GetAction(states[i])
		actions[i] = action

		s, f, gf := e.doAction(a, action)
		signals[i] = s
		flags[i] = f
		globalFlags[i] = gf

		nextStates[i] = e.stateKey()
		nextViews[i] = e.view()
	}

	for _, gf := range globalFlags {
		for _, flag := range gf {
			for i := range flags {
				if !contains(flags[i], flag) {
					flags[i] = append(flags[i], flag)
				}
			}
		}
	}

	for i, a := range e.Agents {
		verdict, _, err := a.Judge(ctx, nextViews[i], flags[i])
		if err != nil {
			return nil, fmt.Errorf("env: judging agent %q: %w", a.Name, err)
		}
		reward := signals[i]["R"]
		if a.QAgent.Learning {
			optimalAction := ""
			if best := a.SelectBestAction(nextStates[i]); len(best) > 0 {
				if a.QAgent.Optimal {
					optimalAction = best[0]
				} else {
					optimalAction = best[e.rng.Intn(len(best))]
				}
			}
			if err := a.UpdateQFunctions(states[i], actions[i], verdict, reward, nextStates[i], optimalAction); err != nil {
				return nil, fmt.Errorf("env: updating agent %q: %w", a.Name, err)
			}
		}
		signals[i]["V"] = verdict.V
		signals[i]["A"] = verdict.A
		signals[i]["D"] = verdict.D
	}

	e.Iterations++
	if e.Timeout > 0 && e.Iterations >= e.Timeout {
		if err := e.reloadPreset(); err != nil {
			return nil, fmt.Errorf("env: reloading preset %q: %w", e.presetName, err)
		}
		e.Iterations = 0
	}

	return signals[n-1], nil
}

// Speed penalties applied to moving-with-speed action tuples, and the
// shaping penalty for a blocked (wall or out-of-bounds) move.
const (
	fastSpeedPenalty = -0.5
	slowSpeedPenalty = -1.0
	wallHitPenalty   = -10.0
)

// doAction moves agent by action (substituting a random other movement
// with probability Stochasticity), applies the speed penalty for
// speed-tagged actions and the wall-hit shaping penalty on a blocked
// move, then resolves every object traversal at the resulting position
// whose condition the agent satisfies.
func (e *Environment) doAction(a *agent.NormativeAgent, action string) (map[string]float64, []string, []string) {
	movement, speed := splitAction(action)
	if e.rng.Float64() < e.Stochasticity {
		movement = e.randomOtherMovement(movement)
	}

	reward := 0.0
	switch speed {
	case "fast":
		reward += fastSpeedPenalty
	case "slow":
		reward += slowSpeedPenalty
	}

	pos := e.Positions[a.Name]
	next := pos
	switch movement {
	case "up":
		next.Y--
	case "down":
		next.Y++
	case "left":
		next.X--
	case "right":
		next.X++
	}
	if e.inBounds(next) && !e.isWall(next) {
		pos = next
	} else {
		reward += wallHitPenalty
	}
	e.Positions[a.Name] = pos
	e.lastActions[a.Name] = worldstate.ActionView{Movement: movement, Speed: speed}

	var flags, globalFlags, consumed []string
	for name, obj := range e.Objects {
		if obj.Pos != pos || !conditionSatisfied(a, obj.Condition) {
			continue
		}
		reward += obj.Reward
		flags = append(flags, obj.Flags...)
		globalFlags = append(globalFlags, obj.GlobalFlags...)
		for _, item := range obj.InvAdd {
			a.AddItemToInventory(item)
		}
		for _, item := range obj.InvRem {
			a.RemoveItemFromInventory(item)
		}
		if !obj.Permanent {
			consumed = append(consumed, name)
		}
	}
	for _, name := range consumed {
		delete(e.Objects, name)
	}

	return map[string]float64{"R": reward}, flags, globalFlags
}

// conditionSatisfied evaluates a preset-style condition list against the
// acting agent's inventory: each entry is an item name, or "not-X" which
// requires X to be absent.
func conditionSatisfied(a *agent.NormativeAgent, condition []string) bool {
	for _, entry := range condition {
		if strings.HasPrefix(entry, "not-") {
			if a.Has(strings.TrimPrefix(entry, "not-")) {
				return false
			}
			continue
		}
		if !a.Has(entry) {
			return false
		}
	}
	return true
}

func (e *Environment) inBounds(p worldstate.Position) bool {
	return p.X >= 0 && p.X < e.Width && p.Y >= 0 && p.Y < e.Height
}

func (e *Environment) isWall(p worldstate.Position) bool {
	return e.Grid[p.Y][p.X] == Wall
}

func (e *Environment) randomOtherMovement(exclude string) string {
	var choices []string
	for _, m := range Movements {
		if m != exclude {
			choices = append(choices, m)
		}
	}
	if len(choices) == 0 {
		return exclude
	}
	return choices[e.rng.Intn(len(choices))]
}

func splitAction(action string) (movement, speed string) {
	if i := strings.IndexByte(action, ':'); i >= 0 {
		return action[:i], action[i+1:]
	}
	return action, ""
}

func contains(list []string, item string) bool {
	for _, v := range list {
		if v == item {
			return true
		}
	}
	return false
}
