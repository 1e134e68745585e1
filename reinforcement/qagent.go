// Package reinforcement implements the multi-objective tabular Q-learner:
// one flat Q-table per signal, ε-greedy/optimal/random action selection,
// lexicographic (and δ-lex / t-lex) action selection over an ordered
// preference list, and one-step off-policy TD updates.
package reinforcement

import (
	"fmt"
	"math"
	"math/rand"
)

// Selection is the action-selection strategy over Q tables.
type Selection string

const (
	Lex          Selection = "lex"
	DeltaLex     Selection = "dlex"
	ThresholdLex Selection = "tlex"
)

// Decay is the ε decay schedule.
type Decay string

const (
	LinearDecay      Decay = "linear"
	ExponentialDecay Decay = "exponential"
)

const (
	defaultAlpha      = 0.1
	defaultGamma      = 1.0
	defaultEpsilon    = 1.0
	defaultEpsilonMin = 0.2
	defaultTolerance  = 0.10 // 10% band, percent-of-(max-min) by default
)

// QAgent owns one Q[signal][state][action] table per tracked signal. A
// signal either participates in lexicographic selection (a "preference")
// or is tracked but ignored for choice (non-ordered).
type QAgent struct {
	Name string

	tables map[string]map[StateKey]map[string]float64

	Actions     []string
	Preferences []string // ordered: Q_pref[0] > Q_pref[1] > ...
	NonOrdered  []string

	Alpha, Gamma         float64
	Epsilon, EpsilonMin  float64
	DecayMethod          Decay
	epsilonStep          float64
	epsilonRate          float64

	Selection Selection
	// Tolerance is the δ-lex band: a fraction of (max-min) unless
	// ToleranceIsAbsolute is set, in which case it is an absolute value.
	Tolerance           float64
	ToleranceIsAbsolute bool
	// Threshold is the t-lex absolute acceptance bound.
	Threshold float64

	IsRandom bool
	Optimal  bool
	Learning bool

	rng *rand.Rand
}

// New returns a QAgent with sensible defaults
// (α=0.1, γ=1.0, ε_init=1.0, ε_min=0.2, lex selection, 10% δ band).
func New(name string, seed int64) *QAgent {
	return &QAgent{
		Name:        name,
		tables:      make(map[string]map[StateKey]map[string]float64),
		Alpha:       defaultAlpha,
		Gamma:       defaultGamma,
		Epsilon:     defaultEpsilon,
		EpsilonMin:  defaultEpsilonMin,
		DecayMethod: LinearDecay,
		Selection:   Lex,
		Tolerance:   defaultTolerance,
		Learning:    true,
		rng:         rand.New(rand.NewSource(seed)),
	}
}

// AddQFunction declares a new signal's table. ordered signals are
// appended to Preferences; others go to NonOrdered. Duplicate signal
// names are a fatal setup error.
func (q *QAgent) AddQFunction(name string, ordered bool) error {
	if _, ok := q.tables[name]; ok {
		return fmt.Errorf("reinforcement: Q-function %q already exists", name)
	}
	q.tables[name] = make(map[StateKey]map[string]float64)
	if ordered {
		q.Preferences = append(q.Preferences, name)
	} else {
		q.NonOrdered = append(q.NonOrdered, name)
	}
	return nil
}

// SetActions sets the fixed, ordered action universe. Iteration and
// tie-breaking over this slice is always in this declared order.
func (q *QAgent) SetActions(actions []string) {
	q.Actions = append([]string(nil), actions...)
}

// InitDecay derives the linear step / exponential rate from a total step
// budget: ε_step = ε_init / totalSteps; r = 0.99^(1/totalSteps).
func (q *QAgent) InitDecay(totalSteps int) {
	if totalSteps <= 0 {
		return
	}
	q.epsilonStep = q.Epsilon / float64(totalSteps)
	q.epsilonRate = math.Pow(0.99, 1.0/float64(totalSteps))
}

// GetQValues returns signal's table row for state (never nil).
func (q *QAgent) GetQValues(signal string, state StateKey) map[string]float64 {
	row, ok := q.tables[signal][state]
	if !ok {
		return map[string]float64{}
	}
	return row
}

func (q *QAgent) ensureRow(signal string, state StateKey) map[string]float64 {
	table, ok := q.tables[signal]
	if !ok {
		table = make(map[StateKey]map[string]float64)
		q.tables[signal] = table
	}
	row, ok := table[state]
	if !ok {
		row = make(map[string]float64, len(q.Actions))
		for _, a := range q.Actions {
			row[a] = 0.0
		}
		table[state] = row
	}
	return row
}

// GetAction chooses an action for state: uniform-random if IsRandom or a
// random draw lands below ε (and Optimal is not forced); otherwise the
// first element of SelectBestAction's candidate set.
func (q *QAgent) GetAction(state StateKey) string {
	if len(q.Actions) == 0 {
		return ""
	}
	if !q.Optimal && (q.IsRandom || q.rng.Float64() < q.Epsilon) {
		return q.Actions[q.rng.Intn(len(q.Actions))]
	}
	best := q.SelectBestAction(state)
	if len(best) == 0 {
		return q.Actions[q.rng.Intn(len(q.Actions))]
	}
	return best[0]
}

// SelectBestAction returns a non-empty candidate set per the configured
// Selection strategy, iterating Actions in declared order so ties always
// resolve to the same deterministic front element.
func (q *QAgent) SelectBestAction(state StateKey) []string {
	switch q.Selection {
	case DeltaLex:
		return q.deltaLexicographic(state)
	case ThresholdLex:
		return q.thresholdLexicographic(state)
	default:
		return q.lexicographic(state)
	}
}

// lexicographic: for each preference signal in order, keep only actions
// whose Q value equals the max among the current candidates.
func (q *QAgent) lexicographic(state StateKey) []string {
	candidates := append([]string(nil), q.Actions...)
	for _, signal := range q.Preferences {
		candidates = q.bestByMax(signal, state, candidates)
		if len(candidates) <= 1 {
			break
		}
	}
	return candidates
}

// deltaLexicographic: same as lexicographic, but at each tier keep every
// action within Tolerance of the tier's max (not just the exact max).
func (q *QAgent) deltaLexicographic(state StateKey) []string {
	candidates := append([]string(nil), q.Actions...)
	for _, signal := range q.Preferences {
		candidates = q.bestWithinTolerance(signal, state, candidates)
		if len(candidates) == 0 {
			return append([]string(nil), q.Actions...)
		}
	}
	return candidates
}

// thresholdLexicographic: keep actions whose Q value is >= Threshold at
// each tier; if none qualify at a tier, fall back to that tier's strict
// max among the current candidates.
func (q *QAgent) thresholdLexicographic(state StateKey) []string {
	candidates := append([]string(nil), q.Actions...)
	for _, signal := range q.Preferences {
		values := q.GetQValues(signal, state)
		var qualifying []string
		for _, a := range candidates {
			if values[a] >= q.Threshold {
				qualifying = append(qualifying, a)
			}
		}
		if len(qualifying) > 0 {
			candidates = qualifying
		} else {
			candidates = q.bestByMax(signal, state, candidates)
		}
		if len(candidates) <= 1 {
			break
		}
	}
	return candidates
}

// BestActionsForSignal returns the maximizing action set for a single
// signal at state, regardless of the configured Selection strategy.
// Exposed for callers that need one tier's verdict directly (e.g.
// deciding whether a chosen action was off the D-signal's optimum).
func (q *QAgent) BestActionsForSignal(signal string, state StateKey) []string {
	return q.bestByMax(signal, state, append([]string(nil), q.Actions...))
}

func (q *QAgent) bestByMax(signal string, state StateKey, candidates []string) []string {
	values := q.GetQValues(signal, state)
	maxVal := math.Inf(-1)
	for _, a := range candidates {
		if v := values[a]; v > maxVal {
			maxVal = v
		}
	}
	var best []string
	for _, a := range candidates {
		if values[a] == maxVal {
			best = append(best, a)
		}
	}
	return best
}

func (q *QAgent) bestWithinTolerance(signal string, state StateKey, candidates []string) []string {
	values := q.GetQValues(signal, state)
	maxVal, minVal := math.Inf(-1), math.Inf(1)
	for _, a := range candidates {
		v := values[a]
		if v > maxVal {
			maxVal = v
		}
		if v < minVal {
			minVal = v
		}
	}
	band := q.Tolerance
	if !q.ToleranceIsAbsolute {
		band = q.Tolerance * (maxVal - minVal)
	}
	var within []string
	for _, a := range candidates {
		if maxVal-values[a] <= band {
			within = append(within, a)
		}
	}
	return within
}

// UpdateQFunctions runs the one-step off-policy TD backup for every
// tracked signal (preferences and non-ordered alike), then, only after
// updating the last preference signal, decays ε.
func (q *QAgent) UpdateQFunctions(state StateKey, action string, signals map[string]float64, next StateKey, optimalAction string) error {
	all := append(append([]string(nil), q.Preferences...), q.NonOrdered...)
	for i, signal := range all {
		reward, ok := signals[signal]
		if !ok {
			return fmt.Errorf("reinforcement: signal %q missing from update (have %v)", signal, signalKeys(signals))
		}
		q.updateOne(signal, state, action, reward, next, optimalAction)
		if i == len(q.Preferences)-1 {
			q.decay()
		}
	}
	return nil
}

func (q *QAgent) updateOne(signal string, state StateKey, action string, reward float64, next StateKey, optimalAction string) {
	row := q.ensureRow(signal, state)
	if _, ok := row[action]; !ok {
		row[action] = 0.0
	}

	bootstrap := 0.0
	nextRow, hasNext := q.tables[signal][next]
	if optimalAction != "" {
		if hasNext {
			bootstrap = nextRow[optimalAction]
		}
	} else if hasNext {
		bootstrap = math.Inf(-1)
		for _, v := range nextRow {
			if v > bootstrap {
				bootstrap = v
			}
		}
		if bootstrap == math.Inf(-1) {
			bootstrap = 0.0
		}
	}

	target := reward + q.Gamma*bootstrap
	updated := row[action] + q.Alpha*(target-row[action])
	row[action] = round2(updated)
}

func (q *QAgent) decay() {
	switch q.DecayMethod {
	case ExponentialDecay:
		q.Epsilon = math.Max(q.EpsilonMin, q.Epsilon*q.epsilonRate)
	default:
		q.Epsilon = math.Max(q.EpsilonMin, q.Epsilon-q.epsilonStep)
	}
}

func round2(v float64) float64 {
	r := math.Round(v*100) / 100
	if r == 0 {
		return 0
	}
	return r
}

func signalKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}
