// Package agent binds a multi-objective Q-learner to a normative judge
// and an agent's bookkeeping (inventory, registered facts, the norms it
// answers to), and supplies the four behavior recipes used to compare
// how sensitive an agent is to normative signals during learning.
package agent

import (
	"context"
	"fmt"

	"pinocchio/fact"
	"pinocchio/judge"
	"pinocchio/norms"
	"pinocchio/reinforcement"
	"pinocchio/stakeholder"
	"pinocchio/worldstate"
)

// Signal names under which a judge.Verdict's components and the task
// reward are tracked in the underlying QAgent's tables.
const (
	SignalViolation    = "V"
	SignalNonCompliant = "A"
	SignalDefeat       = "D"
	SignalReward       = "R"
)

// NormativeAgent ("Pinocchio") is a learner that judges its own actions
// against a set of regulative norms, held accountable to a panel of
// stakeholders, and updates one Q-table per tracked signal.
type NormativeAgent struct {
	Name string

	QAgent *reinforcement.QAgent
	Norms  []*norms.RegulativeNorm

	j *judge.Judge

	inventory []string

	// LastResponsible and ResponsibleCount track whether the agent's
	// most recent action deviated from the D-signal's maximizing set,
	// i.e. whether a defeat-avoiding choice existed and was passed over.
	LastResponsible  bool
	ResponsibleCount int
}

// New returns a NormativeAgent with an empty fact registry, norm list,
// and stakeholder panel, and a default-configured QAgent.
func New(name string, seed int64) *NormativeAgent {
	return &NormativeAgent{
		Name:   name,
		QAgent: reinforcement.New(name, seed),
		j:      judge.New(fact.NewRegistry()),
	}
}

// AddFact registers a labeled fact extractor. Duplicate labels are a
// fatal setup error.
func (a *NormativeAgent) AddFact(label string, fn fact.Extractor) error {
	return a.j.Facts.Register(label, fn)
}

// AddNorm registers a regulative norm the agent is judged against.
func (a *NormativeAgent) AddNorm(n *norms.RegulativeNorm) {
	a.Norms = append(a.Norms, n)
	a.j.Norms = append(a.j.Norms, n)
}

// AddStakeholder appends a stakeholder to the panel consulted for every
// norm this agent holds.
func (a *NormativeAgent) AddStakeholder(s *stakeholder.Stakeholder) {
	a.j.Stakeholders = append(a.j.Stakeholders, s)
}

// SetActions sets the fixed action universe for the underlying QAgent.
func (a *NormativeAgent) SetActions(actions []string) {
	a.QAgent.SetActions(actions)
}

// GetAction delegates to the underlying QAgent's action selection.
func (a *NormativeAgent) GetAction(state reinforcement.StateKey) string {
	return a.QAgent.GetAction(state)
}

// SelectBestAction delegates to the underlying QAgent's configured
// selection strategy.
func (a *NormativeAgent) SelectBestAction(state reinforcement.StateKey) []string {
	return a.QAgent.SelectBestAction(state)
}

// Judge computes the agent's aggregate and per-norm verdict for
// (view, flags) against every registered norm and stakeholder.
func (a *NormativeAgent) Judge(ctx context.Context, view worldstate.View, flags fact.Flags) (judge.Verdict, map[string]judge.Verdict, error) {
	return a.j.Judge(ctx, view, flags)
}

// Explain returns the full per-norm instantiation trace for (view, flags).
func (a *NormativeAgent) Explain(ctx context.Context, view worldstate.View, flags fact.Flags) ([]judge.NormTrace, error) {
	return a.j.Explain(ctx, view, flags)
}

// OverrideJudgement forces norm's activation decision to forced,
// bypassing the grounded-extension computation until ClearOverrides.
func (a *NormativeAgent) OverrideJudgement(norm string, forced bool) {
	a.j.Overrides[norm] = forced
}

// ClearOverrides removes every forced activation decision.
func (a *NormativeAgent) ClearOverrides() {
	a.j.Overrides = make(map[string]bool)
}

// UpdateQFunctions runs the QAgent's off-policy TD backup using the
// agent's own judged verdict signals plus the supplied task reward.
func (a *NormativeAgent) UpdateQFunctions(state reinforcement.StateKey, action string, verdict judge.Verdict, reward float64, next reinforcement.StateKey, optimalAction string) error {
	signals := map[string]float64{
		SignalViolation:    verdict.V,
		SignalNonCompliant: verdict.A,
		SignalDefeat:       verdict.D,
		SignalReward:       reward,
	}
	return a.QAgent.UpdateQFunctions(state, action, signals, next, optimalAction)
}

// UpdateResponsible records whether action fell outside the D-signal's
// maximizing set at state: if a defeat-avoiding choice existed and the
// agent passed it over, the agent (not the normative framework) bears
// responsibility for the outcome.
func (a *NormativeAgent) UpdateResponsible(state reinforcement.StateKey, action string) {
	maximizing := a.QAgent.BestActionsForSignal(SignalDefeat, state)
	a.LastResponsible = !contains(maximizing, action)
	if a.LastResponsible {
		a.ResponsibleCount++
	}
}

// AddItemToInventory appends item if not already carried.
func (a *NormativeAgent) AddItemToInventory(item string) {
	if a.Has(item) {
		return
	}
	a.inventory = append(a.inventory, item)
}

// RemoveItemFromInventory drops the first occurrence of item, if carried.
func (a *NormativeAgent) RemoveItemFromInventory(item string) {
	for i, it := range a.inventory {
		if it == item {
			a.inventory = append(a.inventory[:i], a.inventory[i+1:]...)
			return
		}
	}
}

// ResetInventory empties the agent's inventory.
func (a *NormativeAgent) ResetInventory() {
	a.inventory = nil
}

// Inventory returns a copy of the agent's carried items, in insertion
// order.
func (a *NormativeAgent) Inventory() []string {
	return append([]string(nil), a.inventory...)
}

// Has reports whether the agent carries item.
func (a *NormativeAgent) Has(item string) bool {
	return contains(a.inventory, item)
}

// LoadOptimalAgent configures agent as the oracle baseline: it always
// selects the lexicographically best action (no exploration) and does
// not learn, so it can be compared against learners at any checkpoint.
func LoadOptimalAgent(name string, seed int64, actions []string, preferences []string) (*NormativeAgent, error) {
	a := New(name, seed)
	a.SetActions(actions)
	if err := declarePreferences(a, preferences); err != nil {
		return nil, err
	}
	a.QAgent.Optimal = true
	a.QAgent.Learning = false
	return a, nil
}

// LoadNormativeAgent configures agent to learn with violation (V) as its
// top preference over task reward (R): it avoids actions a stakeholder
// panel would judge as active violations, but is otherwise reward-driven.
// Non-compliance (A) and defeat (D) are tracked but do not steer choice.
// Selection is δ-lex, matching the Python loadNormativeAgent's
// selection_method = "dlex".
func LoadNormativeAgent(name string, seed int64, actions []string) (*NormativeAgent, error) {
	a := New(name, seed)
	a.SetActions(actions)
	if err := addQFunctions(a, []string{SignalViolation, SignalReward}, []string{SignalNonCompliant, SignalDefeat}); err != nil {
		return nil, err
	}
	a.QAgent.Selection = reinforcement.DeltaLex
	return a, nil
}

// LoadNonAvoidantAgent configures agent to ignore normative signals
// entirely during action selection: only task reward steers choice, and
// V/A/D are recorded for diagnostics only. Useful as a control for
// measuring how much a normative preference changes behavior.
func LoadNonAvoidantAgent(name string, seed int64, actions []string) (*NormativeAgent, error) {
	a := New(name, seed)
	a.SetActions(actions)
	if err := addQFunctions(a, []string{SignalReward}, []string{SignalViolation, SignalNonCompliant, SignalDefeat}); err != nil {
		return nil, err
	}
	return a, nil
}

// LoadAvoidantAgent configures agent to avoid both violations and merely
// defeated norms, ahead of task reward: Preferences = [V, D, R].
func LoadAvoidantAgent(name string, seed int64, actions []string) (*NormativeAgent, error) {
	a := New(name, seed)
	a.SetActions(actions)
	if err := addQFunctions(a, []string{SignalViolation, SignalDefeat, SignalReward}, []string{SignalNonCompliant}); err != nil {
		return nil, err
	}
	return a, nil
}

func declarePreferences(a *NormativeAgent, preferences []string) error {
	if len(preferences) == 0 {
		preferences = []string{SignalViolation, SignalReward}
	}
	return addQFunctions(a, preferences, nil)
}

func addQFunctions(a *NormativeAgent, preferences, nonOrdered []string) error {
	for _, signal := range preferences {
		if err := a.QAgent.AddQFunction(signal, true); err != nil {
			return fmt.Errorf("agent %q: %w", a.Name, err)
		}
	}
	for _, signal := range nonOrdered {
		if err := a.QAgent.AddQFunction(signal, false); err != nil {
			return fmt.Errorf("agent %q: %w", a.Name, err)
		}
	}
	return nil
}

func contains(list []string, item string) bool {
	for _, v := range list {
		if v == item {
			return true
		}
	}
	return false
}
