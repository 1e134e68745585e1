// Package fact implements atomic-fact extraction: pure predicates over
// (worldstate.View, flags) registered under a string label.
package fact

import (
	"fmt"
	"strings"

	"pinocchio/worldstate"
)

// Flags are the transient, per-step flags emitted by the last action
// (object triggers, environment events, etc).
type Flags []string

// Has reports whether label is present in Flags.
func (f Flags) Has(label string) bool {
	for _, l := range f {
		if l == label {
			return true
		}
	}
	return false
}

// Extractor is a pure predicate over the current state and this step's
// flags. Extractors must be independent of each other; evaluation order
// is unspecified.
type Extractor func(state worldstate.View, flags Flags) bool

// Registry holds the extractor set for one agent. Registration fails if
// the label already exists (a fatal setup-time condition per the error
// model).
type Registry struct {
	order      []string
	extractors map[string]Extractor
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{extractors: make(map[string]Extractor)}
}

// Register adds a labeled extractor. Duplicate labels are an error.
func (r *Registry) Register(label string, fn Extractor) error {
	if _, ok := r.extractors[label]; ok {
		return fmt.Errorf("fact: extractor %q already registered", label)
	}
	r.extractors[label] = fn
	r.order = append(r.order, label)
	return nil
}

// Evaluate returns the labels of every extractor that evaluates true on
// (state, flags).
func (r *Registry) Evaluate(state worldstate.View, flags Flags) []string {
	var out []string
	for _, label := range r.order {
		if r.extractors[label](state, flags) {
			out = append(out, label)
		}
	}
	return out
}

// Built-in extractor constructors, per the Dynamic Extractors design note:
// common predicate shapes as named constructors, plus the general closure
// form above for anything bespoke.

// FlagPresent builds an extractor true iff flag is present among this
// step's flags.
func FlagPresent(flag string) Extractor {
	return func(_ worldstate.View, flags Flags) bool {
		return flags.Has(flag)
	}
}

// InventoryHas builds an extractor true iff agent carries item. A
// "not-X" condition entry is handled by InventoryLacks, mirroring the
// environment's object-condition negation convention.
func InventoryHas(agent, item string) Extractor {
	return func(state worldstate.View, _ Flags) bool {
		return state.HasItem(agent, item)
	}
}

// InventoryLacks builds an extractor true iff agent does not carry item.
func InventoryLacks(agent, item string) Extractor {
	return func(state worldstate.View, _ Flags) bool {
		return !state.HasItem(agent, item)
	}
}

// IterationAtLeast builds an extractor true once the iteration counter
// reaches or passes threshold (e.g. "longtime" after 5 steps).
func IterationAtLeast(threshold int) Extractor {
	return func(state worldstate.View, _ Flags) bool {
		return state.Iteration >= threshold
	}
}

// LastActionWas builds an extractor true iff agent's last action matches
// movement (and, if speed is non-empty, that speed too).
func LastActionWas(agent, movement, speed string) Extractor {
	return func(state worldstate.View, _ Flags) bool {
		act, ok := state.LastActions[agent]
		if !ok || act.Movement != movement {
			return false
		}
		return speed == "" || act.Speed == speed
	}
}

// MatchesCondition evaluates a preset-style condition list against an
// agent's inventory: each entry is an item name, or "not-X" which
// requires X to be absent.
func MatchesCondition(state worldstate.View, agent string, condition []string) bool {
	for _, entry := range condition {
		if strings.HasPrefix(entry, "not-") {
			if state.HasItem(agent, strings.TrimPrefix(entry, "not-")) {
				return false
			}
			continue
		}
		if !state.HasItem(agent, entry) {
			return false
		}
	}
	return true
}
