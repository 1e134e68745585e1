// Package norms models the two norm kinds of a normative multi-agent
// system: constitutive norms (counts-as rules, C(a,b|c)) and regulative
// norms (prohibition/permission/obligation, X(a|b)).
package norms

import (
	"sort"
	"strings"
)

// Kind enumerates regulative norm types.
type Kind int

const (
	Prohibition Kind = iota
	Permission
	Obligation
)

func (k Kind) String() string {
	switch k {
	case Prohibition:
		return "F"
	case Permission:
		return "P"
	case Obligation:
		return "O"
	default:
		return "?"
	}
}

// ConstitutiveNorm is C(premise, conclusion | context): under context,
// presence of all premise labels implies derivation of all conclusion
// labels. An empty context is a tautology. Immutable after construction.
type ConstitutiveNorm struct {
	premise    []string
	conclusion []string
	context    []string
}

// NewConstitutiveNorm canonicalizes (sorts, dedupes) its label sets.
func NewConstitutiveNorm(premise, conclusion, context []string) ConstitutiveNorm {
	return ConstitutiveNorm{
		premise:    canonical(premise),
		conclusion: canonical(conclusion),
		context:    canonical(context),
	}
}

func (c ConstitutiveNorm) Premise() []string    { return append([]string(nil), c.premise...) }
func (c ConstitutiveNorm) Conclusion() []string { return append([]string(nil), c.conclusion...) }
func (c ConstitutiveNorm) Context() []string    { return append([]string(nil), c.context...) }

// PremiseSatisfied reports whether premise (and context, if present) are
// subsets of facts.
func (c ConstitutiveNorm) PremiseSatisfied(facts map[string]struct{}) bool {
	return subsetOf(c.premise, facts) && subsetOf(c.context, facts)
}

// RegulativeNorm is X(premise | context): under context, X (prohibit,
// permit, or obligate) the premise condition. Its canonical Label doubles
// as an argumentation-framework argument identifier.
type RegulativeNorm struct {
	kind    Kind
	premise []string
	context []string
	weight  float64
	label   string
}

// NewRegulativeNorm canonicalizes premise/context and precomputes the
// canonical label.
func NewRegulativeNorm(kind Kind, premise, context []string, weight float64) *RegulativeNorm {
	n := &RegulativeNorm{
		kind:    kind,
		premise: canonical(premise),
		context: canonical(context),
		weight:  weight,
	}
	n.label = buildLabel(kind, n.premise, n.context)
	return n
}

func buildLabel(kind Kind, premise, context []string) string {
	var b strings.Builder
	b.WriteString(kind.String())
	b.WriteByte('(')
	b.WriteString(strings.Join(premise, ","))
	if len(context) > 0 {
		b.WriteString(" | ")
		b.WriteString(strings.Join(context, ","))
	}
	b.WriteByte(')')
	return b.String()
}

func (n *RegulativeNorm) Kind() Kind           { return n.kind }
func (n *RegulativeNorm) Premise() []string    { return append([]string(nil), n.premise...) }
func (n *RegulativeNorm) Context() []string    { return append([]string(nil), n.context...) }
func (n *RegulativeNorm) Weight() float64      { return n.weight }
func (n *RegulativeNorm) Label() string        { return n.label }
func (n *RegulativeNorm) String() string       { return n.label }
func (n *RegulativeNorm) IsProhibition() bool  { return n.kind == Prohibition }
func (n *RegulativeNorm) IsPermission() bool   { return n.kind == Permission }
func (n *RegulativeNorm) IsObligation() bool   { return n.kind == Obligation }

// Comply reports whether the norm's body is satisfied:
//   - Prohibition: complies iff NOT all premise labels are in facts.
//   - Obligation: complies iff ALL premise labels are in facts.
//   - Permission: complies trivially (permissions never violate).
func (n *RegulativeNorm) Comply(facts map[string]struct{}) bool {
	premiseHolds := subsetOf(n.premise, facts)
	switch n.kind {
	case Prohibition:
		return !premiseHolds
	case Obligation:
		return premiseHolds
	default: // Permission
		return true
	}
}

func subsetOf(labels []string, facts map[string]struct{}) bool {
	for _, l := range labels {
		if _, ok := facts[l]; !ok {
			return false
		}
	}
	return true
}

func canonical(labels []string) []string {
	if len(labels) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(labels))
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}
