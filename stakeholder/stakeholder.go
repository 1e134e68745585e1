// Package stakeholder implements a named bundle of per-norm constitutive
// norms and argumentation frameworks, as consulted by the judge when
// assembling a merged acceptability decision.
package stakeholder

import (
	"fmt"

	"pinocchio/af"
	"pinocchio/norms"
)

// Stakeholder holds, per regulative norm label, a set of constitutive
// norms used for closure and an argumentation framework used to decide
// that norm's activation.
type Stakeholder struct {
	Name     string
	cnorms   map[string][]norms.ConstitutiveNorm
	afs      map[string]*af.Framework
	norms    map[string]*norms.RegulativeNorm
}

// New returns an empty, named stakeholder.
func New(name string) *Stakeholder {
	return &Stakeholder{
		Name:   name,
		cnorms: make(map[string][]norms.ConstitutiveNorm),
		afs:    make(map[string]*af.Framework),
		norms:  make(map[string]*norms.RegulativeNorm),
	}
}

// AddNorm registers a regulative norm with this stakeholder, giving it an
// empty constitutive-norm set and a fresh AF.
func (s *Stakeholder) AddNorm(n *norms.RegulativeNorm) {
	label := n.Label()
	s.norms[label] = n
	if _, ok := s.cnorms[label]; !ok {
		s.cnorms[label] = nil
	}
	if _, ok := s.afs[label]; !ok {
		s.afs[label] = af.New()
	}
}

// AddConstitutiveNorm appends a constitutive norm to n's closure rules.
// Fails if n was never added to this stakeholder.
func (s *Stakeholder) AddConstitutiveNorm(n *norms.RegulativeNorm, c norms.ConstitutiveNorm) error {
	label := n.Label()
	if _, ok := s.norms[label]; !ok {
		return s.unknownNormErr(label, "AddConstitutiveNorm")
	}
	s.cnorms[label] = append(s.cnorms[label], c)
	return nil
}

// SetArguments adds arguments to n's AF.
func (s *Stakeholder) SetArguments(n *norms.RegulativeNorm, args []string) error {
	label := n.Label()
	framework, ok := s.afs[label]
	if !ok {
		return s.unknownNormErr(label, "SetArguments")
	}
	for _, a := range args {
		framework.AddArgument(a)
	}
	return nil
}

// SetAttacks adds attacks to n's AF.
func (s *Stakeholder) SetAttacks(n *norms.RegulativeNorm, attacks [][2]string) error {
	label := n.Label()
	framework, ok := s.afs[label]
	if !ok {
		return s.unknownNormErr(label, "SetAttacks")
	}
	for _, pair := range attacks {
		if err := framework.AddAttack(pair[0], pair[1]); err != nil {
			return err
		}
	}
	return nil
}

// Framework returns n's argumentation framework (read access for the
// judge's merge step).
func (s *Stakeholder) Framework(n *norms.RegulativeNorm) (*af.Framework, error) {
	framework, ok := s.afs[n.Label()]
	if !ok {
		return nil, s.unknownNormErr(n.Label(), "Framework")
	}
	return framework, nil
}

// Closure iterates closureStep to a fixpoint: starting from seed, it adds
// every constitutive norm's conclusion whenever that norm's premise (and
// context, if present) is a subset of the current fact set, until no new
// fact is added. Closure is monotone: for F ⊆ F', Closure(n, F) ⊆
// Closure(n, F').
func (s *Stakeholder) Closure(n *norms.RegulativeNorm, seed map[string]struct{}) (map[string]struct{}, error) {
	label := n.Label()
	cnorms, ok := s.cnorms[label]
	if !ok {
		return nil, s.unknownNormErr(label, "Closure")
	}

	facts := copyFacts(seed)
	for {
		next := s.closureStep(cnorms, facts)
		if len(next) == len(facts) {
			return next, nil
		}
		facts = next
	}
}

func (s *Stakeholder) closureStep(cnorms []norms.ConstitutiveNorm, facts map[string]struct{}) map[string]struct{} {
	next := copyFacts(facts)
	for _, c := range cnorms {
		if !c.PremiseSatisfied(facts) {
			continue
		}
		for _, concl := range c.Conclusion() {
			next[concl] = struct{}{}
		}
	}
	return next
}

// ActiveArguments returns the intersection of n's AF arguments with the
// given (already-closed) fact set.
func (s *Stakeholder) ActiveArguments(n *norms.RegulativeNorm, facts map[string]struct{}) ([]string, error) {
	framework, ok := s.afs[n.Label()]
	if !ok {
		return nil, s.unknownNormErr(n.Label(), "ActiveArguments")
	}
	var active []string
	for _, a := range framework.Arguments() {
		if _, ok := facts[a]; ok {
			active = append(active, a)
		}
	}
	return active, nil
}

func (s *Stakeholder) unknownNormErr(label, op string) error {
	return fmt.Errorf("stakeholder %q: norm %q is not registered (in %s)", s.Name, label, op)
}

func copyFacts(facts map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(facts))
	for f := range facts {
		out[f] = struct{}{}
	}
	return out
}
