// Package judge merges per-stakeholder views into a single normative
// verdict: for each regulative norm, whether it is active (survives a
// grounded-extension acceptability check on a merged argumentation
// framework) and whether the agent complied, yielding violation (V),
// non-compliance (A), and defeat (D) contributions.
package judge

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"pinocchio/af"
	"pinocchio/fact"
	"pinocchio/norms"
	"pinocchio/stakeholder"
	"pinocchio/worldstate"
)

// Verdict is the {V, A, D} triple for one norm, or the aggregate sum
// over all norms when returned from Judge.Judge.
type Verdict struct {
	V float64
	A float64
	D float64
}

// Add returns the element-wise sum of two verdicts.
func (v Verdict) Add(o Verdict) Verdict {
	return Verdict{V: v.V + o.V, A: v.A + o.A, D: v.D + o.D}
}

// NormTrace records one norm's instantiation for Explain: its label, its
// merged closure facts, whether the norm itself was accepted (after any
// override), whether the agent complied, and its verdict contribution.
type NormTrace struct {
	Label    string
	Facts    map[string]struct{}
	Active   bool
	Complied bool
	Verdict  Verdict
}

// Judge holds the stakeholders and regulative norms an agent judges
// itself against, plus the agent's fact registry and any forced
// activation overrides.
type Judge struct {
	Stakeholders []*stakeholder.Stakeholder
	Norms        []*norms.RegulativeNorm
	Facts        *fact.Registry
	Overrides    map[string]bool
}

// New returns a Judge with an empty override map.
func New(facts *fact.Registry) *Judge {
	return &Judge{Facts: facts, Overrides: make(map[string]bool)}
}

// Judge computes the per-norm verdicts for (state, flags) and returns
// both the aggregate ({V, A, D} summed over every norm) and the per-norm
// breakdown. Judge is deterministic: identical (state, flags, stakeholder
// configuration, overrides) always yields the same verdict.
func (j *Judge) Judge(ctx context.Context, state worldstate.View, flags fact.Flags) (Verdict, map[string]Verdict, error) {
	perNorm, err := j.explain(ctx, state, flags)
	if err != nil {
		return Verdict{}, nil, err
	}
	aggregate := Verdict{}
	verdicts := make(map[string]Verdict, len(perNorm))
	for _, trace := range perNorm {
		aggregate = aggregate.Add(trace.Verdict)
		verdicts[trace.Label] = trace.Verdict
	}
	return aggregate, verdicts, nil
}

// Explain returns the full per-norm instantiation trace, useful for
// debugging/tests without printing anything (logging/printing is a
// presentation concern, not core).
func (j *Judge) Explain(ctx context.Context, state worldstate.View, flags fact.Flags) ([]NormTrace, error) {
	return j.explain(ctx, state, flags)
}

func (j *Judge) explain(ctx context.Context, state worldstate.View, flags fact.Flags) ([]NormTrace, error) {
	seed := j.seedFacts(state, flags)

	traces := make([]NormTrace, len(j.Norms))
	for i, n := range j.Norms {
		trace, err := j.judgeNorm(ctx, n, seed)
		if err != nil {
			return nil, err
		}
		traces[i] = trace
	}
	return traces, nil
}

// seedFacts begins with the canonical label of every regulative norm the
// agent holds, then appends every fact whose extractor evaluates true.
func (j *Judge) seedFacts(state worldstate.View, flags fact.Flags) map[string]struct{} {
	seed := make(map[string]struct{}, len(j.Norms))
	for _, n := range j.Norms {
		seed[n.Label()] = struct{}{}
	}
	if j.Facts != nil {
		for _, label := range j.Facts.Evaluate(state, flags) {
			seed[label] = struct{}{}
		}
	}
	return seed
}

type stakeholderView struct {
	activeArgs []string
	attacks    []af.AttackPair
	closure    map[string]struct{}
}

func (j *Judge) judgeNorm(ctx context.Context, n *norms.RegulativeNorm, seed map[string]struct{}) (NormTrace, error) {
	views := make([]stakeholderView, len(j.Stakeholders))

	// Each stakeholder computes its closure independently (spec §4.2 step
	// 2); fan these out and join before assembling the merged AF.
	group, _ := errgroup.WithContext(ctx)
	for i, s := range j.Stakeholders {
		i, s := i, s
		group.Go(func() error {
			closure, err := s.Closure(n, seed)
			if err != nil {
				return err
			}
			active, err := s.ActiveArguments(n, closure)
			if err != nil {
				return err
			}
			framework, err := s.Framework(n)
			if err != nil {
				return err
			}
			views[i] = stakeholderView{
				activeArgs: active,
				attacks:    framework.Attacks(),
				closure:    closure,
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return NormTrace{}, fmt.Errorf("judge: norm %q: %w", n.Label(), err)
	}

	merged := af.New()
	allFacts := make(map[string]struct{})
	allActive := make(map[string]struct{})
	for _, v := range views {
		for f := range v.closure {
			allFacts[f] = struct{}{}
		}
		for _, a := range v.activeArgs {
			merged.AddArgument(a)
			allActive[a] = struct{}{}
		}
	}

	seenAttacks := make(map[af.AttackPair]struct{})
	for _, v := range views {
		for _, attack := range v.attacks {
			if _, dup := seenAttacks[attack]; dup {
				continue
			}
			seenAttacks[attack] = struct{}{}
			_, attackerActive := allActive[attack.Attacker]
			_, attackedActive := allActive[attack.Attacked]
			if attackerActive && attackedActive {
				// Endpoints are already in the merged AF; ignore the
				// impossible duplicate-attack error.
				_ = merged.AddAttack(attack.Attacker, attack.Attacked)
			}
		}
	}

	extension := merged.GroundedExtension()
	_, active := extension[n.Label()]
	if forced, ok := j.Overrides[n.Label()]; ok {
		active = forced
	}

	complied := n.Comply(allFacts)

	verdict := Verdict{}
	if !complied {
		verdict.A = -1
	}
	if active && !complied {
		verdict.V = -n.Weight()
	}
	if !active {
		verdict.D = -1
	}

	return NormTrace{
		Label:    n.Label(),
		Facts:    allFacts,
		Active:   active,
		Complied: complied,
		Verdict:  verdict,
	}, nil
}
