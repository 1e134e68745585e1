package main

import (
	"strings"

	"pinocchio/agent"
	"pinocchio/env"
	"pinocchio/fact"
	"pinocchio/norms"
	"pinocchio/stakeholder"
	"pinocchio/worldstate"
)

// appleGrid is a small open room: the apple sits in the middle at (3,3),
// Adam starts one diagonal step away at (2,2), walls ring the border.
const appleGrid = "" +
	"#######\n" +
	"#     #\n" +
	"#     #\n" +
	"#     #\n" +
	"#     #\n" +
	"#     #\n" +
	"#######\n"

// appleWorldPreset wires the illustrative scenario: a single prohibition
// against eating from the tree of knowledge, contributed to by two
// stakeholders whose closures disagree about whether a long wait excuses
// it.
type appleWorldPreset struct{}

func (appleWorldPreset) Build(e *env.Environment, resetAgent bool) error {
	grid, hash, err := env.LoadGrid(strings.NewReader(appleGrid))
	if err != nil {
		return err
	}
	e.SetGrid(grid, hash)
	e.Objects = map[string]env.ObjectDef{
		"apple": {
			Pos:    worldstate.Position{X: 3, Y: 3},
			Symbol: 'A',
			Reward: 10,
			Flags:  []string{"eat"},
		},
	}

	if !resetAgent {
		return nil
	}

	e.Steps = 30000
	e.Timeout = 10

	adam, err := agent.LoadNormativeAgent("Adam", 42, []string{"up", "down", "left", "right"})
	if err != nil {
		return err
	}

	r1 := norms.NewRegulativeNorm(norms.Prohibition, []string{"knowledge"}, nil, 1.0)
	adam.AddNorm(r1)
	if err := adam.AddFact("eat", fact.FlagPresent("eat")); err != nil {
		return err
	}
	// "longtime" is iterations > 5, i.e. true starting at iteration 6.
	if err := adam.AddFact("longtime", fact.IterationAtLeast(6)); err != nil {
		return err
	}

	god := stakeholder.New("God")
	god.AddNorm(r1)
	if err := god.AddConstitutiveNorm(r1, norms.NewConstitutiveNorm([]string{"eat"}, []string{"knowledge"}, nil)); err != nil {
		return err
	}
	if err := god.SetArguments(r1, []string{r1.Label()}); err != nil {
		return err
	}
	adam.AddStakeholder(god)

	user := stakeholder.New("User")
	user.AddNorm(r1)
	if err := user.AddConstitutiveNorm(r1, norms.NewConstitutiveNorm([]string{"longtime"}, []string{"hungry"}, nil)); err != nil {
		return err
	}
	if err := user.SetArguments(r1, []string{r1.Label(), "hungry"}); err != nil {
		return err
	}
	if err := user.SetAttacks(r1, [][2]string{{"hungry", r1.Label()}}); err != nil {
		return err
	}
	adam.AddStakeholder(user)

	e.AddAgent(adam, worldstate.Position{X: 2, Y: 2})
	return nil
}
