package env

import (
	"context"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"pinocchio/agent"
	"pinocchio/worldstate"
)

func newOpenEnvironment(t *testing.T) *Environment {
	t.Helper()
	grid, hash, err := LoadGrid(strings.NewReader("   \n   \n   \n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	e := New(1)
	e.SetGrid(grid, hash)
	return e
}

func TestDoActionMovesWithinBoundsAndAvoidsWalls(t *testing.T) {
	Convey("A bounded move succeeds with zero reward; a blocked move keeps position and pays the wall-hit penalty", t, func() {
		e := newOpenEnvironment(t)
		ag := agent.New("pinocchio", 1)
		e.AddAgent(ag, worldstate.Position{X: 1, Y: 1})

		signals, _, _ := e.doAction(ag, "right")
		So(e.Positions["pinocchio"], ShouldResemble, worldstate.Position{X: 2, Y: 1})
		So(signals["R"], ShouldEqual, 0.0)

		signals, _, _ = e.doAction(ag, "right") // now at the east wall edge (x=2, width=3)
		So(e.Positions["pinocchio"], ShouldResemble, worldstate.Position{X: 2, Y: 1})
		So(signals["R"], ShouldEqual, -10.0)
	})
}

func TestDoActionConsumesObjectAndRaisesFlags(t *testing.T) {
	Convey("Moving onto an object's cell grants its reward, raises its flags, and removes it", t, func() {
		e := newOpenEnvironment(t)
		ag := agent.New("pinocchio", 1)
		e.AddAgent(ag, worldstate.Position{X: 1, Y: 1})
		e.Objects["treat"] = ObjectDef{
			Pos:         worldstate.Position{X: 2, Y: 1},
			Reward:      10,
			Flags:       []string{"eat"},
			GlobalFlags: []string{"fed"},
		}

		signals, flags, gflags := e.doAction(ag, "right")
		So(signals["R"], ShouldEqual, 10.0) // 0 (move) + 10 (object)
		So(flags, ShouldResemble, []string{"eat"})
		So(gflags, ShouldResemble, []string{"fed"})
		_, stillPresent := e.Objects["treat"]
		So(stillPresent, ShouldBeFalse)
	})
}

func TestStepBroadcastsGlobalFlagsAndUpdatesAgents(t *testing.T) {
	Convey("Step runs every agent, broadcasts global flags, judges, and learns without error", t, func() {
		e := newOpenEnvironment(t)
		ag := agent.New("solo", 1)
		ag.SetActions([]string{"right"})
		ag.QAgent.Epsilon = 0
		e.AddAgent(ag, worldstate.Position{X: 1, Y: 1})

		log, err := e.Step(context.Background())
		So(err, ShouldBeNil)
		So(log["R"], ShouldEqual, 0.0)
		So(e.Positions["solo"], ShouldResemble, worldstate.Position{X: 2, Y: 1})
		So(e.Iterations, ShouldEqual, 1)
	})
}

func TestStepReloadsPresetOnTimeout(t *testing.T) {
	Convey("Reaching Timeout triggers a resetAgent=false preset reload and zeroes Iterations", t, func() {
		e := newOpenEnvironment(t)
		ag := agent.New("solo", 1)
		ag.SetActions([]string{"right"})
		ag.QAgent.Epsilon = 0
		e.AddAgent(ag, worldstate.Position{X: 1, Y: 1})
		e.Timeout = 1

		reloaded := false
		e.builder = presetBuilderFunc(func(env *Environment, resetAgent bool) error {
			reloaded = true
			So(resetAgent, ShouldBeFalse)
			return nil
		})

		_, err := e.Step(context.Background())
		So(err, ShouldBeNil)
		So(reloaded, ShouldBeTrue)
		So(e.Iterations, ShouldEqual, 0)
	})
}

func TestReloadPresetResetsAgentPositionAndInventory(t *testing.T) {
	Convey("A timeout reload repositions every agent to its start and clears its inventory", t, func() {
		e := newOpenEnvironment(t)
		ag := agent.New("solo", 1)
		ag.SetActions([]string{"right"})
		ag.QAgent.Epsilon = 0
		ag.AddItemToInventory("apple")
		e.AddAgent(ag, worldstate.Position{X: 1, Y: 1})
		e.Timeout = 1
		e.builder = presetBuilderFunc(func(env *Environment, resetAgent bool) error {
			// Mirrors a preset rebuilding its objects on every reload.
			env.Objects = map[string]ObjectDef{}
			return nil
		})

		e.Positions["solo"] = worldstate.Position{X: 2, Y: 1}
		So(e.reloadPreset(), ShouldBeNil)

		So(e.Positions["solo"], ShouldResemble, worldstate.Position{X: 1, Y: 1})
		So(ag.Inventory(), ShouldBeEmpty)
	})
}

func TestDoActionAppliesSpeedPenalty(t *testing.T) {
	Convey("A speed-tagged action pays its penalty in addition to the movement reward", t, func() {
		e := newOpenEnvironment(t)
		ag := agent.New("pinocchio", 1)
		e.AddAgent(ag, worldstate.Position{X: 1, Y: 1})

		signals, _, _ := e.doAction(ag, "right:fast")
		So(signals["R"], ShouldEqual, -0.5)

		signals, _, _ = e.doAction(ag, "left:slow")
		So(signals["R"], ShouldEqual, -1.0)
	})
}

func TestDoActionRespectsObjectConditionPermanenceAndInventory(t *testing.T) {
	Convey("An object only triggers when its condition holds, can persist, and can mutate inventory", t, func() {
		e := newOpenEnvironment(t)
		ag := agent.New("pinocchio", 1)
		e.AddAgent(ag, worldstate.Position{X: 1, Y: 1})
		e.Objects["toll"] = ObjectDef{
			Pos:       worldstate.Position{X: 2, Y: 1},
			Reward:    5,
			Permanent: true,
			InvAdd:    []string{"receipt"},
			Condition: []string{"not-receipt"},
		}

		signals, _, _ := e.doAction(ag, "right")
		So(signals["R"], ShouldEqual, 5.0)
		So(ag.Has("receipt"), ShouldBeTrue)
		_, stillPresent := e.Objects["toll"]
		So(stillPresent, ShouldBeTrue) // permanent: not consumed

		ag.RemoveItemFromInventory("receipt")
		e.Positions["pinocchio"] = worldstate.Position{X: 1, Y: 1}
		ag.AddItemToInventory("receipt")

		signals, _, _ = e.doAction(ag, "right")
		So(signals["R"], ShouldEqual, 0.0) // condition fails: already holds a receipt
	})
}

type presetBuilderFunc func(e *Environment, resetAgent bool) error

func (f presetBuilderFunc) Build(e *Environment, resetAgent bool) error { return f(e, resetAgent) }
