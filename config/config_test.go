package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"pinocchio/reinforcement"
)

const sampleYAML = `
kind: pinocchio-run
def:
  alpha: 0.2
  gamma: 1.0
  epsilon: 1.0
  epsilonMin: 0.2
  decayMethod: linear
  selection: dlex
  tolerance: 0.1
  preferences: ["V", "R"]
  nonOrdered: ["A", "D"]
  actions: ["up", "down", "left", "right"]
  steps: 1000
  timeout: 10
  stochasticity: 0.1
  window: 100
`

func writeSampleConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0o644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return path
}

func TestFromYAMLDecodesDefSection(t *testing.T) {
	Convey("FromYAML unwraps the kind/def envelope into a typed Config", t, func() {
		cfg, err := FromYAML(writeSampleConfig(t))
		So(err, ShouldBeNil)
		So(cfg.Alpha, ShouldEqual, 0.2)
		So(cfg.Selection, ShouldEqual, "dlex")
		So(cfg.Preferences, ShouldResemble, []string{"V", "R"})
		So(cfg.Actions, ShouldResemble, []string{"up", "down", "left", "right"})
	})
}

func TestApplyConfiguresQAgent(t *testing.T) {
	Convey("Apply wires a Config's tunables and declared Q-functions onto a QAgent", t, func() {
		cfg, err := FromYAML(writeSampleConfig(t))
		So(err, ShouldBeNil)

		q := reinforcement.New("agent", 1)
		So(cfg.Apply(q), ShouldBeNil)

		So(q.Alpha, ShouldEqual, 0.2)
		So(q.Selection, ShouldEqual, reinforcement.DeltaLex)
		So(q.Preferences, ShouldResemble, []string{"V", "R"})
		So(q.NonOrdered, ShouldResemble, []string{"A", "D"})
		So(q.Actions, ShouldResemble, []string{"up", "down", "left", "right"})
	})
}

func TestApplyHyperparametersLeavesActionsAndQFunctionsAlone(t *testing.T) {
	Convey("ApplyHyperparameters tunes an already-declared QAgent without redeclaring its Q-functions", t, func() {
		cfg, err := FromYAML(writeSampleConfig(t))
		So(err, ShouldBeNil)

		q := reinforcement.New("agent", 1)
		q.SetActions([]string{"a", "b"})
		So(q.AddQFunction("V", true), ShouldBeNil)

		cfg.ApplyHyperparameters(q)

		So(q.Alpha, ShouldEqual, 0.2)
		So(q.Selection, ShouldEqual, reinforcement.DeltaLex)
		So(q.Actions, ShouldResemble, []string{"a", "b"})
		So(q.Preferences, ShouldResemble, []string{"V"})
	})
}

func TestWithRunDeadlineNoDeadline(t *testing.T) {
	Convey("An empty RunDeadline yields a plain cancelable context", t, func() {
		cfg := &Config{}
		ctx, cancel, err := cfg.WithRunDeadline(context.Background())
		So(err, ShouldBeNil)
		So(ctx, ShouldNotBeNil)
		cancel()
	})
}
