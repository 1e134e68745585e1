package fact

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"pinocchio/worldstate"
)

func TestRegistryDuplicateIsFatal(t *testing.T) {
	Convey("Registering the same label twice errors", t, func() {
		r := NewRegistry()
		So(r.Register("eat", FlagPresent("eat")), ShouldBeNil)
		So(r.Register("eat", FlagPresent("eat")), ShouldNotBeNil)
	})
}

func TestEvaluate(t *testing.T) {
	Convey("Given a registry with eat and longtime extractors", t, func() {
		r := NewRegistry()
		So(r.Register("eat", FlagPresent("eat")), ShouldBeNil)
		So(r.Register("longtime", IterationAtLeast(5)), ShouldBeNil)

		Convey("only satisfied extractors are returned", func() {
			state := worldstate.View{Iteration: 6}
			got := r.Evaluate(state, Flags{"eat"})
			So(got, ShouldResemble, []string{"eat", "longtime"})
		})

		Convey("none satisfied yields an empty slice", func() {
			state := worldstate.View{Iteration: 0}
			got := r.Evaluate(state, Flags{})
			So(got, ShouldBeEmpty)
		})
	})
}

func TestMatchesCondition(t *testing.T) {
	state := worldstate.View{
		Inventories: map[string][]string{"Adam": {"key"}},
	}

	Convey("A plain entry requires membership", t, func() {
		So(MatchesCondition(state, "Adam", []string{"key"}), ShouldBeTrue)
		So(MatchesCondition(state, "Adam", []string{"lamp"}), ShouldBeFalse)
	})

	Convey("A not-prefixed entry requires absence", t, func() {
		So(MatchesCondition(state, "Adam", []string{"not-lamp"}), ShouldBeTrue)
		So(MatchesCondition(state, "Adam", []string{"not-key"}), ShouldBeFalse)
	})
}
