package af

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestFrameworkBasics(t *testing.T) {
	Convey("Given a fresh framework", t, func() {
		f := New()

		Convey("AddArgument is idempotent and order-preserving", func() {
			f.AddArgument("a")
			f.AddArgument("b")
			f.AddArgument("a")
			So(f.Arguments(), ShouldResemble, []string{"a", "b"})
		})

		Convey("AddAttack rejects duplicates", func() {
			So(f.AddAttack("a", "b"), ShouldBeNil)
			So(f.AddAttack("a", "b"), ShouldNotBeNil)
		})

		Convey("AddAttack auto-adds undeclared endpoints", func() {
			So(f.AddAttack("x", "y"), ShouldBeNil)
			So(f.Arguments(), ShouldResemble, []string{"x", "y"})
		})

		Convey("Attackers/AttackedBy reflect attack direction", func() {
			So(f.AddAttack("a", "b"), ShouldBeNil)
			So(f.Attackers("b"), ShouldResemble, []string{"a"})
			So(f.AttackedBy("a"), ShouldResemble, []string{"b"})
			So(f.Attackers("a"), ShouldBeEmpty)
		})
	})
}

func TestGroundedExtensionEdgeCases(t *testing.T) {
	Convey("Empty framework has an empty extension", t, func() {
		f := New()
		So(f.GroundedExtension(), ShouldBeEmpty)
	})

	Convey("No attacks: extension equals the argument set", t, func() {
		f := New()
		f.AddArgument("a")
		f.AddArgument("b")
		f.AddArgument("c")
		ext := f.GroundedExtension()
		So(len(ext), ShouldEqual, 3)
		for _, a := range []string{"a", "b", "c"} {
			_, ok := ext[a]
			So(ok, ShouldBeTrue)
		}
	})

	Convey("Self-attacker never becomes IN", t, func() {
		f := New()
		mustAttack(f, "a", "a")
		ext := f.GroundedExtension()
		_, ok := ext["a"]
		So(ok, ShouldBeFalse)
	})

	Convey("Cycle leaves all members UNDEC (scenario 2: a<->b, c->a)", t, func() {
		f := New()
		mustAttack(f, "a", "b")
		mustAttack(f, "b", "a")
		mustAttack(f, "c", "a")
		ext := f.GroundedExtension()
		So(len(ext), ShouldEqual, 1)
		_, ok := ext["c"]
		So(ok, ShouldBeTrue)
	})

	Convey("Chain a->b->c->d (scenario 3)", t, func() {
		f := New()
		mustAttack(f, "a", "b")
		mustAttack(f, "b", "c")
		mustAttack(f, "c", "d")
		ext := f.GroundedExtension()
		So(len(ext), ShouldEqual, 2)
		for _, a := range []string{"a", "c"} {
			_, ok := ext[a]
			So(ok, ShouldBeTrue)
		}
	})
}

// Property: conflict-freeness over these test frameworks (no IN argument
// is attacked by another IN argument). Admissibility and minimality are
// not checked here.
func TestGroundedExtensionProperties(t *testing.T) {
	frameworks := []*Framework{
		buildChain(),
		buildCycleWithDefender(),
		buildDiamond(),
	}

	for i, f := range frameworks {
		ext := f.GroundedExtension()
		for a := range ext {
			for _, attacker := range f.Attackers(a) {
				if _, attackerIn := ext[attacker]; attackerIn {
					t.Fatalf("framework %d: IN argument %q is attacked by IN argument %q (not conflict-free)", i, a, attacker)
				}
			}
		}
	}
}

func buildChain() *Framework {
	f := New()
	mustAttack(f, "a", "b")
	mustAttack(f, "b", "c")
	mustAttack(f, "c", "d")
	return f
}

func buildCycleWithDefender() *Framework {
	f := New()
	mustAttack(f, "a", "b")
	mustAttack(f, "b", "a")
	mustAttack(f, "c", "a")
	return f
}

func buildDiamond() *Framework {
	f := New()
	mustAttack(f, "a", "b")
	mustAttack(f, "a", "c")
	mustAttack(f, "b", "d")
	mustAttack(f, "c", "d")
	return f
}

func mustAttack(f *Framework, a, b string) {
	if err := f.AddAttack(a, b); err != nil {
		panic(err)
	}
}
