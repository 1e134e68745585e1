// Package af implements an abstract argumentation framework: a directed
// attack graph over string-identified arguments, plus grounded-extension
// acceptability per Dung's semantics.
package af

import "fmt"

// Status is an argument's label during grounded-extension computation.
type Status int

const (
	Undecided Status = iota
	In
	Out
)

// AttackPair is a directed attack: Attacker attacks Attacked.
type AttackPair struct {
	Attacker string
	Attacked string
}

// Framework is a tuple (Args, Attacks). Args preserves insertion order;
// Attacks rejects duplicates. Two index maps are maintained so that
// Attackers(x) and AttackedBy(x) are O(1).
type Framework struct {
	args      []string
	argSet    map[string]struct{}
	attacks   map[AttackPair]struct{}
	attackers map[string][]string // attackers(x): arguments that attack x
	attacked  map[string][]string // x attacks these arguments
}

// New returns an empty argumentation framework.
func New() *Framework {
	return &Framework{
		argSet:    make(map[string]struct{}),
		attacks:   make(map[AttackPair]struct{}),
		attackers: make(map[string][]string),
		attacked:  make(map[string][]string),
	}
}

// AddArgument is idempotent and preserves insertion order.
func (f *Framework) AddArgument(a string) {
	if _, ok := f.argSet[a]; ok {
		return
	}
	f.argSet[a] = struct{}{}
	f.args = append(f.args, a)
}

// AddAttack records that a attacks b. Endpoints need not be pre-declared
// as arguments; they are auto-added. Fails if (a, b) is already present.
func (f *Framework) AddAttack(a, b string) error {
	pair := AttackPair{Attacker: a, Attacked: b}
	if _, ok := f.attacks[pair]; ok {
		return fmt.Errorf("af: attack from %q to %q already exists", a, b)
	}
	f.AddArgument(a)
	f.AddArgument(b)
	f.attacks[pair] = struct{}{}
	f.attackers[b] = append(f.attackers[b], a)
	f.attacked[a] = append(f.attacked[a], b)
	return nil
}

// Arguments returns the arguments in insertion order.
func (f *Framework) Arguments() []string {
	out := make([]string, len(f.args))
	copy(out, f.args)
	return out
}

// Attacks returns all attack pairs in no particular order.
func (f *Framework) Attacks() []AttackPair {
	out := make([]AttackPair, 0, len(f.attacks))
	for pair := range f.attacks {
		out = append(out, pair)
	}
	return out
}

// Attackers returns the arguments that attack x.
func (f *Framework) Attackers(x string) []string {
	return append([]string(nil), f.attackers[x]...)
}

// AttackedBy returns the arguments that x attacks.
func (f *Framework) AttackedBy(x string) []string {
	return append([]string(nil), f.attacked[x]...)
}

// GroundedExtension computes the unique minimal complete extension.
//
// Every argument starts UNDEC. A "root" is any UNDEC argument whose every
// attacker is OUT. Each round, all current roots become IN simultaneously,
// and everything they attack becomes OUT. Iteration stops when no new root
// appears. Self-attackers never become IN (they are never a root, since
// they are their own never-OUT attacker), and arguments inside an
// unresolved cycle stay UNDEC.
func (f *Framework) GroundedExtension() map[string]struct{} {
	status := make(map[string]Status, len(f.args))
	for _, a := range f.args {
		status[a] = Undecided
	}

	for {
		roots := f.rootArguments(status)
		if len(roots) == 0 {
			break
		}
		for _, a := range roots {
			status[a] = In
			for _, attacked := range f.attacked[a] {
				status[attacked] = Out
			}
		}
	}

	extension := make(map[string]struct{})
	for a, s := range status {
		if s == In {
			extension[a] = struct{}{}
		}
	}
	return extension
}

func (f *Framework) rootArguments(status map[string]Status) []string {
	var roots []string
	for _, a := range f.args {
		if status[a] != Undecided {
			continue
		}
		allOut := true
		for _, attacker := range f.attackers[a] {
			if status[attacker] != Out {
				allOut = false
				break
			}
		}
		if allOut {
			roots = append(roots, a)
		}
	}
	return roots
}
