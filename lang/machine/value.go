// Package machine implements the Yarel stack-based virtual machine: the
// value model, call frames, fiber scheduler, mark-sweep heap and the
// built-in core (print, Iter, Fiber). Overall package shape (a Value
// interface implemented by both immediate and heap kinds, a Frame/Thread
// split, a flat opcode dispatch loop) is grounded on the teacher's
// (mna-nenuphar) lang/machine package; classes, instances, explicit GC and
// fibers have no direct teacher equivalent and are grounded on spec.md §3-5
// directly, with kristofer-smog's allocator and class runtime used as a
// secondary reference.
package machine

import "fmt"

// formatNumber renders a Yarel number the way the teacher's Float.String
// does (lang/machine/float.go).
func formatNumber(f float64) string {
	return fmt.Sprintf("%g", f)
}

// Value is the interface implemented by every value the machine can hold on
// its stack: the three immediate kinds (Nil, Bool, Number) and every heap
// kind (Obj and its implementations).
type Value interface {
	String() string
	Type() string
}

// Nil is the singleton absence-of-value. Yarel has exactly one nil value, so
// NilValue is the only instance ever constructed.
type Nil struct{}

func (Nil) String() string { return "nil" }
func (Nil) Type() string   { return "nil" }

// NilValue is the single shared Nil instance; compare against it with ==.
var NilValue = Nil{}

// Bool is a boolean value.
type Bool bool

func (b Bool) String() string {
	if b {
		return "true"
	}
	return "false"
}
func (Bool) Type() string { return "bool" }

// Number is Yarel's single numeric kind, an IEEE-754 double, per spec.md §3
// (there is no separate integer type).
type Number float64

func (n Number) String() string { return formatNumber(float64(n)) }
func (Number) Type() string     { return "number" }

// Truthy reports whether v is considered true in a boolean context: nil and
// false are falsy, every other value (including 0 and "") is truthy.
func Truthy(v Value) bool {
	switch v := v.(type) {
	case Nil:
		return false
	case Bool:
		return bool(v)
	default:
		return true
	}
}

// Equal implements Yarel's `==` operator: numbers and bools compare by
// value, nil equals only nil, interned strings compare by identity after
// interning (so by value too), and every other heap kind, the Iter sentinel
// included, compares by reference identity.
func Equal(a, b Value) bool {
	switch av := a.(type) {
	case Nil:
		_, ok := b.(Nil)
		return ok
	case Bool:
		bv, ok := b.(Bool)
		return ok && av == bv
	case Number:
		bv, ok := b.(Number)
		return ok && av == bv
	case *String:
		bv, ok := b.(*String)
		return ok && av == bv // interned: pointer equality suffices
	default:
		return a == b
	}
}
