package machine

import "fmt"

// sentinel is the canonical exhaustion marker every __next__ implementation
// returns once an iterator is spent; for-in and the Iter combinators detect
// it with plain equality (vm.go's OpEqual), so it must be one shared
// identity per heap rather than a fresh value per call. Grounded on spec.md
// §4.6.
type sentinel struct{ objHeader }

func (*sentinel) String() string { return "<sentinel>" }
func (*sentinel) Type() string   { return "sentinel" }

// Sentinel is the single shared exhaustion marker, compared against by
// identity (Equal falls through to Go's == on the default heap-kind case,
// which is pointer identity for a *sentinel).
var Sentinel = &sentinel{}

// Iter is Yarel's lazy iterator object: a Go closure producing values on
// demand, wrapping any value with an __iter__ method (List, Map, another
// Iter) plus the chainable combinators map/filter/take/fold/collect
// described in spec.md §4.6. There is no teacher equivalent (nenuphar has no
// iterator protocol); grounded on spec.md §4.6 directly, with
// kristofer-smog's generator-style iteration used as a secondary reference
// for the lazy map/filter chaining shape.
type Iter struct {
	objHeader
	next func() (Value, bool)
}

func (*Iter) String() string { return "<iter>" }
func (*Iter) Type() string   { return "iter" }

func (h *Heap) NewIter(next func() (Value, bool)) *Iter {
	it := &Iter{next: next}
	h.track(it, 32)
	return it
}

// iterMethod implements __iter__/__next__ (the protocol every for-in loop
// drives) plus the lazy combinators. map/filter/take return a new *Iter
// wrapping this one; fold/collect eagerly drain it.
func (v *vm) iterMethod(it *Iter, name string) (Value, error) {
	h := v.th.Heap
	switch name {
	case "__iter__":
		return h.NewBoundNative(it, name, func(t *Thread, recv Value, args []Value) (Value, error) {
			return recv, nil
		}), nil
	case "__next__":
		return h.NewBoundNative(it, name, func(t *Thread, recv Value, args []Value) (Value, error) {
			val, ok := recv.(*Iter).next()
			if !ok {
				return Sentinel, nil
			}
			return val, nil
		}), nil
	case "map":
		return h.NewBoundNative(it, name, func(t *Thread, recv Value, args []Value) (Value, error) {
			if len(args) != 1 {
				return nil, fmt.Errorf("map expects 1 argument")
			}
			src := recv.(*Iter)
			fn := args[0]
			return t.Heap.NewIter(func() (Value, bool) {
				val, ok := src.next()
				if !ok {
					return nil, false
				}
				mapped, err := v.callSync(v.fiber, fn, []Value{val})
				if err != nil {
					return nil, false
				}
				return mapped, true
			}), nil
		}), nil
	case "filter":
		return h.NewBoundNative(it, name, func(t *Thread, recv Value, args []Value) (Value, error) {
			if len(args) != 1 {
				return nil, fmt.Errorf("filter expects 1 argument")
			}
			src := recv.(*Iter)
			fn := args[0]
			return t.Heap.NewIter(func() (Value, bool) {
				for {
					val, ok := src.next()
					if !ok {
						return nil, false
					}
					keep, err := v.callSync(v.fiber, fn, []Value{val})
					if err != nil {
						return nil, false
					}
					if Truthy(keep) {
						return val, true
					}
				}
			}), nil
		}), nil
	case "take":
		return h.NewBoundNative(it, name, func(t *Thread, recv Value, args []Value) (Value, error) {
			if len(args) != 1 {
				return nil, fmt.Errorf("take expects 1 argument")
			}
			n, ok := args[0].(Number)
			if !ok {
				return nil, fmt.Errorf("take expects a number")
			}
			src := recv.(*Iter)
			remaining := int(n)
			return t.Heap.NewIter(func() (Value, bool) {
				if remaining <= 0 {
					return nil, false
				}
				remaining--
				return src.next()
			}), nil
		}), nil
	case "fold":
		return h.NewBoundNative(it, name, func(t *Thread, recv Value, args []Value) (Value, error) {
			if len(args) != 2 {
				return nil, fmt.Errorf("fold expects 2 arguments")
			}
			src := recv.(*Iter)
			acc := args[0]
			fn := args[1]
			for {
				val, ok := src.next()
				if !ok {
					return acc, nil
				}
				next, err := v.callSync(v.fiber, fn, []Value{acc, val})
				if err != nil {
					return nil, err
				}
				acc = next
			}
		}), nil
	case "collect":
		return h.NewBoundNative(it, name, func(t *Thread, recv Value, args []Value) (Value, error) {
			src := recv.(*Iter)
			var items []Value
			for {
				val, ok := src.next()
				if !ok {
					break
				}
				items = append(items, val)
			}
			return t.Heap.NewList(items), nil
		}), nil
	default:
		return nil, fmt.Errorf("iter has no method %q", name)
	}
}
