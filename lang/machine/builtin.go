package machine

import (
	"fmt"
	"strconv"
	"strings"
)

// nsObject is a fixed-field namespace value with no user-constructible
// instances of its own, used for the global Fiber namespace (Fiber.new)
// exposed to Yarel code. No teacher equivalent; grounded on spec.md §5's
// "Fiber.new(fn)" constructor convention.
type nsObject struct {
	objHeader
	name   string
	fields map[string]Value
}

func (n *nsObject) String() string { return "<" + n.name + ">" }
func (*nsObject) Type() string     { return "namespace" }
func (n *nsObject) trace(h *Heap) {
	for _, v := range n.fields {
		h.Mark(v)
	}
}

func (h *Heap) newNamespace(name string) *nsObject {
	ns := &nsObject{name: name, fields: make(map[string]Value)}
	h.track(ns, 32)
	return ns
}

// registerBuiltins populates th.Globals with the core builtins spec.md §4.6
// and §4.7 describe: assert, to_string, to_number, iter, sentinel, and the
// Fiber namespace. print is a dedicated statement (OP_PRINT) rather than a
// builtin function, grounded on the teacher's (nenuphar) own
// print-as-statement convention.
func registerBuiltins(th *Thread) {
	h := th.Heap

	th.Globals["assert"] = h.NewNative("assert", -1, func(t *Thread, args []Value) (Value, error) {
		if len(args) == 0 {
			return nil, fmt.Errorf("assert expects at least 1 argument")
		}
		if !Truthy(args[0]) {
			msg := "assertion failed"
			if len(args) > 1 {
				msg = args[1].String()
			}
			return nil, fmt.Errorf("%s", msg)
		}
		return NilValue, nil
	})

	th.Globals["to_string"] = h.NewNative("to_string", 1, func(t *Thread, args []Value) (Value, error) {
		return t.Heap.NewString(args[0].String()), nil
	})

	th.Globals["to_number"] = h.NewNative("to_number", 1, func(t *Thread, args []Value) (Value, error) {
		switch v := args[0].(type) {
		case Number:
			return v, nil
		case *String:
			f, err := strconv.ParseFloat(strings.TrimSpace(v.s), 64)
			if err != nil {
				return NilValue, nil
			}
			return Number(f), nil
		default:
			return NilValue, nil
		}
	})

	th.Globals["iter"] = h.NewNative("iter", 1, func(t *Thread, args []Value) (Value, error) {
		return vmOf(t).toIter(args[0])
	})

	th.Globals["sentinel"] = h.NewNative("sentinel", 0, func(t *Thread, args []Value) (Value, error) {
		return Sentinel, nil
	})

	fiberNS := h.newNamespace("Fiber")
	fiberNS.fields["new"] = h.NewNative("Fiber.new", 1, func(t *Thread, args []Value) (Value, error) {
		closure, ok := args[0].(*Closure)
		if !ok {
			return nil, fmt.Errorf("Fiber.new expects a function")
		}
		return t.Heap.NewFiber(closure), nil
	})
	th.Globals["Fiber"] = fiberNS
}

// vmOf returns the vm currently driving th's active fiber, used by builtins
// (iter, and transitively the Iter combinators) that need to call back into
// a Yarel closure. Set by Run/start before any bytecode runs.
func vmOf(t *Thread) *vm { return t.activeVM }

// toIter normalizes x into an *Iter by invoking its __iter__ method, so the
// global iter() builtin works on anything the for-in protocol does (List,
// Map, another Iter).
func (v *vm) toIter(x Value) (Value, error) {
	m, err := v.getProperty(x, "__iter__")
	if err != nil {
		return nil, err
	}
	return v.callSync(v.fiber, m, nil)
}
