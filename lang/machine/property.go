package machine

import "fmt"

// toDisplayString renders v the way OP_PRINT and string concatenation do:
// every Value's own String(), except Sentinel prints as itself never
// becoming user-visible text in practice (it only ever appears as the
// operand of an == comparison the compiler emits for loop exhaustion).
func (v *vm) toDisplayString(val Value) string {
	return val.String()
}

// iterFallback looks up name on the global Iter class and, if found, binds
// it to recv as a BoundMethod. This is how the combinators written once in
// the Iter prelude (map/filter/take/fold/collect) reach every built-in
// iterable (List, Map, Fiber) without each native method table
// reimplementing them: any receiver whose own native methods expose
// __iter__/__next__ can run Iter's Yarel-defined combinators over itself,
// since BoundMethod.Receiver is a plain Value, not restricted to *Instance.
func (v *vm) iterFallback(recv Value, name string) (Value, bool) {
	iterClass, ok := v.th.Globals["Iter"].(*Class)
	if !ok {
		return nil, false
	}
	m, ok := iterClass.Methods[name]
	if !ok {
		return nil, false
	}
	return v.th.Heap.NewBoundMethod(recv, m), true
}

// getProperty implements `x.name` (OP_GET_FIELD and the receiver half of
// OP_INVOKE): user fields and methods on Instance, and native methods on the
// built-in heap kinds (List, Map, String, Fiber, Iter). Grounded on spec.md
// §4.4 (fields shadow methods) and §4.6 (native method surface).
func (v *vm) getProperty(recv Value, name string) (Value, error) {
	switch r := recv.(type) {
	case *Instance:
		if f, ok := r.Fields[name]; ok {
			return f, nil
		}
		if m, ok := r.Class.Methods[name]; ok {
			return v.th.Heap.NewBoundMethod(r, m), nil
		}
		return nil, fmt.Errorf("%s has no property %q", r.Class.Name, name)
	case *List:
		return v.listMethod(r, name)
	case *Map:
		return v.mapMethod(r, name)
	case *String:
		return v.stringMethod(r, name)
	case *Fiber:
		return v.fiberMethod(r, name)
	case *Iter:
		return v.iterMethod(r, name)
	case *nsObject:
		if f, ok := r.fields[name]; ok {
			return f, nil
		}
		return nil, fmt.Errorf("%s has no member %q", r.name, name)
	default:
		return nil, fmt.Errorf("value of type %s has no properties", recv.Type())
	}
}

func (v *vm) setProperty(recv Value, name string, val Value) error {
	inst, ok := recv.(*Instance)
	if !ok {
		return fmt.Errorf("cannot set field %q on a value of type %s", name, recv.Type())
	}
	inst.Fields[name] = val
	return nil
}

func (v *vm) getIndex(recv, idx Value) (Value, error) {
	switch r := recv.(type) {
	case *List:
		i, ok := idx.(Number)
		if !ok {
			return nil, fmt.Errorf("list index must be a number")
		}
		val, ok := r.Get(int(i))
		if !ok {
			return nil, fmt.Errorf("list index %v out of range (len %d)", i, r.Len())
		}
		return val, nil
	case *Map:
		val, ok, err := r.Get(idx)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("key %s not found in map", idx)
		}
		return val, nil
	default:
		return nil, fmt.Errorf("value of type %s is not indexable", recv.Type())
	}
}

func (v *vm) setIndex(recv, idx, val Value) error {
	switch r := recv.(type) {
	case *List:
		i, ok := idx.(Number)
		if !ok {
			return fmt.Errorf("list index must be a number")
		}
		if !r.Set(int(i), val) {
			return fmt.Errorf("list index %v out of range (len %d)", i, r.Len())
		}
		return nil
	case *Map:
		return r.Set(idx, val)
	default:
		return fmt.Errorf("value of type %s is not indexable", recv.Type())
	}
}

func (v *vm) listMethod(l *List, name string) (Value, error) {
	h := v.th.Heap
	switch name {
	case "len":
		return h.NewBoundNative(l, name, func(t *Thread, recv Value, args []Value) (Value, error) {
			return Number(recv.(*List).Len()), nil
		}), nil
	case "push", "append":
		return h.NewBoundNative(l, name, func(t *Thread, recv Value, args []Value) (Value, error) {
			if len(args) != 1 {
				return nil, fmt.Errorf("%s expects 1 argument", name)
			}
			recv.(*List).Append(args[0])
			return recv, nil
		}), nil
	case "pop":
		return h.NewBoundNative(l, name, func(t *Thread, recv Value, args []Value) (Value, error) {
			lst := recv.(*List)
			if lst.Len() == 0 {
				return nil, fmt.Errorf("pop from empty list")
			}
			last := lst.Items[len(lst.Items)-1]
			lst.Items = lst.Items[:len(lst.Items)-1]
			return last, nil
		}), nil
	case "get":
		return h.NewBoundNative(l, name, func(t *Thread, recv Value, args []Value) (Value, error) {
			if len(args) != 1 {
				return nil, fmt.Errorf("get expects 1 argument")
			}
			i, ok := args[0].(Number)
			if !ok {
				return nil, fmt.Errorf("list index must be a number")
			}
			val, ok := recv.(*List).Get(int(i))
			if !ok {
				return NilValue, nil
			}
			return val, nil
		}), nil
	case "__iter__":
		return h.NewBoundNative(l, name, func(t *Thread, recv Value, args []Value) (Value, error) {
			lst := recv.(*List)
			i := 0
			return t.Heap.NewIter(func() (Value, bool) {
				if i >= lst.Len() {
					return nil, false
				}
				item := lst.Items[i]
				i++
				return item, true
			}), nil
		}), nil
	default:
		if bm, ok := v.iterFallback(l, name); ok {
			return bm, nil
		}
		return nil, fmt.Errorf("list has no method %q", name)
	}
}

func (v *vm) mapMethod(m *Map, name string) (Value, error) {
	h := v.th.Heap
	switch name {
	case "len":
		return h.NewBoundNative(m, name, func(t *Thread, recv Value, args []Value) (Value, error) {
			return Number(recv.(*Map).Len()), nil
		}), nil
	case "get":
		return h.NewBoundNative(m, name, func(t *Thread, recv Value, args []Value) (Value, error) {
			if len(args) != 1 {
				return nil, fmt.Errorf("get expects 1 argument")
			}
			val, ok, err := recv.(*Map).Get(args[0])
			if err != nil {
				return nil, err
			}
			if !ok {
				return NilValue, nil
			}
			return val, nil
		}), nil
	case "set":
		return h.NewBoundNative(m, name, func(t *Thread, recv Value, args []Value) (Value, error) {
			if len(args) != 2 {
				return nil, fmt.Errorf("set expects 2 arguments")
			}
			if err := recv.(*Map).Set(args[0], args[1]); err != nil {
				return nil, err
			}
			return recv, nil
		}), nil
	case "has":
		return h.NewBoundNative(m, name, func(t *Thread, recv Value, args []Value) (Value, error) {
			if len(args) != 1 {
				return nil, fmt.Errorf("has expects 1 argument")
			}
			_, ok, err := recv.(*Map).Get(args[0])
			if err != nil {
				return nil, err
			}
			return Bool(ok), nil
		}), nil
	case "delete":
		return h.NewBoundNative(m, name, func(t *Thread, recv Value, args []Value) (Value, error) {
			if len(args) != 1 {
				return nil, fmt.Errorf("delete expects 1 argument")
			}
			return Bool(recv.(*Map).Delete(args[0])), nil
		}), nil
	case "keys":
		return h.NewBoundNative(m, name, func(t *Thread, recv Value, args []Value) (Value, error) {
			mp := recv.(*Map)
			keys := make([]Value, 0, mp.Len())
			mp.Each(func(k, _ Value) bool {
				keys = append(keys, k)
				return true
			})
			return t.Heap.NewList(keys), nil
		}), nil
	case "values":
		return h.NewBoundNative(m, name, func(t *Thread, recv Value, args []Value) (Value, error) {
			mp := recv.(*Map)
			vals := make([]Value, 0, mp.Len())
			mp.Each(func(_, val Value) bool {
				vals = append(vals, val)
				return true
			})
			return t.Heap.NewList(vals), nil
		}), nil
	case "__iter__":
		return h.NewBoundNative(m, name, func(t *Thread, recv Value, args []Value) (Value, error) {
			mp := recv.(*Map)
			pairs := make([]Value, 0, mp.Len())
			mp.Each(func(k, val Value) bool {
				pairs = append(pairs, t.Heap.NewList([]Value{k, val}))
				return true
			})
			i := 0
			return t.Heap.NewIter(func() (Value, bool) {
				if i >= len(pairs) {
					return nil, false
				}
				p := pairs[i]
				i++
				return p, true
			}), nil
		}), nil
	default:
		if bm, ok := v.iterFallback(m, name); ok {
			return bm, nil
		}
		return nil, fmt.Errorf("map has no method %q", name)
	}
}

func (v *vm) stringMethod(s *String, name string) (Value, error) {
	h := v.th.Heap
	switch name {
	case "len":
		return h.NewBoundNative(s, name, func(t *Thread, recv Value, args []Value) (Value, error) {
			return Number(len([]rune(recv.(*String).s))), nil
		}), nil
	default:
		if bm, ok := v.iterFallback(s, name); ok {
			return bm, nil
		}
		return nil, fmt.Errorf("string has no method %q", name)
	}
}

// fiberMethod exposes call/resume (hand the fiber control, per spec.md §5)
// and state (one of the FiberState names) on Fiber values.
func (v *vm) fiberMethod(f *Fiber, name string) (Value, error) {
	h := v.th.Heap
	switch name {
	case "call", "resume":
		return h.NewBoundNative(f, name, func(t *Thread, recv Value, args []Value) (Value, error) {
			return v.start(recv.(*Fiber), args)
		}), nil
	case "state":
		return h.NewBoundNative(f, name, func(t *Thread, recv Value, args []Value) (Value, error) {
			return t.Heap.NewString(recv.(*Fiber).state.String()), nil
		}), nil
	case "__iter__":
		return h.NewBoundNative(f, name, func(t *Thread, recv Value, args []Value) (Value, error) {
			return recv, nil
		}), nil
	case "__next__":
		// Using a fiber as a generator: resuming it drives it to its next
		// `yield`, and the fiber completing (rather than yielding again) is
		// exhaustion, signaled the same way any other iterator signals it.
		// Lets a plain `for x in f { yield g(x); }`-bodied fiber act as a
		// lazy Iter source with no native combinator wiring of its own.
		return h.NewBoundNative(f, name, func(t *Thread, recv Value, args []Value) (Value, error) {
			fib := recv.(*Fiber)
			if fib.state == FiberCompleted || fib.state == FiberFailed {
				return Sentinel, nil
			}
			val, err := v.start(fib, nil)
			if err != nil {
				return nil, err
			}
			if fib.state == FiberCompleted {
				return Sentinel, nil
			}
			return val, nil
		}), nil
	default:
		if bm, ok := v.iterFallback(f, name); ok {
			return bm, nil
		}
		return nil, fmt.Errorf("fiber has no method %q", name)
	}
}
