package machine

import (
	"fmt"

	"github.com/dolthub/swiss"
)

// mapEntry preserves the original key Value alongside its stored value,
// since the swiss map itself is keyed by a canonical hash string rather
// than by Value (which isn't comparable for heap-keyed kinds).
type mapEntry struct {
	key Value
	val Value
}

// Map is Yarel's hash map value, backed by dolthub/swiss's
// open-addressing table for its entry storage, per SPEC_FULL.md's domain
// stack (no teacher file uses a map construct this way; nenuphar's own Map
// wraps a plain Go map and is the secondary grounding source for the
// Value-keyed semantics adapted here).
type Map struct {
	objHeader
	table *swiss.Map[string, *mapEntry]
}

func (m *Map) String() string { return "<map>" }
func (*Map) Type() string     { return "map" }

func (m *Map) trace(h *Heap) {
	m.table.Iter(func(_ string, e *mapEntry) bool {
		h.Mark(e.key)
		h.Mark(e.val)
		return false
	})
}

func (h *Heap) NewMap() *Map {
	m := &Map{table: swiss.NewMap[string, *mapEntry](8)}
	h.track(m, 64)
	return m
}

// hashKey returns a canonical string encoding for a map key, and false if v
// is not a hashable kind (spec.md restricts map keys to nil/bool/number/
// string, the same kinds that support value equality).
func hashKey(v Value) (string, bool) {
	switch k := v.(type) {
	case Nil:
		return "n:", true
	case Bool:
		return fmt.Sprintf("b:%t", bool(k)), true
	case Number:
		return fmt.Sprintf("f:%v", float64(k)), true
	case *String:
		return "s:" + k.s, true
	default:
		return "", false
	}
}

func (m *Map) Get(key Value) (Value, bool, error) {
	hk, ok := hashKey(key)
	if !ok {
		return nil, false, fmt.Errorf("unhashable type used as map key: %s", key.Type())
	}
	e, ok := m.table.Get(hk)
	if !ok {
		return nil, false, nil
	}
	return e.val, true, nil
}

func (m *Map) Set(key, val Value) error {
	hk, ok := hashKey(key)
	if !ok {
		return fmt.Errorf("unhashable type used as map key: %s", key.Type())
	}
	m.table.Put(hk, &mapEntry{key: key, val: val})
	return nil
}

func (m *Map) Delete(key Value) bool {
	hk, ok := hashKey(key)
	if !ok {
		return false
	}
	return m.table.Delete(hk)
}

func (m *Map) Len() int { return m.table.Count() }

func (m *Map) Each(fn func(key, val Value) bool) {
	m.table.Iter(func(_ string, e *mapEntry) bool {
		return !fn(e.key, e.val)
	})
}
