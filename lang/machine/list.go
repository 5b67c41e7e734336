package machine

// List is Yarel's mutable, growable array value, backed directly by a Go
// slice; supplements spec.md's core data model with the list literal and
// native methods described in SPEC_FULL.md. Grounded on the teacher's
// (nenuphar) Tuple/List handling pattern in lang/machine/value.go,
// simplified since Yarel lists are always mutable (no separate immutable
// tuple kind).
type List struct {
	objHeader
	Items []Value
}

func (l *List) String() string { return "<list>" }
func (*List) Type() string     { return "list" }

func (l *List) trace(h *Heap) {
	for _, v := range l.Items {
		h.Mark(v)
	}
}

func (h *Heap) NewList(items []Value) *List {
	l := &List{Items: items}
	h.track(l, int64(24+8*len(items)))
	return l
}

func (l *List) Len() int { return len(l.Items) }

func (l *List) Get(i int) (Value, bool) {
	if i < 0 || i >= len(l.Items) {
		return nil, false
	}
	return l.Items[i], true
}

func (l *List) Set(i int, v Value) bool {
	if i < 0 || i >= len(l.Items) {
		return false
	}
	l.Items[i] = v
	return true
}

func (l *List) Append(v Value) { l.Items = append(l.Items, v) }
