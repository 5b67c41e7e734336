package machine

// Obj is implemented by every heap-allocated Value kind. Each Obj carries an
// intrusive header so the collector can walk every live allocation without a
// separate side-table, mirroring the allocate-and-link pattern described in
// spec.md §4.2 (no teacher file implements this; nenuphar leans on the Go
// runtime's own GC instead).
type Obj interface {
	Value
	header() *objHeader
}

type objHeader struct {
	marked bool
	next   Obj // intrusive singly-linked list of every object ever allocated
}

func (h *objHeader) header() *objHeader { return h }

// Heap owns every object allocated by a running program and performs
// mark-sweep collection over it. A Heap is not safe for concurrent use from
// more than one fiber at a time; the Thread that owns it serializes access
// the same way only one fiber runs at once (spec.md §5).
type Heap struct {
	objects   Obj
	bytesUsed int64
	nextGC    int64
	roots     []Rooter

	strings *stringTable
}

// Rooter is implemented by anything the collector must treat as a root: the
// Thread (globals, the active fiber chain) and any native code temporarily
// holding a Value outside the stack.
type Rooter interface {
	MarkRoots(h *Heap)
}

const initialGCThreshold = 1 << 20 // 1 MiB of estimated live heap before the first collection

func NewHeap() *Heap {
	h := &Heap{nextGC: initialGCThreshold}
	h.strings = newStringTable()
	return h
}

func (h *Heap) AddRoot(r Rooter) { h.roots = append(h.roots, r) }

// track registers a freshly allocated object with the heap and accounts its
// approximate size toward the next collection threshold.
func (h *Heap) track(o Obj, size int64) {
	hdr := o.header()
	hdr.next = h.objects
	h.objects = o
	h.bytesUsed += size
}

// ShouldCollect reports whether accumulated allocation has crossed the
// adaptive threshold; the VM checks this after every instruction it executes
// rather than on every allocation.
func (h *Heap) ShouldCollect() bool {
	return h.bytesUsed > h.nextGC
}

// Collect runs a full mark-sweep pass: mark every object reachable from a
// root, then sweep the all-objects list, freeing anything left unmarked
// (including removing dead entries from the string intern table, per
// spec.md §4.2's "string table as weak references" design note).
func (h *Heap) Collect() {
	for _, r := range h.roots {
		r.MarkRoots(h)
	}
	h.sweep()
	h.nextGC = h.bytesUsed * 2
	if h.nextGC < initialGCThreshold {
		h.nextGC = initialGCThreshold
	}
}

// Mark marks v (and, transitively, anything it references) reachable. Safe
// to call on any Value, including non-heap immediates, which it ignores.
func (h *Heap) Mark(v Value) {
	o, ok := v.(Obj)
	if !ok {
		return
	}
	hdr := o.header()
	if hdr.marked {
		return
	}
	hdr.marked = true
	if t, ok := o.(traceable); ok {
		t.trace(h)
	}
}

// traceable is implemented by heap kinds that hold references to other
// Values (closures, instances, lists...); trace marks each of them.
type traceable interface {
	trace(h *Heap)
}

func (h *Heap) sweep() {
	var prev Obj
	cur := h.objects
	for cur != nil {
		hdr := cur.header()
		next := hdr.next
		if hdr.marked {
			prev = cur
		} else {
			if prev == nil {
				h.objects = next
			} else {
				prev.header().next = next
			}
		}
		cur = next
	}
	// The intern table must drop unreachable strings while their marked
	// flags still reflect this cycle's trace, before the flags are cleared
	// below for the next cycle.
	h.strings.sweepUnmarked()
	for cur := h.objects; cur != nil; cur = cur.header().next {
		cur.header().marked = false
	}
}
