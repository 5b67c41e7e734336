package machine

import (
	"context"
	"io"
	"os"
)

// Thread is the top-level execution context shared by every fiber of one
// running program: the heap, the interned-string/global-name tables, and
// I/O. Grounded on the teacher's (nenuphar) Thread, trimmed to spec.md's
// scope (no module loader, no step/recursion budget knobs) and extended
// with the Heap/current-fiber bookkeeping spec.md §5 needs.
type Thread struct {
	Name string

	Stdout io.Writer
	Stderr io.Writer

	Heap    *Heap
	Globals map[string]Value

	ctx     context.Context
	current *Fiber // the fiber currently executing, or most recently so

	// activeVM is the vm instance currently driving this thread's fiber
	// tree, set for the duration of a Run call so native builtins (iter,
	// the Iter combinators) can call back into Yarel closures.
	activeVM *vm
}

func NewThread(ctx context.Context) *Thread {
	if ctx == nil {
		ctx = context.Background()
	}
	th := &Thread{
		Heap:    NewHeap(),
		Globals: make(map[string]Value),
		ctx:     ctx,
	}
	th.Heap.AddRoot(th)
	registerBuiltins(th)
	return th
}

func (th *Thread) out() io.Writer {
	if th.Stdout != nil {
		return th.Stdout
	}
	return os.Stdout
}

// MarkRoots implements Rooter: globals and the fiber chain currently
// executing (a fiber's trace marks its caller transitively) are the thread's
// GC roots.
func (th *Thread) MarkRoots(h *Heap) {
	for _, v := range th.Globals {
		h.Mark(v)
	}
	if th.current != nil {
		h.Mark(th.current)
	}
}
