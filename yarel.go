// Package yarel is the embeddable host interface to the language runtime:
// compiling source to a Proto, running a Proto on a fresh Thread, and
// registering additional native functions before a run. It wires together
// lang/scanner, lang/parser, lang/resolver, lang/compiler and lang/machine
// the way the teacher's (mna-nenuphar) internal/maincmd wires the same
// pipeline for its CLI, generalized into a reusable library entry point
// since spec.md has no CLI of its own to hang this wiring off.
package yarel

import (
	"context"

	"github.com/yarel-lang/yarel/lang/compiler"
	"github.com/yarel-lang/yarel/lang/machine"
	"github.com/yarel-lang/yarel/lang/parser"
	"github.com/yarel-lang/yarel/lang/resolver"
)

// Value is a Yarel runtime value (number, string, list, map, class instance,
// closure, fiber, ...). Re-exported so callers outside lang/machine never
// need to import it directly.
type Value = machine.Value

// Compile runs source through the scanner, parser, resolver and compiler in
// sequence, producing the top-level Proto that Run executes. name is used
// for error messages and as the synthetic top-level function's name.
func Compile(name, source string) (*compiler.Proto, error) {
	chunk, err := parser.Parse(name, source)
	if err != nil {
		return nil, err
	}
	if err := resolver.Resolve(chunk); err != nil {
		return nil, err
	}
	return compiler.Compile(chunk)
}

// Runtime is a configured execution environment: a Thread plus whatever
// additional native functions the embedder registered before the first Run.
// Grounded on the teacher's habit (machine.Thread) of carrying the mutable
// execution state in one struct rather than passing loose parameters.
type Runtime struct {
	th *machine.Thread
}

// New creates a Runtime with a fresh Thread bound to ctx, with the Iter base
// class (spec.md §4.7) already installed as a global. A nil ctx behaves like
// context.Background().
func New(ctx context.Context) (*Runtime, error) {
	r := &Runtime{th: machine.NewThread(ctx)}
	if _, err := r.Run("prelude", preludeSource); err != nil {
		return nil, err
	}
	return r, nil
}

// Thread exposes the underlying machine.Thread, for embedders that need to
// set Stdout/Stderr or inspect globals directly.
func (r *Runtime) Thread() *machine.Thread { return r.th }

// RegisterNative installs a native Go function under name, callable from
// Yarel source as a global. arity is the required argument count, or -1 for
// a variadic native (see machine.Thread.Globals / the assert builtin).
func (r *Runtime) RegisterNative(name string, arity int, fn func(t *machine.Thread, args []Value) (Value, error)) {
	r.th.Globals[name] = r.th.Heap.NewNative(name, arity, fn)
}

// Run compiles source and executes it to completion on this Runtime's
// Thread, returning the value of a top-level `return` statement, or nil if
// the script ends without one.
func (r *Runtime) Run(name, source string) (Value, error) {
	proto, err := Compile(name, source)
	if err != nil {
		return nil, err
	}
	return machine.Run(r.th, proto)
}

// ToString renders a Value the way the VM's print statement and string
// concatenation do.
func ToString(v Value) string {
	if v == nil {
		return machine.NilValue.String()
	}
	return v.String()
}
