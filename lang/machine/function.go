package machine

import "github.com/yarel-lang/yarel/lang/compiler"

// Function is the immutable, shared template produced by compiling a
// function/method/lambda: its bytecode and constant pool, plus the static
// shape a Closure needs to be instantiated from it at OP_CLOSURE time.
// Grounded on the teacher's (nenuphar) types.Function, split here from its
// per-capture Closure the way clox separates ObjFunction from ObjClosure so
// the same Function can back many closures with different upvalue sets.
type Function struct {
	objHeader
	proto *compiler.Proto
}

func (f *Function) String() string { return "<fn " + f.proto.Name + ">" }
func (*Function) Type() string     { return "function" }

func (h *Heap) NewFunction(proto *compiler.Proto) *Function {
	f := &Function{proto: proto}
	h.track(f, 64)
	return f
}

// Closure pairs a Function with the upvalues it captured at creation time.
type Closure struct {
	objHeader
	fn       *Function
	upvalues []*Upvalue
}

func (c *Closure) String() string { return c.fn.String() }
func (*Closure) Type() string     { return "closure" }

func (c *Closure) trace(h *Heap) {
	for _, uv := range c.upvalues {
		h.Mark(uv)
	}
}

func (h *Heap) NewClosure(fn *Function, upvalues []*Upvalue) *Closure {
	c := &Closure{fn: fn, upvalues: upvalues}
	h.track(c, int64(16+8*len(upvalues)))
	return c
}

// Native is a Go-implemented callable exposed to Yarel code (the global
// built-ins such as assert and to_string, and Fiber.new), per spec.md §4.6.
type Native struct {
	objHeader
	name  string
	arity int // -1 means variadic
	fn    func(t *Thread, args []Value) (Value, error)
}

func (n *Native) String() string { return "<native fn " + n.name + ">" }
func (*Native) Type() string     { return "native" }

func (h *Heap) NewNative(name string, arity int, fn func(t *Thread, args []Value) (Value, error)) *Native {
	nv := &Native{name: name, arity: arity, fn: fn}
	h.track(nv, 48)
	return nv
}

// BoundNative pairs a receiver with a Go-implemented method, the native
// counterpart of BoundMethod: produced by property access on a List/Map/Iter
// value rather than on a user-defined Instance.
type BoundNative struct {
	objHeader
	Receiver Value
	Name     string
	Fn       func(t *Thread, receiver Value, args []Value) (Value, error)
}

func (b *BoundNative) String() string { return "<native method " + b.Name + ">" }
func (*BoundNative) Type() string     { return "native method" }

func (b *BoundNative) trace(h *Heap) { h.Mark(b.Receiver) }

func (h *Heap) NewBoundNative(receiver Value, name string, fn func(t *Thread, receiver Value, args []Value) (Value, error)) *BoundNative {
	bn := &BoundNative{Receiver: receiver, Name: name, Fn: fn}
	h.track(bn, 40)
	return bn
}
