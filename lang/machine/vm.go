package machine

import (
	"fmt"

	"github.com/yarel-lang/yarel/lang/compiler"
)

const maxFrames = 256

// vm drives a single Thread's currently-running fiber through the bytecode
// dispatch loop. One vm exists per top-level Run call; nested synchronous
// calls from native code (Iter combinators invoking a Yarel callback) reuse
// it via callSync. Grounded on the teacher's (nenuphar) machine.go run loop,
// generalized to a fixed opcode dialect and a per-fiber stack/frame set
// instead of one module-wide call stack.
type vm struct {
	th    *Thread
	fiber *Fiber
}

// Run compiles and executes proto as the program's entry point: it
// instantiates it as a zero-upvalue closure, starts it on a fresh fiber, and
// drives that fiber to completion. Returns the value of a top-level `return`
// statement, or nil if the program ends without one.
func Run(th *Thread, proto *compiler.Proto) (Value, error) {
	fn := th.Heap.NewFunction(proto)
	closure := th.Heap.NewClosure(fn, nil)
	fiber := th.Heap.NewFiber(closure)
	v := &vm{th: th}
	return v.start(fiber, nil)
}

// start begins (or, for a suspended fiber, resumes) execution of fiber with
// the given resume arguments, returning once the fiber completes, fails, or
// yields back to its caller.
func (v *vm) start(fiber *Fiber, args []Value) (Value, error) {
	prevCurrent := v.th.current
	fiber.caller = prevCurrent
	v.th.current = fiber
	defer func() { v.th.current = prevCurrent }()

	prevActiveVM := v.th.activeVM
	v.th.activeVM = v
	defer func() { v.th.activeVM = prevActiveVM }()

	switch fiber.state {
	case FiberFresh:
		fiber.state = FiberRunning
		fiber.push(fiber.entry)
		for _, a := range args {
			fiber.push(a)
		}
		if err := v.callValue(fiber, fiber.entry, len(args)); err != nil {
			fiber.state = FiberFailed
			fiber.err = err
			return nil, err
		}
	case FiberSuspended:
		fiber.state = FiberRunning
		// The yield expression's value is whatever resume() was called with.
		var resumeVal Value = NilValue
		if len(args) > 0 {
			resumeVal = args[0]
		}
		fiber.push(resumeVal)
	case FiberCompleted, FiberFailed:
		return nil, &FiberError{Kind: DeadFiber}
	default:
		return nil, fmt.Errorf("cannot resume a %s fiber", fiber.state)
	}

	prevVM := v.fiber
	v.fiber = fiber
	defer func() { v.fiber = prevVM }()

	result, err := v.run(fiber, 0)
	if err != nil {
		fiber.state = FiberFailed
		fiber.err = err
		return nil, err
	}
	return result, nil
}

// run executes fiber's dispatch loop until its frame count drops to
// stopDepth (used both for top-level execution, stopDepth==0, and for
// callSync's nested re-entrant calls) or the fiber yields/completes.
func (v *vm) run(fiber *Fiber, stopDepth int) (Value, error) {
	for {
		if len(fiber.frames) <= stopDepth {
			if len(fiber.stack) == 0 {
				return NilValue, nil
			}
			return fiber.peek(0), nil
		}
		done, yielded, result, err := v.step(fiber)
		if err != nil {
			return nil, err
		}
		if yielded {
			fiber.state = FiberSuspended
			return result, nil
		}
		if done && len(fiber.frames) <= stopDepth {
			fiber.state = FiberCompleted
			return result, nil
		}
		if v.th.Heap.ShouldCollect() {
			v.th.Heap.Collect()
		}
	}
}

func (v *vm) frame(fiber *Fiber) *Frame { return &fiber.frames[len(fiber.frames)-1] }

func (v *vm) chunk(fiber *Fiber) *compiler.Chunk {
	return v.frame(fiber).closure.fn.proto.Chunk
}

func (v *vm) readByte(fiber *Fiber) byte {
	fr := v.frame(fiber)
	b := fr.closure.fn.proto.Chunk.Code[fr.ip]
	fr.ip++
	return b
}

func (v *vm) readU16(fiber *Fiber) uint16 {
	fr := v.frame(fiber)
	n := compiler.ReadU16(fr.closure.fn.proto.Chunk.Code, fr.ip)
	fr.ip += 2
	return n
}

func (v *vm) readI16(fiber *Fiber) int16 {
	fr := v.frame(fiber)
	n := compiler.ReadI16(fr.closure.fn.proto.Chunk.Code, fr.ip)
	fr.ip += 2
	return n
}

func (v *vm) constant(fiber *Fiber, idx uint16) interface{} {
	return v.frame(fiber).closure.fn.proto.Chunk.Constants[idx]
}

func (v *vm) runtimeErr(fiber *Fiber, format string, args ...interface{}) error {
	fr := v.frame(fiber)
	pos := fr.closure.fn.proto.Chunk.Positions[fr.ip-1]
	line, col := pos.LineCol()
	return fmt.Errorf("%d:%d: %s", line, col, fmt.Sprintf(format, args...))
}

// step executes exactly one bytecode instruction. done reports that the
// outermost frame of this run() invocation just returned; yielded reports a
// FIBER_YIELD; result is meaningful only alongside done or yielded.
func (v *vm) step(fiber *Fiber) (done, yielded bool, result Value, err error) {
	op := compiler.Op(v.readByte(fiber))
	switch op {
	case compiler.OpConstant:
		c := v.constant(fiber, v.readU16(fiber))
		fiber.push(v.toValue(c))

	case compiler.OpNil:
		fiber.push(NilValue)
	case compiler.OpTrue:
		fiber.push(Bool(true))
	case compiler.OpFalse:
		fiber.push(Bool(false))
	case compiler.OpPop:
		fiber.pop()
	case compiler.OpDup:
		fiber.push(fiber.peek(0))

	case compiler.OpGetLocal:
		slot := int(v.readByte(fiber))
		fiber.push(fiber.stack[v.frame(fiber).base+slot])
	case compiler.OpSetLocal:
		slot := int(v.readByte(fiber))
		fiber.stack[v.frame(fiber).base+slot] = fiber.peek(0)

	case compiler.OpGetUpvalue:
		idx := int(v.readByte(fiber))
		fiber.push(v.frame(fiber).closure.upvalues[idx].Get())
	case compiler.OpSetUpvalue:
		idx := int(v.readByte(fiber))
		v.frame(fiber).closure.upvalues[idx].Set(fiber.peek(0))

	case compiler.OpGetGlobal:
		name := v.constant(fiber, v.readU16(fiber)).(string)
		val, ok := v.th.Globals[name]
		if !ok {
			return false, false, nil, v.runtimeErr(fiber, "undefined variable %q", name)
		}
		fiber.push(val)
	case compiler.OpSetGlobal:
		name := v.constant(fiber, v.readU16(fiber)).(string)
		if _, ok := v.th.Globals[name]; !ok {
			return false, false, nil, v.runtimeErr(fiber, "undefined variable %q", name)
		}
		v.th.Globals[name] = fiber.peek(0)
	case compiler.OpDefineGlobal:
		name := v.constant(fiber, v.readU16(fiber)).(string)
		v.th.Globals[name] = fiber.pop()

	case compiler.OpGetField:
		name := v.constant(fiber, v.readU16(fiber)).(string)
		recv := fiber.pop()
		val, gerr := v.getProperty(recv, name)
		if gerr != nil {
			return false, false, nil, v.runtimeErr(fiber, "%s", gerr)
		}
		fiber.push(val)
	case compiler.OpSetField:
		name := v.constant(fiber, v.readU16(fiber)).(string)
		val := fiber.pop()
		recv := fiber.pop()
		if serr := v.setProperty(recv, name, val); serr != nil {
			return false, false, nil, v.runtimeErr(fiber, "%s", serr)
		}
		fiber.push(val)

	case compiler.OpGetIndex:
		idx := fiber.pop()
		recv := fiber.pop()
		val, gerr := v.getIndex(recv, idx)
		if gerr != nil {
			return false, false, nil, v.runtimeErr(fiber, "%s", gerr)
		}
		fiber.push(val)
	case compiler.OpSetIndex:
		val := fiber.pop()
		idx := fiber.pop()
		recv := fiber.pop()
		if serr := v.setIndex(recv, idx, val); serr != nil {
			return false, false, nil, v.runtimeErr(fiber, "%s", serr)
		}
		fiber.push(val)

	case compiler.OpGetSuper:
		name := v.constant(fiber, v.readU16(fiber)).(string)
		super := fiber.pop().(*Class)
		self := fiber.pop()
		m, ok := super.Methods[name]
		if !ok {
			return false, false, nil, v.runtimeErr(fiber, "undefined method %q on %s", name, super.Name)
		}
		fiber.push(v.th.Heap.NewBoundMethod(self, m))

	case compiler.OpNewList:
		n := int(v.readU16(fiber))
		items := make([]Value, n)
		copy(items, fiber.stack[len(fiber.stack)-n:])
		fiber.truncate(len(fiber.stack) - n)
		fiber.push(v.th.Heap.NewList(items))
	case compiler.OpNewMap:
		n := int(v.readU16(fiber))
		m := v.th.Heap.NewMap()
		pairStart := len(fiber.stack) - 2*n
		for i := 0; i < n; i++ {
			key := fiber.stack[pairStart+2*i]
			val := fiber.stack[pairStart+2*i+1]
			if serr := m.Set(key, val); serr != nil {
				return false, false, nil, v.runtimeErr(fiber, "%s", serr)
			}
		}
		fiber.truncate(pairStart)
		fiber.push(m)

	case compiler.OpNegate:
		n, ok := fiber.pop().(Number)
		if !ok {
			return false, false, nil, v.runtimeErr(fiber, "operand must be a number")
		}
		fiber.push(-n)
	case compiler.OpNot:
		fiber.push(Bool(!Truthy(fiber.pop())))

	case compiler.OpAdd:
		// spec.md §4.5: `+` also does string concatenation, not just this
		// package's general-purpose OP_CONCAT (which stringifies any value,
		// used only for `${...}` interpolation splicing).
		if sb, ok := fiber.peek(0).(*String); ok {
			if sa, ok := fiber.peek(1).(*String); ok {
				fiber.pop()
				fiber.pop()
				fiber.push(v.th.Heap.NewString(sa.s + sb.s))
				break
			}
		}
		b, aok1 := fiber.peek(0).(Number)
		a, aok2 := fiber.peek(1).(Number)
		if !aok1 || !aok2 {
			return false, false, nil, v.runtimeErr(fiber, "operands must be two numbers or two strings")
		}
		fiber.pop()
		fiber.pop()
		fiber.push(arith(op, a, b))

	case compiler.OpSubtract, compiler.OpMultiply, compiler.OpDivide,
		compiler.OpLess, compiler.OpLessEqual, compiler.OpGreater, compiler.OpGreaterEqual:
		b, aok1 := fiber.peek(0).(Number)
		a, aok2 := fiber.peek(1).(Number)
		if !aok1 || !aok2 {
			return false, false, nil, v.runtimeErr(fiber, "operands must be numbers")
		}
		fiber.pop()
		fiber.pop()
		fiber.push(arith(op, a, b))

	case compiler.OpConcat:
		b := fiber.pop()
		a := fiber.pop()
		fiber.push(v.th.Heap.NewString(v.toDisplayString(a) + v.toDisplayString(b)))

	case compiler.OpEqual:
		b := fiber.pop()
		a := fiber.pop()
		fiber.push(Bool(Equal(a, b)))
	case compiler.OpNotEqual:
		b := fiber.pop()
		a := fiber.pop()
		fiber.push(Bool(!Equal(a, b)))

	case compiler.OpJump:
		off := v.readI16(fiber)
		v.frame(fiber).ip += int(off)
	case compiler.OpJumpIfFalse:
		off := v.readI16(fiber)
		if !Truthy(fiber.peek(0)) {
			v.frame(fiber).ip += int(off)
		}
	case compiler.OpJumpIfTrue:
		off := v.readI16(fiber)
		if Truthy(fiber.peek(0)) {
			v.frame(fiber).ip += int(off)
		}
	case compiler.OpLoop:
		off := v.readU16(fiber)
		v.frame(fiber).ip -= int(off)

	case compiler.OpCall:
		argc := int(v.readByte(fiber))
		callee := fiber.peek(argc)
		if cerr := v.callValue(fiber, callee, argc); cerr != nil {
			return false, false, nil, v.runtimeErr(fiber, "%s", cerr)
		}

	case compiler.OpInvoke:
		name := v.constant(fiber, v.readU16(fiber)).(string)
		argc := int(v.readByte(fiber))
		recv := fiber.peek(argc)
		// `C.new(args)` (spec.md §4.4's constructor-invocation syntax) is
		// just OP_CALL on the class itself under a different spelling: a
		// Class has no dot-accessible properties of its own, so any
		// `class.name(...)` routes straight to the same construction path
		// OP_CALL's *Class case already implements, regardless of the
		// dotted name used (including a #[constructor(...)] alias).
		if _, isClass := recv.(*Class); isClass {
			if cerr := v.callValue(fiber, recv, argc); cerr != nil {
				return false, false, nil, v.runtimeErr(fiber, "%s", cerr)
			}
			break
		}
		method, gerr := v.getProperty(recv, name)
		if gerr != nil {
			return false, false, nil, v.runtimeErr(fiber, "%s", gerr)
		}
		fiber.stack[len(fiber.stack)-argc-1] = method
		if cerr := v.callValue(fiber, method, argc); cerr != nil {
			return false, false, nil, v.runtimeErr(fiber, "%s", cerr)
		}

	case compiler.OpInvokeSuper:
		name := v.constant(fiber, v.readU16(fiber)).(string)
		argc := int(v.readByte(fiber))
		super := fiber.pop().(*Class)
		m, ok := super.Methods[name]
		if !ok {
			return false, false, nil, v.runtimeErr(fiber, "undefined method %q on %s", name, super.Name)
		}
		if cerr := v.callClosure(fiber, m, argc); cerr != nil {
			return false, false, nil, v.runtimeErr(fiber, "%s", cerr)
		}

	case compiler.OpClosure:
		protoConst := v.constant(fiber, v.readU16(fiber)).(*compiler.Proto)
		fn := v.th.Heap.NewFunction(protoConst)
		upvalues := make([]*Upvalue, len(protoConst.Upvalues))
		for i, uvd := range protoConst.Upvalues {
			isLocal := v.readByte(fiber) != 0
			idx := int(v.readByte(fiber))
			if isLocal {
				base := v.frame(fiber).base
				upvalues[i] = v.captureUpvalue(fiber, base+idx)
			} else {
				upvalues[i] = v.frame(fiber).closure.upvalues[idx]
			}
			_ = uvd
		}
		fiber.push(v.th.Heap.NewClosure(fn, upvalues))

	case compiler.OpCloseUpvalue:
		fiber.closeUpvalues(len(fiber.stack) - 1)
		fiber.pop()

	case compiler.OpReturn:
		retVal := fiber.pop()
		fr := v.frame(fiber)
		if fr.isInit {
			retVal = fiber.stack[fr.base]
		}
		resultSlot := fr.base
		if !fr.closure.fn.proto.IsMethod {
			resultSlot--
		}
		fiber.closeUpvalues(fr.base)
		fiber.truncate(resultSlot)
		fiber.frames = fiber.frames[:len(fiber.frames)-1]
		fiber.push(retVal)
		if len(fiber.frames) == 0 {
			return true, false, retVal, nil
		}
		return false, false, retVal, nil

	case compiler.OpClass:
		name := v.constant(fiber, v.readU16(fiber)).(string)
		fiber.push(v.th.Heap.NewClass(name))
	case compiler.OpInherit:
		// Stack: [..., superclass (the persisting "super" local), subclass
		// (a re-fetched copy)]. Only the subclass copy is popped; the
		// superclass stays in place as the synthetic local the rest of the
		// class body reads `super` from, matching clox's classDeclaration.
		sub, ok := fiber.pop().(*Class)
		if !ok {
			return false, false, nil, v.runtimeErr(fiber, "cannot inherit: not a class")
		}
		super, ok := fiber.peek(0).(*Class)
		if !ok {
			return false, false, nil, v.runtimeErr(fiber, "parent must be a class")
		}
		sub.Inherit(super)
	case compiler.OpMethod:
		name := v.constant(fiber, v.readU16(fiber)).(string)
		closure := fiber.pop().(*Closure)
		class := fiber.peek(0).(*Class)
		class.Methods[name] = closure

	case compiler.OpPrint:
		fmt.Fprintln(v.th.out(), v.toDisplayString(fiber.pop()))

	case compiler.OpFiberYield:
		if fiber.caller == nil {
			return false, false, nil, v.runtimeErr(fiber, "%s", &FiberError{Kind: RootYield})
		}
		val := fiber.pop()
		return false, true, val, nil

	default:
		return false, false, nil, v.runtimeErr(fiber, "unknown opcode %d", op)
	}
	return false, false, nil, nil
}

func arith(op compiler.Op, a, b Number) Value {
	switch op {
	case compiler.OpAdd:
		return a + b
	case compiler.OpSubtract:
		return a - b
	case compiler.OpMultiply:
		return a * b
	case compiler.OpDivide:
		return a / b
	case compiler.OpLess:
		return Bool(a < b)
	case compiler.OpLessEqual:
		return Bool(a <= b)
	case compiler.OpGreater:
		return Bool(a > b)
	case compiler.OpGreaterEqual:
		return Bool(a >= b)
	default:
		panic("unreachable")
	}
}

func (v *vm) toValue(c interface{}) Value {
	switch c := c.(type) {
	case float64:
		return Number(c)
	case string:
		return v.th.Heap.NewString(c)
	case compiler.SentinelMarker:
		return Sentinel
	default:
		panic(fmt.Sprintf("machine: unexpected constant %T", c))
	}
}

// captureUpvalue finds or creates the open Upvalue pointing at fiber's stack
// slot idx, inserting it into the fiber's open list in descending-depth
// order so closeUpvalues can stop at the first entry below a cutoff.
func (v *vm) captureUpvalue(fiber *Fiber, idx int) *Upvalue {
	slotOf := func(p *Value) int {
		full := fiber.stack[:cap(fiber.stack)]
		for i := range full {
			if &full[i] == p {
				return i
			}
		}
		return -1
	}
	var prev *Upvalue
	cur := fiber.openUpvalues
	for cur != nil && slotOf(cur.location) > idx {
		prev = cur
		cur = cur.next
	}
	if cur != nil && cur.location == &fiber.stack[idx] {
		return cur
	}
	uv := v.th.Heap.newOpenUpvalue(&fiber.stack[idx])
	if prev == nil {
		uv.next = fiber.openUpvalues
		fiber.openUpvalues = uv
	} else {
		uv.next = prev.next
		prev.next = uv
	}
	return uv
}

// callValue dispatches a CALL/INVOKE target: Closure (pushes a Frame and
// returns, letting the main loop continue), Native/BoundNative (executes
// synchronously in Go, replacing the call's stack slots with the result),
// or Class (constructs a new Instance, per spec.md §4.4's constructor
// convention: a method whose name matches the #[constructor(name)]
// attribute, defaulting to "new").
func (v *vm) callValue(fiber *Fiber, callee Value, argc int) error {
	switch c := callee.(type) {
	case *Closure:
		return v.callClosure(fiber, c, argc)
	case *BoundMethod:
		fiber.stack[len(fiber.stack)-argc-1] = c.Receiver
		return v.callClosure(fiber, c.Method, argc)
	case *Native:
		return v.callNative(fiber, c.name, c.arity, argc, func(args []Value) (Value, error) {
			return c.fn(v.th, args)
		})
	case *BoundNative:
		return v.callNative(fiber, c.Name, -1, argc, func(args []Value) (Value, error) {
			return c.Fn(v.th, c.Receiver, args)
		})
	case *Class:
		inst := v.th.Heap.NewInstance(c)
		ctor, ok := findConstructor(c)
		if ok {
			fiber.stack[len(fiber.stack)-argc-1] = inst
			if err := v.callClosure(fiber, ctor, argc); err != nil {
				return err
			}
			// The constructor's own `return` (or implicit nil) must not
			// replace the instance `C.new(...)` is supposed to evaluate to.
			fiber.frames[len(fiber.frames)-1].isInit = true
			return nil
		}
		if argc != 0 {
			return fmt.Errorf("%s takes no arguments", c.Name)
		}
		fiber.truncate(len(fiber.stack) - argc - 1)
		fiber.push(inst)
		return nil
	default:
		return fmt.Errorf("value of type %s is not callable", callee.Type())
	}
}

func findConstructor(c *Class) (*Closure, bool) {
	if m, ok := c.Methods["new"]; ok {
		return m, true
	}
	return nil, false
}

func (v *vm) callClosure(fiber *Fiber, cl *Closure, argc int) error {
	proto := cl.fn.proto
	if argc != proto.Arity {
		return fmt.Errorf("%s expects %d argument(s), got %d", cl.fn.String(), proto.Arity, argc)
	}
	if len(fiber.frames) >= maxFrames {
		return fmt.Errorf("stack overflow")
	}
	resultSlot := len(fiber.stack) - argc - 1
	base := resultSlot
	if !proto.IsMethod {
		base = resultSlot + 1
	}
	fiber.frames = append(fiber.frames, Frame{closure: cl, ip: 0, base: base})
	return nil
}

func (v *vm) callNative(fiber *Fiber, name string, arity, argc int, fn func(args []Value) (Value, error)) error {
	if arity >= 0 && argc != arity {
		return fmt.Errorf("%s expects %d argument(s), got %d", name, arity, argc)
	}
	args := make([]Value, argc)
	copy(args, fiber.stack[len(fiber.stack)-argc:])
	result, err := fn(args)
	if err != nil {
		return err
	}
	fiber.truncate(len(fiber.stack) - argc - 1)
	fiber.push(result)
	return nil
}

// callSync invokes callee synchronously from native Go code (used by the
// Iter combinators to call a Yarel closure passed to map/filter/fold) and
// returns its result without suspending the surrounding fiber.
func (v *vm) callSync(fiber *Fiber, callee Value, args []Value) (Value, error) {
	startDepth := len(fiber.frames)
	fiber.push(callee)
	for _, a := range args {
		fiber.push(a)
	}
	if err := v.callValue(fiber, callee, len(args)); err != nil {
		fiber.stack = fiber.stack[:len(fiber.stack)-len(args)-1]
		return nil, err
	}
	if len(fiber.frames) == startDepth {
		// a Native/BoundNative call already ran to completion synchronously
		return fiber.pop(), nil
	}
	result, err := v.run(fiber, startDepth)
	if err != nil {
		return nil, err
	}
	// run leaves the closure's return value in its result slot; drop it so
	// the stack is back at its height before the call, as in the native case.
	fiber.pop()
	return result, nil
}
