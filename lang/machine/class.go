package machine

// Class is a runtime class object: a name and a method table. Method tables
// are copy-on-declare (spec.md §4.4/§9): OP_INHERIT copies the parent's
// table into the child's at class-declaration time, so later changes to the
// parent's methods never retroactively affect children, unlike a live
// prototype chain. Grounded on spec.md §4.4 directly and kristofer-smog's
// class runtime; nenuphar has no class construct.
type Class struct {
	objHeader
	Name    string
	Parent  *Class // nil if no parent; kept for diagnostics and Attr lookups, not for live method dispatch
	Methods map[string]*Closure
}

func (c *Class) String() string { return "<class " + c.Name + ">" }
func (*Class) Type() string     { return "class" }

func (c *Class) trace(h *Heap) {
	if c.Parent != nil {
		h.Mark(c.Parent)
	}
	for _, m := range c.Methods {
		h.Mark(m)
	}
}

func (h *Heap) NewClass(name string) *Class {
	c := &Class{Name: name, Methods: make(map[string]*Closure)}
	h.track(c, 64)
	return c
}

// Inherit copies parent's method table into c, per the copy-on-declare rule.
func (c *Class) Inherit(parent *Class) {
	c.Parent = parent
	for name, m := range parent.Methods {
		c.Methods[name] = m
	}
}

// Instance is a runtime object of some Class: a fixed class pointer and an
// open-ended field table, per spec.md §3/§4.4.
type Instance struct {
	objHeader
	Class  *Class
	Fields map[string]Value
}

func (i *Instance) String() string { return "<" + i.Class.Name + " instance>" }
func (*Instance) Type() string     { return "instance" }

func (i *Instance) trace(h *Heap) {
	h.Mark(i.Class)
	for _, v := range i.Fields {
		h.Mark(v)
	}
}

func (h *Heap) NewInstance(class *Class) *Instance {
	inst := &Instance{Class: class, Fields: make(map[string]Value)}
	h.track(inst, 48)
	return inst
}

// BoundMethod pairs an instance (the receiver) with one of its class's
// methods, produced by a bare `x.method` access (without a call) or by
// `super.method`, so it can later be called like any other Callable.
type BoundMethod struct {
	objHeader
	Receiver Value
	Method   *Closure
}

func (b *BoundMethod) String() string { return b.Method.String() }
func (*BoundMethod) Type() string     { return "bound method" }

func (b *BoundMethod) trace(h *Heap) {
	h.Mark(b.Receiver)
	h.Mark(b.Method)
}

func (h *Heap) NewBoundMethod(receiver Value, method *Closure) *BoundMethod {
	bm := &BoundMethod{Receiver: receiver, Method: method}
	h.track(bm, 32)
	return bm
}
