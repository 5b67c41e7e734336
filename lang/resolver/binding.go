package resolver

// A RefKind classifies how an identifier reference is resolved.
type RefKind int

const (
	// RefGlobal is a reference to a top-level (script-scope) binding, stored
	// by name in the VM's process-wide globals map.
	RefGlobal RefKind = iota
	// RefLocal is a reference to a slot on the current function's locals.
	RefLocal
	// RefUpvalue is a reference captured from an enclosing function.
	RefUpvalue
)

// Ref is the resolution recorded on an *ast.IdentExpr's Resolved field. The
// same *Ref value is shared between a local's declaring node and every
// reference to it, so that Captured (set only once an inner function is
// found to close over the local) is visible wherever the compiler looks.
type Ref struct {
	Kind     RefKind
	Index    int    // local slot or upvalue index; unused for RefGlobal
	Name     string // always set; used for RefGlobal lookups and diagnostics
	Captured bool   // RefLocal only: true if captured as an upvalue by a nested function
}

// UpvalueDesc describes one upvalue captured by a function: either a local
// slot of the immediately enclosing function (IsLocal true) or an upvalue
// index of that enclosing function (IsLocal false), per spec.md §4.4's
// transitive-capture rule.
type UpvalueDesc struct {
	Index   int
	IsLocal bool
}

// FuncScope is resolver output attached to FnStmt.Resolved / LambdaExpr.Resolved
// / the top-level Chunk, describing the locals frame shape the compiler
// needs to allocate.
type FuncScope struct {
	NumLocals int // total local slots ever allocated (including self/super)
	Upvalues  []UpvalueDesc
	IsMethod  bool
	HasSuper  bool
}

// ClassScope is resolver output attached to ClassStmt.Resolved.
type ClassScope struct {
	HasParent bool
}

// FnResolved is resolver output attached to FnStmt.Resolved: the
// declaration's Ref (nil for methods, which are looked up through the
// class's method table rather than a local/global binding) plus the
// function body's locals/upvalues shape.
type FnResolved struct {
	Decl  *Ref
	Scope *FuncScope
}

// ClassResolved is resolver output attached to ClassStmt.Resolved. SuperSlot
// is nil when the class has no parent.
type ClassResolved struct {
	Decl      *Ref
	Class     *ClassScope
	SuperSlot *Ref
}

// SuperResolved is resolver output attached to SuperExpr.Resolved: the
// enclosing method's self binding alongside the statically-bound super
// binding, per spec.md §4.4's static super-resolution rule.
type SuperResolved struct {
	Self  *Ref
	Super *Ref
}

// ForInResolved is resolver output attached to ForInStmt.Resolved: the
// loop variable's binding plus a hidden local slot holding the iterator
// object for the lifetime of the loop (spec.md §4.6's Iter protocol).
type ForInResolved struct {
	IterSlot *Ref
	Var      *Ref
}
