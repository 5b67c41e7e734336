package yarel_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	yarel "github.com/yarel-lang/yarel"
	"github.com/yarel-lang/yarel/lang/machine"
)

// runScript compiles and runs src on a fresh Runtime, returning the captured
// stdout and the value of the script's final statement (if it is a `return`).
func runScript(t *testing.T, name, src string) (string, yarel.Value) {
	t.Helper()
	rt, err := yarel.New(context.Background())
	require.NoError(t, err)

	var out bytes.Buffer
	rt.Thread().Stdout = &out

	val, err := rt.Run(name, src)
	require.NoError(t, err)
	return out.String(), val
}

// Scenario 1 (spec.md §8.1): a fiber yields twice, the caller resumes it
// with a value the second time, and the fiber's implicit nil return is the
// value of the second call().
func TestFiberInterleaving(t *testing.T) {
	src := `
var fiber = Fiber.new(|| {
    print "Fiber yielded!";
    var v = yield;
    print "In a fiber: " + v;
    print "Fiber yielded again!";
});

fiber.call();
print fiber.call("yay! (second call)");
`
	out, _ := runScript(t, "fiber_interleaving", src)
	assert.Equal(t, "Fiber yielded!\nIn a fiber: yay! (second call)\nFiber yielded again!\nnil\n", out)
}

// Scenario 2 (spec.md §8.2): a bound super method, fetched without an
// immediate call and invoked later, still dispatches against the superclass
// method with the original instance bound as self.
func TestBoundSuperMethod(t *testing.T) {
	src := `
class A {
    fn method(arg) {
        print "A.method(" + arg + ")";
    }
}

class B < A {
    fn get_closure() {
        return super.method;
    }
}

B.new().get_closure()("arg");
`
	out, _ := runScript(t, "bound_super_method", src)
	assert.Equal(t, "A.method(arg)\n", out)
}

// Scenario 3 (spec.md §8.3): super resolved inside a nested closure keeps
// working once that closure escapes the method that created it.
func TestSuperInClosure(t *testing.T) {
	src := `
class Base {
    fn greet() {
        return "Base";
    }
}

class Derived < Base {
    fn get_closure() {
        return || super.greet();
    }
}

print Derived.new().get_closure()();
`
	out, _ := runScript(t, "super_in_closure", src)
	assert.Equal(t, "Base\n", out)
}

// Scenario 4 (spec.md §8.4): copy-on-declare inheritance three levels deep
// still resolves a method defined on the topmost ancestor.
func TestMultiLevelInheritance(t *testing.T) {
	src := `
class Foo {
    fn in_foo() {
        print "in foo";
    }
}

class Bar < Foo {
    fn in_bar() {
        print "in bar";
    }
}

class Baz < Bar {
    fn in_baz() {
        print "in baz";
    }
}

var baz = Baz.new();
baz.in_foo();
baz.in_bar();
baz.in_baz();
`
	out, _ := runScript(t, "multi_level_inheritance", src)
	assert.Equal(t, "in foo\nin bar\nin baz\n", out)
}

// Scenario 5 (spec.md §8.5): fields set by one method are visible to a
// sibling method, and a child class's override of the setter is reflected
// by the parent's reader without any field redeclaration.
func TestSharedFieldsAcrossInheritedMethods(t *testing.T) {
	src := `
class Foo {
    fn foo(a, b) {
        self.a = a;
        self.b = b;
    }

    fn foo_print() {
        print self.a;
        print self.b;
    }
}

class Bar < Foo {
    fn bar(a, b) {
        self.a = a;
        self.b = b;
    }
}

var bar = Bar.new();
bar.foo("foo 1", "foo 2");
bar.foo_print();
bar.bar("bar 1", "bar 2");
bar.foo_print();
`
	out, _ := runScript(t, "shared_fields", src)
	assert.Equal(t, "foo 1\nfoo 2\nbar 1\nbar 2\n", out)
}

// Scenario 6 (spec.md §8.6): a user iterator deriving from Iter gets map and
// collect for free; collect over a mapped, lazily-generated sequence equals
// the same finite list eager iteration would produce.
func TestIteratorMapCollect(t *testing.T) {
	src := `
class Fib < Iter {
    fn new(n) {
        self.n = n;
        self.i = 0;
        self.a = 0;
        self.b = 1;
    }

    fn __next__() {
        if self.i >= self.n {
            return sentinel();
        }
        var val = self.a;
        var next = self.a + self.b;
        self.a = self.b;
        self.b = next;
        self.i = self.i + 1;
        return val;
    }
}

fn square(x) {
    return x * x;
}

return Fib.new(10).map(square).collect();
`
	_, val := runScript(t, "iterator_map_collect", src)
	lst, ok := val.(*machine.List)
	require.True(t, ok, "expected a list result, got %T", val)

	want := []float64{0, 1, 1, 4, 9, 25, 64, 169, 441, 1156}
	require.Len(t, lst.Items, len(want))
	for i, w := range want {
		n, ok := lst.Items[i].(machine.Number)
		require.True(t, ok, "element %d is not a number: %T", i, lst.Items[i])
		assert.Equal(t, w, float64(n), "element %d", i)
	}
}

// spec.md §4.4: `C.new(args)` evaluates to the fresh instance, even when
// the declared constructor body itself returns nothing (the implicit nil
// every method falls through to).
func TestConstructorReturnsInstanceNotNil(t *testing.T) {
	src := `
class Widget {
    fn new(n) {
        self.n = n;
    }
}

var w = Widget.new(5);
print w.n;
return w;
`
	out, val := runScript(t, "constructor_returns_instance", src)
	assert.Equal(t, "5\n", out)
	_, ok := val.(*machine.Instance)
	assert.True(t, ok, "expected *machine.Instance, got %T", val)
}

// spec.md §4.4/§6: a #[constructor(name)] attribute binds that method under
// both its declared name and the canonical "new" key, and each binding must
// still produce a live, usable instance rather than crashing or aliasing the
// class itself.
func TestConstructorAttributeAliasWorks(t *testing.T) {
	src := `
#[constructor(make)]
class Widget {
    fn make(n) {
        self.n = n;
    }
}

var a = Widget.make(5);
var b = Widget.new(7);
print a.n;
print b.n;
`
	out, _ := runScript(t, "constructor_attribute_alias", src)
	assert.Equal(t, "5\n7\n", out)
}

// spec.md §7: yielding with no caller fiber to suspend back to is a
// FiberError{kind: RootYield}, not a silent no-op or ordinary runtime error.
func TestYieldAtRootFails(t *testing.T) {
	rt, err := yarel.New(context.Background())
	require.NoError(t, err)

	_, err = rt.Run("root_yield", `yield;`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), (&machine.FiberError{Kind: machine.RootYield}).Error())
}

// spec.md §7: calling a fiber that has already run to completion is a
// FiberError{kind: DeadFiber}.
func TestCallingCompletedFiberFails(t *testing.T) {
	rt, err := yarel.New(context.Background())
	require.NoError(t, err)

	_, err = rt.Run("dead_fiber", `
var fiber = Fiber.new(|| 1);
fiber.call();
fiber.call();
`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), (&machine.FiberError{Kind: machine.DeadFiber}).Error())
}
