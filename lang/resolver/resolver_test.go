package resolver_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yarel-lang/yarel/lang/parser"
	"github.com/yarel-lang/yarel/lang/resolver"
)

func resolve(t *testing.T, src string) error {
	t.Helper()
	chunk, err := parser.Parse("test", src)
	require.NoError(t, err)
	return resolver.Resolve(chunk)
}

func TestResolveSelfReferentialInitializer(t *testing.T) {
	err := resolve(t, `
fn f() {
    var x = x;
}
`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `cannot read local variable "x" in its own initializer`)
}

func TestResolveRedeclarationInSameScope(t *testing.T) {
	err := resolve(t, `
fn f() {
    var x = 1;
    var x = 2;
}
`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `variable "x" already declared in this scope`)
}

func TestResolveShadowingInNestedScopeIsAllowed(t *testing.T) {
	err := resolve(t, `
fn f() {
    var x = 1;
    if true {
        var x = 2;
        print x;
    }
    print x;
}
`)
	assert.NoError(t, err)
}

func TestResolveSelfOutsideMethod(t *testing.T) {
	err := resolve(t, `print self;`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "self used outside of a method")
}

func TestResolveSuperOutsideMethod(t *testing.T) {
	err := resolve(t, `print super.foo;`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "super used outside of a method with a parent class")
}

func TestResolveSuperWithoutParentClass(t *testing.T) {
	err := resolve(t, `
class Foo {
    fn bar() {
        return super.bar;
    }
}
`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "super used outside of a method with a parent class")
}

func TestResolveClosureCapturesOuterLocal(t *testing.T) {
	err := resolve(t, `
fn counter() {
    var n = 0;
    return || {
        n = n + 1;
        return n;
    };
}
`)
	assert.NoError(t, err)
}

func TestResolveUnboundGlobalIsNotACompileError(t *testing.T) {
	// Globals are resolved dynamically (RefGlobal), not checked at
	// compile time, since the prelude and any host-registered natives
	// populate the globals table before a script runs.
	err := resolve(t, `print undeclared_name;`)
	assert.NoError(t, err)
}
