package yarel

// preludeSource defines the Iter base class in Yarel itself: a class that
// any user class derives from (`class Foo < Iter` or `#[derive(Iter)]`) to
// gain map/filter/take/fold/collect without reimplementing them, per
// spec.md §4.7. __iter__ defaults to returning self, so a deriving class
// only has to supply __next__.
//
// map/filter/take build their lazy result by wrapping a generator fiber
// around a for-in loop over the original receiver: resuming that fiber runs
// it forward to its next yield, and the fiber completing (rather than
// yielding again) is exhaustion — the same terminal condition fiberMethod's
// __next__ already treats as iterator exhaustion for any fiber used this
// way. fold/collect are eager and need no fiber, draining self directly.
const preludeSource = `
class Iter {
    fn __iter__() {
        return self;
    }

    fn map(f) {
        var src = self;
        return Fiber.new(|| {
            for x in src {
                yield f(x);
            }
        });
    }

    fn filter(pred) {
        var src = self;
        return Fiber.new(|| {
            for x in src {
                if pred(x) {
                    yield x;
                }
            }
        });
    }

    fn take(n) {
        var src = self;
        return Fiber.new(|| {
            var i = 0;
            for x in src {
                if i >= n {
                    return nil;
                }
                yield x;
                i = i + 1;
            }
        });
    }

    fn fold(init, f) {
        var acc = init;
        for x in self {
            acc = f(acc, x);
        }
        return acc;
    }

    fn collect() {
        var out = [];
        for x in self {
            out.push(x);
        }
        return out;
    }
}
`
