//go:build ruleguard

// Package gorules holds ruleguard checks for the koto tree. Run them with
// gocritic's ruleguard checker:
//
//	gocritic check -enable ruleguard -@ruleguard.rules rules/rules.go ./...
package gorules

import "github.com/quasilyte/go-ruleguard/dsl"

// EnhancedErrors flags fmt.Errorf in the audio packages. Errors there are
// built with internal/errors so they carry a component and category.
//
//	return fmt.Errorf("pool exhausted: %d", n)
//
// becomes
//
//	return errors.Newf("pool exhausted: %d", n).
//	    Component(componentEngine).
//	    Category(errors.CategoryLimit).
//	    Build()
func EnhancedErrors(m dsl.Matcher) {
	m.Match(`fmt.Errorf($*_)`).
		Where(m.File().PkgPath.Matches(`internal/(engine|graph|midi|rtqueue|audiocore)`)).
		Report("use the internal/errors builder instead of fmt.Errorf")
}

// StdLog flags the standard log package. Use a module logger from
// internal/logger.
func StdLog(m dsl.Matcher) {
	m.Match(
		`log.Print($*_)`,
		`log.Printf($*_)`,
		`log.Println($*_)`,
		`log.Fatal($*_)`,
		`log.Fatalf($*_)`,
	).
		Where(m.File().Imports("log")).
		Report("use internal/logger instead of the standard log package")
}

// SleepInTests flags time.Sleep in tests. Wait on a condition with
// require.Eventually or drive the code with an explicit clock.
func SleepInTests(m dsl.Matcher) {
	m.Match(`time.Sleep($_)`).
		Where(m.File().Name.Matches(`_test\.go$`)).
		Report("avoid time.Sleep in tests; use require.Eventually")
}

// TestingContext suggests t.Context() over context.Background() in tests.
func TestingContext(m dsl.Matcher) {
	m.Match(
		`$ctx := context.Background()`,
		`$ctx = context.Background()`,
		`$ctx := context.TODO()`,
		`$ctx = context.TODO()`,
	).
		Where(m.File().Name.Matches(`_test\.go$`)).
		Report("in tests, use t.Context() instead of a background context")

	m.Match(
		`$fn(context.Background(), $*_)`,
		`$fn(context.TODO(), $*_)`,
	).
		Where(m.File().Name.Matches(`_test\.go$`)).
		Report("in tests, use t.Context() instead of a background context")
}

// WaitGroupGo suggests sync.WaitGroup.Go over the Add/Done pattern.
func WaitGroupGo(m dsl.Matcher) {
	m.Match(`$wg.Add(1); go func() { defer $wg.Done(); $*body }()`).
		Where(m["wg"].Type.Is("*sync.WaitGroup") || m["wg"].Type.Is("sync.WaitGroup")).
		Report("use $wg.Go(func() { $body }) instead of Add/Done").
		Suggest("$wg.Go(func() { $body })")
}

// BenchmarkLoop suggests b.Loop() over iterating b.N.
func BenchmarkLoop(m dsl.Matcher) {
	m.Match(`for range $b.N { $*body }`).
		Where(m["b"].Type.Is("*testing.B")).
		Report("use for $b.Loop() { ... } instead of for range $b.N").
		Suggest("for $b.Loop() { $body }")

	m.Match(`for $i := 0; $i < $b.N; $i++ { $*body }`).
		Where(m["b"].Type.Is("*testing.B")).
		Report("use for $b.Loop() { ... } instead of a counted b.N loop")
}

// AtomicLoadTwice flags reading the same atomic twice in one expression,
// which can observe two different values.
func AtomicLoadTwice(m dsl.Matcher) {
	m.Match(`$x.Load() == nil || $x.Load().$_`, `$x.Load() != nil && $x.Load().$_`).
		Report("load $x once into a local before using it")
}
