package stage

import (
	"context"
	"sort"
	"sync"
)

// Checker is implemented by components that can report their readiness.
type Checker interface {
	HealthCheck(context.Context) Health
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func(context.Context) Health

// HealthCheck calls f.
func (f CheckerFunc) HealthCheck(ctx context.Context) Health {
	return f(ctx)
}

// Collect runs every checker concurrently and returns the results sorted by
// name. Nil checkers are ignored.
func Collect(ctx context.Context, checkers ...Checker) []Health {
	results := make([]Health, len(checkers))
	var wg sync.WaitGroup
	for i, checker := range checkers {
		if checker == nil {
			continue
		}
		wg.Add(1)
		go func(i int, checker Checker) {
			defer wg.Done()
			results[i] = checker.HealthCheck(ctx)
		}(i, checker)
	}
	wg.Wait()

	out := results[:0]
	for _, h := range results {
		if h.Name != "" {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// AllReady reports whether every health record is ready.
func AllReady(results []Health) bool {
	for _, h := range results {
		if !h.Ready {
			return false
		}
	}
	return true
}
