package service

import (
	"context"
	"sort"
	"sync"
)

// ─────────────────────────────────────────────────────────────
// RunGuard: prevents concurrent execution of the same job
// ─────────────────────────────────────────────────────────────

// RunGuard ensures only one run of a given job ID is in flight and lets
// shutdown wait for in-flight runs. The zero value is ready to use.
type RunGuard struct {
	mu      sync.Mutex
	running map[string]struct{}
	wg      sync.WaitGroup
}

// TryLock marks jobID as running. It returns false if it already is.
func (g *RunGuard) TryLock(jobID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running == nil {
		g.running = make(map[string]struct{})
	}
	if _, ok := g.running[jobID]; ok {
		return false
	}
	g.running[jobID] = struct{}{}
	g.wg.Add(1)
	return true
}

// Unlock releases jobID. Must follow a successful TryLock.
func (g *RunGuard) Unlock(jobID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.running, jobID)
	g.wg.Done()
}

// Running returns the IDs currently in flight, sorted.
func (g *RunGuard) Running() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	ids := make([]string, 0, len(g.running))
	for id := range g.running {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// WaitAll blocks until every in-flight run completes or ctx is done.
func (g *RunGuard) WaitAll(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
}
