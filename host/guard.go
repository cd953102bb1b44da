// Package host runs a funding round against committed storage. It
// enforces the round lifecycle, serializes mutating requests, executes
// the transfers a round plans and commits each request atomically.
package host

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/blockberries/fundround"
)

// lifecycleState represents a state in the host lifecycle.
type lifecycleState uint32

const (
	// stateInit: waiting for Instantiate. Only Instantiate and bank
	// calls are allowed.
	stateInit lifecycleState = iota
	// stateInstantiating: Instantiate has been called and has not
	// returned.
	stateInstantiating
	// stateReady: the round exists. Execute and Query are allowed.
	stateReady
	// stateExecuting: an Execute call is in progress. Queries wait
	// for it to finish.
	stateExecuting
)

func (s lifecycleState) String() string {
	switch s {
	case stateInit:
		return "Init"
	case stateInstantiating:
		return "Instantiating"
	case stateReady:
		return "Ready"
	case stateExecuting:
		return "Executing"
	default:
		return fmt.Sprintf("unknown(%d)", s)
	}
}

// LifecycleGuard enforces the host lifecycle.
//
// Mutating calls hold the write lock for their whole duration, so they
// never overlap each other or a query. Queries share the read lock and
// therefore only ever observe committed state.
type LifecycleGuard struct {
	state atomic.Uint32
	mu    sync.RWMutex
}

// NewLifecycleGuard creates a guard in the Init state.
func NewLifecycleGuard() *LifecycleGuard {
	g := &LifecycleGuard{}
	g.state.Store(uint32(stateInit))
	return g
}

// State returns the current lifecycle state.
func (g *LifecycleGuard) State() string {
	return lifecycleState(g.state.Load()).String()
}

// IsReady returns true if the round exists and no request is running.
func (g *LifecycleGuard) IsReady() bool {
	return lifecycleState(g.state.Load()) == stateReady
}

// Restore moves a fresh guard straight to Ready, for hosts opened on
// storage that already holds a round.
func (g *LifecycleGuard) Restore() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state.Store(uint32(stateReady))
}

// AcquireInstantiate transitions Init → Instantiating. It returns
// ErrRoundExists once the round has been created.
func (g *LifecycleGuard) AcquireInstantiate() error {
	g.mu.Lock()
	if state := lifecycleState(g.state.Load()); state != stateInit {
		g.mu.Unlock()
		return fundround.ErrRoundExists
	}
	g.state.Store(uint32(stateInstantiating))
	return nil
}

// CompleteInstantiate transitions Instantiating → Ready.
func (g *LifecycleGuard) CompleteInstantiate() {
	g.state.Store(uint32(stateReady))
	g.mu.Unlock()
}

// FailInstantiate rolls back to Init, allowing a retry.
func (g *LifecycleGuard) FailInstantiate() {
	g.state.Store(uint32(stateInit))
	g.mu.Unlock()
}

// AcquireExecute transitions Ready → Executing. It blocks while another
// mutating call or a query is in progress and returns ErrRoundNotFound
// before Instantiate.
func (g *LifecycleGuard) AcquireExecute() error {
	g.mu.Lock()
	if state := lifecycleState(g.state.Load()); state != stateReady {
		g.mu.Unlock()
		return fundround.ErrRoundNotFound
	}
	g.state.Store(uint32(stateExecuting))
	return nil
}

// CompleteExecute transitions Executing → Ready whether or not the
// request succeeded.
func (g *LifecycleGuard) CompleteExecute() {
	g.state.Store(uint32(stateReady))
	g.mu.Unlock()
}

// AcquireQuery takes the shared lock. It returns ErrRoundNotFound
// before Instantiate.
func (g *LifecycleGuard) AcquireQuery() error {
	g.mu.RLock()
	if !g.IsReady() {
		g.mu.RUnlock()
		return fundround.ErrRoundNotFound
	}
	return nil
}

// ReleaseQuery releases the shared lock.
func (g *LifecycleGuard) ReleaseQuery() {
	g.mu.RUnlock()
}

// Write runs fn under the exclusive lock in any lifecycle state. Used
// for bank maintenance such as funding the matching pool.
func (g *LifecycleGuard) Write(fn func() error) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return fn()
}

// Read runs fn under the shared lock in any lifecycle state.
func (g *LifecycleGuard) Read(fn func() error) error {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return fn()
}
