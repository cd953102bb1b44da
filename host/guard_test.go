package host

import (
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/blockberries/fundround"
)

func TestLifecycleGuard_HappyPath(t *testing.T) {
	g := NewLifecycleGuard()

	// Init → Instantiating → Ready
	if err := g.AcquireInstantiate(); err != nil {
		t.Fatalf("instantiate: %v", err)
	}
	g.CompleteInstantiate()

	if !g.IsReady() {
		t.Fatal("expected Ready after instantiate")
	}

	// Ready → Executing → Ready, twice.
	for i := 0; i < 2; i++ {
		if err := g.AcquireExecute(); err != nil {
			t.Fatalf("execute %d: %v", i, err)
		}
		if g.State() != "Executing" {
			t.Errorf("expected Executing, got %s", g.State())
		}
		g.CompleteExecute()
	}

	if !g.IsReady() {
		t.Fatal("expected Ready after execute cycles")
	}
}

func TestLifecycleGuard_ExecuteBeforeInstantiate(t *testing.T) {
	g := NewLifecycleGuard()
	if err := g.AcquireExecute(); !errors.Is(err, fundround.ErrRoundNotFound) {
		t.Fatalf("expected ErrRoundNotFound, got %v", err)
	}
	if err := g.AcquireQuery(); !errors.Is(err, fundround.ErrRoundNotFound) {
		t.Fatalf("expected ErrRoundNotFound, got %v", err)
	}
	// The lock must have been released on both failures.
	if err := g.AcquireInstantiate(); err != nil {
		t.Fatalf("instantiate: %v", err)
	}
	g.CompleteInstantiate()
}

func TestLifecycleGuard_DoubleInstantiate(t *testing.T) {
	g := NewLifecycleGuard()
	if err := g.AcquireInstantiate(); err != nil {
		t.Fatal(err)
	}
	g.CompleteInstantiate()

	if err := g.AcquireInstantiate(); !errors.Is(err, fundround.ErrRoundExists) {
		t.Fatalf("expected ErrRoundExists, got %v", err)
	}
}

func TestLifecycleGuard_FailInstantiate(t *testing.T) {
	g := NewLifecycleGuard()
	if err := g.AcquireInstantiate(); err != nil {
		t.Fatal(err)
	}
	g.FailInstantiate()

	// Should be back in Init and able to retry.
	if g.State() != "Init" {
		t.Fatalf("expected Init, got %s", g.State())
	}
	if err := g.AcquireInstantiate(); err != nil {
		t.Fatalf("retry: %v", err)
	}
	g.CompleteInstantiate()
	if !g.IsReady() {
		t.Fatal("expected Ready after successful retry")
	}
}

func TestLifecycleGuard_Restore(t *testing.T) {
	g := NewLifecycleGuard()
	g.Restore()
	if !g.IsReady() {
		t.Fatal("expected Ready after restore")
	}
	if err := g.AcquireInstantiate(); !errors.Is(err, fundround.ErrRoundExists) {
		t.Fatalf("expected ErrRoundExists, got %v", err)
	}
}

func TestLifecycleGuard_QueryWaitsForExecute(t *testing.T) {
	g := NewLifecycleGuard()
	g.Restore()

	if err := g.AcquireExecute(); err != nil {
		t.Fatal(err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := g.AcquireQuery(); err != nil {
			t.Errorf("query: %v", err)
			return
		}
		g.ReleaseQuery()
	}()

	select {
	case <-done:
		t.Fatal("query ran while execute held the guard")
	case <-time.After(20 * time.Millisecond):
	}

	g.CompleteExecute()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("query did not resume after execute")
	}
}
