package rig

import (
	"context"

	"github.com/watchrig/rig/internal/monitor"
	"github.com/watchrig/rig/pkg/racegroup"
	"github.com/watchrig/rig/pkg/rigerr"
)

// Outcome describes how the trigger race resolved.
type Outcome struct {
	Kind OutcomeKind
	// WinnerName is the monitor name that resolved the race, empty for
	// Destroyed.
	WinnerName string
	Err        error
}

type OutcomeKind int

const (
	OutcomeTriggered OutcomeKind = iota
	OutcomeCancelled
	OutcomeDestroyed
	OutcomeErrored
)

// runMonitorGroup races every monitor's Start against the others with
// first-completed semantics. It never itself watches the destroy signal;
// callers compose that via runControlGroup.
func runMonitorGroup(ctx context.Context, monitors []monitor.Monitor) Outcome {
	workers := make([]racegroup.Worker, len(monitors))
	for i, m := range monitors {
		m := m
		workers[i] = func(ctx context.Context) (bool, error) {
			return m.Start(ctx)
		}
	}

	result := racegroup.FirstCompleted(ctx, workers)
	name := monitors[result.Index].Name()

	switch {
	case result.Err != nil && rigerr.Is(result.Err, rigerr.Cancellation):
		return Outcome{Kind: OutcomeCancelled, WinnerName: name}
	case result.Err != nil:
		return Outcome{Kind: OutcomeErrored, WinnerName: name, Err: result.Err}
	case result.Triggered:
		return Outcome{Kind: OutcomeTriggered, WinnerName: name}
	default:
		return Outcome{Kind: OutcomeCancelled, WinnerName: name}
	}
}

// runControlGroup composes the monitor race with the control endpoint's
// manual destroy and manual trigger signals, so whichever finishes first
// -- a monitor triggering, an operator forcing a trigger, or an operator
// calling destroy -- wins.
func runControlGroup(ctx context.Context, monitors []monitor.Monitor, destroy, manualTrigger <-chan struct{}) Outcome {
	groupCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	resultCh := make(chan Outcome, 1)
	go func() {
		resultCh <- runMonitorGroup(groupCtx, monitors)
	}()

	select {
	case out := <-resultCh:
		return out
	case <-manualTrigger:
		cancel()
		<-resultCh
		return Outcome{Kind: OutcomeTriggered, WinnerName: "manual"}
	case <-destroy:
		cancel()
		<-resultCh // let the monitor group unwind before returning
		return Outcome{Kind: OutcomeDestroyed}
	case <-ctx.Done():
		cancel()
		<-resultCh
		return Outcome{Kind: OutcomeDestroyed}
	}
}
