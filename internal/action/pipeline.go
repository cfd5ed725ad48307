package action

import (
	"context"
	"fmt"
	"math"
	"os/exec"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/watchrig/rig/pkg/rigerr"
)

// PipelineConfig carries the rig-level repeat settings the pipeline needs.
type PipelineConfig struct {
	Repeat      int
	RepeatDelay time.Duration
}

// Pipeline runs a rig's configured actions in priority order, with the
// kdump action (matched by its exact name "kdump") structurally pinned
// to run last and only after the caller has finalized the archive.
type Pipeline struct {
	actions []Action
	kdump   Action
	log     zerolog.Logger
}

// New builds a Pipeline from actions, validating required binaries and
// splitting out a trailing kdump action if present.
func New(actions []Action, log zerolog.Logger) (*Pipeline, error) {
	sorted := make([]Action, len(actions))
	copy(sorted, actions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return effectivePriority(sorted[i]) < effectivePriority(sorted[j])
	})

	for _, a := range sorted {
		for _, bin := range a.RequiredBinaries() {
			if _, err := exec.LookPath(bin); err != nil {
				return nil, rigerr.New(rigerr.Configuration, "action.New",
					fmt.Errorf("action %q requires binary %q: %w", a.Name(), bin, err))
			}
		}
	}

	p := &Pipeline{log: log}
	for _, a := range sorted {
		if a.Name() == "kdump" {
			p.kdump = a
			continue
		}
		p.actions = append(p.actions, a)
	}
	return p, nil
}

func effectivePriority(a Action) int {
	if a.Name() == "kdump" {
		return math.MaxInt32
	}
	return a.Priority()
}

// RunPreActions runs PreAction on every action (kdump included) in
// priority order, stopping at the first error.
func (p *Pipeline) RunPreActions(ctx context.Context) error {
	for _, a := range p.all() {
		if err := a.PreAction(ctx); err != nil {
			return fmt.Errorf("pre_action %q: %w", a.Name(), err)
		}
	}
	return nil
}

// RunTriggered runs Trigger/PostAction for every non-kdump action in
// order, honoring Repeatable + the pipeline's repeat config. Errors are
// logged and do not stop later actions, matching the teardown-is-always-
// attempted policy; the first error encountered is returned after all
// actions have run.
func (p *Pipeline) RunTriggered(ctx context.Context, cfg PipelineConfig) error {
	var firstErr error
	for _, a := range p.actions {
		if err := p.runOne(ctx, a, cfg); err != nil {
			p.log.Error().Err(err).Str("action", a.Name()).Msg("action trigger failed")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (p *Pipeline) runOne(ctx context.Context, a Action, cfg PipelineConfig) error {
	if err := a.Trigger(ctx); err != nil {
		return err
	}
	if a.Repeatable() {
		for i := 0; i < cfg.Repeat; i++ {
			if cfg.RepeatDelay > 0 {
				select {
				case <-time.After(cfg.RepeatDelay):
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			if err := a.Trigger(ctx); err != nil {
				return err
			}
		}
	}
	return a.PostAction(ctx)
}

// RunKdump runs the pinned-last kdump action, if one was configured. It
// must only be called after the archive has already been written.
func (p *Pipeline) RunKdump(ctx context.Context) error {
	if p.kdump == nil {
		return nil
	}
	p.log.Warn().Msg("kdump action triggered; its artifact will not be captured in this archive")
	if err := p.kdump.Trigger(ctx); err != nil {
		return err
	}
	return p.kdump.PostAction(ctx)
}

// RunCleanup always runs Cleanup on every action, swallowing and logging
// errors so a single bad cleanup never blocks the others.
func (p *Pipeline) RunCleanup(ctx context.Context) {
	for _, a := range p.all() {
		if err := a.Cleanup(ctx); err != nil {
			p.log.Warn().Err(err).Str("action", a.Name()).Msg("cleanup failed")
		}
	}
}

// ArchiveFiles collects every action's contributed paths, kdump included
// (though kdump's own file is deliberately never added, per its
// contract).
func (p *Pipeline) ArchiveFiles() []string {
	var files []string
	for _, a := range p.all() {
		files = append(files, a.ArchiveFiles()...)
	}
	return files
}

func (p *Pipeline) all() []Action {
	if p.kdump == nil {
		return p.actions
	}
	return append(append([]Action{}, p.actions...), p.kdump)
}
