// Package rig implements the per-process daemon core: the trigger race,
// the serialized action pipeline, and the guaranteed-teardown lifecycle
// a single rig goes through from Initializing to Exiting.
package rig

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/watchrig/rig/internal/action"
	"github.com/watchrig/rig/internal/archive"
	"github.com/watchrig/rig/internal/control"
	"github.com/watchrig/rig/internal/events"
	"github.com/watchrig/rig/internal/monitor"
	"github.com/watchrig/rig/pkg/rigerr"
)

var (
	liveNamesMu sync.Mutex
	liveNames   = map[string]struct{}{}
)

// Option configures optional Rig behavior at construction time.
type Option func(*Rig)

// WithOutputDir sets the directory the finished archive is written into.
// Defaults to the current working directory.
func WithOutputDir(dir string) Option {
	return func(r *Rig) { r.outputDir = dir }
}

// WithSocketDir sets the directory the control socket is created in.
// Defaults to os.TempDir().
func WithSocketDir(dir string) Option {
	return func(r *Rig) { r.socketDir = dir }
}

// WithRemote enables the optional post-archive upload step.
func WithRemote(cfg archive.RemoteConfig) Option {
	return func(r *Rig) { r.remote = cfg }
}

// Rig is one running instance of the watch-and-collect lifecycle.
type Rig struct {
	name    string
	cfg     Config
	tmpDir  string
	outputDir string
	socketDir string
	remote  archive.RemoteConfig

	monitors []monitor.Monitor
	actions  []action.Action

	mu        sync.RWMutex
	status    Status
	startTime time.Time

	log  zerolog.Logger
	bus  *events.Bus
	ctrl *control.Endpoint

	destroyOnce sync.Once
	destroyCh   chan struct{}
	triggerOnce sync.Once
	triggerCh   chan struct{}

	archivePath string
}

// Destroy signals the rig to abandon its trigger race and tear down
// immediately. Safe to call more than once, from the control endpoint or
// from signal handling, only the first call has any effect.
func (r *Rig) Destroy() {
	r.destroyOnce.Do(func() { close(r.destroyCh) })
}

// Trigger signals the rig's monitor race that an operator requested a
// manual trigger. Safe to call more than once.
func (r *Rig) Trigger() {
	r.triggerOnce.Do(func() { close(r.triggerCh) })
}

// New validates the rig's configuration and monitor/action set, reserves
// its name process-wide, and prepares its scratch directory.
func New(name string, cfg Config, monitors []monitor.Monitor, actions []action.Action, log zerolog.Logger, opts ...Option) (*Rig, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(monitors) == 0 {
		return nil, rigerr.New(rigerr.Configuration, "rig.New", errNoMonitors)
	}
	if len(actions) == 0 {
		return nil, rigerr.New(rigerr.Configuration, "rig.New", errNoActions)
	}

	liveNamesMu.Lock()
	if _, taken := liveNames[name]; taken {
		liveNamesMu.Unlock()
		return nil, rigerr.New(rigerr.Configuration, "rig.New", errNameTaken)
	}
	liveNames[name] = struct{}{}
	liveNamesMu.Unlock()

	tmpDir := cfg.TmpDir
	if tmpDir == "" {
		tmpDir = filepath.Join(os.TempDir(), fmt.Sprintf("rig.%s", name))
	}
	if err := os.MkdirAll(tmpDir, 0o755); err != nil {
		releaseLiveName(name)
		return nil, fmt.Errorf("rig.New: creating tmpdir: %w", err)
	}

	r := &Rig{
		name:      name,
		cfg:       cfg,
		tmpDir:    tmpDir,
		outputDir: ".",
		socketDir: os.TempDir(),
		monitors:  monitors,
		actions:   actions,
		status:    Initializing,
		log:       log.With().Str("rig", name).Logger(),
		bus:       events.NewBus(),
		destroyCh: make(chan struct{}),
		triggerCh: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

func releaseLiveName(name string) {
	liveNamesMu.Lock()
	delete(liveNames, name)
	liveNamesMu.Unlock()
}

// Run drives the rig through its full lifecycle: pre-actions, the
// trigger race, the triggered action pipeline, archiving, and teardown.
// It always returns after teardown completes, regardless of which phase
// failed.
func (r *Rig) Run(ctx context.Context) error {
	defer releaseLiveName(r.name)
	defer os.RemoveAll(r.tmpDir)

	r.startTime = time.Now()
	r.setStatus(Running)

	pipeline, err := action.New(r.actions, r.log)
	if err != nil {
		return err
	}

	socketPath := filepath.Join(r.socketDir, "rig."+r.name)
	r.ctrl = control.New(r.name, socketPath, r.Describe, r.Destroy, r.Trigger, r.bus, r.log)
	if err := r.ctrl.Start(ctx); err != nil {
		return fmt.Errorf("rig.Run: starting control endpoint: %w", err)
	}
	defer r.ctrl.Close()

	if err := pipeline.RunPreActions(ctx); err != nil {
		r.log.Error().Err(err).Msg("pre_action failed, aborting rig")
		pipeline.RunCleanup(ctx)
		return err
	}

	outcome := r.race(ctx)
	r.log.Info().Str("outcome", outcomeKindString(outcome.Kind)).Str("winner", outcome.WinnerName).Msg("trigger race resolved")

	var runErr error
	switch outcome.Kind {
	case OutcomeTriggered:
		r.setStatus(Triggered)
		r.bus.Emit(events.MonitorTriggered, outcome.WinnerName, map[string]any{"monitor": outcome.WinnerName})
		if r.cfg.Delay > 0 {
			select {
			case <-time.After(r.cfg.Delay):
			case <-ctx.Done():
			case <-r.destroyCh:
			}
		}
		runErr = pipeline.RunTriggered(ctx, action.PipelineConfig{Repeat: r.cfg.Repeat, RepeatDelay: r.cfg.RepeatDelay})
		r.writeArchive(ctx, pipeline)
		if kerr := pipeline.RunKdump(ctx); kerr != nil {
			r.log.Error().Err(kerr).Msg("kdump action failed")
		}
	case OutcomeDestroyed, OutcomeCancelled:
		r.setStatus(Destroying)
	case OutcomeErrored:
		runErr = outcome.Err
		r.setStatus(Destroying)
	}

	pipeline.RunCleanup(ctx)
	r.setStatus(Exiting)
	if runErr != nil {
		// logged here, before the deferred tmpdir removal above runs.
		// Any archive has already been written by this point, so this
		// line is not part of it.
		r.log.Error().Err(runErr).Msg("rig run failed")
	}
	return runErr
}

func (r *Rig) race(ctx context.Context) Outcome {
	return runControlGroup(ctx, r.monitors, r.destroyCh, r.triggerCh)
}

func (r *Rig) writeArchive(ctx context.Context, pipeline *action.Pipeline) {
	if r.cfg.NoArchive {
		r.log.Info().Msg("archiving disabled, skipping")
		return
	}
	path, err := archive.Write(r.tmpDir, r.outputDir, r.name, time.Now())
	if err != nil {
		r.log.Error().Err(err).Msg("archive write failed")
		return
	}
	r.archivePath = path
	if path == "" {
		r.log.Info().Msg("tmpdir empty, no archive produced")
		return
	}
	r.log.Info().Str("path", path).Msg("archive written")
	r.bus.Emit(events.ArchiveWritten, r.name, map[string]any{"path": path})

	if err := archive.Upload(ctx, r.remote, path); err != nil {
		r.log.Warn().Err(err).Msg("remote archive upload failed")
	}
}

func (r *Rig) setStatus(s Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.status.validNext(s) {
		r.log.Warn().Str("from", r.status.String()).Str("to", s.String()).Msg("ignoring invalid status transition")
		return
	}
	r.status = s
	r.bus.Emit(events.StatusChanged, r.name, map[string]any{"status": s.String()})
}

// Describe returns a snapshot of the rig's current state for the control
// endpoint's describe/info/status handlers.
func (r *Rig) Describe() control.Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	monitorNames := make([]string, len(r.monitors))
	for i, m := range r.monitors {
		monitorNames[i] = m.Name()
	}
	actionNames := make([]string, len(r.actions))
	for i, a := range r.actions {
		actionNames[i] = a.Name()
	}

	return control.Snapshot{
		"name":       r.name,
		"status":     r.status.String(),
		"start_time": r.startTime.UTC().Format(time.RFC3339),
		"monitors":   monitorNames,
		"actions":    actionNames,
		"configuration": map[string]any{
			"interval":     r.cfg.Interval.String(),
			"delay":        r.cfg.Delay.String(),
			"repeat":       r.cfg.Repeat,
			"repeat_delay": r.cfg.RepeatDelay.String(),
			"no_archive":   r.cfg.NoArchive,
		},
	}
}

func outcomeKindString(k OutcomeKind) string {
	switch k {
	case OutcomeTriggered:
		return "triggered"
	case OutcomeCancelled:
		return "cancelled"
	case OutcomeDestroyed:
		return "destroyed"
	case OutcomeErrored:
		return "errored"
	default:
		return "unknown"
	}
}
