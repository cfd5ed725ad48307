package action

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/watchrig/rig/pkg/humantime"
	"github.com/watchrig/rig/pkg/procrun"
	"github.com/watchrig/rig/pkg/rigerr"
)

const defaultWatchInterval = 5 * time.Second

// Watch periodically samples a command's output into timestamped files
// under the rig's tmpdir, either on a plain interval or a cron schedule.
type Watch struct {
	Base
	command  string
	args     []string
	schedule string        // optional cron expression; empty means use interval
	interval time.Duration // plain sampling interval when schedule is unset

	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
}

func NewWatch() Action { return &Watch{} }

func (w *Watch) Name() string               { return "watch" }
func (w *Watch) Priority() int               { return 20 }
func (w *Watch) Repeatable() bool            { return false }
func (w *Watch) RequiredBinaries() []string { return nil }
func (w *Watch) Produces() string            { return "periodic samples of a command's output" }

func (w *Watch) Configure(opts map[string]any) error {
	cmd, ok := opts["command"].(string)
	if !ok || cmd == "" {
		return rigerr.New(rigerr.Configuration, "watch.Configure", fmt.Errorf("command is required"))
	}
	w.command = cmd

	if rawArgs, ok := opts["args"].([]string); ok {
		w.args = rawArgs
	} else if rawArgs, ok := opts["args"].([]any); ok {
		for _, a := range rawArgs {
			if s, ok := a.(string); ok {
				w.args = append(w.args, s)
			}
		}
	}

	if sched, ok := opts["schedule"].(string); ok && sched != "" {
		if _, err := cron.ParseStandard(sched); err != nil {
			return rigerr.New(rigerr.Configuration, "watch.Configure", fmt.Errorf("invalid schedule %q: %w", sched, err))
		}
		w.schedule = sched
	}

	w.interval = defaultWatchInterval
	if raw, ok := opts["interval"].(string); ok && raw != "" {
		d, err := humantime.Parse(raw)
		if err != nil {
			return rigerr.New(rigerr.Configuration, "watch.Configure", fmt.Errorf("interval: %w", err))
		}
		w.interval = d
	}
	return nil
}

// startSampling begins the periodic loop bound to parent; PreAction starts
// it, Trigger stops it after taking one final sample.
func (w *Watch) startSampling(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	w.mu.Lock()
	w.cancel = cancel
	w.mu.Unlock()

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		if w.schedule != "" {
			w.runCron(ctx)
			return
		}
		procrun.Sampler(ctx, w.interval, w.sample)
	}()
}

func (w *Watch) runCron(ctx context.Context) {
	sched, _ := cron.ParseStandard(w.schedule)
	for {
		next := sched.Next(time.Now())
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Until(next)):
			w.sample(ctx)
		}
	}
}

func (w *Watch) sample(ctx context.Context) {
	result, err := procrun.Run(ctx, w.command, w.args...)
	if err != nil {
		return
	}
	fname := filepath.Join(w.TmpDir(), fmt.Sprintf("watch-%s.log", time.Now().UTC().Format("20060102T150405.000Z")))
	_ = os.WriteFile(fname, []byte(result.Stdout), 0o644)
	w.AddArchiveFile(fname)
}

func (w *Watch) PreAction(ctx context.Context) error {
	w.startSampling(ctx)
	return nil
}

func (w *Watch) Trigger(ctx context.Context) error {
	w.sample(ctx)
	w.mu.Lock()
	if w.cancel != nil {
		w.cancel()
	}
	w.mu.Unlock()
	return nil
}

func (w *Watch) Cleanup(ctx context.Context) error {
	w.mu.Lock()
	if w.cancel != nil {
		w.cancel()
	}
	w.mu.Unlock()
	w.wg.Wait()
	return nil
}
