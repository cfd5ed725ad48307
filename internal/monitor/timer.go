package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/watchrig/rig/pkg/humantime"
	"github.com/watchrig/rig/pkg/rigerr"
)

// Timer triggers (or cancels) after a fixed duration elapses.
type Timer struct {
	duration        time.Duration
	triggerOnExpiry bool
}

func NewTimer() Monitor { return &Timer{triggerOnExpiry: true} }

func (t *Timer) Name() string { return "timer" }

func (t *Timer) Configure(opts map[string]any) error {
	raw, ok := opts["timeout"]
	if !ok {
		return rigerr.New(rigerr.Configuration, "timer.Configure", fmt.Errorf("timeout is required"))
	}
	switch v := raw.(type) {
	case string:
		d, err := humantime.Parse(v)
		if err != nil {
			return rigerr.New(rigerr.Configuration, "timer.Configure", err)
		}
		t.duration = d
	case int:
		t.duration = time.Duration(v) * time.Second
	case float64:
		t.duration = time.Duration(v) * time.Second
	default:
		return rigerr.New(rigerr.Configuration, "timer.Configure", fmt.Errorf("timeout must be an integer or a duration string"))
	}

	if v, ok := opts["trigger_on_expiry"].(bool); ok {
		t.triggerOnExpiry = v
	}
	return nil
}

func (t *Timer) Start(ctx context.Context) (bool, error) {
	select {
	case <-time.After(t.duration):
		if t.triggerOnExpiry {
			return true, nil
		}
		return false, rigerr.ErrCancelled
	case <-ctx.Done():
		return false, rigerr.ErrCancelled
	}
}

func (t *Timer) Describe() string {
	return fmt.Sprintf("fires after %s (trigger_on_expiry=%v)", t.duration, t.triggerOnExpiry)
}
