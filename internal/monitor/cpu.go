package monitor

import (
	"context"
	"fmt"
	"time"

	gopsutilcpu "github.com/shirou/gopsutil/v3/cpu"
	"github.com/watchrig/rig/pkg/rigerr"
)

// CPU polls overall CPU utilization and triggers when the smoothed
// average crosses a threshold percentage.
type CPU struct {
	threshold float64
	interval  time.Duration
	window    *ring
	discarded bool
}

func NewCPU() Monitor { return &CPU{interval: 5 * time.Second, window: newRing(5)} }

func (c *CPU) Name() string { return "cpu" }

func (c *CPU) Configure(opts map[string]any) error {
	v, ok := opts["threshold"]
	if !ok {
		return rigerr.New(rigerr.Configuration, "cpu.Configure", fmt.Errorf("threshold is required"))
	}
	switch t := v.(type) {
	case float64:
		c.threshold = t
	case int:
		c.threshold = float64(t)
	default:
		return rigerr.New(rigerr.Configuration, "cpu.Configure", fmt.Errorf("threshold must be numeric"))
	}
	return nil
}

func (c *CPU) Start(ctx context.Context) (bool, error) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return false, rigerr.ErrCancelled
		case <-ticker.C:
			percs, err := gopsutilcpu.PercentWithContext(ctx, 0, false)
			if err != nil || len(percs) == 0 {
				continue
			}

			if !c.discarded {
				c.discarded = true
				continue
			}

			c.window.add(percs[0])
			if c.window.full() && c.window.mean() >= c.threshold {
				return true, nil
			}
		}
	}
}

func (c *CPU) Describe() string {
	return fmt.Sprintf("watches CPU utilization for crossing %.1f%%", c.threshold)
}
