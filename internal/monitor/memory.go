package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v3/mem"
	"github.com/watchrig/rig/pkg/humansize"
	"github.com/watchrig/rig/pkg/rigerr"
)

// Memory polls system memory usage (percent or absolute used bytes) and
// triggers when the smoothed average crosses a threshold.
type Memory struct {
	metric        string // "used_perc" or "used_size"
	thresholdPerc float64
	thresholdSize uint64
	interval      time.Duration
	window        *ring
	discarded     bool
}

func NewMemory() Monitor { return &Memory{interval: 5 * time.Second, window: newRing(5), metric: "used_perc"} }

func (m *Memory) Name() string { return "memory" }

func (m *Memory) Configure(opts map[string]any) error {
	if metric, ok := opts["metric"].(string); ok && metric != "" {
		m.metric = metric
	}
	switch m.metric {
	case "used_perc":
		v, ok := opts["threshold"]
		if !ok {
			return rigerr.New(rigerr.Configuration, "memory.Configure", fmt.Errorf("threshold is required"))
		}
		switch t := v.(type) {
		case float64:
			m.thresholdPerc = t
		case int:
			m.thresholdPerc = float64(t)
		default:
			return rigerr.New(rigerr.Configuration, "memory.Configure", fmt.Errorf("threshold must be numeric"))
		}
	case "used_size":
		raw, ok := opts["threshold"].(string)
		if !ok {
			return rigerr.New(rigerr.Configuration, "memory.Configure", fmt.Errorf("threshold is required"))
		}
		n, err := humansize.Parse(raw)
		if err != nil {
			return rigerr.New(rigerr.Configuration, "memory.Configure", err)
		}
		m.thresholdSize = n
	default:
		return rigerr.New(rigerr.Configuration, "memory.Configure", fmt.Errorf("unknown metric %q", m.metric))
	}
	return nil
}

func (m *Memory) Start(ctx context.Context) (bool, error) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return false, rigerr.ErrCancelled
		case <-ticker.C:
			vm, err := mem.VirtualMemoryWithContext(ctx)
			if err != nil {
				continue
			}

			if !m.discarded {
				m.discarded = true
				continue
			}

			var sample float64
			var threshold float64
			if m.metric == "used_size" {
				sample = float64(vm.Used)
				threshold = float64(m.thresholdSize)
			} else {
				sample = vm.UsedPercent
				threshold = m.thresholdPerc
			}

			m.window.add(sample)
			if m.window.full() && m.window.mean() >= threshold {
				return true, nil
			}
		}
	}
}

func (m *Memory) Describe() string {
	return fmt.Sprintf("watches memory %s for crossing threshold", m.metric)
}
