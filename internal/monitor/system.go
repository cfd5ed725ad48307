package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/watchrig/rig/pkg/rigerr"
)

// System polls a host-wide metric -- 1-minute load average, or a named
// sensor's temperature -- and triggers when its smoothed value crosses a
// threshold.
type System struct {
	metric    string // "load" or "temperature"
	sensor    string // sensor key to match when metric is "temperature"
	threshold float64
	interval  time.Duration
	window    *ring
	discarded bool
}

func NewSystem() Monitor {
	return &System{metric: "load", interval: 5 * time.Second, window: newRing(5)}
}

func (s *System) Name() string { return "system" }

func (s *System) Configure(opts map[string]any) error {
	if metric, ok := opts["metric"].(string); ok && metric != "" {
		s.metric = metric
	}
	if s.metric != "load" && s.metric != "temperature" {
		return rigerr.New(rigerr.Configuration, "system.Configure", fmt.Errorf("unknown metric %q", s.metric))
	}
	if s.metric == "temperature" {
		sensor, ok := opts["sensor"].(string)
		if !ok || sensor == "" {
			return rigerr.New(rigerr.Configuration, "system.Configure", fmt.Errorf("sensor is required for the temperature metric"))
		}
		s.sensor = sensor
	}

	v, ok := opts["threshold"]
	if !ok {
		v, ok = opts["load_threshold"] // accepted alias, kept for load-only rigfiles
	}
	if !ok {
		return rigerr.New(rigerr.Configuration, "system.Configure", fmt.Errorf("threshold is required"))
	}
	switch t := v.(type) {
	case float64:
		s.threshold = t
	case int:
		s.threshold = float64(t)
	default:
		return rigerr.New(rigerr.Configuration, "system.Configure", fmt.Errorf("threshold must be numeric"))
	}
	return nil
}

func (s *System) Start(ctx context.Context) (bool, error) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return false, rigerr.ErrCancelled
		case <-ticker.C:
			sample, ok := s.sample(ctx)
			if !ok {
				continue
			}

			if !s.discarded {
				s.discarded = true
				continue
			}

			s.window.add(sample)
			if s.window.full() && s.window.mean() >= s.threshold {
				return true, nil
			}
		}
	}
}

func (s *System) sample(ctx context.Context) (float64, bool) {
	if s.metric == "temperature" {
		temps, err := host.SensorsTemperaturesWithContext(ctx)
		if err != nil {
			return 0, false
		}
		for _, t := range temps {
			if t.SensorKey == s.sensor {
				return t.Temperature, true
			}
		}
		return 0, false
	}

	avg, err := load.AvgWithContext(ctx)
	if err != nil {
		return 0, false
	}
	return avg.Load1, true
}

func (s *System) Describe() string {
	return fmt.Sprintf("watches %s for crossing %.2f", s.metric, s.threshold)
}
