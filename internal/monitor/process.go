package monitor

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/process"
	"github.com/watchrig/rig/pkg/humansize"
	"github.com/watchrig/rig/pkg/racegroup"
	"github.com/watchrig/rig/pkg/rigerr"
)

// Process watches one or more PIDs or command-name regexes (the spec's
// "procs" option) for a POSIX state and/or a resource-utilization
// threshold, one worker per (PID, aspect) pair. When a watched process
// disappears, its worker parks rather than resolving the race on its
// own -- the whole monitor only cancels once every watched PID has gone,
// via deadPIDs/allDeadCh below, guarded by a single mutex shared across
// every (PID, aspect) worker. The one exception is "!running": a process
// that has exited is, tautologically, not running, so that case
// triggers immediately instead of parking.
type Process struct {
	pids     []int32
	patterns []*regexp.Regexp

	state  string
	invert bool

	cpuPercent *float64
	memPercent *float64
	vms        *uint64
	rss        *uint64

	interval time.Duration

	deadMu    sync.Mutex
	deadPIDs  map[int32]struct{}
	totalPIDs int
	allDeadCh chan struct{}
	allDeadOn sync.Once
}

func NewProcess() Monitor { return &Process{interval: 2 * time.Second} }

func (p *Process) Name() string { return "process" }

func (p *Process) Configure(opts map[string]any) error {
	raw, ok := opts["procs"]
	if !ok {
		return rigerr.New(rigerr.Configuration, "process.Configure", fmt.Errorf("procs is required"))
	}
	entries, ok := raw.([]any)
	if !ok {
		return rigerr.New(rigerr.Configuration, "process.Configure", fmt.Errorf("procs must be a list of PIDs or name patterns"))
	}
	for _, e := range entries {
		switch v := e.(type) {
		case int:
			p.pids = append(p.pids, int32(v))
		case float64:
			p.pids = append(p.pids, int32(v))
		case string:
			if n, err := strconv.Atoi(v); err == nil {
				p.pids = append(p.pids, int32(n))
				continue
			}
			re, err := regexp.Compile(v)
			if err != nil {
				return rigerr.New(rigerr.Configuration, "process.Configure", fmt.Errorf("invalid proc pattern %q: %w", v, err))
			}
			p.patterns = append(p.patterns, re)
		default:
			return rigerr.New(rigerr.Configuration, "process.Configure", fmt.Errorf("unsupported procs entry %v", e))
		}
	}
	if len(p.pids) == 0 && len(p.patterns) == 0 {
		return rigerr.New(rigerr.Configuration, "process.Configure", fmt.Errorf("procs must name at least one PID or pattern"))
	}

	if state, ok := opts["state"].(string); ok && state != "" {
		if strings.HasPrefix(state, "!") {
			p.invert = true
			state = state[1:]
		}
		p.state = state
	}
	if v, ok := numericOpt(opts["cpu_percent"]); ok {
		p.cpuPercent = &v
	}
	if v, ok := numericOpt(opts["memory_percent"]); ok {
		p.memPercent = &v
	}
	if raw, ok := opts["vms"].(string); ok && raw != "" {
		n, err := humansize.Parse(raw)
		if err != nil {
			return rigerr.New(rigerr.Configuration, "process.Configure", err)
		}
		p.vms = &n
	}
	if raw, ok := opts["rss"].(string); ok && raw != "" {
		n, err := humansize.Parse(raw)
		if err != nil {
			return rigerr.New(rigerr.Configuration, "process.Configure", err)
		}
		p.rss = &n
	}

	if p.state == "" && p.cpuPercent == nil && p.memPercent == nil && p.vms == nil && p.rss == nil {
		return rigerr.New(rigerr.Configuration, "process.Configure", fmt.Errorf("at least one of state, cpu_percent, memory_percent, vms, rss is required"))
	}
	return nil
}

func numericOpt(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	default:
		return 0, false
	}
}

func (p *Process) resolve(ctx context.Context) ([]int32, error) {
	matched := append([]int32(nil), p.pids...)
	if len(p.patterns) == 0 {
		return matched, nil
	}

	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("process: listing processes: %w", err)
	}
	for _, proc := range procs {
		if p.matchesAnyPattern(ctx, proc) {
			matched = append(matched, proc.Pid)
		}
	}
	return matched, nil
}

func (p *Process) matchesAnyPattern(ctx context.Context, proc *process.Process) bool {
	if name, err := proc.NameWithContext(ctx); err == nil {
		for _, re := range p.patterns {
			if re.MatchString(name) {
				return true
			}
		}
	}
	if exe, err := proc.ExeWithContext(ctx); err == nil {
		base := exe
		if i := strings.LastIndexByte(exe, '/'); i >= 0 {
			base = exe[i+1:]
		}
		for _, re := range p.patterns {
			if re.MatchString(base) {
				return true
			}
		}
	}
	if args, err := proc.CmdlineSliceWithContext(ctx); err == nil && len(args) > 0 {
		for _, re := range p.patterns {
			if re.MatchString(args[0]) {
				return true
			}
		}
	}
	return false
}

func (p *Process) Start(ctx context.Context) (bool, error) {
	pids, err := p.resolve(ctx)
	if err != nil {
		return false, err
	}
	if len(pids) == 0 {
		return false, rigerr.ErrCancelled
	}

	p.deadPIDs = make(map[int32]struct{}, len(pids))
	p.totalPIDs = len(pids)
	p.allDeadCh = make(chan struct{})

	var workers []racegroup.Worker
	for _, pid := range pids {
		pid := pid
		if p.state != "" {
			workers = append(workers, func(ctx context.Context) (bool, error) { return p.watchState(ctx, pid) })
		}
		if p.cpuPercent != nil {
			threshold := *p.cpuPercent
			workers = append(workers, func(ctx context.Context) (bool, error) {
				return p.watchUtilization(ctx, pid, func(proc *process.Process) (float64, error) {
					return proc.PercentWithContext(ctx, 0)
				}, threshold, true)
			})
		}
		if p.memPercent != nil {
			threshold := *p.memPercent
			workers = append(workers, func(ctx context.Context) (bool, error) {
				return p.watchUtilization(ctx, pid, func(proc *process.Process) (float64, error) {
					v, err := proc.MemoryPercentWithContext(ctx)
					return float64(v), err
				}, threshold, false)
			})
		}
		if p.vms != nil {
			threshold := float64(*p.vms)
			workers = append(workers, func(ctx context.Context) (bool, error) {
				return p.watchUtilization(ctx, pid, func(proc *process.Process) (float64, error) {
					mi, err := proc.MemoryInfoWithContext(ctx)
					if err != nil || mi == nil {
						return 0, err
					}
					return float64(mi.VMS), nil
				}, threshold, false)
			})
		}
		if p.rss != nil {
			threshold := float64(*p.rss)
			workers = append(workers, func(ctx context.Context) (bool, error) {
				return p.watchUtilization(ctx, pid, func(proc *process.Process) (float64, error) {
					mi, err := proc.MemoryInfoWithContext(ctx)
					if err != nil || mi == nil {
						return 0, err
					}
					return float64(mi.RSS), nil
				}, threshold, false)
			})
		}
	}

	result := racegroup.FirstCompleted(ctx, workers)
	if result.Err != nil {
		return false, result.Err
	}
	if result.Triggered {
		return true, nil
	}
	return false, rigerr.ErrCancelled
}

// markDeadAndWait records pid as gone and, if every watched PID has now
// been recorded dead, closes allDeadCh so every parked worker wakes up
// and resolves the monitor as cancelled together.
func (p *Process) markDeadAndWait(ctx context.Context, pid int32) (bool, error) {
	p.deadMu.Lock()
	p.deadPIDs[pid] = struct{}{}
	allDead := len(p.deadPIDs) >= p.totalPIDs
	p.deadMu.Unlock()
	if allDead {
		p.allDeadOn.Do(func() { close(p.allDeadCh) })
	}

	select {
	case <-p.allDeadCh:
		return false, rigerr.ErrCancelled
	case <-ctx.Done():
		return false, rigerr.ErrCancelled
	}
}

func (p *Process) watchState(ctx context.Context, pid int32) (bool, error) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return false, rigerr.ErrCancelled
		case <-ticker.C:
			proc, err := process.NewProcessWithContext(ctx, pid)
			if err != nil {
				// the process has exited.
				if p.invert && p.state == "running" {
					return true, nil
				}
				return p.markDeadAndWait(ctx, pid)
			}
			status, err := proc.StatusWithContext(ctx)
			if err != nil || len(status) == 0 {
				continue
			}

			if p.invert && p.state == "running" && isSleeping(status[0]) {
				// a transition to sleeping while inverted-watching
				// !running is not itself a match.
				continue
			}

			matches := p.matchesState(status[0])
			if p.invert {
				matches = !matches
			}
			if matches {
				return true, nil
			}
		}
	}
}

func (p *Process) watchUtilization(ctx context.Context, pid int32, sample func(*process.Process) (float64, error), threshold float64, discardFirst bool) (bool, error) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	discarded := !discardFirst

	for {
		select {
		case <-ctx.Done():
			return false, rigerr.ErrCancelled
		case <-ticker.C:
			proc, err := process.NewProcessWithContext(ctx, pid)
			if err != nil {
				return p.markDeadAndWait(ctx, pid)
			}
			v, err := sample(proc)
			if err != nil {
				continue
			}
			if !discarded {
				discarded = true
				continue
			}
			if v >= threshold {
				return true, nil
			}
		}
	}
}

// isSleeping reports whether a gopsutil status code means sleeping.
func isSleeping(status string) bool {
	got := strings.ToLower(status)
	return got == "sleep" || got == "sleeping" || got == "s"
}

// matchesState reports whether a gopsutil status code matches the
// configured state name.
func (p *Process) matchesState(status string) bool {
	want := strings.ToLower(p.state)
	got := strings.ToLower(status)
	switch want {
	case "running":
		return got == "running" || got == "r"
	case "sleeping":
		return got == "sleep" || got == "sleeping" || got == "s"
	case "stopped":
		return got == "stop" || got == "stopped" || got == "t"
	case "zombie":
		return got == "zombie" || got == "z"
	default:
		return got == want
	}
}

func (p *Process) Describe() string {
	var target string
	if len(p.pids) > 0 {
		target = fmt.Sprintf("pid %d", p.pids[0])
	} else if len(p.patterns) > 0 {
		target = p.patterns[0].String()
	}
	aspects := []string{}
	if p.state != "" {
		inv := ""
		if p.invert {
			inv = "!"
		}
		aspects = append(aspects, "state "+inv+p.state)
	}
	if p.cpuPercent != nil {
		aspects = append(aspects, fmt.Sprintf("cpu_percent>=%.1f", *p.cpuPercent))
	}
	if p.memPercent != nil {
		aspects = append(aspects, fmt.Sprintf("memory_percent>=%.1f", *p.memPercent))
	}
	if p.vms != nil {
		aspects = append(aspects, "vms threshold")
	}
	if p.rss != nil {
		aspects = append(aspects, "rss threshold")
	}
	return fmt.Sprintf("watches %s for %s", target, strings.Join(aspects, ", "))
}
