package action

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/shirou/gopsutil/v3/process"
	"github.com/watchrig/rig/pkg/procrun"
	"github.com/watchrig/rig/pkg/rigerr"
)

// Gcore dumps a process core via the system gcore utility, optionally
// freezing the target with SIGSTOP/SIGCONT around the dump.
type Gcore struct {
	Base
	pid    int32
	freeze bool
}

func NewGcore() Action { return &Gcore{} }

func (g *Gcore) Name() string               { return "gcore" }
func (g *Gcore) Priority() int               { return 50 }
func (g *Gcore) Repeatable() bool            { return true }
func (g *Gcore) RequiredBinaries() []string { return []string{"gcore"} }
func (g *Gcore) Produces() string            { return "a core dump of the configured process" }

func (g *Gcore) Configure(opts map[string]any) error {
	pid, ok := opts["pid"]
	if !ok {
		return rigerr.New(rigerr.Configuration, "gcore.Configure", fmt.Errorf("pid is required"))
	}
	switch v := pid.(type) {
	case int:
		g.pid = int32(v)
	case int32:
		g.pid = v
	case float64:
		g.pid = int32(v)
	default:
		return rigerr.New(rigerr.Configuration, "gcore.Configure", fmt.Errorf("pid must be numeric"))
	}
	if freeze, ok := opts["freeze"].(bool); ok {
		g.freeze = freeze
	}
	return nil
}

func (g *Gcore) Trigger(ctx context.Context) error {
	exists, err := process.PidExistsWithContext(ctx, g.pid)
	if err != nil {
		return fmt.Errorf("gcore: checking pid %d: %w", g.pid, err)
	}
	if !exists {
		return rigerr.New(rigerr.Subprocess, "gcore.Trigger", fmt.Errorf("pid %d no longer exists", g.pid))
	}

	proc, err := process.NewProcessWithContext(ctx, g.pid)
	if err != nil {
		return fmt.Errorf("gcore: opening pid %d: %w", g.pid, err)
	}

	if g.freeze {
		if err := proc.SuspendWithContext(ctx); err != nil {
			return fmt.Errorf("gcore: suspending pid %d: %w", g.pid, err)
		}
		defer proc.ResumeWithContext(ctx)
	}

	outPrefix := filepath.Join(g.TmpDir(), fmt.Sprintf("core.%d", g.pid))
	if _, err := procrun.Run(ctx, "gcore", "-o", outPrefix, strconv.Itoa(int(g.pid))); err != nil {
		return rigerr.New(rigerr.Subprocess, "gcore.Trigger", err)
	}

	g.AddArchiveFile(fmt.Sprintf("%s.%d", outPrefix, g.pid))
	return nil
}
