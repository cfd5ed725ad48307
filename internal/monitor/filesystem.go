package monitor

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"syscall"
	"time"

	"github.com/watchrig/rig/pkg/humansize"
	"github.com/watchrig/rig/pkg/racegroup"
	"github.com/watchrig/rig/pkg/rigerr"
)

// Filesystem polls a path's total size and/or its backing filesystem's
// usage, triggering when any configured aspect crosses its threshold.
// Path-size and filesystem-used run as separate workers, since the spec
// treats them as independent conditions a single Filesystem monitor can
// watch at once.
type Filesystem struct {
	path string

	hasSize bool
	size    uint64

	hasUsedPerc bool
	usedPerc    float64

	hasUsedSize bool
	usedSize    uint64

	interval time.Duration
}

func NewFilesystem() Monitor { return &Filesystem{interval: 5 * time.Second} }

func (f *Filesystem) Name() string { return "filesystem" }

func (f *Filesystem) Configure(opts map[string]any) error {
	path, ok := opts["path"].(string)
	if !ok || path == "" {
		return rigerr.New(rigerr.Configuration, "filesystem.Configure", fmt.Errorf("path is required"))
	}
	f.path = path

	if raw, ok := opts["size"].(string); ok && raw != "" {
		n, err := humansize.Parse(raw)
		if err != nil {
			return rigerr.New(rigerr.Configuration, "filesystem.Configure", err)
		}
		f.size = n
		f.hasSize = true
	}
	if v, ok := numericOpt(opts["used_perc"]); ok {
		f.usedPerc = v
		f.hasUsedPerc = true
	}
	if raw, ok := opts["used_size"].(string); ok && raw != "" {
		n, err := humansize.Parse(raw)
		if err != nil {
			return rigerr.New(rigerr.Configuration, "filesystem.Configure", err)
		}
		f.usedSize = n
		f.hasUsedSize = true
	}

	if !f.hasSize && !f.hasUsedPerc && !f.hasUsedSize {
		return rigerr.New(rigerr.Configuration, "filesystem.Configure", fmt.Errorf("at least one of size, used_perc, used_size is required"))
	}
	return nil
}

func (f *Filesystem) Start(ctx context.Context) (bool, error) {
	var workers []racegroup.Worker
	if f.hasSize {
		workers = append(workers, f.watchPathSize)
	}
	if f.hasUsedPerc || f.hasUsedSize {
		workers = append(workers, f.watchFilesystemUsed)
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

func (f *Filesystem) watchPathSize(ctx context.Context) (bool, error) {
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return false, rigerr.ErrCancelled
		case <-ticker.C:
			total, err := f.pathSize()
			if err != nil {
				return false, err
			}
			if total >= f.size {
				return true, nil
			}
		}
	}
}

func (f *Filesystem) watchFilesystemUsed(ctx context.Context) (bool, error) {
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return false, rigerr.ErrCancelled
		case <-ticker.C:
			triggered, err := f.filesystemUsedSample()
			if err != nil {
				return false, err
			}
			if triggered {
				return true, nil
			}
		}
	}
}

func (f *Filesystem) pathSize() (uint64, error) {
	var total uint64
	err := filepath.WalkDir(f.path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			if info, err := d.Info(); err == nil {
				total += uint64(info.Size())
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("filesystem: walking %s: %w", f.path, err)
	}
	return total, nil
}

func (f *Filesystem) filesystemUsedSample() (bool, error) {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(f.path, &stat); err != nil {
		return false, fmt.Errorf("filesystem: statfs %s: %w", f.path, err)
	}
	total := stat.Blocks * uint64(stat.Bsize)
	free := stat.Bfree * uint64(stat.Bsize)
	used := total - free

	if f.hasUsedSize && used >= f.usedSize {
		return true, nil
	}
	if f.hasUsedPerc && total > 0 {
		usedPerc := float64(used) / float64(total) * 100
		if usedPerc >= f.usedPerc {
			return true, nil
		}
	}
	return false, nil
}

func (f *Filesystem) Describe() string {
	aspects := []string{}
	if f.hasSize {
		aspects = append(aspects, "path size")
	}
	if f.hasUsedPerc {
		aspects = append(aspects, fmt.Sprintf("used_perc>=%.1f", f.usedPerc))
	}
	if f.hasUsedSize {
		aspects = append(aspects, "used_size threshold")
	}
	return fmt.Sprintf("watches %s for %v crossing threshold", f.path, aspects)
}
