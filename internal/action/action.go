// Package action defines the Action contract, the serialized trigger
// pipeline, and the canonical set of built-in diagnostic actions.
package action

import (
	"context"
	"os"
	"path/filepath"
	"strings"
)

// Action performs one piece of diagnostic data collection once a rig's
// monitor race resolves.
type Action interface {
	// Name returns the registry key, e.g. "gcore" or "tcpdump".
	Name() string
	// Priority orders actions within the pipeline, ascending. The kdump
	// action is pinned last by the pipeline regardless of its own
	// Priority value.
	Priority() int
	// Repeatable reports whether Trigger may be invoked more than once
	// per rig lifetime, subject to the rig's Repeat/RepeatDelay config.
	Repeatable() bool
	// RequiredBinaries lists external executables that must be on PATH
	// for this action to run at all.
	RequiredBinaries() []string
	// Produces describes, for operators, what artifact this action
	// contributes to the archive.
	Produces() string
	// Configure validates and applies the action's options.
	Configure(opts map[string]any) error
	// PreAction runs once, before the monitor race starts.
	PreAction(ctx context.Context) error
	// Trigger runs once the race resolves in favor of triggering, and
	// again per Repeat if Repeatable.
	Trigger(ctx context.Context) error
	// PostAction runs once after all Trigger invocations complete.
	PostAction(ctx context.Context) error
	// Cleanup always runs last, even if earlier phases failed.
	Cleanup(ctx context.Context) error
	// ArchiveFiles returns the paths this action has contributed via
	// AddArchiveFile, as AddArchiveFile recorded them.
	ArchiveFiles() []string
}

// Factory constructs a fresh, unconfigured Action instance.
type Factory func() Action

// Base provides no-op PreAction/PostAction/Cleanup and the
// AddArchiveFile bookkeeping contract, so concrete actions only implement
// what they need.
type Base struct {
	tmpDir string
	files  []string
}

// SetTmpDir is called when the action is built, before Configure, so the
// action knows the rig's scratch directory.
func (b *Base) SetTmpDir(dir string) { b.tmpDir = dir }

// TmpDir returns the rig's scratch directory.
func (b *Base) TmpDir() string { return b.tmpDir }

// AddArchiveFile registers path (absolute, or relative to TmpDir) as a
// file to include in the final archive. An absolute path outside TmpDir
// is first moved into TmpDir under its base name and the new location is
// recorded; if the move fails, the original path is recorded.
func (b *Base) AddArchiveFile(path string) {
	if b.tmpDir != "" && filepath.IsAbs(path) {
		rel, err := filepath.Rel(b.tmpDir, path)
		if err == nil && (rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator))) {
			dest := filepath.Join(b.tmpDir, filepath.Base(path))
			if os.Rename(path, dest) == nil {
				path = dest
			}
		}
	}
	b.files = append(b.files, path)
}

func (b *Base) ArchiveFiles() []string { return b.files }

func (b *Base) PreAction(ctx context.Context) error  { return nil }
func (b *Base) PostAction(ctx context.Context) error { return nil }
func (b *Base) Cleanup(ctx context.Context) error    { return nil }
