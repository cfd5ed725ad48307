package rig

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/watchrig/rig/internal/action"
	"github.com/watchrig/rig/internal/monitor"
)

func testLogger() zerolog.Logger {
	return zerolog.New(os.Stderr)
}

func TestRigRunTriggersAndArchives(t *testing.T) {
	tmp := t.TempDir()
	outDir := t.TempDir()

	cfg := Default()
	cfg.Interval = 10 * time.Millisecond
	cfg.TmpDir = filepath.Join(tmp, "scratch")

	m := monitor.NewTimer()
	require.NoError(t, m.Configure(map[string]any{"timeout": "10ms"}))

	n := action.NewNoop()
	require.NoError(t, n.Configure(map[string]any{"enabled": true}))

	r, err := New("test-rig-"+t.Name(), cfg, []monitor.Monitor{m}, []action.Action{n}, testLogger(),
		WithOutputDir(outDir), WithSocketDir(t.TempDir()))
	require.NoError(t, err)

	// the noop action collects nothing, and an empty tmpdir is never
	// archived, so give the archive a file to hold.
	require.NoError(t, os.WriteFile(filepath.Join(cfg.TmpDir, "collected.txt"), []byte("sample"), 0o644))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, r.Run(ctx))

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ".gz", filepath.Ext(entries[0].Name()))
}

func TestRigRejectsEmptyMonitorsOrActions(t *testing.T) {
	cfg := Default()
	n := action.NewNoop()
	_ = n.Configure(map[string]any{"enabled": true})

	_, err := New("no-monitors", cfg, nil, []action.Action{n}, testLogger())
	assert.Error(t, err, "expected an error constructing a rig with no monitors")

	m := monitor.NewTimer()
	_ = m.Configure(map[string]any{"timeout": "1s"})
	_, err = New("no-actions", cfg, []monitor.Monitor{m}, nil, testLogger())
	assert.Error(t, err, "expected an error constructing a rig with no actions")
}

func TestRigNameUniqueness(t *testing.T) {
	cfg := Default()
	m := monitor.NewTimer()
	_ = m.Configure(map[string]any{"timeout": "1s"})
	n := action.NewNoop()
	_ = n.Configure(map[string]any{"enabled": true})

	name := "dup-rig-" + t.Name()
	r1, err := New(name, cfg, []monitor.Monitor{m}, []action.Action{n}, testLogger())
	require.NoError(t, err)
	defer releaseLiveName(name)

	m2 := monitor.NewTimer()
	_ = m2.Configure(map[string]any{"timeout": "1s"})
	n2 := action.NewNoop()
	_ = n2.Configure(map[string]any{"enabled": true})
	_, err = New(name, cfg, []monitor.Monitor{m2}, []action.Action{n2}, testLogger())
	assert.Error(t, err, "expected a second rig with the same name to be rejected")
	_ = r1
}
