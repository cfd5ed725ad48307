package monitor

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/watchrig/rig/pkg/rigerr"
)

func TestLogRequiresMessage(t *testing.T) {
	l := NewLog()
	err := l.Configure(map[string]any{"files": []any{"/dev/null"}})
	assert.Truef(t, rigerr.Is(err, rigerr.Configuration), "expected a Configuration error, got %v", err)
}

func TestLogDropsNonExistentFilesSilently(t *testing.T) {
	l := NewLog()
	err := l.Configure(map[string]any{"message": "ERROR", "files": []any{"/no/such/file"}, "journals": []any{"sshd"}})
	require.NoError(t, err)
	assert.Empty(t, l.files)
}

func TestLogRejectsEmptyConfiguration(t *testing.T) {
	l := NewLog()
	err := l.Configure(map[string]any{"message": "ERROR", "files": []any{"/no/such/file"}})
	assert.Truef(t, rigerr.Is(err, rigerr.Configuration), "expected a Configuration error when no usable files or journals remain, got %v", err)
}

func TestLogJournalsAcceptsSystemSentinel(t *testing.T) {
	l := NewLog().(*Log)
	require.NoError(t, l.Configure(map[string]any{"message": "kernel: BUG", "journals": []any{"system"}}))
	assert.True(t, l.wholeJournal)
	assert.Empty(t, l.journals)
}

func TestLogJournalsAddsServiceSuffix(t *testing.T) {
	l := NewLog().(*Log)
	require.NoError(t, l.Configure(map[string]any{"message": "ERROR", "journals": []any{"sshd", "nginx.service"}}))
	assert.ElementsMatch(t, []string{"sshd.service", "nginx.service"}, l.journals)
	assert.False(t, l.wholeJournal)
}

func TestLogJournalsSystemSentinelSuppressesUnitFilters(t *testing.T) {
	l := NewLog().(*Log)
	require.NoError(t, l.Configure(map[string]any{"message": "ERROR", "journals": []any{"system", "sshd"}}))
	assert.True(t, l.wholeJournal)
	assert.NotEmpty(t, l.journals, "sshd should still be recorded")

	args := l.journalArgs()
	assert.NotContains(t, args, "-u", "the system sentinel must suppress every -u unit filter")
}

func TestLogTailFileTriggersOnMatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	require.NoError(t, os.WriteFile(path, []byte("startup ok\n"), 0o644))

	l := NewLog().(*Log)
	require.NoError(t, l.Configure(map[string]any{"message": "ERROR", "files": []any{path}}))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	done := make(chan struct{})
	var triggered bool
	go func() {
		triggered, _ = l.Start(ctx)
		close(done)
	}()

	time.Sleep(250 * time.Millisecond)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, _ = f.WriteString("ERROR disk full\n")
	f.Close()

	select {
	case <-done:
		assert.True(t, triggered)
	case <-time.After(2 * time.Second):
		t.Fatal("expected the log monitor to trigger on a matching line")
	}
}

func TestLogScenarioOneKernelBugLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "messages")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	l := NewLog().(*Log)
	require.NoError(t, l.Configure(map[string]any{"message": "kernel: BUG", "files": []any{path}}))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	done := make(chan struct{})
	var triggered bool
	go func() {
		triggered, _ = l.Start(ctx)
		close(done)
	}()

	time.Sleep(250 * time.Millisecond)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, _ = f.WriteString("Jan 01 kernel: BUG at foo\n")
	f.Close()

	select {
	case <-done:
		assert.True(t, triggered)
	case <-time.After(2 * time.Second):
		t.Fatal("expected the log monitor to trigger on the kernel BUG line")
	}
}
