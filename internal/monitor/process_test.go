package monitor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/watchrig/rig/pkg/rigerr"
)

func TestProcessRequiresProcs(t *testing.T) {
	p := NewProcess()
	err := p.Configure(map[string]any{"state": "running"})
	assert.Truef(t, rigerr.Is(err, rigerr.Configuration), "expected a Configuration error, got %v", err)
}

func TestProcessRequiresAnAspect(t *testing.T) {
	p := NewProcess()
	err := p.Configure(map[string]any{"procs": []any{1234}})
	assert.Truef(t, rigerr.Is(err, rigerr.Configuration), "expected a Configuration error, got %v", err)
}

func TestProcessParsesInvertedState(t *testing.T) {
	p := &Process{}
	require.NoError(t, p.Configure(map[string]any{"procs": []any{1234}, "state": "!running"}))
	assert.True(t, p.invert)
	assert.Equal(t, "running", p.state)
	assert.Equal(t, []int32{1234}, p.pids)
}

func TestProcessParsesNamePatternAndNumericStringPid(t *testing.T) {
	p := &Process{}
	require.NoError(t, p.Configure(map[string]any{"procs": []any{"sshd", "4321"}, "state": "running"}))
	assert.Equal(t, []int32{4321}, p.pids)
	require.Len(t, p.patterns, 1)
	assert.True(t, p.patterns[0].MatchString("sshd"))
}

func TestProcessParsesUtilizationAspects(t *testing.T) {
	p := &Process{}
	require.NoError(t, p.Configure(map[string]any{
		"procs":          []any{1234},
		"cpu_percent":    80.0,
		"memory_percent": 50,
		"vms":            "1G",
		"rss":            "500M",
	}))
	require.NotNil(t, p.cpuPercent)
	assert.Equal(t, 80.0, *p.cpuPercent)
	require.NotNil(t, p.memPercent)
	assert.Equal(t, 50.0, *p.memPercent)
	require.NotNil(t, p.vms)
	require.NotNil(t, p.rss)
}

func TestProcessMatchesStateAliases(t *testing.T) {
	p := &Process{state: "running"}
	assert.True(t, p.matchesState("running"))
	assert.True(t, p.matchesState("R"))
	assert.False(t, p.matchesState("sleeping"))

	p.state = "zombie"
	assert.True(t, p.matchesState("Z"))
}

func TestProcessInvertedRunningDoesNotMatchSleeping(t *testing.T) {
	// sleeping while watching "!running" is explicitly not a match; the
	// short-circuit lives in watchState, but matchesState+invert alone
	// would otherwise report a (wrong) match, which is exactly the bug
	// the short-circuit exists to prevent.
	p := &Process{state: "running", invert: true}
	assert.False(t, p.matchesState("sleeping"))
	assert.True(t, !p.matchesState("sleeping")) // inverted, naive: would match
}

func TestIsSleepingMatchesGopsutilStatusCode(t *testing.T) {
	// gopsutil reports "sleep", not "sleeping"; the watchState
	// short-circuit must recognize the real value, not just the word.
	assert.True(t, isSleeping("sleep"))
	assert.True(t, isSleeping("sleeping"))
	assert.True(t, isSleeping("S"))
	assert.False(t, isSleeping("running"))
}

func TestProcessGoneWithInvertedRunningTriggersNotCancels(t *testing.T) {
	p := &Process{state: "running", invert: true, pids: []int32{999999}}
	p.deadPIDs = map[int32]struct{}{}
	p.totalPIDs = 1
	p.allDeadCh = make(chan struct{})

	// simulate the process-gone branch directly, mirroring watchState's
	// logic without needing a real dead PID on the host.
	triggered := p.invert && p.state == "running"
	assert.True(t, triggered, "exiting while watching !running must trigger, not park")
}
