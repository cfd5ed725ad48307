package action

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"

	"github.com/watchrig/rig/pkg/procrun"
	"github.com/watchrig/rig/pkg/rigerr"
)

// Tcpdump captures packets to a pcap file for the rig's lifetime, started
// in PreAction and stopped on Trigger.
type Tcpdump struct {
	Base
	iface   string
	filter  string
	outFile string
	cmd     *exec.Cmd
}

func NewTcpdump() Action { return &Tcpdump{} }

func (t *Tcpdump) Name() string               { return "tcpdump" }
func (t *Tcpdump) Priority() int               { return 10 }
func (t *Tcpdump) Repeatable() bool            { return false }
func (t *Tcpdump) RequiredBinaries() []string { return []string{"tcpdump"} }
func (t *Tcpdump) Produces() string            { return "a pcap capture of matched traffic" }

func (t *Tcpdump) Configure(opts map[string]any) error {
	iface, ok := opts["interface"].(string)
	if !ok || iface == "" {
		return rigerr.New(rigerr.Configuration, "tcpdump.Configure", fmt.Errorf("interface is required"))
	}
	t.iface = iface
	if filter, ok := opts["filter"].(string); ok {
		t.filter = filter
	}
	return nil
}

func (t *Tcpdump) PreAction(ctx context.Context) error {
	args := []string{"-i", t.iface}
	if t.filter != "" {
		args = append(args, t.filter)
	}
	if err := procrun.DryRun(ctx, 500*time.Millisecond, "tcpdump", append([]string{"-c", "0"}, args...)...); err != nil {
		return rigerr.New(rigerr.Configuration, "tcpdump.PreAction", err)
	}

	t.outFile = filepath.Join(t.TmpDir(), fmt.Sprintf("capture-%s.pcap", t.iface))
	fullArgs := append([]string{"-w", t.outFile}, args...)
	t.cmd = exec.Command("tcpdump", fullArgs...)
	if err := t.cmd.Start(); err != nil {
		return rigerr.New(rigerr.Subprocess, "tcpdump.PreAction", err)
	}
	return nil
}

func (t *Tcpdump) Trigger(ctx context.Context) error {
	if t.cmd == nil || t.cmd.Process == nil {
		return rigerr.New(rigerr.Subprocess, "tcpdump.Trigger", fmt.Errorf("capture was never started"))
	}
	_ = t.cmd.Process.Signal(syscall.SIGTERM)

	done := make(chan error, 1)
	go func() { done <- t.cmd.Wait() }()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		_ = t.cmd.Process.Kill()
		<-done
	}

	t.AddArchiveFile(t.outFile)
	return nil
}

func (t *Tcpdump) Cleanup(ctx context.Context) error {
	if t.cmd != nil && t.cmd.Process != nil {
		_ = t.cmd.Process.Kill()
	}
	return nil
}
