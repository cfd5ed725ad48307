package action

import (
	"context"
	"os"
)

// Kdump triggers a kernel crash dump via sysrq. It is always run last by
// the pipeline, after archive finalization, so its own artifact is never
// captured in the rig's archive -- the kernel owns the machine from this
// point on.
type Kdump struct {
	Base
}

func NewKdump() Action { return &Kdump{} }

func (k *Kdump) Name() string               { return "kdump" }
func (k *Kdump) Priority() int               { return 0 } // irrelevant: pipeline pins kdump last structurally
func (k *Kdump) Repeatable() bool            { return false }
func (k *Kdump) RequiredBinaries() []string { return nil }
func (k *Kdump) Produces() string            { return "a kernel crash dump (not captured in the archive)" }

func (k *Kdump) Configure(opts map[string]any) error { return nil }

func (k *Kdump) Trigger(ctx context.Context) error {
	return os.WriteFile("/proc/sysrq-trigger", []byte("c"), 0o200)
}
