package action

import (
	"context"
	"fmt"

	"github.com/watchrig/rig/pkg/rigerr"
)

// Noop is a configurable action that does nothing beyond its own
// bookkeeping, used for plumbing tests and as a harmless placeholder
// in hand-written rigfiles.
type Noop struct {
	Base
	enabled  bool
	priority int
}

func NewNoop() Action { return &Noop{} }

func (n *Noop) Name() string             { return "noop" }
func (n *Noop) Priority() int            { return n.priority }
func (n *Noop) Repeatable() bool         { return true }
func (n *Noop) RequiredBinaries() []string { return nil }
func (n *Noop) Produces() string         { return "nothing" }

func (n *Noop) Configure(opts map[string]any) error {
	enabled, ok := opts["enabled"].(bool)
	if !ok || !enabled {
		return rigerr.New(rigerr.Configuration, "noop.Configure",
			fmt.Errorf("noop requires enabled=true"))
	}
	n.enabled = true
	if p, ok := opts["priority"].(int); ok {
		n.priority = p
	}
	return nil
}

func (n *Noop) Trigger(ctx context.Context) error { return nil }
