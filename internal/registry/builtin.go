package registry

import (
	"github.com/watchrig/rig/internal/action"
	"github.com/watchrig/rig/internal/monitor"
)

// Monitors is the compiled-in table of every canonical Monitor type.
var Monitors = New[monitor.Monitor]()

// Actions is the compiled-in table of every canonical Action type.
var Actions = New[action.Action]()

func init() {
	Monitors.Register("log", monitor.NewLog)
	Monitors.Register("filesystem", monitor.NewFilesystem)
	Monitors.Register("process", monitor.NewProcess)
	Monitors.Register("cpu", monitor.NewCPU)
	Monitors.Register("memory", monitor.NewMemory)
	Monitors.Register("system", monitor.NewSystem)
	Monitors.Register("packet", monitor.NewPacket)
	Monitors.Register("timer", monitor.NewTimer)

	Actions.Register("gcore", action.NewGcore)
	Actions.Register("tcpdump", action.NewTcpdump)
	Actions.Register("sos", action.NewSos)
	Actions.Register("watch", action.NewWatch)
	Actions.Register("kdump", action.NewKdump)
	Actions.Register("noop", action.NewNoop)
}
