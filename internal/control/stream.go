package control

import (
	"context"
	"net/http"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/watchrig/rig/internal/events"
)

// handleStream upgrades to a websocket, pushes one initial describe
// snapshot, then pushes another every time the rig's event bus publishes
// a lifecycle event, until the client disconnects or the rig exits. This
// supplements the plain REST describe/info/status endpoints; it is never
// required to observe a rig's state.
func (e *Endpoint) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close(websocket.StatusInternalError, "closing")

	ctx := r.Context()

	changed := make(chan struct{}, 1)
	notify := func(events.Event) {
		select {
		case changed <- struct{}{}:
		default:
		}
	}
	subs := []events.Subscription{
		e.bus.Subscribe(events.StatusChanged, notify),
		e.bus.Subscribe(events.MonitorTriggered, notify),
		e.bus.Subscribe(events.ArchiveWritten, notify),
	}
	defer func() {
		for _, s := range subs {
			e.bus.Unsubscribe(s)
		}
	}()

	push := func() error {
		writeCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		return wsjson.Write(writeCtx, conn, e.describeFunc())
	}
	if err := push(); err != nil {
		return
	}

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "rig context done")
			return
		case <-changed:
			if err := push(); err != nil {
				return
			}
		}
	}
}
