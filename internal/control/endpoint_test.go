package control

import (
	"context"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/watchrig/rig/internal/events"
)

func unixClient(socketPath string) *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
				return net.Dial("unix", socketPath)
			},
		},
		Timeout: 2 * time.Second,
	}
}

func decodeResponse(t *testing.T, resp *http.Response) Response {
	t.Helper()
	defer resp.Body.Close()
	var r Response
	require.NoError(t, msgpack.NewDecoder(resp.Body).Decode(&r))
	return r
}

func TestEndpointDescribeTriggerDestroy(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "rig.sock")

	var triggered, destroyed bool
	ep := New("test-rig", socketPath,
		func() Snapshot { return Snapshot{"status": "running"} },
		func() { destroyed = true },
		func() { triggered = true },
		events.NewBus(),
		zerolog.New(os.Stderr))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, ep.Start(ctx))
	defer ep.Close()

	client := unixClient(socketPath)

	require.Eventually(t, func() bool {
		resp, err := client.Get("http://unix/describe")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return true
	}, 2*time.Second, 20*time.Millisecond, "expected the endpoint to accept connections")

	resp, err := client.Get("http://unix/describe")
	require.NoError(t, err)
	r := decodeResponse(t, resp)
	assert.True(t, r.Success)
	assert.Equal(t, "describe", r.Command)

	resp, err = client.Post("http://unix/trigger", "application/msgpack", nil)
	require.NoError(t, err)
	r = decodeResponse(t, resp)
	assert.True(t, r.Success)
	assert.True(t, triggered)

	resp, err = client.Post("http://unix/destroy", "application/msgpack", nil)
	require.NoError(t, err)
	r = decodeResponse(t, resp)
	assert.True(t, r.Success)
	assert.True(t, destroyed)
}

func TestEndpointCloseRemovesSocket(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "rig.sock")
	ep := New("test-rig", socketPath,
		func() Snapshot { return nil }, func() {}, func() {}, events.NewBus(), zerolog.New(os.Stderr))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, ep.Start(ctx))

	_, err := os.Stat(socketPath)
	require.NoError(t, err)

	require.NoError(t, ep.Close())
	_, err = os.Stat(socketPath)
	assert.True(t, os.IsNotExist(err), "expected the socket file to be removed on Close")
}
