// Command rigctl is a thin external client for a running rig's control
// endpoint: destroy, trigger, describe/info/status, and registry
// introspection (list-monitors, list-actions).
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/watchrig/rig/internal/control"
	"github.com/watchrig/rig/internal/registry"
)

var headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))

func main() {
	flag.Usage = usage
	flag.Parse()
	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	var err error
	switch args[0] {
	case "destroy":
		err = runSimple(args, "destroy")
	case "trigger":
		err = runSimple(args, "trigger")
	case "describe", "info", "status":
		err = runSimple(args, args[0])
	case "list-monitors":
		listNames(registry.Monitors.SortedNames(), "monitor", filterName(args))
	case "list-actions":
		listNames(registry.Actions.SortedNames(), "action", filterName(args))
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "rigctl:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: rigctl <command> <rig-name> [flags]

commands:
  destroy <name> [--force]   stop a rig, optionally forcing past a dead socket
  trigger <name>             force a rig's trigger race to resolve now
  describe <name>            print a rig's current snapshot
  info <name>                alias for describe
  status <name>              alias for describe
  list-monitors [-s name]    list registered monitor types (-s: only that name)
  list-actions [-s name]     list registered action types (-s: only that name)`)
}

func filterName(args []string) string {
	fs := flag.NewFlagSet(args[0], flag.ContinueOnError)
	s := fs.String("s", "", "show only this named type")
	_ = fs.Parse(args[1:])
	return *s
}

func listNames(names []string, kind, only string) {
	fmt.Println(headerStyle.Render(fmt.Sprintf("registered %s types:", kind)))
	for _, n := range names {
		if only != "" && n != only {
			continue
		}
		fmt.Println(" -", n)
	}
}

func runSimple(args []string, command string) error {
	fs := flag.NewFlagSet(command, flag.ContinueOnError)
	force := fs.Bool("force", false, "remove a dead rig's socket without acknowledgement")
	socketDir := fs.String("socket-dir", os.TempDir(), "directory the control socket lives in")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}
	rest := fs.Args()
	if len(rest) < 1 {
		return fmt.Errorf("%s requires a rig name", command)
	}
	name := rest[0]
	socketPath := filepath.Join(*socketDir, "rig."+name)

	resp, err := sendRequest(socketPath, command, name)
	if err != nil {
		if command == "destroy" && *force {
			if rmErr := os.Remove(socketPath); rmErr == nil {
				fmt.Println("forced removal of dead rig socket:", socketPath)
				return nil
			}
		}
		return err
	}

	fmt.Printf("%s: success=%v\n", resp.Command, resp.Success)
	if resp.Result != nil {
		fmt.Printf("%+v\n", resp.Result)
	}
	return nil
}

func sendRequest(socketPath, command, rigName string) (*control.Response, error) {
	client := &http.Client{
		Transport: &http.Transport{
			DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
				return net.Dial("unix", socketPath)
			},
		},
		Timeout: 5 * time.Second,
	}

	method := http.MethodGet
	switch command {
	case "destroy", "trigger":
		method = http.MethodPost
	}

	req, err := http.NewRequest(method, "http://unix/"+command, nil)
	if err != nil {
		return nil, err
	}

	httpResp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("contacting rig %q: %w", rigName, err)
	}
	defer httpResp.Body.Close()

	var resp control.Response
	if err := msgpack.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decoding response from rig %q: %w", rigName, err)
	}
	return &resp, nil
}
