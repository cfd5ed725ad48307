// Command rigd runs a single rig: it loads a rigfile, builds the
// configured monitors and actions from the registry, and drives the
// lifecycle to completion.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/watchrig/rig/internal/action"
	"github.com/watchrig/rig/internal/archive"
	"github.com/watchrig/rig/internal/monitor"
	"github.com/watchrig/rig/internal/registry"
	"github.com/watchrig/rig/internal/rig"
	"github.com/watchrig/rig/internal/rigfile"
	"github.com/watchrig/rig/pkg/rlog"
)

func main() {
	rigfilePath := flag.String("rigfile", "", "path to the rigfile describing this rig")
	outputDir := flag.String("output-dir", ".", "directory the finished archive is written to")
	socketDir := flag.String("socket-dir", os.TempDir(), "directory the control socket is created in")
	logLevel := flag.String("log-level", "info", "zerolog level: debug, info, warn, error")
	logFile := flag.String("log-file", "", "optional rotating log file; defaults to rig.<name>.log inside the rig's tmpdir")
	daemon := flag.Bool("daemon", false, "detach from the controlling terminal")
	s3Bucket := flag.String("s3-bucket", "", "optional S3-compatible bucket to upload the finished archive to")
	s3Endpoint := flag.String("s3-endpoint", "", "optional custom S3 endpoint")
	s3Region := flag.String("s3-region", "us-east-1", "S3 region")
	flag.Parse()

	if *rigfilePath == "" {
		fmt.Fprintln(os.Stderr, "rigd: -rigfile is required")
		os.Exit(2)
	}

	_ = godotenv.Load(filepath.Join(filepath.Dir(*rigfilePath), ".env"))

	doc, err := rigfile.Load(*rigfilePath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "rigd:", err)
		os.Exit(1)
	}

	if *daemon {
		isChild, err := rig.Daemonize(doc.Name)
		if err != nil {
			fmt.Fprintln(os.Stderr, "rigd: daemonize:", err)
			os.Exit(1)
		}
		if !isChild {
			return // parent already exited inside Daemonize
		}
	}

	cfg, err := doc.Config()
	if err != nil {
		fmt.Fprintln(os.Stderr, "rigd: invalid rig configuration:", err)
		os.Exit(1)
	}
	if cfg.TmpDir == "" {
		cfg.TmpDir = filepath.Join(os.TempDir(), fmt.Sprintf("rig.%s", doc.Name))
	}
	if err := os.MkdirAll(cfg.TmpDir, 0o755); err != nil {
		fmt.Fprintln(os.Stderr, "rigd: creating tmpdir:", err)
		os.Exit(1)
	}

	// the per-rig log lives inside tmpdir so it is swept into the
	// archive along with everything the rig's actions collect.
	logPath := *logFile
	if logPath == "" {
		logPath = filepath.Join(cfg.TmpDir, fmt.Sprintf("rig.%s.log", doc.Name))
	}
	log := rlog.New(rlog.Config{Level: *logLevel, Pretty: !*daemon, FilePath: logPath})

	monitors, err := buildMonitors(doc.Monitors)
	if err != nil {
		log.Fatal().Err(err).Msg("building monitors")
	}
	actions, err := buildActions(doc.Actions, cfg.TmpDir)
	if err != nil {
		log.Fatal().Err(err).Msg("building actions")
	}

	opts := []rig.Option{
		rig.WithOutputDir(*outputDir),
		rig.WithSocketDir(*socketDir),
	}
	if *s3Bucket != "" {
		opts = append(opts, rig.WithRemote(archive.RemoteConfig{
			Bucket:          *s3Bucket,
			Endpoint:        *s3Endpoint,
			Region:          *s3Region,
			AccessKeyID:     os.Getenv("RIG_S3_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("RIG_S3_SECRET_ACCESS_KEY"),
		}))
	}

	r, err := rig.New(doc.Name, cfg, monitors, actions, log, opts...)
	if err != nil {
		log.Fatal().Err(err).Msg("constructing rig")
	}

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info().Msg("received shutdown signal, destroying rig")
		r.Destroy()
		cancel()
	}()

	if err := r.Run(ctx); err != nil {
		// r.Run already logged the failure through the per-rig logger
		// before tearing down tmpdir; writing to stderr directly here
		// avoids reopening (and thereby resurrecting) the removed
		// tmpdir through the logger's rotating file sink.
		fmt.Fprintln(os.Stderr, "rigd: rig exited with error:", err)
		os.Exit(1)
	}
}

func buildMonitors(specs map[string]map[string]any) ([]monitor.Monitor, error) {
	var out []monitor.Monitor
	for name, opts := range specs {
		typeName, _ := opts["type"].(string)
		if typeName == "" {
			typeName = name
		}
		m, err := registry.Monitors.Get(typeName)
		if err != nil {
			return nil, fmt.Errorf("monitor %q: %w", name, err)
		}
		if err := m.Configure(opts); err != nil {
			return nil, fmt.Errorf("monitor %q: %w", name, err)
		}
		out = append(out, m)
	}
	return out, nil
}

func buildActions(specs map[string]map[string]any, tmpDir string) ([]action.Action, error) {
	var out []action.Action
	for name, opts := range specs {
		typeName, _ := opts["type"].(string)
		if typeName == "" {
			typeName = name
		}
		a, err := registry.Actions.Get(typeName)
		if err != nil {
			return nil, fmt.Errorf("action %q: %w", name, err)
		}
		if base, ok := a.(interface{ SetTmpDir(string) }); ok {
			base.SetTmpDir(tmpDir)
		}
		if err := a.Configure(opts); err != nil {
			return nil, fmt.Errorf("action %q: %w", name, err)
		}
		out = append(out, a)
	}
	return out, nil
}
