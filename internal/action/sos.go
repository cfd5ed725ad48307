package action

import (
	"context"
	"fmt"
	"regexp"

	"github.com/watchrig/rig/pkg/procrun"
	"github.com/watchrig/rig/pkg/rigerr"
)

var sosOutputRe = regexp.MustCompile(`(?m)^\s*(?:Your sosreport has been generated and saved in:|The generated archive is)\s*\n?\s*(\S+\.tar\.xz)`)

// Sos wraps the system sos report/collect diagnostic bundle tool.
type Sos struct {
	Base
	mode            string // "report" or "collect"
	initialArchive  bool
	ran             bool
}

func NewSos() Action { return &Sos{} }

func (s *Sos) Name() string               { return "sos" }
func (s *Sos) Priority() int               { return 80 }
func (s *Sos) Repeatable() bool            { return false }
func (s *Sos) RequiredBinaries() []string { return []string{"sos"} }
func (s *Sos) Produces() string            { return "an sos diagnostic bundle" }

func (s *Sos) Configure(opts map[string]any) error {
	for key := range opts {
		switch key {
		case "type", "mode", "initial_archive":
		default:
			return rigerr.New(rigerr.Configuration, "sos.Configure", fmt.Errorf("unknown option %q", key))
		}
	}
	mode, _ := opts["mode"].(string)
	if mode == "" {
		mode = "report"
	}
	if mode != "report" && mode != "collect" {
		return rigerr.New(rigerr.Configuration, "sos.Configure", fmt.Errorf("mode must be report or collect, got %q", mode))
	}
	s.mode = mode
	if ia, ok := opts["initial_archive"].(bool); ok {
		s.initialArchive = ia
	}
	return nil
}

func (s *Sos) PreAction(ctx context.Context) error {
	if !s.initialArchive {
		return nil
	}
	return s.collect(ctx)
}

func (s *Sos) Trigger(ctx context.Context) error {
	if s.initialArchive && s.ran {
		return nil
	}
	return s.collect(ctx)
}

func (s *Sos) collect(ctx context.Context) error {
	result, err := procrun.Run(ctx, "sos", s.mode, "--batch", "--tmp-dir", s.TmpDir())
	if err != nil {
		return rigerr.New(rigerr.Subprocess, "sos.collect", err)
	}
	s.ran = true

	if m := sosOutputRe.FindStringSubmatch(result.Stdout); len(m) == 2 {
		s.AddArchiveFile(m[1])
	}
	return nil
}
