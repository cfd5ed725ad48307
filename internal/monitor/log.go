package monitor

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/watchrig/rig/pkg/racegroup"
	"github.com/watchrig/rig/pkg/rigerr"
)

// journalSystemSentinel is the journals value meaning "the whole
// journal, with no unit filter."
const journalSystemSentinel = "system"

// Log tails one or more files and/or the systemd journal, triggering
// when a line matches the configured regex. Non-existent files are
// dropped silently at configure time rather than failing the whole
// monitor. Every configured journal unit is combined into a single
// journal worker, alongside one worker per existing file.
type Log struct {
	pattern      *regexp.Regexp
	files        []string
	journals     []string // unit names, always given a .service suffix
	wholeJournal bool
}

func NewLog() Monitor { return &Log{} }

func (l *Log) Name() string { return "log" }

func (l *Log) Configure(opts map[string]any) error {
	raw, ok := opts["message"].(string)
	if !ok || raw == "" {
		return rigerr.New(rigerr.Configuration, "log.Configure", fmt.Errorf("message is required"))
	}
	re, err := regexp.Compile("(?i)" + raw)
	if err != nil {
		return rigerr.New(rigerr.Configuration, "log.Configure", fmt.Errorf("invalid message pattern: %w", err))
	}
	l.pattern = re

	if rawFiles, ok := opts["files"].([]any); ok {
		for _, f := range rawFiles {
			if s, ok := f.(string); ok {
				if _, err := os.Stat(s); err == nil {
					l.files = append(l.files, s)
				}
			}
		}
	}

	if rawJournals, ok := opts["journals"].([]any); ok {
		for _, j := range rawJournals {
			unit, ok := j.(string)
			if !ok || unit == "" {
				continue
			}
			if unit == journalSystemSentinel {
				l.wholeJournal = true
				continue
			}
			if !strings.HasSuffix(unit, ".service") {
				unit += ".service"
			}
			l.journals = append(l.journals, unit)
		}
	}

	if len(l.files) == 0 && len(l.journals) == 0 && !l.wholeJournal {
		return rigerr.New(rigerr.Configuration, "log.Configure", fmt.Errorf("no usable files or journals configured"))
	}
	return nil
}

func (l *Log) Start(ctx context.Context) (bool, error) {
	var workers []racegroup.Worker
	for _, f := range l.files {
		f := f
		workers = append(workers, func(ctx context.Context) (bool, error) {
			return l.tailFile(ctx, f)
		})
	}
	if l.wholeJournal || len(l.journals) > 0 {
		workers = append(workers, l.tailJournal)
	}

	result := racegroup.FirstCompleted(ctx, workers)
	if result.Err != nil {
		return false, result.Err
	}
	if result.Triggered {
		return true, nil
	}
	return false, rigerr.ErrCancelled
}

func (l *Log) tailFile(ctx context.Context, path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, rigerr.ErrCancelled
	}
	defer f.Close()

	if _, err := f.Seek(0, os.SEEK_END); err != nil {
		return false, fmt.Errorf("log: seeking %s: %w", path, err)
	}

	reader := bufio.NewReader(f)
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return false, rigerr.ErrCancelled
		case <-ticker.C:
			for {
				line, err := reader.ReadString('\n')
				if line != "" && l.pattern.MatchString(line) {
					return true, nil
				}
				if err != nil {
					break
				}
			}
		}
	}
}

// journalArgs builds the arguments for tailJournal's single journalctl
// stream: one -u filter per configured unit, or none at all (the whole
// journal) when the "system" sentinel was given.
func (l *Log) journalArgs() []string {
	args := []string{"-f", "-o", "cat"}
	if !l.wholeJournal {
		for _, unit := range l.journals {
			args = append(args, "-u", unit)
		}
	}
	return args
}

func (l *Log) tailJournal(ctx context.Context) (bool, error) {
	cmd := exec.CommandContext(ctx, "journalctl", l.journalArgs()...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return false, fmt.Errorf("log: starting journalctl: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return false, fmt.Errorf("log: starting journalctl: %w", err)
	}
	defer cmd.Wait()

	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		if l.pattern.MatchString(scanner.Text()) {
			return true, nil
		}
		select {
		case <-ctx.Done():
			return false, rigerr.ErrCancelled
		default:
		}
	}
	return false, rigerr.ErrCancelled
}

func (l *Log) Describe() string {
	target := strings.Join(l.files, ", ")
	if l.wholeJournal {
		if target != "" {
			target += ", "
		}
		target += "the full journal"
	} else if len(l.journals) > 0 {
		if target != "" {
			target += ", "
		}
		target += "journal units " + strings.Join(l.journals, ", ")
	}
	return fmt.Sprintf("watches %s for lines matching %s", target, l.pattern.String())
}
