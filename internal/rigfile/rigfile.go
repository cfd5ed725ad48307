// Package rigfile loads the YAML file an operator writes to describe a
// rig: its name, its rig-level config, and the named/configured monitors
// and actions it runs.
package rigfile

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/watchrig/rig/internal/rig"
	"github.com/watchrig/rig/pkg/humantime"
)

// Document is the parsed shape of a rigfile.
type Document struct {
	Name        string                            `yaml:"name"`
	Interval    string                            `yaml:"interval"`
	Delay       string                            `yaml:"delay"`
	Repeat      int                               `yaml:"repeat"`
	RepeatDelay string                            `yaml:"repeat_delay"`
	NoArchive   bool                              `yaml:"no_archive"`
	TmpDir      string                            `yaml:"tmpdir"`
	Monitors    map[string]map[string]any `yaml:"monitors"`
	Actions     map[string]map[string]any `yaml:"actions"`
}

// Load reads and parses a rigfile at path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("rigfile: reading %s: %w", path, err)
	}
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("rigfile: parsing %s: %w", path, err)
	}
	if doc.Name == "" {
		return nil, fmt.Errorf("rigfile: %s: name is required", path)
	}
	return &doc, nil
}

// Config converts the document's scalar settings into a rig.Config,
// applying rig.Default() for anything left unset.
func (d *Document) Config() (rig.Config, error) {
	cfg := rig.Default()
	cfg.Repeat = d.Repeat
	cfg.NoArchive = d.NoArchive
	cfg.TmpDir = d.TmpDir

	if d.Interval != "" {
		dur, err := humantime.Parse(d.Interval)
		if err != nil {
			return cfg, fmt.Errorf("rigfile: interval: %w", err)
		}
		cfg.Interval = dur
	}
	if d.Delay != "" {
		dur, err := humantime.Parse(d.Delay)
		if err != nil {
			return cfg, fmt.Errorf("rigfile: delay: %w", err)
		}
		cfg.Delay = dur
	}
	if d.RepeatDelay != "" {
		dur, err := humantime.Parse(d.RepeatDelay)
		if err != nil {
			return cfg, fmt.Errorf("rigfile: repeat_delay: %w", err)
		}
		cfg.RepeatDelay = dur
	}
	return cfg, cfg.Validate()
}
