// Package paths owns the on-disk workspace layout: it bootstraps the
// configured directories and derives per-session file names.
package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"sentlabel/internal/config"
)

// TimestampLayout is the file-name timestamp format (YYYYMMDD_HHMMSS).
const TimestampLayout = "20060102_150405"

// HumanSuffix is appended to the input stem to name the labeled output.
const HumanSuffix = "_HUMAN"

// Paths is the resolved directory layout for one invocation.
type Paths struct {
	Inputs        string
	Outputs       string
	Logs          string
	Reports       string
	OutputsMerged string
	Resources     string

	now func() time.Time
}

// Session holds the files one labeling session reads and writes.
type Session struct {
	Output string // <outputs>/<stem>_HUMAN<ext>
	Log    string // <logs>/log_<ts>.json
	Report string // <reports>/report_<ts>.txt
}

// New builds the layout from config without touching the filesystem.
func New(dirs config.DirsConfig) *Paths {
	return &Paths{
		Inputs:        dirs.Inputs,
		Outputs:       dirs.Outputs,
		Logs:          dirs.Logs,
		Reports:       dirs.Reports,
		OutputsMerged: dirs.OutputsMerged,
		Resources:     dirs.Resources,
		now:           time.Now,
	}
}

// WithClock overrides the clock used for timestamps.
func (p *Paths) WithClock(now func() time.Time) *Paths {
	p.now = now
	return p
}

// Ensure creates every configured directory.
func (p *Paths) Ensure() error {
	for _, dir := range []string{p.Logs, p.Reports, p.Outputs, p.OutputsMerged, p.Inputs, p.Resources} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// Timestamp returns the current time formatted for file names.
func (p *Paths) Timestamp() string {
	return p.now().Format(TimestampLayout)
}

// ForSession derives the output, log and report paths for an input file.
func (p *Paths) ForSession(inputPath string) Session {
	base := filepath.Base(inputPath)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	if ext == "" {
		ext = ".json"
	}
	ts := p.Timestamp()
	return Session{
		Output: filepath.Join(p.Outputs, stem+HumanSuffix+ext),
		Log:    filepath.Join(p.Logs, "log_"+ts+".json"),
		Report: filepath.Join(p.Reports, "report_"+ts+".txt"),
	}
}

// MergedOutput returns the timestamped path of a merged output file.
func (p *Paths) MergedOutput() string {
	return filepath.Join(p.OutputsMerged, "merged_"+p.Timestamp()+".json")
}

// DefaultMergePattern matches every JSON file in the outputs directory.
func (p *Paths) DefaultMergePattern() string {
	return filepath.Join(p.Outputs, "*.json")
}

// ResolveInput returns arg when it names an existing file, otherwise the
// same name under the inputs directory if that exists, otherwise arg.
func (p *Paths) ResolveInput(arg string) string {
	if st, err := os.Stat(arg); err == nil && !st.IsDir() {
		return arg
	}
	cand := filepath.Join(p.Inputs, arg)
	if _, err := os.Stat(cand); err == nil {
		return cand
	}
	return arg
}
