// Package merge unions labeled output files and drops duplicate records.
package merge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"sentlabel/internal/record"
	"sentlabel/internal/store"
	"sentlabel/internal/textnorm"
)

// DefaultConcurrency bounds parallel file parsing.
const DefaultConcurrency = 8

// Result summarizes a merge.
type Result struct {
	Files      []string // matched files, sorted
	Skipped    []string // files that were not a JSON array of objects
	Read       int      // records read before deduplication
	Records    []*record.Record
	Duplicates int
}

// Merger reads and deduplicates output files.
type Merger struct {
	logger      *zap.Logger
	concurrency int
}

// New creates a Merger. A nil logger discards output.
func New(logger *zap.Logger) *Merger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Merger{logger: logger, concurrency: DefaultConcurrency}
}

// WithConcurrency sets the number of files parsed at once.
func (m *Merger) WithConcurrency(n int) *Merger {
	if n > 0 {
		m.concurrency = n
	}
	return m
}

// Merge reads every file matching pattern. Files are visited in sorted
// order and records in file order; the first record with a given merge key
// wins. Unparseable files are skipped.
func (m *Merger) Merge(ctx context.Context, pattern string) (*Result, error) {
	files, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid merge pattern %q: %w", pattern, err)
	}
	slices.Sort(files)

	slots := make([][]*record.Record, len(files))
	ok := make([]bool, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.concurrency)
	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			recs, err := store.ReadRecords(path)
			if err != nil {
				m.logger.Info("skipping unreadable file", zap.String("path", path), zap.Error(err))
				return nil
			}
			slots[i] = recs
			ok[i] = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &Result{Files: files}
	seen := make(map[string]struct{})
	for i, recs := range slots {
		if !ok[i] {
			res.Skipped = append(res.Skipped, files[i])
			continue
		}
		for _, r := range recs {
			res.Read++
			k := Key(r)
			if _, dup := seen[k]; dup {
				res.Duplicates++
				continue
			}
			seen[k] = struct{}{}
			res.Records = append(res.Records, r)
		}
	}

	m.logger.Info("merge complete",
		zap.String("pattern", pattern),
		zap.Int("files", len(files)),
		zap.Int("skipped", len(res.Skipped)),
		zap.Int("read", res.Read),
		zap.Int("kept", len(res.Records)),
		zap.Int("duplicates", res.Duplicates))
	return res, nil
}

// Run merges pattern and writes the result to out.
func (m *Merger) Run(ctx context.Context, pattern, out string) (*Result, error) {
	res, err := m.Merge(ctx, pattern)
	if err != nil {
		return nil, err
	}
	if err := store.WriteRecords(out, res.Records); err != nil {
		return nil, err
	}
	return res, nil
}

// Key is the merge identity of a record: the normalized text fields of
// both workflows plus whichever human labels are present. Annotator
// identity is not part of it.
func Key(r *record.Record) string {
	parts := make([]string, 0, len(record.TextFields)+len(record.HumanFields))
	for _, f := range record.TextFields {
		parts = append(parts, textnorm.ASCII7(r.Text(f)))
	}
	for _, f := range record.HumanFields {
		parts = append(parts, rawValue(r, f))
	}
	return strings.Join(parts, "\x1f")
}

// rawValue returns the compact JSON of a field, or "" when absent.
func rawValue(r *record.Record, name string) string {
	raw, ok := r.Get(name)
	if !ok {
		return ""
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}
