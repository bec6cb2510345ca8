// Package resume detects a prior run's output for an input file and plans
// where a new session picks up.
package resume

import (
	"errors"
	"os"
	"slices"

	"go.uber.org/zap"

	"sentlabel/internal/record"
	"sentlabel/internal/store"
)

// State describes the prior output for one input file.
type State struct {
	Mode record.Mode

	// Exists is false when there is no prior output or it could not be
	// parsed; the session then starts fresh.
	Exists bool
	// Complete holds when every input item has a prior record.
	Complete bool
	// Completed holds the input indices matched by a prior record.
	Completed map[int]struct{}
	// ResumeIndex is the input index the session resumes at. Zero when
	// Complete or when nothing exists.
	ResumeIndex int

	// Existing is the parsed prior output, in file order.
	Existing []*record.Record

	byKey map[record.Key]*record.Record
}

// Detect reads the prior output at path and matches it against inputs by
// content key. Missing or malformed files yield a zero State.
func Detect(path string, inputs []*record.Record, mode record.Mode, logger *zap.Logger) State {
	if logger == nil {
		logger = zap.NewNop()
	}
	existing, err := store.ReadRecords(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Warn("ignoring unreadable prior output",
				zap.String("path", path), zap.Error(err))
		}
		return State{Mode: mode, Completed: map[int]struct{}{}}
	}
	st := FromRecords(existing, inputs, mode)
	logger.Info("prior output detected",
		zap.String("path", path),
		zap.Int("existing", len(existing)),
		zap.Int("completed", len(st.Completed)),
		zap.Bool("complete", st.Complete),
		zap.Int("resume_index", st.ResumeIndex))
	return st
}

// FromRecords builds the State for an already parsed prior output.
func FromRecords(existing, inputs []*record.Record, mode record.Mode) State {
	st := State{
		Mode:      mode,
		Exists:    true,
		Completed: make(map[int]struct{}),
		Existing:  existing,
		byKey:     make(map[record.Key]*record.Record, len(existing)),
	}

	firstIndex := make(map[record.Key]int, len(inputs))
	for i, in := range inputs {
		k := record.KeyOf(in, mode)
		if _, seen := firstIndex[k]; !seen {
			firstIndex[k] = i
		}
	}

	for _, ex := range existing {
		k := record.KeyOf(ex, mode)
		if _, seen := st.byKey[k]; !seen {
			st.byKey[k] = ex
		}
		if idx, ok := firstIndex[k]; ok {
			st.Completed[idx] = struct{}{}
		}
	}

	st.Complete = len(st.Completed) == len(inputs)
	if !st.Complete {
		st.ResumeIndex = resumeIndex(st.Completed, len(inputs))
	}
	return st
}

// resumeIndex picks the first uncompleted index past the furthest
// completed one. When the tail is fully labeled it falls back to the
// furthest uncompleted index before it.
func resumeIndex(completed map[int]struct{}, n int) int {
	if len(completed) == 0 {
		return 0
	}
	maxDone := -1
	for idx := range completed {
		maxDone = max(maxDone, idx)
	}
	for i := maxDone + 1; i < n; i++ {
		if _, done := completed[i]; !done {
			return i
		}
	}
	for i := maxDone - 1; i >= 0; i-- {
		if _, done := completed[i]; !done {
			return i
		}
	}
	return 0
}

// IsCompleted reports whether input index idx has a prior record.
func (s State) IsCompleted(idx int) bool {
	_, ok := s.Completed[idx]
	return ok
}

// CompletedIndices returns the completed input indices in ascending order.
func (s State) CompletedIndices() []int {
	out := make([]int, 0, len(s.Completed))
	for idx := range s.Completed {
		out = append(out, idx)
	}
	slices.Sort(out)
	return out
}

// Review reports whether the session revises a fully labeled input.
func (s State) Review() bool { return s.Exists && s.Complete }

// Resuming reports whether the session continues a partial run.
func (s State) Resuming() bool { return s.Exists && !s.Complete }

// Lookup returns the first prior record with the given content key.
func (s State) Lookup(k record.Key) (*record.Record, bool) {
	r, ok := s.byKey[k]
	return r, ok
}

// CurrentLabel returns the stored human label for a content key.
func (s State) CurrentLabel(k record.Key) (record.Label, bool) {
	r, ok := s.Lookup(k)
	if !ok {
		return "", false
	}
	return record.Human(r, s.Mode)
}

// Queue returns the input indices a session visits, in presentation order.
// Fresh and review sessions walk the whole order. A resumed session walks
// the order starting at ResumeIndex's position, wrapping around, and
// leaves out completed items.
func (s State) Queue(order []int) []int {
	if !s.Resuming() {
		return slices.Clone(order)
	}
	start := 0
	for p, idx := range order {
		if idx == s.ResumeIndex {
			start = p
			break
		}
	}
	out := make([]int, 0, len(order)-len(s.Completed))
	for i := range order {
		idx := order[(start+i)%len(order)]
		if !s.IsCompleted(idx) {
			out = append(out, idx)
		}
	}
	return out
}
