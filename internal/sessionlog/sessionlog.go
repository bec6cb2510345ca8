// Package sessionlog writes the per-session JSON log: metadata, skipped
// records, per-item timings and final metrics. Text is only ever stored as
// a redacted preview.
package sessionlog

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"sentlabel/internal/metrics"
	"sentlabel/internal/record"
	"sentlabel/internal/session"
	"sentlabel/internal/store"
	"sentlabel/internal/textnorm"
)

// Header is the session metadata known before labeling starts.
type Header struct {
	Cmd               string
	Input             string
	Seed              int64
	MaxLen            int
	ResumingFrom      *int // nil unless a prior output existed
	ExistingCompleted int
	Annotator         *record.Annotator
}

// SkipEntry is one skipped record.
type SkipEntry struct {
	Reason        string            `json:"reason"`
	RecordPreview map[string]string `json:"record_preview"`
}

// ItemEntry is one accepted decision. The gold label is never logged.
type ItemEntry struct {
	Idx         int    `json:"idx"`
	BasePreview string `json:"base_preview"`
	TestPreview string `json:"test_preview,omitempty"`
	APreview    string `json:"a_preview,omitempty"`
	BPreview    string `json:"b_preview,omitempty"`
	Human       any    `json:"human"`
	GoldHidden  bool   `json:"gold_hidden"`
	ElapsedMS   int64  `json:"elapsed_ms"`
	Note        string `json:"note,omitempty"`
}

// Log is the JSON document written at the end of a session.
type Log struct {
	path string

	Cmd               string            `json:"cmd"`
	Input             string            `json:"input"`
	Seed              int64             `json:"seed"`
	MaxLen            int               `json:"max_len"`
	ResumingFrom      *int              `json:"resuming_from"`
	ExistingCompleted int               `json:"existing_completed"`
	Annotator         *record.Annotator `json:"annotator"`
	SessionID         string            `json:"session_id"`
	StartTS           float64           `json:"start_ts"`
	Skips             []SkipEntry       `json:"skips"`
	Items             []ItemEntry       `json:"items"`
	Metrics           metrics.Summary   `json:"metrics"`
	EndTS             float64           `json:"end_ts"`
	EndState          string            `json:"end_state"`
}

// New starts a log that Finalize writes to path.
func New(path string, h Header, start time.Time) *Log {
	return &Log{
		path:              path,
		Cmd:               h.Cmd,
		Input:             h.Input,
		Seed:              h.Seed,
		MaxLen:            h.MaxLen,
		ResumingFrom:      h.ResumingFrom,
		ExistingCompleted: h.ExistingCompleted,
		Annotator:         h.Annotator,
		SessionID:         uuid.NewString(),
		StartTS:           unixSeconds(start),
		Skips:             []SkipEntry{},
		Items:             []ItemEntry{},
	}
}

// Path returns the file Finalize writes.
func (l *Log) Path() string { return l.path }

// AddResult records a session's skips and decisions.
func (l *Log) AddResult(res *session.Result) {
	for _, s := range res.Skips {
		l.Skips = append(l.Skips, SkipEntry{Reason: s.Reason, RecordPreview: s.Preview})
	}
	for _, d := range res.Decisions {
		l.Items = append(l.Items, itemEntry(d))
	}
	l.EndState = string(res.End)
}

func itemEntry(d session.Decision) ItemEntry {
	e := ItemEntry{
		Idx:        d.Index,
		Human:      d.Human.Value(),
		GoldHidden: true,
		ElapsedMS:  d.Elapsed.Milliseconds(),
		Note:       d.Note,
	}
	switch it := d.Item.(type) {
	case record.ClassificationItem:
		e.BasePreview = textnorm.HashPreview(it.Base)
		e.TestPreview = textnorm.HashPreview(it.Test)
	case record.RankingItem:
		e.BasePreview = textnorm.HashPreview(it.Base)
		e.APreview = textnorm.HashPreview(it.A)
		e.BPreview = textnorm.HashPreview(it.B)
	}
	return e
}

// Finalize stamps the metrics and end time and writes the log.
func (l *Log) Finalize(m metrics.Summary, end time.Time) error {
	l.Metrics = m
	l.EndTS = unixSeconds(end)
	if err := store.WriteJSON(l.path, l); err != nil {
		return fmt.Errorf("write session log: %w", err)
	}
	return nil
}

func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}
