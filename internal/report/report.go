// Package report writes the plain-text session report.
package report

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"sentlabel/internal/metrics"
	"sentlabel/internal/record"
	"sentlabel/internal/store"
)

// Rule separates the header from the results.
var Rule = strings.Repeat("-", 60)

// isoLayout matches Python-style isoformat with microseconds.
const isoLayout = "2006-01-02T15:04:05.000000"

// Header describes the session.
type Header struct {
	Cmd        string
	Input      string
	Seed       int64
	MaxLen     int
	Annotator  *record.Annotator
	ResumeNote string
	Time       time.Time
}

// Results describes the outcome.
type Results struct {
	Metrics     metrics.Summary
	HumanOutput string
	LogPath     string
}

// ResumeNote renders the resume line for the header. resumeIndex is the
// zero-based input index.
func ResumeNote(resumeIndex, completed int) string {
	return fmt.Sprintf("Resuming from item %d, %d already completed", resumeIndex+1, completed)
}

// WriteHeader writes the report header, ending with Rule.
func WriteHeader(w io.Writer, h Header) error {
	var b strings.Builder
	fmt.Fprintf(&b, "REPORT %s @ %s\n", h.Cmd, h.Time.Format(isoLayout))
	fmt.Fprintf(&b, "Input: %s\n", h.Input)
	fmt.Fprintf(&b, "Seed: %d  MaxLen: %d\n", h.Seed, h.MaxLen)
	if h.Annotator != nil {
		fmt.Fprintf(&b, "Annotator: %s\n", h.Annotator.Summary())
	}
	if h.ResumeNote != "" {
		b.WriteString(h.ResumeNote + "\n")
	}
	b.WriteString(Rule + "\n")
	_, err := io.WriteString(w, b.String())
	return err
}

// WriteResults writes the metrics block and output paths.
func WriteResults(w io.Writer, r Results) error {
	var b strings.Builder
	b.WriteString("\nRESULTS\n")
	fmt.Fprintf(&b, "Accuracy: %.4f\n", r.Metrics.Accuracy())
	switch {
	case r.Metrics.Binary != nil:
		m := r.Metrics.Binary
		fmt.Fprintf(&b, "Recall(pos): %.4f  F1(pos): %.4f\n", m.RecallPos, m.F1Pos)
		fmt.Fprintf(&b, "Recall(neg): %.4f  F1(neg): %.4f\n", m.RecallNeg, m.F1Neg)
		c := m.Confusion
		fmt.Fprintf(&b, "Confusion: TP=%d FP=%d FN=%d TN=%d\n", c.TP, c.FP, c.FN, c.TN)
	case r.Metrics.AB != nil:
		m := r.Metrics.AB
		fmt.Fprintf(&b, "Recall(a): %.4f  F1(a): %.4f\n", m.RecallA, m.F1A)
		fmt.Fprintf(&b, "Recall(b): %.4f  F1(b): %.4f\n", m.RecallB, m.F1B)
		c := m.Confusion
		fmt.Fprintf(&b, "Confusion: a->a=%d a->b=%d b->a=%d b->b=%d\n", c.AToA, c.AToB, c.BToA, c.BToB)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Human output: %s\n", r.HumanOutput)
	fmt.Fprintf(&b, "JSON log:     %s\n", r.LogPath)
	_, err := io.WriteString(w, b.String())
	return err
}

// Write writes the full report to path atomically.
func Write(path string, h Header, r Results) error {
	var buf bytes.Buffer
	if err := WriteHeader(&buf, h); err != nil {
		return err
	}
	if err := WriteResults(&buf, r); err != nil {
		return err
	}
	if err := store.WriteFileAtomic(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
