package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentlabel/internal/config"
	"sentlabel/internal/record"
	"sentlabel/internal/session"
)

var fixedNow = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

// setup runs each test in a fresh workspace with default flags.
func setup(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
	for _, k := range []string{"SENTLABEL_SEED", "SENTLABEL_MAX_LEN", "SENTLABEL_OUTPUTS_DIR", "SENTLABEL_LOG_LEVEL"} {
		t.Setenv(k, "")
	}

	origIn, origOut, origErr, origNow := stdin, stdout, stderr, now
	t.Cleanup(func() {
		stdin, stdout, stderr, now = origIn, origOut, origErr, origNow
		cfg, logger = nil, nil
	})
	now = func() time.Time { return fixedNow }
}

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.PersistentFlags().VisitAll(reset)
	c.Flags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// runCLI executes the command tree with in as operator input and returns
// stdout, stderr and the exit code.
func runCLI(t *testing.T, in string, args ...string) (string, string, int) {
	t.Helper()
	resetFlags(rootCmd)
	var out, errOut bytes.Buffer
	stdin = strings.NewReader(in)
	stdout = &out
	stderr = &errOut
	rootCmd.SetArgs(args)
	code := execute()
	return out.String(), errOut.String(), code
}

func writeJSON(t *testing.T, path string, v any) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	data, err := json.MarshalIndent(v, "", "  ")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0644))
}

func readJSON(t *testing.T, path string) []map[string]any {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var out []map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func pairs() []map[string]any {
	return []map[string]any{
		{record.FieldBase: "The cat sat.", record.FieldTest: "A cat was sitting.", record.FieldGoldSimilarity: true},
		{record.FieldBase: "It is raining.", record.FieldTest: "The weather is wet.", record.FieldGoldSimilarity: true},
		{record.FieldBase: "He plays piano.", record.FieldTest: "Stocks fell today.", record.FieldGoldSimilarity: false},
	}
}

var (
	humanOutput = filepath.Join("outputs", "pairs_HUMAN.json")
	reportPath  = filepath.Join("reports", "report_20260102_030405.txt")
	logPath     = filepath.Join("logs", "log_20260102_030405.json")
)

func TestClassifyEndToEnd(t *testing.T) {
	setup(t)
	writeJSON(t, filepath.Join("inputs", "pairs.json"), pairs())

	out, errOut, code := runCLI(t, "t\nt\nT\n", "classify", "pairs.json")
	require.Equal(t, exitOK, code, errOut)

	assert.Contains(t, out, "Loaded 3 items. Shuffled with seed=42.")
	assert.Contains(t, out, "[3/3]")
	assert.Contains(t, out, "Human labels -> "+humanOutput)

	got := readJSON(t, humanOutput)
	require.Len(t, got, 3)
	for _, r := range got {
		assert.Equal(t, true, r[record.FieldHumanSimilarity])
		assert.Contains(t, r, record.FieldGoldSimilarity)
	}

	rep, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	assert.Contains(t, string(rep), "REPORT classify @ 2026-01-02T03:04:05.000000")
	assert.Contains(t, string(rep), "Accuracy: 0.6667")
	assert.Contains(t, string(rep), "Confusion: TP=2 FP=1 FN=0 TN=0")
	assert.NotContains(t, string(rep), "Resuming")

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	var log map[string]any
	require.NoError(t, json.Unmarshal(data, &log))
	assert.Equal(t, "classify", log["cmd"])
	assert.Equal(t, "exhausted", log["end_state"])
	assert.Nil(t, log["resuming_from"])
	assert.Len(t, log["items"], 3)
	assert.NotEmpty(t, log["session_id"])
}

func TestClassifyResumesPartialOutput(t *testing.T) {
	setup(t)
	writeJSON(t, filepath.Join("inputs", "pairs.json"), pairs())

	out, errOut, code := runCLI(t, "f\nsave\n", "classify", "--input", "pairs.json")
	require.Equal(t, exitOK, code, errOut)
	assert.NotContains(t, out, "Resuming")
	require.Len(t, readJSON(t, humanOutput), 1)

	out, errOut, code = runCLI(t, "t\nt\n", "classify", "pairs.json", "--annotator-id", "ann7")
	require.Equal(t, exitOK, code, errOut)
	assert.Contains(t, out, "1 items already completed.")
	assert.Contains(t, out, "[2/2]")

	got := readJSON(t, humanOutput)
	require.Len(t, got, 3)
	assert.Equal(t, false, got[0][record.FieldHumanSimilarity])
	assert.Equal(t, true, got[1][record.FieldHumanSimilarity])
	assert.Equal(t, true, got[2][record.FieldHumanSimilarity])
	for _, r := range got {
		ann, ok := r[record.FieldAnnotator].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "ann7", ann["id"])
	}

	rep, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	assert.Contains(t, string(rep), "already completed")
	assert.Contains(t, string(rep), "Annotator: ann7  <>")
}

func labeledPairs() []map[string]any {
	ps := pairs()
	for _, p := range ps {
		p[record.FieldHumanSimilarity] = false
	}
	return ps
}

func TestClassifyReviewDeclined(t *testing.T) {
	setup(t)
	writeJSON(t, filepath.Join("inputs", "pairs.json"), pairs())
	writeJSON(t, humanOutput, labeledPairs())
	before, err := os.ReadFile(humanOutput)
	require.NoError(t, err)

	out, _, code := runCLI(t, "maybe\nn\n", "classify", "pairs.json")
	assert.Equal(t, exitOK, code)
	assert.Contains(t, out, "Please type 'y' or 'n'.")
	assert.Contains(t, out, "Exiting without changes.")

	after, err := os.ReadFile(humanOutput)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
	assert.NoFileExists(t, reportPath)
}

func TestClassifyReviewReplacesLabels(t *testing.T) {
	setup(t)
	writeJSON(t, filepath.Join("inputs", "pairs.json"), pairs())
	writeJSON(t, humanOutput, labeledPairs())

	// Enter accepts the review, then keeps the first label and flips one.
	out, errOut, code := runCLI(t, "\n\nt\nsave\n", "classify", "pairs.json")
	require.Equal(t, exitOK, code, errOut)
	assert.Contains(t, out, "Review mode: You can revise any previous labels.")
	assert.Contains(t, out, "Current: False")

	got := readJSON(t, humanOutput)
	require.Len(t, got, 2)
	assert.Equal(t, false, got[0][record.FieldHumanSimilarity])
	assert.Equal(t, true, got[1][record.FieldHumanSimilarity])
}

func TestClassifyReviewPreservePolicy(t *testing.T) {
	setup(t)
	writeJSON(t, filepath.Join("inputs", "pairs.json"), pairs())
	writeJSON(t, humanOutput, labeledPairs())
	c := config.DefaultConfig()
	c.Session.ReviewPolicy = config.ReviewPreserve
	require.NoError(t, c.Save("config.yaml"))

	_, errOut, code := runCLI(t, "y\nt\nsave\n", "classify", "pairs.json")
	require.Equal(t, exitOK, code, errOut)

	got := readJSON(t, humanOutput)
	require.Len(t, got, 3)
	assert.Equal(t, true, got[2][record.FieldHumanSimilarity])
}

func TestClassifyAbortWritesNothing(t *testing.T) {
	setup(t)
	writeJSON(t, filepath.Join("inputs", "pairs.json"), pairs())

	_, errOut, code := runCLI(t, "t\nabort\n", "classify", "pairs.json")
	assert.Equal(t, exitInterrupted, code)
	assert.Contains(t, errOut, "nothing from this session was saved")
	assert.NoFileExists(t, humanOutput)
	assert.NoFileExists(t, reportPath)
	assert.NoFileExists(t, logPath)
}

func TestClassifyInputClosed(t *testing.T) {
	setup(t)
	writeJSON(t, filepath.Join("inputs", "pairs.json"), pairs())

	_, _, code := runCLI(t, "t\n", "classify", "pairs.json")
	assert.Equal(t, exitInterrupted, code)
	assert.NoFileExists(t, humanOutput)
}

func TestClassifyCheckpointsEachDecision(t *testing.T) {
	setup(t)
	writeJSON(t, filepath.Join("inputs", "pairs.json"), pairs())
	c := config.DefaultConfig()
	c.Session.FlushEachDecision = true
	require.NoError(t, c.Save("config.yaml"))

	_, _, code := runCLI(t, "t\nf\n", "classify", "pairs.json")
	assert.Equal(t, exitInterrupted, code)

	got := readJSON(t, humanOutput)
	require.Len(t, got, 2)
	assert.NoFileExists(t, reportPath)
}

func TestClassifySkipsLongRecords(t *testing.T) {
	setup(t)
	ps := pairs()
	ps[0][record.FieldTest] = strings.Repeat("x", 50)
	writeJSON(t, filepath.Join("inputs", "pairs.json"), ps)

	_, errOut, code := runCLI(t, "t\nt\n", "classify", "pairs.json", "--max-len", "20")
	require.Equal(t, exitOK, code, errOut)
	assert.Len(t, readJSON(t, humanOutput), 2)

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	var log struct {
		MaxLen int `json:"max_len"`
		Skips  []struct {
			Reason string `json:"reason"`
		} `json:"skips"`
	}
	require.NoError(t, json.Unmarshal(data, &log))
	assert.Equal(t, 20, log.MaxLen)
	require.Len(t, log.Skips, 1)
	assert.Equal(t, "too_long:"+record.FieldTest+":50>20", log.Skips[0].Reason)
}

func TestRankEndToEnd(t *testing.T) {
	setup(t)
	writeJSON(t, filepath.Join("inputs", "triples.json"), []map[string]any{
		{record.FieldBase: "A dog runs.", record.FieldA: "A dog is running.", record.FieldB: "Cars are fast.", record.FieldGoldMoreSimilar: "a"},
		{record.FieldBase: "Tea is hot.", record.FieldA: "Snow is cold.", record.FieldB: "The tea is warm.", record.FieldGoldMoreSimilar: "b"},
	})

	out, errOut, code := runCLI(t, "x\nA\nA\n", "rank", "triples.json")
	require.Equal(t, exitOK, code, errOut)
	assert.Contains(t, out, "Label ('a'/'b' or 's' to skip): ")
	assert.Contains(t, out, " (b):")

	got := readJSON(t, filepath.Join("outputs", "triples_HUMAN.json"))
	require.Len(t, got, 2)
	for _, r := range got {
		assert.Equal(t, "a", r[record.FieldHumanMoreSimilar])
	}

	rep, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	assert.Contains(t, string(rep), "Accuracy: 0.5000")
	assert.Contains(t, string(rep), "Confusion: a->a=1 a->b=0 b->a=1 b->b=0")
}

func TestLabelErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code int
		msg  string
	}{
		{"missing input", []string{"classify"}, exitUsage, "input file is required"},
		{"too many args", []string{"classify", "a.json", "b.json"}, exitUsage, "accepts at most 1 arg"},
		{"unknown flag", []string{"classify", "--bogus"}, exitUsage, "unknown flag"},
		{"input not found", []string{"classify", "nope.json"}, exitFatal, "nope.json"},
		{"conflicting input", []string{"rank", "--input", "a.json", "b.json"}, exitUsage, "both"},
		{"bad max-len", []string{"classify", "--max-len", "0", "a.json"}, exitFatal, "max_len must be positive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setup(t)
			_, errOut, code := runCLI(t, "", tt.args...)
			assert.Equal(t, tt.code, code)
			assert.Contains(t, errOut, tt.msg)
		})
	}
}

func TestClassifyRejectsNonArrayInput(t *testing.T) {
	setup(t)
	writeJSON(t, filepath.Join("inputs", "pairs.json"), map[string]any{"not": "an array"})

	_, errOut, code := runCLI(t, "", "classify", "pairs.json")
	assert.Equal(t, exitFatal, code)
	assert.Contains(t, errOut, "Error:")
}

func TestMerge(t *testing.T) {
	setup(t)
	first := labeledPairs()
	second := labeledPairs()
	second[2][record.FieldHumanSimilarity] = true
	writeJSON(t, filepath.Join("outputs", "a_HUMAN.json"), first)
	writeJSON(t, filepath.Join("outputs", "b_HUMAN.json"), second)
	writeJSON(t, filepath.Join("outputs", "bad.json"), map[string]any{"x": 1})

	out, errOut, code := runCLI(t, "", "merge")
	require.Equal(t, exitOK, code, errOut)
	merged := filepath.Join("outputs-merged", "merged_20260102_030405.json")
	assert.Contains(t, out, "Merged -> "+merged)
	assert.Contains(t, errOut, "bad.json")

	got := readJSON(t, merged)
	require.Len(t, got, 4)
	assert.Equal(t, true, got[3][record.FieldHumanSimilarity])
}

func TestMergeExplicitPatternAndOutput(t *testing.T) {
	setup(t)
	writeJSON(t, filepath.Join("elsewhere", "x.json"), labeledPairs())

	_, errOut, code := runCLI(t, "", "merge", "--pattern", filepath.Join("elsewhere", "*.json"), "-o", "all.json", "--concurrency", "1")
	require.Equal(t, exitOK, code, errOut)
	assert.Len(t, readJSON(t, "all.json"), 3)
}

func TestConfigInitAndShow(t *testing.T) {
	setup(t)

	out, errOut, code := runCLI(t, "", "config", "init")
	require.Equal(t, exitOK, code, errOut)
	assert.Contains(t, out, "Wrote config.yaml")
	assert.FileExists(t, "config.yaml")

	_, errOut, code = runCLI(t, "", "config", "init")
	assert.Equal(t, exitFatal, code)
	assert.Contains(t, errOut, "already exists")

	_, _, code = runCLI(t, "", "config", "init", "--force")
	assert.Equal(t, exitOK, code)

	out, _, code = runCLI(t, "", "config", "show")
	require.Equal(t, exitOK, code)
	assert.Contains(t, out, "seed: 42")
	assert.Contains(t, out, "review_policy: replace")

	out, _, code = runCLI(t, "", "config", "show", "--seed", "7")
	require.Equal(t, exitOK, code)
	assert.Contains(t, out, "seed: 7")
}

func TestSeedPrecedence(t *testing.T) {
	setup(t)
	c := config.DefaultConfig()
	c.Seed = 5
	require.NoError(t, c.Save("config.yaml"))

	out, _, code := runCLI(t, "", "config", "show")
	require.Equal(t, exitOK, code)
	assert.Contains(t, out, "seed: 5")

	t.Setenv("SENTLABEL_SEED", "11")
	out, _, _ = runCLI(t, "", "config", "show")
	assert.Contains(t, out, "seed: 11")

	out, _, _ = runCLI(t, "", "config", "show", "--seed", "9")
	assert.Contains(t, out, "seed: 9")
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, exitOK},
		{errors.New("boom"), exitFatal},
		{usageError{errors.New("bad flag")}, exitUsage},
		{fmt.Errorf("wrapped: %w", usageError{errors.New("x")}), exitUsage},
		{errAborted, exitInterrupted},
		{errors.Join(errAborted, session.ErrInputClosed), exitInterrupted},
		{fmt.Errorf("%w: signal", session.ErrInterrupted), exitInterrupted},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, exitCode(tt.err), "%v", tt.err)
	}
}
