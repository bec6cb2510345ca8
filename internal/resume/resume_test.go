package resume

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentlabel/internal/record"
	"sentlabel/internal/store"
)

func inputs(t *testing.T, n int) []*record.Record {
	t.Helper()
	out := make([]*record.Record, n)
	for i := range out {
		r, err := record.FromMap(
			[]string{record.FieldBase, record.FieldTest, record.FieldGoldSimilarity},
			map[string]any{
				record.FieldBase:           fmt.Sprintf("base %d", i),
				record.FieldTest:           fmt.Sprintf("test %d", i),
				record.FieldGoldSimilarity: i%2 == 0,
			})
		require.NoError(t, err)
		out[i] = r
	}
	return out
}

func labeled(t *testing.T, in []*record.Record, idxs ...int) []*record.Record {
	t.Helper()
	out := make([]*record.Record, 0, len(idxs))
	for _, i := range idxs {
		r := in[i].Clone()
		require.NoError(t, r.Set(record.FieldHumanSimilarity, true))
		out = append(out, r)
	}
	return out
}

func TestDetectMissingFile(t *testing.T) {
	st := Detect(filepath.Join(t.TempDir(), "nope.json"), inputs(t, 3), record.Classify, nil)
	assert.False(t, st.Exists)
	assert.False(t, st.Complete)
	assert.Empty(t, st.Completed)
	assert.Equal(t, 0, st.ResumeIndex)
}

func TestDetectMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"not": "a list"}`), 0644))

	st := Detect(path, inputs(t, 3), record.Classify, nil)
	assert.False(t, st.Exists)
	assert.Empty(t, st.Completed)
}

func TestDetectPartialGapped(t *testing.T) {
	in := inputs(t, 5)
	path := filepath.Join(t.TempDir(), "out.json")
	require.NoError(t, store.WriteRecords(path, labeled(t, in, 4, 0, 2)))

	st := Detect(path, in, record.Classify, nil)
	assert.True(t, st.Exists)
	assert.False(t, st.Complete)
	assert.Equal(t, []int{0, 2, 4}, st.CompletedIndices())
	assert.Equal(t, 3, st.ResumeIndex)
}

func TestResumeIndexAfterFurthestCompleted(t *testing.T) {
	in := inputs(t, 5)
	st := FromRecords(labeled(t, in, 0, 1, 2), in, record.Classify)
	assert.Equal(t, 3, st.ResumeIndex)

	st = FromRecords(labeled(t, in, 1), in, record.Classify)
	assert.Equal(t, 2, st.ResumeIndex)

	st = FromRecords(nil, in, record.Classify)
	assert.True(t, st.Exists)
	assert.Equal(t, 0, st.ResumeIndex)
}

func TestDetectComplete(t *testing.T) {
	in := inputs(t, 3)
	st := FromRecords(labeled(t, in, 2, 1, 0), in, record.Classify)
	assert.True(t, st.Complete)
	assert.True(t, st.Review())
	assert.False(t, st.Resuming())
}

func TestMatchingUsesNormalizedText(t *testing.T) {
	in := inputs(t, 2)
	prior, err := record.FromMap(
		[]string{record.FieldBase, record.FieldTest, record.FieldHumanSimilarity},
		map[string]any{record.FieldBase: "báse 1", record.FieldTest: "test 1", record.FieldHumanSimilarity: false})
	require.NoError(t, err)

	st := FromRecords([]*record.Record{prior}, in, record.Classify)
	assert.Equal(t, []int{1}, st.CompletedIndices())

	label, ok := st.CurrentLabel(record.KeyOf(in[1], record.Classify))
	require.True(t, ok)
	assert.Equal(t, record.LabelFalse, label)
}

func TestUnmatchedPriorRecordsIgnored(t *testing.T) {
	in := inputs(t, 2)
	stranger, err := record.FromMap([]string{record.FieldBase, record.FieldTest},
		map[string]any{record.FieldBase: "other", record.FieldTest: "thing"})
	require.NoError(t, err)

	st := FromRecords([]*record.Record{stranger}, in, record.Classify)
	assert.Empty(t, st.Completed)
	assert.False(t, st.Complete)
	assert.Len(t, st.Existing, 1)
}

func TestDuplicateInputsMatchFirst(t *testing.T) {
	in := inputs(t, 2)
	in = append(in, in[0].Clone())

	st := FromRecords(labeled(t, in, 0), in, record.Classify)
	assert.Equal(t, []int{0}, st.CompletedIndices())
	assert.False(t, st.Complete)
}

func TestQueue(t *testing.T) {
	in := inputs(t, 5)
	order := []int{3, 0, 4, 1, 2}

	tests := []struct {
		name string
		st   State
		want []int
	}{
		{"fresh", State{Completed: map[int]struct{}{}}, []int{3, 0, 4, 1, 2}},
		{"review", FromRecords(labeled(t, in, 0, 1, 2, 3, 4), in, record.Classify), []int{3, 0, 4, 1, 2}},
		// ResumeIndex 3 sits at position 0.
		{"gapped", FromRecords(labeled(t, in, 0, 2, 4), in, record.Classify), []int{3, 1}},
		// {0,1} done; resume at 2 (position 4), wrapping to 3 and 4.
		{"wraps", FromRecords(labeled(t, in, 0, 1), in, record.Classify), []int{2, 3, 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, tt.st.Queue(order)); diff != "" {
				t.Errorf("Queue() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRankingKeys(t *testing.T) {
	r, err := record.FromMap(
		[]string{record.FieldBase, record.FieldA, record.FieldB},
		map[string]any{record.FieldBase: "x", record.FieldA: "y", record.FieldB: "z"})
	require.NoError(t, err)
	prior := r.Clone()
	require.NoError(t, prior.Set(record.FieldHumanMoreSimilar, "A"))

	st := FromRecords([]*record.Record{prior}, []*record.Record{r}, record.Rank)
	assert.True(t, st.Complete)
	label, ok := st.CurrentLabel(record.KeyOf(r, record.Rank))
	require.True(t, ok)
	assert.Equal(t, record.LabelA, label)
}
