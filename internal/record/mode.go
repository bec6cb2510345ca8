package record

import "fmt"

// Mode selects the labeling workflow.
type Mode string

const (
	// Classify is binary semantic similarity between a base and a test sentence.
	Classify Mode = "classify"
	// Rank picks which of two candidates is closer to a base sentence.
	Rank Mode = "rank"
)

// Field names used in input and output files.
const (
	FieldBase = "sentence_base"
	FieldTest = "sentence_test"
	FieldA    = "sentence_a"
	FieldB    = "sentence_b"

	FieldGoldSimilarity   = "label_semantic_similarity"
	FieldGoldMoreSimilar  = "label_more_similar"
	FieldHumanSimilarity  = "label_semantic_similarity_human"
	FieldHumanMoreSimilar = "label_more_similar_human"

	FieldAnnotator = "_annotator"
)

// TextFields lists every text field of both workflows, in merge-key order.
var TextFields = []string{FieldBase, FieldTest, FieldA, FieldB}

// HumanFields lists the human label fields of both workflows.
var HumanFields = []string{FieldHumanSimilarity, FieldHumanMoreSimilar}

// ParseMode converts a command name into a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case Classify, Rank:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown mode %q", s)
}

// Fields returns the required text fields of the mode, in key order.
func (m Mode) Fields() []string {
	switch m {
	case Classify:
		return []string{FieldBase, FieldTest}
	case Rank:
		return []string{FieldBase, FieldA, FieldB}
	}
	return nil
}

// GoldField returns the name of the hidden gold label field.
func (m Mode) GoldField() string {
	if m == Rank {
		return FieldGoldMoreSimilar
	}
	return FieldGoldSimilarity
}

// HumanField returns the name of the human label field written on output.
func (m Mode) HumanField() string {
	if m == Rank {
		return FieldHumanMoreSimilar
	}
	return FieldHumanSimilarity
}

func (m Mode) String() string { return string(m) }
