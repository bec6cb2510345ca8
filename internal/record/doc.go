// Package record models the JSON objects flowing through a labeling
// session.
//
// A Record is an ordered JSON object whose unknown fields are carried
// through verbatim, so an output record is always its input record plus
// the human label (and optional annotator attribution). Workflow-specific
// views are exposed through Mode and the Item variants:
//
//   - Classify: sentence_base, sentence_test, gold label_semantic_similarity
//   - Rank:     sentence_base, sentence_a, sentence_b, gold label_more_similar
//
// Identity across files and shuffles is the content Key: the tuple of the
// mode's required fields after 7-bit normalization, never the array index.
package record
