// Package metrics computes agreement between human and gold labels.
// Every ratio with a zero denominator is 0.
package metrics

import (
	"encoding/json"

	"sentlabel/internal/record"
)

// BinaryConfusion counts classification outcomes, positive = true.
type BinaryConfusion struct {
	TP int `json:"tp"`
	FP int `json:"fp"`
	FN int `json:"fn"`
	TN int `json:"tn"`
}

// Binary holds classification metrics.
type Binary struct {
	Accuracy  float64         `json:"accuracy"`
	RecallPos float64         `json:"recall_pos"`
	F1Pos     float64         `json:"f1_pos"`
	RecallNeg float64         `json:"recall_neg"`
	F1Neg     float64         `json:"f1_neg"`
	Confusion BinaryConfusion `json:"confusion"`
}

// ABConfusion counts ranking outcomes as gold->human.
type ABConfusion struct {
	AToA int `json:"a_to_a"`
	AToB int `json:"a_to_b"`
	BToA int `json:"b_to_a"`
	BToB int `json:"b_to_b"`
}

// AB holds ranking metrics.
type AB struct {
	Accuracy  float64     `json:"accuracy"`
	RecallA   float64     `json:"recall_a"`
	F1A       float64     `json:"f1_a"`
	RecallB   float64     `json:"recall_b"`
	F1B       float64     `json:"f1_b"`
	Confusion ABConfusion `json:"confusion"`
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

func f1(precision, recall float64) float64 {
	if precision+recall == 0 {
		return 0
	}
	return 2 * precision * recall / (precision + recall)
}

// ComputeBinary compares pairs up to the shorter of the two slices.
func ComputeBinary(yTrue, yPred []bool) Binary {
	var c BinaryConfusion
	for i := 0; i < min(len(yTrue), len(yPred)); i++ {
		t, p := yTrue[i], yPred[i]
		switch {
		case t && p:
			c.TP++
		case !t && p:
			c.FP++
		case t && !p:
			c.FN++
		default:
			c.TN++
		}
	}
	total := c.TP + c.FP + c.FN + c.TN
	recPos := ratio(c.TP, c.TP+c.FN)
	recNeg := ratio(c.TN, c.TN+c.FP)
	return Binary{
		Accuracy:  ratio(c.TP+c.TN, total),
		RecallPos: recPos,
		F1Pos:     f1(ratio(c.TP, c.TP+c.FP), recPos),
		RecallNeg: recNeg,
		F1Neg:     f1(ratio(c.TN, c.TN+c.FN), recNeg),
		Confusion: c,
	}
}

// ComputeAB compares ranking labels. Pairs where either side is not "a"
// or "b" are ignored.
func ComputeAB(yTrue, yPred []record.Label) AB {
	var c ABConfusion
	for i := 0; i < min(len(yTrue), len(yPred)); i++ {
		switch {
		case yTrue[i] == record.LabelA && yPred[i] == record.LabelA:
			c.AToA++
		case yTrue[i] == record.LabelA && yPred[i] == record.LabelB:
			c.AToB++
		case yTrue[i] == record.LabelB && yPred[i] == record.LabelA:
			c.BToA++
		case yTrue[i] == record.LabelB && yPred[i] == record.LabelB:
			c.BToB++
		}
	}
	total := c.AToA + c.AToB + c.BToA + c.BToB
	recA := ratio(c.AToA, c.AToA+c.AToB)
	recB := ratio(c.BToB, c.BToB+c.BToA)
	return AB{
		Accuracy:  ratio(c.AToA+c.BToB, total),
		RecallA:   recA,
		F1A:       f1(ratio(c.AToA, c.AToA+c.BToA), recA),
		RecallB:   recB,
		F1B:       f1(ratio(c.BToB, c.BToB+c.AToB), recB),
		Confusion: c,
	}
}

// Summary is the metrics of one workflow; exactly one field is set.
type Summary struct {
	Binary *Binary
	AB     *AB
}

// Compute picks the metric family for the mode.
func Compute(mode record.Mode, gold, human []record.Label) Summary {
	if mode == record.Rank {
		m := ComputeAB(gold, human)
		return Summary{AB: &m}
	}
	yTrue := make([]bool, len(gold))
	for i, l := range gold {
		yTrue[i] = l.Bool()
	}
	yPred := make([]bool, len(human))
	for i, l := range human {
		yPred[i] = l.Bool()
	}
	m := ComputeBinary(yTrue, yPred)
	return Summary{Binary: &m}
}

// Accuracy returns the accuracy of whichever family is set.
func (s Summary) Accuracy() float64 {
	switch {
	case s.Binary != nil:
		return s.Binary.Accuracy
	case s.AB != nil:
		return s.AB.Accuracy
	}
	return 0
}

// MarshalJSON writes the set family's object, or null.
func (s Summary) MarshalJSON() ([]byte, error) {
	switch {
	case s.Binary != nil:
		return json.Marshal(s.Binary)
	case s.AB != nil:
		return json.Marshal(s.AB)
	}
	return []byte("null"), nil
}
