// Package reconcile merges a session's decisions with a prior run's
// output into the record set that is written back to disk.
package reconcile

import (
	"fmt"

	"sentlabel/internal/config"
	"sentlabel/internal/record"
	"sentlabel/internal/session"
)

// Input is everything Reconcile needs.
type Input struct {
	Mode      record.Mode
	Existing  []*record.Record // prior output, file order
	Decisions []session.Decision
	// Review is set when the prior output covered every input item.
	Review bool
	// Policy applies to review sessions: config.ReviewReplace keeps only
	// this session's records, config.ReviewPreserve also keeps untouched
	// prior records.
	Policy    string
	Annotator *record.Annotator
}

// Reconcile builds the final record list.
//
// Resume sessions (and preserve-policy reviews) keep every prior record
// whose content key this session did not decide, in file order, followed
// by this session's records. Replace-policy reviews keep only this
// session's records, so prior records the operator did not revisit are
// dropped.
//
// New records are clones of the input record with the human label field
// set. The annotator field is added to every output record that lacks one.
// Input and prior records are never modified.
func Reconcile(in Input) ([]*record.Record, error) {
	touched := make(map[record.Key]struct{}, len(in.Decisions))
	for _, d := range in.Decisions {
		touched[d.Key] = struct{}{}
	}

	out := make([]*record.Record, 0, len(in.Existing)+len(in.Decisions))

	if !in.Review || in.Policy == config.ReviewPreserve {
		for _, ex := range in.Existing {
			if _, ok := touched[record.KeyOf(ex, in.Mode)]; ok {
				continue
			}
			r := ex.Clone()
			if err := attribute(r, in.Annotator); err != nil {
				return nil, err
			}
			out = append(out, r)
		}
	}

	for _, d := range in.Decisions {
		if !d.Human.ValidFor(in.Mode) {
			return nil, fmt.Errorf("decision for input %d: label %q is not a %s label", d.Index, d.Human, in.Mode)
		}
		r := d.Record.Clone()
		if err := r.Set(in.Mode.HumanField(), d.Human.Value()); err != nil {
			return nil, err
		}
		if err := attribute(r, in.Annotator); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func attribute(r *record.Record, a *record.Annotator) error {
	if a == nil {
		return nil
	}
	return r.SetDefault(record.FieldAnnotator, a)
}

// GoldPairs joins labeled records to the input gold labels by content
// key. Records without a human label or without a matching input are left
// out. The returned slices are parallel.
func GoldPairs(mode record.Mode, labeled, inputs []*record.Record) (gold, human []record.Label) {
	goldByKey := make(map[record.Key]record.Label, len(inputs))
	for _, in := range inputs {
		k := record.KeyOf(in, mode)
		if _, seen := goldByKey[k]; !seen {
			goldByKey[k] = record.Gold(in, mode)
		}
	}
	for _, r := range labeled {
		h, ok := record.Human(r, mode)
		if !ok {
			continue
		}
		g, ok := goldByKey[record.KeyOf(r, mode)]
		if !ok {
			continue
		}
		gold = append(gold, g)
		human = append(human, h)
	}
	return gold, human
}
