package record

// Item is the validated, normalized view of an input record.
type Item interface {
	Mode() Mode
	Key() Key
	// Texts returns the normalized field values in Mode.Fields order.
	Texts() []string
}

// ClassificationItem is a base/test sentence pair.
type ClassificationItem struct {
	Base string
	Test string
}

func (ClassificationItem) Mode() Mode        { return Classify }
func (c ClassificationItem) Texts() []string { return []string{c.Base, c.Test} }
func (c ClassificationItem) Key() Key        { return KeyFromTexts(c.Texts()...) }

// RankingItem is a base sentence with two candidates.
type RankingItem struct {
	Base string
	A    string
	B    string
}

func (RankingItem) Mode() Mode        { return Rank }
func (r RankingItem) Texts() []string { return []string{r.Base, r.A, r.B} }
func (r RankingItem) Key() Key        { return KeyFromTexts(r.Texts()...) }

// NewItem builds the mode's variant from normalized field values.
func NewItem(m Mode, fields map[string]string) Item {
	if m == Rank {
		return RankingItem{Base: fields[FieldBase], A: fields[FieldA], B: fields[FieldB]}
	}
	return ClassificationItem{Base: fields[FieldBase], Test: fields[FieldTest]}
}
