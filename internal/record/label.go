package record

import (
	"encoding/json"
	"strings"
)

// Label is a gold or human decision.
type Label string

const (
	LabelTrue  Label = "true"
	LabelFalse Label = "false"
	LabelA     Label = "a"
	LabelB     Label = "b"
)

// LabelFromBool maps a boolean onto the classification labels.
func LabelFromBool(b bool) Label {
	if b {
		return LabelTrue
	}
	return LabelFalse
}

// Bool reports whether the label is LabelTrue.
func (l Label) Bool() bool { return l == LabelTrue }

// Value returns the JSON value written for the label: a boolean for
// classification labels and "a"/"b" for ranking labels.
func (l Label) Value() any {
	switch l {
	case LabelTrue:
		return true
	case LabelFalse:
		return false
	}
	return string(l)
}

// Display renders the label for the operator.
func (l Label) Display() string {
	switch l {
	case LabelTrue:
		return "True"
	case LabelFalse:
		return "False"
	}
	return string(l)
}

// ValidFor reports whether the label belongs to the mode's label set.
func (l Label) ValidFor(m Mode) bool {
	switch m {
	case Classify:
		return l == LabelTrue || l == LabelFalse
	case Rank:
		return l == LabelA || l == LabelB
	}
	return false
}

// falsyStrings are the string spellings coerced to false for classification.
var falsyStrings = map[string]bool{
	"": true, "false": true, "0": true, "no": true, "n": true, "f": true,
}

// truthy coerces a JSON value to a boolean. Strings are compared
// case-insensitively against falsyStrings; null is false.
func truthy(raw json.RawMessage) bool {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	switch x := v.(type) {
	case bool:
		return x
	case float64:
		return x != 0
	case string:
		return !falsyStrings[strings.ToLower(strings.TrimSpace(x))]
	case nil:
		return false
	case []any:
		return len(x) > 0
	case map[string]any:
		return len(x) > 0
	}
	return false
}

// Gold extracts the gold label of r for the mode. Classification gold is
// coerced to a boolean; ranking gold is "a" only when the value
// lower-cases to "a" and "b" otherwise.
func Gold(r *Record, m Mode) Label {
	raw, ok := r.Get(m.GoldField())
	if m == Rank {
		if ok {
			var s string
			if json.Unmarshal(raw, &s) == nil && strings.ToLower(strings.TrimSpace(s)) == "a" {
				return LabelA
			}
		}
		return LabelB
	}
	return LabelFromBool(ok && truthy(raw))
}

// Human extracts a previously stored human label. The boolean result is
// false when the field is absent or, for ranking, not "a"/"b".
func Human(r *Record, m Mode) (Label, bool) {
	raw, ok := r.Get(m.HumanField())
	if !ok {
		return "", false
	}
	if m == Rank {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", false
		}
		l := Label(strings.ToLower(strings.TrimSpace(s)))
		if !l.ValidFor(Rank) {
			return "", false
		}
		return l, true
	}
	return LabelFromBool(truthy(raw)), true
}
