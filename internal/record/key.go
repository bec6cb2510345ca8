package record

import (
	"strings"

	"sentlabel/internal/textnorm"
)

// Key is the content identity of a record: its normalized required text
// fields joined by an ASCII unit separator. Normalized text never contains
// control characters, so the join is unambiguous.
type Key string

const keySep = "\x1f"

// KeyFromTexts joins already-normalized field values.
func KeyFromTexts(texts ...string) Key {
	return Key(strings.Join(texts, keySep))
}

// KeyOf computes the content key of r for the mode. Absent or non-string
// fields contribute "".
func KeyOf(r *Record, m Mode) Key {
	fields := m.Fields()
	texts := make([]string, len(fields))
	for i, f := range fields {
		texts[i] = textnorm.ASCII7(r.Text(f))
	}
	return KeyFromTexts(texts...)
}

// Parts splits the key back into its field values.
func (k Key) Parts() []string {
	return strings.Split(string(k), keySep)
}
