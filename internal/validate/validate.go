// Package validate turns raw input records into normalized items, or
// rejects them with a reason code and a redacted preview.
package validate

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"sentlabel/internal/record"
	"sentlabel/internal/textnorm"
)

// Reason prefixes.
const (
	ReasonMissingOrEmpty = "missing_or_empty"
	ReasonTooLong        = "too_long"
	ReasonUserSkip       = "user_skip"
)

// Rejection describes a record that failed validation. Preview holds a
// HashPreview of every required field, never the raw text.
type Rejection struct {
	Reason  string
	Preview map[string]string
}

func (r *Rejection) Error() string {
	return "record rejected: " + r.Reason
}

// Validator checks records against one workflow's required fields.
type Validator struct {
	mode   record.Mode
	maxLen int
	logger *zap.Logger
}

// New creates a Validator. A nil logger discards rejections.
func New(mode record.Mode, maxLen int, logger *zap.Logger) *Validator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Validator{mode: mode, maxLen: maxLen, logger: logger}
}

// MaxLen returns the configured length limit.
func (v *Validator) MaxLen() int { return v.maxLen }

// Validate normalizes the record's required fields. It returns the item,
// or a *Rejection error.
func (v *Validator) Validate(rec *record.Record) (record.Item, error) {
	fields, rej := Fields(rec, v.mode.Fields(), v.maxLen)
	if rej != nil {
		v.logger.Warn("record rejected",
			zap.String("mode", v.mode.String()),
			zap.String("reason", rej.Reason),
			zap.Any("preview", rej.Preview))
		return nil, rej
	}
	return record.NewItem(v.mode, fields), nil
}

// Fields validates the named fields of rec. Each must be a string that is
// non-blank after normalization and at most maxLen characters long.
// Fields are checked in order and the first failure wins.
func Fields(rec *record.Record, required []string, maxLen int) (map[string]string, *Rejection) {
	out := make(map[string]string, len(required))
	for _, f := range required {
		raw, isString := rec.String(f)
		norm := textnorm.ASCII7(raw)
		if !isString || strings.TrimSpace(norm) == "" {
			return nil, &Rejection{
				Reason:  fmt.Sprintf("%s:%s", ReasonMissingOrEmpty, f),
				Preview: previews(rec, required, false),
			}
		}
		if n := textnorm.Len(norm); n > maxLen {
			return nil, &Rejection{
				Reason:  fmt.Sprintf("%s:%s:%d>%d", ReasonTooLong, f, n, maxLen),
				Preview: previews(rec, required, true),
			}
		}
		out[f] = norm
	}
	return out, nil
}

// ItemPreview redacts an already validated item, keyed by field name.
func ItemPreview(item record.Item) map[string]string {
	fields := item.Mode().Fields()
	texts := item.Texts()
	out := make(map[string]string, len(fields))
	for i, f := range fields {
		out[f] = textnorm.HashPreview(texts[i])
	}
	return out
}

func previews(rec *record.Record, fields []string, normalized bool) map[string]string {
	out := make(map[string]string, len(fields))
	for _, f := range fields {
		text := rec.Text(f)
		if normalized {
			text = textnorm.ASCII7(text)
		}
		out[f] = textnorm.HashPreview(text)
	}
	return out
}
