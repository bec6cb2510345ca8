// Package textnorm reduces record text to 7-bit printable ASCII and builds
// the redacted previews written to logs.
package textnorm

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// PreviewPrefixLen is the number of leading characters kept in a preview.
const PreviewPrefixLen = 40

// previewHashLen is the number of hex digits of the SHA-256 kept in a preview.
const previewHashLen = 12

// ascii7 decomposes compatibility characters, turns line-breaking
// whitespace into spaces and drops everything outside 0x20..0x7E.
func ascii7() transform.Transformer {
	return transform.Chain(
		norm.NFKD,
		runes.Map(func(r rune) rune {
			switch r {
			case '\t', '\n', '\r':
				return ' '
			}
			return r
		}),
		runes.Remove(runes.Predicate(func(r rune) bool {
			return r < 0x20 || r > 0x7e
		})),
	)
}

// ASCII7 is a lossy, idempotent transliteration to printable 7-bit text:
// "Café" becomes "Cafe" and characters with no ASCII decomposition vanish.
func ASCII7(s string) string {
	if isPrintableASCII(s) {
		return s
	}
	out, _, err := transform.String(ascii7(), s)
	if err != nil {
		// Only reachable on malformed transformer state; fall back to a
		// byte filter so normalization never fails.
		return filterBytes(s)
	}
	return out
}

// IsPrintableASCII reports whether s is already in normalized form.
func IsPrintableASCII(s string) bool {
	return isPrintableASCII(s)
}

func isPrintableASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 0x20 || s[i] > 0x7e {
			return false
		}
	}
	return true
}

func filterBytes(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\t' || c == '\n' || c == '\r':
			b.WriteByte(' ')
		case c >= 0x20 && c <= 0x7e:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// Len returns the length of s in characters.
func Len(s string) int {
	return utf8.RuneCountInString(s)
}

// HashPreview returns a short prefix of text plus a truncated SHA-256 so
// logs are debuggable without carrying the full text:
//
//	"The quick brown fox jumps over the lazy ...|3b1f0c9e4a2d"
func HashPreview(text string) string {
	sum := sha256.Sum256([]byte(text))
	h := hex.EncodeToString(sum[:])[:previewHashLen]

	prefix := text
	truncated := false
	if utf8.RuneCountInString(text) > PreviewPrefixLen {
		prefix = string([]rune(text)[:PreviewPrefixLen])
		truncated = true
	}
	prefix = strings.ReplaceAll(prefix, "\n", " ")
	if truncated {
		return prefix + "...|" + h
	}
	return prefix + "|" + h
}
