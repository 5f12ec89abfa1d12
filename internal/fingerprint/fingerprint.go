// Package fingerprint computes the deterministic, non-cryptographic string
// hashes used as lookup keys by the answer cache and the wrong-answer blocker.
//
// Two domains exist and must not be mixed:
//   - Signature hashes one piece of text (a question or an option) after
//     stripping punctuation. The blocker keys on it.
//   - CacheHash hashes a question together with its option set, independent of
//     option order. The cache keys on it.
//
// Both are 32-bit and collide occasionally. Changing the algorithm changes
// every persisted key.
package fingerprint

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf16"
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	punctuation   = regexp.MustCompile("[.,/#!$%^&*;:{}=\\-_`~()]")
)

// Normalize lowercases s, trims it and collapses internal whitespace runs to a
// single space.
func Normalize(s string) string {
	s = strings.ToLower(s)
	s = whitespaceRun.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// normalizeSignature is Normalize plus removal of the fixed punctuation set.
func normalizeSignature(s string) string {
	s = strings.ToLower(s)
	s = punctuation.ReplaceAllString(s, "")
	s = whitespaceRun.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Hash returns the 32-bit rolling hash (h = h*31 + c over UTF-16 code units)
// of s, formatted as a signed decimal string.
func Hash(s string) string {
	var h int32
	for _, c := range utf16.Encode([]rune(s)) {
		h = h*31 + int32(c)
	}
	return strconv.FormatInt(int64(h), 10)
}

// Signature fingerprints a single question or option text.
func Signature(text string) string {
	return Hash(normalizeSignature(text))
}

// CacheHash fingerprints a question and its option set. Options are sorted
// after normalization so the result does not depend on display order.
func CacheHash(question string, options []string) string {
	normalized := make([]string, len(options))
	for i, o := range options {
		normalized[i] = Normalize(o)
	}
	sort.Strings(normalized)

	var b strings.Builder
	b.WriteString(Normalize(question))
	for _, o := range normalized {
		b.WriteByte('|')
		b.WriteString(o)
	}
	return Hash(b.String())
}
