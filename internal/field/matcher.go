package field

import (
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"
)

// DefaultLabels are the submit-control labels tried in order.
var DefaultLabels = []string{"Enter", "Join", "Play", "Submit", "Continue", "OK"}

// Matcher decides whether a control label identifies a submit control.
type Matcher interface {
	Match(label string) bool
}

// Predicate compares a control label against one candidate label.
type Predicate func(label, candidate string) bool

// LabelMatcher matches a label against an ordered candidate list.
type LabelMatcher struct {
	candidates []string
	predicate  Predicate
}

// NewLabelMatcher creates a LabelMatcher. A nil predicate means WholeWord.
func NewLabelMatcher(candidates []string, predicate Predicate) *LabelMatcher {
	if predicate == nil {
		predicate = WholeWord
	}
	return &LabelMatcher{
		candidates: append([]string(nil), candidates...),
		predicate:  predicate,
	}
}

// DefaultMatcher matches DefaultLabels as whole words, ignoring case.
func DefaultMatcher() *LabelMatcher {
	return NewLabelMatcher(DefaultLabels, WholeWord)
}

// Match reports whether label matches any candidate.
func (m *LabelMatcher) Match(label string) bool {
	for _, c := range m.candidates {
		if m.predicate(label, c) {
			return true
		}
	}
	return false
}

// Candidates returns the candidate labels in order.
func (m *LabelMatcher) Candidates() []string {
	return append([]string(nil), m.candidates...)
}

// WholeWord reports whether candidate occurs in label on word boundaries,
// ignoring case. Word characters are ASCII letters, digits and underscore.
func WholeWord(label, candidate string) bool {
	if candidate == "" {
		return false
	}
	l := fold(label)
	c := fold(candidate)

	for from := 0; from <= len(l)-len(c); {
		idx := strings.Index(l[from:], c)
		if idx < 0 {
			return false
		}
		start := from + idx
		end := start + len(c)
		if (start == 0 || !isWordByte(l[start-1])) && (end == len(l) || !isWordByte(l[end])) {
			return true
		}
		from = start + 1
	}
	return false
}

// WithinDistance returns a predicate that accepts a label when any of its
// words is within maxDist edits of the candidate.
func WithinDistance(maxDist int) Predicate {
	return func(label, candidate string) bool {
		c := fold(candidate)
		words := strings.FieldsFunc(fold(label), func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		for _, w := range words {
			if levenshtein.ComputeDistance(w, c) <= maxDist {
				return true
			}
		}
		return false
	}
}

func fold(s string) string {
	return cases.Fold().String(s)
}

func isWordByte(b byte) bool {
	return b == '_' ||
		(b >= '0' && b <= '9') ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z')
}
