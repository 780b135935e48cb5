// Package engine defines what a segmentation engine produces and what it
// reads from.
//
// Engines yield segments lazily through Iterator. The merged engine reads
// through Source so the same code drives fully materialized text and a
// sliding window over a stream; the accurate engine needs all of the text
// up front.
package engine

import (
	"strings"
)

// Segment is a run of input text between two boundaries. Start and End are
// character (rune) offsets into the whole input.
type Segment struct {
	Text  string
	Start int
	End   int
}

// Iterator yields segments one at a time, in order. Concatenating the Text
// of every segment reproduces the input. Iterators are not safe for
// concurrent use.
//
//	for it.Next() {
//		seg := it.Segment()
//		...
//	}
//	if err := it.Err(); err != nil {
//		...
//	}
type Iterator interface {
	// Next advances to the next segment and reports whether there is one.
	Next() bool
	// Segment returns the segment Next advanced to.
	Segment() Segment
	// Err returns the error that stopped iteration, if any. Segments
	// returned before the error stay valid.
	Err() error
}

// Source is random access over text that may still be arriving.
type Source interface {
	// View returns every addressable character and the absolute index of
	// the first one.
	View() (base int, text []rune)
	// Complete reports whether View already ends at the end of the input.
	Complete() bool
	// Fill pulls more characters while keeping index keep addressable and
	// returns how many were read.
	Fill(keep int) (int, error)
	// Accept reports whether a match at pos is final.
	Accept(pos int) bool
	// Position returns the absolute index one past the last character read.
	Position() int
	// SubSequence returns the characters in [from, to).
	SubSequence(from, to int) (string, error)
}

// Text is a fully materialized Source.
type Text struct {
	runes []rune
}

// NewText materializes s.
func NewText(s string) *Text {
	return &Text{runes: []rune(s)}
}

// Runes returns the underlying characters.
func (t *Text) Runes() []rune { return t.runes }

func (t *Text) View() (int, []rune)   { return 0, t.runes }
func (t *Text) Complete() bool        { return true }
func (t *Text) Fill(int) (int, error) { return 0, nil }
func (t *Text) Accept(int) bool       { return true }
func (t *Text) Position() int         { return len(t.runes) }
func (t *Text) SubSequence(from, to int) (string, error) {
	return string(t.runes[from:to]), nil
}

// Collect drains it and returns the segment texts.
func Collect(it Iterator) ([]string, error) {
	var out []string
	for it.Next() {
		out = append(out, it.Segment().Text)
	}
	return out, it.Err()
}

// Join concatenates segment texts.
func Join(segments []string) string {
	return strings.Join(segments, "")
}
