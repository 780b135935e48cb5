// Package accurate implements the independent-matcher engine: every rule
// gets its own matcher, and at each step the matcher with the smallest
// break position decides. Overlapping break and exception rules are handled
// exactly in declaration order, at the cost of needing the whole text.
package accurate

import (
	"io"
	"log/slog"

	"github.com/dlclark/regexp2"

	"github.com/cognicore/segment/pkg/segment/engine"
	"github.com/cognicore/segment/pkg/segment/internalerr"
	"github.com/cognicore/segment/pkg/segment/merge"
	"github.com/cognicore/segment/pkg/segment/srx"
)

// Pattern is the compiled form of one rule: the before pattern followed by
// a lookahead for the after pattern. A match ends at the candidate break.
type Pattern struct {
	Rule srx.Rule
	re   *regexp2.Regexp
}

// Compile compiles one pattern per rule, in order.
func Compile(rules []srx.Rule) ([]Pattern, error) {
	out := make([]Pattern, len(rules))
	for i, r := range rules {
		expr := ""
		if b := merge.Prepare(r.Before()); b != "" {
			expr = "(?:" + b + ")"
		}
		if a := merge.Prepare(r.After()); a != "" {
			expr += "(?=" + a + ")"
		}
		re, err := regexp2.Compile(expr, regexp2.None)
		if err != nil {
			return nil, &internalerr.PatternError{Pattern: expr, Err: err}
		}
		out[i] = Pattern{Rule: r, re: re}
	}
	return out, nil
}

// matcher tracks the current match of one rule.
type matcher struct {
	pattern *Pattern
	start   int // start of the before match
	brk     int // candidate break position
	next    int // where the following search begins
}

// find searches from index from and reports whether a match was found.
func (m *matcher) find(text []rune, from int) (bool, error) {
	if from > len(text) {
		return false, nil
	}
	match, err := m.pattern.re.FindRunesMatchStartingAt(text, from)
	if err != nil || match == nil {
		return false, err
	}
	m.start = match.Index
	m.brk = match.Index + match.Length
	m.next = m.brk
	if match.Length == 0 {
		m.next++
	}
	return true, nil
}

// Iterator segments materialized text.
type Iterator struct {
	text     []rune
	matchers []*matcher // active, in declaration order
	prevEnd  int
	started  bool
	done     bool
	seg      engine.Segment
	err      error
	count    int
	logger   *slog.Logger
}

// New creates an iterator over text using precompiled patterns. patterns
// is only read.
func New(patterns []Pattern, text []rune, logger *slog.Logger) *Iterator {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	it := &Iterator{text: text, logger: logger}
	for i := range patterns {
		it.matchers = append(it.matchers, &matcher{pattern: &patterns[i]})
	}
	return it
}

// Next implements engine.Iterator.
func (it *Iterator) Next() bool {
	if it.done {
		return false
	}
	seg, ok, err := it.advance()
	if err != nil || !ok {
		it.done = true
		it.err = err
		it.logger.Debug("accurate iterator finished", "segments", it.count, "error", err)
		return false
	}
	it.seg = seg
	it.count++
	return true
}

// Segment implements engine.Iterator.
func (it *Iterator) Segment() engine.Segment { return it.seg }

// Err implements engine.Iterator.
func (it *Iterator) Err() error { return it.err }

// advance produces the next segment, or ok=false at the end of the text.
func (it *Iterator) advance() (seg engine.Segment, ok bool, err error) {
	if !it.started {
		it.started = true
		if err := it.retain(func(m *matcher) (bool, error) { return m.find(it.text, 0) }); err != nil {
			return seg, false, err
		}
	}

	for len(it.matchers) > 0 {
		// Ties go to the earliest declared rule.
		first := it.matchers[0]
		for _, m := range it.matchers[1:] {
			if m.brk < first.brk {
				first = m
			}
		}
		pos := first.brk

		if first.pattern.Rule.IsBreak() && pos > it.prevEnd {
			if err := it.cut(pos); err != nil {
				return seg, false, err
			}
			if err := it.move(pos); err != nil {
				return seg, false, err
			}
			return it.emit(pos), true, nil
		}
		if err := it.move(pos); err != nil {
			return seg, false, err
		}
	}

	if it.prevEnd < len(it.text) {
		return it.emit(len(it.text)), true, nil
	}
	return seg, false, nil
}

func (it *Iterator) emit(end int) engine.Segment {
	seg := engine.Segment{Text: string(it.text[it.prevEnd:end]), Start: it.prevEnd, End: end}
	it.prevEnd = end
	return seg
}

// cut restarts, from the new boundary, every matcher whose match began
// before it, so no match straddles a confirmed boundary.
func (it *Iterator) cut(pos int) error {
	return it.retain(func(m *matcher) (bool, error) {
		if m.start < pos {
			return m.find(it.text, pos)
		}
		return true, nil
	})
}

// move advances every matcher at or behind pos past it.
func (it *Iterator) move(pos int) error {
	return it.retain(func(m *matcher) (bool, error) {
		for m.brk <= pos {
			found, err := m.find(it.text, m.next)
			if err != nil || !found {
				return false, err
			}
		}
		return true, nil
	})
}

// retain applies step to every active matcher and drops those it reports
// as exhausted.
func (it *Iterator) retain(step func(*matcher) (bool, error)) error {
	kept := it.matchers[:0]
	for _, m := range it.matchers {
		ok, err := step(m)
		if err != nil {
			return err
		}
		if ok {
			kept = append(kept, m)
		}
	}
	it.matchers = kept
	return nil
}
