// Package merged implements the merged-pattern engine. All break rules are
// scanned at once through one tagged alternation, left to right and only
// once, and each candidate is checked against the exception groups in
// scope for the rule that fired.
//
// The engine reads through engine.Source, so it runs in bounded memory
// over a window.Sequence. When several break rules fire at the same
// position, only the first declared one is considered; the accurate engine
// can differ from this one when break rules overlap.
package merged

import (
	"io"
	"log/slog"

	"github.com/cognicore/segment/pkg/segment/engine"
	"github.com/cognicore/segment/pkg/segment/merge"
)

// Iterator segments a Source.
type Iterator struct {
	src     engine.Source
	pattern *merge.Merged
	margin  int // context kept behind the previous boundary for lookbehind
	prevEnd int
	search  int // absolute index the next candidate search starts at
	done    bool
	seg     engine.Segment
	err     error
	count   int
	logger  *slog.Logger
}

// Option configures an Iterator.
type Option func(*Iterator)

// WithContext sets how many characters before the previous boundary stay
// addressable for lookbehind when more input is pulled.
func WithContext(n int) Option {
	return func(it *Iterator) { it.margin = n }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(it *Iterator) { it.logger = l }
}

// New creates an iterator over src. pattern is shared and only read.
func New(pattern *merge.Merged, src engine.Source, opts ...Option) *Iterator {
	it := &Iterator{
		src:     src,
		pattern: pattern,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(it)
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
		it.logger.Debug("merged iterator finished", "segments", it.count, "error", err)
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

// advance produces the next segment, or ok=false at the end of the input.
func (it *Iterator) advance() (engine.Segment, bool, error) {
	for {
		base, text := it.src.View()
		pos, tag, found, err := it.pattern.NextBreak(text, it.search-base)
		if err != nil {
			return engine.Segment{}, false, err
		}

		if found {
			at := base + pos
			if !it.src.Accept(at) {
				if err := it.pull(); err != nil {
					return engine.Segment{}, false, err
				}
				continue
			}
			it.search = at + 1
			if at == it.prevEnd {
				continue
			}
			excepted, err := it.pattern.Excepted(text, pos, tag)
			if err != nil {
				return engine.Segment{}, false, err
			}
			if excepted {
				continue
			}
			seg, err := it.emit(at)
			return seg, err == nil, err
		}

		if it.src.Complete() {
			end := it.src.Position()
			if it.prevEnd >= end {
				return engine.Segment{}, false, nil
			}
			seg, err := it.emit(end)
			return seg, err == nil, err
		}

		// Every position followed by a full margin has been decided.
		if decided := it.src.Position() - it.margin + 1; decided > it.search {
			it.search = decided
		}
		if err := it.pull(); err != nil {
			return engine.Segment{}, false, err
		}
	}
}

func (it *Iterator) pull() error {
	keep := it.prevEnd - it.margin
	if keep < 0 {
		keep = 0
	}
	_, err := it.src.Fill(keep)
	return err
}

func (it *Iterator) emit(end int) (engine.Segment, error) {
	text, err := it.src.SubSequence(it.prevEnd, end)
	if err != nil {
		return engine.Segment{}, err
	}
	seg := engine.Segment{Text: text, Start: it.prevEnd, End: end}
	it.prevEnd = end
	return seg, nil
}
