// Package segment splits text into segments using SRX rules.
//
// A Segmenter binds a rule document and a language code to one of two
// engines. The merged engine (the default) scans all break rules at once
// and works in bounded memory over streams. The accurate engine runs one
// matcher per rule and handles overlapping rules exactly, but reads the
// whole input first.
//
//	seg, err := segment.New(srx.DefaultDocument(), "en")
//	...
//	it := seg.Split("Mr. Smith went home. He slept.")
//	for it.Next() {
//		fmt.Printf("%q\n", it.Segment().Text)
//	}
package segment

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/oklog/ulid/v2"

	"github.com/cognicore/segment/pkg/segment/engine"
	"github.com/cognicore/segment/pkg/segment/engine/accurate"
	"github.com/cognicore/segment/pkg/segment/engine/merged"
	"github.com/cognicore/segment/pkg/segment/internalerr"
	"github.com/cognicore/segment/pkg/segment/merge"
	"github.com/cognicore/segment/pkg/segment/patterncache"
	"github.com/cognicore/segment/pkg/segment/srx"
	"github.com/cognicore/segment/pkg/segment/window"
)

// Engine selects a segmentation algorithm.
type Engine int

const (
	// Merged scans a single combined pattern and supports streaming.
	Merged Engine = iota
	// Accurate runs one matcher per rule over materialized text.
	Accurate
)

func (e Engine) String() string {
	switch e {
	case Merged:
		return "merged"
	case Accurate:
		return "accurate"
	default:
		return fmt.Sprintf("Engine(%d)", int(e))
	}
}

// ParseEngine maps an engine name to an Engine.
func ParseEngine(name string) (Engine, error) {
	switch name {
	case "", "merged", "fast":
		return Merged, nil
	case "accurate":
		return Accurate, nil
	}
	return 0, internalerr.Config("engine", "unknown engine %q", name)
}

// Defaults for the merged engine tunables.
const (
	DefaultBufferSize = 64 * 1024
	DefaultMargin     = window.DefaultMargin
)

// Segmenter produces segment iterators for one document and language. It
// is safe for concurrent use; the iterators it returns are not.
type Segmenter struct {
	doc        *srx.Document
	lang       string
	engine     Engine
	bufferSize int
	margin     int
	bound      int
	logger     *slog.Logger

	patterns []accurate.Pattern
	merged   *merge.Merged
}

type options struct {
	engine     Engine
	bufferSize int
	margin     int
	bound      int
	logger     *slog.Logger
	streamOnly []string // merged-only tunables that were set
}

// Option configures a Segmenter.
type Option func(*options)

// WithEngine selects the engine. The default is Merged.
func WithEngine(e Engine) Option {
	return func(o *options) { o.engine = e }
}

// WithBufferSize sets the sliding window capacity used by Stream.
func WithBufferSize(n int) Option {
	return func(o *options) {
		o.bufferSize = n
		o.streamOnly = append(o.streamOnly, "buffer_size")
	}
}

// WithMargin sets how many characters must follow a candidate boundary
// before the merged engine trusts it while streaming. It must be at least 1
// and no shorter than the longest text a rule's after pattern matches, or
// boundaries where a read ends can be missed.
func WithMargin(n int) Option {
	return func(o *options) {
		o.margin = n
		o.streamOnly = append(o.streamOnly, "margin")
	}
}

// WithLookbehindBound sets the repetition bound substituted for unbounded
// quantifiers in exception lookbehinds.
func WithLookbehindBound(k int) Option {
	return func(o *options) {
		o.bound = k
		o.streamOnly = append(o.streamOnly, "lookbehind_bound")
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New creates a Segmenter for the rules doc applies to lang. All rule
// patterns are compiled here, or fetched from the document's cache, so a
// malformed rule fails construction.
func New(doc *srx.Document, lang string, opts ...Option) (*Segmenter, error) {
	o := options{
		engine:     Merged,
		bufferSize: DefaultBufferSize,
		margin:     DefaultMargin,
		bound:      merge.DefaultLookbehindBound,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if doc == nil {
		return nil, internalerr.Config("document", "must not be nil")
	}

	switch o.engine {
	case Accurate:
		if len(o.streamOnly) > 0 {
			return nil, internalerr.Config(o.streamOnly[0], "not supported by the accurate engine")
		}
	case Merged:
		if o.bufferSize <= 0 {
			return nil, internalerr.Config("buffer_size", "must be positive, got %d", o.bufferSize)
		}
		if o.margin < 1 || o.margin >= o.bufferSize {
			return nil, internalerr.Config("margin", "must be in [1, %d), got %d", o.bufferSize, o.margin)
		}
		if o.bound <= 0 {
			return nil, internalerr.Config("lookbehind_bound", "must be positive, got %d", o.bound)
		}
	default:
		return nil, internalerr.Config("engine", "unknown engine %v", o.engine)
	}

	s := &Segmenter{
		doc:        doc,
		lang:       lang,
		engine:     o.engine,
		bufferSize: o.bufferSize,
		margin:     o.margin,
		bound:      o.bound,
		logger:     o.logger.With("engine", o.engine.String(), "language", lang),
	}
	if err := s.compile(); err != nil {
		return nil, fmt.Errorf("compile rules for %q: %w", lang, err)
	}
	return s, nil
}

func (s *Segmenter) compile() error {
	rules := s.doc.Rules(s.lang)
	key := patterncache.Key{Kind: s.engine.String(), Rules: srx.Fingerprint(rules)}

	var compute func() (any, error)
	switch s.engine {
	case Accurate:
		compute = func() (any, error) { return accurate.Compile(rules) }
	default:
		key.Param = s.bound
		compute = func() (any, error) { return merge.Build(rules, s.bound) }
	}

	before := s.doc.Cache().Stats().Misses
	v, err := s.doc.Cache().GetOrCompute(key, compute)
	if err != nil {
		return err
	}
	s.logger.Debug("rules ready", "rules", len(rules), "compiled", s.doc.Cache().Stats().Misses > before)

	switch p := v.(type) {
	case []accurate.Pattern:
		s.patterns = p
	case *merge.Merged:
		s.merged = p
	}
	return nil
}

// Engine returns the engine in use.
func (s *Segmenter) Engine() Engine { return s.engine }

// Language returns the language code the rules were selected for.
func (s *Segmenter) Language() string { return s.lang }

// Rules returns the effective rule list.
func (s *Segmenter) Rules() []srx.Rule { return s.doc.Rules(s.lang) }

// Split segments materialized text.
func (s *Segmenter) Split(text string) engine.Iterator {
	logger := s.runLogger()
	if s.engine == Accurate {
		return accurate.New(s.patterns, []rune(text), logger)
	}
	return merged.New(s.merged, engine.NewText(text), merged.WithLogger(logger))
}

// SplitAll segments text and returns every segment's text.
func (s *Segmenter) SplitAll(text string) ([]string, error) {
	return engine.Collect(s.Split(text))
}

// Stream segments text read from r. The merged engine reads through a
// sliding window of the configured buffer size; the accurate engine reads
// r to the end first. r is not closed.
func (s *Segmenter) Stream(r io.Reader) (engine.Iterator, error) {
	logger := s.runLogger()
	if s.engine == Accurate {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, &internalerr.IOError{Op: "read stream", Err: err}
		}
		return accurate.New(s.patterns, []rune(string(data)), logger), nil
	}

	seq, err := window.New(r, s.bufferSize, window.WithMargin(s.margin), window.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	return merged.New(s.merged, seq, merged.WithContext(s.margin), merged.WithLogger(logger)), nil
}

func (s *Segmenter) runLogger() *slog.Logger {
	return s.logger.With("run", ulid.Make().String())
}
