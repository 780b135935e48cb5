// Package window provides random access over a pull-based character stream
// in bounded memory.
//
// A Sequence keeps the most recently read characters in a fixed ring
// buffer and exposes them by absolute index. Only the last bufferSize
// characters are addressable; anything older fails with
// internalerr.ErrBufferTooSmall. The buffer therefore has to be larger than
// the longest segment plus the longest span any rule looks at.
package window

import (
	"bufio"
	"errors"
	"io"
	"log/slog"

	"github.com/cognicore/segment/pkg/segment/internalerr"
)

// Unknown is reported by Len until the end of the stream is reached.
const Unknown = -1

// DefaultMargin is the number of characters that must follow a position
// before a match there is trusted.
const DefaultMargin = 128

// Sequence is a sliding window over a stream of runes. It is not safe for
// concurrent use.
type Sequence struct {
	src    io.RuneReader
	ring   []rune
	size   int
	pos    int // absolute number of runes read so far
	length int // total length, Unknown until known
	eof    bool
	margin int
	logger *slog.Logger

	view     []rune
	viewBase int
	viewPos  int
}

// Option configures a Sequence.
type Option func(*Sequence)

// WithMargin sets how many characters must be buffered past a position
// before Accept trusts it. It must be at least 1 and cover the longest
// span a rule's after pattern looks at.
func WithMargin(m int) Option {
	return func(s *Sequence) { s.margin = m }
}

// WithLength declares the total stream length up front.
func WithLength(n int) Option {
	return func(s *Sequence) { s.length = n }
}

// WithLogger sets the logger for pull events.
func WithLogger(l *slog.Logger) Option {
	return func(s *Sequence) { s.logger = l }
}

// New creates a Sequence reading runes from r. r is not closed.
func New(r io.Reader, bufferSize int, opts ...Option) (*Sequence, error) {
	if bufferSize <= 0 {
		return nil, internalerr.Config("buffer_size", "must be positive, got %d", bufferSize)
	}

	rr, ok := r.(io.RuneReader)
	if !ok {
		rr = bufio.NewReader(r)
	}
	s := &Sequence{
		src:     rr,
		ring:    make([]rune, bufferSize),
		size:    bufferSize,
		length:  Unknown,
		margin:  DefaultMargin,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		viewPos: -1,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.margin < 1 || s.margin >= bufferSize {
		return nil, internalerr.Config("margin", "must be in [1, %d), got %d", bufferSize, s.margin)
	}
	if s.length < Unknown {
		return nil, internalerr.Config("length", "must be non-negative, got %d", s.length)
	}
	return s, nil
}

// Len returns the total length once known, Unknown before.
func (s *Sequence) Len() int {
	if s.Complete() {
		return s.pos
	}
	return s.length
}

// Size returns the buffer capacity.
func (s *Sequence) Size() int { return s.size }

// Margin returns the acceptance margin.
func (s *Sequence) Margin() int { return s.margin }

// Position returns the number of characters read so far.
func (s *Sequence) Position() int { return s.pos }

// Floor returns the lowest index still addressable.
func (s *Sequence) Floor() int {
	if s.pos > s.size {
		return s.pos - s.size
	}
	return 0
}

// Complete reports whether the whole stream has been read.
func (s *Sequence) Complete() bool {
	return s.eof || (s.length != Unknown && s.pos >= s.length)
}

// Accept reports whether a match at pos can be trusted: either margin
// characters follow it in the buffer or nothing follows it at all.
func (s *Sequence) Accept(pos int) bool {
	return s.Complete() || pos+s.margin <= s.pos
}

// CharAt returns the character at absolute index i, reading ahead if
// needed. Reading ahead may push older characters out of the buffer.
func (s *Sequence) CharAt(i int) (rune, error) {
	if i < 0 {
		return 0, internalerr.ErrOutOfRange
	}
	if err := s.reach(i + 1); err != nil {
		return 0, err
	}
	if i >= s.pos {
		return 0, internalerr.ErrOutOfRange
	}
	if err := s.check(i); err != nil {
		return 0, err
	}
	return s.ring[i%s.size], nil
}

// SubSequence returns the characters in [from, to) as a string.
func (s *Sequence) SubSequence(from, to int) (string, error) {
	if from > to || from < 0 {
		return "", internalerr.ErrOutOfRange
	}
	if err := s.reach(to); err != nil {
		return "", err
	}
	if to > s.pos {
		return "", internalerr.ErrOutOfRange
	}
	if err := s.check(from); err != nil {
		return "", err
	}

	out := make([]rune, 0, to-from)
	for i := from; i < to; i++ {
		out = append(out, s.ring[i%s.size])
	}
	return string(out), nil
}

// View returns the buffered characters [Floor(), Position()) as one slice
// together with the absolute index of its first element. The slice is
// reused and only valid until the next read.
func (s *Sequence) View() (base int, text []rune) {
	if s.viewPos == s.pos {
		return s.viewBase, s.view
	}

	floor := s.Floor()
	s.view = s.view[:0]
	for i := floor; i < s.pos; i++ {
		s.view = append(s.view, s.ring[i%s.size])
	}
	s.viewBase, s.viewPos = floor, s.pos
	return s.viewBase, s.view
}

// Fill reads as many characters as fit while keeping index keep and
// everything after it addressable. It returns the number of characters
// read. When keep would have to be dropped to make room, Fill fails with
// ErrBufferTooSmall.
func (s *Sequence) Fill(keep int) (int, error) {
	if s.Complete() {
		return 0, nil
	}
	if keep > s.pos {
		keep = s.pos
	}
	if err := s.check(keep); err != nil {
		return 0, err
	}
	room := s.size - (s.pos - keep)
	if room <= 0 {
		return 0, &internalerr.WindowError{Index: keep, Floor: s.pos - s.size + 1, Size: s.size}
	}
	return s.pull(room)
}

// reach reads until at least n characters are buffered or the stream ends.
func (s *Sequence) reach(n int) error {
	for s.pos < n && !s.Complete() {
		if _, err := s.pull(n - s.pos); err != nil {
			return err
		}
	}
	return nil
}

func (s *Sequence) check(i int) error {
	if floor := s.Floor(); i < floor {
		return &internalerr.WindowError{Index: i, Floor: floor, Size: s.size}
	}
	return nil
}

// pull reads up to n runes into the ring, overwriting the oldest ones.
func (s *Sequence) pull(n int) (int, error) {
	read := 0
	for read < n {
		if s.length != Unknown && s.pos >= s.length {
			break
		}
		r, _, err := s.src.ReadRune()
		if errors.Is(err, io.EOF) {
			s.eof = true
			if s.length != Unknown && s.pos < s.length {
				return read, &internalerr.IOError{Op: "read stream", Err: io.ErrUnexpectedEOF}
			}
			s.length = s.pos
			break
		}
		if err != nil {
			return read, &internalerr.IOError{Op: "read stream", Err: err}
		}
		s.ring[s.pos%s.size] = r
		s.pos++
		read++
	}

	s.logger.Debug("window pull", "read", read, "position", s.pos, "floor", s.Floor(), "complete", s.Complete())
	return read, nil
}
