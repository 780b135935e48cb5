package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sliceIterator struct {
	segs []Segment
	i    int
	err  error
}

func (s *sliceIterator) Next() bool {
	if s.i >= len(s.segs) {
		return false
	}
	s.i++
	return true
}

func (s *sliceIterator) Segment() Segment { return s.segs[s.i-1] }
func (s *sliceIterator) Err() error       { return s.err }

func TestText_Source(t *testing.T) {
	txt := NewText("żółw ma")

	base, runes := txt.View()
	assert.Equal(t, 0, base)
	assert.Len(t, runes, 7)
	assert.True(t, txt.Complete())
	assert.True(t, txt.Accept(7))
	assert.Equal(t, 7, txt.Position())

	n, err := txt.Fill(0)
	require.NoError(t, err)
	assert.Zero(t, n)

	sub, err := txt.SubSequence(0, 4)
	require.NoError(t, err)
	assert.Equal(t, "żółw", sub)
}

func TestCollect(t *testing.T) {
	it := &sliceIterator{segs: []Segment{{Text: "a."}, {Text: " b"}}}
	got, err := Collect(it)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.", " b"}, got)
	assert.Equal(t, "a. b", Join(got))
}

func TestCollect_KeepsSegmentsBeforeError(t *testing.T) {
	boom := errors.New("boom")
	it := &sliceIterator{segs: []Segment{{Text: "a."}}, err: boom}
	got, err := Collect(it)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"a."}, got)
}
