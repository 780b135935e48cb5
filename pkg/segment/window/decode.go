package window

import (
	"io"
	"strings"

	"golang.org/x/text/encoding/htmlindex"

	"github.com/cognicore/segment/pkg/segment/internalerr"
)

// Decode wraps r so it yields UTF-8 for a stream in the named charset.
// Names follow the WHATWG encoding labels ("windows-1250", "iso-8859-2",
// "shift_jis", ...). An empty name or any UTF-8 label returns r unchanged.
func Decode(r io.Reader, charset string) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(charset)) {
	case "", "utf-8", "utf8":
		return r, nil
	}

	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, internalerr.Config("encoding", "unknown charset %q", charset)
	}
	return enc.NewDecoder().Reader(r), nil
}
