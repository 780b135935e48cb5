// Package srx holds the SRX rule model: break and exception rules grouped
// into language rules, and a document mapping language codes to them.
//
// A Document is built once by whoever reads the rule source and is read-only
// afterwards. Its pattern cache is the only mutable part and is safe for
// concurrent use.
package srx

import (
	"encoding/binary"
	"fmt"

	"github.com/dlclark/regexp2"
	"github.com/zeebo/blake3"

	"github.com/cognicore/segment/pkg/segment/internalerr"
	"github.com/cognicore/segment/pkg/segment/patterncache"
)

// Rule is a single break or exception rule. A break rule marks a candidate
// boundary between text matching Before and text matching After; an
// exception rule suppresses a boundary at the same adjacency.
type Rule struct {
	breaking bool
	before   string
	after    string
}

// NewRule creates a rule. Empty patterns match the empty string.
func NewRule(isBreak bool, before, after string) Rule {
	return Rule{breaking: isBreak, before: before, after: after}
}

// Break is shorthand for NewRule(true, before, after).
func Break(before, after string) Rule { return NewRule(true, before, after) }

// Exception is shorthand for NewRule(false, before, after).
func Exception(before, after string) Rule { return NewRule(false, before, after) }

func (r Rule) IsBreak() bool  { return r.breaking }
func (r Rule) Before() string { return r.before }
func (r Rule) After() string  { return r.after }

func (r Rule) String() string {
	kind := "exception"
	if r.breaking {
		kind = "break"
	}
	return fmt.Sprintf("%s(%q, %q)", kind, r.before, r.after)
}

// LanguageRule is a named, ordered rule list.
type LanguageRule struct {
	name  string
	rules []Rule
}

// NewLanguageRule creates a language rule. The rules slice is copied.
func NewLanguageRule(name string, rules ...Rule) *LanguageRule {
	return &LanguageRule{name: name, rules: append([]Rule(nil), rules...)}
}

func (lr *LanguageRule) Name() string { return lr.name }

// Rules returns a copy of the rule list.
func (lr *LanguageRule) Rules() []Rule {
	return append([]Rule(nil), lr.rules...)
}

// LanguageMap associates a language code pattern with a language rule.
type LanguageMap struct {
	source  string
	pattern *regexp2.Regexp
	rule    *LanguageRule
}

// NewLanguageMap compiles pattern, which must match a whole language code.
func NewLanguageMap(pattern string, rule *LanguageRule) (LanguageMap, error) {
	re, err := regexp2.Compile(`\A(?:`+pattern+`)\z`, regexp2.None)
	if err != nil {
		return LanguageMap{}, &internalerr.PatternError{Pattern: pattern, Err: err}
	}
	return LanguageMap{source: pattern, pattern: re, rule: rule}, nil
}

func (m LanguageMap) Pattern() string             { return m.source }
func (m LanguageMap) LanguageRule() *LanguageRule { return m.rule }

// Matches reports whether code is matched in full by the map's pattern.
func (m LanguageMap) Matches(code string) bool {
	ok, err := m.pattern.MatchString(code)
	return err == nil && ok
}

// Document is an ordered list of language maps plus the cascade policy.
type Document struct {
	cascade bool
	maps    []LanguageMap
	cache   *patterncache.Cache
}

// DocumentOption configures a Document.
type DocumentOption func(*Document)

// WithCascade sets the cascade policy. Documents cascade by default.
func WithCascade(cascade bool) DocumentOption {
	return func(d *Document) { d.cascade = cascade }
}

// NewDocument creates a document over the given maps.
func NewDocument(maps []LanguageMap, opts ...DocumentOption) *Document {
	d := &Document{
		cascade: true,
		maps:    append([]LanguageMap(nil), maps...),
		cache:   patterncache.New(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Document) Cascade() bool { return d.cascade }

// LanguageMaps returns a copy of the map list.
func (d *Document) LanguageMaps() []LanguageMap {
	return append([]LanguageMap(nil), d.maps...)
}

// Cache returns the document-scoped pattern cache.
func (d *Document) Cache() *patterncache.Cache { return d.cache }

// LanguageRules returns the language rules applying to code: every matching
// map in declared order when cascading, otherwise only the first match.
func (d *Document) LanguageRules(code string) []*LanguageRule {
	var out []*LanguageRule
	for _, m := range d.maps {
		if !m.Matches(code) {
			continue
		}
		out = append(out, m.rule)
		if !d.cascade {
			break
		}
	}
	return out
}

// Rules returns the effective ordered rule list for code.
func (d *Document) Rules(code string) []Rule {
	var out []Rule
	for _, lr := range d.LanguageRules(code) {
		out = append(out, lr.rules...)
	}
	return out
}

// Fingerprint hashes an ordered rule list. Equal lists hash equally, so it
// can stand in for the list's identity in cache keys.
func Fingerprint(rules []Rule) [32]byte {
	h := blake3.New()
	var n [8]byte
	writeString := func(s string) {
		binary.LittleEndian.PutUint64(n[:], uint64(len(s)))
		h.Write(n[:])
		h.Write([]byte(s))
	}
	for _, r := range rules {
		if r.breaking {
			h.Write([]byte{1})
		} else {
			h.Write([]byte{0})
		}
		writeString(r.before)
		writeString(r.after)
	}

	var sum [32]byte
	copy(sum[:], h.Sum(nil))
	return sum
}
