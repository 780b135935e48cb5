// Package merge turns an ordered SRX rule list into composite patterns: one
// tagged alternation over all break rules and one zero-width probe per run
// of exception rules.
//
// Break rules become (?<=before)(?=after)(?<tN>) alternatives. The trailing
// empty named group is the rule's tag, so after a match the caller knows
// which rule fired. Tags are looked up by name, so a group left over in a
// rule pattern cannot shift them. Alternatives keep declaration order, so when several break rules
// fire at the same position the first declared one wins.
//
// Exception rules are probed with \G anchored lookarounds at a candidate
// position. Their before patterns are finitized first because they sit
// inside a lookbehind.
package merge

import (
	"strconv"
	"strings"

	"github.com/dlclark/regexp2"

	"github.com/cognicore/segment/pkg/segment/internalerr"
	"github.com/cognicore/segment/pkg/segment/srx"
)

// DefaultLookbehindBound is the repetition bound used by Finitize when the
// caller does not pick one.
const DefaultLookbehindBound = 100

// Group is a maximal run of rules of the same kind.
type Group struct {
	Break bool
	Start int // index of the first rule in the effective list
	Rules []srx.Rule
}

// Groups partitions rules into maximal same-kind runs, preserving order.
func Groups(rules []srx.Rule) []Group {
	var groups []Group
	for i, r := range rules {
		if n := len(groups); n > 0 && groups[n-1].Break == r.IsBreak() {
			groups[n-1].Rules = append(groups[n-1].Rules, r)
			continue
		}
		groups = append(groups, Group{Break: r.IsBreak(), Start: i, Rules: []srx.Rule{r}})
	}
	return groups
}

// Prepare normalizes a rule pattern for embedding in a larger expression:
// literal blocks are expanded and capturing groups removed.
func Prepare(p string) string {
	return Decapture(NormalizeQuotes(p))
}

// Merged is the compiled form of a rule list. It is immutable and safe for
// concurrent use.
type Merged struct {
	breakRe    *regexp2.Regexp
	breakRules []srx.Rule
	exceptions []*regexp2.Regexp
	// scope[tag] is the number of exception groups declared before break
	// rule tag; exceptions[:scope[tag]] govern it.
	scope []int
	bound int
}

// Build groups and merges rules. bound is the repetition bound applied to
// exception before patterns. Any malformed rule pattern fails here.
func Build(rules []srx.Rule, bound int) (*Merged, error) {
	if bound <= 0 {
		return nil, internalerr.Config("lookbehind_bound", "must be positive, got %d", bound)
	}

	m := &Merged{bound: bound}
	var alternatives []string

	for _, g := range Groups(rules) {
		if g.Break {
			for _, r := range g.Rules {
				tag := "(?<" + tagName(len(m.breakRules)) + ">)"
				alternatives = append(alternatives, lookaround(Prepare(r.Before()), Prepare(r.After()))+tag)
				m.breakRules = append(m.breakRules, r)
				m.scope = append(m.scope, len(m.exceptions))
			}
			continue
		}

		probes := make([]string, len(g.Rules))
		for i, r := range g.Rules {
			probes[i] = lookaround(Finitize(Prepare(r.Before()), bound), Prepare(r.After()))
		}
		re, err := compile(`\G(?:`+strings.Join(probes, "|")+`)`, g.Rules, bound)
		if err != nil {
			return nil, err
		}
		m.exceptions = append(m.exceptions, re)
	}

	if len(alternatives) > 0 {
		re, err := compile(strings.Join(alternatives, "|"), m.breakRules, bound)
		if err != nil {
			return nil, err
		}
		m.breakRe = re
	}
	return m, nil
}

func tagName(i int) string { return "t" + strconv.Itoa(i) }

func lookaround(before, after string) string {
	var b strings.Builder
	if before != "" {
		b.WriteString("(?<=" + before + ")")
	}
	if after != "" {
		b.WriteString("(?=" + after + ")")
	}
	return b.String()
}

// compile compiles a merged expression. On failure it recompiles the member
// rules one by one so the error names the offending pattern.
func compile(expr string, members []srx.Rule, bound int) (*regexp2.Regexp, error) {
	re, err := regexp2.Compile(expr, regexp2.None)
	if err == nil {
		return re, nil
	}
	for _, r := range members {
		for _, p := range []string{r.Before(), r.After()} {
			if _, perr := regexp2.Compile(Prepare(p), regexp2.None); perr != nil {
				return nil, &internalerr.PatternError{Pattern: p, Err: perr}
			}
		}
	}
	return nil, &internalerr.PatternError{Pattern: expr, Err: err}
}

// HasBreaks reports whether the rule list contained any break rule.
func (m *Merged) HasBreaks() bool { return m.breakRe != nil }

// BreakRules returns the break rules in tag order.
func (m *Merged) BreakRules() []srx.Rule {
	return append([]srx.Rule(nil), m.breakRules...)
}

// ExceptionGroups returns the number of exception groups.
func (m *Merged) ExceptionGroups() int { return len(m.exceptions) }

// Scope returns how many exception groups govern break rule tag.
func (m *Merged) Scope(tag int) int { return m.scope[tag] }

// Bound returns the finitization bound the patterns were built with.
func (m *Merged) Bound() int { return m.bound }

// NextBreak finds the first candidate boundary at or after index from in
// text and reports which break rule fired.
func (m *Merged) NextBreak(text []rune, from int) (pos, tag int, ok bool, err error) {
	if m.breakRe == nil || from > len(text) {
		return 0, 0, false, nil
	}
	match, err := m.breakRe.FindRunesMatchStartingAt(text, from)
	if err != nil || match == nil {
		return 0, 0, false, err
	}
	for i := range m.breakRules {
		if g := match.GroupByName(tagName(i)); g != nil && len(g.Captures) > 0 {
			return match.Index, i, true, nil
		}
	}
	return match.Index, 0, true, nil
}

// Excepted reports whether an exception group in scope for break rule tag
// matches at pos.
func (m *Merged) Excepted(text []rune, pos, tag int) (bool, error) {
	for _, re := range m.exceptions[:m.scope[tag]] {
		match, err := re.FindRunesMatchStartingAt(text, pos)
		if err != nil {
			return false, err
		}
		if match != nil && match.Index == pos {
			return true, nil
		}
	}
	return false, nil
}
