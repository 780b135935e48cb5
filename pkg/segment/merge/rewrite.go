package merge

import (
	"strconv"
	"strings"
	"unicode"
)

const quoteMeta = `\.^$|?*+()[]{}`

// NormalizeQuotes replaces \Q...\E literal blocks with individually escaped
// characters, so later rewrites only ever see escaped literals. An
// unterminated \Q runs to the end of the pattern.
func NormalizeQuotes(p string) string {
	if !strings.Contains(p, `\Q`) {
		return p
	}

	var b strings.Builder
	rs := []rune(p)
	for i := 0; i < len(rs); i++ {
		if rs[i] != '\\' || i+1 >= len(rs) {
			b.WriteRune(rs[i])
			continue
		}
		if rs[i+1] != 'Q' {
			b.WriteRune(rs[i])
			b.WriteRune(rs[i+1])
			i++
			continue
		}

		i += 2
		for ; i < len(rs); i++ {
			if rs[i] == '\\' && i+1 < len(rs) && rs[i+1] == 'E' {
				i++
				break
			}
			if strings.ContainsRune(quoteMeta, rs[i]) {
				b.WriteByte('\\')
			}
			b.WriteRune(rs[i])
		}
	}
	return b.String()
}

// Decapture turns every capturing group, plain or named, into a
// non-capturing one. Lookaround, atomic and inline option groups are left
// alone; escapes and character classes are copied verbatim.
func Decapture(p string) string {
	var b strings.Builder
	rs := []rune(p)

	for i := 0; i < len(rs); i++ {
		r := rs[i]
		switch {
		case r == '\\' && i+1 < len(rs):
			b.WriteRune(r)
			b.WriteRune(rs[i+1])
			i++
			continue
		case r == '[':
			end := classEnd(rs, i)
			b.WriteString(string(rs[i : end+1]))
			i = end
			continue
		case r == '(':
			if i+1 >= len(rs) || rs[i+1] != '?' {
				b.WriteString("(?:")
				continue
			}
			if end, ok := namedGroupEnd(rs, i); ok {
				b.WriteString("(?:")
				i = end
				continue
			}
		}
		b.WriteRune(r)
	}
	return b.String()
}

// namedGroupEnd reports whether rs[open:] starts a named capturing group,
// (?<name>, (?P<name> or (?'name', and returns the index of the closing
// delimiter of the name.
func namedGroupEnd(rs []rune, open int) (int, bool) {
	i := open + 2
	if i < len(rs) && rs[i] == 'P' {
		i++
	}
	if i+1 >= len(rs) {
		return 0, false
	}

	var closer rune
	switch rs[i] {
	case '<':
		closer = '>'
	case '\'':
		closer = '\''
	default:
		return 0, false
	}
	if !isNameStart(rs[i+1]) {
		// (?<= and (?<! are lookbehinds.
		return 0, false
	}
	for j := i + 1; j < len(rs); j++ {
		if rs[j] == closer {
			return j, true
		}
	}
	return 0, false
}

func isNameStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// Finitize bounds open-ended repetition so the pattern has a maximum match
// length and can sit inside a lookbehind on back-ends that need one:
// * becomes {0,k}, + becomes {1,k} and {n,} becomes {n,k}. Lazy suffixes are
// kept; possessive suffixes are dropped since the back-end has none.
func Finitize(p string, k int) string {
	var b strings.Builder
	rs := []rune(p)
	afterQuantifier := false
	bound := strconv.Itoa(k)

	for i := 0; i < len(rs); i++ {
		r := rs[i]
		quantifier := false
		switch {
		case r == '\\' && i+1 < len(rs):
			b.WriteRune(r)
			b.WriteRune(rs[i+1])
			i++
		case r == '[':
			end := classEnd(rs, i)
			b.WriteString(string(rs[i : end+1]))
			i = end
		case r == '+' && afterQuantifier:
			// possessive
		case r == '?' && afterQuantifier:
			b.WriteRune(r)
		case r == '*':
			b.WriteString("{0," + bound + "}")
			quantifier = true
		case r == '+':
			b.WriteString("{1," + bound + "}")
			quantifier = true
		case r == '?':
			b.WriteRune(r)
			quantifier = true
		case r == '{':
			lo, hi, end, ok := parseBraces(rs, i)
			if !ok {
				b.WriteRune(r)
				break
			}
			if hi < 0 {
				if lo > k {
					b.WriteString("{" + strconv.Itoa(lo) + "," + strconv.Itoa(lo) + "}")
				} else {
					b.WriteString("{" + strconv.Itoa(lo) + "," + bound + "}")
				}
			} else {
				b.WriteString(string(rs[i : end+1]))
			}
			i = end
			quantifier = true
		default:
			b.WriteRune(r)
		}
		afterQuantifier = quantifier
	}
	return b.String()
}

// classEnd returns the index of the ] closing the character class opened at
// rs[open], or the last index when the class is unterminated. A ] right
// after [ or [^ is literal, and so is any [ that does not start a -[...]
// subtraction.
func classEnd(rs []rune, open int) int {
	i := open + 1
	if i < len(rs) && rs[i] == '^' {
		i++
	}
	if i < len(rs) && rs[i] == ']' {
		i++
	}
	for ; i < len(rs); i++ {
		switch {
		case rs[i] == '\\':
			i++
		case rs[i] == '-' && i+1 < len(rs) && rs[i+1] == '[':
			i = classEnd(rs, i+1)
		case rs[i] == ']':
			return i
		}
	}
	return len(rs) - 1
}

// parseBraces parses a {n}, {n,} or {n,m} quantifier starting at rs[open].
// hi is -1 for the open-ended form.
func parseBraces(rs []rune, open int) (lo, hi, end int, ok bool) {
	i := open + 1
	start := i
	for i < len(rs) && rs[i] >= '0' && rs[i] <= '9' {
		i++
	}
	if i == start || i >= len(rs) {
		return 0, 0, 0, false
	}
	lo, _ = strconv.Atoi(string(rs[start:i]))

	switch rs[i] {
	case '}':
		return lo, lo, i, true
	case ',':
	default:
		return 0, 0, 0, false
	}

	i++
	start = i
	for i < len(rs) && rs[i] >= '0' && rs[i] <= '9' {
		i++
	}
	if i >= len(rs) || rs[i] != '}' {
		return 0, 0, 0, false
	}
	if i == start {
		return lo, -1, i, true
	}
	hi, _ = strconv.Atoi(string(rs[start:i]))
	return lo, hi, i, true
}
