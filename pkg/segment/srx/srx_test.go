package srx

import (
	"errors"
	"testing"

	"github.com/cognicore/segment/pkg/segment/internalerr"
)

func TestCascade(t *testing.T) {
	r1 := NewLanguageRule("R1", Break(`a`, ``))
	r2 := NewLanguageRule("R2", Break(`b`, ``))
	r3 := NewLanguageRule("R3", Break(`c`, ``), Exception(`d`, ``))

	maps := []LanguageMap{
		mustMap("aaa", r1),
		mustMap("ab", r2),
		mustMap("a+", r3),
	}

	tests := []struct {
		name    string
		cascade bool
		code    string
		want    []string
	}{
		{"cascade", true, "aaa", []string{"R1", "R3"}},
		{"no cascade", false, "aaa", []string{"R1"}},
		{"second only", true, "ab", []string{"R2"}},
		{"partial match is not a match", true, "aaab", nil},
		{"unknown", true, "xyz", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := NewDocument(maps, WithCascade(tt.cascade))
			got := doc.LanguageRules(tt.code)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d language rules, want %d", len(got), len(tt.want))
			}
			for i, lr := range got {
				if lr.Name() != tt.want[i] {
					t.Errorf("rule %d: got %s, want %s", i, lr.Name(), tt.want[i])
				}
			}
		})
	}
}

func TestEffectiveRulesConcatenate(t *testing.T) {
	r1 := NewLanguageRule("R1", Break(`a`, ``))
	r3 := NewLanguageRule("R3", Break(`c`, ``), Exception(`d`, ``))
	doc := NewDocument([]LanguageMap{mustMap("aaa", r1), mustMap("ab", r1), mustMap("a+", r3)})

	rules := doc.Rules("aaa")
	want := []Rule{Break(`a`, ``), Break(`c`, ``), Exception(`d`, ``)}
	if len(rules) != len(want) {
		t.Fatalf("got %v, want %v", rules, want)
	}
	for i := range want {
		if rules[i] != want[i] {
			t.Errorf("rule %d: got %v, want %v", i, rules[i], want[i])
		}
	}
}

func TestSharedLanguageRule(t *testing.T) {
	shared := NewLanguageRule("shared", Break(`\.`, `\s`))
	doc := NewDocument([]LanguageMap{mustMap("en", shared), mustMap("en.*", shared)})

	got := doc.LanguageRules("en")
	if len(got) != 2 || got[0] != got[1] {
		t.Errorf("expected the same language rule twice, got %v", got)
	}
}

func TestRulesAreCopied(t *testing.T) {
	rules := []Rule{Break(`a`, ``)}
	lr := NewLanguageRule("x", rules...)
	rules[0] = Exception(`z`, ``)

	out := lr.Rules()
	if !out[0].IsBreak() || out[0].Before() != "a" {
		t.Error("language rule must not alias the caller's slice")
	}
	out[0] = Exception(`q`, ``)
	if lr.Rules()[0].Before() != "a" {
		t.Error("Rules must return a copy")
	}
}

func TestNewLanguageMapMalformed(t *testing.T) {
	_, err := NewLanguageMap("(unclosed", NewLanguageRule("x"))
	if !errors.Is(err, internalerr.ErrPattern) {
		t.Errorf("expected ErrPattern, got %v", err)
	}
}

func TestFingerprint(t *testing.T) {
	a := []Rule{Break(`\.`, `\s`), Exception(`Mr\.`, `\s`)}
	b := []Rule{Break(`\.`, `\s`), Exception(`Mr\.`, `\s`)}
	reordered := []Rule{Exception(`Mr\.`, `\s`), Break(`\.`, `\s`)}
	// Same concatenated text, different split between before and after.
	shifted := []Rule{Break(`\.\s`, ``), Exception(`Mr\.`, `\s`)}

	if Fingerprint(a) != Fingerprint(b) {
		t.Error("equal lists must share a fingerprint")
	}
	if Fingerprint(a) == Fingerprint(reordered) {
		t.Error("order must change the fingerprint")
	}
	if Fingerprint(a) == Fingerprint(shifted) {
		t.Error("before/after split must change the fingerprint")
	}
}

func TestDefaultDocument(t *testing.T) {
	doc := DefaultDocument()
	if !doc.Cascade() {
		t.Error("default document should cascade")
	}

	en := doc.LanguageRules("en_US")
	if len(en) != 2 || en[0].Name() != "English" || en[1].Name() != "Default" {
		t.Errorf("unexpected rules for en_US: %v", en)
	}
	if got := doc.LanguageRules("de"); len(got) != 1 || got[0].Name() != "Default" {
		t.Errorf("unexpected rules for de: %v", got)
	}
}
