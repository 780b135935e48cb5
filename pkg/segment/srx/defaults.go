package srx

// DefaultDocument returns a small cascading document: language specific
// abbreviation exceptions for English and Polish, followed by generic
// sentence break rules matched by every language code.
func DefaultDocument(opts ...DocumentOption) *Document {
	english := NewLanguageRule("English",
		Exception(`\b(?:Mr|Mrs|Ms|Dr|Prof|St|Jr|Sr|vs|etc|e\.g|i\.e|No|Fig)\.`, `\s`),
		Exception(`\b[A-Z]\.`, `\s[A-Z]`),
	)
	polish := NewLanguageRule("Polish",
		Exception(`\b(?:Prof|prof|Dr|dr|np|tzn|tj|ok|godz|ul|św)\.`, `\s`),
	)
	generic := NewLanguageRule("Default",
		Exception(`\d\.`, `\d`),
		Break(`[\.\?!]+`, `\s`),
		Break(`\n`, ``),
	)

	return NewDocument([]LanguageMap{
		mustMap(`en.*`, english),
		mustMap(`pl.*`, polish),
		mustMap(`.*`, generic),
	}, opts...)
}

func mustMap(pattern string, rule *LanguageRule) LanguageMap {
	m, err := NewLanguageMap(pattern, rule)
	if err != nil {
		panic(err)
	}
	return m
}
