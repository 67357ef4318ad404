package dotted

import (
	"strconv"
	"strings"
)

// Pronoun placeholders form a small fixed vocabulary usable inside
// computed expressions. Each placeholder is replaced with a quoted
// string literal selected by the gender and lang values in effect at
// the expression's scope (tree-walked, nearest definition wins):
//
//	".label": `trim("Ask " + @them + " about " + @their + " order")`
//
// Unknown languages fall back to English; a missing or unrecognized
// gender falls back to "x".
const (
	pronounSubject    = "@they"
	pronounObject     = "@them"
	pronounPossessive = "@their"
	pronounAbsolute   = "@theirs"
	pronounReflexive  = "@themself"
)

// pronounSet holds one row of the vocabulary in placeholder order:
// subject, object, possessive, absolute, reflexive.
type pronounSet [5]string

var pronounPlaceholders = [5]string{
	pronounSubject,
	pronounObject,
	pronounPossessive,
	pronounAbsolute,
	pronounReflexive,
}

var pronounTables = map[string]map[string]pronounSet{
	"en": {
		"m": {"he", "him", "his", "his", "himself"},
		"f": {"she", "her", "her", "hers", "herself"},
		"x": {"they", "them", "their", "theirs", "themself"},
	},
	"es": {
		"m": {"él", "lo", "su", "suyo", "sí mismo"},
		"f": {"ella", "la", "su", "suya", "sí misma"},
		"x": {"elle", "le", "su", "suye", "sí misme"},
	},
}

// pronounsFor selects the vocabulary row for a lang/gender pair,
// defaulting to English and the neutral gender.
func pronounsFor(lang, gender string) pronounSet {
	table, ok := pronounTables[lang]
	if !ok {
		// Strip a region subtag ("pt-br" -> "pt") before giving up.
		primary, _, _ := strings.Cut(lang, "-")
		if table, ok = pronounTables[primary]; !ok {
			table = pronounTables["en"]
		}
	}

	set, ok := table[gender]
	if !ok {
		set = table["x"]
	}

	return set
}

// substitutePronouns replaces pronoun placeholders in an expression
// source with quoted string literals. Longer placeholders are replaced
// first so @themself is not clobbered by @them.
func substitutePronouns(source, lang, gender string) string {
	if !strings.Contains(source, "@") {
		return source
	}

	set := pronounsFor(lang, gender)

	pairs := make([]string, 0, 2*len(pronounPlaceholders))

	for _, i := range []int{4, 3, 2, 1, 0} {
		pairs = append(pairs,
			pronounPlaceholders[i], strconv.Quote(set[i]),
		)
	}

	return strings.NewReplacer(pairs...).Replace(source)
}
