package dotted

import (
	"regexp"
	"sort"
	"strings"
)

// Variants maps dimension names to values, e.g. {lang: es, form:
// formal}. Well-known dimensions carry fixed matching weight; any other
// key is a custom dimension.
type Variants map[string]string

// Well-known dimension names.
const (
	DimLang   = "lang"
	DimGender = "gender"
	DimForm   = "form"
)

// Dimension declares a custom variant dimension and the values it can
// take. Values must be unique across all custom dimensions of a
// Document so candidate-name tokens can be attributed unambiguously.
type Dimension struct {
	Name   string
	Values []string
}

var (
	genderValues = map[string]bool{"m": true, "f": true, "x": true}

	formValues = map[string]bool{
		"formal":   true,
		"informal": true,
		"casual":   true,
		"polite":   true,
	}

	// BCP 47-ish primary subtag with an optional extra subtag, e.g.
	// "es", "en", "pt-br".
	langPattern = regexp.MustCompile(`^[a-z]{2,3}(-[a-z0-9]{2,8})?$`)
)

// dimSchema is the set of dimensions a Document recognizes, with a
// reverse index from declared custom values to their dimension name.
type dimSchema struct {
	custom []Dimension
	value  map[string]string
}

func newDimSchema(dims []Dimension) *dimSchema {
	s := &dimSchema{
		custom: dims,
		value:  make(map[string]string),
	}

	for _, dim := range dims {
		for _, val := range dim.Values {
			s.value[val] = dim.Name
		}
	}

	return s
}

// names returns every recognized dimension name, well-known first.
// Used for live variant-context discovery.
func (s *dimSchema) names() []string {
	out := make([]string, 0, len(s.custom)+3)
	out = append(out, DimLang, DimGender, DimForm)

	for _, dim := range s.custom {
		out = append(out, dim.Name)
	}

	return out
}

// classify attributes a candidate-name token to a dimension. Declared
// custom values take precedence over the well-known recognizers so a
// custom dimension may reuse a language-shaped token. Unrecognized
// tokens map to a dimension named after themselves: they can never
// match a context but still count against a candidate's specificity.
func (s *dimSchema) classify(token string) string {
	if name, ok := s.value[token]; ok {
		return name
	}

	switch {
	case genderValues[token]:
		return DimGender
	case formValues[token]:
		return DimForm
	case langPattern.MatchString(token):
		return DimLang
	default:
		return token
	}
}

// parseName splits a concrete property name into its base and the
// variant context encoded by its colon-separated suffixes.
func (s *dimSchema) parseName(name string) (string, Variants) {
	base, suffix, found := strings.Cut(name, ":")
	if !found {
		return base, nil
	}

	v := make(Variants)

	for _, token := range strings.Split(suffix, ":") {
		if token == "" {
			continue
		}

		v[s.classify(token)] = token
	}

	return base, v
}

// ParseName parses a concrete property name into {base, variants}
// using the given custom dimension declarations.
func ParseName(name string, dims ...Dimension) (string, Variants) {
	return newDimSchema(dims).parseName(name)
}

// CanonicalName serializes {base, variants} into a concrete property
// name, ordering dimensions lang, gender, form, then custom dimensions
// alphabetically. It is the exact inverse of ParseName.
func CanonicalName(base string, v Variants) string {
	if len(v) == 0 {
		return base
	}

	parts := make([]string, 0, len(v)+1)
	parts = append(parts, base)

	for _, name := range []string{DimLang, DimGender, DimForm} {
		if val, ok := v[name]; ok {
			parts = append(parts, val)
		}
	}

	custom := make([]string, 0, len(v))

	for name := range v {
		if name != DimLang && name != DimGender && name != DimForm {
			custom = append(custom, name)
		}
	}

	sort.Strings(custom)

	for _, name := range custom {
		parts = append(parts, v[name])
	}

	return strings.Join(parts, ":")
}

// matchScore computes the priority of a candidate variant context
// against the requested context.
func matchScore(ctx, cand Variants) int {
	score := 0

	for name, val := range cand {
		if ctx[name] != val {
			continue
		}

		switch name {
		case DimLang:
			score += 1000
		case DimGender:
			score += 100
		case DimForm:
			score += 50
		default:
			score += 10
		}
	}

	return score
}

// mismatchCount counts dimensions present in the candidate that the
// context does not request with the same value. Used to break score
// ties in favor of the least surprising candidate.
func mismatchCount(ctx, cand Variants) int {
	n := 0

	for name, val := range cand {
		if ctx[name] != val {
			n++
		}
	}

	return n
}

// resolveVariant selects the best-matching concrete property name for
// base among the available sibling names. Candidates are scored
// 1000/100/50 for lang/gender/form matches and 10 per matching custom
// dimension; zero-score candidates are discarded. Ties prefer the
// candidate with the fewest unrequested dimensions, then the first
// encountered in available order.
func (s *dimSchema) resolveVariant(base string, ctx Variants, available []string) string {
	if len(ctx) == 0 {
		return base
	}

	var (
		bestName     string
		bestScore    int
		bestMismatch int
	)

	for _, name := range available {
		candBase, candVars := s.parseName(name)
		if candBase != base || len(candVars) == 0 {
			continue
		}

		score := matchScore(ctx, candVars)
		if score == 0 {
			continue
		}

		mismatch := mismatchCount(ctx, candVars)

		better := score > bestScore ||
			(score == bestScore && mismatch < bestMismatch)
		if better {
			bestName = name
			bestScore = score
			bestMismatch = mismatch
		}
	}

	if bestName == "" {
		return base
	}

	return bestName
}

// ResolveVariant selects the best-matching concrete property name for
// basePath among availableNames given the variant context. It returns
// basePath unchanged when the context is empty or no candidate scores
// above zero. Matching is a pure function of the two variant contexts.
func ResolveVariant(
	basePath string,
	ctx Variants,
	availableNames []string,
	dims ...Dimension,
) string {
	return newDimSchema(dims).resolveVariant(basePath, ctx, availableNames)
}
