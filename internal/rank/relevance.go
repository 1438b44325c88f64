package rank

import (
	"strings"
	"unicode"

	"github.com/onnwee/irisrank/internal/entity"
)

// relevanceScore scores an entity against the optional free-text query.
// Without a query every entity scores the neutral constant so relevance
// neither dominates nor zeroes the aggregate. With a query, the score is the
// fraction of query tokens found (case-insensitive) in the entity's name and
// flattened property values.
func (p Params) relevanceScore(e *entity.Entity, query string) float64 {
	tokens := tokenize(query)
	if len(tokens) == 0 {
		return p.NeutralRelevance
	}

	haystack := flattenEntity(e)
	matched := 0
	for _, tok := range tokens {
		if strings.Contains(haystack, tok) {
			matched++
		}
	}
	return float64(matched) / float64(len(tokens))
}

// flattenEntity builds the lowercase text the relevance scorer matches
// against: the entity's name, type, and every property value. Property keys
// are included so queries like "email" match entities that carry the field.
func flattenEntity(e *entity.Entity) string {
	var b strings.Builder
	b.WriteString(strings.ToLower(e.Name))
	b.WriteByte(' ')
	b.WriteString(strings.ToLower(e.Type))
	for k, v := range e.Properties {
		b.WriteByte(' ')
		b.WriteString(strings.ToLower(k))
		b.WriteByte(' ')
		b.WriteString(strings.ToLower(v.Flatten()))
	}
	return b.String()
}

// tokenize lowercases and splits a query on any non-alphanumeric rune.
func tokenize(query string) []string {
	return strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
