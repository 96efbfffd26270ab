// Package tokenize implements the single tokenization rule shared by
// document digestion and query parsing: split on non-alphanumeric runes,
// lowercase, drop stopwords, drop tokens shorter than three characters.
// Grounded on phago-rag/src/hybrid.rs's tokenize(), which both the
// Digester's extraction policy and the hybrid query engine reuse verbatim.
package tokenize

import "strings"

// stopwords is the authoritative list from the external-interfaces section
// of the specification.
var stopwords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "is": {}, "are": {}, "was": {}, "were": {},
	"be": {}, "been": {}, "being": {}, "have": {}, "has": {}, "had": {},
	"do": {}, "does": {}, "did": {}, "will": {}, "would": {}, "could": {},
	"should": {}, "may": {}, "might": {}, "shall": {}, "can": {}, "need": {},
	"to": {}, "of": {}, "in": {}, "for": {}, "on": {}, "with": {}, "at": {},
	"by": {}, "from": {}, "as": {}, "into": {}, "through": {}, "during": {},
	"before": {}, "after": {}, "above": {}, "below": {}, "between": {},
	"out": {}, "off": {}, "over": {}, "under": {}, "again": {}, "further": {},
	"then": {}, "once": {}, "and": {}, "but": {}, "or": {}, "if": {},
	"while": {}, "what": {}, "which": {}, "who": {}, "this": {}, "that": {},
	"these": {}, "those": {}, "it": {}, "its": {}, "how": {},
}

func isAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// IsStopword reports whether a lowercase token is a stopword.
func IsStopword(token string) bool {
	_, ok := stopwords[token]
	return ok
}

// Tokens splits text into the filtered, lowercased token stream used for
// both digestion and querying: non-alphanumeric splits, stopwords and
// tokens under three characters dropped.
func Tokens(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool { return !isAlnum(r) })
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		lower := strings.ToLower(f)
		if len(lower) < 3 {
			continue
		}
		if IsStopword(lower) {
			continue
		}
		out = append(out, lower)
	}
	return out
}

// Frequencies counts token occurrences, preserving first-seen order in the
// returned key slice so downstream ranking stays deterministic for ties.
func Frequencies(tokens []string) (counts map[string]int, order []string) {
	counts = make(map[string]int, len(tokens))
	for _, t := range tokens {
		if _, seen := counts[t]; !seen {
			order = append(order, t)
		}
		counts[t]++
	}
	return counts, order
}
