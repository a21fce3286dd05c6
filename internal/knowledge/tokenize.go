package knowledge

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/kljensen/snowball/english"
	"github.com/kljensen/snowball/spanish"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var stopWords = map[string]bool{
	"a": true, "an": true, "the": true, "is": true, "are": true,
	"was": true, "were": true, "be": true, "been": true, "being": true,
	"have": true, "has": true, "had": true, "do": true, "does": true,
	"did": true, "will": true, "would": true, "could": true, "should": true,
	"what": true, "which": true, "who": true, "whom": true, "this": true,
	"that": true, "these": true, "those": true, "it": true, "its": true,
	"of": true, "for": true, "with": true, "about": true, "into": true,
	"to": true, "from": true, "in": true, "on": true, "at": true, "by": true,
	"and": true, "or": true, "but": true, "if": true, "so": true,
	"how": true, "why": true, "when": true, "where": true, "can": true,
	"my": true, "me": true, "we": true, "our": true, "you": true, "your": true,
	"there": true, "their": true, "some": true, "any": true, "please": true,
	// Spanish
	"el": true, "la": true, "los": true, "las": true, "de": true, "del": true,
	"que": true, "en": true, "un": true, "una": true, "por": true, "para": true,
	"con": true, "como": true, "cómo": true, "qué": true, "cuándo": true,
	"dónde": true, "es": true, "mi": true,
	// Hindi
	"का": true, "की": true, "के": true, "में": true, "है": true, "हैं": true,
	"को": true, "से": true, "और": true, "क्या": true, "कैसे": true,
}

// Tokenize splits text into normalized index terms: NFKC-normalized,
// case-folded, stop words removed, stemmed.
// The same function is used for documents and queries.
func Tokenize(text string) []string {
	folded := cases.Fold().String(norm.NFKC.String(text))
	words := strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r) && !unicode.IsMark(r)
	})

	terms := make([]string, 0, len(words))
	for _, w := range words {
		if utf8.RuneCountInString(w) < 2 || stopWords[w] {
			continue
		}
		terms = append(terms, stem(w))
	}
	return terms
}

// stem reduces a word to its Snowball stem. Words carrying Spanish letters
// use the Spanish stemmer, other Latin words the English one. Words in other
// scripts are returned unchanged. The choice depends only on the word, so
// documents and queries always agree.
func stem(w string) string {
	switch {
	case !isLatin(w):
		return w
	case strings.ContainsAny(w, spanishLetters):
		return spanish.Stem(w, false)
	default:
		return english.Stem(w, false)
	}
}

const spanishLetters = "ñáéíóúü"

func isLatin(w string) bool {
	for _, r := range w {
		if unicode.IsLetter(r) && !unicode.Is(unicode.Latin, r) {
			return false
		}
	}
	return true
}
