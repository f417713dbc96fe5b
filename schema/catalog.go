package schema

import (
	"strings"
	"unicode"

	"github.com/eq-tools/eqtrans/catalog"
)

// Catalog extracts every translatable string into a catalog template.
//
// Message ids are the text with straight single quotes made typographic (see
// SmartQuotes). Each message is annotated with the id of its enclosing answer
// and the title of its enclosing question, and lists the addresses it was
// found at. Text repeated across the document becomes a single message
// annotated from its first occurrence, so identical strings in unrelated
// contexts always share one translation.
func (s *Schema) Catalog() *catalog.Catalog {
	c := catalog.New("")
	for _, addr := range s.pointers {
		text, ok := s.Text(addr)
		if !ok || text == "" {
			continue
		}

		msg := catalog.Message{
			ID:        SmartQuotes(text),
			Locations: []string{addr},
		}
		if id, ok := s.ParentID(addr); ok {
			msg.AutoComments = []string{"answer-id: " + id}
		}
		if question, ok := s.ParentQuestion(addr); ok {
			if title, ok := question.FieldStr("title"); ok && title != "" {
				msg.UserComments = []string{"Answer for: " + title}
			}
		}
		c.Add(msg)
	}
	return c
}

// openingContext are the runes after which a straight quote opens a quotation.
const openingContext = "([{<“‘-–—/"

// SmartQuotes replaces straight single quotes with typographic ones. A quote
// at the start of the text or after whitespace or opening punctuation, and
// followed by a non-space, opens (‘); every other quote closes (’), which is
// also the typographic apostrophe.
//
//	What is 'this persons' date of birth?  ->  What is ‘this persons’ date of birth?
func SmartQuotes(s string) string {
	if !strings.ContainsRune(s, '\'') {
		return s
	}

	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(s) + 4)
	for i, r := range runes {
		if r != '\'' {
			b.WriteRune(r)
			continue
		}
		if opensQuote(runes, i) {
			b.WriteRune('‘')
		} else {
			b.WriteRune('’')
		}
	}
	return b.String()
}

func opensQuote(runes []rune, i int) bool {
	if i+1 >= len(runes) || unicode.IsSpace(runes[i+1]) {
		return false
	}
	if i == 0 {
		return true
	}
	prev := runes[i-1]
	return unicode.IsSpace(prev) || strings.ContainsRune(openingContext, prev)
}
