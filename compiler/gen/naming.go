package gen

import (
	"strings"
	"unicode"

	"github.com/go-openapi/inflect"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Pluralizer returns the plural form of a class-style name.
type Pluralizer interface {
	Plural(name string) string
}

// InflectPluralizer is the default English pluralizer.
type InflectPluralizer struct {
	rules *inflect.Ruleset
}

// NewInflectPluralizer returns a pluralizer backed by the default inflect rules.
func NewInflectPluralizer() *InflectPluralizer {
	return &InflectPluralizer{rules: inflect.NewDefaultRuleset()}
}

// Plural implements the Pluralizer interface.
func (p *InflectPluralizer) Plural(name string) string {
	return p.rules.Pluralize(name)
}

// AddIrregular registers an irregular singular/plural pair.
func (p *InflectPluralizer) AddIrregular(singular, plural string) {
	p.rules.AddIrregular(singular, plural)
}

// PhpName derives a class-style name from a schema identifier using the
// underscore naming method: "book_author" becomes "BookAuthor" and
// "author_id" becomes "AuthorId".
func PhpName(name string) string {
	if name == "" {
		return ""
	}
	// Casers are stateful and must not be shared between goroutines.
	caser := cases.Title(language.Und)
	var b strings.Builder
	for _, part := range strings.Split(name, "_") {
		if part == "" {
			continue
		}
		b.WriteString(caser.String(part))
	}
	return b.String()
}

// ConstantName derives the UPPER_SNAKE constant token of a schema identifier.
func ConstantName(name string) string {
	return strings.ToUpper(snake(name))
}

// lcfirst lowers the first letter of s.
func lcfirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// Camel returns the lowerCamel form of a schema identifier ("author_id" -> "authorId").
func Camel(name string) string {
	return lcfirst(PhpName(name))
}

// snake converts the given name to snake case.
func snake(s string) string {
	var (
		j int
		b strings.Builder
	)
	for i := 0; i < len(s); i++ {
		r := rune(s[i])
		// Put '_' if it is not a start or end of a word, current letter is uppercase,
		// and previous is lowercase (cases like: "UserInfo"), or next letter is also
		// a lowercase and previous letter is not "_".
		if i > 0 && i < len(s)-1 && unicode.IsUpper(r) {
			if unicode.IsLower(rune(s[i-1])) ||
				j != i-1 && unicode.IsLower(rune(s[i+1])) && unicode.IsLetter(rune(s[i-1])) {
				j = i
				b.WriteString("_")
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}
