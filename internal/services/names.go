package services

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// AllMunicipalities selects every municipality in breakdown views
const AllMunicipalities = "Todos"

// foldName reduces a municipality name to an accent- and case-insensitive
// lookup key: "MONTERÍA" and "Monteria" fold to the same value
func foldName(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, strings.TrimSpace(s))
	if err != nil {
		out = s
	}
	return cases.Fold().String(strings.Join(strings.Fields(out), " "))
}

// sortNames orders names the way a Spanish reader expects
func sortNames(names []string) {
	collate.New(language.Spanish, collate.IgnoreCase).SortStrings(names)
}

// TitleName renders an upper-case boundary name ("SAN ANDRÉS DE SOTAVENTO")
// in title case; mixed-case names are returned unchanged
func TitleName(s string) string {
	if s != strings.ToUpper(s) {
		return s
	}
	return cases.Title(language.Spanish).String(strings.ToLower(s))
}
