// Package casing converts free-form entity names into the identifier forms
// used by generated files.
package casing

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Forms bundles every case variant of one entity name.
type Forms struct {
	Raw    string `json:"raw"`
	Pascal string `json:"pascal"`
	Camel  string `json:"camel"`
	Snake  string `json:"snake"`
	Kebab  string `json:"kebab"`
	Title  string `json:"title"`
}

func FormsOf(name string) Forms {
	return Forms{
		Raw:    name,
		Pascal: Pascal(name),
		Camel:  Camel(name),
		Snake:  Snake(name),
		Kebab:  Kebab(name),
		Title:  Title(name),
	}
}

// Words splits name on separators and case boundaries. Runs of separators
// collapse, and acronyms stay together ("HTTPServer" -> HTTP, Server).
// Adjacent single-character words join the same way ("a b c" -> abc), and
// a word starting with a digit joins the word before it ("order 2" ->
// order2), so the Pascal form of any name splits back into the same words.
func Words(name string) []string {
	runes := []rune(name)
	words := make([]string, 0, 4)
	var current []rune

	flush := func() {
		if len(current) > 0 {
			words = append(words, string(current))
			current = current[:0]
		}
	}

	for i, r := range runes {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			flush()
			continue
		}
		if unicode.IsUpper(r) && len(current) > 0 {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				flush()
			}
		}
		current = append(current, r)
	}
	flush()
	return joinInitials(words)
}

func joinInitials(words []string) []string {
	out := make([]string, 0, len(words))
	inRun := false
	for _, w := range words {
		first, _ := utf8.DecodeRuneInString(w)
		switch {
		case len(out) > 0 && unicode.IsDigit(first):
			out[len(out)-1] += w
			inRun = false
		case len(out) > 0 && utf8.RuneCountInString(out[len(out)-1]) == 1 && digitSecond(w):
			// "a c1" would otherwise render as the single acronym AC1.
			out[len(out)-1] += w
			inRun = false
		case utf8.RuneCountInString(w) != 1:
			out = append(out, w)
			inRun = false
		case inRun:
			out[len(out)-1] += w
		default:
			out = append(out, w)
			inRun = true
		}
	}
	return out
}

func digitSecond(w string) bool {
	runes := []rune(w)
	return len(runes) > 1 && unicode.IsDigit(runes[1])
}

func Pascal(name string) string {
	var b strings.Builder
	for _, w := range Words(name) {
		b.WriteString(capitalize(w))
	}
	return b.String()
}

func Camel(name string) string {
	pascal := Pascal(name)
	if pascal == "" {
		return ""
	}
	runes := []rune(pascal)
	runes[0] = unicode.ToLower(runes[0])
	return string(runes)
}

func Snake(name string) string {
	return joinLower(name, "_")
}

func Kebab(name string) string {
	return joinLower(name, "-")
}

// Title is the human-readable form, e.g. "User Profile".
func Title(name string) string {
	words := Words(name)
	for i, w := range words {
		words[i] = capitalize(w)
	}
	return strings.Join(words, " ")
}

func joinLower(name, sep string) string {
	words := Words(name)
	for i, w := range words {
		words[i] = strings.ToLower(w)
	}
	return strings.Join(words, sep)
}

func capitalize(word string) string {
	runes := []rune(strings.ToLower(word))
	if len(runes) == 0 {
		return ""
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
