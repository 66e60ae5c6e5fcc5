package utils

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var nonAlnum = regexp.MustCompile(`[^A-Za-z0-9]+`)

// goKeywords are the identifiers Go refuses outright. Predeclared names such as
// "error" can be shadowed and are left alone.
var goKeywords = map[string]bool{
	"break": true, "case": true, "chan": true, "const": true, "continue": true,
	"default": true, "defer": true, "else": true, "fallthrough": true, "for": true,
	"func": true, "go": true, "goto": true, "if": true, "import": true,
	"interface": true, "map": true, "package": true, "range": true, "return": true,
	"select": true, "struct": true, "switch": true, "type": true, "var": true,
}

// RemoveAccents removes accents from a string, converting accented characters to their base forms
func RemoveAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}

// SplitCamelCase splits a camelCase or PascalCase string into words.
// Runs of capitals stay together: "XMLHttp" -> "XML", "Http".
func SplitCamelCase(s string) []string {
	if s == "" {
		return nil
	}

	var parts []string
	var current strings.Builder

	rs := []rune(s)
	for i, r := range rs {
		isNewWord := false
		if i > 0 && isUppercase(r) {
			if !isUppercase(rs[i-1]) {
				isNewWord = true
			} else if i < len(rs)-1 && !isUppercase(rs[i+1]) && !isDigit(rs[i+1]) {
				isNewWord = true
			}
		}

		if isNewWord && current.Len() > 0 {
			parts = append(parts, current.String())
			current.Reset()
		}

		current.WriteRune(r)
	}

	if current.Len() > 0 {
		parts = append(parts, current.String())
	}

	return parts
}

func isUppercase(r rune) bool {
	return r >= 'A' && r <= 'Z'
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// Words breaks an arbitrary contract key into ASCII alphanumeric words:
// accents are removed, anything outside [A-Za-z0-9] separates words, and
// camelCase boundaries split further.
func Words(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	s = RemoveAccents(s)

	var out []string
	for _, part := range nonAlnum.Split(s, -1) {
		if part == "" {
			continue
		}
		out = append(out, SplitCamelCase(part)...)
	}
	return out
}

// ToPascalCase converts a string to PascalCase
func ToPascalCase(s string) string {
	var b strings.Builder
	for _, part := range Words(s) {
		b.WriteString(strings.ToUpper(part[:1]))
		if len(part) > 1 {
			b.WriteString(strings.ToLower(part[1:]))
		}
	}
	return b.String()
}

// ToCamelCase converts a string to camelCase
func ToCamelCase(s string) string {
	p := ToPascalCase(s)
	if p == "" {
		return ""
	}
	return strings.ToLower(p[:1]) + p[1:]
}

// ToSnakeCase converts a string to snake_case
func ToSnakeCase(s string) string {
	parts := Words(s)
	for i := range parts {
		parts[i] = strings.ToLower(parts[i])
	}
	return strings.Join(parts, "_")
}

// EscapeReservedWord appends an underscore to Go keywords.
func EscapeReservedWord(name string) string {
	if goKeywords[name] {
		return name + "_"
	}
	return name
}

// TypeName normalizes a declaration key into an exported Go identifier made of
// [A-Za-z0-9] only. A leading digit gets a "T" prefix.
func TypeName(s string) string {
	name := ToPascalCase(s)
	if name == "" {
		return "Type"
	}
	if isDigit(rune(name[0])) {
		name = "T" + name
	}
	return name
}

// ParamName normalizes a key into an unexported Go identifier usable as a parameter.
func ParamName(s string) string {
	name := ToCamelCase(s)
	if name == "" {
		return "param"
	}
	if isDigit(rune(name[0])) {
		name = "p" + name
	}
	return EscapeReservedWord(name)
}

// FileStem turns a free-form title into a file name stem: alphanumeric runs,
// lowercased and joined with underscores. "Pet Store API" -> "pet_store_api".
func FileStem(s string) string {
	parts := nonAlnum.Split(RemoveAccents(s), -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, strings.ToLower(p))
		}
	}
	return strings.Join(out, "_")
}
