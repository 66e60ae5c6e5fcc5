package golang

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/blimu-dev/asyncapi-gen/pkg/ir"
	"github.com/blimu-dev/asyncapi-gen/pkg/utils"
)

// Alias functions to use centralized utilities
var toPascalCase = utils.ToPascalCase
var toSnakeCase = utils.ToSnakeCase

var placeholderPattern = regexp.MustCompile(`\{([^}]+)\}`)

// formatGoComment formats a string as a proper Go comment, handling multiline descriptions
func formatGoComment(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	// Split into lines and prefix each with //
	lines := strings.Split(s, "\n")
	var result []string

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			result = append(result, "//")
		} else {
			result = append(result, "// "+line)
		}
	}

	return strings.Join(result, "\n")
}

// defaultParseOperationID implements built-in parsing:
// - If opID contains "Controller_", return the substring after it
// - Otherwise return opID as-is
func defaultParseOperationID(opID string) string {
	if opID == "" {
		return ""
	}
	// Strip any prefix up to and including "Controller_"
	if idx := strings.Index(opID, "Controller_"); idx >= 0 {
		tail := opID[idx+len("Controller_"):]
		return tail
	}
	return opID
}

// placeholders returns the {name} placeholders of a channel address in order
func placeholders(address string) []string {
	var names []string
	for _, match := range placeholderPattern.FindAllStringSubmatch(address, -1) {
		names = append(names, match[1])
	}
	return names
}

// orderPathParams returns parameters in the order their placeholders appear
// in the address, plus the placeholders that have no declared parameter
func orderPathParams(address string, params []ir.IRParam) (ordered []ir.IRParam, missing []string) {
	paramMap := make(map[string]ir.IRParam, len(params))
	for _, param := range params {
		paramMap[param.Name] = param
	}
	seen := map[string]bool{}
	for _, name := range placeholders(address) {
		if seen[name] {
			continue
		}
		seen[name] = true
		param, exists := paramMap[name]
		if !exists {
			missing = append(missing, name)
			continue
		}
		ordered = append(ordered, param)
	}
	return ordered, missing
}

// addressFormat turns "/pets/{id}" into a quoted fmt format string "/pets/%s"
func addressFormat(address string) string {
	escaped := strings.ReplaceAll(address, "%", "%%")
	return strconv.Quote(placeholderPattern.ReplaceAllString(escaped, "%s"))
}

// sanitizePackageName ensures the package name is valid for Go
func sanitizePackageName(name string) string {
	// Extract the last part of the package name if it looks like a module path
	parts := strings.Split(name, "/")
	if len(parts) > 0 {
		name = parts[len(parts)-1]
	}

	// Convert to lowercase and replace invalid characters
	name = strings.ToLower(name)
	name = regexp.MustCompile(`[^a-z0-9_]`).ReplaceAllString(name, "")

	// Ensure it doesn't start with a number
	if len(name) > 0 && name[0] >= '0' && name[0] <= '9' {
		name = "pkg" + name
	}

	// Ensure it's not empty
	if name == "" {
		name = "client"
	}

	return name
}

// nilable reports whether a Go type expression already has a zero value of nil
func nilable(goType string) bool {
	return goType == "any" ||
		goType == "json.RawMessage" ||
		strings.HasPrefix(goType, "*") ||
		strings.HasPrefix(goType, "[]") ||
		strings.HasPrefix(goType, "map[")
}

// pointerTo makes a type expression optional
func pointerTo(goType string) string {
	if nilable(goType) {
		return goType
	}
	return "*" + goType
}

// typeLabel derives an identifier fragment from a type expression, e.g. "[]*Pet" -> "PetList"
func typeLabel(goType string) string {
	switch {
	case strings.HasPrefix(goType, "*"):
		return typeLabel(goType[1:])
	case strings.HasPrefix(goType, "[]"):
		return typeLabel(goType[2:]) + "List"
	case strings.HasPrefix(goType, "map[string]"):
		return typeLabel(goType[len("map[string]"):]) + "Map"
	case goType == "json.RawMessage":
		return "Raw"
	case strings.Contains(goType, "."):
		return toPascalCase(goType[strings.LastIndex(goType, ".")+1:])
	}
	return toPascalCase(goType)
}

// uniqueIdent returns base, or base followed by the first free counter
func uniqueIdent(base string, taken map[string]bool) string {
	name := base
	for i := 2; taken[name]; i++ {
		name = fmt.Sprintf("%s%d", base, i)
	}
	taken[name] = true
	return name
}
