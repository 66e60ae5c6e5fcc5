// Package diag accumulates non-fatal problems found while turning a contract
// into generated sources.
package diag

import (
	"fmt"
	"strings"
)

// Severity indicates how serious a diagnostic is.
type Severity int

const (
	// SeverityError marks a problem that aborts generation before anything is written.
	SeverityError Severity = iota
	// SeverityWarning marks a degraded but usable result.
	SeverityWarning
	// SeverityInfo marks an informational note about a choice the generator made.
	SeverityInfo
)

// String returns the lowercase name of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	default:
		return "unknown"
	}
}

// Diagnostic is a single (path, severity, message) record.
type Diagnostic struct {
	// Path locates the problem in the contract, e.g. "#/channels/pets~1{id}"
	Path     string
	Severity Severity
	Message  string
}

// String renders the diagnostic with a severity symbol.
func (d Diagnostic) String() string {
	var symbol string
	switch d.Severity {
	case SeverityError:
		symbol = "✗"
	case SeverityWarning:
		symbol = "⚠"
	case SeverityInfo:
		symbol = "ℹ"
	default:
		symbol = "?"
	}
	if d.Path == "" {
		return fmt.Sprintf("%s %s", symbol, d.Message)
	}
	return fmt.Sprintf("%s %s: %s", symbol, d.Path, d.Message)
}

// List is an ordered collection of diagnostics. The zero value is ready to use.
type List struct {
	items []Diagnostic
}

// Add appends a diagnostic.
func (l *List) Add(d Diagnostic) {
	l.items = append(l.items, d)
}

// Errorf records an error-severity diagnostic.
func (l *List) Errorf(path, format string, args ...any) {
	l.Add(Diagnostic{Path: path, Severity: SeverityError, Message: fmt.Sprintf(format, args...)})
}

// Warnf records a warning.
func (l *List) Warnf(path, format string, args ...any) {
	l.Add(Diagnostic{Path: path, Severity: SeverityWarning, Message: fmt.Sprintf(format, args...)})
}

// Infof records an informational note.
func (l *List) Infof(path, format string, args ...any) {
	l.Add(Diagnostic{Path: path, Severity: SeverityInfo, Message: fmt.Sprintf(format, args...)})
}

// Merge appends every diagnostic of other, preserving order.
func (l *List) Merge(other []Diagnostic) {
	l.items = append(l.items, other...)
}

// Items returns a copy of the recorded diagnostics.
func (l *List) Items() []Diagnostic {
	out := make([]Diagnostic, len(l.items))
	copy(out, l.items)
	return out
}

// Len returns the number of recorded diagnostics.
func (l *List) Len() int {
	return len(l.items)
}

// HasErrors reports whether any error-severity diagnostic was recorded.
func (l *List) HasErrors() bool {
	for _, d := range l.items {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Errors returns only the error-severity diagnostics.
func (l *List) Errors() []Diagnostic {
	return filter(l.items, SeverityError)
}

// Warnings returns only the warning-severity diagnostics.
func (l *List) Warnings() []Diagnostic {
	return filter(l.items, SeverityWarning)
}

func filter(items []Diagnostic, s Severity) []Diagnostic {
	var out []Diagnostic
	for _, d := range items {
		if d.Severity == s {
			out = append(out, d)
		}
	}
	return out
}

// String renders every diagnostic on its own line.
func (l *List) String() string {
	lines := make([]string, 0, len(l.items))
	for _, d := range l.items {
		lines = append(lines, d.String())
	}
	return strings.Join(lines, "\n")
}
