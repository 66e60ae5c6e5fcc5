package cli

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/pterm/pterm"

	"github.com/blimu-dev/asyncapi-gen/pkg/diag"
	"github.com/blimu-dev/asyncapi-gen/pkg/ir"
	"github.com/blimu-dev/asyncapi-gen/pkg/writer"
)

// utility
func absPath(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	abs, _ := filepath.Abs(p)
	return abs
}

func printTarget(service bool, res writer.Result) {
	if service {
		pterm.Success.Println("Service generated successfully.")
	} else {
		pterm.Success.Println("Client generated successfully.")
	}
	lines := fileLines(res)
	if len(lines) > 0 {
		pterm.Println("Following files were created.")
		for _, l := range lines {
			pterm.Println(l)
		}
	}
	renamed := make([]string, 0, len(res.Renamed))
	for from := range res.Renamed {
		renamed = append(renamed, from)
	}
	sort.Strings(renamed)
	for _, from := range renamed {
		pterm.Info.Printf("%s was kept, the new version is %s\n", from, res.Renamed[from])
	}
}

// fileLines lists every file of a target, marking those left as they were
func fileLines(res writer.Result) []string {
	lines := make([]string, 0, len(res.Written)+len(res.Unchanged)+len(res.Skipped))
	for _, f := range res.Written {
		lines = append(lines, "-- "+filepath.Base(f))
	}
	for _, f := range res.Unchanged {
		lines = append(lines, "-- "+filepath.Base(f)+" (unchanged)")
	}
	for _, f := range res.Skipped {
		lines = append(lines, "-- "+filepath.Base(f)+" (exists, kept)")
	}
	return lines
}

func printDiagnostics(items []diag.Diagnostic) {
	for _, d := range items {
		switch d.Severity {
		case diag.SeverityError:
			pterm.Error.Println(d.String())
		case diag.SeverityWarning:
			pterm.Warning.Println(d.String())
		default:
			pterm.Debug.Println(d.String())
		}
	}
}

func printValid(path string, graph ir.IR) {
	ops := 0
	for _, ch := range graph.Channels {
		ops += len(ch.Operations)
	}
	pterm.Success.Printf("%s is valid: %d channels, %d operations, %d schemas\n",
		filepath.Base(path), len(graph.Channels), ops, len(graph.Roots))
}

// PrintError prints a failure with any hints attached to it
func PrintError(err error) {
	if err == nil {
		return
	}
	pterm.Error.Println(err.Error())
	for _, hint := range errors.GetAllHints(err) {
		pterm.Info.Println(strings.TrimSpace(hint))
	}
}
