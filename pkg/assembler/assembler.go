// Package assembler merges the declaration groups produced for one target
// into a single duplicate-free list and prunes what filtering left unused.
package assembler

import (
	"github.com/blimu-dev/asyncapi-gen/pkg/generrors"
	"github.com/blimu-dev/asyncapi-gen/pkg/ir"
)

// Options controls Assemble
type Options struct {
	// Prune keeps only declarations reachable from Roots
	Prune bool
	Roots []string
}

// Assemble merges groups in order. A name declared twice by the same origin
// keeps its first declaration; a name claimed by two origins is an error.
func Assemble(opts Options, groups ...[]ir.TypeDecl) ([]ir.TypeDecl, error) {
	var merged []ir.TypeDecl
	index := map[string]int{}
	for _, group := range groups {
		for _, decl := range group {
			if i, ok := index[decl.Name]; ok {
				if merged[i].Origin != decl.Origin {
					return nil, &generrors.DuplicateTypeNameError{Name: decl.Name, Existing: merged[i].Origin, Incoming: decl.Origin}
				}
				continue
			}
			index[decl.Name] = len(merged)
			merged = append(merged, decl)
		}
	}
	if !opts.Prune {
		return merged, nil
	}

	keep := reachable(merged, index, opts.Roots)
	out := make([]ir.TypeDecl, 0, len(keep))
	for _, decl := range merged {
		if keep[decl.Name] {
			out = append(out, decl)
		}
	}
	return out, nil
}

// reachable walks Refs, Embeds and Variants breadth-first from roots
func reachable(decls []ir.TypeDecl, index map[string]int, roots []string) map[string]bool {
	keep := map[string]bool{}
	queue := make([]string, 0, len(roots))
	for _, r := range roots {
		if _, ok := index[r]; ok && !keep[r] {
			keep[r] = true
			queue = append(queue, r)
		}
	}
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		d := decls[index[name]]
		next := append([]string{}, d.Refs...)
		next = append(next, d.Embeds...)
		for _, v := range d.Variants {
			next = append(next, v.Type)
		}
		for _, n := range next {
			n = bareName(n)
			if _, ok := index[n]; ok && !keep[n] {
				keep[n] = true
				queue = append(queue, n)
			}
		}
	}
	return keep
}

// bareName strips pointer and slice markers, e.g. "*Pet" -> "Pet"
func bareName(t string) string {
	for len(t) > 0 && (t[0] == '*' || t[0] == '[' || t[0] == ']') {
		t = t[1:]
	}
	return t
}
