package generator

import (
	"regexp"

	"github.com/cockroachdb/errors"

	"github.com/blimu-dev/asyncapi-gen/pkg/config"
	"github.com/blimu-dev/asyncapi-gen/pkg/ir"
)

// filterIR keeps the operations a client asked for. Channels left without
// operations are dropped; schemas are pruned later by the assembler.
func filterIR(full ir.IR, client config.Client) (ir.IR, error) {
	include, exclude, err := compileTagFilters(client.IncludeTags, client.ExcludeTags)
	if err != nil {
		return ir.IR{}, err
	}
	wanted := make(map[string]bool, len(client.Operations))
	for _, id := range client.Operations {
		wanted[id] = true
	}

	out := full
	out.Filtered = len(include) > 0 || len(exclude) > 0 || len(wanted) > 0
	if !out.Filtered {
		return out, nil
	}

	out.Channels = make([]ir.IRChannel, 0, len(full.Channels))
	for _, ch := range full.Channels {
		ops := make([]ir.IROperation, 0, len(ch.Operations))
		for _, op := range ch.Operations {
			if len(wanted) > 0 && !wanted[op.OperationID] {
				continue
			}
			if shouldIncludeOperation(op.Tags, include, exclude) {
				ops = append(ops, op)
			}
		}
		if len(ops) == 0 {
			continue
		}
		filtered := ch
		filtered.Operations = ops
		out.Channels = append(out.Channels, filtered)
	}
	return out, nil
}

// compileTagFilters compiles regex patterns for tag filtering
func compileTagFilters(include, exclude []string) ([]*regexp.Regexp, []*regexp.Regexp, error) {
	inc := make([]*regexp.Regexp, 0, len(include))
	for _, p := range include {
		r, err := regexp.Compile(p)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "invalid includeTags pattern %q", p)
		}
		inc = append(inc, r)
	}
	exc := make([]*regexp.Regexp, 0, len(exclude))
	for _, p := range exclude {
		r, err := regexp.Compile(p)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "invalid excludeTags pattern %q", p)
		}
		exc = append(exc, r)
	}
	return inc, exc, nil
}

// shouldIncludeOperation determines if an operation should be included based on its tags
func shouldIncludeOperation(tags []string, include, exclude []*regexp.Regexp) bool {
	// If no include patterns, assume all tags are initially included
	included := len(include) == 0

	// operation is included if ANY of its tags match ANY include pattern
	for _, tag := range tags {
		if included {
			break
		}
		for _, r := range include {
			if r.MatchString(tag) {
				included = true
				break
			}
		}
	}
	if !included {
		return false
	}

	// Exclude takes precedence over include
	for _, tag := range tags {
		for _, r := range exclude {
			if r.MatchString(tag) {
				return false
			}
		}
	}
	return true
}
