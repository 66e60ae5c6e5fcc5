package asyncapi

import (
	"strings"

	"github.com/go-openapi/jsonpointer"
	"gopkg.in/yaml.v3"
)

// Pair is one key/value entry of a YAML mapping
type Pair struct {
	Key   string
	Value *yaml.Node
	Line  int
}

// Deref follows YAML aliases and unwraps document nodes
func Deref(n *yaml.Node) *yaml.Node {
	for n != nil {
		switch n.Kind {
		case yaml.AliasNode:
			n = n.Alias
		case yaml.DocumentNode:
			if len(n.Content) == 0 {
				return nil
			}
			n = n.Content[0]
		default:
			return n
		}
	}
	return nil
}

// IsMap reports whether n is a mapping node
func IsMap(n *yaml.Node) bool {
	n = Deref(n)
	return n != nil && n.Kind == yaml.MappingNode
}

// IsNull reports whether n is absent or an explicit null
func IsNull(n *yaml.Node) bool {
	n = Deref(n)
	return n == nil || (n.Kind == yaml.ScalarNode && n.Tag == "!!null")
}

// Pairs returns the entries of a mapping in declaration order
func Pairs(n *yaml.Node) []Pair {
	n = Deref(n)
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	out := make([]Pair, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		out = append(out, Pair{Key: n.Content[i].Value, Value: n.Content[i+1], Line: n.Content[i].Line})
	}
	return out
}

// Get returns the value stored under key in a mapping, or nil
func Get(n *yaml.Node, key string) *yaml.Node {
	n = Deref(n)
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return Deref(n.Content[i+1])
		}
	}
	return nil
}

// Str returns the scalar value under key, or ""
func Str(n *yaml.Node, key string) string {
	v := Get(n, key)
	if v == nil || v.Kind != yaml.ScalarNode || v.Tag == "!!null" {
		return ""
	}
	return v.Value
}

// Bool returns the boolean scalar under key
func Bool(n *yaml.Node, key string) bool {
	v := Get(n, key)
	if v == nil || v.Kind != yaml.ScalarNode {
		return false
	}
	var b bool
	if err := v.Decode(&b); err != nil {
		return false
	}
	return b
}

// Items returns the elements of a sequence node
func Items(n *yaml.Node) []*yaml.Node {
	n = Deref(n)
	if n == nil || n.Kind != yaml.SequenceNode {
		return nil
	}
	out := make([]*yaml.Node, 0, len(n.Content))
	for _, c := range n.Content {
		out = append(out, Deref(c))
	}
	return out
}

// Strings returns the scalar elements of a sequence node
func Strings(n *yaml.Node) []string {
	var out []string
	for _, it := range Items(n) {
		if it != nil && it.Kind == yaml.ScalarNode {
			out = append(out, it.Value)
		}
	}
	return out
}

// Pointer builds a document-relative JSON pointer ("#/a/b~1c") from raw tokens
func Pointer(tokens ...string) string {
	var b strings.Builder
	b.WriteString("#")
	for _, t := range tokens {
		b.WriteString("/")
		b.WriteString(jsonpointer.Escape(t))
	}
	return b.String()
}

// Child appends raw tokens to an existing pointer
func Child(pointer string, tokens ...string) string {
	var b strings.Builder
	b.WriteString(pointer)
	for _, t := range tokens {
		b.WriteString("/")
		b.WriteString(jsonpointer.Escape(t))
	}
	return b.String()
}
