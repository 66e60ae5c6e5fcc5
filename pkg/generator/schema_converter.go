package generator

import (
	"encoding/json"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"

	"github.com/blimu-dev/asyncapi-gen/pkg/asyncapi"
	"github.com/blimu-dev/asyncapi-gen/pkg/ir"
)

const typeNull = "null"

// vocabularyKeys are the schema keywords decoded through openapi3.Schema.
// Structural keywords (properties, items, compositions) are walked on the
// YAML tree instead so that declaration order survives.
var vocabularyKeys = []string{
	"type", "format", "enum", "const", "required", "nullable",
	"title", "description", "default", "example", "deprecated", "readOnly", "writeOnly",
}

// decodeVocabulary reads the non-structural keywords of a schema mapping
func decodeVocabulary(node *yaml.Node) (*openapi3.Schema, error) {
	shallow := map[string]any{}
	for _, key := range vocabularyKeys {
		v := asyncapi.Get(node, key)
		if v == nil {
			continue
		}
		var decoded any
		if err := v.Decode(&decoded); err != nil {
			return nil, errors.Wrapf(err, "decode %s", key)
		}
		shallow[key] = decoded
	}
	if c, ok := shallow["const"]; ok {
		if _, hasEnum := shallow["enum"]; !hasEnum {
			shallow["enum"] = []any{c}
		}
		delete(shallow, "const")
	}

	raw, err := json.Marshal(shallow)
	if err != nil {
		return nil, errors.Wrap(err, "encode schema vocabulary")
	}
	var s openapi3.Schema
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, errors.Wrap(err, "decode schema vocabulary")
	}
	return &s, nil
}

const typeListSep = "|"

// primitiveKind maps a declared JSON Schema type to an IR kind
func primitiveKind(t string) (ir.IRSchemaKind, bool) {
	switch t {
	case openapi3.TypeString:
		return ir.IRKindString, true
	case openapi3.TypeInteger:
		return ir.IRKindInteger, true
	case openapi3.TypeNumber:
		return ir.IRKindNumber, true
	case openapi3.TypeBoolean:
		return ir.IRKindBoolean, true
	case typeNull:
		return ir.IRKindNull, true
	case openapi3.TypeArray:
		return ir.IRKindArray, true
	case openapi3.TypeObject:
		return ir.IRKindObject, true
	}
	return ir.IRKindUnknown, false
}

// declaredKind returns the non-null type of a schema, and whether "null" was
// part of a type list. Several non-null types come back joined with
// typeListSep.
func declaredKind(s *openapi3.Schema) (kind string, withNull bool) {
	if s.Type == nil {
		return "", false
	}
	var kinds []string
	for _, t := range *s.Type {
		if t == typeNull {
			withNull = true
			continue
		}
		kinds = append(kinds, t)
	}
	if len(kinds) == 0 && withNull {
		return typeNull, false
	}
	return strings.Join(kinds, typeListSep), withNull
}

// extractAnnotations extracts annotations from a schema
func extractAnnotations(s *openapi3.Schema) ir.IRAnnotations {
	var a ir.IRAnnotations
	if s == nil {
		return a
	}
	a.Title = s.Title
	a.Description = s.Description
	a.Deprecated = s.Deprecated
	a.ReadOnly = s.ReadOnly
	a.WriteOnly = s.WriteOnly
	a.Default = s.Default
	a.Example = s.Example
	return a
}

// inferEnumBaseKind infers the base kind for an enum
func inferEnumBaseKind(s *openapi3.Schema) ir.IRSchemaKind {
	// Prefer explicit type when present
	if s.Type != nil {
		switch {
		case s.Type.Is(openapi3.TypeString):
			return ir.IRKindString
		case s.Type.Is(openapi3.TypeInteger):
			return ir.IRKindInteger
		case s.Type.Is(openapi3.TypeNumber):
			return ir.IRKindNumber
		case s.Type.Is(openapi3.TypeBoolean):
			return ir.IRKindBoolean
		}
	}
	// Fallback: inspect the enum values, which arrive through encoding/json
	kind := ir.IRKindUnknown
	for _, v := range s.Enum {
		var k ir.IRSchemaKind
		switch x := v.(type) {
		case string:
			k = ir.IRKindString
		case float64:
			k = ir.IRKindNumber
			if x == float64(int64(x)) {
				k = ir.IRKindInteger
			}
		case bool:
			k = ir.IRKindBoolean
		default:
			return ir.IRKindUnknown
		}
		switch {
		case kind == ir.IRKindUnknown:
			kind = k
		case kind == k:
		case (kind == ir.IRKindInteger && k == ir.IRKindNumber) || (kind == ir.IRKindNumber && k == ir.IRKindInteger):
			kind = ir.IRKindNumber
		default:
			return ir.IRKindUnknown
		}
	}
	return kind
}
