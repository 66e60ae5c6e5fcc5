package golang

import (
	"fmt"
	"strconv"

	"github.com/blimu-dev/asyncapi-gen/pkg/diag"
	"github.com/blimu-dev/asyncapi-gen/pkg/generrors"
	"github.com/blimu-dev/asyncapi-gen/pkg/ir"
	"github.com/blimu-dev/asyncapi-gen/pkg/utils"
)

// nameRegistry hands out package-level identifiers. A name belongs to the
// first origin that claims it; other origins get a numeric suffix.
type nameRegistry struct {
	owners map[string]string
}

func newNameRegistry() *nameRegistry {
	return &nameRegistry{owners: map[string]string{}}
}

// reserve pins a name to an origin without collision handling
func (r *nameRegistry) reserve(name, origin string) {
	r.owners[name] = origin
}

func (r *nameRegistry) claim(base, origin string) string {
	name := base
	for i := 2; ; i++ {
		owner, taken := r.owners[name]
		if !taken {
			r.owners[name] = origin
			return name
		}
		if owner == origin {
			return name
		}
		name = fmt.Sprintf("%s%d", base, i)
	}
}

func (r *nameRegistry) owned(name string) bool {
	_, ok := r.owners[name]
	return ok
}

// typeMapper turns graph nodes into Go type expressions and declarations.
// Every node identity is declared at most once.
type typeMapper struct {
	graph    ir.IR
	names    *nameRegistry
	nullable bool
	diags    *diag.List

	roots       map[string]bool
	declared    map[string]string
	exprs       map[string]string
	backTargets map[string]bool
	decls       []*ir.TypeDecl
}

func newTypeMapper(graph ir.IR, names *nameRegistry, nullable bool, diags *diag.List) *typeMapper {
	m := &typeMapper{
		graph:       graph,
		names:       names,
		nullable:    nullable,
		diags:       diags,
		roots:       map[string]bool{},
		declared:    map[string]string{},
		exprs:       map[string]string{},
		backTargets: map[string]bool{},
	}
	for _, r := range graph.Roots {
		m.roots[r.ID] = true
	}
	return m
}

// mapRoots declares every component schema in declaration order
func (m *typeMapper) mapRoots() error {
	for _, root := range m.graph.Roots {
		if _, err := m.goType(root, root.Name); err != nil {
			return err
		}
	}
	return nil
}

// declarations returns what has been declared so far, parents before inline children
func (m *typeMapper) declarations() []ir.TypeDecl {
	out := make([]ir.TypeDecl, 0, len(m.decls))
	for _, d := range m.decls {
		out = append(out, *d)
	}
	return out
}

// needsDecl reports whether a node is rendered as a named declaration
func (m *typeMapper) needsDecl(s *ir.IRSchema) bool {
	if m.roots[s.ID] {
		return true
	}
	switch s.Kind {
	case ir.IRKindObject, ir.IRKindEnum, ir.IRKindOneOf, ir.IRKindAnyOf, ir.IRKindAllOf:
		return true
	}
	return false
}

// structLike reports whether a node is declared as a struct
func structLike(s *ir.IRSchema) bool {
	switch s.Kind {
	case ir.IRKindObject, ir.IRKindOneOf, ir.IRKindAnyOf, ir.IRKindAllOf:
		return true
	}
	return false
}

// isNullable follows references to find a nullable marker
func (m *typeMapper) isNullable(s *ir.IRSchema) bool {
	if s == nil {
		return false
	}
	if s.Nullable {
		return true
	}
	t := m.graph.Target(s)
	return t != nil && t.Nullable
}

// fieldType maps a property or parameter, making it a pointer when optional
func (m *typeMapper) fieldType(s *ir.IRSchema, hint string, required bool) (string, bool, error) {
	t, err := m.goType(s, hint)
	if err != nil {
		return "", false, err
	}
	optional := !required || m.nullable || m.isNullable(s)
	if optional {
		t = pointerTo(t)
	}
	return t, optional, nil
}

// goType returns the Go type expression for a schema usage. hint names
// inline declarations.
func (m *typeMapper) goType(s *ir.IRSchema, hint string) (string, error) {
	if s == nil {
		return "any", nil
	}
	if name, ok := m.declared[s.ID]; ok {
		return name, nil
	}
	if s.Kind == ir.IRKindRef && !m.roots[s.ID] {
		return m.refType(s, hint)
	}
	if m.needsDecl(s) {
		return m.declare(s, hint)
	}
	if t, ok := m.exprs[s.ID]; ok {
		return t, nil
	}
	t, err := m.inlineType(s, hint)
	if err != nil {
		return "", err
	}
	m.exprs[s.ID] = t
	return t, nil
}

func (m *typeMapper) refType(s *ir.IRSchema, hint string) (string, error) {
	target, ok := m.graph.Nodes[s.Ref]
	if !ok {
		return "", &generrors.UnsupportedSchemaShapeError{ID: s.ID, Reason: fmt.Sprintf("reference target %s is missing", s.Ref)}
	}
	if !s.BackRef {
		if target.Name != "" {
			hint = target.Name
		}
		return m.goType(target, hint)
	}

	// the target is still being declared further up the stack
	name, ok := m.declared[target.ID]
	if !ok {
		m.diags.Warnf(s.ID, "recursive reference to an unnamed schema, using an opaque type")
		return "any", nil
	}
	m.backTargets[target.ID] = true
	if structLike(target) {
		return "*" + name, nil
	}
	return name, nil
}

// inlineType renders arrays, maps and primitives without a declaration
func (m *typeMapper) inlineType(s *ir.IRSchema, hint string) (string, error) {
	switch s.Kind {
	case ir.IRKindArray:
		if s.Items == nil {
			return "[]any", nil
		}
		inner, err := m.goType(s.Items, hint+"Item")
		if err != nil {
			return "", err
		}
		return "[]" + inner, nil
	case ir.IRKindMap, ir.IRKindObject:
		if s.AdditionalProperties == nil {
			return "map[string]any", nil
		}
		inner, err := m.goType(s.AdditionalProperties, hint+"Value")
		if err != nil {
			return "", err
		}
		return "map[string]" + inner, nil
	case ir.IRKindNull:
		return "any", nil
	case ir.IRKindInvalid:
		return "", &generrors.UnsupportedSchemaShapeError{ID: s.ID, Reason: s.Problem}
	case ir.IRKindUnknown, "":
		if s.DeclaredType != "" {
			m.diags.Warnf(s.ID, "unknown type %q, using an opaque type", s.DeclaredType)
		}
		return "any", nil
	}
	return m.primitive(s), nil
}

// primitive applies the (kind, format) table
func (m *typeMapper) primitive(s *ir.IRSchema) string {
	switch s.Kind {
	case ir.IRKindString:
		switch s.Format {
		case "byte", "binary":
			return "[]byte"
		case "date-time":
			return "time.Time"
		}
		return "string"
	case ir.IRKindInteger:
		switch s.Format {
		case "", "int64":
			return "int64"
		case "int32":
			return "int32"
		}
	case ir.IRKindNumber:
		switch s.Format {
		case "", "double":
			return "float64"
		case "float":
			return "float32"
		}
	case ir.IRKindBoolean:
		return "bool"
	}
	m.diags.Warnf(s.ID, "no Go type for %s with format %q, using an opaque type", s.Kind, s.Format)
	return "any"
}

func (m *typeMapper) declName(s *ir.IRSchema, hint string) string {
	base := hint
	if s.Name != "" {
		base = s.Name
	}
	return m.names.claim(utils.TypeName(base), s.ID)
}

// declare claims the node's name before descending so that back-references
// inside the declaration can point at it
func (m *typeMapper) declare(s *ir.IRSchema, hint string) (string, error) {
	name := m.declName(s, hint)
	m.declared[s.ID] = name
	decl := &ir.TypeDecl{Name: name, Origin: s.ID, Doc: s.Annotations.Description}
	if decl.Doc == "" {
		decl.Doc = s.Annotations.Title
	}
	m.decls = append(m.decls, decl)

	var err error
	switch s.Kind {
	case ir.IRKindObject:
		decl.Kind = ir.DeclStruct
		decl.Fields, err = m.fields(name, s.Properties)
		if err == nil && s.AdditionalProperties != nil {
			m.diags.Warnf(s.ID, "additionalProperties next to properties are not represented")
		}
	case ir.IRKindEnum:
		m.enum(decl, s)
	case ir.IRKindOneOf, ir.IRKindAnyOf:
		err = m.union(decl, s)
	case ir.IRKindAllOf:
		err = m.allOf(decl, s)
	case ir.IRKindRef:
		decl.Kind = ir.DeclAlias
		decl.Alias, err = m.refType(s, name)
	default:
		decl.Kind = ir.DeclAlias
		decl.Alias, err = m.inlineType(s, name)
		if err == nil && m.backTargets[s.ID] {
			// an alias cannot refer to itself
			decl.Defined = true
		}
	}
	if err != nil {
		return "", err
	}
	return name, nil
}

func (m *typeMapper) fields(parent string, props []ir.IRField) ([]ir.FieldDecl, error) {
	taken := map[string]bool{}
	out := make([]ir.FieldDecl, 0, len(props))
	for _, p := range props {
		fieldName := uniqueIdent(utils.TypeName(p.Name), taken)
		t, optional, err := m.fieldType(p.Type, parent+fieldName, p.Required)
		if err != nil {
			return nil, err
		}
		out = append(out, ir.FieldDecl{
			Name:     fieldName,
			JSONName: p.Name,
			Type:     t,
			Optional: optional,
			Doc:      p.Annotations.Description,
		})
	}
	return out, nil
}

func (m *typeMapper) enum(decl *ir.TypeDecl, s *ir.IRSchema) {
	decl.Kind = ir.DeclEnum
	switch s.EnumBase {
	case ir.IRKindString:
		decl.EnumBase = "string"
	case ir.IRKindInteger:
		decl.EnumBase = "int64"
	case ir.IRKindNumber:
		decl.EnumBase = "float64"
	case ir.IRKindBoolean:
		decl.EnumBase = "bool"
	default:
		m.diags.Warnf(s.ID, "enum values of mixed kinds, using an opaque type")
		decl.Kind = ir.DeclAlias
		decl.Alias = "any"
		return
	}

	for _, v := range s.EnumRaw {
		if v == nil {
			continue
		}
		raw := fmt.Sprint(v)
		suffix := toPascalCase(raw)
		if suffix == "" {
			suffix = "Empty"
		}
		literal := raw
		if decl.EnumBase == "string" {
			literal = strconv.Quote(raw)
		}
		decl.Members = append(decl.Members, ir.EnumMember{
			Name:    m.names.claim(decl.Name+suffix, decl.Origin+"="+raw),
			Literal: literal,
		})
	}
}

func (m *typeMapper) union(decl *ir.TypeDecl, s *ir.IRSchema) error {
	decl.Kind = ir.DeclUnion
	members := s.OneOf
	if s.Kind == ir.IRKindAnyOf {
		members = s.AnyOf
	}
	taken := map[string]bool{}
	for i, member := range members {
		t, err := m.goType(member, fmt.Sprintf("%sVariant%d", decl.Name, i+1))
		if err != nil {
			return err
		}
		decl.Variants = append(decl.Variants, ir.VariantDecl{
			Name: uniqueIdent(typeLabel(t), taken),
			Type: pointerTo(t),
		})
	}
	return nil
}

// allOf embeds named members and flattens inline object members
func (m *typeMapper) allOf(decl *ir.TypeDecl, s *ir.IRSchema) error {
	decl.Kind = ir.DeclStruct
	var props []ir.IRField
	for _, member := range s.AllOf {
		if member.Kind == ir.IRKindRef {
			target := m.graph.Target(member)
			if target != nil && (structLike(target) || target.Kind == ir.IRKindRef) {
				t, err := m.goType(member, decl.Name)
				if err != nil {
					return err
				}
				decl.Embeds = append(decl.Embeds, t)
				continue
			}
		}
		if member.Kind == ir.IRKindObject {
			props = append(props, member.Properties...)
			continue
		}
		m.diags.Warnf(member.ID, "allOf member is not an object and was left out")
	}
	props = append(props, s.Properties...)
	fields, err := m.fields(decl.Name, props)
	if err != nil {
		return err
	}
	decl.Fields = fields
	return nil
}
