package ir

import (
	"path"

	"github.com/blimu-dev/asyncapi-gen/pkg/diag"
)

// DeclKind is the shape of a generated declaration
type DeclKind string

const (
	DeclStruct DeclKind = "struct"
	DeclEnum   DeclKind = "enum"
	DeclAlias  DeclKind = "alias"
	DeclUnion  DeclKind = "union"
)

// TypeDecl is a named, Go-shaped declaration derived from one or more schema nodes
type TypeDecl struct {
	Name string
	// Origin is the identity of the source, e.g. "#/components/schemas/Pet" or "auth:bearer"
	Origin string
	Kind   DeclKind
	Doc    string

	// Struct
	Fields []FieldDecl
	Embeds []string

	// Enum
	EnumBase string
	Members  []EnumMember

	// Alias. Defined selects `type X T` over `type X = T`
	Alias   string
	Defined bool

	// Union
	Variants []VariantDecl

	// Refs names the declarations this one mentions
	Refs []string
}

// FieldDecl is one struct field
type FieldDecl struct {
	Name     string
	JSONName string
	Type     string
	Optional bool
	Doc      string
}

// EnumMember is one constant of an enum declaration
type EnumMember struct {
	Name    string
	Literal string
}

// VariantDecl is one member of a union declaration
type VariantDecl struct {
	Name string
	Type string
}

// ArtifactKind tells what a generated file holds
type ArtifactKind string

const (
	ArtifactTypes   ArtifactKind = "type-module"
	ArtifactClient  ArtifactKind = "client-module"
	ArtifactUtils   ArtifactKind = "utils-module"
	ArtifactTest    ArtifactKind = "test-module"
	ArtifactConfig  ArtifactKind = "config-file"
	ArtifactService ArtifactKind = "service-module"
)

// WritePolicy decides what happens when the destination already exists
type WritePolicy int

const (
	AlwaysOverwrite WritePolicy = iota
	WriteOnce
)

func (p WritePolicy) String() string {
	if p == WriteOnce {
		return "write-once"
	}
	return "always-overwrite"
}

// Artifact is one generated file. Path is relative to the output root; test
// and config artifacts are relocated under tests/ by the writer.
type Artifact struct {
	Kind    ArtifactKind
	Path    string
	Content []byte
	Policy  WritePolicy
}

// Relocated reports whether the artifact belongs in the tests/ subdirectory
func (a Artifact) Relocated() bool {
	return a.Kind == ArtifactTest || a.Kind == ArtifactConfig
}

// TestsDir is the subdirectory relocated artifacts are written to
const TestsDir = "tests"

// Destination is the slash-separated path of the artifact below the output root
func (a Artifact) Destination() string {
	if a.Relocated() {
		return path.Join(TestsDir, a.Path)
	}
	return a.Path
}

// Bundle is the output of one generator run for one client target
type Bundle struct {
	Artifacts   []Artifact
	Diagnostics []diag.Diagnostic
}
