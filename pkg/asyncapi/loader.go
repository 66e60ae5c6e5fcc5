// Package asyncapi loads AsyncAPI 2.x and 3.x contracts into an ordered YAML
// node tree and checks their surface shape.
package asyncapi

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/cockroachdb/errors"
	"github.com/go-openapi/jsonpointer"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/blimu-dev/asyncapi-gen/pkg/generrors"
)

// MissingPathMessage is reported when no contract path is given
const MissingPathMessage = "An AsyncAPI definition path is required to generate the service."

// SupportedVersions is the range of AsyncAPI versions the loader accepts
const SupportedVersions = ">= 2.0.0-0, < 4.0.0-0"

var supportedExtensions = map[string]bool{".yaml": true, ".yml": true, ".json": true}

// Document is a loaded contract. It is immutable after LoadDocument returns.
type Document struct {
	Path        string
	Version     *semver.Version
	Title       string
	InfoVersion string
	Description string
	Root        *yaml.Node

	Servers         []Server
	Channels        []Entry
	Operations      []Entry
	Schemas         []Entry
	Messages        []Entry
	Parameters      []Entry
	SecuritySchemes []Entry
}

// Entry is a named section member together with its document pointer
type Entry struct {
	Name    string
	Pointer string
	Node    *yaml.Node
}

// Server is one entry of the servers section
type Server struct {
	Name        string
	URL         string
	Protocol    string
	Description string
}

// IsV3 reports whether the contract uses the 3.x layout
func (d *Document) IsV3() bool {
	return d.Version != nil && d.Version.Major() >= 3
}

// Lookup resolves a document-relative JSON pointer such as "#/components/schemas/Pet"
func (d *Document) Lookup(ref string) (*yaml.Node, error) {
	if !strings.HasPrefix(ref, "#") {
		return nil, errors.Newf("reference %q is not local to the document", ref)
	}
	p, err := jsonpointer.New(strings.TrimPrefix(ref, "#"))
	if err != nil {
		return nil, errors.Wrapf(err, "parse pointer %q", ref)
	}
	cur := Deref(d.Root)
	for _, tok := range p.DecodedTokens() {
		switch {
		case cur == nil:
			return nil, errors.Newf("path %q does not exist", ref)
		case cur.Kind == yaml.MappingNode:
			cur = Get(cur, tok)
		case cur.Kind == yaml.SequenceNode:
			idx, err := strconv.Atoi(tok)
			if err != nil || idx < 0 || idx >= len(cur.Content) {
				return nil, errors.Newf("path %q does not exist", ref)
			}
			cur = Deref(cur.Content[idx])
		default:
			return nil, errors.Newf("path %q does not exist", ref)
		}
	}
	if cur == nil {
		return nil, errors.Newf("path %q does not exist", ref)
	}
	return cur, nil
}

// Option configures LoadDocument
type Option func(*loadOptions)

type loadOptions struct {
	logger *zap.Logger
}

// WithLogger sets the logger used while loading
func WithLogger(l *zap.Logger) Option {
	return func(o *loadOptions) {
		o.logger = l
	}
}

// LoadDocument reads, parses and surface-validates the contract at path
func LoadDocument(path string, opts ...Option) (*Document, error) {
	o := loadOptions{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	if strings.TrimSpace(path) == "" {
		return nil, &generrors.InputError{Kind: generrors.InputMissing, Message: MissingPathMessage}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &generrors.InputError{Kind: generrors.InputNotFound, Path: path, Message: "AsyncAPI contract file does not exist"}
		}
		return nil, &generrors.InputError{Kind: generrors.InputInvalid, Path: path, Message: "cannot access AsyncAPI contract", Cause: err}
	}
	if info.IsDir() {
		return nil, &generrors.InputError{Kind: generrors.InputInvalid, Path: path, Message: "AsyncAPI contract path is a directory: " + path}
	}
	if !supportedExtensions[strings.ToLower(filepath.Ext(path))] {
		return nil, &generrors.InputError{Kind: generrors.InputUnsupportedExtension, Path: path, Message: "AsyncAPI contract must have a .yaml, .yml or .json extension"}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &generrors.InputError{Kind: generrors.InputInvalid, Path: path, Message: "cannot read AsyncAPI contract", Cause: err}
	}

	doc, err := Parse(path, data)
	if err != nil {
		return nil, err
	}
	o.logger.Debug("contract loaded",
		zap.String("path", path),
		zap.String("asyncapi", doc.Version.Original()),
		zap.Int("channels", len(doc.Channels)),
		zap.Int("schemas", len(doc.Schemas)))
	return doc, nil
}

// Parse builds a Document from raw YAML or JSON bytes. path is only used in errors.
func Parse(path string, data []byte) (*Document, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, &generrors.MalformedDocumentError{Path: path, Cause: err}
	}
	top := Deref(&root)
	if top == nil || top.Kind == 0 {
		return nil, &generrors.MalformedDocumentError{Path: path, Message: "document is empty"}
	}
	if top.Kind != yaml.MappingNode {
		return nil, &generrors.MalformedDocumentError{Path: path, Line: top.Line, Column: top.Column, Message: "document root must be a mapping"}
	}
	if err := checkDuplicateKeys(path, top, map[*yaml.Node]bool{}); err != nil {
		return nil, err
	}

	doc := &Document{Path: path, Root: top}
	var problems []string
	problemf := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	raw := Str(top, "asyncapi")
	if raw == "" {
		problemf("asyncapi version field is required")
	} else {
		v, err := semver.NewVersion(raw)
		if err != nil {
			problemf("asyncapi version %q is not a semantic version", raw)
		} else {
			c, _ := semver.NewConstraint(SupportedVersions)
			if !c.Check(v) {
				problemf("asyncapi version %s is not supported (want %s)", raw, SupportedVersions)
			}
			doc.Version = v
		}
	}

	infoNode := Get(top, "info")
	if !IsMap(infoNode) {
		problemf("info must be a mapping")
	} else {
		doc.Title = Str(infoNode, "title")
		doc.InfoVersion = Str(infoNode, "version")
		doc.Description = Str(infoNode, "description")
		if doc.Title == "" {
			problemf("info.title is required")
		}
		if doc.InfoVersion == "" {
			problemf("info.version is required")
		}
	}

	requireMap := func(n *yaml.Node, where string) bool {
		if n == nil {
			return false
		}
		if !IsMap(n) {
			problemf("%s must be a mapping", where)
			return false
		}
		return true
	}

	if servers := Get(top, "servers"); requireMap(servers, "servers") {
		for _, p := range Pairs(servers) {
			s := Deref(p.Value)
			srv := Server{Name: p.Key, Protocol: Str(s, "protocol"), Description: Str(s, "description")}
			if u := Str(s, "url"); u != "" {
				srv.URL = u
			} else if host := Str(s, "host"); host != "" {
				srv.URL = host + Str(s, "pathname")
				if srv.Protocol != "" && !strings.Contains(host, "://") {
					srv.URL = srv.Protocol + "://" + srv.URL
				}
			}
			doc.Servers = append(doc.Servers, srv)
		}
	}

	if channels := Get(top, "channels"); requireMap(channels, "channels") {
		for _, p := range Pairs(channels) {
			ptr := Pointer("channels", p.Key)
			ch := Deref(p.Value)
			if !IsMap(ch) {
				problemf("channel %q must be a mapping", p.Key)
				continue
			}
			if doc.Version != nil && !doc.IsV3() {
				for _, dir := range []string{"publish", "subscribe"} {
					if op := Get(ch, dir); op != nil && !IsMap(op) {
						problemf("channel %q %s must be a mapping", p.Key, dir)
					}
				}
			}
			doc.Channels = append(doc.Channels, Entry{Name: p.Key, Pointer: ptr, Node: ch})
		}
	}

	if ops := Get(top, "operations"); requireMap(ops, "operations") {
		for _, p := range Pairs(ops) {
			op := Deref(p.Value)
			if !IsMap(op) {
				problemf("operation %q must be a mapping", p.Key)
				continue
			}
			if Get(op, "$ref") == nil {
				switch action := Str(op, "action"); action {
				case "send", "receive":
				case "":
					problemf("operation %q is missing action", p.Key)
				default:
					problemf("operation %q has invalid action %q (want send or receive)", p.Key, action)
				}
				if Get(op, "channel") == nil {
					problemf("operation %q is missing channel", p.Key)
				}
			}
			doc.Operations = append(doc.Operations, Entry{Name: p.Key, Pointer: Pointer("operations", p.Key), Node: op})
		}
	}

	if comps := Get(top, "components"); requireMap(comps, "components") {
		sections := []struct {
			key  string
			dest *[]Entry
		}{
			{"schemas", &doc.Schemas},
			{"messages", &doc.Messages},
			{"parameters", &doc.Parameters},
			{"securitySchemes", &doc.SecuritySchemes},
		}
		for _, sec := range sections {
			n := Get(comps, sec.key)
			if !requireMap(n, "components."+sec.key) {
				continue
			}
			for _, p := range Pairs(n) {
				*sec.dest = append(*sec.dest, Entry{Name: p.Key, Pointer: Pointer("components", sec.key, p.Key), Node: Deref(p.Value)})
			}
		}
	}

	if len(problems) > 0 {
		return nil, &generrors.SchemaValidationError{Path: path, Problems: problems}
	}
	return doc, nil
}

// ValidateDocument loads the contract and reports the first fatal problem
func ValidateDocument(path string, opts ...Option) error {
	_, err := LoadDocument(path, opts...)
	return err
}

func checkDuplicateKeys(path string, n *yaml.Node, visited map[*yaml.Node]bool) error {
	if n == nil || visited[n] {
		return nil
	}
	visited[n] = true
	switch n.Kind {
	case yaml.MappingNode:
		seen := make(map[string]int, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			k := n.Content[i]
			if first, dup := seen[k.Value]; dup {
				return &generrors.MalformedDocumentError{
					Path:    path,
					Line:    k.Line,
					Column:  k.Column,
					Message: fmt.Sprintf("duplicate key %q (first declared at line %d)", k.Value, first),
				}
			}
			seen[k.Value] = k.Line
			if err := checkDuplicateKeys(path, n.Content[i+1], visited); err != nil {
				return err
			}
		}
	case yaml.SequenceNode, yaml.DocumentNode:
		for _, c := range n.Content {
			if err := checkDuplicateKeys(path, c, visited); err != nil {
				return err
			}
		}
	case yaml.AliasNode:
		return checkDuplicateKeys(path, n.Alias, visited)
	}
	return nil
}
