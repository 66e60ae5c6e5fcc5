package golang

import (
	"bytes"
	"embed"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/cockroachdb/errors"
	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"
	"golang.org/x/tools/imports"

	"github.com/blimu-dev/asyncapi-gen/internal/logger"
	"github.com/blimu-dev/asyncapi-gen/pkg/assembler"
	"github.com/blimu-dev/asyncapi-gen/pkg/config"
	"github.com/blimu-dev/asyncapi-gen/pkg/diag"
	"github.com/blimu-dev/asyncapi-gen/pkg/ir"
	"github.com/blimu-dev/asyncapi-gen/pkg/pipeline"
	"github.com/blimu-dev/asyncapi-gen/pkg/utils"
)

//go:embed templates/*
var templatesFS embed.FS

// GeneratedHeader marks files that are rewritten on every run
const GeneratedHeader = "// Code generated by asyncapi-gen. DO NOT EDIT."

const (
	originAuthPrefix     = "auth:"
	originScaffoldPrefix = "scaffold:"
)

// GoGenerator implements the Generator interface for Go
type GoGenerator struct {
	logger *zap.Logger
}

// Option configures a GoGenerator
type Option func(*GoGenerator)

// WithLogger sets the logger used while generating
func WithLogger(l *zap.Logger) Option {
	return func(g *GoGenerator) {
		g.logger = l
	}
}

// NewGoGenerator creates a new Go generator
func NewGoGenerator(opts ...Option) *GoGenerator {
	g := &GoGenerator{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// GetType returns the generator type identifier
func (g *GoGenerator) GetType() string {
	return "go"
}

type serviceModel struct {
	Name          string
	Handler       string
	Unimplemented string
	Methods       []*methodModel
}

type templateData struct {
	Package     string
	Module      string
	Title       string
	Version     string
	Description string
	Decls       []ir.TypeDecl
	Client      clientModel
	Auth        authModel
	HasAuth     bool
	Service     serviceModel
}

// Generate maps, synthesizes and assembles one client target and renders
// its artifacts. Nothing is written to disk.
func (g *GoGenerator) Generate(client config.Client, in ir.IR, tracker *pipeline.Tracker) (*ir.Bundle, error) {
	log := logger.OrNop(g.logger).With(zap.String(logger.FieldClient, client.Name))
	diags := &diag.List{}

	names := newNameRegistry()
	for _, n := range scaffoldNames {
		names.reserve(n, originScaffoldPrefix+n)
	}
	var service serviceModel
	if client.IsService() {
		service = serviceModel{Name: utils.TypeName(in.Title)}
		service.Handler = service.Name + "Handler"
		service.Unimplemented = "Unimplemented" + service.Name
		for _, n := range []string{service.Handler, service.Unimplemented, "ErrNotImplemented"} {
			names.reserve(n, originScaffoldPrefix+n)
		}
	}
	auth, authDecls := synthesizeAuth(in.SecuritySchemes, names, diags)

	mapper := newTypeMapper(in, names, client.Nullable, diags)
	if err := mapper.mapRoots(); err != nil {
		return nil, err
	}
	if err := advance(tracker, pipeline.Mapped); err != nil {
		return nil, err
	}

	model, clientDecls, roots, err := synthesizeClient(in, client, mapper, names, diags)
	if err != nil {
		return nil, err
	}
	service.Methods = model.Sends()
	if err := advance(tracker, pipeline.Synthesized); err != nil {
		return nil, err
	}

	scaffold := []ir.TypeDecl{connectionConfigDecl(!auth.Empty())}
	roots = append(roots, scaffold[0].Name)
	for _, d := range authDecls {
		roots = append(roots, d.Name)
	}

	groups := [][]ir.TypeDecl{mapper.declarations(), clientDecls, authDecls, scaffold}
	fillRefs(groups)
	decls, err := assembler.Assemble(assembler.Options{Prune: in.Filtered, Roots: roots}, groups...)
	if err != nil {
		return nil, err
	}

	data := templateData{
		Package:     sanitizePackageName(client.PackageName),
		Module:      client.ModuleName,
		Title:       in.Title,
		Version:     in.Version,
		Description: in.Description,
		Decls:       renderedDecls(decls),
		Client:      model,
		Auth:        auth,
		HasAuth:     !auth.Empty(),
		Service:     service,
	}
	if data.Module == "" {
		data.Module = client.PackageName
	}

	artifacts, err := g.renderArtifacts(client, data, diags)
	if err != nil {
		return nil, err
	}
	if err := advance(tracker, pipeline.Assembled); err != nil {
		return nil, err
	}

	log.Debug("bundle ready",
		zap.Int(logger.FieldCount, len(artifacts)),
		zap.Int("declarations", len(data.Decls)),
		zap.Int("diagnostics", diags.Len()))
	return &ir.Bundle{Artifacts: artifacts, Diagnostics: diags.Items()}, nil
}

func advance(tracker *pipeline.Tracker, stage pipeline.Stage) error {
	if tracker == nil {
		return nil
	}
	return tracker.Advance(stage)
}

func connectionConfigDecl(withAuth bool) ir.TypeDecl {
	d := ir.TypeDecl{
		Name:   "ConnectionConfig",
		Origin: originScaffoldPrefix + "ConnectionConfig",
		Kind:   ir.DeclStruct,
		Fields: []ir.FieldDecl{{Name: "ServiceURL", JSONName: "service_url", Type: "string"}},
	}
	if withAuth {
		d.Fields = append(d.Fields, ir.FieldDecl{Name: "Auth", JSONName: "auth", Type: "AuthConfig"})
	}
	return d
}

// renderedDecls drops the declarations that client.go and utils.go render themselves
func renderedDecls(decls []ir.TypeDecl) []ir.TypeDecl {
	out := make([]ir.TypeDecl, 0, len(decls))
	for _, d := range decls {
		if strings.HasPrefix(d.Origin, originAuthPrefix) || strings.HasPrefix(d.Origin, originScaffoldPrefix) {
			continue
		}
		out = append(out, d)
	}
	return out
}

var identPattern = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?`)

// typeIdents lists the unqualified identifiers of a type expression
func typeIdents(t string) []string {
	var out []string
	for _, id := range identPattern.FindAllString(t, -1) {
		if strings.Contains(id, ".") || id == "map" {
			continue
		}
		out = append(out, id)
	}
	return out
}

// fillRefs records, for every declaration, the other declarations it mentions
func fillRefs(groups [][]ir.TypeDecl) {
	known := map[string]bool{}
	for _, g := range groups {
		for _, d := range g {
			known[d.Name] = true
		}
	}
	for _, g := range groups {
		for i := range g {
			d := &g[i]
			seen := map[string]bool{}
			var exprs []string
			for _, f := range d.Fields {
				exprs = append(exprs, f.Type)
			}
			for _, v := range d.Variants {
				exprs = append(exprs, v.Type)
			}
			exprs = append(exprs, d.Embeds...)
			exprs = append(exprs, d.Alias)
			for _, e := range exprs {
				for _, id := range typeIdents(e) {
					if known[id] && !seen[id] && id != d.Name {
						seen[id] = true
						d.Refs = append(d.Refs, id)
					}
				}
			}
			sort.Strings(d.Refs)
		}
	}
}

func (g *GoGenerator) renderArtifacts(client config.Client, data templateData, diags *diag.List) ([]ir.Artifact, error) {
	funcs := funcMap()
	var out []ir.Artifact
	add := func(a ir.Artifact) {
		// Check if file should be excluded
		if client.ShouldExcludeFile(filepath.Join(client.OutDir, filepath.FromSlash(a.Destination()))) {
			g.logger.Debug("artifact excluded", zap.String(logger.FieldFile, a.Destination()))
			return
		}
		out = append(out, a)
	}

	goFiles := []struct {
		tmpl   string
		path   string
		kind   ir.ArtifactKind
		policy ir.WritePolicy
		when   bool
	}{
		{"types.go.gotmpl", "types.go", ir.ArtifactTypes, ir.AlwaysOverwrite, true},
		{"client.go.gotmpl", "client.go", ir.ArtifactClient, ir.AlwaysOverwrite, true},
		{"utils.go.gotmpl", "utils.go", ir.ArtifactUtils, ir.AlwaysOverwrite, data.HasAuth},
		{"client_test.go.gotmpl", "client_test.go", ir.ArtifactTest, ir.WriteOnce, client.WithTests},
		{"service.go.gotmpl", serviceFileName(data.Title), ir.ArtifactService, ir.WriteOnce, client.IsService()},
	}
	for _, f := range goFiles {
		if !f.when {
			continue
		}
		content, err := render(f.tmpl, funcs, data, diags)
		if err != nil {
			return nil, err
		}
		add(ir.Artifact{Kind: f.kind, Path: f.path, Content: content, Policy: f.policy})
	}

	if client.WithTests {
		content, err := renderTestConfig(data)
		if err != nil {
			return nil, err
		}
		add(ir.Artifact{Kind: ir.ArtifactConfig, Path: "Config.toml", Content: content, Policy: ir.WriteOnce})
	}
	return out, nil
}

// serviceFileName is the title split on non-alphanumerics, lowercased and joined with "_"
func serviceFileName(title string) string {
	stem := utils.FileStem(title)
	if stem == "" {
		stem = "api"
	}
	return stem + "_service.go"
}

func funcMap() template.FuncMap {
	funcs := sprig.TxtFuncMap()
	custom := template.FuncMap{
		"comment":  formatGoComment,
		"goString": strconv.Quote,
		"header":   func() string { return GeneratedHeader },
		"structTag": func(f ir.FieldDecl) string {
			tag := f.JSONName
			if f.Optional {
				tag += ",omitempty"
			}
			return "`json:" + strconv.Quote(tag) + "`"
		},
		"declKind": func(d ir.TypeDecl) string { return string(d.Kind) },
	}
	for k, v := range custom {
		funcs[k] = v
	}
	return funcs
}

// render executes a template and runs the result through goimports. A
// formatting failure keeps the unformatted text and records a warning.
func render(name string, funcs template.FuncMap, data templateData, diags *diag.List) ([]byte, error) {
	src, err := templatesFS.ReadFile("templates/" + name)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read template %s", name)
	}
	tmpl, err := template.New(name).Funcs(funcs).Parse(string(src))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse template %s", name)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, errors.Wrapf(err, "failed to execute template %s", name)
	}

	formatted, err := imports.Process(strings.TrimSuffix(name, ".gotmpl"), buf.Bytes(), nil)
	if err != nil {
		diags.Warnf(strings.TrimSuffix(name, ".gotmpl"), "generated code could not be formatted: %v", err)
		return buf.Bytes(), nil
	}
	return formatted, nil
}

// renderTestConfig renders tests/Config.toml with one section per auth config
func renderTestConfig(data templateData) ([]byte, error) {
	doc := map[string]any{
		"connection": map[string]any{"service_url": data.Client.DefaultURL},
	}
	if data.HasAuth {
		auth := map[string]any{}
		for _, c := range data.Auth.Configs {
			section := map[string]any{}
			for _, f := range authFields(c) {
				switch f.JSONName {
				case "token_url":
					section[f.JSONName] = c.TokenURL
				case "scopes":
					scopes := c.Scopes
					if scopes == nil {
						scopes = []string{}
					}
					section[f.JSONName] = scopes
				default:
					section[f.JSONName] = ""
				}
			}
			auth[authSection(c)] = section
		}
		doc["auth"] = auth
	}
	out, err := toml.Marshal(doc)
	if err != nil {
		return nil, errors.Wrap(err, "failed to render Config.toml")
	}
	return out, nil
}

// authSection is the TOML table name of an auth config, e.g. "bearer_token"
func authSection(c *authConfig) string {
	return toSnakeCase(strings.TrimSuffix(c.TypeName, "Config"))
}
