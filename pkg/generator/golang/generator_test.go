package golang_test

import (
	"go/parser"
	"go/token"
	"regexp"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blimu-dev/asyncapi-gen/pkg/asyncapi"
	"github.com/blimu-dev/asyncapi-gen/pkg/config"
	"github.com/blimu-dev/asyncapi-gen/pkg/diag"
	"github.com/blimu-dev/asyncapi-gen/pkg/generator"
	"github.com/blimu-dev/asyncapi-gen/pkg/generator/golang"
	"github.com/blimu-dev/asyncapi-gen/pkg/generrors"
	"github.com/blimu-dev/asyncapi-gen/pkg/ir"
	"github.com/blimu-dev/asyncapi-gen/pkg/pipeline"
)

const petContract = `asyncapi: 2.6.0
info:
  title: Pets
  version: 1.0.0
servers:
  local:
    url: ws://localhost:8080
    protocol: ws
channels:
  /pets/{id}:
    parameters:
      id:
        schema:
          type: integer
          format: int64
    subscribe:
      operationId: getPet
      message:
        payload:
          $ref: '#/components/schemas/Pet'
components:
  schemas:
    Pet:
      type: object
      required: [id]
      properties:
        id:
          type: integer
          format: int64
        name:
          type: string
`

const adoptContract = `asyncapi: 3.0.0
info:
  title: Pets
  version: 1.0.0
channels:
  adoptions:
    address: adoptions
    messages:
      adopt:
        payload:
          $ref: '#/components/schemas/Adoption'
operations:
  adoptPet:
    action: send
    channel:
      $ref: '#/channels/adoptions'
  watchAdoptions:
    action: receive
    channel:
      $ref: '#/channels/adoptions'
components:
  schemas:
    Adoption:
      type: object
      properties:
        petId: {type: integer}
  securitySchemes:
    token:
      type: http
      scheme: bearer
    key:
      type: httpApiKey
      name: X-Key
      in: header
`

func resolve(t *testing.T, src string) ir.IR {
	t.Helper()
	doc, err := asyncapi.Parse("contract.yaml", []byte(src))
	require.NoError(t, err)
	graph, err := generator.Resolve(doc, &diag.List{})
	require.NoError(t, err)
	return graph
}

func generate(t *testing.T, src string, client config.Client) *ir.Bundle {
	t.Helper()
	if client.Name == "" {
		client.Name = "pets"
	}
	if client.PackageName == "" {
		client.PackageName = "pets"
	}
	client.Normalize()
	bundle, err := golang.NewGoGenerator().Generate(client, resolve(t, src), nil)
	require.NoError(t, err)
	return bundle
}

func artifact(t *testing.T, b *ir.Bundle, path string) ir.Artifact {
	t.Helper()
	for _, a := range b.Artifacts {
		if a.Path == path {
			return a
		}
	}
	require.Failf(t, "artifact missing", "no artifact %s", path)
	return ir.Artifact{}
}

func paths(b *ir.Bundle) []string {
	out := make([]string, 0, len(b.Artifacts))
	for _, a := range b.Artifacts {
		out = append(out, a.Destination())
	}
	return out
}

// assertParses fails when the rendered source is not valid Go
func assertParses(t *testing.T, a ir.Artifact) {
	t.Helper()
	_, err := parser.ParseFile(token.NewFileSet(), a.Path, a.Content, parser.ParseComments)
	assert.NoError(t, err, "%s:\n%s", a.Path, a.Content)
}

func assertFormatted(t *testing.T, b *ir.Bundle) {
	t.Helper()
	for _, d := range b.Diagnostics {
		assert.NotContains(t, d.Message, "could not be formatted")
	}
}

func TestGeneratePetContract(t *testing.T) {
	b := generate(t, petContract, config.Client{})
	assert.Equal(t, []string{"types.go", "client.go"}, paths(b))
	assertFormatted(t, b)

	types := artifact(t, b, "types.go")
	assertParses(t, types)
	assert.Equal(t, ir.AlwaysOverwrite, types.Policy)
	src := string(types.Content)
	assert.True(t, strings.HasPrefix(src, golang.GeneratedHeader))
	assert.Contains(t, src, "type Pet struct {")
	assert.Regexp(t, regexp.MustCompile(`Id\s+int64\s+`+"`json:\"id\"`"), src)
	assert.Regexp(t, regexp.MustCompile(`Name\s+\*string\s+`+"`json:\"name,omitempty\"`"), src)

	client := artifact(t, b, "client.go")
	assertParses(t, client)
	csrc := string(client.Content)
	assert.Contains(t, csrc, "func (c *Client) GetPet(ctx context.Context, id int64) (Pet, error) {")
	assert.Contains(t, csrc, `fmt.Sprintf("/pets/%s", url.PathEscape(fmt.Sprint(id)))`)
	assert.Contains(t, csrc, "c.transport.Next(ctx, env)")
	assert.Contains(t, csrc, `const DefaultServiceURL = "ws://localhost:8080"`)
	assert.NotContains(t, csrc, "AuthConfig")
}

func TestGenerateIsDeterministic(t *testing.T) {
	client := config.Client{WithTests: true, Mode: config.ModeService}
	first := generate(t, adoptContract, client)
	second := generate(t, adoptContract, client)
	require.Equal(t, paths(first), paths(second))
	for i := range first.Artifacts {
		assert.Equal(t, string(first.Artifacts[i].Content), string(second.Artifacts[i].Content), first.Artifacts[i].Path)
	}
	assert.Equal(t, first.Diagnostics, second.Diagnostics)
}

func TestGenerateAdvancesTracker(t *testing.T) {
	tr := pipeline.NewTracker(nil)
	require.NoError(t, tr.Advance(pipeline.Loaded))
	require.NoError(t, tr.Advance(pipeline.Resolved))

	client := config.Client{Name: "pets", PackageName: "pets"}
	client.Normalize()
	_, err := golang.NewGoGenerator().Generate(client, resolve(t, petContract), tr)
	require.NoError(t, err)
	assert.Equal(t, pipeline.Assembled, tr.Current())
}

func TestGenerateSendAndAuth(t *testing.T) {
	b := generate(t, adoptContract, config.Client{})
	assert.Equal(t, []string{"types.go", "client.go", "utils.go"}, paths(b))
	assertFormatted(t, b)

	client := artifact(t, b, "client.go")
	assertParses(t, client)
	csrc := string(client.Content)
	assert.Contains(t, csrc, "func (c *Client) AdoptPet(ctx context.Context, payload Adoption) error {")
	assert.Contains(t, csrc, "c.transport.Publish(ctx, env)")
	assert.Contains(t, csrc, "func (c *Client) WatchAdoptions(ctx context.Context) (Adoption, error) {")
	assert.Regexp(t, regexp.MustCompile(`Auth\s+AuthConfig`), csrc)

	utils := artifact(t, b, "utils.go")
	assertParses(t, utils)
	usrc := string(utils.Content)
	assert.Contains(t, usrc, "type BearerTokenConfig struct")
	assert.Contains(t, usrc, "type ApiKeysConfig struct")
	assert.Contains(t, usrc, `"X-Key"`)
	assert.NotContains(t, usrc, "OAuth2")
}

// methodBody returns the source of one generated method
func methodBody(t *testing.T, src, signature string) string {
	t.Helper()
	start := strings.Index(src, signature)
	require.GreaterOrEqual(t, start, 0, signature)
	end := strings.Index(src[start:], "\n}\n")
	require.GreaterOrEqual(t, end, 0)
	return src[start : start+end]
}

func TestGenerateOperationSecurity(t *testing.T) {
	src := strings.Replace(adoptContract, `  watchAdoptions:
    action: receive
`, `  watchAdoptions:
    action: receive
    security: []
`, 1)
	src = strings.Replace(src, `  adoptPet:
    action: send
`, `  adoptPet:
    action: send
    security:
      - $ref: '#/components/securitySchemes/token'
`, 1)
	require.NotEqual(t, adoptContract, src)

	b := generate(t, src, config.Client{})
	client := artifact(t, b, "client.go")
	assertParses(t, client)
	csrc := string(client.Content)
	assert.Contains(t, csrc, "func (c *Client) authorize(ctx context.Context, env *Envelope) error {")
	assert.Contains(t, methodBody(t, csrc, "func (c *Client) AdoptPet("), "c.authorize(ctx, env)")
	assert.NotContains(t, methodBody(t, csrc, "func (c *Client) WatchAdoptions("), "authorize")

	// operations without their own list inherit the configured credentials
	b = generate(t, adoptContract, config.Client{})
	csrc = string(artifact(t, b, "client.go").Content)
	assert.Contains(t, methodBody(t, csrc, "func (c *Client) WatchAdoptions("), "c.authorize(ctx, env)")
}

func TestGenerateWithTests(t *testing.T) {
	b := generate(t, adoptContract, config.Client{WithTests: true, ModuleName: "example.com/pets"})
	assert.Equal(t, []string{"types.go", "client.go", "utils.go", "tests/client_test.go", "tests/Config.toml"}, paths(b))

	test := artifact(t, b, "client_test.go")
	assert.Equal(t, ir.WriteOnce, test.Policy)
	assertParses(t, test)
	assert.Contains(t, string(test.Content), `"example.com/pets"`)
	assert.Contains(t, string(test.Content), "func TestAdoptPet(t *testing.T)")
	assert.Contains(t, string(test.Content), "func TestWatchAdoptions(t *testing.T)")

	cfg := artifact(t, b, "Config.toml")
	assert.Equal(t, ir.WriteOnce, cfg.Policy)
	var parsed map[string]any
	require.NoError(t, toml.Unmarshal(cfg.Content, &parsed))
	assert.Contains(t, parsed, "connection")
	auth, ok := parsed["auth"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, auth, "bearer_token")
	assert.Contains(t, auth, "api_keys")
}

func TestGenerateServiceMode(t *testing.T) {
	b := generate(t, adoptContract, config.Client{Mode: config.ModeService})
	svc := artifact(t, b, "pets_service.go")
	assert.Equal(t, ir.ArtifactService, svc.Kind)
	assert.Equal(t, ir.WriteOnce, svc.Policy)
	assertParses(t, svc)

	src := string(svc.Content)
	assert.False(t, strings.HasPrefix(src, golang.GeneratedHeader))
	assert.Contains(t, src, "type PetsHandler interface {")
	assert.Contains(t, src, "AdoptPet(ctx context.Context, payload Adoption) error")
	assert.NotContains(t, src, "WatchAdoptions")
	assert.Contains(t, src, "func (UnimplementedPets) AdoptPet(")
}

func TestGenerateServiceModeRequiresOperationIDs(t *testing.T) {
	src := `asyncapi: 2.6.0
info: {title: Pets, version: '1'}
channels:
  pets:
    publish:
      message:
        payload: {type: string}
`
	client := config.Client{Name: "pets", PackageName: "pets", Mode: config.ModeService, RequireOperationIDs: true}
	client.Normalize()
	_, err := golang.NewGoGenerator().Generate(client, resolve(t, src), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, generrors.ErrMissingOperationID)

	// without the requirement the name is derived and a warning recorded
	client.RequireOperationIDs = false
	b, err := golang.NewGoGenerator().Generate(client, resolve(t, src), nil)
	require.NoError(t, err)
	assert.Contains(t, string(artifact(t, b, "client.go").Content), "func (c *Client) SendPets(")
	require.NotEmpty(t, b.Diagnostics)
	assert.Equal(t, diag.SeverityWarning, b.Diagnostics[0].Severity)
}

func TestGenerateResourceMethods(t *testing.T) {
	b := generate(t, petContract, config.Client{ClientMethods: config.MethodsResource})
	client := artifact(t, b, "client.go")
	assertParses(t, client)
	src := string(client.Content)
	assert.Contains(t, src, "type PetsIdChannel struct {")
	assert.Contains(t, src, "func (c *Client) PetsId(id int64) *PetsIdChannel {")
	assert.Contains(t, src, "func (h *PetsIdChannel) GetPet(ctx context.Context) (Pet, error) {")
	assert.Contains(t, src, "url.PathEscape(fmt.Sprint(h.id))")
}

func TestGenerateExcludedFiles(t *testing.T) {
	b := generate(t, adoptContract, config.Client{
		OutDir:       "/tmp/pets",
		WithTests:    true,
		ExcludeFiles: []string{"utils.go", "tests/"},
	})
	assert.Equal(t, []string{"types.go", "client.go"}, paths(b))
}

func TestGenerateLicenseIsNotApplied(t *testing.T) {
	// the header is added by the writer, never by the generator
	b := generate(t, petContract, config.Client{License: "/does/not/matter"})
	assert.True(t, strings.HasPrefix(string(artifact(t, b, "types.go").Content), golang.GeneratedHeader))
}
