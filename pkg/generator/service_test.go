package generator

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blimu-dev/asyncapi-gen/pkg/asyncapi"
	"github.com/blimu-dev/asyncapi-gen/pkg/config"
	"github.com/blimu-dev/asyncapi-gen/pkg/generrors"
)

const kennelContract = `asyncapi: 3.0.0
info:
  title: Kennel
  version: 1.0.0
channels:
  pets:
    address: pets
    messages:
      pet:
        payload:
          $ref: '#/components/schemas/Pet'
  dogs:
    address: dogs
    messages:
      dog:
        payload:
          $ref: '#/components/schemas/Dog'
operations:
  onPet:
    action: receive
    tags: [{name: pets}]
    channel:
      $ref: '#/channels/pets'
  onDog:
    action: receive
    tags: [{name: dogs}]
    channel:
      $ref: '#/channels/dogs'
components:
  schemas:
    Pet:
      type: object
      properties:
        name: {type: string}
    Dog:
      type: object
      properties:
        breed: {type: string}
`

func writeContract(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kennel.yaml")
	require.NoError(t, os.WriteFile(path, []byte(kennelContract), 0o644))
	return path
}

func testService() *Service {
	return NewService(WithCommandOutput(io.Discard, io.Discard))
}

func target(name, outDir string) config.Client {
	return config.Client{Type: "go", Name: name, PackageName: name, OutDir: outDir}
}

func TestServiceWritesEveryTarget(t *testing.T) {
	out := t.TempDir()
	cfg := &config.Config{Spec: writeContract(t), Clients: []config.Client{
		target("kennel", filepath.Join(out, "kennel")),
		target("other", filepath.Join(out, "other")),
	}}

	res, err := testService().GenerateFromConfig(context.Background(), cfg, "")
	require.NoError(t, err)
	assert.NotEmpty(t, res.RunID)
	require.Len(t, res.Targets, 2)
	assert.Equal(t, []string{"types.go", "client.go"}, res.Targets[0].Write.Written)
	assert.FileExists(t, filepath.Join(out, "kennel", "types.go"))
	assert.FileExists(t, filepath.Join(out, "other", "client.go"))

	// a second run changes nothing
	res, err = testService().GenerateFromConfig(context.Background(), cfg, "")
	require.NoError(t, err)
	assert.Empty(t, res.Targets[0].Write.Written)
	assert.Equal(t, []string{"types.go", "client.go"}, res.Targets[0].Write.Unchanged)
}

func TestServiceSingleClient(t *testing.T) {
	out := t.TempDir()
	cfg := &config.Config{Spec: writeContract(t), Clients: []config.Client{
		target("kennel", filepath.Join(out, "kennel")),
		target("other", filepath.Join(out, "other")),
	}}

	res, err := testService().GenerateFromConfig(context.Background(), cfg, "other")
	require.NoError(t, err)
	require.Len(t, res.Targets, 1)
	assert.NoDirExists(t, filepath.Join(out, "kennel"))

	_, err = testService().GenerateFromConfig(context.Background(), cfg, "missing")
	assert.ErrorIs(t, err, generrors.ErrInput)
}

func TestServiceNothingWrittenWhenAnyTargetFails(t *testing.T) {
	out := t.TempDir()
	broken := target("broken", filepath.Join(out, "broken"))
	broken.IncludeTags = []string{"("}
	cfg := &config.Config{Spec: writeContract(t), Clients: []config.Client{
		target("kennel", filepath.Join(out, "kennel")),
		broken,
	}}

	_, err := testService().GenerateFromConfig(context.Background(), cfg, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid includeTags pattern")
	assert.NoDirExists(t, filepath.Join(out, "kennel"))
}

func TestServiceUnsupportedType(t *testing.T) {
	c := target("kennel", t.TempDir())
	c.Type = "cobol"
	cfg := &config.Config{Spec: writeContract(t), Clients: []config.Client{c}}

	_, err := testService().GenerateFromConfig(context.Background(), cfg, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported client type: cobol")
}

func TestServicePrunesFilteredTypes(t *testing.T) {
	out := t.TempDir()
	c := target("dogs", out)
	c.IncludeTags = []string{"^dogs$"}
	cfg := &config.Config{Spec: writeContract(t), Clients: []config.Client{c}}

	_, err := testService().GenerateFromConfig(context.Background(), cfg, "")
	require.NoError(t, err)

	types, err := os.ReadFile(filepath.Join(out, "types.go"))
	require.NoError(t, err)
	assert.Contains(t, string(types), "type Dog struct")
	assert.NotContains(t, string(types), "type Pet struct")

	client, err := os.ReadFile(filepath.Join(out, "client.go"))
	require.NoError(t, err)
	assert.Contains(t, string(client), "OnDog(")
	assert.NotContains(t, string(client), "OnPet(")
}

func TestServiceLicense(t *testing.T) {
	out := t.TempDir()
	license := filepath.Join(t.TempDir(), "LICENSE")
	require.NoError(t, os.WriteFile(license, []byte("Copyright 2026 Kennel Ltd."), 0o644))

	c := target("kennel", out)
	c.License = license
	cfg := &config.Config{Spec: writeContract(t), Clients: []config.Client{c}}
	_, err := testService().GenerateFromConfig(context.Background(), cfg, "")
	require.NoError(t, err)

	types, err := os.ReadFile(filepath.Join(out, "types.go"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(types), "// Copyright 2026 Kennel Ltd.\n"))

	c.License = filepath.Join(t.TempDir(), "missing")
	cfg.Clients = []config.Client{c}
	_, err = testService().GenerateFromConfig(context.Background(), cfg, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, generrors.ErrInput)
	assert.Contains(t, err.Error(), "Invalid license file path : "+c.License)
}

func TestServiceRunsCommands(t *testing.T) {
	out := t.TempDir()
	c := target("kennel", out)
	c.PreCommand = []string{"sh", "-c", "echo pre > pre.txt"}
	c.PostCommand = []string{"sh", "-c", "ls types.go > post.txt"}
	cfg := &config.Config{Spec: writeContract(t), Clients: []config.Client{c}}

	_, err := testService().GenerateFromConfig(context.Background(), cfg, "")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(out, "pre.txt"))

	post, err := os.ReadFile(filepath.Join(out, "post.txt"))
	require.NoError(t, err)
	assert.Equal(t, "types.go\n", string(post))

	c.PostCommand = []string{"sh", "-c", "exit 3"}
	cfg.Clients = []config.Client{c}
	_, err = testService().GenerateFromConfig(context.Background(), cfg, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "post-command (sh -c exit 3) failed")
}

func TestServiceMissingContract(t *testing.T) {
	cfg := &config.Config{Spec: filepath.Join(t.TempDir(), "nope.yaml"), Clients: []config.Client{target("kennel", t.TempDir())}}
	_, err := testService().GenerateFromConfig(context.Background(), cfg, "")
	assert.ErrorIs(t, err, generrors.ErrNotFound)
}

func TestConfigFromOptions(t *testing.T) {
	_, err := ConfigFromOptions(GenerateOptions{})
	require.Error(t, err)
	assert.Equal(t, asyncapi.MissingPathMessage, err.Error())

	_, err = ConfigFromOptions(GenerateOptions{Fallback: FallbackOptions{Spec: "kennel.yaml"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required fields")

	cfg, err := ConfigFromOptions(GenerateOptions{Fallback: FallbackOptions{
		Spec:   "kennel.yaml",
		OutDir: "out",
		Name:   "kennel",
	}})
	require.NoError(t, err)
	require.Len(t, cfg.Clients, 1)
	c := cfg.Clients[0]
	assert.Equal(t, "go", c.Type)
	assert.Equal(t, "kennel", c.PackageName)
	assert.Equal(t, config.ModeClient, c.Mode)
	assert.True(t, filepath.IsAbs(c.OutDir))
}

func TestRegistry(t *testing.T) {
	s := NewService()
	assert.Equal(t, []string{"go"}, s.GetRegistry().GetAvailableTypes())
	_, ok := s.GetRegistry().Get("typescript")
	assert.False(t, ok)
}
