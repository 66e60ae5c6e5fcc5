package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "asyncapi-gen.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadResolvesPathsAndDefaults(t *testing.T) {
	path := writeConfig(t, `
spec: ./pets.yaml
clients:
  - name: pets
    outDir: ./gen
    includeTags: ["pets"]
    withTests: true
    license: ./LICENSE.txt
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	dir := filepath.Dir(path)
	assert.Equal(t, filepath.Join(dir, "pets.yaml"), cfg.Spec)
	require.Len(t, cfg.Clients, 1)
	c := cfg.Clients[0]
	assert.Equal(t, filepath.Join(dir, "gen"), c.OutDir)
	assert.Equal(t, filepath.Join(dir, "LICENSE.txt"), c.License)
	assert.Equal(t, "go", c.Type)
	assert.Equal(t, ModeClient, c.Mode)
	assert.Equal(t, MethodsRemote, c.ClientMethods)
	assert.Equal(t, "pets", c.PackageName)
	assert.True(t, c.WithTests)
	assert.Equal(t, []string{"pets"}, c.IncludeTags)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"missing spec", "clients:\n  - name: a\n    outDir: out\n", "config.spec is required"},
		{"no clients", "spec: a.yaml\n", "config.clients is empty"},
		{"missing name", "spec: a.yaml\nclients:\n  - outDir: out\n", "missing required fields (name, packageName)"},
		{"bad mode", "spec: a.yaml\nclients:\n  - name: a\n    outDir: out\n    mode: server\n", `invalid mode "server"`},
		{"bad methods", "spec: a.yaml\nclients:\n  - name: a\n    outDir: out\n    clientMethods: rpc\n", `invalid clientMethods "rpc"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestShouldExcludeFile(t *testing.T) {
	c := Client{OutDir: "/out", ExcludeFiles: []string{"utils.go", "tests/"}}

	assert.True(t, c.ShouldExcludeFile("/out/utils.go"))
	assert.True(t, c.ShouldExcludeFile("/out/tests/Config.toml"))
	assert.False(t, c.ShouldExcludeFile("/out/types.go"))
	assert.False(t, c.ShouldExcludeFile("/elsewhere/utils.go"))

	none := Client{OutDir: "/out"}
	assert.False(t, none.ShouldExcludeFile("/out/utils.go"))
}

func TestIsService(t *testing.T) {
	c := Client{Name: "a", OutDir: "/out", Mode: ModeService}
	c.Normalize()
	require.NoError(t, c.Validate())
	assert.True(t, c.IsService())
}
