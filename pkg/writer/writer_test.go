package writer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blimu-dev/asyncapi-gen/pkg/generrors"
	"github.com/blimu-dev/asyncapi-gen/pkg/ir"
)

type scriptedPrompter struct {
	answers   []bool
	questions []string
}

func (p *scriptedPrompter) Confirm(question string) (bool, error) {
	p.questions = append(p.questions, question)
	if len(p.answers) == 0 {
		return false, nil
	}
	a := p.answers[0]
	p.answers = p.answers[1:]
	return a, nil
}

func bundle() []ir.Artifact {
	return []ir.Artifact{
		{Kind: ir.ArtifactTypes, Path: "types.go", Content: []byte("package pets\n\ntype Pet struct{}\n"), Policy: ir.AlwaysOverwrite},
		{Kind: ir.ArtifactClient, Path: "client.go", Content: []byte("package pets\n"), Policy: ir.AlwaysOverwrite},
		{Kind: ir.ArtifactTest, Path: "client_test.go", Content: []byte("package tests\n"), Policy: ir.WriteOnce},
		{Kind: ir.ArtifactConfig, Path: "Config.toml", Content: []byte("[connection]\n"), Policy: ir.WriteOnce},
	}
}

func read(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestWriteFreshDirectory(t *testing.T) {
	root := filepath.Join(t.TempDir(), "out")

	res, err := Write(bundle(), Options{Root: root})
	require.NoError(t, err)

	assert.Equal(t, []string{"types.go", "client.go", "tests/client_test.go", "tests/Config.toml"}, res.Written)
	assert.Empty(t, res.Skipped)
	assert.Empty(t, res.Renamed)
	assert.Equal(t, "package tests\n", read(t, filepath.Join(root, "tests", "client_test.go")))
	assert.Equal(t, "[connection]\n", read(t, filepath.Join(root, "tests", "Config.toml")))
	assert.NoFileExists(t, filepath.Join(root, "client_test.go"))
}

func TestWriteOnceKeepsUserEdits(t *testing.T) {
	root := t.TempDir()
	_, err := Write(bundle(), Options{Root: root})
	require.NoError(t, err)

	edited := filepath.Join(root, "tests", "Config.toml")
	require.NoError(t, os.WriteFile(edited, []byte("[connection]\nservice_url = \"ws://mine\"\n"), 0o644))

	res, err := Write(bundle(), Options{Root: root})
	require.NoError(t, err)
	assert.Equal(t, []string{"tests/client_test.go", "tests/Config.toml"}, res.Skipped)
	assert.Equal(t, "[connection]\nservice_url = \"ws://mine\"\n", read(t, edited))
}

func TestAlwaysOverwriteReplacesAndDetectsUnchanged(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "types.go"), []byte("stale"), 0o644))

	res, err := Write(bundle(), Options{Root: root})
	require.NoError(t, err)
	assert.Contains(t, res.Written, "types.go")
	assert.Equal(t, "package pets\n\ntype Pet struct{}\n", read(t, filepath.Join(root, "types.go")))

	res, err = Write(bundle(), Options{Root: root})
	require.NoError(t, err)
	assert.Equal(t, []string{"types.go", "client.go"}, res.Unchanged)
	assert.Empty(t, res.Written)

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.Contains(e.Name(), ".tmp-"), "temp file left behind: %s", e.Name())
	}
}

func TestPromptRefusalRenumbers(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "types.go"), []byte("mine"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "types-1.go"), []byte("older"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "client.go"), []byte("mine too"), 0o644))

	p := &scriptedPrompter{answers: []bool{false, true}}
	res, err := Write(bundle(), Options{Root: root, Prompter: p})
	require.NoError(t, err)

	require.Len(t, p.questions, 2)
	assert.Equal(t, "There is already a/an types.go in the location. Do you want to override the file? [y/N] ", p.questions[0])
	assert.Equal(t, map[string]string{"types.go": "types-2.go"}, res.Renamed)
	assert.Equal(t, "mine", read(t, filepath.Join(root, "types.go")))
	assert.Equal(t, "older", read(t, filepath.Join(root, "types-1.go")))
	assert.Equal(t, "package pets\n\ntype Pet struct{}\n", read(t, filepath.Join(root, "types-2.go")))
	assert.Equal(t, "package pets\n", read(t, filepath.Join(root, "client.go")))
}

func TestPromptNotAskedForWriteOnce(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "tests"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "tests", "Config.toml"), []byte("x"), 0o644))

	p := &scriptedPrompter{}
	_, err := Write(bundle(), Options{Root: root, Prompter: p})
	require.NoError(t, err)
	assert.Empty(t, p.questions)
}

func TestLicenseHeader(t *testing.T) {
	root := t.TempDir()
	_, err := Write(bundle(), Options{Root: root, License: "Copyright 2026 Pets Inc.\n\nMIT"})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(read(t, filepath.Join(root, "types.go")), "// Copyright 2026 Pets Inc.\n//\n// MIT\n\npackage pets"))
	assert.Equal(t, "[connection]\n", read(t, filepath.Join(root, "tests", "Config.toml")))
}

func TestPartialWrite(t *testing.T) {
	root := t.TempDir()
	// a directory where a file should go makes the rename fail
	require.NoError(t, os.MkdirAll(filepath.Join(root, "client.go", "sub"), 0o755))

	res, err := Write(bundle(), Options{Root: root})
	require.Error(t, err)
	assert.ErrorIs(t, err, generrors.ErrPartialWrite)

	var pw *generrors.PartialWriteError
	require.ErrorAs(t, err, &pw)
	assert.Equal(t, "client.go", pw.Failed)
	assert.Equal(t, []string{"types.go"}, pw.Written)
	assert.Equal(t, []string{"types.go"}, res.Written)
	assert.FileExists(t, filepath.Join(root, "types.go"))
}

func TestMissingRoot(t *testing.T) {
	_, err := Write(bundle(), Options{})
	assert.ErrorIs(t, err, generrors.ErrInput)
}

func TestNextFreeName(t *testing.T) {
	taken := map[string]bool{"types-1.go": true}
	assert.Equal(t, "types-2.go", nextFreeName("types.go", taken))
	assert.Equal(t, "tests/Config-1.toml", nextFreeName("tests/Config.toml", taken))
	assert.Equal(t, "Makefile-1", nextFreeName("Makefile", taken))
}

func TestTerminalPrompter(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
	}
	for _, tt := range tests {
		var out strings.Builder
		p := NewTerminalPrompter(strings.NewReader(tt.input), &out)
		got, err := p.Confirm("continue? ")
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "input %q", tt.input)
		assert.Equal(t, "continue? ", out.String())
	}
}
