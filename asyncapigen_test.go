package asyncapigen

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blimu-dev/asyncapi-gen/pkg/generrors"
)

func TestValidateContractMissingFile(t *testing.T) {
	err := ValidateContract("/no/such/file.yaml")
	require.Error(t, err)
	assert.ErrorIs(t, err, generrors.ErrNotFound)
}

func TestGenerateGoClient(t *testing.T) {
	dir := t.TempDir()
	spec := filepath.Join(dir, "ping.yaml")
	require.NoError(t, os.WriteFile(spec, []byte(`asyncapi: 2.6.0
info: {title: Ping, version: '1'}
channels:
  ping:
    publish:
      operationId: ping
      message:
        payload: {type: string}
`), 0o644))

	res, err := GenerateGoClient(spec, filepath.Join(dir, "out"), "ping", "ping")
	require.NoError(t, err)
	require.Len(t, res.Targets, 1)
	assert.Equal(t, []string{"types.go", "client.go"}, res.Targets[0].Write.Written)
	assert.NoError(t, ValidateContract(spec))
}

const petsContract = `asyncapi: 2.6.0
info: {title: Pets, version: '1'}
channels:
  pets:
    publish:
      message:
        payload:
          $ref: '#/components/schemas/Pet'
components:
  schemas:
    Pet:
      type: object
      required: [id]
      properties:
        id: {type: integer, format: int64}
`

func writePets(t *testing.T) string {
	t.Helper()
	spec := filepath.Join(t.TempDir(), "pets.yaml")
	require.NoError(t, os.WriteFile(spec, []byte(petsContract), 0o644))
	return spec
}

func TestGenerateNullable(t *testing.T) {
	spec := writePets(t)
	tests := []struct {
		nullable bool
		field    *regexp.Regexp
	}{
		{false, regexp.MustCompile(`Id\s+int64\s+`)},
		{true, regexp.MustCompile(`Id\s+\*int64\s+`)},
	}

	for _, test := range tests {
		out := filepath.Join(t.TempDir(), "pets")
		_, err := Generate(Options{Spec: spec, OutDir: out, PackageName: "pets", Name: "pets", Nullable: test.nullable})
		require.NoError(t, err)
		src, err := os.ReadFile(filepath.Join(out, "types.go"))
		require.NoError(t, err)
		assert.Regexp(t, test.field, string(src), "nullable=%v", test.nullable)
	}
}

func TestGenerateRequireOperationIDs(t *testing.T) {
	spec := writePets(t)
	out := filepath.Join(t.TempDir(), "pets")

	_, err := Generate(Options{Spec: spec, OutDir: out, Name: "pets", Mode: "service", RequireOperationIDs: true})
	require.Error(t, err)
	assert.ErrorIs(t, err, generrors.ErrMissingOperationID)
	assert.NoFileExists(t, filepath.Join(out, "client.go"))

	res, err := Generate(Options{Spec: spec, OutDir: out, Name: "pets", Mode: "service"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Diagnostics)
}
