package assembler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blimu-dev/asyncapi-gen/pkg/generrors"
	"github.com/blimu-dev/asyncapi-gen/pkg/ir"
)

func names(decls []ir.TypeDecl) []string {
	out := make([]string, 0, len(decls))
	for _, d := range decls {
		out = append(out, d.Name)
	}
	return out
}

func TestAssembleMergesInOrder(t *testing.T) {
	types := []ir.TypeDecl{
		{Name: "Pet", Origin: "#/components/schemas/Pet"},
		{Name: "Owner", Origin: "#/components/schemas/Owner"},
	}
	client := []ir.TypeDecl{
		{Name: "GetPetHeaders", Origin: "op#headers"},
		{Name: "Pet", Origin: "#/components/schemas/Pet", Doc: "second copy"},
	}

	out, err := Assemble(Options{}, types, client)
	require.NoError(t, err)
	assert.Equal(t, []string{"Pet", "Owner", "GetPetHeaders"}, names(out))
	assert.Empty(t, out[0].Doc, "first writer wins")
}

func TestAssembleRejectsNameCollision(t *testing.T) {
	_, err := Assemble(Options{},
		[]ir.TypeDecl{{Name: "Pet", Origin: "#/components/schemas/Pet"}},
		[]ir.TypeDecl{{Name: "Pet", Origin: "op#messages"}},
	)
	require.Error(t, err)
	assert.ErrorIs(t, err, generrors.ErrDuplicateTypeName)

	var dup *generrors.DuplicateTypeNameError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "#/components/schemas/Pet", dup.Existing)
	assert.Equal(t, "op#messages", dup.Incoming)
}

func TestAssemblePrunesUnreachable(t *testing.T) {
	decls := []ir.TypeDecl{
		{Name: "Pet", Origin: "a", Refs: []string{"Owner", "PetStatus"}},
		{Name: "Owner", Origin: "b", Refs: []string{"Pet"}},
		{Name: "PetStatus", Origin: "c"},
		{Name: "Order", Origin: "d", Refs: []string{"OrderLine"}},
		{Name: "OrderLine", Origin: "e"},
		{Name: "Base", Origin: "f"},
		{Name: "Dog", Origin: "g", Embeds: []string{"*Base"}},
		{Name: "Animal", Origin: "h", Variants: []ir.VariantDecl{{Name: "Dog", Type: "*Dog"}}},
		{Name: "ConnectionConfig", Origin: "scaffold"},
	}

	out, err := Assemble(Options{Prune: true, Roots: []string{"Pet", "Animal", "ConnectionConfig", "Missing"}}, decls)
	require.NoError(t, err)
	assert.Equal(t, []string{"Pet", "Owner", "PetStatus", "Base", "Dog", "Animal", "ConnectionConfig"}, names(out))

	out, err = Assemble(Options{}, decls)
	require.NoError(t, err)
	assert.Len(t, out, len(decls))
}
