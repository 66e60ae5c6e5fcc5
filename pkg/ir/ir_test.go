package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTargetFollowsReferenceChains(t *testing.T) {
	pet := &IRSchema{ID: "#/components/schemas/Pet", Kind: IRKindObject}
	alias := &IRSchema{ID: "#/components/schemas/Animal", Kind: IRKindRef, Ref: pet.ID}
	graph := IR{Nodes: map[string]*IRSchema{pet.ID: pet, alias.ID: alias}}

	ref := &IRSchema{ID: "#/x", Kind: IRKindRef, Ref: alias.ID}
	assert.Same(t, pet, graph.Target(ref))
	assert.Same(t, pet, graph.Target(pet))
	assert.Nil(t, graph.Target(nil))
}

func TestTargetStopsAtBackReferenceAndDangling(t *testing.T) {
	back := &IRSchema{ID: "#/a/next", Kind: IRKindRef, Ref: "#/a", BackRef: true}
	dangling := &IRSchema{ID: "#/b", Kind: IRKindRef, Ref: "#/missing"}
	graph := IR{Nodes: map[string]*IRSchema{}}

	assert.Same(t, back, graph.Target(back))
	assert.Same(t, dangling, graph.Target(dangling))
}

func TestOperationsKeepsChannelOrder(t *testing.T) {
	graph := IR{Channels: []IRChannel{
		{Name: "a", Operations: []IROperation{{OperationID: "a1"}, {OperationID: "a2"}}},
		{Name: "b", Operations: []IROperation{{OperationID: "b1"}}},
	}}
	ops := graph.Operations()
	assert.Len(t, ops, 3)
	assert.Equal(t, "b1", ops[2].OperationID)
}

func TestArtifactRelocation(t *testing.T) {
	assert.True(t, Artifact{Kind: ArtifactTest}.Relocated())
	assert.True(t, Artifact{Kind: ArtifactConfig}.Relocated())
	assert.False(t, Artifact{Kind: ArtifactTypes}.Relocated())

	assert.Equal(t, "tests/Config.toml", Artifact{Kind: ArtifactConfig, Path: "Config.toml"}.Destination())
	assert.Equal(t, "types.go", Artifact{Kind: ArtifactTypes, Path: "types.go"}.Destination())
	assert.Equal(t, "write-once", WriteOnce.String())
	assert.Equal(t, "always-overwrite", AlwaysOverwrite.String())
}
