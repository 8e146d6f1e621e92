package pwr

import (
	"testing"

	"github.com/itchio/rdelta/wsync"
	"github.com/itchio/rdelta/wtest"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func Test_RecipeInsertedByte(t *testing.T) {
	settings := Settings{BlockSize: 4, StrongHash: StrongHashMD5}
	reference := []byte("ABCDEFGH")

	recipe, err := ComputeRecipe(reference, []byte("XABCDEFGH"), settings, testConsumer(t))
	wtest.Must(t, err)

	assert.Equal(t, []wsync.Operation{
		{Type: wsync.OpData, Data: []byte("X")},
		{Type: wsync.OpBlock, BlockIndex: 0},
		{Type: wsync.OpBlock, BlockIndex: 1},
	}, recipe.Ops)

	stats := recipe.Stats
	assert.EqualValues(t, 9, stats.SourceSize)
	assert.EqualValues(t, 2, stats.BlockOps)
	assert.EqualValues(t, 1, stats.DataOps)
	assert.EqualValues(t, 8, stats.ReusedBytes)
	assert.EqualValues(t, 1, stats.FreshBytes)
	assert.EqualValues(t, 16, stats.InstructionSize())
	assert.InDelta(t, 16.0/9.0, stats.Ratio(), 0.0001)

	result, err := recipe.Apply(reference, settings)
	wtest.Must(t, err)
	assert.Equal(t, "XABCDEFGH", string(result))
}

func Test_RecipeEmptyReference(t *testing.T) {
	recipe, err := ComputeRecipe(nil, []byte("hello"), DefaultSettings(), nil)
	wtest.Must(t, err)
	assert.Equal(t, []wsync.Operation{
		{Type: wsync.OpData, Data: []byte("hello")},
	}, recipe.Ops)
}

func Test_RecipeEmptySource(t *testing.T) {
	recipe, err := ComputeRecipe([]byte("ABCDEFGH"), nil, DefaultSettings(), nil)
	wtest.Must(t, err)
	assert.Empty(t, recipe.Ops)
	assert.EqualValues(t, 0, recipe.Stats.Ratio())
}

func Test_RecipeDataDoesNotAliasSource(t *testing.T) {
	source := []byte("hello")
	recipe, err := ComputeRecipe(nil, source, DefaultSettings(), nil)
	wtest.Must(t, err)

	source[0] = 'j'
	assert.Equal(t, "hello", string(recipe.Ops[0].Data))
}

func Test_RecipeInvalidBlockSize(t *testing.T) {
	_, err := ComputeRecipe([]byte("ABCD"), []byte("ABCD"), Settings{BlockSize: 0, StrongHash: StrongHashMD5}, nil)
	assert.Equal(t, ErrConfiguration, errors.Cause(err))
}

func Test_RecipeApplyStopsOnError(t *testing.T) {
	settings := Settings{BlockSize: 4, StrongHash: StrongHashMD5}
	recipe := &Recipe{
		Ops: []wsync.Operation{
			{Type: wsync.OpBlock, BlockIndex: 0},
			{Type: wsync.OpBlock, BlockIndex: 5},
			{Type: wsync.OpData, Data: []byte("never")},
			{Type: wsync.OpData, Data: []byte("applied")},
		},
	}

	_, err := recipe.Apply([]byte("ABCD"), settings)
	assert.Equal(t, wsync.ErrUnknownBlock, errors.Cause(err))
}

func Test_RecipeKeepsSignature(t *testing.T) {
	recipe, err := ComputeRecipe([]byte("ABCDEF"), []byte("ABCD"), Settings{BlockSize: 4, StrongHash: StrongHashBLAKE3}, nil)
	wtest.Must(t, err)
	if assert.NotNil(t, recipe.Signature) {
		assert.EqualValues(t, 6, recipe.Signature.ReferenceSize)
		assert.Len(t, recipe.Signature.Hashes, 2)
	}
}
