package rag

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashingEmbedderIsDeterministic(t *testing.T) {
	e := NewHashingEmbedder(64)

	v1, err := e.Embed(context.Background(), []string{"the quick brown fox"})
	require.NoError(t, err)
	v2, err := e.Embed(context.Background(), []string{"the quick brown fox"})
	require.NoError(t, err)

	assert.Equal(t, v1, v2)
	assert.Len(t, v1[0], 64)
}

func TestHashingEmbedderDistinctTextsDivergeInDirection(t *testing.T) {
	e := NewHashingEmbedder(64)

	vs, err := e.Embed(context.Background(), []string{
		"cats and dogs are popular pets",
		"quantum mechanics describes subatomic particles",
	})
	require.NoError(t, err)

	assert.NotEqual(t, vs[0], vs[1])
}

func TestHashingEmbedderRespectsContextCancellation(t *testing.T) {
	e := NewHashingEmbedder(32)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Embed(ctx, []string{"anything"})
	require.Error(t, err)
}

func TestHashingEmbedderDefaultsDimensions(t *testing.T) {
	e := NewHashingEmbedder(0)
	assert.Equal(t, 256, e.Dimension())
}
