package mock

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockEmbedder_Deterministic(t *testing.T) {
	embedder := NewMockEmbedder()
	ctx := context.Background()

	first, err := embedder.EmbedText(ctx, "same input")
	require.NoError(t, err)
	second, err := embedder.EmbedText(ctx, "same input")
	require.NoError(t, err)
	other, err := embedder.EmbedText(ctx, "different input")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.NotEqual(t, first, other)
	assert.Len(t, first, DefaultDimension)
	assert.Equal(t, 3, embedder.CallCount())
}

func TestMockEmbedder_CustomDimension(t *testing.T) {
	embedder := NewMockEmbedderWithDimension(32)

	vec, err := embedder.EmbedText(context.Background(), "wide")
	require.NoError(t, err)
	assert.Len(t, vec, 32)
}

func TestMockEmbedder_Injection(t *testing.T) {
	embedder := NewMockEmbedder()
	wantErr := errors.New("injected")
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, wantErr
	}

	_, err := embedder.EmbedText(context.Background(), "anything")
	assert.Equal(t, wantErr, err)

	embedder.Reset()
	assert.Zero(t, embedder.CallCount())
	_, err = embedder.EmbedText(context.Background(), "anything")
	assert.NoError(t, err)
}

func TestMockEmbedder_EmbedTexts(t *testing.T) {
	embedder := NewMockEmbedder()

	vectors, err := embedder.EmbedTexts(context.Background(), []string{"a", "b", "a"})
	require.NoError(t, err)
	require.Len(t, vectors, 3)
	assert.Equal(t, vectors[0], vectors[2])
	assert.NotEqual(t, vectors[0], vectors[1])
}

func TestMockSynthesizer(t *testing.T) {
	synthesizer := NewMockSynthesizer()

	answer, err := synthesizer.Synthesize(context.Background(), "what is up", nil)
	require.NoError(t, err)
	assert.Contains(t, answer, "what is up")
	assert.Equal(t, 1, synthesizer.CallCount())
}

func TestMockProvider(t *testing.T) {
	provider := NewMockProvider()

	assert.NotNil(t, provider.Embedder())
	assert.NotNil(t, provider.Synthesizer())
	assert.NoError(t, provider.Close())

	concrete, ok := provider.(*MockProvider)
	require.True(t, ok)
	assert.Same(t, provider.Embedder(), concrete.GetMockEmbedder())
}
