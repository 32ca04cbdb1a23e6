package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBundleKinds(t *testing.T) {
	v := NewVectorizer(plainOptions())
	vectors, err := v.FitTransform([]string{"aa bb", "aa cc", "dd ee"})
	require.NoError(t, err)

	matrix := PairwiseSimilarity(vectors, vectors)

	withMatrix := NewMatrixBundle(v, vectors, matrix)
	assert.Equal(t, BundleVectorizerWithMatrix, withMatrix.Kind())

	vectorizerOnly := NewVectorizerBundle(v, vectors)
	assert.Equal(t, BundleVectorizerOnly, vectorizerOnly.Kind())

	// Бандл без матрицы вычисляет её по векторам — результат совпадает
	computed := vectorizerOnly.SimilarityMatrix()
	require.Equal(t, matrix.Rows(), computed.Rows())
	for i := range matrix {
		for j := range matrix[i] {
			assert.InDelta(t, matrix[i][j], computed[i][j], 1e-9)
		}
	}
}
