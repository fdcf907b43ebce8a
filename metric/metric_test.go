package metric

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosineSelfAndOpposite(t *testing.T) {
	a := []float64{1, 2, 3, 4}
	neg := []float64{-1, -2, -3, -4}

	assert.InDelta(t, 1.0, Cosine(a, a), 1e-6)
	assert.InDelta(t, -1.0, Cosine(a, neg), 1e-6)
}

func TestCosineZeroMagnitude(t *testing.T) {
	assert.Equal(t, 0.0, Cosine([]float64{0, 0, 0}, []float64{1, 2, 3}))
}

func TestNormalizeUnitMagnitude(t *testing.T) {
	v := []float64{3, 4}
	n := Normalize(v)
	assert.InDelta(t, 1.0, Magnitude(n), 1e-6)
}

func TestNormalizeZeroVectorUnchanged(t *testing.T) {
	v := []float64{0, 0, 0}
	assert.Equal(t, v, Normalize(v))
}

func TestEuclideanKnownValue(t *testing.T) {
	d := Euclidean([]float64{0, 0}, []float64{3, 4})
	assert.InDelta(t, 5.0, d, 1e-9)
}

func TestScoreHigherIsBetter(t *testing.T) {
	q := []float64{1, 0}
	near := []float64{0.9, 0.1}
	far := []float64{-1, 0}

	sNear, err := Score(q, near, "euclidean")
	require.NoError(t, err)
	sFar, err := Score(q, far, "euclidean")
	require.NoError(t, err)
	assert.Greater(t, sNear, sFar)

	sNear, err = Score(q, near, "cosine")
	require.NoError(t, err)
	sFar, err = Score(q, far, "cosine")
	require.NoError(t, err)
	assert.Greater(t, sNear, sFar)
}

func TestScoreUnknownMetric(t *testing.T) {
	_, err := Score([]float64{1}, []float64{1}, "manhattan")
	require.ErrorIs(t, err, ErrUnknownMetric)
}

func TestDotZeroPadsMismatchedLengths(t *testing.T) {
	got := Dot([]float64{1, 2, 3}, []float64{1, 2})
	assert.Equal(t, 1.0+4.0, got)
}

func TestMagnitudeMatchesSqrtOfDot(t *testing.T) {
	v := []float64{2, 3, 6}
	assert.InDelta(t, math.Sqrt(4+9+36), Magnitude(v), 1e-9)
}
