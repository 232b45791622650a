package scoring

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/bowvoc/internal/sparsevec"
)

func normalizedVector(words []sparsevec.WordID, weights []float64) sparsevec.BoW {
	b := sparsevec.NewBuilder()
	for i, w := range words {
		b.Add(w, weights[i])
	}
	return b.Build().NormalizeL1()
}

func TestScoreSelfMatchIsOne(t *testing.T) {
	v := normalizedVector(
		[]sparsevec.WordID{0, 1, 2, 5},
		[]float64{1, 2, 3, 4},
	)

	for _, kind := range []Kind{L1, L2, Bhattacharyya} {
		in := v
		if RequiredNorm(kind) == NormL2 {
			in = v.NormalizeL2()
		}
		got, err := Score(in, in, kind)
		require.NoError(t, err)
		assert.InDeltaf(t, 1.0, got, 1e-9, "kind=%s", kind)
	}
}

func TestScoreSelfMatchKLIsZero(t *testing.T) {
	v := normalizedVector(
		[]sparsevec.WordID{0, 1, 2},
		[]float64{1, 2, 3},
	)
	got, err := Score(v, v, KL)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, got, 1e-9)
}

func TestScoreKLPenalizesQueryOnlyWords(t *testing.T) {
	query := sparsevec.BoW{{Word: 0, Weight: 0.5}, {Word: 1, Weight: 0.5}}
	// A candidate word absent from the query contributes nothing to KL:
	// the formula only sums over query words.
	docWithExtraWord := sparsevec.BoW{{Word: 0, Weight: 0.5}, {Word: 1, Weight: 0.5}, {Word: 2, Weight: 0.3}}
	baseline, err := Score(query, query, KL)
	require.NoError(t, err)
	sameSupport, err := Score(query, docWithExtraWord, KL)
	require.NoError(t, err)
	assert.InDelta(t, baseline, sameSupport, 1e-9)

	// A query word the candidate lacks entirely must add a large positive
	// penalty (KL is lower-is-better, so this makes the candidate look
	// far less similar), not be silently skipped.
	queryWithExtraWord := sparsevec.BoW{{Word: 0, Weight: 0.5}, {Word: 1, Weight: 0.3}, {Word: 2, Weight: 0.2}}
	penalized, err := Score(queryWithExtraWord, query, KL)
	require.NoError(t, err)
	assert.Greater(t, penalized, 1.0)
}

func TestScoreDisjointVectors(t *testing.T) {
	a := normalizedVector([]sparsevec.WordID{0, 1}, []float64{1, 1})
	b := normalizedVector([]sparsevec.WordID{2, 3}, []float64{1, 1})

	got, err := Score(a, b, DotProduct)
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)
}

// denseL1 is an independent, intentionally naive reference implementation
// of the L1 score over two dense maps, used to check the sparse
// Accumulator-driven Score against a different code path.
func denseL1(a, b map[sparsevec.WordID]float64) float64 {
	keys := make(map[sparsevec.WordID]struct{})
	for k := range a {
		keys[k] = struct{}{}
	}
	for k := range b {
		keys[k] = struct{}{}
	}
	var s float64
	for k := range keys {
		s += math.Abs(a[k] - b[k])
	}
	return 1 - s/2
}

func TestScoreL1MatchesDenseReference(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for trial := 0; trial < 20; trial++ {
		a := make(map[sparsevec.WordID]float64)
		b := make(map[sparsevec.WordID]float64)
		var words []sparsevec.WordID
		var aw []float64
		for i := 0; i < 100; i++ {
			wid := sparsevec.WordID(i)
			if rng.Float64() < 0.3 {
				v := rng.Float64()
				a[wid] = v
				words = append(words, wid)
				aw = append(aw, v)
			}
		}
		for i := 0; i < 100; i++ {
			wid := sparsevec.WordID(i)
			if rng.Float64() < 0.3 {
				v := rng.Float64()
				b[wid] = v
			}
		}

		ab := sparsevec.NewBuilder()
		for w, v := range a {
			ab.Add(w, v)
		}
		av := ab.Build()
		bb := sparsevec.NewBuilder()
		for w, v := range b {
			bb.Add(w, v)
		}
		bv := bb.Build()
		av = av.NormalizeL1()
		bv = bv.NormalizeL1()

		// Rebuild normalized dense maps to match what the sparse path saw.
		aNorm := make(map[sparsevec.WordID]float64)
		for _, e := range av {
			aNorm[e.Word] = e.Weight
		}
		bNorm := make(map[sparsevec.WordID]float64)
		for _, e := range bv {
			bNorm[e.Word] = e.Weight
		}

		sparse, err := Score(av, bv, L1)
		require.NoError(t, err)
		dense := denseL1(aNorm, bNorm)
		assert.InDelta(t, dense, sparse, 1e-9)
	}
}

func TestRequiredNorm(t *testing.T) {
	assert.Equal(t, NormL2, RequiredNorm(L2))
	assert.Equal(t, NormNone, RequiredNorm(DotProduct))
	assert.Equal(t, NormL1, RequiredNorm(L1))
	assert.Equal(t, NormL1, RequiredNorm(ChiSquare))
}

func TestLowerIsBetterOnlyForKL(t *testing.T) {
	assert.True(t, LowerIsBetter(KL))
	assert.False(t, LowerIsBetter(L1))
	assert.False(t, LowerIsBetter(DotProduct))
}
