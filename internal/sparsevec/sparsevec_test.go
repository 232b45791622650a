package sparsevec

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuilderBuildSortsAndDedups(t *testing.T) {
	b := NewBuilder()
	b.Add(5, 1.0)
	b.Add(1, 2.0)
	b.Add(5, 0.5)

	v := b.Build()
	assert.Equal(t, BoW{{Word: 1, Weight: 2.0}, {Word: 5, Weight: 1.5}}, v)
}

func TestBoWNormalizeL1(t *testing.T) {
	v := BoW{{Word: 0, Weight: 2}, {Word: 1, Weight: 2}}
	norm := v.NormalizeL1()
	assert.InDelta(t, 1.0, norm.Sum(), 1e-12)
}

func TestBoWNormalizeL1ZeroSumYieldsEmpty(t *testing.T) {
	v := BoW{}
	norm := v.NormalizeL1()
	assert.True(t, norm.IsEmpty())
}

func TestBoWNormalizeL2(t *testing.T) {
	v := BoW{{Word: 0, Weight: 3}, {Word: 1, Weight: 4}}
	norm := v.NormalizeL2()
	var sumSq float64
	for _, e := range norm {
		sumSq += e.Weight * e.Weight
	}
	assert.InDelta(t, 1.0, sumSq, 1e-12)
}

func TestBoWGet(t *testing.T) {
	v := BoW{{Word: 1, Weight: 0.5}, {Word: 3, Weight: 1.5}}
	val, ok := v.Get(3)
	assert.True(t, ok)
	assert.Equal(t, 1.5, val)

	_, ok = v.Get(2)
	assert.False(t, ok)
}

func TestMergeSortedVisitsOnlyCommonWordsWhenOnAOnlyIsNil(t *testing.T) {
	a := BoW{{Word: 1, Weight: 1}, {Word: 2, Weight: 2}, {Word: 4, Weight: 4}}
	b := BoW{{Word: 2, Weight: 20}, {Word: 3, Weight: 30}, {Word: 4, Weight: 40}}

	var visited []WordID
	MergeSorted(a, b, func(word WordID, va, vb float64) {
		visited = append(visited, word)
	}, nil)

	assert.Equal(t, []WordID{2, 4}, visited)
}

func TestMergeSortedVisitsAOnlyWordsInOrder(t *testing.T) {
	a := BoW{{Word: 1, Weight: 1}, {Word: 2, Weight: 2}, {Word: 4, Weight: 4}, {Word: 5, Weight: 5}}
	b := BoW{{Word: 2, Weight: 20}, {Word: 3, Weight: 30}}

	var common, aOnly []WordID
	MergeSorted(a, b,
		func(word WordID, va, vb float64) { common = append(common, word) },
		func(word WordID, va float64) { aOnly = append(aOnly, word) },
	)

	assert.Equal(t, []WordID{2}, common)
	assert.Equal(t, []WordID{1, 4, 5}, aOnly)
}

func TestFeatureVectorBuilderAndCommonNodes(t *testing.T) {
	b := NewFeatureVectorBuilder()
	b.Append(1, 0)
	b.Append(1, 1)
	b.Append(2, 2)
	fv := b.Build()

	indices, ok := fv.Get(1)
	assert.True(t, ok)
	assert.Equal(t, []uint32{0, 1}, indices)

	b2 := NewFeatureVectorBuilder()
	b2.Append(1, 5)
	b2.Append(3, 6)
	fv2 := b2.Build()

	common := CommonNodes(fv, fv2)
	assert.Equal(t, []NodeID{1}, common)
}

func TestFeatureVectorUnion(t *testing.T) {
	b := NewFeatureVectorBuilder()
	b.Append(1, 0)
	b.Append(2, 1)
	b.Append(2, 2)
	fv := b.Build()

	assert.Equal(t, []uint32{0, 1, 2}, fv.Union())
}
