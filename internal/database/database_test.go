package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/bowvoc/internal/database/badgerstore"
	"github.com/orneryd/bowvoc/internal/descriptor"
	"github.com/orneryd/bowvoc/internal/scoring"
	"github.com/orneryd/bowvoc/internal/vocabulary"
)

func openInMemoryStore(t *testing.T) *badgerstore.Store {
	t.Helper()
	store, err := badgerstore.Open(badgerstore.Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func fourLeafImages() [][]descriptor.Binary {
	leafA := descriptor.Binary{0, 0, 0, 0}
	leafB := descriptor.Binary{0, 255, 0, 0}
	leafC := descriptor.Binary{255, 0, 0, 0}
	leafD := descriptor.Binary{255, 255, 0, 0}

	return [][]descriptor.Binary{
		{leafA, leafA, leafA, leafB},
		{leafC, leafC, leafC, leafD},
		{leafB, leafB, leafB, leafA},
		{leafD, leafD, leafD, leafC},
	}
}

func buildTrainedVocab(t *testing.T) *vocabulary.Vocabulary[descriptor.Binary] {
	t.Helper()
	// Seed 11 gives one leaf per distinct descriptor of fourLeafImages;
	// some other seeds merge two of them into a single word.
	cfg := vocabulary.Config{K: 2, L: 2, Weighting: vocabulary.TFIDF, Scoring: scoring.L1, Seed: 11}
	v, err := vocabulary.New[descriptor.Binary](descriptor.BinaryTrait{}, cfg)
	require.NoError(t, err)
	require.NoError(t, v.Create(fourLeafImages()))
	return v
}

func TestAddAndQuerySelfMatchIsTop1(t *testing.T) {
	vocab := buildTrainedVocab(t)
	store := openInMemoryStore(t)
	db, err := New[descriptor.Binary](vocab, store, Options{})
	require.NoError(t, err)

	images := fourLeafImages()
	for _, img := range images {
		_, err := db.Add(img)
		require.NoError(t, err)
	}

	for i, img := range images {
		results, err := db.Query(img, 10, nil)
		require.NoError(t, err)
		require.NotEmpty(t, results)
		assert.Equal(t, EntryID(i), results[0].Entry, "image %d should self-match top-1", i)
		assert.InDelta(t, 1.0, results[0].Score, 1e-9)
	}
}

func TestMaxEntryIDFilterExcludesLaterEntries(t *testing.T) {
	vocab := buildTrainedVocab(t)
	store := openInMemoryStore(t)
	db, err := New[descriptor.Binary](vocab, store, Options{})
	require.NoError(t, err)

	images := fourLeafImages()
	for i := 0; i < 10; i++ {
		_, err := db.Add(images[i%len(images)])
		require.NoError(t, err)
	}
	assert.Equal(t, 10, db.Size())

	limit := EntryID(4)
	results, err := db.Query(images[1], 10, &limit)
	require.NoError(t, err)
	for _, r := range results {
		assert.LessOrEqual(t, r.Entry, limit)
	}
}

func TestDirectIndexRecallCoversAllFeatureIndices(t *testing.T) {
	vocab := buildTrainedVocab(t)
	store := openInMemoryStore(t)
	db, err := New[descriptor.Binary](vocab, store, Options{UseDirectIndex: true, DirectIndexLevel: 1})
	require.NoError(t, err)

	leaves := []descriptor.Binary{
		{0, 0, 0, 0}, {0, 255, 0, 0}, {255, 0, 0, 0}, {255, 255, 0, 0},
	}
	var image []descriptor.Binary
	for i := 0; i < 8; i++ {
		image = append(image, leaves[i%len(leaves)])
	}

	eid, err := db.Add(image)
	require.NoError(t, err)

	fv, err := db.GetFeatureVector(eid)
	require.NoError(t, err)

	expected := make([]uint32, len(image))
	for i := range image {
		expected[i] = uint32(i)
	}
	assert.Equal(t, expected, fv.Union())
}

func TestGetFeatureVectorDisabledByDefault(t *testing.T) {
	vocab := buildTrainedVocab(t)
	store := openInMemoryStore(t)
	db, err := New[descriptor.Binary](vocab, store, Options{})
	require.NoError(t, err)

	eid, err := db.Add(fourLeafImages()[0])
	require.NoError(t, err)

	_, err = db.GetFeatureVector(eid)
	assert.Error(t, err)
}

func TestRetrieveFeaturesIsSymmetric(t *testing.T) {
	vocab := buildTrainedVocab(t)
	store := openInMemoryStore(t)
	db, err := New[descriptor.Binary](vocab, store, Options{UseDirectIndex: true, DirectIndexLevel: 1})
	require.NoError(t, err)

	images := fourLeafImages()
	eidA, err := db.Add(images[0])
	require.NoError(t, err)
	eidB, err := db.Add(images[1])
	require.NoError(t, err)

	pairsAB, err := db.RetrieveFeatures(eidA, eidB)
	require.NoError(t, err)
	pairsBA, err := db.RetrieveFeatures(eidB, eidA)
	require.NoError(t, err)

	setAB := make(map[[2]uint32]struct{})
	for _, p := range pairsAB {
		setAB[[2]uint32{p.IndexA, p.IndexB}] = struct{}{}
	}
	setBA := make(map[[2]uint32]struct{})
	for _, p := range pairsBA {
		setBA[[2]uint32{p.IndexB, p.IndexA}] = struct{}{}
	}
	assert.Equal(t, setAB, setBA)
}

func TestClearResetsSizeAndPostings(t *testing.T) {
	vocab := buildTrainedVocab(t)
	store := openInMemoryStore(t)
	db, err := New[descriptor.Binary](vocab, store, Options{})
	require.NoError(t, err)

	_, err = db.Add(fourLeafImages()[0])
	require.NoError(t, err)
	require.Equal(t, 1, db.Size())

	require.NoError(t, db.Clear())
	assert.Equal(t, 0, db.Size())

	results, err := db.Query(fourLeafImages()[0], 10, nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestQueryCacheServesRepeatedQueries(t *testing.T) {
	vocab := buildTrainedVocab(t)
	store := openInMemoryStore(t)
	db, err := New[descriptor.Binary](vocab, store, Options{CacheSize: 10, CacheTTL: time.Minute})
	require.NoError(t, err)

	images := fourLeafImages()
	for _, img := range images {
		_, err := db.Add(img)
		require.NoError(t, err)
	}

	first, err := db.Query(images[0], 10, nil)
	require.NoError(t, err)
	second, err := db.Query(images[0], 10, nil)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, uint64(1), db.cache.Stats().Hits)
}

func TestQueryKLMatchesDenseScoreAcrossDisjointSupport(t *testing.T) {
	cfg := vocabulary.Config{K: 2, L: 2, Weighting: vocabulary.TFIDF, Scoring: scoring.KL, Seed: 3}
	vocab, err := vocabulary.New[descriptor.Binary](descriptor.BinaryTrait{}, cfg)
	require.NoError(t, err)
	images := fourLeafImages()
	require.NoError(t, vocab.Create(images))

	store := openInMemoryStore(t)
	db, err := New[descriptor.Binary](vocab, store, Options{})
	require.NoError(t, err)
	for _, img := range images {
		_, err := db.Add(img)
		require.NoError(t, err)
	}

	query := images[0]
	results, err := db.Query(query, len(images), nil)
	require.NoError(t, err)
	require.Len(t, results, len(images))

	qBow, err := vocab.Transform(query)
	require.NoError(t, err)

	for _, r := range results {
		dBow, err := vocab.Transform(images[r.Entry])
		require.NoError(t, err)
		want, err := scoring.Score(qBow, dBow, scoring.KL)
		require.NoError(t, err)
		assert.InDelta(t, want, r.Score, 1e-6, "entry %d", r.Entry)
	}
}

func TestAddRejectsEmptyFeatures(t *testing.T) {
	vocab := buildTrainedVocab(t)
	store := openInMemoryStore(t)
	db, err := New[descriptor.Binary](vocab, store, Options{})
	require.NoError(t, err)

	_, err = db.Add(nil)
	assert.Error(t, err)
}
