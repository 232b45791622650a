// Package database implements the inverted-index image database: the
// word→postings index used for top-k similarity queries, and the
// optional direct index used for cross-image feature correspondence.
package database

import (
	"io"
	"sort"
	"sync"
	"time"

	"github.com/orneryd/bowvoc/internal/applog"
	"github.com/orneryd/bowvoc/internal/bowerr"
	"github.com/orneryd/bowvoc/internal/database/badgerstore"
	"github.com/orneryd/bowvoc/internal/database/querycache"
	"github.com/orneryd/bowvoc/internal/descriptor"
	"github.com/orneryd/bowvoc/internal/scoring"
	"github.com/orneryd/bowvoc/internal/sparsevec"
	"github.com/orneryd/bowvoc/internal/vocabulary"
)

// EntryID identifies one inserted database entry.
type EntryID = sparsevec.EntryID

// Result is one ranked query hit.
type Result struct {
	Entry EntryID
	Score float64
}

// Options configures a Database.
type Options struct {
	UseDirectIndex   bool
	DirectIndexLevel int
	CacheSize        int
	CacheTTL         time.Duration
}

// Database couples an immutable vocabulary with a mutable, append-only
// inverted index and optional direct index. A single Database must not
// be mutated (Add) concurrently with itself; concurrent Query calls
// against an unmutated Database are safe.
type Database[T descriptor.Descriptor] struct {
	vocab *vocabulary.Vocabulary[T]
	store *badgerstore.Store
	opts  Options

	mu         sync.RWMutex
	numEntries uint32
	cache      *querycache.Cache
}

// New wires a vocabulary to a backing store, restoring numEntries from
// whatever the store already holds (so reopening an existing database
// continues the EntryID sequence).
func New[T descriptor.Descriptor](vocab *vocabulary.Vocabulary[T], store *badgerstore.Store, opts Options) (*Database[T], error) {
	if vocab.Empty() {
		return nil, bowerr.ErrNotTrained
	}
	n, err := store.NumEntries()
	if err != nil {
		return nil, err
	}
	return &Database[T]{
		vocab:      vocab,
		store:      store,
		opts:       opts,
		numEntries: n,
		cache:      querycache.New(opts.CacheSize, opts.CacheTTL),
	}, nil
}

// Size returns the number of inserted entries.
func (db *Database[T]) Size() int {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return int(db.numEntries)
}

// Add transforms features and writes one posting per word, the direct
// index entry if enabled, and the bumped entry count through a single
// store transaction, so a failure partway through never leaves behind a
// half-formed entry or a stale EntryID for a later Add to collide with.
// Add must not run concurrently with itself or with Clear.
func (db *Database[T]) Add(features []T) (EntryID, error) {
	if len(features) == 0 {
		return 0, bowerr.ErrEmptyInput
	}

	level := -1
	if db.opts.UseDirectIndex {
		level = db.opts.DirectIndexLevel
	}
	bow, fv, err := db.vocab.TransformWithFV(features, level)
	if err != nil {
		return 0, err
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	eid := EntryID(db.numEntries)
	newNumEntries := db.numEntries + 1
	if err := db.store.ApplyEntry(eid, bow, fv, db.opts.UseDirectIndex, newNumEntries); err != nil {
		return 0, err
	}

	db.numEntries = newNumEntries
	db.cache.Invalidate()

	applog.Debug("entry added", map[string]interface{}{"entry": eid, "words": len(bow)})
	return eid, nil
}

// Query transforms features into a query BoW and scores it against every
// candidate reachable through the query words' posting lists, via the
// same scoring.Accumulator the dense scoring.Score path uses. Results
// are sorted most-similar first (least-similar first for KL) and
// truncated to maxResults, ties broken by ascending EntryID. If
// maxEntryID is non-nil, only entries with EntryID <= *maxEntryID are
// considered.
func (db *Database[T]) Query(features []T, maxResults int, maxEntryID *EntryID) ([]Result, error) {
	if len(features) == 0 {
		return nil, bowerr.ErrEmptyInput
	}

	q, err := db.vocab.Transform(features)
	if err != nil {
		return nil, err
	}

	var filterVal int64 = -1
	if maxEntryID != nil {
		filterVal = int64(*maxEntryID)
	}
	cacheKey := querycache.Key(q, maxResults, filterVal)
	if cached, ok := db.cache.Get(cacheKey); ok {
		return cached.([]Result), nil
	}

	kind := db.vocab.ScoringKind()
	accumulators := make(map[EntryID]*scoring.Accumulator)

	// KL's formula sums over every query word, charging a large penalty
	// for any word a candidate has no posting for at all; matchedWords
	// tracks, per scored candidate, which query words it did match so
	// that gap can be closed below. Other kinds don't need this — their
	// per-word formulas contribute zero for a word missing on one side.
	var matchedWords map[EntryID]map[sparsevec.WordID]struct{}
	if kind == scoring.KL {
		matchedWords = make(map[EntryID]map[sparsevec.WordID]struct{})
	}

	for _, qe := range q {
		postings, err := db.store.PostingList(qe.Word)
		if err != nil {
			return nil, err
		}
		for _, p := range postings {
			if maxEntryID != nil && p.Entry > *maxEntryID {
				continue
			}
			acc, ok := accumulators[p.Entry]
			if !ok {
				acc = scoring.NewAccumulator(kind)
				accumulators[p.Entry] = acc
			}
			acc.Add(qe.Weight, p.Weight)
			if matchedWords != nil {
				words, ok := matchedWords[p.Entry]
				if !ok {
					words = make(map[sparsevec.WordID]struct{})
					matchedWords[p.Entry] = words
				}
				words[qe.Word] = struct{}{}
			}
		}
	}

	if matchedWords != nil {
		for eid, acc := range accumulators {
			words := matchedWords[eid]
			for _, qe := range q {
				if _, ok := words[qe.Word]; !ok {
					acc.AddQueryOnly(qe.Weight)
				}
			}
		}
	}

	results := make([]Result, 0, len(accumulators))
	for eid, acc := range accumulators {
		score, err := acc.Finalize()
		if err != nil {
			return nil, err
		}
		results = append(results, Result{Entry: eid, Score: score})
	}

	lowerIsBetter := scoring.LowerIsBetter(kind)
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			if lowerIsBetter {
				return results[i].Score < results[j].Score
			}
			return results[i].Score > results[j].Score
		}
		return results[i].Entry < results[j].Entry
	})
	if maxResults > 0 && len(results) > maxResults {
		results = results[:maxResults]
	}

	db.cache.Put(cacheKey, results)
	return results, nil
}

// GetFeatureVector returns the stored feature vector for eid. It fails
// with ErrDirectIndexDisabled if the database was opened without direct
// indexing, or ErrOutOfRange if eid was never inserted.
func (db *Database[T]) GetFeatureVector(eid EntryID) (sparsevec.FeatureVector, error) {
	if !db.opts.UseDirectIndex {
		return nil, bowerr.ErrDirectIndexDisabled
	}
	fv, found, err := db.store.GetDirectIndex(eid)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, bowerr.ErrOutOfRange
	}
	return fv, nil
}

// FeaturePair is one (index in entry a, index in entry b) correspondence
// produced by RetrieveFeatures.
type FeaturePair struct {
	IndexA uint32
	IndexB uint32
}

// RetrieveFeatures returns, for every tree node present in both entries'
// feature vectors, the Cartesian product of their local feature indices.
// It is symmetric: RetrieveFeatures(a,b) and the index-swapped
// RetrieveFeatures(b,a) describe the same pair set.
func (db *Database[T]) RetrieveFeatures(a, b EntryID) ([]FeaturePair, error) {
	fvA, err := db.GetFeatureVector(a)
	if err != nil {
		return nil, err
	}
	fvB, err := db.GetFeatureVector(b)
	if err != nil {
		return nil, err
	}

	var pairs []FeaturePair
	for _, node := range sparsevec.CommonNodes(fvA, fvB) {
		indicesA, _ := fvA.Get(node)
		indicesB, _ := fvB.Get(node)
		for _, ia := range indicesA {
			for _, ib := range indicesB {
				pairs = append(pairs, FeaturePair{IndexA: ia, IndexB: ib})
			}
		}
	}
	return pairs, nil
}

// Clear removes every inserted entry, resetting the database to its
// freshly-created state. The vocabulary is untouched.
func (db *Database[T]) Clear() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := db.store.Clear(); err != nil {
		return err
	}
	db.numEntries = 0
	if err := db.store.SetNumEntries(0); err != nil {
		return err
	}
	db.cache.Invalidate()
	return nil
}

// Save streams a full backup of the database's postings, direct index
// and entry count to w.
func (db *Database[T]) Save(w io.Writer) error {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.store.Backup(w)
}

// Load restores the database's postings, direct index and entry count
// from a stream produced by Save, and refreshes the in-memory entry
// count to match.
func (db *Database[T]) Load(r io.Reader) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := db.store.Load(r); err != nil {
		return err
	}
	n, err := db.store.NumEntries()
	if err != nil {
		return err
	}
	db.numEntries = n
	db.cache.Invalidate()
	return nil
}
