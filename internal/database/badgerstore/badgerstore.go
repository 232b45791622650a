// Package badgerstore persists a database's inverted index, direct index
// and entry count in a BadgerDB key-value store, so that add/query
// operations can be served from disk without holding every posting list
// in memory.
package badgerstore

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"io"
	"math"
	"sync"

	"github.com/dgraph-io/badger/v4"

	"github.com/orneryd/bowvoc/internal/bowerr"
	"github.com/orneryd/bowvoc/internal/sparsevec"
)

// Key prefixes for BadgerDB storage organization. Single-byte prefixes
// keep key comparisons and prefix scans cheap.
const (
	prefixPosting = byte(0x01) // posting:wordID:entryID -> float64 weight
	prefixDirect  = byte(0x02) // direct:entryID -> gob(FeatureVector)
	prefixMeta    = byte(0x03) // meta:key -> value
)

var metaNumEntries = []byte("numEntries")

// Options configures the store.
type Options struct {
	// DataDir is the directory for storing data files. Required unless
	// InMemory is set.
	DataDir string

	// InMemory runs BadgerDB in memory-only mode, for tests.
	InMemory bool

	// SyncWrites forces fsync after each write.
	SyncWrites bool
}

// Store wraps a BadgerDB instance holding one database's postings,
// direct index and entry count.
type Store struct {
	db     *badger.DB
	mu     sync.RWMutex
	closed bool
}

// Open creates or reopens a store at the configured location.
func Open(opts Options) (*Store, error) {
	badgerOpts := badger.DefaultOptions(opts.DataDir)
	if opts.InMemory {
		badgerOpts = badgerOpts.WithInMemory(true)
	}
	if opts.SyncWrites {
		badgerOpts = badgerOpts.WithSyncWrites(true)
	}
	badgerOpts = badgerOpts.
		WithLogger(nil).
		WithMemTableSize(16 << 20).
		WithValueLogFileSize(64 << 20).
		WithNumMemtables(2).
		WithNumLevelZeroTables(2).
		WithNumLevelZeroTablesStall(4).
		WithValueThreshold(1024).
		WithBlockCacheSize(32 << 20).
		WithIndexCacheSize(16 << 20)

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("badgerstore: opening: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying BadgerDB handle.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func (s *Store) checkOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return bowerr.ErrClosed
	}
	return nil
}

func postingKey(word sparsevec.WordID, entry sparsevec.EntryID) []byte {
	key := make([]byte, 1+4+4)
	key[0] = prefixPosting
	binary.BigEndian.PutUint32(key[1:5], uint32(word))
	binary.BigEndian.PutUint32(key[5:9], uint32(entry))
	return key
}

func postingPrefix(word sparsevec.WordID) []byte {
	key := make([]byte, 1+4)
	key[0] = prefixPosting
	binary.BigEndian.PutUint32(key[1:5], uint32(word))
	return key
}

func directKey(entry sparsevec.EntryID) []byte {
	key := make([]byte, 1+4)
	key[0] = prefixDirect
	binary.BigEndian.PutUint32(key[1:5], uint32(entry))
	return key
}

func metaKey(name []byte) []byte {
	return append([]byte{prefixMeta}, name...)
}

func encodeWeight(w float64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, math.Float64bits(w))
	return buf
}

func decodeWeight(b []byte) float64 {
	return math.Float64frombits(binary.BigEndian.Uint64(b))
}

// AppendPosting appends (entry, weight) to word's posting list. Callers
// must call entries in increasing EntryID order per word, since the
// on-disk key encodes EntryID in its sort order and the list is read
// back via a prefix scan.
func (s *Store) AppendPosting(word sparsevec.WordID, entry sparsevec.EntryID, weight float64) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(postingKey(word, entry), encodeWeight(weight))
	})
}

// ApplyEntry writes every posting for one inserted image, its optional
// direct-index feature vector, and the new entry count in a single
// BadgerDB transaction, so a failure partway through (e.g. running out
// of disk on the fifth of ten words) leaves none of it committed rather
// than a half-formed entry. writeDirectIndex selects whether fv is
// persisted; pass it false (and a nil fv) when direct indexing is off.
func (s *Store) ApplyEntry(entry sparsevec.EntryID, bow sparsevec.BoW, fv sparsevec.FeatureVector, writeDirectIndex bool, newNumEntries uint32) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	var fvBytes []byte
	if writeDirectIndex {
		var buf bytes.Buffer
		if err := gob.NewEncoder(&buf).Encode(fv); err != nil {
			return fmt.Errorf("%w: encoding feature vector: %v", bowerr.ErrSerialization, err)
		}
		fvBytes = buf.Bytes()
	}

	countBytes := make([]byte, 4)
	binary.BigEndian.PutUint32(countBytes, newNumEntries)

	return s.db.Update(func(txn *badger.Txn) error {
		for _, e := range bow {
			if err := txn.Set(postingKey(e.Word, entry), encodeWeight(e.Weight)); err != nil {
				return err
			}
		}
		if writeDirectIndex {
			if err := txn.Set(directKey(entry), fvBytes); err != nil {
				return err
			}
		}
		return txn.Set(metaKey(metaNumEntries), countBytes)
	})
}

// PostingList returns every (entry, weight) posting for word, in
// ascending EntryID order.
func (s *Store) PostingList(word sparsevec.WordID) ([]Posting, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	var out []Posting
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := postingPrefix(word)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			key := item.Key()
			entry := sparsevec.EntryID(binary.BigEndian.Uint32(key[5:9]))
			err := item.Value(func(val []byte) error {
				out = append(out, Posting{Entry: entry, Weight: decodeWeight(val)})
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return out, err
}

// Posting is one (entry, weight) pair in a posting list.
type Posting struct {
	Entry  sparsevec.EntryID
	Weight float64
}

// PutDirectIndex stores the feature vector for entry.
func (s *Store) PutDirectIndex(entry sparsevec.EntryID, fv sparsevec.FeatureVector) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(fv); err != nil {
		return fmt.Errorf("%w: encoding feature vector: %v", bowerr.ErrSerialization, err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(directKey(entry), buf.Bytes())
	})
}

// GetDirectIndex returns the feature vector stored for entry, if any.
func (s *Store) GetDirectIndex(entry sparsevec.EntryID) (sparsevec.FeatureVector, bool, error) {
	if err := s.checkOpen(); err != nil {
		return nil, false, err
	}
	var fv sparsevec.FeatureVector
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(directKey(entry))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			return gob.NewDecoder(bytes.NewReader(val)).Decode(&fv)
		})
	})
	return fv, found, err
}

// SetNumEntries persists the current entry count.
func (s *Store) SetNumEntries(n uint32) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, n)
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(metaKey(metaNumEntries), buf)
	})
}

// NumEntries returns the persisted entry count, or 0 if never set.
func (s *Store) NumEntries() (uint32, error) {
	if err := s.checkOpen(); err != nil {
		return 0, err
	}
	var n uint32
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(metaKey(metaNumEntries))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			n = binary.BigEndian.Uint32(val)
			return nil
		})
	})
	return n, err
}

// Clear drops every key in the store, used by Database.Clear.
func (s *Store) Clear() error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	return s.db.DropAll()
}

// Backup streams a full copy of the store to w, using BadgerDB's native
// backup format (see (*badger.DB).Backup). since=0 means a full backup.
func (s *Store) Backup(w io.Writer) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	_, err := s.db.Backup(w, 0)
	return err
}

// Load restores a store's contents from a stream produced by Backup.
func (s *Store) Load(r io.Reader) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	return s.db.Load(r, 256)
}
