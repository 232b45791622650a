// Package sparsevec implements the sorted sparse-key representations
// shared by the vocabulary, scoring and database packages: the
// bag-of-words vector, the per-image feature vector (direct index), and
// the two-cursor merge used to score them in O(|v|+|w|).
package sparsevec

// WordID is a dense identifier for a vocabulary leaf (visual word),
// assigned in traversal order starting at 0.
type WordID uint32

// NodeID identifies a vocabulary tree node; 0 is the root. NodeNone is a
// sentinel meaning "no node".
type NodeID uint32

// NodeNone is the sentinel NodeID meaning "absent".
const NodeNone NodeID = ^NodeID(0)

// EntryID identifies one inserted database entry (image), assigned
// sequentially starting at 0.
type EntryID uint32
