// Package vocabulary implements the hierarchical bag-of-words vocabulary
// tree: recursive k-means construction over a pool of training
// descriptors, greedy root-to-leaf quantization, and TF-IDF-family weight
// assignment.
package vocabulary

import (
	"github.com/orneryd/bowvoc/internal/descriptor"
	"github.com/orneryd/bowvoc/internal/scoring"
	"github.com/orneryd/bowvoc/internal/sparsevec"
)

// NodeID and WordID are shared with the sparse-vector representations so
// that BoW and FeatureVector keys line up with vocabulary identifiers
// without a conversion at the package boundary.
type NodeID = sparsevec.NodeID
type WordID = sparsevec.WordID

// NodeNone is the sentinel NodeID meaning "no parent" / "not found".
const NodeNone = sparsevec.NodeNone

// Weighting selects how quantized word occurrences are turned into BoW
// vector weights.
type Weighting int

const (
	TFIDF Weighting = iota
	TF
	IDF
	BINARY
)

// String renders the weighting's canonical name.
func (w Weighting) String() string {
	switch w {
	case TFIDF:
		return "TF_IDF"
	case TF:
		return "TF"
	case IDF:
		return "IDF"
	case BINARY:
		return "BINARY"
	default:
		return "UNKNOWN"
	}
}

// Config holds the parameters fixed at vocabulary construction.
type Config struct {
	// K is the branching factor: the maximum number of children per
	// inner node. Range [2, 256].
	K int
	// L is the maximum tree depth; the root is at depth 0, leaves at
	// depth L. Range [1, 10].
	L int
	// Weighting selects the leaf-weight and BoW-accumulation scheme.
	Weighting Weighting
	// Scoring selects the default scoring function used by Score and
	// to determine the normalization transform() applies.
	Scoring scoring.Kind
	// Seed parameterizes the k-means++ seeding randomness so that Create
	// is reproducible. Ties are broken deterministically, not randomly.
	Seed int64
}

// DefaultConfig returns a reasonable default tuning: k=10, L=5, TF-IDF
// weighting, L1 scoring.
func DefaultConfig() Config {
	return Config{
		K:         10,
		L:         5,
		Weighting: TFIDF,
		Scoring:   scoring.L1,
		Seed:      1,
	}
}

// Node is one vocabulary tree node. Weight and Word are only meaningful
// at leaves.
type Node[T descriptor.Descriptor] struct {
	ID         NodeID
	Parent     NodeID
	Children   []NodeID
	Descriptor T
	Weight     float64
	Word       WordID
	IsLeaf     bool
}
