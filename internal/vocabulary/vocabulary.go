package vocabulary

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/orneryd/bowvoc/internal/applog"
	"github.com/orneryd/bowvoc/internal/bowerr"
	"github.com/orneryd/bowvoc/internal/descriptor"
	"github.com/orneryd/bowvoc/internal/scoring"
	"github.com/orneryd/bowvoc/internal/sparsevec"
)

// Validate checks that c's fields fall within accepted ranges.
func (c Config) Validate() error {
	if c.K < 2 || c.K > 256 {
		return fmt.Errorf("%w: k=%d must be in [2,256]", bowerr.ErrInvalidConfig, c.K)
	}
	if c.L < 1 || c.L > 10 {
		return fmt.Errorf("%w: L=%d must be in [1,10]", bowerr.ErrInvalidConfig, c.L)
	}
	return nil
}

// Vocabulary is a hierarchical bag-of-words vocabulary tree over
// descriptors of concrete type T. A fully-built Vocabulary is immutable
// and safe to share across goroutines without locking.
type Vocabulary[T descriptor.Descriptor] struct {
	cfg               Config
	trait             descriptor.Trait[T]
	nodes             []Node[T]
	wordToNode        []NodeID
	numTrainingImages int
	leafImages        map[NodeID]*leafInfo
}

// New returns an empty vocabulary; call Create to populate it, or Load
// to restore a previously saved one.
func New[T descriptor.Descriptor](trait descriptor.Trait[T], cfg Config) (*Vocabulary[T], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Vocabulary[T]{cfg: cfg, trait: trait}, nil
}

// Empty reports whether the vocabulary has not yet been built or loaded.
func (v *Vocabulary[T]) Empty() bool {
	return len(v.nodes) == 0
}

// Size returns the number of words (leaves) in the vocabulary.
func (v *Vocabulary[T]) Size() int {
	return len(v.wordToNode)
}

// BranchingFactor returns the configured k.
func (v *Vocabulary[T]) BranchingFactor() int { return v.cfg.K }

// DepthLevels returns the configured maximum depth L.
func (v *Vocabulary[T]) DepthLevels() int { return v.cfg.L }

// Weighting returns the configured weighting scheme.
func (v *Vocabulary[T]) Weighting() Weighting { return v.cfg.Weighting }

// ScoringKind returns the configured default scoring function.
func (v *Vocabulary[T]) ScoringKind() scoring.Kind { return v.cfg.Scoring }

// GetWordWeight returns the leaf weight (idf) for word.
func (v *Vocabulary[T]) GetWordWeight(word WordID) (float64, error) {
	if int(word) >= len(v.wordToNode) {
		return 0, fmt.Errorf("%w: word %d", bowerr.ErrOutOfRange, word)
	}
	return v.nodes[v.wordToNode[word]].Weight, nil
}

// GetWord returns the node backing word.
func (v *Vocabulary[T]) GetWord(word WordID) (Node[T], error) {
	if int(word) >= len(v.wordToNode) {
		return Node[T]{}, fmt.Errorf("%w: word %d", bowerr.ErrOutOfRange, word)
	}
	return v.nodes[v.wordToNode[word]], nil
}

// Node returns the node identified by id.
func (v *Vocabulary[T]) Node(id NodeID) (Node[T], error) {
	if int(id) >= len(v.nodes) {
		return Node[T]{}, fmt.Errorf("%w: node %d", bowerr.ErrOutOfRange, id)
	}
	return v.nodes[id], nil
}

// trainingDescriptor pairs a descriptor with the index of the training
// image it came from, preserved only so that leaf weights can be
// computed from per-image distinct counts (IDF).
type trainingDescriptor[T descriptor.Descriptor] struct {
	desc    T
	imageID int
}

// Create builds the tree by recursive k-means clustering over
// trainingFeatures, one entry per training image. Construction is
// reproducible across runs given the same Config.Seed.
func (v *Vocabulary[T]) Create(trainingFeatures [][]T) error {
	var flat []trainingDescriptor[T]
	for imgIdx, descs := range trainingFeatures {
		for _, d := range descs {
			flat = append(flat, trainingDescriptor[T]{desc: d, imageID: imgIdx})
		}
	}
	if len(flat) == 0 {
		return bowerr.ErrEmptyInput
	}

	stop := applog.Timer("vocabulary.create")
	defer stop()

	v.numTrainingImages = len(trainingFeatures)
	v.nodes = nil
	rng := rand.New(rand.NewSource(v.cfg.Seed))

	rootID := v.allocNode(NodeNone)
	v.clusterRecursive(rng, rootID, 0, flat)

	v.assignWordsAndWeights()
	applog.Info("vocabulary created", map[string]interface{}{
		"nodes":  len(v.nodes),
		"words":  len(v.wordToNode),
		"images": v.numTrainingImages,
	})
	return nil
}

// allocNode appends a new node with the given parent and returns its
// freshly assigned NodeID.
func (v *Vocabulary[T]) allocNode(parent NodeID) NodeID {
	id := NodeID(len(v.nodes))
	v.nodes = append(v.nodes, Node[T]{ID: id, Parent: parent})
	return id
}

// clusterRecursive builds the subtree rooted at nodeID for the
// descriptors assigned to it: stop at max depth, stop when too few
// descriptors remain to split, otherwise run k-means and recurse into
// each non-empty cluster.
func (v *Vocabulary[T]) clusterRecursive(rng *rand.Rand, nodeID NodeID, depth int, descs []trainingDescriptor[T]) {
	plain := make([]T, len(descs))
	for i, d := range descs {
		plain[i] = d.desc
	}

	if depth == v.cfg.L || len(descs) <= v.cfg.K {
		v.makeLeavesOneEach(nodeID, depth, descs)
		return
	}

	centers, assignments := runKMeans(rng, v.trait, plain, v.cfg.K)

	buckets := make([][]trainingDescriptor[T], len(centers))
	for i, a := range assignments {
		buckets[a] = append(buckets[a], descs[i])
	}

	for c, bucket := range buckets {
		if len(bucket) == 0 {
			continue
		}
		childID := v.allocNode(nodeID)
		v.nodes[nodeID].Children = append(v.nodes[nodeID].Children, childID)
		v.nodes[childID].Descriptor = centers[c]
		v.clusterRecursive(rng, childID, depth+1, bucket)
	}
}

// makeLeavesOneEach handles both terminal cases: reaching max depth (one
// leaf for the whole remaining cluster) and having too few descriptors
// to usefully split further (one leaf per descriptor).
// At max depth the node's own representative becomes its mean; below max
// depth with |descs| <= k, each descriptor gets its own leaf child.
func (v *Vocabulary[T]) makeLeavesOneEach(nodeID NodeID, depth int, descs []trainingDescriptor[T]) {
	plain := make([]T, len(descs))
	imageIDs := make([]int, len(descs))
	for i, d := range descs {
		plain[i] = d.desc
		imageIDs[i] = d.imageID
	}

	if depth == v.cfg.L {
		v.nodes[nodeID].Descriptor = v.trait.MeanOf(plain)
		v.markLeaf(nodeID, imageIDs)
		return
	}

	for i, d := range plain {
		childID := v.allocNode(nodeID)
		v.nodes[nodeID].Children = append(v.nodes[nodeID].Children, childID)
		v.nodes[childID].Descriptor = d
		v.markLeaf(childID, []int{imageIDs[i]})
	}
}

// leafInfo accumulates, per leaf NodeID, the training image indices
// whose descriptors quantized there, consumed by assignWordsAndWeights
// to compute IDF.
type leafInfo struct {
	imageIDs map[int]struct{}
}

func (v *Vocabulary[T]) markLeaf(nodeID NodeID, imageIDs []int) {
	v.nodes[nodeID].IsLeaf = true
	if v.leafImages == nil {
		v.leafImages = make(map[NodeID]*leafInfo)
	}
	info, ok := v.leafImages[nodeID]
	if !ok {
		info = &leafInfo{imageIDs: make(map[int]struct{})}
		v.leafImages[nodeID] = info
	}
	for _, id := range imageIDs {
		info.imageIDs[id] = struct{}{}
	}
}

// assignWordsAndWeights performs the deterministic post-construction
// traversal: dense WordIDs are assigned to leaves in pre-order, and leaf
// weights are computed from the configured weighting scheme.
func (v *Vocabulary[T]) assignWordsAndWeights() {
	v.wordToNode = nil
	var walk func(id NodeID)
	walk = func(id NodeID) {
		node := &v.nodes[id]
		if node.IsLeaf {
			node.Word = WordID(len(v.wordToNode))
			v.wordToNode = append(v.wordToNode, id)
			node.Weight = v.leafWeight(id)
			return
		}
		for _, child := range node.Children {
			walk(child)
		}
	}
	walk(0)
}

func (v *Vocabulary[T]) leafWeight(id NodeID) float64 {
	switch v.cfg.Weighting {
	case TF, BINARY:
		return 1.0
	default: // TFIDF, IDF
		n := 0
		if info, ok := v.leafImages[id]; ok {
			n = len(info.imageIDs)
		}
		if n == 0 {
			return 0
		}
		return math.Log(float64(v.numTrainingImages) / float64(n))
	}
}

// TransformOne quantizes a single descriptor by greedy root-to-leaf
// descent, choosing at each node the child whose representative
// minimizes distance to desc (ties broken by lowest child index). It
// returns the leaf's WordID and the NodeID of the ancestor visited at
// depth level (NodeNone if level is negative or deeper than the leaf;
// leaves sit above depth L wherever a cluster was too small to split).
func (v *Vocabulary[T]) TransformOne(desc T, level int) (WordID, NodeID, error) {
	if v.Empty() {
		return 0, NodeNone, bowerr.ErrNotTrained
	}

	current := NodeID(0)
	ancestorAtLevel := NodeNone
	if level == 0 {
		ancestorAtLevel = current
	}
	depth := 0
	for !v.nodes[current].IsLeaf {
		children := v.nodes[current].Children
		best := children[0]
		bestDist := desc.Distance(v.nodes[best].Descriptor)
		for _, c := range children[1:] {
			dist := desc.Distance(v.nodes[c].Descriptor)
			if dist < bestDist {
				bestDist = dist
				best = c
			}
		}
		current = best
		depth++
		if depth == level {
			ancestorAtLevel = current
		}
	}
	return v.nodes[current].Word, ancestorAtLevel, nil
}

// Transform quantizes every descriptor in features independently and
// accumulates per-word BoW values under the configured weighting, then
// normalizes per the configured scoring function's required norm.
func (v *Vocabulary[T]) Transform(features []T) (sparsevec.BoW, error) {
	bow, _, err := v.transformWithFV(features, -1)
	return bow, err
}

// TransformWithFV is Transform plus assembly of the direct-index feature
// vector, keyed by the ancestor node each descriptor passed through at
// the given level.
func (v *Vocabulary[T]) TransformWithFV(features []T, level int) (sparsevec.BoW, sparsevec.FeatureVector, error) {
	return v.transformWithFV(features, level)
}

func (v *Vocabulary[T]) transformWithFV(features []T, level int) (sparsevec.BoW, sparsevec.FeatureVector, error) {
	if v.Empty() {
		return nil, nil, bowerr.ErrNotTrained
	}
	if len(features) == 0 {
		return nil, nil, bowerr.ErrEmptyInput
	}

	builder := sparsevec.NewBuilder()
	var fvBuilder *sparsevec.FeatureVectorBuilder
	if level >= 0 {
		fvBuilder = sparsevec.NewFeatureVectorBuilder()
	}

	for i, d := range features {
		word, ancestor, err := v.TransformOne(d, level)
		if err != nil {
			return nil, nil, err
		}
		weight, _ := v.GetWordWeight(word)

		switch v.cfg.Weighting {
		case TFIDF, IDF:
			builder.Add(word, weight)
		case TF:
			builder.Add(word, 1.0)
		case BINARY:
			builder.Set(word, 1.0)
		}

		if fvBuilder != nil {
			fvBuilder.Append(ancestor, uint32(i))
		}
	}

	bow := builder.Build()
	if v.cfg.Weighting == TFIDF || v.cfg.Weighting == TF {
		bow.ScaleInPlace(1.0 / float64(len(features)))
	}

	switch scoring.RequiredNorm(v.cfg.Scoring) {
	case scoring.NormL1:
		bow = bow.NormalizeL1()
	case scoring.NormL2:
		bow = bow.NormalizeL2()
	}

	var fv sparsevec.FeatureVector
	if fvBuilder != nil {
		fv = fvBuilder.Build()
	}
	return bow, fv, nil
}

// Score compares two BoW vectors using the vocabulary's configured
// scoring function.
func (v *Vocabulary[T]) Score(a, b sparsevec.BoW) (float64, error) {
	if v.Empty() {
		return 0, bowerr.ErrNotTrained
	}
	return scoring.Score(a, b, v.cfg.Scoring)
}
