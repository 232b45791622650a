package vocabulary

import (
	"encoding/gob"
	"fmt"
	"io"

	"github.com/orneryd/bowvoc/internal/bowerr"
	"github.com/orneryd/bowvoc/internal/scoring"
	"gopkg.in/yaml.v3"
)

// persistHeader carries everything needed to reconstruct a Vocabulary
// before its nodes are streamed in: the fixed Config plus derived sizes.
// Keeping this a separate fixed-size record (rather than embedding it in
// a single big blob) is what lets Load walk the remaining node records
// one at a time instead of materializing the whole file before decoding
// starts.
type persistHeader struct {
	K                 int
	L                 int
	Weighting         Weighting
	Scoring           scoring.Kind
	Seed              int64
	NumTrainingImages int
	NodeCount         int
}

// persistNode is the on-disk form of a Node: the descriptor is carried
// as its lossless string round-trip so the format never depends on a
// concrete descriptor type being gob-registered.
type persistNode struct {
	ID             uint32
	Parent         uint32
	HasParent      bool
	Children       []uint32
	DescriptorText string
	Weight         float64
	Word           uint32
	IsLeaf         bool
}

// Save writes the vocabulary's parameters and node array to w. The
// format streams one record at a time: a header record followed by
// exactly NodeCount node records, so Load never needs to hold the whole
// decoded structure in memory before it starts building the tree.
func (v *Vocabulary[T]) Save(w io.Writer) error {
	if v.Empty() {
		return bowerr.ErrNotTrained
	}

	enc := gob.NewEncoder(w)
	header := persistHeader{
		K:                 v.cfg.K,
		L:                 v.cfg.L,
		Weighting:         v.cfg.Weighting,
		Scoring:           v.cfg.Scoring,
		Seed:              v.cfg.Seed,
		NumTrainingImages: v.numTrainingImages,
		NodeCount:         len(v.nodes),
	}
	if err := enc.Encode(header); err != nil {
		return fmt.Errorf("%w: encoding header: %v", bowerr.ErrSerialization, err)
	}

	for _, n := range v.nodes {
		pn := persistNode{
			ID:             uint32(n.ID),
			HasParent:      n.Parent != NodeNone,
			Children:       make([]uint32, len(n.Children)),
			DescriptorText: n.Descriptor.String(),
			Weight:         n.Weight,
			Word:           uint32(n.Word),
			IsLeaf:         n.IsLeaf,
		}
		if pn.HasParent {
			pn.Parent = uint32(n.Parent)
		}
		for i, c := range n.Children {
			pn.Children[i] = uint32(c)
		}
		if err := enc.Encode(pn); err != nil {
			return fmt.Errorf("%w: encoding node %d: %v", bowerr.ErrSerialization, n.ID, err)
		}
	}
	return nil
}

// Load replaces v's contents with a vocabulary streamed from r, as
// written by Save. Every node is decoded exactly once in a single linear
// pass, so load time is linear in vocabulary size rather than quadratic.
func (v *Vocabulary[T]) Load(r io.Reader) error {
	dec := gob.NewDecoder(r)

	var header persistHeader
	if err := dec.Decode(&header); err != nil {
		return fmt.Errorf("%w: decoding header: %v", bowerr.ErrSerialization, err)
	}

	cfg := Config{
		K:         header.K,
		L:         header.L,
		Weighting: header.Weighting,
		Scoring:   header.Scoring,
		Seed:      header.Seed,
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %v", bowerr.ErrSerialization, err)
	}

	nodes := make([]Node[T], header.NodeCount)
	var wordToNode []NodeID

	for i := 0; i < header.NodeCount; i++ {
		var pn persistNode
		if err := dec.Decode(&pn); err != nil {
			return fmt.Errorf("%w: decoding node %d: %v", bowerr.ErrSerialization, i, err)
		}

		desc, err := v.trait.Parse(pn.DescriptorText)
		if err != nil {
			return fmt.Errorf("%w: parsing descriptor for node %d: %v", bowerr.ErrSerialization, pn.ID, err)
		}

		parent := NodeNone
		if pn.HasParent {
			parent = NodeID(pn.Parent)
		}
		children := make([]NodeID, len(pn.Children))
		for j, c := range pn.Children {
			children[j] = NodeID(c)
		}

		node := Node[T]{
			ID:         NodeID(pn.ID),
			Parent:     parent,
			Children:   children,
			Descriptor: desc,
			Weight:     pn.Weight,
			Word:       WordID(pn.Word),
			IsLeaf:     pn.IsLeaf,
		}
		if int(node.ID) >= len(nodes) {
			return fmt.Errorf("%w: node id %d out of range", bowerr.ErrSerialization, node.ID)
		}
		nodes[node.ID] = node

		if node.IsLeaf {
			if int(node.Word) >= len(wordToNode) {
				grown := make([]NodeID, node.Word+1)
				copy(grown, wordToNode)
				wordToNode = grown
			}
			wordToNode[node.Word] = node.ID
		}
	}

	v.cfg = cfg
	v.numTrainingImages = header.NumTrainingImages
	v.nodes = nodes
	v.wordToNode = wordToNode
	v.leafImages = nil
	return nil
}

// Info is a human-readable summary of a vocabulary's shape, suitable for
// operators inspecting a trained tree on disk.
type Info struct {
	BranchingFactor int    `yaml:"branchingFactor"`
	DepthLevels     int    `yaml:"depthLevels"`
	Weighting       string `yaml:"weighting"`
	Scoring         string `yaml:"scoring"`
	NodeCount       int    `yaml:"nodeCount"`
	WordCount       int    `yaml:"wordCount"`
	TrainingImages  int    `yaml:"trainingImages"`
}

// Info returns a summary of v's shape.
func (v *Vocabulary[T]) Info() Info {
	return Info{
		BranchingFactor: v.cfg.K,
		DepthLevels:     v.cfg.L,
		Weighting:       v.cfg.Weighting.String(),
		Scoring:         v.cfg.Scoring.String(),
		NodeCount:       len(v.nodes),
		WordCount:       len(v.wordToNode),
		TrainingImages:  v.numTrainingImages,
	}
}

// DumpInfoYAML renders Info as YAML, used by the CLI's info subcommand.
func (v *Vocabulary[T]) DumpInfoYAML() ([]byte, error) {
	return yaml.Marshal(v.Info())
}
