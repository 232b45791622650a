// Package scoring implements the pluggable similarity functions used to
// compare two bag-of-words vectors, and the incremental Accumulator that
// the database's posting-list scan uses to compute the same scores
// without ever materializing a dense vector.
package scoring

import (
	"fmt"
	"math"

	"github.com/orneryd/bowvoc/internal/bowerr"
	"github.com/orneryd/bowvoc/internal/sparsevec"
)

// Kind identifies a scoring function.
type Kind int

const (
	L1 Kind = iota
	L2
	ChiSquare
	KL
	Bhattacharyya
	DotProduct
)

// String renders the scoring kind's canonical name.
func (k Kind) String() string {
	switch k {
	case L1:
		return "L1"
	case L2:
		return "L2"
	case ChiSquare:
		return "CHI_SQUARE"
	case KL:
		return "KL"
	case Bhattacharyya:
		return "BHATTACHARYYA"
	case DotProduct:
		return "DOT_PRODUCT"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Norm identifies which normalization a scoring function requires on its
// input vectors.
type Norm int

const (
	NormL1 Norm = iota
	NormL2
	NormNone
)

// RequiredNorm reports the normalization a BoW vector must carry before
// being passed to Score or the database query path for kind k.
func RequiredNorm(k Kind) Norm {
	switch k {
	case L2:
		return NormL2
	case DotProduct:
		return NormNone
	default:
		return NormL1
	}
}

// LowerIsBetter reports whether kind k ranks smaller scores as more
// similar. Every kind except KL ranks higher as more similar.
func LowerIsBetter(k Kind) bool {
	return k == KL
}

// klEpsilon stands in for the weight of a word a candidate never matched,
// mirroring the small floor DBoW2's KL scorer substitutes for a missing
// document word rather than treating the divergence as infinite.
const klEpsilon = 1e-9

var klMissingLog = math.Log(klEpsilon)

// Accumulator incrementally computes the score for one scoring function
// across a stream of (query weight, candidate weight) pairs for common
// words, without ever building a dense vector. Score and the database's
// posting-list scan both drive an Accumulator, so the two code paths can
// never compute different numbers for the same kind.
type Accumulator struct {
	kind Kind
	raw  float64
}

// NewAccumulator returns an accumulator for kind, ready to receive
// contributions via Add.
func NewAccumulator(kind Kind) *Accumulator {
	return &Accumulator{kind: kind}
}

// Add records the contribution of one word present in both vectors, with
// weights q (query) and d (candidate/document).
func (a *Accumulator) Add(q, d float64) {
	switch a.kind {
	case L1:
		// |q-d| - |q| - |d| = -2*min(q,d) when q,d share sign (true for
		// our non-negative weights); summed across all common words this
		// yields s - sum(|q|) - sum(|d|), and since both vectors are
		// L1-normalized that constant is exactly 2.
		a.raw += -2 * math.Min(q, d)
	case L2:
		a.raw += q * d
	case ChiSquare:
		if q+d != 0 {
			a.raw += (q * d) / (q + d)
		}
	case KL:
		if d > 0 && q > 0 {
			a.raw += q * math.Log(q/d)
		}
	case Bhattacharyya:
		if q > 0 && d > 0 {
			a.raw += math.Sqrt(q * d)
		}
	case DotProduct:
		a.raw += q * d
	}
}

// AddQueryOnly records the contribution of a query word the candidate has
// no weight for at all (it never appears in the candidate's vector or
// posting lists). Every kind but KL contributes zero for such a word —
// their formulas are products of q and d, so a missing d vanishes — and
// only KL needs this call; callers may skip it entirely for other kinds.
func (a *Accumulator) AddQueryOnly(q float64) {
	if a.kind == KL && q > 0 {
		a.raw += q * (math.Log(q) - klMissingLog)
	}
}

// Finalize applies kind's final mapping to the accumulated raw value and
// returns the score, or a bowerr.ErrNumeric-wrapped error if the result
// is not finite.
func (a *Accumulator) Finalize() (float64, error) {
	var score float64
	switch a.kind {
	case L1:
		// raw = s - 2 (see Add), so s = raw + 2 and the final mapping
		// 1 - s/2 becomes -raw/2.
		score = -a.raw / 2
	case L2:
		dot := a.raw
		score = 1 - math.Sqrt(math.Max(0, 1-dot))
	case ChiSquare:
		score = 2 * a.raw
		if score < 0 {
			score = 0
		} else if score > 1 {
			score = 1
		}
	case KL:
		score = a.raw
	case Bhattacharyya:
		score = a.raw
	case DotProduct:
		score = a.raw
	}
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return 0, fmt.Errorf("%w: kind=%s raw=%v", bowerr.ErrNumeric, a.kind, a.raw)
	}
	return score, nil
}

// Score compares two pre-normalized BoW vectors under kind, using a
// sorted two-cursor merge over common words in O(|a|+|b|). This is the
// dense reference path; Database.Query computes the same numbers
// incrementally from posting lists via Accumulator directly.
func Score(a, b sparsevec.BoW, kind Kind) (float64, error) {
	acc := NewAccumulator(kind)
	sparsevec.MergeSorted(a, b,
		func(_ sparsevec.WordID, va, vb float64) {
			acc.Add(va, vb)
		},
		func(_ sparsevec.WordID, va float64) {
			acc.AddQueryOnly(va)
		},
	)
	return acc.Finalize()
}
