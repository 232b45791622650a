package sparsevec

// MergeSorted walks two sorted BoW vectors with two cursors, in O(|a|+|b|),
// invoking onCommon for every WordID present in both vectors with their
// respective weights. If onAOnly is non-nil, it is additionally invoked,
// in ascending word order, for every WordID present in a but missing from
// b — the case KL scoring needs in order to penalize query words a
// candidate never matched. Words present in b only are never visited:
// no scoring function needs them, since every formula for them reduces
// to a contribution of zero. onAOnly may be nil when the caller's
// scoring function has no query-only term.
func MergeSorted(a, b BoW, onCommon func(word WordID, va, vb float64), onAOnly func(word WordID, va float64)) {
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i].Word < b[j].Word:
			if onAOnly != nil {
				onAOnly(a[i].Word, a[i].Weight)
			}
			i++
		case a[i].Word > b[j].Word:
			j++
		default:
			onCommon(a[i].Word, a[i].Weight, b[j].Weight)
			i++
			j++
		}
	}
	if onAOnly != nil {
		for ; i < len(a); i++ {
			onAOnly(a[i].Word, a[i].Weight)
		}
	}
}
