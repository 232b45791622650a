package vocabulary

import (
	"math/rand"

	"github.com/orneryd/bowvoc/internal/descriptor"
)

const maxLloydIterations = 10

// seedCentroids runs modified k-means++ seeding: the first center is
// picked uniformly at random, and each subsequent center is picked with
// probability proportional to its squared distance to the nearest
// already-chosen center.
//
// If at some step every remaining descriptor has distance 0 to an
// existing center (a collapsed cluster), seeding stops early and the
// returned slice has fewer than k centers; the caller reduces its
// effective k for this split rather than looping forever chasing
// distinct centers that do not exist.
func seedCentroids[T descriptor.Descriptor](rng *rand.Rand, trait descriptor.Trait[T], descriptors []T, k int) []T {
	n := len(descriptors)
	if k > n {
		k = n
	}
	centers := make([]T, 0, k)
	centers = append(centers, descriptors[rng.Intn(n)])

	minDistSq := make([]float64, n)
	for i, d := range descriptors {
		dist := d.Distance(centers[0])
		minDistSq[i] = dist * dist
	}

	for len(centers) < k {
		var total float64
		for _, ds := range minDistSq {
			total += ds
		}
		if total == 0 {
			// every remaining descriptor coincides with a chosen center
			break
		}

		target := rng.Float64() * total
		var cum float64
		chosen := n - 1
		for i, ds := range minDistSq {
			cum += ds
			if cum >= target {
				chosen = i
				break
			}
		}

		centers = append(centers, descriptors[chosen])
		for i, d := range descriptors {
			dist := d.Distance(centers[len(centers)-1])
			if sq := dist * dist; sq < minDistSq[i] {
				minDistSq[i] = sq
			}
		}
	}

	return centers
}

// assignToCentroids assigns each descriptor to the index of its nearest
// center, breaking ties toward the lowest center index.
func assignToCentroids[T descriptor.Descriptor](descriptors []T, centers []T) []int {
	assignments := make([]int, len(descriptors))
	for i, d := range descriptors {
		best := 0
		bestDist := d.Distance(centers[0])
		for c := 1; c < len(centers); c++ {
			dist := d.Distance(centers[c])
			if dist < bestDist {
				bestDist = dist
				best = c
			}
		}
		assignments[i] = best
	}
	return assignments
}

// updateCentroids recomputes each center as the trait mean of its
// assigned descriptors. Clusters that received no descriptors keep their
// previous center.
func updateCentroids[T descriptor.Descriptor](trait descriptor.Trait[T], descriptors []T, assignments []int, centers []T) []T {
	buckets := make([][]T, len(centers))
	for i, d := range descriptors {
		c := assignments[i]
		buckets[c] = append(buckets[c], d)
	}
	updated := make([]T, len(centers))
	for c := range centers {
		if len(buckets[c]) == 0 {
			updated[c] = centers[c]
			continue
		}
		updated[c] = trait.MeanOf(buckets[c])
	}
	return updated
}

// runKMeans seeds k-means++ centers over descriptors and runs Lloyd
// iterations until assignments stabilize or maxLloydIterations is
// reached. It returns the final centers and the final per-descriptor
// cluster assignment; len(centers) may be less than k if seeding
// collapsed.
func runKMeans[T descriptor.Descriptor](rng *rand.Rand, trait descriptor.Trait[T], descriptors []T, k int) ([]T, []int) {
	centers := seedCentroids(rng, trait, descriptors, k)
	assignments := assignToCentroids(descriptors, centers)

	for iter := 0; iter < maxLloydIterations; iter++ {
		centers = updateCentroids(trait, descriptors, assignments, centers)
		next := assignToCentroids(descriptors, centers)

		stable := true
		for i := range next {
			if next[i] != assignments[i] {
				stable = false
				break
			}
		}
		assignments = next
		if stable {
			break
		}
	}

	return centers, assignments
}
