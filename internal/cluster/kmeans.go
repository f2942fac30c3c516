package cluster

import "math"

// KMeans assigns each vector to one of k clusters and returns the labels.
// Seeding is farthest-point from the first vector, so the result only
// depends on the input order.
func KMeans(vecs [][]float64, k, maxIter int) []int {
	n := len(vecs)
	labels := make([]int, n)
	if n == 0 {
		return labels
	}
	if k > n {
		k = n
	}
	if k < 1 {
		k = 1
	}
	if maxIter <= 0 {
		maxIter = 50
	}

	centroids := seed(vecs, k)
	for i := range labels {
		labels[i] = -1
	}

	for iter := 0; iter < maxIter; iter++ {
		changed := false
		for i, v := range vecs {
			best := nearest(v, centroids)
			if labels[i] != best {
				labels[i] = best
				changed = true
			}
		}
		if !changed {
			break
		}

		dim := len(vecs[0])
		sums := make([][]float64, k)
		counts := make([]int, k)
		for c := range sums {
			sums[c] = make([]float64, dim)
		}
		for i, v := range vecs {
			c := labels[i]
			counts[c]++
			for d := range v {
				sums[c][d] += v[d]
			}
		}
		for c := range centroids {
			// An empty cluster keeps its old centroid.
			if counts[c] == 0 {
				continue
			}
			for d := range sums[c] {
				sums[c][d] /= float64(counts[c])
			}
			centroids[c] = sums[c]
		}
	}
	return labels
}

// ClusterCount is max(2, ceil(sqrt(n))), never more than n.
func ClusterCount(n int) int {
	k := int(math.Ceil(math.Sqrt(float64(n))))
	if k < 2 {
		k = 2
	}
	if k > n {
		k = n
	}
	return k
}

func seed(vecs [][]float64, k int) [][]float64 {
	centroids := [][]float64{clone(vecs[0])}
	for len(centroids) < k {
		far, farDist := -1, -1.0
		for i, v := range vecs {
			d := dist2(v, centroids[nearest(v, centroids)])
			if d > farDist {
				far, farDist = i, d
			}
		}
		centroids = append(centroids, clone(vecs[far]))
	}
	return centroids
}

func nearest(v []float64, centroids [][]float64) int {
	best, bestDist := 0, math.Inf(1)
	for c, cen := range centroids {
		if d := dist2(v, cen); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

func dist2(a, b []float64) float64 {
	var s float64
	for i := range a {
		d := a[i] - b[i]
		s += d * d
	}
	return s
}

func clone(v []float64) []float64 {
	return append([]float64(nil), v...)
}
