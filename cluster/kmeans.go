package cluster

import (
	"fmt"
	"math"
	"math/rand"
)

// Options control the k-means search. All runs with the same Options and
// input produce the same Assignment.
type Options struct {
	Restarts  int     // independent initializations, best kept (default: 10)
	MaxIter   int     // iteration cap per run and per refinement (default: 300)
	Tolerance float64 // relative center-shift tolerance (default: 1e-4)
	Seed      int64   // RNG seed (default: 42)
}

func DefaultOptions() Options {
	return Options{
		Restarts:  10,
		MaxIter:   300,
		Tolerance: 1e-4,
		Seed:      42,
	}
}

// Assignment maps each point index to a cluster id in [0, K).
type Assignment struct {
	Labels  []int
	K       int
	Inertia float64 // sum of squared distances to the assigned centroid
}

// Members returns the point indices of cluster id in ascending order.
func (a *Assignment) Members(id int) []int {
	var out []int
	for i, l := range a.Labels {
		if l == id {
			out = append(out, i)
		}
	}
	return out
}

// InvalidClusterCountError is returned when k is outside [1, len(points)].
type InvalidClusterCountError struct {
	K, N int
}

func (e *InvalidClusterCountError) Error() string {
	return fmt.Sprintf("invalid cluster count k=%d for %d points", e.K, e.N)
}

// KMeans partitions points into k clusters minimizing within-cluster squared
// distance. Each restart seeds with greedy k-means++, runs Lloyd iterations
// and then single-point moves until no move lowers the cost.
func KMeans(points [][]float64, k int, opts Options) (*Assignment, error) {
	n := len(points)
	if k < 1 || k > n {
		return nil, &InvalidClusterCountError{K: k, N: n}
	}
	dim := len(points[0])
	for i, p := range points {
		if len(p) != dim {
			return nil, fmt.Errorf("kmeans: point %d has %d dims, want %d", i, len(p), dim)
		}
	}
	if opts.Restarts < 1 {
		opts.Restarts = 1
	}
	if opts.MaxIter < 1 {
		opts.MaxIter = 1
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	tol := opts.Tolerance * meanVariance(points)

	var best *Assignment
	for r := 0; r < opts.Restarts; r++ {
		centers := seed(points, k, rng)
		labels := lloyd(points, centers, opts.MaxIter, tol)
		refine(points, centers, labels, opts.MaxIter)
		inertia := cost(points, centers, labels)
		if best == nil || inertia < best.Inertia {
			best = &Assignment{Labels: labels, K: k, Inertia: inertia}
		}
	}
	return best, nil
}

// Centroid returns the mean of the points assigned to cluster id.
func Centroid(points [][]float64, a *Assignment, id int) []float64 {
	if len(points) == 0 {
		return nil
	}
	c := make([]float64, len(points[0]))
	cnt := 0
	for i, l := range a.Labels {
		if l != id {
			continue
		}
		for d, x := range points[i] {
			c[d] += x
		}
		cnt++
	}
	if cnt > 0 {
		for d := range c {
			c[d] /= float64(cnt)
		}
	}
	return c
}

// seed picks k initial centers with greedy k-means++: each step samples a
// few candidates proportional to squared distance and keeps the one that
// lowers the potential most.
func seed(points [][]float64, k int, rng *rand.Rand) [][]float64 {
	n := len(points)
	trials := 2 + int(math.Log(float64(k)))
	chosen := make([]bool, n)

	first := rng.Intn(n)
	chosen[first] = true
	centers := [][]float64{clone(points[first])}

	closest := make([]float64, n)
	for i, p := range points {
		closest[i] = sqDist(p, points[first])
	}

	for len(centers) < k {
		total := 0.0
		for _, d := range closest {
			total += d
		}

		bestIdx, bestPot := -1, math.Inf(1)
		var bestDist []float64
		for t := 0; t < trials; t++ {
			cand := sample(closest, total, chosen, rng)
			dist := make([]float64, n)
			pot := 0.0
			for i, p := range points {
				dist[i] = math.Min(closest[i], sqDist(p, points[cand]))
				pot += dist[i]
			}
			if pot < bestPot {
				bestIdx, bestPot, bestDist = cand, pot, dist
			}
		}
		chosen[bestIdx] = true
		closest = bestDist
		centers = append(centers, clone(points[bestIdx]))
	}
	return centers
}

// sample draws an index with probability proportional to weights; when every
// weight is zero it draws uniformly among indices not yet chosen.
func sample(weights []float64, total float64, chosen []bool, rng *rand.Rand) int {
	if total > 0 {
		r := rng.Float64() * total
		acc := 0.0
		last := -1
		for i, w := range weights {
			if w <= 0 {
				continue
			}
			acc += w
			last = i
			if r < acc {
				return i
			}
		}
		if last >= 0 {
			return last
		}
	}
	var free []int
	for i, c := range chosen {
		if !c {
			free = append(free, i)
		}
	}
	return free[rng.Intn(len(free))]
}

func lloyd(points, centers [][]float64, maxIter int, tol float64) []int {
	n, k := len(points), len(centers)
	labels := make([]int, n)
	for i := range labels {
		labels[i] = -1
	}

	for it := 0; it < maxIter; it++ {
		next := make([]int, n)
		for i, p := range points {
			next[i] = nearest(p, centers)
		}
		fillEmpty(points, centers, next, k)

		changed := false
		for i := range next {
			if next[i] != labels[i] {
				changed = true
				break
			}
		}
		labels = next

		shift := 0.0
		for j, c := range means(points, labels, k, len(points[0])) {
			shift += sqDist(c, centers[j])
			centers[j] = c
		}
		if !changed || shift <= tol {
			break
		}
	}
	return labels
}

// fillEmpty gives every empty cluster the point farthest from its own
// center, taken from a cluster that can spare one.
func fillEmpty(points, centers [][]float64, labels []int, k int) {
	sizes := make([]int, k)
	for _, l := range labels {
		sizes[l]++
	}
	for j := 0; j < k; j++ {
		if sizes[j] > 0 {
			continue
		}
		far, farDist := -1, -1.0
		for i, p := range points {
			if sizes[labels[i]] < 2 {
				continue
			}
			if d := sqDist(p, centers[labels[i]]); d > farDist {
				far, farDist = i, d
			}
		}
		sizes[labels[far]]--
		labels[far] = j
		sizes[j]++
		centers[j] = clone(points[far])
	}
}

// refine moves single points between clusters while a move strictly lowers
// the total within-cluster cost. Clusters never become empty.
func refine(points, centers [][]float64, labels []int, maxPasses int) {
	const eps = 1e-12
	k := len(centers)
	sizes := make([]int, k)
	for _, l := range labels {
		sizes[l]++
	}

	for pass := 0; pass < maxPasses; pass++ {
		moved := false
		for i, p := range points {
			a := labels[i]
			if sizes[a] < 2 {
				continue
			}
			na := float64(sizes[a])
			removeGain := na / (na - 1) * sqDist(p, centers[a])

			b, addCost := -1, math.Inf(1)
			for j := 0; j < k; j++ {
				if j == a {
					continue
				}
				nb := float64(sizes[j])
				if c := nb / (nb + 1) * sqDist(p, centers[j]); c < addCost {
					b, addCost = j, c
				}
			}
			if b < 0 || addCost >= removeGain-eps {
				continue
			}

			nb := float64(sizes[b])
			for d, x := range p {
				centers[a][d] = (centers[a][d]*na - x) / (na - 1)
				centers[b][d] = (centers[b][d]*nb + x) / (nb + 1)
			}
			sizes[a]--
			sizes[b]++
			labels[i] = b
			moved = true
		}
		if !moved {
			return
		}
	}
}

func means(points [][]float64, labels []int, k, dim int) [][]float64 {
	out := make([][]float64, k)
	counts := make([]int, k)
	for j := range out {
		out[j] = make([]float64, dim)
	}
	for i, p := range points {
		l := labels[i]
		counts[l]++
		for d, x := range p {
			out[l][d] += x
		}
	}
	for j := range out {
		if counts[j] == 0 {
			continue
		}
		for d := range out[j] {
			out[j][d] /= float64(counts[j])
		}
	}
	return out
}

func nearest(p []float64, centers [][]float64) int {
	best, bestDist := 0, math.Inf(1)
	for j, c := range centers {
		if d := sqDist(p, c); d < bestDist {
			best, bestDist = j, d
		}
	}
	return best
}

func cost(points, centers [][]float64, labels []int) float64 {
	total := 0.0
	for i, p := range points {
		total += sqDist(p, centers[labels[i]])
	}
	return total
}

func meanVariance(points [][]float64) float64 {
	n := float64(len(points))
	dim := len(points[0])
	if dim == 0 {
		return 0
	}
	total := 0.0
	for d := 0; d < dim; d++ {
		var sum, sq float64
		for _, p := range points {
			sum += p[d]
			sq += p[d] * p[d]
		}
		mean := sum / n
		total += sq/n - mean*mean
	}
	return total / float64(dim)
}

func sqDist(a, b []float64) float64 {
	s := 0.0
	for i := range a {
		d := a[i] - b[i]
		s += d * d
	}
	return s
}

func clone(p []float64) []float64 {
	return append([]float64(nil), p...)
}
