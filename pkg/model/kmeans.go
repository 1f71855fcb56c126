package model

import (
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"sync"

	"gonum.org/v1/gonum/floats"

	"github.com/akshita516/CHES-Data-Cleaning-Task/pkg/core"
)

// ErrTooFewPoints is returned when there are fewer points than clusters.
var ErrTooFewPoints = fmt.Errorf("model: number of data points is less than K: %w", core.ErrConfiguration)

// KMeans partitions points into K clusters. It seeds the mixture fit, so the
// random source is explicit and the result is reproducible for a given seed.
type KMeans struct {
	K         int
	MaxIter   int
	Centroids [][]float64
	Inertia   float64 // Sum of squared distances to nearest centroid

	rng *rand.Rand
}

// NewKMeans creates a KMeans model drawing its k-means++ seeds from rng.
func NewKMeans(k, maxIter int, rng *rand.Rand) *KMeans {
	return &KMeans{
		K:       k,
		MaxIter: maxIter,
		rng:     rng,
	}
}

// Fit runs Lloyd iterations from k-means++ seeds and returns the final
// assignment of every point.
func (m *KMeans) Fit(X [][]float64) ([]int, error) {
	if len(X) == 0 || len(X[0]) == 0 {
		return nil, ErrEmptyInput
	}
	if m.K < 1 {
		return nil, fmt.Errorf("%w: k=%d", ErrInvalidComponents, m.K)
	}

	n, p := len(X), len(X[0])
	if n < m.K {
		return nil, fmt.Errorf("%w: %d points, k=%d", ErrTooFewPoints, n, m.K)
	}

	m.initCenters(X)

	assign := make([]int, n)
	for i := range assign {
		assign[i] = -1
	}
	for it := 0; it < m.MaxIter; it++ {
		changed := m.assign(X, assign)

		sums := make([][]float64, m.K)
		counts := make([]int, m.K)
		for k := 0; k < m.K; k++ {
			sums[k] = make([]float64, p)
		}
		m.Inertia = 0
		for i := 0; i < n; i++ {
			k := assign[i]
			counts[k]++
			floats.Add(sums[k], X[i])
			m.Inertia += euclidSquared(X[i], m.Centroids[k])
		}
		for k := 0; k < m.K; k++ {
			if counts[k] == 0 {
				continue // keep the previous centroid for an empty cluster
			}
			floats.ScaleTo(m.Centroids[k], 1/float64(counts[k]), sums[k])
		}

		if !changed {
			break
		}
	}
	// Final labels against the last centroids.
	m.assign(X, assign)
	return assign, nil
}

// Predict assigns each point to its nearest centroid.
func (m *KMeans) Predict(X [][]float64) ([]int, error) {
	if len(m.Centroids) == 0 {
		return nil, fmt.Errorf("model: KMeans not fitted: %w", core.ErrNotFitted)
	}
	if len(X) == 0 {
		return nil, ErrEmptyInput
	}
	if len(X[0]) != len(m.Centroids[0]) {
		return nil, fmt.Errorf("model: KMeans.Predict: feature count mismatch: %w", core.ErrShapeMismatch)
	}
	assign := make([]int, len(X))
	m.assign(X, assign)
	return assign, nil
}

// assign labels every point with its nearest centroid in parallel and
// reports whether any label changed.
func (m *KMeans) assign(X [][]float64, labels []int) bool {
	n := len(X)
	workers := runtime.GOMAXPROCS(0)
	rowsPerWorker := (n + workers - 1) / workers
	changed := make([]bool, workers)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := w * rowsPerWorker
		end := min(start+rowsPerWorker, n)
		if start >= end {
			continue
		}
		wg.Add(1)
		go func(w, start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				best, bestDist := 0, math.MaxFloat64
				for k, c := range m.Centroids {
					if d := euclidSquared(X[i], c); d < bestDist {
						best, bestDist = k, d
					}
				}
				if labels[i] != best {
					changed[w] = true
				}
				labels[i] = best
			}
		}(w, start, end)
	}
	wg.Wait()

	for _, c := range changed {
		if c {
			return true
		}
	}
	return false
}

// initCenters picks K seeds with k-means++: the first uniformly, each next one
// with probability proportional to its squared distance from the nearest seed.
func (m *KMeans) initCenters(X [][]float64) {
	n := len(X)
	m.Centroids = make([][]float64, 0, m.K)
	m.Centroids = append(m.Centroids, append([]float64(nil), X[m.rng.Intn(n)]...))

	distSq := make([]float64, n)
	for k := 1; k < m.K; k++ {
		total := 0.0
		for i, x := range X {
			minDist := math.MaxFloat64
			for _, c := range m.Centroids {
				minDist = math.Min(minDist, euclidSquared(x, c))
			}
			distSq[i] = minDist
			total += minDist
		}

		pick := n - 1
		r := m.rng.Float64() * total
		cumulative := 0.0
		for i, d2 := range distSq {
			cumulative += d2
			if cumulative >= r && d2 > 0 {
				pick = i
				break
			}
		}
		m.Centroids = append(m.Centroids, append([]float64(nil), X[pick]...))
	}
}

func euclidSquared(a, b []float64) float64 {
	d := floats.Distance(a, b, 2)
	return d * d
}
