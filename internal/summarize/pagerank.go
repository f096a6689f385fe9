package summarize

import "math"

// PageRank scores the nodes of a weighted undirected graph given as a
// symmetric adjacency matrix (self-loops allowed). Rows with no outgoing
// weight spread their rank uniformly. Iteration stops once the L1 change
// drops below n*tol or after maxIter rounds.
func PageRank(weights [][]float64, damping, tol float64, maxIter int) []float64 {
	n := len(weights)
	if n == 0 {
		return nil
	}

	outWeight := make([]float64, n)
	for i, row := range weights {
		for _, w := range row {
			outWeight[i] += w
		}
	}

	uniform := 1.0 / float64(n)
	x := make([]float64, n)
	for i := range x {
		x[i] = uniform
	}

	for iter := 0; iter < maxIter; iter++ {
		last := x
		x = make([]float64, n)

		var danglingSum float64
		for i := 0; i < n; i++ {
			if outWeight[i] == 0 {
				danglingSum += last[i]
				continue
			}
			for j, w := range weights[i] {
				if w != 0 {
					x[j] += damping * last[i] * w / outWeight[i]
				}
			}
		}

		for i := range x {
			x[i] += damping*danglingSum*uniform + (1-damping)*uniform
		}

		var delta float64
		for i := range x {
			delta += math.Abs(x[i] - last[i])
		}
		if delta < float64(n)*tol {
			break
		}
	}
	return x
}
