package topics

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mathext"
	"gonum.org/v1/gonum/stat/distuv"
)

// LDA fits a latent Dirichlet allocation model with batch variational Bayes.
type LDA struct {
	Topics         int     // Number of topics
	Seed           int64   // Seed for the topic-word initialization
	MaxIterations  int     // Passes over the corpus
	MaxDocIter     int     // Per-document variational updates
	DocTolerance   float64 // Mean change in document-topic weights that stops the per-document loop
	DocTopicPrior  float64 // Defaults to 1/Topics
	TopicWordPrior float64 // Defaults to 1/Topics
}

// DefaultLDA returns a single-topic model seeded with seed.
func DefaultLDA(seed int64) LDA {
	return LDA{
		Topics:        1,
		Seed:          seed,
		MaxIterations: 10,
		MaxDocIter:    100,
		DocTolerance:  1e-3,
	}
}

// Fit returns the topic-word weight matrix (Topics x terms) for the
// document-term matrix x.
func (l LDA) Fit(x [][]float64) [][]float64 {
	k := max(l.Topics, 1)
	if len(x) == 0 || len(x[0]) == 0 {
		return make([][]float64, k)
	}
	v := len(x[0])
	alpha := l.DocTopicPrior
	if alpha <= 0 {
		alpha = 1 / float64(k)
	}
	eta := l.TopicWordPrior
	if eta <= 0 {
		eta = 1 / float64(k)
	}
	maxIter := max(l.MaxIterations, 1)
	maxDocIter := max(l.MaxDocIter, 1)

	start := distuv.Gamma{Alpha: 100, Beta: 100, Src: rand.NewPCG(uint64(l.Seed), 0)}
	lambda := make([][]float64, k)
	for t := range lambda {
		lambda[t] = make([]float64, v)
		for w := range lambda[t] {
			lambda[t][w] = start.Rand()
		}
	}

	for iter := 0; iter < maxIter; iter++ {
		expElogBeta := dirichletExpectation(lambda)
		suff := make([][]float64, k)
		for t := range suff {
			suff[t] = make([]float64, v)
		}

		for _, doc := range x {
			ids, cnts := nonZero(doc)
			if len(ids) == 0 {
				continue
			}
			expElogTheta, phiNorm := l.inferDocument(ids, cnts, expElogBeta, alpha, maxDocIter)
			for t := 0; t < k; t++ {
				for j, w := range ids {
					suff[t][w] += expElogTheta[t] * cnts[j] / phiNorm[j]
				}
			}
		}

		for t := 0; t < k; t++ {
			for w := 0; w < v; w++ {
				lambda[t][w] = eta + suff[t][w]*expElogBeta[t][w]
			}
		}
	}
	return lambda
}

func (l LDA) inferDocument(ids []int, cnts []float64, expElogBeta [][]float64, alpha float64, maxIter int) ([]float64, []float64) {
	k := len(expElogBeta)
	gamma := make([]float64, k)
	for t := range gamma {
		gamma[t] = 1
	}
	phiNorm := make([]float64, len(ids))
	var expElogTheta []float64

	for iter := 0; iter < maxIter; iter++ {
		expElogTheta = dirichletExpectation([][]float64{gamma})[0]
		for j, w := range ids {
			var s float64
			for t := 0; t < k; t++ {
				s += expElogTheta[t] * expElogBeta[t][w]
			}
			phiNorm[j] = s + 1e-100
		}

		next := make([]float64, k)
		var change float64
		for t := 0; t < k; t++ {
			var s float64
			for j, w := range ids {
				s += cnts[j] / phiNorm[j] * expElogBeta[t][w]
			}
			next[t] = alpha + expElogTheta[t]*s
			change += math.Abs(next[t] - gamma[t])
		}
		gamma = next
		if change/float64(k) < l.DocTolerance {
			break
		}
	}

	expElogTheta = dirichletExpectation([][]float64{gamma})[0]
	for j, w := range ids {
		var s float64
		for t := 0; t < k; t++ {
			s += expElogTheta[t] * expElogBeta[t][w]
		}
		phiNorm[j] = s + 1e-100
	}
	return expElogTheta, phiNorm
}

// dirichletExpectation returns exp(E[log X]) for each Dirichlet row.
func dirichletExpectation(rows [][]float64) [][]float64 {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		psiSum := mathext.Digamma(floats.Sum(row))
		out[i] = make([]float64, len(row))
		for j, a := range row {
			out[i][j] = math.Exp(mathext.Digamma(a) - psiSum)
		}
	}
	return out
}

func nonZero(row []float64) ([]int, []float64) {
	var ids []int
	var cnts []float64
	for i, c := range row {
		if c != 0 {
			ids = append(ids, i)
			cnts = append(cnts, c)
		}
	}
	return ids, cnts
}
