// Package tsne implements exact t-distributed stochastic neighbour embedding
// into two dimensions with PCA initialisation, following the optimiser
// schedule of scikit-learn's TSNE (early exaggeration, momentum switch, gains).
package tsne

import (
	"context"
	"errors"
	"math"

	"github.com/akolanti/MLServe/internal/config"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

const (
	outDims          = 2
	initialStd       = 1e-4
	perplexityTol    = 1e-5
	perplexitySteps  = 100
	minGradNorm      = 1e-7
	checkEvery       = 50
	machineEpsilon   = 1e-12
	initialMomentum  = 0.5
	finalMomentum    = 0.8
	gainIncrement    = 0.2
	gainDecay        = 0.8
	minLearningRate  = 50.0
	learningRateNorm = 4.0
)

var ErrRaggedInput = errors.New("all input rows must have the same dimension")

type Params struct {
	Perplexity        float64
	Iterations        int
	EarlyExaggeration float64
	ExaggerationSteps int
	MinGain           float64
}

func DefaultParams() Params {
	return Params{
		Perplexity:        config.TSNEPerplexity,
		Iterations:        config.TSNEIterations,
		EarlyExaggeration: config.TSNEEarlyExaggeration,
		ExaggerationSteps: config.TSNEExaggerationSteps,
		MinGain:           config.TSNEMinGain,
	}
}

// Embed maps every row of x to a point in the plane. The result is deterministic for a given input.
func Embed(ctx context.Context, x [][]float64, p Params) ([][2]float64, error) {
	n := len(x)
	if n == 0 {
		return [][2]float64{}, nil
	}
	dim := len(x[0])
	for _, row := range x {
		if len(row) != dim {
			return nil, ErrRaggedInput
		}
	}
	if n == 1 {
		return [][2]float64{{0, 0}}, nil
	}

	perplexity := math.Min(p.Perplexity, float64(n-1)/3)
	if perplexity < 1 {
		perplexity = 1
	}

	P := jointProbabilities(squaredDistances(x), perplexity)
	Y := pcaInit(x)
	if err := optimize(ctx, P, Y, p); err != nil {
		return nil, err
	}

	out := make([][2]float64, n)
	for i := range out {
		out[i] = [2]float64{Y[i*outDims], Y[i*outDims+1]}
	}
	return out, nil
}

func squaredDistances(x [][]float64) []float64 {
	n := len(x)
	d := make([]float64, n*n)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			dist := floats.Distance(x[i], x[j], 2)
			d[i*n+j] = dist * dist
			d[j*n+i] = dist * dist
		}
	}
	return d
}

// jointProbabilities binary searches a gaussian bandwidth per row so each
// conditional distribution hits the target perplexity, then symmetrises.
func jointProbabilities(dist []float64, perplexity float64) []float64 {
	n := int(math.Sqrt(float64(len(dist))))
	cond := make([]float64, n*n)
	target := math.Log(perplexity)
	row := make([]float64, n)

	for i := 0; i < n; i++ {
		beta, lo, hi := 1.0, math.Inf(-1), math.Inf(1)
		for step := 0; step < perplexitySteps; step++ {
			var sum float64
			for j := 0; j < n; j++ {
				if j == i {
					row[j] = 0
					continue
				}
				row[j] = math.Exp(-dist[i*n+j] * beta)
				sum += row[j]
			}
			if sum == 0 {
				sum = machineEpsilon
			}
			var weighted float64
			for j := 0; j < n; j++ {
				row[j] /= sum
				weighted += dist[i*n+j] * row[j]
			}
			entropy := math.Log(sum) + beta*weighted
			diff := entropy - target
			if math.Abs(diff) <= perplexityTol {
				break
			}
			if diff > 0 {
				lo = beta
				if math.IsInf(hi, 1) {
					beta *= 2
				} else {
					beta = (beta + hi) / 2
				}
			} else {
				hi = beta
				if math.IsInf(lo, -1) {
					beta /= 2
				} else {
					beta = (beta + lo) / 2
				}
			}
		}
		copy(cond[i*n:(i+1)*n], row)
	}

	P := make([]float64, n*n)
	var total float64
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			P[i*n+j] = cond[i*n+j] + cond[j*n+i]
			total += P[i*n+j]
		}
	}
	for k := range P {
		P[k] = math.Max(P[k]/total, machineEpsilon)
	}
	return P
}

// pcaInit projects x on its first two principal components, scaled so the
// first coordinate has standard deviation 1e-4.
func pcaInit(x [][]float64) []float64 {
	n, dim := len(x), len(x[0])
	centered := mat.NewDense(n, dim, nil)
	for j := 0; j < dim; j++ {
		col := make([]float64, n)
		for i := range x {
			col[i] = x[i][j]
		}
		mean := stat.Mean(col, nil)
		for i := range x {
			centered.Set(i, j, x[i][j]-mean)
		}
	}

	Y := make([]float64, n*outDims)
	var svd mat.SVD
	if ok := svd.Factorize(centered, mat.SVDThinU); !ok {
		return Y
	}
	var u mat.Dense
	svd.UTo(&u)
	values := svd.Values(nil)
	_, uc := u.Dims()

	for c := 0; c < outDims && c < uc && c < len(values); c++ {
		// sign convention: the largest magnitude loading is positive
		sign, best := 1.0, 0.0
		for i := 0; i < n; i++ {
			if v := u.At(i, c); math.Abs(v) > best {
				best = math.Abs(v)
				sign = math.Copysign(1, v)
			}
		}
		for i := 0; i < n; i++ {
			Y[i*outDims+c] = sign * u.At(i, c) * values[c]
		}
	}

	first := make([]float64, n)
	for i := range first {
		first[i] = Y[i*outDims]
	}
	if std := stat.PopStdDev(first, nil); std > 0 {
		floats.Scale(initialStd/std, Y)
	}
	return Y
}

func optimize(ctx context.Context, P []float64, Y []float64, p Params) error {
	n := len(Y) / outDims
	learningRate := math.Max(float64(n)/p.EarlyExaggeration/learningRateNorm, minLearningRate)

	update := make([]float64, len(Y))
	gains := make([]float64, len(Y))
	for k := range gains {
		gains[k] = 1
	}
	grad := make([]float64, len(Y))
	num := make([]float64, n*n)

	for iter := 0; iter < p.Iterations; iter++ {
		exaggeration, momentum := 1.0, finalMomentum
		if iter < p.ExaggerationSteps {
			exaggeration, momentum = p.EarlyExaggeration, initialMomentum
		}

		if iter == p.ExaggerationSteps {
			// the second descent phase starts from a fresh velocity and unit gains
			for k := range update {
				update[k] = 0
				gains[k] = 1
			}
		}

		gradient(P, Y, num, grad, exaggeration)

		for k := range Y {
			if update[k]*grad[k] < 0 {
				gains[k] += gainIncrement
			} else {
				gains[k] *= gainDecay
			}
			if gains[k] < p.MinGain {
				gains[k] = p.MinGain
			}
			update[k] = momentum*update[k] - learningRate*gains[k]*grad[k]
			Y[k] += update[k]
		}

		if (iter+1)%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
			if iter >= p.ExaggerationSteps && floats.Norm(grad, 2) < minGradNorm {
				return nil
			}
		}
	}
	return nil
}

// gradient of KL(P||Q) for the student-t kernel
func gradient(P, Y, num, grad []float64, exaggeration float64) {
	n := len(Y) / outDims
	var sum float64
	for i := 0; i < n; i++ {
		num[i*n+i] = 0
		for j := i + 1; j < n; j++ {
			dx := Y[i*outDims] - Y[j*outDims]
			dy := Y[i*outDims+1] - Y[j*outDims+1]
			q := 1 / (1 + dx*dx + dy*dy)
			num[i*n+j] = q
			num[j*n+i] = q
			sum += 2 * q
		}
	}
	if sum == 0 {
		sum = machineEpsilon
	}

	for k := range grad {
		grad[k] = 0
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			q := math.Max(num[i*n+j]/sum, machineEpsilon)
			mult := 4 * (exaggeration*P[i*n+j] - q) * num[i*n+j]
			grad[i*outDims] += mult * (Y[i*outDims] - Y[j*outDims])
			grad[i*outDims+1] += mult * (Y[i*outDims+1] - Y[j*outDims+1])
		}
	}
}
