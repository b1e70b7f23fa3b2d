// Package sensitivity runs a variance-based global sensitivity analysis
// of a scalar model using Saltelli sampling and Sobol indices.
package sensitivity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/cogenplan/cogenplan/pkg/log"
)

var (
	// ErrNoParameters is returned when there is nothing to vary.
	ErrNoParameters = errors.New("no parameters to analyze")
	// ErrNonFinite is returned when the model produces NaN or Inf.
	ErrNonFinite = errors.New("model output is not finite")
)

// Parameter is one model input and the range it is sampled over.
type Parameter struct {
	Name  string  `json:"name"`
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// Bounds returns the range base ± dev. When negative values are not
// allowed and the lower bound falls below zero the whole range is shifted
// up so it starts at zero.
func Bounds(base, dev float64, allowNegative bool) (lower, upper float64) {
	dev = math.Abs(dev)
	lower, upper = base-dev, base+dev
	if lower < 0 && !allowNegative {
		upper -= lower
		lower = 0
	}
	return lower, upper
}

// Model evaluates one sample. Inputs are ordered like the parameters.
type Model func(x []float64) float64

// Options configure Analyze.
type Options struct {
	// Samples is the base sample count N. The model runs N*(k+2) times.
	Samples int
	Seed    uint64
	// Workers bounds concurrent model evaluations. Zero uses GOMAXPROCS.
	Workers int
}

// Index holds the Sobol indices of one parameter.
type Index struct {
	Name  string  `json:"name"`
	First float64 `json:"first"`
	Total float64 `json:"total"`
}

// Sample builds the Saltelli design: rows [0, N) are matrix A, rows
// [N, 2N) are matrix B and rows [(2+i)N, (3+i)N) are A with column i
// taken from B.
func Sample(params []Parameter, n int, seed uint64) *mat.Dense {
	k := len(params)
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	design := mat.NewDense(n*(k+2), k, nil)
	for r := range 2 * n {
		for j, p := range params {
			design.Set(r, j, p.Lower+rng.Float64()*(p.Upper-p.Lower))
		}
	}
	for i := range k {
		for r := range n {
			row := (2+i)*n + r
			for j := range k {
				src := r
				if j == i {
					src = n + r
				}
				design.Set(row, j, design.At(src, j))
			}
		}
	}
	return design
}

// Analyze estimates first-order and total Sobol indices of model over
// params. First-order indices use the Saltelli 2010 estimator and total
// indices the Jansen estimator.
func Analyze(ctx context.Context, params []Parameter, model Model, opts Options) ([]Index, error) {
	k := len(params)
	if k == 0 {
		return nil, ErrNoParameters
	}
	n := opts.Samples
	if n < 2 {
		return nil, fmt.Errorf("need at least 2 samples, got %d", n)
	}
	for _, p := range params {
		if p.Upper < p.Lower {
			return nil, fmt.Errorf("parameter %s: upper bound %v below lower bound %v", p.Name, p.Upper, p.Lower)
		}
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	start := time.Now()
	design := Sample(params, n, opts.Seed)
	rows, _ := design.Dims()
	y := make([]float64, rows)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for r := range rows {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			x := make([]float64, k)
			copy(x, design.RawRowView(r))
			v := model(x)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: sample %d %v", ErrNonFinite, r, x)
			}
			y[r] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	indices := estimate(params, y, n)
	log.Ctx(ctx).DebugContext(
		ctx,
		"sensitivity analysis complete",
		slog.Int("parameters", k),
		slog.Int("evaluations", rows),
		slog.Duration("duration", time.Since(start)),
	)
	return indices, nil
}

func estimate(params []Parameter, y []float64, n int) []Index {
	fA := y[:n]
	fB := y[n : 2*n]
	variance := stat.Variance(y[:2*n], nil)

	out := make([]Index, len(params))
	first := make([]float64, n)
	total := make([]float64, n)
	for i, p := range params {
		out[i].Name = p.Name
		if variance == 0 {
			continue
		}
		fAB := y[(2+i)*n : (3+i)*n]
		for r := range n {
			first[r] = fB[r] * (fAB[r] - fA[r])
			d := fA[r] - fAB[r]
			total[r] = d * d
		}
		out[i].First = stat.Mean(first, nil) / variance
		out[i].Total = 0.5 * stat.Mean(total, nil) / variance
	}
	return out
}
