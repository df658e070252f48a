package forecast

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Fit is the output of a regression: y ≈ Intercept + Coefficients·x.
type Fit struct {
	Coefficients []float64
	Intercept    float64
}

// Fitter estimates a linear model. Implementations must be deterministic
// for identical inputs.
type Fitter interface {
	Fit(x []FeatureVector, y []float64) (Fit, error)
}

// singularCutoff is relative to the largest singular value.
const singularCutoff = 1e-9

// OLS is ordinary least squares on mean-centered columns. Rank-deficient
// designs get the minimum-norm solution, so constant or collinear columns
// do not make the fit fail.
type OLS struct{}

func (OLS) Fit(x []FeatureVector, y []float64) (Fit, error) {
	n := len(x)
	if n == 0 {
		return Fit{}, fmt.Errorf("%w: no samples to fit", ErrInsufficientData)
	}
	if n != len(y) {
		return Fit{}, fmt.Errorf("fit: %d feature rows but %d targets", n, len(y))
	}
	p := len(x[0])
	if p == 0 {
		return Fit{}, errors.New("fit: empty feature vectors")
	}

	cols := make([][]float64, p)
	for j := range cols {
		cols[j] = make([]float64, n)
	}
	for i, row := range x {
		if len(row) != p {
			return Fit{}, fmt.Errorf("fit: row %d has %d features, want %d", i, len(row), p)
		}
		for j, v := range row {
			cols[j][i] = v
		}
	}

	means := make([]float64, p)
	a := mat.NewDense(n, p, nil)
	for j, col := range cols {
		means[j] = stat.Mean(col, nil)
		for i, v := range col {
			a.Set(i, j, v-means[j])
		}
	}

	yMean := stat.Mean(y, nil)
	b := make([]float64, n)
	for i, v := range y {
		b[i] = v - yMean
	}

	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDThin); !ok {
		return Fit{}, errors.New("fit: svd factorization failed")
	}
	values := svd.Values(nil)
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	var utb mat.VecDense
	utb.MulVec(u.T(), mat.NewVecDense(n, b))

	coef := make([]float64, p)
	tol := 0.0
	if len(values) > 0 {
		tol = singularCutoff * values[0]
	}
	for k, s := range values {
		if s == 0 || s <= tol {
			continue
		}
		w := utb.AtVec(k) / s
		for j := range coef {
			coef[j] += v.At(j, k) * w
		}
	}

	return Fit{
		Coefficients: coef,
		Intercept:    yMean - floats.Dot(coef, means),
	}, nil
}
