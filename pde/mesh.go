package pde

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/MatthieuPinard2/NonLinearPDEPricer/market"
	"github.com/MatthieuPinard2/NonLinearPDEPricer/payoff"
)

// grid is the fixed discretisation a Solver steps over: a uniform time mesh
// running from expiry down to 0 and a uniform log-spot mesh centred on the
// underlying's reference spot.
//
// The time step dT is negative for unexpired payoffs; the scheme marches
// backwards from expiry.
type grid struct {
	tMesh []float64
	dT    float64
	xMesh []float64
	dX    float64
	sMesh []float64
}

func newGrid(p payoff.Payoff, u *market.Underlying, params Params) grid {
	expiry := p.Expiry()

	tMesh := make([]float64, params.TimeSteps)
	floats.Span(tMesh, expiry, 0.0)
	dT := (0.0 - expiry) / float64(params.TimeSteps-1)

	// Bound the log-spot domain at a number of reference-vol standard
	// deviations around the reference spot. Continuous barriers tighten the
	// domain so that the barrier lies exactly on the grid edge.
	logRef := math.Log(u.ReferenceSpot())
	width := u.ReferenceVol() * math.Sqrt(expiry)
	xMin := logRef + params.StdDevsDown*width
	xMax := logRef + params.StdDevsUp*width

	down, up := p.Barriers()
	if isFinite(down) && math.Log(down) >= xMin {
		xMin = math.Log(down)
	}
	if isFinite(up) && math.Log(up) <= xMax {
		xMax = math.Log(up)
	}

	xMesh := make([]float64, params.SpaceSteps)
	floats.Span(xMesh, xMin, xMax)
	dX := (xMax - xMin) / float64(params.SpaceSteps-1)

	sMesh := make([]float64, params.SpaceSteps)
	for i, x := range xMesh {
		sMesh[i] = math.Exp(x)
	}
	// Re-assign the edge nodes to the exact barrier levels so the inclusive
	// knock-out indicators fire without rounding slack. The equality test is
	// intentional: it holds exactly when the bound was taken from the barrier.
	if isFinite(down) && math.Log(down) == xMin {
		sMesh[0] = down
	}
	if isFinite(up) && math.Log(up) == xMax {
		sMesh[len(sMesh)-1] = up
	}

	return grid{tMesh: tMesh, dT: dT, xMesh: xMesh, dX: dX, sMesh: sMesh}
}

func isFinite(v float64) bool {
	return !math.IsInf(v, 0) && !math.IsNaN(v)
}
