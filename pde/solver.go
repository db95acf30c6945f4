package pde

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/interp"
	"gonum.org/v1/gonum/mat"

	"github.com/MatthieuPinard2/NonLinearPDEPricer/market"
	"github.com/MatthieuPinard2/NonLinearPDEPricer/payoff"
)

var (
	// ErrNilPayoff is returned when a required payoff argument is nil.
	ErrNilPayoff = errors.New("nil payoff")
	// ErrNilUnderlying is returned when a required underlying argument is nil.
	ErrNilUnderlying = errors.New("nil underlying")
	// ErrMissingNotional is returned when a bid/ask volatility band is priced
	// without a notional: worst-case volatility selection needs the position
	// sign and size.
	ErrMissingNotional = errors.New("non-linear pricing requires a non-zero notional")
)

const (
	defaultTimeSteps        = 253
	defaultSpaceSteps       = 500
	defaultStdDevsDown      = -6.0
	defaultStdDevsUp        = 6.0
	defaultMaxVolIterations = 50
	defaultVolTolerance     = 1.0e-8
)

// Params configures the finite-difference grid and the fixed-point
// volatility-selection loop. Zero fields take the documented defaults.
type Params struct {
	// TimeSteps is the number of time levels between expiry and today.
	// Default 253.
	TimeSteps int `json:"time_steps,omitempty"`
	// SpaceSteps is the number of log-spot grid nodes. Default 500.
	SpaceSteps int `json:"space_steps,omitempty"`
	// StdDevsDown and StdDevsUp bound the log-spot domain at that many
	// reference-vol standard deviations from the reference spot.
	// Defaults -6 and +6.
	StdDevsDown float64 `json:"std_devs_down,omitempty"`
	StdDevsUp   float64 `json:"std_devs_up,omitempty"`
	// MaxVolIterations caps the fixed-point iterations per time step when
	// pricing under a volatility band. Default 50.
	MaxVolIterations int `json:"max_vol_iterations,omitempty"`
	// VolTolerance stops the fixed-point loop once the node-averaged L2
	// distance between successive iterates falls below it. Default 1e-8.
	VolTolerance float64 `json:"vol_tolerance,omitempty"`
}

func (p Params) withDefaults() Params {
	if p.TimeSteps == 0 {
		p.TimeSteps = defaultTimeSteps
	}
	if p.SpaceSteps == 0 {
		p.SpaceSteps = defaultSpaceSteps
	}
	if p.StdDevsDown == 0 {
		p.StdDevsDown = defaultStdDevsDown
	}
	if p.StdDevsUp == 0 {
		p.StdDevsUp = defaultStdDevsUp
	}
	if p.MaxVolIterations == 0 {
		p.MaxVolIterations = defaultMaxVolIterations
	}
	if p.VolTolerance == 0 {
		p.VolTolerance = defaultVolTolerance
	}
	return p
}

func (p Params) validate() error {
	if p.TimeSteps < 2 {
		return fmt.Errorf("NewSolver: TimeSteps must be at least 2, got %d", p.TimeSteps)
	}
	if p.SpaceSteps < 4 {
		return fmt.Errorf("NewSolver: SpaceSteps must be at least 4, got %d", p.SpaceSteps)
	}
	if p.StdDevsDown >= p.StdDevsUp {
		return fmt.Errorf("NewSolver: StdDevsDown must be below StdDevsUp, got %g and %g", p.StdDevsDown, p.StdDevsUp)
	}
	if p.MaxVolIterations < 1 {
		return fmt.Errorf("NewSolver: MaxVolIterations must be at least 1, got %d", p.MaxVolIterations)
	}
	if p.VolTolerance <= 0 {
		return fmt.Errorf("NewSolver: VolTolerance must be strictly positive, got %g", p.VolTolerance)
	}
	return nil
}

// Result is the output of Solve.
type Result struct {
	// Premium is the payoff value at the underlying's live spot.
	Premium float64
	// Converged is false when any time step exhausted MaxVolIterations with
	// the fixed-point loop still above tolerance. The premium is then the
	// last iterate and should be treated with care.
	Converged bool
	// VolIterations is the total number of fixed-point iterations across all
	// time steps; 0 for flat-vol (linear) solves.
	VolIterations int
}

// Solver prices one payoff on one underlying with a fully implicit
// finite-difference scheme in log-spot.
//
// The grid is pinned by the underlying's reference spot and reference vol at
// construction time, so moving the live spot or vol between Solve calls
// (bump-and-reprice) re-uses the same discretisation. A Solver is not safe
// for concurrent use: it reads the underlying's live state on every call.
type Solver struct {
	payoff     payoff.Payoff
	underlying *market.Underlying
	params     Params
	grid
}

// NewSolver validates params, builds the pricing grid, and returns a Solver.
func NewSolver(p payoff.Payoff, u *market.Underlying, params Params) (*Solver, error) {
	if p == nil {
		return nil, fmt.Errorf("NewSolver: %w", ErrNilPayoff)
	}
	if u == nil {
		return nil, fmt.Errorf("NewSolver: %w", ErrNilUnderlying)
	}
	params = params.withDefaults()
	if err := params.validate(); err != nil {
		return nil, err
	}
	return &Solver{
		payoff:     p,
		underlying: u,
		params:     params,
		grid:       newGrid(p, u, params),
	}, nil
}

// Underlying returns the underlying the solver prices against. Mutating its
// live spot or vol changes what the next Solve call prices.
func (s *Solver) Underlying() *market.Underlying { return s.underlying }

// Solve marches the payoff from expiry to today and returns the premium at
// the underlying's live spot.
//
// Expired payoffs and spots at or beyond a continuous barrier short-circuit
// to the immediate payoff value. Under a volatility band, each time step
// re-selects bid or ask per node from the sign of the position gamma and
// iterates to a fixed point.
func (s *Solver) Solve() (Result, error) {
	spot := s.underlying.Spot()
	down, up := s.payoff.Barriers()
	if s.dT >= 0.0 || !(down < spot && spot < up) {
		return Result{
			Premium:   s.payoff.TerminalValue([]float64{spot})[0],
			Converged: true,
		}, nil
	}

	notional := s.payoff.Notional()
	if s.underlying.IsNonLinear() && notional == 0.0 {
		return Result{}, fmt.Errorf("Solve: %w", ErrMissingNotional)
	}

	n := s.params.SpaceSteps
	firstOrder := -0.5 * s.dT / s.dX
	secondOrder := -s.dT / (s.dX * s.dX)

	// Workspace shared by every implicit step.
	var (
		halfVar = make([]float64, n)
		dl      = make([]float64, n-1)
		diag    = make([]float64, n)
		du      = make([]float64, n-1)
		rhs     = make([]float64, n)
		volGrid = make([]float64, n)
		gamma   = make([]float64, n)
		prev    = make([]float64, n)
		curr    = make([]float64, n)
	)

	// solveStep advances one implicit time step: assemble the tridiagonal
	// operator for the given per-node vol, fold the Dirichlet boundaries into
	// the right-hand side, solve, then apply the payoff constraint at tNext.
	// before is left untouched; the constrained solution lands in dst.
	solveStep := func(tNext float64, vol, before, dst []float64) error {
		for i := range halfVar {
			halfVar[i] = 0.5 * vol[i] * vol[i]
		}
		for i := 0; i < n-1; i++ {
			dl[i] = halfVar[i+1] * (-firstOrder - secondOrder)
			du[i] = halfVar[i] * (firstOrder - secondOrder)
		}
		for i := 0; i < n; i++ {
			diag[i] = 1.0 + 2.0*halfVar[i]*secondOrder
		}

		copy(rhs, before)
		low, high := s.payoff.Boundaries(s.sMesh, tNext, rhs)
		rhs[0] -= dl[0] * low
		rhs[n-1] -= du[n-2] * high

		a := mat.NewTridiag(n, dl, diag, du)
		if err := a.SolveVecTo(mat.NewVecDense(n, dst), false, mat.NewVecDense(n, rhs)); err != nil {
			return fmt.Errorf("Solve: tridiagonal step at t=%g: %w", tNext, err)
		}
		s.payoff.Constrain(s.sMesh, tNext, dst)
		return nil
	}

	// Terminal condition at expiry.
	solution := s.payoff.TerminalValue(s.sMesh)
	s.payoff.Constrain(s.sMesh, s.tMesh[0], solution)

	converged := true
	totalIterations := 0
	for i := 0; i < s.params.TimeSteps-1; i++ {
		tNext := s.tMesh[i+1]
		vol := s.underlying.Vol()

		if !vol.IsBand() {
			for j := range volGrid {
				volGrid[j] = vol.Mid()
			}
			if err := solveStep(tNext, volGrid, solution, curr); err != nil {
				return Result{}, err
			}
			copy(solution, curr)
			continue
		}

		// Initial iterate: one step at the band midpoint gives a first guess
		// of the gamma profile.
		mid := vol.Mid()
		for j := range volGrid {
			volGrid[j] = mid
		}
		if err := solveStep(tNext, volGrid, solution, prev); err != nil {
			return Result{}, err
		}

		stepConverged := false
		iter := 0
		for iter < s.params.MaxVolIterations {
			gamma[0], gamma[n-1] = 0.0, 0.0
			for j := 1; j < n-1; j++ {
				gamma[j] = ((1.0+0.5*s.dX)*prev[j-1] - 2.0*prev[j] + (1.0-0.5*s.dX)*prev[j+1]) / (s.dX * s.dX)
			}
			// Worst-case selection: the vol that minimises the Hamiltonian
			// takes the ask wherever the position gamma is adverse.
			for j := range volGrid {
				if -gamma[j]*notional >= 0.0 {
					volGrid[j] = vol.Ask()
				} else {
					volGrid[j] = vol.Bid()
				}
			}
			volGrid[0] = volGrid[1]
			volGrid[n-1] = volGrid[n-2]

			if err := solveStep(tNext, volGrid, solution, curr); err != nil {
				return Result{}, err
			}
			iter++
			if floats.Distance(curr, prev, 2)/float64(n) <= s.params.VolTolerance {
				stepConverged = true
				break
			}
			copy(prev, curr)
		}
		// The last iterate is kept either way; the flag records the miss.
		copy(solution, curr)
		totalIterations += iter
		if !stepConverged {
			converged = false
		}
	}

	var spline interp.NotAKnotCubic
	if err := spline.Fit(s.xMesh, solution); err != nil {
		return Result{}, fmt.Errorf("Solve: premium readout: %w", err)
	}
	return Result{
		Premium:       spline.Predict(math.Log(spot)),
		Converged:     converged,
		VolIterations: totalIterations,
	}, nil
}
