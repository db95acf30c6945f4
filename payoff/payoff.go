package payoff

import "math"

// Payoff describes an instrument to the PDE engine: its terminal value, the
// Dirichlet boundary values and early-exercise/knock-out constraint applied
// at every time step, and the continuous barriers that bound the spot grid.
//
// Barriers are inclusive: a spot exactly at a knock-out level is knocked out.
type Payoff interface {
	// TerminalValue returns the instrument value at expiry for each spot.
	TerminalValue(spots []float64) []float64

	// Boundaries returns the Dirichlet values pinned to the first and last
	// grid nodes at time t. The current interior solution is provided for
	// payoffs whose boundary depends on it; the bundled variants ignore it.
	Boundaries(spots []float64, t float64, solution []float64) (low, high float64)

	// Constrain overrides solution in place after each implicit solve
	// (early exercise, knock-out re-pinning) and returns the same slice.
	Constrain(spots []float64, t float64, solution []float64) []float64

	// Barriers returns the continuous down/up knock-out levels,
	// -Inf / +Inf when absent.
	Barriers() (down, up float64)

	// Expiry returns the time to expiry in years.
	Expiry() float64

	// Notional returns the signed position notional, 0 when unset.
	// Worst-case (bid/ask band) pricing requires a non-zero notional.
	Notional() float64
}

// base carries the fields and defaults shared by every variant.
type base struct {
	expiry   float64
	notional float64
}

func (b base) Expiry() float64   { return b.expiry }
func (b base) Notional() float64 { return b.notional }

func (b base) Constrain(spots []float64, t float64, solution []float64) []float64 {
	return solution
}

func (b base) Barriers() (float64, float64) {
	return math.Inf(-1), math.Inf(1)
}

// survivesDown reports whether spot is strictly above a down-and-out level.
func survivesDown(spot, barrier float64) bool { return spot > barrier }

// survivesUp reports whether spot is strictly below an up-and-out level.
func survivesUp(spot, barrier float64) bool { return spot < barrier }
