package payoff

import "math"

// AmericanCall is a continuously exercisable call: the solution is floored at
// intrinsic value at every time step.
type AmericanCall struct {
	base
	strike float64
}

func (p *AmericanCall) TerminalValue(spots []float64) []float64 {
	out := make([]float64, len(spots))
	for i, s := range spots {
		out[i] = math.Max(s-p.strike, 0.0)
	}
	return out
}

func (p *AmericanCall) Boundaries(spots []float64, t float64, solution []float64) (float64, float64) {
	return 0.0, math.Max(spots[len(spots)-1]-p.strike, 0.0)
}

func (p *AmericanCall) Constrain(spots []float64, t float64, solution []float64) []float64 {
	for i, s := range spots {
		if exercise := math.Max(s-p.strike, 0.0); exercise > solution[i] {
			solution[i] = exercise
		}
	}
	return solution
}

// UpAndOutCallSpread is a call spread that knocks out (worthless) when the
// spot touches the upper barrier.
type UpAndOutCallSpread struct {
	base
	strike      float64
	upperStrike float64
	koBarrier   float64
}

func (p *UpAndOutCallSpread) TerminalValue(spots []float64) []float64 {
	out := make([]float64, len(spots))
	for i, s := range spots {
		if !survivesUp(s, p.koBarrier) {
			continue
		}
		out[i] = math.Max(s-p.strike, 0.0) - math.Max(s-p.upperStrike, 0.0)
	}
	return out
}

func (p *UpAndOutCallSpread) Boundaries(spots []float64, t float64, solution []float64) (float64, float64) {
	return 0.0, 0.0
}

func (p *UpAndOutCallSpread) Constrain(spots []float64, t float64, solution []float64) []float64 {
	if !survivesUp(spots[len(spots)-1], p.koBarrier) {
		solution[len(solution)-1] = 0.0
	}
	return solution
}

func (p *UpAndOutCallSpread) Barriers() (float64, float64) {
	return math.Inf(-1), p.koBarrier
}

// DownAndOutPut is a put that knocks out when the spot touches the lower
// barrier, paying an immediate rebate in the knocked-out state.
type DownAndOutPut struct {
	base
	strike    float64
	koBarrier float64
	rebate    float64
}

func (p *DownAndOutPut) TerminalValue(spots []float64) []float64 {
	out := make([]float64, len(spots))
	for i, s := range spots {
		if survivesDown(s, p.koBarrier) {
			out[i] = math.Max(p.strike-s, 0.0)
		} else {
			out[i] = p.rebate
		}
	}
	return out
}

func (p *DownAndOutPut) Boundaries(spots []float64, t float64, solution []float64) (float64, float64) {
	return p.rebate, 0.0
}

func (p *DownAndOutPut) Constrain(spots []float64, t float64, solution []float64) []float64 {
	if !survivesDown(spots[0], p.koBarrier) {
		solution[0] = p.rebate
	}
	return solution
}

func (p *DownAndOutPut) Barriers() (float64, float64) {
	return p.koBarrier, math.Inf(1)
}

// DoubleNoTouch pays 1 at expiry if the spot never touches either barrier.
type DoubleNoTouch struct {
	base
	koBarrierDown float64
	koBarrierUp   float64
}

func (p *DoubleNoTouch) TerminalValue(spots []float64) []float64 {
	out := make([]float64, len(spots))
	for i, s := range spots {
		if survivesDown(s, p.koBarrierDown) && survivesUp(s, p.koBarrierUp) {
			out[i] = 1.0
		}
	}
	return out
}

func (p *DoubleNoTouch) Boundaries(spots []float64, t float64, solution []float64) (float64, float64) {
	return 0.0, 0.0
}

func (p *DoubleNoTouch) Constrain(spots []float64, t float64, solution []float64) []float64 {
	if !survivesDown(spots[0], p.koBarrierDown) {
		solution[0] = 0.0
	}
	if !survivesUp(spots[len(spots)-1], p.koBarrierUp) {
		solution[len(solution)-1] = 0.0
	}
	return solution
}

func (p *DoubleNoTouch) Barriers() (float64, float64) {
	return p.koBarrierDown, p.koBarrierUp
}
