package main

import (
	"fmt"
	"log"

	"github.com/MatthieuPinard2/NonLinearPDEPricer/market"
	"github.com/MatthieuPinard2/NonLinearPDEPricer/payoff"
	"github.com/MatthieuPinard2/NonLinearPDEPricer/pde"
)

// This probe refines the mesh on the worst-case down-and-out put scenario
// and prints the premium at each level with the change from the level
// before, to confirm the premium settles as the mesh shrinks.
//
// Run with:
//
//	go run ./scripts/20260823_01_grid_refine_dop_worstcase.go

func main() {
	levels := []pde.Params{
		{TimeSteps: 64, SpaceSteps: 125},
		{TimeSteps: 127, SpaceSteps: 250},
		{TimeSteps: 253, SpaceSteps: 500},
		{TimeSteps: 505, SpaceSteps: 1000},
		{TimeSteps: 1009, SpaceSteps: 2000},
	}

	fmt.Printf("%10s %11s %14s %12s %7s\n", "TimeSteps", "SpaceSteps", "Premium", "Diff", "Iters")
	prev := 0.0
	for i, params := range levels {
		und, err := market.NewUnderlying(4133.52, market.Band(0.1477, 0.1877))
		if err != nil {
			log.Fatal(err)
		}
		opt, err := payoff.New(payoff.Config{
			Kind:      payoff.KindDownAndOutPut,
			Expiry:    payoff.Float(0.01),
			Notional:  -1.0,
			Strike:    payoff.Float(4200.0),
			KOBarrier: payoff.Float(3900.0),
			Rebate:    payoff.Float(0.0),
		})
		if err != nil {
			log.Fatal(err)
		}
		solver, err := pde.NewSolver(opt, und, params)
		if err != nil {
			log.Fatal(err)
		}
		res, err := solver.Solve()
		if err != nil {
			log.Fatal(err)
		}

		diff := ""
		if i > 0 {
			diff = fmt.Sprintf("%+.2e", res.Premium-prev)
		}
		fmt.Printf("%10d %11d %14.8f %12s %7d\n", params.TimeSteps, params.SpaceSteps, res.Premium, diff, res.VolIterations)
		prev = res.Premium
	}
}
