package main

import (
	"fmt"
	"log"

	"github.com/MatthieuPinard2/NonLinearPDEPricer/market"
	"github.com/MatthieuPinard2/NonLinearPDEPricer/payoff"
	"github.com/MatthieuPinard2/NonLinearPDEPricer/pde"
	"github.com/MatthieuPinard2/NonLinearPDEPricer/risk"
)

func main() {
	scenario := market.Config{Spot: 4133.52, VolBid: 0.1477, VolAsk: 0.1877}

	dop := payoff.Config{
		Kind:      payoff.KindDownAndOutPut,
		Expiry:    payoff.Float(0.01),
		Notional:  -1.0,
		Strike:    payoff.Float(4200.0),
		KOBarrier: payoff.Float(3900.0),
		Rebate:    payoff.Float(0.0),
	}

	points, err := risk.Profile(scenario, dop, pde.Params{}, risk.SweepConfig{
		MinSpot: 3950.0,
		MaxSpot: 4350.0,
		Points:  5,
	})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("%10s", "Spot")
	for _, name := range risk.GreekNames() {
		fmt.Printf("%12s", name)
	}
	fmt.Println()
	for _, pt := range points {
		g := pt.Greeks
		fmt.Printf("%10.2f%12.6f%12.6f%12.6f%12.6f\n", pt.Spot, g.Premium, g.Delta, g.Gamma, g.Surprime)
	}
}
