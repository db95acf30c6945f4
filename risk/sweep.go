package risk

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/MatthieuPinard2/NonLinearPDEPricer/market"
	"github.com/MatthieuPinard2/NonLinearPDEPricer/payoff"
	"github.com/MatthieuPinard2/NonLinearPDEPricer/pde"
)

// SweepConfig describes a spot sweep: Points spots equally spaced between
// MinSpot and MaxSpot, priced on Workers goroutines (GOMAXPROCS when zero).
type SweepConfig struct {
	MinSpot  float64 `json:"min_spot"`
	MaxSpot  float64 `json:"max_spot"`
	Points   int     `json:"points"`
	Workers  int     `json:"workers,omitempty"`
	SpotBump float64 `json:"spot_bump,omitempty"`
}

// ProfilePoint is the greeks ladder entry at one sweep spot.
type ProfilePoint struct {
	Spot    float64
	Greeks  Greeks
	Elapsed time.Duration
}

// Profile prices the payoff across a ladder of spots and returns one entry
// per spot, ordered by spot.
//
// Every task owns a fresh Underlying and Payoff built from the configs, with
// the grid re-centred on the task's spot, so tasks never share mutable state.
// The first task error aborts the sweep after in-flight work drains.
func Profile(und market.Config, pay payoff.Config, engine pde.Params, cfg SweepConfig) ([]ProfilePoint, error) {
	if cfg.Points < 2 {
		return nil, fmt.Errorf("Profile: Points must be at least 2, got %d", cfg.Points)
	}
	if cfg.MinSpot <= 0.0 {
		return nil, fmt.Errorf("Profile: MinSpot must be strictly positive, got %g", cfg.MinSpot)
	}
	if cfg.MaxSpot <= cfg.MinSpot {
		return nil, fmt.Errorf("Profile: MaxSpot must be above MinSpot, got %g and %g", cfg.MinSpot, cfg.MaxSpot)
	}
	// Validate the scenario once before fanning out.
	if _, err := market.FromConfig(und); err != nil {
		return nil, fmt.Errorf("Profile: %w", err)
	}
	if _, err := payoff.New(pay); err != nil {
		return nil, fmt.Errorf("Profile: %w", err)
	}

	spots := make([]float64, cfg.Points)
	floats.Span(spots, cfg.MinSpot, cfg.MaxSpot)

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	out := make([]ProfilePoint, len(spots))
	jobs := make(chan int)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				pt, err := profileAt(und, pay, engine, spots[i], cfg.SpotBump)
				if err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = fmt.Errorf("Profile: spot %g: %w", spots[i], err)
					}
					mu.Unlock()
					continue
				}
				out[i] = pt
			}
		}()
	}
	for i := range spots {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}

// profileAt prices one ladder spot on task-owned state.
func profileAt(und market.Config, pay payoff.Config, engine pde.Params, spot, spotBump float64) (ProfilePoint, error) {
	u, err := market.FromConfig(und)
	if err != nil {
		return ProfilePoint{}, err
	}
	if err := u.SetReferenceSpot(spot); err != nil {
		return ProfilePoint{}, err
	}
	if err := u.SetSpot(spot); err != nil {
		return ProfilePoint{}, err
	}
	p, err := payoff.New(pay)
	if err != nil {
		return ProfilePoint{}, err
	}
	s, err := pde.NewSolver(p, u, engine)
	if err != nil {
		return ProfilePoint{}, err
	}

	start := time.Now()
	g, err := ComputeGreeks(s, spotBump)
	if err != nil {
		return ProfilePoint{}, err
	}
	return ProfilePoint{Spot: spot, Greeks: g, Elapsed: time.Since(start)}, nil
}
