package pde

import (
	"math"
	"testing"

	"github.com/MatthieuPinard2/NonLinearPDEPricer/market"
	"github.com/MatthieuPinard2/NonLinearPDEPricer/payoff"
)

func testUnderlying(t *testing.T) *market.Underlying {
	t.Helper()
	u, err := market.NewUnderlying(4133.52, market.Band(0.1477, 0.1877))
	if err != nil {
		t.Fatalf("NewUnderlying error: %v", err)
	}
	return u
}

func TestNewGrid_TimeMeshDescends(t *testing.T) {
	t.Parallel()

	p, err := payoff.New(payoff.Config{
		Kind:   payoff.KindAmericanCall,
		Expiry: payoff.Float(0.5),
		Strike: payoff.Float(4000.0),
	})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	g := newGrid(p, testUnderlying(t), Params{}.withDefaults())

	if len(g.tMesh) != defaultTimeSteps {
		t.Fatalf("tMesh length: got %d want %d", len(g.tMesh), defaultTimeSteps)
	}
	if g.tMesh[0] != 0.5 {
		t.Fatalf("tMesh must start at expiry: got %v", g.tMesh[0])
	}
	if g.tMesh[len(g.tMesh)-1] != 0.0 {
		t.Fatalf("tMesh must end at 0: got %v", g.tMesh[len(g.tMesh)-1])
	}
	if g.dT >= 0.0 {
		t.Fatalf("dT must be negative for an unexpired payoff: got %v", g.dT)
	}
	if math.Abs(g.dT-(-0.5/float64(defaultTimeSteps-1))) > 1e-15 {
		t.Fatalf("dT mismatch: got %v", g.dT)
	}
}

func TestNewGrid_NoBarrierUsesStdDevBounds(t *testing.T) {
	t.Parallel()

	p, err := payoff.New(payoff.Config{
		Kind:   payoff.KindAmericanCall,
		Expiry: payoff.Float(0.01),
		Strike: payoff.Float(4200.0),
	})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	u := testUnderlying(t)
	g := newGrid(p, u, Params{}.withDefaults())

	width := u.ReferenceVol() * math.Sqrt(0.01)
	wantMin := math.Log(u.ReferenceSpot()) - 6.0*width
	wantMax := math.Log(u.ReferenceSpot()) + 6.0*width
	if g.xMesh[0] != wantMin {
		t.Fatalf("xMesh low bound: got %v want %v", g.xMesh[0], wantMin)
	}
	if g.xMesh[len(g.xMesh)-1] != wantMax {
		t.Fatalf("xMesh high bound: got %v want %v", g.xMesh[len(g.xMesh)-1], wantMax)
	}
}

func TestNewGrid_DownBarrierSnapsExactly(t *testing.T) {
	t.Parallel()

	p, err := payoff.New(payoff.Config{
		Kind:      payoff.KindDownAndOutPut,
		Expiry:    payoff.Float(0.01),
		Strike:    payoff.Float(4200.0),
		KOBarrier: payoff.Float(3900.0),
		Rebate:    payoff.Float(0.0),
	})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	g := newGrid(p, testUnderlying(t), Params{}.withDefaults())

	// The barrier is inside the std-dev bounds, so it becomes the exact low
	// edge of both meshes.
	if g.xMesh[0] != math.Log(3900.0) {
		t.Fatalf("xMesh[0]: got %v want log(3900)", g.xMesh[0])
	}
	if g.sMesh[0] != 3900.0 {
		t.Fatalf("sMesh[0] must be the exact barrier: got %v", g.sMesh[0])
	}
	for i := 1; i < len(g.sMesh); i++ {
		if g.sMesh[i] <= 3900.0 {
			t.Fatalf("node %d is at or below the barrier: %v", i, g.sMesh[i])
		}
	}
}

func TestNewGrid_OutOfRangeBarrierIgnored(t *testing.T) {
	t.Parallel()

	// A barrier below the -6 std-dev bound leaves the domain untouched.
	p, err := payoff.New(payoff.Config{
		Kind:      payoff.KindDownAndOutPut,
		Expiry:    payoff.Float(0.01),
		Strike:    payoff.Float(4200.0),
		KOBarrier: payoff.Float(3000.0),
		Rebate:    payoff.Float(0.0),
	})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	u := testUnderlying(t)
	g := newGrid(p, u, Params{}.withDefaults())

	wantMin := math.Log(u.ReferenceSpot()) - 6.0*u.ReferenceVol()*math.Sqrt(0.01)
	if g.xMesh[0] != wantMin {
		t.Fatalf("xMesh[0]: got %v want std-dev bound %v", g.xMesh[0], wantMin)
	}
	if g.sMesh[0] == 3000.0 {
		t.Fatalf("out-of-range barrier must not be snapped onto the grid")
	}
}

func TestNewGrid_DoubleBarrierSnapsBothEnds(t *testing.T) {
	t.Parallel()

	u, err := market.NewUnderlying(100.0, market.Flat(0.5))
	if err != nil {
		t.Fatalf("NewUnderlying error: %v", err)
	}
	p, err := payoff.New(payoff.Config{
		Kind:          payoff.KindDoubleNoTouch,
		Expiry:        payoff.Float(1.0),
		KOBarrierDown: payoff.Float(80.0),
		KOBarrierUp:   payoff.Float(120.0),
	})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	g := newGrid(p, u, Params{}.withDefaults())

	if g.sMesh[0] != 80.0 {
		t.Fatalf("sMesh[0]: got %v want 80", g.sMesh[0])
	}
	if g.sMesh[len(g.sMesh)-1] != 120.0 {
		t.Fatalf("sMesh last: got %v want 120", g.sMesh[len(g.sMesh)-1])
	}
	if g.dX != (math.Log(120.0)-math.Log(80.0))/float64(defaultSpaceSteps-1) {
		t.Fatalf("dX mismatch: got %v", g.dX)
	}
}
