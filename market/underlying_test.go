package market_test

import (
	"errors"
	"math"
	"testing"

	"github.com/MatthieuPinard2/NonLinearPDEPricer/market"
)

func TestNewUnderlying_SetsReferences(t *testing.T) {
	t.Parallel()

	u, err := market.NewUnderlying(4133.52, market.Band(0.1477, 0.1877))
	if err != nil {
		t.Fatalf("NewUnderlying error: %v", err)
	}
	if u.Spot() != 4133.52 {
		t.Fatalf("Spot mismatch: got %v", u.Spot())
	}
	if u.ReferenceSpot() != 4133.52 {
		t.Fatalf("ReferenceSpot mismatch: got %v", u.ReferenceSpot())
	}
	if math.Abs(u.ReferenceVol()-0.1677) > 1e-15 {
		t.Fatalf("ReferenceVol mismatch: got %v want 0.1677", u.ReferenceVol())
	}
	if !u.IsNonLinear() {
		t.Fatalf("expected band vol to be non-linear")
	}
}

func TestNewUnderlying_FlatVolIsLinear(t *testing.T) {
	t.Parallel()

	u, err := market.NewUnderlying(100.0, market.Flat(0.2))
	if err != nil {
		t.Fatalf("NewUnderlying error: %v", err)
	}
	if u.IsNonLinear() {
		t.Fatalf("expected flat vol to be linear")
	}
	v := u.Vol()
	if v.Bid() != 0.2 || v.Ask() != 0.2 || v.Mid() != 0.2 {
		t.Fatalf("flat vol accessors mismatch: bid=%v ask=%v mid=%v", v.Bid(), v.Ask(), v.Mid())
	}
}

func TestNewUnderlying_DegenerateBandStaysNonLinear(t *testing.T) {
	t.Parallel()

	// bid == ask is a valid band and must still route through the
	// non-linear pricing path.
	u, err := market.NewUnderlying(100.0, market.Band(0.2, 0.2))
	if err != nil {
		t.Fatalf("NewUnderlying error: %v", err)
	}
	if !u.IsNonLinear() {
		t.Fatalf("expected degenerate band to remain non-linear")
	}
}

func TestSetSpot_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		spot    float64
		wantErr bool
	}{
		{"positive", 101.5, false},
		{"zero", 0.0, true},
		{"negative", -3.0, true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			u, err := market.NewUnderlying(100.0, market.Flat(0.2))
			if err != nil {
				t.Fatalf("NewUnderlying error: %v", err)
			}
			err = u.SetSpot(tc.spot)
			if tc.wantErr {
				if !errors.Is(err, market.ErrInvalidSpot) {
					t.Fatalf("expected ErrInvalidSpot, got %v", err)
				}
				if u.Spot() != 100.0 {
					t.Fatalf("failed SetSpot must not mutate: got %v", u.Spot())
				}
				return
			}
			if err != nil {
				t.Fatalf("SetSpot error: %v", err)
			}
			if u.Spot() != tc.spot {
				t.Fatalf("Spot mismatch: got %v want %v", u.Spot(), tc.spot)
			}
		})
	}
}

func TestSetVol_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		vol     market.Volatility
		wantErr bool
	}{
		{"flat positive", market.Flat(0.15), false},
		{"flat zero", market.Flat(0.0), true},
		{"flat negative", market.Flat(-0.1), true},
		{"band ordered", market.Band(0.1, 0.2), false},
		{"band equal", market.Band(0.2, 0.2), false},
		{"band inverted", market.Band(0.2, 0.1), true},
		{"band zero bid", market.Band(0.0, 0.2), true},
		{"band negative ask", market.Band(0.1, -0.2), true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			u, err := market.NewUnderlying(100.0, market.Flat(0.2))
			if err != nil {
				t.Fatalf("NewUnderlying error: %v", err)
			}
			err = u.SetVol(tc.vol)
			if tc.wantErr {
				if !errors.Is(err, market.ErrInvalidVolatility) {
					t.Fatalf("expected ErrInvalidVolatility, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("SetVol error: %v", err)
			}
		})
	}
}

func TestSetReferenceVol_CollapsesBandToMid(t *testing.T) {
	t.Parallel()

	u, err := market.NewUnderlying(100.0, market.Flat(0.2))
	if err != nil {
		t.Fatalf("NewUnderlying error: %v", err)
	}
	if err := u.SetReferenceVol(market.Band(0.10, 0.30)); err != nil {
		t.Fatalf("SetReferenceVol error: %v", err)
	}
	if math.Abs(u.ReferenceVol()-0.20) > 1e-15 {
		t.Fatalf("ReferenceVol mismatch: got %v want 0.20", u.ReferenceVol())
	}
	// The live vol is untouched by reference updates.
	if u.IsNonLinear() {
		t.Fatalf("live vol must stay flat after SetReferenceVol")
	}
}

func TestSnapshotRestore_RoundTrip(t *testing.T) {
	t.Parallel()

	u, err := market.NewUnderlying(4133.52, market.Band(0.1477, 0.1877))
	if err != nil {
		t.Fatalf("NewUnderlying error: %v", err)
	}
	saved := u.Snapshot()

	if err := u.SetSpot(3900.0); err != nil {
		t.Fatalf("SetSpot error: %v", err)
	}
	if err := u.SetVol(market.Flat(0.1677)); err != nil {
		t.Fatalf("SetVol error: %v", err)
	}
	if err := u.SetReferenceSpot(3900.0); err != nil {
		t.Fatalf("SetReferenceSpot error: %v", err)
	}

	u.Restore(saved)

	if u.Spot() != 4133.52 {
		t.Fatalf("restored Spot mismatch: got %v", u.Spot())
	}
	if u.ReferenceSpot() != 4133.52 {
		t.Fatalf("restored ReferenceSpot mismatch: got %v", u.ReferenceSpot())
	}
	if !u.IsNonLinear() {
		t.Fatalf("restored vol must be the original band")
	}
	if u.Vol().Bid() != 0.1477 || u.Vol().Ask() != 0.1877 {
		t.Fatalf("restored vol mismatch: got [%v, %v]", u.Vol().Bid(), u.Vol().Ask())
	}
}

func TestClone_Independent(t *testing.T) {
	t.Parallel()

	u, err := market.NewUnderlying(100.0, market.Band(0.1, 0.2))
	if err != nil {
		t.Fatalf("NewUnderlying error: %v", err)
	}
	cp := u.Clone()
	if err := cp.SetSpot(120.0); err != nil {
		t.Fatalf("SetSpot error: %v", err)
	}
	if u.Spot() != 100.0 {
		t.Fatalf("clone mutation leaked into original: got %v", u.Spot())
	}
	if cp.Spot() != 120.0 {
		t.Fatalf("clone Spot mismatch: got %v", cp.Spot())
	}
}

func TestFromConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     market.Config
		wantErr bool
		band    bool
	}{
		{"flat", market.Config{Spot: 100, Vol: 0.2}, false, false},
		{"band", market.Config{Spot: 100, VolBid: 0.1, VolAsk: 0.2}, false, true},
		{"both set", market.Config{Spot: 100, Vol: 0.2, VolBid: 0.1, VolAsk: 0.2}, true, false},
		{"half band", market.Config{Spot: 100, VolBid: 0.1}, true, false},
		{"no vol", market.Config{Spot: 100}, true, false},
		{"bad spot", market.Config{Spot: -1, Vol: 0.2}, true, false},
		{"inverted band", market.Config{Spot: 100, VolBid: 0.3, VolAsk: 0.1}, true, false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			u, err := market.FromConfig(tc.cfg)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("FromConfig error: %v", err)
			}
			if u.IsNonLinear() != tc.band {
				t.Fatalf("IsNonLinear mismatch: got %v want %v", u.IsNonLinear(), tc.band)
			}
		})
	}
}
