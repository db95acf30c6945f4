package market

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSpot is returned when a spot value is not strictly positive.
	ErrInvalidSpot = errors.New("spot must be strictly positive")
	// ErrInvalidVolatility is returned when a volatility is not strictly
	// positive, or a bid/ask band has bid > ask.
	ErrInvalidVolatility = errors.New("invalid volatility")
)

// Volatility is either a single flat volatility or a bid/ask band.
//
// A band drives worst-case (non-linear) pricing: the engine picks bid or ask
// per grid node. A band with bid == ask is still a band and still prices
// through the non-linear path.
type Volatility struct {
	bid, ask float64
	band     bool
}

// Flat returns a single-value volatility.
func Flat(v float64) Volatility {
	return Volatility{bid: v, ask: v}
}

// Band returns a bid/ask volatility band.
func Band(bid, ask float64) Volatility {
	return Volatility{bid: bid, ask: ask, band: true}
}

// IsBand reports whether v is a bid/ask band rather than a flat value.
func (v Volatility) IsBand() bool { return v.band }

// Bid returns the low end of the band, or the flat value.
func (v Volatility) Bid() float64 { return v.bid }

// Ask returns the high end of the band, or the flat value.
func (v Volatility) Ask() float64 { return v.ask }

// Mid returns the band midpoint, or the flat value.
func (v Volatility) Mid() float64 { return (v.bid + v.ask) / 2.0 }

func (v Volatility) validate() error {
	if v.band {
		if v.bid <= 0.0 || v.ask <= 0.0 || v.bid > v.ask {
			return fmt.Errorf("%w: need 0 < bid <= ask, got [%g, %g]", ErrInvalidVolatility, v.bid, v.ask)
		}
		return nil
	}
	if v.bid <= 0.0 {
		return fmt.Errorf("%w: need a strictly positive value, got %g", ErrInvalidVolatility, v.bid)
	}
	return nil
}

// Underlying carries the live spot and volatility used for pricing, plus the
// reference spot and reference (scalar) volatility used to size the PDE grid.
//
// Live values move during bump-and-reprice; reference values pin the mesh so
// bumped solves reuse the same discretisation.
type Underlying struct {
	spot          float64
	vol           Volatility
	referenceSpot float64
	referenceVol  float64
}

// NewUnderlying validates spot and vol and returns an Underlying whose
// reference spot equals spot and whose reference vol is the band midpoint
// (or the flat value).
func NewUnderlying(spot float64, vol Volatility) (*Underlying, error) {
	u := &Underlying{}
	if err := u.SetSpot(spot); err != nil {
		return nil, err
	}
	if err := u.SetVol(vol); err != nil {
		return nil, err
	}
	u.referenceSpot = spot
	u.referenceVol = vol.Mid()
	return u, nil
}

// Spot returns the live spot.
func (u *Underlying) Spot() float64 { return u.spot }

// Vol returns the live volatility.
func (u *Underlying) Vol() Volatility { return u.vol }

// ReferenceSpot returns the spot the pricing grid is centred on.
func (u *Underlying) ReferenceSpot() float64 { return u.referenceSpot }

// ReferenceVol returns the scalar volatility used to size the pricing grid.
func (u *Underlying) ReferenceVol() float64 { return u.referenceVol }

// IsNonLinear reports whether the live volatility is a bid/ask band.
func (u *Underlying) IsNonLinear() bool { return u.vol.IsBand() }

// SetSpot updates the live spot.
func (u *Underlying) SetSpot(spot float64) error {
	if spot <= 0.0 {
		return fmt.Errorf("SetSpot: %w: got %g", ErrInvalidSpot, spot)
	}
	u.spot = spot
	return nil
}

// SetVol updates the live volatility.
func (u *Underlying) SetVol(vol Volatility) error {
	if err := vol.validate(); err != nil {
		return fmt.Errorf("SetVol: %w", err)
	}
	u.vol = vol
	return nil
}

// SetReferenceSpot re-centres the pricing grid on spot.
func (u *Underlying) SetReferenceSpot(spot float64) error {
	if spot <= 0.0 {
		return fmt.Errorf("SetReferenceSpot: %w: got %g", ErrInvalidSpot, spot)
	}
	u.referenceSpot = spot
	return nil
}

// SetReferenceVol updates the grid-sizing volatility. A band collapses to its
// midpoint; the reference vol is always a scalar.
func (u *Underlying) SetReferenceVol(vol Volatility) error {
	if err := vol.validate(); err != nil {
		return fmt.Errorf("SetReferenceVol: %w", err)
	}
	u.referenceVol = vol.Mid()
	return nil
}

// State is an opaque snapshot of an Underlying, used to restore it after
// temporary mutation (e.g. bump-and-reprice).
type State struct {
	spot          float64
	vol           Volatility
	referenceSpot float64
	referenceVol  float64
}

// Snapshot captures the current state.
func (u *Underlying) Snapshot() State {
	return State{
		spot:          u.spot,
		vol:           u.vol,
		referenceSpot: u.referenceSpot,
		referenceVol:  u.referenceVol,
	}
}

// Restore rewinds the Underlying to a previously captured state.
func (u *Underlying) Restore(s State) {
	u.spot = s.spot
	u.vol = s.vol
	u.referenceSpot = s.referenceSpot
	u.referenceVol = s.referenceVol
}

// Clone returns an independent copy.
func (u *Underlying) Clone() *Underlying {
	cp := *u
	return &cp
}

// Config is the JSON schema for constructing an Underlying.
//
// Exactly one of vol or the vol_bid/vol_ask pair must be set; the pair makes
// the underlying non-linear.
type Config struct {
	Spot   float64 `json:"spot"`
	Vol    float64 `json:"vol,omitempty"`
	VolBid float64 `json:"vol_bid,omitempty"`
	VolAsk float64 `json:"vol_ask,omitempty"`
}

// FromConfig validates cfg and builds an Underlying.
func FromConfig(cfg Config) (*Underlying, error) {
	vol, err := cfg.volatility()
	if err != nil {
		return nil, err
	}
	return NewUnderlying(cfg.Spot, vol)
}

func (cfg Config) volatility() (Volatility, error) {
	hasFlat := cfg.Vol != 0.0
	hasBand := cfg.VolBid != 0.0 || cfg.VolAsk != 0.0
	switch {
	case hasFlat && hasBand:
		return Volatility{}, fmt.Errorf("FromConfig: vol and vol_bid/vol_ask are mutually exclusive")
	case hasBand:
		if cfg.VolBid == 0.0 || cfg.VolAsk == 0.0 {
			return Volatility{}, fmt.Errorf("FromConfig: vol_bid and vol_ask must both be set")
		}
		return Band(cfg.VolBid, cfg.VolAsk), nil
	case hasFlat:
		return Flat(cfg.Vol), nil
	default:
		return Volatility{}, fmt.Errorf("FromConfig: vol or vol_bid/vol_ask is required")
	}
}
