package payoff

import "fmt"

// Kind names a payoff variant in configuration input.
type Kind string

const (
	KindAmericanCall       Kind = "american_call"
	KindUpAndOutCallSpread Kind = "up_and_out_call_spread"
	KindDownAndOutPut      Kind = "down_and_out_put"
	KindDoubleNoTouch      Kind = "double_no_touch"
)

// Config is the JSON schema for constructing a Payoff.
//
// Expiry is required for every kind. Variant parameters are pointers so a
// present zero (e.g. a zero rebate) is distinguishable from an absent key.
// Notional is optional; worst-case pricing later requires it to be non-zero.
type Config struct {
	Kind     Kind     `json:"kind"`
	Expiry   *float64 `json:"expiry"`
	Notional float64  `json:"notional,omitempty"`

	Strike        *float64 `json:"strike,omitempty"`
	UpperStrike   *float64 `json:"upper_strike,omitempty"`
	KOBarrier     *float64 `json:"ko_barrier,omitempty"`
	KOBarrierDown *float64 `json:"ko_barrier_down,omitempty"`
	KOBarrierUp   *float64 `json:"ko_barrier_up,omitempty"`
	Rebate        *float64 `json:"rebate,omitempty"`
}

// Float is a convenience for building Config literals.
func Float(v float64) *float64 { return &v }

// New validates cfg and constructs the requested payoff variant.
func New(cfg Config) (Payoff, error) {
	if cfg.Kind == "" {
		return nil, fmt.Errorf("New: kind is required")
	}
	if cfg.Expiry == nil {
		return nil, fmt.Errorf("New: kind %q requires expiry", cfg.Kind)
	}
	if *cfg.Expiry < 0.0 {
		return nil, fmt.Errorf("New: expiry must be non-negative, got %g", *cfg.Expiry)
	}
	b := base{expiry: *cfg.Expiry, notional: cfg.Notional}

	switch cfg.Kind {
	case KindAmericanCall:
		if err := require(cfg, "strike", cfg.Strike); err != nil {
			return nil, err
		}
		return &AmericanCall{base: b, strike: *cfg.Strike}, nil

	case KindUpAndOutCallSpread:
		if err := require(cfg, "strike", cfg.Strike); err != nil {
			return nil, err
		}
		if err := require(cfg, "upper_strike", cfg.UpperStrike); err != nil {
			return nil, err
		}
		if err := require(cfg, "ko_barrier", cfg.KOBarrier); err != nil {
			return nil, err
		}
		return &UpAndOutCallSpread{
			base:        b,
			strike:      *cfg.Strike,
			upperStrike: *cfg.UpperStrike,
			koBarrier:   *cfg.KOBarrier,
		}, nil

	case KindDownAndOutPut:
		if err := require(cfg, "strike", cfg.Strike); err != nil {
			return nil, err
		}
		if err := require(cfg, "ko_barrier", cfg.KOBarrier); err != nil {
			return nil, err
		}
		if err := require(cfg, "rebate", cfg.Rebate); err != nil {
			return nil, err
		}
		return &DownAndOutPut{
			base:      b,
			strike:    *cfg.Strike,
			koBarrier: *cfg.KOBarrier,
			rebate:    *cfg.Rebate,
		}, nil

	case KindDoubleNoTouch:
		if err := require(cfg, "ko_barrier_down", cfg.KOBarrierDown); err != nil {
			return nil, err
		}
		if err := require(cfg, "ko_barrier_up", cfg.KOBarrierUp); err != nil {
			return nil, err
		}
		return &DoubleNoTouch{
			base:          b,
			koBarrierDown: *cfg.KOBarrierDown,
			koBarrierUp:   *cfg.KOBarrierUp,
		}, nil

	default:
		return nil, fmt.Errorf("New: unknown kind %q", cfg.Kind)
	}
}

func require(cfg Config, key string, v *float64) error {
	if v == nil {
		return fmt.Errorf("New: kind %q requires %s", cfg.Kind, key)
	}
	return nil
}
