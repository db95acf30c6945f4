package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/MatthieuPinard2/NonLinearPDEPricer/market"
	"github.com/MatthieuPinard2/NonLinearPDEPricer/payoff"
	"github.com/MatthieuPinard2/NonLinearPDEPricer/pde"
	"github.com/MatthieuPinard2/NonLinearPDEPricer/risk"
)

// PricingInput defines the JSON input schema for a single pricing request.
//
// Conventions:
// - vols are decimals (0.1677 means 16.77%)
// - expiry is in years
// - spot_bump is relative (0.01 bumps the spot by 1%)
type PricingInput struct {
	Underlying market.Config `json:"underlying"`
	Payoff     payoff.Config `json:"payoff"`
	Engine     pde.Params    `json:"engine"`

	SpotBump float64 `json:"spot_bump,omitempty"`
	// PremiumOnly skips the bump-and-reprice pass and returns the premium
	// from a single solve.
	PremiumOnly bool `json:"premium_only,omitempty"`
}

type PricingOutput struct {
	Premium       float64  `json:"premium"`
	Delta         *float64 `json:"delta,omitempty"`
	Gamma         *float64 `json:"gamma,omitempty"`
	Surprime      *float64 `json:"surprime,omitempty"`
	Converged     bool     `json:"converged"`
	VolIterations int      `json:"vol_iterations"`
	Error         string   `json:"error,omitempty"`
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("pdeprice", flag.ContinueOnError)
	fs.SetOutput(stderr)
	inputPath := fs.String("input", "", "JSON input path (optional; if set, ignores stdin)")
	help := fs.Bool("h", false, "Show help")
	fs.BoolVar(help, "help", false, "Show help")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *help {
		usage(stderr)
		return 0
	}

	path := strings.TrimSpace(*inputPath)
	if path == "" {
		if f, ok := stdin.(*os.File); ok {
			if stat, err := f.Stat(); err == nil && (stat.Mode()&os.ModeCharDevice) != 0 {
				usage(stderr)
				return 2
			}
		}
	}

	inputBytes, err := readInput(stdin, path)
	if err != nil {
		return writeError(stdout, fmt.Sprintf("failed to read input: %v", err))
	}

	var input PricingInput
	if err := json.Unmarshal(inputBytes, &input); err != nil {
		return writeError(stdout, fmt.Sprintf("failed to parse JSON input: %v", err))
	}

	output, err := price(input)
	if err != nil {
		return writeError(stdout, err.Error())
	}

	outputBytes, _ := json.Marshal(output)
	fmt.Fprintln(stdout, string(outputBytes))
	return 0
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  pdeprice < input.json")
	fmt.Fprintln(w, "  pdeprice -input /path/to/input.json")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Read a JSON scenario, price it on the finite-difference PDE engine")
	fmt.Fprintln(w, "(worst-case when the underlying carries a bid/ask vol band), and write")
	fmt.Fprintln(w, "the premium and greeks as JSON to stdout.")
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path != "" {
		return os.ReadFile(path)
	}
	return io.ReadAll(stdin)
}

func writeError(stdout io.Writer, msg string) int {
	output := PricingOutput{Error: msg}
	outputBytes, _ := json.Marshal(output)
	fmt.Fprintln(stdout, string(outputBytes))
	return 1
}

func price(input PricingInput) (*PricingOutput, error) {
	u, err := market.FromConfig(input.Underlying)
	if err != nil {
		return nil, err
	}
	p, err := payoff.New(input.Payoff)
	if err != nil {
		return nil, err
	}
	s, err := pde.NewSolver(p, u, input.Engine)
	if err != nil {
		return nil, err
	}

	if input.PremiumOnly {
		res, err := s.Solve()
		if err != nil {
			return nil, err
		}
		return &PricingOutput{
			Premium:       res.Premium,
			Converged:     res.Converged,
			VolIterations: res.VolIterations,
		}, nil
	}

	g, err := risk.ComputeGreeks(s, input.SpotBump)
	if err != nil {
		return nil, err
	}
	return &PricingOutput{
		Premium:       g.Premium,
		Delta:         &g.Delta,
		Gamma:         &g.Gamma,
		Surprime:      &g.Surprime,
		Converged:     g.Converged,
		VolIterations: g.VolIterations,
	}, nil
}
