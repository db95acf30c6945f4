package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/VividCortex/gohistogram"

	"github.com/MatthieuPinard2/NonLinearPDEPricer/market"
	"github.com/MatthieuPinard2/NonLinearPDEPricer/payoff"
	"github.com/MatthieuPinard2/NonLinearPDEPricer/pde"
	"github.com/MatthieuPinard2/NonLinearPDEPricer/risk"
)

// ProfileInput defines the JSON input schema for a spot-ladder risk run.
//
// When the underlying carries a bid/ask vol band, a second ladder is priced
// at the band midpoint for comparison and written alongside the first.
type ProfileInput struct {
	Underlying market.Config    `json:"underlying"`
	Payoff     payoff.Config    `json:"payoff"`
	Engine     pde.Params       `json:"engine"`
	Sweep      risk.SweepConfig `json:"sweep"`
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("riskprofile", flag.ContinueOnError)
	fs.SetOutput(stderr)
	inputPath := fs.String("input", "", "JSON input path (optional; if set, ignores stdin)")
	csvPath := fs.String("csv", "greeks.csv", "CSV output path")
	pngPath := fs.String("png", "greeks.png", "PNG chart output path (empty to skip)")
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
		fmt.Fprintf(stderr, "failed to read input: %v\n", err)
		return 1
	}
	var input ProfileInput
	if err := json.Unmarshal(inputBytes, &input); err != nil {
		fmt.Fprintf(stderr, "failed to parse JSON input: %v\n", err)
		return 1
	}

	start := time.Now()
	points, err := risk.Profile(input.Underlying, input.Payoff, input.Engine, input.Sweep)
	if err != nil {
		fmt.Fprintf(stderr, "profile: %v\n", err)
		return 1
	}

	// Second pass at the band midpoint: the gap to the worst-case ladder is
	// the surprime on display.
	var linear []risk.ProfilePoint
	if isBand(input.Underlying) {
		linear, err = risk.Profile(midVolConfig(input.Underlying), input.Payoff, input.Engine, input.Sweep)
		if err != nil {
			fmt.Fprintf(stderr, "mid-vol profile: %v\n", err)
			return 1
		}
	}
	elapsed := time.Since(start)

	if err := writeCSV(*csvPath, points); err != nil {
		fmt.Fprintf(stderr, "write csv: %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "wrote %s\n", *csvPath)
	if len(linear) > 0 {
		linPath := linearCSVPath(*csvPath)
		if err := writeCSV(linPath, linear); err != nil {
			fmt.Fprintf(stderr, "write csv: %v\n", err)
			return 1
		}
		fmt.Fprintf(stdout, "wrote %s\n", linPath)
	}
	if *pngPath != "" {
		if err := renderChart(*pngPath, points, linear); err != nil {
			fmt.Fprintf(stderr, "render chart: %v\n", err)
			return 1
		}
		fmt.Fprintf(stdout, "wrote %s\n", *pngPath)
	}

	printSummary(stdout, points)
	printLatency(stdout, points, elapsed)
	return 0
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  riskprofile < input.json")
	fmt.Fprintln(w, "  riskprofile -input /path/to/input.json [-csv greeks.csv] [-png greeks.png]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Price a payoff across a ladder of spots, write the greeks to CSV, and")
	fmt.Fprintln(w, "render a stacked premium/delta/gamma/surprime chart. Band-vol scenarios")
	fmt.Fprintln(w, "also produce a mid-vol comparison ladder.")
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path != "" {
		return os.ReadFile(path)
	}
	return io.ReadAll(stdin)
}

func isBand(c market.Config) bool {
	return c.VolBid != 0.0 || c.VolAsk != 0.0
}

func midVolConfig(c market.Config) market.Config {
	return market.Config{Spot: c.Spot, Vol: 0.5 * (c.VolBid + c.VolAsk)}
}

func linearCSVPath(path string) string {
	return strings.TrimSuffix(path, ".csv") + "_linear.csv"
}

func writeCSV(path string, points []risk.ProfilePoint) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	defer w.Flush()

	headers := []string{"spot", "premium", "delta", "gamma", "surprime", "converged", "vol_iterations", "elapsed_ms"}
	if err := w.Write(headers); err != nil {
		return err
	}
	for _, pt := range points {
		g := pt.Greeks
		row := []string{
			fmt.Sprintf("%.4f", pt.Spot),
			fmt.Sprintf("%.6f", g.Premium),
			fmt.Sprintf("%.6f", g.Delta),
			fmt.Sprintf("%.6f", g.Gamma),
			fmt.Sprintf("%.6f", g.Surprime),
			strconv.FormatBool(g.Converged),
			strconv.Itoa(g.VolIterations),
			fmt.Sprintf("%.3f", float64(pt.Elapsed.Nanoseconds())/1e6),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func printSummary(w io.Writer, points []risk.ProfilePoint) {
	fmt.Fprintf(w, "%10s", "Spot")
	for _, name := range risk.GreekNames() {
		fmt.Fprintf(w, "%12s", name)
	}
	fmt.Fprintln(w)

	const headTail = 5
	for i, pt := range points {
		if len(points) > 2*headTail+1 && i >= headTail && i < len(points)-headTail {
			if i == headTail {
				fmt.Fprintln(w, "       ...")
			}
			continue
		}
		g := pt.Greeks
		fmt.Fprintf(w, "%10.2f%12.4f%12.4f%12.4f%12.4f", pt.Spot, g.Premium, g.Delta, g.Gamma, g.Surprime)
		if !g.Converged {
			fmt.Fprint(w, "  (not converged)")
		}
		fmt.Fprintln(w)
	}
}

func printLatency(w io.Writer, points []risk.ProfilePoint, total time.Duration) {
	h := gohistogram.NewHistogram(50)
	for _, pt := range points {
		h.Add(float64(pt.Elapsed.Nanoseconds()))
	}
	fmt.Fprintf(w, "priced %d spots in %s: solve avg %dms, 10%% %dms, 99%% %dms\n",
		len(points), total.Round(time.Millisecond),
		int(h.Mean()/1e6), int(h.Quantile(.10)/1e6), int(h.Quantile(.99)/1e6))
}
