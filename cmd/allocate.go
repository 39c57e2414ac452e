// =============================================================================
// Watson Report Validator - Allocate Command
// =============================================================================
//
// This file defines the 'allocate' command, which splits a counted quantity
// between the standard and the promotion price tier and reports how well the
// split reproduces the reported amount.
//
// COMMAND USAGE:
//   watson allocate --max-qty 10 --qty-buy1 6 --qty-pro 4 \
//     --std-ext 100 --pro-ext 80 --raw 920
//   watson allocate --max-qty 10 --std-ext 100 --pro-ext 80 --raw 920 --optimize
//   watson allocate --max-qty 12 --price 100 --price 80 --price 65 --raw 1010
//
// =============================================================================

package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/watson-validator/internal/allocation"
)

var allocFlags struct {
	maxQty, qtyBuy1, qtyPro int64

	stdExt, stdInc, std62 string
	proExt, proInc, pro62 string
	raw                   string

	prices    []string
	threshold float64
	noExceed  bool

	optimize bool
	asJSON   bool
}

var allocateCmd = &cobra.Command{
	Use:   "allocate",
	Short: "Split a quantity between standard and promotion prices",
	Long: `The allocate command computes invoice amounts and commission for a
standard and a promotion quantity and compares the total with the reported
raw amount. With --optimize it searches every split of --max-qty for the one
closest to the reported amount.

With one or more --price flags it distributes --max-qty across any number of
unit prices instead, searching for the combination closest to --raw.

Prices are decimal strings. An empty promotion ex-VAT price falls back to the
standard one. A result is acceptable when its difference is within
(1 - --threshold) of the reported amount.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := allocationInputs()
		if err != nil {
			return err
		}
		opts := allocation.SearchOptions{
			ConfidenceThreshold: allocFlags.threshold,
			NotExceedRawAmt:     allocFlags.noExceed,
		}
		out := cmd.OutOrStdout()

		if len(allocFlags.prices) > 0 {
			options, err := priceOptions(allocFlags.prices)
			if err != nil {
				return err
			}
			return printCombination(out, allocation.BestCombination(options, in.MaxQty, in.ReportedRawAmount, opts))
		}

		var res allocation.Result
		if allocFlags.optimize {
			res = allocation.OptimizeWith(in, opts)
		} else {
			res = allocation.Calculate(in)
		}
		acceptable := allocation.Acceptable(res.Diff, res.RawAmt, allocFlags.threshold)

		if allocFlags.asJSON {
			return encodeJSON(out, struct {
				allocation.Result
				IsAcceptable bool `json:"isAcceptable"`
			}{res, acceptable})
		}

		fmt.Fprintf(out, "Standard qty:    %d\n", res.QtyBuy1)
		fmt.Fprintf(out, "Promotion qty:   %d\n", res.QtyPro)
		fmt.Fprintf(out, "Buy1 invoice:    %s (62: %s, com: %s)\n", res.Buy1Invoice.StringFixed(2), res.Buy1Invoice62.StringFixed(2), res.Buy1Com.StringFixed(2))
		fmt.Fprintf(out, "Promo invoice:   %s (62: %s, com: %s)\n", res.ProInvoice.StringFixed(2), res.ProInvoice62.StringFixed(2), res.ProCom.StringFixed(2))
		fmt.Fprintf(out, "Calculated:      %s\n", res.CalcAmt.StringFixed(2))
		fmt.Fprintf(out, "Reported:        %s\n", res.RawAmt.StringFixed(2))
		fmt.Fprintf(out, "Difference:      %s\n", res.Diff.StringFixed(2))
		fmt.Fprintf(out, "Total com:       %s\n", res.TotalCom.StringFixed(2))
		fmt.Fprintf(out, "Confidence:      %.1f%% (%s)\n", res.ConfidencePct, allocation.ConfidenceLevel(res.ConfidencePct))
		fmt.Fprintf(out, "Acceptable:      %s\n", yesNo(acceptable))
		switch {
		case res.IsOverLimit:
			fmt.Fprintln(out, "Status:          OVER LIMIT")
		case !res.IsValid:
			fmt.Fprintln(out, "Status:          INVALID")
		default:
			fmt.Fprintln(out, "Status:          OK")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(allocateCmd)

	f := allocateCmd.Flags()
	f.Int64Var(&allocFlags.maxQty, "max-qty", 0, "Counted quantity")
	f.Int64Var(&allocFlags.qtyBuy1, "qty-buy1", 0, "Quantity at the standard price")
	f.Int64Var(&allocFlags.qtyPro, "qty-pro", 0, "Quantity at the promotion price")
	f.StringVar(&allocFlags.stdExt, "std-ext", "0", "Standard price excluding VAT")
	f.StringVar(&allocFlags.stdInc, "std-inc", "0", "Standard price including VAT")
	f.StringVar(&allocFlags.std62, "std-62", "0", "Standard invoice 62 rate including VAT")
	f.StringVar(&allocFlags.proExt, "pro-ext", "0", "Promotion price excluding VAT")
	f.StringVar(&allocFlags.proInc, "pro-inc", "0", "Promotion price including VAT")
	f.StringVar(&allocFlags.pro62, "pro-62", "0", "Promotion invoice 62 rate including VAT")
	f.StringVar(&allocFlags.raw, "raw", "0", "Reported raw amount")
	f.StringArrayVar(&allocFlags.prices, "price", nil, "Candidate unit price for the multi-price search (repeatable)")
	f.Float64Var(&allocFlags.threshold, "threshold", allocation.DefaultConfidenceThreshold, "Confidence threshold in (0, 1] for an acceptable result")
	f.BoolVar(&allocFlags.noExceed, "no-exceed", false, "Never let the calculated amount exceed the reported amount")
	f.BoolVar(&allocFlags.optimize, "optimize", false, "Search for the split closest to the reported amount")
	f.BoolVar(&allocFlags.asJSON, "json", false, "Print the result as JSON")
}

func allocationInputs() (allocation.Inputs, error) {
	in := allocation.Inputs{
		MaxQty:  allocFlags.maxQty,
		QtyBuy1: allocFlags.qtyBuy1,
		QtyPro:  allocFlags.qtyPro,
	}
	fields := []struct {
		flag, value string
		dst         *decimal.Decimal
	}{
		{"std-ext", allocFlags.stdExt, &in.StdPriceExtVat},
		{"std-inc", allocFlags.stdInc, &in.StdPriceIncVat},
		{"std-62", allocFlags.std62, &in.StdInvoice62IncV},
		{"pro-ext", allocFlags.proExt, &in.ProPriceExtVat},
		{"pro-inc", allocFlags.proInc, &in.ProPriceIncVat},
		{"pro-62", allocFlags.pro62, &in.ProInvoice62IncV},
		{"raw", allocFlags.raw, &in.ReportedRawAmount},
	}
	for _, fl := range fields {
		v, err := decimal.NewFromString(fl.value)
		if err != nil {
			return in, fmt.Errorf("invalid --%s %q: %w", fl.flag, fl.value, err)
		}
		*fl.dst = v
	}
	return in, nil
}

// priceOptions parses --price values in flag order.
func priceOptions(values []string) ([]allocation.PriceOption, error) {
	out := make([]allocation.PriceOption, 0, len(values))
	for _, v := range values {
		p, err := decimal.NewFromString(v)
		if err != nil {
			return nil, fmt.Errorf("invalid --price %q: %w", v, err)
		}
		out = append(out, allocation.PriceOption{Price: p})
	}
	return out, nil
}

func printCombination(out io.Writer, c allocation.Combination) error {
	if allocFlags.asJSON {
		return encodeJSON(out, c)
	}
	if len(c.Allocations) == 0 {
		fmt.Fprintln(out, "No combination found.")
	}
	for _, a := range c.Allocations {
		fmt.Fprintf(out, "%10s x %d\n", a.Price.StringFixed(2), a.Qty)
	}
	fmt.Fprintf(out, "Total qty:       %d\n", c.TotalQty)
	fmt.Fprintf(out, "Calculated:      %s\n", c.CalculatedAmt.StringFixed(2))
	fmt.Fprintf(out, "Difference:      %s (%.2f%%)\n", c.Diff.StringFixed(2), c.DiffPct)
	fmt.Fprintf(out, "Confidence:      %.1f%% (%s)\n", c.ConfidencePct, allocation.ConfidenceLevel(c.ConfidencePct))
	fmt.Fprintf(out, "Acceptable:      %s\n", yesNo(c.IsAcceptable))
	return nil
}

func encodeJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
