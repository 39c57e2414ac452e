package allocation

import (
	"github.com/shopspring/decimal"
)

// MaxOptimizeQty caps the quantity the optimizer searches over.
const MaxOptimizeQty = 500

const (
	// DefaultConfidenceThreshold is the share of the raw amount a result must
	// reproduce to count as acceptable.
	DefaultConfidenceThreshold = 0.9

	// DefaultMaxPrices caps the price options BestCombination considers.
	DefaultMaxPrices = 100
)

// perfectMatch stops a search once the best difference is below it.
var perfectMatch = decimal.RequireFromString("0.01")

// SearchOptions bounds the optimizers. The zero value takes every default.
type SearchOptions struct {
	// ConfidenceThreshold is in (0, 1]. Default: DefaultConfidenceThreshold
	ConfidenceThreshold float64

	// NotExceedRawAmt rejects combinations whose amount is above the raw
	// amount.
	NotExceedRawAmt bool

	// MaxQty caps the searched quantity. Default: MaxOptimizeQty
	MaxQty int64

	// MaxPrices caps the number of price options. Default: DefaultMaxPrices
	MaxPrices int
}

func (o SearchOptions) withDefaults() SearchOptions {
	if o.ConfidenceThreshold <= 0 || o.ConfidenceThreshold > 1 {
		o.ConfidenceThreshold = DefaultConfidenceThreshold
	}
	if o.MaxQty <= 0 {
		o.MaxQty = MaxOptimizeQty
	}
	if o.MaxPrices <= 0 {
		o.MaxPrices = DefaultMaxPrices
	}
	return o
}

// Acceptable reports whether |diff| is within raw * (1 - threshold). A
// threshold outside (0, 1] takes DefaultConfidenceThreshold.
func Acceptable(diff, raw decimal.Decimal, threshold float64) bool {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultConfidenceThreshold
	}
	tolerance := raw.Abs().Mul(decimal.NewFromInt(1).Sub(decimal.NewFromFloat(threshold)))
	return diff.Abs().LessThanOrEqual(tolerance)
}

// =============================================================================
// TWO-TIER SPLIT
// =============================================================================

// Optimize searches every split of the counted quantity across the two tiers
// and returns the one whose calculated amount is closest to the reported
// amount. Ties keep the larger standard quantity. Quantities above
// MaxOptimizeQty are searched as MaxOptimizeQty.
//
// The QtyBuy1 and QtyPro inputs are ignored. With no counted quantity the
// inputs are evaluated as given.
func Optimize(in Inputs) Result {
	return OptimizeWith(in, SearchOptions{})
}

// OptimizeWith is Optimize bounded by opts. With NotExceedRawAmt set, splits
// whose amount is above the reported amount are skipped; when every split is
// above it the result has zero quantities and is invalid.
func OptimizeWith(in Inputs, opts SearchOptions) Result {
	if in.MaxQty <= 0 {
		return Calculate(in)
	}
	opts = opts.withDefaults()
	n := in.MaxQty
	if n > opts.MaxQty {
		n = opts.MaxQty
	}

	var best Result
	found := false
	for buy1 := n; buy1 >= 0; buy1-- {
		try := in
		try.QtyBuy1, try.QtyPro = buy1, n-buy1
		r := Calculate(try)
		if opts.NotExceedRawAmt && r.CalcAmt.GreaterThan(r.RawAmt) {
			continue
		}
		if !found || r.Diff.Abs().LessThan(best.Diff.Abs()) {
			best, found = r, true
		}
		if best.Diff.IsZero() {
			break
		}
	}
	if !found {
		none := in
		none.QtyBuy1, none.QtyPro = 0, 0
		return Calculate(none)
	}
	return best
}

// =============================================================================
// N-PRICE SEARCH
// =============================================================================

// PriceOption is one candidate unit price.
type PriceOption struct {
	// Price is the ex-VAT unit price the amount is built from.
	Price  decimal.Decimal `json:"price"`
	Label  string          `json:"label,omitempty"`
	Remark string          `json:"remark,omitempty"`

	PriceIncVat decimal.Decimal `json:"priceIncVat"`
	StdPrice    decimal.Decimal `json:"stdPrice"`
}

// PriceAllocation is the quantity assigned to one price option.
type PriceAllocation struct {
	PriceOption
	Qty int64 `json:"qty"`
}

// Combination is the outcome of BestCombination.
type Combination struct {
	// Allocations lists the options with a non-zero quantity, in input order.
	Allocations []PriceAllocation `json:"allocations"`

	CalculatedAmt decimal.Decimal `json:"calculatedAmt"`

	// Diff is CalculatedAmt minus the raw amount.
	Diff          decimal.Decimal `json:"diff"`
	DiffPct       float64         `json:"diffPercent"`
	ConfidencePct float64         `json:"confidence"`
	IsAcceptable  bool            `json:"isAcceptable"`
	TotalQty      int64           `json:"totalQty"`
}

// BestCombination distributes qty across prices so that the summed amount is
// as close as possible to raw. It is a bounded depth-first search: the first
// option is tried at every quantity from 0 up, then the next, and the last
// option takes whatever is left. The first best combination found wins, and
// the search stops early once the difference is below 0.01.
//
// PARAMETERS:
//   - prices: Candidate unit prices. Only the first MaxPrices are used.
//   - qty: Quantity to distribute, capped at MaxQty.
//   - raw: Amount to reproduce.
//   - opts: Threshold and bounds.
//
// RETURNS:
//   - The best combination. With no prices, no quantity, a non-positive raw
//     amount, or no combination under raw when NotExceedRawAmt is set, it has
//     no allocations, a DiffPct of 100 and is not acceptable.
func BestCombination(prices []PriceOption, qty int64, raw decimal.Decimal, opts SearchOptions) Combination {
	opts = opts.withDefaults()
	empty := Combination{Diff: raw.Neg(), DiffPct: 100}
	if len(prices) == 0 || qty <= 0 || !raw.IsPositive() {
		return empty
	}
	if qty > opts.MaxQty {
		qty = opts.MaxQty
	}
	if len(prices) > opts.MaxPrices {
		prices = prices[:opts.MaxPrices]
	}

	s := newSearch(prices, raw, opts.NotExceedRawAmt)
	s.dfs(0, qty, decimal.Zero)
	if !s.found {
		return empty
	}

	out := Combination{CalculatedAmt: s.bestSum, Diff: s.bestSum.Sub(raw)}
	for i, q := range s.best {
		if q == 0 {
			continue
		}
		out.Allocations = append(out.Allocations, PriceAllocation{PriceOption: prices[i], Qty: q})
		out.TotalQty += q
	}
	out.DiffPct = s.bestDiff.Div(raw).Mul(hundred).InexactFloat64()
	out.ConfidencePct = confidence(s.bestDiff, raw)
	out.IsAcceptable = Acceptable(s.bestDiff, raw, opts.ConfidenceThreshold)
	return out
}

type search struct {
	prices   []PriceOption
	raw      decimal.Decimal
	noExceed bool

	// minFrom[i] is the lowest price among prices[i:].
	minFrom []decimal.Decimal
	alloc   []int64

	found    bool
	best     []int64
	bestSum  decimal.Decimal
	bestDiff decimal.Decimal
}

func newSearch(prices []PriceOption, raw decimal.Decimal, noExceed bool) *search {
	s := &search{
		prices:   prices,
		raw:      raw,
		noExceed: noExceed,
		minFrom:  make([]decimal.Decimal, len(prices)),
		alloc:    make([]int64, len(prices)),
	}
	for i := len(prices) - 1; i >= 0; i-- {
		s.minFrom[i] = prices[i].Price
		if i+1 < len(prices) && s.minFrom[i+1].LessThan(s.minFrom[i]) {
			s.minFrom[i] = s.minFrom[i+1]
		}
	}
	return s
}

// dfs returns true once a perfect match was found.
func (s *search) dfs(idx int, remain int64, sum decimal.Decimal) bool {
	if s.noExceed && sum.GreaterThan(s.raw) {
		return false
	}
	if remain == 0 {
		s.consider(sum)
		return s.perfect()
	}

	last := len(s.prices) - 1
	if idx == last {
		total := sum.Add(s.prices[idx].Price.Mul(decimal.NewFromInt(remain)))
		if !s.noExceed || total.LessThanOrEqual(s.raw) {
			s.alloc[idx] = remain
			s.consider(total)
			s.alloc[idx] = 0
		}
		return s.perfect()
	}

	if s.noExceed && sum.Add(s.minFrom[idx].Mul(decimal.NewFromInt(remain))).GreaterThan(s.raw) {
		return false
	}
	price := s.prices[idx].Price
	for i := int64(0); i <= remain; i++ {
		s.alloc[idx] = i
		if s.dfs(idx+1, remain-i, sum.Add(price.Mul(decimal.NewFromInt(i)))) {
			s.alloc[idx] = 0
			return true
		}
	}
	s.alloc[idx] = 0
	return false
}

func (s *search) consider(total decimal.Decimal) {
	diff := total.Sub(s.raw).Abs()
	if s.found && !diff.LessThan(s.bestDiff) {
		return
	}
	s.found = true
	s.best = append(s.best[:0], s.alloc...)
	s.bestSum = total
	s.bestDiff = diff
}

func (s *search) perfect() bool {
	return s.found && s.bestDiff.LessThan(perfectMatch)
}
