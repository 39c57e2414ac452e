package allocation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func prices(vals ...string) []PriceOption {
	out := make([]PriceOption, len(vals))
	for i, v := range vals {
		out[i] = PriceOption{Price: d(v)}
	}
	return out
}

func qtys(c Combination) map[string]int64 {
	out := make(map[string]int64, len(c.Allocations))
	for _, a := range c.Allocations {
		out[a.Price.String()] = a.Qty
	}
	return out
}

func TestBestCombinationExactTwoPrices(t *testing.T) {
	c := BestCombination(prices("100", "80"), 10, d("920"), SearchOptions{})

	assert.Equal(t, map[string]int64{"100": 6, "80": 4}, qtys(c))
	assertDecimal(t, "920", c.CalculatedAmt)
	assertDecimal(t, "0", c.Diff)
	assert.Equal(t, 100.0, c.ConfidencePct)
	assert.True(t, c.IsAcceptable)
	assert.Equal(t, int64(10), c.TotalQty)
}

func TestBestCombinationThreePrices(t *testing.T) {
	c := BestCombination(prices("50", "30", "20"), 5, d("170"), SearchOptions{})

	// first exact match in search order
	assert.Equal(t, map[string]int64{"50": 1, "30": 4}, qtys(c))
	assertDecimal(t, "170", c.CalculatedAmt)
	assert.Equal(t, int64(5), c.TotalQty)
}

func TestBestCombinationNotExceedRawAmt(t *testing.T) {
	free := BestCombination(prices("100", "80"), 3, d("255"), SearchOptions{})
	assert.Equal(t, map[string]int64{"100": 1, "80": 2}, qtys(free))
	assertDecimal(t, "5", free.Diff)

	capped := BestCombination(prices("100", "80"), 3, d("255"), SearchOptions{NotExceedRawAmt: true})
	assert.Equal(t, map[string]int64{"80": 3}, qtys(capped))
	assertDecimal(t, "240", capped.CalculatedAmt)
	assertDecimal(t, "-15", capped.Diff)
	assert.InDelta(t, 5.88, capped.DiffPct, 0.01)
	assert.True(t, capped.IsAcceptable)
}

func TestBestCombinationNothingUnderRawAmt(t *testing.T) {
	c := BestCombination(prices("100"), 2, d("150"), SearchOptions{NotExceedRawAmt: true})
	assert.Empty(t, c.Allocations)
	assert.False(t, c.IsAcceptable)
	assert.Equal(t, 100.0, c.DiffPct)
	assert.Equal(t, 0.0, c.ConfidencePct)
}

func TestBestCombinationEdgeCases(t *testing.T) {
	tests := []struct {
		name   string
		prices []PriceOption
		qty    int64
		raw    string
	}{
		{"no prices", nil, 3, "100"},
		{"no quantity", prices("10"), 0, "100"},
		{"zero raw amount", prices("10"), 3, "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := BestCombination(tt.prices, tt.qty, d(tt.raw), SearchOptions{})
			assert.Empty(t, c.Allocations)
			assert.False(t, c.IsAcceptable)
			assert.Equal(t, int64(0), c.TotalQty)
			assert.Equal(t, 100.0, c.DiffPct)
		})
	}
}

func TestBestCombinationThreshold(t *testing.T) {
	loose := BestCombination(prices("100"), 1, d("105"), SearchOptions{})
	assert.True(t, loose.IsAcceptable)

	strict := BestCombination(prices("100"), 1, d("105"), SearchOptions{ConfidenceThreshold: 0.99})
	assert.False(t, strict.IsAcceptable)
	assertDecimal(t, "-5", strict.Diff)
}

func TestBestCombinationBounds(t *testing.T) {
	c := BestCombination(prices("10", "20", "30"), 2, d("60"), SearchOptions{MaxPrices: 1})
	assert.Equal(t, map[string]int64{"10": 2}, qtys(c))

	c = BestCombination(prices("1"), 2000, d("5000"), SearchOptions{})
	assert.Equal(t, int64(MaxOptimizeQty), c.TotalQty)

	c = BestCombination(prices("1"), 2000, d("5000"), SearchOptions{MaxQty: 20})
	assert.Equal(t, int64(20), c.TotalQty)
}

func TestAcceptable(t *testing.T) {
	assert.True(t, Acceptable(d("10"), d("100"), 0.9))
	assert.True(t, Acceptable(d("-10"), d("100"), 0.9))
	assert.False(t, Acceptable(d("10.01"), d("100"), 0.9))
	assert.False(t, Acceptable(d("2"), d("100"), 0.99))
	// out of range takes the default
	assert.True(t, Acceptable(d("10"), d("100"), 0))
	assert.False(t, Acceptable(d("11"), d("100"), 1.5))
}

func TestOptimizeWithNotExceedRawAmt(t *testing.T) {
	in := Inputs{MaxQty: 3, StdPriceExtVat: d("100"), ProPriceExtVat: d("80"), ReportedRawAmount: d("255")}

	free := OptimizeWith(in, SearchOptions{})
	assert.Equal(t, int64(1), free.QtyBuy1)
	assert.Equal(t, int64(2), free.QtyPro)

	capped := OptimizeWith(in, SearchOptions{NotExceedRawAmt: true})
	assert.Equal(t, int64(0), capped.QtyBuy1)
	assert.Equal(t, int64(3), capped.QtyPro)
	assertDecimal(t, "-15", capped.Diff)
}

func TestOptimizeWithNoSplitUnderRawAmt(t *testing.T) {
	r := OptimizeWith(Inputs{MaxQty: 2, StdPriceExtVat: d("100"), ReportedRawAmount: d("50")},
		SearchOptions{NotExceedRawAmt: true})
	assert.Equal(t, int64(0), r.QtyBuy1+r.QtyPro)
	assert.False(t, r.IsValid)
}

func TestCalculateBatchAndSummary(t *testing.T) {
	items := []BatchItem{
		{ID: "1", ItemCode: "00017", Qty: 10, RawAmt: d("920"), Prices: prices("100", "80")},
		{ID: "2", ItemCode: "00018", Qty: 1, RawAmt: d("200"), Prices: prices("100")},
	}
	results := CalculateBatch(items, SearchOptions{})
	require.Len(t, results, 2)
	assert.Equal(t, "00017", results[0].ItemCode)
	assert.True(t, results[0].IsAcceptable)
	assert.False(t, results[1].IsAcceptable)
	assertDecimal(t, "-100", results[1].Diff)

	sum := SummarizeBatch(results)
	assert.Equal(t, 2, sum.TotalItems)
	assert.Equal(t, 1, sum.AcceptableCount)
	assert.Equal(t, 1, sum.UnacceptableCount)
	assert.Equal(t, 75.0, sum.AverageConfidence)
	assertDecimal(t, "100", sum.TotalDiff)
}

func TestSummarizeEmptyBatch(t *testing.T) {
	sum := SummarizeBatch(nil)
	assert.Equal(t, 0, sum.TotalItems)
	assert.True(t, sum.TotalDiff.Equal(decimal.Zero))
}
