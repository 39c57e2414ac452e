package allocation

import (
	"github.com/shopspring/decimal"
)

// BatchItem is one line of a batch allocation.
type BatchItem struct {
	ID       string          `json:"id"`
	ItemCode string          `json:"itemCode"`
	Qty      int64           `json:"qty"`
	RawAmt   decimal.Decimal `json:"rawAmt"`
	Prices   []PriceOption   `json:"prices"`
}

// BatchResult is the combination found for one BatchItem.
type BatchResult struct {
	ID       string `json:"id"`
	ItemCode string `json:"itemCode"`
	Combination
}

// BatchSummary totals a batch.
type BatchSummary struct {
	TotalItems        int     `json:"totalItems"`
	AcceptableCount   int     `json:"acceptableCount"`
	UnacceptableCount int     `json:"unacceptableCount"`
	AverageConfidence float64 `json:"averageConfidence"`

	// TotalDiff sums the absolute differences.
	TotalDiff decimal.Decimal `json:"totalDiff"`
}

// CalculateBatch runs BestCombination for every item, in order.
func CalculateBatch(items []BatchItem, opts SearchOptions) []BatchResult {
	out := make([]BatchResult, 0, len(items))
	for _, item := range items {
		out = append(out, BatchResult{
			ID:          item.ID,
			ItemCode:    item.ItemCode,
			Combination: BestCombination(item.Prices, item.Qty, item.RawAmt, opts),
		})
	}
	return out
}

// SummarizeBatch counts acceptable results and averages their confidence.
func SummarizeBatch(results []BatchResult) BatchSummary {
	sum := BatchSummary{TotalItems: len(results), TotalDiff: decimal.Zero}
	if len(results) == 0 {
		return sum
	}
	var conf float64
	for _, r := range results {
		if r.IsAcceptable {
			sum.AcceptableCount++
		}
		conf += r.ConfidencePct
		sum.TotalDiff = sum.TotalDiff.Add(r.Diff.Abs())
	}
	sum.UnacceptableCount = sum.TotalItems - sum.AcceptableCount
	sum.AverageConfidence = conf / float64(len(results))
	return sum
}
