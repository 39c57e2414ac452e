// =============================================================================
// Watson Report Validator - Allocation Calculator
// =============================================================================
//
// Splits one counted quantity across a standard and a promotional price tier
// and scores how well the resulting amount agrees with the amount the vendor
// report states.
//
// PRICING CONVENTIONS (per tier):
//   - invoice:     qty * ex-VAT price
//   - invoice 62:  qty * invoice-62%-inc-VAT rate, or the ex-VAT price if unset
//   - commission:  qty * inc-VAT price
//
// The calculator never clamps: a split that exceeds the counted quantity is
// reported through IsOverLimit and IsValid, and the caller decides whether
// to block saving.
//
// =============================================================================

package allocation

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Inputs is one allocation question.
type Inputs struct {
	// MaxQty is the counted quantity (source truth).
	MaxQty  int64 `json:"maxQty"`
	QtyBuy1 int64 `json:"qtyBuy1"`
	QtyPro  int64 `json:"qtyPro"`

	StdPriceExtVat   decimal.Decimal `json:"stdPriceExtVat"`
	StdPriceIncVat   decimal.Decimal `json:"stdPriceIncVat"`
	StdInvoice62IncV decimal.Decimal `json:"stdInvoice62IncV"`

	ProPriceExtVat   decimal.Decimal `json:"proPriceExtVat"`
	ProPriceIncVat   decimal.Decimal `json:"proPriceIncVat"`
	ProInvoice62IncV decimal.Decimal `json:"proInvoice62IncV"`

	// ReportedRawAmount is the report's total cost; its sign is ignored.
	ReportedRawAmount decimal.Decimal `json:"reportedRawAmount"`
}

// Result is the outcome of a calculation.
type Result struct {
	QtyBuy1 int64 `json:"qtyBuy1"`
	QtyPro  int64 `json:"qtyPro"`

	Buy1Invoice   decimal.Decimal `json:"buy1Invoice"`
	Buy1Invoice62 decimal.Decimal `json:"buy1Invoice62"`
	Buy1Com       decimal.Decimal `json:"buy1Com"`
	ProInvoice    decimal.Decimal `json:"proInvoice"`
	ProInvoice62  decimal.Decimal `json:"proInvoice62"`
	ProCom        decimal.Decimal `json:"proCom"`

	CalcAmt  decimal.Decimal `json:"calcAmt"`
	RawAmt   decimal.Decimal `json:"rawAmt"`
	Diff     decimal.Decimal `json:"diff"`
	TotalCom decimal.Decimal `json:"totalCom"`

	ConfidencePct float64 `json:"confidencePct"`
	IsValid       bool    `json:"isValid"`
	IsOverLimit   bool    `json:"isOverLimit"`
}

// Calculate evaluates the split given in the inputs.
func Calculate(in Inputs) Result {
	proExt, proInc := in.ProPriceExtVat, in.ProPriceIncVat
	if proExt.IsZero() && in.StdPriceExtVat.IsPositive() {
		proExt, proInc = in.StdPriceExtVat, in.StdPriceIncVat
	}

	buy1 := decimal.NewFromInt(in.QtyBuy1)
	pro := decimal.NewFromInt(in.QtyPro)

	r := Result{
		QtyBuy1:       in.QtyBuy1,
		QtyPro:        in.QtyPro,
		Buy1Invoice:   buy1.Mul(in.StdPriceExtVat),
		Buy1Invoice62: buy1.Mul(rate62(in.StdInvoice62IncV, in.StdPriceExtVat)),
		Buy1Com:       buy1.Mul(in.StdPriceIncVat),
		ProInvoice:    pro.Mul(proExt),
		ProInvoice62:  pro.Mul(rate62(in.ProInvoice62IncV, proExt)),
		ProCom:        pro.Mul(proInc),
		RawAmt:        in.ReportedRawAmount.Abs(),
	}
	r.CalcAmt = r.Buy1Invoice.Add(r.ProInvoice)
	r.TotalCom = r.Buy1Com.Add(r.ProCom)
	r.Diff = r.CalcAmt.Sub(r.RawAmt)
	r.ConfidencePct = confidence(r.Diff, r.RawAmt)

	total := in.QtyBuy1 + in.QtyPro
	r.IsOverLimit = total > in.MaxQty
	r.IsValid = total <= in.MaxQty && total > 0
	return r
}

func rate62(rate, fallback decimal.Decimal) decimal.Decimal {
	if rate.IsZero() {
		return fallback
	}
	return rate
}

// confidence is 100 when diff is zero and falls linearly to 0 as |diff|
// reaches raw. It is 0 when raw is 0.
func confidence(diff, raw decimal.Decimal) float64 {
	if !raw.IsPositive() {
		return 0
	}
	pct := decimal.NewFromInt(1).Sub(diff.Abs().Div(raw)).Mul(hundred)
	if pct.IsNegative() {
		return 0
	}
	return pct.InexactFloat64()
}

// Level buckets a confidence percentage.
type Level string

const (
	LevelHigh   Level = "high"
	LevelMedium Level = "medium"
	LevelLow    Level = "low"
)

// ConfidenceLevel returns high from 90 %, medium from 70 %, low below.
func ConfidenceLevel(pct float64) Level {
	switch {
	case pct >= 90:
		return LevelHigh
	case pct >= 70:
		return LevelMedium
	}
	return LevelLow
}
