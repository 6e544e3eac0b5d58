package taxcalc

import "github.com/shopspring/decimal"

// Split Payment withholds CBS/IBS at settlement time instead of the
// following month's declaration, so the transition removes the float a
// business enjoys today between receiving a payment and remitting the tax.

var daysPerMonth = decimal.NewFromInt(30)

// phaseStep is one year of the 2026-2033 transition calendar. Full rates:
// CBS 8.8%, IBS 15% (state 9.65 + municipal 5.35). IBS ramps 10% per year
// from 2029 and completes in 2033.
type phaseStep struct {
	year    int
	cbsRate decimal.Decimal
	ibsRate decimal.Decimal
}

var transitionCalendar = []phaseStep{
	{2026, pct("0.9"), pct("0.1")}, // test rates
	{2027, pct("8.8"), pct("0.1")}, // CBS fully in force
	{2028, pct("8.8"), pct("0.1")},
	{2029, pct("8.8"), pct("1.5")},
	{2030, pct("8.8"), pct("3")},
	{2031, pct("8.8"), pct("4.5")},
	{2032, pct("8.8"), pct("6")},
	{2033, pct("8.8"), pct("15")},
}

// SplitPaymentInput drives the cash-flow projection. FloatDays is the
// average gap today between receiving a sale and remitting its taxes.
type SplitPaymentInput struct {
	MonthlyRevenue float64 `json:"monthlyRevenue"`
	FloatDays      int     `json:"floatDays"`
}

// Validate checks the projection input.
func (in *SplitPaymentInput) Validate() map[string]string {
	errs := map[string]string{}
	if in.MonthlyRevenue <= 0 {
		errs["monthlyRevenue"] = "Monthly revenue must be positive"
	}
	if in.FloatDays < 0 || in.FloatDays > 120 {
		errs["floatDays"] = "Float days must be between 0 and 120"
	}
	return errs
}

// YearProjection is one transition year's working-capital picture.
type YearProjection struct {
	Year            int             `json:"year"`
	CBSRate         decimal.Decimal `json:"cbsRate"`         // percent
	IBSRate         decimal.Decimal `json:"ibsRate"`         // percent
	WithheldMonthly decimal.Decimal `json:"withheldMonthly"` // tax retained at payment each month
	FloatLost       decimal.Decimal `json:"floatLost"`       // working capital no longer available
}

// ProjectSplitPayment returns the 2026-2033 projection. FloatDays of 0
// yields zero float loss while still reporting the withheld amounts.
func ProjectSplitPayment(in SplitPaymentInput) []YearProjection {
	revenue := decimal.NewFromFloat(in.MonthlyRevenue)
	floatFraction := decimal.NewFromInt(int64(in.FloatDays)).Div(daysPerMonth)

	out := make([]YearProjection, 0, len(transitionCalendar))
	for _, step := range transitionCalendar {
		withheld := revenue.Mul(step.cbsRate.Add(step.ibsRate)).Round(2)
		out = append(out, YearProjection{
			Year:            step.year,
			CBSRate:         step.cbsRate.Mul(hundred).Round(2),
			IBSRate:         step.ibsRate.Mul(hundred).Round(2),
			WithheldMonthly: withheld,
			FloatLost:       withheld.Mul(floatFraction).Round(2),
		})
	}
	return out
}
