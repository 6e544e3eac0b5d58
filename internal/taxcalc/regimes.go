// Package taxcalc compares the tax load of the three Brazilian corporate
// regimes (Simples Nacional, Lucro Presumido, Lucro Real) and projects the
// Split Payment cash-flow impact during the reform transition. All money
// arithmetic uses decimals; results are rounded to centavos only at the end.
package taxcalc

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	ActivityComercio  = "comercio"
	ActivityIndustria = "industria"
	ActivityServicos  = "servicos"
)

// ErrSimplesRevenueCap marks revenue above the R$ 4.8M Simples ceiling.
var ErrSimplesRevenueCap = errors.New("annual revenue exceeds the Simples Nacional ceiling")

var (
	simplesCeiling  = decimal.NewFromInt(4_800_000)
	irpjSurplusFree = decimal.NewFromInt(240_000) // annual presumed/actual profit exempt from the 10% additional
	hundred         = decimal.NewFromInt(100)
	twelve          = decimal.NewFromInt(12)

	irpjRate           = pct("15")
	irpjAdditionalRate = pct("10")
	csllRate           = pct("9")

	// Cumulative regime (Presumido) and non-cumulative regime (Real).
	pisCumulative       = pct("0.65")
	cofinsCumulative    = pct("3")
	pisNonCumulative    = pct("1.65")
	cofinsNonCumulative = pct("7.6")
)

func pct(s string) decimal.Decimal {
	return decimal.RequireFromString(s).Div(hundred)
}

// ── Simples Nacional bracket tables ──────────────────────────────

type simplesBracket struct {
	ceiling   decimal.Decimal // RBT12 upper bound
	rate      decimal.Decimal // nominal rate
	deduction decimal.Decimal // parcela a deduzir
}

func bracket(ceiling int64, rate, deduction string) simplesBracket {
	return simplesBracket{
		ceiling:   decimal.NewFromInt(ceiling),
		rate:      pct(rate),
		deduction: decimal.RequireFromString(deduction),
	}
}

var (
	anexoI = []simplesBracket{
		bracket(180_000, "4", "0"),
		bracket(360_000, "7.3", "5940"),
		bracket(720_000, "9.5", "13860"),
		bracket(1_800_000, "10.7", "22500"),
		bracket(3_600_000, "14.3", "87300"),
		bracket(4_800_000, "19", "378000"),
	}
	anexoII = []simplesBracket{
		bracket(180_000, "4.5", "0"),
		bracket(360_000, "7.8", "5940"),
		bracket(720_000, "10", "13860"),
		bracket(1_800_000, "11.2", "22500"),
		bracket(3_600_000, "14.7", "85500"),
		bracket(4_800_000, "30", "720000"),
	}
	anexoIII = []simplesBracket{
		bracket(180_000, "6", "0"),
		bracket(360_000, "11.2", "9360"),
		bracket(720_000, "13.5", "17640"),
		bracket(1_800_000, "16", "35640"),
		bracket(3_600_000, "21", "125640"),
		bracket(4_800_000, "33", "648000"),
	}
	anexoV = []simplesBracket{
		bracket(180_000, "15.5", "0"),
		bracket(360_000, "18", "4500"),
		bracket(720_000, "19.5", "9900"),
		bracket(1_800_000, "20.5", "17100"),
		bracket(3_600_000, "23", "62100"),
		bracket(4_800_000, "30.5", "540000"),
	}
)

// ── Input / output ───────────────────────────────────────────────

// RegimeInput carries the figures a regime comparison needs. Percentages
// are whole numbers (30 means 30%).
type RegimeInput struct {
	AnnualRevenue       float64 `json:"annualRevenue"`
	Activity            string  `json:"activity"`            // comercio, industria, servicos
	PayrollPercent      float64 `json:"payrollPercent"`
	ProfitMarginPercent float64 `json:"profitMarginPercent"` // Lucro Real actual margin
	CreditablePercent   float64 `json:"creditablePercent"`   // share of revenue generating PIS/COFINS credits
}

// Validate checks the comparison input.
func (in *RegimeInput) Validate() map[string]string {
	errs := map[string]string{}
	if in.AnnualRevenue <= 0 {
		errs["annualRevenue"] = "Annual revenue must be positive"
	}
	switch strings.ToLower(in.Activity) {
	case ActivityComercio, ActivityIndustria, ActivityServicos:
	default:
		errs["activity"] = "Activity must be comercio, industria or servicos"
	}
	if in.PayrollPercent < 0 || in.PayrollPercent > 100 {
		errs["payrollPercent"] = "Payroll percentage must be between 0 and 100"
	}
	if in.ProfitMarginPercent < 0 || in.ProfitMarginPercent > 100 {
		errs["profitMarginPercent"] = "Profit margin must be between 0 and 100"
	}
	if in.CreditablePercent < 0 || in.CreditablePercent > 100 {
		errs["creditablePercent"] = "Creditable percentage must be between 0 and 100"
	}
	return errs
}

// RegimeResult is one regime's annual tax load.
type RegimeResult struct {
	Regime        string                     `json:"regime"`
	Eligible      bool                       `json:"eligible"`
	AnnualTax     decimal.Decimal            `json:"annualTax"`
	MonthlyTax    decimal.Decimal            `json:"monthlyTax"`
	EffectiveRate decimal.Decimal            `json:"effectiveRate"` // percent of revenue
	Breakdown     map[string]decimal.Decimal `json:"breakdown"`
	Note          string                     `json:"note,omitempty"`
}

// Comparison holds the three regime results plus the cheapest eligible one.
type Comparison struct {
	Simples    RegimeResult    `json:"simples"`
	Presumido  RegimeResult    `json:"presumido"`
	Real       RegimeResult    `json:"real"`
	BestRegime string          `json:"bestRegime"`
	BestTax    decimal.Decimal `json:"bestTax"`
}

// ── Comparison ───────────────────────────────────────────────────

// Compare computes the annual tax load under each regime. Federal taxes
// only; ICMS and ISS vary by state and municipality and are out of scope.
func Compare(in RegimeInput) (Comparison, error) {
	if errs := in.Validate(); len(errs) > 0 {
		return Comparison{}, errors.New("invalid input")
	}

	revenue := decimal.NewFromFloat(in.AnnualRevenue)

	cmp := Comparison{
		Simples:   simplesResult(revenue, strings.ToLower(in.Activity), in.PayrollPercent),
		Presumido: presumidoResult(revenue, strings.ToLower(in.Activity)),
		Real:      realResult(revenue, in.ProfitMarginPercent, in.CreditablePercent),
	}

	best := cmp.Presumido
	if cmp.Real.AnnualTax.LessThan(best.AnnualTax) {
		best = cmp.Real
	}
	if cmp.Simples.Eligible && cmp.Simples.AnnualTax.LessThan(best.AnnualTax) {
		best = cmp.Simples
	}
	cmp.BestRegime = best.Regime
	cmp.BestTax = best.AnnualTax
	return cmp, nil
}

func simplesResult(revenue decimal.Decimal, activity string, payrollPercent float64) RegimeResult {
	res := RegimeResult{Regime: "simples_nacional", Breakdown: map[string]decimal.Decimal{}}

	if revenue.GreaterThan(simplesCeiling) {
		res.Eligible = false
		res.Note = ErrSimplesRevenueCap.Error()
		return res
	}

	var table []simplesBracket
	switch activity {
	case ActivityIndustria:
		table = anexoII
	case ActivityServicos:
		// Fator R: payroll at 28% of revenue or above moves services
		// from Anexo V to the cheaper Anexo III.
		if payrollPercent >= 28 {
			table = anexoIII
		} else {
			table = anexoV
		}
	default:
		table = anexoI
	}

	b := table[len(table)-1]
	for _, candidate := range table {
		if revenue.LessThanOrEqual(candidate.ceiling) {
			b = candidate
			break
		}
	}

	// Effective rate = (RBT12 × nominal − deduction) / RBT12.
	effective := revenue.Mul(b.rate).Sub(b.deduction).Div(revenue)
	if effective.IsNegative() {
		effective = decimal.Zero
	}
	annual := revenue.Mul(effective).Round(2)

	res.Eligible = true
	res.AnnualTax = annual
	res.MonthlyTax = annual.Div(twelve).Round(2)
	res.EffectiveRate = effective.Mul(hundred).Round(2)
	res.Breakdown["das"] = annual
	return res
}

func presumidoResult(revenue decimal.Decimal, activity string) RegimeResult {
	irpjBasePct := pct("8")
	csllBasePct := pct("12")
	if activity == ActivityServicos {
		irpjBasePct = pct("32")
		csllBasePct = pct("32")
	}

	irpjBase := revenue.Mul(irpjBasePct)
	csllBase := revenue.Mul(csllBasePct)

	irpj := irpjBase.Mul(irpjRate)
	if surplus := irpjBase.Sub(irpjSurplusFree); surplus.IsPositive() {
		irpj = irpj.Add(surplus.Mul(irpjAdditionalRate))
	}
	csll := csllBase.Mul(csllRate)
	pis := revenue.Mul(pisCumulative)
	cofins := revenue.Mul(cofinsCumulative)

	return federalResult("lucro_presumido", revenue, irpj, csll, pis, cofins)
}

func realResult(revenue decimal.Decimal, marginPercent, creditablePercent float64) RegimeResult {
	profit := revenue.Mul(decimal.NewFromFloat(marginPercent)).Div(hundred)

	irpj := decimal.Zero
	csll := decimal.Zero
	if profit.IsPositive() {
		irpj = profit.Mul(irpjRate)
		if surplus := profit.Sub(irpjSurplusFree); surplus.IsPositive() {
			irpj = irpj.Add(surplus.Mul(irpjAdditionalRate))
		}
		csll = profit.Mul(csllRate)
	}

	// Non-cumulative PIS/COFINS: credits offset the share of revenue
	// spent on creditable inputs.
	credits := revenue.Mul(decimal.NewFromFloat(creditablePercent)).Div(hundred)
	contributionBase := revenue.Sub(credits)
	if contributionBase.IsNegative() {
		contributionBase = decimal.Zero
	}
	pis := contributionBase.Mul(pisNonCumulative)
	cofins := contributionBase.Mul(cofinsNonCumulative)

	return federalResult("lucro_real", revenue, irpj, csll, pis, cofins)
}

func federalResult(regime string, revenue, irpj, csll, pis, cofins decimal.Decimal) RegimeResult {
	total := irpj.Add(csll).Add(pis).Add(cofins).Round(2)
	return RegimeResult{
		Regime:        regime,
		Eligible:      true,
		AnnualTax:     total,
		MonthlyTax:    total.Div(twelve).Round(2),
		EffectiveRate: total.Div(revenue).Mul(hundred).Round(2),
		Breakdown: map[string]decimal.Decimal{
			"irpj":   irpj.Round(2),
			"csll":   csll.Round(2),
			"pis":    pis.Round(2),
			"cofins": cofins.Round(2),
		},
	}
}
