package taxcalc

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestSimplesAnexoIFirstBracket(t *testing.T) {
	// RBT12 120,000 stays in the 4% bracket with no deduction.
	res := simplesResult(dec("120000"), ActivityComercio, 0)

	require.True(t, res.Eligible)
	assert.True(t, res.AnnualTax.Equal(dec("4800")), "got %s", res.AnnualTax)
	assert.True(t, res.MonthlyTax.Equal(dec("400")), "got %s", res.MonthlyTax)
	assert.True(t, res.EffectiveRate.Equal(dec("4")), "got %s", res.EffectiveRate)
}

func TestSimplesAnexoIWithDeduction(t *testing.T) {
	// RBT12 600,000 → 9.5% bracket, deduction 13,860.
	// Effective = (600000*0.095 - 13860)/600000 = 0.0719 → annual 43,140.
	res := simplesResult(dec("600000"), ActivityComercio, 0)

	require.True(t, res.Eligible)
	assert.True(t, res.AnnualTax.Equal(dec("43140")), "got %s", res.AnnualTax)
	assert.True(t, res.EffectiveRate.Equal(dec("7.19")), "got %s", res.EffectiveRate)
}

func TestSimplesFatorRSelectsAnexo(t *testing.T) {
	revenue := dec("600000")

	// Payroll below 28% → Anexo V: (600000*0.195 - 9900)/600000 = 17.85%.
	low := simplesResult(revenue, ActivityServicos, 20)
	require.True(t, low.Eligible)
	assert.True(t, low.AnnualTax.Equal(dec("107100")), "got %s", low.AnnualTax)

	// Payroll at 28% → Anexo III: (600000*0.135 - 17640)/600000 = 10.56%.
	high := simplesResult(revenue, ActivityServicos, 28)
	require.True(t, high.Eligible)
	assert.True(t, high.AnnualTax.Equal(dec("63360")), "got %s", high.AnnualTax)

	assert.True(t, high.AnnualTax.LessThan(low.AnnualTax))
}

func TestSimplesRevenueCeiling(t *testing.T) {
	res := simplesResult(dec("5000000"), ActivityComercio, 0)

	assert.False(t, res.Eligible)
	assert.Equal(t, ErrSimplesRevenueCap.Error(), res.Note)
}

func TestPresumidoComercio(t *testing.T) {
	// Revenue 1,200,000: IRPJ base 96,000 → 14,400 (no additional, base
	// under 240,000). CSLL base 144,000 → 12,960. PIS 7,800, COFINS 36,000.
	res := presumidoResult(dec("1200000"), ActivityComercio)

	require.True(t, res.Eligible)
	assert.True(t, res.Breakdown["irpj"].Equal(dec("14400")), "got %s", res.Breakdown["irpj"])
	assert.True(t, res.Breakdown["csll"].Equal(dec("12960")), "got %s", res.Breakdown["csll"])
	assert.True(t, res.Breakdown["pis"].Equal(dec("7800")), "got %s", res.Breakdown["pis"])
	assert.True(t, res.Breakdown["cofins"].Equal(dec("36000")), "got %s", res.Breakdown["cofins"])
	assert.True(t, res.AnnualTax.Equal(dec("71160")), "got %s", res.AnnualTax)
}

func TestPresumidoServicosWithIRPJAdditional(t *testing.T) {
	// Revenue 1,200,000 services: IRPJ base 384,000 → 15% = 57,600 plus
	// 10% on 144,000 above the 240,000 threshold = 14,400 → 72,000.
	res := presumidoResult(dec("1200000"), ActivityServicos)

	assert.True(t, res.Breakdown["irpj"].Equal(dec("72000")), "got %s", res.Breakdown["irpj"])
	assert.True(t, res.Breakdown["csll"].Equal(dec("34560")), "got %s", res.Breakdown["csll"])
}

func TestRealNonCumulativeCredits(t *testing.T) {
	// Revenue 1,000,000, margin 10%, creditable 60%: contribution base
	// 400,000 → PIS 6,600, COFINS 30,400. Profit 100,000 → IRPJ 15,000,
	// CSLL 9,000.
	res := realResult(dec("1000000"), 10, 60)

	assert.True(t, res.Breakdown["pis"].Equal(dec("6600")), "got %s", res.Breakdown["pis"])
	assert.True(t, res.Breakdown["cofins"].Equal(dec("30400")), "got %s", res.Breakdown["cofins"])
	assert.True(t, res.Breakdown["irpj"].Equal(dec("15000")), "got %s", res.Breakdown["irpj"])
	assert.True(t, res.Breakdown["csll"].Equal(dec("9000")), "got %s", res.Breakdown["csll"])
	assert.True(t, res.AnnualTax.Equal(dec("61000")), "got %s", res.AnnualTax)
}

func TestRealZeroMarginSkipsIncomeTaxes(t *testing.T) {
	res := realResult(dec("1000000"), 0, 0)

	assert.True(t, res.Breakdown["irpj"].IsZero())
	assert.True(t, res.Breakdown["csll"].IsZero())
	assert.True(t, res.Breakdown["pis"].Equal(dec("16500")))
	assert.True(t, res.Breakdown["cofins"].Equal(dec("76000")))
}

func TestCompareSelectsCheapestEligible(t *testing.T) {
	cmp, err := Compare(RegimeInput{
		AnnualRevenue:       600000,
		Activity:            ActivityServicos,
		PayrollPercent:      30,
		ProfitMarginPercent: 40,
		CreditablePercent:   20,
	})
	require.NoError(t, err)

	// Simples via Anexo III (63,360) beats Presumido (services bases are
	// heavy) and Real at a 40% margin.
	assert.Equal(t, "simples_nacional", cmp.BestRegime)
	assert.True(t, cmp.BestTax.Equal(cmp.Simples.AnnualTax))
	assert.True(t, cmp.Simples.AnnualTax.LessThan(cmp.Presumido.AnnualTax))
}

func TestCompareSkipsIneligibleSimples(t *testing.T) {
	cmp, err := Compare(RegimeInput{
		AnnualRevenue:       6000000,
		Activity:            ActivityComercio,
		ProfitMarginPercent: 5,
		CreditablePercent:   70,
	})
	require.NoError(t, err)

	assert.False(t, cmp.Simples.Eligible)
	assert.NotEqual(t, "simples_nacional", cmp.BestRegime)
}

func TestCompareRejectsInvalidInput(t *testing.T) {
	_, err := Compare(RegimeInput{AnnualRevenue: -1, Activity: "comercio"})
	assert.Error(t, err)

	_, err = Compare(RegimeInput{AnnualRevenue: 100, Activity: "banco"})
	assert.Error(t, err)
}

func TestRegimeInputValidate(t *testing.T) {
	in := RegimeInput{AnnualRevenue: 0, Activity: "x", PayrollPercent: 150}
	errs := in.Validate()

	assert.Contains(t, errs, "annualRevenue")
	assert.Contains(t, errs, "activity")
	assert.Contains(t, errs, "payrollPercent")
}
