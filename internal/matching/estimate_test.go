package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"tributech-backend/internal/models"
)

func floatPtr(v float64) *float64 { return &v }

func TestEstimateFuelRetailScenario(t *testing.T) {
	// Fuel retailer, Simples, 100k monthly revenue: base = 100000 × 0.7,
	// 5–10% saving → 3500/7000 monthly, 42000/84000 annual.
	n := NewNormalizer()
	facts := n.Normalize(&models.CompanyProfile{
		Setor:                  "comercio",
		RegimeTributario:       strPtr("simples"),
		FaturamentoMensalMedio: 100000,
		VendeCombustiveis:      true,
	})

	opp := &models.TaxOpportunity{
		EconomiaBase:          "monofasia_combustiveis",
		EconomiaPercentualMin: floatPtr(5),
		EconomiaPercentualMax: floatPtr(10),
	}

	s := NewEstimator().Estimate(facts, opp)
	assert.Equal(t, int64(3500), s.MensalMin)
	assert.Equal(t, int64(7000), s.MensalMax)
	assert.Equal(t, int64(42000), s.AnualMin)
	assert.Equal(t, int64(84000), s.AnualMax)
}

func TestEstimateFuelBaseZeroWithoutFlag(t *testing.T) {
	facts := Facts{"faturamento_mensal_medio": 100000.0}
	opp := &models.TaxOpportunity{
		EconomiaBase:          "combustiveis",
		EconomiaPercentualMin: floatPtr(5),
	}

	s := NewEstimator().Estimate(facts, opp)
	assert.Equal(t, Savings{}, s)
}

func TestEstimateNoPercentageReturnsZeros(t *testing.T) {
	facts := Facts{"faturamento_mensal_medio": 100000.0}
	s := NewEstimator().Estimate(facts, &models.TaxOpportunity{EconomiaBase: "icms"})
	assert.Equal(t, Savings{}, s)
}

func TestEstimateBaseSelection(t *testing.T) {
	facts := Facts{
		"faturamento_mensal_medio":     100000.0,
		"percentual_servicos":          40.0,
		"percentual_produtos":          60.0,
		"folha_percentual_faturamento": 0.0,
	}

	tests := []struct {
		base     string
		expected int64 // mensal at 10%
	}{
		{"reducao_iss_servicos", 4000}, // 100000×0.40×10%
		{"creditos_produtos", 6000},    // 100000×0.60×10%
		{"das_simples", 1000},          // 100000×0.10×10%
		{"credito_icms", 1500},         // 100000×0.15×10%
		{"pis_cofins_monofasia", 600},  // 100000×0.06×10%
		{"desoneracao_folha", 2000},    // 20% payroll fallback
		{"outros", 10000},              // default: total revenue
	}

	e := NewEstimator()
	for _, tt := range tests {
		t.Run(tt.base, func(t *testing.T) {
			opp := &models.TaxOpportunity{
				EconomiaBase:          tt.base,
				EconomiaPercentualMin: floatPtr(10),
			}
			assert.Equal(t, tt.expected, e.Estimate(facts, opp).MensalMin)
		})
	}
}

func TestEstimatePayrollUsesRecordedRatio(t *testing.T) {
	facts := Facts{
		"faturamento_mensal_medio":     100000.0,
		"folha_percentual_faturamento": 35.0,
	}
	opp := &models.TaxOpportunity{
		EconomiaBase:          "folha",
		EconomiaPercentualMin: floatPtr(10),
	}

	s := NewEstimator().Estimate(facts, opp)
	assert.Equal(t, int64(3500), s.MensalMin)
}

func TestEstimateCategoryFallbackSelector(t *testing.T) {
	// Empty economia_base falls back to matching the category.
	facts := Facts{"faturamento_mensal_medio": 100000.0}
	opp := &models.TaxOpportunity{
		Categoria:             "ICMS",
		EconomiaPercentualMin: floatPtr(10),
	}

	s := NewEstimator().Estimate(facts, opp)
	assert.Equal(t, int64(1500), s.MensalMin)
}

func TestEstimateSectorAdjustment(t *testing.T) {
	opp := &models.TaxOpportunity{
		EconomiaBase:          "icms",
		EconomiaPercentualMin: floatPtr(10),
	}
	e := NewEstimator()

	agro := Facts{"setor": "agronegocio", "faturamento_mensal_medio": 100000.0}
	assert.Equal(t, int64(1200), e.Estimate(agro, opp).MensalMin, "agro bases ×0.8")

	saude := Facts{"setor": "saude", "faturamento_mensal_medio": 100000.0}
	assert.Equal(t, int64(1650), e.Estimate(saude, opp).MensalMin, "saude bases ×1.1")
}

func TestEstimateRoundingOrder(t *testing.T) {
	// Monthly value is rounded once, then multiplied by 12 — never the
	// other way around.
	facts := Facts{"faturamento_mensal_medio": 1234.0}
	opp := &models.TaxOpportunity{
		EconomiaBase:          "icms", // base 185.1
		EconomiaPercentualMin: floatPtr(3),
		EconomiaPercentualMax: floatPtr(7),
	}

	s := NewEstimator().Estimate(facts, opp)
	assert.Equal(t, s.MensalMin*12, s.AnualMin)
	assert.Equal(t, s.MensalMax*12, s.AnualMax)
	assert.Equal(t, int64(6), s.MensalMin)  // round(185.1×0.03) = round(5.553)
	assert.Equal(t, int64(13), s.MensalMax) // round(185.1×0.07) = round(12.957)
}

func TestEstimateMaxDefaultsToMin(t *testing.T) {
	facts := Facts{"faturamento_mensal_medio": 100000.0}
	opp := &models.TaxOpportunity{
		EconomiaBase:          "das",
		EconomiaPercentualMin: floatPtr(5),
	}

	s := NewEstimator().Estimate(facts, opp)
	assert.Equal(t, s.MensalMin, s.MensalMax)
}

func TestEstimateAnnualRevenueFallback(t *testing.T) {
	// No monthly average recorded: derive it from annual revenue.
	facts := Facts{"faturamento_anual": 1200000.0}
	opp := &models.TaxOpportunity{
		EconomiaBase:          "das",
		EconomiaPercentualMin: floatPtr(10),
	}

	s := NewEstimator().Estimate(facts, opp)
	assert.Equal(t, int64(1000), s.MensalMin) // (1200000/12)×0.10×10%
}
