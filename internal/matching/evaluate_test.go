package matching

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tributech-backend/internal/models"
)

var testNow = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

func evalOpp(t *testing.T, facts Facts, opp *models.TaxOpportunity) EvalResult {
	t.Helper()
	return Evaluate(facts, ParseRules(opp), testNow)
}

func TestEvaluateRequiredBooleanDominates(t *testing.T) {
	opp := &models.TaxOpportunity{
		Criterios: map[string]interface{}{"vende_combustiveis": true},
		CriteriosPontuacao: map[string]interface{}{
			"exporta": true, "ecommerce": true,
		},
	}

	// Flag absent → never eligible, regardless of optional criteria
	res := evalOpp(t, Facts{"exporta": true, "ecommerce": true}, opp)
	assert.False(t, res.Eligible)
	assert.Contains(t, res.Missing, "Requer: Vende combustíveis")

	// Flag explicitly false → same outcome
	res = evalOpp(t, Facts{"vende_combustiveis": false, "exporta": true}, opp)
	assert.False(t, res.Eligible)

	// Flag set → eligible
	res = evalOpp(t, Facts{"vende_combustiveis": true}, opp)
	assert.True(t, res.Eligible)
	assert.Contains(t, res.Reasons, "Vende combustíveis")
}

func TestEvaluateScoreFloor(t *testing.T) {
	// Only optional criteria, none satisfied: score 0 → ineligible even
	// though no required criterion failed.
	opp := &models.TaxOpportunity{
		CriteriosPontuacao: map[string]interface{}{
			"exporta": true, "tem_patentes": true,
		},
	}

	res := evalOpp(t, Facts{}, opp)
	assert.False(t, res.Eligible)
	assert.Zero(t, res.Score)

	// One optional criterion satisfied scores 10 — still under the floor.
	res = evalOpp(t, Facts{"exporta": true}, opp)
	assert.Equal(t, 10, res.Score)
	assert.False(t, res.Eligible, "score below 15 must not match")

	// Two optional criteria clear the floor.
	res = evalOpp(t, Facts{"exporta": true, "tem_patentes": true}, opp)
	assert.Equal(t, 20, res.Score)
	assert.True(t, res.Eligible)
}

func TestEvaluateWeights(t *testing.T) {
	opp := &models.TaxOpportunity{
		CriteriosObrigatorios: map[string]interface{}{"simples_nacional": true}, // 15
		Criterios:             map[string]interface{}{"vende_pj": true},         // 20
		CriteriosPontuacao:    map[string]interface{}{"exporta": true},          // 10
	}

	res := evalOpp(t, Facts{"simples_nacional": true, "vende_pj": true, "exporta": true}, opp)
	assert.True(t, res.Eligible)
	assert.Equal(t, 45, res.Score)
	require.Len(t, res.Reasons, 3)
	// Obrigatórios first, then criterios, then pontuação
	assert.Equal(t, "Optante do Simples Nacional", res.Reasons[0])
	assert.Equal(t, "Vende para pessoa jurídica", res.Reasons[1])
	assert.Equal(t, "Realiza exportações", res.Reasons[2])
}

func TestEvaluateScoreCap(t *testing.T) {
	criterios := map[string]interface{}{}
	facts := Facts{}
	for _, f := range []string{"vende_pf", "vende_pj", "exporta", "importa", "ecommerce", "loja_fisica"} {
		criterios[f] = true
		facts[f] = true
	}

	res := evalOpp(t, facts, &models.TaxOpportunity{Criterios: criterios})
	assert.Equal(t, 100, res.Score, "six satisfied criteria at 20 points cap at 100")
	assert.True(t, res.Eligible)
}

func TestEvaluateMinMaxCriteria(t *testing.T) {
	opp := &models.TaxOpportunity{
		Criterios: map[string]interface{}{
			"faturamento_anual_min": 1000000.0,
			"qtd_empresas_max":      3.0,
		},
	}

	res := evalOpp(t, Facts{"faturamento_anual": 2000000.0, "qtd_empresas": 2}, opp)
	assert.True(t, res.Eligible)

	res = evalOpp(t, Facts{"faturamento_anual": 500000.0, "qtd_empresas": 2}, opp)
	assert.False(t, res.Eligible)
	assert.Contains(t, res.Missing, "Requer Faturamento anual mínimo de 1000000")

	res = evalOpp(t, Facts{"faturamento_anual": 2000000.0, "qtd_empresas": 5}, opp)
	assert.False(t, res.Eligible)

	// Absent numeric field fails a required min
	res = evalOpp(t, Facts{"qtd_empresas": 1}, opp)
	assert.False(t, res.Eligible)
}

func TestEvaluateInSetCriteria(t *testing.T) {
	opp := &models.TaxOpportunity{
		Criterios: map[string]interface{}{
			"estado_in": []interface{}{"SP", "RJ", "MG"},
		},
	}

	// Scalar membership
	res := evalOpp(t, Facts{"estado": "SP"}, opp)
	assert.True(t, res.Eligible)

	// Pluralized probe: estado absent, estados list intersects
	res = evalOpp(t, Facts{"estados": []string{"PR", "RJ"}}, opp)
	assert.True(t, res.Eligible)

	res = evalOpp(t, Facts{"estado": "AM"}, opp)
	assert.False(t, res.Eligible)
}

func TestEvaluateAnyOfCriteria(t *testing.T) {
	opp := &models.TaxOpportunity{
		Criterios: map[string]interface{}{"exporta_importa_ou": true},
	}

	assert.True(t, evalOpp(t, Facts{"exporta": true}, opp).Eligible)
	assert.True(t, evalOpp(t, Facts{"importa": true}, opp).Eligible)
	assert.False(t, evalOpp(t, Facts{}, opp).Eligible)
}

func TestEvaluateSectorOrActivity(t *testing.T) {
	opp := &models.TaxOpportunity{
		Criterios: map[string]interface{}{"setor_ou_atividade": "rural"},
	}

	// Matches through the sector alias list
	facts := Facts{"setor": "agronegocio", "setores": []string{"agronegocio", "agro", "rural"}}
	assert.True(t, evalOpp(t, facts, opp).Eligible)

	// Matches through the activity list
	facts = Facts{"setor": "comercio", "setores": []string{"comercio"}, "atividades": []string{"rural"}}
	assert.True(t, evalOpp(t, facts, opp).Eligible)

	// Direct sector match
	opp2 := &models.TaxOpportunity{Criterios: map[string]interface{}{"setor_ou_atividade": "saude"}}
	assert.True(t, evalOpp(t, Facts{"setor": "saude"}, opp2).Eligible)

	assert.False(t, evalOpp(t, Facts{"setor": "comercio"}, opp2).Eligible)
}

func TestEvaluateArrayIntersection(t *testing.T) {
	opp := &models.TaxOpportunity{
		Criterios: map[string]interface{}{
			"canal": []interface{}{"ecommerce", "marketplace"},
		},
	}

	assert.True(t, evalOpp(t, Facts{"canal": "ecommerce"}, opp).Eligible)
	assert.False(t, evalOpp(t, Facts{"canal": "loja_fisica"}, opp).Eligible)
	assert.False(t, evalOpp(t, Facts{}, opp).Eligible)
}

func TestEvaluateExpiredOpportunityExcluded(t *testing.T) {
	past := testNow.AddDate(0, -1, 0)
	opp := &models.TaxOpportunity{
		Criterios:   map[string]interface{}{"exporta": true},
		VigenciaAte: &past,
	}

	res := evalOpp(t, Facts{"exporta": true}, opp)
	assert.False(t, res.Eligible, "expired opportunities never match")
	assert.NotEmpty(t, res.Missing)
}

func TestEvaluateFutureOpportunityNotedNotExcluded(t *testing.T) {
	future := testNow.AddDate(0, 2, 0)
	opp := &models.TaxOpportunity{
		Criterios:    map[string]interface{}{"exporta": true},
		VigenciaApos: &future,
	}

	res := evalOpp(t, Facts{"exporta": true}, opp)
	assert.True(t, res.Eligible, "not-yet-active opportunities may still match")
	require.Len(t, res.Missing, 1)
	assert.Contains(t, res.Missing[0], "Vigência inicia em")
}

func TestEvaluateVigenciaFromCriteriaMap(t *testing.T) {
	// Date keys inside criterios are the validity window, not field checks.
	opp := &models.TaxOpportunity{
		Criterios: map[string]interface{}{
			"exporta":      true,
			"vigencia_ate": "2026-01-01",
		},
	}

	res := evalOpp(t, Facts{"exporta": true}, opp)
	assert.False(t, res.Eligible)
	assert.Equal(t, 20, res.Score, "date keys carry no score weight")
}

func TestEvaluateFatorRScenario(t *testing.T) {
	n := NewNormalizer()
	facts := n.Normalize(&models.CompanyProfile{FolhaPercentualFaturamento: 30})

	requireTrue := &models.TaxOpportunity{
		Criterios: map[string]interface{}{"fator_r_acima_28": true},
	}
	res := evalOpp(t, facts, requireTrue)
	assert.True(t, res.Eligible)
	assert.Contains(t, res.Reasons, "Fator R acima de 28%")

	requireFalse := &models.TaxOpportunity{
		Criterios: map[string]interface{}{"fator_r_acima_28": false},
	}
	assert.False(t, evalOpp(t, facts, requireFalse).Eligible)
}

func TestLabelFallback(t *testing.T) {
	assert.Equal(t, "Fator R acima de 28%", Label("fator_r_acima_28"))
	assert.Equal(t, "campo sem rotulo", Label("campo_sem_rotulo"))
}
