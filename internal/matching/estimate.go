package matching

import (
	"math"
	"strings"

	"tributech-backend/internal/models"
)

// Savings is the estimated monthly/annual savings range, in whole currency
// units. Monthly values are rounded first; annual values are exactly
// monthly × 12.
type Savings struct {
	MensalMin int64 `json:"mensal_min"`
	MensalMax int64 `json:"mensal_max"`
	AnualMin  int64 `json:"anual_min"`
	AnualMax  int64 `json:"anual_max"`
}

// BaseRule selects the revenue base for one family of opportunities: the
// first rule whose substring appears in the opportunity's economia_base
// (or, when that is empty, its category) wins.
type BaseRule struct {
	Substrings []string
	Base       func(f Facts, revenue float64) float64
}

// Estimator turns an eligible opportunity into a savings range. The base
// table encodes heuristic assumptions about what fraction of revenue each
// tax category typically represents; it is an approximation shipped as
// read-only configuration, not a precise computation.
type Estimator struct {
	Bases         []BaseRule
	SectorFactors map[string]float64
}

// NewEstimator returns an Estimator with the standard base-selection table
// and sector adjustments.
func NewEstimator() *Estimator {
	return &Estimator{
		Bases: []BaseRule{
			{
				// Fuel retail: assume 70% of revenue is fuel when the
				// profile sells fuel, zero otherwise.
				Substrings: []string{"combustiveis", "combustivel"},
				Base: func(f Facts, revenue float64) float64 {
					if truthy(f["vende_combustiveis"]) {
						return revenue * 0.7
					}
					return 0
				},
			},
			{
				Substrings: []string{"servicos", "servico", "iss"},
				Base: func(f Facts, revenue float64) float64 {
					pct, _ := numValue(f["percentual_servicos"])
					return revenue * pct / 100
				},
			},
			{
				Substrings: []string{"produtos", "produto"},
				Base: func(f Facts, revenue float64) float64 {
					pct, _ := numValue(f["percentual_produtos"])
					return revenue * pct / 100
				},
			},
			{
				// DAS roughly 10% of revenue for Simples companies.
				Substrings: []string{"das", "simples"},
				Base: func(f Facts, revenue float64) float64 {
					return revenue * 0.10
				},
			},
			{
				// ICMS typically around 15% of revenue.
				Substrings: []string{"icms"},
				Base: func(f Facts, revenue float64) float64 {
					return revenue * 0.15
				},
			},
			{
				// PIS/COFINS combined around 6%.
				Substrings: []string{"pis", "cofins"},
				Base: func(f Facts, revenue float64) float64 {
					return revenue * 0.06
				},
			},
			{
				// Payroll: recorded ratio, 20% fallback when unanswered.
				Substrings: []string{"folha", "inss"},
				Base: func(f Facts, revenue float64) float64 {
					pct, ok := numValue(f["folha_percentual_faturamento"])
					if !ok || pct == 0 {
						pct = 20
					}
					return revenue * pct / 100
				},
			},
		},
		SectorFactors: map[string]float64{
			"agronegocio": 0.8, // thinner margins
			"saude":       1.1,
		},
	}
}

// Estimate computes the savings range for an opportunity.
// Returns all zeros when the opportunity carries no minimum percentage.
func (e *Estimator) Estimate(facts Facts, opp *models.TaxOpportunity) Savings {
	if opp.EconomiaPercentualMin == nil {
		return Savings{}
	}

	minPct := *opp.EconomiaPercentualMin
	maxPct := minPct
	if opp.EconomiaPercentualMax != nil {
		maxPct = *opp.EconomiaPercentualMax
	}

	base := e.selectBase(facts, opp)

	if setor, ok := facts["setor"].(string); ok {
		if factor, ok := e.SectorFactors[setor]; ok {
			base *= factor
		}
	}

	mensalMin := int64(math.Round(base * minPct / 100))
	mensalMax := int64(math.Round(base * maxPct / 100))

	return Savings{
		MensalMin: mensalMin,
		MensalMax: mensalMax,
		AnualMin:  mensalMin * 12,
		AnualMax:  mensalMax * 12,
	}
}

// selectBase picks the revenue base via the substring table, falling back
// to total monthly revenue.
func (e *Estimator) selectBase(facts Facts, opp *models.TaxOpportunity) float64 {
	revenue, _ := numValue(facts["faturamento_mensal_medio"])
	if revenue == 0 {
		if anual, ok := numValue(facts["faturamento_anual"]); ok {
			revenue = anual / 12
		}
	}

	selector := strings.ToLower(opp.EconomiaBase)
	if selector == "" {
		selector = strings.ToLower(opp.Categoria)
	}

	for _, rule := range e.Bases {
		for _, sub := range rule.Substrings {
			if strings.Contains(selector, sub) {
				return rule.Base(facts, revenue)
			}
		}
	}
	return revenue
}
