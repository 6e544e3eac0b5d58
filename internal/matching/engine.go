package matching

import (
	"sort"
	"time"

	"tributech-backend/internal/models"
)

// Match is one eligible opportunity with its computed score, explanations,
// savings range and priority.
type Match struct {
	Opportunity *models.TaxOpportunity
	Score       int
	Reasons     []string
	Missing     []string
	Savings     Savings
	QuickWin    bool
	AltoImpacto bool
	Prioridade  int
}

// Engine runs the full pipeline: normalize → evaluate → estimate →
// prioritize → rank. It holds only read-only configuration and is safe for
// concurrent use across requests.
type Engine struct {
	normalizer *Normalizer
	estimator  *Estimator
}

// NewEngine returns an Engine with the standard tables.
func NewEngine() *Engine {
	return &Engine{
		normalizer: NewNormalizer(),
		estimator:  NewEstimator(),
	}
}

// Normalize exposes the profile normalizer (used by tests and diagnostics).
func (e *Engine) Normalize(p *models.CompanyProfile) Facts {
	return e.normalizer.Normalize(p)
}

// Estimate exposes the savings estimator for a single opportunity.
func (e *Engine) Estimate(facts Facts, opp *models.TaxOpportunity) Savings {
	return e.estimator.Estimate(facts, opp)
}

// Run evaluates the whole catalog against one profile and returns the
// ranked eligible matches: quick wins first, then by descending maximum
// annual savings. Catalog order is the stable tiebreaker. Each catalog
// evaluation is independent of the others; only the caller's final
// persistence step is a shared-mutation point.
func (e *Engine) Run(profile *models.CompanyProfile, catalog []*models.TaxOpportunity, now time.Time) []Match {
	facts := e.normalizer.Normalize(profile)

	matches := []Match{}
	for _, opp := range catalog {
		rules := ParseRules(opp)
		res := Evaluate(facts, rules, now)
		if !res.Eligible {
			continue
		}

		savings := e.estimator.Estimate(facts, opp)
		matches = append(matches, Match{
			Opportunity: opp,
			Score:       res.Score,
			Reasons:     res.Reasons,
			Missing:     res.Missing,
			Savings:     savings,
			QuickWin:    QuickWin(opp),
			AltoImpacto: AltoImpacto(savings.AnualMax),
			Prioridade:  Priority(opp, savings.AnualMax),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].QuickWin != matches[j].QuickWin {
			return matches[i].QuickWin
		}
		return matches[i].Savings.AnualMax > matches[j].Savings.AnualMax
	})

	return matches
}
