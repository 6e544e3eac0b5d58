package matching

import "tributech-backend/internal/models"

// ── Priority Tiers ───────────────────────────────────────────────
// 1 = highest. The tier starts at 3 and is decremented once for each of:
// low implementation complexity, annual savings above the high-impact
// threshold, negligible fiscal risk. Floored at 1.

// HighImpactThreshold is the annual-savings cutoff (currency units) above
// which an opportunity counts as alto impacto.
const HighImpactThreshold = 50000

var lowComplexity = map[string]bool{
	"muito_baixa": true,
	"baixa":       true,
}

var negligibleRisk = map[string]bool{
	"nenhum":      true,
	"muito_baixo": true,
}

// Priority computes the 1–3 priority tier for a matched opportunity.
func Priority(opp *models.TaxOpportunity, anualMax int64) int {
	p := 3
	if lowComplexity[opp.Complexidade] {
		p--
	}
	if anualMax > HighImpactThreshold {
		p--
	}
	if negligibleRisk[opp.RiscoFiscal] {
		p--
	}
	if p < 1 {
		p = 1
	}
	return p
}

// QuickWin reports whether the opportunity is low-complexity.
func QuickWin(opp *models.TaxOpportunity) bool {
	return lowComplexity[opp.Complexidade]
}

// AltoImpacto reports whether the estimated annual maximum clears the
// high-impact threshold.
func AltoImpacto(anualMax int64) bool {
	return anualMax > HighImpactThreshold
}
