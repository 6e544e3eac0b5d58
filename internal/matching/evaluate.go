package matching

import (
	"fmt"
	"strconv"
	"time"
)

// EvalResult is the outcome of checking one opportunity against a profile.
type EvalResult struct {
	Eligible bool
	Score    int // 0..100
	Reasons  []string
	Missing  []string
}

// Evaluate checks a parsed rule set against normalized profile facts.
//
// Eligibility requires that no required criterion failed, that at least one
// reason was recorded, and that the score reached the floor — the floor
// keeps zero-signal opportunities (only optional criteria, none satisfied)
// out of the results. The validity window is checked after the criterion
// loop: a not-yet-started opportunity is noted but NOT excluded; an expired
// one is excluded.
func Evaluate(facts Facts, rules *RuleSet, now time.Time) EvalResult {
	res := EvalResult{Reasons: []string{}, Missing: []string{}}

	failed := false
	score := 0

	for _, c := range rules.Criteria {
		if satisfies(facts, &c) {
			score += c.Weight
			res.Reasons = append(res.Reasons, matchReason(&c))
			continue
		}
		if c.Required {
			failed = true
			res.Missing = append(res.Missing, missingReason(&c))
		}
	}

	expired := false
	if rules.VigenciaApos != nil && now.Before(*rules.VigenciaApos) {
		res.Missing = append(res.Missing,
			fmt.Sprintf("Vigência inicia em %s", rules.VigenciaApos.Format("02/01/2006")))
	}
	if rules.VigenciaAte != nil && now.After(*rules.VigenciaAte) {
		expired = true
		res.Missing = append(res.Missing,
			fmt.Sprintf("Vigência encerrada em %s", rules.VigenciaAte.Format("02/01/2006")))
	}

	if score > ScoreCap {
		score = ScoreCap
	}
	res.Score = score
	res.Eligible = !failed && !expired && len(res.Reasons) > 0 && score >= ScoreFloor

	return res
}

// satisfies runs one criterion against the facts.
func satisfies(facts Facts, c *Criterion) bool {
	switch c.Kind {
	case KindMinValue:
		v, ok := numValue(facts[c.Field])
		return ok && v >= c.Threshold

	case KindMaxValue:
		v, ok := numValue(facts[c.Field])
		return ok && v <= c.Threshold

	case KindInSet:
		// The profile value may be scalar or a list; the pluralized field
		// name is probed as well (estado → estados).
		fact := facts[c.Field]
		if fact == nil || !truthy(fact) {
			fact = facts[c.Field+"s"]
		}
		if fact == nil {
			return false
		}
		return intersects(toList(fact), c.Set)

	case KindAnyOf:
		for _, field := range c.Fields {
			if truthy(facts[field]) {
				return true
			}
		}
		return false

	case KindSectorOrActivity:
		want, ok := c.Value.(string)
		if !ok {
			return false
		}
		if s, ok := facts["setor"].(string); ok && s == want {
			return true
		}
		return containsString(facts["setores"], want) ||
			containsString(facts["atividades"], want)

	case KindIntersects:
		fact := facts[c.Field]
		if fact == nil {
			return false
		}
		return intersects(toList(fact), c.Set)

	default: // KindEquals
		if want, ok := c.Value.(bool); ok {
			// Absent booleans count as false.
			return truthy(facts[c.Field]) == want
		}
		return equalValue(facts[c.Field], c.Value)
	}
}

// matchReason renders the human-readable explanation for a satisfied
// criterion.
func matchReason(c *Criterion) string {
	switch c.Kind {
	case KindMinValue:
		return fmt.Sprintf("%s a partir de %s", Label(c.Field), formatNum(c.Threshold))
	case KindMaxValue:
		return fmt.Sprintf("%s até %s", Label(c.Field), formatNum(c.Threshold))
	case KindAnyOf:
		return Label(c.Key)
	case KindSectorOrActivity:
		if s, ok := c.Value.(string); ok {
			return fmt.Sprintf("Setor ou atividade: %s", Label(s))
		}
		return Label(c.Key)
	default:
		return Label(c.Field)
	}
}

// missingReason renders the explanation for a failed required criterion.
// The dominant failure mode is a required boolean the profile lacks, which
// is reported by field label.
func missingReason(c *Criterion) string {
	switch c.Kind {
	case KindMinValue:
		return fmt.Sprintf("Requer %s mínimo de %s", Label(c.Field), formatNum(c.Threshold))
	case KindMaxValue:
		return fmt.Sprintf("Requer %s máximo de %s", Label(c.Field), formatNum(c.Threshold))
	case KindAnyOf:
		return fmt.Sprintf("Requer: %s", Label(c.Key))
	default:
		return fmt.Sprintf("Requer: %s", Label(c.Field))
	}
}

func formatNum(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
