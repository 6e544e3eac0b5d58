package matching

import (
	"sort"
	"strings"
	"time"

	"tributech-backend/internal/models"
)

// ── Criterion Variants ───────────────────────────────────────────
// Catalog entries store criteria as JSONB key/value maps whose keys encode
// the check in their suffix (field_min, field_max, field_in, fields_ou).
// They are parsed ONCE per catalog load into this closed set of variants,
// never re-inspected during evaluation.

// Kind identifies the comparison a criterion performs.
type Kind int

const (
	// KindEquals requires profile[field] == value (bool, string or number).
	KindEquals Kind = iota
	// KindMinValue requires profile[field] >= threshold.
	KindMinValue
	// KindMaxValue requires profile[field] <= threshold.
	KindMaxValue
	// KindInSet requires profile[field] (scalar or list, plural name probed)
	// to intersect the criterion set.
	KindInSet
	// KindAnyOf requires at least one of the listed fields to be truthy.
	KindAnyOf
	// KindSectorOrActivity matches the value against the profile sector,
	// its alias list, or the derived activity list.
	KindSectorOrActivity
	// KindIntersects requires the profile value to share an element with
	// the criterion array (no-suffix array criteria).
	KindIntersects
)

// Criterion score weights. Opaque compatibility constants: 15 for
// also-required criteria, 20 for primary required criteria, 10 for
// optional scored criteria, with eligibility requiring at least 15.
const (
	WeightObrigatorio = 15
	WeightCriterio    = 20
	WeightPontuacao   = 10
	ScoreFloor        = 15
	ScoreCap          = 100
)

// Reserved date keys inside the `criterios` map. They define the validity
// window and are never treated as required field checks.
const (
	keyVigenciaApos = "vigencia_apos"
	keyVigenciaAte  = "vigencia_ate"
)

// Criterion is one parsed eligibility rule.
type Criterion struct {
	Kind      Kind
	Key       string // original map key, used for label fallback
	Field     string
	Fields    []string // KindAnyOf only
	Value     interface{}
	Threshold float64
	Set       []interface{}
	Weight    int
	Required  bool
}

// RuleSet is the fully parsed rule collection of one opportunity, in
// evaluation order: obrigatórios, then criterios, then pontuação — keys
// sorted within each map so explanation lists are deterministic.
type RuleSet struct {
	Criteria     []Criterion
	VigenciaApos *time.Time
	VigenciaAte  *time.Time
}

// ParseRules compiles an opportunity's criteria maps into a RuleSet.
func ParseRules(opp *models.TaxOpportunity) *RuleSet {
	rs := &RuleSet{
		VigenciaApos: opp.VigenciaApos,
		VigenciaAte:  opp.VigenciaAte,
	}

	rs.parseMap(opp.CriteriosObrigatorios, WeightObrigatorio, true, false)
	rs.parseMap(opp.Criterios, WeightCriterio, true, true)
	rs.parseMap(opp.CriteriosPontuacao, WeightPontuacao, false, false)

	return rs
}

// parseMap appends one criteria map's entries. dateKeys enables the
// reserved vigência keys (only honored inside `criterios`).
func (rs *RuleSet) parseMap(m map[string]interface{}, weight int, required, dateKeys bool) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := m[key]

		if dateKeys && (key == keyVigenciaApos || key == keyVigenciaAte) {
			if t, ok := parseDate(value); ok {
				if key == keyVigenciaApos {
					rs.VigenciaApos = &t
				} else {
					rs.VigenciaAte = &t
				}
			}
			continue
		}

		rs.Criteria = append(rs.Criteria, parseCriterion(key, value, weight, required))
	}
}

// parseCriterion dispatches one key/value pair into a tagged variant.
func parseCriterion(key string, value interface{}, weight int, required bool) Criterion {
	c := Criterion{Key: key, Field: key, Value: value, Weight: weight, Required: required}

	switch {
	case key == "setor_ou_atividade":
		c.Kind = KindSectorOrActivity

	case strings.HasSuffix(key, "_min"):
		c.Kind = KindMinValue
		c.Field = strings.TrimSuffix(key, "_min")
		c.Threshold, _ = numValue(value)

	case strings.HasSuffix(key, "_max"):
		c.Kind = KindMaxValue
		c.Field = strings.TrimSuffix(key, "_max")
		c.Threshold, _ = numValue(value)

	case strings.HasSuffix(key, "_in"):
		c.Kind = KindInSet
		c.Field = strings.TrimSuffix(key, "_in")
		c.Set = toList(value)

	case strings.HasSuffix(key, "_ou"):
		c.Kind = KindAnyOf
		c.Fields = strings.Split(strings.TrimSuffix(key, "_ou"), "_")

	default:
		if list, ok := value.([]interface{}); ok {
			c.Kind = KindIntersects
			c.Set = list
		} else {
			c.Kind = KindEquals
		}
	}

	return c
}

// parseDate accepts the date formats vigência values occur in.
func parseDate(v interface{}) (time.Time, bool) {
	s, ok := v.(string)
	if !ok {
		return time.Time{}, false
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
