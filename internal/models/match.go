package models

// ── Match Workflow Status ────────────────────────────────────────
// A match is created in "nova". Re-running the engine replaces only rows
// still in "nova"; rows the user has progressed are never overwritten.

const (
	MatchStatusNova         = "nova"
	MatchStatusEmAnalise    = "em_analise"
	MatchStatusImplementada = "implementada"
	MatchStatusDescartada   = "descartada"
)

// ValidMatchStatuses lists the allowed workflow states.
var ValidMatchStatuses = map[string]bool{
	MatchStatusNova:         true,
	MatchStatusEmAnalise:    true,
	MatchStatusImplementada: true,
	MatchStatusDescartada:   true,
}

// ── Company Opportunity Match ────────────────────────────────────

// CompanyOpportunityMatch is the join entity produced by the matching
// engine: one row per (user, opportunity), replaced wholesale on each run
// while still in status "nova".
type CompanyOpportunityMatch struct {
	ID            string `json:"id"`
	UserID        string `json:"userId"`
	OpportunityID string `json:"opportunityId"`

	MatchScore      int      `json:"match_score"`
	MatchReasons    []string `json:"match_reasons"`
	MissingCriteria []string `json:"missing_criteria"`

	EconomiaMensalMin int64 `json:"economia_mensal_min"`
	EconomiaMensalMax int64 `json:"economia_mensal_max"`
	EconomiaAnualMin  int64 `json:"economia_anual_min"`
	EconomiaAnualMax  int64 `json:"economia_anual_max"`

	QuickWin    bool `json:"quick_win"`
	AltoImpacto bool `json:"alto_impacto"`
	Prioridade  int  `json:"prioridade"` // 1 = highest

	Status    string `json:"status"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// MatchedOpportunity is a match joined with its catalog entry, as returned
// by the matching endpoint.
type MatchedOpportunity struct {
	ID                 string   `json:"id"`
	Codigo             string   `json:"code"`
	Nome               string   `json:"name"`
	Descricao          string   `json:"description"`
	Categoria          string   `json:"category"`
	Subcategoria       string   `json:"subcategory"`
	MatchScore         int      `json:"match_score"`
	MatchReasons       []string `json:"match_reasons"`
	MissingCriteria    []string `json:"missing_criteria"`
	EconomiaMensalMin  int64    `json:"economia_mensal_min"`
	EconomiaMensalMax  int64    `json:"economia_mensal_max"`
	EconomiaAnualMin   int64    `json:"economia_anual_min"`
	EconomiaAnualMax   int64    `json:"economia_anual_max"`
	Complexidade       string   `json:"complexidade"`
	TempoImplementacao string   `json:"tempo_implementacao"`
	TempoRetorno       string   `json:"tempo_retorno"`
	RiscoFiscal        string   `json:"risco_fiscal"`
	RiscoDescricao     string   `json:"risco_descricao"`
	QuickWin           bool     `json:"quick_win"`
	AltoImpacto        bool     `json:"alto_impacto"`
	Prioridade         int      `json:"prioridade"`
	TributosAfetados   []string `json:"tributos_afetados"`
	BaseLegal          string   `json:"base_legal"`
	RequerContador     bool     `json:"requer_contador"`
	RequerAdvogado     bool     `json:"requer_advogado"`
	RequerCertificacao bool     `json:"requer_certificacao"`
	RequerSistema      bool     `json:"requer_sistema"`
}

// CategorySummary aggregates matches of one category.
type CategorySummary struct {
	Count    int   `json:"count"`
	Economia int64 `json:"economia"`
}

// MatchRunResponse is the matching endpoint's success payload.
type MatchRunResponse struct {
	Success            bool                       `json:"success"`
	TotalOpportunities int                        `json:"total_opportunities"`
	QuickWins          int                        `json:"quick_wins"`
	HighImpact         int                        `json:"high_impact"`
	EconomiaAnualMin   int64                      `json:"economia_anual_min"`
	EconomiaAnualMax   int64                      `json:"economia_anual_max"`
	ByCategory         map[string]CategorySummary `json:"by_category"`
	Opportunities      []MatchedOpportunity       `json:"opportunities"`
}

// UpdateMatchStatusRequest moves a match through its workflow.
type UpdateMatchStatusRequest struct {
	Status string `json:"status"`
}

// Validate checks the requested status transition target.
func (r *UpdateMatchStatusRequest) Validate() map[string]string {
	errors := map[string]string{}
	if !ValidMatchStatuses[r.Status] {
		errors["status"] = "Status must be 'nova', 'em_analise', 'implementada' or 'descartada'"
	}
	return errors
}
