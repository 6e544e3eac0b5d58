package models

import "time"

// ── Tax Opportunity Catalog ──────────────────────────────────────

// TaxOpportunity is one entry of the admin-managed strategy catalog.
// The three criteria maps hold the raw JSONB rule definitions; they are
// parsed into typed criteria once, when the catalog is loaded, not on
// every evaluation.
type TaxOpportunity struct {
	ID           string `json:"id"`
	Codigo       string `json:"codigo"`
	NomeTecnico  string `json:"nome_tecnico"`
	NomeSimples  string `json:"nome_simples"`
	Descricao    string `json:"descricao"`
	Categoria    string `json:"categoria"`
	Subcategoria string `json:"subcategoria"`

	TributosAfetados []string `json:"tributos_afetados"`

	// Rule definitions: required, also-required, and optional/scored.
	Criterios             map[string]interface{} `json:"criterios"`
	CriteriosObrigatorios map[string]interface{} `json:"criterios_obrigatorios"`
	CriteriosPontuacao    map[string]interface{} `json:"criterios_pontuacao"`

	// Savings model. Percentages are nil when the opportunity has no
	// quantified saving (e.g. compliance-only strategies).
	EconomiaTipo          string   `json:"economia_tipo"`
	EconomiaPercentualMin *float64 `json:"economia_percentual_min"`
	EconomiaPercentualMax *float64 `json:"economia_percentual_max"`
	EconomiaBase          string   `json:"economia_base"`

	Complexidade       string `json:"complexidade"` // muito_baixa | baixa | media | alta | muito_alta
	RiscoFiscal        string `json:"risco_fiscal"` // nenhum | muito_baixo | baixo | medio | alto
	RiscoDescricao     string `json:"risco_descricao"`
	TempoImplementacao string `json:"tempo_implementacao"`
	TempoRetorno       string `json:"tempo_retorno"`
	BaseLegal          string `json:"base_legal"`

	RequerContador     bool `json:"requer_contador"`
	RequerAdvogado     bool `json:"requer_advogado"`
	RequerCertificacao bool `json:"requer_certificacao"`
	RequerSistema      bool `json:"requer_sistema"`

	// Validity window. A not-yet-started opportunity still matches (with a
	// note); an expired one never does.
	VigenciaApos *time.Time `json:"vigencia_apos"`
	VigenciaAte  *time.Time `json:"vigencia_ate"`

	IsActive  bool   `json:"is_active"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// UpsertOpportunityRequest is the admin payload for catalog entries.
type UpsertOpportunityRequest struct {
	Codigo                string                 `json:"codigo"`
	NomeTecnico           string                 `json:"nome_tecnico"`
	NomeSimples           string                 `json:"nome_simples"`
	Descricao             string                 `json:"descricao"`
	Categoria             string                 `json:"categoria"`
	Subcategoria          string                 `json:"subcategoria"`
	TributosAfetados      []string               `json:"tributos_afetados"`
	Criterios             map[string]interface{} `json:"criterios"`
	CriteriosObrigatorios map[string]interface{} `json:"criterios_obrigatorios"`
	CriteriosPontuacao    map[string]interface{} `json:"criterios_pontuacao"`
	EconomiaTipo          string                 `json:"economia_tipo"`
	EconomiaPercentualMin *float64               `json:"economia_percentual_min"`
	EconomiaPercentualMax *float64               `json:"economia_percentual_max"`
	EconomiaBase          string                 `json:"economia_base"`
	Complexidade          string                 `json:"complexidade"`
	RiscoFiscal           string                 `json:"risco_fiscal"`
	RiscoDescricao        string                 `json:"risco_descricao"`
	TempoImplementacao    string                 `json:"tempo_implementacao"`
	TempoRetorno          string                 `json:"tempo_retorno"`
	BaseLegal             string                 `json:"base_legal"`
	RequerContador        bool                   `json:"requer_contador"`
	RequerAdvogado        bool                   `json:"requer_advogado"`
	RequerCertificacao    bool                   `json:"requer_certificacao"`
	RequerSistema         bool                   `json:"requer_sistema"`
	VigenciaApos          *time.Time             `json:"vigencia_apos"`
	VigenciaAte           *time.Time             `json:"vigencia_ate"`
	IsActive              *bool                  `json:"is_active"`
}

// Validate checks the catalog entry payload.
func (r *UpsertOpportunityRequest) Validate() map[string]string {
	errors := map[string]string{}

	if r.Codigo == "" {
		errors["codigo"] = "Code is required"
	}
	if r.NomeTecnico == "" {
		errors["nome_tecnico"] = "Technical name is required"
	}
	if r.Categoria == "" {
		errors["categoria"] = "Category is required"
	}
	if r.EconomiaPercentualMin != nil && r.EconomiaPercentualMax != nil &&
		*r.EconomiaPercentualMin > *r.EconomiaPercentualMax {
		errors["economia_percentual_min"] = "Minimum percentage cannot exceed maximum"
	}

	return errors
}
