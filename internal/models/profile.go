package models

// ── Company Profile ──────────────────────────────────────────────

// CompanyProfile is the company questionnaire collected by the multi-step
// wizard. It is stored as a JSONB record keyed by user — the column set is
// open-ended because new sector flags are added as the catalog grows.
//
// Mix percentages (products/services, PF/PJ) are stored as entered; the
// application does not enforce that they sum to 100. The matching engine
// consumes whatever is recorded.
type CompanyProfile struct {
	ID     string `json:"id"`
	UserID string `json:"userId"`

	// Classification
	Setor    string `json:"setor"`
	Segmento string `json:"segmento"`
	Porte    string `json:"porte"`

	// Revenue and regime. RegimeTributario is nil when the user answered
	// "não sei" — short ("real") and long ("lucro_real") forms both occur
	// in stored data.
	FaturamentoAnual       float64 `json:"faturamento_anual"`
	FaturamentoMensalMedio float64 `json:"faturamento_mensal_medio"`
	RegimeTributario       *string `json:"regime_tributario"`

	// Structure
	QtdEmpresas int  `json:"qtd_empresas"`
	TemHolding  bool `json:"tem_holding"`
	TemFiliais  bool `json:"tem_filiais"`
	Cooperativa bool `json:"cooperativa"`

	// Sales mix
	PercentualProdutos float64 `json:"percentual_produtos"`
	PercentualServicos float64 `json:"percentual_servicos"`

	// Buyer mix
	VendePF      bool    `json:"vende_pf"`
	VendePJ      bool    `json:"vende_pj"`
	VendeGoverno bool    `json:"vende_governo"`
	PercentualPF float64 `json:"percentual_pf"`
	PercentualPJ float64 `json:"percentual_pj"`

	// Cross-border
	Exporta              bool    `json:"exporta"`
	Importa              bool    `json:"importa"`
	PercentualExportacao float64 `json:"percentual_exportacao"`
	PercentualImportacao float64 `json:"percentual_importacao"`

	// Innovation
	FazPD       bool `json:"faz_pd"`
	TemPatentes bool `json:"tem_patentes"`

	// Geography
	UFSede                string   `json:"uf_sede"`
	UFsOperacao           []string `json:"ufs_operacao"`
	OperaOutrosEstados    bool     `json:"opera_outros_estados"`
	OperaTodoBrasil       bool     `json:"opera_todo_brasil"`
	OperacaoInterestadual bool     `json:"operacao_interestadual"`
	ZonaFrancaManaus      bool     `json:"zona_franca_manaus"`

	// Payroll
	FolhaPercentualFaturamento float64 `json:"folha_percentual_faturamento"`

	// Channels
	LojaFisica  bool `json:"loja_fisica"`
	Ecommerce   bool `json:"ecommerce"`
	Marketplace bool `json:"marketplace"`

	// Single-phase (monofásico) product categories
	VendeCombustiveis bool `json:"vende_combustiveis"`
	VendeBebidas      bool `json:"vende_bebidas"`
	VendeCosmeticos   bool `json:"vende_cosmeticos"`
	VendeMedicamentos bool `json:"vende_medicamentos"`
	VendeAutopecas    bool `json:"vende_autopecas"`
	VendePneus        bool `json:"vende_pneus"`
	VendeMonofasicos  bool `json:"vende_monofasicos"`

	// Agribusiness
	ProdutorRural      bool `json:"produtor_rural"`
	VendeInsumosAgro   bool `json:"vende_insumos_agro"`
	ExportaCommodities bool `json:"exporta_commodities"`

	// Energy
	GeraEnergiaRenovavel bool `json:"gera_energia_renovavel"`
	ConsomeAltaEnergia   bool `json:"consome_alta_energia"`

	// Healthcare
	ProcedimentosComplexos bool `json:"procedimentos_complexos"`
	TemInternacao          bool `json:"tem_internacao"`
	LaboratorioAnalises    bool `json:"laboratorio_analises"`

	// Construction
	IncorporacaoImobiliaria bool `json:"incorporacao_imobiliaria"`
	ObrasInfraestrutura     bool `json:"obras_infraestrutura"`

	// Transportation
	TransporteCargas      bool `json:"transporte_cargas"`
	TransportePassageiros bool `json:"transporte_passageiros"`

	// Food service
	Restaurante bool `json:"restaurante"`
	Delivery    bool `json:"delivery"`

	// Education
	EscolaRegular bool `json:"escola_regular"`
	CursosLivres  bool `json:"cursos_livres"`

	// Wizard state
	CurrentStep     int  `json:"current_step"`
	ProfileComplete bool `json:"profile_complete"`

	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// SaveProfileStepRequest carries one wizard step: a partial profile patch
// plus the step marker. Fields not present in Data are left untouched.
type SaveProfileStepRequest struct {
	Data        map[string]interface{} `json:"data"`
	CurrentStep int                    `json:"current_step"`
	Complete    bool                   `json:"complete"`
}

// Validate checks the wizard step payload.
func (r *SaveProfileStepRequest) Validate() map[string]string {
	errors := map[string]string{}

	if r.CurrentStep < 1 {
		errors["current_step"] = "Current step must be at least 1"
	}
	if len(r.Data) == 0 && !r.Complete {
		errors["data"] = "Step data is required"
	}
	if fat, ok := r.Data["faturamento_anual"].(float64); ok && fat < 0 {
		errors["faturamento_anual"] = "Annual revenue cannot be negative"
	}
	if fat, ok := r.Data["faturamento_mensal_medio"].(float64); ok && fat < 0 {
		errors["faturamento_mensal_medio"] = "Monthly revenue cannot be negative"
	}
	if reg, ok := r.Data["regime_tributario"].(string); ok && reg != "" {
		valid := map[string]bool{
			"simples": true, "simples_nacional": true,
			"presumido": true, "lucro_presumido": true,
			"real": true, "lucro_real": true,
		}
		if !valid[reg] {
			errors["regime_tributario"] = "Regime must be Simples, Presumido or Real"
		}
	}

	return errors
}
