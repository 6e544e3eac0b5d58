package matching

import "tributech-backend/internal/models"

// ── Sector Lookup Tables ─────────────────────────────────────────
// Read-only domain constants. They are held by the Normalizer (injected,
// never mutated) so the engine carries no process-wide mutable state.

// defaultSectorActivities maps every supported sector to its baseline
// activity tokens. Specific-activity flags append further tokens.
var defaultSectorActivities = map[string][]string{
	"comercio":    {"comercio_varejista"},
	"industria":   {"industria"},
	"servicos":    {"servicos"},
	"agronegocio": {"producao_rural", "agroindustria"},
	"saude":       {"servicos_saude"},
	"construcao":  {"construcao_civil"},
	"transporte":  {"transporte"},
	"alimentacao": {"alimentacao_fora_do_lar"},
	"educacao":    {"ensino"},
	"energia":     {"geracao_energia"},
	"tecnologia":  {"desenvolvimento_software"},
	"ecommerce":   {"comercio_eletronico"},
}

// defaultSectorAliases expands a sector into every tag opportunities may
// carry for it. A profile sector matches an opportunity tagged with any
// of its aliases.
var defaultSectorAliases = map[string][]string{
	"comercio":    {"comercio", "varejo", "atacado"},
	"industria":   {"industria", "industrial", "manufatura"},
	"servicos":    {"servicos", "servico"},
	"agronegocio": {"agronegocio", "agro", "rural", "agricultura"},
	"saude":       {"saude", "medicina", "hospitalar"},
	"construcao":  {"construcao", "construcao_civil", "imobiliario"},
	"transporte":  {"transporte", "logistica"},
	"alimentacao": {"alimentacao", "food_service", "restaurantes"},
	"educacao":    {"educacao", "ensino"},
	"energia":     {"energia", "energia_eletrica"},
	"tecnologia":  {"tecnologia", "ti", "software"},
	"ecommerce":   {"ecommerce", "comercio_eletronico", "comercio"},
}

// Normalizer expands a raw company profile into the Facts map rule
// evaluation consumes.
type Normalizer struct {
	SectorActivities map[string][]string
	SectorAliases    map[string][]string
}

// NewNormalizer returns a Normalizer with the standard sector tables.
func NewNormalizer() *Normalizer {
	return &Normalizer{
		SectorActivities: defaultSectorActivities,
		SectorAliases:    defaultSectorAliases,
	}
}

// Normalize derives the evaluation facts from a profile. Pure and
// deterministic: no I/O, the input is never mutated, and calling it twice
// yields identical facts.
func (n *Normalizer) Normalize(p *models.CompanyProfile) Facts {
	f := rawFacts(p)

	// Fator R thresholds
	f["fator_r_acima_28"] = p.FolhaPercentualFaturamento >= 28
	f["folha_alta"] = p.FolhaPercentualFaturamento >= 25

	// Regime shortcuts — stored data carries both short and long forms
	regime := ""
	if p.RegimeTributario != nil {
		regime = *p.RegimeTributario
	}
	f["lucro_real"] = regime == "real" || regime == "lucro_real"
	f["lucro_presumido"] = regime == "presumido" || regime == "lucro_presumido"
	f["simples_nacional"] = regime == "simples" || regime == "simples_nacional"

	f["operacao_interestadual"] = p.OperaOutrosEstados || p.OperaTodoBrasil || p.OperacaoInterestadual

	f["vende_produtos_monofasicos"] = p.VendeCombustiveis || p.VendeBebidas ||
		p.VendeCosmeticos || p.VendeMedicamentos || p.VendeAutopecas ||
		p.VendePneus || p.VendeMonofasicos

	// Sector-conditional flags: only populated when the profile belongs to
	// the relevant sector, so unrelated opportunities never match on them.
	switch p.Setor {
	case "agronegocio":
		f["atividade_rural"] = p.ProdutorRural || p.VendeInsumosAgro
		f["exportacao_commodities"] = p.ExportaCommodities
	case "energia":
		f["energia_renovavel"] = p.GeraEnergiaRenovavel
		f["alto_consumo_energia"] = p.ConsomeAltaEnergia
	case "saude":
		f["servicos_hospitalares"] = p.ProcedimentosComplexos || p.TemInternacao
		f["laboratorio"] = p.LaboratorioAnalises
	case "construcao":
		f["incorporacao"] = p.IncorporacaoImobiliaria
		f["infraestrutura"] = p.ObrasInfraestrutura
	case "transporte":
		f["servico_transporte"] = p.TransporteCargas || p.TransportePassageiros
	case "alimentacao":
		f["food_service"] = p.Restaurante || p.Delivery
	case "educacao":
		f["ensino_regular"] = p.EscolaRegular
	case "ecommerce":
		f["vende_online"] = p.Ecommerce || p.Marketplace
	}

	f["atividades"] = n.activities(p)

	// Channel precedence: e-commerce > physical store > marketplace
	switch {
	case p.Ecommerce:
		f["canal"] = "ecommerce"
	case p.LojaFisica:
		f["canal"] = "loja_fisica"
	case p.Marketplace:
		f["canal"] = "marketplace"
	}

	f["estado"] = p.UFSede
	if len(p.UFsOperacao) > 0 {
		f["estados"] = append([]string(nil), p.UFsOperacao...)
	} else if p.UFSede != "" {
		f["estados"] = []string{p.UFSede}
	} else {
		f["estados"] = []string{}
	}

	switch {
	case p.TemHolding:
		f["tipo_empresa"] = "holding"
	case p.Cooperativa:
		f["tipo_empresa"] = "cooperativa"
	}

	if aliases, ok := n.SectorAliases[p.Setor]; ok {
		f["setores"] = append([]string(nil), aliases...)
	} else if p.Setor != "" {
		f["setores"] = []string{p.Setor}
	} else {
		f["setores"] = []string{}
	}

	return f
}

// activities builds the derived activity list: the sector's baseline
// activities plus one token per true specific-activity flag.
func (n *Normalizer) activities(p *models.CompanyProfile) []string {
	var out []string
	if base, ok := n.SectorActivities[p.Setor]; ok {
		out = append(out, base...)
	}

	type flagToken struct {
		set   bool
		token string
	}
	for _, ft := range []flagToken{
		{p.ProdutorRural, "producao_rural"},
		{p.IncorporacaoImobiliaria, "incorporacao_imobiliaria"},
		{p.ObrasInfraestrutura, "obras_infraestrutura"},
		{p.TransporteCargas, "transporte_cargas"},
		{p.TransportePassageiros, "transporte_passageiros"},
		{p.Restaurante, "restaurante"},
		{p.LaboratorioAnalises, "laboratorio_analises"},
		{p.EscolaRegular, "escola_regular"},
		{p.CursosLivres, "cursos_livres"},
		{p.GeraEnergiaRenovavel, "geracao_renovavel"},
	} {
		if ft.set && !contains(out, ft.token) {
			out = append(out, ft.token)
		}
	}
	if out == nil {
		out = []string{}
	}
	return out
}

// rawFacts copies every profile field into the facts map under its stored
// (snake_case) name so criteria can reference raw fields directly.
func rawFacts(p *models.CompanyProfile) Facts {
	f := Facts{
		"setor":                        p.Setor,
		"segmento":                     p.Segmento,
		"porte":                        p.Porte,
		"faturamento_anual":            p.FaturamentoAnual,
		"faturamento_mensal_medio":     p.FaturamentoMensalMedio,
		"qtd_empresas":                 p.QtdEmpresas,
		"tem_holding":                  p.TemHolding,
		"tem_filiais":                  p.TemFiliais,
		"cooperativa":                  p.Cooperativa,
		"percentual_produtos":          p.PercentualProdutos,
		"percentual_servicos":          p.PercentualServicos,
		"vende_pf":                     p.VendePF,
		"vende_pj":                     p.VendePJ,
		"vende_governo":                p.VendeGoverno,
		"percentual_pf":                p.PercentualPF,
		"percentual_pj":                p.PercentualPJ,
		"exporta":                      p.Exporta,
		"importa":                      p.Importa,
		"percentual_exportacao":        p.PercentualExportacao,
		"percentual_importacao":        p.PercentualImportacao,
		"faz_pd":                       p.FazPD,
		"tem_patentes":                 p.TemPatentes,
		"uf_sede":                      p.UFSede,
		"opera_outros_estados":         p.OperaOutrosEstados,
		"opera_todo_brasil":            p.OperaTodoBrasil,
		"zona_franca_manaus":           p.ZonaFrancaManaus,
		"folha_percentual_faturamento": p.FolhaPercentualFaturamento,
		"loja_fisica":                  p.LojaFisica,
		"ecommerce":                    p.Ecommerce,
		"marketplace":                  p.Marketplace,
		"vende_combustiveis":           p.VendeCombustiveis,
		"vende_bebidas":                p.VendeBebidas,
		"vende_cosmeticos":             p.VendeCosmeticos,
		"vende_medicamentos":           p.VendeMedicamentos,
		"vende_autopecas":              p.VendeAutopecas,
		"vende_pneus":                  p.VendePneus,
		"produtor_rural":               p.ProdutorRural,
		"vende_insumos_agro":           p.VendeInsumosAgro,
		"exporta_commodities":          p.ExportaCommodities,
		"gera_energia_renovavel":       p.GeraEnergiaRenovavel,
		"consome_alta_energia":         p.ConsomeAltaEnergia,
		"procedimentos_complexos":      p.ProcedimentosComplexos,
		"tem_internacao":               p.TemInternacao,
		"laboratorio_analises":         p.LaboratorioAnalises,
		"incorporacao_imobiliaria":     p.IncorporacaoImobiliaria,
		"obras_infraestrutura":         p.ObrasInfraestrutura,
		"transporte_cargas":            p.TransporteCargas,
		"transporte_passageiros":       p.TransportePassageiros,
		"restaurante":                  p.Restaurante,
		"delivery":                     p.Delivery,
		"escola_regular":               p.EscolaRegular,
		"cursos_livres":                p.CursosLivres,
	}
	if p.RegimeTributario != nil {
		f["regime_tributario"] = *p.RegimeTributario
	}
	if len(p.UFsOperacao) > 0 {
		f["ufs_operacao"] = append([]string(nil), p.UFsOperacao...)
	}
	return f
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
