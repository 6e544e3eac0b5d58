package matching

import "strings"

// fieldLabels maps internal field names to the human-readable Portuguese
// labels used in match reasons and missing-criteria explanations. Unmapped
// fields fall back to underscore→space conversion.
var fieldLabels = map[string]string{
	"setor":                        "Setor de atuação",
	"segmento":                     "Segmento",
	"porte":                        "Porte da empresa",
	"regime_tributario":            "Regime tributário",
	"faturamento_anual":            "Faturamento anual",
	"faturamento_mensal_medio":     "Faturamento mensal médio",
	"lucro_real":                   "Tributação pelo Lucro Real",
	"lucro_presumido":              "Tributação pelo Lucro Presumido",
	"simples_nacional":             "Optante do Simples Nacional",
	"fator_r_acima_28":             "Fator R acima de 28%",
	"folha_alta":                   "Folha de pagamento relevante",
	"folha_percentual_faturamento": "Percentual da folha sobre o faturamento",
	"qtd_empresas":                 "Quantidade de empresas do grupo",
	"tem_holding":                  "Possui holding",
	"tem_filiais":                  "Possui filiais",
	"cooperativa":                  "Cooperativa",
	"tipo_empresa":                 "Tipo de empresa",
	"percentual_produtos":          "Percentual de vendas de produtos",
	"percentual_servicos":          "Percentual de vendas de serviços",
	"vende_pf":                     "Vende para pessoa física",
	"vende_pj":                     "Vende para pessoa jurídica",
	"vende_governo":                "Vende para o governo",
	"percentual_pf":                "Percentual de vendas a pessoa física",
	"percentual_pj":                "Percentual de vendas a pessoa jurídica",
	"exporta":                      "Realiza exportações",
	"importa":                      "Realiza importações",
	"percentual_exportacao":        "Percentual de exportação",
	"percentual_importacao":        "Percentual de importação",
	"faz_pd":                       "Investe em pesquisa e desenvolvimento",
	"tem_patentes":                 "Possui patentes",
	"operacao_interestadual":       "Operação interestadual",
	"opera_outros_estados":         "Opera em outros estados",
	"opera_todo_brasil":            "Opera em todo o Brasil",
	"zona_franca_manaus":           "Zona Franca de Manaus",
	"uf_sede":                      "Estado da sede",
	"estado":                       "Estado",
	"estados":                      "Estados de operação",
	"loja_fisica":                  "Loja física",
	"ecommerce":                    "E-commerce",
	"marketplace":                  "Marketplace",
	"canal":                        "Canal de vendas",
	"vende_combustiveis":           "Vende combustíveis",
	"vende_bebidas":                "Vende bebidas",
	"vende_cosmeticos":             "Vende cosméticos",
	"vende_medicamentos":           "Vende medicamentos",
	"vende_autopecas":              "Vende autopeças",
	"vende_pneus":                  "Vende pneus",
	"vende_produtos_monofasicos":   "Vende produtos monofásicos",
	"produtor_rural":               "Produtor rural",
	"vende_insumos_agro":           "Vende insumos agropecuários",
	"exporta_commodities":          "Exporta commodities",
	"atividade_rural":              "Atividade rural",
	"exportacao_commodities":       "Exportação de commodities",
	"gera_energia_renovavel":       "Gera energia renovável",
	"energia_renovavel":            "Energia renovável",
	"consome_alta_energia":         "Alto consumo de energia",
	"alto_consumo_energia":         "Alto consumo de energia",
	"procedimentos_complexos":      "Realiza procedimentos complexos",
	"tem_internacao":               "Possui internação",
	"servicos_hospitalares":        "Serviços hospitalares",
	"laboratorio_analises":         "Laboratório de análises",
	"laboratorio":                  "Laboratório",
	"incorporacao_imobiliaria":     "Incorporação imobiliária",
	"incorporacao":                 "Incorporação imobiliária",
	"obras_infraestrutura":         "Obras de infraestrutura",
	"infraestrutura":               "Obras de infraestrutura",
	"transporte_cargas":            "Transporte de cargas",
	"transporte_passageiros":       "Transporte de passageiros",
	"servico_transporte":           "Serviço de transporte",
	"restaurante":                  "Restaurante",
	"delivery":                     "Delivery",
	"food_service":                 "Alimentação fora do lar",
	"escola_regular":               "Escola regular",
	"ensino_regular":               "Ensino regular",
	"cursos_livres":                "Cursos livres",
	"vende_online":                 "Vende online",
	"atividades":                   "Atividades",
	"setor_ou_atividade":           "Setor ou atividade",
}

// Label returns the human-readable name for a field, falling back to the
// field name with underscores replaced by spaces.
func Label(field string) string {
	if l, ok := fieldLabels[field]; ok {
		return l
	}
	return strings.ReplaceAll(field, "_", " ")
}
