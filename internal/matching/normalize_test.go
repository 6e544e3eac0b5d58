package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tributech-backend/internal/models"
)

func strPtr(s string) *string { return &s }

func TestNormalizeFatorR(t *testing.T) {
	tests := []struct {
		name      string
		folhaPct  float64
		acima28   bool
		folhaAlta bool
	}{
		{"above both thresholds", 30, true, true},
		{"exactly 28", 28, true, true},
		{"between 25 and 28", 26, false, true},
		{"exactly 25", 25, false, true},
		{"below both", 10, false, false},
		{"zero", 0, false, false},
	}

	n := NewNormalizer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := n.Normalize(&models.CompanyProfile{FolhaPercentualFaturamento: tt.folhaPct})
			assert.Equal(t, tt.acima28, f["fator_r_acima_28"])
			assert.Equal(t, tt.folhaAlta, f["folha_alta"])
		})
	}
}

func TestNormalizeRegimeAliases(t *testing.T) {
	tests := []struct {
		regime    *string
		real      bool
		presumido bool
		simples   bool
	}{
		{strPtr("real"), true, false, false},
		{strPtr("lucro_real"), true, false, false},
		{strPtr("presumido"), false, true, false},
		{strPtr("lucro_presumido"), false, true, false},
		{strPtr("simples"), false, false, true},
		{strPtr("simples_nacional"), false, false, true},
		{nil, false, false, false}, // "não sei"
	}

	n := NewNormalizer()
	for _, tt := range tests {
		f := n.Normalize(&models.CompanyProfile{RegimeTributario: tt.regime})
		assert.Equal(t, tt.real, f["lucro_real"])
		assert.Equal(t, tt.presumido, f["lucro_presumido"])
		assert.Equal(t, tt.simples, f["simples_nacional"])
	}
}

func TestNormalizeInterstateOperation(t *testing.T) {
	n := NewNormalizer()

	assert.Equal(t, false, n.Normalize(&models.CompanyProfile{})["operacao_interestadual"])
	assert.Equal(t, true, n.Normalize(&models.CompanyProfile{OperaOutrosEstados: true})["operacao_interestadual"])
	assert.Equal(t, true, n.Normalize(&models.CompanyProfile{OperaTodoBrasil: true})["operacao_interestadual"])
	assert.Equal(t, true, n.Normalize(&models.CompanyProfile{OperacaoInterestadual: true})["operacao_interestadual"])
}

func TestNormalizeMonofasico(t *testing.T) {
	n := NewNormalizer()

	assert.Equal(t, false, n.Normalize(&models.CompanyProfile{})["vende_produtos_monofasicos"])

	for _, p := range []*models.CompanyProfile{
		{VendeCombustiveis: true},
		{VendeBebidas: true},
		{VendeCosmeticos: true},
		{VendeMedicamentos: true},
		{VendeAutopecas: true},
		{VendePneus: true},
		{VendeMonofasicos: true},
	} {
		assert.Equal(t, true, n.Normalize(p)["vende_produtos_monofasicos"])
	}
}

func TestNormalizeSectorConditionalFlags(t *testing.T) {
	n := NewNormalizer()

	// Healthcare flags only derived for the saude sector
	f := n.Normalize(&models.CompanyProfile{Setor: "saude", TemInternacao: true})
	assert.Equal(t, true, f["servicos_hospitalares"])

	f = n.Normalize(&models.CompanyProfile{Setor: "comercio", TemInternacao: true})
	_, present := f["servicos_hospitalares"]
	assert.False(t, present, "sector-conditional flag must not leak into other sectors")

	f = n.Normalize(&models.CompanyProfile{Setor: "saude", ProcedimentosComplexos: true})
	assert.Equal(t, true, f["servicos_hospitalares"], "complex procedures OR inpatient care")
}

func TestNormalizeActivities(t *testing.T) {
	n := NewNormalizer()

	f := n.Normalize(&models.CompanyProfile{
		Setor:            "transporte",
		TransporteCargas: true,
		EscolaRegular:    true,
	})

	atividades, ok := f["atividades"].([]string)
	require.True(t, ok)
	assert.Contains(t, atividades, "transporte")        // sector baseline
	assert.Contains(t, atividades, "transporte_cargas") // specific flag token
	assert.Contains(t, atividades, "escola_regular")
}

func TestNormalizeChannelPrecedence(t *testing.T) {
	n := NewNormalizer()

	f := n.Normalize(&models.CompanyProfile{Ecommerce: true, LojaFisica: true, Marketplace: true})
	assert.Equal(t, "ecommerce", f["canal"])

	f = n.Normalize(&models.CompanyProfile{LojaFisica: true, Marketplace: true})
	assert.Equal(t, "loja_fisica", f["canal"])

	f = n.Normalize(&models.CompanyProfile{Marketplace: true})
	assert.Equal(t, "marketplace", f["canal"])

	f = n.Normalize(&models.CompanyProfile{})
	_, present := f["canal"]
	assert.False(t, present)
}

func TestNormalizeCompanyType(t *testing.T) {
	n := NewNormalizer()

	assert.Equal(t, "holding", n.Normalize(&models.CompanyProfile{TemHolding: true})["tipo_empresa"])
	assert.Equal(t, "cooperativa", n.Normalize(&models.CompanyProfile{Cooperativa: true})["tipo_empresa"])
	// Holding wins over cooperative
	assert.Equal(t, "holding",
		n.Normalize(&models.CompanyProfile{TemHolding: true, Cooperativa: true})["tipo_empresa"])

	_, present := n.Normalize(&models.CompanyProfile{})["tipo_empresa"]
	assert.False(t, present)
}

func TestNormalizeStates(t *testing.T) {
	n := NewNormalizer()

	f := n.Normalize(&models.CompanyProfile{UFSede: "SP", UFsOperacao: []string{"SP", "RJ"}})
	assert.Equal(t, "SP", f["estado"])
	assert.Equal(t, []string{"SP", "RJ"}, f["estados"])

	// Single-state profile: estados wraps the headquarters UF
	f = n.Normalize(&models.CompanyProfile{UFSede: "MG"})
	assert.Equal(t, []string{"MG"}, f["estados"])
}

func TestNormalizeSectorAliases(t *testing.T) {
	n := NewNormalizer()

	f := n.Normalize(&models.CompanyProfile{Setor: "agronegocio"})
	setores, ok := f["setores"].([]string)
	require.True(t, ok)
	assert.Contains(t, setores, "agronegocio")
	assert.Contains(t, setores, "agro")
	assert.Contains(t, setores, "rural")

	// Unknown sector falls back to itself
	f = n.Normalize(&models.CompanyProfile{Setor: "mineracao"})
	assert.Equal(t, []string{"mineracao"}, f["setores"])
}

func TestNormalizeIsPureAndIdempotent(t *testing.T) {
	n := NewNormalizer()
	p := &models.CompanyProfile{
		Setor:                      "saude",
		RegimeTributario:           strPtr("lucro_presumido"),
		FaturamentoMensalMedio:     250000,
		FolhaPercentualFaturamento: 30,
		TemInternacao:              true,
		UFSede:                     "SP",
		UFsOperacao:                []string{"SP", "PR"},
		Ecommerce:                  true,
	}
	before := *p

	first := n.Normalize(p)
	second := n.Normalize(p)

	assert.Equal(t, first, second, "normalization must be deterministic")
	assert.Equal(t, before, *p, "input profile must never be mutated")
}
