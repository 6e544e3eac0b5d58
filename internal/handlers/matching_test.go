package handlers

import (
	"errors"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tributech-backend/internal/matching"
	"tributech-backend/internal/models"
)

func TestBuildMatchResponseAggregates(t *testing.T) {
	oppA := &models.TaxOpportunity{
		ID: "a", Codigo: "OPP-A", NomeSimples: "Monofasia", Categoria: "pis_cofins",
		Complexidade: "baixa", RiscoFiscal: "muito_baixo",
	}
	oppB := &models.TaxOpportunity{
		ID: "b", Codigo: "OPP-B", NomeSimples: "Fator R", Categoria: "simples",
		Complexidade: "media", RiscoFiscal: "baixo",
	}
	oppC := &models.TaxOpportunity{
		ID: "c", Codigo: "OPP-C", NomeSimples: "Crédito ICMS", Categoria: "pis_cofins",
		Complexidade: "alta", RiscoFiscal: "medio",
	}

	matches := []matching.Match{
		{
			Opportunity: oppA, Score: 45,
			Reasons:     []string{"Vende produtos monofásicos"},
			Savings:     matching.Savings{MensalMin: 900, MensalMax: 1800, AnualMin: 10800, AnualMax: 21600},
			QuickWin:    true, Prioridade: 1,
		},
		{
			Opportunity: oppB, Score: 60,
			Savings:     matching.Savings{MensalMin: 5000, MensalMax: 10000, AnualMin: 60000, AnualMax: 120000},
			AltoImpacto: true, Prioridade: 2,
		},
		{
			Opportunity: oppC, Score: 35,
			Savings:     matching.Savings{AnualMax: 5000},
			Prioridade:  3,
		},
	}

	resp := buildMatchResponse(matches)

	assert.True(t, resp.Success)
	assert.Equal(t, 3, resp.TotalOpportunities)
	assert.Equal(t, 1, resp.QuickWins)
	assert.Equal(t, 1, resp.HighImpact)
	assert.Equal(t, int64(70800), resp.EconomiaAnualMin)
	assert.Equal(t, int64(146600), resp.EconomiaAnualMax)

	require.Len(t, resp.ByCategory, 2)
	assert.Equal(t, models.CategorySummary{Count: 2, Economia: 26600}, resp.ByCategory["pis_cofins"])
	assert.Equal(t, models.CategorySummary{Count: 1, Economia: 120000}, resp.ByCategory["simples"])

	require.Len(t, resp.Opportunities, 3)
	first := resp.Opportunities[0]
	assert.Equal(t, "OPP-A", first.Codigo)
	assert.Equal(t, "Monofasia", first.Nome)
	assert.Equal(t, 45, first.MatchScore)
	assert.Equal(t, []string{"Vende produtos monofásicos"}, first.MatchReasons)
	assert.True(t, first.QuickWin)
}

func TestClassifyProfileMissingProfile(t *testing.T) {
	status, body := classifyProfile(pgx.ErrNoRows, false)

	assert.Equal(t, http.StatusBadRequest, status)
	require.Len(t, body, 2)
	assert.Equal(t, "complete_profile", body["error"])
	assert.Equal(t, "Complete the company profile before running the matching", body["message"])
}

func TestClassifyProfileIncompleteProfile(t *testing.T) {
	status, body := classifyProfile(nil, false)

	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "complete_profile", body["error"])
}

func TestClassifyProfileLoadFailure(t *testing.T) {
	status, body := classifyProfile(errors.New("connection refused"), false)

	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "internal_error", body["error"])
	assert.NotEmpty(t, body["message"])
}

func TestClassifyProfileCompleteProceeds(t *testing.T) {
	status, body := classifyProfile(nil, true)

	assert.Equal(t, 0, status)
	assert.Nil(t, body)
}

func TestBuildMatchResponseEmptyRun(t *testing.T) {
	resp := buildMatchResponse(nil)

	assert.True(t, resp.Success)
	assert.Equal(t, 0, resp.TotalOpportunities)
	assert.NotNil(t, resp.Opportunities)
	assert.NotNil(t, resp.ByCategory)
	assert.Equal(t, int64(0), resp.EconomiaAnualMax)
}
