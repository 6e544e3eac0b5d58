package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"tributech-backend/internal/ctxkeys"
	"tributech-backend/internal/database"
	"tributech-backend/internal/matching"
	"tributech-backend/internal/models"
)

// MatchingHandler runs the opportunity matching pipeline for the caller's
// company profile and persists the resulting matches.
type MatchingHandler struct {
	db     database.Service
	engine *matching.Engine
}

// NewMatchingHandler creates a MatchingHandler.
func NewMatchingHandler(db database.Service) *MatchingHandler {
	return &MatchingHandler{
		db:     db,
		engine: matching.NewEngine(),
	}
}

// Run evaluates the active catalog against the caller's profile, replaces
// their "nova" matches inside one transaction, and returns the ranked
// results with summary totals. Matches the user has progressed past "nova"
// are never deleted or overwritten.
func (h *MatchingHandler) Run(w http.ResponseWriter, r *http.Request) {
	userID, _ := r.Context().Value(ctxkeys.UserID).(string)

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	profile, complete, err := loadProfile(ctx, pool, userID)
	if status, body := classifyProfile(err, complete); status != 0 {
		if status == http.StatusInternalServerError {
			log.Printf("Failed to load profile for %s: %v", userID, err)
		}
		// Early return: nothing has been written yet.
		JSON(w, status, body)
		return
	}

	catalog, err := loadCatalog(ctx, pool)
	if err != nil {
		log.Printf("Failed to load opportunity catalog: %v", err)
		JSONError(w, http.StatusInternalServerError, "internal_error")
		return
	}

	matches := h.engine.Run(profile, catalog, time.Now())

	if err := h.persistMatches(ctx, pool, userID, matches); err != nil {
		log.Printf("Failed to persist matches for %s: %v", userID, err)
		JSONError(w, http.StatusInternalServerError, "internal_error")
		return
	}

	logActivity(pool, userID, "ran", "matching", userID, map[string]interface{}{
		"matches": len(matches),
	})

	JSON(w, http.StatusOK, buildMatchResponse(matches))
}

// classifyProfile maps the profile load outcome to an early error response.
// A zero status means the profile is usable and the run may proceed. Missing
// and incomplete profiles both ask the user to finish the wizard; any other
// load failure is an internal error.
func classifyProfile(err error, complete bool) (int, map[string]string) {
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return http.StatusInternalServerError, map[string]string{
			"error":   "internal_error",
			"message": "Failed to load the company profile",
		}
	}
	if err != nil || !complete {
		return http.StatusBadRequest, map[string]string{
			"error":   "complete_profile",
			"message": "Complete the company profile before running the matching",
		}
	}
	return 0, nil
}

// persistMatches replaces the user's "nova" matches in one transaction:
// delete stale rows, then upsert the fresh run. The conflict guard keeps
// rows in em_analise/implementada/descartada untouched.
func (h *MatchingHandler) persistMatches(ctx context.Context, pool *pgxpool.Pool, userID string, matches []matching.Match) error {
	tx, err := pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		DELETE FROM company_opportunities
		WHERE user_id = $1 AND status = 'nova'
	`, userID)
	if err != nil {
		return err
	}

	for _, m := range matches {
		reasons, _ := json.Marshal(m.Reasons)
		missing, _ := json.Marshal(m.Missing)

		_, err = tx.Exec(ctx, `
			INSERT INTO company_opportunities (
				user_id, opportunity_id, match_score, match_reasons, missing_criteria,
				economia_mensal_min, economia_mensal_max, economia_anual_min, economia_anual_max,
				quick_win, alto_impacto, prioridade, status
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, 'nova')
			ON CONFLICT (user_id, opportunity_id) DO UPDATE SET
				match_score         = EXCLUDED.match_score,
				match_reasons       = EXCLUDED.match_reasons,
				missing_criteria    = EXCLUDED.missing_criteria,
				economia_mensal_min = EXCLUDED.economia_mensal_min,
				economia_mensal_max = EXCLUDED.economia_mensal_max,
				economia_anual_min  = EXCLUDED.economia_anual_min,
				economia_anual_max  = EXCLUDED.economia_anual_max,
				quick_win           = EXCLUDED.quick_win,
				alto_impacto        = EXCLUDED.alto_impacto,
				prioridade          = EXCLUDED.prioridade,
				updated_at          = NOW()
			WHERE company_opportunities.status = 'nova'
		`, userID, m.Opportunity.ID, m.Score, reasons, missing,
			m.Savings.MensalMin, m.Savings.MensalMax, m.Savings.AnualMin, m.Savings.AnualMax,
			m.QuickWin, m.AltoImpacto, m.Prioridade)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// buildMatchResponse aggregates the run into the summary payload.
func buildMatchResponse(matches []matching.Match) models.MatchRunResponse {
	resp := models.MatchRunResponse{
		Success:            true,
		TotalOpportunities: len(matches),
		ByCategory:         map[string]models.CategorySummary{},
		Opportunities:      []models.MatchedOpportunity{},
	}

	for _, m := range matches {
		opp := m.Opportunity
		if m.QuickWin {
			resp.QuickWins++
		}
		if m.AltoImpacto {
			resp.HighImpact++
		}
		resp.EconomiaAnualMin += m.Savings.AnualMin
		resp.EconomiaAnualMax += m.Savings.AnualMax

		cat := resp.ByCategory[opp.Categoria]
		cat.Count++
		cat.Economia += m.Savings.AnualMax
		resp.ByCategory[opp.Categoria] = cat

		resp.Opportunities = append(resp.Opportunities, models.MatchedOpportunity{
			ID:                 opp.ID,
			Codigo:             opp.Codigo,
			Nome:               opp.NomeSimples,
			Descricao:          opp.Descricao,
			Categoria:          opp.Categoria,
			Subcategoria:       opp.Subcategoria,
			MatchScore:         m.Score,
			MatchReasons:       m.Reasons,
			MissingCriteria:    m.Missing,
			EconomiaMensalMin:  m.Savings.MensalMin,
			EconomiaMensalMax:  m.Savings.MensalMax,
			EconomiaAnualMin:   m.Savings.AnualMin,
			EconomiaAnualMax:   m.Savings.AnualMax,
			Complexidade:       opp.Complexidade,
			TempoImplementacao: opp.TempoImplementacao,
			TempoRetorno:       opp.TempoRetorno,
			RiscoFiscal:        opp.RiscoFiscal,
			RiscoDescricao:     opp.RiscoDescricao,
			QuickWin:           m.QuickWin,
			AltoImpacto:        m.AltoImpacto,
			Prioridade:         m.Prioridade,
			TributosAfetados:   opp.TributosAfetados,
			BaseLegal:          opp.BaseLegal,
			RequerContador:     opp.RequerContador,
			RequerAdvogado:     opp.RequerAdvogado,
			RequerCertificacao: opp.RequerCertificacao,
			RequerSistema:      opp.RequerSistema,
		})
	}

	return resp
}

// loadCatalog reads all active catalog entries.
func loadCatalog(ctx context.Context, pool *pgxpool.Pool) ([]*models.TaxOpportunity, error) {
	rows, err := pool.Query(ctx, `
		SELECT id, codigo, nome_tecnico, nome_simples, descricao, categoria, subcategoria,
		       tributos_afetados, criterios, criterios_obrigatorios, criterios_pontuacao,
		       economia_tipo, economia_percentual_min, economia_percentual_max, economia_base,
		       complexidade, risco_fiscal, risco_descricao, tempo_implementacao, tempo_retorno,
		       base_legal, requer_contador, requer_advogado, requer_certificacao, requer_sistema,
		       vigencia_apos, vigencia_ate, is_active, created_at::text, updated_at::text
		FROM tax_opportunities
		WHERE is_active = TRUE
		ORDER BY codigo
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var catalog []*models.TaxOpportunity
	for rows.Next() {
		opp, err := scanOpportunity(rows)
		if err != nil {
			return nil, err
		}
		catalog = append(catalog, opp)
	}
	return catalog, rows.Err()
}

// scanOpportunity decodes one catalog row, including the JSONB columns.
func scanOpportunity(row pgx.Row) (*models.TaxOpportunity, error) {
	var (
		opp       models.TaxOpportunity
		tributos  []byte
		criterios []byte
		obrig     []byte
		pontuacao []byte
	)

	err := row.Scan(
		&opp.ID, &opp.Codigo, &opp.NomeTecnico, &opp.NomeSimples, &opp.Descricao,
		&opp.Categoria, &opp.Subcategoria,
		&tributos, &criterios, &obrig, &pontuacao,
		&opp.EconomiaTipo, &opp.EconomiaPercentualMin, &opp.EconomiaPercentualMax, &opp.EconomiaBase,
		&opp.Complexidade, &opp.RiscoFiscal, &opp.RiscoDescricao,
		&opp.TempoImplementacao, &opp.TempoRetorno, &opp.BaseLegal,
		&opp.RequerContador, &opp.RequerAdvogado, &opp.RequerCertificacao, &opp.RequerSistema,
		&opp.VigenciaApos, &opp.VigenciaAte, &opp.IsActive, &opp.CreatedAt, &opp.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(tributos, &opp.TributosAfetados); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(criterios, &opp.Criterios); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(obrig, &opp.CriteriosObrigatorios); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(pontuacao, &opp.CriteriosPontuacao); err != nil {
		return nil, err
	}
	return &opp, nil
}
