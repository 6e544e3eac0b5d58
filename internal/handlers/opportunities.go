package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"tributech-backend/internal/ctxkeys"
	"tributech-backend/internal/database"
	"tributech-backend/internal/models"
)

// OpportunityHandler manages the strategy catalog (admin) and each user's
// persisted matches.
type OpportunityHandler struct {
	db database.Service
}

// NewOpportunityHandler creates an OpportunityHandler.
func NewOpportunityHandler(db database.Service) *OpportunityHandler {
	return &OpportunityHandler{db: db}
}

// ── Catalog (admin) ──────────────────────────────────────────────

// ListCatalog returns all catalog entries, active and inactive.
func (h *OpportunityHandler) ListCatalog(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	rows, err := pool.Query(ctx, `
		SELECT id, codigo, nome_tecnico, nome_simples, descricao, categoria, subcategoria,
		       tributos_afetados, criterios, criterios_obrigatorios, criterios_pontuacao,
		       economia_tipo, economia_percentual_min, economia_percentual_max, economia_base,
		       complexidade, risco_fiscal, risco_descricao, tempo_implementacao, tempo_retorno,
		       base_legal, requer_contador, requer_advogado, requer_certificacao, requer_sistema,
		       vigencia_apos, vigencia_ate, is_active, created_at::text, updated_at::text
		FROM tax_opportunities
		ORDER BY codigo
	`)
	if err != nil {
		log.Printf("Failed to list catalog: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to list opportunities")
		return
	}
	defer rows.Close()

	catalog := []*models.TaxOpportunity{}
	for rows.Next() {
		opp, err := scanOpportunity(rows)
		if err != nil {
			log.Printf("Failed to scan opportunity: %v", err)
			JSONError(w, http.StatusInternalServerError, "Failed to list opportunities")
			return
		}
		catalog = append(catalog, opp)
	}

	JSON(w, http.StatusOK, catalog)
}

// CreateOpportunity inserts a catalog entry.
func (h *OpportunityHandler) CreateOpportunity(w http.ResponseWriter, r *http.Request) {
	userID, _ := r.Context().Value(ctxkeys.UserID).(string)

	var req models.UpsertOpportunityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		JSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":   "Validation failed",
			"details": errs,
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	tributos, criterios, obrig, pontuacao := marshalOpportunityJSON(&req)
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	var id string
	err := pool.QueryRow(ctx, `
		INSERT INTO tax_opportunities (
			codigo, nome_tecnico, nome_simples, descricao, categoria, subcategoria,
			tributos_afetados, criterios, criterios_obrigatorios, criterios_pontuacao,
			economia_tipo, economia_percentual_min, economia_percentual_max, economia_base,
			complexidade, risco_fiscal, risco_descricao, tempo_implementacao, tempo_retorno,
			base_legal, requer_contador, requer_advogado, requer_certificacao, requer_sistema,
			vigencia_apos, vigencia_ate, is_active
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27
		)
		RETURNING id
	`, req.Codigo, req.NomeTecnico, req.NomeSimples, req.Descricao, req.Categoria, req.Subcategoria,
		tributos, criterios, obrig, pontuacao,
		req.EconomiaTipo, req.EconomiaPercentualMin, req.EconomiaPercentualMax, req.EconomiaBase,
		defaultString(req.Complexidade, "media"), defaultString(req.RiscoFiscal, "baixo"),
		req.RiscoDescricao, req.TempoImplementacao, req.TempoRetorno, req.BaseLegal,
		req.RequerContador, req.RequerAdvogado, req.RequerCertificacao, req.RequerSistema,
		req.VigenciaApos, req.VigenciaAte, isActive,
	).Scan(&id)
	if err != nil {
		if isDuplicateKeyError(err) {
			JSONError(w, http.StatusConflict, "An opportunity with this code already exists")
			return
		}
		log.Printf("Failed to create opportunity: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to create opportunity")
		return
	}

	logActivity(pool, userID, "created", "opportunity", id, map[string]interface{}{
		"codigo": req.Codigo,
	})

	JSON(w, http.StatusCreated, map[string]string{"id": id})
}

// UpdateOpportunity replaces a catalog entry's fields.
func (h *OpportunityHandler) UpdateOpportunity(w http.ResponseWriter, r *http.Request) {
	userID, _ := r.Context().Value(ctxkeys.UserID).(string)
	id := chi.URLParam(r, "id")

	var req models.UpsertOpportunityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		JSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":   "Validation failed",
			"details": errs,
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	tributos, criterios, obrig, pontuacao := marshalOpportunityJSON(&req)
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	tag, err := pool.Exec(ctx, `
		UPDATE tax_opportunities SET
			codigo = $2, nome_tecnico = $3, nome_simples = $4, descricao = $5,
			categoria = $6, subcategoria = $7,
			tributos_afetados = $8, criterios = $9, criterios_obrigatorios = $10,
			criterios_pontuacao = $11,
			economia_tipo = $12, economia_percentual_min = $13, economia_percentual_max = $14,
			economia_base = $15,
			complexidade = $16, risco_fiscal = $17, risco_descricao = $18,
			tempo_implementacao = $19, tempo_retorno = $20, base_legal = $21,
			requer_contador = $22, requer_advogado = $23, requer_certificacao = $24,
			requer_sistema = $25, vigencia_apos = $26, vigencia_ate = $27,
			is_active = $28, updated_at = NOW()
		WHERE id = $1
	`, id, req.Codigo, req.NomeTecnico, req.NomeSimples, req.Descricao, req.Categoria, req.Subcategoria,
		tributos, criterios, obrig, pontuacao,
		req.EconomiaTipo, req.EconomiaPercentualMin, req.EconomiaPercentualMax, req.EconomiaBase,
		defaultString(req.Complexidade, "media"), defaultString(req.RiscoFiscal, "baixo"),
		req.RiscoDescricao, req.TempoImplementacao, req.TempoRetorno, req.BaseLegal,
		req.RequerContador, req.RequerAdvogado, req.RequerCertificacao, req.RequerSistema,
		req.VigenciaApos, req.VigenciaAte, isActive)
	if err != nil {
		if isDuplicateKeyError(err) {
			JSONError(w, http.StatusConflict, "An opportunity with this code already exists")
			return
		}
		log.Printf("Failed to update opportunity %s: %v", id, err)
		JSONError(w, http.StatusInternalServerError, "Failed to update opportunity")
		return
	}
	if tag.RowsAffected() == 0 {
		JSONError(w, http.StatusNotFound, "Opportunity not found")
		return
	}

	logActivity(pool, userID, "updated", "opportunity", id, nil)

	JSON(w, http.StatusOK, map[string]bool{"success": true})
}

// DeactivateOpportunity soft-deletes a catalog entry. Existing matches
// keep their history; the entry just stops matching.
func (h *OpportunityHandler) DeactivateOpportunity(w http.ResponseWriter, r *http.Request) {
	userID, _ := r.Context().Value(ctxkeys.UserID).(string)
	id := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	tag, err := pool.Exec(ctx, `
		UPDATE tax_opportunities SET is_active = FALSE, updated_at = NOW() WHERE id = $1
	`, id)
	if err != nil {
		log.Printf("Failed to deactivate opportunity %s: %v", id, err)
		JSONError(w, http.StatusInternalServerError, "Failed to deactivate opportunity")
		return
	}
	if tag.RowsAffected() == 0 {
		JSONError(w, http.StatusNotFound, "Opportunity not found")
		return
	}

	logActivity(pool, userID, "deactivated", "opportunity", id, nil)

	JSON(w, http.StatusOK, map[string]bool{"success": true})
}

// ── User matches ─────────────────────────────────────────────────

// ListMatches returns the caller's persisted matches joined with their
// catalog entries, optionally filtered by ?status=.
func (h *OpportunityHandler) ListMatches(w http.ResponseWriter, r *http.Request) {
	userID, _ := r.Context().Value(ctxkeys.UserID).(string)

	status := r.URL.Query().Get("status")
	if status != "" && !models.ValidMatchStatuses[status] {
		JSONError(w, http.StatusBadRequest, "Invalid status filter")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	rows, err := pool.Query(ctx, `
		SELECT co.id, co.opportunity_id, co.match_score, co.match_reasons, co.missing_criteria,
		       co.economia_mensal_min, co.economia_mensal_max,
		       co.economia_anual_min, co.economia_anual_max,
		       co.quick_win, co.alto_impacto, co.prioridade, co.status,
		       co.created_at::text, co.updated_at::text,
		       o.codigo, o.nome_simples, o.categoria, o.complexidade, o.risco_fiscal
		FROM company_opportunities co
		JOIN tax_opportunities o ON o.id = co.opportunity_id
		WHERE co.user_id = $1 AND ($2 = '' OR co.status = $2)
		ORDER BY co.quick_win DESC, co.economia_anual_max DESC
	`, userID, status)
	if err != nil {
		log.Printf("Failed to list matches for %s: %v", userID, err)
		JSONError(w, http.StatusInternalServerError, "Failed to list matches")
		return
	}
	defer rows.Close()

	type matchRow struct {
		models.CompanyOpportunityMatch
		Codigo       string `json:"code"`
		Nome         string `json:"name"`
		Categoria    string `json:"category"`
		Complexidade string `json:"complexidade"`
		RiscoFiscal  string `json:"risco_fiscal"`
	}

	matches := []matchRow{}
	for rows.Next() {
		var m matchRow
		var reasons, missing []byte
		err := rows.Scan(
			&m.ID, &m.OpportunityID, &m.MatchScore, &reasons, &missing,
			&m.EconomiaMensalMin, &m.EconomiaMensalMax,
			&m.EconomiaAnualMin, &m.EconomiaAnualMax,
			&m.QuickWin, &m.AltoImpacto, &m.Prioridade, &m.Status,
			&m.CreatedAt, &m.UpdatedAt,
			&m.Codigo, &m.Nome, &m.Categoria, &m.Complexidade, &m.RiscoFiscal,
		)
		if err != nil {
			log.Printf("Failed to scan match row: %v", err)
			JSONError(w, http.StatusInternalServerError, "Failed to list matches")
			return
		}
		m.UserID = userID
		if err := json.Unmarshal(reasons, &m.MatchReasons); err != nil {
			log.Printf("Failed to decode match reasons: %v", err)
			JSONError(w, http.StatusInternalServerError, "Failed to list matches")
			return
		}
		if err := json.Unmarshal(missing, &m.MissingCriteria); err != nil {
			log.Printf("Failed to decode missing criteria: %v", err)
			JSONError(w, http.StatusInternalServerError, "Failed to list matches")
			return
		}
		matches = append(matches, m)
	}

	JSON(w, http.StatusOK, matches)
}

// UpdateMatchStatus moves one of the caller's matches through its workflow
// (nova → em_analise → implementada/descartada).
func (h *OpportunityHandler) UpdateMatchStatus(w http.ResponseWriter, r *http.Request) {
	userID, _ := r.Context().Value(ctxkeys.UserID).(string)
	id := chi.URLParam(r, "id")

	var req models.UpdateMatchStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		JSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":   "Validation failed",
			"details": errs,
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	// Scoped by user_id so a caller can only touch their own matches.
	tag, err := pool.Exec(ctx, `
		UPDATE company_opportunities SET status = $3, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
	`, id, userID, req.Status)
	if err != nil {
		log.Printf("Failed to update match %s: %v", id, err)
		JSONError(w, http.StatusInternalServerError, "Failed to update match")
		return
	}
	if tag.RowsAffected() == 0 {
		JSONError(w, http.StatusNotFound, "Match not found")
		return
	}

	logActivity(pool, userID, "status_changed", "match", id, map[string]interface{}{
		"status": req.Status,
	})

	JSON(w, http.StatusOK, map[string]bool{"success": true})
}

// ── Helpers ──────────────────────────────────────────────────────

func marshalOpportunityJSON(req *models.UpsertOpportunityRequest) (tributos, criterios, obrig, pontuacao []byte) {
	tributos, _ = json.Marshal(orEmptyList(req.TributosAfetados))
	criterios, _ = json.Marshal(orEmptyMap(req.Criterios))
	obrig, _ = json.Marshal(orEmptyMap(req.CriteriosObrigatorios))
	pontuacao, _ = json.Marshal(orEmptyMap(req.CriteriosPontuacao))
	return
}

func orEmptyList(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

func orEmptyMap(v map[string]interface{}) map[string]interface{} {
	if v == nil {
		return map[string]interface{}{}
	}
	return v
}

func defaultString(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
