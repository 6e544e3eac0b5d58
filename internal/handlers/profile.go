package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"tributech-backend/internal/ctxkeys"
	"tributech-backend/internal/database"
	"tributech-backend/internal/models"
)

// ProfileHandler manages the company questionnaire. The wizard saves
// partial answers step by step; the stored JSONB document accumulates
// fields across saves.
type ProfileHandler struct {
	db database.Service
}

// NewProfileHandler creates a ProfileHandler.
func NewProfileHandler(db database.Service) *ProfileHandler {
	return &ProfileHandler{db: db}
}

// GetProfile returns the caller's company profile. 404 when the wizard
// was never started.
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, _ := r.Context().Value(ctxkeys.UserID).(string)

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	var (
		data            []byte
		currentStep     int
		profileComplete bool
		updatedAt       string
	)
	err := pool.QueryRow(ctx, `
		SELECT data, current_step, profile_complete, updated_at::text
		FROM company_profile WHERE user_id = $1
	`, userID).Scan(&data, &currentStep, &profileComplete, &updatedAt)
	if err != nil {
		JSONError(w, http.StatusNotFound, "Profile not found")
		return
	}

	var fields map[string]interface{}
	if err := json.Unmarshal(data, &fields); err != nil {
		log.Printf("Failed to decode profile for %s: %v", userID, err)
		JSONError(w, http.StatusInternalServerError, "Failed to load profile")
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"data":            fields,
		"currentStep":     currentStep,
		"profileComplete": profileComplete,
		"updatedAt":       updatedAt,
	})
}

// SaveStep upserts one wizard step. The submitted fields are merged over
// the stored JSONB document, so earlier steps survive later saves.
func (h *ProfileHandler) SaveStep(w http.ResponseWriter, r *http.Request) {
	userID, _ := r.Context().Value(ctxkeys.UserID).(string)

	var req models.SaveProfileStepRequest
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

	stepJSON, err := json.Marshal(req.Data)
	if err != nil {
		JSONError(w, http.StatusBadRequest, "Invalid profile data")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	var currentStep int
	var profileComplete bool
	err = pool.QueryRow(ctx, `
		INSERT INTO company_profile (user_id, data, current_step, profile_complete)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE SET
			data             = company_profile.data || EXCLUDED.data,
			current_step     = GREATEST(company_profile.current_step, EXCLUDED.current_step),
			profile_complete = company_profile.profile_complete OR EXCLUDED.profile_complete,
			updated_at       = NOW()
		RETURNING current_step, profile_complete
	`, userID, stepJSON, req.CurrentStep, req.Complete,
	).Scan(&currentStep, &profileComplete)
	if err != nil {
		log.Printf("Failed to save profile step for %s: %v", userID, err)
		JSONError(w, http.StatusInternalServerError, "Failed to save profile")
		return
	}

	logActivity(pool, userID, "saved", "profile_step", userID, map[string]interface{}{
		"step":     req.CurrentStep,
		"complete": profileComplete,
	})

	JSON(w, http.StatusOK, map[string]interface{}{
		"success":         true,
		"currentStep":     currentStep,
		"profileComplete": profileComplete,
	})
}

// loadProfile reads and decodes a user's profile row.
func loadProfile(ctx context.Context, pool *pgxpool.Pool, userID string) (*models.CompanyProfile, bool, error) {
	var data []byte
	var complete bool
	err := pool.QueryRow(ctx, `
		SELECT data, profile_complete FROM company_profile WHERE user_id = $1
	`, userID).Scan(&data, &complete)
	if err != nil {
		return nil, false, err
	}

	var profile models.CompanyProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, false, err
	}
	return &profile, complete, nil
}
