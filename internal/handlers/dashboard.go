package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"tributech-backend/internal/ctxkeys"
	"tributech-backend/internal/database"
)

// DashboardHandler aggregates the caller's matching and document-analysis
// figures for the overview screen.
type DashboardHandler struct {
	db database.Service
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(db database.Service) *DashboardHandler {
	return &DashboardHandler{db: db}
}

// dashboardMetrics is the overview payload.
type dashboardMetrics struct {
	ProfileComplete     bool  `json:"profileComplete"`
	TotalMatches        int   `json:"totalMatches"`
	QuickWins           int   `json:"quickWins"`
	Implemented         int   `json:"implemented"`
	EconomiaAnualMin    int64 `json:"economiaAnualMin"`
	EconomiaAnualMax    int64 `json:"economiaAnualMax"`
	ImportsPending      int   `json:"importsPending"`
	ImportsCompleted    int   `json:"importsCompleted"`
	ImportsFailed       int   `json:"importsFailed"`
	AnalysesSimulated   int   `json:"analysesSimulated"`
	UnreadNotifications int   `json:"unreadNotifications"`
}

// GetMetrics handles GET /api/dashboard/metrics.
func (h *DashboardHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	userID, _ := r.Context().Value(ctxkeys.UserID).(string)

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	pool := h.db.GetPool()
	metrics := dashboardMetrics{}

	// No profile row yet reads as incomplete.
	_ = pool.QueryRow(ctx, `
		SELECT profile_complete FROM company_profile WHERE user_id = $1
	`, userID).Scan(&metrics.ProfileComplete)

	err := pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE quick_win),
		       COUNT(*) FILTER (WHERE status = 'implementada'),
		       COALESCE(SUM(economia_anual_min) FILTER (WHERE status <> 'descartada'), 0),
		       COALESCE(SUM(economia_anual_max) FILTER (WHERE status <> 'descartada'), 0)
		FROM company_opportunities WHERE user_id = $1
	`, userID).Scan(&metrics.TotalMatches, &metrics.QuickWins, &metrics.Implemented,
		&metrics.EconomiaAnualMin, &metrics.EconomiaAnualMax)
	if err != nil {
		log.Printf("Error querying match metrics: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to fetch metrics")
		return
	}

	err = pool.QueryRow(ctx, `
		SELECT COUNT(*) FILTER (WHERE status = 'PENDING'),
		       COUNT(*) FILTER (WHERE status = 'COMPLETED'),
		       COUNT(*) FILTER (WHERE status = 'ERROR')
		FROM xml_imports WHERE user_id = $1
	`, userID).Scan(&metrics.ImportsPending, &metrics.ImportsCompleted, &metrics.ImportsFailed)
	if err != nil {
		log.Printf("Error querying import metrics: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to fetch metrics")
		return
	}

	err = pool.QueryRow(ctx, `
		SELECT COUNT(*) FILTER (WHERE simulated) FROM xml_analysis WHERE user_id = $1
	`, userID).Scan(&metrics.AnalysesSimulated)
	if err != nil {
		log.Printf("Error querying analysis metrics: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to fetch metrics")
		return
	}

	err = pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND read = FALSE
	`, userID).Scan(&metrics.UnreadNotifications)
	if err != nil {
		log.Printf("Error querying notifications: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to fetch metrics")
		return
	}

	JSON(w, http.StatusOK, metrics)
}

// ListNotifications returns the caller's notifications, newest first.
func (h *DashboardHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	userID, _ := r.Context().Value(ctxkeys.UserID).(string)

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	rows, err := pool.Query(ctx, `
		SELECT id, title, message, type, entity_type, entity_id::text, read, created_at::text
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT 100
	`, userID)
	if err != nil {
		log.Printf("Failed to list notifications for %s: %v", userID, err)
		JSONError(w, http.StatusInternalServerError, "Failed to list notifications")
		return
	}
	defer rows.Close()

	type notificationRow struct {
		ID         string  `json:"id"`
		Title      string  `json:"title"`
		Message    string  `json:"message"`
		Type       string  `json:"type"`
		EntityType string  `json:"entityType"`
		EntityID   *string `json:"entityId"`
		Read       bool    `json:"read"`
		CreatedAt  string  `json:"createdAt"`
	}

	notifications := []notificationRow{}
	for rows.Next() {
		var n notificationRow
		if err := rows.Scan(&n.ID, &n.Title, &n.Message, &n.Type,
			&n.EntityType, &n.EntityID, &n.Read, &n.CreatedAt); err != nil {
			log.Printf("Failed to scan notification: %v", err)
			JSONError(w, http.StatusInternalServerError, "Failed to list notifications")
			return
		}
		notifications = append(notifications, n)
	}

	JSON(w, http.StatusOK, notifications)
}

// MarkNotificationsRead flags all of the caller's notifications as read.
func (h *DashboardHandler) MarkNotificationsRead(w http.ResponseWriter, r *http.Request) {
	userID, _ := r.Context().Value(ctxkeys.UserID).(string)

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	_, err := pool.Exec(ctx, `
		UPDATE notifications SET read = TRUE WHERE user_id = $1 AND read = FALSE
	`, userID)
	if err != nil {
		log.Printf("Failed to mark notifications read for %s: %v", userID, err)
		JSONError(w, http.StatusInternalServerError, "Failed to update notifications")
		return
	}

	JSON(w, http.StatusOK, map[string]bool{"success": true})
}
