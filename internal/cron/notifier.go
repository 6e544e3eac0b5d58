package cron

import (
	"context"
	"fmt"
	"log"
	"time"

	"tributech-backend/internal/database"
)

// StartNotifier launches a background goroutine that runs once per day
// (and once immediately) to warn users about matched opportunities whose
// validity window is about to close.
func StartNotifier(db database.Service) {
	go func() {
		runCycle(db)

		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()

		for range ticker.C {
			runCycle(db)
		}
	}()

	log.Println("[cron] vigência notifier started – runs every 24 h")
}

// runCycle queries matches still in "nova" whose opportunity expires within
// 30 days and inserts a notification per user. Notifications are
// de-duplicated by (user_id, entity_id) on the same day.
func runCycle(db database.Service) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool := db.GetPool()
	now := time.Now()

	rows, err := pool.Query(ctx, `
		SELECT co.id, co.user_id, o.nome_simples, o.vigencia_ate, co.economia_anual_max
		FROM company_opportunities co
		JOIN tax_opportunities o ON o.id = co.opportunity_id
		WHERE co.status = 'nova'
		  AND o.is_active = TRUE
		  AND o.vigencia_ate IS NOT NULL
		  AND o.vigencia_ate >= CURRENT_DATE
		  AND o.vigencia_ate <= (CURRENT_DATE + INTERVAL '30 days')
	`)
	if err != nil {
		log.Printf("[cron] error querying expiring matches: %v", err)
		return
	}
	defer rows.Close()

	type alertRow struct {
		MatchID     string
		UserID      string
		Nome        string
		VigenciaAte time.Time
		AnualMax    int64
	}

	var alerts []alertRow
	for rows.Next() {
		var a alertRow
		if err := rows.Scan(&a.MatchID, &a.UserID, &a.Nome, &a.VigenciaAte, &a.AnualMax); err != nil {
			log.Printf("[cron] scan error: %v", err)
			continue
		}
		alerts = append(alerts, a)
	}

	if len(alerts) == 0 {
		log.Println("[cron] no expiring opportunity windows found")
		return
	}

	inserted := 0
	today := now.Format("2006-01-02")

	for _, a := range alerts {
		daysLeft := int(time.Until(a.VigenciaAte).Hours() / 24)
		if daysLeft < 0 {
			daysLeft = 0
		}

		title := fmt.Sprintf("⏳ %s – janela encerrando", a.Nome)
		message := fmt.Sprintf(
			"A oportunidade %q expira em %d dias (economia anual estimada de até R$ %d). Avalie antes do fim da vigência.",
			a.Nome, daysLeft, a.AnualMax,
		)

		// De-duplicate: skip if we already sent a notification for this
		// exact match + user today.
		var exists bool
		_ = pool.QueryRow(ctx, `
			SELECT EXISTS(
				SELECT 1 FROM notifications
				WHERE user_id     = $1
				  AND entity_type = 'match'
				  AND entity_id   = $2
				  AND created_at::date = $3::date
			)
		`, a.UserID, a.MatchID, today).Scan(&exists)

		if exists {
			continue
		}

		_, err := pool.Exec(ctx, `
			INSERT INTO notifications (user_id, title, message, type, entity_type, entity_id)
			VALUES ($1, $2, $3, 'opportunity_expiring', 'match', $4)
		`, a.UserID, title, message, a.MatchID)
		if err != nil {
			log.Printf("[cron] insert notification error: %v", err)
			continue
		}
		inserted++
	}

	log.Printf("[cron] vigência check complete – %d new notifications from %d alerts", inserted, len(alerts))
}
