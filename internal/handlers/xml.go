package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"tributech-backend/internal/ctxkeys"
	"tributech-backend/internal/database"
	"tributech-backend/internal/fiscaldoc"
	"tributech-backend/internal/models"
	"tributech-backend/internal/storage"
)

// Upload limits for fiscal XML files.
const maxXMLSize = 5 << 20 // 5 MB

// XMLHandler ingests fiscal document XMLs and runs the reform-tax analysis.
type XMLHandler struct {
	db       database.Service
	store    storage.Store
	reform   *fiscaldoc.ReformEstimator
	batchMax int
}

// NewXMLHandler creates an XMLHandler. batchMax caps how many imports one
// batch request may process.
func NewXMLHandler(db database.Service, store storage.Store, reform *fiscaldoc.ReformEstimator, batchMax int) *XMLHandler {
	return &XMLHandler{db: db, store: store, reform: reform, batchMax: batchMax}
}

// Upload accepts one XML file (multipart "file" field), stores it, and
// creates a PENDING import record. Parsing happens later, in ProcessBatch.
func (h *XMLHandler) Upload(w http.ResponseWriter, r *http.Request) {
	userID, _ := r.Context().Value(ctxkeys.UserID).(string)

	r.Body = http.MaxBytesReader(w, r.Body, maxXMLSize)

	if err := r.ParseMultipartForm(maxXMLSize); err != nil {
		JSONError(w, http.StatusBadRequest, "File too large. Maximum size is 5MB.")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		JSONError(w, http.StatusBadRequest, "Missing 'file' field in form data.")
		return
	}
	defer file.Close()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".xml") {
		JSONError(w, http.StatusBadRequest, "Only .xml files are accepted.")
		return
	}

	// Storage path: xml/<user>/<uuid>.xml keeps uploads collision-free
	// without trusting the original filename.
	storagePath := fmt.Sprintf("xml/%s/%s.xml", userID, uuid.NewString())

	info, err := h.store.Save(r.Context(), storagePath, file, "application/xml")
	if err != nil {
		log.Printf("Failed to store XML upload: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to save file.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	var importID string
	err = pool.QueryRow(ctx, `
		INSERT INTO xml_imports (user_id, file_path, file_name, file_size, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, userID, storagePath, sanitizeFilename(header.Filename), info.FileSize, models.ImportStatusPending,
	).Scan(&importID)
	if err != nil {
		log.Printf("Failed to create import record: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to register import.")
		return
	}

	logActivity(pool, userID, "uploaded", "xml_import", importID, map[string]interface{}{
		"fileName": header.Filename,
	})

	JSON(w, http.StatusCreated, map[string]interface{}{
		"importId": importID,
		"fileName": sanitizeFilename(header.Filename),
		"fileSize": info.FileSize,
		"status":   models.ImportStatusPending,
	})
}

// ListImports returns the caller's import records, newest first.
func (h *XMLHandler) ListImports(w http.ResponseWriter, r *http.Request) {
	userID, _ := r.Context().Value(ctxkeys.UserID).(string)

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	rows, err := pool.Query(ctx, `
		SELECT id, file_name, file_size, status, error, created_at::text, updated_at::text
		FROM xml_imports
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		log.Printf("Failed to list imports for %s: %v", userID, err)
		JSONError(w, http.StatusInternalServerError, "Failed to list imports")
		return
	}
	defer rows.Close()

	type importRow struct {
		ID        string `json:"id"`
		FileName  string `json:"fileName"`
		FileSize  int64  `json:"fileSize"`
		Status    string `json:"status"`
		Error     string `json:"error,omitempty"`
		CreatedAt string `json:"createdAt"`
		UpdatedAt string `json:"updatedAt"`
	}

	imports := []importRow{}
	for rows.Next() {
		var row importRow
		if err := rows.Scan(&row.ID, &row.FileName, &row.FileSize, &row.Status,
			&row.Error, &row.CreatedAt, &row.UpdatedAt); err != nil {
			log.Printf("Failed to scan import row: %v", err)
			JSONError(w, http.StatusInternalServerError, "Failed to list imports")
			return
		}
		imports = append(imports, row)
	}

	JSON(w, http.StatusOK, imports)
}

// ProcessBatch parses and analyzes a set of PENDING imports. Each item is
// processed in isolation: one bad document marks its own record ERROR and
// lands in errorDetails without aborting the rest. Always responds 200
// with the mixed manifest.
func (h *XMLHandler) ProcessBatch(w http.ResponseWriter, r *http.Request) {
	userID, _ := r.Context().Value(ctxkeys.UserID).(string)

	var req models.ProcessBatchRequest
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

	if len(req.ImportIDs) > h.batchMax {
		JSONError(w, http.StatusBadRequest,
			fmt.Sprintf("Batch too large. Maximum is %d imports per request.", h.batchMax))
		return
	}

	// Batch parsing can be slow with the remote rate service in the loop.
	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	resp := runBatch(req.ImportIDs,
		func(importID string) (*models.BatchItemResult, error) {
			return h.processOne(ctx, pool, userID, importID)
		},
		func(importID string, cause error) {
			h.markImportError(ctx, pool, userID, importID, cause)
		})

	logActivity(pool, userID, "processed", "xml_batch", "", map[string]interface{}{
		"processed": resp.Processed,
		"errors":    resp.Errors,
	})

	JSON(w, http.StatusOK, resp)
}

// runBatch walks the import ids in order, processing each in isolation. A
// failed item lands in errorDetails and triggers onError for its record; the
// remaining items still run.
func runBatch(importIDs []string,
	process func(importID string) (*models.BatchItemResult, error),
	onError func(importID string, cause error),
) models.ProcessBatchResponse {
	resp := models.ProcessBatchResponse{
		Success:      true,
		Results:      []models.BatchItemResult{},
		ErrorDetails: []models.BatchItemError{},
	}

	for _, importID := range importIDs {
		result, err := process(importID)
		if err != nil {
			resp.Errors++
			resp.ErrorDetails = append(resp.ErrorDetails, models.BatchItemError{
				ImportID: importID,
				Error:    err.Error(),
			})
			onError(importID, err)
			continue
		}
		resp.Processed++
		resp.Results = append(resp.Results, *result)
	}

	return resp
}

// processOne downloads, parses and analyzes a single import.
func (h *XMLHandler) processOne(ctx context.Context, pool *pgxpool.Pool, userID, importID string) (*models.BatchItemResult, error) {
	var filePath string
	err := pool.QueryRow(ctx, `
		SELECT file_path FROM xml_imports WHERE id = $1 AND user_id = $2
	`, importID, userID).Scan(&filePath)
	if err != nil {
		return nil, fmt.Errorf("import not found")
	}

	data, err := h.store.Load(ctx, filePath)
	if err != nil {
		return nil, fmt.Errorf("download failed: %v", err)
	}

	doc, err := fiscaldoc.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse failed: %v", err)
	}

	reform := h.reform.Estimate(ctx, doc)
	diffValue, diffPercent := fiscaldoc.Compare(doc, reform)

	docJSON, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode document: %v", err)
	}

	var analysisID string
	err = pool.QueryRow(ctx, `
		INSERT INTO xml_analysis (
			import_id, user_id, document, current_tax_total, reform_tax_total,
			cbs, ibs_uf, ibs_mun, imposto_seletivo,
			difference_value, difference_percent, simulated
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`, importID, userID, docJSON, doc.CurrentTaxTotal(), reform.Total(),
		reform.CBS, reform.IBSUf, reform.IBSMun, reform.ImpostoSeletivo,
		diffValue, diffPercent, reform.Simulated,
	).Scan(&analysisID)
	if err != nil {
		return nil, fmt.Errorf("save analysis: %v", err)
	}

	_, err = pool.Exec(ctx, `
		UPDATE xml_imports SET status = $2, error = '', updated_at = NOW() WHERE id = $1
	`, importID, models.ImportStatusCompleted)
	if err != nil {
		return nil, fmt.Errorf("update import: %v", err)
	}

	return &models.BatchItemResult{
		ImportID:          importID,
		AnalysisID:        analysisID,
		DocumentNumber:    doc.Number,
		DocumentType:      doc.DocumentType,
		CurrentTaxTotal:   doc.CurrentTaxTotal(),
		ReformTaxTotal:    reform.Total(),
		DifferenceValue:   diffValue,
		DifferencePercent: diffPercent,
		// Reform costing less than today is the favorable outcome.
		IsBeneficial: diffValue < 0,
	}, nil
}

// markImportError flips the import record to ERROR with the failure message.
func (h *XMLHandler) markImportError(ctx context.Context, pool *pgxpool.Pool, userID, importID string, cause error) {
	_, err := pool.Exec(ctx, `
		UPDATE xml_imports SET status = $3, error = $4, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
	`, importID, userID, models.ImportStatusError, cause.Error())
	if err != nil {
		log.Printf("Failed to mark import %s as error: %v", importID, err)
	}
}

// ListAnalyses returns the caller's completed analyses, newest first.
func (h *XMLHandler) ListAnalyses(w http.ResponseWriter, r *http.Request) {
	userID, _ := r.Context().Value(ctxkeys.UserID).(string)

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	rows, err := pool.Query(ctx, `
		SELECT id, import_id, current_tax_total, reform_tax_total,
		       cbs, ibs_uf, ibs_mun, imposto_seletivo,
		       difference_value, difference_percent, simulated, created_at::text
		FROM xml_analysis
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		log.Printf("Failed to list analyses for %s: %v", userID, err)
		JSONError(w, http.StatusInternalServerError, "Failed to list analyses")
		return
	}
	defer rows.Close()

	type analysisRow struct {
		ID                string  `json:"id"`
		ImportID          string  `json:"importId"`
		CurrentTaxTotal   float64 `json:"currentTaxTotal"`
		ReformTaxTotal    float64 `json:"reformTaxTotal"`
		CBS               float64 `json:"cbs"`
		IBSUf             float64 `json:"ibsUf"`
		IBSMun            float64 `json:"ibsMun"`
		ImpostoSeletivo   float64 `json:"is"`
		DifferenceValue   float64 `json:"differenceValue"`
		DifferencePercent float64 `json:"differencePercent"`
		Simulated         bool    `json:"simulated"`
		CreatedAt         string  `json:"createdAt"`
	}

	analyses := []analysisRow{}
	for rows.Next() {
		var row analysisRow
		if err := rows.Scan(&row.ID, &row.ImportID, &row.CurrentTaxTotal, &row.ReformTaxTotal,
			&row.CBS, &row.IBSUf, &row.IBSMun, &row.ImpostoSeletivo,
			&row.DifferenceValue, &row.DifferencePercent, &row.Simulated, &row.CreatedAt); err != nil {
			log.Printf("Failed to scan analysis row: %v", err)
			JSONError(w, http.StatusInternalServerError, "Failed to list analyses")
			return
		}
		analyses = append(analyses, row)
	}

	JSON(w, http.StatusOK, analyses)
}

// sanitizeFilename removes path separators and unsafe characters.
func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, " ", "_")
	return name
}
