package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"tributech-backend/internal/taxcalc"
)

// CalculatorHandler exposes the regime comparison and Split Payment
// projection. Pure arithmetic, no persistence.
type CalculatorHandler struct{}

// NewCalculatorHandler creates a CalculatorHandler.
func NewCalculatorHandler() *CalculatorHandler {
	return &CalculatorHandler{}
}

// CompareRegimes computes the annual federal tax load under Simples,
// Presumido and Real for the submitted figures.
func (h *CalculatorHandler) CompareRegimes(w http.ResponseWriter, r *http.Request) {
	var req taxcalc.RegimeInput
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

	cmp, err := taxcalc.Compare(req)
	if err != nil {
		log.Printf("Regime comparison failed: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to compare regimes")
		return
	}

	JSON(w, http.StatusOK, cmp)
}

// SplitPayment projects the 2026-2033 withholding transition for the
// submitted monthly revenue.
func (h *CalculatorHandler) SplitPayment(w http.ResponseWriter, r *http.Request) {
	var req taxcalc.SplitPaymentInput
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

	JSON(w, http.StatusOK, map[string]interface{}{
		"projection": taxcalc.ProjectSplitPayment(req),
	})
}
