package fiscaldoc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"tributech-backend/internal/models"
)

// Fixed rates used when the NCM-based remote calculation is unavailable.
const (
	fallbackCBSRate    = 0.088
	fallbackIBSUfRate  = 0.0965
	fallbackIBSMunRate = 0.0535
)

// RateCalculator computes reform taxes for a parsed document. The production
// implementation calls the external NCM rate service; tests inject fakes.
type RateCalculator interface {
	Calculate(ctx context.Context, doc *models.FiscalDocument) (models.ReformTaxes, error)
}

// ── HTTP client ──────────────────────────────────────────────────

// HTTPRateClient calls the external reform-rate API with the document's
// item lines so rates can be resolved per NCM.
type HTTPRateClient struct {
	baseURL string
	client  *http.Client
}

func NewHTTPRateClient(baseURL string) *HTTPRateClient {
	return &HTTPRateClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type rateRequest struct {
	DocumentType string            `json:"documentType"`
	IssuerUF     string            `json:"issuerUf"`
	RecipientUF  string            `json:"recipientUf"`
	Items        []rateRequestItem `json:"items"`
}

type rateRequestItem struct {
	NCM   string  `json:"ncm"`
	CFOP  string  `json:"cfop"`
	Total float64 `json:"total"`
}

func (c *HTTPRateClient) Calculate(ctx context.Context, doc *models.FiscalDocument) (models.ReformTaxes, error) {
	req := rateRequest{
		DocumentType: doc.DocumentType,
		IssuerUF:     doc.IssuerUF,
		RecipientUF:  doc.RecipientUF,
	}
	for _, item := range doc.Items {
		req.Items = append(req.Items, rateRequestItem{NCM: item.NCM, CFOP: item.CFOP, Total: item.Total})
	}

	body, err := json.Marshal(req)
	if err != nil {
		return models.ReformTaxes{}, fmt.Errorf("encode rate request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/reform-taxes", bytes.NewReader(body))
	if err != nil {
		return models.ReformTaxes{}, fmt.Errorf("build rate request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return models.ReformTaxes{}, fmt.Errorf("call rate service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.ReformTaxes{}, fmt.Errorf("rate service returned %d", resp.StatusCode)
	}

	var taxes models.ReformTaxes
	if err := json.NewDecoder(resp.Body).Decode(&taxes); err != nil {
		return models.ReformTaxes{}, fmt.Errorf("decode rate response: %w", err)
	}
	return taxes, nil
}

// ── Reform estimator ─────────────────────────────────────────────

// ReformEstimator produces CBS/IBS estimates, preferring the remote
// NCM-based calculation and degrading to fixed rates when it fails.
type ReformEstimator struct {
	calc RateCalculator
}

// NewReformEstimator wires the estimator. A nil calculator means fixed
// rates are always used, which is the configuration without REFORM_API_URL.
func NewReformEstimator(calc RateCalculator) *ReformEstimator {
	return &ReformEstimator{calc: calc}
}

// Estimate returns the reform taxes for doc. The remote service is tried
// at most twice (one retry); any failure falls back to the fixed-rate
// approximation rather than failing the document.
func (e *ReformEstimator) Estimate(ctx context.Context, doc *models.FiscalDocument) models.ReformTaxes {
	if e.calc != nil {
		for attempt := 1; attempt <= 2; attempt++ {
			taxes, err := e.calc.Calculate(ctx, doc)
			if err == nil {
				return taxes
			}
			log.Printf("[reform] rate calculation attempt %d failed: %v", attempt, err)
		}
	}
	return FixedRateTaxes(doc)
}

// FixedRateTaxes applies the reference CBS 8.8%, IBS-UF 9.65% and
// IBS-Municipal 5.35% rates over the document's product/service total.
// Imposto Seletivo is 0 since it depends on NCM classification.
func FixedRateTaxes(doc *models.FiscalDocument) models.ReformTaxes {
	base := doc.ProductTotal
	return models.ReformTaxes{
		CBS:             round2(base * fallbackCBSRate),
		IBSUf:           round2(base * fallbackIBSUfRate),
		IBSMun:          round2(base * fallbackIBSMunRate),
		ImpostoSeletivo: 0,
		Simulated:       true,
	}
}

// Compare returns the absolute and relative difference between the reform
// estimate and the document's current tax load. A document with no current
// taxes yields a 0 percentage instead of dividing by zero.
func Compare(doc *models.FiscalDocument, reform models.ReformTaxes) (diffValue, diffPercent float64) {
	current := doc.CurrentTaxTotal()
	diffValue = round2(reform.Total() - current)
	if current == 0 {
		return diffValue, 0
	}
	diffPercent = round2(diffValue / current * 100)
	return diffValue, diffPercent
}
