package models

// ── Import Status ────────────────────────────────────────────────

const (
	ImportStatusPending   = "PENDING"
	ImportStatusCompleted = "COMPLETED"
	ImportStatusError     = "ERROR"
)

// ── Fiscal Document Types ────────────────────────────────────────

const (
	DocTypeNFe  = "NFe"  // goods
	DocTypeNFSe = "NFSe" // services
	DocTypeCTe  = "CTe"  // freight
)

// ── Extracted Fiscal Document ────────────────────────────────────

// FiscalDocument holds the fields extracted from one NF-e/NFS-e/CT-e XML.
type FiscalDocument struct {
	DocumentType  string         `json:"documentType"`
	Number        string         `json:"number"`
	Series        string         `json:"series"`
	IssueDate     string         `json:"issueDate"`
	IssuerCNPJ    string         `json:"issuerCnpj"`
	IssuerName    string         `json:"issuerName"`
	IssuerUF      string         `json:"issuerUf"`
	IssuerCity    string         `json:"issuerCity"`
	RecipientDoc  string         `json:"recipientDoc"` // CNPJ or CPF
	RecipientName string         `json:"recipientName"`
	RecipientUF   string         `json:"recipientUf"`
	RecipientCity string         `json:"recipientCity"`
	ProductTotal  float64        `json:"productTotal"`
	DocumentTotal float64        `json:"documentTotal"`
	TotalICMS     float64        `json:"totalIcms"`
	TotalPIS      float64        `json:"totalPis"`
	TotalCOFINS   float64        `json:"totalCofins"`
	TotalIPI      float64        `json:"totalIpi"`
	Items         []DocumentItem `json:"items"`
}

// CurrentTaxTotal sums the legacy-regime taxes carried by the document.
func (d *FiscalDocument) CurrentTaxTotal() float64 {
	return d.TotalICMS + d.TotalPIS + d.TotalCOFINS + d.TotalIPI
}

// DocumentItem is one <det> line of a fiscal document.
// Per-line tax values default to 0 when the corresponding block is absent.
type DocumentItem struct {
	Code        string  `json:"code"`
	Description string  `json:"description"`
	NCM         string  `json:"ncm"`
	CFOP        string  `json:"cfop"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
	Total       float64 `json:"total"`
	ICMS        float64 `json:"icms"`
	PIS         float64 `json:"pis"`
	COFINS      float64 `json:"cofins"`
	IPI         float64 `json:"ipi"`
}

// ── Reform Tax Estimate ──────────────────────────────────────────

// ReformTaxes is the CBS/IBS estimate for one document.
// Simulated is true when the remote NCM-based calculation was unavailable
// and the fixed-rate approximation was used instead.
type ReformTaxes struct {
	CBS             float64 `json:"cbs"`
	IBSUf           float64 `json:"ibsUf"`
	IBSMun          float64 `json:"ibsMun"`
	ImpostoSeletivo float64 `json:"is"`
	Simulated       bool    `json:"simulated"`
}

// Total sums the reform-regime taxes.
func (r *ReformTaxes) Total() float64 {
	return r.CBS + r.IBSUf + r.IBSMun + r.ImpostoSeletivo
}

// ── Batch Processing ─────────────────────────────────────────────

// ProcessBatchRequest lists pre-created import records to process.
type ProcessBatchRequest struct {
	ImportIDs []string `json:"importIds"`
}

// Validate checks the batch request.
func (r *ProcessBatchRequest) Validate() map[string]string {
	errors := map[string]string{}
	if len(r.ImportIDs) == 0 {
		errors["importIds"] = "At least one import ID is required"
	}
	return errors
}

// BatchItemResult is the per-document outcome of a successful parse.
type BatchItemResult struct {
	ImportID          string  `json:"importId"`
	AnalysisID        string  `json:"analysisId"`
	DocumentNumber    string  `json:"documentNumber"`
	DocumentType      string  `json:"documentType"`
	CurrentTaxTotal   float64 `json:"currentTaxTotal"`
	ReformTaxTotal    float64 `json:"reformTaxTotal"`
	DifferenceValue   float64 `json:"differenceValue"`
	DifferencePercent float64 `json:"differencePercent"`
	IsBeneficial      bool    `json:"isBeneficial"`
}

// BatchItemError records one failed import without aborting the batch.
type BatchItemError struct {
	ImportID string `json:"importId"`
	Error    string `json:"error"`
}

// ProcessBatchResponse is the always-200 mixed manifest.
type ProcessBatchResponse struct {
	Success      bool              `json:"success"`
	Processed    int               `json:"processed"`
	Errors       int               `json:"errors"`
	Results      []BatchItemResult `json:"results"`
	ErrorDetails []BatchItemError  `json:"errorDetails"`
}
