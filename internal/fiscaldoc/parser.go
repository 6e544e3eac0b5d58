// Package fiscaldoc extracts structured data from Brazilian electronic
// fiscal documents (NF-e, NFS-e, CT-e) and estimates reform-era CBS/IBS
// taxes against the current ICMS/PIS/COFINS/IPI load.
package fiscaldoc

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"tributech-backend/internal/models"
)

// ErrUnsupportedDocument is returned when the XML carries none of the
// known fiscal-document root elements.
var ErrUnsupportedDocument = errors.New("unsupported fiscal document")

// Parse extracts a FiscalDocument from raw XML. The document type is
// inferred from the payload element (infNFe / infCte / InfNfse); signature
// wrappers like nfeProc and cteProc are skipped transparently. Returns an
// error for unparseable input — callers treat that as a per-item failure,
// never a batch abort.
func Parse(data []byte) (*models.FiscalDocument, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil, ErrUnsupportedDocument
		}
		if err != nil {
			return nil, fmt.Errorf("invalid XML: %w", err)
		}

		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		switch se.Name.Local {
		case "infNFe":
			var inf infNFe
			if err := dec.DecodeElement(&inf, &se); err != nil {
				return nil, fmt.Errorf("decode NF-e: %w", err)
			}
			return inf.toDocument(), nil

		case "infCte":
			var inf infCTe
			if err := dec.DecodeElement(&inf, &se); err != nil {
				return nil, fmt.Errorf("decode CT-e: %w", err)
			}
			return inf.toDocument(), nil

		case "InfNfse", "infNfse":
			var inf infNFSe
			if err := dec.DecodeElement(&inf, &se); err != nil {
				return nil, fmt.Errorf("decode NFS-e: %w", err)
			}
			return inf.toDocument(), nil
		}
		// Any other element (nfeProc, NFe, Signature, ...) is a wrapper —
		// keep scanning for the payload.
	}
}

// ── NF-e ─────────────────────────────────────────────────────────

type endereco struct {
	UF   string `xml:"UF"`
	XMun string `xml:"xMun"`
}

type infNFe struct {
	Ide struct {
		NNF   string `xml:"nNF"`
		Serie string `xml:"serie"`
		DhEmi string `xml:"dhEmi"`
		DEmi  string `xml:"dEmi"` // layout 2.0 fallback
	} `xml:"ide"`
	Emit struct {
		CNPJ  string   `xml:"CNPJ"`
		XNome string   `xml:"xNome"`
		Ender endereco `xml:"enderEmit"`
	} `xml:"emit"`
	Dest struct {
		CNPJ  string   `xml:"CNPJ"`
		CPF   string   `xml:"CPF"`
		XNome string   `xml:"xNome"`
		Ender endereco `xml:"enderDest"`
	} `xml:"dest"`
	Det   []detLine `xml:"det"`
	Total struct {
		ICMSTot struct {
			VProd   string `xml:"vProd"`
			VNF     string `xml:"vNF"`
			VICMS   string `xml:"vICMS"`
			VPIS    string `xml:"vPIS"`
			VCOFINS string `xml:"vCOFINS"`
			VIPI    string `xml:"vIPI"`
		} `xml:"ICMSTot"`
	} `xml:"total"`
}

type detLine struct {
	Prod struct {
		CProd  string `xml:"cProd"`
		XProd  string `xml:"xProd"`
		NCM    string `xml:"NCM"`
		CFOP   string `xml:"CFOP"`
		QCom   string `xml:"qCom"`
		VUnCom string `xml:"vUnCom"`
		VProd  string `xml:"vProd"`
	} `xml:"prod"`
	Imposto struct {
		ICMS   icmsGroup   `xml:"ICMS"`
		IPI    ipiGroup    `xml:"IPI"`
		PIS    pisGroup    `xml:"PIS"`
		COFINS cofinsGroup `xml:"COFINS"`
	} `xml:"imposto"`
}

// icmsGroup covers the CST/CSOSN variants a line may carry. Absent blocks
// leave the value at 0.
type icmsGroup struct {
	ICMS00    vICMS `xml:"ICMS00"`
	ICMS10    vICMS `xml:"ICMS10"`
	ICMS20    vICMS `xml:"ICMS20"`
	ICMS51    vICMS `xml:"ICMS51"`
	ICMS70    vICMS `xml:"ICMS70"`
	ICMS90    vICMS `xml:"ICMS90"`
	ICMSSN101 struct {
		VCredICMSSN string `xml:"vCredICMSSN"`
	} `xml:"ICMSSN101"`
}

type vICMS struct {
	VICMS string `xml:"vICMS"`
}

func (g *icmsGroup) value() float64 {
	for _, raw := range []string{
		g.ICMS00.VICMS, g.ICMS10.VICMS, g.ICMS20.VICMS,
		g.ICMS51.VICMS, g.ICMS70.VICMS, g.ICMS90.VICMS,
		g.ICMSSN101.VCredICMSSN,
	} {
		if raw != "" {
			return parseValue(raw)
		}
	}
	return 0
}

type ipiGroup struct {
	IPITrib struct {
		VIPI string `xml:"vIPI"`
	} `xml:"IPITrib"`
}

type pisGroup struct {
	PISAliq struct {
		VPIS string `xml:"vPIS"`
	} `xml:"PISAliq"`
	PISOutr struct {
		VPIS string `xml:"vPIS"`
	} `xml:"PISOutr"`
}

func (g *pisGroup) value() float64 {
	if g.PISAliq.VPIS != "" {
		return parseValue(g.PISAliq.VPIS)
	}
	return parseValue(g.PISOutr.VPIS)
}

type cofinsGroup struct {
	COFINSAliq struct {
		VCOFINS string `xml:"vCOFINS"`
	} `xml:"COFINSAliq"`
	COFINSOutr struct {
		VCOFINS string `xml:"vCOFINS"`
	} `xml:"COFINSOutr"`
}

func (g *cofinsGroup) value() float64 {
	if g.COFINSAliq.VCOFINS != "" {
		return parseValue(g.COFINSAliq.VCOFINS)
	}
	return parseValue(g.COFINSOutr.VCOFINS)
}

func (inf *infNFe) toDocument() *models.FiscalDocument {
	doc := &models.FiscalDocument{
		DocumentType:  models.DocTypeNFe,
		Number:        inf.Ide.NNF,
		Series:        inf.Ide.Serie,
		IssueDate:     firstNonEmpty(inf.Ide.DhEmi, inf.Ide.DEmi),
		IssuerCNPJ:    inf.Emit.CNPJ,
		IssuerName:    inf.Emit.XNome,
		IssuerUF:      inf.Emit.Ender.UF,
		IssuerCity:    inf.Emit.Ender.XMun,
		RecipientDoc:  firstNonEmpty(inf.Dest.CNPJ, inf.Dest.CPF),
		RecipientName: inf.Dest.XNome,
		RecipientUF:   inf.Dest.Ender.UF,
		RecipientCity: inf.Dest.Ender.XMun,
		ProductTotal:  parseValue(inf.Total.ICMSTot.VProd),
		DocumentTotal: parseValue(inf.Total.ICMSTot.VNF),
		TotalICMS:     parseValue(inf.Total.ICMSTot.VICMS),
		TotalPIS:      parseValue(inf.Total.ICMSTot.VPIS),
		TotalCOFINS:   parseValue(inf.Total.ICMSTot.VCOFINS),
		TotalIPI:      parseValue(inf.Total.ICMSTot.VIPI),
		Items:         []models.DocumentItem{},
	}

	for _, det := range inf.Det {
		doc.Items = append(doc.Items, models.DocumentItem{
			Code:        det.Prod.CProd,
			Description: det.Prod.XProd,
			NCM:         det.Prod.NCM,
			CFOP:        det.Prod.CFOP,
			Quantity:    parseValue(det.Prod.QCom),
			UnitPrice:   parseValue(det.Prod.VUnCom),
			Total:       parseValue(det.Prod.VProd),
			ICMS:        det.Imposto.ICMS.value(),
			PIS:         det.Imposto.PIS.value(),
			COFINS:      det.Imposto.COFINS.value(),
			IPI:         parseValue(det.Imposto.IPI.IPITrib.VIPI),
		})
	}

	// Older layouts omit the ICMSTot block: fall back to line sums.
	if doc.TotalICMS == 0 && doc.TotalPIS == 0 && doc.TotalCOFINS == 0 && doc.TotalIPI == 0 {
		for _, item := range doc.Items {
			doc.TotalICMS += item.ICMS
			doc.TotalPIS += item.PIS
			doc.TotalCOFINS += item.COFINS
			doc.TotalIPI += item.IPI
		}
		doc.TotalICMS = round2(doc.TotalICMS)
		doc.TotalPIS = round2(doc.TotalPIS)
		doc.TotalCOFINS = round2(doc.TotalCOFINS)
		doc.TotalIPI = round2(doc.TotalIPI)
	}
	if doc.ProductTotal == 0 {
		for _, item := range doc.Items {
			doc.ProductTotal += item.Total
		}
		doc.ProductTotal = round2(doc.ProductTotal)
	}

	return doc
}

// ── CT-e ─────────────────────────────────────────────────────────

type infCTe struct {
	Ide struct {
		NCT   string `xml:"nCT"`
		Serie string `xml:"serie"`
		DhEmi string `xml:"dhEmi"`
	} `xml:"ide"`
	Emit struct {
		CNPJ  string   `xml:"CNPJ"`
		XNome string   `xml:"xNome"`
		Ender endereco `xml:"enderEmit"`
	} `xml:"emit"`
	Dest struct {
		CNPJ  string   `xml:"CNPJ"`
		XNome string   `xml:"xNome"`
		Ender endereco `xml:"enderDest"`
	} `xml:"dest"`
	VPrest struct {
		VTPrest string `xml:"vTPrest"`
	} `xml:"vPrest"`
	Imp struct {
		ICMS icmsGroup `xml:"ICMS"`
	} `xml:"imp"`
}

func (inf *infCTe) toDocument() *models.FiscalDocument {
	total := parseValue(inf.VPrest.VTPrest)
	return &models.FiscalDocument{
		DocumentType:  models.DocTypeCTe,
		Number:        inf.Ide.NCT,
		Series:        inf.Ide.Serie,
		IssueDate:     inf.Ide.DhEmi,
		IssuerCNPJ:    inf.Emit.CNPJ,
		IssuerName:    inf.Emit.XNome,
		IssuerUF:      inf.Emit.Ender.UF,
		IssuerCity:    inf.Emit.Ender.XMun,
		RecipientDoc:  inf.Dest.CNPJ,
		RecipientName: inf.Dest.XNome,
		RecipientUF:   inf.Dest.Ender.UF,
		RecipientCity: inf.Dest.Ender.XMun,
		ProductTotal:  total,
		DocumentTotal: total,
		TotalICMS:     inf.Imp.ICMS.value(),
		Items:         []models.DocumentItem{},
	}
}

// ── NFS-e (ABRASF layout) ────────────────────────────────────────

type infNFSe struct {
	Numero      string `xml:"Numero"`
	DataEmissao string `xml:"DataEmissao"`
	Prestador   struct {
		CNPJ        string `xml:"Cnpj"`
		RazaoSocial string `xml:"RazaoSocial"`
	} `xml:"PrestadorServico"`
	Tomador struct {
		CNPJ        string `xml:"Cnpj"`
		RazaoSocial string `xml:"RazaoSocial"`
	} `xml:"TomadorServico"`
	Servico struct {
		Valores struct {
			ValorServicos string `xml:"ValorServicos"`
			ValorPis      string `xml:"ValorPis"`
			ValorCofins   string `xml:"ValorCofins"`
		} `xml:"Valores"`
	} `xml:"Servico"`
}

func (inf *infNFSe) toDocument() *models.FiscalDocument {
	total := parseValue(inf.Servico.Valores.ValorServicos)
	return &models.FiscalDocument{
		DocumentType:  models.DocTypeNFSe,
		Number:        inf.Numero,
		IssueDate:     inf.DataEmissao,
		IssuerCNPJ:    inf.Prestador.CNPJ,
		IssuerName:    inf.Prestador.RazaoSocial,
		RecipientDoc:  inf.Tomador.CNPJ,
		RecipientName: inf.Tomador.RazaoSocial,
		ProductTotal:  total,
		DocumentTotal: total,
		TotalPIS:      parseValue(inf.Servico.Valores.ValorPis),
		TotalCOFINS:   parseValue(inf.Servico.Valores.ValorCofins),
		Items:         []models.DocumentItem{},
	}
}

// ── Helpers ──────────────────────────────────────────────────────

// parseValue reads a fiscal decimal, tolerating comma separators found in
// some municipal layouts. Absent or malformed values default to 0.
func parseValue(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	s = strings.Replace(s, ",", ".", 1)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
