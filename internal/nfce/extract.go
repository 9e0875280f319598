package nfce

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ExtractionError signals that a structurally required fragment of the
// NFC-e page is missing. Optional fragments never raise it; they just
// leave their field unset.
type ExtractionError struct {
	Fragment string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("nfce: page fragment not found: %s", e.Fragment)
}

// Code is the stable machine identifier for this failure kind.
func (e *ExtractionError) Code() string { return "extraction_failed" }

// RawReceipt holds the field values exactly as they appear on the page,
// labels stripped but decimal commas and line breaks untouched. Normalize
// turns it into a domain.Receipt.
type RawReceipt struct {
	MerchantName string
	CNPJ         string
	Address      string
	IssuedAt     string // "DD/MM/YYYY HH:MM:SS" as captured, empty if not found
	TotalItems   string
	TotalAmount  string
	Discount     string
	PaidAmount   string
	AccessKey    string
	Items        []RawItem
}

// RawItem is one row of the item table before normalization.
type RawItem struct {
	Code       string
	Name       string
	Quantity   string
	UnitType   string
	UnitPrice  string
	TotalPrice string
}

var issuedAtPattern = regexp.MustCompile(`\d{2}/\d{2}/\d{4} \d{2}:\d{2}:\d{2}`)

// Extract pulls the receipt fields out of a fully rendered NFC-e detail
// page. The item table and the access key are required; everything else
// is best-effort and left empty when the page omits it.
//
// The selection rules are deliberately literal transcriptions of the
// page's loose structure, including the fragile bits: the address block
// is told apart from the CNPJ block only by NOT containing the "CNPJ:"
// label, and the paid amount is reached through a class pair instead of
// a label like the other totals.
func Extract(html string) (*RawReceipt, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	raw := &RawReceipt{}

	raw.MerchantName = strings.TrimSpace(doc.Find("div.txtTopo").First().Text())

	// CNPJ and address share the "text" container class; the only signal
	// separating them is the literal label.
	doc.Find("div.text").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.TrimSpace(s.Text())
		if strings.Contains(text, "CNPJ:") {
			if raw.CNPJ == "" {
				raw.CNPJ = strings.TrimSpace(strings.ReplaceAll(text, "CNPJ:", ""))
			}
		} else if raw.Address == "" {
			raw.Address = text
		}
		return raw.CNPJ == "" || raw.Address == ""
	})

	raw.IssuedAt = extractIssuedAt(doc)

	if total := doc.Find("div#totalNota").First(); total.Length() > 0 {
		raw.TotalItems = labelSiblingValue(total, "Qtd. total de itens:")
		raw.TotalAmount = stripSpaces(labelSiblingValue(total, "Valor total R$:"))
		raw.Discount = stripSpaces(labelSiblingValue(total, "Descontos R$:"))
		raw.PaidAmount = stripSpaces(total.Find("div.linhaShade span.totalNumb").First().Text())
	}

	raw.AccessKey = stripSpaces(doc.Find("span.chave").First().Text())
	if raw.AccessKey == "" {
		return nil, &ExtractionError{Fragment: "access key (span.chave)"}
	}

	table := doc.Find("table#tabResult").First()
	if table.Length() == 0 {
		return nil, &ExtractionError{Fragment: "item table (table#tabResult)"}
	}
	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() == 0 {
			// header row
			return
		}
		first := cells.First()
		raw.Items = append(raw.Items, RawItem{
			Code:       strings.TrimSpace(stripLabel(first.Find("span.RCod").Text(), "(Código:", ")")),
			Name:       strings.TrimSpace(first.Find("span.txtTit").Text()),
			Quantity:   strings.TrimSpace(stripLabel(first.Find("span.Rqtd").Text(), "Qtde.:", "")),
			UnitType:   strings.TrimSpace(stripLabel(first.Find("span.RUN").Text(), "UN:", "")),
			UnitPrice:  strings.TrimSpace(stripLabel(first.Find("span.RvlUnit").Text(), "Vl. Unit.:", "")),
			TotalPrice: strings.TrimSpace(cells.Eq(1).Find("span.valor").Text()),
		})
	})

	return raw, nil
}

// extractIssuedAt walks the collapsible "general info" section: the
// heading text identifies the right collapsible, its sibling content div
// holds a list whose first entry carries the emission timestamp after the
// "Emissão:" marker.
func extractIssuedAt(doc *goquery.Document) string {
	var issuedAt string
	doc.Find(`div[data-role="collapsible"]`).EachWithBreak(func(_ int, div *goquery.Selection) bool {
		h4 := div.Find("h4").First()
		if !strings.Contains(h4.Text(), "Informações gerais da Nota") {
			return true
		}
		content := h4.NextFiltered("div.ui-collapsible-content")
		if content.Length() == 0 {
			return false
		}
		parts := strings.SplitN(content.Find("li").First().Text(), "Emissão:", 2)
		if len(parts) == 2 {
			issuedAt = issuedAtPattern.FindString(parts[1])
		}
		return false
	})
	return issuedAt
}

// labelSiblingValue finds the label node with the exact given text under
// root and reads its adjacent sibling span.
func labelSiblingValue(root *goquery.Selection, label string) string {
	var value string
	root.Find("label").EachWithBreak(func(_ int, l *goquery.Selection) bool {
		if strings.TrimSpace(l.Text()) != label {
			return true
		}
		value = strings.TrimSpace(l.NextFiltered("span").Text())
		return false
	})
	return value
}

func stripLabel(s, prefix, suffix string) string {
	s = strings.ReplaceAll(s, prefix, "")
	if suffix != "" {
		s = strings.ReplaceAll(s, suffix, "")
	}
	return s
}

func stripSpaces(s string) string {
	return strings.Join(strings.Fields(s), "")
}
