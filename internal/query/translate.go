// Package query implements the filter-to-query translation layer and the
// execution of the translated call against the remote report procedures.
package query

import (
	"strconv"
	"time"
)

type Domain string

const (
	DomainSales     Domain = "sales"
	DomainPurchases Domain = "purchases"
)

// ParseDomain maps a request path segment to a transaction domain.
func ParseDomain(s string) (Domain, bool) {
	switch Domain(s) {
	case DomainSales:
		return DomainSales, true
	case DomainPurchases:
		return DomainPurchases, true
	}
	return "", false
}

// Remote procedure names, one per transaction domain.
const (
	procSales     = "rechercher_ventes"
	procPurchases = "rechercher_achats"
)

// MaxRows caps every remote call to bound the response size.
const MaxRows = 42000

// equalsMarker is the prefix the remote procedures' own pattern matching
// understands as "exact match instead of contains".
const equalsMarker = "egal:"

// quantityParam is the one numeric parameter; its value is coerced to a
// float and silently dropped when it does not parse.
const quantityParam = "p_qte_fact"

// Per-domain maps from client-supplied field identifiers to remote
// procedure parameter names. Unknown fields are dropped, not rejected, so
// client-side field additions cannot break existing deployments.
var salesFields = map[string]string{
	"codeArticle":   "p_code_article",
	"designation":   "p_designation",
	"codeClient":    "p_code_client",
	"raisonSociale": "p_raison_sociale",
	"qte":           "p_qte_fact",
	"erp":           "p_erp",
}

var purchaseFields = map[string]string{
	"codeFournisseur":  "p_code_fournisseur",
	"raisonSociale":    "p_raison_sociale",
	"referenceAchat":   "p_reference_achat",
	"bonDeCommande":    "p_bon_de_commande",
	"qte":              "p_qte_fact",
	"referenceArticle": "p_code_article",
	"erp":              "p_erp",
}

type FieldFilter struct {
	Field    string `json:"field"`
	Value    string `json:"value"`
	Operator string `json:"operator"`
}

// Filters is the client-supplied filter payload. Year and month values
// arrive as strings straight from form fields; empty or unparsable values
// fall back to the defaults of the date window.
type Filters struct {
	StartYear  string        `json:"start_year"`
	StartMonth string        `json:"start_month"`
	EndYear    string        `json:"end_year"`
	EndMonth   string        `json:"end_month"`
	Fields     []FieldFilter `json:"fields"`
}

// Translate builds the complete remote-procedure argument set for the
// domain: the date window plus every mapped field filter.
func Translate(domain Domain, f Filters, now time.Time) (string, map[string]any) {
	proc := procSales
	fieldMap := salesFields
	if domain == DomainPurchases {
		proc = procPurchases
		fieldMap = purchaseFields
	}

	params := map[string]any{
		"p_date_debut": lowerBound(f).Format("2006-01-02"),
		"p_date_fin":   upperBound(f, now).Format("2006-01-02"),
	}

	for _, field := range f.Fields {
		param := fieldMap[field.Field]
		if param == "" || field.Value == "" {
			continue
		}
		if param == quantityParam {
			qty, err := strconv.ParseFloat(field.Value, 64)
			if err != nil {
				continue
			}
			params[param] = qty
			continue
		}
		if field.Operator == "equals" {
			params[param] = equalsMarker + field.Value
		} else {
			params[param] = field.Value
		}
	}
	return proc, params
}

// lowerBound is the first day of the requested start month; with no usable
// start the window opens at the earliest representable date, January 1900.
func lowerBound(f Filters) time.Time {
	year := parseOr(f.StartYear, 1900)
	month := parseOr(f.StartMonth, 1)
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
}

// upperBound is exclusive: the first day of the month after the requested
// end month, defaulting to the current year and month. time.Date
// normalizes month 13 to January of the next year, which handles the
// December rollover.
func upperBound(f Filters, now time.Time) time.Time {
	year := parseOr(f.EndYear, now.Year())
	month := parseOr(f.EndMonth, int(now.Month()))
	return time.Date(year, time.Month(month)+1, 1, 0, 0, 0, 0, time.UTC)
}

func parseOr(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}
