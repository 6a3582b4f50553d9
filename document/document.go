// Package document defines the closed set of tender document types, their
// display labels, and the keyword classifier that assigns them.
package document

import "strings"

// Type tags a tender document category. The internal tag is separate from its
// display label; the label is the stable key used in aggregation maps.
type Type int

const (
	Autre Type = iota
	Reglement
	CCTP
	CCAP
	DPGF
	Plans
)

var labels = map[Type]string{
	Reglement: "Règlement de consultation",
	CCTP:      "Cahier des Clauses Techniques Particulières",
	CCAP:      "Cahier des Clauses Administratives Particulières",
	DPGF:      "Détail Quantitatif et Estimatif",
	Plans:     "Plans et notes historiques",
	Autre:     "Autre document",
}

// Label returns the canonical display label for the type.
func (t Type) Label() string {
	if label, ok := labels[t]; ok {
		return label
	}
	return labels[Autre]
}

func (t Type) String() string { return t.Label() }

// Record is one ingested file within a run.
type Record struct {
	Name     string
	Type     Type
	Content  string
	Analysis map[string]any
}

// filenameRules are evaluated in order; the first matching set wins.
var filenameRules = []struct {
	docType  Type
	keywords []string
}{
	{Reglement, []string{"reglement", "consultation", "rc"}},
	{CCTP, []string{"cctp", "technique", "techniques"}},
	{CCAP, []string{"ccap", "administratif", "administratives"}},
	{DPGF, []string{"dpgf", "quantitatif", "estimatif", "quantite"}},
	{Plans, []string{"plan", "plans", "historique", "note"}},
}

// contentRules are only consulted when no filename rule matched.
var contentRules = []struct {
	docType  Type
	keywords []string
}{
	{Reglement, []string{"critères de sélection", "modalités", "attribution"}},
	{CCTP, []string{"exigences techniques", "matériaux", "méthodes"}},
	{CCAP, []string{"pénalités", "délais", "obligations administratives"}},
	{DPGF, []string{"quantités", "estimations", "coûts unitaires"}},
}

// Classify maps a filename and optional extracted content to a document type.
// Filename always takes priority over content; when neither tier matches the
// result is Autre.
func Classify(filename, content string) Type {
	filenameLower := strings.ToLower(filename)
	for _, rule := range filenameRules {
		if containsAny(filenameLower, rule.keywords) {
			return rule.docType
		}
	}

	if content != "" {
		contentLower := strings.ToLower(content)
		for _, rule := range contentRules {
			if containsAny(contentLower, rule.keywords) {
				return rule.docType
			}
		}
	}

	return Autre
}

func containsAny(haystack string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(haystack, keyword) {
			return true
		}
	}
	return false
}
