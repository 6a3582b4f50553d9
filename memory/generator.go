// Package memory generates the technical memory (mémoire technique), the
// multi-section bid-response narrative built from a run's cross analysis.
package memory

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/marchepublic/ao-agent/crossdoc"
	"github.com/marchepublic/ao-agent/jsonutil"
	"github.com/marchepublic/ao-agent/llm"
)

const memoryVersion = "1.0"

// Section keys in generation and rendering order.
var SectionOrder = []string{
	"presentation_entreprise",
	"comprehension_projet",
	"methodologie",
	"organisation_chantier",
	"gestion_contraintes",
	"planning",
	"securite_environnement",
	"garanties",
	"annexes",
}

var sectionTitles = map[string]string{
	"presentation_entreprise": "Présentation de l'entreprise",
	"comprehension_projet":    "Compréhension du projet",
	"methodologie":            "Méthodologie de travail",
	"organisation_chantier":   "Organisation du chantier",
	"gestion_contraintes":     "Gestion des contraintes",
	"planning":                "Planning détaillé",
	"securite_environnement":  "Sécurité et environnement",
	"garanties":               "Garanties et assurances",
	"annexes":                 "Annexes techniques",
}

// TechnicalMemory is one generated bid-response document.
type TechnicalMemory struct {
	TypeProjet string            `json:"type_projet"`
	Sections   map[string]string `json:"sections"`
	Metadata   Metadata          `json:"metadata"`
}

type Metadata struct {
	DateGeneration string `json:"date_generation"`
	Version        string `json:"version"`
	NombreSections int    `json:"nombre_sections"`
}

// CompanyInfo identifies the bidding company in the generated sections.
type CompanyInfo struct {
	Nom            string   `json:"nom"`
	Siret          string   `json:"siret"`
	Adresse        string   `json:"adresse"`
	Telephone      string   `json:"telephone"`
	Email          string   `json:"email"`
	Experience     string   `json:"experience"`
	Certifications []string `json:"certifications"`
}

// DefaultCompany is substituted when no company profile is supplied.
var DefaultCompany = CompanyInfo{
	Nom:        "Entreprise de Restauration du Patrimoine",
	Siret:      "12345678901234",
	Adresse:    "123 Rue du Patrimoine, 75001 Paris",
	Telephone:  "01 23 45 67 89",
	Email:      "contact@restauration-patrimoine.fr",
	Experience: "15 ans d'expérience en restauration de monuments historiques",
	Certifications: []string{
		"Qualibat 1511",
		"Monuments Historiques",
		"ISO 9001",
	},
}

// projectTypeRules are evaluated in order; the first matching keyword group
// decides the template, defaulting to restauration_facade.
var projectTypeRules = []struct {
	key      string
	keywords []string
}{
	{"restauration_facade", []string{"façade", "pierre", "échafaudage", "vitraux"}},
	{"renovation_interieur", []string{"intérieur", "peinture", "conservation", "accès limité"}},
	{"consolidation_structure", []string{"structure", "consolidation", "renforcement", "étaiement"}},
}

// Generator produces technical memories from cross analyses.
type Generator struct {
	llm    llm.Client
	logger *log.Logger
	now    func() time.Time
}

func NewGenerator(client llm.Client, logger *log.Logger) *Generator {
	if logger == nil {
		logger = log.Default()
	}
	return &Generator{llm: client, logger: logger, now: time.Now}
}

// Generate classifies the project type then produces the nine fixed sections,
// one completion call each. A failed section is replaced by an explanatory
// placeholder; it never blocks the others.
func (g *Generator) Generate(ctx context.Context, cross crossdoc.CrossAnalysis, company *CompanyInfo) TechnicalMemory {
	if company == nil {
		copyOf := DefaultCompany
		company = &copyOf
	}

	projectType := IdentifyProjectType(cross)

	companyJSON := mustMarshal(*company)
	crossJSON := mustMarshal(cross)

	sections := map[string]string{}
	for _, key := range SectionOrder {
		sections[key] = g.generateSection(ctx, key, projectType, companyJSON, crossJSON)
	}

	return TechnicalMemory{
		TypeProjet: projectType,
		Sections:   sections,
		Metadata: Metadata{
			DateGeneration: g.now().Format("2006-01-02 15:04:05"),
			Version:        memoryVersion,
			NombreSections: len(sections),
		},
	}
}

// IdentifyProjectType serializes the cross analysis and matches the keyword
// groups in fixed order.
func IdentifyProjectType(cross crossdoc.CrossAnalysis) string {
	serialized := strings.ToLower(mustMarshal(cross))
	for _, rule := range projectTypeRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(serialized, keyword) {
				return rule.key
			}
		}
	}
	return "restauration_facade"
}

func (g *Generator) generateSection(ctx context.Context, key, projectType, companyJSON, crossJSON string) string {
	prompt := sectionPrompt(key, projectType, companyJSON, crossJSON)

	text, err := g.llm.Complete(ctx, prompt)
	if err != nil {
		g.logger.Printf("section %s: %v", key, err)
		return fmt.Sprintf("Section non disponible : %v", err)
	}
	return strings.TrimSpace(text)
}

// Summary produces an executive summary of a generated memory.
func (g *Generator) Summary(ctx context.Context, mem TechnicalMemory) (string, error) {
	prompt := fmt.Sprintf(summaryPrompt, mustMarshal(mem))
	text, err := g.llm.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("résumé exécutif: %w", err)
	}
	return strings.TrimSpace(text), nil
}

func mustMarshal(v any) string {
	data, err := jsonutil.MarshalIndent(v)
	if err != nil {
		// The inputs are maps, slices and strings; this cannot fail in
		// practice, but the prompt still needs something to embed.
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
