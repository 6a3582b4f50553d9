package memory

import (
	"fmt"
	"strings"
)

const missingSection = "Section non disponible"

// RenderMarkdown renders a memory as the fixed nine-section Markdown
// document. Rendering is deterministic: missing sections become an explicit
// placeholder, never an error.
func RenderMarkdown(mem TechnicalMemory) string {
	var sb strings.Builder

	projectTitle := titleCase(strings.ReplaceAll(mem.TypeProjet, "_", " "))
	if strings.TrimSpace(projectTitle) == "" {
		projectTitle = "Projet de restauration"
	}

	date := mem.Metadata.DateGeneration
	if date == "" {
		date = "Date inconnue"
	}

	fmt.Fprintf(&sb, "# Mémoire Technique - %s\n\n", projectTitle)
	fmt.Fprintf(&sb, "*Générée le %s*\n", date)

	for i, key := range SectionOrder {
		content := mem.Sections[key]
		if strings.TrimSpace(content) == "" {
			content = missingSection
		}
		sb.WriteString("\n---\n\n")
		fmt.Fprintf(&sb, "## %d. %s\n\n", i+1, sectionTitles[key])
		sb.WriteString(content)
		sb.WriteString("\n")
	}

	sb.WriteString("\n---\n\n")
	sb.WriteString("*Mémoire technique générée automatiquement par l'IA Multi-Agents*\n")

	return sb.String()
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, word := range words {
		runes := []rune(word)
		words[i] = strings.ToUpper(string(runes[0])) + string(runes[1:])
	}
	return strings.Join(words, " ")
}
