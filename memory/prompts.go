package memory

import "fmt"

// One prompt per memory section. Company-centric sections embed the company
// profile; the rest embed the serialized cross analysis.

const companyPresentationPrompt = `Génère une présentation professionnelle de l'entreprise pour une mémoire technique :

INFORMATIONS ENTREPRISE :
%s

Crée une présentation structurée incluant :
- Présentation générale de l'entreprise
- Expérience et références
- Certifications et qualifications
- Équipe et compétences
- Valeurs et engagement qualité

Format : Texte structuré avec paragraphes clairs.`

const projectUnderstandingPrompt = `Génère une section "Compréhension du projet" pour une mémoire technique :

ANALYSE DU PROJET :
%s

Crée une analyse structurée incluant :
- Contexte et enjeux du projet
- Contraintes identifiées
- Objectifs techniques
- Risques principaux
- Opportunités d'optimisation

Format : Texte structuré avec paragraphes clairs.`

const methodologyPrompt = `Génère une section "Méthodologie de travail" pour une mémoire technique :

TYPE DE PROJET : %s
ANALYSE DU PROJET :
%s

Crée une méthodologie structurée incluant :
- Approche générale
- Phases de travail détaillées
- Techniques et matériaux
- Contrôles qualité
- Gestion des imprévus

Format : Texte structuré avec paragraphes clairs.`

const siteOrganizationPrompt = `Génère une section "Organisation du chantier" pour une mémoire technique :

ANALYSE DU PROJET :
%s

Crée une organisation structurée incluant :
- Équipe et responsabilités
- Logistique et matériel
- Coordination et communication
- Gestion des flux
- Sécurisation du site

Format : Texte structuré avec paragraphes clairs.`

const constraintsManagementPrompt = `Génère une section "Gestion des contraintes" pour une mémoire technique :

ANALYSE DU PROJET :
%s

Crée une gestion des contraintes structurée incluant :
- Contraintes techniques identifiées
- Contraintes environnementales
- Contraintes logistiques
- Contraintes administratives
- Solutions et mesures d'adaptation

Format : Texte structuré avec paragraphes clairs.`

const detailedPlanningPrompt = `Génère une section "Planning détaillé" pour une mémoire technique :

ANALYSE DU PROJET :
%s

Crée un planning structuré incluant :
- Phases principales du chantier
- Jalons et livrables
- Ressources par phase
- Délais critiques
- Marges de sécurité

Format : Texte structuré avec paragraphes clairs.`

const safetyEnvironmentPrompt = `Génère une section "Sécurité et environnement" pour une mémoire technique :

ANALYSE DU PROJET :
%s

Crée une section structurée incluant :
- Mesures de sécurité
- Protection de l'environnement
- Gestion des déchets
- Prévention des risques
- Formation et sensibilisation

Format : Texte structuré avec paragraphes clairs.`

const guaranteesPrompt = `Génère une section "Garanties et assurances" pour une mémoire technique :

INFORMATIONS ENTREPRISE :
%s

Crée une section structurée incluant :
- Garanties contractuelles
- Assurances obligatoires
- Garantie de parfait achèvement
- Garantie décennale
- Engagements qualité

Format : Texte structuré avec paragraphes clairs.`

const technicalAnnexesPrompt = `Génère des "Annexes techniques" pour une mémoire technique :

ANALYSE DU PROJET :
%s

Crée des annexes structurées incluant :
- Références techniques
- Normes applicables
- Schémas et plans
- Fiches techniques
- Certifications

Format : Texte structuré avec paragraphes clairs.`

const summaryPrompt = `Génère un résumé exécutif de cette mémoire technique :

MÉMOIRE TECHNIQUE :
%s

Crée un résumé structuré incluant :
- Points clés du projet
- Approche proposée
- Avantages concurrentiels
- Engagements
- Conclusion

Format : Texte concis et professionnel.`

func sectionPrompt(key, projectType, companyJSON, crossJSON string) string {
	switch key {
	case "presentation_entreprise":
		return fmt.Sprintf(companyPresentationPrompt, companyJSON)
	case "comprehension_projet":
		return fmt.Sprintf(projectUnderstandingPrompt, crossJSON)
	case "methodologie":
		return fmt.Sprintf(methodologyPrompt, projectType, crossJSON)
	case "organisation_chantier":
		return fmt.Sprintf(siteOrganizationPrompt, crossJSON)
	case "gestion_contraintes":
		return fmt.Sprintf(constraintsManagementPrompt, crossJSON)
	case "planning":
		return fmt.Sprintf(detailedPlanningPrompt, crossJSON)
	case "securite_environnement":
		return fmt.Sprintf(safetyEnvironmentPrompt, crossJSON)
	case "garanties":
		return fmt.Sprintf(guaranteesPrompt, companyJSON)
	case "annexes":
		return fmt.Sprintf(technicalAnnexesPrompt, crossJSON)
	default:
		return fmt.Sprintf(projectUnderstandingPrompt, crossJSON)
	}
}
