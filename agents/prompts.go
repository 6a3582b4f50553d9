package agents

// Prompt templates for the specialised extraction agents. Each template takes
// the (truncated) document content and enumerates the sections the model must
// return as structured JSON.

const reglementPrompt = `Analyse ce règlement de consultation et extrait les informations clés de manière détaillée :

CONTENU :
%s

Extrais et structure les informations suivantes de manière exhaustive :

1. CRITÈRES DE SÉLECTION ET D'ATTRIBUTION
   - Critères techniques (pourcentage, poids)
   - Critères financiers (pourcentage, poids)
   - Critères d'expérience (pourcentage, poids)
   - Critères de capacité (pourcentage, poids)
   - Méthode de notation et de classement

2. DÉLAIS IMPORTANTS
   - Date limite de dépôt des offres
   - Date d'ouverture des plis
   - Durée du chantier (début/fin)
   - Délais de réception provisoire/définitive
   - Périodes critiques à identifier

3. MODALITÉS ADMINISTRATIVES
   - Garanties requises (pourcentage, montant)
   - Assurances obligatoires (types, montants)
   - Cautionnement (pourcentage, montant)
   - Conditions de paiement
   - Modalités de réception

4. CONDITIONS PARTICULIÈRES
   - Contraintes spécifiques au site
   - Conditions d'accès au chantier
   - Contraintes environnementales
   - Contraintes de voisinage
   - Conditions météorologiques

5. DOCUMENTS REQUIS
   - Attestations obligatoires
   - Justificatifs d'expérience
   - Plans et documents techniques
   - Mémoire technique (contenu requis)
   - Planning détaillé

6. RISQUES IDENTIFIÉS
   - Risques techniques majeurs
   - Risques administratifs
   - Risques financiers
   - Risques de délais
   - Pénalités applicables

Réponds au format JSON structuré avec des sous-sections détaillées.`

const cctpPrompt = `Analyse ce CCTP et extrait les exigences techniques de manière exhaustive :

CONTENU :
%s

Extrais et structure les informations suivantes de manière détaillée :

1. EXIGENCES TECHNIQUES PRÉCISES
   - Spécifications techniques détaillées
   - Normes et références applicables
   - Classes de résistance et caractéristiques
   - Contrôles et essais requis
   - Tolérances et marges acceptables

2. MATÉRIAUX ET MÉTHODES REQUIS
   - Types de matériaux spécifiés
   - Origines et qualités requises
   - Méthodes de mise en œuvre
   - Équipements et outils nécessaires
   - Conditions de stockage et transport

3. CONTRAINTES SPÉCIFIQUES
   - Contraintes de mise en œuvre
   - Contraintes de sécurité
   - Contraintes de qualité
   - Contraintes de délais
   - Contraintes d'environnement

4. NORMES ET RÉFÉRENCES TECHNIQUES
   - Normes françaises (NF)
   - Normes européennes (EN)
   - DTU et guides techniques
   - Cahiers des charges types
   - Référentiels spécifiques

5. CONTRAINTES ENVIRONNEMENTALES
   - Gestion des déchets
   - Protection de la biodiversité
   - Limitation des nuisances
   - Économie circulaire
   - Développement durable

6. SIMILITUDES AVEC CHANTIERS PRÉCÉDENTS
   - Types d'ouvrages similaires
   - Techniques communes
   - Matériaux identiques
   - Contraintes comparables
   - Expériences réutilisables

Réponds au format JSON structuré avec des sous-sections détaillées.`

const ccapPrompt = `Analyse ce CCAP et extrait les contraintes administratives de manière exhaustive :

CONTENU :
%s

Extrais et structure les informations suivantes de manière détaillée :

1. RISQUES ET PÉNALITÉS
   - Pénalités de retard (montant, calcul)
   - Pénalités de non-conformité
   - Résiliation pour faute
   - Indemnités forfaitaires
   - Garanties de bonne fin

2. DÉLAIS CRITIQUES
   - Dates de début et fin
   - Jalons intermédiaires
   - Réceptions provisoire/définitive
   - Délais de paiement
   - Délais de garantie

3. OBLIGATIONS ADMINISTRATIVES
   - Plan de prévention
   - Registre de sécurité
   - Déclarations d'accident
   - Visites de chantier
   - Réunions de coordination

4. CONDITIONS DE PAIEMENT
   - Acomptes et modalités
   - Retenues de garantie
   - Délais de paiement
   - Justificatifs requis
   - Conditions de déblocage

5. GARANTIES ET ASSURANCES
   - Garantie de parfait achèvement
   - Garantie biennale
   - Assurance décennale
   - Responsabilité civile
   - Montants et durées

6. CONTRAINTES LOGISTIQUES
   - Accès au chantier
   - Stationnement et livraisons
   - Horaires de travail
   - Nuisances sonores
   - Gestion des flux

Réponds au format JSON structuré avec des sous-sections détaillées.`

const dpgfPrompt = `Analyse ce DPGF et extrait les informations quantitatives de manière exhaustive :

CONTENU :
%s

Extrais et structure les informations suivantes de manière détaillée :

1. QUANTITÉS ET ESTIMATIONS
   - Détail quantitatif par lot
   - Unités de mesure
   - Quantités estimées
   - Marges d'incertitude
   - Répartition géographique

2. DÉTAIL DES PRESTATIONS
   - Description technique détaillée
   - Méthodes de réalisation
   - Matériaux et équipements
   - Main d'œuvre requise
   - Contrôles et essais

3. COÛTS UNITAIRES
   - Prix unitaires HT
   - Coûts de main d'œuvre
   - Coûts de matériaux
   - Coûts d'équipements
   - Frais généraux

4. RÉPARTITION DES LOTS
   - Découpage en lots
   - Montants par lot
   - Interdépendances
   - Planning par lot
   - Risques par lot

5. PLANNING PRÉVISIONNEL
   - Phases de réalisation
   - Durées par phase
   - Enchaînement des tâches
   - Ressources nécessaires
   - Points critiques

6. ANALYSE ÉCONOMIQUE
   - Répartition des coûts
   - Postes les plus coûteux
   - Optimisations possibles
   - Risques financiers
   - Marges bénéficiaires

Réponds au format JSON structuré avec des sous-sections détaillées.`

const environmentalPrompt = `Analyse ce document et extrait toutes les contraintes environnementales :

CONTENU :
%s

Identifie et structure :

1. GESTION DES NUISANCES
   - Nuisances sonores (horaires, niveaux)
   - Nuisances visuelles (échafaudages, bâches)
   - Nuisances olfactives (produits, déchets)
   - Vibrations (équipements, méthodes)

2. PROTECTION DE LA BIODIVERSITÉ
   - Espèces protégées présentes
   - Périodes de reproduction
   - Nichoirs et habitats
   - Mesures de protection
   - Suivi écologique

3. GESTION DES DÉCHETS
   - Types de déchets générés
   - Quantités estimées
   - Tri et recyclage
   - Évacuation et traitement
   - Traçabilité

4. ÉCONOMIE CIRCULAIRE
   - Réutilisation de matériaux
   - Recyclage sur site
   - Approvisionnement local
   - Réduction des déchets
   - Optimisation des ressources

5. DÉVELOPPEMENT DURABLE
   - Énergies renouvelables
   - Matériaux écologiques
   - Transport propre
   - Bilan carbone
   - Certifications

Réponds au format JSON structuré.`

const logisticalPrompt = `Analyse ce document et extrait toutes les contraintes logistiques :

CONTENU :
%s

Identifie et structure :

1. ACCÈS AU CHANTIER
   - Voies d'accès disponibles
   - Restrictions de circulation
   - Largeurs et hauteurs
   - Capacités de charge
   - Permis de circulation

2. STATIONNEMENT ET LIVRAISONS
   - Zones de stationnement
   - Horaires de livraison
   - Espaces de manœuvre
   - Gestion des flux
   - Coordination logistique

3. HORAIRES DE TRAVAIL
   - Plages horaires autorisées
   - Jours de travail
   - Pauses obligatoires
   - Travail de nuit
   - Dimanches et fêtes

4. GESTION DES FLUX
   - Circulation des engins
   - Flux de matériaux
   - Évacuation des déchets
   - Accès des intervenants
   - Sécurisation des zones

5. CONTRAINTES DE VOISINAGE
   - Proximité d'habitations
   - Établissements sensibles
   - Commerces et activités
   - Mesures d'apaisement
   - Communication

Réponds au format JSON structuré.`

const similarProjectsPrompt = `Analyse ce contenu et identifie les similitudes avec des types de chantiers connus :

CONTENU :
%s

Types de chantiers de référence :
- restauration_facade : Restauration façade monument historique
- renovation_interieur : Rénovation intérieur église
- consolidation_structure : Consolidation structure

Identifie :
1. Type de chantier le plus similaire
2. Contraintes communes
3. Techniques similaires
4. Matériaux identiques
5. Risques comparables

Réponds au format JSON.`
