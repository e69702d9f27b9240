package taxonomy

import (
	"fmt"
	"strings"
)

// DocumentType is one entry of the static document taxonomy: a canonical
// display name plus the phrase variants used for matching. Matching is
// case-insensitive substring containment, not tokenization.
type DocumentType struct {
	Name     string
	Keywords []string
}

// Matches reports whether the text contains any of the entry's keyword
// variants (case-insensitive)
func (d DocumentType) Matches(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range d.Keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// Taxonomy is an immutable list of document types, built once at startup
// and injected into the matcher and aggregator
type Taxonomy struct {
	entries []DocumentType
	byName  map[string]DocumentType
}

// New builds a taxonomy from the given entries, validating that names are
// unique and every entry has at least one keyword
func New(entries []DocumentType) (*Taxonomy, error) {
	byName := make(map[string]DocumentType, len(entries))
	for _, e := range entries {
		if e.Name == "" {
			return nil, fmt.Errorf("taxonomy entry with empty name")
		}
		if len(e.Keywords) == 0 {
			return nil, fmt.Errorf("taxonomy entry %q has no keywords", e.Name)
		}
		if _, dup := byName[e.Name]; dup {
			return nil, fmt.Errorf("duplicate taxonomy entry %q", e.Name)
		}
		byName[e.Name] = e
	}
	return &Taxonomy{entries: entries, byName: byName}, nil
}

// Entries returns the taxonomy entries in declaration order
func (t *Taxonomy) Entries() []DocumentType {
	return t.entries
}

// Lookup returns the entry with the given canonical name
func (t *Taxonomy) Lookup(name string) (DocumentType, bool) {
	e, ok := t.byName[name]
	return e, ok
}

// Len returns the number of entries
func (t *Taxonomy) Len() int {
	return len(t.entries)
}

// Default returns the built-in taxonomy of Italian grant documents
func Default() *Taxonomy {
	t, err := New(defaultEntries)
	if err != nil {
		// The built-in table is validated by tests; a failure here is a
		// programming error.
		panic(err)
	}
	return t
}

// PriorityNames lists document types that are almost always requested and
// get a ranking boost in the rendered report
var PriorityNames = []string{
	"scheda progettuale",
	"Business plan",
	"piano finanziario delle entrate e delle spese",
	"curriculum vitae",
	"dichiarazione sostitutiva",
}

// ObligationTerms are Italian obligation markers; a snippet containing one
// of them boosts its document type's ranking
var ObligationTerms = []string{"obbligatori", "necessari", "richiest", "da presentare", "da allegare"}

var defaultEntries = []DocumentType{
	{Name: "scheda progettuale", Keywords: []string{"scheda progett", "scheda del progett", "progett", "piano di sviluppo"}},
	{Name: "piano finanziario delle entrate e delle spese", Keywords: []string{"piano finanziar", "budget", "entrate e spese", "piano delle spese", "previsione di spesa"}},
	{Name: "programma di investimento", Keywords: []string{"programma di invest", "piano di invest", "investiment"}},
	{Name: "dichiarazione sul rispetto del DNSH", Keywords: []string{"DNSH", "Do No Significant Harm", "dichiarazione DNSH", "rispetto del DNSH"}},
	{Name: "copia delle ultime due dichiarazioni dei redditi", Keywords: []string{"dichiarazion", "redditi", "dichiarazione dei redditi", "modello unico", "modello 730"}},
	{Name: "dichiarazioni IVA", Keywords: []string{"IVA", "dichiarazione IVA", "dichiarazioni IVA", "imposta valore aggiunto"}},
	{Name: "situazione economica e patrimoniale", Keywords: []string{"situazione economic", "situazione patrimonial", "stato patrimonial", "bilancio", "conto economic"}},
	{Name: "conto economico previsionale", Keywords: []string{"conto economic", "economic prevision", "prevision", "bilancio prevision"}},
	{Name: "documenti giustificativi di spesa", Keywords: []string{"giustificativ", "spesa", "document di spesa", "fattur", "quietanz"}},
	{Name: "relazione dei lavori eseguiti", Keywords: []string{"relazione", "lavori eseguit", "relazione di esecuzione", "relazione tecnica"}},
	{Name: "materiale promozionale", Keywords: []string{"material promozional", "promozion", "marketing", "pubblicit"}},
	{Name: "informazioni su compagine sociale", Keywords: []string{"compagine social", "assetto societari", "soc", "struttura societaria"}},
	{Name: "elenco delle agevolazioni pubbliche", Keywords: []string{"agevolazion", "contribut", "finanziam", "aiuti di stato", "de minimis"}},
	{Name: "dichiarazione di inizio attività", Keywords: []string{"inizio attività", "DIA", "SCIA", "dichiarazione di inizio", "avvio attivit"}},
	{Name: "progetto imprenditoriale", Keywords: []string{"progetto imprenditori", "business idea", "idea imprenditori", "proposta imprenditori"}},
	{Name: "pitch", Keywords: []string{"pitch", "presentazione", "elevator pitch", "pitch deck"}},
	{Name: "curriculum vitae", Keywords: []string{"curriculum", "CV", "curriculum vitae", "esperienza", "competenze"}},
	{Name: "curriculum vitae team imprenditoriale", Keywords: []string{"curriculum team", "CV team", "team imprenditori", "soci", "fondatori"}},
	{Name: "dichiarazione sulla localizzazione", Keywords: []string{"localizzazione", "ubicazione", "sede", "luogo", "dichiarazione localizzazione"}},
	{Name: "atto di assenso del proprietario", Keywords: []string{"assenso", "propriet", "autorizzazione propriet", "consenso propriet"}},
	{Name: "contratto di locazione", Keywords: []string{"locazion", "affitto", "contratto di locazione", "contratto d'affitto"}},
	{Name: "contratto di comodato", Keywords: []string{"comodato", "comodato d'uso", "contratto di comodato"}},
	{Name: "certificazione qualità", Keywords: []string{"certificazione qualit", "ISO", "certificato di qualit", "sistema qualit"}},
	{Name: "fatture elettroniche", Keywords: []string{"fattur", "fattura elettronic", "fatturazione elettronic", "e-fattura"}},
	{Name: "quietanze originali", Keywords: []string{"quietanz", "ricevut", "pagament", "bonifico", "pagamento effettuato"}},
	{Name: "Business plan", Keywords: []string{"business plan", "piano di business", "piano aziendale", "piano d'impresa"}},
	{Name: "dichiarazione sostitutiva", Keywords: []string{"dichiarazione sostitutiva", "autocertificazione", "DPR 445", "445/2000"}},
	{Name: "copia dei pagamenti effettuati", Keywords: []string{"pagament", "bonifico", "estratto conto", "ricevuta di pagamento"}},
	{Name: "dichiarazione di fine corso", Keywords: []string{"fine corso", "completamento corso", "attestazione finale", "conclusione corso"}},
	{Name: "attestato di frequenza", Keywords: []string{"attestato", "frequenza", "partecipazione", "certificato di frequenza"}},
	{Name: "report di self-assessment SUSTAINability", Keywords: []string{"self-assessment", "sustainability", "sostenibilit", "valutazione sostenibilit"}},
	{Name: "relazione finale di progetto", Keywords: []string{"relazione final", "report final", "conclusione progett", "progetto concluso"}},
	{Name: "Atto di conferimento", Keywords: []string{"conferimento", "atto di conferimento", "conferimento incarico", "mandato"}},
	{Name: "investitore esterno", Keywords: []string{"investitor", "finanziator", "business angel", "venture capital", "investimento esterno"}},
	{Name: "Delega del Legale rappresentante", Keywords: []string{"delega", "legale rappresentante", "rappresentanza", "procura"}},
	{Name: "Budget dei costi", Keywords: []string{"budget", "costi", "preventivo", "piano dei costi", "previsione costi"}},
	{Name: "Certificato di attribuzione del codice fiscale", Keywords: []string{"codice fiscale", "certificato attribuzione", "attribuzione codice", "agenzia entrate"}},
	{Name: "Analisi delle entrate", Keywords: []string{"analisi entrate", "entrate", "ricavi", "introiti", "analisi ricavi"}},
	{Name: "DURC", Keywords: []string{"DURC", "regolarità contributiva", "documento unico", "contributi"}},
	{Name: "Dichiarazione antiriciclaggio", Keywords: []string{"antiriciclaggio", "riciclaggio", "AML", "D.lgs 231"}},
	{Name: "Dichiarazioni antimafia", Keywords: []string{"antimafia", "certificazione antimafia", "informativa antimafia", "D.lgs 159"}},
	{Name: "fideiussione", Keywords: []string{"fideiussion", "garanzia", "polizza fideiussoria", "garanzia bancaria"}},
	{Name: "Casellario Giudiziale", Keywords: []string{"casellario", "giudiziale", "certificato penale", "carichi pendenti"}},
	{Name: "Fideiussione Provvisoria", Keywords: []string{"fideiussione provvisoria", "garanzia provvisoria", "cauzione provvisoria"}},
	{Name: "contributo ANAC", Keywords: []string{"ANAC", "autorità anticorruzione", "contributo gara"}},
	{Name: "DICHIARAZIONE D'INTENTI", Keywords: []string{"intenti", "dichiarazione d'intenti", "lettera d'intenti", "manifestazione interesse"}},
	{Name: "DICHIARAZIONE INTESTAZIONE FIDUCIARIA", Keywords: []string{"intestazione fiduciaria", "fiduciari", "trustee", "fiduciante"}},
	{Name: "certificato di regolarità fiscale", Keywords: []string{"regolarità fiscal", "agenzia entrate", "debiti fiscali", "imposte"}},
	{Name: "certificato di iscrizione al registro delle imprese", Keywords: []string{"registro imprese", "iscrizione camera", "CCIAA", "camera di commercio"}},
	{Name: "piano di sicurezza", Keywords: []string{"sicurezza", "piano di sicurezza", "PSC", "coordinamento sicurezza"}},
	{Name: "certificato di conformità", Keywords: []string{"conformità", "certificato conformità", "dichiarazione conformità", "attestazione conformità"}},
	{Name: "Attestazione del professionista", Keywords: []string{"attestazione professionist", "perizia", "relazione professionist", "relazione tecnica"}},
	{Name: "GANTT del progetto", Keywords: []string{"gantt", "cronoprogramma", "tempistiche", "pianificazione temporale"}},
	{Name: "atto di nomina", Keywords: []string{"nomina", "atto di nomina", "designazione", "incarico"}},
	{Name: "visura catastale", Keywords: []string{"visura catast", "catasto", "dati catastali", "estratto catastale"}},
	{Name: "DSAN", Keywords: []string{"DSAN", "dichiarazione sostitutiva atto notorietà", "atto notorio", "dichiarazione sostitutiva"}},
	{Name: "certificato di attribuzione di partita IVA", Keywords: []string{"partita IVA", "P.IVA", "attribuzione IVA", "certificato IVA"}},
	{Name: "brevetto", Keywords: []string{"brevett", "patent", "proprietà intellettuale", "invenzione"}},
	{Name: "licenza brevettuale", Keywords: []string{"licenza brevett", "licenza patent", "uso brevetto", "sfruttamento brevetto"}},
	{Name: "attestato di certificazione del libretto", Keywords: []string{"libretto", "libretto di certificazione", "libretto formativo", "attestato libretto"}},
	{Name: "visura camerale", Keywords: []string{"visura", "visura camerale", "camera di commercio", "registro imprese"}},
	{Name: "carta d'identità", Keywords: []string{"carta d'identità", "documento identità", "carta identità", "documento d'identità"}},
	{Name: "codice fiscale", Keywords: []string{"codice fiscale", "tessera sanitaria", "codice contribuente"}},
	{Name: "certificato Soa", Keywords: []string{"SOA", "attestazione SOA", "qualificazione", "certificato SOA"}},
}
