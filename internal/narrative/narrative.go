// Package narrative turns raw time entry descriptions into the
// professional fee narrative that appears on an invoice.
//
// Generation is pure and in-memory. Randomness (transition word choice)
// comes from a seeded source so output is reproducible in tests.
// Generate never fails: when the entries give it nothing to work with it
// degrades to a minimal templated sentence rather than returning an error.
package narrative

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/lexohub/lexohub/internal/domain"
)

// Tone selects the register of the generated narrative.
type Tone string

const (
	ToneStandard Tone = "standard"
	ToneConcise  Tone = "concise"
	ToneDetailed Tone = "detailed"
)

// ParseTone maps a raw tone token to a Tone, defaulting to standard.
func ParseTone(raw string) Tone {
	switch Tone(strings.ToLower(strings.TrimSpace(raw))) {
	case ToneConcise:
		return ToneConcise
	case ToneDetailed:
		return ToneDetailed
	default:
		return ToneStandard
	}
}

// WorkType is the billing category a time entry is classified into.
type WorkType string

const (
	WorkTypeCourtAppearance WorkType = "Court Appearance"
	WorkTypeClientMeeting   WorkType = "Client Meeting"
	WorkTypeDrafting        WorkType = "Drafting"
	WorkTypeDocumentReview  WorkType = "Document Review"
	WorkTypeResearch        WorkType = "Research"
	WorkTypeCorrespondence  WorkType = "Correspondence"

	// WorkTypeGeneral catches entries no keyword matches. It is a named
	// category in its own right so unclassified work is visible on the
	// invoice instead of disappearing into an empty bucket.
	WorkTypeGeneral WorkType = "General"
)

// workTypeOrder fixes both classification precedence (first match wins)
// and the order groups render in.
var workTypeOrder = []WorkType{
	WorkTypeCourtAppearance,
	WorkTypeClientMeeting,
	WorkTypeDrafting,
	WorkTypeDocumentReview,
	WorkTypeResearch,
	WorkTypeCorrespondence,
	WorkTypeGeneral,
}

var workTypeKeywords = map[WorkType][]string{
	// "argue" covers argued/argues; the bare noun "argument" is excluded
	// so "heads of argument" classifies as drafting work.
	WorkTypeCourtAppearance: {"court", "hearing", "appearance", "appear", "trial", "argue", "motion", "application heard"},
	WorkTypeClientMeeting:   {"consultation", "consult", "meeting", "conference", "confer", "attend on client"},
	WorkTypeDrafting:        {"draft", "prepare", "settle", "amend", "revise"},
	WorkTypeDocumentReview:  {"review", "peruse", "perusal", "read", "consider documents", "study"},
	WorkTypeResearch:        {"research", "investigate", "authorities", "case law", "opinion", "analyse", "analyze"},
	WorkTypeCorrespondence:  {"letter", "email", "e-mail", "correspond", "telephone", "call"},
}

// Classify assigns a work type to a time entry description. Matching is
// case-insensitive; categories are tried in a fixed order and the first
// keyword hit wins. Descriptions nothing matches fall into General.
func Classify(description string) WorkType {
	desc := strings.ToLower(description)
	for _, wt := range workTypeOrder {
		for _, kw := range workTypeKeywords[wt] {
			if strings.Contains(desc, kw) {
				return wt
			}
		}
	}
	return WorkTypeGeneral
}

// Options configure one generation run.
type Options struct {
	Tone        Tone
	GroupByDate bool

	// MatterTitle appears in the matter reference phrase, e.g.
	// "in the matter of S v Ndlovu". Empty falls back to "in this matter".
	MatterTitle string
}

// Narrative is generated text with quality metadata.
type Narrative struct {
	Text        string
	Confidence  float64
	WorkTypes   []WorkType
	Suggestions []string

	// Alternatives holds the same narrative rendered in the other two
	// tones, so a caller can offer them without generating again.
	Alternatives map[Tone]string
}

// Suggestion texts surfaced alongside a generated narrative.
const (
	SuggestionMoreDetail       = "Narrative is very short; consider recording more detail in time entry descriptions"
	SuggestionOutcomeLanguage  = "Consider adding outcome language describing what the work achieved"
	SuggestionSplitInvoice     = "More than three distinct work types; consider splitting the invoice by work stream"
	SuggestionExpandBriefEntry = "Some time entry descriptions are very brief; expand them for a stronger narrative"
)

var transitionWords = []string{"Additionally", "Furthermore", "In addition", "Moreover", "Further"}

// Generator produces fee narratives. Safe for concurrent use.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// New creates a Generator whose transition word choices derive from seed.
// Production seeds from the clock; tests pass a fixed seed.
func New(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// Generate builds the narrative for a set of time entries, with the
// other two tone renderings attached as alternatives. It never returns
// an error; with no usable entries it produces the minimal templated
// sentence at floor confidence.
func (g *Generator) Generate(entries []domain.TimeEntry, opts Options) Narrative {
	if opts.Tone == "" {
		opts.Tone = ToneStandard
	}

	if len(entries) == 0 {
		fb := fallbackSentence(opts.MatterTitle)
		return Narrative{
			Text:         fb,
			Confidence:   minConfidence,
			WorkTypes:    nil,
			Suggestions:  []string{SuggestionMoreDetail},
			Alternatives: alternativeTexts(opts.Tone, func(Tone) string { return fb }),
		}
	}

	var groups []entryGroup
	if opts.GroupByDate {
		groups = groupByDate(entries)
	} else {
		groups = groupByWorkType(entries)
	}

	// One transition draw per follow-on sentence, shared by every tone
	// rendering so the variants differ in register, not in word choice.
	transitions := g.drawTransitions(len(groups) - 1)

	render := func(tone Tone) string {
		sentences := make([]string, 0, len(groups))
		for i, grp := range groups {
			s := renderSentence(grp, tone, opts.MatterTitle, i, transitions)
			if s == "" {
				continue
			}
			sentences = append(sentences, s)
		}
		text := polish(strings.Join(sentences, " "))
		if text == "" {
			text = fallbackSentence(opts.MatterTitle)
		}
		return text
	}

	text := render(opts.Tone)
	workTypes := distinctWorkTypes(entries)

	return Narrative{
		Text:         text,
		Confidence:   confidence(entries),
		WorkTypes:    workTypes,
		Suggestions:  suggestions(text, entries, workTypes),
		Alternatives: alternativeTexts(opts.Tone, render),
	}
}

// alternativeTexts renders the two tones other than the primary.
func alternativeTexts(primary Tone, render func(Tone) string) map[Tone]string {
	alts := make(map[Tone]string, 2)
	for _, tone := range []Tone{ToneStandard, ToneConcise, ToneDetailed} {
		if tone == primary {
			continue
		}
		alts[tone] = render(tone)
	}
	return alts
}

type entryGroup struct {
	workType WorkType
	dateKey  string // "2 January 2025" when grouping by date
	minutes  int
	entries  []domain.TimeEntry
}

func groupByWorkType(entries []domain.TimeEntry) []entryGroup {
	byType := make(map[WorkType]*entryGroup)
	for _, e := range entries {
		wt := Classify(e.Description)
		grp, ok := byType[wt]
		if !ok {
			grp = &entryGroup{workType: wt}
			byType[wt] = grp
		}
		grp.minutes += e.DurationMinutes
		grp.entries = append(grp.entries, e)
	}

	groups := make([]entryGroup, 0, len(byType))
	for _, wt := range workTypeOrder {
		if grp, ok := byType[wt]; ok {
			groups = append(groups, *grp)
		}
	}
	return groups
}

func groupByDate(entries []domain.TimeEntry) []entryGroup {
	byDay := make(map[string]*entryGroup)
	for _, e := range entries {
		key := e.Date.Format("2 January 2006")
		grp, ok := byDay[key]
		if !ok {
			grp = &entryGroup{dateKey: key, workType: Classify(e.Description)}
			byDay[key] = grp
		}
		grp.minutes += e.DurationMinutes
		grp.entries = append(grp.entries, e)
	}

	groups := make([]entryGroup, 0, len(byDay))
	for _, grp := range byDay {
		groups = append(groups, *grp)
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].entries[0].Date.Before(groups[j].entries[0].Date)
	})
	return groups
}

// verbPhrases render after "spent", e.g. "2 hours spent drafting and
// preparing documents".
var verbPhrases = map[Tone]map[WorkType]string{
	ToneStandard: {
		WorkTypeCourtAppearance: "appearing in court",
		WorkTypeClientMeeting:   "in consultation",
		WorkTypeDrafting:        "drafting and preparing documents",
		WorkTypeDocumentReview:  "reviewing documentation",
		WorkTypeResearch:        "conducting legal research",
		WorkTypeCorrespondence:  "attending to correspondence",
		WorkTypeGeneral:         "attending to the matter generally",
	},
	ToneDetailed: {
		WorkTypeCourtAppearance: "preparing for and appearing in court",
		WorkTypeClientMeeting:   "in consultation and conference",
		WorkTypeDrafting:        "drafting, settling and revising documents",
		WorkTypeDocumentReview:  "conducting a detailed review of the documentation",
		WorkTypeResearch:        "conducting comprehensive legal research and considering the authorities",
		WorkTypeCorrespondence:  "attending to and considering correspondence",
		WorkTypeGeneral:         "attending to the requirements of the matter",
	},
}

var outcomePhrases = map[WorkType]string{
	WorkTypeCourtAppearance: "on the client's behalf",
	WorkTypeClientMeeting:   "in order to take instructions",
	WorkTypeDrafting:        "for service and filing",
	WorkTypeDocumentReview:  "in order to isolate the material issues",
	WorkTypeResearch:        "in order to advise on the merits",
	WorkTypeCorrespondence:  "in order to progress the matter",
	WorkTypeGeneral:         "as the matter required",
}

// outcomeMarkers identify outcome language when scanning generated or
// hand-edited narrative text.
var outcomeMarkers = []string{
	"in order to", "for service", "behalf", "as the matter required",
	"culminating", "resulting in", "so as to",
}

func renderSentence(grp entryGroup, tone Tone, matterTitle string, index int, transitions []string) string {
	verbs := verbPhrases[ToneStandard]
	if tone == ToneDetailed {
		verbs = verbPhrases[ToneDetailed]
	}

	var b strings.Builder

	if index > 0 && tone != ToneConcise {
		b.WriteString(transitions[index-1])
		b.WriteString(", ")
	}

	if grp.dateKey != "" {
		b.WriteString("on ")
		b.WriteString(grp.dateKey)
		b.WriteString(", ")
	}

	b.WriteString(formatDuration(grp.minutes))
	b.WriteString(" spent ")
	b.WriteString(verbs[grp.workType])

	// The first sentence names the matter; later ones refer back to it.
	if index == 0 && matterTitle != "" {
		b.WriteString(" in the matter of ")
		b.WriteString(matterTitle)
	} else {
		b.WriteString(" in this matter")
	}

	if tone != ToneConcise {
		if sample := sampleDescriptions(grp.entries, tone); sample != "" {
			b.WriteString(", including ")
			b.WriteString(sample)
			b.WriteString(",")
		}
		b.WriteString(" ")
		b.WriteString(outcomePhrases[grp.workType])
	}

	b.WriteString(".")
	return b.String()
}

// drawTransitions picks the connectives for every follow-on sentence in
// one generation run.
func (g *Generator) drawTransitions(n int) []string {
	if n <= 0 {
		return nil
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	words := make([]string, n)
	for i := range words {
		words[i] = transitionWords[g.rng.Intn(len(transitionWords))]
	}
	return words
}

// sampleDescriptions folds up to a few entry descriptions into the
// sentence. Standard tone samples small groups only; detailed samples up
// to three entries regardless of group size.
func sampleDescriptions(entries []domain.TimeEntry, tone Tone) string {
	limit := 0
	switch tone {
	case ToneStandard:
		if len(entries) <= 3 {
			limit = 2
		}
	case ToneDetailed:
		limit = 3
	}
	if limit == 0 {
		return ""
	}

	parts := make([]string, 0, limit)
	for _, e := range entries {
		d := normalizeDescription(e.Description)
		if d == "" {
			continue
		}
		parts = append(parts, d)
		if len(parts) == limit {
			break
		}
	}
	return strings.Join(parts, " and ")
}

func normalizeDescription(desc string) string {
	d := strings.TrimSpace(desc)
	d = strings.TrimRight(d, ".")
	if d == "" {
		return ""
	}
	r := []rune(d)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}

// formatDuration renders minutes as invoice-friendly text.
func formatDuration(minutes int) string {
	if minutes <= 0 {
		return "0 minutes"
	}
	h, m := minutes/60, minutes%60
	switch {
	case h == 0:
		return fmt.Sprintf("%d %s", m, plural(m, "minute"))
	case m == 0:
		return fmt.Sprintf("%d %s", h, plural(h, "hour"))
	default:
		return fmt.Sprintf("%d %s %d %s", h, plural(h, "hour"), m, plural(m, "minute"))
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return unit
	}
	return unit + "s"
}

// Confidence scoring bounds.
const (
	baseConfidence = 0.70
	minConfidence  = 0.30
	maxConfidence  = 0.95
)

// confidence scores how well the raw entries support a narrative.
func confidence(entries []domain.TimeEntry) float64 {
	score := baseConfidence

	if len(entries) > 1 {
		score += 0.10
	}
	if len(entries) > 5 {
		score += 0.10
	}

	words := 0
	chars := 0
	for _, e := range entries {
		words += len(strings.Fields(e.Description))
		chars += len(strings.TrimSpace(e.Description))
	}
	if words > 20 {
		score += 0.05
	}
	if words > 50 {
		score += 0.05
	}
	if len(entries) > 0 && chars/len(entries) < 20 {
		score -= 0.10
	}

	if score < minConfidence {
		return minConfidence
	}
	if score > maxConfidence {
		return maxConfidence
	}
	return score
}

func distinctWorkTypes(entries []domain.TimeEntry) []WorkType {
	seen := make(map[WorkType]bool)
	for _, e := range entries {
		seen[Classify(e.Description)] = true
	}
	out := make([]WorkType, 0, len(seen))
	for _, wt := range workTypeOrder {
		if seen[wt] {
			out = append(out, wt)
		}
	}
	return out
}

func suggestions(text string, entries []domain.TimeEntry, workTypes []WorkType) []string {
	var out []string

	if len(text) < 50 {
		out = append(out, SuggestionMoreDetail)
	}
	if !hasOutcomeLanguage(text) {
		out = append(out, SuggestionOutcomeLanguage)
	}
	if len(workTypes) > 3 {
		out = append(out, SuggestionSplitInvoice)
	}
	for _, e := range entries {
		if len(strings.TrimSpace(e.Description)) < 10 {
			out = append(out, SuggestionExpandBriefEntry)
			break
		}
	}
	return out
}

func hasOutcomeLanguage(text string) bool {
	lower := strings.ToLower(text)
	for _, marker := range outcomeMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// polish collapses runs of whitespace, capitalizes the first letter and
// guarantees a terminal period.
func polish(text string) string {
	t := strings.Join(strings.Fields(text), " ")
	if t == "" {
		return ""
	}
	r := []rune(t)
	r[0] = unicode.ToUpper(r[0])
	t = string(r)
	if !strings.HasSuffix(t, ".") {
		t += "."
	}
	return t
}

func fallbackSentence(matterTitle string) string {
	if matterTitle == "" {
		return "Professional services rendered in this matter."
	}
	return fmt.Sprintf("Professional services rendered in the matter of %s.", matterTitle)
}
