package correlate

import (
	"sort"
	"strings"
)

// Source is one raw provider payload. The engine tolerates several shapes:
// fields may sit at the top level or nested under a "person" key, values may
// be single strings, lists, or objects carrying display/full/address/number
// keys.
type Source = map[string]any

const (
	// defaultSimilarityThreshold is the generic fuzzy-equality cutoff.
	defaultSimilarityThreshold = 0.85

	// defaultFirstNameThreshold is the looser cutoff used for first names
	// inside full-name comparison, where nicknames and spelling drift are
	// common.
	defaultFirstNameThreshold = 0.7
)

// Engine merges raw payloads into scored profiles. Thresholds are tunable
// heuristics; the defaults are the empirically tuned values.
type Engine struct {
	similarityThreshold float64
	firstNameThreshold  float64
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithSimilarityThreshold overrides the generic fuzzy-equality cutoff.
func WithSimilarityThreshold(v float64) EngineOption {
	return func(e *Engine) {
		if v > 0 && v <= 1 {
			e.similarityThreshold = v
		}
	}
}

// WithFirstNameThreshold overrides the first-name comparison cutoff.
func WithFirstNameThreshold(v float64) EngineOption {
	return func(e *Engine) {
		if v > 0 && v <= 1 {
			e.firstNameThreshold = v
		}
	}
}

// NewEngine constructs a correlation engine with default thresholds.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		similarityThreshold: defaultSimilarityThreshold,
		firstNameThreshold:  defaultFirstNameThreshold,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Correlate merges the given raw payloads into one deduplicated, scored
// profile. The merge is order-independent: permuting sources yields the same
// sets and the same confidence score.
func (e *Engine) Correlate(sources []Source) CorrelationResult {
	extracts := make([]extract, 0, len(sources))
	for _, src := range sources {
		extracts = append(extracts, extractFields(src))
	}

	merged := e.mergeExtracts(extracts)
	score := e.scoreProfile(merged, extracts)

	return CorrelationResult{
		Profile:         merged,
		ConfidenceScore: score,
		DataQuality:     qualityFor(score),
		MatchingFields:  corroboratedFields(extracts),
		Conflicts:       e.findConflicts(merged),
	}
}

func qualityFor(score int) DataQuality {
	switch {
	case score > 70:
		return QualityHigh
	case score > 40:
		return QualityMedium
	default:
		return QualityLow
	}
}

// mergeExtracts unions all per-source fields and deduplicates each category
// with its fuzzy comparator.
func (e *Engine) mergeExtracts(extracts []extract) PersonProfile {
	var names, emails, phones, addresses, employment, breaches []string
	social := make(map[string]string)

	for _, ex := range extracts {
		names = append(names, ex.names...)
		emails = append(emails, ex.emails...)
		phones = append(phones, ex.phones...)
		addresses = append(addresses, ex.addresses...)
		employment = append(employment, ex.employment...)
		breaches = append(breaches, ex.breaches...)
		for platform, presence := range ex.social {
			// On platform collision keep the more complete value.
			if existing, ok := social[platform]; !ok || len(presence) > len(existing) {
				social[platform] = presence
			}
		}
	}

	return PersonProfile{
		Names:             e.dedupe(names, normalizeName, e.sameName),
		Emails:            e.dedupe(emails, normalizeEmail, exactEqual),
		Phones:            e.dedupe(phones, normalizePhone, exactEqual),
		Addresses:         e.dedupe(addresses, normalizeAddress, e.fuzzyEqual),
		SocialMedia:       social,
		EmploymentHistory: e.dedupe(employment, strings.ToLower, e.fuzzyEqual),
		DataBreaches:      e.dedupe(breaches, strings.ToLower, exactEqual),
	}
}

// dedupe removes fuzzy duplicates. Candidates are visited longest-first so a
// collision always keeps the more complete string, and the visit order is
// fully determined by the value set, never by source order.
func (e *Engine) dedupe(values []string, normalize func(string) string, same func(a, b string) bool) []string {
	type candidate struct {
		original string
		norm     string
	}

	seen := make(map[string]struct{}, len(values))
	candidates := make([]candidate, 0, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		norm := normalize(trimmed)
		if norm == "" {
			continue
		}
		key := norm + "\x00" + trimmed
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		candidates = append(candidates, candidate{original: trimmed, norm: norm})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if len(candidates[i].original) != len(candidates[j].original) {
			return len(candidates[i].original) > len(candidates[j].original)
		}
		return candidates[i].original < candidates[j].original
	})

	var kept []candidate
	for _, c := range candidates {
		collides := false
		for _, k := range kept {
			if same(k.norm, c.norm) {
				collides = true
				break
			}
		}
		if !collides {
			kept = append(kept, c)
		}
	}

	out := make([]string, 0, len(kept))
	for _, k := range kept {
		out = append(out, k.original)
	}
	sort.Strings(out)
	return out
}

func exactEqual(a, b string) bool { return a == b }

// fuzzyEqual treats two normalized values as the same when they are equal,
// one contains the other, or their Levenshtein similarity clears the generic
// threshold.
func (e *Engine) fuzzyEqual(a, b string) bool {
	if a == b {
		return true
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return true
	}
	return similarity(a, b) >= e.similarityThreshold
}

// sameName compares normalized full names. Multi-token names match when the
// surnames fuzzily agree and the first names clear the looser first-name
// threshold; anything else falls back to whole-string similarity.
func (e *Engine) sameName(a, b string) bool {
	if a == b {
		return true
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return true
	}
	ta, tb := strings.Fields(a), strings.Fields(b)
	if len(ta) > 1 && len(tb) > 1 {
		if !e.fuzzyEqual(ta[len(ta)-1], tb[len(tb)-1]) {
			return false
		}
		return similarity(ta[0], tb[0]) >= e.firstNameThreshold
	}
	return similarity(a, b) >= e.similarityThreshold
}

// categoryPoints is the additive scoring model: presence points plus a capped
// bonus for additional corroborating variants.
type categoryPoints struct {
	present  int
	perExtra int
	bonusCap int
}

var scoreModel = map[string]categoryPoints{
	"names":     {present: 15, perExtra: 5, bonusCap: 10},
	"emails":    {present: 15, perExtra: 5, bonusCap: 10},
	"phones":    {present: 12, perExtra: 4, bonusCap: 8},
	"addresses": {present: 10, perExtra: 5, bonusCap: 5},
	"social":    {present: 5, perExtra: 3, bonusCap: 5},
}

const (
	employmentPoints = 5
	breachPoints     = 5
	perSourcePoints  = 3
	multiSourceCap   = 15
	crossFieldBonus  = 10
	maxScore         = 25 + 25 + 20 + 15 + 10 + employmentPoints + breachPoints + multiSourceCap + crossFieldBonus
)

// scoreProfile computes the 0-100 confidence score: per-category capped
// points, a multi-source bonus, and a cross-field bonus, normalized against
// the model's maximum.
func (e *Engine) scoreProfile(p PersonProfile, extracts []extract) int {
	raw := 0
	raw += categoryScore("names", len(p.Names))
	raw += categoryScore("emails", len(p.Emails))
	raw += categoryScore("phones", len(p.Phones))
	raw += categoryScore("addresses", len(p.Addresses))
	raw += categoryScore("social", len(p.SocialMedia))

	if len(p.EmploymentHistory) > 0 {
		raw += employmentPoints
	}
	if len(p.DataBreaches) > 0 {
		raw += breachPoints
	}

	contributing := 0
	for _, ex := range extracts {
		if !ex.empty() {
			contributing++
		}
	}
	raw += min(multiSourceCap, perSourcePoints*contributing)

	if len(p.Names) > 0 && len(p.Emails) > 0 && len(p.Phones) > 0 {
		raw += crossFieldBonus
	}

	score := raw * 100 / maxScore
	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return score
}

func categoryScore(field string, count int) int {
	if count == 0 {
		return 0
	}
	points := scoreModel[field]
	bonus := 0
	if count >= 2 {
		bonus = min(points.bonusCap, points.perExtra*(count-1))
	}
	return points.present + bonus
}

// corroboratedFields lists the categories at least two sources contributed
// to; those are the fields on which sources agree the person exists.
func corroboratedFields(extracts []extract) []string {
	counts := map[string]int{}
	for _, ex := range extracts {
		for _, field := range ex.populatedFields() {
			counts[field]++
		}
	}
	var out []string
	for field, n := range counts {
		if n >= 2 {
			out = append(out, field)
		}
	}
	sort.Strings(out)
	return out
}

// findConflicts flags fields whose deduplicated variant count suggests the
// sources disagree: more than three variants generically, and for names any
// residual plurality after the fuzzy merge.
func (e *Engine) findConflicts(p PersonProfile) []string {
	var conflicts []string
	if len(p.Names) > 1 {
		conflicts = append(conflicts, "names")
	}
	for field, count := range map[string]int{
		"emails":    len(p.Emails),
		"phones":    len(p.Phones),
		"addresses": len(p.Addresses),
	} {
		if count > 3 {
			conflicts = append(conflicts, field)
		}
	}
	sort.Strings(conflicts)
	return conflicts
}
