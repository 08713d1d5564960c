// Package correlate merges raw provider payloads into a single deduplicated,
// scored person profile, and decides whether two profiles describe the same
// person. Everything here is pure: no I/O, no shared state, profiles are
// always rebuilt from source payloads rather than mutated across calls.
package correlate

// PersonProfile is the consolidated identity view built from one or more raw
// provider payloads. Slice fields are deduplicated and sorted; no two entries
// share a normalized form.
type PersonProfile struct {
	Names             []string          `json:"names"`
	Emails            []string          `json:"emails"`
	Phones            []string          `json:"phones"`
	Addresses         []string          `json:"addresses"`
	SocialMedia       map[string]string `json:"social_media"`
	EmploymentHistory []string          `json:"employment_history"`
	DataBreaches      []string          `json:"data_breaches"`
}

// IsEmpty reports whether no category holds any data.
func (p *PersonProfile) IsEmpty() bool {
	return len(p.Names) == 0 &&
		len(p.Emails) == 0 &&
		len(p.Phones) == 0 &&
		len(p.Addresses) == 0 &&
		len(p.SocialMedia) == 0 &&
		len(p.EmploymentHistory) == 0 &&
		len(p.DataBreaches) == 0
}

// DataQuality grades a correlation result for consumers that branch on it.
type DataQuality string

const (
	QualityHigh   DataQuality = "high"
	QualityMedium DataQuality = "medium"
	QualityLow    DataQuality = "low"
)

// CorrelationResult is the scored outcome of merging raw payloads.
type CorrelationResult struct {
	Profile         PersonProfile `json:"profile"`
	ConfidenceScore int           `json:"confidence_score"`
	DataQuality     DataQuality   `json:"data_quality"`
	MatchingFields  []string      `json:"matching_fields"`
	Conflicts       []string      `json:"conflicts"`
}

// EntityMatch is the outcome of comparing two profiles pairwise.
type EntityMatch struct {
	Confidence        int      `json:"confidence"`
	IsMatch           bool     `json:"is_match"`
	MatchingFields    []string `json:"matching_fields"`
	ConflictingFields []string `json:"conflicting_fields"`
	Reasoning         string   `json:"reasoning"`
}
