package correlate

import (
	"fmt"
	"strings"
)

// Entity-resolution weights. Matches add, disagreements subtract; a field
// absent on either side contributes nothing.
const (
	nameMatchPoints     = 40
	nameMismatchPoints  = -20
	emailMatchPoints    = 35
	emailMismatchPoints = -15
	phoneMatchPoints    = 30
	phoneMismatchPoints = -10
	addressMatchPoints  = 20
	cityStatePoints     = 10

	matchThreshold    = 50
	minMatchingFields = 2
)

// ResolveEntity decides whether two profiles describe the same person using
// weighted pairwise field comparison, independent of how either profile was
// correlated.
func (e *Engine) ResolveEntity(a, b *PersonProfile) EntityMatch {
	confidence := 0
	var matching, conflicting []string

	switch compareSets(a.Names, b.Names, normalizeName, e.sameName) {
	case cmpMatch:
		confidence += nameMatchPoints
		matching = append(matching, "name")
	case cmpMismatch:
		confidence += nameMismatchPoints
		conflicting = append(conflicting, "name")
	}

	switch compareSets(a.Emails, b.Emails, normalizeEmail, exactEqual) {
	case cmpMatch:
		confidence += emailMatchPoints
		matching = append(matching, "email")
	case cmpMismatch:
		confidence += emailMismatchPoints
		conflicting = append(conflicting, "email")
	}

	switch compareSets(a.Phones, b.Phones, normalizePhone, exactEqual) {
	case cmpMatch:
		confidence += phoneMatchPoints
		matching = append(matching, "phone")
	case cmpMismatch:
		confidence += phoneMismatchPoints
		conflicting = append(conflicting, "phone")
	}

	switch compareSets(a.Addresses, b.Addresses, normalizeAddress, e.fuzzyEqual) {
	case cmpMatch:
		confidence += addressMatchPoints
		matching = append(matching, "address")
	case cmpMismatch:
		if citiesOverlap(a.Addresses, b.Addresses) {
			confidence += cityStatePoints
			matching = append(matching, "city_state")
		}
	}

	if confidence > 100 {
		confidence = 100
	}
	if confidence < 0 {
		confidence = 0
	}

	isMatch := confidence >= matchThreshold && len(matching) >= minMatchingFields

	return EntityMatch{
		Confidence:        confidence,
		IsMatch:           isMatch,
		MatchingFields:    matching,
		ConflictingFields: conflicting,
		Reasoning:         matchReasoning(isMatch, confidence, matching, conflicting),
	}
}

// ResolveEntities groups profiles into person clusters: each profile joins
// the first existing cluster whose representative matches it, or starts a new
// cluster.
func (e *Engine) ResolveEntities(profiles []*PersonProfile) [][]*PersonProfile {
	var clusters [][]*PersonProfile
	for _, p := range profiles {
		placed := false
		for i, cluster := range clusters {
			if e.ResolveEntity(cluster[0], p).IsMatch {
				clusters[i] = append(clusters[i], p)
				placed = true
				break
			}
		}
		if !placed {
			clusters = append(clusters, []*PersonProfile{p})
		}
	}
	return clusters
}

type cmpOutcome int

const (
	cmpAbsent cmpOutcome = iota
	cmpMatch
	cmpMismatch
)

// compareSets normalizes both sides and reports match when any pair agrees,
// mismatch when both sides have values but none agree, absent otherwise.
func compareSets(a, b []string, normalize func(string) string, same func(x, y string) bool) cmpOutcome {
	if len(a) == 0 || len(b) == 0 {
		return cmpAbsent
	}
	for _, va := range a {
		na := normalize(va)
		for _, vb := range b {
			if same(na, normalize(vb)) {
				return cmpMatch
			}
		}
	}
	return cmpMismatch
}

// citiesOverlap checks for a shared trailing city/state token pair between
// any address pair, a weaker signal than a full address match.
func citiesOverlap(a, b []string) bool {
	for _, va := range a {
		ta := strings.Fields(normalizeAddress(va))
		if len(ta) < 2 {
			continue
		}
		tailA := strings.Join(ta[len(ta)-2:], " ")
		for _, vb := range b {
			tb := strings.Fields(normalizeAddress(vb))
			if len(tb) < 2 {
				continue
			}
			if tailA == strings.Join(tb[len(tb)-2:], " ") {
				return true
			}
		}
	}
	return false
}

func matchReasoning(isMatch bool, confidence int, matching, conflicting []string) string {
	verdict := "profiles describe different people"
	if isMatch {
		verdict = "profiles describe the same person"
	}
	parts := fmt.Sprintf("%s (confidence %d", verdict, confidence)
	if len(matching) > 0 {
		parts += ", agree on " + strings.Join(matching, ", ")
	}
	if len(conflicting) > 0 {
		parts += ", disagree on " + strings.Join(conflicting, ", ")
	}
	return parts + ")"
}
