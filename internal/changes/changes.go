// Package changes diffs two person profiles captured at different times into
// typed changes for monitoring alerts.
package changes

import (
	"fmt"
	"sort"
	"strings"

	"personlens/internal/correlate"
)

// Type classifies a detected profile change.
type Type string

const (
	TypeNewAddress  Type = "new_address"
	TypeNewPhone    Type = "new_phone"
	TypeNewEmail    Type = "new_email"
	TypeNewSocial   Type = "new_social"
	TypeRemovedData Type = "removed_data"
	TypeUpdatedData Type = "updated_data"
)

// Change is one detected difference between two profile observations.
type Change struct {
	Type        Type    `json:"type"`
	Field       string  `json:"field"`
	OldValue    string  `json:"oldValue,omitempty"`
	NewValue    string  `json:"newValue"`
	Confidence  float64 `json:"confidence"`
	Description string  `json:"description"`
}

// Detection is the outcome of comparing two observations. Confidence is the
// mean of the individual change confidences, zero when nothing changed.
type Detection struct {
	HasChanges bool     `json:"hasChanges"`
	Changes    []Change `json:"changes"`
	Confidence float64  `json:"confidence"`
}

// Per-category confidence for additions and removals. Additions are weighted
// by how reliably providers report the category; removals are weaker evidence
// since providers drop records for many reasons besides real-world change.
var (
	addedConfidence = map[Type]float64{
		TypeNewEmail:   0.95,
		TypeNewPhone:   0.90,
		TypeNewSocial:  0.90,
		TypeNewAddress: 0.85,
	}
	removedConfidence = map[string]float64{
		"emails":    0.80,
		"phones":    0.75,
		"social":    0.75,
		"addresses": 0.70,
	}
	updatedSocialConfidence = 0.85
)

// Detect compares the previous observation against the current one. A nil old
// profile means first observation: every non-empty category yields a single
// new_* change at full confidence and nothing can be reported as removed.
func Detect(old, current *correlate.PersonProfile) Detection {
	if current == nil {
		return Detection{}
	}
	var out []Change
	if old == nil {
		out = firstObservation(current)
	} else {
		out = diff(old, current)
	}
	return Detection{
		HasChanges: len(out) > 0,
		Changes:    out,
		Confidence: meanConfidence(out),
	}
}

func firstObservation(p *correlate.PersonProfile) []Change {
	var out []Change
	if len(p.Addresses) > 0 {
		out = append(out, firstChange(TypeNewAddress, "addresses", p.Addresses))
	}
	if len(p.Phones) > 0 {
		out = append(out, firstChange(TypeNewPhone, "phones", p.Phones))
	}
	if len(p.Emails) > 0 {
		out = append(out, firstChange(TypeNewEmail, "emails", p.Emails))
	}
	if len(p.SocialMedia) > 0 {
		out = append(out, firstChange(TypeNewSocial, "social", socialEntries(p.SocialMedia)))
	}
	return out
}

func firstChange(t Type, field string, values []string) Change {
	joined := strings.Join(values, ", ")
	return Change{
		Type:        t,
		Field:       field,
		NewValue:    joined,
		Confidence:  1.0,
		Description: fmt.Sprintf("first observation recorded %s: %s", field, joined),
	}
}

func diff(old, current *correlate.PersonProfile) []Change {
	var out []Change
	out = append(out, diffCategory(TypeNewAddress, "addresses", old.Addresses, current.Addresses, foldAddress)...)
	out = append(out, diffCategory(TypeNewPhone, "phones", old.Phones, current.Phones, foldPhone)...)
	out = append(out, diffCategory(TypeNewEmail, "emails", old.Emails, current.Emails, fold)...)
	out = append(out, diffSocial(old.SocialMedia, current.SocialMedia)...)
	return out
}

// diffCategory computes per-item set differences after normalization: items
// only in current become additions, items only in old become removals.
func diffCategory(added Type, field string, old, current []string, norm func(string) string) []Change {
	oldSet := normalizedSet(old, norm)
	currentSet := normalizedSet(current, norm)

	var out []Change
	for _, key := range sortedKeys(currentSet) {
		if _, existed := oldSet[key]; existed {
			continue
		}
		value := currentSet[key]
		out = append(out, Change{
			Type:        added,
			Field:       field,
			NewValue:    value,
			Confidence:  addedConfidence[added],
			Description: fmt.Sprintf("new %s found: %s", singular(field), value),
		})
	}
	for _, key := range sortedKeys(oldSet) {
		if _, present := currentSet[key]; present {
			continue
		}
		value := oldSet[key]
		out = append(out, Change{
			Type:        TypeRemovedData,
			Field:       field,
			OldValue:    value,
			NewValue:    "",
			Confidence:  removedConfidence[field],
			Description: fmt.Sprintf("%s no longer reported: %s", singular(field), value),
		})
	}
	return out
}

// diffSocial treats the platform as identity: a new platform is an addition, a
// vanished platform a removal, and a changed handle on the same platform an
// update.
func diffSocial(old, current map[string]string) []Change {
	old = foldedKeys(old)
	current = foldedKeys(current)

	var out []Change
	for _, platform := range sortedKeys(current) {
		handle := current[platform]
		prev, existed := old[platform]
		switch {
		case !existed:
			out = append(out, Change{
				Type:        TypeNewSocial,
				Field:       "social",
				NewValue:    platform + ": " + handle,
				Confidence:  addedConfidence[TypeNewSocial],
				Description: fmt.Sprintf("new social presence found on %s: %s", platform, handle),
			})
		case fold(prev) != fold(handle):
			out = append(out, Change{
				Type:        TypeUpdatedData,
				Field:       "social",
				OldValue:    platform + ": " + prev,
				NewValue:    platform + ": " + handle,
				Confidence:  updatedSocialConfidence,
				Description: fmt.Sprintf("social presence on %s changed from %s to %s", platform, prev, handle),
			})
		}
	}
	for _, platform := range sortedKeys(old) {
		if _, present := current[platform]; present {
			continue
		}
		out = append(out, Change{
			Type:        TypeRemovedData,
			Field:       "social",
			OldValue:    platform + ": " + old[platform],
			NewValue:    "",
			Confidence:  removedConfidence["social"],
			Description: fmt.Sprintf("social presence on %s no longer reported", platform),
		})
	}
	return out
}

func meanConfidence(cs []Change) float64 {
	if len(cs) == 0 {
		return 0
	}
	sum := 0.0
	for _, c := range cs {
		sum += c.Confidence
	}
	return sum / float64(len(cs))
}

// normalizedSet maps normalized form to the first original spelling seen.
func normalizedSet(values []string, norm func(string) string) map[string]string {
	out := make(map[string]string, len(values))
	for _, v := range values {
		key := norm(v)
		if key == "" {
			continue
		}
		if _, dup := out[key]; !dup {
			out[key] = strings.TrimSpace(v)
		}
	}
	return out
}

func fold(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func foldedKeys(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[fold(k)] = v
	}
	return out
}

// foldPhone reduces a phone to its digits so formatting differences never
// register as changes.
func foldPhone(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	d := b.String()
	// An 11-digit number with a leading 1 is the +1 form of the 10-digit one.
	if len(d) == 11 && d[0] == '1' {
		d = d[1:]
	}
	return d
}

func foldAddress(s string) string {
	return strings.Join(strings.Fields(fold(s)), " ")
}

func singular(field string) string {
	switch field {
	case "addresses":
		return "address"
	case "phones":
		return "phone"
	case "emails":
		return "email"
	}
	return field
}

func sortedKeys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func socialEntries(social map[string]string) []string {
	out := make([]string, 0, len(social))
	for _, platform := range sortedKeys(social) {
		out = append(out, platform+": "+social[platform])
	}
	return out
}
