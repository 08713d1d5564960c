package correlate

import (
	"strings"
	"unicode"
)

// nicknameAliases canonicalizes common given-name variants before comparison.
// The table is an empirically tuned heuristic, not exhaustive; false merges
// between distinct people sharing a canonical first name and surname are an
// accepted risk.
var nicknameAliases = map[string]string{
	"abby":    "abigail",
	"alex":    "alexander",
	"andy":    "andrew",
	"ben":     "benjamin",
	"beth":    "elizabeth",
	"betty":   "elizabeth",
	"bill":    "william",
	"billy":   "william",
	"bob":     "robert",
	"bobby":   "robert",
	"charlie": "charles",
	"chris":   "christopher",
	"chuck":   "charles",
	"dan":     "daniel",
	"danny":   "daniel",
	"dave":    "david",
	"dick":    "richard",
	"drew":    "andrew",
	"ed":      "edward",
	"eddie":   "edward",
	"fred":    "frederick",
	"greg":    "gregory",
	"jack":    "john",
	"jen":     "jennifer",
	"jenny":   "jennifer",
	"jim":     "james",
	"jimmy":   "james",
	"joe":     "joseph",
	"joey":    "joseph",
	"kate":    "katherine",
	"kathy":   "katherine",
	"katie":   "katherine",
	"ken":     "kenneth",
	"larry":   "lawrence",
	"liz":     "elizabeth",
	"maggie":  "margaret",
	"matt":    "matthew",
	"mike":    "michael",
	"nick":    "nicholas",
	"pat":     "patrick",
	"peggy":   "margaret",
	"rick":    "richard",
	"rob":     "robert",
	"ron":     "ronald",
	"sam":     "samuel",
	"steve":   "steven",
	"sue":     "susan",
	"ted":     "theodore",
	"tim":     "timothy",
	"tom":     "thomas",
	"tony":    "anthony",
	"will":    "william",
}

// streetSuffixes are address tokens dropped before comparison so
// "123 Main St" and "123 Main Street" normalize identically.
var streetSuffixes = map[string]struct{}{
	"st": {}, "street": {},
	"ave": {}, "avenue": {},
	"rd": {}, "road": {},
	"blvd": {}, "boulevard": {},
	"dr": {}, "drive": {},
	"ln": {}, "lane": {},
	"ct": {}, "court": {},
	"pl": {}, "place": {},
	"way": {},
	"apt": {}, "suite": {}, "ste": {}, "unit": {},
}

// normalizeName lowercases, strips punctuation, and canonicalizes nickname
// tokens via the alias table.
func normalizeName(name string) string {
	lowered := strings.ToLower(strings.TrimSpace(name))
	var b strings.Builder
	for _, r := range lowered {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	tokens := strings.Fields(b.String())
	for i, tok := range tokens {
		if canonical, ok := nicknameAliases[tok]; ok {
			tokens[i] = canonical
		}
	}
	return strings.Join(tokens, " ")
}

// normalizeEmail lowercases and trims; email comparison is exact after that.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// normalizePhone strips everything but digits and prefixes +, assuming +1 for
// bare 10-digit US numbers.
func normalizePhone(phone string) string {
	var digits strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := digits.String()
	if d == "" {
		return ""
	}
	if len(d) == 10 {
		return "+1" + d
	}
	return "+" + d
}

// normalizeAddress lowercases, strips punctuation, and drops common street
// suffix tokens.
func normalizeAddress(address string) string {
	lowered := strings.ToLower(strings.TrimSpace(address))
	var b strings.Builder
	for _, r := range lowered {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	tokens := strings.Fields(b.String())
	kept := tokens[:0]
	for _, tok := range tokens {
		if _, drop := streetSuffixes[tok]; drop {
			continue
		}
		kept = append(kept, tok)
	}
	return strings.Join(kept, " ")
}
