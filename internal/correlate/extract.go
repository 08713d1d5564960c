package correlate

import (
	"fmt"
	"strings"
)

// extract is the per-source field pull, before any cross-source merging.
type extract struct {
	names      []string
	emails     []string
	phones     []string
	addresses  []string
	social     map[string]string
	employment []string
	breaches   []string
}

func (ex extract) empty() bool {
	return len(ex.names) == 0 &&
		len(ex.emails) == 0 &&
		len(ex.phones) == 0 &&
		len(ex.addresses) == 0 &&
		len(ex.social) == 0 &&
		len(ex.employment) == 0 &&
		len(ex.breaches) == 0
}

func (ex extract) populatedFields() []string {
	var out []string
	if len(ex.names) > 0 {
		out = append(out, "names")
	}
	if len(ex.emails) > 0 {
		out = append(out, "emails")
	}
	if len(ex.phones) > 0 {
		out = append(out, "phones")
	}
	if len(ex.addresses) > 0 {
		out = append(out, "addresses")
	}
	if len(ex.social) > 0 {
		out = append(out, "social")
	}
	if len(ex.employment) > 0 {
		out = append(out, "employment")
	}
	if len(ex.breaches) > 0 {
		out = append(out, "breaches")
	}
	return out
}

// Field key aliases seen across provider dialects.
var (
	nameKeys       = []string{"names", "name", "full_name", "fullName", "aliases"}
	emailKeys      = []string{"emails", "email", "email_addresses", "emailAddresses"}
	phoneKeys      = []string{"phones", "phone", "phone_numbers", "phoneNumbers"}
	addressKeys    = []string{"addresses", "address", "locations"}
	socialKeys     = []string{"socialMedia", "social_media", "social", "profiles"}
	employmentKeys = []string{"employmentHistory", "employment_history", "employment", "jobs"}
	breachKeys     = []string{"dataBreaches", "data_breaches", "breaches"}
)

// valueShapeKeys are object keys that carry the displayable value when a
// provider wraps a scalar in an object.
var valueShapeKeys = []string{"display", "full", "address", "number", "value", "name"}

// extractFields pulls the known categories out of one raw payload, looking
// both at the top level and under a nested "person" object.
func extractFields(src Source) extract {
	ex := extract{social: make(map[string]string)}
	if src == nil {
		return ex
	}

	scopes := []map[string]any{src}
	if person, ok := src["person"].(map[string]any); ok {
		scopes = append(scopes, person)
	}

	for _, scope := range scopes {
		ex.names = append(ex.names, stringsAt(scope, nameKeys)...)
		ex.emails = append(ex.emails, stringsAt(scope, emailKeys)...)
		ex.phones = append(ex.phones, stringsAt(scope, phoneKeys)...)
		ex.addresses = append(ex.addresses, stringsAt(scope, addressKeys)...)
		ex.employment = append(ex.employment, stringsAt(scope, employmentKeys)...)
		ex.breaches = append(ex.breaches, stringsAt(scope, breachKeys)...)
		for platform, presence := range socialAt(scope) {
			if existing, ok := ex.social[platform]; !ok || len(presence) > len(existing) {
				ex.social[platform] = presence
			}
		}
	}
	return ex
}

// stringsAt gathers string values under any of the aliased keys.
func stringsAt(scope map[string]any, keys []string) []string {
	var out []string
	for _, key := range keys {
		v, ok := scope[key]
		if !ok {
			continue
		}
		out = append(out, stringValues(v)...)
	}
	return out
}

// stringValues flattens a payload value into strings: scalars pass through,
// lists are visited element-wise, objects are reduced through the known
// value-shape keys.
func stringValues(v any) []string {
	switch val := v.(type) {
	case string:
		if trimmed := strings.TrimSpace(val); trimmed != "" {
			return []string{trimmed}
		}
	case float64:
		return []string{strings.TrimRight(strings.TrimRight(fmt.Sprintf("%f", val), "0"), ".")}
	case []any:
		var out []string
		for _, item := range val {
			out = append(out, stringValues(item)...)
		}
		return out
	case []string:
		var out []string
		for _, item := range val {
			out = append(out, stringValues(item)...)
		}
		return out
	case map[string]any:
		for _, key := range valueShapeKeys {
			if inner, ok := val[key]; ok {
				if s := stringValues(inner); len(s) > 0 {
					return s
				}
			}
		}
	}
	return nil
}

// socialAt reads social presence in either map form
// ({"twitter": "@ada"} or {"twitter": {"username": "@ada"}}) or list form
// ([{"platform": "twitter", "username": "@ada"}]).
func socialAt(scope map[string]any) map[string]string {
	out := make(map[string]string)
	for _, key := range socialKeys {
		v, ok := scope[key]
		if !ok {
			continue
		}
		switch val := v.(type) {
		case map[string]any:
			for platform, presence := range val {
				if s := socialPresence(presence); s != "" {
					out[strings.ToLower(platform)] = s
				}
			}
		case []any:
			for _, item := range val {
				entry, ok := item.(map[string]any)
				if !ok {
					continue
				}
				platform, _ := entry["platform"].(string)
				if platform == "" {
					continue
				}
				if s := socialPresence(entry); s != "" {
					out[strings.ToLower(platform)] = s
				}
			}
		}
	}
	return out
}

func socialPresence(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case map[string]any:
		for _, key := range []string{"username", "handle", "url", "profile"} {
			if s, ok := val[key].(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}
