// Package extract pulls structured intake fields out of call transcripts.
// Extraction is deterministic keyword and pattern matching so the same
// transcript always yields the same fields.
package extract

import (
	"regexp"
	"sort"
	"strings"
)

// Fields is what extraction recovered from one transcript. Empty strings mean
// the transcript did not mention the field; Consent is true only when an
// explicit agreement phrase was found.
type Fields struct {
	Carrier     string
	MemberID    string
	State       string
	ServiceType string
	Consent     bool
}

// Empty reports whether extraction found nothing.
func (f Fields) Empty() bool {
	return f.Carrier == "" && f.MemberID == "" && f.State == "" && f.ServiceType == "" && !f.Consent
}

// carriers maps spoken carrier names to their canonical form. Aliases cover
// the common ways callers say each payer.
var carriers = map[string]string{
	"aetna":              "Aetna",
	"cigna":              "Cigna",
	"humana":             "Humana",
	"united healthcare":  "UnitedHealthcare",
	"unitedhealthcare":   "UnitedHealthcare",
	"united health care": "UnitedHealthcare",
	"uhc":                "UnitedHealthcare",
	"optum":              "UnitedHealthcare",
	"blue cross":         "Blue Cross Blue Shield",
	"bluecross":          "Blue Cross Blue Shield",
	"blue shield":        "Blue Cross Blue Shield",
	"bcbs":               "Blue Cross Blue Shield",
	"anthem":             "Anthem",
	"kaiser":             "Kaiser Permanente",
	"kaiser permanente":  "Kaiser Permanente",
	"molina":             "Molina Healthcare",
	"ambetter":           "Ambetter",
	"tricare":            "TRICARE",
	"magellan":           "Magellan Health",
	"beacon":             "Beacon Health Options",
	"highmark":           "Highmark",
}

// carrierOrder fixes the lookup order so overlapping aliases resolve the same
// way on every run. Longer aliases come first.
var carrierOrder = sortedAliases()

func sortedAliases() []string {
	aliases := make([]string, 0, len(carriers))
	for alias := range carriers {
		aliases = append(aliases, alias)
	}
	// Length descending, then lexicographic, so map iteration order never
	// leaks into the result.
	sort.Slice(aliases, func(i, j int) bool {
		if len(aliases[i]) != len(aliases[j]) {
			return len(aliases[i]) > len(aliases[j])
		}
		return aliases[i] < aliases[j]
	})
	return aliases
}

var states = map[string]string{
	"alabama": "AL", "alaska": "AK", "arizona": "AZ", "arkansas": "AR",
	"california": "CA", "colorado": "CO", "connecticut": "CT", "delaware": "DE",
	"florida": "FL", "georgia": "GA", "hawaii": "HI", "idaho": "ID",
	"illinois": "IL", "indiana": "IN", "iowa": "IA", "kansas": "KS",
	"kentucky": "KY", "louisiana": "LA", "maine": "ME", "maryland": "MD",
	"massachusetts": "MA", "michigan": "MI", "minnesota": "MN", "mississippi": "MS",
	"missouri": "MO", "montana": "MT", "nebraska": "NE", "nevada": "NV",
	"new hampshire": "NH", "new jersey": "NJ", "new mexico": "NM", "new york": "NY",
	"north carolina": "NC", "north dakota": "ND", "ohio": "OH", "oklahoma": "OK",
	"oregon": "OR", "pennsylvania": "PA", "rhode island": "RI", "south carolina": "SC",
	"south dakota": "SD", "tennessee": "TN", "texas": "TX", "utah": "UT",
	"vermont": "VT", "virginia": "VA", "washington": "WA", "west virginia": "WV",
	"wisconsin": "WI", "wyoming": "WY",
}

// serviceTypes maps transcript keywords to canonical service levels of care.
// More specific phrases come before their substrings.
var serviceTypes = []struct {
	keyword string
	level   string
}{
	{"partial hospitalization", "php"},
	{"intensive outpatient", "iop"},
	{"medication assisted", "mat"},
	{"residential treatment", "residential"},
	{"inpatient", "residential"},
	{"residential", "residential"},
	{"detoxification", "detox"},
	{"detox", "detox"},
	{"php", "php"},
	{"iop", "iop"},
	{"outpatient", "outpatient"},
	{"sober living", "sober_living"},
}

// memberIDPattern matches a member id announced after a lead-in phrase:
// an optional letter prefix followed by 6 or more alphanumerics.
var memberIDPattern = regexp.MustCompile(`(?i)(?:member\s*(?:id|number)|policy\s*(?:id|number)|id\s*number)\s*(?:is|:)?\s*([A-Z]{0,3}\d[A-Z0-9]{5,15})`)

// consentPhrases are the explicit agreement statements that count as consent
// to verify benefits. Mere mention of the word consent does not count.
var consentPhrases = []string{
	"i consent",
	"i give my consent",
	"you have my consent",
	"i agree to",
	"i authorize",
	"yes, you can verify",
	"yes you can verify",
	"go ahead and verify",
	"permission to verify",
	"permission to check my benefits",
}

// FromTranscript extracts intake fields from a raw call transcript.
func FromTranscript(transcript string) Fields {
	lower := strings.ToLower(transcript)

	var fields Fields

	for _, alias := range carrierOrder {
		if containsWord(lower, alias) {
			fields.Carrier = carriers[alias]
			break
		}
	}

	if match := memberIDPattern.FindStringSubmatch(transcript); match != nil {
		fields.MemberID = strings.ToUpper(match[1])
	}

	for name, code := range states {
		if containsWord(lower, name) {
			// Longest state name wins so "west virginia" beats "virginia".
			if fields.State == "" || len(name) > len(stateName(fields.State)) {
				fields.State = code
			}
		}
	}

	for _, st := range serviceTypes {
		if containsWord(lower, st.keyword) {
			fields.ServiceType = st.level
			break
		}
	}

	for _, phrase := range consentPhrases {
		if strings.Contains(lower, phrase) {
			fields.Consent = true
			break
		}
	}

	return fields
}

func stateName(code string) string {
	for name, c := range states {
		if c == code {
			return name
		}
	}
	return ""
}

// containsWord reports whether the phrase occurs on word boundaries, so "uhc"
// does not match inside "church".
func containsWord(haystack, phrase string) bool {
	idx := 0
	for {
		i := strings.Index(haystack[idx:], phrase)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(phrase)
		beforeOK := start == 0 || !isAlnum(haystack[start-1])
		afterOK := end == len(haystack) || !isAlnum(haystack[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isAlnum(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
