package enrichment

import "regexp"

// postalRe matches any bare 6-digit run, the shape of a Singapore postal
// code. Plausibility is narrowed further by isPlausiblePostal.
var postalRe = regexp.MustCompile(`\b\d{6}\b`)

// FillPostalCodes regex-scans rawText for 6-digit Singapore postal codes
// and returns them, but only if the LLM returned none — this step never
// overrides an LLM-provided postal_code[] (spec §4.6 step 1).
func FillPostalCodes(rawText string, existing []string) []string {
	if len(existing) > 0 {
		return existing
	}

	var found []string
	seen := make(map[string]bool)
	for _, m := range postalRe.FindAllString(rawText, -1) {
		if !isPlausiblePostal(m) || seen[m] {
			continue
		}
		seen[m] = true
		found = append(found, m)
	}
	return found
}

// isPlausiblePostal rejects 6-digit runs that are almost certainly not a
// postal code: Singapore postal sectors span 01-82, so the leading two
// digits bound the range, and a run of a single repeated digit (e.g.
// "000000", "111111") is never a real address.
func isPlausiblePostal(code string) bool {
	if allSameDigit(code) {
		return false
	}
	sector := (int(code[0]-'0') * 10) + int(code[1]-'0')
	return sector >= 1 && sector <= 82
}

func allSameDigit(s string) bool {
	for i := 1; i < len(s); i++ {
		if s[i] != s[0] {
			return false
		}
	}
	return true
}
