// Package normalize canonicalizes raw transaction descriptions into stable
// merchant identities so occurrences of the same recurring charge group
// together regardless of statement noise.
package normalize

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Merchant is a canonical merchant identity. Key is stable and safe to use
// as a grouping key; Display is what the user sees.
type Merchant struct {
	Key     string
	Display string
}

const maxDisplayLength = 50

var (
	// Statement boilerplate that precedes the actual merchant name.
	prefixRegex = regexp.MustCompile(`(?i)^(purchase authorized on|recurring payment authorized on|instant (?:xfer|transfer)( to)?|web authorized pmt|pos purchase)\s*`)

	// Embedded MM/DD or MM/DD/YYYY dates.
	dateRegex = regexp.MustCompile(`\b\d{1,2}/\d{1,2}(?:/\d{2,4})?\b`)

	// Long numeric reference codes.
	longRefRegex = regexp.MustCompile(`\b\d{10,}\b`)

	// Card number suffixes like "CARD 1234" or "XXXX1234".
	cardRegex   = regexp.MustCompile(`(?i)\bcard[\s#]*[x*]*\d{2,4}\b`)
	maskedRegex = regexp.MustCompile(`\b[xX*]{2,}\d{2,4}\b`)

	// Candidate short reference tokens; kept only if they mix letters and
	// digits (checked in code, since RE2 has no lookahead).
	shortTokenRegex = regexp.MustCompile(`\b[A-Za-z0-9]{6,9}\b`)

	segmentSplitRegex = regexp.MustCompile(`\s{2,}`)
	spaceRegex        = regexp.MustCompile(`\s+`)
	nonAlnumRegex     = regexp.MustCompile(`[^a-z0-9]+`)

	titleCaser = cases.Title(language.English)
)

// overrideRule maps description substrings to a canonical merchant.
// Rules are evaluated in order; first match wins.
type overrideRule struct {
	merchant   Merchant
	substrings []string
}

// knownMerchants special-cases well-known billers whose statement
// descriptions vary too much for the generic fallback.
var knownMerchants = []overrideRule{
	{Merchant{"netflix", "Netflix"}, []string{"netflix"}},
	{Merchant{"spotify", "Spotify"}, []string{"spotify"}},
	{Merchant{"hulu", "Hulu"}, []string{"hulu"}},
	{Merchant{"disney_plus", "Disney+"}, []string{"disney plus", "disneyplus", "disney+"}},
	{Merchant{"youtube_premium", "YouTube Premium"}, []string{"youtube premium", "youtubepremium"}},
	{Merchant{"apple", "Apple"}, []string{"apple.com/bill", "apple com bill", "itunes"}},
	{Merchant{"amazon_prime", "Amazon Prime"}, []string{"amazon prime", "amzn prime", "prime video"}},
	{Merchant{"amazon", "Amazon"}, []string{"amazon", "amzn"}},
	{Merchant{"comcast", "Comcast Xfinity"}, []string{"comcast", "xfinity"}},
	{Merchant{"verizon", "Verizon"}, []string{"verizon", "vzwrlss"}},
	{Merchant{"att", "AT&T"}, []string{"at&t", "att payment", "att bill"}},
	{Merchant{"tmobile", "T-Mobile"}, []string{"t-mobile", "tmobile"}},
	{Merchant{"pge", "PG&E"}, []string{"pg&e", "pgande", "pacific gas"}},
	{Merchant{"geico", "GEICO"}, []string{"geico"}},
	{Merchant{"state_farm", "State Farm"}, []string{"state farm", "statefarm"}},
	{Merchant{"progressive", "Progressive Insurance"}, []string{"progressive ins", "progressive insurance"}},
	{Merchant{"planet_fitness", "Planet Fitness"}, []string{"planet fitness", "planet fit"}},
	{Merchant{"costco", "Costco"}, []string{"costco"}},
	{Merchant{"trader_joes", "Trader Joe's"}, []string{"trader joe"}},
	{Merchant{"whole_foods", "Whole Foods"}, []string{"whole foods", "wholefds"}},
	{Merchant{"safeway", "Safeway"}, []string{"safeway"}},
	{Merchant{"kroger", "Kroger"}, []string{"kroger"}},
	{Merchant{"starbucks", "Starbucks"}, []string{"starbucks"}},
}

// Normalize canonicalizes a raw transaction description. It is pure and
// idempotent: normalizing an already-normalized display name yields the
// same key.
func Normalize(raw string) Merchant {
	cleaned := clean(raw)

	lower := strings.ToLower(cleaned)
	for _, rule := range knownMerchants {
		for _, sub := range rule.substrings {
			if strings.Contains(lower, sub) {
				return rule.merchant
			}
		}
	}

	display := displayName(cleaned)
	if display == "" {
		display = "Unknown"
	}

	return Merchant{Key: keyFor(display), Display: display}
}

// clean strips statement noise, leaving double-space gaps where reference
// tokens were removed so they act as segment boundaries.
func clean(raw string) string {
	s := strings.TrimSpace(raw)
	s = prefixRegex.ReplaceAllString(s, "")
	s = dateRegex.ReplaceAllString(s, "  ")
	s = cardRegex.ReplaceAllString(s, "  ")
	s = maskedRegex.ReplaceAllString(s, "  ")
	s = longRefRegex.ReplaceAllString(s, "  ")
	s = shortTokenRegex.ReplaceAllStringFunc(s, func(tok string) string {
		if isReferenceToken(tok) {
			return "  "
		}
		return tok
	})
	return strings.TrimSpace(s)
}

// isReferenceToken reports whether a token looks like an alphanumeric
// reference code rather than a word: 6-9 characters mixing letters and
// digits.
func isReferenceToken(tok string) bool {
	var hasLetter, hasDigit bool
	for _, r := range tok {
		switch {
		case r >= '0' && r <= '9':
			hasDigit = true
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			hasLetter = true
		}
	}
	return hasLetter && hasDigit
}

// displayName takes the first whitespace-run-delimited segment of the
// cleaned description, title-cases it, and truncates it.
func displayName(cleaned string) string {
	segment := cleaned
	if parts := segmentSplitRegex.Split(cleaned, 2); len(parts) > 0 {
		segment = parts[0]
	}
	segment = spaceRegex.ReplaceAllString(strings.TrimSpace(segment), " ")

	display := titleCaser.String(segment)
	if runes := []rune(display); len(runes) > maxDisplayLength {
		display = strings.TrimSpace(string(runes[:maxDisplayLength]))
	}
	return display
}

// keyFor derives a stable grouping key from a display name.
func keyFor(display string) string {
	key := nonAlnumRegex.ReplaceAllString(strings.ToLower(display), "_")
	return strings.Trim(key, "_")
}
