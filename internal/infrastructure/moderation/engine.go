package moderation

import (
	"fmt"
	"regexp"
	"strings"
)

// Violation is one matched category with the substrings that triggered it.
type Violation struct {
	Type    string   `json:"type"`
	Matches []string `json:"matches"`
}

// Verdict is the engine's structured classification result for one input.
type Verdict struct {
	IsBlocked      bool        `json:"is_blocked"`
	Reason         string      `json:"reason,omitempty"`
	Violations     []Violation `json:"violations,omitempty"`
	ViolationCount int         `json:"violation_count"`
}

const (
	CategoryPhoneNumbers      = "phone_numbers"
	CategoryEmailAddresses    = "email_addresses"
	CategorySocialMedia       = "social_media"
	CategoryExternalLinks     = "external_links"
	CategoryPaymentDetails    = "payment_details"
	CategoryPhysicalAddresses = "physical_addresses"
	CategoryPersonalInfo      = "personal_info"
	CategoryProhibitedPhrases = "prohibited_phrases"
)

// categoryOrder fixes the evaluation and reason-joining order.
var categoryOrder = []string{
	CategoryPhoneNumbers,
	CategoryEmailAddresses,
	CategorySocialMedia,
	CategoryExternalLinks,
	CategoryPaymentDetails,
	CategoryPhysicalAddresses,
	CategoryPersonalInfo,
	CategoryProhibitedPhrases,
}

// Each category is a list of alternative rules so obfuscations (spaced
// digits, "[at]"/"[dot]" substitutions, bare handle prefixes) are caught
// without complicating a single pattern. Any rule matching makes the
// category a violation.
var categoryRules = map[string][]*regexp.Regexp{
	CategoryPhoneNumbers: {
		regexp.MustCompile(`\b(\+?\d{1,3}[-. ]?)?\(?\d{3}\)?[-. ]?\d{3}[-. ]?\d{4}\b`),
		regexp.MustCompile(`\b08\d{8,11}\b`),
		regexp.MustCompile(`\b\d( \d){7,12}\b`),
	},
	CategoryEmailAddresses: {
		regexp.MustCompile(`\b[a-z0-9._%+-]+@[a-z0-9.-]+\.[a-z]{2,}\b`),
		regexp.MustCompile(`\b[a-z0-9._%+-]+ ?(\[at\]|\(at\)| at ) ?[a-z0-9-]+ ?(\[dot\]|\(dot\)| dot ) ?[a-z]{2,}\b`),
	},
	CategorySocialMedia: {
		regexp.MustCompile(`\b(instagram|insta|telegram|whatsapp|facebook|twitter|tiktok|snapchat|discord|wechat|kakao)\b[ :.,-]*@?[a-z0-9._-]{3,}`),
		regexp.MustCompile(`@[a-z0-9._]{3,}\b`),
		regexp.MustCompile(`\b(t\.me|wa\.me|instagram\.com|facebook\.com|fb\.com|tiktok\.com|discord\.gg|line\.me)/\S+`),
	},
	CategoryExternalLinks: {
		regexp.MustCompile(`https?://\S+`),
		regexp.MustCompile(`\bwww\.[a-z0-9-]+\.[a-z]{2,}\S*`),
		regexp.MustCompile(`\b[a-z0-9-]+ ?(\[dot\]|\(dot\)) ?(com|net|org|io|co|id)\b`),
	},
	CategoryPaymentDetails: {
		regexp.MustCompile(`\b(?:\d[ -]?){13,16}\b`),
		regexp.MustCompile(`\b[a-z]{2}\d{2}[a-z0-9]{10,30}\b`),
		regexp.MustCompile(`\b(account|acct|rekening|routing|iban|swift)[ .]*(number|no\.?|#)?[ :.]*\d{6,}\b`),
		regexp.MustCompile(`\b(paypal\.me|cash\.app|venmo|zelle|gopay|ovo|dana)\b[ :.,-]*@?[a-z0-9._-]*`),
	},
	CategoryPhysicalAddresses: {
		regexp.MustCompile(`\b\d{1,5} [a-z]+( [a-z]+)* (street|st|avenue|ave|road|rd|boulevard|blvd|lane|ln|drive|dr)\b`),
		regexp.MustCompile(`\b(jalan|jl)\.? [a-z]+`),
		regexp.MustCompile(`\b(zip|postal) ?code[ :.]*\d{4,6}\b`),
	},
	CategoryPersonalInfo: {
		regexp.MustCompile(`\bmy name is [a-z]+`),
		regexp.MustCompile(`\b(ktp|nik|passport|ssn|social security|national id|id card)[ .]*(number|no\.?|#)?[ :.]*[a-z0-9-]{6,}\b`),
	},
}

// prohibitedPhrases are free-text phrases matched on word boundaries
// against the normalized input.
var prohibitedPhrases = compilePhrases([]string{
	"dm me",
	"text me",
	"call me",
	"whatsapp me",
	"contact me outside",
	"reach me outside",
	"cash on delivery",
	"pay outside",
	"pay me directly",
	"off the app",
	"outside the app",
	"offline payment",
	"direct transfer",
	"wire transfer",
	"western union",
	"meet in person",
})

var reasonPhrases = map[string]string{
	CategoryPhoneNumbers:      "phone numbers",
	CategoryEmailAddresses:    "email addresses",
	CategorySocialMedia:       "social media handles",
	CategoryExternalLinks:     "external links",
	CategoryPaymentDetails:    "payment details",
	CategoryPhysicalAddresses: "physical addresses",
	CategoryPersonalInfo:      "personal information",
	CategoryProhibitedPhrases: "prohibited phrases",
}

func compilePhrases(phrases []string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, 0, len(phrases))
	for _, phrase := range phrases {
		pattern := `\b` + strings.ReplaceAll(regexp.QuoteMeta(phrase), ` `, `\s+`) + `\b`
		compiled = append(compiled, regexp.MustCompile(pattern))
	}
	return compiled
}

// normalize lower-cases the input and collapses whitespace runs so spacing
// tricks do not slip past the phrase and pattern rules.
func normalize(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

// Classify runs text against every category rule-set and the prohibited
// phrase list and returns a structured verdict. It is a pure function,
// safe for concurrent use; all patterns are compiled at package init.
//
// Empty input yields a clean verdict: structurally different messages
// (file-only, receipt-only) carry no text to classify and must not be
// blocked for it.
func Classify(text string) Verdict {
	normalized := normalize(text)
	if normalized == "" {
		return Verdict{}
	}

	var verdict Verdict

	for _, category := range categoryOrder {
		var matches []string
		if category == CategoryProhibitedPhrases {
			for _, rule := range prohibitedPhrases {
				matches = append(matches, rule.FindAllString(normalized, -1)...)
			}
		} else {
			for _, rule := range categoryRules[category] {
				matches = append(matches, rule.FindAllString(normalized, -1)...)
			}
		}
		if len(matches) > 0 {
			verdict.Violations = append(verdict.Violations, Violation{
				Type:    category,
				Matches: matches,
			})
			verdict.ViolationCount += len(matches)
		}
	}

	if len(verdict.Violations) > 0 {
		verdict.IsBlocked = true
		verdict.Reason = buildReason(verdict.Violations)
	}

	return verdict
}

// buildReason joins the distinct violation types into a human-readable
// sentence: one type "Contains X", two "Contains X and Y", three or more
// "Contains X, Y, and Z".
func buildReason(violations []Violation) string {
	phrases := make([]string, 0, len(violations))
	for _, v := range violations {
		phrases = append(phrases, reasonPhrases[v.Type])
	}

	switch len(phrases) {
	case 1:
		return fmt.Sprintf("Contains %s", phrases[0])
	case 2:
		return fmt.Sprintf("Contains %s and %s", phrases[0], phrases[1])
	default:
		return fmt.Sprintf("Contains %s, and %s",
			strings.Join(phrases[:len(phrases)-1], ", "), phrases[len(phrases)-1])
	}
}

// MatchCounts maps each violated category to how many substrings it
// matched. Handlers send these to the client instead of the raw matches so
// sensitive content is never echoed back.
func (v Verdict) MatchCounts() map[string]int {
	if len(v.Violations) == 0 {
		return nil
	}
	counts := make(map[string]int, len(v.Violations))
	for _, violation := range v.Violations {
		counts[violation.Type] = len(violation.Matches)
	}
	return counts
}
