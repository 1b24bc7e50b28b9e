package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/joseph-ayodele/quote-optimizer/internal/entity"
)

type riskPattern struct {
	kind     entity.WarningKind
	category string
	re       *regexp.Regexp
}

var reUnpriced = regexp.MustCompile(`(?i)(?:\bTBD\b|\bTBA\b|\bPOA\b|to\s+be\s+(?:determined|advised)|call\s+for\s+pricing|contact\s+sales|price\s+on\s+application|market\s+rate)`)

var riskPatterns = []riskPattern{
	{entity.WarnPricingRisk, "hidden fee", regexp.MustCompile(`(?i)\b(?:handling|administrative|admin|convenience|transaction|setup|set-up|activation|restocking|cancellation)\s+fees?\b`)},
	{entity.WarnPricingRisk, "hidden fee", regexp.MustCompile(`(?i)\b(?:processing|service)\s+charges?\b`)},
	{entity.WarnPricingRisk, "conditional pricing", regexp.MustCompile(`(?i)\b(?:subject\s+to|depending\s+on|may\s+vary|estimated\s+price|approximate\s+cost|plus\s+applicable|additional\s+charges\s+may\s+apply)\b`)},
	{entity.WarnPricingRisk, "complex pricing", regexp.MustCompile(`(?i)\b(?:base\s+price\s+plus|minimum\s+order\s+value|recurring\s+charges|monthly\s+fee)\b`)},
	{entity.WarnPricingRisk, "unpriced line", reUnpriced},

	{entity.WarnProcurementDelay, "terms pending", regexp.MustCompile(`(?i)\b(?:(?:awaiting|pending)\s+(?:t&c|terms|conditions)|(?:terms|conditions)\s+under\s+review|(?:legal|contract|agreement)\s+review)\b`)},
	{entity.WarnProcurementDelay, "approval pending", regexp.MustCompile(`(?i)\b(?:(?:awaiting|pending)\s+approval|approval\s+required|(?:management|executive|board|stakeholder|budget|finance|credit|payment)\s+approval)\b`)},
	{entity.WarnProcurementDelay, "documentation pending", regexp.MustCompile(`(?i)\b(?:(?:awaiting|pending|incomplete)\s+documentation|missing\s+documents|(?:documentation|certificates|licenses|permits)\s+required)\b`)},
	{entity.WarnProcurementDelay, "review pending", regexp.MustCompile(`(?i)\b(?:technical|engineering|specification|design|quality|compliance|safety)\s+review\b`)},
	{entity.WarnProcurementDelay, "supplier qualification", regexp.MustCompile(`(?i)\b(?:(?:supplier|vendor)\s+qualification|pre-qualification|(?:certification|audit|onboarding)\s+process)\b`)},
	{entity.WarnProcurementDelay, "supply delay", regexp.MustCompile(`(?i)\b(?:back[- ]?order(?:ed)?|out\s+of\s+stock|on\s+allocation|delivery\s+(?:date\s+)?(?:tbc|to\s+be\s+confirmed))\b`)},
}

// pricingRisks scans document lines for pricing language buyers should
// double-check and for phrases that hold up the purchase. Each distinct phrase
// is reported once.
func pricingRisks(docID string, lines []string) []entity.Warning {
	var out []entity.Warning
	seen := map[string]bool{}
	for _, ln := range lines {
		for _, p := range riskPatterns {
			for _, m := range p.re.FindAllString(ln, -1) {
				key := p.category + "|" + strings.ToLower(m)
				if seen[key] {
					continue
				}
				seen[key] = true
				out = append(out, entity.Warning{
					DocumentID: docID,
					Kind:       p.kind,
					Message:    fmt.Sprintf("%s: %q", p.category, m),
				})
			}
		}
	}
	return out
}

// isUnpriced reports whether a cell says the price is not given.
func isUnpriced(s string) bool {
	return reUnpriced.MatchString(s)
}
