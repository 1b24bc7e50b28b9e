package compare

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	reDeliveryContext = regexp.MustCompile(`(?i)\b(?:deliver(?:y|ed|s)?|lead[\s-]*time|ship(?:s|ping|ped)?|dispatch(?:ed)?|arriv(?:e|al)|turnaround|in\s+stock|eta)\b`)
	reLeadSpan        = regexp.MustCompile(`(?i)\b(\d{1,3})(?:\s*(?:-|–|to)\s*(\d{1,3}))?\s*(?:business\s+|working\s+|calendar\s+)?(day|week|month)s?\b`)
	reImmediate       = regexp.MustCompile(`(?i)\b(?:same[\s-]day|overnight|immediate(?:ly)?|in\s+stock|ex[\s-]stock|next[\s-]day)\b`)
)

// DeliveryDays reads a lead time in days from a delivery cell such as
// "5-7 business days", "2 weeks" or "in stock". Ranges take the upper bound;
// weeks are 7 days and months 30.
func DeliveryDays(s string) (int, bool) {
	if m := reLeadSpan.FindStringSubmatch(s); m != nil {
		n, _ := strconv.Atoi(m[1])
		if m[2] != "" {
			n, _ = strconv.Atoi(m[2])
		}
		switch strings.ToLower(m[3]) {
		case "week":
			n *= 7
		case "month":
			n *= 30
		}
		return n, true
	}
	m := strings.ToLower(reImmediate.FindString(s))
	switch {
	case m == "":
		return 0, false
	case m == "overnight", strings.HasPrefix(m, "next"):
		return 1, true
	}
	return 0, true
}

// LeadTimeDays reads the shortest lead time stated in document terms lines.
// Only lines that talk about delivery count, so "Net 30 days" is ignored.
func LeadTimeDays(terms ...string) (int, bool) {
	best, found := 0, false
	for _, t := range terms {
		if !reDeliveryContext.MatchString(t) {
			continue
		}
		if d, ok := DeliveryDays(t); ok && (!found || d < best) {
			best, found = d, true
		}
	}
	return best, found
}
