package llm

import (
	"strings"
)

// BuildSystemPrompt composes the system message: output contract, currency
// default and the rules for reading quote tables.
func BuildSystemPrompt(req ExtractRequest) string {
	defCur := strings.ToUpper(strings.TrimSpace(req.DefaultCurrency))
	if defCur == "" {
		defCur = "USD"
	}

	parts := []string{
		"You are a vendor quote parser. Return ONLY JSON that matches the provided JSON Schema.",
		"Extract every quoted line item: description, sku, quantity, unit, unit_price and line_total.",
		"Numbers must be plain JSON numbers without currency symbols or thousands separators.",
		"Copy numbers exactly as printed; never compute a missing value and never fix arithmetic.",
		"Do not turn subtotal, tax, shipping, discount or grand total lines into items; put the grand total in 'quote_total'.",
		"'vendor' is the company that issued the quote, not the customer it is addressed to.",
		"Currency must be a 3-letter ISO 4217 code; default to " + defCur + " if uncertain.",
		"Put payment terms, warranty, validity and delivery conditions in 'terms', one sentence each.",
		"Use 'delivery' on an item only for item-specific lead times.",
		// formatting hygiene:
		"Never output null. If a field is not present, omit it.",
		"Set 'confidence' (0..1) on the document and on each item to reflect how legible it was.",
	}
	if req.PrepConfidence > 0 && req.PrepConfidence < 0.6 {
		parts = append(parts, "The text comes from low-quality OCR: letters O/l may stand for digits 0/1 inside numbers.")
	}
	return strings.Join(parts, " ")
}

// BuildUserPrompt packages the hints and the (clipped) document text.
func BuildUserPrompt(req ExtractRequest) string {
	var b strings.Builder
	if v := strings.TrimSpace(req.VendorHint); v != "" {
		b.WriteString("Vendor hint: ")
		b.WriteString(v)
		b.WriteString("\n")
	}
	if f := strings.TrimSpace(req.FilenameHint); f != "" {
		b.WriteString("Filename: ")
		b.WriteString(f)
		b.WriteString("\n")
	}
	text, clipped := ClipText(strings.TrimSpace(req.Text), MaxPromptChars)
	b.WriteString("\nQuote text (table cells separated by ' | '):\n")
	b.WriteString(text)
	if clipped {
		b.WriteString("\n…(truncated)")
	}
	return b.String()
}
