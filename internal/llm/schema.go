package llm

// BuildQuoteJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a generic map.
// We pass it to the model as the output contract and also use it locally to validate.
func BuildQuoteJSONSchema() map[string]any {
	item := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"sku":         map[string]any{"type": "string"},
			"description": map[string]any{"type": "string", "minLength": 1},
			"quantity":    amountProp(),
			"unit":        map[string]any{"type": "string"},
			"unit_price":  amountProp(),
			"line_total":  amountProp(),
			"delivery":    map[string]any{"type": "string"},
			"confidence":  map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0},
		},
		"required": []string{"description"},
	}
	props := map[string]any{
		"vendor":        map[string]any{"type": "string"},
		"currency_code": map[string]any{"type": "string", "pattern": `^[A-Z]{3}$`},
		"items":         map[string]any{"type": "array", "items": item},
		"quote_total":   amountProp(),
		"terms":         map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		"confidence":    map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0},
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
		"required":             []string{"vendor", "items"},
	}
}

func amountProp() map[string]any {
	return map[string]any{"type": "number"}
}
