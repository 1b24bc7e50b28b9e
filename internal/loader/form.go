package loader

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/quote-optimizer/internal/entity"
)

// FormSubmission is a vendor quote entered through a structured web form.
type FormSubmission struct {
	Vendor   string     `json:"vendor"`
	Currency string     `json:"currency,omitempty"`
	Items    []FormItem `json:"items"`
	Total    *float64   `json:"total,omitempty"`
	Terms    string     `json:"terms,omitempty"`
}

type FormItem struct {
	SKU         string   `json:"sku,omitempty"`
	Description string   `json:"description"`
	Quantity    *float64 `json:"quantity,omitempty"`
	Unit        string   `json:"unit,omitempty"`
	UnitPrice   *float64 `json:"unit_price,omitempty"`
	LineTotal   *float64 `json:"line_total,omitempty"`
	Delivery    string   `json:"delivery,omitempty"`
}

// FormJSONSchema is the contract for form submissions.
func FormJSONSchema() map[string]any {
	num := map[string]any{"type": "number"}
	str := map[string]any{"type": "string"}
	return map[string]any{
		"type":     "object",
		"required": []string{"items"},
		"properties": map[string]any{
			"vendor":   str,
			"currency": map[string]any{"type": "string", "pattern": `^[A-Za-z]{3}$`},
			"total":    num,
			"terms":    str,
			"items": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items": map[string]any{
					"type":     "object",
					"required": []string{"description"},
					"properties": map[string]any{
						"sku":         str,
						"description": map[string]any{"type": "string", "minLength": 1},
						"quantity":    num,
						"unit":        str,
						"unit_price":  num,
						"line_total":  num,
						"delivery":    str,
					},
				},
			},
		},
	}
}

var (
	formSchemaOnce sync.Once
	formSchema     *jsonschema.Schema
	formSchemaErr  error
)

func compiledFormSchema() (*jsonschema.Schema, error) {
	formSchemaOnce.Do(func() {
		b, err := json.Marshal(FormJSONSchema())
		if err != nil {
			formSchemaErr = err
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource("form.json", bytes.NewReader(b)); err != nil {
			formSchemaErr = err
			return
		}
		formSchema, formSchemaErr = c.Compile("form.json")
	})
	return formSchema, formSchemaErr
}

// formHeader uses the canonical header names so the extractor matches them exactly.
var formHeader = []string{"SKU", "Description", "Qty", "Unit", "Unit Price", "Total", "Delivery"}

func loadForm(data []byte) ([]entity.Block, error) {
	schema, err := compiledFormSchema()
	if err != nil {
		return nil, fmt.Errorf("compile form schema: %w", err)
	}
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode form: %w", err)
	}
	if err := schema.Validate(raw); err != nil {
		return nil, fmt.Errorf("form does not match schema: %w", err)
	}
	var sub FormSubmission
	if err := json.Unmarshal(data, &sub); err != nil {
		return nil, fmt.Errorf("decode form: %w", err)
	}

	var out []entity.Block
	line := 0
	text := func(s string) {
		line++
		out = append(out, entity.TextBlock(1, line, s, 1))
	}
	if v := strings.TrimSpace(sub.Vendor); v != "" {
		text("Vendor: " + v)
	}
	if c := strings.TrimSpace(sub.Currency); c != "" {
		text("Currency: " + strings.ToUpper(c))
	}
	if t := strings.TrimSpace(sub.Terms); t != "" {
		text("Terms: " + t)
	}

	row := 1
	out = append(out, entity.TableRow(2, row, formHeader, 1))
	for _, it := range sub.Items {
		row++
		out = append(out, entity.TableRow(2, row, []string{
			it.SKU, it.Description, fmtNum(it.Quantity), it.Unit,
			fmtNum(it.UnitPrice), fmtNum(it.LineTotal), it.Delivery,
		}, 1))
	}
	if sub.Total != nil {
		row++
		out = append(out, entity.TableRow(2, row, []string{"", "Grand Total", "", "", "", fmtNum(sub.Total), ""}, 1))
	}
	return out, nil
}

func fmtNum(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
