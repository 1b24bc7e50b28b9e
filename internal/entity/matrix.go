package entity

// PriceCell is one vendor's offer for one item.
type PriceCell struct {
	UnitPrice    Extracted[float64] `json:"unit_price"`
	LineTotal    Extracted[float64] `json:"line_total"`
	Quantity     Extracted[float64] `json:"quantity"`
	LeadTimeDays Extracted[int]     `json:"lead_time_days"`
	Confidence   float64            `json:"confidence"`
	Corrected    bool               `json:"corrected"`
	LineItemID   string             `json:"line_item_id"`
}

// Cost returns the cell's purchase cost when the offer is priced.
func (c PriceCell) Cost() (float64, bool) {
	if t, ok := c.LineTotal.Get(); ok {
		return t, true
	}
	q, qok := c.Quantity.Get()
	p, pok := c.UnitPrice.Get()
	if qok && pok {
		return q * p, true
	}
	return 0, false
}

// Eligible reports whether the cell can be awarded.
func (c PriceCell) Eligible() bool {
	_, ok := c.Cost()
	return ok
}

// ComparisonMatrix maps item_key → vendor_key → PriceCell. ItemKeys and
// VendorKeys give a deterministic iteration order. Ambiguous maps an item
// key to the rival descriptions its identity was chosen over.
type ComparisonMatrix struct {
	Cells        map[string]map[string]PriceCell `json:"cells"`
	ItemKeys     []string                        `json:"item_keys"`
	VendorKeys   []string                        `json:"vendor_keys"`
	Descriptions map[string]string               `json:"descriptions"`
	VendorNames  map[string]string               `json:"vendor_names"`
	Ambiguous    map[string][]string             `json:"ambiguous,omitempty"`
}

// Cell returns the offer of vendor for item.
func (m ComparisonMatrix) Cell(itemKey, vendorKey string) (PriceCell, bool) {
	row, ok := m.Cells[itemKey]
	if !ok {
		return PriceCell{}, false
	}
	c, ok := row[vendorKey]
	return c, ok
}

// Description returns the canonical description of an item, falling back to its key.
func (m ComparisonMatrix) Description(itemKey string) string {
	if d := m.Descriptions[itemKey]; d != "" {
		return d
	}
	return itemKey
}

// VendorName returns the display name of a vendor, falling back to its key.
func (m ComparisonMatrix) VendorName(vendorKey string) string {
	if n := m.VendorNames[vendorKey]; n != "" {
		return n
	}
	return vendorKey
}
