// Package compare assembles the comparison matrix from normalized identities.
package compare

import (
	"fmt"
	"slices"
	"sort"

	"github.com/joseph-ayodele/quote-optimizer/internal/entity"
)

// Build lays every normalized item out against the vendors that quoted it.
// Vendors that quoted nothing are left out of the matrix. It makes no
// judgments of its own and fails only when its inputs break the identity
// contract.
func Build(vendors []entity.Vendor, items []entity.NormalizedItem) (entity.ComparisonMatrix, error) {
	names := make(map[string]string, len(vendors))
	leads := map[string]int{}
	for _, v := range vendors {
		if _, dup := names[v.Key]; dup {
			return entity.ComparisonMatrix{}, &entity.InconsistentMatrixError{Reason: fmt.Sprintf("duplicate vendor key %q", v.Key)}
		}
		names[v.Key] = v.DisplayName
		if d, ok := LeadTimeDays(v.Terms...); ok {
			leads[v.Key] = d
		}
	}

	m := entity.ComparisonMatrix{
		Cells:        make(map[string]map[string]entity.PriceCell, len(items)),
		Descriptions: make(map[string]string, len(items)),
		VendorNames:  map[string]string{},
	}
	for _, it := range items {
		if _, dup := m.Cells[it.Key]; dup {
			return entity.ComparisonMatrix{}, &entity.InconsistentMatrixError{Reason: fmt.Sprintf("duplicate item key %q", it.Key)}
		}
		row := make(map[string]entity.PriceCell, len(it.Members))
		for _, li := range it.Members {
			if _, ok := names[li.VendorKey]; !ok {
				return entity.ComparisonMatrix{}, &entity.InconsistentMatrixError{
					Reason: fmt.Sprintf("item %q references unknown vendor %q", it.Key, li.VendorKey),
				}
			}
			if _, dup := row[li.VendorKey]; dup {
				return entity.ComparisonMatrix{}, &entity.InconsistentMatrixError{
					Reason: fmt.Sprintf("item %q has more than one line from vendor %q", it.Key, li.VendorKey),
				}
			}
			c := Cell(li)
			if d, ok := leads[li.VendorKey]; ok && !c.LeadTimeDays.Present {
				c.LeadTimeDays = entity.Found(d, entity.ConfidenceDerived, entity.SourceDerived)
			}
			row[li.VendorKey] = c
			m.VendorNames[li.VendorKey] = names[li.VendorKey]
		}
		m.Cells[it.Key] = row
		m.ItemKeys = append(m.ItemKeys, it.Key)
		m.Descriptions[it.Key] = it.CanonicalDescription
		if len(it.AmbiguousWith) > 0 {
			if m.Ambiguous == nil {
				m.Ambiguous = map[string][]string{}
			}
			m.Ambiguous[it.Key] = slices.Clone(it.AmbiguousWith)
		}
	}
	for k := range m.VendorNames {
		m.VendorKeys = append(m.VendorKeys, k)
	}
	sort.Strings(m.VendorKeys)
	sort.Strings(m.ItemKeys)

	if err := Check(m); err != nil {
		return entity.ComparisonMatrix{}, err
	}
	return m, nil
}

// Cell converts a line item to the vendor's price cell. The lead time comes
// from the line's own terms when they state one.
func Cell(li entity.LineItem) entity.PriceCell {
	c := entity.PriceCell{
		UnitPrice:  li.UnitPrice,
		LineTotal:  li.LineTotal,
		Quantity:   li.Quantity,
		Confidence: li.ExtractionConfidence,
		Corrected:  li.Corrected,
		LineItemID: li.ID,
	}
	if t, ok := li.Terms.Get(); ok {
		if d, ok := DeliveryDays(t); ok {
			c.LeadTimeDays = entity.Found(d, li.Terms.Confidence, entity.SourcePattern)
		}
	}
	return c
}

// Check verifies that every vendor key appears in at least one item row and
// every item row has at least one vendor cell.
func Check(m entity.ComparisonMatrix) error {
	if len(m.ItemKeys) != len(m.Cells) {
		return &entity.InconsistentMatrixError{Reason: fmt.Sprintf("%d item keys for %d rows", len(m.ItemKeys), len(m.Cells))}
	}
	known := make(map[string]bool, len(m.VendorKeys))
	for _, v := range m.VendorKeys {
		known[v] = false
	}
	for _, item := range m.ItemKeys {
		row, ok := m.Cells[item]
		if !ok {
			return &entity.InconsistentMatrixError{Reason: fmt.Sprintf("item %q has no row", item)}
		}
		if len(row) == 0 {
			return &entity.InconsistentMatrixError{Reason: fmt.Sprintf("item %q has no vendor cells", item)}
		}
		for v := range row {
			if _, ok := known[v]; !ok {
				return &entity.InconsistentMatrixError{Reason: fmt.Sprintf("item %q has a cell for unlisted vendor %q", item, v)}
			}
			known[v] = true
		}
	}
	for _, v := range m.VendorKeys {
		if !known[v] {
			return &entity.InconsistentMatrixError{Reason: fmt.Sprintf("vendor %q appears in no item row", v)}
		}
	}
	return nil
}
