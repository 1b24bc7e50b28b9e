package entity

// UnknownVendor is the raw vendor name of a document nothing identified.
// Unknown vendors are never merged across documents.
const UnknownVendor = "unknown"

// Vendor is a canonical vendor identity for one analysis run. Terms collects
// the document-level terms lines of every quote the vendor sent.
type Vendor struct {
	Key         string   `json:"vendor_key"`
	DisplayName string   `json:"display_name"`
	Aliases     []string `json:"aliases"`
	Terms       []string `json:"terms,omitempty"`
}

// NormalizedItem groups line items from different vendors that describe the same good.
// Members holds at most one line item per vendor, ordered by vendor key.
// AmbiguousWith lists the descriptions of plausible matches that lost to a
// higher-confidence one; a non-empty list means the identity needs review.
type NormalizedItem struct {
	Key                  string              `json:"item_key"`
	CanonicalDescription string              `json:"canonical_description"`
	SKU                  string              `json:"sku,omitempty"`
	Members              []LineItem          `json:"member_line_items"`
	ByVendor             map[string]LineItem `json:"by_vendor"`
	Superseded           []LineItem          `json:"superseded,omitempty"`
	AmbiguousWith        []string            `json:"ambiguous_with,omitempty"`
}

// VendorKeys returns the vendor keys of the members in order.
func (n NormalizedItem) VendorKeys() []string {
	keys := make([]string, len(n.Members))
	for i, m := range n.Members {
		keys[i] = m.VendorKey
	}
	return keys
}
