package entity

// Mode selects how items are awarded.
type Mode string

const (
	ModeAuto         Mode = "auto"
	ModeSingleVendor Mode = "single_vendor"
	ModeSplit        Mode = "split"
)

// Assignment awards a fraction of an item's quantity to a vendor.
type Assignment struct {
	ItemKey          string  `json:"item_key"`
	VendorKey        string  `json:"vendor_key"`
	QuantityFraction float64 `json:"quantity_fraction"`
	Cost             float64 `json:"cost"`
}

// Gap is an item the recommendation could not price.
type Gap struct {
	ItemKey     string `json:"item_key"`
	Description string `json:"description"`
	Reason      string `json:"reason"`
}

// VendorTotal is a vendor's standing as a single source.
type VendorTotal struct {
	VendorKey     string  `json:"vendor_key"`
	Covered       int     `json:"covered"`
	Missing       int     `json:"missing"`
	Cost          float64 `json:"cost"`
	PenalizedCost float64 `json:"penalized_cost"`
	Confidence    float64 `json:"confidence"`
}

// Recommendation is the Optimization Engine's award decision.
type Recommendation struct {
	Mode                Mode          `json:"mode"`
	SelectedVendor      string        `json:"selected_vendor,omitempty"`
	Assignments         []Assignment  `json:"assignments"`
	TotalCost           float64       `json:"total_cost"`
	SavingsVsWorst      float64       `json:"savings_vs_worst"`
	SavingsVsBestSingle float64       `json:"savings_vs_best_single,omitempty"`
	Gaps                []Gap         `json:"gaps"`
	VendorTotals        []VendorTotal `json:"vendor_totals,omitempty"`
	Rationale           []string      `json:"rationale"`
}

// VendorsUsed returns the distinct vendor keys that received an assignment, in first-award order.
func (r Recommendation) VendorsUsed() []string {
	seen := map[string]struct{}{}
	var out []string
	for _, a := range r.Assignments {
		if _, ok := seen[a.VendorKey]; ok {
			continue
		}
		seen[a.VendorKey] = struct{}{}
		out = append(out, a.VendorKey)
	}
	return out
}
