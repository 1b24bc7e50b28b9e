// Package normalize reconciles vendor and item identities across quote
// documents that share no keys. Vendors are merged by name similarity; line
// items are clustered across vendors by SKU and description similarity.
package normalize

import (
	"log/slog"
	"slices"

	"github.com/joseph-ayodele/quote-optimizer/internal/entity"
)

type Options struct {
	VendorThreshold  float64
	ItemThreshold    float64
	AmbiguityEpsilon float64
	VendorSimilarity Similarity
	ItemSimilarity   Similarity
}

func (o Options) withDefaults() Options {
	if o.VendorThreshold <= 0 {
		o.VendorThreshold = DefaultVendorThreshold
	}
	if o.ItemThreshold <= 0 {
		o.ItemThreshold = DefaultItemThreshold
	}
	if o.AmbiguityEpsilon <= 0 {
		o.AmbiguityEpsilon = DefaultAmbiguityEpsilon
	}
	if o.VendorSimilarity == nil {
		o.VendorSimilarity = VendorSimilarity
	}
	if o.ItemSimilarity == nil {
		o.ItemSimilarity = DescriptionSimilarity
	}
	return o
}

// Result is the run's identity table.
type Result struct {
	Vendors []entity.Vendor
	Items   []entity.NormalizedItem
	// DocumentVendors maps document id → vendor key.
	DocumentVendors map[string]string
	Warnings        []entity.Warning
}

// Vendor returns the vendor with the given key.
func (r Result) Vendor(key string) (entity.Vendor, bool) {
	for _, v := range r.Vendors {
		if v.Key == key {
			return v, true
		}
	}
	return entity.Vendor{}, false
}

type Normalizer struct {
	opts   Options
	logger *slog.Logger
}

// New returns a Normalizer. Zero thresholds and nil similarities take the
// package defaults.
func New(opts Options, logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{opts: opts.withDefaults(), logger: logger}
}

// Normalize assigns vendor keys to every line item and clusters the items.
// The input is not modified.
func (n *Normalizer) Normalize(docs []entity.ExtractedQuote) Result {
	var refs []vendorRef
	for _, d := range docs {
		refs = append(refs, vendorRef{docID: d.DocumentID, raw: d.VendorName})
		for _, it := range d.Items {
			if it.RawVendorName != "" {
				refs = append(refs, vendorRef{docID: d.DocumentID, raw: it.RawVendorName})
			}
		}
	}
	table := clusterVendors(refs, n.opts.VendorSimilarity, n.opts.VendorThreshold)

	res := Result{Vendors: table.vendors, DocumentVendors: map[string]string{}}
	index := make(map[string]int, len(res.Vendors))
	for i, v := range res.Vendors {
		index[v.Key] = i
	}
	var items []entity.LineItem
	for _, d := range docs {
		key := table.keyFor(d.DocumentID, d.VendorName)
		res.DocumentVendors[d.DocumentID] = key
		if i, ok := index[key]; ok {
			v := &res.Vendors[i]
			for _, t := range d.Terms {
				if !slices.Contains(v.Terms, t) {
					v.Terms = append(v.Terms, t)
				}
			}
		}
		for _, it := range d.Items {
			raw := it.RawVendorName
			if raw == "" {
				raw = d.VendorName
			}
			it = it.Clone()
			it.RawVendorName = raw
			it.VendorKey = table.keyFor(d.DocumentID, raw)
			if it.SourceDocumentID == "" {
				it.SourceDocumentID = d.DocumentID
			}
			items = append(items, it)
		}
	}

	res.Items, res.Warnings = clusterItems(items, n.opts)
	n.logger.Debug("normalize.done",
		"documents", len(docs),
		"vendors", len(res.Vendors),
		"line_items", len(items),
		"items", len(res.Items),
		"warnings", len(res.Warnings),
	)
	return res
}
