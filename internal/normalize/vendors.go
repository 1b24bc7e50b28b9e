package normalize

import (
	"fmt"
	"sort"
	"strings"

	"github.com/joseph-ayodele/quote-optimizer/internal/entity"
)

// vendorRef is one document's claim to a vendor name.
type vendorRef struct {
	docID string
	raw   string
}

func (r vendorRef) unknown() bool {
	return strings.TrimSpace(r.raw) == "" || strings.EqualFold(strings.TrimSpace(r.raw), entity.UnknownVendor)
}

// vendorTable is the run's raw-name → vendor mapping.
type vendorTable struct {
	vendors []entity.Vendor
	byRaw   map[string]string // fold(raw) → key
	byDoc   map[string]string // unknown vendors only
}

func (t vendorTable) keyFor(docID, raw string) string {
	r := vendorRef{docID: docID, raw: raw}
	if r.unknown() {
		return t.byDoc[docID]
	}
	return t.byRaw[fold(raw)]
}

// clusterVendors groups raw names by exact folded match, then merges groups
// whose names are at least threshold similar. Merging is single-linkage, so
// the result does not depend on input order.
func clusterVendors(refs []vendorRef, sim Similarity, threshold float64) vendorTable {
	type group struct {
		fold   string
		counts map[string]int
	}
	groups := map[string]*group{}
	var unknownDocs []string
	seenDoc := map[string]bool{}
	for _, r := range refs {
		if r.unknown() {
			if !seenDoc[r.docID] {
				seenDoc[r.docID] = true
				unknownDocs = append(unknownDocs, r.docID)
			}
			continue
		}
		raw := strings.Join(strings.Fields(r.raw), " ")
		f := fold(raw)
		g, ok := groups[f]
		if !ok {
			g = &group{fold: f, counts: map[string]int{}}
			groups[f] = g
		}
		g.counts[raw]++
	}

	folds := make([]string, 0, len(groups))
	for f := range groups {
		folds = append(folds, f)
	}
	sort.Strings(folds)

	parent := make([]int, len(folds))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		if parent[i] != i {
			parent[i] = find(parent[i])
		}
		return parent[i]
	}
	for i := range folds {
		for j := i + 1; j < len(folds); j++ {
			if sim(folds[i], folds[j]) >= threshold {
				ri, rj := find(i), find(j)
				if ri != rj {
					parent[max(ri, rj)] = min(ri, rj)
				}
			}
		}
	}

	clusters := map[int][]*group{}
	for i, f := range folds {
		root := find(i)
		clusters[root] = append(clusters[root], groups[f])
	}

	type draft struct {
		display string
		aliases []string
		folds   []string
	}
	drafts := make([]draft, 0, len(clusters)+len(unknownDocs))
	for _, members := range clusters {
		counts := map[string]int{}
		var d draft
		for _, g := range members {
			d.folds = append(d.folds, g.fold)
			for raw, n := range g.counts {
				counts[raw] += n
			}
		}
		for raw := range counts {
			d.aliases = append(d.aliases, raw)
		}
		sort.Strings(d.aliases)
		d.display = pickDisplay(counts)
		drafts = append(drafts, d)
	}
	sort.Slice(drafts, func(i, j int) bool {
		fi, fj := fold(drafts[i].display), fold(drafts[j].display)
		if fi != fj {
			return fi < fj
		}
		return drafts[i].display < drafts[j].display
	})

	t := vendorTable{byRaw: map[string]string{}, byDoc: map[string]string{}}
	used := map[string]bool{}
	for _, d := range drafts {
		key := uniqueKey(slug(d.display), "vendor", used)
		t.vendors = append(t.vendors, entity.Vendor{Key: key, DisplayName: d.display, Aliases: d.aliases})
		for _, f := range d.folds {
			t.byRaw[f] = key
		}
	}
	sort.Strings(unknownDocs)
	for _, doc := range unknownDocs {
		key := uniqueKey("unknown-"+slug(doc), "unknown", used)
		t.vendors = append(t.vendors, entity.Vendor{
			Key:         key,
			DisplayName: fmt.Sprintf("%s (%s)", entity.UnknownVendor, doc),
			Aliases:     []string{entity.UnknownVendor},
		})
		t.byDoc[doc] = key
	}
	return t
}

// pickDisplay prefers the most used spelling, then the longest, then the lexically first.
func pickDisplay(counts map[string]int) string {
	best := ""
	for raw, n := range counts {
		switch {
		case best == "":
			best = raw
		case n != counts[best]:
			if n > counts[best] {
				best = raw
			}
		case len(raw) != len(best):
			if len(raw) > len(best) {
				best = raw
			}
		case raw < best:
			best = raw
		}
	}
	return best
}

func uniqueKey(base, fallback string, used map[string]bool) string {
	if base == "" {
		base = fallback
	}
	key := base
	for n := 2; used[key]; n++ {
		key = fmt.Sprintf("%s-%d", base, n)
	}
	used[key] = true
	return key
}
