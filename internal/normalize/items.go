package normalize

import (
	"fmt"
	"math"
	"slices"
	"sort"
	"strings"

	"github.com/joseph-ayodele/quote-optimizer/internal/entity"
)

// exactMatch is the score of a shared SKU or an identical description.
const exactMatch = 1.0

type scorer struct {
	items []entity.LineItem
	skus  []string
	descs []string
	sim   Similarity
	cache map[[2]int]float64
}

func newScorer(items []entity.LineItem, sim Similarity) *scorer {
	s := &scorer{items: items, sim: sim, cache: map[[2]int]float64{}}
	s.skus = make([]string, len(items))
	s.descs = make([]string, len(items))
	for i, it := range items {
		s.skus[i] = normalizeSKU(it.SKU.OrElse(""))
		s.descs[i] = fold(it.Description)
	}
	return s
}

// score is symmetric. Items of the same vendor only match as exact duplicates.
func (s *scorer) score(i, j int) float64 {
	if i > j {
		i, j = j, i
	}
	if v, ok := s.cache[[2]int{i, j}]; ok {
		return v
	}
	var v float64
	switch {
	case s.skus[i] != "" && s.skus[i] == s.skus[j]:
		v = exactMatch
	case s.descs[i] != "" && s.descs[i] == s.descs[j]:
		v = exactMatch
	case s.items[i].VendorKey == s.items[j].VendorKey:
		v = 0
	default:
		v = s.sim(s.items[i].Description, s.items[j].Description)
	}
	s.cache[[2]int{i, j}] = v
	return v
}

// skuMatches returns the candidates sharing item i's SKU.
func (s *scorer) skuMatches(i int, cands []int) []int {
	if s.skus[i] == "" {
		return nil
	}
	var out []int
	for _, j := range cands {
		if s.skus[j] == s.skus[i] {
			out = append(out, j)
		}
	}
	return out
}

// better reports whether line item a should win over b for the same vendor
// slot: higher confidence, then lower line total, then lower id.
func better(a, b entity.LineItem) bool {
	if a.ExtractionConfidence != b.ExtractionConfidence {
		return a.ExtractionConfidence > b.ExtractionConfidence
	}
	ta, tb := totalOrInf(a), totalOrInf(b)
	if ta != tb {
		return ta < tb
	}
	return a.ID < b.ID
}

func totalOrInf(it entity.LineItem) float64 {
	if t, ok := it.Total(); ok {
		return t
	}
	return math.Inf(1)
}

type ambiguity struct {
	item    int
	chosen  int
	rivals  []int
	scoreOf float64
}

// clusterItems links two line items of different vendors when each is the
// other's preferred partner from the other's vendor, and links exact
// duplicates within a vendor. Both relations are symmetric, so clustering
// does not depend on input order.
func clusterItems(in []entity.LineItem, opts Options) ([]entity.NormalizedItem, []entity.Warning) {
	items := make([]entity.LineItem, len(in))
	copy(items, in)
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].VendorKey != items[j].VendorKey {
			return items[i].VendorKey < items[j].VendorKey
		}
		return items[i].ID < items[j].ID
	})
	sc := newScorer(items, opts.ItemSimilarity)

	prefer := make([]map[string]int, len(items))
	var ambiguous []ambiguity
	for i := range items {
		prefer[i] = map[string]int{}
		byVendor := map[string][]int{}
		for j := range items {
			if i == j || items[i].VendorKey == items[j].VendorKey {
				continue
			}
			if sc.score(i, j) >= opts.ItemThreshold {
				v := items[j].VendorKey
				byVendor[v] = append(byVendor[v], j)
			}
		}
		vendors := make([]string, 0, len(byVendor))
		for v := range byVendor {
			vendors = append(vendors, v)
		}
		sort.Strings(vendors)
		for _, v := range vendors {
			cands := byVendor[v]
			// a shared SKU wins outright; descriptions only break ties among SKU matches
			if skus := sc.skuMatches(i, cands); len(skus) > 0 {
				sort.Slice(skus, func(a, b int) bool { return better(items[skus[a]], items[skus[b]]) })
				prefer[i][v] = skus[0]
				continue
			}
			top := 0.0
			for _, j := range cands {
				top = math.Max(top, sc.score(i, j))
			}
			var plausible []int
			for _, j := range cands {
				if sc.score(i, j) >= top-opts.AmbiguityEpsilon {
					plausible = append(plausible, j)
				}
			}
			sort.Slice(plausible, func(a, b int) bool {
				ja, jb := plausible[a], plausible[b]
				if items[ja].ExtractionConfidence != items[jb].ExtractionConfidence {
					return items[ja].ExtractionConfidence > items[jb].ExtractionConfidence
				}
				if sa, sb := sc.score(i, ja), sc.score(i, jb); sa != sb {
					return sa > sb
				}
				return better(items[ja], items[jb])
			})
			prefer[i][v] = plausible[0]
			if len(plausible) > 1 {
				ambiguous = append(ambiguous, ambiguity{item: i, chosen: plausible[0], rivals: plausible[1:], scoreOf: sc.score(i, plausible[0])})
			}
		}
	}

	parent := make([]int, len(items))
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
	union := func(i, j int) {
		ri, rj := find(i), find(j)
		if ri != rj {
			parent[max(ri, rj)] = min(ri, rj)
		}
	}
	for i := range items {
		for j := i + 1; j < len(items); j++ {
			// duplicates within one vendor always share a cluster
			if items[i].VendorKey == items[j].VendorKey && sc.score(i, j) == exactMatch {
				union(i, j)
			}
		}
		for _, j := range prefer[i] {
			if j > i && prefer[j][items[i].VendorKey] == i {
				union(i, j)
			}
		}
	}

	comps := map[int][]int{}
	for i := range items {
		r := find(i)
		comps[r] = append(comps[r], i)
	}

	type built struct {
		item    entity.NormalizedItem
		members []int
		warns   []entity.Warning
	}
	all := make([]built, 0, len(comps))
	for _, members := range comps {
		c, w := buildCluster(items, members)
		all = append(all, built{item: c, members: members, warns: w})
	}
	sort.Slice(all, func(i, j int) bool {
		fi, fj := fold(all[i].item.CanonicalDescription), fold(all[j].item.CanonicalDescription)
		if fi != fj {
			return fi < fj
		}
		return all[i].members[0] < all[j].members[0]
	})

	clusters := make([]entity.NormalizedItem, len(all))
	clusterOf := make([]int, len(items))
	var warns []entity.Warning
	used := map[string]bool{}
	for ci, b := range all {
		c := b.item
		base := slug(c.CanonicalDescription)
		if base == "" && c.SKU != "" {
			base = slug(c.SKU)
		}
		c.Key = uniqueKey(base, "item", used)
		clusters[ci] = c
		for _, i := range b.members {
			clusterOf[i] = ci
		}
		for _, w := range b.warns {
			w.ItemKey = c.Key
			warns = append(warns, w)
		}
	}

	seen := map[string]bool{}
	for _, a := range ambiguous {
		it, chosen := items[a.item], items[a.chosen]
		names := make([]string, 0, len(a.rivals))
		for _, r := range a.rivals {
			names = append(names, fmt.Sprintf("%q", items[r].Description))
		}
		msg := fmt.Sprintf("%q (%s) matched %q from %s at %.2f; also plausible: %s; kept the higher-confidence match",
			it.Description, it.VendorKey, chosen.Description, chosen.VendorKey, a.scoreOf, strings.Join(names, ", "))
		if seen[msg] {
			continue
		}
		seen[msg] = true
		c := &clusters[clusterOf[a.item]]
		for _, r := range a.rivals {
			if !slices.Contains(c.AmbiguousWith, items[r].Description) {
				c.AmbiguousWith = append(c.AmbiguousWith, items[r].Description)
			}
		}
		warns = append(warns, entity.Warning{
			DocumentID: it.SourceDocumentID,
			ItemKey:    clusters[clusterOf[a.item]].Key,
			Kind:       entity.WarnAmbiguousIdentity,
			Message:    msg,
		})
	}
	return clusters, warns
}

// buildCluster keeps one line item per vendor and supersedes the rest.
func buildCluster(items []entity.LineItem, members []int) (entity.NormalizedItem, []entity.Warning) {
	winners := map[string]entity.LineItem{}
	var superseded []entity.LineItem
	for _, i := range members {
		it := items[i]
		cur, ok := winners[it.VendorKey]
		switch {
		case !ok:
			winners[it.VendorKey] = it
		case better(it, cur):
			superseded = append(superseded, cur)
			winners[it.VendorKey] = it
		default:
			superseded = append(superseded, it)
		}
	}

	c := entity.NormalizedItem{ByVendor: make(map[string]entity.LineItem, len(winners))}
	vendors := make([]string, 0, len(winners))
	for v := range winners {
		vendors = append(vendors, v)
	}
	sort.Strings(vendors)
	var canon entity.LineItem
	for i, v := range vendors {
		m := winners[v]
		c.Members = append(c.Members, m)
		c.ByVendor[v] = m
		if i == 0 || m.ExtractionConfidence > canon.ExtractionConfidence ||
			(m.ExtractionConfidence == canon.ExtractionConfidence && len(m.Description) > len(canon.Description)) {
			canon = m
		}
	}
	c.CanonicalDescription = canon.Description
	c.SKU = canon.SKU.OrElse("")
	for _, m := range c.Members {
		if c.SKU != "" {
			break
		}
		c.SKU = m.SKU.OrElse("")
	}

	sort.Slice(superseded, func(i, j int) bool { return superseded[i].ID < superseded[j].ID })
	c.Superseded = superseded
	var warns []entity.Warning
	for _, s := range superseded {
		kept := winners[s.VendorKey]
		warns = append(warns, entity.Warning{
			DocumentID: s.SourceDocumentID,
			Kind:       entity.WarnAmbiguousIdentity,
			Message: fmt.Sprintf("%s quoted %q more than once; kept %s (confidence %.2f) over %s (confidence %.2f)",
				s.VendorKey, kept.Description, kept.ID, kept.ExtractionConfidence, s.ID, s.ExtractionConfidence),
		})
	}
	return c, warns
}
