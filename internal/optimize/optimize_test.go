package optimize

import (
	"fmt"
	"sort"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/quote-optimizer/internal/common"
	"github.com/joseph-ayodele/quote-optimizer/internal/entity"
)

const unpriced = -1

// matrix builds a comparison matrix from item → vendor → line total.
// An unpriced cost adds a cell with a quantity but no price.
func matrix(rows map[string]map[string]float64) entity.ComparisonMatrix {
	m := entity.ComparisonMatrix{
		Cells:        map[string]map[string]entity.PriceCell{},
		Descriptions: map[string]string{},
		VendorNames:  map[string]string{},
	}
	vendors := map[string]bool{}
	for item, offers := range rows {
		m.ItemKeys = append(m.ItemKeys, item)
		m.Descriptions[item] = "Item " + item
		m.Cells[item] = map[string]entity.PriceCell{}
		for v, cost := range offers {
			cell := entity.PriceCell{Quantity: entity.Found(1.0, 1, entity.SourceExactHeader), Confidence: 0.9}
			if cost != unpriced {
				cell.LineTotal = entity.Found(cost, 1, entity.SourceExactHeader)
			}
			m.Cells[item][v] = cell
			vendors[v] = true
		}
	}
	for v := range vendors {
		m.VendorKeys = append(m.VendorKeys, v)
		m.VendorNames[v] = "Vendor " + v
	}
	sort.Strings(m.ItemKeys)
	sort.Strings(m.VendorKeys)
	return m
}

func assigned(rec entity.Recommendation) map[string]string {
	out := map[string]string{}
	for _, a := range rec.Assignments {
		out[a.ItemKey] = a.VendorKey
	}
	return out
}

func gapKeys(rec entity.Recommendation) []string {
	var out []string
	for _, g := range rec.Gaps {
		out = append(out, g.ItemKey)
	}
	return out
}

func TestRecommend_BothModesPickCheaperVendor(t *testing.T) {
	t.Parallel()
	m := matrix(map[string]map[string]float64{"widget": {"x": 50, "y": 40}})
	o := New(Options{}, nil)
	for _, mode := range []entity.Mode{entity.ModeSingleVendor, entity.ModeSplit} {
		rec, err := o.Recommend(m, mode)
		require.NoError(t, err)
		assert.Equal(t, mode, rec.Mode)
		assert.Equal(t, map[string]string{"widget": "y"}, assigned(rec))
		assert.Equal(t, 40.0, rec.TotalCost)
		assert.Empty(t, rec.Gaps)
	}

	single, _ := o.Recommend(m, entity.ModeSingleVendor)
	assert.Equal(t, "y", single.SelectedVendor)
	assert.Equal(t, 10.0, single.SavingsVsWorst)
	assert.Contains(t, single.Rationale, "Vendor y selected as single-source, saving $10.00 over the next-best single vendor (Vendor x).")
	assert.Contains(t, single.Rationale, "Item widget awarded to Vendor y at $40.00, 20.0% below the next offer.")
}

func TestRecommend_SoleSupplierGetsItemInSplit(t *testing.T) {
	t.Parallel()
	m := matrix(map[string]map[string]float64{
		"a": {"x": 10, "y": 12},
		"b": {"x": 20, "y": 25},
		"c": {"z": 7},
	})
	o := New(Options{}, nil)

	split, err := o.Recommend(m, entity.ModeSplit)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "x", "b": "x", "c": "z"}, assigned(split))
	assert.Equal(t, 37.0, split.TotalCost)
	for _, a := range split.Assignments {
		assert.Equal(t, 1.0, a.QuantityFraction)
	}

	single, err := o.Recommend(m, entity.ModeSingleVendor)
	require.NoError(t, err)
	assert.Equal(t, "x", single.SelectedVendor)
	assert.Equal(t, 30.0, single.TotalCost)
	assert.Equal(t, []string{"c"}, gapKeys(single))
	assert.Contains(t, single.Gaps[0].Reason, "available from Vendor z")
	for _, a := range single.Assignments {
		assert.Equal(t, "x", a.VendorKey)
	}
}

func TestRecommend_NoEligibleOfferIsGap(t *testing.T) {
	t.Parallel()
	m := matrix(map[string]map[string]float64{
		"a":     {"x": 10, "y": 8},
		"quote": {"x": unpriced},
	})
	for _, mode := range []entity.Mode{entity.ModeSingleVendor, entity.ModeSplit} {
		rec, err := New(Options{}, nil).Recommend(m, mode)
		require.NoError(t, err)
		assert.Equal(t, []string{"quote"}, gapKeys(rec), mode)
		assert.Equal(t, 8.0, rec.TotalCost, mode)
		assert.NotContains(t, assigned(rec), "quote")
		assert.Contains(t, rec.Gaps[0].Reason, "without a usable price")
	}
}

func TestRecommend_MissingPenalty(t *testing.T) {
	t.Parallel()
	// y is cheaper on what it quotes but lacks item b.
	m := matrix(map[string]map[string]float64{
		"a": {"x": 100, "y": 90},
		"b": {"x": 100},
	})
	rec, err := New(Options{MissingPenalty: 0.25}, nil).Recommend(m, entity.ModeSingleVendor)
	require.NoError(t, err)
	assert.Equal(t, "x", rec.SelectedVendor)
	assert.Empty(t, rec.Gaps)
	require.Len(t, rec.VendorTotals, 2)
	assert.Equal(t, entity.VendorTotal{VendorKey: "x", Covered: 2, Cost: 200, PenalizedCost: 200, Confidence: 0.9}, rec.VendorTotals[0])
	assert.Equal(t, "y", rec.VendorTotals[1].VendorKey)
	assert.Equal(t, 1, rec.VendorTotals[1].Missing)
	assert.Equal(t, 215.0, rec.VendorTotals[1].PenalizedCost)
}

func TestRecommend_TieBreaks(t *testing.T) {
	t.Parallel()
	m := matrix(map[string]map[string]float64{"a": {"b-vendor": 10, "a-vendor": 10}})
	rec, err := New(Options{}, nil).Recommend(m, entity.ModeSingleVendor)
	require.NoError(t, err)
	assert.Equal(t, "a-vendor", rec.SelectedVendor, "equal cost and confidence fall back to key order")

	cell := m.Cells["a"]["b-vendor"]
	cell.Confidence = 0.99
	m.Cells["a"]["b-vendor"] = cell
	rec, err = New(Options{}, nil).Recommend(m, entity.ModeSingleVendor)
	require.NoError(t, err)
	assert.Equal(t, "b-vendor", rec.SelectedVendor, "higher confidence wins a cost tie")
}

func TestRecommend_SplitRationale(t *testing.T) {
	t.Parallel()
	m := matrix(map[string]map[string]float64{
		"a": {"x": 10, "y": 20, "z": 30},
		"b": {"x": 30, "y": 10, "z": 20},
		"c": {"x": 30, "y": 20, "z": 10},
	})
	rec, err := New(Options{Currency: "EUR"}, nil).Recommend(m, entity.ModeSplit)
	require.NoError(t, err)
	assert.Equal(t, 30.0, rec.TotalCost)
	assert.Equal(t, 20.0, rec.SavingsVsBestSingle)
	assert.Equal(t, 40.0, rec.SavingsVsWorst)
	assert.Equal(t, "Split purchasing saves €20.00 over best single-source option (Vendor y).", rec.Rationale[0])
	assert.Contains(t, rec.Rationale[1], "3 vendors")
	assert.Contains(t, rec.Rationale, "Item a awarded to Vendor x at €10.00, 50.0% below the next offer.")
}

func TestRecommend_ItemNotes(t *testing.T) {
	t.Parallel()
	lead := func(m entity.ComparisonMatrix, item, vendor string, d int) {
		c := m.Cells[item][vendor]
		c.LeadTimeDays = entity.Found(d, 1, entity.SourcePattern)
		m.Cells[item][vendor] = c
	}
	tests := []struct {
		name  string
		setup func(entity.ComparisonMatrix)
		want  []string
		none  string
	}{
		{
			name:  "faster winner",
			setup: func(m entity.ComparisonMatrix) { lead(m, "a", "x", 3); lead(m, "a", "y", 14) },
			want:  []string{"Item a: delivery advantage, Vendor x delivers in 3 days against 14 days from Vendor y."},
		},
		{
			name:  "slower winner",
			setup: func(m entity.ComparisonMatrix) { lead(m, "a", "x", 21); lead(m, "a", "y", 0) },
			want:  []string{"Item a: Vendor x quotes 21 days; Vendor y delivers same day."},
		},
		{
			name:  "no rival lead time",
			setup: func(m entity.ComparisonMatrix) { lead(m, "a", "x", 3) },
			none:  "deliver",
		},
		{
			name: "ambiguous identity",
			setup: func(m entity.ComparisonMatrix) {
				m.Ambiguous["a"] = []string{"Widget deluxe"}
			},
			want: []string{`Item a: identity ambiguous (also plausible: "Widget deluxe"), higher-confidence match kept; review before award.`},
		},
	}
	for _, tt := range tests {
		for _, mode := range []entity.Mode{entity.ModeSplit, entity.ModeSingleVendor} {
			t.Run(fmt.Sprintf("%s/%s", tt.name, mode), func(t *testing.T) {
				t.Parallel()
				m := matrix(map[string]map[string]float64{"a": {"x": 10, "y": 20}})
				m.Ambiguous = map[string][]string{}
				tt.setup(m)
				rec, err := New(Options{}, nil).Recommend(m, mode)
				require.NoError(t, err)
				for _, w := range tt.want {
					assert.Contains(t, rec.Rationale, w)
				}
				if tt.none != "" {
					for _, line := range rec.Rationale {
						assert.NotContains(t, line, tt.none)
					}
				}
			})
		}
	}
}

func TestRecommend_UnknownMode(t *testing.T) {
	t.Parallel()
	_, err := New(Options{}, nil).Recommend(matrix(nil), entity.Mode("cheapest"))
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestRecommend_EmptyMatrix(t *testing.T) {
	t.Parallel()
	for _, mode := range []entity.Mode{entity.ModeSingleVendor, entity.ModeSplit, entity.ModeAuto} {
		rec, err := New(Options{}, nil).Recommend(matrix(nil), mode)
		require.NoError(t, err)
		assert.Empty(t, rec.Assignments)
		assert.Zero(t, rec.TotalCost)
		assert.NotEmpty(t, rec.Rationale)
	}
}

func TestAuto(t *testing.T) {
	t.Parallel()
	o := New(Options{}, nil)

	rec, alt := o.Auto(matrix(map[string]map[string]float64{
		"a": {"x": 10, "y": 12},
		"b": {"x": 20, "y": 25},
	}))
	assert.Equal(t, entity.ModeSingleVendor, rec.Mode, "splitting saves nothing")
	assert.Equal(t, entity.ModeSplit, alt.Mode)

	rec, alt = o.Auto(matrix(map[string]map[string]float64{
		"a": {"x": 10, "y": 12},
		"b": {"x": 25, "y": 20},
	}))
	assert.Equal(t, entity.ModeSplit, rec.Mode)
	assert.Equal(t, 30.0, rec.TotalCost)
	assert.Equal(t, entity.ModeSingleVendor, alt.Mode)
}

func TestSplit_NeverCostsMoreThanFullCoverageVendor(t *testing.T) {
	t.Parallel()
	f := gofakeit.New(3)
	o := New(Options{}, nil)
	for round := 0; round < 200; round++ {
		rows := map[string]map[string]float64{}
		nVendors := f.IntRange(1, 5)
		for i := 0; i < f.IntRange(1, 12); i++ {
			offers := map[string]float64{}
			for v := 0; v < nVendors; v++ {
				if f.Float64Range(0, 1) < 0.8 {
					offers[fmt.Sprintf("v%d", v)] = float64(f.IntRange(1, 100000)) / 100
				}
			}
			if len(offers) > 0 {
				rows[fmt.Sprintf("i%02d", i)] = offers
			}
		}
		m := matrix(rows)
		split, err := o.Recommend(m, entity.ModeSplit)
		require.NoError(t, err)
		assert.Empty(t, split.Gaps)
		assert.GreaterOrEqual(t, split.SavingsVsWorst, 0.0)
		assert.GreaterOrEqual(t, split.SavingsVsBestSingle, 0.0)

		for _, v := range m.VendorKeys {
			var total float64
			full := true
			for _, item := range m.ItemKeys {
				c, ok := m.Cell(item, v)
				if !ok {
					full = false
					break
				}
				cost, _ := c.Cost()
				total += cost
			}
			if full {
				assert.LessOrEqual(t, split.TotalCost, total+1e-9, "round %d vendor %s", round, v)
			}
		}

		single, err := o.Recommend(m, entity.ModeSingleVendor)
		require.NoError(t, err)
		assert.Equal(t, len(m.ItemKeys), len(single.Assignments)+len(single.Gaps))
	}
}
