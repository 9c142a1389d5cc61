// internal/tuition/tuition_test.go
package tuition

import (
	"math"
	"testing"

	"iqrabackend/internal/data"
)

func costTable(costs map[string]float64) CostFunc {
	return func(name string) float64 {
		return costs[name]
	}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestCalculateSingleChildNoDiscounts(t *testing.T) {
	fam := data.Family{Children: []data.Child{
		{Name: "Amira", Departments: []string{"Quran"}},
	}}
	costs := costTable(map[string]float64{"Quran": 1000})
	discounts := data.DiscountSettings{Sibling: 10, MultiDept: 5}

	got := Calculate(fam, costs, discounts)

	if !almostEqual(got.Total, 1000) {
		t.Errorf("total = %v, want 1000", got.Total)
	}
	if got.SiblingDiscount != 0 || got.MultiDeptDiscount != 0 {
		t.Errorf("first child with one department should get no discounts, got sibling=%v multiDept=%v",
			got.SiblingDiscount, got.MultiDeptDiscount)
	}
}

func TestCalculateDiscountsCompoundMultiplicatively(t *testing.T) {
	// A second-listed child with two departments totalling 1000 pays
	// 1000 * 0.90 * 0.95 = 855, not 1000 * (1 - 0.15) = 850.
	fam := data.Family{Children: []data.Child{
		{Name: "First", Departments: nil},
		{Name: "Second", Departments: []string{"Quran", "Arabic"}},
	}}
	costs := costTable(map[string]float64{"Quran": 600, "Arabic": 400})
	discounts := data.DiscountSettings{Sibling: 10, MultiDept: 5}

	got := Calculate(fam, costs, discounts)

	if !almostEqual(got.Total, 855) {
		t.Errorf("total = %v, want 855", got.Total)
	}
	if !almostEqual(got.SiblingDiscount, 100) {
		t.Errorf("sibling discount = %v, want 100", got.SiblingDiscount)
	}
	if !almostEqual(got.MultiDeptDiscount, 45) {
		t.Errorf("multi-department discount = %v, want 45 (applied after sibling)", got.MultiDeptDiscount)
	}
}

func TestCalculateFirstChildExemptFromSiblingDiscount(t *testing.T) {
	// List order is the sole determinant: swapping the children moves
	// the discount, whatever their ages are.
	costs := costTable(map[string]float64{"Quran": 500})
	discounts := data.DiscountSettings{Sibling: 20}

	forward := Calculate(data.Family{Children: []data.Child{
		{Name: "Older", Departments: []string{"Quran"}},
		{Name: "Younger", Departments: []string{"Quran"}},
	}}, costs, discounts)
	reversed := Calculate(data.Family{Children: []data.Child{
		{Name: "Younger", Departments: []string{"Quran"}},
		{Name: "Older", Departments: []string{"Quran"}},
	}}, costs, discounts)

	if !almostEqual(forward.Total, 900) || !almostEqual(reversed.Total, 900) {
		t.Errorf("totals = %v and %v, want 900 both ways", forward.Total, reversed.Total)
	}
}

func TestCalculateTwoChildScenario(t *testing.T) {
	// Child A: one department at 500, first-listed, no discounts: 500.
	// Child B: two departments at 400 each, sibling 10% then
	// multi-department 5%: 800 * 0.9 * 0.95 = 684. Family: 1184.
	fam := data.Family{Children: []data.Child{
		{Name: "A", Departments: []string{"Hifz"}},
		{Name: "B", Departments: []string{"Quran", "Arabic"}},
	}}
	costs := costTable(map[string]float64{"Hifz": 500, "Quran": 400, "Arabic": 400})
	discounts := data.DiscountSettings{Sibling: 10, MultiDept: 5}

	got := Calculate(fam, costs, discounts)

	if !almostEqual(got.Total, 1184) {
		t.Errorf("family total = %v, want 1184", got.Total)
	}
	if !almostEqual(got.Subtotal, got.Total) {
		t.Errorf("subtotal %v should equal total %v, no family-level discount exists", got.Subtotal, got.Total)
	}
}

func TestCalculateZeroDepartments(t *testing.T) {
	fam := data.Family{Children: []data.Child{
		{Name: "Amira", Departments: nil},
	}}

	got := Calculate(fam, costTable(nil), data.DiscountSettings{Sibling: 10, MultiDept: 5})

	if got.Total != 0 {
		t.Errorf("total = %v, want 0 for a child with no departments", got.Total)
	}
}

func TestCalculateUnresolvedDepartmentCostsZero(t *testing.T) {
	// A department name missing from the catalog contributes 0 and is
	// still listed in the breakdown. Not an error.
	fam := data.Family{Children: []data.Child{
		{Name: "Amira", Departments: []string{"Quran", "Ghost"}},
	}}
	costs := costTable(map[string]float64{"Quran": 300})

	got := Calculate(fam, costs, data.DiscountSettings{})

	if !almostEqual(got.Total, 300) {
		t.Errorf("total = %v, want 300", got.Total)
	}
	depts := got.Children[0].Departments
	if len(depts) != 2 {
		t.Fatalf("breakdown lists %d departments, want 2", len(depts))
	}
	if depts[1].Name != "Ghost" || depts[1].Cost != 0 {
		t.Errorf("unresolved department = %+v, want Ghost with cost 0", depts[1])
	}
}

func TestCalculateBreakdownCostsAreUndiscounted(t *testing.T) {
	fam := data.Family{Children: []data.Child{
		{Name: "First", Departments: []string{"Quran"}},
		{Name: "Second", Departments: []string{"Quran"}},
	}}
	costs := costTable(map[string]float64{"Quran": 200})
	discounts := data.DiscountSettings{Sibling: 50}

	got := Calculate(fam, costs, discounts)

	// The second child pays 100 but the breakdown still shows 200.
	if got.Children[1].Departments[0].Cost != 200 {
		t.Errorf("breakdown cost = %v, want undiscounted 200", got.Children[1].Departments[0].Cost)
	}
	if !almostEqual(got.Total, 300) {
		t.Errorf("total = %v, want 300", got.Total)
	}
}

func TestCalculateFreeDepartmentIsValid(t *testing.T) {
	fam := data.Family{Children: []data.Child{
		{Name: "Amira", Departments: []string{"Scholarship"}},
	}}
	costs := costTable(map[string]float64{"Scholarship": 0})

	got := Calculate(fam, costs, data.DiscountSettings{})
	if got.Total != 0 {
		t.Errorf("total = %v, want 0 for a free department", got.Total)
	}
}
