// internal/tuition/tuition.go
package tuition

import "iqrabackend/internal/data"

// CostFunc resolves a department name to its full-period cost. Names
// that no longer resolve (deleted departments) must return 0, not fail:
// children keep the enrollment, the cost just drops out.
type CostFunc func(departmentName string) float64

type DepartmentCost struct {
	Name string  `json:"name"`
	Cost float64 `json:"cost"`
}

type ChildBreakdown struct {
	Name        string           `json:"name"`
	Departments []DepartmentCost `json:"departments"`
}

// Breakdown reports discounts in aggregate. The per-department costs in
// Children are undiscounted; discounts are not distributed per
// department at this layer.
type Breakdown struct {
	Subtotal          float64          `json:"subtotal"`
	SiblingDiscount   float64          `json:"siblingDiscount"`
	MultiDeptDiscount float64          `json:"multiDeptDiscount"`
	Total             float64          `json:"total"`
	Children          []ChildBreakdown `json:"breakdown"`
}

// Calculate derives what a family owes. Per child, in list order:
// sum the child's department costs, then apply the sibling discount
// (children at index >= 1 only — list position decides, nothing else),
// then the multi-department discount (2+ departments). The two compound
// multiplicatively: final = raw * (1 - sibling%) * (1 - multiDept%).
// Pure function; no state is read or written beyond the arguments.
func Calculate(fam data.Family, costOf CostFunc, discounts data.DiscountSettings) Breakdown {
	details := Breakdown{Children: []ChildBreakdown{}}

	for childIndex, child := range fam.Children {
		var childTotal float64
		childBreakdown := ChildBreakdown{Name: child.Name, Departments: []DepartmentCost{}}

		for _, dept := range child.Departments {
			cost := costOf(dept)
			childBreakdown.Departments = append(childBreakdown.Departments, DepartmentCost{Name: dept, Cost: cost})
			childTotal += cost
		}

		// Sibling discount: 2nd and subsequent children
		if childIndex > 0 {
			siblingAmount := childTotal * (discounts.Sibling / 100)
			details.SiblingDiscount += siblingAmount
			childTotal -= siblingAmount
		}

		// Multi-department discount on the already sibling-discounted total
		if len(child.Departments) > 1 {
			multiDeptAmount := childTotal * (discounts.MultiDept / 100)
			details.MultiDeptDiscount += multiDeptAmount
			childTotal -= multiDeptAmount
		}

		details.Subtotal += childTotal
		details.Children = append(details.Children, childBreakdown)
	}

	details.Total = details.Subtotal
	return details
}
