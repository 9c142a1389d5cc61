// internal/report/report.go
//
// Read-only views over the registry, catalog and ledger. Nothing in
// this package writes; every figure is recomputed from stored state on
// each call.
package report

import (
	"strconv"

	"iqrabackend/internal/catalog"
	"iqrabackend/internal/data"
	"iqrabackend/internal/faults"
	"iqrabackend/internal/ledger"
	"iqrabackend/internal/tuition"
)

// Family payment statuses.
const (
	StatusNotEnrolled = "Not Enrolled"
	StatusPaid        = "Paid"
	StatusPartial     = "Partial"
	StatusPending     = "Pending"
)

type Service struct {
	families *data.FamilyRepository
	catalog  *catalog.Service
	ledger   *ledger.Service
}

func NewService(cat *catalog.Service, led *ledger.Service) *Service {
	return &Service{
		families: data.NewFamilyRepository(),
		catalog:  cat,
		ledger:   led,
	}
}

// DepartmentDue is one (child, department) obligation with payments
// applied. Payments count only when recorded against this exact
// student and department pair; lump sums are not redistributed.
type DepartmentDue struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
	Paid   float64 `json:"paid"`
	Due    float64 `json:"due"`
}

type ChildDue struct {
	Name        string          `json:"name"`
	Departments []DepartmentDue `json:"departments"`
	TotalAmount float64         `json:"totalAmount"`
	TotalPaid   float64         `json:"totalPaid"`
	TotalDue    float64         `json:"totalDue"`
}

type FamilyBreakdown struct {
	RGNumber    int64      `json:"rgNumber"`
	Children    []ChildDue `json:"children"`
	TotalAmount float64    `json:"totalAmount"`
	TotalPaid   float64    `json:"totalPaid"`
	TotalDue    float64    `json:"totalDue"`
}

// Quote runs the tuition calculator for one family using the current
// catalog costs and discount settings.
func (s *Service) Quote(rgNumber int64) (tuition.Breakdown, error) {
	fam, err := s.family(rgNumber)
	if err != nil {
		return tuition.Breakdown{}, err
	}
	return s.quoteFamily(*fam)
}

func (s *Service) quoteFamily(fam data.Family) (tuition.Breakdown, error) {
	costOf, err := s.catalog.CostLookup()
	if err != nil {
		return tuition.Breakdown{}, err
	}
	discounts, err := s.catalog.Discounts()
	if err != nil {
		return tuition.Breakdown{}, err
	}
	return tuition.Calculate(fam, costOf, discounts), nil
}

// TuitionBreakdown reconciles obligations against active payments per
// (child, department) pair. Departments missing from the catalog are
// skipped entirely here, whereas the calculator counts them as cost 0,
// so this view's total can lag the quoted total while the catalog is
// incomplete.
func (s *Service) TuitionBreakdown(rgNumber int64) (FamilyBreakdown, error) {
	fam, err := s.family(rgNumber)
	if err != nil {
		return FamilyBreakdown{}, err
	}

	out := FamilyBreakdown{RGNumber: rgNumber}
	for _, child := range fam.Children {
		childDue := ChildDue{Name: child.Name, Departments: []DepartmentDue{}}
		for _, deptName := range child.Departments {
			dept, err := s.catalog.Department(deptName)
			if faults.IsNotFound(err) {
				continue
			}
			if err != nil {
				return FamilyBreakdown{}, err
			}

			paid, err := s.ledger.SumActive(data.ActiveFilter{
				RGNumber:       rgNumber,
				StudentName:    child.Name,
				DepartmentName: deptName,
			})
			if err != nil {
				return FamilyBreakdown{}, err
			}

			due := dept.FullAmount - paid
			if due < 0 {
				due = 0
			}
			childDue.Departments = append(childDue.Departments, DepartmentDue{
				Name:   deptName,
				Amount: dept.FullAmount,
				Paid:   paid,
				Due:    due,
			})
			childDue.TotalAmount += dept.FullAmount
			childDue.TotalPaid += paid
			childDue.TotalDue += due
		}
		out.Children = append(out.Children, childDue)
		out.TotalAmount += childDue.TotalAmount
		out.TotalPaid += childDue.TotalPaid
		out.TotalDue += childDue.TotalDue
	}
	return out, nil
}

// StatusReport pairs the classification with the figures and active
// payment rows it was derived from.
type StatusReport struct {
	RGNumber  int64          `json:"rgNumber"`
	Status    string         `json:"status"`
	TotalDue  float64        `json:"totalDue"`
	TotalPaid float64        `json:"totalPaid"`
	Remaining float64        `json:"remaining"`
	Payments  []data.Payment `json:"payments"`
}

// FamilyStatusReport classifies a family by comparing the quoted total
// with the sum of its active payments.
func (s *Service) FamilyStatusReport(rgNumber int64) (StatusReport, error) {
	fam, err := s.family(rgNumber)
	if err != nil {
		return StatusReport{}, err
	}

	quote, err := s.quoteFamily(*fam)
	if err != nil {
		return StatusReport{}, err
	}

	payments, err := s.ledger.ActivePayments(data.ActiveFilter{RGNumber: rgNumber})
	if err != nil {
		return StatusReport{}, err
	}
	var paid float64
	for _, p := range payments {
		paid += p.Amount
	}

	remaining := quote.Total - paid
	if remaining < 0 {
		remaining = 0
	}

	report := StatusReport{
		RGNumber:  rgNumber,
		Status:    classify(quote.Total, paid),
		TotalDue:  quote.Total,
		TotalPaid: paid,
		Remaining: remaining,
		Payments:  payments,
	}
	return report, nil
}

// FamilyStatus returns just the classification.
func (s *Service) FamilyStatus(rgNumber int64) (string, error) {
	report, err := s.FamilyStatusReport(rgNumber)
	if err != nil {
		return "", err
	}
	return report.Status, nil
}

// Dashboard is the whole-school rollup.
type Dashboard struct {
	TotalFamilies    int                `json:"totalFamilies"`
	TotalStudents    int                `json:"totalStudents"`
	LowestRGNumber   int64              `json:"lowestRgNumber"`
	HighestRGNumber  int64              `json:"highestRgNumber"`
	EnrollmentByDept map[string]int     `json:"enrollmentByDepartment"`
	CollectedByDept  map[string]float64 `json:"collectedByDepartment"`
	TotalDue         float64            `json:"totalDue"`
	TotalCollected   float64            `json:"totalCollected"`
	PendingAmount    float64            `json:"pendingAmount"`
	FamiliesByStatus map[string]int     `json:"familiesByStatus"`
}

// BuildDashboard walks every family once and the active ledger once.
func (s *Service) BuildDashboard() (Dashboard, error) {
	dash := Dashboard{
		EnrollmentByDept: map[string]int{},
		CollectedByDept:  map[string]float64{},
		FamiliesByStatus: map[string]int{},
	}

	fams, err := s.families.List()
	if err != nil {
		return Dashboard{}, err
	}

	costOf, err := s.catalog.CostLookup()
	if err != nil {
		return Dashboard{}, err
	}
	discounts, err := s.catalog.Discounts()
	if err != nil {
		return Dashboard{}, err
	}

	paidByFamily := map[int64]float64{}
	active, err := s.ledger.ActivePayments(data.ActiveFilter{})
	if err != nil {
		return Dashboard{}, err
	}
	for _, p := range active {
		dash.TotalCollected += p.Amount
		dash.CollectedByDept[p.DepartmentName] += p.Amount
		paidByFamily[p.RGNumber] += p.Amount
	}

	dash.TotalFamilies = len(fams)
	for _, fam := range fams {
		if dash.LowestRGNumber == 0 || fam.RGNumber < dash.LowestRGNumber {
			dash.LowestRGNumber = fam.RGNumber
		}
		if fam.RGNumber > dash.HighestRGNumber {
			dash.HighestRGNumber = fam.RGNumber
		}

		dash.TotalStudents += len(fam.Children)
		for _, child := range fam.Children {
			for _, deptName := range child.Departments {
				dash.EnrollmentByDept[deptName]++
			}
		}

		quote := tuition.Calculate(fam, costOf, discounts)
		dash.TotalDue += quote.Total

		status := classify(quote.Total, paidByFamily[fam.RGNumber])
		dash.FamiliesByStatus[status]++
	}

	dash.PendingAmount = dash.TotalDue - dash.TotalCollected
	if dash.PendingAmount < 0 {
		dash.PendingAmount = 0
	}
	return dash, nil
}

func classify(totalDue, totalPaid float64) string {
	if totalDue == 0 {
		return StatusNotEnrolled
	}
	if totalDue-totalPaid <= 0 {
		return StatusPaid
	}
	if totalPaid > 0 {
		return StatusPartial
	}
	return StatusPending
}

func (s *Service) family(rgNumber int64) (*data.Family, error) {
	fam, err := s.families.GetByRG(rgNumber)
	if err != nil {
		return nil, err
	}
	if fam == nil {
		return nil, faults.NotFound("family", strconv.FormatInt(rgNumber, 10))
	}
	return fam, nil
}
