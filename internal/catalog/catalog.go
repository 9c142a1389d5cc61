// internal/catalog/catalog.go
package catalog

import (
	"strings"
	"time"

	"iqrabackend/internal/data"
	"iqrabackend/internal/faults"
	"iqrabackend/internal/logger"
	"iqrabackend/internal/tuition"
)

const dateFormat = "2006-01-02"

// Service is the catalog store: departments, schedules, discount
// configuration, and the academic year.
type Service struct {
	departments *data.DepartmentRepository
	settings    *data.SettingsRepository
	defaultYear string
}

func NewService(defaultYear string) *Service {
	return &Service{
		departments: data.NewDepartmentRepository(),
		settings:    data.NewSettingsRepository(),
		defaultYear: defaultYear,
	}
}

// SaveDepartment validates and upserts a department, plus its schedule
// when one is supplied. A zero-cost department is rejected at save time.
func (s *Service) SaveDepartment(dept data.Department, sched *data.DepartmentSchedule) error {
	if strings.TrimSpace(dept.Name) == "" {
		return faults.Invalid("name", "department name is required")
	}
	if dept.StartDate == "" || dept.EndDate == "" {
		return faults.Invalid("dates", "start and end dates are required")
	}

	start, err := time.Parse(dateFormat, dept.StartDate)
	if err != nil {
		return faults.Invalid("startDate", "must be a valid date (YYYY-MM-DD)")
	}
	end, err := time.Parse(dateFormat, dept.EndDate)
	if err != nil {
		return faults.Invalid("endDate", "must be a valid date (YYYY-MM-DD)")
	}
	if !start.Before(end) {
		return faults.Invalid("endDate", "end date must be after start date")
	}

	if dept.FullAmount <= 0 {
		return faults.Invalid("fullAmount", "cost must be greater than $0.00")
	}

	if err := s.departments.Upsert(dept); err != nil {
		return faults.Store("save department", err)
	}

	if sched != nil && len(sched.Days) > 0 && sched.StartTime != "" && sched.EndTime != "" {
		sched.DepartmentName = dept.Name
		if err := s.departments.UpsertSchedule(*sched); err != nil {
			return faults.Store("save schedule", err)
		}
	}

	logger.LogInfo("Department %q saved (full amount %.2f)", dept.Name, dept.FullAmount)
	return nil
}

// DeleteDepartment removes a department. Children already enrolled keep
// the department name; their cost lookups fall back to zero.
func (s *Service) DeleteDepartment(name string) error {
	deleted, err := s.departments.Delete(name)
	if err != nil {
		return faults.Store("delete department", err)
	}
	if !deleted {
		return faults.NotFound("department", name)
	}

	logger.LogInfo("Department %q deleted", name)
	return nil
}

func (s *Service) Departments() ([]data.Department, error) {
	depts, err := s.departments.List()
	if err != nil {
		return nil, faults.Store("list departments", err)
	}
	return depts, nil
}

func (s *Service) Department(name string) (*data.Department, error) {
	dept, err := s.departments.GetByName(name)
	if err != nil {
		return nil, faults.Store("get department", err)
	}
	if dept == nil {
		return nil, faults.NotFound("department", name)
	}
	return dept, nil
}

func (s *Service) Schedules() ([]data.DepartmentSchedule, error) {
	schedules, err := s.departments.ListSchedules()
	if err != nil {
		return nil, faults.Store("list schedules", err)
	}
	return schedules, nil
}

// HasDepartment reports whether the name currently resolves.
func (s *Service) HasDepartment(name string) (bool, error) {
	dept, err := s.departments.GetByName(name)
	if err != nil {
		return false, faults.Store("get department", err)
	}
	return dept != nil, nil
}

// CostLookup snapshots department costs into a tuition.CostFunc.
// Unresolved names return 0 — a deleted department quietly stops
// costing money rather than breaking every family that ever took it.
func (s *Service) CostLookup() (tuition.CostFunc, error) {
	depts, err := s.departments.List()
	if err != nil {
		return nil, faults.Store("list departments", err)
	}

	costs := make(map[string]float64, len(depts))
	for _, dept := range depts {
		costs[dept.Name] = dept.FullAmount
	}

	return func(name string) float64 {
		return costs[name]
	}, nil
}

// Discounts returns the whole-school discount percentages.
func (s *Service) Discounts() (data.DiscountSettings, error) {
	discounts, err := s.settings.GetDiscounts()
	if err != nil {
		return data.DiscountSettings{}, faults.Store("get discounts", err)
	}
	return discounts, nil
}

func (s *Service) SaveDiscounts(discounts data.DiscountSettings) error {
	if discounts.Sibling < 0 || discounts.Sibling > 100 {
		return faults.Invalid("sibling", "discount must be between 0 and 100 percent")
	}
	if discounts.MultiDept < 0 || discounts.MultiDept > 100 {
		return faults.Invalid("multiDept", "discount must be between 0 and 100 percent")
	}
	if discounts.MonthlyPremium < 0 || discounts.MonthlyPremium > 100 {
		return faults.Invalid("monthlyPremium", "premium must be between 0 and 100 percent")
	}

	if err := s.settings.SetDiscounts(discounts); err != nil {
		return faults.Store("save discounts", err)
	}

	logger.LogInfo("Discount settings saved: sibling=%.1f%%, multiDept=%.1f%%", discounts.Sibling, discounts.MultiDept)
	return nil
}

func (s *Service) AcademicYear() (string, error) {
	year, err := s.settings.GetAcademicYear(s.defaultYear)
	if err != nil {
		return "", faults.Store("get academic year", err)
	}
	return year, nil
}

func (s *Service) SetAcademicYear(year string) error {
	if strings.TrimSpace(year) == "" {
		return faults.Invalid("academicYear", "academic year is required")
	}
	if err := s.settings.SetAcademicYear(year); err != nil {
		return faults.Store("save academic year", err)
	}
	return nil
}
