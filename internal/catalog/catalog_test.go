// internal/catalog/catalog_test.go
package catalog

import (
	"path/filepath"
	"testing"

	"iqrabackend/internal/data"
	"iqrabackend/internal/faults"
)

func setupCatalog(t *testing.T) *Service {
	t.Helper()

	if err := data.InitDB(filepath.Join(t.TempDir(), "test.db")); err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	t.Cleanup(func() { data.CloseDB() })

	if err := data.CreateTables(); err != nil {
		t.Fatalf("CreateTables: %v", err)
	}

	return NewService("2024-2025")
}

func validDepartment() data.Department {
	return data.Department{
		Name:       "Quran",
		StartDate:  "2025-01-01",
		EndDate:    "2025-06-30",
		FullAmount: 500,
	}
}

func TestSaveDepartmentValidation(t *testing.T) {
	svc := setupCatalog(t)

	cases := []struct {
		name   string
		mutate func(*data.Department)
	}{
		{"missing name", func(d *data.Department) { d.Name = "  " }},
		{"missing start date", func(d *data.Department) { d.StartDate = "" }},
		{"unparseable date", func(d *data.Department) { d.StartDate = "01/15/2025" }},
		{"end before start", func(d *data.Department) { d.EndDate = "2024-06-30" }},
		{"end equals start", func(d *data.Department) { d.EndDate = d.StartDate }},
		{"zero amount", func(d *data.Department) { d.FullAmount = 0 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dept := validDepartment()
			tc.mutate(&dept)
			if err := svc.SaveDepartment(dept, nil); !faults.IsValidation(err) {
				t.Errorf("SaveDepartment = %v, want validation error", err)
			}
		})
	}
}

func TestSaveDepartmentWithSchedule(t *testing.T) {
	svc := setupCatalog(t)

	sched := &data.DepartmentSchedule{
		Days:      []string{"Saturday", "Sunday"},
		StartTime: "09:00",
		EndTime:   "13:00",
	}
	if err := svc.SaveDepartment(validDepartment(), sched); err != nil {
		t.Fatalf("SaveDepartment: %v", err)
	}

	schedules, err := svc.Schedules()
	if err != nil {
		t.Fatalf("Schedules: %v", err)
	}
	if len(schedules) != 1 || schedules[0].DepartmentName != "Quran" {
		t.Errorf("schedules = %+v, want one for Quran", schedules)
	}
}

func TestCostLookupUnresolvedIsZero(t *testing.T) {
	svc := setupCatalog(t)
	if err := svc.SaveDepartment(validDepartment(), nil); err != nil {
		t.Fatalf("SaveDepartment: %v", err)
	}

	costOf, err := svc.CostLookup()
	if err != nil {
		t.Fatalf("CostLookup: %v", err)
	}

	if got := costOf("Quran"); got != 500 {
		t.Errorf("cost of Quran = %v, want 500", got)
	}
	if got := costOf("Ghost"); got != 0 {
		t.Errorf("cost of unknown department = %v, want 0", got)
	}
}

func TestDeleteDepartmentDropsCost(t *testing.T) {
	svc := setupCatalog(t)
	if err := svc.SaveDepartment(validDepartment(), nil); err != nil {
		t.Fatalf("SaveDepartment: %v", err)
	}

	if err := svc.DeleteDepartment("Quran"); err != nil {
		t.Fatalf("DeleteDepartment: %v", err)
	}
	if err := svc.DeleteDepartment("Quran"); !faults.IsNotFound(err) {
		t.Errorf("second DeleteDepartment = %v, want not found", err)
	}

	costOf, err := svc.CostLookup()
	if err != nil {
		t.Fatalf("CostLookup: %v", err)
	}
	if got := costOf("Quran"); got != 0 {
		t.Errorf("cost after delete = %v, want 0", got)
	}
}

func TestDiscountsValidation(t *testing.T) {
	svc := setupCatalog(t)

	if err := svc.SaveDiscounts(data.DiscountSettings{Sibling: 120}); !faults.IsValidation(err) {
		t.Errorf("SaveDiscounts = %v, want validation error for >100", err)
	}
	if err := svc.SaveDiscounts(data.DiscountSettings{MultiDept: -5}); !faults.IsValidation(err) {
		t.Errorf("SaveDiscounts = %v, want validation error for negative", err)
	}

	want := data.DiscountSettings{Sibling: 10, MultiDept: 5, MonthlyPremium: 2}
	if err := svc.SaveDiscounts(want); err != nil {
		t.Fatalf("SaveDiscounts: %v", err)
	}
	got, err := svc.Discounts()
	if err != nil {
		t.Fatalf("Discounts: %v", err)
	}
	if got != want {
		t.Errorf("Discounts = %+v, want %+v", got, want)
	}
}

func TestAcademicYearFallsBackToDefault(t *testing.T) {
	svc := setupCatalog(t)

	year, err := svc.AcademicYear()
	if err != nil {
		t.Fatalf("AcademicYear: %v", err)
	}
	if year != "2024-2025" {
		t.Errorf("year = %q, want the configured default", year)
	}

	if err := svc.SetAcademicYear("2025-2026"); err != nil {
		t.Fatalf("SetAcademicYear: %v", err)
	}
	year, err = svc.AcademicYear()
	if err != nil {
		t.Fatalf("AcademicYear: %v", err)
	}
	if year != "2025-2026" {
		t.Errorf("year = %q, want the saved value", year)
	}
}
