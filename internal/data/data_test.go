// internal/data/data_test.go
package data

import (
	"path/filepath"
	"testing"
	"time"
)

func setupTestDB(t *testing.T) {
	t.Helper()

	if err := InitDB(filepath.Join(t.TempDir(), "test.db")); err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	t.Cleanup(func() { CloseDB() })

	if err := CreateTables(); err != nil {
		t.Fatalf("CreateTables: %v", err)
	}
}

func TestFamilyRoundTrip(t *testing.T) {
	setupTestDB(t)
	repo := NewFamilyRepository()

	fam := Family{
		RGNumber:     1001,
		ParentName1:  "Parent One",
		ParentPhone1: "5551234567",
		ParentName2:  "Parent Two",
		ParentPhone2: "5559876543",
		Children: []Child{
			{Name: "A", Gender: "F", DOB: "2015-03-01", Departments: []string{"Quran", "Arabic"}},
			{Name: "B", Departments: []string{"Weekend"}},
		},
		RegisteredDate: time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
		Status:         FamilyActive,
	}
	if err := repo.Upsert(fam); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	got, err := repo.GetByRG(1001)
	if err != nil {
		t.Fatalf("GetByRG: %v", err)
	}
	if got == nil {
		t.Fatal("GetByRG returned nil for stored family")
	}
	if len(got.Children) != 2 {
		t.Fatalf("children = %d, want 2", len(got.Children))
	}
	if got.Children[0].Name != "A" || got.Children[1].Name != "B" {
		t.Errorf("child order changed: %q, %q", got.Children[0].Name, got.Children[1].Name)
	}
	if len(got.Children[0].Departments) != 2 {
		t.Errorf("first child departments = %v, want two", got.Children[0].Departments)
	}
}

func TestFamilyGetMissingReturnsNil(t *testing.T) {
	setupTestDB(t)
	repo := NewFamilyRepository()

	got, err := repo.GetByRG(4242)
	if err != nil {
		t.Fatalf("GetByRG: %v", err)
	}
	if got != nil {
		t.Errorf("GetByRG = %+v, want nil for missing family", got)
	}
}

func TestDepartmentUpsertReplaces(t *testing.T) {
	setupTestDB(t)
	repo := NewDepartmentRepository()

	dept := Department{Name: "Quran", StartDate: "2025-01-01", EndDate: "2025-06-30", FullAmount: 500}
	if err := repo.Upsert(dept); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	dept.FullAmount = 600
	if err := repo.Upsert(dept); err != nil {
		t.Fatalf("second Upsert: %v", err)
	}

	got, err := repo.GetByName("Quran")
	if err != nil {
		t.Fatalf("GetByName: %v", err)
	}
	if got == nil || got.FullAmount != 600 {
		t.Errorf("GetByName = %+v, want fullAmount 600", got)
	}

	all, err := repo.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("List = %d departments, want 1 after upsert on same name", len(all))
	}
}

func TestRGSequenceHandsOutSeedFirst(t *testing.T) {
	setupTestDB(t)
	sequences := NewSequenceRepository()
	if err := sequences.Ensure(SequenceRGNumber, 1001); err != nil {
		t.Fatalf("Ensure: %v", err)
	}

	first, err := sequences.AllocateRGNumber()
	if err != nil {
		t.Fatalf("AllocateRGNumber: %v", err)
	}
	second, err := sequences.AllocateRGNumber()
	if err != nil {
		t.Fatalf("AllocateRGNumber: %v", err)
	}

	if first != 1001 || second != 1002 {
		t.Errorf("allocated %d then %d, want 1001 then 1002", first, second)
	}
}

func TestTransactionCounterIncrementsBeforeUse(t *testing.T) {
	setupTestDB(t)
	sequences := NewSequenceRepository()
	if err := sequences.Ensure(SequenceTransactionCounter, 1000); err != nil {
		t.Fatalf("Ensure: %v", err)
	}

	first, err := sequences.NextTransactionCounter()
	if err != nil {
		t.Fatalf("NextTransactionCounter: %v", err)
	}
	if first != 1001 {
		t.Errorf("first counter = %d, want 1001: the seed itself is never used", first)
	}
}

func TestEnsureDoesNotResetExistingSequence(t *testing.T) {
	setupTestDB(t)
	sequences := NewSequenceRepository()
	if err := sequences.Ensure(SequenceRGNumber, 1001); err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if _, err := sequences.AllocateRGNumber(); err != nil {
		t.Fatalf("AllocateRGNumber: %v", err)
	}

	// A second Ensure, as happens on every startup, must not rewind.
	if err := sequences.Ensure(SequenceRGNumber, 1001); err != nil {
		t.Fatalf("second Ensure: %v", err)
	}
	next, err := sequences.AllocateRGNumber()
	if err != nil {
		t.Fatalf("AllocateRGNumber: %v", err)
	}
	if next != 1002 {
		t.Errorf("allocated %d after re-Ensure, want 1002", next)
	}
}

func TestRaiseRGFloorOnlyRaises(t *testing.T) {
	setupTestDB(t)
	sequences := NewSequenceRepository()
	if err := sequences.Ensure(SequenceRGNumber, 1001); err != nil {
		t.Fatalf("Ensure: %v", err)
	}

	if err := sequences.RaiseRGFloor(1500); err != nil {
		t.Fatalf("RaiseRGFloor: %v", err)
	}
	got, err := sequences.AllocateRGNumber()
	if err != nil {
		t.Fatalf("AllocateRGNumber: %v", err)
	}
	if got != 1500 {
		t.Errorf("allocated %d, want raised floor 1500", got)
	}

	// Raising below the current value is a no-op.
	if err := sequences.RaiseRGFloor(1200); err != nil {
		t.Fatalf("RaiseRGFloor: %v", err)
	}
	got, err = sequences.AllocateRGNumber()
	if err != nil {
		t.Fatalf("AllocateRGNumber: %v", err)
	}
	if got != 1501 {
		t.Errorf("allocated %d, want 1501: a lower floor must not rewind", got)
	}
}

func TestSupersedeAndReplaceIsConditional(t *testing.T) {
	setupTestDB(t)
	repo := NewPaymentRepository()

	original := Payment{
		TransactionID:  "TXN-TEST-1",
		Version:        "v1",
		RGNumber:       1001,
		StudentName:    "A",
		DepartmentName: "Quran",
		Amount:         100,
		Method:         "cash",
		Date:           "2025-01-15",
		Status:         PaymentActive,
		RecordedAt:     time.Now(),
	}
	if err := repo.Append(original); err != nil {
		t.Fatalf("Append: %v", err)
	}

	replacement := original
	replacement.Version = "v2"
	replacement.Amount = 150

	found, err := repo.SupersedeAndReplace("TXN-TEST-1", "v2", replacement)
	if err != nil {
		t.Fatalf("SupersedeAndReplace: %v", err)
	}
	if !found {
		t.Fatal("first supersede should find the current row")
	}

	// The conditional UPDATE targets whatever row is current at commit
	// time, so a second supersede lands on v2 and the chain still ends
	// up with a single current row.
	stale := original
	stale.Version = "v3"
	found, err = repo.SupersedeAndReplace("TXN-TEST-1", "v3", stale)
	if err != nil {
		t.Fatalf("second SupersedeAndReplace: %v", err)
	}
	if !found {
		t.Fatal("supersede of v2 should succeed, v2 is current")
	}

	history, err := repo.History("TXN-TEST-1")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	current := 0
	for _, row := range history {
		if !row.IsSuperseded {
			current++
		}
	}
	if current != 1 {
		t.Errorf("chain has %d current rows, want exactly 1", current)
	}
}

func TestSupersedeFullyConsumedChain(t *testing.T) {
	setupTestDB(t)
	repo := NewPaymentRepository()

	p := Payment{
		TransactionID: "TXN-TEST-2", Version: "v1", RGNumber: 1001,
		StudentName: "A", DepartmentName: "Quran", Amount: 100,
		Method: "cash", Date: "2025-01-15", Status: PaymentActive,
		IsSuperseded: true, SupersededBy: "gone", RecordedAt: time.Now(),
	}
	if err := repo.Append(p); err != nil {
		t.Fatalf("Append: %v", err)
	}

	replacement := p
	replacement.Version = "v2"
	found, err := repo.SupersedeAndReplace("TXN-TEST-2", "v2", replacement)
	if err != nil {
		t.Fatalf("SupersedeAndReplace: %v", err)
	}
	if found {
		t.Error("supersede on a chain with no current row must report not found")
	}

	history, err := repo.History("TXN-TEST-2")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 1 {
		t.Errorf("history has %d rows, want 1: failed supersede must not insert", len(history))
	}
}
