// internal/registry/registry_test.go
package registry

import (
	"path/filepath"
	"testing"

	"iqrabackend/internal/data"
	"iqrabackend/internal/faults"
)

func setupRegistry(t *testing.T) *Service {
	t.Helper()

	if err := data.InitDB(filepath.Join(t.TempDir(), "test.db")); err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	t.Cleanup(func() { data.CloseDB() })

	if err := data.CreateTables(); err != nil {
		t.Fatalf("CreateTables: %v", err)
	}
	if err := data.NewSequenceRepository().Ensure(data.SequenceRGNumber, 1001); err != nil {
		t.Fatalf("Ensure: %v", err)
	}

	return NewService()
}

func validFamily() data.Family {
	return data.Family{
		ParentName1:  "Parent One",
		ParentPhone1: "(555) 123-4567",
		Children: []data.Child{
			{Name: "A", Departments: []string{"Quran"}},
		},
	}
}

func TestRegisterAssignsSequentialRGNumbers(t *testing.T) {
	svc := setupRegistry(t)

	first, err := svc.Register(validFamily())
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	second, err := svc.Register(validFamily())
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if first.RGNumber != 1001 || second.RGNumber != 1002 {
		t.Errorf("RG numbers = %d, %d, want 1001, 1002", first.RGNumber, second.RGNumber)
	}
	if first.Status != data.FamilyActive {
		t.Errorf("status = %q, want %q by default", first.Status, data.FamilyActive)
	}
	if first.RegisteredDate.IsZero() {
		t.Error("registered date must be stamped")
	}
}

func TestRegisterIgnoresCallerRGNumber(t *testing.T) {
	svc := setupRegistry(t)

	fam := validFamily()
	fam.RGNumber = 7777
	got, err := svc.Register(fam)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if got.RGNumber != 1001 {
		t.Errorf("RG number = %d, want allocated 1001, never the caller's", got.RGNumber)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := setupRegistry(t)

	cases := []struct {
		name   string
		mutate func(*data.Family)
	}{
		{"missing first contact", func(f *data.Family) { f.ParentName1 = " " }},
		{"short phone", func(f *data.Family) { f.ParentPhone1 = "555-1234" }},
		{"no children", func(f *data.Family) { f.Children = nil }},
		{"child without name", func(f *data.Family) { f.Children[0].Name = "" }},
		{"child without departments", func(f *data.Family) { f.Children[0].Departments = nil }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fam := validFamily()
			tc.mutate(&fam)
			if _, err := svc.Register(fam); !faults.IsValidation(err) {
				t.Errorf("Register = %v, want validation error", err)
			}
		})
	}
}

func TestUpdatePreservesRegistrationMetadata(t *testing.T) {
	svc := setupRegistry(t)

	registered, err := svc.Register(validFamily())
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	update := validFamily()
	update.RGNumber = registered.RGNumber
	update.ParentName1 = "Renamed Parent"
	updated, err := svc.Update(update)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	if updated.ParentName1 != "Renamed Parent" {
		t.Errorf("parent name = %q, want the updated value", updated.ParentName1)
	}
	// Stored timestamps carry second precision.
	if updated.RegisteredDate.Unix() != registered.RegisteredDate.Unix() {
		t.Errorf("registered date changed on update: %v vs %v", updated.RegisteredDate, registered.RegisteredDate)
	}
}

func TestUpdateUnknownFamily(t *testing.T) {
	svc := setupRegistry(t)

	fam := validFamily()
	fam.RGNumber = 4242
	if _, err := svc.Update(fam); !faults.IsNotFound(err) {
		t.Errorf("Update = %v, want not found", err)
	}
}

func TestDeleteFamily(t *testing.T) {
	svc := setupRegistry(t)

	registered, err := svc.Register(validFamily())
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if err := svc.Delete(registered.RGNumber); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.Family(registered.RGNumber); !faults.IsNotFound(err) {
		t.Errorf("Family after delete = %v, want not found", err)
	}
	if err := svc.Delete(registered.RGNumber); !faults.IsNotFound(err) {
		t.Errorf("second Delete = %v, want not found", err)
	}
}

func TestImportRaisesRGFloor(t *testing.T) {
	svc := setupRegistry(t)

	imported := validFamily()
	imported.RGNumber = 1500
	n, err := svc.Import([]data.Family{imported})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if n != 1 {
		t.Fatalf("imported %d families, want 1", n)
	}

	// The next registration must clear the imported number.
	next, err := svc.Register(validFamily())
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if next.RGNumber != 1501 {
		t.Errorf("RG number after import = %d, want 1501", next.RGNumber)
	}
}

func TestImportRejectsNumberlessFamilies(t *testing.T) {
	svc := setupRegistry(t)

	if _, err := svc.Import([]data.Family{validFamily()}); !faults.IsValidation(err) {
		t.Errorf("Import = %v, want validation error for missing RG number", err)
	}
}
