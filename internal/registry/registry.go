// internal/registry/registry.go
//
// Family registration. Each family is identified by an RG number drawn
// from a persistent sequence; registration allocates, update and delete
// address an existing number.
package registry

import (
	"strconv"
	"strings"
	"time"
	"unicode"

	"iqrabackend/internal/data"
	"iqrabackend/internal/faults"
)

type Service struct {
	families  *data.FamilyRepository
	sequences *data.SequenceRepository
}

func NewService() *Service {
	return &Service{
		families:  data.NewFamilyRepository(),
		sequences: data.NewSequenceRepository(),
	}
}

// Register validates the family, allocates a fresh RG number and stores
// the record. The caller's RGNumber field is ignored.
func (s *Service) Register(fam data.Family) (data.Family, error) {
	if err := validateFamily(fam); err != nil {
		return data.Family{}, err
	}

	rg, err := s.sequences.AllocateRGNumber()
	if err != nil {
		return data.Family{}, err
	}

	fam.RGNumber = rg
	if fam.RegisteredDate.IsZero() {
		fam.RegisteredDate = time.Now()
	}
	if fam.Status == "" {
		fam.Status = data.FamilyActive
	}

	if err := s.families.Upsert(fam); err != nil {
		return data.Family{}, err
	}
	return fam, nil
}

// Update replaces an existing family record wholesale. The RG number
// must already exist; registration date and status are preserved when
// the caller leaves them empty.
func (s *Service) Update(fam data.Family) (data.Family, error) {
	if fam.RGNumber <= 0 {
		return data.Family{}, faults.Invalid("rgNumber", "must be a positive RG number")
	}
	if err := validateFamily(fam); err != nil {
		return data.Family{}, err
	}

	existing, err := s.families.GetByRG(fam.RGNumber)
	if err != nil {
		return data.Family{}, err
	}
	if existing == nil {
		return data.Family{}, faults.NotFound("family", formatRG(fam.RGNumber))
	}

	if fam.RegisteredDate.IsZero() {
		fam.RegisteredDate = existing.RegisteredDate
	}
	if fam.Status == "" {
		fam.Status = existing.Status
	}

	if err := s.families.Upsert(fam); err != nil {
		return data.Family{}, err
	}
	return fam, nil
}

// Delete removes a family. Payments referencing the RG number are left
// in the ledger untouched.
func (s *Service) Delete(rgNumber int64) error {
	found, err := s.families.Delete(rgNumber)
	if err != nil {
		return err
	}
	if !found {
		return faults.NotFound("family", formatRG(rgNumber))
	}
	return nil
}

func (s *Service) Family(rgNumber int64) (*data.Family, error) {
	fam, err := s.families.GetByRG(rgNumber)
	if err != nil {
		return nil, err
	}
	if fam == nil {
		return nil, faults.NotFound("family", formatRG(rgNumber))
	}
	return fam, nil
}

func (s *Service) Families() ([]data.Family, error) {
	return s.families.List()
}

// Import stores families that already carry RG numbers, as produced by
// a roster import. The sequence floor is raised past the highest number
// seen so future registrations never collide.
func (s *Service) Import(fams []data.Family) (int, error) {
	var highest int64
	for _, fam := range fams {
		if fam.RGNumber <= 0 {
			return 0, faults.Invalid("rgNumber", "import rows must carry an RG number")
		}
		if err := validateFamily(fam); err != nil {
			return 0, err
		}
		if fam.RGNumber > highest {
			highest = fam.RGNumber
		}
	}

	imported := 0
	for _, fam := range fams {
		if fam.RegisteredDate.IsZero() {
			fam.RegisteredDate = time.Now()
		}
		if fam.Status == "" {
			fam.Status = data.FamilyActive
		}
		if err := s.families.Upsert(fam); err != nil {
			return imported, err
		}
		imported++
	}

	if highest > 0 {
		if err := s.sequences.RaiseRGFloor(highest + 1); err != nil {
			return imported, err
		}
	}
	return imported, nil
}

func validateFamily(fam data.Family) error {
	if strings.TrimSpace(fam.ParentName1) == "" {
		return faults.Invalid("parentName1", "first contact name is required")
	}
	if !validPhone(fam.ParentPhone1) {
		return faults.Invalid("parentPhone1", "phone must contain at least 10 digits")
	}
	if fam.ParentPhone2 != "" && !validPhone(fam.ParentPhone2) {
		return faults.Invalid("parentPhone2", "phone must contain at least 10 digits")
	}
	if fam.AdditionalPhone != "" && !validPhone(fam.AdditionalPhone) {
		return faults.Invalid("additionalPhone", "phone must contain at least 10 digits")
	}
	if len(fam.Children) == 0 {
		return faults.Invalid("children", "a family needs at least one child")
	}
	for _, child := range fam.Children {
		if strings.TrimSpace(child.Name) == "" {
			return faults.Invalid("children", "child name is required")
		}
		if len(child.Departments) == 0 {
			return faults.Invalid("children", "each child must be enrolled in at least one department")
		}
	}
	return nil
}

func formatRG(rg int64) string {
	return strconv.FormatInt(rg, 10)
}

// validPhone counts digits only so formatted numbers like
// (555) 123-4567 pass.
func validPhone(phone string) bool {
	digits := 0
	for _, r := range phone {
		if unicode.IsDigit(r) {
			digits++
		}
	}
	return digits >= 10
}
