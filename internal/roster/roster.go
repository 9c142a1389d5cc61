// internal/roster/roster.go
//
// Flat row exchange for bulk family import and export. A roster row is
// one child; a family spans consecutive rows sharing an RG number.
// Parsing and writing of spreadsheet files happens outside this
// service; it deals in rows only.
package roster

import (
	"strconv"
	"strings"

	"iqrabackend/internal/data"
	"iqrabackend/internal/faults"
	"iqrabackend/internal/registry"
)

// Row is one child of one family in the flat interchange shape.
// Departments is a comma-separated list. RGNumber 0 marks a family
// that needs a fresh number on import.
type Row struct {
	RGNumber        int64  `json:"rgNumber"`
	ParentName1     string `json:"parentName1"`
	ParentPhone1    string `json:"parentPhone1"`
	ParentName2     string `json:"parentName2,omitempty"`
	ParentPhone2    string `json:"parentPhone2,omitempty"`
	AdditionalName  string `json:"additionalName,omitempty"`
	AdditionalPhone string `json:"additionalPhone,omitempty"`
	ChildName       string `json:"childName"`
	Gender          string `json:"gender,omitempty"`
	DOB             string `json:"dob,omitempty"`
	Departments     string `json:"departments"`
}

type ImportSummary struct {
	Imported   int `json:"imported"`
	Registered int `json:"registered"`
}

type Service struct {
	families *data.FamilyRepository
	registry *registry.Service
}

func NewService(reg *registry.Service) *Service {
	return &Service{
		families: data.NewFamilyRepository(),
		registry: reg,
	}
}

// Export flattens every family into rows, one per child, ordered by
// the repository's RG ordering.
func (s *Service) Export() ([]Row, error) {
	fams, err := s.families.List()
	if err != nil {
		return nil, err
	}

	rows := []Row{}
	for _, fam := range fams {
		for _, child := range fam.Children {
			rows = append(rows, Row{
				RGNumber:        fam.RGNumber,
				ParentName1:     fam.ParentName1,
				ParentPhone1:    fam.ParentPhone1,
				ParentName2:     fam.ParentName2,
				ParentPhone2:    fam.ParentPhone2,
				AdditionalName:  fam.AdditionalName,
				AdditionalPhone: fam.AdditionalPhone,
				ChildName:       child.Name,
				Gender:          child.Gender,
				DOB:             child.DOB,
				Departments:     strings.Join(child.Departments, ", "),
			})
		}
	}
	return rows, nil
}

// Import groups rows into families and stores them. Rows carrying an
// RG number keep it and the registration sequence floor is raised past
// the highest number seen; rows without one get a family registered
// under a fresh number. Grouping is by RG number, falling back to the
// first parent's phone for numberless rows.
func (s *Service) Import(rows []Row) (ImportSummary, error) {
	if len(rows) == 0 {
		return ImportSummary{}, faults.Invalid("rows", "import needs at least one row")
	}

	type group struct {
		family data.Family
	}
	order := []string{}
	groups := map[string]*group{}

	for _, row := range rows {
		if strings.TrimSpace(row.ChildName) == "" {
			return ImportSummary{}, faults.Invalid("childName", "every row needs a child name")
		}

		key := groupKey(row)
		g, seen := groups[key]
		if !seen {
			g = &group{family: data.Family{
				RGNumber:        row.RGNumber,
				ParentName1:     row.ParentName1,
				ParentPhone1:    row.ParentPhone1,
				ParentName2:     row.ParentName2,
				ParentPhone2:    row.ParentPhone2,
				AdditionalName:  row.AdditionalName,
				AdditionalPhone: row.AdditionalPhone,
			}}
			groups[key] = g
			order = append(order, key)
		}

		g.family.Children = append(g.family.Children, data.Child{
			Name:        row.ChildName,
			Gender:      row.Gender,
			DOB:         row.DOB,
			Departments: splitDepartments(row.Departments),
		})
	}

	numbered := []data.Family{}
	fresh := []data.Family{}
	for _, key := range order {
		fam := groups[key].family
		if fam.RGNumber > 0 {
			numbered = append(numbered, fam)
		} else {
			fresh = append(fresh, fam)
		}
	}

	summary := ImportSummary{}
	if len(numbered) > 0 {
		n, err := s.registry.Import(numbered)
		summary.Imported = n
		if err != nil {
			return summary, err
		}
	}
	for _, fam := range fresh {
		if _, err := s.registry.Register(fam); err != nil {
			return summary, err
		}
		summary.Registered++
	}
	return summary, nil
}

func groupKey(row Row) string {
	if row.RGNumber > 0 {
		return "rg:" + strconv.FormatInt(row.RGNumber, 10)
	}
	return "phone:" + strings.TrimSpace(row.ParentPhone1)
}

func splitDepartments(raw string) []string {
	parts := strings.Split(raw, ",")
	depts := []string{}
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			depts = append(depts, trimmed)
		}
	}
	return depts
}
