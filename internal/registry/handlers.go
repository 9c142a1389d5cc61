// internal/registry/handlers.go
package registry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"iqrabackend/internal/data"
	"iqrabackend/internal/faults"
	"iqrabackend/internal/middleware"
)

var validate = validator.New()

type childRequest struct {
	Name        string   `json:"name" validate:"required"`
	Gender      string   `json:"gender,omitempty"`
	DOB         string   `json:"dob,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Departments []string `json:"departments" validate:"required,min=1,dive,required"`
}

type familyRequest struct {
	RGNumber        int64          `json:"rgNumber,omitempty"`
	ParentName1     string         `json:"parentName1" validate:"required"`
	ParentPhone1    string         `json:"parentPhone1" validate:"required"`
	ParentName2     string         `json:"parentName2,omitempty"`
	ParentPhone2    string         `json:"parentPhone2,omitempty"`
	AdditionalName  string         `json:"additionalName,omitempty"`
	AdditionalPhone string         `json:"additionalPhone,omitempty"`
	Children        []childRequest `json:"children" validate:"required,min=1,dive"`
	RegisteredDate  string         `json:"registeredDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Status          string         `json:"status,omitempty"`
}

func (req familyRequest) toFamily() data.Family {
	fam := data.Family{
		RGNumber:        req.RGNumber,
		ParentName1:     req.ParentName1,
		ParentPhone1:    req.ParentPhone1,
		ParentName2:     req.ParentName2,
		ParentPhone2:    req.ParentPhone2,
		AdditionalName:  req.AdditionalName,
		AdditionalPhone: req.AdditionalPhone,
		Status:          req.Status,
	}
	for _, c := range req.Children {
		fam.Children = append(fam.Children, data.Child{
			Name:        c.Name,
			Gender:      c.Gender,
			DOB:         c.DOB,
			Departments: c.Departments,
		})
	}
	if req.RegisteredDate != "" {
		if t, err := time.Parse("2006-01-02", req.RegisteredDate); err == nil {
			fam.RegisteredDate = t
		}
	}
	return fam
}

// ListFamiliesHandler returns every family record.
func (s *Service) ListFamiliesHandler(w http.ResponseWriter, r *http.Request) {
	fams, err := s.Families()
	if err != nil {
		middleware.WriteFaultError(w, r, err)
		return
	}
	middleware.WriteAPISuccess(w, r, fams)
}

// GetFamilyHandler returns one family by RG number (?rg=NNNN).
func (s *Service) GetFamilyHandler(w http.ResponseWriter, r *http.Request) {
	rg, ok := rgFromQuery(w, r)
	if !ok {
		return
	}

	fam, err := s.Family(rg)
	if err != nil {
		middleware.WriteFaultError(w, r, err)
		return
	}
	middleware.WriteAPISuccess(w, r, fam)
}

// RegisterFamilyHandler creates a family and assigns an RG number.
func (s *Service) RegisterFamilyHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		middleware.WriteAPIError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "POST required", "")
		return
	}

	req, ok := parseFamilyRequest(w, r)
	if !ok {
		return
	}

	fam, err := s.Register(req.toFamily())
	if err != nil {
		middleware.WriteFaultError(w, r, err)
		return
	}
	middleware.WriteAPISuccess(w, r, fam)
}

// UpdateFamilyHandler replaces an existing family record.
func (s *Service) UpdateFamilyHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost && r.Method != http.MethodPut {
		middleware.WriteAPIError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "POST or PUT required", "")
		return
	}

	req, ok := parseFamilyRequest(w, r)
	if !ok {
		return
	}

	fam, err := s.Update(req.toFamily())
	if err != nil {
		middleware.WriteFaultError(w, r, err)
		return
	}
	middleware.WriteAPISuccess(w, r, fam)
}

// DeleteFamilyHandler removes a family by RG number (?rg=NNNN).
func (s *Service) DeleteFamilyHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost && r.Method != http.MethodDelete {
		middleware.WriteAPIError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "POST or DELETE required", "")
		return
	}

	rg, ok := rgFromQuery(w, r)
	if !ok {
		return
	}

	if err := s.Delete(rg); err != nil {
		middleware.WriteFaultError(w, r, err)
		return
	}
	middleware.WriteAPISuccess(w, r, map[string]int64{"deleted": rg})
}

func parseFamilyRequest(w http.ResponseWriter, r *http.Request) (familyRequest, bool) {
	var req familyRequest
	if err := middleware.ParseJSONRequest(r, &req); err != nil {
		middleware.WriteAPIError(w, r, http.StatusBadRequest, "invalid_json", err.Error(), "")
		return req, false
	}
	if err := validate.Struct(req); err != nil {
		middleware.WriteAPIError(w, r, http.StatusBadRequest, "validation_error", err.Error(), "")
		return req, false
	}
	return req, true
}

func rgFromQuery(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.URL.Query().Get("rg")
	if raw == "" {
		middleware.WriteFaultError(w, r, faults.Invalid("rg", "rg query parameter is required"))
		return 0, false
	}
	rg, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || rg <= 0 {
		middleware.WriteFaultError(w, r, faults.Invalid("rg", "rg must be a positive number"))
		return 0, false
	}
	return rg, true
}
