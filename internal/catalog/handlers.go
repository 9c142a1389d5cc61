// internal/catalog/handlers.go
package catalog

import (
	"net/http"

	"github.com/go-playground/validator/v10"

	"iqrabackend/internal/data"
	"iqrabackend/internal/middleware"
)

var validate = validator.New()

// SaveDepartmentRequest accepts either a full-period cost or a monthly
// cost; when only monthly is given, the full amount is twelve months.
type SaveDepartmentRequest struct {
	Name                    string   `json:"name" validate:"required"`
	StartDate               string   `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate                 string   `json:"endDate" validate:"required,datetime=2006-01-02"`
	AnnualAmount            float64  `json:"annualAmount" validate:"gte=0"`
	MonthlyAmount           float64  `json:"monthlyAmount" validate:"gte=0"`
	FullPaymentDiscount     *float64 `json:"fullPaymentDiscount,omitempty"`
	FullPaymentDiscountType string   `json:"fullPaymentDiscountType,omitempty" validate:"omitempty,oneof=percent flat"`
	SiblingDiscount         *float64 `json:"siblingDiscount,omitempty"`
	SiblingDiscountType     string   `json:"siblingDiscountType,omitempty" validate:"omitempty,oneof=percent flat"`
	Notes                   string   `json:"notes,omitempty"`
	Days                    []string `json:"days,omitempty"`
	StartTime               string   `json:"startTime,omitempty"`
	EndTime                 string   `json:"endTime,omitempty"`
}

type discountsRequest struct {
	Sibling        float64 `json:"sibling" validate:"gte=0,lte=100"`
	MultiDept      float64 `json:"multiDept" validate:"gte=0,lte=100"`
	MonthlyPremium float64 `json:"monthlyPremium" validate:"gte=0,lte=100"`
}

type academicYearRequest struct {
	AcademicYear string `json:"academicYear" validate:"required"`
}

// ListDepartmentsHandler returns all departments with their schedules.
func (s *Service) ListDepartmentsHandler(w http.ResponseWriter, r *http.Request) {
	depts, err := s.Departments()
	if err != nil {
		middleware.WriteFaultError(w, r, err)
		return
	}

	schedules, err := s.Schedules()
	if err != nil {
		middleware.WriteFaultError(w, r, err)
		return
	}

	middleware.WriteAPISuccess(w, r, map[string]interface{}{
		"departments": depts,
		"schedules":   schedules,
	})
}

// SaveDepartmentHandler creates or updates a department (admin only).
func (s *Service) SaveDepartmentHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		middleware.WriteAPIError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "POST required", "")
		return
	}

	var req SaveDepartmentRequest
	if err := middleware.ParseJSONRequest(r, &req); err != nil {
		middleware.WriteAPIError(w, r, http.StatusBadRequest, "invalid_json", err.Error(), "")
		return
	}
	if err := validate.Struct(req); err != nil {
		middleware.WriteAPIError(w, r, http.StatusBadRequest, "validation_error", err.Error(), "")
		return
	}

	fullAmount := req.AnnualAmount
	if fullAmount <= 0 {
		fullAmount = req.MonthlyAmount * 12
	}

	dept := data.Department{
		Name:                    req.Name,
		StartDate:               req.StartDate,
		EndDate:                 req.EndDate,
		FullAmount:              fullAmount,
		FullPaymentDiscount:     req.FullPaymentDiscount,
		FullPaymentDiscountType: req.FullPaymentDiscountType,
		SiblingDiscount:         req.SiblingDiscount,
		SiblingDiscountType:     req.SiblingDiscountType,
		Notes:                   req.Notes,
	}

	var sched *data.DepartmentSchedule
	if len(req.Days) > 0 {
		sched = &data.DepartmentSchedule{
			DepartmentName: req.Name,
			Days:           req.Days,
			StartTime:      req.StartTime,
			EndTime:        req.EndTime,
		}
	}

	if err := s.SaveDepartment(dept, sched); err != nil {
		middleware.WriteFaultError(w, r, err)
		return
	}

	middleware.WriteAPISuccess(w, r, dept)
}

// DeleteDepartmentHandler removes a department by name (admin only).
func (s *Service) DeleteDepartmentHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost && r.Method != http.MethodDelete {
		middleware.WriteAPIError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "POST or DELETE required", "")
		return
	}

	name := r.URL.Query().Get("name")
	if name == "" {
		middleware.WriteAPIError(w, r, http.StatusBadRequest, "validation_error", "name query parameter is required", "")
		return
	}

	if err := s.DeleteDepartment(name); err != nil {
		middleware.WriteFaultError(w, r, err)
		return
	}

	middleware.WriteAPISuccess(w, r, map[string]string{"deleted": name})
}

// GetSettingsHandler returns discounts and the academic year.
func (s *Service) GetSettingsHandler(w http.ResponseWriter, r *http.Request) {
	discounts, err := s.Discounts()
	if err != nil {
		middleware.WriteFaultError(w, r, err)
		return
	}

	year, err := s.AcademicYear()
	if err != nil {
		middleware.WriteFaultError(w, r, err)
		return
	}

	middleware.WriteAPISuccess(w, r, map[string]interface{}{
		"discounts":    discounts,
		"academicYear": year,
	})
}

// SaveDiscountsHandler stores the whole-school discounts (admin only).
func (s *Service) SaveDiscountsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		middleware.WriteAPIError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "POST required", "")
		return
	}

	var req discountsRequest
	if err := middleware.ParseJSONRequest(r, &req); err != nil {
		middleware.WriteAPIError(w, r, http.StatusBadRequest, "invalid_json", err.Error(), "")
		return
	}
	if err := validate.Struct(req); err != nil {
		middleware.WriteAPIError(w, r, http.StatusBadRequest, "validation_error", err.Error(), "")
		return
	}

	discounts := data.DiscountSettings{
		Sibling:        req.Sibling,
		MultiDept:      req.MultiDept,
		MonthlyPremium: req.MonthlyPremium,
	}

	if err := s.SaveDiscounts(discounts); err != nil {
		middleware.WriteFaultError(w, r, err)
		return
	}

	middleware.WriteAPISuccess(w, r, discounts)
}

// SaveAcademicYearHandler stores the academic year label (admin only).
func (s *Service) SaveAcademicYearHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		middleware.WriteAPIError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "POST required", "")
		return
	}

	var req academicYearRequest
	if err := middleware.ParseJSONRequest(r, &req); err != nil {
		middleware.WriteAPIError(w, r, http.StatusBadRequest, "invalid_json", err.Error(), "")
		return
	}
	if err := validate.Struct(req); err != nil {
		middleware.WriteAPIError(w, r, http.StatusBadRequest, "validation_error", err.Error(), "")
		return
	}

	if err := s.SetAcademicYear(req.AcademicYear); err != nil {
		middleware.WriteFaultError(w, r, err)
		return
	}

	middleware.WriteAPISuccess(w, r, map[string]string{"academicYear": req.AcademicYear})
}
