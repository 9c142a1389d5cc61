// internal/report/handlers.go
package report

import (
	"net/http"
	"strconv"

	"iqrabackend/internal/faults"
	"iqrabackend/internal/middleware"
)

// QuoteHandler returns the calculated tuition for one family (?rg=NNNN).
func (s *Service) QuoteHandler(w http.ResponseWriter, r *http.Request) {
	rg, ok := rgFromQuery(w, r)
	if !ok {
		return
	}

	quote, err := s.Quote(rg)
	if err != nil {
		middleware.WriteFaultError(w, r, err)
		return
	}
	middleware.WriteAPISuccess(w, r, quote)
}

// BreakdownHandler returns the per-child, per-department reconciliation
// for one family (?rg=NNNN).
func (s *Service) BreakdownHandler(w http.ResponseWriter, r *http.Request) {
	rg, ok := rgFromQuery(w, r)
	if !ok {
		return
	}

	breakdown, err := s.TuitionBreakdown(rg)
	if err != nil {
		middleware.WriteFaultError(w, r, err)
		return
	}
	middleware.WriteAPISuccess(w, r, breakdown)
}

// StatusHandler returns a family's payment status (?rg=NNNN).
func (s *Service) StatusHandler(w http.ResponseWriter, r *http.Request) {
	rg, ok := rgFromQuery(w, r)
	if !ok {
		return
	}

	status, err := s.FamilyStatusReport(rg)
	if err != nil {
		middleware.WriteFaultError(w, r, err)
		return
	}
	middleware.WriteAPISuccess(w, r, status)
}

// DashboardHandler returns the whole-school rollup.
func (s *Service) DashboardHandler(w http.ResponseWriter, r *http.Request) {
	dash, err := s.BuildDashboard()
	if err != nil {
		middleware.WriteFaultError(w, r, err)
		return
	}
	middleware.WriteAPISuccess(w, r, dash)
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
