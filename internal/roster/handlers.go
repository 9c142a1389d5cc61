// internal/roster/handlers.go
package roster

import (
	"net/http"

	"iqrabackend/internal/middleware"
)

// ExportHandler returns the roster as flat rows, one per child.
func (s *Service) ExportHandler(w http.ResponseWriter, r *http.Request) {
	rows, err := s.Export()
	if err != nil {
		middleware.WriteFaultError(w, r, err)
		return
	}
	middleware.WriteAPISuccess(w, r, rows)
}

// ImportHandler accepts flat rows and stores the grouped families.
func (s *Service) ImportHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		middleware.WriteAPIError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "POST required", "")
		return
	}

	var rows []Row
	if err := middleware.ParseJSONRequest(r, &rows); err != nil {
		middleware.WriteAPIError(w, r, http.StatusBadRequest, "invalid_json", err.Error(), "")
		return
	}

	summary, err := s.Import(rows)
	if err != nil {
		middleware.WriteFaultError(w, r, err)
		return
	}
	middleware.WriteAPISuccess(w, r, summary)
}
