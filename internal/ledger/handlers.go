// internal/ledger/handlers.go
package ledger

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"iqrabackend/internal/data"
	"iqrabackend/internal/faults"
	"iqrabackend/internal/middleware"
)

var validate = validator.New()

type recordPaymentRequest struct {
	RGNumber       int64   `json:"rgNumber" validate:"required,gt=0"`
	StudentName    string  `json:"studentName" validate:"required"`
	DepartmentName string  `json:"departmentName" validate:"required"`
	Amount         float64 `json:"amount" validate:"required,gt=0"`
	Method         string  `json:"method" validate:"required"`
	Date           string  `json:"date" validate:"required,datetime=2006-01-02"`
}

type editPaymentRequest struct {
	TransactionID string  `json:"transactionId" validate:"required"`
	NewAmount     float64 `json:"newAmount" validate:"required,gt=0"`
}

type voidPaymentRequest struct {
	TransactionID string `json:"transactionId" validate:"required"`
}

// RecordPaymentHandler appends a new payment transaction.
func (s *Service) RecordPaymentHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		middleware.WriteAPIError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "POST required", "")
		return
	}

	var req recordPaymentRequest
	if err := middleware.ParseJSONRequest(r, &req); err != nil {
		middleware.WriteAPIError(w, r, http.StatusBadRequest, "invalid_json", err.Error(), "")
		return
	}
	if err := validate.Struct(req); err != nil {
		middleware.WriteAPIError(w, r, http.StatusBadRequest, "validation_error", err.Error(), "")
		return
	}

	p, err := s.Record(RecordInput{
		RGNumber:       req.RGNumber,
		StudentName:    req.StudentName,
		DepartmentName: req.DepartmentName,
		Amount:         req.Amount,
		Method:         req.Method,
		Date:           req.Date,
	})
	if err != nil {
		middleware.WriteFaultError(w, r, err)
		return
	}
	middleware.WriteAPISuccess(w, r, p)
}

// EditPaymentHandler changes a transaction's amount by appending a new
// version. A same-amount edit is reported without creating a version.
func (s *Service) EditPaymentHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		middleware.WriteAPIError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "POST required", "")
		return
	}

	var req editPaymentRequest
	if err := middleware.ParseJSONRequest(r, &req); err != nil {
		middleware.WriteAPIError(w, r, http.StatusBadRequest, "invalid_json", err.Error(), "")
		return
	}
	if err := validate.Struct(req); err != nil {
		middleware.WriteAPIError(w, r, http.StatusBadRequest, "validation_error", err.Error(), "")
		return
	}

	p, err := s.EditAmount(req.TransactionID, req.NewAmount)
	if errors.Is(err, ErrAmountUnchanged) {
		middleware.WriteAPISuccess(w, r, map[string]interface{}{
			"transactionId": req.TransactionID,
			"changed":       false,
		})
		return
	}
	if err != nil {
		middleware.WriteFaultError(w, r, err)
		return
	}
	middleware.WriteAPISuccess(w, r, p)
}

// VoidPaymentHandler voids a transaction's current row.
func (s *Service) VoidPaymentHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		middleware.WriteAPIError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "POST required", "")
		return
	}

	var req voidPaymentRequest
	if err := middleware.ParseJSONRequest(r, &req); err != nil {
		middleware.WriteAPIError(w, r, http.StatusBadRequest, "invalid_json", err.Error(), "")
		return
	}
	if err := validate.Struct(req); err != nil {
		middleware.WriteAPIError(w, r, http.StatusBadRequest, "validation_error", err.Error(), "")
		return
	}

	if err := s.Void(req.TransactionID); err != nil {
		middleware.WriteFaultError(w, r, err)
		return
	}
	middleware.WriteAPISuccess(w, r, map[string]interface{}{
		"transactionId": req.TransactionID,
		"status":        data.PaymentVoided,
	})
}

// ActivePaymentsHandler lists current active rows, optionally filtered
// by ?rg=, ?student= and ?department=.
func (s *Service) ActivePaymentsHandler(w http.ResponseWriter, r *http.Request) {
	filter := data.ActiveFilter{
		StudentName:    r.URL.Query().Get("student"),
		DepartmentName: r.URL.Query().Get("department"),
	}
	if raw := r.URL.Query().Get("rg"); raw != "" {
		rg, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || rg <= 0 {
			middleware.WriteFaultError(w, r, faults.Invalid("rg", "rg must be a positive number"))
			return
		}
		filter.RGNumber = rg
	}

	payments, err := s.ActivePayments(filter)
	if err != nil {
		middleware.WriteFaultError(w, r, err)
		return
	}

	var total float64
	for _, p := range payments {
		total += p.Amount
	}
	middleware.WriteAPISuccess(w, r, map[string]interface{}{
		"payments": payments,
		"total":    total,
	})
}

// PaymentHistoryHandler returns every version of one transaction
// (?txn=TXN-...).
func (s *Service) PaymentHistoryHandler(w http.ResponseWriter, r *http.Request) {
	txnID := r.URL.Query().Get("txn")
	if txnID == "" {
		middleware.WriteFaultError(w, r, faults.Invalid("txn", "txn query parameter is required"))
		return
	}

	rows, err := s.History(txnID)
	if err != nil {
		middleware.WriteFaultError(w, r, err)
		return
	}
	middleware.WriteAPISuccess(w, r, rows)
}

// ListPaymentsHandler returns the full ledger, history included.
func (s *Service) ListPaymentsHandler(w http.ResponseWriter, r *http.Request) {
	rows, err := s.ListAll()
	if err != nil {
		middleware.WriteFaultError(w, r, err)
		return
	}
	middleware.WriteAPISuccess(w, r, rows)
}
