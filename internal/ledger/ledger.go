// internal/ledger/ledger.go
//
// Append-only payment ledger. A logical transaction is a chain of rows
// sharing a transaction ID; exactly one row per chain is current
// (is_superseded = 0). Edits supersede the current row and append a
// replacement; voids flip the current row's status in place. Rows are
// never deleted and superseded amounts are never overwritten.
package ledger

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"iqrabackend/internal/data"
	"iqrabackend/internal/faults"
)

// ErrAmountUnchanged reports an edit whose new amount equals the
// current amount. No new version is created in that case.
var ErrAmountUnchanged = errors.New("payment amount unchanged")

type Service struct {
	payments    *data.PaymentRepository
	families    *data.FamilyRepository
	departments *data.DepartmentRepository
	sequences   *data.SequenceRepository

	// now is swappable in tests so transaction IDs are deterministic.
	now func() time.Time
}

func NewService() *Service {
	return &Service{
		payments:    data.NewPaymentRepository(),
		families:    data.NewFamilyRepository(),
		departments: data.NewDepartmentRepository(),
		sequences:   data.NewSequenceRepository(),
		now:         time.Now,
	}
}

// RecordInput carries the fields of a new payment. Every call creates
// a new logical transaction; recording is never idempotent.
type RecordInput struct {
	RGNumber       int64
	StudentName    string
	DepartmentName string
	Amount         float64
	Method         string
	Date           string
}

// Record validates the input, generates a transaction ID and appends a
// single-row chain with status active.
func (s *Service) Record(in RecordInput) (*data.Payment, error) {
	if in.RGNumber <= 0 {
		return nil, faults.Invalid("rgNumber", "must be a positive RG number")
	}
	if strings.TrimSpace(in.StudentName) == "" {
		return nil, faults.Invalid("studentName", "student name is required")
	}
	if strings.TrimSpace(in.DepartmentName) == "" {
		return nil, faults.Invalid("departmentName", "department name is required")
	}
	if in.Amount <= 0 {
		return nil, faults.Invalid("amount", "amount must be greater than zero")
	}
	if strings.TrimSpace(in.Method) == "" {
		return nil, faults.Invalid("method", "payment method is required")
	}
	if strings.TrimSpace(in.Date) == "" {
		return nil, faults.Invalid("date", "payment date is required")
	}

	fam, err := s.families.GetByRG(in.RGNumber)
	if err != nil {
		return nil, err
	}
	if fam == nil {
		return nil, faults.Invalid("rgNumber", "no family registered under this RG number")
	}

	dept, err := s.departments.GetByName(in.DepartmentName)
	if err != nil {
		return nil, err
	}
	if dept == nil {
		return nil, faults.Invalid("departmentName", "department is not in the catalog")
	}

	txnID, err := s.generateTransactionID()
	if err != nil {
		return nil, err
	}

	p := data.Payment{
		TransactionID:  txnID,
		Version:        uuid.NewString(),
		RGNumber:       in.RGNumber,
		StudentName:    in.StudentName,
		DepartmentName: in.DepartmentName,
		Amount:         in.Amount,
		Method:         in.Method,
		Date:           in.Date,
		Status:         data.PaymentActive,
		RecordedAt:     s.now(),
	}

	if err := s.payments.Append(p); err != nil {
		return nil, err
	}
	return &p, nil
}

// EditAmount supersedes the chain's current row and appends a
// replacement carrying the new amount. The replacement is always
// active, even when the current row was voided; editing a voided
// transaction resurrects it. Returns ErrAmountUnchanged when the new
// amount equals the current one.
func (s *Service) EditAmount(transactionID string, newAmount float64) (*data.Payment, error) {
	if newAmount <= 0 {
		return nil, faults.Invalid("amount", "amount must be greater than zero")
	}

	current, err := s.payments.GetCurrent(transactionID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, faults.NotFound("payment", transactionID)
	}
	if current.Amount == newAmount {
		return nil, ErrAmountUnchanged
	}

	previous := current.Amount
	editedAt := s.now()
	replacement := data.Payment{
		TransactionID:  current.TransactionID,
		Version:        uuid.NewString(),
		RGNumber:       current.RGNumber,
		StudentName:    current.StudentName,
		DepartmentName: current.DepartmentName,
		Amount:         newAmount,
		Method:         current.Method,
		Date:           current.Date,
		Status:         data.PaymentActive,
		PreviousAmount: &previous,
		EditedAt:       &editedAt,
		RecordedAt:     editedAt,
	}

	found, err := s.payments.SupersedeAndReplace(transactionID, replacement.Version, replacement)
	if err != nil {
		return nil, err
	}
	if !found {
		// A concurrent edit took the current row between the read and
		// the conditional update.
		return nil, faults.NotFound("payment", transactionID)
	}
	return &replacement, nil
}

// Void flips the chain's current row to voided in place. No row is
// appended; the voided row stays current.
func (s *Service) Void(transactionID string) error {
	found, err := s.payments.VoidCurrent(transactionID)
	if err != nil {
		return err
	}
	if !found {
		return faults.NotFound("payment", transactionID)
	}
	return nil
}

// ActivePayments returns current, active rows, optionally narrowed by
// student and department. This is the only view safe to sum for money
// collected.
func (s *Service) ActivePayments(filter data.ActiveFilter) ([]data.Payment, error) {
	return s.payments.ListActive(filter)
}

// SumActive totals the active payments matching the filter.
func (s *Service) SumActive(filter data.ActiveFilter) (float64, error) {
	payments, err := s.payments.ListActive(filter)
	if err != nil {
		return 0, err
	}
	var total float64
	for _, p := range payments {
		total += p.Amount
	}
	return total, nil
}

// History returns every version of a transaction, oldest first.
func (s *Service) History(transactionID string) ([]data.Payment, error) {
	rows, err := s.payments.History(transactionID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, faults.NotFound("payment", transactionID)
	}
	return rows, nil
}

// ListAll returns every ledger row including superseded and voided
// history, newest payment date first.
func (s *Service) ListAll() ([]data.Payment, error) {
	return s.payments.ListAll()
}

// generateTransactionID builds TXN-<timestamp>-<counter> with both
// parts in upper-case base 36. The counter is persisted so IDs stay
// unique across restarts and within a single millisecond.
func (s *Service) generateTransactionID() (string, error) {
	counter, err := s.sequences.NextTransactionCounter()
	if err != nil {
		return "", err
	}
	ts := strings.ToUpper(strconv.FormatInt(s.now().UnixMilli(), 36))
	ctr := strings.ToUpper(strconv.FormatInt(counter, 36))
	return "TXN-" + ts + "-" + ctr, nil
}
