package data

import (
	"database/sql"
	"fmt"
	"time"
)

// =============================================================================
// PAYMENT REPOSITORY
// =============================================================================

type PaymentRepository struct {
	db *sql.DB
}

func NewPaymentRepository() *PaymentRepository {
	return &PaymentRepository{db: db}
}

const paymentColumns = `transaction_id, version, rg_number, student_name, department_name,
	amount, method, pay_date, status, is_superseded, superseded_by,
	previous_amount, edited_at, recorded_at`

// ActiveFilter narrows ListActive. Zero values mean "no filter".
type ActiveFilter struct {
	RGNumber       int64
	StudentName    string
	DepartmentName string
}

// Append writes a brand-new payment row. Rows are never updated except
// for the supersede/void status flips below.
func (r *PaymentRepository) Append(p Payment) error {
	const stmt = `
		INSERT INTO payments (` + paymentColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := ExecDB(stmt,
		p.TransactionID, p.Version, p.RGNumber, p.StudentName, p.DepartmentName,
		p.Amount, p.Method, p.Date, p.Status, p.IsSuperseded, nullableString(p.SupersededBy),
		p.PreviousAmount, formatNullableTime(p.EditedAt), formatTime(p.RecordedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert payment: %w", err)
	}

	return nil
}

// GetCurrent returns the chain's one row with is_superseded = 0, or nil
// if the chain does not exist or has been fully superseded.
func (r *PaymentRepository) GetCurrent(transactionID string) (*Payment, error) {
	const stmt = `
		SELECT ` + paymentColumns + `
		FROM payments WHERE transaction_id = ? AND is_superseded = 0`

	row := QueryRowDB(stmt, transactionID)
	p, err := scanPaymentRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan current payment: %w", err)
	}
	return p, nil
}

// SupersedeAndReplace flags the chain's current row as superseded and
// appends the replacement row, atomically. The UPDATE is conditional on
// is_superseded = 0: if another writer got there first, zero rows match
// and the whole transaction rolls back, so a chain can never grow two
// current rows. Returns false when no current row was found.
func (r *PaymentRepository) SupersedeAndReplace(transactionID, marker string, replacement Payment) (bool, error) {
	found := false

	err := WithTx(func(tx *sql.Tx) error {
		res, err := tx.Exec(`
			UPDATE payments SET is_superseded = 1, superseded_by = ?
			WHERE transaction_id = ? AND is_superseded = 0`,
			marker, transactionID)
		if err != nil {
			return fmt.Errorf("failed to supersede payment: %w", err)
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read supersede result: %w", err)
		}
		if affected == 0 {
			return nil
		}
		found = true

		_, err = tx.Exec(`
			INSERT INTO payments (`+paymentColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			replacement.TransactionID, replacement.Version, replacement.RGNumber,
			replacement.StudentName, replacement.DepartmentName, replacement.Amount,
			replacement.Method, replacement.Date, replacement.Status, replacement.IsSuperseded,
			nullableString(replacement.SupersededBy), replacement.PreviousAmount,
			formatNullableTime(replacement.EditedAt), formatTime(replacement.RecordedAt))
		if err != nil {
			return fmt.Errorf("failed to insert replacement payment: %w", err)
		}

		return nil
	})
	if err != nil {
		return false, err
	}

	return found, nil
}

// VoidCurrent flips the current row's status to voided in place. No row
// is appended; the flip is conditional on is_superseded = 0 like an edit.
func (r *PaymentRepository) VoidCurrent(transactionID string) (bool, error) {
	res, err := ExecDB(`
		UPDATE payments SET status = ?
		WHERE transaction_id = ? AND is_superseded = 0`,
		PaymentVoided, transactionID)
	if err != nil {
		return false, fmt.Errorf("failed to void payment: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read void result: %w", err)
	}
	return affected > 0, nil
}

// ListActive returns current, active rows only: the one view that is
// safe to sum. Any other filter risks double-counting chain history.
func (r *PaymentRepository) ListActive(filter ActiveFilter) ([]Payment, error) {
	stmt := `
		SELECT ` + paymentColumns + `
		FROM payments WHERE is_superseded = 0 AND status = ?`
	args := []interface{}{PaymentActive}

	if filter.RGNumber != 0 {
		stmt += ` AND rg_number = ?`
		args = append(args, filter.RGNumber)
	}
	if filter.StudentName != "" {
		stmt += ` AND student_name = ?`
		args = append(args, filter.StudentName)
	}
	if filter.DepartmentName != "" {
		stmt += ` AND department_name = ?`
		args = append(args, filter.DepartmentName)
	}
	stmt += ` ORDER BY recorded_at`

	return r.queryPayments(stmt, args...)
}

// History returns every version of one chain, oldest first.
func (r *PaymentRepository) History(transactionID string) ([]Payment, error) {
	const stmt = `
		SELECT ` + paymentColumns + `
		FROM payments WHERE transaction_id = ? ORDER BY recorded_at`
	return r.queryPayments(stmt, transactionID)
}

// ListAll returns every row in the ledger, newest pay date first.
func (r *PaymentRepository) ListAll() ([]Payment, error) {
	const stmt = `
		SELECT ` + paymentColumns + `
		FROM payments ORDER BY pay_date DESC, recorded_at DESC`
	return r.queryPayments(stmt)
}

// ListByRG returns every row for one family, oldest first.
func (r *PaymentRepository) ListByRG(rgNumber int64) ([]Payment, error) {
	const stmt = `
		SELECT ` + paymentColumns + `
		FROM payments WHERE rg_number = ? ORDER BY recorded_at`
	return r.queryPayments(stmt, rgNumber)
}

// =============================================================================
// SCANNING HELPERS
// =============================================================================

func (r *PaymentRepository) queryPayments(stmt string, args ...interface{}) ([]Payment, error) {
	rows, err := QueryDB(stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	defer rows.Close()

	var result []Payment
	for rows.Next() {
		p, err := scanPaymentRows(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment rows: %w", err)
		}
		result = append(result, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating payment rows: %w", err)
	}

	return result, nil
}

func scanPaymentRow(row *sql.Row) (*Payment, error) {
	var p Payment
	var supersededBy, editedAt, recordedAt sql.NullString
	var previousAmount sql.NullFloat64

	err := row.Scan(&p.TransactionID, &p.Version, &p.RGNumber, &p.StudentName,
		&p.DepartmentName, &p.Amount, &p.Method, &p.Date, &p.Status, &p.IsSuperseded,
		&supersededBy, &previousAmount, &editedAt, &recordedAt)
	if err != nil {
		return nil, err
	}

	return populatePayment(&p, supersededBy, previousAmount, editedAt, recordedAt)
}

func scanPaymentRows(rows *sql.Rows) (*Payment, error) {
	var p Payment
	var supersededBy, editedAt, recordedAt sql.NullString
	var previousAmount sql.NullFloat64

	err := rows.Scan(&p.TransactionID, &p.Version, &p.RGNumber, &p.StudentName,
		&p.DepartmentName, &p.Amount, &p.Method, &p.Date, &p.Status, &p.IsSuperseded,
		&supersededBy, &previousAmount, &editedAt, &recordedAt)
	if err != nil {
		return nil, err
	}

	return populatePayment(&p, supersededBy, previousAmount, editedAt, recordedAt)
}

func populatePayment(p *Payment, supersededBy sql.NullString, previousAmount sql.NullFloat64,
	editedAt, recordedAt sql.NullString) (*Payment, error) {

	p.SupersededBy = supersededBy.String
	if previousAmount.Valid {
		v := previousAmount.Float64
		p.PreviousAmount = &v
	}

	edited, err := parseNullableTime(editedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse edited at: %w", err)
	}
	p.EditedAt = edited

	if recordedAt.Valid {
		recorded, err := parseTime(recordedAt.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse recorded at: %w", err)
		}
		p.RecordedAt = recorded
	} else {
		p.RecordedAt = time.Time{}
	}

	return p, nil
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
