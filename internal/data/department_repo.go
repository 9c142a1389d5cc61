package data

import (
	"database/sql"
	"fmt"
)

// =============================================================================
// DEPARTMENT REPOSITORY
// =============================================================================

type DepartmentRepository struct {
	db *sql.DB
}

func NewDepartmentRepository() *DepartmentRepository {
	return &DepartmentRepository{db: db}
}

// Upsert inserts or replaces a department by name.
func (r *DepartmentRepository) Upsert(dept Department) error {
	const stmt = `
		INSERT INTO departments (
			name, start_date, end_date, full_amount, full_payment_discount,
			full_payment_discount_type, sibling_discount, sibling_discount_type, notes
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			full_amount = excluded.full_amount,
			full_payment_discount = excluded.full_payment_discount,
			full_payment_discount_type = excluded.full_payment_discount_type,
			sibling_discount = excluded.sibling_discount,
			sibling_discount_type = excluded.sibling_discount_type,
			notes = excluded.notes`

	_, err := ExecDB(stmt,
		dept.Name, dept.StartDate, dept.EndDate, dept.FullAmount,
		dept.FullPaymentDiscount, dept.FullPaymentDiscountType,
		dept.SiblingDiscount, dept.SiblingDiscountType, dept.Notes,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert department: %w", err)
	}

	return nil
}

func (r *DepartmentRepository) GetByName(name string) (*Department, error) {
	const stmt = `
		SELECT name, start_date, end_date, full_amount, full_payment_discount,
			full_payment_discount_type, sibling_discount, sibling_discount_type, notes
		FROM departments WHERE name = ?`

	row := QueryRowDB(stmt, name)
	dept, err := scanDepartment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan department: %w", err)
	}
	return dept, nil
}

func (r *DepartmentRepository) List() ([]Department, error) {
	const stmt = `
		SELECT name, start_date, end_date, full_amount, full_payment_discount,
			full_payment_discount_type, sibling_discount, sibling_discount_type, notes
		FROM departments ORDER BY name`

	rows, err := QueryDB(stmt)
	if err != nil {
		return nil, fmt.Errorf("failed to query departments: %w", err)
	}
	defer rows.Close()

	var result []Department
	for rows.Next() {
		var dept Department
		var notes sql.NullString
		if err := rows.Scan(&dept.Name, &dept.StartDate, &dept.EndDate, &dept.FullAmount,
			&dept.FullPaymentDiscount, &dept.FullPaymentDiscountType,
			&dept.SiblingDiscount, &dept.SiblingDiscountType, &notes); err != nil {
			return nil, fmt.Errorf("failed to scan department row: %w", err)
		}
		dept.Notes = notes.String
		result = append(result, dept)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating department rows: %w", err)
	}

	return result, nil
}

// Delete removes the department and its schedule. Enrolled children keep
// the department name; their cost lookups fall back to zero.
func (r *DepartmentRepository) Delete(name string) (bool, error) {
	res, err := ExecDB(`DELETE FROM departments WHERE name = ?`, name)
	if err != nil {
		return false, fmt.Errorf("failed to delete department: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read delete result: %w", err)
	}

	if _, err := ExecDB(`DELETE FROM department_schedules WHERE department_name = ?`, name); err != nil {
		return false, fmt.Errorf("failed to delete department schedule: %w", err)
	}

	return affected > 0, nil
}

func scanDepartment(row *sql.Row) (*Department, error) {
	var dept Department
	var notes sql.NullString
	err := row.Scan(&dept.Name, &dept.StartDate, &dept.EndDate, &dept.FullAmount,
		&dept.FullPaymentDiscount, &dept.FullPaymentDiscountType,
		&dept.SiblingDiscount, &dept.SiblingDiscountType, &notes)
	if err != nil {
		return nil, err
	}
	dept.Notes = notes.String
	return &dept, nil
}

// =============================================================================
// SCHEDULE OPERATIONS
// =============================================================================

// UpsertSchedule keeps at most one schedule per department.
func (r *DepartmentRepository) UpsertSchedule(sched DepartmentSchedule) error {
	daysJSON, err := marshalJSON(sched.Days)
	if err != nil {
		return fmt.Errorf("failed to marshal schedule days: %w", err)
	}

	const stmt = `
		INSERT INTO department_schedules (department_name, days_json, start_time, end_time)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(department_name) DO UPDATE SET
			days_json = excluded.days_json,
			start_time = excluded.start_time,
			end_time = excluded.end_time`

	if _, err := ExecDB(stmt, sched.DepartmentName, daysJSON, sched.StartTime, sched.EndTime); err != nil {
		return fmt.Errorf("failed to upsert schedule: %w", err)
	}

	return nil
}

func (r *DepartmentRepository) GetSchedule(departmentName string) (*DepartmentSchedule, error) {
	const stmt = `
		SELECT department_name, days_json, start_time, end_time
		FROM department_schedules WHERE department_name = ?`

	var sched DepartmentSchedule
	var daysJSON sql.NullString
	err := QueryRowDB(stmt, departmentName).Scan(&sched.DepartmentName, &daysJSON, &sched.StartTime, &sched.EndTime)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan schedule: %w", err)
	}

	if err := unmarshalNullableJSON(daysJSON, &sched.Days); err != nil {
		return nil, fmt.Errorf("failed to unmarshal schedule days: %w", err)
	}

	return &sched, nil
}

func (r *DepartmentRepository) ListSchedules() ([]DepartmentSchedule, error) {
	const stmt = `
		SELECT department_name, days_json, start_time, end_time
		FROM department_schedules ORDER BY department_name`

	rows, err := QueryDB(stmt)
	if err != nil {
		return nil, fmt.Errorf("failed to query schedules: %w", err)
	}
	defer rows.Close()

	var result []DepartmentSchedule
	for rows.Next() {
		var sched DepartmentSchedule
		var daysJSON sql.NullString
		if err := rows.Scan(&sched.DepartmentName, &daysJSON, &sched.StartTime, &sched.EndTime); err != nil {
			return nil, fmt.Errorf("failed to scan schedule row: %w", err)
		}
		if err := unmarshalNullableJSON(daysJSON, &sched.Days); err != nil {
			return nil, fmt.Errorf("failed to unmarshal schedule days: %w", err)
		}
		result = append(result, sched)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating schedule rows: %w", err)
	}

	return result, nil
}
