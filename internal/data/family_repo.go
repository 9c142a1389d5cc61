package data

import (
	"database/sql"
	"fmt"
)

// =============================================================================
// FAMILY REPOSITORY
// =============================================================================

type FamilyRepository struct {
	db *sql.DB
}

func NewFamilyRepository() *FamilyRepository {
	return &FamilyRepository{db: db}
}

// Upsert writes a whole family keyed by RG number. Children are stored
// as a JSON column so their order survives round-trips.
func (r *FamilyRepository) Upsert(fam Family) error {
	childrenJSON, err := marshalJSON(fam.Children)
	if err != nil {
		return fmt.Errorf("failed to marshal children: %w", err)
	}

	const stmt = `
		INSERT INTO families (
			rg_number, parent_name1, parent_phone1, parent_name2, parent_phone2,
			additional_name, additional_phone, children_json, registered_date, status
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(rg_number) DO UPDATE SET
			parent_name1 = excluded.parent_name1,
			parent_phone1 = excluded.parent_phone1,
			parent_name2 = excluded.parent_name2,
			parent_phone2 = excluded.parent_phone2,
			additional_name = excluded.additional_name,
			additional_phone = excluded.additional_phone,
			children_json = excluded.children_json,
			status = excluded.status`

	_, err = ExecDB(stmt,
		fam.RGNumber, fam.ParentName1, fam.ParentPhone1, fam.ParentName2, fam.ParentPhone2,
		fam.AdditionalName, fam.AdditionalPhone, childrenJSON,
		formatTime(fam.RegisteredDate), fam.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert family: %w", err)
	}

	return nil
}

func (r *FamilyRepository) GetByRG(rgNumber int64) (*Family, error) {
	const stmt = `
		SELECT rg_number, parent_name1, parent_phone1, parent_name2, parent_phone2,
			additional_name, additional_phone, children_json, registered_date, status
		FROM families WHERE rg_number = ?`

	row := QueryRowDB(stmt, rgNumber)

	var fam Family
	var childrenJSON, registeredDate sql.NullString
	err := row.Scan(&fam.RGNumber, &fam.ParentName1, &fam.ParentPhone1,
		&fam.ParentName2, &fam.ParentPhone2, &fam.AdditionalName, &fam.AdditionalPhone,
		&childrenJSON, &registeredDate, &fam.Status)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan family: %w", err)
	}

	if err := populateFamily(&fam, childrenJSON, registeredDate); err != nil {
		return nil, err
	}

	return &fam, nil
}

func (r *FamilyRepository) List() ([]Family, error) {
	const stmt = `
		SELECT rg_number, parent_name1, parent_phone1, parent_name2, parent_phone2,
			additional_name, additional_phone, children_json, registered_date, status
		FROM families ORDER BY rg_number`

	rows, err := QueryDB(stmt)
	if err != nil {
		return nil, fmt.Errorf("failed to query families: %w", err)
	}
	defer rows.Close()

	var result []Family
	for rows.Next() {
		var fam Family
		var childrenJSON, registeredDate sql.NullString
		if err := rows.Scan(&fam.RGNumber, &fam.ParentName1, &fam.ParentPhone1,
			&fam.ParentName2, &fam.ParentPhone2, &fam.AdditionalName, &fam.AdditionalPhone,
			&childrenJSON, &registeredDate, &fam.Status); err != nil {
			return nil, fmt.Errorf("failed to scan family row: %w", err)
		}
		if err := populateFamily(&fam, childrenJSON, registeredDate); err != nil {
			return nil, err
		}
		result = append(result, fam)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating family rows: %w", err)
	}

	return result, nil
}

func (r *FamilyRepository) Delete(rgNumber int64) (bool, error) {
	res, err := ExecDB(`DELETE FROM families WHERE rg_number = ?`, rgNumber)
	if err != nil {
		return false, fmt.Errorf("failed to delete family: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read delete result: %w", err)
	}
	return affected > 0, nil
}

func populateFamily(fam *Family, childrenJSON, registeredDate sql.NullString) error {
	if err := unmarshalNullableJSON(childrenJSON, &fam.Children); err != nil {
		return fmt.Errorf("failed to unmarshal children: %w", err)
	}

	if registeredDate.Valid {
		parsed, err := parseTime(registeredDate.String)
		if err != nil {
			return fmt.Errorf("failed to parse registered date: %w", err)
		}
		fam.RegisteredDate = parsed
	}

	return nil
}
