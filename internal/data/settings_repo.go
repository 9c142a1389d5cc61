package data

import (
	"database/sql"
	"encoding/json"
	"fmt"
)

// =============================================================================
// SETTINGS AND SEQUENCES
// =============================================================================

// Settings keys
const (
	settingDiscounts    = "discounts"
	settingAcademicYear = "academicYear"
)

// Sequence names
const (
	SequenceRGNumber           = "nextRGNumber"
	SequenceTransactionCounter = "transactionCounter"
)

type SettingsRepository struct {
	db *sql.DB
}

func NewSettingsRepository() *SettingsRepository {
	return &SettingsRepository{db: db}
}

func (r *SettingsRepository) getSetting(key string) (string, bool, error) {
	var value string
	err := QueryRowDB(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read setting %s: %w", key, err)
	}
	return value, true, nil
}

func (r *SettingsRepository) putSetting(key, value string) error {
	const stmt = `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`
	if _, err := ExecDB(stmt, key, value); err != nil {
		return fmt.Errorf("failed to write setting %s: %w", key, err)
	}
	return nil
}

// GetDiscounts returns the stored discount percentages, or all zeroes if
// none have been saved yet.
func (r *SettingsRepository) GetDiscounts() (DiscountSettings, error) {
	var discounts DiscountSettings

	value, ok, err := r.getSetting(settingDiscounts)
	if err != nil {
		return discounts, err
	}
	if !ok {
		return discounts, nil
	}

	if err := json.Unmarshal([]byte(value), &discounts); err != nil {
		return discounts, fmt.Errorf("failed to unmarshal discounts: %w", err)
	}
	return discounts, nil
}

func (r *SettingsRepository) SetDiscounts(discounts DiscountSettings) error {
	value, err := marshalJSON(discounts)
	if err != nil {
		return err
	}
	return r.putSetting(settingDiscounts, value)
}

func (r *SettingsRepository) GetAcademicYear(fallback string) (string, error) {
	value, ok, err := r.getSetting(settingAcademicYear)
	if err != nil {
		return "", err
	}
	if !ok {
		return fallback, nil
	}
	return value, nil
}

func (r *SettingsRepository) SetAcademicYear(year string) error {
	return r.putSetting(settingAcademicYear, year)
}

// =============================================================================
// SEQUENCE REPOSITORY
// =============================================================================

// SequenceRepository owns the two persisted counters. Both are allocated
// inside a transaction so a value is never handed out twice, even across
// concurrent writers.
type SequenceRepository struct {
	db *sql.DB
}

func NewSequenceRepository() *SequenceRepository {
	return &SequenceRepository{db: db}
}

// Ensure seeds a sequence if it does not exist yet.
func (r *SequenceRepository) Ensure(name string, seed int64) error {
	const stmt = `INSERT INTO sequences (name, next) VALUES (?, ?) ON CONFLICT(name) DO NOTHING`
	if _, err := ExecDB(stmt, name, seed); err != nil {
		return fmt.Errorf("failed to seed sequence %s: %w", name, err)
	}
	return nil
}

// AllocateRGNumber hands out the stored value and then increments it:
// the first family registered gets the seed itself.
func (r *SequenceRepository) AllocateRGNumber() (int64, error) {
	var allocated int64

	err := WithTx(func(tx *sql.Tx) error {
		if err := tx.QueryRow(`SELECT next FROM sequences WHERE name = ?`, SequenceRGNumber).Scan(&allocated); err != nil {
			return fmt.Errorf("failed to read RG sequence: %w", err)
		}
		if _, err := tx.Exec(`UPDATE sequences SET next = next + 1 WHERE name = ?`, SequenceRGNumber); err != nil {
			return fmt.Errorf("failed to advance RG sequence: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return allocated, nil
}

// NextTransactionCounter increments and then hands out the new value:
// with the default seed of 1000, the first transaction uses 1001.
func (r *SequenceRepository) NextTransactionCounter() (int64, error) {
	var value int64

	err := WithTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`UPDATE sequences SET next = next + 1 WHERE name = ?`, SequenceTransactionCounter); err != nil {
			return fmt.Errorf("failed to advance transaction counter: %w", err)
		}
		if err := tx.QueryRow(`SELECT next FROM sequences WHERE name = ?`, SequenceTransactionCounter).Scan(&value); err != nil {
			return fmt.Errorf("failed to read transaction counter: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return value, nil
}

// RaiseRGFloor pushes the RG sequence past an imported RG number so a
// later registration can never collide with it.
func (r *SequenceRepository) RaiseRGFloor(minNext int64) error {
	const stmt = `UPDATE sequences SET next = ? WHERE name = ? AND next < ?`
	if _, err := ExecDB(stmt, minNext, SequenceRGNumber, minNext); err != nil {
		return fmt.Errorf("failed to raise RG floor: %w", err)
	}
	return nil
}
