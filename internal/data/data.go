// internal/data/data.go
package data

import "time"

// Payment row status values. A chain's current row is the one with
// IsSuperseded == false; only a current, active row counts toward sums.
const (
	PaymentActive = "active"
	PaymentVoided = "voided"
)

// Family status values
const (
	FamilyActive = "Active"
)

// Department is a time-boxed program with a fixed full-period cost.
// The per-department discount fields are advisory: entered and stored,
// but the tuition calculator never reads them.
type Department struct {
	Name                    string   `json:"name"`
	StartDate               string   `json:"startDate"`
	EndDate                 string   `json:"endDate"`
	FullAmount              float64  `json:"fullAmount"`
	FullPaymentDiscount     *float64 `json:"fullPaymentDiscount,omitempty"`
	FullPaymentDiscountType string   `json:"fullPaymentDiscountType,omitempty"`
	SiblingDiscount         *float64 `json:"siblingDiscount,omitempty"`
	SiblingDiscountType     string   `json:"siblingDiscountType,omitempty"`
	Notes                   string   `json:"notes,omitempty"`
}

// DepartmentSchedule is purely descriptive; never used in money math.
type DepartmentSchedule struct {
	DepartmentName string   `json:"departmentName"`
	Days           []string `json:"days"`
	StartTime      string   `json:"startTime"`
	EndTime        string   `json:"endTime"`
}

// Child order within a family is significant: index 0 is exempt from
// the sibling discount.
type Child struct {
	Name        string   `json:"name"`
	Gender      string   `json:"gender"`
	DOB         string   `json:"dob"`
	Departments []string `json:"departments"`
}

type Family struct {
	RGNumber        int64     `json:"rgNumber"`
	ParentName1     string    `json:"parentName1"`
	ParentPhone1    string    `json:"parentPhone1"`
	ParentName2     string    `json:"parentName2,omitempty"`
	ParentPhone2    string    `json:"parentPhone2,omitempty"`
	AdditionalName  string    `json:"additionalName,omitempty"`
	AdditionalPhone string    `json:"additionalPhone,omitempty"`
	Children        []Child   `json:"children"`
	RegisteredDate  time.Time `json:"registeredDate"`
	Status          string    `json:"status"`
}

// Payment is one version of a logical transaction. All versions share
// TransactionID; Version is unique per row. A superseded row is frozen
// history: its amount is never overwritten, only flagged.
type Payment struct {
	TransactionID  string     `json:"transactionId"`
	Version        string     `json:"version"`
	RGNumber       int64      `json:"rgNumber"`
	StudentName    string     `json:"studentName"`
	DepartmentName string     `json:"departmentName"`
	Amount         float64    `json:"amount"`
	Method         string     `json:"method"`
	Date           string     `json:"date"`
	Status         string     `json:"status"`
	IsSuperseded   bool       `json:"isSuperseded"`
	SupersededBy   string     `json:"supersededBy,omitempty"`
	PreviousAmount *float64   `json:"previousAmount,omitempty"`
	EditedAt       *time.Time `json:"editedAt,omitempty"`
	RecordedAt     time.Time  `json:"recordedAt"`
}

// DiscountSettings are whole-school percentages. MonthlyPremium is
// stored for the settings screen but not applied anywhere yet.
type DiscountSettings struct {
	Sibling        float64 `json:"sibling"`
	MultiDept      float64 `json:"multiDept"`
	MonthlyPremium float64 `json:"monthlyPremium"`
}
