package models

import (
	"time"

	"github.com/emilianohg/touchbase/internal/recurrence"
)

type RecordStatus string

const (
	StatusPending   RecordStatus = "pending"
	StatusCompleted RecordStatus = "completed"
)

// DefaultCommunicationTypes are recognized when no communication methods
// have been registered.
var DefaultCommunicationTypes = []string{"Email", "Phone Call", "LinkedIn Post", "LinkedIn Message"}

// OtherType collects communication types that are not recognized.
const OtherType = "Other"

type Company struct {
	ID              int64
	Name            string
	Location        string
	LinkedInProfile string
	Emails          []string
	PhoneNumbers    []string
	Comments        string
	Rule            recurrence.Rule
	CreatedAt       time.Time

	// Loaded separately, in logging order
	Communications []CommunicationRecord
}

// CommunicationRecord is one logged communication. Only Status changes
// after creation.
type CommunicationRecord struct {
	ID        string
	CompanyID int64
	Type      string
	Date      time.Time // calendar date, UTC midnight
	Notes     string
	Status    RecordStatus
	CreatedAt time.Time
}

func (r CommunicationRecord) IsCompleted() bool {
	return r.Status == StatusCompleted
}

type CommunicationMethod struct {
	ID          int64
	Name        string
	Description string
	Sequence    int
	Mandatory   bool
}
