package db

import (
	"time"
)

// Person is a protected person. List fields are stored as JSON-encoded
// ordered arrays and never null; an empty list round-trips as '[]'.
type Person struct {
	ID          int64    `gorm:"primaryKey"`
	Name        string   `gorm:"not null"`
	Relation    string   `gorm:"not null;default:'self'"` // self, spouse, child, parent, other
	Emails      JSONList `gorm:"type:text;not null;default:'[]'"`
	Phones      JSONList `gorm:"type:text;not null;default:'[]'"`
	Addresses   JSONList `gorm:"type:text;not null;default:'[]'"`
	Usernames   JSONList `gorm:"type:text;not null;default:'[]'"`
	DateOfBirth *string
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

// TableName overrides GORM's pluralization ("people").
func (Person) TableName() string { return "persons" }

// Broker is a data broker loaded from a YAML definition. Slug is the YAML
// file stem and is unique; reloading the same file replaces the row.
type Broker struct {
	ID       int64  `gorm:"primaryKey"`
	Slug     string `gorm:"uniqueIndex;not null"`
	Name     string `gorm:"not null"`
	URL      string `gorm:"not null"`
	Category string `gorm:"not null"`

	OptOutMethod      string
	OptOutURL         string
	OptOutEmail       string
	OptOutPhone       string
	OptOutMailAddress string
	OptOutSteps       JSONList `gorm:"type:text;not null;default:'[]'"`

	// SearchURLPattern is the probe URL template with {first}, {last},
	// {state} and {city} placeholders. Brokers without one cannot be
	// scanned or verified automatically.
	SearchURLPattern string

	Difficulty    string `gorm:"not null;default:'medium'"` // easy, medium, hard, manual
	Automatable   bool   `gorm:"not null;default:false"`
	RecheckDays   int    `gorm:"not null;default:30"`
	CCPACompliant bool   `gorm:"not null;default:false"`
	GDPRCompliant bool   `gorm:"not null;default:false"`
	Notes         string

	LoadedAt time.Time `gorm:"not null;autoUpdateTime"`
}

// Finding is a single exposure discovered by any scanner.
// Status moves active -> removal_pending -> removed.
type Finding struct {
	ID             int64  `gorm:"primaryKey"`
	PersonID       int64  `gorm:"not null;index"`
	BrokerID       *int64 `gorm:"index"`
	Source         string `gorm:"not null"`
	FindingType    string `gorm:"not null"`
	DataFound      string `gorm:"type:text;not null;default:'{}'"` // JSON blob
	RiskLevel      string `gorm:"not null;default:'medium'"`       // critical, high, medium, low
	URL            string
	ScreenshotPath string
	Status         string    `gorm:"not null;default:'active';index"`
	DiscoveredAt   time.Time `gorm:"not null;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"not null"`
}

// Removal tracks one opt-out request through its lifecycle:
//
//	pending | submitted | instructions_generated | captcha_required |
//	no_form_found | still_found | confirmed | failed
//
// confirmed and failed are terminal. NextCheckAt drives verification;
// it is only set while the removal awaits a re-scan.
type Removal struct {
	ID            int64  `gorm:"primaryKey"`
	PersonID      int64  `gorm:"not null;index"`
	BrokerID      int64  `gorm:"not null;index"`
	FindingID     *int64
	Method        string `gorm:"not null"`
	Status        string `gorm:"not null;default:'pending';index"`
	SubmittedAt   *time.Time
	ConfirmedAt   *time.Time
	LastCheckedAt *time.Time
	Attempts      int `gorm:"not null;default:0"`
	NextCheckAt   *time.Time
	// Notes carries the handler reference id (REF-XXXXXXXX) or failure detail.
	Notes string
}

// Breach is a credential-breach appearance for a person's email.
// Severity is derived from the exposed data classes before insert.
type Breach struct {
	ID           int64    `gorm:"primaryKey"`
	PersonID     int64    `gorm:"not null;index"`
	BreachName   string   `gorm:"not null"`
	BreachDate   string
	DataTypes    JSONList `gorm:"type:text;not null;default:'[]'"`
	Source       string   `gorm:"not null"` // hibp, dehashed, paste
	Severity     string   `gorm:"not null;default:'medium'"`
	DiscoveredAt time.Time `gorm:"not null;autoCreateTime"`
	ActionTaken  string
}

// ScanRun records a single scanner invocation for audit purposes.
type ScanRun struct {
	ID            int64     `gorm:"primaryKey"`
	PersonID      *int64    `gorm:"index"`
	ScanType      string    `gorm:"not null"`
	StartedAt     time.Time `gorm:"not null;autoCreateTime"`
	CompletedAt   *time.Time
	FindingsCount int    `gorm:"not null;default:0"`
	NewFindings   int    `gorm:"not null;default:0"`
	RemovedCount  int    `gorm:"not null;default:0"`
	Status        string `gorm:"not null;default:'running'"`
}

// PipelineRun is the append-only record of one full protection pipeline
// execution for a person. Updates only fill the terminal columns.
type PipelineRun struct {
	ID                int64     `gorm:"primaryKey"`
	PersonID          int64     `gorm:"not null;index"`
	StartedAt         time.Time `gorm:"not null"`
	CompletedAt       *time.Time
	Status            string `gorm:"not null;default:'running'"` // running, completed, error
	BreachesFound     int    `gorm:"not null;default:0"`
	DarkWebFindings   int    `gorm:"not null;default:0"`
	AccountsFound     int    `gorm:"not null;default:0"`
	RemovalsSubmitted int    `gorm:"not null;default:0"`
	RiskScore         int    `gorm:"not null;default:0"`
	Error             string
}

// ScheduledRun is the append-only record of one scheduled job execution.
// Details is a JSON blob of job-specific counters; the next run of the same
// job reads it to compute deltas for alerting.
type ScheduledRun struct {
	ID          int64     `gorm:"primaryKey"`
	JobName     string    `gorm:"not null;index"`
	StartedAt   time.Time `gorm:"not null"`
	CompletedAt *time.Time
	Status      string `gorm:"not null;default:'running'"` // running, success, skipped, failed
	Details     string `gorm:"type:text;not null;default:'{}'"`
	Error       string
}
