// Package removers implements opt-out submission: an email handler that
// renders legal deletion requests, a web-form handler driving a stealth
// browser, a manual-instruction generator for phone and mail opt-outs, the
// orchestrator that dispatches on the broker's declared method, and the
// verifier that re-scans broker sites for submitted removals.
package removers

import (
	"strings"
	"time"

	"github.com/privacyops/footprint/internal/db"
)

// Removal outcome statuses. The orchestrator records the outcome status
// directly on the Removal row.
const (
	StatusError                 = "error"
	StatusSubmitted             = "submitted"
	StatusInstructionsGenerated = "instructions_generated"
	StatusCaptchaRequired       = "captcha_required"
	StatusNoFormFound           = "no_form_found"
	StatusFilledNotSubmitted    = "filled_not_submitted"
)

// Outcome is the result of one removal submission attempt, whatever the
// method.
type Outcome struct {
	Status        string     `json:"status"`
	Method        string     `json:"method"`
	Message       string     `json:"message,omitempty"`
	ReferenceID   string     `json:"reference_id,omitempty"`
	Recipient     string     `json:"recipient,omitempty"`
	Subject       string     `json:"subject,omitempty"`
	URL           string     `json:"url,omitempty"`
	Instructions  string     `json:"instructions,omitempty"`
	FieldsFilled  int        `json:"fields_filled,omitempty"`
	FormSubmitted bool       `json:"form_submitted,omitempty"`
	PageExcerpt   string     `json:"page_excerpt,omitempty"`
	SubmittedAt   *time.Time `json:"submitted_at,omitempty"`
}

// PersonContext is the flattened person view handed to submission handlers.
// List fields collapse to their first element.
type PersonContext struct {
	Name    string
	Email   string
	Phone   string
	Address string
	State   string
}

// NewPersonContext flattens a Person record for handlers.
func NewPersonContext(person *db.Person) PersonContext {
	return PersonContext{
		Name:    person.Name,
		Email:   person.Emails.First(),
		Phone:   person.Phones.First(),
		Address: person.Addresses.First(),
	}
}

// SplitName separates a full name into first name and the rest.
func SplitName(name string) (first, last string) {
	parts := strings.SplitN(strings.TrimSpace(name), " ", 2)
	first = parts[0]
	if len(parts) > 1 {
		last = strings.TrimSpace(parts[1])
	}
	return first, last
}
