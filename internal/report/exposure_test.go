package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/privacyops/footprint/internal/scanners"
)

func TestRenderFullReport(t *testing.T) {
	in := &Input{
		PersonName: "John Doe",
		Brokers: []scanners.BrokerHit{
			{BrokerName: "Spokeo", URL: "https://spokeo.com/john", Found: true},
			{BrokerName: "Radaris", Found: false},
		},
		Breaches: &scanners.BreachReport{
			HIBPBreaches: []scanners.HIBPBreach{
				{Name: "Adobe", BreachDate: "2013-10-04", DataClasses: []string{"Email addresses", "Passwords"}},
			},
			DehashedRecords: []scanners.DehashedRecord{{DatabaseName: "OldForum"}},
		},
		Accounts: []scanners.UsernameAccount{
			{SiteName: "GitHub", URL: "https://github.com/johndoe"},
		},
		Dorks: []scanners.DorkResult{
			{Title: "Resume", URL: "https://example.com/resume.pdf"},
		},
	}

	now := time.Date(2026, 3, 15, 9, 30, 0, 0, time.UTC)
	out := Render(in, now)

	assert.Contains(t, out, "# Digital Footprint Exposure Report")
	assert.Contains(t, out, "**Subject:** John Doe")
	assert.Contains(t, out, "**Date:** 2026-03-15 09:30")

	// critical(25) + high broker(10) + medium dehashed(5) + low account(2) + high dork(10)
	assert.Contains(t, out, "**Risk Score: 52/100 (HIGH)**")

	// The unfound broker is excluded from the section and the count.
	assert.Contains(t, out, "## Data Broker Exposure (1 found)")
	assert.Contains(t, out, "- **Spokeo**: https://spokeo.com/john")
	assert.NotContains(t, out, "Radaris")

	assert.Contains(t, out, "## Data Breaches (1 breaches, 1 records)")
	assert.Contains(t, out, "- **Adobe** (2013-10-04): Email addresses, Passwords")
	assert.Contains(t, out, "- **OldForum**: Exposed record found")

	assert.Contains(t, out, "## Online Accounts (1 found)")
	assert.Contains(t, out, "## Google Exposure (1 results)")
	assert.Contains(t, out, "- [Resume](https://example.com/resume.pdf)")

	assert.Contains(t, out, "**Submit opt-out requests**")
	assert.Contains(t, out, "**Change passwords**")
	assert.Contains(t, out, "**Review privacy settings**")
}

func TestRenderEmptyReport(t *testing.T) {
	out := Render(&Input{PersonName: "Jane Roe"}, time.Now())

	assert.Contains(t, out, "**Risk Score: 0/100 (LOW)**")
	assert.Contains(t, out, "No data broker listings detected.")
	assert.Contains(t, out, "No breach records found.")
	assert.Contains(t, out, "No accounts discovered.")
	assert.Contains(t, out, "No exposed documents or pastes found.")
	assert.Contains(t, out, "Your digital footprint appears minimal. Continue monitoring.")
}

func TestInputScoreIgnoresUnfoundBrokers(t *testing.T) {
	in := &Input{
		Brokers: []scanners.BrokerHit{
			{Found: false}, {Found: false}, {Found: true},
		},
	}
	assert.Equal(t, 10, in.Score())
}
