package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/privacyops/footprint/internal/scanners"
)

// Input gathers the per-source scanner output feeding one exposure report.
type Input struct {
	PersonName string
	Brokers    []scanners.BrokerHit
	Breaches   *scanners.BreachReport
	Pastes     []scanners.Paste
	Accounts   []scanners.UsernameAccount
	Dorks      []scanners.DorkResult
}

// riskLevels flattens every finding into its risk level for scoring. Broker
// probes only count when the person was found; pastes always count as high.
func (in *Input) riskLevels() []string {
	var levels []string
	for _, hit := range in.Brokers {
		if hit.Found {
			levels = append(levels, hit.RiskLevel())
		}
	}
	if in.Breaches != nil {
		for _, b := range in.Breaches.HIBPBreaches {
			levels = append(levels, b.Severity())
		}
		for _, r := range in.Breaches.DehashedRecords {
			levels = append(levels, r.Severity())
		}
	}
	for _, p := range in.Pastes {
		levels = append(levels, p.Severity())
	}
	for _, a := range in.Accounts {
		levels = append(levels, a.RiskLevel())
	}
	for _, d := range in.Dorks {
		levels = append(levels, d.RiskLevel())
	}
	return levels
}

// Score computes the bounded risk score over all findings.
func (in *Input) Score() int {
	return ComputeRiskScore(in.riskLevels())
}

// Render produces the Markdown exposure report: header with score and
// label, one section per source in fixed order, then recommendations
// driven by which sections found anything.
func Render(in *Input, now time.Time) string {
	levels := in.riskLevels()
	score := ComputeRiskScore(levels)
	label := RiskLabel(score)

	var b strings.Builder
	b.WriteString("# Digital Footprint Exposure Report\n\n")
	fmt.Fprintf(&b, "**Subject:** %s\n", in.PersonName)
	fmt.Fprintf(&b, "**Date:** %s\n", now.Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "**Risk Score: %d/100 (%s)**\n\n", score, label)
	b.WriteString("---\n\n")

	foundBrokers := []scanners.BrokerHit{}
	for _, hit := range in.Brokers {
		if hit.Found {
			foundBrokers = append(foundBrokers, hit)
		}
	}
	fmt.Fprintf(&b, "## Data Broker Exposure (%d found)\n\n", len(foundBrokers))
	if len(foundBrokers) > 0 {
		for _, hit := range foundBrokers {
			url := hit.URL
			if url == "" {
				url = "N/A"
			}
			fmt.Fprintf(&b, "- **%s**: %s\n", hit.BrokerName, url)
		}
	} else {
		b.WriteString("No data broker listings detected.\n")
	}
	b.WriteString("\n")

	var hibp []scanners.HIBPBreach
	var dehashed []scanners.DehashedRecord
	if in.Breaches != nil {
		hibp = in.Breaches.HIBPBreaches
		dehashed = in.Breaches.DehashedRecords
	}
	fmt.Fprintf(&b, "## Data Breaches (%d breaches, %d records)\n\n", len(hibp), len(dehashed))
	for _, breach := range hibp {
		date := breach.BreachDate
		if date == "" {
			date = "unknown"
		}
		fmt.Fprintf(&b, "- **%s** (%s): %s\n", breach.Name, date, strings.Join(breach.DataClasses, ", "))
	}
	for _, rec := range dehashed {
		name := rec.DatabaseName
		if name == "" {
			name = "Unknown"
		}
		fmt.Fprintf(&b, "- **%s**: Exposed record found\n", name)
	}
	if len(hibp) == 0 && len(dehashed) == 0 {
		b.WriteString("No breach records found.\n")
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "## Online Accounts (%d found)\n\n", len(in.Accounts))
	if len(in.Accounts) > 0 {
		for _, acct := range in.Accounts {
			url := acct.URL
			if url == "" {
				url = "N/A"
			}
			fmt.Fprintf(&b, "- **%s**: %s\n", acct.SiteName, url)
		}
	} else {
		b.WriteString("No accounts discovered.\n")
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "## Google Exposure (%d results)\n\n", len(in.Dorks))
	if len(in.Dorks) > 0 {
		for _, d := range in.Dorks {
			title := d.Title
			if title == "" {
				title = "Link"
			}
			fmt.Fprintf(&b, "- [%s](%s)\n", title, d.URL)
		}
	} else {
		b.WriteString("No exposed documents or pastes found.\n")
	}
	b.WriteString("\n")

	b.WriteString("---\n\n## Recommendations\n\n")
	if len(foundBrokers) > 0 {
		b.WriteString("1. **Submit opt-out requests** to all detected data brokers\n")
	}
	if len(hibp) > 0 {
		b.WriteString("2. **Change passwords** for all breached accounts\n")
		b.WriteString("3. **Enable 2FA** on critical accounts\n")
	}
	if len(in.Accounts) > 0 {
		b.WriteString("4. **Review privacy settings** on discovered accounts\n")
	}
	if len(levels) == 0 {
		b.WriteString("Your digital footprint appears minimal. Continue monitoring.\n")
	}
	b.WriteString("\n")

	return b.String()
}
