package scanners

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAhmiaResultSeverity(t *testing.T) {
	tests := []struct {
		name     string
		result   AhmiaResult
		expected string
	}{
		{"password in title", AhmiaResult{Title: "Password dump 2024"}, "critical"},
		{"leak in snippet", AhmiaResult{Title: "Archive", Snippet: "full database leak"}, "critical"},
		{"credential mention", AhmiaResult{Snippet: "credential stuffing list"}, "critical"},
		{"plain mention", AhmiaResult{Title: "Forum post", Snippet: "mentions the address"}, "high"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.result.Severity())
		})
	}
}

func TestPasteSeverityAlwaysHigh(t *testing.T) {
	assert.Equal(t, "high", Paste{}.Severity())
}

func TestParseAhmiaResults(t *testing.T) {
	html := `<html><body><ul>
		<li class="result">
			<h4><a href="http://abcdef.onion/dump">Credential dump</a></h4>
			<p>Contains user@example.com and 500 other accounts</p>
		</li>
		<li class="result">
			<h4><a href="http://ghijkl.onion/post">Forum thread</a></h4>
			<p>Mentions the email once</p>
		</li>
		<li class="other"><h4><a href="http://skip.onion">Skipped</a></h4></li>
	</ul></body></html>`

	results, err := parseAhmiaResults(strings.NewReader(html))
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Credential dump", results[0].Title)
	assert.Equal(t, "http://abcdef.onion/dump", results[0].URL)
	assert.Contains(t, results[0].Snippet, "500 other accounts")
	assert.Equal(t, "critical", results[0].Severity())
	assert.Equal(t, "high", results[1].Severity())
}

func TestParseAhmiaResultsNoMatches(t *testing.T) {
	results, err := parseAhmiaResults(strings.NewReader("<html><body><p>nothing</p></body></html>"))
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestDarkWebScanTotal(t *testing.T) {
	scan := &DarkWebScan{
		Pastes:   []Paste{{Source: "Pastebin"}},
		Ahmia:    []AhmiaResult{{Title: "a"}, {Title: "b"}},
		Accounts: []HoleheAccount{{Service: "x"}},
	}
	assert.Equal(t, 4, scan.Total())
}

func TestFormatReport(t *testing.T) {
	scan := &DarkWebScan{
		Email:  "user@example.com",
		Pastes: []Paste{{Source: "Pastebin", Title: "dump.txt"}},
		Ahmia:  []AhmiaResult{{Title: "Leak archive", URL: "http://x.onion"}},
		Accounts: []HoleheAccount{
			{Service: "tinder", Category: "dating"},
			{Service: "instagram", Category: "social"},
			{Service: "stackoverflow", Category: "tech"},
		},
	}

	out := FormatReport(scan)
	assert.Contains(t, out, "# Dark Web Monitoring Report")
	assert.Contains(t, out, "**Email:** user@example.com")
	assert.Contains(t, out, "**Total Findings:** 5")
	assert.Contains(t, out, "- **Pastebin**: dump.txt (high)")
	assert.Contains(t, out, "**High Risk:**\n  - tinder")
	assert.Contains(t, out, "**Medium Risk:**\n  - instagram")
	assert.Contains(t, out, "**Low Risk:**\n  - stackoverflow")
}

func TestFormatReportEmpty(t *testing.T) {
	out := FormatReport(&DarkWebScan{Email: "clean@example.com"})
	assert.Contains(t, out, "No paste site exposure detected.")
	assert.Contains(t, out, "No dark web references found.")
	assert.Contains(t, out, "No registered services detected.")
}
