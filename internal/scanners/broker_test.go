package scanners

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildSearchURL(t *testing.T) {
	pattern := "https://example.com/name/{first}-{last}/{state}"
	assert.Equal(t,
		"https://example.com/name/John-Doe/CA",
		BuildSearchURL(pattern, "John", "Doe", "CA", ""),
	)
	// Missing values become empty, not literal placeholders.
	assert.Equal(t,
		"https://example.com/name/John-Doe/",
		BuildSearchURL(pattern, "John", "Doe", "", ""),
	)
}

func TestNameInPage(t *testing.T) {
	page := "Results for JOHN doe, age 42, Sacramento CA"
	assert.True(t, NameInPage(page, "John", "Doe"))
	assert.False(t, NameInPage(page, "John", "Smith"))
	assert.False(t, NameInPage("no results found", "John", "Doe"))
}

func TestBrokerHitRiskLevel(t *testing.T) {
	assert.Equal(t, "high", BrokerHit{Found: true}.RiskLevel())
	assert.Equal(t, "low", BrokerHit{Found: false}.RiskLevel())
}
