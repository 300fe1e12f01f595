package scanners

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMaigretReport(t *testing.T) {
	data := []byte(`{
		"GitHub": {
			"status": {"status": "Claimed", "site_name": "GitHub", "url": "https://github.com", "tags": ["tech"]},
			"url_user": "https://github.com/someuser"
		},
		"Twitter": {
			"status": {"status": "Available", "site_name": "Twitter"},
			"url_user": "https://twitter.com/someuser"
		},
		"Tinder": {
			"status": {"status": "Claimed", "site_name": "Tinder", "tags": ["dating"]},
			"url_user": "https://tinder.com/@someuser"
		}
	}`)

	accounts, err := ParseMaigretReport(data)
	require.NoError(t, err)
	require.Len(t, accounts, 2)

	// Sorted by site name for deterministic output.
	assert.Equal(t, "GitHub", accounts[0].SiteName)
	assert.Equal(t, "https://github.com/someuser", accounts[0].URL)
	assert.Equal(t, "low", accounts[0].RiskLevel())
	assert.Equal(t, "Tinder", accounts[1].SiteName)
	assert.Equal(t, "high", accounts[1].RiskLevel())
}

func TestParseMaigretReportInvalidJSON(t *testing.T) {
	_, err := ParseMaigretReport([]byte("not json"))
	assert.Error(t, err)
}

func TestUsernameAccountRiskLevel(t *testing.T) {
	assert.Equal(t, "high", UsernameAccount{Tags: []string{"photo", "gambling"}}.RiskLevel())
	assert.Equal(t, "medium", UsernameAccount{Tags: []string{"photo"}}.RiskLevel())
	assert.Equal(t, "low", UsernameAccount{Tags: []string{"tech"}}.RiskLevel())
	assert.Equal(t, "low", UsernameAccount{}.RiskLevel())
}
