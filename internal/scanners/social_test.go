package scanners

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectPlatform(t *testing.T) {
	tests := []struct {
		url      string
		expected string
	}{
		{"https://twitter.com/someuser", "twitter"},
		{"https://x.com/someuser", "twitter"},
		{"https://github.com/someuser", "github"},
		{"https://www.linkedin.com/in/someuser", "linkedin"},
		{"https://someblog.net/profile", "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.expected, DetectPlatform(tt.url))
		})
	}
}

func TestExtractMetaTags(t *testing.T) {
	html := `<html><head>
		<meta property="og:title" content="John Doe" />
		<meta property="og:description" content="Software engineer based in Austin" />
		<meta name="viewport" content="width=device-width" />
	</head><body></body></html>`

	tags := ExtractMetaTags(html)
	assert.Equal(t, "John Doe", tags["og:title"])
	assert.Equal(t, "Software engineer based in Austin", tags["og:description"])
	assert.NotContains(t, tags, "viewport")
}

func TestDetectPII(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected []string
	}{
		{"email", "contact me at john@example.com", []string{"email_visible"}},
		{"phone with dashes", "call 555-123-4567 anytime", []string{"phone_visible"}},
		{"phone with dots", "call 555.123.4567", []string{"phone_visible"}},
		{"location phrase", "Engineer based in Austin", []string{"location_visible"}},
		{"everything", "john@example.com 555-123-4567 lives in Austin", []string{"email_visible", "phone_visible", "location_visible"}},
		{"clean", "just a bio with nothing sensitive", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DetectPII(tt.text))
		})
	}
}

func TestComputePrivacyScore(t *testing.T) {
	assert.Equal(t, 100, ComputePrivacyScore(nil))
	assert.Equal(t, 70, ComputePrivacyScore([]string{"email_visible"}))
	assert.Equal(t, 40, ComputePrivacyScore([]string{"email_visible", "phone_visible"}))
	assert.Equal(t, 95, ComputePrivacyScore([]string{"something_new"}))
	// Floored at zero.
	assert.Equal(t, 0, ComputePrivacyScore([]string{
		"email_visible", "phone_visible", "address_visible", "location_visible",
	}))
}

func TestLooksLikeRealName(t *testing.T) {
	assert.True(t, looksLikeRealName("John Doe"))
	assert.False(t, looksLikeRealName("johndoe"))
	assert.False(t, looksLikeRealName("xX_gamer_Xx tag"))
}
