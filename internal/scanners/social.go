package scanners

import (
	"context"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/privacyops/footprint/internal/browser"
)

// platformDomains maps profile URL hosts to platform names.
var platformDomains = []struct {
	domain   string
	platform string
}{
	{"twitter.com", "twitter"},
	{"x.com", "twitter"},
	{"github.com", "github"},
	{"instagram.com", "instagram"},
	{"linkedin.com", "linkedin"},
	{"reddit.com", "reddit"},
	{"tiktok.com", "tiktok"},
	{"facebook.com", "facebook"},
}

var (
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	phonePattern = regexp.MustCompile(`\b\d{3}[-.]?\d{3}[-.]?\d{4}\b`)
)

var locationPhrases = []string{"located in", "based in", "lives in", "from "}

// privacyDeductions is the per-flag penalty off the 100-point baseline.
// Unknown flags cost 5.
var privacyDeductions = map[string]int{
	"email_visible":     30,
	"phone_visible":     30,
	"real_name_visible": 10,
	"location_visible":  15,
	"address_visible":   25,
}

// SocialAudit is the privacy posture of one public profile.
type SocialAudit struct {
	Platform      string            `json:"platform"`
	URL           string            `json:"url"`
	VisibleFields map[string]string `json:"visible_fields"`
	PIIFlags      []string          `json:"pii_flags"`
	PrivacyScore  int               `json:"privacy_score"`
	Error         string            `json:"error,omitempty"`
}

// DetectPlatform resolves a platform name from a profile URL.
func DetectPlatform(url string) string {
	for _, entry := range platformDomains {
		if strings.Contains(url, entry.domain) {
			return entry.platform
		}
	}
	return "unknown"
}

// ExtractMetaTags pulls OpenGraph-style property/content meta tags out of
// page HTML.
func ExtractMetaTags(html string) map[string]string {
	tags := map[string]string{}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return tags
	}
	doc.Find("meta[property]").Each(func(_ int, sel *goquery.Selection) {
		prop, _ := sel.Attr("property")
		content, _ := sel.Attr("content")
		if prop != "" {
			tags[prop] = content
		}
	})
	return tags
}

// DetectPII scans visible text for email addresses, US phone numbers and
// location phrases, in that flag order.
func DetectPII(text string) []string {
	flags := []string{}
	if emailPattern.MatchString(text) {
		flags = append(flags, "email_visible")
	}
	if phonePattern.MatchString(text) {
		flags = append(flags, "phone_visible")
	}
	lower := strings.ToLower(text)
	for _, phrase := range locationPhrases {
		if strings.Contains(lower, phrase) {
			flags = append(flags, "location_visible")
			break
		}
	}
	return flags
}

// ComputePrivacyScore deducts a penalty per flag from 100, floored at 0.
func ComputePrivacyScore(flags []string) int {
	score := 100
	for _, flag := range flags {
		if d, ok := privacyDeductions[flag]; ok {
			score -= d
		} else {
			score -= 5
		}
	}
	if score < 0 {
		return 0
	}
	return score
}

// looksLikeRealName reports whether a profile title reads as a real name:
// at least two tokens with a capitalized first rune.
func looksLikeRealName(title string) bool {
	if !strings.Contains(title, " ") {
		return false
	}
	runes := []rune(title)
	return len(runes) > 0 && unicode.IsUpper(runes[0])
}

// SocialAuditor inspects public profiles through a stealth browser session.
type SocialAuditor struct {
	open   browser.Opener
	logger *zap.Logger
}

// NewSocialAuditor builds an auditor on the given session opener.
func NewSocialAuditor(open browser.Opener, logger *zap.Logger) *SocialAuditor {
	return &SocialAuditor{open: open, logger: logger.Named("social")}
}

// Audit inspects one profile URL. Browser failures land in the audit's
// Error field with the platform still resolved.
func (a *SocialAuditor) Audit(ctx context.Context, url string) SocialAudit {
	audit := SocialAudit{
		Platform:      DetectPlatform(url),
		URL:           url,
		VisibleFields: map[string]string{},
		PIIFlags:      []string{},
		PrivacyScore:  100,
	}

	session, err := a.open(ctx)
	if err != nil {
		audit.Error = err.Error()
		return audit
	}
	defer session.Close()

	if err := session.Navigate(ctx, url); err != nil {
		audit.Error = err.Error()
		return audit
	}
	html, err := session.HTML(ctx)
	if err != nil {
		audit.Error = err.Error()
		return audit
	}
	pageText, err := session.BodyText(ctx)
	if err != nil {
		audit.Error = err.Error()
		return audit
	}

	meta := ExtractMetaTags(html)
	if title := meta["og:title"]; title != "" {
		audit.VisibleFields["name"] = title
	}
	if desc := meta["og:description"]; desc != "" {
		audit.VisibleFields["description"] = desc
	}

	allText := strings.Join([]string{pageText, meta["og:title"], meta["og:description"]}, " ")
	audit.PIIFlags = DetectPII(allText)
	if looksLikeRealName(audit.VisibleFields["name"]) {
		audit.PIIFlags = append(audit.PIIFlags, "real_name_visible")
	}
	audit.PrivacyScore = ComputePrivacyScore(audit.PIIFlags)

	a.logger.Info("profile audited",
		zap.String("platform", audit.Platform),
		zap.Int("privacy_score", audit.PrivacyScore),
		zap.Strings("pii_flags", audit.PIIFlags),
	)
	return audit
}

// AuditAll audits profiles sequentially, preserving input order.
func (a *SocialAuditor) AuditAll(ctx context.Context, urls []string) []SocialAudit {
	audits := make([]SocialAudit, 0, len(urls))
	for _, url := range urls {
		audits = append(audits, a.Audit(ctx, url))
	}
	return audits
}
