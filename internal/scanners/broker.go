package scanners

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/privacyops/footprint/internal/browser"
	"github.com/privacyops/footprint/internal/db"
)

// BrokerHit is the outcome of probing one broker site for a person.
type BrokerHit struct {
	BrokerSlug string `json:"broker_slug"`
	BrokerName string `json:"broker_name"`
	URL        string `json:"url"`
	Found      bool   `json:"found"`
	PageText   string `json:"page_text,omitempty"`
	Error      string `json:"error,omitempty"`
}

// RiskLevel is high when the person was found, low otherwise.
func (h BrokerHit) RiskLevel() string {
	if h.Found {
		return "high"
	}
	return "low"
}

// BuildSearchURL expands a broker's search URL pattern. Placeholders with no
// value become empty strings.
func BuildSearchURL(pattern, first, last, state, city string) string {
	replacer := strings.NewReplacer(
		"{first}", first,
		"{last}", last,
		"{state}", state,
		"{city}", city,
	)
	return replacer.Replace(pattern)
}

// NameInPage reports whether both the first and last name appear in the page
// text, case-insensitive. Requiring both keeps false positives from common
// first names down.
func NameInPage(pageText, first, last string) bool {
	lower := strings.ToLower(pageText)
	return strings.Contains(lower, strings.ToLower(first)) &&
		strings.Contains(lower, strings.ToLower(last))
}

// BrokerScanner probes broker sites for a person's listing through a stealth
// browser session.
type BrokerScanner struct {
	open   browser.Opener
	logger *zap.Logger
}

// NewBrokerScanner builds a scanner on the given session opener.
func NewBrokerScanner(open browser.Opener, logger *zap.Logger) *BrokerScanner {
	return &BrokerScanner{open: open, logger: logger.Named("broker")}
}

// Scan probes one broker. Navigation or session failures land in the hit's
// Error field with Found false; the person's data may well still be listed,
// but an unreachable probe is not evidence either way.
func (s *BrokerScanner) Scan(ctx context.Context, broker *db.Broker, first, last, state, city string) BrokerHit {
	hit := BrokerHit{
		BrokerSlug: broker.Slug,
		BrokerName: broker.Name,
		URL:        BuildSearchURL(broker.SearchURLPattern, first, last, state, city),
	}

	session, err := s.open(ctx)
	if err != nil {
		hit.Error = err.Error()
		return hit
	}
	defer session.Close()
	defer browser.Delay(ctx)

	if err := session.Navigate(ctx, hit.URL); err != nil {
		hit.Error = err.Error()
		return hit
	}
	pageText, err := session.BodyText(ctx)
	if err != nil {
		hit.Error = err.Error()
		return hit
	}

	hit.Found = NameInPage(pageText, first, last)
	if hit.Found {
		if len(pageText) > 500 {
			pageText = pageText[:500]
		}
		hit.PageText = pageText
	}
	return hit
}

// ScanAll probes every broker that has a search URL pattern, in input order.
// Brokers without a pattern cannot be probed and are skipped.
func (s *BrokerScanner) ScanAll(ctx context.Context, brokers []db.Broker, first, last, state, city string) []BrokerHit {
	hits := []BrokerHit{}
	for i := range brokers {
		if brokers[i].SearchURLPattern == "" {
			continue
		}
		hit := s.Scan(ctx, &brokers[i], first, last, state, city)
		if hit.Error != "" {
			s.logger.Warn("broker probe failed",
				zap.String("broker", hit.BrokerSlug),
				zap.String("error", hit.Error),
			)
		}
		hits = append(hits, hit)
	}
	return hits
}
