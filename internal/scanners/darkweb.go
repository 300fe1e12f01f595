package scanners

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const ahmiaBase = "https://ahmia.fi"

// Paste is one appearance of an email on a paste site, from the HIBP paste
// endpoint.
type Paste struct {
	Source     string `json:"Source"`
	ID         string `json:"Id"`
	Title      string `json:"Title"`
	Date       string `json:"Date"`
	EmailCount int    `json:"EmailCount"`
}

// Severity of a paste appearance is always high.
func (Paste) Severity() string { return "high" }

// AhmiaResult is one hit from the Ahmia.fi clearnet search over Tor hidden
// services.
type AhmiaResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Severity is critical when the title or snippet mentions credential
// material, high otherwise.
func (a AhmiaResult) Severity() string {
	keywords := []string{"password", "credential", "dump", "leak", "breach"}
	text := strings.ToLower(a.Title + " " + a.Snippet)
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return "critical"
		}
	}
	return "high"
}

// DarkWebScan aggregates the paste, Ahmia and holehe checks for one email.
type DarkWebScan struct {
	Email    string          `json:"email"`
	Pastes   []Paste         `json:"pastes"`
	Ahmia    []AhmiaResult   `json:"ahmia_results"`
	Accounts []HoleheAccount `json:"holehe_results"`
}

// Total is the combined finding count across all three sources.
func (s *DarkWebScan) Total() int {
	return len(s.Pastes) + len(s.Ahmia) + len(s.Accounts)
}

// DarkWebScanner combines the HIBP paste endpoint, Ahmia search and holehe
// account enumeration.
type DarkWebScanner struct {
	hibpKey  string
	hibpURL  string
	ahmiaURL string
	holehe   *HoleheScanner
	client   *http.Client
	logger   *zap.Logger
}

// NewDarkWebScanner builds the combined scanner. An empty HIBP key disables
// the paste check.
func NewDarkWebScanner(hibpKey string, logger *zap.Logger) *DarkWebScanner {
	return &DarkWebScanner{
		hibpKey:  hibpKey,
		hibpURL:  hibpBase,
		ahmiaURL: ahmiaBase,
		holehe:   NewHoleheScanner(logger),
		client:   &http.Client{Timeout: 15 * time.Second},
		logger:   logger.Named("darkweb"),
	}
}

// Scan runs all three checks concurrently. Each source lands in its own
// result slot, so concurrency does not disturb report ordering. A failing
// source fails the scan; callers that prefer partial results handle the
// error and use what is filled.
func (s *DarkWebScanner) Scan(ctx context.Context, email string) (*DarkWebScan, error) {
	result := &DarkWebScan{
		Email:    email,
		Pastes:   []Paste{},
		Ahmia:    []AhmiaResult{},
		Accounts: []HoleheAccount{},
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		pastes, err := s.CheckPastes(gctx, email)
		if err != nil {
			return err
		}
		result.Pastes = pastes
		return nil
	})
	g.Go(func() error {
		hits, err := s.SearchAhmia(gctx, email)
		if err != nil {
			return err
		}
		result.Ahmia = hits
		return nil
	})
	g.Go(func() error {
		accounts, err := s.holehe.Scan(gctx, email)
		if err != nil {
			return err
		}
		result.Accounts = accounts
		return nil
	})

	if err := g.Wait(); err != nil {
		return result, err
	}

	s.logger.Info("dark web scan complete",
		zap.String("email", email),
		zap.Int("pastes", len(result.Pastes)),
		zap.Int("ahmia", len(result.Ahmia)),
		zap.Int("accounts", len(result.Accounts)),
	)
	return result, nil
}

// CheckPastes queries the HIBP pasteaccount endpoint. Any non-200 response,
// including the 404 for a clean email, yields empty.
func (s *DarkWebScanner) CheckPastes(ctx context.Context, email string) ([]Paste, error) {
	if s.hibpKey == "" {
		return []Paste{}, nil
	}

	endpoint := fmt.Sprintf("%s/pasteaccount/%s", s.hibpURL, url.PathEscape(email))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("scanners: paste request: %w", err)
	}
	req.Header.Set("hibp-api-key", s.hibpKey)
	req.Header.Set("user-agent", scannerUserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("scanners: pastes: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return []Paste{}, nil
	}

	var pastes []Paste
	if err := json.NewDecoder(resp.Body).Decode(&pastes); err != nil {
		return nil, fmt.Errorf("scanners: pastes decode: %w", err)
	}
	if pastes == nil {
		pastes = []Paste{}
	}
	return pastes, nil
}

// SearchAhmia issues a single clearnet GET against the Ahmia search page and
// parses the result list out of the HTML.
func (s *DarkWebScanner) SearchAhmia(ctx context.Context, email string) ([]AhmiaResult, error) {
	endpoint := fmt.Sprintf("%s/search/?q=%s", s.ahmiaURL, url.QueryEscape(email))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("scanners: ahmia request: %w", err)
	}
	req.Header.Set("user-agent", scannerUserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("scanners: ahmia: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return []AhmiaResult{}, nil
	}

	return parseAhmiaResults(resp.Body)
}

// parseAhmiaResults extracts hits from Ahmia's result markup, a list of
// <li class="result"> items each holding an <h4><a href> title and a <p>
// snippet. Markup that doesn't match yields no results, not an error.
func parseAhmiaResults(r io.Reader) ([]AhmiaResult, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("scanners: ahmia parse: %w", err)
	}

	results := []AhmiaResult{}
	doc.Find("li.result").Each(func(_ int, sel *goquery.Selection) {
		link := sel.Find("h4 a").First()
		href, ok := link.Attr("href")
		if !ok {
			return
		}
		results = append(results, AhmiaResult{
			Title:   strings.TrimSpace(link.Text()),
			URL:     strings.TrimSpace(href),
			Snippet: strings.TrimSpace(sel.Find("p").First().Text()),
		})
	})
	return results, nil
}

// FormatReport renders a dark web scan as Markdown, with registered services
// grouped by risk level.
func FormatReport(scan *DarkWebScan) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Dark Web Monitoring Report\n\n")
	fmt.Fprintf(&b, "**Email:** %s\n", scan.Email)
	fmt.Fprintf(&b, "**Total Findings:** %d\n\n", scan.Total())

	fmt.Fprintf(&b, "## Paste Site Exposure (%d found)\n\n", len(scan.Pastes))
	if len(scan.Pastes) > 0 {
		for _, p := range scan.Pastes {
			title := p.Title
			if title == "" {
				title = "Untitled"
			}
			fmt.Fprintf(&b, "- **%s**: %s (%s)\n", p.Source, title, p.Severity())
		}
	} else {
		b.WriteString("No paste site exposure detected.\n")
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "## Dark Web References (%d found)\n\n", len(scan.Ahmia))
	if len(scan.Ahmia) > 0 {
		for _, a := range scan.Ahmia {
			fmt.Fprintf(&b, "- **%s**: %s (%s)\n", a.Title, a.URL, a.Severity())
		}
	} else {
		b.WriteString("No dark web references found.\n")
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "## Email Registered Services (%d found)\n\n", len(scan.Accounts))
	if len(scan.Accounts) > 0 {
		for _, level := range []string{"high", "medium", "low"} {
			var names []string
			for _, acct := range scan.Accounts {
				if acct.RiskLevel() == level {
					names = append(names, acct.Service)
				}
			}
			if len(names) == 0 {
				continue
			}
			fmt.Fprintf(&b, "**%s Risk:**\n", strings.ToUpper(level[:1])+level[1:])
			for _, name := range names {
				fmt.Fprintf(&b, "  - %s\n", name)
			}
		}
	} else {
		b.WriteString("No registered services detected.\n")
	}
	b.WriteString("\n")

	return b.String()
}
