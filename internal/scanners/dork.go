package scanners

import (
	"fmt"
	"strings"
)

// highRiskDomains are paste and dox hosts whose presence in a search result
// URL marks the result high risk.
var highRiskDomains = []string{
	"pastebin.com", "paste.ee", "ghostbin.com", "hastebin.com",
	"doxbin.com", "doxbin.org",
}

// DorkResult is one raw search hit tagged with the query that produced it.
type DorkResult struct {
	Query   string `json:"query"`
	URL     string `json:"url"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// RiskLevel is high for paste/dox hosts and exposed documents, medium
// otherwise.
func (d DorkResult) RiskLevel() string {
	lower := strings.ToLower(d.URL)
	for _, domain := range highRiskDomains {
		if strings.Contains(lower, domain) {
			return "high"
		}
	}
	if strings.HasSuffix(lower, ".pdf") || strings.HasSuffix(lower, ".doc") || strings.HasSuffix(lower, ".docx") {
		return "high"
	}
	return "medium"
}

// BuildDorkQueries emits the search expressions for a person in a fixed,
// deterministic order. Optional fields that are empty skip their queries.
func BuildDorkQueries(name, email, phone, address string) []string {
	queries := []string{fmt.Sprintf("%q", name)}

	if email != "" {
		queries = append(queries,
			fmt.Sprintf("%q %q", name, email),
			fmt.Sprintf("site:pastebin.com %q", email),
			fmt.Sprintf("%q", email),
		)
	}
	if phone != "" {
		queries = append(queries,
			fmt.Sprintf("%q %q", name, phone),
			fmt.Sprintf("%q", phone),
		)
	}
	if address != "" {
		queries = append(queries, fmt.Sprintf("%q %q", name, address))
	}

	queries = append(queries,
		fmt.Sprintf("filetype:pdf %q", name),
		fmt.Sprintf("filetype:xls %q", name),
	)
	return queries
}

// RawSearchResult is an untagged hit from whatever search backend supplied
// it.
type RawSearchResult struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// ParseSearchResults tags raw search hits with their originating query,
// preserving input order.
func ParseSearchResults(raw []RawSearchResult, query string) []DorkResult {
	results := make([]DorkResult, 0, len(raw))
	for _, r := range raw {
		results = append(results, DorkResult{
			Query:   query,
			URL:     r.URL,
			Title:   r.Title,
			Snippet: r.Snippet,
		})
	}
	return results
}
