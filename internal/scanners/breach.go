// Package scanners implements the discovery side of the engine: credential
// breach lookups, paste and dark-web exposure, email and username account
// enumeration, broker site probes, social profile audits and search dork
// generation. Scanners return normalized results; persistence is the
// caller's job.
package scanners

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

const (
	hibpBase     = "https://haveibeenpwned.com/api/v3"
	dehashedBase = "https://api.dehashed.com"

	scannerUserAgent = "DigitalFootprint-Scanner"
)

// HIBPBreach is one breach returned by the Have I Been Pwned API.
type HIBPBreach struct {
	Name        string   `json:"Name"`
	Title       string   `json:"Title"`
	Domain      string   `json:"Domain"`
	BreachDate  string   `json:"BreachDate"`
	DataClasses []string `json:"DataClasses"`
	IsVerified  bool     `json:"IsVerified"`
}

// Severity rates a breach by what leaked. Credential or identity material is
// critical, contact and network data high, everything else medium.
func (b HIBPBreach) Severity() string {
	critical := map[string]bool{
		"Passwords": true, "Credit cards": true, "Social security numbers": true,
	}
	high := map[string]bool{
		"Phone numbers": true, "Physical addresses": true, "IP addresses": true,
	}
	for _, dc := range b.DataClasses {
		if critical[dc] {
			return "critical"
		}
	}
	for _, dc := range b.DataClasses {
		if high[dc] {
			return "high"
		}
	}
	return "medium"
}

// DehashedRecord is one entry from a DeHashed search.
type DehashedRecord struct {
	Email          string `json:"email"`
	Username       string `json:"username"`
	Password       string `json:"password"`
	HashedPassword string `json:"hashed_password"`
	Name           string `json:"name"`
	DatabaseName   string `json:"database_name"`
}

// Severity is critical when a plaintext password leaked, high for a hash,
// medium otherwise.
func (r DehashedRecord) Severity() string {
	if r.Password != "" {
		return "critical"
	}
	if r.HashedPassword != "" {
		return "high"
	}
	return "medium"
}

// BreachReport aggregates all breach checks for one email.
type BreachReport struct {
	Email           string           `json:"email"`
	HIBPBreaches    []HIBPBreach     `json:"hibp_breaches"`
	DehashedRecords []DehashedRecord `json:"dehashed_records"`
}

// Total is the combined breach and record count.
func (r *BreachReport) Total() int {
	return len(r.HIBPBreaches) + len(r.DehashedRecords)
}

// BreachScanner queries HIBP and DeHashed. Checks whose credentials are not
// configured return empty rather than erroring, so a partially configured
// install still scans what it can.
type BreachScanner struct {
	hibpKey       string
	dehashedEmail string
	dehashedKey   string
	hibpURL       string
	dehashedURL   string
	client        *http.Client
	logger        *zap.Logger
}

// NewBreachScanner builds a scanner from API credentials. Empty credentials
// disable the corresponding check.
func NewBreachScanner(hibpKey, dehashedEmail, dehashedKey string, logger *zap.Logger) *BreachScanner {
	return &BreachScanner{
		hibpKey:       hibpKey,
		dehashedEmail: dehashedEmail,
		dehashedKey:   dehashedKey,
		hibpURL:       hibpBase,
		dehashedURL:   dehashedBase,
		client:        &http.Client{Timeout: 15 * time.Second},
		logger:        logger.Named("breach"),
	}
}

// Scan runs all breach checks for an email.
func (s *BreachScanner) Scan(ctx context.Context, email string) (*BreachReport, error) {
	report := &BreachReport{
		Email:           email,
		HIBPBreaches:    []HIBPBreach{},
		DehashedRecords: []DehashedRecord{},
	}

	breaches, err := s.CheckHIBP(ctx, email)
	if err != nil {
		return nil, err
	}
	report.HIBPBreaches = breaches

	records, err := s.CheckDehashed(ctx, email)
	if err != nil {
		return nil, err
	}
	report.DehashedRecords = records

	s.logger.Info("breach scan complete",
		zap.String("email", email),
		zap.Int("hibp", len(breaches)),
		zap.Int("dehashed", len(records)),
	)
	return report, nil
}

// CheckHIBP queries the breachedaccount endpoint. A 404 means the email is
// clean and yields an empty list.
func (s *BreachScanner) CheckHIBP(ctx context.Context, email string) ([]HIBPBreach, error) {
	if s.hibpKey == "" {
		return []HIBPBreach{}, nil
	}

	endpoint := fmt.Sprintf("%s/breachedaccount/%s?truncateResponse=false", s.hibpURL, url.PathEscape(email))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("scanners: hibp request: %w", err)
	}
	req.Header.Set("hibp-api-key", s.hibpKey)
	req.Header.Set("user-agent", scannerUserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("scanners: hibp: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return []HIBPBreach{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("scanners: hibp: unexpected status %d", resp.StatusCode)
	}

	var breaches []HIBPBreach
	if err := json.NewDecoder(resp.Body).Decode(&breaches); err != nil {
		return nil, fmt.Errorf("scanners: hibp decode: %w", err)
	}
	return breaches, nil
}

// CheckDehashed searches DeHashed for records containing the email. Any
// non-200 response yields empty.
func (s *BreachScanner) CheckDehashed(ctx context.Context, email string) ([]DehashedRecord, error) {
	if s.dehashedKey == "" {
		return []DehashedRecord{}, nil
	}

	endpoint := fmt.Sprintf("%s/search?query=%s", s.dehashedURL, url.QueryEscape("email:"+email))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("scanners: dehashed request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(s.dehashedEmail, s.dehashedKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("scanners: dehashed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.logger.Warn("dehashed returned non-200", zap.Int("status", resp.StatusCode))
		return []DehashedRecord{}, nil
	}

	var payload struct {
		Entries []DehashedRecord `json:"entries"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("scanners: dehashed decode: %w", err)
	}
	if payload.Entries == nil {
		payload.Entries = []DehashedRecord{}
	}
	return payload.Entries, nil
}
