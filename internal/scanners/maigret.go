package scanners

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// UsernameAccount is one site where a username is claimed, per maigret.
type UsernameAccount struct {
	SiteName string   `json:"site_name"`
	URL      string   `json:"url"`
	Tags     []string `json:"tags"`
}

// RiskLevel classifies the account by its site tags, highest tag wins.
func (a UsernameAccount) RiskLevel() string {
	for _, tag := range a.Tags {
		if highRiskCategories[tag] {
			return "high"
		}
	}
	for _, tag := range a.Tags {
		if mediumRiskCategories[tag] {
			return "medium"
		}
	}
	return "low"
}

// UsernameScanner enumerates accounts for a username by spawning the
// maigret CLI and reading its "simple" JSON report. A missing binary or
// report yields empty, best-effort like holehe.
type UsernameScanner struct {
	timeout time.Duration
	logger  *zap.Logger
}

// NewUsernameScanner builds a scanner with the default 120 second timeout.
func NewUsernameScanner(logger *zap.Logger) *UsernameScanner {
	return &UsernameScanner{
		timeout: 120 * time.Second,
		logger:  logger.Named("maigret"),
	}
}

// Scan runs maigret for one username.
func (s *UsernameScanner) Scan(ctx context.Context, username string) ([]UsernameAccount, error) {
	outputDir := filepath.Join(os.TempDir(), "maigret_output")
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("scanners: maigret output dir: %w", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, s.timeout+10*time.Second)
	defer cancel()

	cmd := exec.CommandContext(runCtx, "maigret", username,
		"-J", "simple",
		"--folderoutput", outputDir,
		"--timeout", strconv.Itoa(int(s.timeout.Seconds())),
		"--no-color",
	)
	if err := cmd.Run(); err != nil {
		s.logger.Debug("maigret unavailable or failed", zap.Error(err))
	}

	reportPath := filepath.Join(outputDir, fmt.Sprintf("report_%s_simple.json", username))
	data, err := os.ReadFile(reportPath)
	if err != nil {
		return []UsernameAccount{}, nil
	}

	accounts, err := ParseMaigretReport(data)
	if err != nil {
		s.logger.Warn("maigret report unparseable", zap.String("path", reportPath), zap.Error(err))
		return []UsernameAccount{}, nil
	}

	s.logger.Info("username scan complete", zap.String("username", username), zap.Int("accounts", len(accounts)))
	return accounts, nil
}

// maigretEntry is one site record in the simple JSON report.
type maigretEntry struct {
	Status struct {
		Status   string   `json:"status"`
		SiteName string   `json:"site_name"`
		URL      string   `json:"url"`
		Tags     []string `json:"tags"`
	} `json:"status"`
	URLUser string `json:"url_user"`
}

// ParseMaigretReport reads maigret's simple JSON, a flat map of site name to
// entry. Only "Claimed" entries are returned.
func ParseMaigretReport(data []byte) ([]UsernameAccount, error) {
	var report map[string]maigretEntry
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("scanners: maigret decode: %w", err)
	}

	accounts := []UsernameAccount{}
	for siteName, entry := range report {
		if entry.Status.Status != "Claimed" {
			continue
		}
		acct := UsernameAccount{
			SiteName: entry.Status.SiteName,
			URL:      entry.Status.URL,
			Tags:     entry.Status.Tags,
		}
		if acct.SiteName == "" {
			acct.SiteName = siteName
		}
		if acct.URL == "" {
			acct.URL = entry.URLUser
		}
		if acct.Tags == nil {
			acct.Tags = []string{}
		}
		accounts = append(accounts, acct)
	}
	// Map order is random; keep report ordering stable.
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].SiteName < accounts[j].SiteName })
	return accounts, nil
}
