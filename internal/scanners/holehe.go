package scanners

import (
	"context"
	"encoding/csv"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

var (
	highRiskCategories   = map[string]bool{"dating": true, "adult": true, "financial": true, "gambling": true}
	mediumRiskCategories = map[string]bool{"social": true, "photo": true, "video": true, "gaming": true, "forum": true}
)

// HoleheAccount is one service where an email is registered, per holehe.
type HoleheAccount struct {
	Service  string `json:"service"`
	Domain   string `json:"domain"`
	Category string `json:"category"`
}

// RiskLevel classifies the account by its service category.
func (a HoleheAccount) RiskLevel() string {
	if highRiskCategories[a.Category] {
		return "high"
	}
	if mediumRiskCategories[a.Category] {
		return "medium"
	}
	return "low"
}

// HoleheScanner enumerates the services an email address is registered with
// by spawning the holehe CLI. A missing binary, timeout or unparseable
// output yields an empty result, never an error: account enumeration is
// best-effort.
type HoleheScanner struct {
	timeout time.Duration
	logger  *zap.Logger
}

// NewHoleheScanner builds a scanner with the default 60 second timeout.
func NewHoleheScanner(logger *zap.Logger) *HoleheScanner {
	return &HoleheScanner{
		timeout: 60 * time.Second,
		logger:  logger.Named("holehe"),
	}
}

// Scan runs holehe for one email. Arguments are passed as a vector, never
// through a shell.
func (s *HoleheScanner) Scan(ctx context.Context, email string) ([]HoleheAccount, error) {
	tmpDir, err := os.MkdirTemp("", "holehe-")
	if err != nil {
		s.logger.Warn("holehe temp dir failed", zap.Error(err))
		return []HoleheAccount{}, nil
	}
	defer os.RemoveAll(tmpDir)

	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, "holehe", email, "--only-used", "--csv")
	cmd.Dir = tmpDir
	output, err := cmd.Output()
	if err != nil {
		s.logger.Debug("holehe unavailable or failed", zap.Error(err))
		return []HoleheAccount{}, nil
	}

	// holehe --csv writes a holehe_*.csv into the working directory;
	// older builds print CSV rows on stdout instead.
	raw := string(output)
	if csvPath := findHoleheCSV(tmpDir); csvPath != "" {
		data, readErr := os.ReadFile(csvPath)
		if readErr == nil {
			raw = string(data)
		}
	}

	accounts := ParseHoleheOutput(raw)
	s.logger.Info("holehe scan complete", zap.String("email", email), zap.Int("accounts", len(accounts)))
	return accounts, nil
}

func findHoleheCSV(dir string) string {
	matches, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil || len(matches) == 0 {
		return ""
	}
	return matches[0]
}

// ParseHoleheOutput accepts both output shapes holehe has shipped: a CSV
// with a header row of Name,Domain,Exists columns, and the legacy headerless
// "service,Used,category" rows. Rows whose existence column is not truthy
// are dropped.
func ParseHoleheOutput(raw string) []HoleheAccount {
	reader := csv.NewReader(strings.NewReader(strings.TrimSpace(raw)))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil || len(records) == 0 {
		return []HoleheAccount{}
	}

	first := records[0]
	if isHoleheHeader(first) {
		return parseHeaderRows(first, records[1:])
	}
	return parseLegacyRows(records)
}

func isHoleheHeader(row []string) bool {
	for _, cell := range row {
		switch strings.ToLower(strings.TrimSpace(cell)) {
		case "name", "exists", "domain":
			return true
		}
	}
	return false
}

// parseHeaderRows reads the headered shape, locating the name, domain and
// exists columns by header label.
func parseHeaderRows(header []string, rows [][]string) []HoleheAccount {
	nameIdx, domainIdx, existsIdx := -1, -1, -1
	for i, cell := range header {
		switch strings.ToLower(strings.TrimSpace(cell)) {
		case "name":
			nameIdx = i
		case "domain":
			domainIdx = i
		case "exists":
			existsIdx = i
		}
	}
	if nameIdx < 0 || existsIdx < 0 {
		return []HoleheAccount{}
	}

	accounts := []HoleheAccount{}
	for _, row := range rows {
		if len(row) <= nameIdx || len(row) <= existsIdx {
			continue
		}
		if !truthy(row[existsIdx]) {
			continue
		}
		acct := HoleheAccount{Service: strings.TrimSpace(row[nameIdx])}
		if domainIdx >= 0 && len(row) > domainIdx {
			acct.Domain = strings.TrimSpace(row[domainIdx])
		}
		accounts = append(accounts, acct)
	}
	return accounts
}

// parseLegacyRows reads the headerless "service,Used,category" shape.
func parseLegacyRows(rows [][]string) []HoleheAccount {
	accounts := []HoleheAccount{}
	for _, row := range rows {
		if len(row) < 2 {
			continue
		}
		if strings.TrimSpace(row[1]) != "Used" {
			continue
		}
		acct := HoleheAccount{
			Service:  strings.TrimSpace(row[0]),
			Category: "other",
		}
		if len(row) > 2 && strings.TrimSpace(row[2]) != "" {
			acct.Category = strings.TrimSpace(row[2])
		}
		accounts = append(accounts, acct)
	}
	return accounts
}

func truthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "1", "used":
		return true
	}
	return false
}
