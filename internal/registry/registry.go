// Package registry loads declarative broker definitions from a directory of
// YAML documents, validates them against the closed category/method/
// difficulty sets, and upserts valid ones into the store. Invalid documents
// are reported and skipped; a bad broker file never fails the process.
package registry

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/privacyops/footprint/internal/db"
	"github.com/privacyops/footprint/internal/store"
)

var (
	validCategories = map[string]bool{
		"people_search": true, "background_check": true, "public_records": true,
		"marketing": true, "social_aggregator": true, "property": true,
		"financial": true, "genealogy": true, "reverse_lookup": true,
		"image_search": true,
	}
	validMethods = map[string]bool{
		"web_form": true, "email": true, "api": true, "phone": true, "mail": true,
	}
	validDifficulties = map[string]bool{
		"easy": true, "medium": true, "hard": true, "manual": true,
	}
)

// brokerDoc is the YAML shape of a single broker definition. The file stem
// becomes the slug.
type brokerDoc struct {
	Name             string `yaml:"name"`
	URL              string `yaml:"url"`
	Category         string `yaml:"category"`
	Difficulty       string `yaml:"difficulty"`
	Automatable      bool   `yaml:"automatable"`
	RecheckDays      *int   `yaml:"recheck_days"`
	CCPACompliant    bool   `yaml:"ccpa_compliant"`
	GDPRCompliant    bool   `yaml:"gdpr_compliant"`
	Notes            string `yaml:"notes"`
	SearchURLPattern string `yaml:"search_url_pattern"`
	OptOut           struct {
		Method      string   `yaml:"method"`
		URL         string   `yaml:"url"`
		Email       string   `yaml:"email"`
		Phone       string   `yaml:"phone"`
		MailAddress string   `yaml:"mail_address"`
		Steps       []string `yaml:"steps"`
	} `yaml:"opt_out"`
}

// LoadError describes one rejected document.
type LoadError struct {
	File   string
	Reason string
}

// Result summarises a registry load.
type Result struct {
	Loaded int
	Errors []LoadError
}

// Validate checks a parsed document against the required fields and closed
// value sets. It returns every problem found, not just the first.
func Validate(doc *brokerDoc) []string {
	var errs []string
	if doc.Name == "" {
		errs = append(errs, "missing required field: name")
	}
	if doc.URL == "" {
		errs = append(errs, "missing required field: url")
	}
	if doc.Category == "" {
		errs = append(errs, "missing required field: category")
	} else if !validCategories[doc.Category] {
		errs = append(errs, fmt.Sprintf("invalid category: %q", doc.Category))
	}
	if doc.Difficulty != "" && !validDifficulties[doc.Difficulty] {
		errs = append(errs, fmt.Sprintf("invalid difficulty: %q", doc.Difficulty))
	}
	if doc.OptOut.Method != "" && !validMethods[doc.OptOut.Method] {
		errs = append(errs, fmt.Sprintf("invalid opt_out method: %q", doc.OptOut.Method))
	}
	return errs
}

// toModel converts a validated document into a Broker record, applying the
// schema defaults.
func toModel(slug string, doc *brokerDoc) *db.Broker {
	difficulty := doc.Difficulty
	if difficulty == "" {
		difficulty = "medium"
	}
	recheckDays := 30
	if doc.RecheckDays != nil {
		recheckDays = *doc.RecheckDays
	}
	steps := db.JSONList(doc.OptOut.Steps)
	if steps == nil {
		steps = db.JSONList{}
	}
	return &db.Broker{
		Slug:              slug,
		Name:              doc.Name,
		URL:               doc.URL,
		Category:          doc.Category,
		OptOutMethod:      doc.OptOut.Method,
		OptOutURL:         doc.OptOut.URL,
		OptOutEmail:       doc.OptOut.Email,
		OptOutPhone:       doc.OptOut.Phone,
		OptOutMailAddress: doc.OptOut.MailAddress,
		OptOutSteps:       steps,
		SearchURLPattern:  doc.SearchURLPattern,
		Difficulty:        difficulty,
		Automatable:       doc.Automatable,
		RecheckDays:       recheckDays,
		CCPACompliant:     doc.CCPACompliant,
		GDPRCompliant:     doc.GDPRCompliant,
		Notes:             doc.Notes,
	}
}

// Registry loads broker YAML files into the store.
type Registry struct {
	brokers store.BrokerStore
	logger  *zap.Logger
}

// New returns a Registry writing through the given BrokerStore.
func New(brokers store.BrokerStore, logger *zap.Logger) *Registry {
	return &Registry{brokers: brokers, logger: logger.Named("registry")}
}

// LoadDir reads every *.yaml / *.yml file in dir whose name does not start
// with an underscore, in sorted filename order, and upserts valid brokers
// by slug. Later loads of the same slug replace prior entries. Invalid
// documents are collected in the result and logged; they never abort the
// load.
func (r *Registry) LoadDir(ctx context.Context, dir string) (*Result, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("registry: read brokers dir: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, "_") {
			continue
		}
		ext := filepath.Ext(name)
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		files = append(files, name)
	}
	sort.Strings(files)

	result := &Result{}
	for _, name := range files {
		path := filepath.Join(dir, name)
		slug := strings.TrimSuffix(name, filepath.Ext(name))

		broker, errs := r.loadFile(path, slug)
		if len(errs) > 0 {
			for _, reason := range errs {
				result.Errors = append(result.Errors, LoadError{File: name, Reason: reason})
			}
			r.logger.Warn("skipping invalid broker definition",
				zap.String("file", name),
				zap.Strings("errors", errs),
			)
			continue
		}

		if err := r.brokers.UpsertBySlug(ctx, broker); err != nil {
			result.Errors = append(result.Errors, LoadError{File: name, Reason: err.Error()})
			r.logger.Error("failed to upsert broker", zap.String("slug", slug), zap.Error(err))
			continue
		}
		result.Loaded++
	}

	r.logger.Info("broker registry loaded",
		zap.Int("loaded", result.Loaded),
		zap.Int("rejected", len(result.Errors)),
	)
	return result, nil
}

func (r *Registry) loadFile(path, slug string) (*db.Broker, []string) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, []string{fmt.Sprintf("read: %v", err)}
	}

	var doc brokerDoc
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, []string{fmt.Sprintf("parse: %v", err)}
	}

	if errs := Validate(&doc); len(errs) > 0 {
		return nil, errs
	}
	return toModel(slug, &doc), nil
}
