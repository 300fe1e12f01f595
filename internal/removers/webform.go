package removers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/privacyops/footprint/internal/browser"
	"github.com/privacyops/footprint/internal/db"
)

// captchaMarkers are the substrings whose presence in page HTML means a
// human has to take over.
var captchaMarkers = []string{
	"recaptcha",
	"hcaptcha",
	"h-captcha",
	"g-recaptcha",
	"captcha",
	"cf-turnstile",
}

// fieldSelectors maps a form-data key to CSS selector candidates tried in
// order. The name selectors exclude username fields.
var fieldSelectors = []struct {
	key       string
	selectors []string
}{
	{"name", []string{
		`input[name*="name" i]:not([name*="user" i])`,
		`input[placeholder*="name" i]`,
		`input[id*="name" i]:not([id*="user" i])`,
		`input[aria-label*="name" i]`,
	}},
	{"first_name", []string{
		`input[name*="first" i]`,
		`input[placeholder*="first" i]`,
		`input[id*="first" i]`,
	}},
	{"last_name", []string{
		`input[name*="last" i]`,
		`input[placeholder*="last" i]`,
		`input[id*="last" i]`,
	}},
	{"email", []string{
		`input[type="email"]`,
		`input[name*="email" i]`,
		`input[placeholder*="email" i]`,
		`input[id*="email" i]`,
	}},
	{"phone", []string{
		`input[type="tel"]`,
		`input[name*="phone" i]`,
		`input[placeholder*="phone" i]`,
		`input[id*="phone" i]`,
	}},
	{"address", []string{
		`input[name*="address" i]`,
		`input[placeholder*="address" i]`,
		`input[id*="address" i]`,
		`textarea[name*="address" i]`,
	}},
}

var submitSelectors = []string{
	`button[type="submit"]`,
	`input[type="submit"]`,
	`form button`,
}

// DetectCaptcha reports whether page HTML carries any known CAPTCHA marker,
// case-insensitive.
func DetectCaptcha(html string) bool {
	lower := strings.ToLower(html)
	for _, marker := range captchaMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// BuildFormData flattens person data into the field keys the selector table
// fills.
func BuildFormData(person PersonContext) map[string]string {
	first, last := SplitName(person.Name)
	return map[string]string{
		"name":       person.Name,
		"first_name": first,
		"last_name":  last,
		"email":      person.Email,
		"phone":      person.Phone,
		"address":    person.Address,
	}
}

// WebFormRemover fills and submits broker opt-out forms through a stealth
// browser session.
type WebFormRemover struct {
	open          browser.Opener
	screenshotDir string
	logger        *zap.Logger
	now           func() time.Time
}

// NewWebFormRemover builds the handler. An empty screenshotDir disables
// screenshots.
func NewWebFormRemover(open browser.Opener, screenshotDir string, logger *zap.Logger) *WebFormRemover {
	return &WebFormRemover{
		open:          open,
		screenshotDir: screenshotDir,
		logger:        logger.Named("remover.webform"),
		now:           time.Now,
	}
}

// Submit navigates to the broker's opt-out page, bails to captcha_required
// on a CAPTCHA marker, fills whatever fields the heuristic selectors match,
// and clicks the first submit button found. The session closes on every
// exit path.
func (r *WebFormRemover) Submit(ctx context.Context, person PersonContext, broker *db.Broker) Outcome {
	if broker.OptOutURL == "" {
		return Outcome{
			Status:  StatusError,
			Method:  "web_form",
			Message: fmt.Sprintf("No opt-out URL for %s", broker.Name),
		}
	}

	session, err := r.open(ctx)
	if err != nil {
		return Outcome{Status: StatusError, Method: "web_form", Message: err.Error()}
	}
	defer session.Close()

	if err := session.Navigate(ctx, broker.OptOutURL); err != nil {
		return Outcome{Status: StatusError, Method: "web_form", Message: err.Error()}
	}

	html, err := session.HTML(ctx)
	if err != nil {
		return Outcome{Status: StatusError, Method: "web_form", Message: err.Error()}
	}
	if DetectCaptcha(html) {
		return Outcome{
			Status:  StatusCaptchaRequired,
			Method:  "web_form",
			URL:     broker.OptOutURL,
			Message: fmt.Sprintf("CAPTCHA detected on %s. Manual action required at %s", broker.Name, broker.OptOutURL),
		}
	}

	formData := BuildFormData(person)
	filled := 0
	for _, field := range fieldSelectors {
		value := formData[field.key]
		if value == "" {
			continue
		}
		for _, selector := range field.selectors {
			ok, err := session.SetValue(ctx, selector, value)
			if err != nil {
				continue
			}
			if ok {
				filled++
				break
			}
		}
	}

	if filled == 0 {
		excerpt := r.pageExcerpt(ctx, session)
		return Outcome{
			Status:      StatusNoFormFound,
			Method:      "web_form",
			URL:         broker.OptOutURL,
			Message:     fmt.Sprintf("No fillable form fields found on %s. Manual action may be required.", broker.Name),
			PageExcerpt: excerpt,
		}
	}

	r.screenshot(ctx, session, broker, "pre_submit")

	submitted := false
	for _, selector := range submitSelectors {
		ok, err := session.Click(ctx, selector)
		if err != nil {
			continue
		}
		if ok {
			submitted = true
			break
		}
	}

	if submitted {
		browser.Delay(ctx)
		r.screenshot(ctx, session, broker, "post_submit")
	}

	status := StatusFilledNotSubmitted
	if submitted {
		status = StatusSubmitted
	}
	submittedAt := r.now()
	r.logger.Info("web form processed",
		zap.String("broker", broker.Slug),
		zap.String("status", status),
		zap.Int("fields_filled", filled),
	)
	return Outcome{
		Status:        status,
		Method:        "web_form",
		URL:           broker.OptOutURL,
		FieldsFilled:  filled,
		FormSubmitted: submitted,
		SubmittedAt:   &submittedAt,
		PageExcerpt:   r.pageExcerpt(ctx, session),
	}
}

func (r *WebFormRemover) pageExcerpt(ctx context.Context, session browser.Session) string {
	text, err := session.BodyText(ctx)
	if err != nil {
		return ""
	}
	if len(text) > 200 {
		text = text[:200]
	}
	return text
}

func (r *WebFormRemover) screenshot(ctx context.Context, session browser.Session, broker *db.Broker, stage string) {
	if r.screenshotDir == "" {
		return
	}
	if err := os.MkdirAll(r.screenshotDir, 0o755); err != nil {
		r.logger.Warn("screenshot dir unavailable", zap.Error(err))
		return
	}
	path := filepath.Join(r.screenshotDir, fmt.Sprintf("%s_%s.png", broker.Slug, stage))
	if err := session.Screenshot(ctx, path); err != nil {
		r.logger.Warn("screenshot failed", zap.String("broker", broker.Slug), zap.Error(err))
	}
}
