package removers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/privacyops/footprint/internal/browser"
	"github.com/privacyops/footprint/internal/db"
)

// fakeSession scripts a browser tab for form-submission tests. Selectors in
// fillable get values set; selectors in clickable accept clicks.
type fakeSession struct {
	html      string
	bodyText  string
	fillable  map[string]bool
	clickable map[string]bool

	setValues map[string]string
	clicked   []string
	closed    bool
}

func (f *fakeSession) Navigate(context.Context, string) error { return nil }
func (f *fakeSession) BodyText(context.Context) (string, error) {
	return f.bodyText, nil
}
func (f *fakeSession) HTML(context.Context) (string, error) { return f.html, nil }
func (f *fakeSession) SetValue(_ context.Context, selector, value string) (bool, error) {
	if !f.fillable[selector] {
		return false, nil
	}
	if f.setValues == nil {
		f.setValues = map[string]string{}
	}
	f.setValues[selector] = value
	return true, nil
}
func (f *fakeSession) Click(_ context.Context, selector string) (bool, error) {
	if !f.clickable[selector] {
		return false, nil
	}
	f.clicked = append(f.clicked, selector)
	return true, nil
}
func (f *fakeSession) Screenshot(context.Context, string) error { return nil }
func (f *fakeSession) Close() error {
	f.closed = true
	return nil
}

func openerFor(s *fakeSession) browser.Opener {
	return func(context.Context) (browser.Session, error) { return s, nil }
}

// submitCtx is pre-cancelled so the post-submit politeness delay returns
// immediately; the fake session ignores the context everywhere else.
func submitCtx() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	return ctx
}

func TestDetectCaptcha(t *testing.T) {
	assert.True(t, DetectCaptcha(`<div class="g-recaptcha"></div>`))
	assert.True(t, DetectCaptcha(`<script src="https://hcaptcha.com/1/api.js">`))
	assert.True(t, DetectCaptcha(`<div class="CF-Turnstile">`))
	assert.False(t, DetectCaptcha(`<form><input name="email"></form>`))
}

func TestBuildFormData(t *testing.T) {
	data := BuildFormData(PersonContext{
		Name:  "John Doe",
		Email: "john@example.com",
		Phone: "555-123-4567",
	})
	assert.Equal(t, "John Doe", data["name"])
	assert.Equal(t, "John", data["first_name"])
	assert.Equal(t, "Doe", data["last_name"])
	assert.Equal(t, "john@example.com", data["email"])
	assert.Empty(t, data["address"])
}

func TestWebFormSubmit(t *testing.T) {
	session := &fakeSession{
		html:     "<form>...</form>",
		bodyText: "Opt-out request received",
		fillable: map[string]bool{
			`input[name*="name" i]:not([name*="user" i])`: true,
			`input[type="email"]`:                         true,
		},
		clickable: map[string]bool{`button[type="submit"]`: true},
	}
	r := NewWebFormRemover(openerFor(session), "", zap.NewNop())
	person := PersonContext{Name: "John Doe", Email: "john@example.com"}
	broker := &db.Broker{Slug: "spokeo", Name: "Spokeo", OptOutURL: "https://spokeo.com/optout"}

	outcome := r.Submit(submitCtx(), person, broker)
	assert.Equal(t, StatusSubmitted, outcome.Status)
	assert.Equal(t, 2, outcome.FieldsFilled)
	assert.True(t, outcome.FormSubmitted)
	assert.True(t, session.closed)
	assert.Equal(t, "John Doe", session.setValues[`input[name*="name" i]:not([name*="user" i])`])
}

func TestWebFormSubmitCaptcha(t *testing.T) {
	session := &fakeSession{html: `<div class="g-recaptcha"></div>`}
	r := NewWebFormRemover(openerFor(session), "", zap.NewNop())
	broker := &db.Broker{Slug: "spokeo", Name: "Spokeo", OptOutURL: "https://spokeo.com/optout"}

	outcome := r.Submit(context.Background(), PersonContext{Name: "John Doe"}, broker)
	assert.Equal(t, StatusCaptchaRequired, outcome.Status)
	assert.Contains(t, outcome.Message, "CAPTCHA detected")
	assert.True(t, session.closed)
}

func TestWebFormSubmitNoForm(t *testing.T) {
	session := &fakeSession{html: "<p>This page has no form</p>", bodyText: "This page has no form"}
	r := NewWebFormRemover(openerFor(session), "", zap.NewNop())
	broker := &db.Broker{Slug: "x", Name: "X", OptOutURL: "https://x.com/optout"}

	outcome := r.Submit(context.Background(), PersonContext{Name: "John Doe"}, broker)
	assert.Equal(t, StatusNoFormFound, outcome.Status)
	assert.Equal(t, "This page has no form", outcome.PageExcerpt)
}

func TestWebFormSubmitFilledNotSubmitted(t *testing.T) {
	session := &fakeSession{
		html:     "<form></form>",
		fillable: map[string]bool{`input[type="email"]`: true},
	}
	r := NewWebFormRemover(openerFor(session), "", zap.NewNop())
	broker := &db.Broker{Slug: "x", Name: "X", OptOutURL: "https://x.com/optout"}

	outcome := r.Submit(submitCtx(), PersonContext{Name: "J", Email: "j@x.com"}, broker)
	assert.Equal(t, StatusFilledNotSubmitted, outcome.Status)
	assert.Equal(t, 1, outcome.FieldsFilled)
	assert.False(t, outcome.FormSubmitted)
}

func TestWebFormSubmitWithoutURL(t *testing.T) {
	r := NewWebFormRemover(openerFor(&fakeSession{}), "", zap.NewNop())
	outcome := r.Submit(context.Background(), PersonContext{}, &db.Broker{Name: "NoURL"})
	assert.Equal(t, StatusError, outcome.Status)
	assert.Contains(t, outcome.Message, "No opt-out URL")
}
