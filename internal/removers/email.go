package removers

import (
	"context"
	"embed"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/privacyops/footprint/internal/db"
	"github.com/privacyops/footprint/internal/notify"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var emailTemplates = template.Must(template.ParseFS(templateFS, "templates/*.tmpl"))

// NewReferenceID mints a removal reference id, REF- followed by eight
// uppercase hex characters.
func NewReferenceID() string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "REF-" + strings.ToUpper(hex[:8])
}

// SelectTemplate picks the legal basis for a broker: CCPA wins over GDPR,
// GDPR over the generic request.
func SelectTemplate(broker *db.Broker) string {
	if broker.CCPACompliant {
		return "ccpa_deletion.tmpl"
	}
	if broker.GDPRCompliant {
		return "gdpr_erasure.tmpl"
	}
	return "generic_removal.tmpl"
}

// EmailRemover submits opt-out requests to a broker's opt-out address.
type EmailRemover struct {
	sender       notify.Sender
	smtpReady    bool
	logger       *zap.Logger
	now          func() time.Time
	newReference func() string
}

// NewEmailRemover builds the handler. smtpReady gates submission: rendering
// works without SMTP, sending does not.
func NewEmailRemover(sender notify.Sender, smtpReady bool, logger *zap.Logger) *EmailRemover {
	return &EmailRemover{
		sender:       sender,
		smtpReady:    smtpReady,
		logger:       logger.Named("remover.email"),
		now:          time.Now,
		newReference: NewReferenceID,
	}
}

type templateData struct {
	Person      PersonContext
	Broker      *db.Broker
	Date        string
	ReferenceID string
}

// RenderEmail renders the removal request for a broker. The template's first
// line carries the subject as "Subject: ..."; the rest is the body.
func (r *EmailRemover) RenderEmail(person PersonContext, broker *db.Broker, referenceID string) (subject, body string, err error) {
	if referenceID == "" {
		referenceID = r.newReference()
	}

	var sb strings.Builder
	data := templateData{
		Person:      person,
		Broker:      broker,
		Date:        r.now().Format("2006-01-02"),
		ReferenceID: referenceID,
	}
	if err := emailTemplates.ExecuteTemplate(&sb, SelectTemplate(broker), data); err != nil {
		return "", "", fmt.Errorf("removers: render template: %w", err)
	}

	lines := strings.Split(strings.TrimSpace(sb.String()), "\n")
	subject = strings.TrimSpace(strings.TrimPrefix(lines[0], "Subject:"))
	body = strings.TrimSpace(strings.Join(lines[1:], "\n"))
	return subject, body, nil
}

// Submit renders and sends the removal request. Missing SMTP configuration
// or a broker without an opt-out address is an error outcome, not a panic.
func (r *EmailRemover) Submit(ctx context.Context, person PersonContext, broker *db.Broker) Outcome {
	if !r.smtpReady {
		return Outcome{
			Status:  StatusError,
			Method:  "email",
			Message: "SMTP not configured. Set SMTP_HOST, SMTP_USER, SMTP_PASSWORD in .env",
		}
	}
	if broker.OptOutEmail == "" {
		return Outcome{
			Status:  StatusError,
			Method:  "email",
			Message: fmt.Sprintf("No opt-out email for %s", broker.Name),
		}
	}

	referenceID := r.newReference()
	subject, body, err := r.RenderEmail(person, broker, referenceID)
	if err != nil {
		return Outcome{Status: StatusError, Method: "email", Message: err.Error()}
	}

	if err := r.sender.Send(ctx, []string{broker.OptOutEmail}, subject, body); err != nil {
		r.logger.Error("removal email failed", zap.String("broker", broker.Slug), zap.Error(err))
		return Outcome{Status: StatusError, Method: "email", Message: err.Error()}
	}

	submittedAt := r.now()
	r.logger.Info("removal email sent",
		zap.String("broker", broker.Slug),
		zap.String("reference", referenceID),
	)
	return Outcome{
		Status:      StatusSubmitted,
		Method:      "email",
		ReferenceID: referenceID,
		Recipient:   broker.OptOutEmail,
		Subject:     subject,
		SubmittedAt: &submittedAt,
	}
}
