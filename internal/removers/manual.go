package removers

import (
	"context"
	"fmt"
	"strings"

	"github.com/privacyops/footprint/internal/db"
)

// ManualRemover generates opt-out instructions for phone and mail methods,
// and for brokers with no declared method at all. It performs no I/O.
type ManualRemover struct{}

// NewManualRemover builds the handler.
func NewManualRemover() *ManualRemover {
	return &ManualRemover{}
}

// Submit renders a step-by-step instruction block for the operator.
func (r *ManualRemover) Submit(_ context.Context, person PersonContext, broker *db.Broker) Outcome {
	method := broker.OptOutMethod
	if method == "" {
		method = "unknown"
	}

	var b strings.Builder
	title := fmt.Sprintf("Removal Instructions for %s", broker.Name)
	b.WriteString(title + "\n")
	b.WriteString(strings.Repeat("=", len(title)) + "\n\n")
	fmt.Fprintf(&b, "Method: %s\n", strings.ToUpper(method))

	if method == "phone" && broker.OptOutPhone != "" {
		fmt.Fprintf(&b, "Phone: %s\n", broker.OptOutPhone)
	}
	if method == "mail" && broker.OptOutMailAddress != "" {
		fmt.Fprintf(&b, "Mail to: %s\n", broker.OptOutMailAddress)
	}

	b.WriteString("\nYour information to reference:\n")
	fmt.Fprintf(&b, "  Name: %s\n", person.Name)
	fmt.Fprintf(&b, "  Email: %s\n", person.Email)
	if person.Phone != "" {
		fmt.Fprintf(&b, "  Phone: %s\n", person.Phone)
	}
	if person.Address != "" {
		fmt.Fprintf(&b, "  Address: %s\n", person.Address)
	}

	b.WriteString("\n")
	if len(broker.OptOutSteps) > 0 {
		b.WriteString("Steps:\n")
		for i, step := range broker.OptOutSteps {
			fmt.Fprintf(&b, "  %d. %s\n", i+1, step)
		}
	} else {
		fmt.Fprintf(&b, "Contact %s using the method above and request removal of your personal data.\n", broker.Name)
	}

	return Outcome{
		Status:       StatusInstructionsGenerated,
		Method:       method,
		Instructions: b.String(),
	}
}
