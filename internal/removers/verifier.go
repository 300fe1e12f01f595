package removers

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/privacyops/footprint/internal/db"
	"github.com/privacyops/footprint/internal/scanners"
	"github.com/privacyops/footprint/internal/store"
)

// MaxVerifyAttempts bounds how many found-true re-checks a removal gets
// before it is declared failed.
const MaxVerifyAttempts = 3

// BrokerProber re-runs the listing probe for verification. Satisfied by
// scanners.BrokerScanner.
type BrokerProber interface {
	Scan(ctx context.Context, broker *db.Broker, first, last, state, city string) scanners.BrokerHit
}

// Verifier confirms removals by re-scanning the broker site for the
// person's listing.
type Verifier struct {
	persons  store.PersonStore
	brokers  store.BrokerStore
	removals store.RemovalStore
	prober   BrokerProber
	logger   *zap.Logger
	now      func() time.Time
}

// NewVerifier wires the verifier over the store and broker scanner.
func NewVerifier(
	persons store.PersonStore,
	brokers store.BrokerStore,
	removals store.RemovalStore,
	prober BrokerProber,
	logger *zap.Logger,
) *Verifier {
	return &Verifier{
		persons:  persons,
		brokers:  brokers,
		removals: removals,
		prober:   prober,
		logger:   logger.Named("verifier"),
		now:      time.Now,
	}
}

// VerifyResult summarises one verification pass.
type VerifyResult struct {
	Checked    int `json:"checked"`
	Confirmed  int `json:"confirmed"`
	StillFound int `json:"still_found"`
	Failed     int `json:"failed"`
	Skipped    int `json:"skipped"`
}

// VerifyDue processes the verification queue in due order. Every processed
// removal gets last_checked_at stamped, whatever the outcome.
func (v *Verifier) VerifyDue(ctx context.Context, now time.Time) (*VerifyResult, error) {
	due, err := v.removals.PendingVerifications(ctx, now)
	if err != nil {
		return nil, err
	}

	result := &VerifyResult{}
	for i := range due {
		if err := v.verifyOne(ctx, &due[i], result); err != nil {
			v.logger.Error("verification failed",
				zap.Int64("removal_id", due[i].ID),
				zap.Error(err),
			)
		}
	}
	v.logger.Info("verification pass complete",
		zap.Int("checked", result.Checked),
		zap.Int("confirmed", result.Confirmed),
		zap.Int("still_found", result.StillFound),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

// verifyOne re-scans one removal. found=false confirms it; found=true
// increments attempts and either fails the removal past the attempt cap or
// reschedules the next check.
func (v *Verifier) verifyOne(ctx context.Context, removal *db.Removal, result *VerifyResult) error {
	broker, err := v.brokers.GetByID(ctx, removal.BrokerID)
	if err != nil {
		return fmt.Errorf("removers: verify broker %d: %w", removal.BrokerID, err)
	}
	person, err := v.persons.GetByID(ctx, removal.PersonID)
	if err != nil {
		return fmt.Errorf("removers: verify person %d: %w", removal.PersonID, err)
	}

	now := v.now()
	removal.LastCheckedAt = &now

	if broker.SearchURLPattern == "" {
		// Nothing to probe; leave the removal as-is apart from the check stamp.
		result.Skipped++
		return v.removals.Update(ctx, removal)
	}

	first, last := SplitName(person.Name)
	hit := v.prober.Scan(ctx, broker, first, last, "", "")
	result.Checked++

	if !hit.Found {
		removal.Status = "confirmed"
		removal.ConfirmedAt = &now
		removal.NextCheckAt = nil
		result.Confirmed++
		return v.removals.Update(ctx, removal)
	}

	removal.Attempts++
	if removal.Attempts > MaxVerifyAttempts {
		removal.Status = "failed"
		removal.NextCheckAt = nil
		removal.Notes = fmt.Sprintf("Still found on %s after %d checks", broker.Name, removal.Attempts)
		result.Failed++
		return v.removals.Update(ctx, removal)
	}

	removal.Status = "still_found"
	next := now.Add(time.Duration(broker.RecheckDays) * 24 * time.Hour)
	removal.NextCheckAt = &next
	result.StillFound++
	return v.removals.Update(ctx, removal)
}
