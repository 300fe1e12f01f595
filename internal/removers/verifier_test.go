package removers

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/privacyops/footprint/internal/db"
	"github.com/privacyops/footprint/internal/scanners"
	"github.com/privacyops/footprint/internal/store"
)

// fakeProber scripts found/not-found per broker slug.
type fakeProber struct {
	found map[string]bool
	scans int
}

func (f *fakeProber) Scan(_ context.Context, broker *db.Broker, _, _, _, _ string) scanners.BrokerHit {
	f.scans++
	return scanners.BrokerHit{
		BrokerSlug: broker.Slug,
		BrokerName: broker.Name,
		Found:      f.found[broker.Slug],
	}
}

func newVerifierFixture(t *testing.T) (*store.Stores, *fakeProber, *Verifier) {
	t.Helper()
	database, err := db.New(db.Config{
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "test.db"),
		Logger: zap.NewNop(),
	})
	require.NoError(t, err)
	stores := store.New(database)
	prober := &fakeProber{found: map[string]bool{}}
	verifier := NewVerifier(stores.Persons, stores.Brokers, stores.Removals, prober, zap.NewNop())
	return stores, prober, verifier
}

func seedRemoval(t *testing.T, stores *store.Stores, pattern string, status string, attempts int, nextCheck time.Time) (*db.Person, *db.Broker, *db.Removal) {
	t.Helper()
	ctx := context.Background()

	person := &db.Person{Name: "John Doe", Emails: db.JSONList{"john@example.com"}}
	require.NoError(t, stores.Persons.Create(ctx, person))

	broker := &db.Broker{
		Slug: "spokeo", Name: "Spokeo", URL: "https://spokeo.com",
		Category: "people_search", SearchURLPattern: pattern, RecheckDays: 14,
	}
	require.NoError(t, stores.Brokers.UpsertBySlug(ctx, broker))
	stored, err := stores.Brokers.GetBySlug(ctx, "spokeo")
	require.NoError(t, err)

	removal := &db.Removal{
		PersonID:    person.ID,
		BrokerID:    stored.ID,
		Method:      "email",
		Status:      status,
		Attempts:    attempts,
		NextCheckAt: &nextCheck,
	}
	require.NoError(t, stores.Removals.Create(ctx, removal))
	return person, stored, removal
}

func TestVerifyDueConfirmsWhenGone(t *testing.T) {
	stores, prober, verifier := newVerifierFixture(t)
	now := time.Now().UTC()
	_, _, removal := seedRemoval(t, stores, "https://spokeo.com/{first}-{last}", "submitted", 0, now.Add(-time.Hour))
	prober.found["spokeo"] = false

	result, err := verifier.VerifyDue(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Checked)
	assert.Equal(t, 1, result.Confirmed)

	got, err := stores.Removals.GetByID(context.Background(), removal.ID)
	require.NoError(t, err)
	assert.Equal(t, "confirmed", got.Status)
	assert.NotNil(t, got.ConfirmedAt)
	assert.NotNil(t, got.LastCheckedAt)
	assert.Nil(t, got.NextCheckAt)
}

func TestVerifyDueStillFoundReschedules(t *testing.T) {
	stores, prober, verifier := newVerifierFixture(t)
	now := time.Now().UTC()
	_, _, removal := seedRemoval(t, stores, "https://spokeo.com/{first}-{last}", "submitted", 0, now.Add(-time.Hour))
	prober.found["spokeo"] = true

	result, err := verifier.VerifyDue(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 1, result.StillFound)

	got, err := stores.Removals.GetByID(context.Background(), removal.ID)
	require.NoError(t, err)
	assert.Equal(t, "still_found", got.Status)
	assert.Equal(t, 1, got.Attempts)
	require.NotNil(t, got.NextCheckAt)
	// Rescheduled by the broker's recheck interval.
	assert.WithinDuration(t, time.Now().Add(14*24*time.Hour), *got.NextCheckAt, time.Minute)
}

func TestVerifyDueFailsPastAttemptCap(t *testing.T) {
	stores, prober, verifier := newVerifierFixture(t)
	now := time.Now().UTC()
	_, _, removal := seedRemoval(t, stores, "https://spokeo.com/{first}-{last}", "still_found", MaxVerifyAttempts, now.Add(-time.Hour))
	prober.found["spokeo"] = true

	result, err := verifier.VerifyDue(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)

	got, err := stores.Removals.GetByID(context.Background(), removal.ID)
	require.NoError(t, err)
	assert.Equal(t, "failed", got.Status)
	assert.Equal(t, MaxVerifyAttempts+1, got.Attempts)
	assert.Contains(t, got.Notes, "Still found on Spokeo after 4 checks")
	assert.Nil(t, got.NextCheckAt)
}

func TestVerifyDueSkipsWithoutPattern(t *testing.T) {
	stores, prober, verifier := newVerifierFixture(t)
	now := time.Now().UTC()
	_, _, removal := seedRemoval(t, stores, "", "submitted", 0, now.Add(-time.Hour))

	result, err := verifier.VerifyDue(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Skipped)
	assert.Zero(t, result.Checked)
	assert.Zero(t, prober.scans)

	got, err := stores.Removals.GetByID(context.Background(), removal.ID)
	require.NoError(t, err)
	assert.Equal(t, "submitted", got.Status)
	assert.NotNil(t, got.LastCheckedAt)
}

func TestVerifyDueIgnoresNotDue(t *testing.T) {
	stores, prober, verifier := newVerifierFixture(t)
	now := time.Now().UTC()
	seedRemoval(t, stores, "https://spokeo.com/{first}-{last}", "submitted", 0, now.Add(time.Hour))

	result, err := verifier.VerifyDue(context.Background(), now)
	require.NoError(t, err)
	assert.Zero(t, result.Checked)
	assert.Zero(t, prober.scans)
}
