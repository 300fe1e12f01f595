package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/privacyops/footprint/internal/db"
)

func newTestStores(t *testing.T) *Stores {
	t.Helper()
	database, err := db.New(db.Config{
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "test.db"),
		Logger: zap.NewNop(),
	})
	require.NoError(t, err)
	return New(database)
}

func TestPersonRoundTrip(t *testing.T) {
	stores := newTestStores(t)
	ctx := context.Background()

	person := &db.Person{
		Name:      "John Doe",
		Relation:  "self",
		Emails:    db.JSONList{"john@example.com", "jd@backup.com"},
		Phones:    db.JSONList{"555-123-4567"},
		Usernames: db.JSONList{"johndoe"},
	}
	require.NoError(t, stores.Persons.Create(ctx, person))
	require.NotZero(t, person.ID)

	got, err := stores.Persons.GetByID(ctx, person.ID)
	require.NoError(t, err)
	assert.Equal(t, "John Doe", got.Name)
	assert.Equal(t, db.JSONList{"john@example.com", "jd@backup.com"}, got.Emails)
	assert.Equal(t, "john@example.com", got.Emails.First())

	got.Name = "John Q. Doe"
	require.NoError(t, stores.Persons.Update(ctx, got))
	updated, err := stores.Persons.GetByID(ctx, person.ID)
	require.NoError(t, err)
	assert.Equal(t, "John Q. Doe", updated.Name)

	all, err := stores.Persons.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestPersonNotFound(t *testing.T) {
	stores := newTestStores(t)
	_, err := stores.Persons.GetByID(context.Background(), 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBrokerUpsertIdempotent(t *testing.T) {
	stores := newTestStores(t)
	ctx := context.Background()

	broker := &db.Broker{Slug: "spokeo", Name: "Spokeo", URL: "https://spokeo.com", Category: "people_search"}
	require.NoError(t, stores.Brokers.UpsertBySlug(ctx, broker))

	// Same slug with changed fields replaces the row instead of duplicating.
	again := &db.Broker{Slug: "spokeo", Name: "Spokeo Inc", URL: "https://www.spokeo.com", Category: "people_search", Automatable: true}
	require.NoError(t, stores.Brokers.UpsertBySlug(ctx, again))

	got, err := stores.Brokers.GetBySlug(ctx, "spokeo")
	require.NoError(t, err)
	assert.Equal(t, "Spokeo Inc", got.Name)
	assert.True(t, got.Automatable)

	all, err := stores.Brokers.List(ctx, BrokerFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestBrokerListFilters(t *testing.T) {
	stores := newTestStores(t)
	ctx := context.Background()

	seed := []*db.Broker{
		{Slug: "a", Name: "A", URL: "https://a.com", Category: "people_search", Difficulty: "easy", Automatable: true},
		{Slug: "b", Name: "B", URL: "https://b.com", Category: "people_search", Difficulty: "hard"},
		{Slug: "c", Name: "C", URL: "https://c.com", Category: "marketing", Difficulty: "easy"},
	}
	for _, b := range seed {
		require.NoError(t, stores.Brokers.UpsertBySlug(ctx, b))
	}

	byCategory, err := stores.Brokers.List(ctx, BrokerFilter{Category: "people_search"})
	require.NoError(t, err)
	assert.Len(t, byCategory, 2)

	byDifficulty, err := stores.Brokers.List(ctx, BrokerFilter{Difficulty: "easy"})
	require.NoError(t, err)
	assert.Len(t, byDifficulty, 2)

	automatable := true
	byAuto, err := stores.Brokers.List(ctx, BrokerFilter{Automatable: &automatable})
	require.NoError(t, err)
	require.Len(t, byAuto, 1)
	assert.Equal(t, "a", byAuto[0].Slug)

	stats, err := stores.Brokers.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Total)
	assert.Equal(t, int64(2), stats.ByCategory["people_search"])
	assert.Equal(t, int64(1), stats.Automatable)
}

func TestPendingVerifications(t *testing.T) {
	stores := newTestStores(t)
	ctx := context.Background()
	now := time.Now().UTC()

	person := &db.Person{Name: "John Doe"}
	require.NoError(t, stores.Persons.Create(ctx, person))
	broker := &db.Broker{Slug: "spokeo", Name: "Spokeo", URL: "https://spokeo.com", Category: "people_search"}
	require.NoError(t, stores.Brokers.UpsertBySlug(ctx, broker))
	stored, err := stores.Brokers.GetBySlug(ctx, "spokeo")
	require.NoError(t, err)

	past := now.Add(-time.Hour)
	earlier := now.Add(-2 * time.Hour)
	future := now.Add(time.Hour)

	rows := []*db.Removal{
		{PersonID: person.ID, BrokerID: stored.ID, Method: "email", Status: "submitted", NextCheckAt: &past},
		{PersonID: person.ID, BrokerID: stored.ID, Method: "email", Status: "still_found", NextCheckAt: &earlier},
		{PersonID: person.ID, BrokerID: stored.ID, Method: "email", Status: "submitted", NextCheckAt: &future},
		{PersonID: person.ID, BrokerID: stored.ID, Method: "email", Status: "confirmed", NextCheckAt: &past},
		{PersonID: person.ID, BrokerID: stored.ID, Method: "email", Status: "submitted"},
	}
	for _, r := range rows {
		require.NoError(t, stores.Removals.Create(ctx, r))
	}

	due, err := stores.Removals.PendingVerifications(ctx, now)
	require.NoError(t, err)
	require.Len(t, due, 2)
	// Ordered by next_check_at ascending: the still_found row is older.
	assert.Equal(t, "still_found", due[0].Status)
	assert.Equal(t, "submitted", due[1].Status)

	counts, err := stores.Removals.StatusCounts(ctx, person.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), counts["submitted"])
	assert.Equal(t, int64(1), counts["confirmed"])
}

func TestBreachStore(t *testing.T) {
	stores := newTestStores(t)
	ctx := context.Background()

	person := &db.Person{Name: "John Doe"}
	require.NoError(t, stores.Persons.Create(ctx, person))

	require.NoError(t, stores.Breaches.Create(ctx, &db.Breach{
		PersonID:   person.ID,
		BreachName: "Adobe",
		BreachDate: "2013-10-04",
		DataTypes:  db.JSONList{"Email addresses", "Passwords"},
		Source:     "hibp",
		Severity:   "critical",
	}))

	breaches, err := stores.Breaches.ListByPerson(ctx, person.ID)
	require.NoError(t, err)
	require.Len(t, breaches, 1)
	assert.Equal(t, db.JSONList{"Email addresses", "Passwords"}, breaches[0].DataTypes)

	count, err := stores.Breaches.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestLastCompletedRunSkipsRunning(t *testing.T) {
	stores := newTestStores(t)
	ctx := context.Background()
	now := time.Now().UTC()

	done := &db.ScheduledRun{JobName: "breach_recheck", StartedAt: now.Add(-time.Hour), Status: "success", Details: `{"new_count": 4}`}
	require.NoError(t, stores.Runs.CreateScheduledRun(ctx, done))
	running := &db.ScheduledRun{JobName: "breach_recheck", StartedAt: now, Status: "running"}
	require.NoError(t, stores.Runs.CreateScheduledRun(ctx, running))

	last, err := stores.Runs.LastRun(ctx, "breach_recheck")
	require.NoError(t, err)
	assert.Equal(t, "running", last.Status)

	completed, err := stores.Runs.LastCompletedRun(ctx, "breach_recheck")
	require.NoError(t, err)
	assert.Equal(t, "success", completed.Status)
	assert.Equal(t, `{"new_count": 4}`, completed.Details)

	_, err = stores.Runs.LastRun(ctx, "never_ran")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoresStatus(t *testing.T) {
	stores := newTestStores(t)
	ctx := context.Background()

	person := &db.Person{Name: "John Doe"}
	require.NoError(t, stores.Persons.Create(ctx, person))
	require.NoError(t, stores.Brokers.UpsertBySlug(ctx, &db.Broker{Slug: "spokeo", Name: "Spokeo", URL: "https://spokeo.com", Category: "people_search"}))
	require.NoError(t, stores.Findings.Create(ctx, &db.Finding{PersonID: person.ID, Source: "broker_scan", FindingType: "listing", Status: "active"}))

	status, err := stores.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), status.Persons)
	assert.Equal(t, int64(1), status.Brokers)
	assert.Equal(t, int64(1), status.Findings["active"])
	assert.Nil(t, status.LastScan)
}
