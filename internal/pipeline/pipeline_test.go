package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/privacyops/footprint/internal/db"
	"github.com/privacyops/footprint/internal/scanners"
	"github.com/privacyops/footprint/internal/store"
)

type fakeBreachScanner struct {
	reports map[string]*scanners.BreachReport
	err     error
}

func (f *fakeBreachScanner) Scan(_ context.Context, email string) (*scanners.BreachReport, error) {
	if f.err != nil {
		return nil, f.err
	}
	if rep, ok := f.reports[email]; ok {
		return rep, nil
	}
	return &scanners.BreachReport{Email: email}, nil
}

type fakeDarkWebScanner struct {
	scans map[string]*scanners.DarkWebScan
}

func (f *fakeDarkWebScanner) Scan(_ context.Context, email string) (*scanners.DarkWebScan, error) {
	if scan, ok := f.scans[email]; ok {
		return scan, nil
	}
	return &scanners.DarkWebScan{Email: email}, nil
}

func newPipelineFixture(t *testing.T, breaches BreachScanner, darkWeb DarkWebScanner) (*store.Stores, *Pipeline) {
	t.Helper()
	database, err := db.New(db.Config{
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "test.db"),
		Logger: zap.NewNop(),
	})
	require.NoError(t, err)
	stores := store.New(database)
	return stores, New(stores, breaches, darkWeb, zap.NewNop())
}

func TestProtectPerson(t *testing.T) {
	breaches := &fakeBreachScanner{reports: map[string]*scanners.BreachReport{
		"john@example.com": {
			Email: "john@example.com",
			HIBPBreaches: []scanners.HIBPBreach{
				{Name: "Adobe", DataClasses: []string{"Passwords"}},
			},
		},
	}}
	darkWeb := &fakeDarkWebScanner{scans: map[string]*scanners.DarkWebScan{
		"john@example.com": {
			Email:  "john@example.com",
			Pastes: []scanners.Paste{{Source: "Pastebin"}},
		},
	}}
	stores, pl := newPipelineFixture(t, breaches, darkWeb)
	ctx := context.Background()

	person := &db.Person{
		Name:      "John Doe",
		Emails:    db.JSONList{"john@example.com"},
		Usernames: db.JSONList{"johndoe", "jdoe42"},
	}
	require.NoError(t, stores.Persons.Create(ctx, person))

	result, err := pl.ProtectPerson(ctx, person.ID)
	require.NoError(t, err)
	assert.Equal(t, "completed", result.Status)
	assert.Equal(t, 1, result.BreachesFound)
	assert.Equal(t, 1, result.DarkWebFindings)
	assert.Equal(t, 2, result.AccountsFound)
	// critical breach (25) + paste (10)
	assert.Equal(t, 35, result.RiskScore)
	assert.Contains(t, result.Report, "**Subject:** John Doe")

	runs, err := stores.Runs.ListPipelineRunsByPerson(ctx, person.ID)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "completed", runs[0].Status)
	assert.Equal(t, 1, runs[0].BreachesFound)
	assert.Equal(t, 35, runs[0].RiskScore)
	assert.NotNil(t, runs[0].CompletedAt)
}

func TestProtectPersonScannerFailureStillCompletes(t *testing.T) {
	breaches := &fakeBreachScanner{err: errors.New("hibp unreachable")}
	stores, pl := newPipelineFixture(t, breaches, &fakeDarkWebScanner{})
	ctx := context.Background()

	person := &db.Person{Name: "John Doe", Emails: db.JSONList{"john@example.com"}}
	require.NoError(t, stores.Persons.Create(ctx, person))

	result, err := pl.ProtectPerson(ctx, person.ID)
	require.NoError(t, err)
	assert.Equal(t, "completed", result.Status)
	assert.Zero(t, result.BreachesFound)
}

func TestProtectPersonUnknown(t *testing.T) {
	_, pl := newPipelineFixture(t, &fakeBreachScanner{}, &fakeDarkWebScanner{})

	result, err := pl.ProtectPerson(context.Background(), 404)
	require.NoError(t, err)
	assert.Equal(t, "error", result.Status)
	assert.Contains(t, result.Error, "Person 404 not found")
}
