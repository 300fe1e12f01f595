package registry

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/privacyops/footprint/internal/db"
	"github.com/privacyops/footprint/internal/store"
)

const validBrokerYAML = `name: Spokeo
url: https://www.spokeo.com
category: people_search
difficulty: easy
automatable: true
recheck_days: 14
ccpa_compliant: true
search_url_pattern: "https://www.spokeo.com/{first}-{last}"
opt_out:
  method: web_form
  url: https://www.spokeo.com/optout
  steps:
    - Find your listing
    - Submit the opt-out form
`

func newRegistryFixture(t *testing.T) (store.BrokerStore, *Registry) {
	t.Helper()
	database, err := db.New(db.Config{
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "test.db"),
		Logger: zap.NewNop(),
	})
	require.NoError(t, err)
	brokers := store.New(database).Brokers
	return brokers, New(brokers, zap.NewNop())
}

func writeBrokerFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadDir(t *testing.T) {
	brokers, reg := newRegistryFixture(t)
	dir := t.TempDir()
	ctx := context.Background()

	writeBrokerFile(t, dir, "spokeo.yaml", validBrokerYAML)
	writeBrokerFile(t, dir, "bad.yaml", "name: Bad\nurl: https://bad.com\ncategory: nonsense\n")
	writeBrokerFile(t, dir, "_template.yaml", validBrokerYAML)
	writeBrokerFile(t, dir, "readme.txt", "not yaml")

	result, err := reg.LoadDir(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Loaded)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "bad.yaml", result.Errors[0].File)
	assert.Contains(t, result.Errors[0].Reason, `invalid category: "nonsense"`)

	broker, err := brokers.GetBySlug(ctx, "spokeo")
	require.NoError(t, err)
	assert.Equal(t, "Spokeo", broker.Name)
	assert.Equal(t, "web_form", broker.OptOutMethod)
	assert.Equal(t, 14, broker.RecheckDays)
	assert.True(t, broker.Automatable)
	assert.Equal(t, db.JSONList{"Find your listing", "Submit the opt-out form"}, broker.OptOutSteps)

	// Underscore-prefixed and non-YAML files never reach the store.
	_, err = brokers.GetBySlug(ctx, "_template")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestLoadDirAppliesDefaults(t *testing.T) {
	brokers, reg := newRegistryFixture(t)
	dir := t.TempDir()
	ctx := context.Background()

	writeBrokerFile(t, dir, "minimal.yml", "name: Minimal\nurl: https://minimal.com\ncategory: marketing\n")

	result, err := reg.LoadDir(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Loaded)

	broker, err := brokers.GetBySlug(ctx, "minimal")
	require.NoError(t, err)
	assert.Equal(t, "medium", broker.Difficulty)
	assert.Equal(t, 30, broker.RecheckDays)
	assert.Equal(t, db.JSONList{}, broker.OptOutSteps)
}

func TestLoadDirReloadReplacesBySlug(t *testing.T) {
	brokers, reg := newRegistryFixture(t)
	dir := t.TempDir()
	ctx := context.Background()

	writeBrokerFile(t, dir, "spokeo.yaml", validBrokerYAML)
	_, err := reg.LoadDir(ctx, dir)
	require.NoError(t, err)

	writeBrokerFile(t, dir, "spokeo.yaml", "name: Spokeo Inc\nurl: https://www.spokeo.com\ncategory: people_search\n")
	result, err := reg.LoadDir(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Loaded)

	all, err := brokers.List(ctx, store.BrokerFilter{})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Spokeo Inc", all[0].Name)
}

func TestValidateCollectsAllProblems(t *testing.T) {
	errs := Validate(&brokerDoc{Difficulty: "impossible"})
	assert.Len(t, errs, 4)
	assert.Contains(t, errs, "missing required field: name")
	assert.Contains(t, errs, "missing required field: url")
	assert.Contains(t, errs, "missing required field: category")
	assert.Contains(t, errs, `invalid difficulty: "impossible"`)
}

func TestLoadDirMissing(t *testing.T) {
	_, reg := newRegistryFixture(t)
	_, err := reg.LoadDir(context.Background(), filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}
