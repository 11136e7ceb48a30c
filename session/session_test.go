package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/statekit/config"
	"github.com/c360/statekit/element"
	"github.com/c360/statekit/naming"
	"github.com/c360/statekit/validation"
)

// testConfig keeps tests hermetic: no metrics endpoint, no event stream.
func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Metrics.Enabled = false
	return cfg
}

func addElement(t *testing.T, s *Session, name string) *element.Element {
	t.Helper()
	node, err := s.Naming.Root().CreateChild(name, naming.ChildOptions{Required: true, Supplied: true})
	require.NoError(t, err)
	e := element.New(node,
		element.WithRecorder(s.Recorder),
		element.WithMetrics(s.Metrics.Metrics),
	)
	require.NoError(t, e.Initialize())
	return e
}

func TestNewWiresEverything(t *testing.T) {
	s, err := New(testConfig())
	require.NoError(t, err)
	defer s.Close()

	assert.NotNil(t, s.Naming)
	assert.NotNil(t, s.Types)
	assert.NotNil(t, s.Validator)
	assert.NotNil(t, s.Recorder)
	assert.NotNil(t, s.Metrics)
	assert.Equal(t, "sim", s.Naming.Root().Name())
	assert.True(t, s.Validator.Enabled())
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Session.Name = ""
	_, err := New(cfg)
	require.Error(t, err)
}

func TestLaunchFlushesRegistrations(t *testing.T) {
	s, err := New(testConfig())
	require.NoError(t, err)
	defer s.Close()

	e := addElement(t, s, "model")
	require.NoError(t, s.Launch())
	assert.True(t, s.Naming.Launched())
	assert.Equal(t, "sim.model", e.Path())
}

func TestMarkStartupCompleteClosesStaticSurface(t *testing.T) {
	s, err := New(testConfig())
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Launch())

	addElement(t, s, "early")
	require.NoError(t, s.MarkStartupComplete())
	addElement(t, s, "late")

	violations := s.Validator.Violations()
	require.Len(t, violations, 1)
	assert.Equal(t, validation.KindStaticRegistration, violations[0].Kind)
}

func TestMarkStartupCompleteDiffsOverrides(t *testing.T) {
	dir := t.TempDir()
	overridesPath := filepath.Join(dir, "overrides.json")
	require.NoError(t, os.WriteFile(overridesPath,
		[]byte(`{"sim.ghost": {"readOnly": true}}`), 0o600))

	cfg := testConfig()
	cfg.Validation.OverridesPath = overridesPath

	s, err := New(cfg)
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Launch())

	addElement(t, s, "model")
	require.NoError(t, s.MarkStartupComplete())

	violations := s.Validator.Violations()
	require.Len(t, violations, 1)
	assert.Equal(t, validation.KindUnknownOverride, violations[0].Kind)
	assert.Error(t, s.Validator.Err())
}

func TestMarkStartupCompleteWithBaselineFile(t *testing.T) {
	dir := t.TempDir()
	baselinePath := filepath.Join(dir, "baseline.json")
	require.NoError(t, os.WriteFile(baselinePath,
		[]byte(`{"sim.model": {"path": "sim.model", "typeName": "ObjectIO", "readOnly": false}}`), 0o600))
	overridesPath := filepath.Join(dir, "overrides.json")
	require.NoError(t, os.WriteFile(overridesPath,
		[]byte(`{"sim.model": {"readOnly": true}}`), 0o600))

	cfg := testConfig()
	cfg.Validation.BaselinePath = baselinePath
	cfg.Validation.OverridesPath = overridesPath

	s, err := New(cfg)
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Launch())
	require.NoError(t, s.MarkStartupComplete())

	assert.Empty(t, s.Validator.Violations())
}

func TestMarkStartupCompleteReportsLoadFailure(t *testing.T) {
	cfg := testConfig()
	cfg.Validation.OverridesPath = filepath.Join(t.TempDir(), "absent.json")

	s, err := New(cfg)
	require.NoError(t, err)
	defer s.Close()

	require.Error(t, s.MarkStartupComplete())
}

func TestDisabledValidation(t *testing.T) {
	cfg := testConfig()
	cfg.Validation.Enabled = false

	s, err := New(cfg)
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Launch())
	require.NoError(t, s.MarkStartupComplete())

	addElement(t, s, "late")
	assert.Empty(t, s.Validator.Violations())
}

func TestCloseChecksBracketBalance(t *testing.T) {
	s, err := New(testConfig())
	require.NoError(t, err)
	require.NoError(t, s.Launch())

	e := addElement(t, s, "model")
	require.NoError(t, e.StartEvent("changed", nil))

	assert.Error(t, s.Close())
}

func TestDefaultIsSingleton(t *testing.T) {
	assert.Same(t, Default(), Default())
}
