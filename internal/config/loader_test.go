package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 0.5, cfg.Detection.FuzzyFloor)
	assert.Equal(t, 0.1, cfg.Detection.AmbiguityGap)
	assert.Equal(t, 0.8, cfg.Validation.TrustThreshold)
	assert.Equal(t, 0.5, cfg.Validation.MinConfidence)
	assert.Equal(t, 0.7, cfg.Validation.ConfusableThreshold)
	assert.Equal(t, "confirm", cfg.Safeguard.Policy)
	assert.Equal(t, 30*time.Second, cfg.Safeguard.ConfirmTimeout.Duration())
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.NotEmpty(t, cfg.Registry.Path)
	assert.NotEmpty(t, cfg.Audit.Path)
}

func TestLoad_FromFile(t *testing.T) {
	path := writeConfigFile(t, `
registry:
  path: /tmp/projectd-test/registry.json
audit:
  path: /tmp/projectd-test/audit.jsonl
detection:
  fuzzy_floor: 0.6
safeguard:
  policy: block
  confirm_timeout: 5s
logging:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/projectd-test/registry.json", cfg.Registry.Path)
	assert.Equal(t, 0.6, cfg.Detection.FuzzyFloor)
	// Unset fields keep defaults
	assert.Equal(t, 0.1, cfg.Detection.AmbiguityGap)
	assert.Equal(t, "block", cfg.Safeguard.Policy)
	assert.Equal(t, 5*time.Second, cfg.Safeguard.ConfirmTimeout.Duration())
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfigFile(t, `
safeguard:
  policy: block
`)
	t.Setenv("PROJECTD_SAFEGUARD_POLICY", "allow")
	t.Setenv("PROJECTD_DETECTION_FUZZY_FLOOR", "0.65")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "allow", cfg.Safeguard.Policy)
	assert.Equal(t, 0.65, cfg.Detection.FuzzyFloor)
}

func TestLoad_RejectsInsecurePermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: info\n"), 0644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insecure config file permissions")
}

func TestLoad_RejectsInvalidPolicy(t *testing.T) {
	path := writeConfigFile(t, `
safeguard:
  policy: maybe
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "safeguard.policy")
}

func TestLoad_RejectsMalformedYAML(t *testing.T) {
	path := writeConfigFile(t, "registry: [unclosed")

	_, err := Load(path)
	require.Error(t, err)
}

func TestDuration_UnmarshalText(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    time.Duration
		wantErr bool
	}{
		{name: "seconds", text: "30s", want: 30 * time.Second},
		{name: "minutes", text: "2m", want: 2 * time.Minute},
		{name: "negative", text: "-5s", wantErr: true},
		{name: "garbage", text: "soon", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Duration
			err := d.UnmarshalText([]byte(tt.text))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Duration())
		})
	}
}

func TestConfig_ValidateThresholdRange(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	cfg.Validation.TrustThreshold = 1.5
	assert.Error(t, cfg.Validate())
}
