package config

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/fyrsmithlabs/projectd/internal/logging"
)

// Duration wraps time.Duration for text unmarshaling (YAML, env vars).
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	if parsed < 0 {
		return fmt.Errorf("duration cannot be negative: %s", text)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration().String()), nil
}

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Duration().String())
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Config is the root projectd configuration.
type Config struct {
	Registry   RegistryConfig   `koanf:"registry"`
	Audit      AuditConfig      `koanf:"audit"`
	Detection  DetectionConfig  `koanf:"detection"`
	Validation ValidationConfig `koanf:"validation"`
	Safeguard  SafeguardConfig  `koanf:"safeguard"`
	Logging    logging.Config   `koanf:"logging"`
}

// RegistryConfig locates the persisted project registry.
type RegistryConfig struct {
	// Path is the registry document location.
	// Default: ~/.config/projectd/registry.json
	Path string `koanf:"path"`
}

// AuditConfig locates the append-only audit log.
type AuditConfig struct {
	// Path is the audit log location.
	// Default: ~/.config/projectd/audit.jsonl
	Path string `koanf:"path"`
}

// DetectionConfig tunes the detector.
type DetectionConfig struct {
	// FuzzyFloor is the minimum similarity score for the fuzzy-name
	// strategy to emit a candidate at all.
	FuzzyFloor float64 `koanf:"fuzzy_floor"`

	// AmbiguityGap is the maximum confidence gap between the top two
	// candidates (of different projects) for the result to be ambiguous.
	AmbiguityGap float64 `koanf:"ambiguity_gap"`
}

// ValidationConfig tunes the validator.
type ValidationConfig struct {
	// TrustThreshold is the detection confidence above which a conflicting
	// stated project is treated as a mismatch.
	TrustThreshold float64 `koanf:"trust_threshold"`

	// MinConfidence is the minimum top-candidate confidence for a
	// resolution without a stated project to be trusted.
	MinConfidence float64 `koanf:"min_confidence"`

	// ConfusableThreshold is the name similarity above which a different
	// project is flagged as confusable.
	ConfusableThreshold float64 `koanf:"confusable_threshold"`
}

// SafeguardConfig controls the decision policy.
type SafeguardConfig struct {
	// Policy decides what happens on mismatch or low-confidence
	// validation: allow, confirm, or block.
	Policy string `koanf:"policy"`

	// ConfirmTimeout bounds the human confirmation step. A timeout is a
	// negative response.
	ConfirmTimeout Duration `koanf:"confirm_timeout"`
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Registry.Path == "" {
		return fmt.Errorf("registry.path cannot be empty")
	}
	if c.Audit.Path == "" {
		return fmt.Errorf("audit.path cannot be empty")
	}

	for _, th := range []struct {
		name  string
		value float64
	}{
		{"detection.fuzzy_floor", c.Detection.FuzzyFloor},
		{"detection.ambiguity_gap", c.Detection.AmbiguityGap},
		{"validation.trust_threshold", c.Validation.TrustThreshold},
		{"validation.min_confidence", c.Validation.MinConfidence},
		{"validation.confusable_threshold", c.Validation.ConfusableThreshold},
	} {
		if th.value < 0 || th.value > 1 {
			return fmt.Errorf("%s must be in [0,1], got %v", th.name, th.value)
		}
	}

	switch c.Safeguard.Policy {
	case "allow", "confirm", "block":
	default:
		return fmt.Errorf("safeguard.policy must be allow, confirm, or block, got %q", c.Safeguard.Policy)
	}
	if c.Safeguard.ConfirmTimeout.Duration() <= 0 {
		return fmt.Errorf("safeguard.confirm_timeout must be positive")
	}

	return c.Logging.Validate()
}
